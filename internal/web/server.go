package web

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/zheng/cuml/internal/format"
	"github.com/zheng/cuml/internal/hierarchy"
	"github.com/zheng/cuml/internal/model"
	"github.com/zheng/cuml/internal/relation"
	"github.com/zheng/cuml/internal/render"
	"github.com/zheng/cuml/internal/storage"
)

//go:embed static/*
var staticFS embed.FS

// Server is the web server for browsing class diagrams
type Server struct {
	port     int
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	files   []*storage.StoredFile
	version int64

	clientsMu sync.Mutex
	clients   map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	send chan Event
}

// NewServer creates a new web server over a stored snapshot
func NewServer(files []*storage.StoredFile, port int) *Server {
	return &Server{
		port:    port,
		files:   files,
		version: 1,
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // local tool, served on localhost
			},
		},
	}
}

// API response types
type TypeData struct {
	Name    string     `json:"name"`
	Kind    model.Kind `json:"kind"`
	File    string     `json:"file"`
	Package string     `json:"package"`
}

type StatsData struct {
	Files        int                `json:"files"`
	Declarations int                `json:"declarations"`
	ByKind       map[model.Kind]int `json:"byKind"`
	Edges        int                `json:"edges"`
	Version      int64              `json:"version"`
}

// Event is pushed to websocket clients
type Event struct {
	Type    string `json:"type"` // "hello" or "reload"
	Version int64  `json:"version"`
}

// Update replaces the snapshot and notifies connected browsers
func (s *Server) Update(files []*storage.StoredFile) {
	s.mu.Lock()
	s.files = files
	s.version++
	ev := Event{Type: "reload", Version: s.version}
	s.mu.Unlock()

	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	for c := range s.clients {
		select {
		case c.send <- ev:
		default:
			// a reload is already pending for this client
		}
	}
}

func (s *Server) snapshot() ([]*storage.StoredFile, int64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.files, s.version
}

// Handler returns the HTTP handler of the server
func (s *Server) Handler() (http.Handler, error) {
	mux := http.NewServeMux()

	// API endpoints
	mux.HandleFunc("/api/diagram", s.handleDiagram)
	mux.HandleFunc("/api/types", s.handleTypes)
	mux.HandleFunc("/api/stats", s.handleStats)
	mux.HandleFunc("/ws", s.handleWebSocket)

	// Static files
	staticContent, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("failed to get static files: %w", err)
	}
	mux.Handle("/", http.FileServer(http.FS(staticContent)))
	return mux, nil
}

// Run starts the web server
func (s *Server) Run() error {
	handler, err := s.Handler()
	if err != nil {
		return err
	}
	addr := fmt.Sprintf(":%d", s.port)
	log.Printf("🌐 Web UI 启动: http://localhost%s", addr)
	return http.ListenAndServe(addr, handler)
}

// handleDiagram renders the snapshot with the options from the query string
func (s *Server) handleDiagram(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	dialect, err := format.ParseDialect(q.Get("dialect"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	mode, err := relation.ParseMode(q.Get("relationships"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	opts := render.Options{
		Dialect:       dialect,
		Relationships: mode,
		TargetClass:   q.Get("target"),
	}
	switch q.Get("only") {
	case "":
	case "classes":
		opts.OnlyClasses = true
	case "interfaces":
		opts.OnlyInterfaces = true
	default:
		http.Error(w, fmt.Sprintf("unknown filter %q (expected classes or interfaces)", q.Get("only")), http.StatusBadRequest)
		return
	}

	files, _ := s.snapshot()
	text, err := render.Render(storage.Models(files), opts)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, hierarchy.ErrTargetNotFound) {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	fmt.Fprint(w, text)
}

// handleTypes lists the declarations, optionally narrowed by kind and name
func (s *Server) handleTypes(w http.ResponseWriter, r *http.Request) {
	kind := model.Kind(r.URL.Query().Get("kind"))
	pattern := strings.ToLower(r.URL.Query().Get("q"))

	files, _ := s.snapshot()
	types := []TypeData{}
	for _, f := range files {
		for _, d := range model.Declarations([]*model.File{f.File}) {
			if kind != "" && d.Part.Kind() != kind {
				continue
			}
			if pattern != "" && !strings.Contains(strings.ToLower(d.Part.NodeName()), pattern) {
				continue
			}
			types = append(types, TypeData{
				Name:    d.Part.NodeName(),
				Kind:    d.Part.Kind(),
				File:    f.Path,
				Package: f.Package,
			})
		}
	}

	writeJSON(w, types)
}

// handleStats returns snapshot statistics
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	files, version := s.snapshot()
	models := storage.Models(files)

	stats := StatsData{
		Files:   len(files),
		ByKind:  make(map[model.Kind]int),
		Version: version,
	}
	for _, d := range model.Declarations(models) {
		stats.ByKind[d.Part.Kind()]++
		stats.Declarations++
	}
	stats.Edges = len(relation.Infer(models, relation.ModeAssociation))

	writeJSON(w, stats)
}

// handleWebSocket keeps a browser informed about new snapshots
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	c := &client{conn: conn, send: make(chan Event, 1)}
	s.clientsMu.Lock()
	s.clients[c] = struct{}{}
	s.clientsMu.Unlock()
	defer func() {
		s.clientsMu.Lock()
		delete(s.clients, c)
		s.clientsMu.Unlock()
	}()

	_, version := s.snapshot()
	if err := conn.WriteJSON(Event{Type: "hello", Version: version}); err != nil {
		return
	}

	// Reads only detect the browser going away
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case ev := <-c.send:
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		}
	}
}

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	json.NewEncoder(w).Encode(data)
}
