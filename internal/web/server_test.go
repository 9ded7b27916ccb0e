package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zheng/cuml/internal/model"
	"github.com/zheng/cuml/internal/storage"
)

func testSnapshot() []*storage.StoredFile {
	return []*storage.StoredFile{{
		Path:    "shapes.ts",
		Package: ".",
		File: &model.File{Name: "shapes.ts", Parts: []model.Part{
			&model.Interface{Name: "Shape"},
			&model.Class{Name: "Circle", Implements: []model.Ref{{Name: "Shape"}}, Members: []model.Member{
				&model.Property{Name: "center", ReturnType: model.TypeRef{Text: "Point"}},
			}},
			&model.Class{Name: "Point"},
		}},
	}}
}

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	s := NewServer(testSnapshot(), 0)
	handler, err := s.Handler()
	if err != nil {
		t.Fatalf("Handler() error: %v", err)
	}
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return s, srv
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func TestHandleDiagram(t *testing.T) {
	_, srv := newTestServer(t)

	tests := []struct {
		name       string
		query      string
		wantStatus int
		want       string
	}{
		{"default plantuml", "", http.StatusOK, "@startuml"},
		{"mermaid association", "?dialect=mermaid&relationships=association", http.StatusOK, "Circle ..> \"1\" Point"},
		{"only interfaces", "?only=interfaces", http.StatusOK, "interface Shape"},
		{"focused", "?target=Circle", http.StatusOK, "class Circle implements Shape"},
		{"unknown target", "?target=Nope", http.StatusNotFound, "target class not found"},
		{"bad dialect", "?dialect=dot", http.StatusBadRequest, "dot"},
		{"bad mode", "?relationships=x", http.StatusBadRequest, "unknown relationship mode"},
		{"bad filter", "?only=enums", http.StatusBadRequest, "unknown filter"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := get(t, srv.URL+"/api/diagram"+tt.query)
			if status != tt.wantStatus {
				t.Errorf("status = %d, want %d (%s)", status, tt.wantStatus, body)
			}
			if !strings.Contains(body, tt.want) {
				t.Errorf("body missing %q:\n%s", tt.want, body)
			}
		})
	}
}

func TestHandleTypesAndStats(t *testing.T) {
	_, srv := newTestServer(t)

	_, body := get(t, srv.URL+"/api/types?kind=class&q=CIR")
	var types []TypeData
	if err := json.Unmarshal([]byte(body), &types); err != nil {
		t.Fatalf("decode types: %v", err)
	}
	if len(types) != 1 || types[0].Name != "Circle" || types[0].File != "shapes.ts" {
		t.Errorf("types = %+v", types)
	}

	_, body = get(t, srv.URL+"/api/stats")
	var stats StatsData
	if err := json.Unmarshal([]byte(body), &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.Files != 1 || stats.Declarations != 3 || stats.ByKind[model.KindClass] != 2 || stats.Edges != 1 || stats.Version != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestIndexPage(t *testing.T) {
	_, srv := newTestServer(t)
	status, body := get(t, srv.URL+"/")
	if status != http.StatusOK || !strings.Contains(body, "/api/diagram") {
		t.Errorf("index = %d", status)
	}
}

func TestWebSocketReload(t *testing.T) {
	s, srv := newTestServer(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var ev Event
	if err := conn.ReadJSON(&ev); err != nil || ev.Type != "hello" || ev.Version != 1 {
		t.Fatalf("hello = %+v, %v", ev, err)
	}

	s.Update(nil)
	if err := conn.ReadJSON(&ev); err != nil || ev.Type != "reload" || ev.Version != 2 {
		t.Fatalf("reload = %+v, %v", ev, err)
	}

	_, body := get(t, srv.URL+"/api/types")
	if strings.TrimSpace(body) != "[]" {
		t.Errorf("types after update = %s", body)
	}
}
