package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/zheng/cuml/internal/config"
	"github.com/zheng/cuml/internal/project"
	"github.com/zheng/cuml/internal/storage"
)

// RunFunc re-analyzes the project after the given files changed
type RunFunc func(ctx context.Context, changed []string) (*project.SyncResult, error)

// Watcher watches for source changes and triggers reanalysis
type Watcher struct {
	projectPath string
	extensions  []string
	fsWatcher   *fsnotify.Watcher
	run         RunFunc

	// Debouncing
	debounceDelay time.Duration
	pendingFiles  map[string]struct{}
	pendingMu     sync.Mutex
	debounceTimer *time.Timer

	// Callbacks
	onAnalysisStart func(changed []string)
	onAnalysisDone  func(result *project.SyncResult, duration time.Duration)
	onError         func(error)

	// Control
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// WatcherOption configures the watcher
type WatcherOption func(*Watcher)

// WithDebounceDelay sets the debounce delay
func WithDebounceDelay(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.debounceDelay = d
	}
}

// WithRunner replaces the default analysis
func WithRunner(run RunFunc) WatcherOption {
	return func(w *Watcher) {
		w.run = run
	}
}

// WithOnAnalysisStart sets the callback for when analysis starts
func WithOnAnalysisStart(fn func(changed []string)) WatcherOption {
	return func(w *Watcher) {
		w.onAnalysisStart = fn
	}
}

// WithOnAnalysisDone sets the callback for when analysis completes
func WithOnAnalysisDone(fn func(result *project.SyncResult, duration time.Duration)) WatcherOption {
	return func(w *Watcher) {
		w.onAnalysisDone = fn
	}
}

// WithOnError sets the callback for errors
func WithOnError(fn func(error)) WatcherOption {
	return func(w *Watcher) {
		w.onError = fn
	}
}

// New creates a Watcher that re-extracts projectPath into the database at
// dbPath whenever a source file of the configured language changes
func New(projectPath, dbPath string, cfg *config.Config, opts ...WatcherOption) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		projectPath:   projectPath,
		extensions:    cfg.SourceExtensions(),
		fsWatcher:     fsWatcher,
		debounceDelay: 500 * time.Millisecond,
		pendingFiles:  make(map[string]struct{}),
		ctx:           ctx,
		cancel:        cancel,
	}
	w.run = func(ctx context.Context, _ []string) (*project.SyncResult, error) {
		db, err := storage.Open(dbPath)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		return project.Analyze(ctx, db, projectPath, cfg)
	}

	for _, opt := range opts {
		opt(w)
	}

	if err := w.addDirs(); err != nil {
		cancel()
		fsWatcher.Close()
		return nil, fmt.Errorf("failed to add directories to watch: %w", err)
	}

	return w, nil
}

func skipDir(name string) bool {
	return strings.HasPrefix(name, ".") || name == "vendor" || name == "node_modules" || name == "testdata"
}

// addDirs recursively adds all directories to the watcher
func (w *Watcher) addDirs() error {
	return filepath.Walk(w.projectPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if path != w.projectPath && skipDir(info.Name()) {
				return filepath.SkipDir
			}
			return w.fsWatcher.Add(path)
		}
		return nil
	})
}

// Start begins watching for changes
func (w *Watcher) Start() {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.eventLoop()
	}()
}

// Stop stops the watcher and cancels a running analysis
func (w *Watcher) Stop() error {
	w.cancel()
	w.pendingMu.Lock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.pendingMu.Unlock()
	err := w.fsWatcher.Close()
	w.wg.Wait()
	return err
}

// eventLoop handles file system events
func (w *Watcher) eventLoop() {
	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			if w.onError != nil {
				w.onError(err)
			}
		}
	}
}

// relevant reports whether a change of name can alter the model
func (w *Watcher) relevant(name string) bool {
	base := filepath.Base(name)
	if strings.HasSuffix(base, "_test.go") || strings.HasSuffix(base, ".d.ts") {
		return false
	}
	for _, ext := range w.extensions {
		if strings.HasSuffix(base, ext) {
			return true
		}
	}
	return false
}

// handleEvent processes a single file system event
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !skipDir(info.Name()) {
				w.fsWatcher.Add(event.Name)
			}
			return
		}
	}

	if !w.relevant(event.Name) {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	w.pendingFiles[event.Name] = struct{}{}

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debounceDelay, w.triggerAnalysis)
}

// triggerAnalysis runs the analysis after debounce
func (w *Watcher) triggerAnalysis() {
	w.pendingMu.Lock()
	files := make([]string, 0, len(w.pendingFiles))
	for f := range w.pendingFiles {
		files = append(files, f)
	}
	w.pendingFiles = make(map[string]struct{})
	w.pendingMu.Unlock()

	if len(files) == 0 || w.ctx.Err() != nil {
		return
	}
	sort.Strings(files)

	if w.onAnalysisStart != nil {
		w.onAnalysisStart(files)
	}

	startTime := time.Now()
	result, err := w.run(w.ctx, files)
	if err != nil {
		if w.onError != nil {
			w.onError(fmt.Errorf("analysis failed: %w", err))
		}
		return
	}

	if w.onAnalysisDone != nil {
		w.onAnalysisDone(result, time.Since(startTime))
	}
}
