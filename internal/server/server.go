// Package server is the development server: it serves the built site,
// rebuilds it when the config or static files change and tells open pages to
// reload over a websocket.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/lumen-press/lumen/internal/config"
	"github.com/lumen-press/lumen/internal/logging"
	"github.com/lumen-press/lumen/internal/site"
	"github.com/lumen-press/lumen/internal/version"
	"github.com/lumen-press/lumen/internal/watcher"
)

// Path of the live-reload websocket endpoint.
const ReloadPath = "/_lumen/ws"

// HealthPath reports server and last-build status as JSON.
const HealthPath = "/_lumen/health"

// Builder produces the site. *site.Generator implements it.
type Builder interface {
	Build(ctx context.Context) (*site.Result, error)
}

var _ Builder = (*site.Generator)(nil)

// Client represents a WebSocket client
type Client struct {
	conn   *websocket.Conn
	send   chan []byte
	server *Server
}

// Server serves the output directory with live reload.
type Server struct {
	config     *config.Config
	builder    Builder
	logger     logging.Logger
	configPath string
	debounce   time.Duration

	httpServer  *http.Server
	listener    net.Listener
	serverMutex sync.RWMutex

	clients      map[*websocket.Conn]*Client
	clientsMutex sync.RWMutex
	broadcast    chan []byte
	register     chan *Client
	unregister   chan *websocket.Conn
	done         chan struct{}

	watcher *watcher.FileWatcher

	buildMutex sync.Mutex
	stateMutex sync.RWMutex
	lastResult *site.Result
	lastErr    error
	lastBuild  time.Time

	shutdownOnce sync.Once
}

// UpdateMessage represents a message sent to the browser
type UpdateMessage struct {
	Type      string    `json:"type"`
	Problems  int       `json:"problems,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Option customises a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithConfigPath names the config file whose edits trigger a rebuild.
func WithConfigPath(path string) Option {
	return func(s *Server) { s.configPath = path }
}

// WithDebounce sets how long the watcher waits for a burst of edits to
// settle before rebuilding.
func WithDebounce(d time.Duration) Option {
	return func(s *Server) { s.debounce = d }
}

// New creates a development server.
func New(cfg *config.Config, builder Builder, opts ...Option) *Server {
	s := &Server{
		config:     cfg,
		builder:    builder,
		logger:     logging.NewNopLogger(),
		configPath: config.FileName,
		debounce:   300 * time.Millisecond,
		clients:    make(map[*websocket.Conn]*Client),
		broadcast:  make(chan []byte, 16),
		register:   make(chan *Client),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithComponent("server")
	return s
}

// Handler returns the HTTP handler serving the site.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(ReloadPath, s.handleWebSocket)
	mux.HandleFunc(HealthPath, s.handleHealth)
	mux.HandleFunc("/", s.handleSite)
	return s.addMiddleware(mux)
}

// Start builds the site once, starts watching for changes and serves until
// ctx is cancelled or Shutdown is called.
func (s *Server) Start(ctx context.Context) error {
	if err := s.Rebuild(ctx); err != nil {
		// the overlay reports it; keep serving so a fix can be picked up
		s.logger.Warn(ctx, err, "initial build failed")
	}

	go s.runWebSocketHub(ctx)

	if s.config.Server.LiveReload {
		if err := s.setupFileWatcher(ctx); err != nil {
			s.logger.Warn(ctx, err, "file watching disabled")
		}
	}

	addr := net.JoinHostPort(s.config.Server.Host, strconv.Itoa(s.config.Server.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}

	s.serverMutex.Lock()
	s.listener = ln
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	server := s.httpServer
	s.serverMutex.Unlock()

	s.logger.Info(ctx, "serving site", "url", "http://"+ln.Addr().String(), "dir", s.config.Site.OutputDir)

	go func() {
		select {
		case <-ctx.Done():
		case <-s.done:
			return
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn(shutdownCtx, err, "shutdown failed")
		}
	}()

	if err := server.Serve(ln); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Addr returns the address the server listens on, or "" before Start.
func (s *Server) Addr() string {
	s.serverMutex.RLock()
	defer s.serverMutex.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *Server) setupFileWatcher(ctx context.Context) error {
	fw, err := watcher.NewFileWatcher(s.debounce, s.logger)
	if err != nil {
		return err
	}

	var accepted []watcher.FileFilter
	if s.configPath != "" {
		if err := fw.AddPath(filepath.Dir(s.configPath)); err != nil {
			s.logger.Warn(ctx, err, "cannot watch config file", "path", s.configPath)
		} else {
			accepted = append(accepted, watcher.NamedFilter(filepath.Base(s.configPath)))
		}
	}
	if dir := s.config.Site.StaticDir; dir != "" {
		if err := fw.AddRecursive(dir); err != nil {
			s.logger.Debug(ctx, "not watching static dir", "dir", dir, "error", err.Error())
		} else {
			accepted = append(accepted, watcher.UnderFilter(dir))
		}
	}
	if len(accepted) == 0 {
		fw.Stop()
		return fmt.Errorf("nothing to watch")
	}

	fw.AddFilter(watcher.AnyOf(accepted...))
	fw.AddFilter(watcher.NoTempFilter)
	fw.AddFilter(watcher.NoGitFilter)
	fw.AddHandler(func(events []watcher.ChangeEvent) error {
		return s.handleFileChange(ctx, events)
	})

	s.watcher = fw
	return fw.Start(ctx)
}

func (s *Server) handleFileChange(ctx context.Context, events []watcher.ChangeEvent) error {
	for _, event := range events {
		s.logger.Info(ctx, "file changed", "path", event.Path, "type", event.Type.String())
	}
	return s.Rebuild(ctx)
}

// Rebuild runs the builder, records the outcome for the error overlay and
// tells connected pages to reload. Rebuilds never overlap.
func (s *Server) Rebuild(ctx context.Context) error {
	s.buildMutex.Lock()
	defer s.buildMutex.Unlock()

	res, err := s.builder.Build(ctx)

	s.stateMutex.Lock()
	s.lastResult = res
	s.lastErr = err
	s.lastBuild = time.Now()
	s.stateMutex.Unlock()

	msg := UpdateMessage{Type: "reload", Timestamp: time.Now()}
	switch {
	case err != nil:
		s.logger.Error(ctx, err, "build failed")
		msg.Problems = 1
	case res.Errors.HasErrors():
		msg.Problems = len(res.Errors.GetAllErrors())
		s.logger.Warn(ctx, nil, "build finished with problems", "problems", msg.Problems)
	default:
		s.logger.Info(ctx, "build finished", "pages", res.Pages, "duration", res.Duration.String())
	}

	s.broadcastMessage(msg)
	return err
}

func (s *Server) broadcastMessage(msg UpdateMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		data = []byte(`{"type":"reload"}`)
	}
	select {
	case s.broadcast <- data:
	case <-s.done:
	default:
		// a reload is already queued
	}
}

// ClientCount returns the number of connected live-reload clients.
func (s *Server) ClientCount() int {
	s.clientsMutex.RLock()
	defer s.clientsMutex.RUnlock()
	return len(s.clients)
}

// Shutdown gracefully shuts down the server and cleans up resources
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.logger.Info(ctx, "shutting down")
		close(s.done)

		if s.watcher != nil {
			s.watcher.Stop()
		}

		s.clientsMutex.Lock()
		for conn, client := range s.clients {
			close(client.send)
			conn.Close(websocket.StatusGoingAway, "server shutting down")
		}
		s.clients = make(map[*websocket.Conn]*Client)
		s.clientsMutex.Unlock()

		s.serverMutex.RLock()
		server := s.httpServer
		s.serverMutex.RUnlock()
		if server != nil {
			shutdownErr = server.Shutdown(ctx)
		}
	})

	return shutdownErr
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.stateMutex.RLock()
	build := map[string]any{"status": "pending"}
	switch {
	case s.lastErr != nil:
		build = map[string]any{"status": "failed", "error": s.lastErr.Error(), "finished": s.lastBuild.UTC()}
	case s.lastResult != nil:
		status := "ok"
		if s.lastResult.Errors.HasErrors() {
			status = "problems"
		}
		build = map[string]any{
			"status":   status,
			"pages":    s.lastResult.Pages,
			"posts":    s.lastResult.Posts,
			"problems": len(s.lastResult.Errors.GetAllErrors()),
			"finished": s.lastBuild.UTC(),
		}
	}
	s.stateMutex.RUnlock()

	health := map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"version":   version.Short(),
		"clients":   s.ClientCount(),
		"build":     build,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(health); err != nil {
		s.logger.Warn(r.Context(), err, "encoding health response")
	}
}
