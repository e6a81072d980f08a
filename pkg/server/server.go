package server

import (
	"context"
	stderrors "errors"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net"
	"net/http"
	"path"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/plain-reactive/plain/internal/dev"
	"github.com/plain-reactive/plain/pkg/widget"
)

// Server is the HTTP/WebSocket server for one widget host.
type Server struct {
	// mu serializes every access to host.
	mu   sync.Mutex
	host *widget.Host

	hub        *dev.Hub
	router     chi.Router
	config     *Config
	logger     *slog.Logger
	httpServer *http.Server
}

// New creates a Server for host. Patches the host produces from now on are
// broadcast to every connected client.
func New(host *widget.Host, config *Config) *Server {
	config = config.withDefaults()
	s := &Server{
		host:   host,
		config: config,
		logger: config.Logger.With("component", "server"),
	}
	s.hub = dev.NewHub(
		dev.WithHubLogger(s.logger),
		dev.WithHubMetrics(config.Metrics),
		dev.WithCheckOrigin(config.CheckOrigin),
	)
	host.OnPatch(func(p widget.Patch) {
		s.hub.Broadcast(patchMessage(p))
	})
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "ok")
	})
	if s.config.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.config.Gatherer, promhttp.HandlerOpts{}))
	}
	r.Get("/ws", s.handleWebSocket)
	r.Get("/*", s.handlePage)
	return r
}

// requestLogger logs each request at debug level.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// Handler returns the server's HTTP handler, for mounting in another
// router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Hub returns the websocket hub.
func (s *Server) Hub() *dev.Hub {
	return s.hub
}

// Do runs fn with exclusive access to the host.
func (s *Server) Do(fn func(h *widget.Host) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.host)
}

// handlePage writes the full document. With a resolver configured, a
// request for a path other than the current one navigates first. Paths
// with a file extension are not pages.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	if path.Ext(r.URL.Path) != "" {
		http.NotFound(w, r)
		return
	}
	s.mu.Lock()
	if res := s.config.Resolver; res != nil && res.Resolve(r.URL.Path) != "" {
		if current := res.Href(res.Current()); current != r.URL.Path {
			if err := res.NavigateTo(r.URL.Path); err != nil {
				s.logger.Warn("server: navigation failed", "path", r.URL.Path, "error", err)
			}
		}
	}
	body := s.host.RenderHTML()
	s.mu.Unlock()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, "<!DOCTYPE html><html><head><meta charset=\"utf-8\"><title>%s</title></head><body>%s<script>%s</script></body></html>",
		html.EscapeString(s.config.Title), body, ClientScript)
}

// Restyle reloads stylesheet name, refreshes the widgets using it and tells
// clients to reload.
func (s *Server) Restyle(ctx context.Context, name string) error {
	s.mu.Lock()
	refreshed, err := s.host.Restyle(ctx, name)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.logger.Info("server: stylesheet reloaded", "name", name, "widgets", len(refreshed))
	if len(refreshed) > 0 {
		s.hub.NotifyReload(name + ".css")
	}
	return nil
}

// Run listens on the configured address and blocks until ctx ends or the
// listener fails. Ending ctx shuts the server down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: s.config.ReadHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "address", ln.Addr().String())
		errCh <- s.httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down...")
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	s.hub.Close()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", "error", err)
			return err
		}
	}

	s.logger.Info("server shutdown complete")
	return nil
}
