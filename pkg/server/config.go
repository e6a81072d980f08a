package server

import (
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/plain-reactive/plain/pkg/telemetry"
	"github.com/plain-reactive/plain/pkg/view"
)

// Config holds server configuration.
type Config struct {
	// Address is the listen address. Default: "localhost:3000".
	Address string

	// Title is the document title.
	Title string

	// Resolver handles navigate messages and the request path of page
	// loads. Optional.
	Resolver *view.Resolver

	// Gatherer backs /metrics. Nil disables the route.
	Gatherer prometheus.Gatherer

	// Metrics counts connected clients.
	Metrics *telemetry.Metrics

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// CheckOrigin validates websocket origins. Default: SameOriginCheck.
	CheckOrigin func(*http.Request) bool

	// MaxMessageSize bounds an inbound websocket message. Default: 64KB.
	MaxMessageSize int64

	// ReadHeaderTimeout bounds reading request headers. Default: 10 seconds.
	ReadHeaderTimeout time.Duration

	// ShutdownTimeout bounds a graceful shutdown. Default: 10 seconds.
	ShutdownTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Address:           "localhost:3000",
		Title:             "plain",
		Logger:            slog.Default(),
		CheckOrigin:       SameOriginCheck,
		MaxMessageSize:    64 * 1024,
		ReadHeaderTimeout: 10 * time.Second,
		ShutdownTimeout:   10 * time.Second,
	}
}

// withDefaults returns a copy of c with unset fields filled in.
func (c *Config) withDefaults() *Config {
	defaults := DefaultConfig()
	if c == nil {
		return defaults
	}
	out := *c
	if out.Address == "" {
		out.Address = defaults.Address
	}
	if out.Title == "" {
		out.Title = defaults.Title
	}
	if out.Logger == nil {
		out.Logger = defaults.Logger
	}
	if out.CheckOrigin == nil {
		out.CheckOrigin = defaults.CheckOrigin
	}
	if out.MaxMessageSize == 0 {
		out.MaxMessageSize = defaults.MaxMessageSize
	}
	if out.ReadHeaderTimeout == 0 {
		out.ReadHeaderTimeout = defaults.ReadHeaderTimeout
	}
	if out.ShutdownTimeout == 0 {
		out.ShutdownTimeout = defaults.ShutdownTimeout
	}
	return &out
}

// SameOriginCheck validates that the WebSocket request origin matches the host.
func SameOriginCheck(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	originURL, err := url.Parse(origin)
	if err != nil {
		return false
	}

	host := r.Host
	if host == "" {
		return false
	}

	return originURL.Host == host
}
