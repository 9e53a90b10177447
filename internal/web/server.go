// Package web serves the live tab conversion UI and its JSON API.
package web

import (
	"embed"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/DesigningLevers0/tab-to-notes/core/settings"
	"github.com/DesigningLevers0/tab-to-notes/internal/cache"
	"github.com/DesigningLevers0/tab-to-notes/internal/logging"
	"github.com/DesigningLevers0/tab-to-notes/internal/server"
)

//go:embed static/*
var staticFS embed.FS

// Response cache bounds. Live editing replays near-identical requests, so
// a small window catches most repeats.
const (
	cacheSize = 256
	cacheTTL  = 5 * time.Minute
)

// Config holds server configuration.
type Config struct {
	Port     int
	Settings *settings.Settings
	Version  string
}

// Server converts tabs for browser clients. The configured settings are
// the per-request baseline; request options overlay a clone of them.
type Server struct {
	cfg       Config
	clients   atomic.Int64
	responses *cache.LRU[[32]byte, ConvertResponse]
}

// New returns a Server over the given configuration.
func New(cfg Config) *Server {
	return &Server{
		cfg:       cfg,
		responses: cache.New[[32]byte, ConvertResponse](cacheSize, cacheTTL),
	}
}

// Handler returns the full middleware-wrapped route tree.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/api/convert", s.handleConvert)
	mux.HandleFunc("/api/health", s.handleHealth)
	return logging.CombinedMiddleware(server.SecurityHeaders(server.PreviewPolicy(), mux))
}

// Start runs the server until it fails.
func (s *Server) Start() error {
	logging.ServerStartup("web_ui", "http", s.cfg.Port)
	return http.ListenAndServe(fmt.Sprintf(":%d", s.cfg.Port), s.Handler())
}
