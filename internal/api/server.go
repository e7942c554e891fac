// Package api provides the bibleref REST and WebSocket server.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/FocuswithJustin/bibleref/core/passage"
	"github.com/FocuswithJustin/bibleref/internal/cache"
	"github.com/FocuswithJustin/bibleref/internal/logging"
	"github.com/FocuswithJustin/bibleref/internal/server"
	"github.com/FocuswithJustin/bibleref/internal/store"
)

// Server serves the API over one store.
type Server struct {
	cfg      Config
	store    *store.Store
	refs     *cache.Memo[string, passage.Reference]
	hub      *Hub
	upgrader websocket.Upgrader
	started  time.Time
}

// New returns a Server backed by st and starts its event hub. Call Close
// when done.
func New(cfg Config, st *store.Store) *Server {
	cfg = cfg.withDefaults()
	s := &Server{
		cfg:     cfg,
		store:   st,
		refs:    cache.NewMemo[string, passage.Reference](cfg.CacheTTL, cfg.CacheSize),
		hub:     NewHub(),
		started: time.Now(),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	go s.hub.Run()
	return s
}

// Close stops the event hub and disconnects its clients.
func (s *Server) Close() {
	s.hub.Stop()
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.routes()
	h = server.SecurityHeaders(h)
	h = server.CORS(server.CORSConfig{AllowedOrigins: s.cfg.AllowedOrigins}, h)
	return logging.CombinedMiddleware(h)
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/books", s.handleBooks)
	mux.HandleFunc("/books/", s.handleBook)
	mux.HandleFunc("/parse", s.handleParse)
	mux.HandleFunc("/decode", s.handleDecode)
	mux.HandleFunc("/osis", s.handleOSIS)
	mux.HandleFunc("/collections", s.handleCollections)
	mux.HandleFunc("/collections/", s.handleCollectionPath)
	mux.HandleFunc("/ws/resolve", s.handleResolveSocket)
	mux.HandleFunc("/ws/events", s.handleEventSocket)

	return mux
}

// checkOrigin accepts clients that send no Origin header, which browsers
// always set on WebSocket requests.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(s.cfg.AllowedOrigins) == 0 {
		return true
	}
	if server.OriginAllowed(origin, s.cfg.AllowedOrigins) {
		return true
	}
	logging.Warn("websocket_origin_rejected", "origin", origin)
	return false
}

// resolve parses text through the memo. Failed parses are not cached.
func (s *Server) resolve(ctx context.Context, text string) (passage.Reference, error) {
	key := strings.ToLower(strings.TrimSpace(text))
	ref, err := s.refs.GetOrCompute(key, func() (passage.Reference, error) {
		return passage.FromString(key)
	})
	if err != nil {
		logging.ReferenceRejected(ctx, text, err)
		return passage.Reference{}, err
	}
	code := passage.Encode(ref)
	logging.ReferenceResolved(ctx, text, ref.String(), code.Start, code.End)
	return ref, nil
}

// Start opens the configured store and serves until ctx is cancelled.
func Start(ctx context.Context, cfg Config) error {
	st, err := store.Open(ctx, store.Config{Driver: cfg.DBDriver, DSN: cfg.DSN})
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	s := New(cfg, st)
	defer s.Close()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if len(cfg.AllowedOrigins) == 0 {
		logging.Warn("cors_configured", "mode", "permissive", "note", "allowing all origins (*)")
	}
	logging.ServerStartup("rest_api", "http", s.cfg.Port,
		"websocket", "ws",
		"db_driver", cfg.DBDriver,
		"cache_size", s.cfg.CacheSize)

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logging.Info("server_shutdown", "reason", ctx.Err())
		return srv.Shutdown(shutdownCtx)
	}
}
