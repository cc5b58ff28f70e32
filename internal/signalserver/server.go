package signalserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/BioHazard786/rtcshare/internal/config"
	"github.com/BioHazard786/rtcshare/internal/logging"
)

// Server bundles the hub with its HTTP surface.
type Server struct {
	cfg     *config.Server
	hub     *Hub
	limiter *IPRateLimiter
	log     *zerolog.Logger
}

// New creates a server; call Run to start serving.
func New(cfg *config.Server, log *zerolog.Logger) *Server {
	log = logging.Or(log)
	return &Server{
		cfg:     cfg,
		hub:     NewHub(log),
		limiter: NewIPRateLimiter(rate.Limit(cfg.UpgradeRate), cfg.UpgradeBurst),
		log:     log,
	}
}

// Hub exposes the running hub, mainly for stats.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Router sets up the routes: /health for probes and / for websocket upgrades.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	corsOrigins := s.cfg.AllowedOrigins
	if s.cfg.IsDevelopment() {
		corsOrigins = []string{"*"}
	}
	r.Use(cors.New(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		MaxAge:         300,
	}).Handler)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/", s.handleWebSocket)

	return r
}

func (s *Server) upgrader() *websocket.Upgrader {
	allowed := make(map[string]struct{}, len(s.cfg.AllowedOrigins))
	for _, origin := range s.cfg.AllowedOrigins {
		allowed[origin] = struct{}{}
	}

	return &websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if s.cfg.IsDevelopment() || origin == "" {
				return true
			}
			if _, ok := allowed[origin]; ok {
				return true
			}
			s.log.Warn().Str("origin", origin).Msg("WebSocket connection rejected: Origin not allowed")
			return false
		},
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status": "ok",
		"stats":  s.hub.Stats(),
	})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if !websocket.IsWebSocketUpgrade(r) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("Signaling server is healthy."))
		return
	}

	if !s.limiter.Allow(r) {
		s.log.Warn().Str("ip", clientIP(r)).Msg("WebSocket connection rejected: Rate limit exceeded")
		http.Error(w, "Too many requests. Please try again later.", http.StatusTooManyRequests)
		return
	}

	conn, err := s.upgrader().Upgrade(w, r, nil)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to upgrade connection")
		return
	}

	client := newClient(s.hub, conn, conn.RemoteAddr().String())
	select {
	case s.hub.register <- client:
	case <-s.hub.quit:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote", r.RemoteAddr).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	})
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	go s.hub.Run()
	defer s.hub.Shutdown()

	go func() {
		ticker := time.NewTicker(3 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				removed := s.limiter.Sweep(now)
				s.log.Debug().Int("removed", removed).Int("active", s.limiter.Len()).Msg("Rate limiter cleanup")
			}
		}
	}()

	server := &http.Server{
		Addr:        s.cfg.Addr(),
		Handler:     s.Router(),
		ReadTimeout: 5 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", server.Addr).Msg("Signaling server starting")
		errc <- server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Info().Msg("Received shutdown signal. Starting graceful shutdown...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
