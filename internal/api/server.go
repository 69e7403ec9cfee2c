// Package api provides the HTTP API for observing the village.
// GET endpoints are public (read-only observation).
// POST endpoints require a bearer token (admin control plane).
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/talgya/mini-village/internal/engine"
	"github.com/talgya/mini-village/internal/events"
	"github.com/talgya/mini-village/internal/persistence"
	"github.com/talgya/mini-village/internal/tasks"
	"github.com/talgya/mini-village/internal/world"
)

const (
	maxSSEConns = 2
	maxWSConns  = 16
	maxSpeed    = 1000
)

// Server serves the village state over HTTP.
type Server struct {
	Sim      *engine.Simulation
	Eng      *engine.Engine
	DB       *persistence.DB // Optional; events fall back to the feed ring
	Port     int
	AdminKey string // Bearer token for POST endpoints. Empty = POST disabled.
	RelayKey string // Bearer token for the SSE stream. Empty = streaming disabled.

	// StatusEvery is the WebSocket push period (default one second).
	StatusEvery time.Duration

	sseConns atomic.Int32
	wsConns  atomic.Int32
	upgrader websocket.Upgrader
}

// Handler builds the routing tree.
func (s *Server) Handler() http.Handler {
	eventsLimiter := NewRateLimiter(120, time.Minute)
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 16 * 1024,
		CheckOrigin:     func(r *http.Request) bool { return true },
	}

	mux := http.NewServeMux()

	// Public endpoints (GET, read-only).
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/villagers", s.handleVillagers)
	mux.HandleFunc("/api/v1/villager/", s.adminOnly(s.handleVillagerRoutes))
	mux.HandleFunc("/api/v1/trees", s.handleTrees)
	mux.HandleFunc("/api/v1/storage", s.handleStorage)
	mux.HandleFunc("/api/v1/events", RateLimitMiddleware(eventsLimiter, s.handleEvents))

	// Streams.
	mux.HandleFunc("/api/v1/stream", s.handleStream)
	mux.HandleFunc("/api/v1/ws", s.handleWS)

	// Admin endpoints (POST, require bearer token).
	mux.HandleFunc("/api/v1/speed", s.adminOnly(s.handleSpeed))

	return corsMiddleware(mux)
}

// Start serves the API until ctx is cancelled.
func (s *Server) Start(ctx context.Context) {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("HTTP API starting", "addr", srv.Addr, "admin_auth", s.AdminKey != "", "relay_auth", s.RelayKey != "")

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set CORS_ORIGINS to a comma-separated list of extra origins.
// Localhost dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerMatches(r *http.Request, key string) bool {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	return ok && key != "" && token == key
}

// adminOnly wraps a handler to require bearer token auth on POST requests.
// GET requests pass through.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if s.AdminKey == "" {
				http.Error(w, "admin endpoints disabled (no VILLAGESIM_ADMIN_KEY set)", http.StatusForbidden)
				return
			}
			if !bearerMatches(r, s.AdminKey) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		next(w, r)
	}
}

type statusResponse struct {
	engine.Status
	Speed   float64 `json:"speed"`
	Running bool    `json:"running"`
	Run     string  `json:"run,omitempty"`
}

func (s *Server) status() statusResponse {
	resp := statusResponse{
		Status:  s.Sim.Status(),
		Speed:   s.Eng.Speed(),
		Running: s.Eng.Running(),
	}
	if s.DB != nil {
		resp.Run = s.DB.RunID()
	}
	return resp
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.status())
}

func (s *Server) handleVillagers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Sim.Villagers())
}

// handleVillagerRoutes dispatches GET /api/v1/villager/{id} and
// POST /api/v1/villager/{id}/tasks.
func (s *Server) handleVillagerRoutes(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/villager/")
	idPart, sub, _ := strings.Cut(rest, "/")
	n, err := strconv.ParseUint(idPart, 10, 64)
	if err != nil {
		http.Error(w, "invalid villager id", http.StatusBadRequest)
		return
	}
	id := world.EntityID(n)

	switch {
	case sub == "" && r.Method == http.MethodGet:
		v, err := s.Sim.Villager(id)
		if err != nil {
			http.Error(w, "villager not found", http.StatusNotFound)
			return
		}
		writeJSON(w, v)
	case sub == "tasks" && r.Method == http.MethodPost:
		s.handleAssign(w, r, id)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

type assignRequest struct {
	Tasks  []tasks.Spec `json:"tasks"`
	Append bool         `json:"append"` // Add to the back instead of replacing
}

func (s *Server) handleAssign(w http.ResponseWriter, r *http.Request, id world.EntityID) {
	var req assignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	ts := make([]tasks.Task, 0, len(req.Tasks))
	for _, spec := range req.Tasks {
		t, err := tasks.FromSpec(spec)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		ts = append(ts, t)
	}

	var err error
	if req.Append {
		for _, t := range ts {
			if err = s.Sim.Enqueue(id, t); err != nil {
				break
			}
		}
	} else {
		err = s.Sim.Assign(id, ts...)
	}
	switch {
	case errors.Is(err, world.ErrUnknownEntity):
		http.Error(w, "villager not found", http.StatusNotFound)
		return
	case errors.Is(err, engine.ErrNotWorker):
		http.Error(w, err.Error(), http.StatusConflict)
		return
	case err != nil:
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	slog.Info("tasks assigned", "villager", id, "count", len(ts), "append", req.Append)
	v, _ := s.Sim.Villager(id)
	writeJSON(w, v)
}

func (s *Server) handleTrees(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Sim.Trees())
}

func (s *Server) handleStorage(w http.ResponseWriter, r *http.Request) {
	st, err := s.Sim.Storage()
	if errors.Is(err, engine.ErrNoStorage) {
		http.Error(w, "village has no storage", http.StatusNotFound)
		return
	}
	writeJSON(w, st)
}

// handleEvents returns recent events, oldest first.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	if s.DB != nil {
		evs, err := s.DB.RecentEvents(limit)
		if err == nil {
			slices.Reverse(evs)
			writeJSON(w, evs)
			return
		}
		slog.Warn("chronicle read failed, serving feed", "error", err)
	}
	evs := s.Sim.Feed().Recent(limit)
	if evs == nil {
		evs = []events.Event{}
	}
	writeJSON(w, evs)
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		var req struct {
			Speed float64 `json:"speed"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if req.Speed < 0 || req.Speed > maxSpeed {
			http.Error(w, fmt.Sprintf("speed must be 0-%d", maxSpeed), http.StatusBadRequest)
			return
		}
		s.Eng.SetSpeed(req.Speed)
	}
	writeJSON(w, map[string]float64{"speed": s.Eng.Speed()})
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
