// Package server exposes an editor session over HTTP. Commands are plain JSON
// endpoints; pointer events and live notifications travel over a WebSocket.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/TFMV/graphedit/editor"
	"github.com/TFMV/graphedit/models"
	"github.com/TFMV/graphedit/render"
)

// Configuration for the server
type Config struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DefaultConfig returns the server defaults for port.
func DefaultConfig(port int) Config {
	return Config{
		Port:            port,
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    30 * time.Second,
		IdleTimeout:     120 * time.Second,
		ShutdownTimeout: 5 * time.Second,
	}
}

// Server serves one editor session.
type Server struct {
	cfg         Config
	session     *editor.Session
	hub         *Hub
	upgrader    websocket.Upgrader
	mux         *http.ServeMux
	unsubscribe func()
}

// New creates a server for session and subscribes its WebSocket hub to the session's
// notifications.
func New(session *editor.Session, cfg Config) *Server {
	s := &Server{
		cfg:     cfg,
		session: session,
		hub:     NewHub(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		mux: http.NewServeMux(),
	}
	s.unsubscribe = session.Subscribe(s.hub.Broadcast)
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /{$}", instrument("index", handleIndex))
	s.mux.HandleFunc("POST /api/graph/generate", instrument("generate", s.handleGenerate))
	s.mux.HandleFunc("POST /api/graph/delete", instrument("delete", s.handleDelete))
	s.mux.HandleFunc("POST /api/edges/weight", instrument("edge_weight", s.handleEdgeWeight))
	s.mux.HandleFunc("POST /api/path/toggle", instrument("path_toggle", s.handlePathToggle))
	s.mux.HandleFunc("POST /api/path/reset", instrument("path_reset", s.handlePathReset))
	s.mux.HandleFunc("POST /api/traversal/start", instrument("traversal_start", s.handleTraversalStart))
	s.mux.HandleFunc("GET /api/graph", instrument("graph", s.handleGraph))
	s.mux.HandleFunc("GET /api/graph.svg", instrument("graph_svg", s.handleGraphSVG))
	s.mux.HandleFunc("GET /ws", s.handleWebSocket)
	s.mux.Handle("GET /metrics", promhttp.Handler())
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Run listens on the configured port until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.mux,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "port", s.cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.Close()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	s.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	slog.Info("server stopped")
	return nil
}

// Close detaches the server from the session and disconnects WebSocket clients.
func (s *Server) Close() {
	s.unsubscribe()
	s.hub.Close()
}

// stateResponse is returned by every graph command.
type stateResponse struct {
	Mode  string          `json:"mode"`
	Graph render.Document `json:"graph"`
}

type edgeWeightRequest struct {
	A      models.NodeID `json:"a"`
	B      models.NodeID `json:"b"`
	Weight int           `json:"weight"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if err := s.session.GenerateGraph(); err != nil {
		s.writeCommandError(w, err)
		return
	}
	s.writeState(w)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.session.DeleteGraph(); err != nil {
		s.writeCommandError(w, err)
		return
	}
	s.writeState(w)
}

func (s *Server) handleEdgeWeight(w http.ResponseWriter, r *http.Request) {
	var req edgeWeightRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Weight < 1 {
		writeError(w, http.StatusBadRequest, "weight must be a positive integer")
		return
	}
	ok, err := s.session.SetEdgeWeight(req.A, req.B, req.Weight)
	if err != nil {
		s.writeCommandError(w, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no edge between %d and %d", req.A, req.B))
		return
	}
	s.writeState(w)
}

func (s *Server) handlePathToggle(w http.ResponseWriter, r *http.Request) {
	if err := s.session.TogglePathMode(); err != nil {
		s.writeCommandError(w, err)
		return
	}
	s.writeState(w)
}

func (s *Server) handlePathReset(w http.ResponseWriter, r *http.Request) {
	if err := s.session.ResetPath(); err != nil {
		s.writeCommandError(w, err)
		return
	}
	s.writeState(w)
}

func (s *Server) handleTraversalStart(w http.ResponseWriter, r *http.Request) {
	id, err := s.session.StartTraversal()
	if err != nil {
		s.writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"job_id": id})
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	s.writeState(w)
}

func (s *Server) handleGraphSVG(w http.ResponseWriter, r *http.Request) {
	snap, err := s.session.Snapshot()
	if err != nil {
		s.writeCommandError(w, err)
		return
	}

	options := render.NewDefaultOptions("svg")
	if v, err := strconv.Atoi(r.URL.Query().Get("width")); err == nil && v > 0 {
		options.Width = float64(v)
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("height")); err == nil && v > 0 {
		options.Height = float64(v)
	}

	output, err := render.Render(snap, options)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "error generating visualization")
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Write(output)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("failed to upgrade the websocket", "error", err)
		return
	}
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	s.hub.add(c)
	go c.writePump()
	defer s.hub.remove(c)
	slog.Info("websocket client connected", "remote", conn.RemoteAddr().String())

	if snap, err := s.session.Snapshot(); err == nil {
		s.hub.sendTo(c, map[string]any{"type": "snapshot", "graph": render.NewDocument(snap)})
	}

	for {
		var msg inputMessage
		if err := conn.ReadJSON(&msg); err != nil {
			slog.Info("websocket client disconnected", "error", err.Error())
			return
		}
		conn.SetReadDeadline(time.Now().Add(pongWait))
		ev, err := msg.event()
		if err != nil {
			s.hub.sendTo(c, map[string]string{"type": "error", "message": err.Error()})
			continue
		}
		if err := s.session.Pointer(ev); err != nil {
			return
		}
	}
}

func (s *Server) writeState(w http.ResponseWriter) {
	snap, err := s.session.Snapshot()
	if err != nil {
		s.writeCommandError(w, err)
		return
	}
	mode, err := s.session.Mode()
	if err != nil {
		s.writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stateResponse{Mode: mode.String(), Graph: render.NewDocument(snap)})
}

func (s *Server) writeCommandError(w http.ResponseWriter, err error) {
	if errors.Is(err, editor.ErrStopped) {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeError(w, http.StatusBadRequest, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
