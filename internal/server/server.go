package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/jpeg"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/nfnt/resize"

	"screenpilot/internal/engine"
	"screenpilot/internal/session"
	"screenpilot/internal/step"
)

// Message types.
type Message struct {
	Type string `json:"type"`
}

type AddStepMessage struct {
	Type     string      `json:"type"`
	StepType string      `json:"step_type"`
	Params   step.Params `json:"params"`
}

type RemoveStepMessage struct {
	Type  string `json:"type"`
	Index int    `json:"index"`
}

type ReorderStepsMessage struct {
	Type     string `json:"type"`
	OldIndex int    `json:"old_index"`
	NewIndex int    `json:"new_index"`
}

type StepsMessage struct {
	Type  string      `json:"type"`
	Steps []step.Step `json:"steps"`
}

type LogMessage struct {
	Type      string    `json:"type"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

type StatusMessage struct {
	Type    string         `json:"type"`
	Running bool           `json:"running"`
	Last    *engine.Result `json:"last_result,omitempty"`
}

type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// rateLimiter tracks message timestamps using a sliding window.
type rateLimiter struct {
	timestamps []time.Time
	mu         sync.Mutex
}

// allow checks if a message is allowed and records the timestamp if so.
func (r *rateLimiter) allow() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-RateLimitWindow)

	// Prune old timestamps
	valid := r.timestamps[:0]
	for _, t := range r.timestamps {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}
	r.timestamps = valid

	if len(r.timestamps) >= RateLimitMessages {
		return false
	}

	r.timestamps = append(r.timestamps, now)
	return true
}

// Server handles HTTP and WebSocket connections.
type Server struct {
	sess         *session.Session
	previewWidth int

	mu         sync.RWMutex
	conns      map[*websocket.Conn]struct{}
	rateLimits map[*websocket.Conn]*rateLimiter
}

// New creates a new server and starts the log broadcaster.
func New(sess *session.Session, previewWidth int) *Server {
	if previewWidth <= 0 {
		previewWidth = 960
	}
	s := &Server{
		sess:         sess,
		previewWidth: previewWidth,
		conns:        make(map[*websocket.Conn]struct{}),
		rateLimits:   make(map[*websocket.Conn]*rateLimiter),
	}

	go s.broadcastLogs()

	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// WebSocket endpoint
	mux.HandleFunc("/ws", s.handleWebSocket)

	// REST API
	mux.HandleFunc("GET /api/preview", s.handlePreview)
	mux.HandleFunc("POST /api/templates", s.handleTemplateUpload)
	mux.HandleFunc("GET /api/templates", s.handleTemplateList)
	mux.HandleFunc("GET /api/history", s.handleHistory)

	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("websocket accept error", "error", err)
		return
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "") }()

	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.rateLimits[conn] = &rateLimiter{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		delete(s.rateLimits, conn)
		s.mu.Unlock()
	}()

	ctx := r.Context()
	slog.Info("websocket connected", "remote", r.RemoteAddr)

	// New clients get the current steps and recent log entries up front.
	s.sendSteps(ctx, conn)
	for _, e := range s.sess.Logs().Recent() {
		_ = wsjson.Write(ctx, conn, LogMessage{
			Type: "log", Level: string(e.Level), Message: e.Message, Timestamp: e.Timestamp,
		})
	}

	for {
		var msg json.RawMessage
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			slog.Debug("websocket read error", "error", err)
			return
		}

		// Check rate limit
		s.mu.RLock()
		rl := s.rateLimits[conn]
		s.mu.RUnlock()

		if !rl.allow() {
			slog.Warn("rate limit exceeded", "remote", r.RemoteAddr)
			_ = wsjson.Write(ctx, conn, ErrorMessage{
				Type:    "error",
				Message: "rate limit exceeded",
			})
			continue
		}

		var base Message
		if err := json.Unmarshal(msg, &base); err != nil {
			continue
		}
		s.dispatch(ctx, conn, base.Type, msg)
	}
}

func (s *Server) dispatch(ctx context.Context, conn *websocket.Conn, msgType string, raw json.RawMessage) {
	switch msgType {
	case "add_step":
		var m AddStepMessage
		if err := json.Unmarshal(raw, &m); err != nil {
			return
		}
		s.sess.Steps().Add(step.Step{Type: step.Type(m.StepType), Params: m.Params})
		s.broadcastSteps()

	case "remove_step":
		var m RemoveStepMessage
		if err := json.Unmarshal(raw, &m); err != nil {
			return
		}
		if _, ok := s.sess.Steps().RemoveAt(m.Index); !ok {
			_ = wsjson.Write(ctx, conn, ErrorMessage{Type: "error", Message: "step index out of range"})
			return
		}
		s.broadcastSteps()

	case "reorder_steps":
		var m ReorderStepsMessage
		if err := json.Unmarshal(raw, &m); err != nil {
			return
		}
		if !s.sess.Steps().Reorder(m.OldIndex, m.NewIndex) {
			_ = wsjson.Write(ctx, conn, ErrorMessage{Type: "error", Message: "reorder index out of range"})
			return
		}
		s.broadcastSteps()

	case "clear_steps":
		s.sess.Steps().Clear()
		s.broadcastSteps()

	case "list_steps":
		s.sendSteps(ctx, conn)

	case "run":
		if err := s.sess.StartRun(); err != nil {
			_ = wsjson.Write(ctx, conn, ErrorMessage{Type: "error", Message: err.Error()})
			return
		}
		s.broadcastStatus()

	case "stop":
		s.sess.StopRun()
		s.broadcastStatus()

	case "status":
		_ = wsjson.Write(ctx, conn, s.statusMessage())
	}
}

func (s *Server) statusMessage() StatusMessage {
	msg := StatusMessage{Type: "status", Running: s.sess.Running()}
	if last, ok := s.sess.LastResult(); ok {
		msg.Last = &last
	}
	return msg
}

func (s *Server) sendSteps(ctx context.Context, conn *websocket.Conn) {
	_ = wsjson.Write(ctx, conn, StepsMessage{Type: "steps", Steps: s.sess.Steps().Snapshot()})
}

func (s *Server) broadcastSteps() {
	s.broadcast(StepsMessage{Type: "steps", Steps: s.sess.Steps().Snapshot()})
}

func (s *Server) broadcastStatus() {
	s.broadcast(s.statusMessage())
}

func (s *Server) broadcast(msg any) {
	s.mu.RLock()
	for conn := range s.conns {
		go func(c *websocket.Conn) {
			_ = wsjson.Write(context.Background(), c, msg)
		}(conn)
	}
	s.mu.RUnlock()
}

func (s *Server) broadcastLogs() {
	for e := range s.sess.Logs().Events() {
		s.broadcast(LogMessage{
			Type: "log", Level: string(e.Level), Message: e.Message, Timestamp: e.Timestamp,
		})
	}
}

// handlePreview serves a downscaled JPEG of the current screen. When the
// screen has not changed since the previous capture it answers 304 so
// polling clients keep their last frame.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	frame, changed, err := s.sess.FrameIfChanged()
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	if !changed {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	img, _, err := image.Decode(bytes.NewReader(frame))
	if err != nil {
		http.Error(w, "captured frame could not be decoded", http.StatusInternalServerError)
		return
	}
	if img.Bounds().Dx() > s.previewWidth {
		img = resize.Resize(uint(s.previewWidth), 0, img, resize.Bilinear)
	}

	w.Header().Set("Content-Type", "image/jpeg")
	if err := jpeg.Encode(w, img, &jpeg.Options{Quality: PreviewQuality}); err != nil {
		slog.Error("preview encode error", "error", err)
	}
}

// handleTemplateUpload stores a template image. The name comes from the
// ?name= query parameter; the body is the raw image bytes.
func (s *Server) handleTemplateUpload(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	data, err := io.ReadAll(io.LimitReader(r.Body, MaxTemplateBytes+1))
	if err != nil {
		http.Error(w, "read body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if len(data) > MaxTemplateBytes {
		http.Error(w, "template too large", http.StatusRequestEntityTooLarge)
		return
	}

	ref, err := s.sess.PutTemplate(name, data)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	json.NewEncoder(w).Encode(map[string]string{"template": ref})
}

func (s *Server) handleTemplateList(w http.ResponseWriter, r *http.Request) {
	names, err := s.sess.ListTemplates()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(map[string][]string{"templates": names})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := DefaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	records, err := s.sess.History(limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(map[string]any{"runs": records})
}
