package viewer

import (
	"context"
	"encoding/json"
	"image"
	"image/color"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"lodterrain/internal/texture"
	"lodterrain/internal/world"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// StatsFunc returns a JSON-encodable snapshot for /v1/stats.
type StatsFunc func() any

// unassignedColor marks cells above every region in served colour textures.
var unassignedColor = color.RGBA{R: 0xff, B: 0xff, A: 0xff}

type Server struct {
	hub   *Hub
	stats StatsFunc
	log   *log.Logger

	upgrader websocket.Upgrader
}

func NewServer(hub *Hub, stats StatsFunc, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Server{
		hub:   hub,
		stats: stats,
		log:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

// Routes returns the HTTP handler for the viewer bridge.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Get("/stats", s.handleStats)
		r.Get("/chunks/{x}/{y}/{kind}", s.handleTexture)
		r.Get("/ws", s.handleWS)
	})
	return r
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{"hub": s.hub.Stats()}
	if s.stats != nil {
		resp["session"] = s.stats()
	}
	respondJSON(w, http.StatusOK, resp)
}

// handleTexture serves GET /v1/chunks/{x}/{y}/{height|color}?format=png|bmp|tiff&zoom=n.
func (s *Server) handleTexture(w http.ResponseWriter, r *http.Request) {
	x, errX := strconv.Atoi(chi.URLParam(r, "x"))
	y, errY := strconv.Atoi(chi.URLParam(r, "y"))
	if errX != nil || errY != nil {
		respondError(w, http.StatusBadRequest, "invalid chunk coordinate")
		return
	}
	format := texture.FormatPNG
	if f := r.URL.Query().Get("format"); f != "" {
		var err error
		if format, err = texture.ParseFormat(f); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	zoom := 1
	if z := r.URL.Query().Get("zoom"); z != "" {
		n, err := strconv.Atoi(z)
		if err != nil || n < 1 || n > 16 {
			respondError(w, http.StatusBadRequest, "zoom must be 1..16")
			return
		}
		zoom = n
	}

	data, ok := s.hub.MapData(world.ChunkCoord{X: x, Y: y})
	if !ok {
		respondError(w, http.StatusNotFound, "chunk not generated")
		return
	}

	var img *image.RGBA
	switch chi.URLParam(r, "kind") {
	case "height":
		img = texture.Upscale(texture.FromHeightGrid(data.Height), zoom)
	case "color":
		img = texture.Upscale(texture.FromColorGrid(data.Colors, unassignedColor), zoom)
	default:
		respondError(w, http.StatusNotFound, "unknown texture kind")
		return
	}

	w.Header().Set("Content-Type", "image/"+format.String())
	if err := texture.Encode(w, img, format); err != nil {
		s.log.Printf("encode texture %d,%d: %v", x, y, err)
	}
}

func (s *Server) handleWS(rw http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(rw, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	sid := uuid.NewString()
	c := s.hub.join(sid)
	defer s.hub.leave(sid)
	s.log.Printf("viewer %s connected from %s", sid, r.RemoteAddr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	writeErr := make(chan error, 1)
	go func() {
		for {
			select {
			case <-ctx.Done():
				writeErr <- ctx.Err()
				return
			case ob := <-c.out:
				if ob.mesh != nil {
					payload, err := ob.mesh.bytes()
					if err != nil {
						s.log.Printf("viewer %s: %v", sid, err)
						continue
					}
					ob.ev.Mesh = payload
				}
				b, err := json.Marshal(ob.ev)
				if err != nil {
					writeErr <- err
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
					writeErr <- err
					return
				}
			}
		}
	}()

	for {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			break
		}
		var m ClientMsg
		if err := json.Unmarshal(msg, &m); err != nil {
			continue
		}
		if m.Type == MsgPosition {
			s.hub.SetViewerPosition(mgl32.Vec2{m.X, m.Z})
		}
	}

	cancel()
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))

	select {
	case <-writeErr:
	case <-time.After(500 * time.Millisecond):
	}
	s.log.Printf("viewer %s disconnected", sid)
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
