// Package ws exposes a Conductor over websockets: scene and action messages
// in, frame previews and status lines out.
package ws

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/ledstrip/internal/app"
	"github.com/coreman2200/ledstrip/internal/scene"
	"github.com/coreman2200/ledstrip/internal/sequence"
)

const writeWait = 200 * time.Millisecond

var errActionLength = errors.New("ws: action message must be one byte")

type Options struct {
	FPS    int
	Driver string
}

type Server struct {
	c       *app.Conductor
	opts    Options
	started time.Time
	up      websocket.Upgrader
}

func NewServer(c *app.Conductor, o Options) *Server {
	return &Server{
		c:       c,
		opts:    o,
		started: time.Now(),
		up:      websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
	}
}

// Routes mounts every endpoint on a fresh mux.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws/scene", s.HandleSceneWS)
	mux.HandleFunc("/ws/action", s.HandleActionWS)
	mux.HandleFunc("/ws/frames", s.HandleFramesWS)
	mux.HandleFunc("/ws/status", s.HandleStatusWS)
	mux.HandleFunc("/health", s.HandleHealth)
	mux.HandleFunc("/status", s.HandleStatus)
	mux.HandleFunc("/test", s.HandleTest)
	return mux
}

// HandleSceneWS takes binary scene frames, or hex frames as text, and answers
// each with a Diagnostic.
func (s *Server) HandleSceneWS(w http.ResponseWriter, r *http.Request) {
	s.serveUpdates(w, r, "scene", func(id string, mt int, data []byte) Diagnostic {
		frame := data
		if mt == websocket.TextMessage {
			b, err := hex.DecodeString(strings.TrimSpace(string(data)))
			if err != nil {
				return rejected("SCENE", fmt.Errorf("hex frame: %w", err), data)
			}
			frame = b
		}
		if err := s.c.SubmitFrame(frame, id); err != nil {
			return rejected("SCENE", err, frame)
		}
		return accepted("SCENE.ACCEPTED", "Scene queued for the next frame")
	})
}

// HandleActionWS takes one action byte per binary message, or an action name
// ("pause", "on") as text.
func (s *Server) HandleActionWS(w http.ResponseWriter, r *http.Request) {
	s.serveUpdates(w, r, "action", func(id string, mt int, data []byte) Diagnostic {
		var err error
		if mt == websocket.TextMessage {
			var a sequence.Action
			if a, err = sequence.ParseActionName(strings.TrimSpace(string(data))); err == nil {
				err = s.c.SubmitActionValue(a, id)
			}
		} else if len(data) != 1 {
			err = fmt.Errorf("%w, got %d", errActionLength, len(data))
		} else {
			err = s.c.SubmitAction(data[0], id)
		}
		if err != nil {
			return rejected("ACTION", err, data)
		}
		return accepted("ACTION.ACCEPTED", "Action queued for the next frame")
	})
}

func (s *Server) serveUpdates(w http.ResponseWriter, r *http.Request, endpoint string, handle func(id string, mt int, data []byte) Diagnostic) {
	conn, err := s.up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	id := "ws-" + uuid.NewString()
	log.Info().Str("conn", id).Str("endpoint", endpoint).Str("remote", r.RemoteAddr).Msg("client connected")
	defer log.Info().Str("conn", id).Msg("client disconnected")

	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		d := handle(id, mt, data)
		if !d.OK() {
			log.Debug().Str("conn", id).Str("code", d.Code).Str("detail", d.Detail).Msg("update rejected")
		}
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(d); err != nil {
			log.Debug().Err(err).Str("conn", id).Msg("write reply")
			return
		}
	}
}

type frameMsg struct {
	T       int64  `json:"t"`
	FrameID uint64 `json:"frame_id"`
	Wire    []byte `json:"wire"`
}

// HandleFramesWS streams every rendered frame as JSON. Slow clients skip frames.
func (s *Server) HandleFramesWS(w http.ResponseWriter, r *http.Request) {
	frames, stop := s.c.Subscribe()
	defer stop()
	conn, err := s.up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	closed := drain(conn)
	for {
		select {
		case <-closed:
			return
		case f := <-frames:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(frameMsg{T: time.Now().UnixNano(), FrameID: f.ID, Wire: f.Wire}); err != nil {
				log.Debug().Err(err).Msg("write frame")
				return
			}
		}
	}
}

// HandleStatusWS pushes the status line on connect and whenever it changes.
func (s *Server) HandleStatusWS(w http.ResponseWriter, r *http.Request) {
	frames, stop := s.c.Subscribe()
	defer stop()
	last := s.c.Status().String()
	conn, err := s.up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	closed := drain(conn)

	send := func(line string) bool {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
			log.Debug().Err(err).Msg("write status")
			return false
		}
		return true
	}
	if !send(last) {
		return
	}
	for {
		select {
		case <-closed:
			return
		case <-frames:
			if line := s.c.Status().String(); line != last {
				last = line
				if !send(line) {
					return
				}
			}
		}
	}
}

// drain discards inbound messages and closes the returned channel once the
// peer goes away.
func drain(conn *websocket.Conn) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
	return done
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"frame_id": s.c.FrameID(),
		"uptime_s": time.Since(s.started).Seconds(),
		"count":    s.c.Len(),
		"fps":      s.opts.FPS,
		"driver":   s.opts.Driver,
		"status":   s.c.Status().String(),
	})
}

func (s *Server) HandleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, s.c.Status().String())
}

// HandleTest lists the wiring test patterns on GET and starts one on POST
// /test?name=index_sweep. The pattern replaces the running scene.
func (s *Server) HandleTest(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch r.Method {
	case http.MethodGet:
		_ = json.NewEncoder(w).Encode(scene.TestPatterns)
		return
	case http.MethodPost:
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	name := r.URL.Query().Get("name")
	var d Diagnostic
	sc, err := scene.Calibration(scene.TestPattern(name), s.c.Len())
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		d = Diagnostic{
			Severity: Warn, Code: "TEST.UNKNOWN", Summary: "Unknown test name",
			Evidence: map[string]any{"name": name},
		}
	} else if err := s.c.SubmitScene(sc, "test"); err != nil {
		w.WriteHeader(http.StatusTooManyRequests)
		d = rejected("TEST", err, nil)
	} else {
		d = Diagnostic{Severity: Info, Code: "TEST.RUNNING", Summary: "Running test", Detail: name}
	}
	_ = json.NewEncoder(w).Encode(d)
}

// WithCORS lets browser previews on other origins reach the API.
func WithCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		h.ServeHTTP(w, r)
	})
}
