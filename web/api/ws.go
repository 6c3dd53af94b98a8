package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/moldshop/prodtrack/internal/report"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The dashboard is served from the same host; cross-origin clock
	// reads are harmless.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ClockTick is one websocket frame of the live machining clock.
type ClockTick struct {
	ProgramID      string `json:"program_id"`
	State          string `json:"state"`
	ElapsedSeconds int64  `json:"elapsed_seconds"`
	ElapsedDisplay string `json:"elapsed_display"`
}

// clockHandler streams the session's elapsed time once per second over
// a websocket so the detail view can render a live clock without
// polling.
func (s *Server) clockHandler(w http.ResponseWriter, r *http.Request, id string) {
	if s.loadProgram(w, r, id) == nil {
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	session := s.sessions.Get(id)

	// Drain control frames so close is noticed.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case <-ticker.C:
			elapsed := int64(session.Tracker.Elapsed() / time.Second)
			tick := ClockTick{
				ProgramID:      id,
				State:          session.Tracker.State().String(),
				ElapsedSeconds: elapsed,
				ElapsedDisplay: report.FormatElapsed(elapsed),
			}
			if err := conn.WriteJSON(tick); err != nil {
				return
			}
		}
	}
}
