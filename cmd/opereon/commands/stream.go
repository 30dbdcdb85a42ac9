package commands

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/opereon/opereon/internal/engine"
	"github.com/opereon/opereon/internal/ops"
)

// streamServer fans out engine.OperationSnapshot progress events to every
// connected websocket client — the "push progress-subscriber events to a
// connected client" concern gorilla/websocket fills, registered as an
// engine.ProgressCallback so it costs the run loop nothing when no client
// is attached.
type streamServer struct {
	upgrader websocket.Upgrader
	mu       sync.Mutex
	conns    map[*websocket.Conn]struct{}
}

func newStreamServer() *streamServer {
	return &streamServer{conns: make(map[*websocket.Conn]struct{})}
}

func (s *streamServer) handle(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		tel.Logger.WithError(err).Error("stream: upgrade failed")
		return
	}

	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.conns, conn)
			s.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *streamServer) broadcast(_ *engine.Engine[ops.Outcome], snap engine.OperationSnapshot) {
	data, err := json.Marshal(snap)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			conn.Close()
			delete(s.conns, conn)
		}
	}
}

// serve starts an HTTP server on addr exposing the stream at /stream, and
// registers the broadcast callback on eng. The server runs until the
// process exits; a CLI invocation that enables --stream is expected to be
// long-running (dev/watch mode) rather than a one-shot command.
func (s *streamServer) serve(addr string, eng *engine.Engine[ops.Outcome]) {
	eng.RegisterProgressCallback(s.broadcast)

	mux := http.NewServeMux()
	mux.HandleFunc("/stream", s.handle)
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			tel.Logger.WithField("addr", addr).WithError(err).Error("stream: server stopped")
		}
	}()
}
