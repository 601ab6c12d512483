// internal/server/server.go
package server

import (
	"context"
	"net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mfranchi/imposter/internal/game"
	"github.com/mfranchi/imposter/internal/middleware"
	"github.com/mfranchi/imposter/internal/protocol"
)

// Server accepts websocket connections and runs one session per
// connection. Sessions never touch each other's sockets; all fan-out to
// other players goes through each player's own outbound queue.
type Server struct {
	registry *game.Registry
	codec    *protocol.Codec
	logger   *logrus.Logger
}

// New wires a Server to the lobby directory and the wire codec.
func New(registry *game.Registry, codec *protocol.Codec, logger *logrus.Logger) *Server {
	return &Server{
		registry: registry,
		codec:    codec,
		logger:   logger,
	}
}

// Handler upgrades the request and serves the connection until it closes.
func (s *Server) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: []string{"*"},
		})
		if err != nil {
			s.logger.Warnf("websocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")

		middleware.LogWebSocketConnect(s.logger, r.RemoteAddr, r.URL.Path)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		id := uuid.New()
		sess := &session{
			id:     id,
			server: s,
			sock:   c,
			conn:   game.NewPlayerConn(cancel),
			remote: r.RemoteAddr,
			logger: s.logger.WithFields(logrus.Fields{
				"conn":   id.String()[:8],
				"remote": r.RemoteAddr,
			}),
		}

		go sess.writePump(ctx)
		sess.readPump(ctx)

		sess.cleanup()
		middleware.LogWebSocketDisconnect(s.logger, r.RemoteAddr, r.URL.Path, nil)
	}
}
