// internal/server/session.go
package server

import (
	"context"
	"errors"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mfranchi/imposter/internal/game"
	"github.com/mfranchi/imposter/internal/protocol"
)

// session is one client connection. nickname and lobby are owned by the
// read pump goroutine exclusively; the write pump only drains the
// outbound queue.
type session struct {
	id     uuid.UUID
	server *Server
	sock   *websocket.Conn
	conn   *game.PlayerConn
	remote string
	logger *logrus.Entry

	nickname string
	lobby    *game.Lobby
}

// readPump blocks on the socket until it closes, decoding each frame and
// dispatching it. It is the only suspension point this session owns.
func (s *session) readPump(ctx context.Context) {
	for {
		_, frame, err := s.sock.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				s.logger.Info("connection closed")
			} else if ctx.Err() == nil {
				s.logger.Warnf("read error: %v", err)
			}
			return
		}

		msg, err := s.server.codec.Decode(frame)
		if err != nil {
			// Before login a frame we cannot decrypt means the peer has
			// the wrong shared secret: reject and drop the connection.
			if errors.Is(err, protocol.ErrUndecryptable) && s.nickname == "" {
				s.writeNow(ctx, protocol.Error("Invalid Game Code or Encryption Error"))
				return
			}
			s.logger.Warnf("dropping undecodable frame: %v", err)
			continue
		}

		s.dispatch(msg)
	}
}

// dispatch maps one validated wire message onto a registry or lobby
// operation.
func (s *session) dispatch(msg protocol.Message) {
	switch msg.Type {
	case protocol.MsgLogin:
		if msg.Nickname == "" {
			s.send(protocol.Error("Invalid Nickname"))
			return
		}
		s.nickname = msg.Nickname
		s.send(protocol.Message{Type: protocol.MsgLoginSuccess, Nickname: s.nickname})

	case protocol.MsgCreateGame:
		if s.nickname == "" {
			s.send(protocol.Error("Login first"))
			return
		}
		if s.lobby != nil {
			s.send(protocol.Error("Already in a lobby"))
			return
		}
		l := s.server.registry.Create(msg.Settings)
		assigned, err := l.AddPlayer(s.nickname, s.conn)
		if err != nil {
			s.server.registry.Remove(l.Code())
			s.send(protocol.Error(err.Error()))
			return
		}
		s.bind(l, assigned)
		s.send(protocol.Message{
			Type:       protocol.MsgJoinSuccess,
			Code:       l.Code(),
			Nickname:   s.nickname,
			LobbyState: string(game.StateWaiting),
		})

	case protocol.MsgJoinGame:
		if s.nickname == "" {
			s.send(protocol.Error("Login first"))
			return
		}
		if s.lobby != nil {
			s.send(protocol.Error("Already in a lobby"))
			return
		}
		if msg.Code == "" {
			s.send(protocol.Error("Missing Code"))
			return
		}
		l, ok := s.server.registry.Get(msg.Code)
		if !ok {
			s.send(protocol.Error("Lobby not found"))
			return
		}
		assigned, err := l.AddPlayer(s.nickname, s.conn)
		if err != nil {
			s.send(protocol.Error(err.Error()))
			return
		}
		s.bind(l, assigned)
		s.send(protocol.Message{
			Type:     protocol.MsgJoinSuccess,
			Code:     l.Code(),
			Nickname: s.nickname,
		})

	case protocol.MsgGameStart:
		if s.lobby == nil {
			return
		}
		if err := s.lobby.Start(s.nickname); err != nil {
			s.send(protocol.Error(err.Error()))
		}

	case protocol.MsgClue:
		if s.lobby != nil {
			s.lobby.HandleClue(s.nickname, msg.Clue)
		}

	case protocol.MsgVote:
		if s.lobby != nil {
			s.lobby.HandleVote(s.nickname, msg.Suspect)
		}

	default:
		s.logger.Warnf("unknown message type %q", msg.Type)
	}
}

// bind establishes the owning back-reference to a joined lobby. The
// nickname may have been suffixed by the lobby on collision.
func (s *session) bind(l *game.Lobby, assigned string) {
	s.lobby = l
	s.nickname = assigned
	s.logger = s.logger.WithFields(logrus.Fields{
		"lobby":    l.Code(),
		"nickname": assigned,
	})
}

// send queues a message for this connection only.
func (s *session) send(msg protocol.Message) {
	if !s.conn.Write(msg) {
		s.logger.Warnf("outbound queue full, dropped %s", msg.Type)
	}
}

// writeNow encodes and writes synchronously, bypassing the queue. Used
// for the pre-login rejection, which must reach the peer before the
// connection is torn down.
func (s *session) writeNow(ctx context.Context, msg protocol.Message) {
	data, err := s.server.codec.Encode(msg)
	if err != nil {
		s.logger.Warnf("encode failed: %v", err)
		return
	}
	wctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.sock.Write(wctx, websocket.MessageBinary, data); err != nil {
		s.logger.Warnf("write failed: %v", err)
	}
}

// writePump drains the outbound queue onto the socket and pings the peer
// periodically so silent connections get reclaimed.
func (s *session) writePump(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-s.conn.OutChan:
			data, err := s.server.codec.Encode(msg)
			if err != nil {
				s.logger.Warnf("encode failed for %s: %v", msg.Type, err)
				continue
			}
			wctx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = s.sock.Write(wctx, websocket.MessageBinary, data)
			cancel()
			if err != nil {
				s.logger.Warnf("write failed: %v", err)
				return
			}
		case <-ticker.C:
			pctx, cancel := context.WithTimeout(ctx, 10*time.Second)
			err := s.sock.Ping(pctx)
			cancel()
			if err != nil {
				s.logger.Warnf("ping failed, assuming disconnect: %v", err)
				return
			}
		}
	}
}

// cleanup releases lobby membership after the read pump exits. An empty
// lobby removes itself from the registry via its OnEmpty callback.
func (s *session) cleanup() {
	if s.lobby != nil && s.nickname != "" {
		s.lobby.RemovePlayer(s.nickname)
		s.lobby = nil
	}
	s.sock.Close(websocket.StatusNormalClosure, "session closed")
}
