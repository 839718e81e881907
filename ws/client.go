package ws

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"time"

	"task-portal/domain/chat"
	"task-portal/domain/event"
	"task-portal/errors"
	"task-portal/services"
	"task-portal/sink"

	"github.com/gorilla/websocket"
)

// envelope is the wire framing for both directions: the event name and a
// JSON payload. Unknown events are ignored.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type outEnvelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type registerPayload struct {
	UserID int64 `json:"userId"`
}

type sendPayload struct {
	SenderID   int64  `json:"senderId"`
	ReceiverID int64  `json:"receiverId"`
	Message    string `json:"message"`
}

// markReadPayload: senderId is the peer whose messages are being marked read,
// receiverId is the caller.
type markReadPayload struct {
	SenderID   int64 `json:"senderId"`
	ReceiverID int64 `json:"receiverId"`
}

// Session is one live WebSocket connection (a tab or device). It starts
// anonymous; a register event binds it to a user identity, after which send
// and mark-as-read operations are accepted. Operations issued while still
// anonymous are rejected with an explicit error event.
type Session struct {
	log         *slog.Logger
	chat        services.IChatService
	conn        *websocket.Conn
	sink        *sink.ChanSink
	connID      string
	userID      int64
	identified  bool
	pushTimeout time.Duration
}

// readPump reads JSON frames from the connection and drives the session
// state machine. It runs until the connection drops.
func (s *Session) readPump() {
	defer func() {
		if s.identified {
			s.chat.Disconnect(s.userID, s.connID)
		}
		s.sink.Close()
		_ = s.conn.Close()
	}()

	for {
		var env envelope
		if err := s.conn.ReadJSON(&env); err != nil {
			break
		}

		switch env.Event {

		case "register":
			var p registerPayload
			if err := json.Unmarshal(env.Data, &p); err != nil || p.UserID <= 0 {
				s.sendError("register requires a positive userId")
				continue
			}
			if s.identified {
				if p.UserID != s.userID {
					s.sendError("connection is already registered to another user")
				}
				continue
			}
			s.userID = p.UserID
			s.identified = true
			s.chat.Connect(context.Background(), s.userID, s.connID, s.sink)
			s.log.Debug("Connection registered", "user_id", s.userID, "conn_id", s.connID)

		case "send-message":
			if !s.identified {
				s.sendError(errors.ErrNotIdentified.Error())
				continue
			}
			var p sendPayload
			if err := json.Unmarshal(env.Data, &p); err != nil {
				s.sendError("malformed send-message payload")
				continue
			}
			// The session identity is the trusted sender, a mismatching
			// senderId in the payload is rejected rather than honoured.
			if p.SenderID != 0 && p.SenderID != s.userID {
				s.sendError("senderId does not match the registered user")
				continue
			}

			msg, err := s.chat.Send(context.Background(), chat.SendMessageCommand{
				SenderID:   s.userID,
				ReceiverID: p.ReceiverID,
				Body:       p.Message,
			})
			if err != nil {
				if stderrors.Is(err, errors.ErrValidation) {
					s.sendError(err.Error())
				} else {
					s.log.Error("Message save failed", "user_id", s.userID, "error", err)
					s.sendError("message save failed")
				}
				continue
			}
			// Acknowledge to this connection only, through the same sink so
			// ordering with other pushes is preserved.
			s.push(event.MessageAcked{Message: msg})

		case "mark-as-read":
			if !s.identified {
				s.sendError(errors.ErrNotIdentified.Error())
				continue
			}
			var p markReadPayload
			if err := json.Unmarshal(env.Data, &p); err != nil {
				s.sendError("malformed mark-as-read payload")
				continue
			}
			if p.ReceiverID != 0 && p.ReceiverID != s.userID {
				s.sendError("receiverId does not match the registered user")
				continue
			}

			if _, err := s.chat.MarkRead(context.Background(), chat.MarkReadCommand{
				ReaderID: s.userID,
				PeerID:   p.SenderID,
			}); err != nil {
				if stderrors.Is(err, errors.ErrValidation) {
					s.sendError(err.Error())
				} else {
					s.log.Error("Mark as read failed", "user_id", s.userID, "error", err)
					s.sendError("mark as read failed")
				}
			}

		default:
			continue
		}
	}
}

// writePump drains the sink to the connection. A single writer goroutine per
// connection keeps gorilla's one-concurrent-writer requirement satisfied.
// Closing the sink on exit unblocks any producer still waiting on a full
// buffer once nothing drains it anymore.
func (s *Session) writePump() {
	defer func() {
		s.sink.Close()
		_ = s.conn.Close()
	}()

	for {
		select {
		case e := <-s.sink.Events:
			if err := s.conn.WriteJSON(toEnvelope(e)); err != nil {
				return
			}
		case <-s.sink.Done():
			return
		}
	}
}

// push delivers an event to this connection's own sink. Bounded by the same
// timeout the fan-out path uses, so a full buffer behind a stalled peer drops
// the event instead of wedging the read pump.
func (s *Session) push(e event.DomainEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), s.pushTimeout)
	defer cancel()
	if err := s.sink.Consume(ctx, e); err != nil {
		s.log.Warn("Push to own connection failed", "conn_id", s.connID, "error", err)
	}
}

func (s *Session) sendError(message string) {
	s.push(event.DeliveryError{Message: message})
}

func toEnvelope(e event.DomainEvent) outEnvelope {
	out := outEnvelope{Event: e.Name()}
	switch evt := e.(type) {
	case event.MessageReceived:
		out.Data = evt.Message
	case event.MessageAcked:
		out.Data = evt.Message
	case event.UnreadSnapshot:
		out.Data = evt.Counts
	default:
		out.Data = e
	}
	return out
}
