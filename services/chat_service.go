package services

import (
	"context"
	"log/slog"
	"time"

	"task-portal/contract"
	"task-portal/domain/chat"
	"task-portal/domain/event"
	"task-portal/observability"
	"task-portal/repositories"
)

type IChatService interface {
	Connect(ctx context.Context, userID int64, connID string, sink contract.EventSink)
	Disconnect(userID int64, connID string)
	Send(ctx context.Context, cmd chat.SendMessageCommand) (chat.Message, error)
	MarkRead(ctx context.Context, cmd chat.MarkReadCommand) (int64, error)
	History(ctx context.Context, userID, otherUserID int64) ([]chat.Message, error)
	UnreadCounts(ctx context.Context, userID int64) (map[int64]int64, error)
}

// ChatService is the messaging core: it orchestrates the ledger, the presence
// registry and unread-count propagation. The REST facade and the socket layer
// both go through it, so a message has a single source of truth.
type ChatService struct {
	log         *slog.Logger
	registry    contract.IRegistry
	messages    repositories.IMessageRepository
	monitor     *observability.Manager
	pushTimeout time.Duration
}

func NewChatService(log *slog.Logger, registry contract.IRegistry,
	messages repositories.IMessageRepository, monitor *observability.Manager,
	pushTimeout time.Duration) *ChatService {
	return &ChatService{
		log:         log,
		registry:    registry,
		messages:    messages,
		monitor:     monitor,
		pushTimeout: pushTimeout,
	}
}

// Connect registers a live connection and pushes the user's initial unread
// snapshot to it, so a fresh tab starts from the persisted read state.
func (s *ChatService) Connect(ctx context.Context, userID int64, connID string, sink contract.EventSink) {
	s.registry.Register(userID, connID, sink)
	s.monitor.ConnectionOpened()
	s.PushUnreadCounts(ctx, userID)
}

func (s *ChatService) Disconnect(userID int64, connID string) {
	s.registry.Unregister(connID)
	s.monitor.ConnectionClosed()
	s.log.Debug("Connection closed", "user_id", userID, "conn_id", connID)
}

// Send persists the message, then fans it out to the receiver's live
// connections and refreshes the receiver's unread counts. Store-then-notify
// ordering is mandatory: nothing is emitted unless the insert committed, and
// a persistence failure yields an error instead of a false acknowledgment.
// The returned message carries the server-assigned id and timestamp for the
// sender's acknowledgment.
func (s *ChatService) Send(ctx context.Context, cmd chat.SendMessageCommand) (chat.Message, error) {
	if err := cmd.Validate(); err != nil {
		return chat.Message{}, err
	}

	msg, err := s.messages.Append(ctx, cmd.SenderID, cmd.ReceiverID, cmd.Body)
	if err != nil {
		return chat.Message{}, err
	}
	s.monitor.MessageStored()

	s.fanOut(ctx, cmd.ReceiverID, event.MessageReceived{Message: msg})
	s.PushUnreadCounts(ctx, cmd.ReceiverID)

	return msg, nil
}

// MarkRead flips every unread message from PeerID to ReaderID, then refreshes
// both participants' views: the reader's counts drop, and the peer gets a
// messages-read notification plus fresh counts so their UI can show the
// read-receipt ticks. The cross-push is deliberate, not an optimization.
func (s *ChatService) MarkRead(ctx context.Context, cmd chat.MarkReadCommand) (int64, error) {
	if err := cmd.Validate(); err != nil {
		return 0, err
	}

	affected, err := s.messages.MarkRead(ctx, cmd.PeerID, cmd.ReaderID)
	if err != nil {
		return 0, err
	}

	s.PushUnreadCounts(ctx, cmd.ReaderID)
	s.PushUnreadCounts(ctx, cmd.PeerID)
	s.fanOut(ctx, cmd.PeerID, event.ConversationRead{ReaderID: cmd.ReaderID})

	return affected, nil
}

func (s *ChatService) History(ctx context.Context, userID, otherUserID int64) ([]chat.Message, error) {
	return s.messages.History(ctx, userID, otherUserID)
}

func (s *ChatService) UnreadCounts(ctx context.Context, userID int64) (map[int64]int64, error) {
	return s.messages.UnreadCountsFor(ctx, userID)
}

// PushUnreadCounts recomputes the full unread mapping from the ledger and
// pushes it to every live connection of the user. Counts are derived, never
// cached, so they cannot drift from the source-of-truth rows. Failures are
// logged and counted only, the push is best-effort relative to whatever
// operation triggered it.
func (s *ChatService) PushUnreadCounts(ctx context.Context, userID int64) {
	counts, err := s.messages.UnreadCountsFor(ctx, userID)
	if err != nil {
		s.log.Warn("Unread count refresh failed", "user_id", userID, "error", err)
		return
	}
	s.fanOut(ctx, userID, event.UnreadSnapshot{Counts: counts})
}

// fanOut delivers one event to every live connection of a user. An offline
// user has no sinks and the event is silently dropped, the REST snapshot on
// reconnect reconciles. A slow connection drops the event after pushTimeout
// instead of stalling the others.
func (s *ChatService) fanOut(ctx context.Context, userID int64, e event.DomainEvent) {
	for _, snk := range s.registry.SinksFor(userID) {
		pushCtx, cancel := context.WithTimeout(ctx, s.pushTimeout)
		if err := snk.Consume(pushCtx, e); err != nil {
			s.monitor.EventDropped()
			s.log.Warn("Dropped event", "event", e.Name(), "user_id", userID, "error", err)
		} else {
			s.monitor.EventDelivered()
		}
		cancel()
	}
}
