package services

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"task-portal/domain/chat"
	"task-portal/domain/event"
	"task-portal/errors"
	"task-portal/mocks"
	"task-portal/observability"
	"task-portal/runtime"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type recordingSink struct {
	mu     sync.Mutex
	events []event.DomainEvent
}

func (s *recordingSink) Consume(_ context.Context, e event.DomainEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func (s *recordingSink) names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var names []string
	for _, e := range s.events {
		names = append(names, e.Name())
	}
	return names
}

func newService(t *testing.T) (*ChatService, *mocks.MockIMessageRepository, *runtime.Registry) {
	t.Helper()
	ctrl := gomock.NewController(t)
	mockRepo := mocks.NewMockIMessageRepository(ctrl)
	registry := runtime.NewRegistry()
	svc := NewChatService(slog.Default(), registry, mockRepo,
		observability.NewManager(slog.Default()), time.Second)
	return svc, mockRepo, registry
}

func TestChatService_Connect_Pushes_Initial_Snapshot(t *testing.T) {
	req := require.New(t)
	svc, mockRepo, _ := newService(t)
	sink := &recordingSink{}

	mockRepo.EXPECT().
		UnreadCountsFor(gomock.Any(), int64(2)).
		Return(map[int64]int64{1: 3}, nil).
		Times(1)

	svc.Connect(context.Background(), 2, "conn-b", sink)

	req.Equal([]string{"unread-counts"}, sink.names())
	snapshot := sink.events[0].(event.UnreadSnapshot)
	req.EqualValues(3, snapshot.Counts[1])
}

func TestChatService_Send_Stores_Then_Notifies(t *testing.T) {
	req := require.New(t)
	svc, mockRepo, _ := newService(t)
	ctx := context.Background()

	receiverSink := &recordingSink{}
	mockRepo.EXPECT().UnreadCountsFor(ctx, int64(2)).Return(map[int64]int64{}, nil)
	svc.Connect(ctx, 2, "conn-b", receiverSink)

	persisted := chat.Message{ID: 10, SenderID: 1, ReceiverID: 2, Body: "hello", CreatedAt: time.Now().UTC()}
	mockRepo.EXPECT().
		Append(ctx, int64(1), int64(2), "hello").
		Return(persisted, nil).
		Times(1)
	mockRepo.EXPECT().
		UnreadCountsFor(ctx, int64(2)).
		Return(map[int64]int64{1: 1}, nil).
		Times(1)

	msg, err := svc.Send(ctx, chat.SendMessageCommand{SenderID: 1, ReceiverID: 2, Body: "hello"})

	req.NoError(err)
	req.Equal(persisted, msg)

	// The receiver saw the message first, then the refreshed counts.
	req.Equal([]string{"unread-counts", "receive-message", "unread-counts"}, receiverSink.names())
	received := receiverSink.events[1].(event.MessageReceived)
	req.Equal("hello", received.Message.Body)
	counts := receiverSink.events[2].(event.UnreadSnapshot)
	req.EqualValues(1, counts.Counts[1])
}

func TestChatService_Send_Delivers_To_Every_Tab(t *testing.T) {
	req := require.New(t)
	svc, mockRepo, _ := newService(t)
	ctx := context.Background()

	tab1 := &recordingSink{}
	tab2 := &recordingSink{}
	mockRepo.EXPECT().UnreadCountsFor(ctx, int64(2)).Return(map[int64]int64{}, nil).Times(2)
	svc.Connect(ctx, 2, "conn-b1", tab1)
	svc.Connect(ctx, 2, "conn-b2", tab2)

	mockRepo.EXPECT().
		Append(ctx, int64(1), int64(2), "hello").
		Return(chat.Message{ID: 10, SenderID: 1, ReceiverID: 2, Body: "hello"}, nil)
	mockRepo.EXPECT().UnreadCountsFor(ctx, int64(2)).Return(map[int64]int64{1: 1}, nil)

	_, err := svc.Send(ctx, chat.SendMessageCommand{SenderID: 1, ReceiverID: 2, Body: "hello"})

	req.NoError(err)
	req.Contains(tab1.names(), "receive-message")
	req.Contains(tab2.names(), "receive-message")
}

func TestChatService_Send_Offline_Receiver_Still_Persists(t *testing.T) {
	req := require.New(t)
	svc, mockRepo, _ := newService(t)
	ctx := context.Background()

	mockRepo.EXPECT().
		Append(ctx, int64(1), int64(2), "hello").
		Return(chat.Message{ID: 10, SenderID: 1, ReceiverID: 2, Body: "hello"}, nil)
	mockRepo.EXPECT().UnreadCountsFor(ctx, int64(2)).Return(map[int64]int64{1: 1}, nil)

	msg, err := svc.Send(ctx, chat.SendMessageCommand{SenderID: 1, ReceiverID: 2, Body: "hello"})

	req.NoError(err)
	req.EqualValues(10, msg.ID)
}

func TestChatService_Send_Persistence_Failure_Emits_Nothing(t *testing.T) {
	req := require.New(t)
	svc, mockRepo, _ := newService(t)
	ctx := context.Background()

	receiverSink := &recordingSink{}
	mockRepo.EXPECT().UnreadCountsFor(ctx, int64(2)).Return(map[int64]int64{}, nil)
	svc.Connect(ctx, 2, "conn-b", receiverSink)

	mockRepo.EXPECT().
		Append(ctx, int64(1), int64(2), "hello").
		Return(chat.Message{}, errors.ErrPersistence)

	_, err := svc.Send(ctx, chat.SendMessageCommand{SenderID: 1, ReceiverID: 2, Body: "hello"})

	req.ErrorIs(err, errors.ErrPersistence)
	// Nothing beyond the initial snapshot ever reached the receiver.
	req.Equal([]string{"unread-counts"}, receiverSink.names())
}

func TestChatService_Send_Rejects_Self_Message(t *testing.T) {
	req := require.New(t)
	svc, mockRepo, _ := newService(t)

	mockRepo.EXPECT().Append(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	_, err := svc.Send(context.Background(), chat.SendMessageCommand{SenderID: 1, ReceiverID: 1, Body: "hi me"})

	req.ErrorIs(err, errors.ErrValidation)
}

func TestChatService_Send_Rejects_Empty_Body(t *testing.T) {
	req := require.New(t)
	svc, mockRepo, _ := newService(t)

	mockRepo.EXPECT().Append(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	_, err := svc.Send(context.Background(), chat.SendMessageCommand{SenderID: 1, ReceiverID: 2, Body: ""})

	req.ErrorIs(err, errors.ErrValidation)
}

func TestChatService_MarkRead_Pushes_Both_Sides(t *testing.T) {
	req := require.New(t)
	svc, mockRepo, _ := newService(t)
	ctx := context.Background()

	readerSink := &recordingSink{}
	senderSink := &recordingSink{}
	mockRepo.EXPECT().UnreadCountsFor(ctx, int64(2)).Return(map[int64]int64{1: 2}, nil)
	mockRepo.EXPECT().UnreadCountsFor(ctx, int64(1)).Return(map[int64]int64{}, nil)
	svc.Connect(ctx, 2, "conn-b", readerSink)
	svc.Connect(ctx, 1, "conn-a", senderSink)

	// Bob marks Alice's messages as read.
	mockRepo.EXPECT().MarkRead(ctx, int64(1), int64(2)).Return(int64(2), nil)
	mockRepo.EXPECT().UnreadCountsFor(ctx, int64(2)).Return(map[int64]int64{}, nil)
	mockRepo.EXPECT().UnreadCountsFor(ctx, int64(1)).Return(map[int64]int64{}, nil)

	affected, err := svc.MarkRead(ctx, chat.MarkReadCommand{ReaderID: 2, PeerID: 1})

	req.NoError(err)
	req.EqualValues(2, affected)

	// The reader got fresh counts with Alice gone.
	readerNames := readerSink.names()
	req.Equal("unread-counts", readerNames[len(readerNames)-1])
	latest := readerSink.events[len(readerSink.events)-1].(event.UnreadSnapshot)
	req.NotContains(latest.Counts, int64(1))

	// And the original sender got both a snapshot and the read receipt.
	req.Contains(senderSink.names(), "unread-counts")
	req.Contains(senderSink.names(), "messages-read")
	for _, e := range senderSink.events {
		if receipt, ok := e.(event.ConversationRead); ok {
			req.EqualValues(2, receipt.ReaderID)
		}
	}
}

func TestChatService_Disconnect_Stops_Delivery(t *testing.T) {
	req := require.New(t)
	svc, mockRepo, registry := newService(t)
	ctx := context.Background()

	sink := &recordingSink{}
	mockRepo.EXPECT().UnreadCountsFor(ctx, int64(2)).Return(map[int64]int64{}, nil)
	svc.Connect(ctx, 2, "conn-b", sink)
	svc.Disconnect(2, "conn-b")

	req.Empty(registry.SinksFor(2))

	// A push to a user with no connections must not fail.
	mockRepo.EXPECT().UnreadCountsFor(ctx, int64(2)).Return(map[int64]int64{1: 1}, nil)
	svc.PushUnreadCounts(ctx, 2)

	req.Equal([]string{"unread-counts"}, sink.names()) // only the initial snapshot
}
