package test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"task-portal/httpapi"
	"task-portal/observability"
	"task-portal/repositories"
	"task-portal/runtime"
	"task-portal/services"
	"task-portal/storage"
	"task-portal/ws"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

const testSecret = "integration-test-secret"

type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// newStack wires the full server over a throwaway SQLite file and returns it
// behind an httptest listener.
func newStack(t *testing.T) *httptest.Server {
	t.Helper()
	req := require.New(t)

	db, err := storage.Open(t.TempDir() + "/portal.db")
	req.NoError(err)
	t.Cleanup(func() { _ = db.Close() })
	req.NoError(storage.Migrate(db))

	log := slog.New(slog.NewTextHandler(testWriter{t}, &slog.HandlerOptions{Level: slog.LevelDebug}))
	monitor := observability.NewManager(log)
	registry := runtime.NewRegistry()
	messages := repositories.NewMessageRepository(db, log)
	users := repositories.NewUserRepository(db)
	tasks := repositories.NewTaskRepository(db)

	chatService := services.NewChatService(log, registry, messages, monitor, 2*time.Second)
	authService := services.NewAuthService(users, []byte(testSecret), time.Hour)
	socket := ws.NewHandler(log, chatService, 256, 2*time.Second)

	api := httpapi.NewServer(log, chatService, authService, users, tasks,
		monitor, socket, []byte(testSecret), time.Hour, "http://localhost:3000", false)

	srv := httptest.NewServer(api.Handler())
	t.Cleanup(srv.Close)
	return srv
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

func registerUser(t *testing.T, srv *httptest.Server, name, email string) (int64, *http.Client) {
	t.Helper()
	req := require.New(t)

	jar, err := cookiejar.New(nil)
	req.NoError(err)
	client := &http.Client{Jar: jar}

	body, _ := json.Marshal(map[string]string{
		"name": name, "email": email, "password": "Distinct$Passw0rd",
	})
	resp, err := client.Post(srv.URL+"/api/register", "application/json", bytes.NewReader(body))
	req.NoError(err)
	defer resp.Body.Close()
	req.Equal(http.StatusOK, resp.StatusCode)

	var out struct {
		Success bool `json:"success"`
		User    struct {
			ID int64 `json:"id"`
		} `json:"user"`
	}
	req.NoError(json.NewDecoder(resp.Body).Decode(&out))
	req.True(out.Success)
	req.Positive(out.User.ID)
	return out.User.ID, client
}

func dialSocket(t *testing.T, srv *httptest.Server, userID int64) *websocket.Conn {
	t.Helper()
	req := require.New(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	req.NoError(err)
	t.Cleanup(func() { _ = conn.Close() })

	req.NoError(conn.WriteJSON(map[string]any{
		"event": "register",
		"data":  map[string]any{"userId": userID},
	}))
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	req := require.New(t)

	req.NoError(conn.SetReadDeadline(time.Now().Add(3 * time.Second)))
	var f frame
	req.NoError(conn.ReadJSON(&f))
	return f
}

func Test_Scenario(t *testing.T) {
	req := require.New(t)
	srv := newStack(t)

	// Given two registered users, the sender on one connection and the
	// receiver on two (a second tab)
	senderID, senderHTTP := registerUser(t, srv, "Alice", "alice@example.com")
	receiverID, receiverHTTP := registerUser(t, srv, "Bob", "bob@example.com")

	sender := dialSocket(t, srv, senderID)
	tab1 := dialSocket(t, srv, receiverID)
	tab2 := dialSocket(t, srv, receiverID)

	// Then every connection starts with an empty unread snapshot. The first
	// tab gets a second one when the second tab registers, because each
	// registration re-pushes the snapshot to every live connection of the
	// user, so drain both before proceeding.
	for _, conn := range []*websocket.Conn{sender, tab1, tab1, tab2} {
		f := readFrame(t, conn)
		req.Equal("unread-counts", f.Event)
		req.JSONEq(`{}`, string(f.Data))
	}

	// When the sender posts a message over the socket
	req.NoError(sender.WriteJSON(map[string]any{
		"event": "send-message",
		"data": map[string]any{
			"senderId":   senderID,
			"receiverId": receiverID,
			"message":    "hello",
		},
	}))

	// Then both receiver tabs get the message followed by refreshed counts
	for _, conn := range []*websocket.Conn{tab1, tab2} {
		f := readFrame(t, conn)
		req.Equal("receive-message", f.Event)
		var msg struct {
			ID         int64  `json:"id"`
			SenderID   int64  `json:"sender_id"`
			ReceiverID int64  `json:"receiver_id"`
			Message    string `json:"message"`
			IsRead     bool   `json:"is_read"`
		}
		req.NoError(json.Unmarshal(f.Data, &msg))
		req.Positive(msg.ID)
		req.Equal(senderID, msg.SenderID)
		req.Equal(receiverID, msg.ReceiverID)
		req.Equal("hello", msg.Message)
		req.False(msg.IsRead)

		f = readFrame(t, conn)
		req.Equal("unread-counts", f.Event)
		req.JSONEq(fmt.Sprintf(`{"%d": 1}`, senderID), string(f.Data))
	}

	// And the sender gets a persisted acknowledgment
	ack := readFrame(t, sender)
	req.Equal("message-sent", ack.Event)

	// And the REST view agrees with the socket view
	counts := getJSON(t, receiverHTTP, srv.URL+"/api/messages/unread-counts")
	req.JSONEq(fmt.Sprintf(`{"%d": 1}`, senderID), counts)

	// When the receiver marks the conversation read from the first tab
	req.NoError(tab1.WriteJSON(map[string]any{
		"event": "mark-as-read",
		"data": map[string]any{
			"senderId":   senderID,
			"receiverId": receiverID,
		},
	}))

	// Then both tabs see the counts drop to zero
	for _, conn := range []*websocket.Conn{tab1, tab2} {
		f := readFrame(t, conn)
		req.Equal("unread-counts", f.Event)
		req.JSONEq(`{}`, string(f.Data))
	}

	// And the sender is told who read the conversation
	f := readFrame(t, sender)
	req.Equal("unread-counts", f.Event)
	f = readFrame(t, sender)
	req.Equal("messages-read", f.Event)
	req.JSONEq(fmt.Sprintf(`{"readerId": %d}`, receiverID), string(f.Data))

	// And the history shows the message as read for both participants
	history := getJSON(t, senderHTTP, fmt.Sprintf("%s/api/messages/%d", srv.URL, receiverID))
	var msgs []struct {
		Message string `json:"message"`
		IsRead  bool   `json:"is_read"`
	}
	req.NoError(json.Unmarshal([]byte(history), &msgs))
	req.Len(msgs, 1)
	req.Equal("hello", msgs[0].Message)
	req.True(msgs[0].IsRead)
}

func Test_Socket_Rejects_Anonymous_Send(t *testing.T) {
	req := require.New(t)
	srv := newStack(t)
	registerUser(t, srv, "Carol", "carol@example.com")

	// Given a connection that never registered
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	req.NoError(err)
	t.Cleanup(func() { _ = conn.Close() })

	// When it tries to send a message
	req.NoError(conn.WriteJSON(map[string]any{
		"event": "send-message",
		"data":  map[string]any{"receiverId": 1, "message": "sneaky"},
	}))

	// Then it gets an error event instead of a delivery
	f := readFrame(t, conn)
	req.Equal("error", f.Event)
}

func Test_REST_Requires_Session(t *testing.T) {
	req := require.New(t)
	srv := newStack(t)

	resp, err := http.Get(srv.URL + "/api/messages/unread-counts")
	req.NoError(err)
	defer resp.Body.Close()
	req.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func Test_MarkRead_Rejects_Self_Over_REST(t *testing.T) {
	req := require.New(t)
	srv := newStack(t)
	userID, client := registerUser(t, srv, "Dave", "dave@example.com")

	resp, err := client.Post(
		fmt.Sprintf("%s/api/messages/mark-read/%d", srv.URL, userID),
		"application/json", nil)
	req.NoError(err)
	defer resp.Body.Close()

	req.Equal(http.StatusBadRequest, resp.StatusCode)
}

func Test_Session_Cookie_Expiry_Tracks_Token_Lifetime(t *testing.T) {
	req := require.New(t)
	srv := newStack(t)

	body, _ := json.Marshal(map[string]string{
		"name": "Erin", "email": "erin@example.com", "password": "Distinct$Passw0rd",
	})
	before := time.Now()
	resp, err := http.Post(srv.URL+"/api/register", "application/json", bytes.NewReader(body))
	req.NoError(err)
	defer resp.Body.Close()
	req.Equal(http.StatusOK, resp.StatusCode)

	var session *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "taskportal_session" {
			session = c
		}
	}
	req.NotNil(session)

	// The stack issues one-hour tokens, the cookie must not outlive them.
	req.WithinRange(session.Expires,
		before.Add(time.Hour-time.Minute), time.Now().Add(time.Hour+time.Minute))
}

func getJSON(t *testing.T, client *http.Client, url string) string {
	t.Helper()
	req := require.New(t)

	resp, err := client.Get(url)
	req.NoError(err)
	defer resp.Body.Close()
	req.Equal(http.StatusOK, resp.StatusCode)

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	req.NoError(err)
	return buf.String()
}
