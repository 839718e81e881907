//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"task-portal/domain/chat"
	"task-portal/errors"
)

type IMessageRepository interface {
	Append(ctx context.Context, senderID, receiverID int64, body string) (chat.Message, error)
	MarkRead(ctx context.Context, senderID, receiverID int64) (int64, error)
	UnreadCountsFor(ctx context.Context, userID int64) (map[int64]int64, error)
	History(ctx context.Context, userID, otherUserID int64) ([]chat.Message, error)
}

// MessageRepository is the durable message ledger. Messages are append-only,
// the single mutation is the false-to-true flip of is_read.
type MessageRepository struct {
	db  *sql.DB
	log *slog.Logger
}

func NewMessageRepository(db *sql.DB, log *slog.Logger) MessageRepository {
	return MessageRepository{db: db, log: log}
}

// Append inserts one message with is_read=false. The timestamp is assigned
// here rather than by the database so ordering has sub-second resolution.
func (m MessageRepository) Append(ctx context.Context, senderID, receiverID int64, body string) (chat.Message, error) {
	const q = `
INSERT INTO messages (sender_id, receiver_id, message, created_at)
VALUES (?, ?, ?, ?)
RETURNING id, sender_id, receiver_id, message, created_at, is_read;
`
	var (
		msg     chat.Message
		readInt int
	)
	now := time.Now().UTC()
	err := m.db.QueryRowContext(ctx, q, senderID, receiverID, body, now).Scan(
		&msg.ID, &msg.SenderID, &msg.ReceiverID, &msg.Body, &msg.CreatedAt, &readInt,
	)
	if err != nil {
		return chat.Message{}, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}
	msg.IsRead = readInt == 1
	return msg, nil
}

// MarkRead flips is_read for every unread message from senderID to receiverID
// and returns the number of rows affected. Zero is a valid result, the
// operation is idempotent and safe to call redundantly.
func (m MessageRepository) MarkRead(ctx context.Context, senderID, receiverID int64) (int64, error) {
	const q = `
UPDATE messages
SET is_read = 1
WHERE sender_id = ? AND receiver_id = ? AND is_read = 0;
`
	res, err := m.db.ExecContext(ctx, q, senderID, receiverID)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}
	return affected, nil
}

// UnreadCountsFor aggregates unread messages for userID grouped by sender.
// Peers with nothing unread are absent from the map, not zero-valued.
func (m MessageRepository) UnreadCountsFor(ctx context.Context, userID int64) (map[int64]int64, error) {
	const q = `
SELECT sender_id, COUNT(*)
FROM messages
WHERE receiver_id = ? AND is_read = 0
GROUP BY sender_id;
`
	rows, err := m.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}
	defer rows.Close()

	counts := make(map[int64]int64)
	for rows.Next() {
		var peerID, count int64
		if err := rows.Scan(&peerID, &count); err != nil {
			return nil, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
		}
		counts[peerID] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}
	return counts, nil
}

// History returns the full conversation between two users in both directions,
// oldest first. Unbounded, the assumed scale keeps conversations small.
func (m MessageRepository) History(ctx context.Context, userID, otherUserID int64) ([]chat.Message, error) {
	const q = `
SELECT id, sender_id, receiver_id, message, created_at, is_read
FROM messages
WHERE (sender_id = ? AND receiver_id = ?)
   OR (sender_id = ? AND receiver_id = ?)
ORDER BY created_at ASC, id ASC;
`
	rows, err := m.db.QueryContext(ctx, q, userID, otherUserID, otherUserID, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}
	defer rows.Close()

	var messages []chat.Message
	for rows.Next() {
		var (
			msg     chat.Message
			readInt int
		)
		if err := rows.Scan(&msg.ID, &msg.SenderID, &msg.ReceiverID, &msg.Body, &msg.CreatedAt, &readInt); err != nil {
			return nil, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
		}
		msg.IsRead = readInt == 1
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}
	return messages, nil
}
