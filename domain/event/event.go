// Package event defines the events pushed to live connections.
// Event names are the wire-level event identifiers of the socket protocol.
package event

import "task-portal/domain/chat"

type DomainEvent interface {
	Name() string
}

// MessageReceived is pushed to every live connection of the receiver.
type MessageReceived struct {
	Message chat.Message
}

func (MessageReceived) Name() string { return "receive-message" }

// MessageAcked is the acknowledgment sent back to the sending connection
// only, carrying the persisted message with its server-assigned id and timestamp.
type MessageAcked struct {
	Message chat.Message
}

func (MessageAcked) Name() string { return "message-sent" }

// UnreadSnapshot carries the full per-peer unread mapping, not a delta.
// Peers with zero unread messages are absent from the map.
type UnreadSnapshot struct {
	Counts map[int64]int64
}

func (UnreadSnapshot) Name() string { return "unread-counts" }

// ConversationRead notifies the original sender that a reader marked the
// conversation as read, so the sender UI can flip its read-receipt ticks.
type ConversationRead struct {
	ReaderID int64 `json:"readerId"`
}

func (ConversationRead) Name() string { return "messages-read" }

// DeliveryError reports a failed operation back to the acting connection.
type DeliveryError struct {
	Message string `json:"message"`
}

func (DeliveryError) Name() string { return "error" }
