// Package chat contains the core concepts of the direct-messaging system:
// messages exchanged between two users, and the commands that mutate them.
package chat

import "time"

// Message is a single direct message between two users. It is created once
// on send and only ever mutated by flipping IsRead from false to true.
type Message struct {
	ID         int64     `json:"id"`
	SenderID   int64     `json:"sender_id"`
	ReceiverID int64     `json:"receiver_id"`
	Body       string    `json:"message"`
	CreatedAt  time.Time `json:"created_at"`
	IsRead     bool      `json:"is_read"`
}

// User is the identity referenced by sender/receiver fields.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Task is a work item assigned between two users on the dashboard.
type Task struct {
	ID             int64     `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	AssignedBy     int64     `json:"assigned_by"`
	AssignedTo     int64     `json:"assigned_to"`
	AssignedByName string    `json:"assigned_by_name,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
