package chat

import (
	"fmt"
	"task-portal/errors"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// SendMessageCommand is a request to persist and deliver one message.
// Sending to yourself is rejected, a self-send would create a conversation
// a user holds with themselves.
type SendMessageCommand struct {
	SenderID   int64  `validate:"required,gt=0"`
	ReceiverID int64  `validate:"required,gt=0,nefield=SenderID"`
	Body       string `validate:"required,min=1,max=2000"`
}

func (c SendMessageCommand) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrValidation, err)
	}
	return nil
}

// MarkReadCommand marks every unread message from PeerID to ReaderID as read.
type MarkReadCommand struct {
	ReaderID int64 `validate:"required,gt=0"`
	PeerID   int64 `validate:"required,gt=0"`
}

func (c MarkReadCommand) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrValidation, err)
	}
	return nil
}
