package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation           = errors.New("validation failed")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrMessageNotFound      = errors.New("message not found")
	ErrInvalidInput         = errors.New("invalid input")
	ErrSendInFlight         = errors.New("send already in flight")
)

// ValidationError is a client-side precondition failure. It never reaches the store.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s is required", e.Field)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// SendError reports that message creation failed.
type SendError struct {
	ConversationID string
	Err            error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("failed to send message to conversation %s: %v", e.ConversationID, e.Err)
}

func (e *SendError) Unwrap() error { return e.Err }

// SummaryUpdateError reports that the conversation summary write failed after the
// message was persisted. Recovered locally.
type SummaryUpdateError struct {
	ConversationID string
	Err            error
}

func (e *SummaryUpdateError) Error() string {
	return fmt.Sprintf("failed to update summary of conversation %s: %v", e.ConversationID, e.Err)
}

func (e *SummaryUpdateError) Unwrap() error { return e.Err }

// ReadReceiptError reports that marking a message read failed. Recovered locally;
// the message is selected again on the next reconciliation.
type ReadReceiptError struct {
	MessageID string
	Err       error
}

func (e *ReadReceiptError) Error() string {
	return fmt.Sprintf("failed to mark message %s read: %v", e.MessageID, e.Err)
}

func (e *ReadReceiptError) Unwrap() error { return e.Err }
