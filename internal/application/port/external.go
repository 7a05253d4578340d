package port

import (
	"context"

	"github.com/garyjia/caf-approval/internal/domain/entity"
)

// PayloadValidator checks a decoded request against the business schema.
// Failures must match workflow.ErrValidation.
type PayloadValidator interface {
	ValidateRequest(r *entity.Request) error
}

// Message is an outbound notification addressed by email
type Message struct {
	To      string
	Subject string
	HTML    string
	// Text is the plain-text rendering for channels without HTML support
	Text string
	// Link is the frontend URL the message points to, if any
	Link string
}

// MessageSender delivers notifications; failures are reported, never retried here
type MessageSender interface {
	SendMessage(ctx context.Context, msg Message) error
}
