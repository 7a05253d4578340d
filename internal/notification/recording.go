package notification

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/garyjia/caf-approval/internal/application/port"
)

// RecordingObserverName is the name used when messages are only recorded
const RecordingObserverName = "email-recorder"

// RecordingSender keeps every message in memory instead of delivering it
type RecordingSender struct {
	mu     sync.Mutex
	sent   []port.Message
	logger *zap.Logger
}

func NewRecordingSender(logger *zap.Logger) *RecordingSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecordingSender{logger: logger}
}

func (s *RecordingSender) SendMessage(ctx context.Context, msg port.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	s.sent = append(s.sent, msg)
	s.mu.Unlock()

	s.logger.Info("Notification recorded",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("link", msg.Link))
	return nil
}

// Sent returns a copy of the recorded messages, oldest first
func (s *RecordingSender) Sent() []port.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]port.Message, len(s.sent))
	copy(out, s.sent)
	return out
}

func (s *RecordingSender) Reset() {
	s.mu.Lock()
	s.sent = nil
	s.mu.Unlock()
}

// RecordingObserver composes notifications like EmailObserver and keeps
// them in memory. Used for the "log" channel and in tests.
type RecordingObserver struct {
	*EmailObserver
	*RecordingSender
}

func NewRecordingObserver(cfg EmailConfig, logger *zap.Logger) *RecordingObserver {
	sender := NewRecordingSender(logger)
	return &RecordingObserver{
		EmailObserver:   NewEmailObserver(sender, cfg, logger),
		RecordingSender: sender,
	}
}

func (o *RecordingObserver) Name() string { return RecordingObserverName }
