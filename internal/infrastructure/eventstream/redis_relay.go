package eventstream

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/garyjia/caf-approval/internal/application/dispatcher"
	"github.com/garyjia/caf-approval/internal/domain/entity"
	"github.com/garyjia/caf-approval/internal/domain/event"
)

// DefaultStream is the stream key used when none is configured
const DefaultStream = "caf:request-events"

// StreamAdder is the subset of the redis client the relay uses
type StreamAdder interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// Envelope is the JSON document appended to the stream for every event
type Envelope struct {
	EventID    string          `json:"event_id"`
	EventType  event.Type      `json:"event_type"`
	RequestID  int64           `json:"request_id"`
	OccurredAt time.Time       `json:"occurred_at"`
	Request    entity.Request  `json:"request"`
	Data       json.RawMessage `json:"data,omitempty"`
}

// RedisRelay is an observer that appends every domain event to a Redis
// stream so processes outside this service can follow request activity.
type RedisRelay struct {
	client StreamAdder
	stream string
	maxLen int64
}

// NewRedisRelay creates a relay; maxLen caps the stream approximately, 0 disables trimming
func NewRedisRelay(client StreamAdder, stream string, maxLen int64) *RedisRelay {
	if stream == "" {
		stream = DefaultStream
	}
	return &RedisRelay{client: client, stream: stream, maxLen: maxLen}
}

// Connect builds a client from a redis:// URL or a host:port address
func Connect(addr, password string, db int) (*redis.Client, error) {
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		opt, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		return redis.NewClient(opt), nil
	}
	return redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db}), nil
}

func (r *RedisRelay) Name() string { return "redis-stream-relay" }

func (r *RedisRelay) CanHandle(eventType event.Type) bool {
	return eventType.IsValid()
}

func (r *RedisRelay) Handle(ctx context.Context, evt event.Event) error {
	env, err := NewEnvelope(evt)
	if err != nil {
		return err
	}

	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: r.stream,
		Values: map[string]interface{}{
			"event_id":   env.EventID,
			"event_type": env.EventType.String(),
			"request_id": env.RequestID,
			"envelope":   string(body),
		},
	}
	if r.maxLen > 0 {
		args.MaxLen = r.maxLen
		args.Approx = true
	}

	if err := r.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("append %s to stream %s: %w", evt.Type(), r.stream, err)
	}
	return nil
}

// NewEnvelope converts a domain event to its stream representation
func NewEnvelope(evt event.Event) (Envelope, error) {
	env := Envelope{
		EventID:    evt.ID(),
		EventType:  evt.Type(),
		RequestID:  evt.RequestID(),
		OccurredAt: evt.OccurredAt().UTC(),
		Request:    evt.Request(),
	}

	var data interface{}
	switch e := evt.(type) {
	case *event.RequestCreated:
		data = map[string]string{
			"contract_type": e.ContractType(),
			"responsible":   e.Responsible(),
		}
	case *event.RequestApproved:
		data = map[string]string{"approved_by": e.ApprovedBy()}
	case *event.RequestRejected:
		data = map[string]string{
			"rejected_by": e.RejectedBy(),
			"comments":    e.Comments(),
			"reason":      e.Reason().String(),
		}
	case *event.RequestCorrected:
		data = map[string]interface{}{
			"corrected_by":    e.CorrectedBy(),
			"notify_reviewer": e.NotifyReviewer(),
			"changed_fields":  e.ChangedFields(),
		}
	default:
		return Envelope{}, fmt.Errorf("unsupported event %T", evt)
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal event data: %w", err)
	}
	env.Data = raw
	return env, nil
}

var (
	_ dispatcher.Observer = (*RedisRelay)(nil)
	_ dispatcher.Named    = (*RedisRelay)(nil)
)
