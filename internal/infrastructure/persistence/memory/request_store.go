package memory

import (
	"context"
	"sync"

	"github.com/garyjia/caf-approval/internal/application/port"
	"github.com/garyjia/caf-approval/internal/domain/entity"
	"github.com/garyjia/caf-approval/internal/domain/workflow"
)

// RequestStore keeps requests in process memory. Used for development
// (database.driver: memory) and in tests.
type RequestStore struct {
	mu       sync.RWMutex
	requests map[int64]entity.Request
	lastID   int64
}

// NewRequestStore creates an empty store
func NewRequestStore() *RequestStore {
	return &RequestStore{requests: make(map[int64]entity.Request)}
}

func (s *RequestStore) CreateRequest(ctx context.Context, r entity.Request) (entity.Request, error) {
	if err := ctx.Err(); err != nil {
		return entity.Request{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastID++
	r.ID = s.lastID
	s.requests[r.ID] = r
	return r, nil
}

func (s *RequestStore) GetRequest(ctx context.Context, id int64) (entity.Request, error) {
	if err := ctx.Err(); err != nil {
		return entity.Request{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.requests[id]
	if !ok {
		return entity.Request{}, &workflow.NotFoundError{ID: id}
	}
	return r, nil
}

func (s *RequestStore) SaveRequest(ctx context.Context, r entity.Request) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.requests[r.ID]; !ok {
		return &workflow.NotFoundError{ID: r.ID}
	}
	s.requests[r.ID] = r
	return nil
}

// Len returns the number of stored requests
func (s *RequestStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.requests)
}

var _ port.RequestStore = (*RequestStore)(nil)
