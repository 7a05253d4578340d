package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/caf-approval/internal/domain/entity"
	"github.com/garyjia/caf-approval/internal/domain/workflow"
)

func TestRequestStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewRequestStore()

	created, err := store.CreateRequest(ctx, entity.Request{ID: 99, Fields: entity.Fields{Client: "ACME"}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID, "caller-supplied ids are replaced")

	got, err := store.GetRequest(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	got.Fields.Client = "Changed"
	require.NoError(t, store.SaveRequest(ctx, got))

	again, err := store.GetRequest(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Changed", again.Fields.Client)
}

func TestRequestStore_NotFound(t *testing.T) {
	ctx := context.Background()
	store := NewRequestStore()

	_, err := store.GetRequest(ctx, 1)
	assert.ErrorIs(t, err, workflow.ErrNotFound)

	err = store.SaveRequest(ctx, entity.Request{ID: 1})
	assert.ErrorIs(t, err, workflow.ErrNotFound)
}

func TestRequestStore_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRequestStore().CreateRequest(ctx, entity.Request{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRequestStore_ConcurrentCreates(t *testing.T) {
	store := NewRequestStore()
	var wg sync.WaitGroup
	ids := make(chan int64, 50)

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, err := store.CreateRequest(context.Background(), entity.Request{})
			if assert.NoError(t, err) {
				ids <- r.ID
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[int64]bool)
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	assert.Equal(t, 50, store.Len())
}
