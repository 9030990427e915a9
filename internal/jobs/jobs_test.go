package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueRunsJobs(t *testing.T) {
	t.Parallel()

	var (
		mu   sync.Mutex
		seen []uuid.UUID
		done = make(chan struct{}, 3)
	)
	q := NewQueue(func(ctx context.Context, job ApplyRulesJob) error {
		mu.Lock()
		seen = append(seen, job.Owner)
		mu.Unlock()
		done <- struct{}{}
		return nil
	}, 2, 8, zerolog.Nop())
	q.Start(context.Background())
	defer q.Stop()

	owners := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	for _, owner := range owners {
		job, err := q.Enqueue(context.Background(), ApplyRulesJob{Owner: owner})
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, job.ID)
		assert.False(t, job.EnqueuedAt.IsZero())
	}

	for range owners {
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("job never ran")
		}
	}
	mu.Lock()
	assert.ElementsMatch(t, owners, seen)
	mu.Unlock()
}

func TestQueueReportsErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	q := NewQueue(func(ctx context.Context, job ApplyRulesJob) error {
		return boom
	}, 1, 8, zerolog.Nop())
	q.Start(context.Background())
	defer q.Stop()

	job, err := q.Enqueue(context.Background(), ApplyRulesJob{Owner: uuid.New()})
	require.NoError(t, err)

	select {
	case jerr := <-q.Errors():
		assert.Equal(t, job.ID, jerr.Job.ID)
		assert.ErrorIs(t, jerr.Err, boom)
	case <-time.After(5 * time.Second):
		t.Fatal("error never surfaced")
	}
}

func TestQueueRejectsAfterStop(t *testing.T) {
	t.Parallel()

	q := NewQueue(func(ctx context.Context, job ApplyRulesJob) error {
		return nil
	}, 1, 1, zerolog.Nop())
	q.Start(context.Background())
	q.Stop()

	_, err := q.Enqueue(context.Background(), ApplyRulesJob{Owner: uuid.New()})
	assert.ErrorIs(t, err, ErrQueueClosed)

	q.Stop() // stopping twice is fine
}
