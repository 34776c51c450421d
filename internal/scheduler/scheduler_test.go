package scheduler

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/Manas2412/8Byte/internal/testutils"
)

func TestTick_EnqueuesEveryUser(t *testing.T) {
	holdings := &testutils.MockHoldingsStore{Users: []string{"u1", "u2", "u3"}}
	q := &testutils.MockQueue{}

	s := New(holdings, q, zap.NewNop(), time.Second)
	s.tick()

	assert.ElementsMatch(t, []string{"u1", "u2", "u3"}, q.Enqueued)
}

func TestTick_StoreFailureSkipsTick(t *testing.T) {
	holdings := &testutils.MockHoldingsStore{UsersErr: errors.New("mongo down")}
	q := &testutils.MockQueue{}

	s := New(holdings, q, zap.NewNop(), time.Second)
	s.tick() // must not panic

	assert.Empty(t, q.Enqueued)
}

func TestTick_EnqueueFailureDoesNotAbortRemainder(t *testing.T) {
	holdings := &testutils.MockHoldingsStore{Users: []string{"u1", "u2"}}
	q := &testutils.MockQueue{EnqueueErrFor: map[string]error{"u1": errors.New("stream gone")}}

	s := New(holdings, q, zap.NewNop(), time.Second)
	s.tick()

	// u1's failure is logged and skipped; u2 must still be queued
	assert.Equal(t, []string{"u2"}, q.Enqueued)
}

func TestScheduler_StartAndStop(t *testing.T) {
	holdings := &testutils.MockHoldingsStore{Users: []string{"u1"}}
	q := &testutils.MockQueue{}

	s := New(holdings, q, zap.NewNop(), time.Second)
	if err := s.Start(time.Hour); err != nil {
		t.Fatalf("start: %v", err)
	}
	s.Stop()
}
