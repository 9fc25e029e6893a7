package availability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-TableBooking/internal/domain"
)

func rangeAt(h, m int, d time.Duration) domain.TimeRange {
	start := time.Date(2026, 3, 11, h, m, 0, 0, time.UTC)
	return domain.TimeRange{Start: start, End: start.Add(d)}
}

func TestIntervalLocker_DisjointProceed(t *testing.T) {
	l := newIntervalLocker()
	ctx := context.Background()

	unlockA, err := l.Lock(ctx, "r1", rangeAt(18, 0, time.Hour))
	require.NoError(t, err)
	defer unlockA()

	// adjacent interval on the same key
	unlockB, err := l.Lock(ctx, "r1", rangeAt(19, 0, time.Hour))
	require.NoError(t, err)
	defer unlockB()

	// same interval on another key
	unlockC, err := l.Lock(ctx, "r2", rangeAt(18, 0, time.Hour))
	require.NoError(t, err)
	unlockC()
}

func TestIntervalLocker_OverlapWaits(t *testing.T) {
	l := newIntervalLocker()
	ctx := context.Background()

	unlock, err := l.Lock(ctx, "r1", rangeAt(18, 0, time.Hour))
	require.NoError(t, err)

	acquired := make(chan struct{})
	go func() {
		u, err := l.Lock(ctx, "r1", rangeAt(18, 30, time.Hour))
		if err == nil {
			u()
		}
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("overlapping lock acquired while held")
	case <-time.After(30 * time.Millisecond):
	}

	unlock()
	unlock()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("waiter not released")
	}
}

func TestIntervalLocker_ContextCancelled(t *testing.T) {
	l := newIntervalLocker()

	unlock, err := l.Lock(context.Background(), "r1", rangeAt(18, 0, time.Hour))
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = l.Lock(ctx, "r1", rangeAt(18, 0, time.Hour))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
