package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeSlot_Overlaps(t *testing.T) {
	base := time.Date(2026, 3, 11, 18, 0, 0, 0, time.UTC)
	slot := TimeSlot{RestaurantID: "r1", Start: base, Duration: 90 * time.Minute}

	tests := []struct {
		name  string
		other TimeSlot
		want  bool
	}{
		{"same", slot, true},
		{"back to back", TimeSlot{Start: base.Add(90 * time.Minute), Duration: time.Hour}, false},
		{"ends at start", TimeSlot{Start: base.Add(-time.Hour), Duration: time.Hour}, false},
		{"partial", TimeSlot{Start: base.Add(time.Hour), Duration: time.Hour}, true},
		{"inside", TimeSlot{Start: base.Add(30 * time.Minute), Duration: 10 * time.Minute}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, slot.Overlaps(tt.other))
			assert.Equal(t, tt.want, tt.other.Overlaps(slot))
		})
	}
}

func TestReservation_CountsAt(t *testing.T) {
	now := time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC)
	later := now.Add(time.Minute)
	earlier := now.Add(-time.Minute)

	assert.True(t, (&Reservation{Status: StatusConfirmed}).CountsAt(now))
	assert.True(t, (&Reservation{Status: StatusPending, HoldExpiresAt: &later}).CountsAt(now))
	assert.False(t, (&Reservation{Status: StatusPending, HoldExpiresAt: &earlier}).CountsAt(now))
	assert.False(t, (&Reservation{Status: StatusPending, HoldExpiresAt: &now}).CountsAt(now))
	assert.False(t, (&Reservation{Status: StatusCancelled}).CountsAt(now))
}

func TestReservation_CanBeConfirmed(t *testing.T) {
	now := time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC)
	later := now.Add(time.Minute)

	assert.True(t, (&Reservation{Status: StatusPending, HoldExpiresAt: &later}).CanBeConfirmed(now))
	assert.False(t, (&Reservation{Status: StatusPending, HoldExpiresAt: &now}).CanBeConfirmed(now))
	assert.False(t, (&Reservation{Status: StatusConfirmed}).CanBeConfirmed(now))
	assert.False(t, (&Reservation{Status: StatusCancelled}).CanBeConfirmed(now))
}

func TestAvailableSlot_OccupancyRate(t *testing.T) {
	assert.InDelta(t, 75.0, (&AvailableSlot{Remaining: 1, Capacity: 4}).OccupancyRate(), 0.001)
	assert.Zero(t, (&AvailableSlot{Remaining: 4, Capacity: 4}).OccupancyRate())
	assert.Zero(t, (&AvailableSlot{}).OccupancyRate())
}

func TestCapacityExceededError(t *testing.T) {
	err := fmt.Errorf("reserve: %w", &CapacityExceededError{RestaurantID: "r1", Requested: 2, Remaining: 1})

	assert.True(t, errors.Is(err, ErrCapacityExceeded))

	var capErr *CapacityExceededError
	require.True(t, errors.As(err, &capErr))
	assert.Equal(t, 1, capErr.Remaining)
	assert.False(t, IsRetryable(err))
	assert.True(t, IsRetryable(fmt.Errorf("x: %w", ErrTimeout)))
}

func TestSessionState_Clone(t *testing.T) {
	s := NewSession("s1", time.Now())
	s.LastOffered = []string{"a", "b"}
	s.Slots.Window = &Window{Exact: true}
	s.Pending = &PendingAction{Kind: IntentBook, Tried: []string{"a"}}

	c := s.Clone()
	c.LastOffered[0] = "z"
	c.Slots.Window.Exact = false
	c.Pending.Tried[0] = "z"
	c.Pending.HoldID = "h"

	assert.Equal(t, "a", s.LastOffered[0])
	assert.True(t, s.Slots.Window.Exact)
	assert.Equal(t, "a", s.Pending.Tried[0])
	assert.Empty(t, s.Pending.HoldID)
}

func TestSearchFilters_Matches(t *testing.T) {
	r := &Restaurant{City: "Austin", PriceRange: PriceModerate, Rating: 4.2}

	assert.True(t, SearchFilters{}.Matches(r))
	assert.True(t, SearchFilters{City: "austin", PriceRange: PriceModerate, MinRating: 4}.Matches(r))
	assert.False(t, SearchFilters{City: "Denver"}.Matches(r))
	assert.False(t, SearchFilters{PriceRange: PriceBudget}.Matches(r))
	assert.False(t, SearchFilters{MinRating: 4.5}.Matches(r))
}
