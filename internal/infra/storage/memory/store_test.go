package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-TableBooking/internal/domain"
	"github.com/m04kA/SMC-TableBooking/internal/infra/storage"
)

func reservation(id, code string, start time.Time, status domain.ReservationStatus) *domain.Reservation {
	return &domain.Reservation{
		ID:               id,
		ConfirmationCode: code,
		RestaurantID:     "r1",
		Contact:          "c",
		Slot:             domain.TimeSlot{RestaurantID: "r1", Start: start, Duration: time.Hour},
		PartySize:        2,
		Status:           status,
	}
}

func TestStore_LoadReservations(t *testing.T) {
	ctx := context.Background()
	s := NewStore([]*domain.Restaurant{{ID: "r1", Capacity: 10}})
	base := time.Date(2026, 3, 11, 18, 0, 0, 0, time.UTC)

	require.NoError(t, s.SaveReservation(ctx, reservation("a", "A", base, domain.StatusConfirmed)))
	require.NoError(t, s.SaveReservation(ctx, reservation("b", "B", base.Add(time.Hour), domain.StatusConfirmed)))
	require.NoError(t, s.SaveReservation(ctx, reservation("c", "C", base, domain.StatusConfirmed)))
	require.NoError(t, s.UpdateReservationStatus(ctx, "c", domain.StatusCancelled, "x"))

	got, err := s.LoadReservations(ctx, "r1", domain.TimeRange{Start: base, End: base.Add(time.Hour)})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID)

	// returned values are copies
	got[0].PartySize = 99
	again, err := s.GetReservation(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 2, again.PartySize)
}

func TestStore_Errors(t *testing.T) {
	ctx := context.Background()
	s := NewStore(nil)
	start := time.Date(2026, 3, 11, 18, 0, 0, 0, time.UTC)

	require.NoError(t, s.SaveReservation(ctx, reservation("a", "A", start, domain.StatusConfirmed)))
	assert.ErrorIs(t, s.SaveReservation(ctx, reservation("a", "Z", start, domain.StatusConfirmed)), storage.ErrDuplicate)
	assert.ErrorIs(t, s.SaveReservation(ctx, reservation("z", "A", start, domain.StatusConfirmed)), storage.ErrDuplicate)

	_, err := s.GetReservation(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = s.GetReservationByCode(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.ErrorIs(t, s.UpdateReservationStatus(ctx, "missing", domain.StatusCancelled, ""), storage.ErrNotFound)

	byCode, err := s.GetReservationByCode(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, "a", byCode.ID)
}

func TestStore_ListExpiredHolds(t *testing.T) {
	ctx := context.Background()
	s := NewStore(nil)
	now := time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	expired := reservation("a", "A", now.Add(time.Hour), domain.StatusPending)
	expired.HoldExpiresAt = &past
	live := reservation("b", "B", now.Add(time.Hour), domain.StatusPending)
	live.HoldExpiresAt = &future

	require.NoError(t, s.SaveReservation(ctx, expired))
	require.NoError(t, s.SaveReservation(ctx, live))

	got, err := s.ListExpiredHolds(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID)

	require.NoError(t, s.UpdateReservationStatus(ctx, "b", domain.StatusConfirmed, ""))
	confirmed, err := s.GetReservation(ctx, "b")
	require.NoError(t, err)
	assert.Nil(t, confirmed.HoldExpiresAt)
}

func TestStore_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewStore(nil).LoadRestaurants(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
