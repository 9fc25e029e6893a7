package create_reservation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-TableBooking/internal/domain"
	"github.com/m04kA/SMC-TableBooking/internal/infra/storage/memory"
	"github.com/m04kA/SMC-TableBooking/internal/service/availability"
	"github.com/m04kA/SMC-TableBooking/pkg/logger"
	"github.com/m04kA/SMC-TableBooking/pkg/txmanager"
	"github.com/m04kA/SMC-TableBooking/pkg/types"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

var testNow = time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC)

func newUseCase(t *testing.T) *UseCase {
	t.Helper()
	hours := domain.EveryDay(types.TimeString("11:00"), types.TimeString("23:00"))
	delete(hours, time.Monday)
	store := memory.NewStore([]*domain.Restaurant{{
		ID: "tiny", Name: "Tiny Table", Cuisine: "Italian", Capacity: 4,
		Policy: domain.OperatingPolicy{SeatingMinutes: 90, Hours: hours},
	}})
	clock := fixedClock{now: testNow}
	engine := availability.NewEngine(store, store, txmanager.Noop{}, logger.NewNop(), availability.WithTimeProvider(clock))

	uc := NewUseCase(engine, 30*time.Minute, 30, logger.NewNop())
	uc.timeProvider = clock
	return uc
}

func validRequest() *Request {
	return &Request{
		RestaurantID: "tiny",
		Date:         time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC),
		StartTime:    types.TimeString("19:00"),
		PartySize:    3,
		Contact:      " jane@example.com ",
		CustomerName: "Jane",
	}
}

func TestUseCase_Execute(t *testing.T) {
	uc := newUseCase(t)
	ctx := context.Background()

	resp, err := uc.Execute(ctx, validRequest())
	require.NoError(t, err)
	assert.Equal(t, "confirmed", resp.Status)
	assert.Equal(t, "Tiny Table", resp.RestaurantName)
	assert.Equal(t, time.Date(2026, 3, 11, 19, 0, 0, 0, time.UTC), resp.Start)
	assert.Equal(t, time.Date(2026, 3, 11, 20, 30, 0, 0, time.UTC), resp.End)
	assert.NotEmpty(t, resp.ConfirmationCode)

	// осталось одно место из четырех
	req := validRequest()
	req.PartySize = 2
	req.StartTime = types.TimeString("20:00")
	_, err = uc.Execute(ctx, req)
	assert.ErrorIs(t, err, ErrSlotNotAvailable)
	assert.ErrorIs(t, err, domain.ErrCapacityExceeded)
	var capErr *domain.CapacityExceededError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, 1, capErr.Remaining)

	req.PartySize = 1
	_, err = uc.Execute(ctx, req)
	assert.NoError(t, err)
}

func TestUseCase_Execute_Errors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(r *Request)
		want   error
	}{
		{"empty restaurant", func(r *Request) { r.RestaurantID = "" }, ErrInvalidInput},
		{"unknown restaurant", func(r *Request) { r.RestaurantID = "nope" }, ErrRestaurantNotFound},
		{"zero party", func(r *Request) { r.PartySize = 0 }, ErrInvalidInput},
		{"huge party", func(r *Request) { r.PartySize = domain.MaxPartySize + 1 }, ErrInvalidInput},
		{"no contact", func(r *Request) { r.Contact = "  " }, ErrInvalidInput},
		{"bad time", func(r *Request) { r.StartTime = types.TimeString("7pm") }, ErrInvalidInput},
		{"past date", func(r *Request) { r.Date = testNow.AddDate(0, 0, -1) }, ErrInvalidDate},
		{"too far", func(r *Request) { r.Date = testNow.AddDate(0, 0, 31) }, ErrDateTooFarInFuture},
		{"closed on monday", func(r *Request) { r.Date = time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC) }, ErrRestaurantClosed},
		{"off grid", func(r *Request) { r.StartTime = types.TimeString("19:10") }, ErrInvalidTimeSlot},
		{"ends after close", func(r *Request) { r.StartTime = types.TimeString("22:00") }, ErrInvalidTimeSlot},
		{"already started", func(r *Request) { r.StartTime = types.TimeString("11:30") }, ErrTooLateToBook},
		{"party over capacity", func(r *Request) { r.PartySize = 5 }, ErrSlotNotAvailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := newUseCase(t)
			req := validRequest()
			tt.modify(req)

			_, err := uc.Execute(context.Background(), req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

// slowStore блокирует LoadReservations до отмены контекста
type slowStore struct {
	*memory.Store
}

func (s *slowStore) LoadReservations(ctx context.Context, _ string, _ domain.TimeRange) ([]*domain.Reservation, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestUseCase_Execute_StoreTimeout(t *testing.T) {
	store := &slowStore{Store: memory.NewStore([]*domain.Restaurant{{
		ID: "tiny", Name: "Tiny Table", Capacity: 4,
		Policy: domain.OperatingPolicy{SeatingMinutes: 90, Hours: domain.EveryDay(types.TimeString("11:00"), types.TimeString("23:00"))},
	}})}
	clock := fixedClock{now: testNow}
	engine := availability.NewEngine(store, store, txmanager.Noop{}, logger.NewNop(), availability.WithTimeProvider(clock))
	uc := NewUseCase(engine, 30*time.Minute, 30, logger.NewNop(), WithStoreTimeout(20*time.Millisecond))
	uc.timeProvider = clock

	_, err := uc.Execute(context.Background(), validRequest())
	assert.ErrorIs(t, err, ErrConflict)
	assert.ErrorIs(t, err, domain.ErrTimeout)
}
