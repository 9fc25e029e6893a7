package reservations

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-TableBooking/internal/domain"
	"github.com/m04kA/SMC-TableBooking/internal/infra/storage/memory"
	"github.com/m04kA/SMC-TableBooking/internal/service/availability"
	"github.com/m04kA/SMC-TableBooking/internal/service/reservations/models"
	"github.com/m04kA/SMC-TableBooking/pkg/logger"
	"github.com/m04kA/SMC-TableBooking/pkg/txmanager"
	"github.com/m04kA/SMC-TableBooking/pkg/types"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

var dinnerAt = time.Date(2026, 3, 11, 19, 0, 0, 0, time.UTC)

func newService(t *testing.T) (*Service, *availability.Engine) {
	t.Helper()
	store := memory.NewStore([]*domain.Restaurant{{
		ID: "bella-roma", Name: "Bella Roma", Cuisine: "Italian", Capacity: 8,
		Policy: domain.OperatingPolicy{
			SeatingMinutes: 90,
			Hours:          domain.EveryDay(types.TimeString("11:00"), types.TimeString("23:00")),
		},
	}})
	engine := availability.NewEngine(store, store, txmanager.Noop{}, logger.NewNop(),
		availability.WithTimeProvider(fixedClock{now: time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC)}))
	return NewService(engine, store, logger.NewNop()), engine
}

func reserve(t *testing.T, engine *availability.Engine, contact string, start time.Time) *domain.Reservation {
	t.Helper()
	res, err := engine.Reserve(context.Background(), &availability.ReserveRequest{
		RestaurantID: "bella-roma",
		Slot:         domain.TimeSlot{Start: start, Duration: 90 * time.Minute},
		PartySize:    2,
		Contact:      contact,
	})
	require.NoError(t, err)
	return res
}

func TestService_Get(t *testing.T) {
	svc, engine := newService(t)
	res := reserve(t, engine, "jane@example.com", dinnerAt)
	ctx := context.Background()

	got, err := svc.Get(ctx, res.ConfirmationCode, "")
	require.NoError(t, err)
	assert.Equal(t, res.ID, got.ID)
	assert.Equal(t, "Bella Roma", got.RestaurantName)
	assert.Equal(t, dinnerAt.Add(90*time.Minute), got.End)

	got, err = svc.Get(ctx, res.ID, "JANE@example.com")
	require.NoError(t, err)
	assert.Equal(t, "confirmed", got.Status)

	_, err = svc.Get(ctx, res.ID, "someone@else.com")
	assert.ErrorIs(t, err, ErrAccessDenied)

	_, err = svc.Get(ctx, "ZZZZ2222", "")
	assert.ErrorIs(t, err, ErrReservationNotFound)

	_, err = svc.Get(ctx, "  ", "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestService_Cancel(t *testing.T) {
	svc, engine := newService(t)
	res := reserve(t, engine, "jane@example.com", dinnerAt)
	ctx := context.Background()

	_, err := svc.Cancel(ctx, res.ConfirmationCode, &models.CancelReservationRequest{Contact: "bob@example.com"})
	require.ErrorIs(t, err, ErrAccessDenied)

	_, err = svc.Cancel(ctx, res.ConfirmationCode, &models.CancelReservationRequest{})
	require.ErrorIs(t, err, ErrInvalidInput)

	got, err := svc.Cancel(ctx, res.ConfirmationCode, &models.CancelReservationRequest{Contact: "jane@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "cancelled", got.Status)
	assert.Equal(t, domain.ReasonGuestCancel, got.CancelReason)

	// повторная отмена возвращает то же бронирование
	again, err := svc.Cancel(ctx, res.ID, &models.CancelReservationRequest{Contact: "jane@example.com", Reason: "changed plans"})
	require.NoError(t, err)
	assert.Equal(t, domain.ReasonGuestCancel, again.CancelReason)
}

func TestService_ListByContact(t *testing.T) {
	svc, engine := newService(t)
	ctx := context.Background()

	first := reserve(t, engine, "jane@example.com", dinnerAt)
	second := reserve(t, engine, "jane@example.com", dinnerAt.Add(24*time.Hour))
	reserve(t, engine, "bob@example.com", dinnerAt)

	_, err := engine.Cancel(ctx, first.ID)
	require.NoError(t, err)

	list, err := svc.ListByContact(ctx, &models.ListByContactRequest{Contact: "jane@example.com"})
	require.NoError(t, err)
	require.Equal(t, 1, list.Total)
	assert.Equal(t, second.ID, list.Reservations[0].ID)

	list, err = svc.ListByContact(ctx, &models.ListByContactRequest{Contact: "jane@example.com", IncludeCancelled: true})
	require.NoError(t, err)
	require.Equal(t, 2, list.Total)
	assert.Equal(t, second.ID, list.Reservations[0].ID, "latest first")
	assert.Equal(t, "Bella Roma", list.Reservations[1].RestaurantName)

	_, err = svc.ListByContact(ctx, &models.ListByContactRequest{Contact: " "})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestService_ListByRestaurant(t *testing.T) {
	svc, engine := newService(t)
	ctx := context.Background()

	late := reserve(t, engine, "jane@example.com", dinnerAt.Add(2*time.Hour))
	early := reserve(t, engine, "bob@example.com", dinnerAt)
	reserve(t, engine, "ann@example.com", dinnerAt.Add(24*time.Hour))
	cancelled := reserve(t, engine, "tom@example.com", dinnerAt.Add(time.Hour))
	_, err := engine.Cancel(ctx, cancelled.ID)
	require.NoError(t, err)

	held, err := engine.Hold(ctx, &availability.ReserveRequest{
		RestaurantID: "bella-roma",
		Slot:         domain.TimeSlot{Start: dinnerAt.Add(30 * time.Minute), Duration: 90 * time.Minute},
		PartySize:    2,
		Contact:      "eve@example.com",
	})
	require.NoError(t, err)

	day := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)
	list, err := svc.ListByRestaurant(ctx, &models.ListByRestaurantRequest{RestaurantID: "bella-roma", Date: day})
	require.NoError(t, err)
	require.Equal(t, 3, list.Total)
	assert.Equal(t, []string{early.ID, held.ID, late.ID},
		[]string{list.Reservations[0].ID, list.Reservations[1].ID, list.Reservations[2].ID})

	pending := domain.StatusPending
	list, err = svc.ListByRestaurant(ctx, &models.ListByRestaurantRequest{RestaurantID: "bella-roma", Date: day, Status: &pending})
	require.NoError(t, err)
	require.Equal(t, 1, list.Total)
	assert.Equal(t, held.ID, list.Reservations[0].ID)

	bad := domain.StatusCancelled
	_, err = svc.ListByRestaurant(ctx, &models.ListByRestaurantRequest{RestaurantID: "bella-roma", Date: day, Status: &bad})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.ListByRestaurant(ctx, &models.ListByRestaurantRequest{RestaurantID: "nope", Date: day})
	assert.ErrorIs(t, err, ErrRestaurantNotFound)
}

// slowStore блокирует чтение бронирований до отмены контекста
type slowStore struct {
	*memory.Store
}

func (s *slowStore) LoadReservations(ctx context.Context, _ string, _ domain.TimeRange) ([]*domain.Reservation, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (s *slowStore) ListByContact(ctx context.Context, _ string, _ bool) ([]*domain.Reservation, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestService_StoreTimeout(t *testing.T) {
	store := &slowStore{Store: memory.NewStore([]*domain.Restaurant{{
		ID: "bella-roma", Name: "Bella Roma", Capacity: 8,
		Policy: domain.OperatingPolicy{
			SeatingMinutes: 90,
			Hours:          domain.EveryDay(types.TimeString("11:00"), types.TimeString("23:00")),
		},
	}})}
	engine := availability.NewEngine(store, store, txmanager.Noop{}, logger.NewNop())
	svc := NewService(engine, store, logger.NewNop(), WithStoreTimeout(20*time.Millisecond))
	ctx := context.Background()

	_, err := svc.ListByRestaurant(ctx, &models.ListByRestaurantRequest{RestaurantID: "bella-roma", Date: dinnerAt})
	assert.ErrorIs(t, err, ErrInternal)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, domain.IsRetryable(err))

	_, err = svc.ListByContact(ctx, &models.ListByContactRequest{Contact: "jane@example.com"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
