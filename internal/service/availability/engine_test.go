package availability

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-TableBooking/internal/domain"
	"github.com/m04kA/SMC-TableBooking/internal/infra/storage"
	"github.com/m04kA/SMC-TableBooking/internal/infra/storage/memory"
	"github.com/m04kA/SMC-TableBooking/pkg/event"
	"github.com/m04kA/SMC-TableBooking/pkg/logger"
	"github.com/m04kA/SMC-TableBooking/pkg/txmanager"
	"github.com/m04kA/SMC-TableBooking/pkg/types"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type capturePublisher struct {
	mu     sync.Mutex
	events []event.ReservationEvent
}

func (p *capturePublisher) Publish(_ context.Context, topic string, msg []byte) error {
	var ev event.ReservationEvent
	if err := json.Unmarshal(msg, &ev); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *capturePublisher) eventTypes() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.EventType)
	}
	return out
}

var (
	testNow   = time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC)
	dinnerAt  = time.Date(2026, 3, 11, 19, 0, 0, 0, time.UTC)
	seating   = 90 * time.Minute
	testHours = domain.EveryDay(types.TimeString("11:00"), types.TimeString("23:00"))
)

func testRestaurants() []*domain.Restaurant {
	return []*domain.Restaurant{
		{ID: "small", Name: "Tiny Table", Cuisine: "Italian", Capacity: 4,
			Policy: domain.OperatingPolicy{SeatingMinutes: 90, Hours: testHours}},
		{ID: "big", Name: "Grand Hall", Cuisine: "French", Capacity: 10,
			Policy: domain.OperatingPolicy{SeatingMinutes: 90, Hours: testHours}},
	}
}

type fixture struct {
	engine    *Engine
	store     *memory.Store
	clock     *fakeClock
	publisher *capturePublisher
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	store := memory.NewStore(testRestaurants())
	clock := &fakeClock{now: testNow}
	publisher := &capturePublisher{}
	opts = append([]Option{
		WithTimeProvider(clock),
		WithEventPublisher(publisher),
		WithHoldTTL(5 * time.Minute),
	}, opts...)
	return &fixture{
		engine:    NewEngine(store, store, txmanager.Noop{}, logger.NewNop(), opts...),
		store:     store,
		clock:     clock,
		publisher: publisher,
	}
}

func request(restaurantID string, start time.Time, party int) *ReserveRequest {
	return &ReserveRequest{
		RestaurantID: restaurantID,
		Slot:         domain.TimeSlot{Start: start, Duration: seating},
		PartySize:    party,
		Contact:      "guest@example.com",
	}
}

func TestEngine_ReserveSequentialCapacity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.engine.Reserve(ctx, request("small", dinnerAt, 3))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, res.Status)
	assert.Len(t, res.ConfirmationCode, codeLength)

	_, err = f.engine.Reserve(ctx, request("small", dinnerAt, 2))
	require.ErrorIs(t, err, domain.ErrCapacityExceeded)

	var capErr *domain.CapacityExceededError
	require.True(t, errors.As(err, &capErr))
	assert.Equal(t, 1, capErr.Remaining)

	avail, err := f.engine.CheckAvailability(ctx, "small", domain.TimeSlot{Start: dinnerAt, Duration: seating}, 1)
	require.NoError(t, err)
	assert.True(t, avail.Available)
	assert.Equal(t, 1, avail.RemainingCapacity)
}

func TestEngine_ReserveConcurrentNeverOverbooks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var (
		wg        sync.WaitGroup
		successes atomic.Int32
		refused   atomic.Int32
	)
	for _, party := range []int{3, 2} {
		wg.Add(1)
		go func(party int) {
			defer wg.Done()
			_, err := f.engine.Reserve(ctx, request("small", dinnerAt, party))
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, domain.ErrCapacityExceeded):
				refused.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(party)
	}
	wg.Wait()

	assert.EqualValues(t, 1, successes.Load())
	assert.EqualValues(t, 1, refused.Load())
}

func TestEngine_ReserveStress(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var (
		wg        sync.WaitGroup
		successes atomic.Int32
	)
	// overlapping starts: 19:00, 19:30, 20:00 all intersect 19:30-21:00
	starts := []time.Time{dinnerAt, dinnerAt.Add(30 * time.Minute), dinnerAt.Add(time.Hour)}
	for i := 0; i < 60; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := f.engine.Reserve(ctx, request("big", starts[i%len(starts)], 1)); err == nil {
				successes.Add(1)
			}
		}(i)
	}
	wg.Wait()

	// every instant covered by at most capacity seats
	reservations := f.store.Reservations("big")
	for at := dinnerAt; at.Before(dinnerAt.Add(3 * time.Hour)); at = at.Add(15 * time.Minute) {
		used := 0
		for _, r := range reservations {
			if r.Status == domain.StatusConfirmed && r.Slot.Range().Contains(at) {
				used += r.PartySize
			}
		}
		assert.LessOrEqual(t, used, 10, "at %s", at)
	}
	assert.Positive(t, successes.Load())
}

func TestEngine_BackToBackSlotsDoNotOverlap(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.engine.Reserve(ctx, request("small", dinnerAt, 4))
	require.NoError(t, err)

	_, err = f.engine.Reserve(ctx, request("small", dinnerAt.Add(seating), 4))
	require.NoError(t, err)

	_, err = f.engine.Reserve(ctx, request("small", dinnerAt.Add(seating-time.Minute), 1))
	assert.ErrorIs(t, err, domain.ErrCapacityExceeded)
}

func TestEngine_HoldLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	hold, err := f.engine.Hold(ctx, request("small", dinnerAt, 4))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, hold.Status)
	require.NotNil(t, hold.HoldExpiresAt)

	// a live hold counts against capacity
	_, err = f.engine.Reserve(ctx, request("small", dinnerAt, 1))
	require.ErrorIs(t, err, domain.ErrCapacityExceeded)

	confirmed, err := f.engine.Confirm(ctx, hold.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, confirmed.Status)
	assert.Nil(t, confirmed.HoldExpiresAt)

	again, err := f.engine.Confirm(ctx, hold.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, again.Status)

	assert.Equal(t, []string{event.EventReservationHeld, event.EventReservationConfirmed}, f.publisher.eventTypes())
}

func TestEngine_HoldExpiry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	hold, err := f.engine.Hold(ctx, request("small", dinnerAt, 4))
	require.NoError(t, err)

	f.clock.Advance(5 * time.Minute)

	// expired holds stop counting even before the sweep
	avail, err := f.engine.CheckAvailability(ctx, "small", domain.TimeSlot{Start: dinnerAt, Duration: seating}, 4)
	require.NoError(t, err)
	assert.True(t, avail.Available)

	_, err = f.engine.Confirm(ctx, hold.ID)
	require.ErrorIs(t, err, domain.ErrHoldExpired)

	stored, err := f.store.GetReservation(ctx, hold.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, stored.Status)
	assert.Equal(t, domain.ReasonHoldExpired, stored.CancelReason)

	_, err = f.engine.Confirm(ctx, hold.ID)
	assert.ErrorIs(t, err, domain.ErrHoldExpired)
}

func TestEngine_ExpireHolds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.engine.Hold(ctx, request("small", dinnerAt, 2))
	require.NoError(t, err)
	f.clock.Advance(2 * time.Minute)
	second, err := f.engine.Hold(ctx, request("small", dinnerAt, 2))
	require.NoError(t, err)

	f.clock.Advance(3 * time.Minute)
	n, err := f.engine.ExpireHolds(ctx, f.clock.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	gotFirst, err := f.store.GetReservation(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, gotFirst.Status)

	gotSecond, err := f.store.GetReservation(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, gotSecond.Status)

	released, err := f.engine.ExpireHold(ctx, second.ID)
	require.NoError(t, err)
	assert.False(t, released)
}

func TestEngine_CancelIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.engine.Reserve(ctx, request("small", dinnerAt, 4))
	require.NoError(t, err)

	cancelled, err := f.engine.Cancel(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, cancelled.Status)

	again, err := f.engine.Cancel(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, again.Status)
	assert.Equal(t, domain.ReasonGuestCancel, again.CancelReason)

	// seats are free again
	_, err = f.engine.Reserve(ctx, request("small", dinnerAt, 4))
	require.NoError(t, err)

	_, err = f.engine.Cancel(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.Equal(t, []string{
		event.EventReservationConfirmed,
		event.EventReservationCancelled,
		event.EventReservationConfirmed,
	}, f.publisher.eventTypes())
}

func TestEngine_Lookup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.engine.Reserve(ctx, request("big", dinnerAt, 2))
	require.NoError(t, err)

	byID, err := f.engine.Lookup(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, res.ConfirmationCode, byID.ConfirmationCode)

	byCode, err := f.engine.Lookup(ctx, " "+strings.ToLower(res.ConfirmationCode)+" ")
	require.NoError(t, err)
	assert.Equal(t, res.ID, byCode.ID)

	_, err = f.engine.Lookup(ctx, "NOPE1234")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEngine_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.engine.Reserve(ctx, request("small", dinnerAt, 0))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.engine.Reserve(ctx, request("nowhere", dinnerAt, 2))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	bad := request("small", dinnerAt, 2)
	bad.Slot.Duration = 0
	_, err = f.engine.Reserve(ctx, bad)
	assert.ErrorIs(t, err, domain.ErrInvalidRange)

	noContact := request("small", dinnerAt, 2)
	noContact.Contact = " "
	_, err = f.engine.Reserve(ctx, noContact)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestEngine_FindRestaurant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	r, err := f.engine.FindRestaurant(ctx, "grand hall")
	require.NoError(t, err)
	assert.Equal(t, "big", r.ID)

	r, err = f.engine.FindRestaurant(ctx, "the Tiny Table!")
	require.NoError(t, err)
	assert.Equal(t, "small", r.ID)

	_, err = f.engine.FindRestaurant(ctx, "nowhere")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEngine_AvailableSlots(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.engine.Reserve(ctx, request("small", dinnerAt, 3))
	require.NoError(t, err)

	day := domain.TimeRange{Start: time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC), End: time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC)}
	slots, err := f.engine.AvailableSlots(ctx, "small", day, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, slots)

	for _, s := range slots {
		if s.Slot.Overlaps(domain.TimeSlot{Start: dinnerAt, Duration: seating}) {
			assert.Equal(t, 1, s.Remaining, s.Slot.Start.String())
		} else {
			assert.Equal(t, 4, s.Remaining, s.Slot.Start.String())
		}
	}
}

// conflictingStore fails SaveReservation with a serialization conflict a fixed number of times
type conflictingStore struct {
	*memory.Store
	failures atomic.Int32
}

func (s *conflictingStore) SaveReservation(ctx context.Context, res *domain.Reservation) error {
	if s.failures.Add(-1) >= 0 {
		return storage.ErrConflict
	}
	return s.Store.SaveReservation(ctx, res)
}

func TestEngine_ConflictRetry(t *testing.T) {
	ctx := context.Background()

	t.Run("retried once", func(t *testing.T) {
		store := &conflictingStore{Store: memory.NewStore(testRestaurants())}
		store.failures.Store(1)
		engine := NewEngine(store, store, txmanager.Noop{}, logger.NewNop())

		_, err := engine.Reserve(ctx, request("small", dinnerAt, 2))
		assert.NoError(t, err)
	})

	t.Run("surfaced after retry", func(t *testing.T) {
		store := &conflictingStore{Store: memory.NewStore(testRestaurants())}
		store.failures.Store(2)
		engine := NewEngine(store, store, txmanager.Noop{}, logger.NewNop())

		_, err := engine.Reserve(ctx, request("small", dinnerAt, 2))
		assert.ErrorIs(t, err, domain.ErrConflict)
		assert.True(t, domain.IsRetryable(err))
	})
}

// slowStore blocks LoadReservations until the context is done
type slowStore struct {
	*memory.Store
}

func (s *slowStore) LoadReservations(ctx context.Context, _ string, _ domain.TimeRange) ([]*domain.Reservation, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestEngine_Timeout(t *testing.T) {
	store := &slowStore{Store: memory.NewStore(testRestaurants())}
	engine := NewEngine(store, store, txmanager.Noop{}, logger.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := engine.Reserve(ctx, request("small", dinnerAt, 2))
	assert.ErrorIs(t, err, domain.ErrTimeout)
}

// slowCatalog blocks LoadRestaurants until the context is done
type slowCatalog struct {
	*memory.Store
}

func (s *slowCatalog) LoadRestaurants(ctx context.Context) ([]*domain.Restaurant, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestEngine_CatalogTimeout(t *testing.T) {
	store := memory.NewStore(testRestaurants())
	engine := NewEngine(&slowCatalog{Store: store}, store, txmanager.Noop{}, logger.NewNop(),
		WithCatalogTimeout(20*time.Millisecond))

	// у запроса нет дедлайна, загрузку ограничивает сам движок
	_, err := engine.Restaurants(context.Background())
	assert.ErrorIs(t, err, domain.ErrTimeout)
}
