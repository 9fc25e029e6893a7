package conversation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-TableBooking/internal/domain"
	"github.com/m04kA/SMC-TableBooking/internal/infra/storage/memory"
	"github.com/m04kA/SMC-TableBooking/internal/infra/storage/session"
	"github.com/m04kA/SMC-TableBooking/internal/integrations/localnlp"
	"github.com/m04kA/SMC-TableBooking/internal/service/availability"
	"github.com/m04kA/SMC-TableBooking/internal/service/intents"
	"github.com/m04kA/SMC-TableBooking/internal/service/recommendations"
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

// Wed 2026-03-11 12:00 UTC
var (
	testNow    = time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC)
	tomorrowAt = func(h int) time.Time { return time.Date(2026, 3, 12, h, 0, 0, 0, time.UTC) }
	testHours  = domain.EveryDay(types.TimeString("11:00"), types.TimeString("23:00"))
)

func testRestaurants() []*domain.Restaurant {
	policy := domain.OperatingPolicy{SeatingMinutes: 90, Hours: testHours}
	return []*domain.Restaurant{
		{ID: "tiny-table", Name: "Tiny Table", Cuisine: "Italian", Capacity: 4, City: "Austin", Policy: policy},
		{ID: "bella-roma", Name: "Bella Roma", Cuisine: "Italian", Capacity: 8, City: "Austin", Policy: policy},
		{ID: "grand-hall", Name: "Grand Hall", Cuisine: "French", Capacity: 10, City: "Denver", Policy: policy},
	}
}

type fixture struct {
	uc       *UseCase
	engine   *availability.Engine
	sessions *session.MemoryStore
	clock    *fakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := &fakeClock{now: testNow}
	log := logger.NewNop()

	store := memory.NewStore(testRestaurants())
	engine := availability.NewEngine(store, store, txmanager.Noop{}, log,
		availability.WithTimeProvider(clock),
		availability.WithHoldTTL(5*time.Minute),
	)
	parser := intents.NewParser(localnlp.New(engine, log), log, intents.WithTimeProvider(clock))
	ranker := recommendations.NewRanker(engine, log)
	sessions := session.NewMemoryStore(0)

	return &fixture{
		uc:       NewUseCase(parser, engine, ranker, sessions, log, WithTimeProvider(clock)),
		engine:   engine,
		sessions: sessions,
		clock:    clock,
	}
}

func (f *fixture) say(t *testing.T, sessionID, utterance string) *Response {
	t.Helper()
	resp, err := f.uc.Execute(context.Background(), &Request{SessionID: sessionID, Utterance: utterance})
	require.NoError(t, err)
	require.False(t, resp.Failed, "turn failed: %s", resp.Text)
	return resp
}

func (f *fixture) reserve(t *testing.T, restaurantID string, start time.Time, party int) *domain.Reservation {
	t.Helper()
	res, err := f.engine.Reserve(context.Background(), &availability.ReserveRequest{
		RestaurantID: restaurantID,
		Slot:         domain.TimeSlot{RestaurantID: restaurantID, Start: start, Duration: 90 * time.Minute},
		PartySize:    party,
		Contact:      "someone-else",
	})
	require.NoError(t, err)
	return res
}

func TestConversation_ClarifyThenBook(t *testing.T) {
	f := newFixture(t)

	resp := f.say(t, "s1", "book a table for 2 tomorrow")
	assert.Equal(t, domain.StateAwaitingClarification, resp.State)
	require.NotNil(t, resp.Payload)
	assert.Equal(t, PayloadClarification, resp.Payload.Kind)
	assert.Equal(t, []domain.SlotName{domain.SlotRestaurantOrCuisine}, resp.Payload.Missing)

	resp = f.say(t, "s1", "Tiny Table")
	assert.Equal(t, domain.StateAwaitingConfirmation, resp.State)
	require.NotNil(t, resp.Payload.Confirmation)
	prompt := resp.Payload.Confirmation
	assert.Equal(t, "tiny-table", prompt.RestaurantID)
	assert.Equal(t, 2, prompt.PartySize)
	// flexible window: first slot after opening
	assert.Equal(t, tomorrowAt(11), prompt.Start)
	require.NotNil(t, prompt.HoldExpiresAt)

	// hold already counts against capacity
	avail, err := f.engine.CheckAvailability(context.Background(), "tiny-table",
		domain.TimeSlot{RestaurantID: "tiny-table", Start: tomorrowAt(11), Duration: 90 * time.Minute}, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, avail.RemainingCapacity)

	resp = f.say(t, "s1", "yes")
	assert.Equal(t, domain.StateComplete, resp.State)
	require.NotNil(t, resp.Payload.Receipt)
	receipt := resp.Payload.Receipt
	assert.Equal(t, domain.StatusConfirmed, receipt.Status)
	assert.NotEmpty(t, receipt.ConfirmationCode)
	assert.Contains(t, resp.Text, receipt.ConfirmationCode)

	stored, err := f.sessions.Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.StateAwaitingIntent, stored.State)
	assert.Nil(t, stored.Pending)
	assert.Zero(t, stored.Slots.PartySize)
}

func TestConversation_ExpiredHoldFallsBackToNextCandidate(t *testing.T) {
	f := newFixture(t)

	resp := f.say(t, "s1", "book italian for 4 tomorrow at 7pm")
	require.Equal(t, domain.StateAwaitingConfirmation, resp.State)
	// more headroom ranks first
	assert.Equal(t, "bella-roma", resp.Payload.Confirmation.RestaurantID)
	assert.Equal(t, tomorrowAt(19), resp.Payload.Confirmation.Start)

	// hold lapses and someone else takes the whole room
	f.clock.Advance(6 * time.Minute)
	f.reserve(t, "bella-roma", tomorrowAt(19), 8)

	resp = f.say(t, "s1", "yes")
	assert.Equal(t, domain.StateAwaitingConfirmation, resp.State)
	assert.True(t, strings.HasPrefix(resp.Text, msgSlotTaken))
	assert.Equal(t, "tiny-table", resp.Payload.Confirmation.RestaurantID)

	resp = f.say(t, "s1", "yes please")
	assert.Equal(t, domain.StateComplete, resp.State)
	assert.Equal(t, "tiny-table", resp.Payload.Receipt.RestaurantID)
}

func TestConversation_ExpiredHoldStillFree(t *testing.T) {
	f := newFixture(t)

	resp := f.say(t, "s1", "book a table at Grand Hall for 3 tomorrow at 8pm")
	require.Equal(t, domain.StateAwaitingConfirmation, resp.State)

	f.clock.Advance(10 * time.Minute)

	resp = f.say(t, "s1", "confirm")
	assert.Equal(t, domain.StateComplete, resp.State)
	assert.Equal(t, domain.StatusConfirmed, resp.Payload.Receipt.Status)
	assert.Equal(t, tomorrowAt(20), resp.Payload.Receipt.Start)
}

func TestConversation_ExpiredHoldKeepsGuestDetails(t *testing.T) {
	f := newFixture(t)

	resp := f.say(t, "s1", "book Tiny Table for 2 tomorrow at 7pm, my name is Jane, email jane@example.com, window seat please")
	require.Equal(t, domain.StateAwaitingConfirmation, resp.State)

	stored, err := f.sessions.Get(context.Background(), "s1")
	require.NoError(t, err)
	require.NotNil(t, stored.Pending)
	assert.Equal(t, "Jane", stored.Pending.CustomerName)
	assert.Equal(t, "window seat", stored.Pending.SpecialRequests)

	// холд истек, подтверждение бронирует слот заново
	f.clock.Advance(10 * time.Minute)

	resp = f.say(t, "s1", "yes")
	require.Equal(t, domain.StateComplete, resp.State)
	require.NotNil(t, resp.Payload.Receipt)
	assert.NotEqual(t, stored.Pending.HoldID, resp.Payload.Receipt.ReservationID)

	res, err := f.engine.Lookup(context.Background(), resp.Payload.Receipt.ConfirmationCode)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, res.Status)
	assert.Equal(t, "Jane", res.CustomerName)
	assert.Equal(t, "window seat", res.SpecialRequests)
	assert.Equal(t, "jane@example.com", res.Contact)
}

func TestConversation_DeclineReleasesHold(t *testing.T) {
	f := newFixture(t)

	resp := f.say(t, "s1", "book a table at Grand Hall for 3 tomorrow at 8pm")
	require.Equal(t, domain.StateAwaitingConfirmation, resp.State)

	stored, err := f.sessions.Get(context.Background(), "s1")
	require.NoError(t, err)
	holdID := stored.Pending.HoldID

	resp = f.say(t, "s1", "no thanks")
	assert.Equal(t, domain.StateAwaitingIntent, resp.State)
	assert.Equal(t, msgDeclined, resp.Text)

	hold, err := f.engine.Lookup(context.Background(), holdID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, hold.Status)
	assert.Equal(t, domain.ReasonHoldDeclined, hold.CancelReason)
}

func TestConversation_ChangeWhileConfirming(t *testing.T) {
	f := newFixture(t)

	f.say(t, "s1", "book a table at Grand Hall for 3 tomorrow at 8pm")
	stored, err := f.sessions.Get(context.Background(), "s1")
	require.NoError(t, err)
	firstHold := stored.Pending.HoldID

	resp := f.say(t, "s1", "actually make it tomorrow at 9pm")
	assert.Equal(t, domain.StateAwaitingConfirmation, resp.State)
	assert.Equal(t, tomorrowAt(21), resp.Payload.Confirmation.Start)

	old, err := f.engine.Lookup(context.Background(), firstHold)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, old.Status)
}

func TestConversation_NamedRestaurantFullOffersAlternative(t *testing.T) {
	f := newFixture(t)

	// party of 6 never fits Tiny Table
	resp := f.say(t, "s1", "book a table at Tiny Table for 6 tomorrow at 7pm")
	assert.Equal(t, domain.StateAwaitingConfirmation, resp.State)
	assert.Equal(t, "bella-roma", resp.Payload.Confirmation.RestaurantID)
	assert.Contains(t, resp.Text, "Tiny Table has no table")
}

func TestConversation_NothingAvailableAsksForAnotherTime(t *testing.T) {
	f := newFixture(t)

	resp := f.say(t, "s1", "book a table at Grand Hall for 12 tomorrow at 7pm")
	assert.Equal(t, domain.StateAwaitingClarification, resp.State)
	assert.Equal(t, []domain.SlotName{domain.SlotTime}, resp.Payload.Missing)

	stored, err := f.sessions.Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.Nil(t, stored.Slots.Window)
	assert.Nil(t, stored.Pending)
	assert.Equal(t, 12, stored.Slots.PartySize)
}

func TestConversation_SearchThenSelect(t *testing.T) {
	f := newFixture(t)

	resp := f.say(t, "s1", "find italian restaurants")
	assert.Equal(t, domain.StateComplete, resp.State)
	require.Equal(t, PayloadRestaurants, resp.Payload.Kind)
	require.Len(t, resp.Payload.Restaurants, 2)
	assert.Equal(t, "bella-roma", resp.Payload.Restaurants[0].ID)
	assert.Equal(t, "tiny-table", resp.Payload.Restaurants[1].ID)
	assert.Contains(t, resp.Text, "1. Bella Roma")

	resp = f.say(t, "s1", "book the second one for 2 tomorrow at 7pm")
	assert.Equal(t, domain.StateAwaitingConfirmation, resp.State)
	assert.Equal(t, "tiny-table", resp.Payload.Confirmation.RestaurantID)
}

func TestConversation_SearchNoExactMatch(t *testing.T) {
	f := newFixture(t)

	resp := f.say(t, "s1", "recommend some thai food")
	assert.Equal(t, domain.StateComplete, resp.State)
	assert.True(t, resp.Payload.NoExactMatch)
	assert.Len(t, resp.Payload.Restaurants, 3)
}

func TestConversation_Cancel(t *testing.T) {
	f := newFixture(t)
	res := f.reserve(t, "grand-hall", tomorrowAt(19), 2)

	resp := f.say(t, "s1", "please cancel "+res.ConfirmationCode)
	assert.Equal(t, domain.StateAwaitingConfirmation, resp.State)
	assert.Equal(t, res.ID, resp.Payload.Confirmation.ReservationID)
	assert.Contains(t, resp.Text, res.ConfirmationCode)

	resp = f.say(t, "s1", "yes")
	assert.Equal(t, domain.StateComplete, resp.State)
	assert.Equal(t, domain.StatusCancelled, resp.Payload.Receipt.Status)

	got, err := f.engine.Lookup(context.Background(), res.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReasonGuestCancel, got.CancelReason)

	// already cancelled
	resp = f.say(t, "s1", "cancel "+res.ConfirmationCode)
	assert.Equal(t, domain.StateComplete, resp.State)
	assert.Contains(t, resp.Text, "already cancelled")
}

func TestConversation_CancelKeptOnNo(t *testing.T) {
	f := newFixture(t)
	res := f.reserve(t, "grand-hall", tomorrowAt(19), 2)

	f.say(t, "s1", "cancel "+res.ConfirmationCode)
	resp := f.say(t, "s1", "no")
	assert.Equal(t, msgKept, resp.Text)

	got, err := f.engine.Lookup(context.Background(), res.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, got.Status)
}

func TestConversation_UnknownReservation(t *testing.T) {
	f := newFixture(t)

	resp := f.say(t, "s1", "cancel ZZZZ9999")
	assert.Equal(t, domain.StateAwaitingClarification, resp.State)
	assert.Equal(t, []domain.SlotName{domain.SlotReservation}, resp.Payload.Missing)
}

func TestConversation_Modify(t *testing.T) {
	f := newFixture(t)
	res := f.reserve(t, "grand-hall", tomorrowAt(19), 2)

	resp := f.say(t, "s1", "reschedule "+res.ConfirmationCode+" to tomorrow at 9pm")
	require.Equal(t, domain.StateAwaitingConfirmation, resp.State)
	prompt := resp.Payload.Confirmation
	assert.Equal(t, domain.IntentModify, prompt.Action)
	assert.Equal(t, tomorrowAt(21), prompt.Start)
	assert.Equal(t, 2, prompt.PartySize)
	assert.Equal(t, res.ID, prompt.ReservationID)

	resp = f.say(t, "s1", "yes")
	assert.Equal(t, domain.StateComplete, resp.State)
	receipt := resp.Payload.Receipt
	assert.NotEqual(t, res.ID, receipt.ReservationID)
	assert.Equal(t, domain.StatusConfirmed, receipt.Status)

	old, err := f.engine.Lookup(context.Background(), res.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, old.Status)
	assert.Equal(t, domain.ReasonRescheduled, old.CancelReason)

	moved, err := f.engine.Lookup(context.Background(), receipt.ReservationID)
	require.NoError(t, err)
	assert.Equal(t, "someone-else", moved.Contact)
}

func TestConversation_NoStartsOverDuringClarification(t *testing.T) {
	f := newFixture(t)

	f.say(t, "s1", "book a table for 2 tomorrow")
	resp := f.say(t, "s1", "no")
	assert.Equal(t, domain.StateAwaitingIntent, resp.State)

	stored, err := f.sessions.Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.Zero(t, stored.Slots.PartySize)
}

func TestConversation_NewSessionID(t *testing.T) {
	f := newFixture(t)

	resp := f.say(t, "", "hello there")
	assert.NotEmpty(t, resp.SessionID)
	assert.Equal(t, domain.StateAwaitingClarification, resp.State)
	assert.Equal(t, []domain.SlotName{domain.SlotIntent}, resp.Payload.Missing)
}

func TestConversation_InvalidInput(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.Execute(context.Background(), &Request{SessionID: "s1", Utterance: "   "})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.uc.Execute(context.Background(), &Request{SessionID: "s1", Utterance: strings.Repeat("a", maxUtteranceLength+1)})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

type failingParser struct{ err error }

func (p failingParser) Parse(context.Context, string, *domain.SessionState) (*intents.Result, error) {
	return nil, p.err
}

type countingMetrics struct {
	mu    sync.Mutex
	turns map[string]int
}

func (m *countingMetrics) RecordTurn(state string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.turns == nil {
		m.turns = map[string]int{}
	}
	m.turns[state]++
}

func TestConversation_FailedTurnKeepsSession(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		text      string
		retryable bool
	}{
		{"timeout", domain.ErrTimeout, msgTimeout, true},
		{"unparseable", domain.ErrUnparseableInput, msgUnparseable, true},
		{"fatal", errors.New("store unreachable"), msgApology, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.say(t, "s1", "book a table for 2 tomorrow")

			metrics := &countingMetrics{}
			uc := NewUseCase(failingParser{err: tt.err}, f.engine, recommendations.NewRanker(f.engine, logger.NewNop()),
				f.sessions, logger.NewNop(), WithTimeProvider(f.clock), WithMetrics(metrics))

			resp, err := uc.Execute(context.Background(), &Request{SessionID: "s1", Utterance: "italian"})
			require.NoError(t, err)
			assert.True(t, resp.Failed)
			assert.Equal(t, tt.retryable, resp.Retryable)
			assert.Equal(t, tt.text, resp.Text)
			assert.Equal(t, domain.StateAwaitingClarification, resp.State)
			assert.Equal(t, 1, metrics.turns["failed"])

			stored, err := f.sessions.Get(context.Background(), "s1")
			require.NoError(t, err)
			assert.Equal(t, domain.StateAwaitingClarification, stored.State)
			assert.Equal(t, 2, stored.Slots.PartySize)
		})
	}
}

func TestConversation_ConcurrentSessionsNeverOverbook(t *testing.T) {
	f := newFixture(t)

	// twelve guests compete for Tiny Table's four seats at the same time
	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := "s" + string(rune('a'+i))
			resp, err := f.uc.Execute(context.Background(), &Request{SessionID: id, Utterance: "book Tiny Table for 2 tomorrow at 7pm"})
			if err != nil || resp.State != domain.StateAwaitingConfirmation {
				return
			}
			_, _ = f.uc.Execute(context.Background(), &Request{SessionID: id, Utterance: "yes"})
		}(i)
	}
	wg.Wait()

	avail, err := f.engine.CheckAvailability(context.Background(), "tiny-table",
		domain.TimeSlot{RestaurantID: "tiny-table", Start: tomorrowAt(19), Duration: 90 * time.Minute}, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, avail.RemainingCapacity)
}

func TestSessionLocks(t *testing.T) {
	locks := newSessionLocks(4)

	unlock, err := locks.lock(context.Background(), "s1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = locks.lock(ctx, "s1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	unlock()

	unlock, err = locks.lock(context.Background(), "s1")
	require.NoError(t, err)
	unlock()
}
