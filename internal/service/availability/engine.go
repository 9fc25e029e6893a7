package availability

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/m04kA/SMC-TableBooking/internal/domain"
	"github.com/m04kA/SMC-TableBooking/internal/infra/storage"
	"github.com/m04kA/SMC-TableBooking/internal/service/timeslots"
	"github.com/m04kA/SMC-TableBooking/pkg/event"
)

const (
	codeAlphabet      = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeLength        = 8
	expireBatchSize   = 100
	defaultCatalogTTL = time.Minute

	defaultCatalogTimeout = 5 * time.Second
)

// Engine единственная точка изменения бронирований
// Все изменения для пересекающихся окон одного ресторана сериализуются интервальной блокировкой
// и выполняются в сериализуемой транзакции хранилища
type Engine struct {
	reservations ReservationRepository
	txManager    TransactionManager
	catalog      *catalog
	locks        *intervalLocker

	holdTTL      time.Duration
	scheduler    HoldScheduler
	publisher    EventPublisher
	metrics      MetricsRecorder
	timeProvider TimeProvider
	logger       Logger
	newCode      func() (string, error)
}

// Option настройка Engine
type Option func(*Engine)

func WithHoldTTL(ttl time.Duration) Option {
	return func(e *Engine) {
		if ttl > 0 {
			e.holdTTL = ttl
		}
	}
}

func WithHoldScheduler(s HoldScheduler) Option {
	return func(e *Engine) { e.scheduler = s }
}

func WithEventPublisher(p EventPublisher) Option {
	return func(e *Engine) { e.publisher = p }
}

func WithMetrics(m MetricsRecorder) Option {
	return func(e *Engine) { e.metrics = m }
}

func WithTimeProvider(tp TimeProvider) Option {
	return func(e *Engine) { e.timeProvider = tp }
}

// WithCatalogTTL как часто перечитывать каталог ресторанов; 0 - загрузить один раз
func WithCatalogTTL(ttl time.Duration) Option {
	return func(e *Engine) { e.catalog.ttl = ttl }
}

// WithCatalogTimeout ограничивает одну загрузку каталога из хранилища
func WithCatalogTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.catalog.timeout = d
		}
	}
}

// NewEngine создает движок доступности
func NewEngine(
	restaurants RestaurantRepository,
	reservations ReservationRepository,
	txManager TransactionManager,
	logger Logger,
	opts ...Option,
) *Engine {
	e := &Engine{
		reservations: reservations,
		txManager:    txManager,
		locks:        newIntervalLocker(),
		holdTTL:      domain.DefaultHoldTTL,
		scheduler:    noopScheduler{},
		publisher:    noopPublisher{},
		metrics:      noopMetrics{},
		timeProvider: &RealTimeProvider{},
		logger:       logger,
		newCode: func() (string, error) {
			return gonanoid.Generate(codeAlphabet, codeLength)
		},
	}
	e.catalog = newCatalog(restaurants, defaultCatalogTTL, func() time.Time { return e.timeProvider.Now() })

	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Restaurants возвращает каталог, отсортированный по ID
// Возвращаемые рестораны нельзя изменять
func (e *Engine) Restaurants(ctx context.Context) ([]*domain.Restaurant, error) {
	v, err := e.catalog.view(ctx)
	if err != nil {
		return nil, e.storeError("Restaurants", err)
	}
	return v.ordered, nil
}

// Restaurant возвращает ресторан по ID
func (e *Engine) Restaurant(ctx context.Context, id string) (*domain.Restaurant, error) {
	v, err := e.catalog.view(ctx)
	if err != nil {
		return nil, e.storeError("Restaurant", err)
	}
	r, ok := v.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: restaurant %q", domain.ErrNotFound, id)
	}
	return r, nil
}

// FindRestaurant ищет ресторан по названию без учета регистра и пунктуации
func (e *Engine) FindRestaurant(ctx context.Context, name string) (*domain.Restaurant, error) {
	v, err := e.catalog.view(ctx)
	if err != nil {
		return nil, e.storeError("FindRestaurant", err)
	}
	r, ok := v.find(name)
	if !ok {
		return nil, fmt.Errorf("%w: restaurant named %q", domain.ErrNotFound, name)
	}
	return r, nil
}

// CheckAvailability только читает: сколько мест свободно в слоте
func (e *Engine) CheckAvailability(ctx context.Context, restaurantID string, slot domain.TimeSlot, partySize int) (*domain.Availability, error) {
	if err := validateSlot(slot, partySize); err != nil {
		return nil, err
	}

	r, err := e.Restaurant(ctx, restaurantID)
	if err != nil {
		return nil, err
	}

	existing, err := e.reservations.LoadReservations(ctx, r.ID, slot.Range())
	if err != nil {
		return nil, e.storeError("CheckAvailability", err)
	}

	remaining := remainingCapacity(r.Capacity, slot, existing, e.timeProvider.Now())
	return &domain.Availability{
		Available:         remaining >= partySize,
		RemainingCapacity: remaining,
	}, nil
}

// AvailableSlots возвращает слоты окна с количеством свободных мест
// Бронирования загружаются одним запросом на все окно
func (e *Engine) AvailableSlots(ctx context.Context, restaurantID string, window domain.TimeRange, granularity time.Duration) ([]domain.AvailableSlot, error) {
	r, err := e.Restaurant(ctx, restaurantID)
	if err != nil {
		return nil, err
	}

	seq, err := timeslots.SlotsFor(r, window, granularity)
	if err != nil {
		return nil, err
	}

	// Слот, начавшийся в конце окна, может пересекаться с бронями после него
	loadWindow := domain.TimeRange{Start: window.Start, End: window.End.Add(r.Policy.SeatingDuration())}
	existing, err := e.reservations.LoadReservations(ctx, r.ID, loadWindow)
	if err != nil {
		return nil, e.storeError("AvailableSlots", err)
	}

	now := e.timeProvider.Now()
	result := make([]domain.AvailableSlot, 0)
	for slot := range seq {
		result = append(result, domain.AvailableSlot{
			Slot:      slot,
			Remaining: remainingCapacity(r.Capacity, slot, existing, now),
			Capacity:  r.Capacity,
		})
	}
	return result, nil
}

// Reserve атомарно проверяет вместимость и создает подтвержденное бронирование
func (e *Engine) Reserve(ctx context.Context, req *ReserveRequest) (*domain.Reservation, error) {
	return e.place(ctx, "Reserve", req, domain.StatusConfirmed)
}

// Hold создает временный холд (pending), который сразу занимает места
// Если холд не подтвердить за holdTTL, места освобождаются
func (e *Engine) Hold(ctx context.Context, req *ReserveRequest) (*domain.Reservation, error) {
	res, err := e.place(ctx, "Hold", req, domain.StatusPending)
	if err != nil {
		return nil, err
	}

	if err := e.scheduler.ScheduleExpiry(ctx, res.ID, *res.HoldExpiresAt); err != nil {
		// Холд все равно истечет: он не учитывается после срока, а sweeper его отменит
		e.logger.Warn("Hold: failed to schedule expiry of %s: %v", res.ID, err)
	}
	return res, nil
}

func (e *Engine) place(ctx context.Context, op string, req *ReserveRequest, status domain.ReservationStatus) (*domain.Reservation, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: %s - empty request", domain.ErrInvalidInput, op)
	}
	if err := validateSlot(req.Slot, req.PartySize); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Contact) == "" {
		return nil, fmt.Errorf("%w: %s - contact is required", domain.ErrInvalidInput, op)
	}

	r, err := e.Restaurant(ctx, req.RestaurantID)
	if err != nil {
		return nil, err
	}
	slot := req.Slot
	slot.RestaurantID = r.ID

	unlock, err := e.locks.Lock(ctx, r.ID, slot.Range())
	if err != nil {
		return nil, e.storeError(op, err)
	}
	defer unlock()

	var created *domain.Reservation
	attempt := func() error {
		return e.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
			existing, err := e.reservations.LoadReservations(txCtx, r.ID, slot.Range())
			if err != nil {
				return err
			}

			now := e.timeProvider.Now()
			remaining := remainingCapacity(r.Capacity, slot, existing, now)
			if remaining < req.PartySize {
				return &domain.CapacityExceededError{
					RestaurantID: r.ID,
					Slot:         slot,
					Requested:    req.PartySize,
					Remaining:    remaining,
				}
			}

			res, err := e.newReservation(req, slot, status, now)
			if err != nil {
				return err
			}
			if err := e.reservations.SaveReservation(txCtx, res); err != nil {
				return err
			}
			created = res
			return nil
		})
	}

	err = attempt()
	if err != nil && (storage.IsConflict(err) || storage.IsDuplicate(err)) {
		e.logger.Warn("%s: restaurant=%s conflict, retrying once: %v", op, r.ID, err)
		err = attempt()
	}

	if err != nil {
		switch {
		case errors.Is(err, domain.ErrCapacityExceeded):
			e.metrics.RecordReservation(outcomeCapacityExceeded)
			e.logger.Info("%s: restaurant=%s start=%s party=%d refused: %v",
				op, r.ID, slot.Start.Format(time.RFC3339), req.PartySize, err)
			return nil, err
		case storage.IsConflict(err) || storage.IsDuplicate(err):
			e.metrics.RecordReservation(outcomeConflict)
		default:
			e.metrics.RecordReservation(outcomeError)
		}
		e.logger.Error("%s: restaurant=%s failed: %v", op, r.ID, err)
		return nil, e.storeError(op, err)
	}

	if status == domain.StatusPending {
		e.metrics.RecordReservation(outcomeHeld)
		e.publish(ctx, event.EventReservationHeld, created)
	} else {
		e.metrics.RecordReservation(outcomeConfirmed)
		e.publish(ctx, event.EventReservationConfirmed, created)
	}

	e.logger.Info("%s: reservation id=%s code=%s restaurant=%s start=%s party=%d status=%s",
		op, created.ID, created.ConfirmationCode, r.ID, slot.Start.Format(time.RFC3339), created.PartySize, created.Status)

	return created, nil
}

// Confirm переводит холд в подтвержденное бронирование
// Истекший холд отменяется и возвращается domain.ErrHoldExpired; повторное подтверждение ничего не меняет
func (e *Engine) Confirm(ctx context.Context, id string) (*domain.Reservation, error) {
	res, err := e.get(ctx, "Confirm", id)
	if err != nil {
		return nil, err
	}

	switch {
	case res.Status == domain.StatusConfirmed:
		return res, nil
	case res.IsCancelled() && res.CancelReason == domain.ReasonHoldExpired:
		return nil, fmt.Errorf("%w: reservation %s", domain.ErrHoldExpired, id)
	case res.IsCancelled():
		return nil, fmt.Errorf("%w: reservation %s is cancelled", domain.ErrInvalidTransition, id)
	}

	unlock, err := e.locks.Lock(ctx, res.RestaurantID, res.Slot.Range())
	if err != nil {
		return nil, e.storeError("Confirm", err)
	}
	defer unlock()

	var (
		result  *domain.Reservation
		expired bool
	)
	err = e.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		cur, err := e.reservations.GetReservation(txCtx, id)
		if err != nil {
			return err
		}

		now := e.timeProvider.Now()
		switch {
		case cur.Status == domain.StatusConfirmed:
			result = cur
			return nil
		case cur.HoldExpired(now):
			// Снимаем холд сразу, чтобы места стали видны как свободные
			if err := e.reservations.UpdateReservationStatus(txCtx, id, domain.StatusCancelled, domain.ReasonHoldExpired); err != nil {
				return err
			}
			cur.Status = domain.StatusCancelled
			cur.CancelReason = domain.ReasonHoldExpired
			result, expired = cur, true
			return nil
		case !cur.CanBeConfirmed(now):
			return fmt.Errorf("%w: reservation %s is %s", domain.ErrInvalidTransition, id, cur.Status)
		}

		if err := e.reservations.UpdateReservationStatus(txCtx, id, domain.StatusConfirmed, ""); err != nil {
			return err
		}
		cur.Status = domain.StatusConfirmed
		cur.HoldExpiresAt = nil
		cur.UpdatedAt = now
		result = cur
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) {
			return nil, err
		}
		e.logger.Error("Confirm: reservation id=%s failed: %v", id, err)
		return nil, e.storeError("Confirm", err)
	}

	if expired {
		e.metrics.RecordHoldsExpired(1)
		e.publish(ctx, event.EventReservationCancelled, result)
		e.logger.Info("Confirm: hold id=%s expired before confirmation", id)
		return nil, fmt.Errorf("%w: reservation %s", domain.ErrHoldExpired, id)
	}

	e.metrics.RecordReservation(outcomeConfirmed)
	e.publish(ctx, event.EventReservationConfirmed, result)
	e.logger.Info("Confirm: reservation id=%s confirmed", id)
	return result, nil
}

// Cancel отменяет бронирование; повторная отмена возвращает то же бронирование без ошибки
func (e *Engine) Cancel(ctx context.Context, id string) (*domain.Reservation, error) {
	return e.CancelWithReason(ctx, id, domain.ReasonGuestCancel)
}

// CancelWithReason как Cancel, но с указанной причиной
func (e *Engine) CancelWithReason(ctx context.Context, id, reason string) (*domain.Reservation, error) {
	res, err := e.get(ctx, "Cancel", id)
	if err != nil {
		return nil, err
	}
	if res.IsCancelled() {
		return res, nil
	}

	result, changed, err := e.transitionToCancelled(ctx, res, reason, func(*domain.Reservation, time.Time) bool { return true })
	if err != nil {
		e.logger.Error("Cancel: reservation id=%s failed: %v", id, err)
		return nil, e.storeError("Cancel", err)
	}
	if changed {
		e.publish(ctx, event.EventReservationCancelled, result)
		e.logger.Info("Cancel: reservation id=%s cancelled (%s)", id, reason)
	}
	return result, nil
}

// ExpireHold отменяет один холд, если его срок истек; true - если холд был снят сейчас
func (e *Engine) ExpireHold(ctx context.Context, id string) (bool, error) {
	res, err := e.get(ctx, "ExpireHold", id)
	if err != nil {
		return false, err
	}
	if !res.HoldExpired(e.timeProvider.Now()) {
		return false, nil
	}

	result, changed, err := e.transitionToCancelled(ctx, res, domain.ReasonHoldExpired, func(cur *domain.Reservation, now time.Time) bool {
		return cur.HoldExpired(now)
	})
	if err != nil {
		e.logger.Error("ExpireHold: reservation id=%s failed: %v", id, err)
		return false, e.storeError("ExpireHold", err)
	}
	if changed {
		e.metrics.RecordHoldsExpired(1)
		e.publish(ctx, event.EventReservationCancelled, result)
	}
	return changed, nil
}

// ExpireHolds снимает все холды, истекшие к моменту now; возвращает количество снятых
func (e *Engine) ExpireHolds(ctx context.Context, now time.Time) (int, error) {
	expired, err := e.reservations.ListExpiredHolds(ctx, now, expireBatchSize)
	if err != nil {
		return 0, e.storeError("ExpireHolds", err)
	}

	released := 0
	for _, res := range expired {
		ok, err := e.ExpireHold(ctx, res.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return released, err
		}
		if ok {
			released++
		}
	}

	if released > 0 {
		e.logger.Info("ExpireHolds: released %d expired holds", released)
	}
	return released, nil
}

// Lookup находит бронирование по ID или коду подтверждения
func (e *Engine) Lookup(ctx context.Context, ref string) (*domain.Reservation, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("%w: empty reservation reference", domain.ErrInvalidInput)
	}

	if _, err := uuid.Parse(ref); err == nil {
		return e.get(ctx, "Lookup", ref)
	}
	if len(ref) > domain.MaxConfirmationCodeLength {
		return nil, fmt.Errorf("%w: reservation %q", domain.ErrNotFound, ref)
	}

	res, err := e.reservations.GetReservationByCode(ctx, strings.ToUpper(ref))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: reservation %q", domain.ErrNotFound, ref)
		}
		return nil, e.storeError("Lookup", err)
	}
	return res, nil
}

// transitionToCancelled отменяет бронирование под блокировкой, если should подтверждает это по свежему состоянию
func (e *Engine) transitionToCancelled(
	ctx context.Context,
	res *domain.Reservation,
	reason string,
	should func(cur *domain.Reservation, now time.Time) bool,
) (*domain.Reservation, bool, error) {
	unlock, err := e.locks.Lock(ctx, res.RestaurantID, res.Slot.Range())
	if err != nil {
		return nil, false, err
	}
	defer unlock()

	var (
		result  *domain.Reservation
		changed bool
	)
	err = e.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		cur, err := e.reservations.GetReservation(txCtx, res.ID)
		if err != nil {
			return err
		}

		now := e.timeProvider.Now()
		if cur.IsCancelled() || !should(cur, now) {
			result = cur
			return nil
		}

		if err := e.reservations.UpdateReservationStatus(txCtx, cur.ID, domain.StatusCancelled, reason); err != nil {
			return err
		}
		cur.Status = domain.StatusCancelled
		cur.CancelReason = reason
		cur.CancelledAt = &now
		cur.UpdatedAt = now
		result, changed = cur, true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return result, changed, nil
}

func (e *Engine) get(ctx context.Context, op, id string) (*domain.Reservation, error) {
	res, err := e.reservations.GetReservation(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: reservation %q", domain.ErrNotFound, id)
		}
		return nil, e.storeError(op, err)
	}
	return res, nil
}

func (e *Engine) newReservation(req *ReserveRequest, slot domain.TimeSlot, status domain.ReservationStatus, now time.Time) (*domain.Reservation, error) {
	code, err := e.newCode()
	if err != nil {
		return nil, fmt.Errorf("generate confirmation code: %w", err)
	}

	res := &domain.Reservation{
		ID:               uuid.NewString(),
		ConfirmationCode: code,
		RestaurantID:     slot.RestaurantID,
		Contact:          strings.TrimSpace(req.Contact),
		CustomerName:     strings.TrimSpace(req.CustomerName),
		SpecialRequests:  strings.TrimSpace(req.SpecialRequests),
		Slot:             slot,
		PartySize:        req.PartySize,
		Status:           status,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if status == domain.StatusPending {
		expires := now.Add(e.holdTTL)
		res.HoldExpiresAt = &expires
	}
	return res, nil
}

func (e *Engine) publish(ctx context.Context, eventType string, res *domain.Reservation) {
	payload, err := json.Marshal(event.ReservationEvent{
		EventType:        eventType,
		ReservationID:    res.ID,
		ConfirmationCode: res.ConfirmationCode,
		RestaurantID:     res.RestaurantID,
		PartySize:        res.PartySize,
		SlotStart:        res.Slot.Start,
		SlotEnd:          res.Slot.End(),
		Status:           string(res.Status),
		Reason:           res.CancelReason,
		OccurredAt:       e.timeProvider.Now(),
	})
	if err != nil {
		e.logger.Error("publish: encode %s for %s: %v", eventType, res.ID, err)
		return
	}
	if err := e.publisher.Publish(ctx, event.ReservationTopic, payload); err != nil {
		e.logger.Warn("publish: %s for %s: %v", eventType, res.ID, err)
	}
}

// storeError приводит ошибки хранилища и контекста к доменным
func (e *Engine) storeError(op string, err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %s: %v", domain.ErrTimeout, op, err)
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("%s: %w", op, err)
	case storage.IsConflict(err) || storage.IsDuplicate(err):
		return fmt.Errorf("%w: %s: %v", domain.ErrConflict, op, err)
	case errors.Is(err, storage.ErrNotFound):
		return fmt.Errorf("%w: %s", domain.ErrNotFound, op)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

// remainingCapacity вместимость минус сумма гостей пересекающихся подтвержденных и живых pending бронирований
func remainingCapacity(capacity int, slot domain.TimeSlot, reservations []*domain.Reservation, now time.Time) int {
	used := 0
	for _, r := range reservations {
		if r.CountsAt(now) && r.Slot.Overlaps(slot) {
			used += r.PartySize
		}
	}

	remaining := capacity - used
	if remaining < 0 {
		return 0
	}
	return remaining
}

func validateSlot(slot domain.TimeSlot, partySize int) error {
	if partySize < domain.MinPartySize || partySize > domain.MaxPartySize {
		return fmt.Errorf("%w: party size must be between %d and %d, got %d",
			domain.ErrInvalidInput, domain.MinPartySize, domain.MaxPartySize, partySize)
	}
	if slot.Start.IsZero() || slot.Duration <= 0 {
		return fmt.Errorf("%w: slot must have a start and a positive duration", domain.ErrInvalidRange)
	}
	return nil
}
