package create_reservation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/m04kA/SMC-TableBooking/internal/domain"
	"github.com/m04kA/SMC-TableBooking/internal/service/availability"
	"github.com/m04kA/SMC-TableBooking/internal/service/timeslots"
)

// UseCase use case для прямого бронирования столика без диалога
type UseCase struct {
	engine        AvailabilityEngine
	granularity   time.Duration
	lookaheadDays int
	storeTimeout  time.Duration
	timeProvider  TimeProvider
	logger        Logger
}

const defaultStoreTimeout = 5 * time.Second

// Option настройка UseCase
type Option func(*UseCase)

// WithStoreTimeout ограничивает обращения к движку в одном запросе
func WithStoreTimeout(d time.Duration) Option {
	return func(uc *UseCase) {
		if d > 0 {
			uc.storeTimeout = d
		}
	}
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	engine AvailabilityEngine,
	granularity time.Duration,
	lookaheadDays int,
	logger Logger,
	opts ...Option,
) *UseCase {
	if granularity <= 0 {
		granularity = domain.DefaultSlotGranularity
	}
	uc := &UseCase{
		engine:        engine,
		granularity:   granularity,
		lookaheadDays: lookaheadDays,
		storeTimeout:  defaultStoreTimeout,
		timeProvider:  &RealTimeProvider{},
		logger:        logger,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Execute выполняет use case создания бронирования
// Проверка вместимости и запись выполняются атомарно внутри движка доступности
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("CreateReservation: restaurant=%s, date=%s, time=%s, party=%d",
		req.RestaurantID, req.Date.Format(domain.DateFormat), req.StartTime, req.PartySize)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CreateReservation: validation failed: %v", err)
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, uc.storeTimeout)
	defer cancel()

	// 2. Получаем ресторан
	restaurant, err := uc.engine.Restaurant(ctx, req.RestaurantID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			uc.logger.Warn("CreateReservation: restaurant id=%s not found", req.RestaurantID)
			return nil, ErrRestaurantNotFound
		}
		uc.logger.Error("CreateReservation: failed to get restaurant id=%s: %v", req.RestaurantID, err)
		return nil, fmt.Errorf("%w: failed to get restaurant: %w", ErrInternal, err)
	}

	// 3. Дата и время в часовом поясе ресторана
	loc := restaurant.Policy.Location()
	now := uc.timeProvider.Now().In(loc)
	y, m, d := req.Date.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, loc)

	if err := validateDate(day, now, uc.lookaheadDays); err != nil {
		uc.logger.Warn("CreateReservation: date validation failed: %v", err)
		return nil, err
	}

	if _, open := restaurant.Policy.HoursFor(day.Weekday()); !open {
		uc.logger.Warn("CreateReservation: restaurant %s is closed on %s", restaurant.ID, day.Format(domain.DateFormat))
		return nil, ErrRestaurantClosed
	}

	// 4. Слот должен совпадать с сеткой ресторана и еще не начаться
	slot := domain.TimeSlot{
		RestaurantID: restaurant.ID,
		Start:        req.StartTime.On(day),
		Duration:     restaurant.Policy.SeatingDuration(),
	}
	if !timeslots.Contains(restaurant, slot, uc.granularity) {
		uc.logger.Warn("CreateReservation: %s is not a slot of restaurant %s", slot.Start.Format(time.RFC3339), restaurant.ID)
		return nil, ErrInvalidTimeSlot
	}
	if !slot.Start.After(now) {
		return nil, ErrTooLateToBook
	}

	// 5. Бронируем
	res, err := uc.engine.Reserve(ctx, &availability.ReserveRequest{
		RestaurantID:    restaurant.ID,
		Slot:            slot,
		PartySize:       req.PartySize,
		Contact:         strings.TrimSpace(req.Contact),
		CustomerName:    strings.TrimSpace(req.CustomerName),
		SpecialRequests: strings.TrimSpace(req.SpecialRequests),
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrCapacityExceeded):
			uc.logger.Warn("CreateReservation: slot not available: %v", err)
			return nil, fmt.Errorf("%w: %w", ErrSlotNotAvailable, err)
		case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrTimeout):
			uc.logger.Warn("CreateReservation: retryable failure: %v", err)
			return nil, fmt.Errorf("%w: %w", ErrConflict, err)
		case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrInvalidRange):
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		uc.logger.Error("CreateReservation: failed to reserve: %v", err)
		return nil, fmt.Errorf("%w: failed to reserve: %w", ErrInternal, err)
	}

	uc.logger.Info("CreateReservation: successfully created reservation id=%s", res.ID)

	return &Response{
		ID:               res.ID,
		ConfirmationCode: res.ConfirmationCode,
		RestaurantID:     res.RestaurantID,
		RestaurantName:   restaurant.Name,
		Start:            res.Slot.Start,
		End:              res.Slot.End(),
		PartySize:        res.PartySize,
		Status:           string(res.Status),
		CustomerName:     res.CustomerName,
		SpecialRequests:  res.SpecialRequests,
		CreatedAt:        res.CreatedAt,
	}, nil
}
