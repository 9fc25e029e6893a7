package get_available_slots

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-TableBooking/internal/domain"
)

// UseCase use case для получения свободных слотов ресторана на день
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

// Execute выполняет use case получения доступных слотов
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("GetAvailableSlots: restaurant=%s, date=%s, party=%d",
		req.RestaurantID, req.Date.Format(domain.DateFormat), req.PartySize)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("GetAvailableSlots: validation failed: %v", err)
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, uc.storeTimeout)
	defer cancel()

	// 2. Получаем ресторан
	restaurant, err := uc.engine.Restaurant(ctx, req.RestaurantID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			uc.logger.Warn("GetAvailableSlots: restaurant id=%s not found", req.RestaurantID)
			return nil, ErrRestaurantNotFound
		}
		uc.logger.Error("GetAvailableSlots: failed to get restaurant id=%s: %v", req.RestaurantID, err)
		return nil, fmt.Errorf("%w: failed to get restaurant: %w", ErrInternal, err)
	}

	// 3. День в часовом поясе ресторана
	loc := restaurant.Policy.Location()
	now := uc.timeProvider.Now().In(loc)
	y, m, d := req.Date.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, loc)

	if err := validateDate(day, now, uc.lookaheadDays); err != nil {
		uc.logger.Warn("GetAvailableSlots: date validation failed: %v", err)
		return nil, err
	}

	response := &Response{
		Date:           day,
		RestaurantID:   restaurant.ID,
		RestaurantName: restaurant.Name,
		Timezone:       loc.String(),
		Slots:          []Slot{},
	}

	// 4. Слоты дня с количеством свободных мест; уже начавшиеся не показываем
	window := domain.TimeRange{Start: day, End: day.AddDate(0, 0, 1)}
	if window.Start.Before(now) {
		window.Start = now
	}

	available, err := uc.engine.AvailableSlots(ctx, restaurant.ID, window, uc.granularity)
	if err != nil {
		uc.logger.Error("GetAvailableSlots: failed to get slots: %v", err)
		return nil, fmt.Errorf("%w: failed to get slots: %w", ErrInternal, err)
	}

	for _, s := range available {
		response.Slots = append(response.Slots, Slot{
			Start:          s.Slot.Start,
			End:            s.Slot.End(),
			AvailableSeats: s.Remaining,
			TotalSeats:     s.Capacity,
			Fits:           s.Fits(max(req.PartySize, 1)),
			OccupancyRate:  s.OccupancyRate(),
		})
	}

	uc.logger.Info("GetAvailableSlots: generated %d slots for restaurant=%s, date=%s",
		len(response.Slots), restaurant.ID, day.Format(domain.DateFormat))
	return response, nil
}
