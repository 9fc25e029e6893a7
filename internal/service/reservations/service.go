package reservations

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/m04kA/SMC-TableBooking/internal/domain"
	"github.com/m04kA/SMC-TableBooking/internal/service/reservations/models"
)

// Service сервис для просмотра и отмены бронирований вне диалога
type Service struct {
	engine       ReservationEngine
	repo         ReservationRepository
	storeTimeout time.Duration
	logger       Logger
}

const defaultStoreTimeout = 5 * time.Second

// Option настройка Service
type Option func(*Service)

// WithStoreTimeout ограничивает обращения к хранилищу в одном вызове сервиса
func WithStoreTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.storeTimeout = d
		}
	}
}

// NewService создает новый экземпляр сервиса бронирований
func NewService(engine ReservationEngine, repo ReservationRepository, logger Logger, opts ...Option) *Service {
	s := &Service{
		engine:       engine,
		repo:         repo,
		storeTimeout: defaultStoreTimeout,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get получает бронирование по ID или коду подтверждения
// Если contact указан, он должен совпадать с контактом бронирования
func (s *Service) Get(ctx context.Context, ref, contact string) (*models.ReservationResponse, error) {
	s.logger.Info("Get: fetching reservation ref=%s", ref)

	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	res, err := s.lookup(ctx, "Get", ref)
	if err != nil {
		return nil, err
	}

	if contact != "" && !sameContact(res.Contact, contact) {
		s.logger.Warn("Get: access denied to reservation id=%s", res.ID)
		return nil, ErrAccessDenied
	}

	return models.FromDomainReservation(res, s.restaurantName(ctx, res.RestaurantID)), nil
}

// ListByContact получает бронирования гостя
func (s *Service) ListByContact(ctx context.Context, req *models.ListByContactRequest) (*models.ReservationListResponse, error) {
	contact := strings.TrimSpace(req.Contact)
	if contact == "" {
		return nil, fmt.Errorf("%w: contact is required", ErrInvalidInput)
	}

	s.logger.Info("ListByContact: fetching reservations, includeCancelled=%t", req.IncludeCancelled)

	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	list, err := s.repo.ListByContact(ctx, contact, req.IncludeCancelled)
	if err != nil {
		s.logger.Error("ListByContact: repository error: %v", err)
		return nil, repoError("ListByContact", err)
	}

	out := &models.ReservationListResponse{
		Reservations: make([]*models.ReservationResponse, 0, len(list)),
		Total:        len(list),
	}
	names := make(map[string]string)
	for _, res := range list {
		name, ok := names[res.RestaurantID]
		if !ok {
			name = s.restaurantName(ctx, res.RestaurantID)
			names[res.RestaurantID] = name
		}
		out.Reservations = append(out.Reservations, models.FromDomainReservation(res, name))
	}

	s.logger.Info("ListByContact: successfully fetched %d reservations", len(list))
	return out, nil
}

// ListByRestaurant получает активные бронирования ресторана, пересекающиеся с днем
func (s *Service) ListByRestaurant(ctx context.Context, req *models.ListByRestaurantRequest) (*models.ReservationListResponse, error) {
	s.logger.Info("ListByRestaurant: fetching reservations for restaurant_id=%s, date=%s",
		req.RestaurantID, req.Date.Format(domain.DateFormat))

	if req.Status != nil && *req.Status != domain.StatusPending && *req.Status != domain.StatusConfirmed {
		return nil, fmt.Errorf("%w: status must be pending or confirmed", ErrInvalidInput)
	}

	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	// 1. Получаем ресторан, чтобы знать его часовой пояс
	restaurant, err := s.engine.Restaurant(ctx, req.RestaurantID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn("ListByRestaurant: restaurant_id=%s not found", req.RestaurantID)
			return nil, ErrRestaurantNotFound
		}
		s.logger.Error("ListByRestaurant: failed to get restaurant_id=%s: %v", req.RestaurantID, err)
		return nil, fmt.Errorf("%w: ListByRestaurant - get restaurant: %w", ErrInternal, err)
	}

	// 2. Окно - сутки в часовом поясе ресторана
	loc := restaurant.Policy.Location()
	y, m, d := req.Date.Date()
	dayStart := time.Date(y, m, d, 0, 0, 0, 0, loc)
	window := domain.TimeRange{Start: dayStart, End: dayStart.AddDate(0, 0, 1)}

	// 3. Загружаем бронирования и фильтруем по статусу
	list, err := s.repo.LoadReservations(ctx, restaurant.ID, window)
	if err != nil {
		s.logger.Error("ListByRestaurant: repository error: %v", err)
		return nil, repoError("ListByRestaurant", err)
	}
	if req.Status != nil {
		list = slices.DeleteFunc(list, func(res *domain.Reservation) bool { return res.Status != *req.Status })
	}
	slices.SortFunc(list, func(a, b *domain.Reservation) int {
		if c := a.Slot.Start.Compare(b.Slot.Start); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})

	out := &models.ReservationListResponse{
		Reservations: make([]*models.ReservationResponse, 0, len(list)),
		Total:        len(list),
	}
	for _, res := range list {
		out.Reservations = append(out.Reservations, models.FromDomainReservation(res, restaurant.Name))
	}

	s.logger.Info("ListByRestaurant: successfully fetched %d reservations", len(list))
	return out, nil
}

// Cancel отменяет бронирование гостя
// Гость может отменить только свое бронирование; повторная отмена не ошибка
func (s *Service) Cancel(ctx context.Context, ref string, req *models.CancelReservationRequest) (*models.ReservationResponse, error) {
	s.logger.Info("Cancel: cancelling reservation ref=%s", ref)

	if strings.TrimSpace(req.Contact) == "" {
		return nil, fmt.Errorf("%w: contact is required", ErrInvalidInput)
	}
	if len(req.Reason) > domain.MaxCancelReasonLength {
		return nil, fmt.Errorf("%w: reason is too long", ErrInvalidInput)
	}

	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	res, err := s.lookup(ctx, "Cancel", ref)
	if err != nil {
		return nil, err
	}

	if !sameContact(res.Contact, req.Contact) {
		s.logger.Warn("Cancel: access denied to reservation id=%s", res.ID)
		return nil, ErrAccessDenied
	}

	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = domain.ReasonGuestCancel
	}

	cancelled, err := s.engine.CancelWithReason(ctx, res.ID, reason)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrReservationNotFound
		}
		s.logger.Error("Cancel: engine error for reservation id=%s: %v", res.ID, err)
		return nil, fmt.Errorf("%w: Cancel - engine error: %w", ErrInternal, err)
	}

	s.logger.Info("Cancel: reservation id=%s is %s", cancelled.ID, cancelled.Status)
	return models.FromDomainReservation(cancelled, s.restaurantName(ctx, cancelled.RestaurantID)), nil
}

func (s *Service) lookup(ctx context.Context, op, ref string) (*domain.Reservation, error) {
	res, err := s.engine.Lookup(ctx, ref)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			s.logger.Warn("%s: reservation ref=%s not found", op, ref)
			return nil, ErrReservationNotFound
		case errors.Is(err, domain.ErrInvalidInput):
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		s.logger.Error("%s: lookup error for ref=%s: %v", op, ref, err)
		// %w оставляет domain.ErrTimeout различимым для обработчика
		return nil, fmt.Errorf("%w: %s - lookup error: %w", ErrInternal, op, err)
	}
	return res, nil
}

// restaurantName пустая строка, если каталог недоступен
func (s *Service) restaurantName(ctx context.Context, id string) string {
	r, err := s.engine.Restaurant(ctx, id)
	if err != nil {
		s.logger.Warn("restaurantName: restaurant id=%s: %v", id, err)
		return ""
	}
	return r.Name
}

// repoError истекший дедлайн помечается domain.ErrTimeout, чтобы обработчик ответил 503
func repoError(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s - %w: %w", ErrInternal, op, domain.ErrTimeout, err)
	}
	return fmt.Errorf("%w: %s - repository error: %w", ErrInternal, op, err)
}

func sameContact(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
