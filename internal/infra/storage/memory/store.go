// Package memory is an in-process store for restaurants and reservations.
// It backs local runs and tests; the availability engine serializes writes to it.
package memory

import (
	"cmp"
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/m04kA/SMC-TableBooking/internal/domain"
	"github.com/m04kA/SMC-TableBooking/internal/infra/storage"
)

// Store хранит каталог и бронирования в памяти
type Store struct {
	mu           sync.RWMutex
	restaurants  map[string]*domain.Restaurant
	reservations map[string]*domain.Reservation
	byCode       map[string]string
	now          func() time.Time
}

// NewStore создает хранилище с заданным каталогом ресторанов
func NewStore(restaurants []*domain.Restaurant) *Store {
	s := &Store{
		restaurants:  make(map[string]*domain.Restaurant, len(restaurants)),
		reservations: make(map[string]*domain.Reservation),
		byCode:       make(map[string]string),
		now:          time.Now,
	}
	for _, r := range restaurants {
		c := *r
		s.restaurants[r.ID] = &c
	}
	return s
}

func (s *Store) LoadRestaurants(ctx context.Context) ([]*domain.Restaurant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Restaurant, 0, len(s.restaurants))
	for _, r := range s.restaurants {
		c := *r
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// LoadReservations возвращает неотмененные бронирования, пересекающиеся с окном
func (s *Store) LoadReservations(ctx context.Context, restaurantID string, window domain.TimeRange) ([]*domain.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Reservation, 0)
	for _, r := range s.reservations {
		if r.RestaurantID != restaurantID || r.IsCancelled() {
			continue
		}
		if r.Slot.Range().Overlaps(window) {
			out = append(out, clone(r))
		}
	}
	sortReservations(out)
	return out, nil
}

func (s *Store) SaveReservation(ctx context.Context, res *domain.Reservation) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reservations[res.ID]; ok {
		return storage.ErrDuplicate
	}
	if _, ok := s.byCode[res.ConfirmationCode]; ok {
		return storage.ErrDuplicate
	}

	now := s.now()
	res.CreatedAt = now
	res.UpdatedAt = now
	s.reservations[res.ID] = clone(res)
	s.byCode[res.ConfirmationCode] = res.ID
	return nil
}

func (s *Store) UpdateReservationStatus(ctx context.Context, id string, status domain.ReservationStatus, reason string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.reservations[id]
	if !ok {
		return storage.ErrNotFound
	}

	now := s.now()
	r.Status = status
	r.UpdatedAt = now
	switch status {
	case domain.StatusCancelled:
		r.CancelReason = reason
		r.CancelledAt = &now
	case domain.StatusConfirmed:
		r.HoldExpiresAt = nil
	}
	return nil
}

func (s *Store) GetReservation(ctx context.Context, id string) (*domain.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.reservations[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return clone(r), nil
}

func (s *Store) GetReservationByCode(ctx context.Context, code string) (*domain.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byCode[code]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return clone(s.reservations[id]), nil
}

// ListExpiredHolds возвращает холды, срок которых истек к моменту now
func (s *Store) ListExpiredHolds(ctx context.Context, now time.Time, limit int) ([]*domain.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Reservation, 0)
	for _, r := range s.reservations {
		if r.HoldExpired(now) {
			out = append(out, clone(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].HoldExpiresAt.Before(*out[j].HoldExpiresAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ListByContact возвращает бронирования гостя, последние по времени первыми
func (s *Store) ListByContact(ctx context.Context, contact string, includeCancelled bool) ([]*domain.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Reservation, 0)
	for _, r := range s.reservations {
		if r.Contact != contact || (r.IsCancelled() && !includeCancelled) {
			continue
		}
		out = append(out, clone(r))
	}
	sortReservations(out)
	slices.Reverse(out)
	return out, nil
}

// Reservations возвращает все бронирования ресторана (включая отмененные)
func (s *Store) Reservations(restaurantID string) []*domain.Reservation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Reservation, 0)
	for _, r := range s.reservations {
		if r.RestaurantID == restaurantID {
			out = append(out, clone(r))
		}
	}
	sortReservations(out)
	return out
}

func sortReservations(rs []*domain.Reservation) {
	slices.SortFunc(rs, func(a, b *domain.Reservation) int {
		return cmp.Or(a.Slot.Start.Compare(b.Slot.Start), strings.Compare(a.ID, b.ID))
	})
}

func clone(r *domain.Reservation) *domain.Reservation {
	c := *r
	if r.HoldExpiresAt != nil {
		t := *r.HoldExpiresAt
		c.HoldExpiresAt = &t
	}
	if r.CancelledAt != nil {
		t := *r.CancelledAt
		c.CancelledAt = &t
	}
	return &c
}
