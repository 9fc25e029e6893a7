// Package timeslots generates candidate seating slots from a restaurant's operating policy.
package timeslots

import (
	"fmt"
	"iter"
	"time"

	"github.com/m04kA/SMC-TableBooking/internal/domain"
)

// SlotsFor возвращает ленивую последовательность слотов ресторана, чьи начала попадают в dateRange
// Слоты идут с шагом granularity от открытия; каждый длится SeatingDuration и заканчивается не позже закрытия
// Последовательность можно обходить повторно, каждый обход генерирует слоты заново
func SlotsFor(r *domain.Restaurant, dateRange domain.TimeRange, granularity time.Duration) (iter.Seq[domain.TimeSlot], error) {
	if err := validate(r, dateRange, granularity); err != nil {
		return nil, err
	}

	loc := r.Policy.Location()
	seating := r.Policy.SeatingDuration()
	from := dateRange.Start.In(loc)
	to := dateRange.End.In(loc)

	return func(yield func(domain.TimeSlot) bool) {
		// Начинаем с предыдущего дня: смена, открытая вчера, может закрываться после полуночи
		day := midnight(from).AddDate(0, 0, -1)
		for !day.After(to) {
			hours, open := r.Policy.HoursFor(day.Weekday())
			if open {
				opensAt, closesAt := shift(day, hours)
				for start := opensAt; !start.Add(seating).After(closesAt); start = start.Add(granularity) {
					if start.Before(from) {
						continue
					}
					if !start.Before(to) {
						break
					}
					slot := domain.TimeSlot{RestaurantID: r.ID, Start: start, Duration: seating}
					if !yield(slot) {
						return
					}
				}
			}
			day = day.AddDate(0, 0, 1)
		}
	}, nil
}

// Contains проверяет, что slot совпадает с одним из сгенерированных слотов ресторана
func Contains(r *domain.Restaurant, slot domain.TimeSlot, granularity time.Duration) bool {
	if slot.RestaurantID != "" && slot.RestaurantID != r.ID {
		return false
	}
	seq, err := SlotsFor(r, domain.TimeRange{Start: slot.Start, End: slot.Start.Add(time.Minute)}, granularity)
	if err != nil {
		return false
	}
	for candidate := range seq {
		if candidate.Start.Equal(slot.Start) && candidate.Duration == slot.Duration {
			return true
		}
	}
	return false
}

// FirstFit возвращает первый слот в окне, для которого fits вернул true
// Ошибка fits прерывает обход
func FirstFit(
	r *domain.Restaurant,
	window domain.TimeRange,
	granularity time.Duration,
	fits func(domain.TimeSlot) (bool, error),
) (domain.TimeSlot, bool, error) {
	seq, err := SlotsFor(r, window, granularity)
	if err != nil {
		return domain.TimeSlot{}, false, err
	}
	for slot := range seq {
		ok, err := fits(slot)
		if err != nil {
			return domain.TimeSlot{}, false, err
		}
		if ok {
			return slot, true, nil
		}
	}
	return domain.TimeSlot{}, false, nil
}

func validate(r *domain.Restaurant, dateRange domain.TimeRange, granularity time.Duration) error {
	if r == nil {
		return fmt.Errorf("%w: restaurant is required", domain.ErrInvalidRange)
	}
	if granularity <= 0 {
		return fmt.Errorf("%w: granularity must be positive, got %s", domain.ErrInvalidRange, granularity)
	}
	if dateRange.Start.IsZero() || dateRange.End.IsZero() {
		return fmt.Errorf("%w: range must be bounded", domain.ErrInvalidRange)
	}
	if !dateRange.Start.Before(dateRange.End) {
		return fmt.Errorf("%w: start %s is not before end %s", domain.ErrInvalidRange,
			dateRange.Start.Format(time.RFC3339), dateRange.End.Format(time.RFC3339))
	}
	if dateRange.Duration() > domain.MaxSlotRange {
		return fmt.Errorf("%w: range longer than %s", domain.ErrInvalidRange, domain.MaxSlotRange)
	}
	return nil
}

// shift возвращает время открытия и закрытия в день day
// Закрытие не позже открытия означает закрытие на следующий день
func shift(day time.Time, hours domain.DayHours) (time.Time, time.Time) {
	opensAt := hours.Open.On(day)
	closesAt := hours.Close.On(day)
	if !closesAt.After(opensAt) {
		closesAt = closesAt.AddDate(0, 0, 1)
	}
	return opensAt, closesAt
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
