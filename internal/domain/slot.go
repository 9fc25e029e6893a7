package domain

import "time"

// TimeRange is the half-open interval [Start, End).
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Overlaps reports whether the two half-open intervals intersect.
func (r TimeRange) Overlaps(other TimeRange) bool {
	return r.Start.Before(other.End) && other.Start.Before(r.End)
}

// Contains reports whether t lies in [Start, End).
func (r TimeRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

func (r TimeRange) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

// TimeSlot is a bookable seating period at a restaurant.
type TimeSlot struct {
	RestaurantID string        `json:"restaurantId"`
	Start        time.Time     `json:"start"`
	Duration     time.Duration `json:"duration"`
}

func (s TimeSlot) End() time.Time {
	return s.Start.Add(s.Duration)
}

func (s TimeSlot) Range() TimeRange {
	return TimeRange{Start: s.Start, End: s.End()}
}

// Overlaps reports whether the slots share any instant. Back-to-back slots do not overlap.
func (s TimeSlot) Overlaps(other TimeSlot) bool {
	return s.Range().Overlaps(other.Range())
}

// AvailableSlot is a slot together with the seats still free in it
type AvailableSlot struct {
	Slot      TimeSlot
	Remaining int
	Capacity  int
}

// IsFull returns true if the slot has no seats left
func (s *AvailableSlot) IsFull() bool {
	return s.Remaining <= 0
}

// Fits returns true if a party of the given size can still be seated
func (s *AvailableSlot) Fits(partySize int) bool {
	return s.Remaining >= partySize
}

// OccupancyRate returns the occupancy rate as a percentage (0-100)
func (s *AvailableSlot) OccupancyRate() float64 {
	if s.Capacity == 0 {
		return 0
	}
	occupied := s.Capacity - s.Remaining
	return float64(occupied) / float64(s.Capacity) * 100
}

// Availability is the answer of a capacity check for one slot.
type Availability struct {
	Available         bool
	RemainingCapacity int
}
