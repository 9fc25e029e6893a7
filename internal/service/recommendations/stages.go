package recommendations

import (
	"cmp"
	"strings"

	"github.com/m04kA/SMC-TableBooking/internal/domain"
)

// Stage сравнивает двух кандидатов; 0 передает решение следующей стадии
type Stage func(pref domain.Preference, a, b *Candidate) int

// DefaultStages порядок сравнения по умолчанию
var DefaultStages = []Stage{ByHeadroom, ByCapacityFit, ByID}

// ByHeadroom больше свободных мест - выше
func ByHeadroom(_ domain.Preference, a, b *Candidate) int {
	return cmp.Compare(b.Headroom, a.Headroom)
}

// ByCapacityFit ближе вместимость к размеру компании - выше
func ByCapacityFit(pref domain.Preference, a, b *Candidate) int {
	return cmp.Compare(distance(a.Restaurant.Capacity, pref.PartySize), distance(b.Restaurant.Capacity, pref.PartySize))
}

// ByID детерминированный тай-брейк
func ByID(_ domain.Preference, a, b *Candidate) int {
	return strings.Compare(a.Restaurant.ID, b.Restaurant.ID)
}

func distance(capacity, party int) int {
	if capacity > party {
		return capacity - party
	}
	return party - capacity
}
