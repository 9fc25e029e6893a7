package recommendations

import "github.com/m04kA/SMC-TableBooking/internal/domain"

// Candidate ресторан с рассчитанными для предпочтения признаками
type Candidate struct {
	Restaurant *domain.Restaurant
	// Headroom свободные места в запрошенном слоте, либо полная вместимость
	Headroom     int
	CuisineMatch bool
}

// Ranking упорядоченный результат ранжирования
type Ranking struct {
	Candidates []Candidate
	// NoExactMatch ни один ресторан не совпал по кухне, возвращены все без фильтра
	NoExactMatch bool
	Message      string
}

// Restaurants возвращает рестораны в порядке ранжирования
func (r *Ranking) Restaurants() []*domain.Restaurant {
	out := make([]*domain.Restaurant, 0, len(r.Candidates))
	for _, c := range r.Candidates {
		out = append(out, c.Restaurant)
	}
	return out
}

// Top возвращает первые n кандидатов; n <= 0 - все
func (r *Ranking) Top(n int) []Candidate {
	if n <= 0 || n >= len(r.Candidates) {
		return r.Candidates
	}
	return r.Candidates[:n]
}

// Without возвращает ранжирование без указанных ресторанов, порядок сохраняется
func (r *Ranking) Without(ids []string) *Ranking {
	skip := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		skip[id] = struct{}{}
	}

	out := &Ranking{NoExactMatch: r.NoExactMatch, Message: r.Message}
	for _, c := range r.Candidates {
		if _, ok := skip[c.Restaurant.ID]; !ok {
			out.Candidates = append(out.Candidates, c)
		}
	}
	return out
}
