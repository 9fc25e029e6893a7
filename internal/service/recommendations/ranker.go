package recommendations

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/m04kA/SMC-TableBooking/internal/domain"
)

const (
	defaultConcurrency  = 8
	defaultStoreTimeout = 5 * time.Second
)

// Ranker упорядочивает рестораны под предпочтение пользователя
type Ranker struct {
	checker     AvailabilityChecker
	logger      Logger
	stages       []Stage
	concurrency  int
	storeTimeout time.Duration
}

// Option настройка Ranker
type Option func(*Ranker)

// WithStages заменяет стадии сравнения; ByID стоит добавлять последней для детерминизма
func WithStages(stages ...Stage) Option {
	return func(r *Ranker) {
		if len(stages) > 0 {
			r.stages = stages
		}
	}
}

// WithConcurrency ограничивает число параллельных запросов вместимости
func WithConcurrency(n int) Option {
	return func(r *Ranker) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithStoreTimeout ограничивает суммарное время запросов вместимости в одном Rank
func WithStoreTimeout(d time.Duration) Option {
	return func(r *Ranker) {
		if d > 0 {
			r.storeTimeout = d
		}
	}
}

func NewRanker(checker AvailabilityChecker, logger Logger, opts ...Option) *Ranker {
	r := &Ranker{
		checker:      checker,
		logger:       logger,
		stages:       DefaultStages,
		concurrency:  defaultConcurrency,
		storeTimeout: defaultStoreTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Rank фильтрует и сортирует кандидатов
// Несовпадение по кухне исключает ресторан, если совпадает хотя бы один; иначе возвращаются все с NoExactMatch
func (r *Ranker) Rank(ctx context.Context, restaurants []*domain.Restaurant, pref domain.Preference) (*Ranking, error) {
	filtered := make([]*domain.Restaurant, 0, len(restaurants))
	for _, rest := range restaurants {
		if pref.Filters.Matches(rest) {
			filtered = append(filtered, rest)
		}
	}

	cuisine := strings.TrimSpace(pref.Cuisine)
	candidates := make([]Candidate, 0, len(filtered))
	matched := 0
	for _, rest := range filtered {
		match := cuisine == "" || strings.EqualFold(rest.Cuisine, cuisine)
		if match {
			matched++
		}
		candidates = append(candidates, Candidate{Restaurant: rest, CuisineMatch: match})
	}

	ranking := &Ranking{}
	if matched > 0 {
		candidates = slices.DeleteFunc(candidates, func(c Candidate) bool { return !c.CuisineMatch })
	} else if cuisine != "" && len(candidates) > 0 {
		ranking.NoExactMatch = true
	}

	if err := r.fillHeadroom(ctx, candidates, pref); err != nil {
		return nil, err
	}

	slices.SortStableFunc(candidates, func(a, b Candidate) int {
		for _, stage := range r.stages {
			if c := stage(pref, &a, &b); c != 0 {
				return c
			}
		}
		return 0
	})

	ranking.Candidates = candidates
	ranking.Message = message(pref, len(candidates), ranking.NoExactMatch)

	r.logger.Info("Rank: cuisine=%q party=%d candidates=%d noExactMatch=%t",
		cuisine, pref.PartySize, len(candidates), ranking.NoExactMatch)
	return ranking, nil
}

// fillHeadroom запрашивает свободные места параллельно; без времени headroom равен вместимости
func (r *Ranker) fillHeadroom(ctx context.Context, candidates []Candidate, pref domain.Preference) error {
	if pref.At == nil {
		for i := range candidates {
			candidates[i].Headroom = candidates[i].Restaurant.Capacity
		}
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.storeTimeout)
	defer cancel()

	party := max(pref.PartySize, domain.MinPartySize)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for i := range candidates {
		g.Go(func() error {
			rest := candidates[i].Restaurant
			slot := domain.TimeSlot{
				RestaurantID: rest.ID,
				Start:        *pref.At,
				Duration:     rest.Policy.SeatingDuration(),
			}

			avail, err := r.checker.CheckAvailability(gctx, rest.ID, slot, party)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					// ресторан пропал из каталога между загрузкой и проверкой
					return nil
				}
				return fmt.Errorf("headroom for %s: %w", rest.ID, err)
			}
			candidates[i].Headroom = avail.RemainingCapacity
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		r.logger.Error("Rank: headroom lookup at %s failed: %v", pref.At.Format(time.RFC3339), err)
		return err
	}
	return nil
}

func message(pref domain.Preference, count int, noExactMatch bool) string {
	if count == 0 {
		return "No restaurants found matching your criteria"
	}
	if noExactMatch {
		return fmt.Sprintf("We couldn't find exact matches for %s cuisine, but here are some alternatives", pref.Cuisine)
	}

	var parts []string
	if pref.Cuisine != "" {
		parts = append(parts, pref.Cuisine+" cuisine")
	}
	if pref.Filters.City != "" {
		parts = append(parts, "in "+pref.Filters.City)
	}
	if pref.Filters.PriceRange != "" {
		parts = append(parts, fmt.Sprintf("in the %s price range", pref.Filters.PriceRange))
	}
	if pref.Filters.MinRating > 0 {
		parts = append(parts, fmt.Sprintf("with %s+ star rating", strconv.FormatFloat(pref.Filters.MinRating, 'f', -1, 64)))
	}

	noun := "restaurants"
	if count == 1 {
		noun = "restaurant"
	}
	if len(parts) == 0 {
		return fmt.Sprintf("Here are %d %s for you", count, noun)
	}
	return fmt.Sprintf("Found %d %s for %s", count, noun, strings.Join(parts, ", "))
}
