package availability

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/gosimple/slug"
	"golang.org/x/sync/singleflight"

	"github.com/m04kA/SMC-TableBooking/internal/domain"
)

const minPartialMatch = 3

// catalog кэш каталога ресторанов с периодическим обновлением
type catalog struct {
	repo    RestaurantRepository
	ttl     time.Duration
	timeout time.Duration
	now     func() time.Time

	group singleflight.Group

	mu       sync.RWMutex
	loadedAt time.Time
	ordered  []*domain.Restaurant
	byID     map[string]*domain.Restaurant
	bySlug   map[string]*domain.Restaurant
}

type catalogView struct {
	ordered []*domain.Restaurant
	byID    map[string]*domain.Restaurant
	bySlug  map[string]*domain.Restaurant
}

func newCatalog(repo RestaurantRepository, ttl time.Duration, now func() time.Time) *catalog {
	return &catalog{repo: repo, ttl: ttl, timeout: defaultCatalogTimeout, now: now}
}

func (c *catalog) view(ctx context.Context) (catalogView, error) {
	c.mu.RLock()
	fresh := c.byID != nil && (c.ttl <= 0 || c.now().Sub(c.loadedAt) < c.ttl)
	v := catalogView{ordered: c.ordered, byID: c.byID, bySlug: c.bySlug}
	c.mu.RUnlock()
	if fresh {
		return v, nil
	}

	// Параллельные промахи кэша делают одну загрузку
	// Загрузка общая для всех ожидающих, поэтому ограничена своим таймаутом
	res, err, _ := c.group.Do("catalog", func() (interface{}, error) {
		loadCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()
		return c.reload(loadCtx)
	})
	if err != nil {
		return catalogView{}, err
	}
	return res.(catalogView), nil
}

func (c *catalog) reload(ctx context.Context) (catalogView, error) {
	restaurants, err := c.repo.LoadRestaurants(ctx)
	if err != nil {
		return catalogView{}, err
	}

	v := catalogView{
		ordered: make([]*domain.Restaurant, 0, len(restaurants)),
		byID:    make(map[string]*domain.Restaurant, len(restaurants)),
		bySlug:  make(map[string]*domain.Restaurant, len(restaurants)),
	}
	for _, r := range restaurants {
		if r.Capacity <= 0 {
			continue
		}
		v.ordered = append(v.ordered, r)
		v.byID[r.ID] = r
		v.bySlug[slug.Make(r.Name)] = r
	}

	c.mu.Lock()
	c.ordered, c.byID, c.bySlug = v.ordered, v.byID, v.bySlug
	c.loadedAt = c.now()
	c.mu.Unlock()

	return v, nil
}

// find ищет ресторан по названию: сначала точное совпадение slug, затем самое длинное вхождение
func (v catalogView) find(name string) (*domain.Restaurant, bool) {
	key := slug.Make(name)
	if key == "" {
		return nil, false
	}
	if r, ok := v.bySlug[key]; ok {
		return r, true
	}
	if len(key) < minPartialMatch {
		return nil, false
	}

	var (
		best    *domain.Restaurant
		bestLen int
	)
	for _, r := range v.ordered {
		s := slug.Make(r.Name)
		if !strings.Contains(s, key) && !strings.Contains(key, s) {
			continue
		}
		if len(s) > bestLen {
			best, bestLen = r, len(s)
		}
	}
	return best, best != nil
}
