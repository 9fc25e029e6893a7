package list_restaurants

import (
	"context"

	"github.com/m04kA/SMC-TableBooking/internal/domain"
	"github.com/m04kA/SMC-TableBooking/internal/service/recommendations"
)

// RestaurantCatalog источник каталога ресторанов
type RestaurantCatalog interface {
	Restaurants(ctx context.Context) ([]*domain.Restaurant, error)
}

// Ranker ранжирует рестораны по предпочтению гостя
type Ranker interface {
	Rank(ctx context.Context, restaurants []*domain.Restaurant, pref domain.Preference) (*recommendations.Ranking, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
