package get_restaurant

import (
	"context"

	"github.com/m04kA/SMC-TableBooking/internal/domain"
)

type RestaurantCatalog interface {
	Restaurant(ctx context.Context, id string) (*domain.Restaurant, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
