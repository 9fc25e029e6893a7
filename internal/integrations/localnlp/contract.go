package localnlp

import (
	"context"

	"github.com/m04kA/SMC-TableBooking/internal/domain"
)

// Catalog источник названий ресторанов, кухонь и городов
type Catalog interface {
	Restaurants(ctx context.Context) ([]*domain.Restaurant, error)
}
