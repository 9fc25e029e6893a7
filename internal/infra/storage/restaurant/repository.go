package restaurant

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/m04kA/SMC-TableBooking/internal/domain"
	"github.com/m04kA/SMC-TableBooking/internal/infra/storage"
	"github.com/m04kA/SMC-TableBooking/pkg/dbmetrics"
	"github.com/m04kA/SMC-TableBooking/pkg/psqlbuilder"
)

const table = "restaurants"

// Repository репозиторий ресторанов в PostgreSQL
type Repository struct {
	db dbmetrics.DBExecutor
}

// NewRepository создает новый экземпляр репозитория ресторанов
func NewRepository(db dbmetrics.DBExecutor) *Repository {
	return &Repository{db: db}
}

// LoadRestaurants загружает весь каталог ресторанов
func (r *Repository) LoadRestaurants(ctx context.Context) ([]*domain.Restaurant, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"id",
		"name",
		"cuisine",
		"capacity",
		"city",
		"location",
		"price_range",
		"rating",
		"timezone",
		"seating_minutes",
		"operating_hours",
	).
		From(table).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: LoadRestaurants - build select query: %v", storage.ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: LoadRestaurants - execute query: %w", storage.ErrExecQuery, err)
	}
	defer rows.Close()

	restaurants := make([]*domain.Restaurant, 0)
	for rows.Next() {
		var (
			rest  domain.Restaurant
			hours []byte
		)
		err := rows.Scan(
			&rest.ID,
			&rest.Name,
			&rest.Cuisine,
			&rest.Capacity,
			&rest.City,
			&rest.Location,
			&rest.PriceRange,
			&rest.Rating,
			&rest.Policy.Timezone,
			&rest.Policy.SeatingMinutes,
			&hours,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: LoadRestaurants - scan row: %v", storage.ErrScanRow, err)
		}

		rest.Policy.Hours = make(map[time.Weekday]domain.DayHours)
		if len(hours) > 0 {
			if err := json.Unmarshal(hours, &rest.Policy.Hours); err != nil {
				return nil, fmt.Errorf("%w: LoadRestaurants - decode hours of %s: %v", storage.ErrScanRow, rest.ID, err)
			}
		}

		restaurants = append(restaurants, &rest)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: LoadRestaurants - rows error: %v", storage.ErrScanRow, err)
	}

	return restaurants, nil
}

// Count возвращает количество ресторанов в каталоге
func (r *Repository) Count(ctx context.Context) (int, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("COUNT(*)").From(table).ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: Count - build select query: %v", storage.ErrBuildQuery, err)
	}

	var n int
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: Count - scan: %w", storage.ErrExecQuery, err)
	}
	return n, nil
}

// Upsert создает или обновляет ресторан
func (r *Repository) Upsert(ctx context.Context, rest *domain.Restaurant) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	hours, err := json.Marshal(rest.Policy.Hours)
	if err != nil {
		return fmt.Errorf("%w: Upsert - encode hours: %v", storage.ErrBuildQuery, err)
	}

	query, args, err := psqlbuilder.Insert(table).
		Columns(
			"id",
			"name",
			"cuisine",
			"capacity",
			"city",
			"location",
			"price_range",
			"rating",
			"timezone",
			"seating_minutes",
			"operating_hours",
		).
		Values(
			rest.ID,
			rest.Name,
			rest.Cuisine,
			rest.Capacity,
			rest.City,
			rest.Location,
			rest.PriceRange,
			rest.Rating,
			rest.Policy.Timezone,
			rest.Policy.SeatingMinutes,
			hours,
		).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			cuisine = EXCLUDED.cuisine,
			capacity = EXCLUDED.capacity,
			city = EXCLUDED.city,
			location = EXCLUDED.location,
			price_range = EXCLUDED.price_range,
			rating = EXCLUDED.rating,
			timezone = EXCLUDED.timezone,
			seating_minutes = EXCLUDED.seating_minutes,
			operating_hours = EXCLUDED.operating_hours`).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Upsert - build insert query: %v", storage.ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: Upsert - execute insert: %w", storage.ErrExecQuery, err)
	}
	return nil
}

// SeedIfEmpty заполняет пустой каталог переданными ресторанами
// Возвращает количество добавленных записей
func (r *Repository) SeedIfEmpty(ctx context.Context, restaurants []*domain.Restaurant) (int, error) {
	n, err := r.Count(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}

	for _, rest := range restaurants {
		if err := r.Upsert(ctx, rest); err != nil {
			return 0, err
		}
	}
	return len(restaurants), nil
}
