package reservation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-TableBooking/internal/domain"
	"github.com/m04kA/SMC-TableBooking/internal/infra/storage"
	"github.com/m04kA/SMC-TableBooking/pkg/dbmetrics"
	"github.com/m04kA/SMC-TableBooking/pkg/psqlbuilder"
)

const table = "reservations"

var columns = []string{
	"id",
	"confirmation_code",
	"restaurant_id",
	"contact",
	"customer_name",
	"special_requests",
	"slot_start",
	"slot_end",
	"party_size",
	"status",
	"hold_expires_at",
	"cancel_reason",
	"cancelled_at",
	"created_at",
	"updated_at",
}

// Repository репозиторий бронирований столиков в PostgreSQL
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория бронирований
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// SaveReservation сохраняет новое бронирование
// Если в контексте передана активная транзакция, использует её
func (r *Repository) SaveReservation(ctx context.Context, res *domain.Reservation) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert(table).
		Columns(
			"id",
			"confirmation_code",
			"restaurant_id",
			"contact",
			"customer_name",
			"special_requests",
			"slot_start",
			"slot_end",
			"party_size",
			"status",
			"hold_expires_at",
		).
		Values(
			res.ID,
			res.ConfirmationCode,
			res.RestaurantID,
			res.Contact,
			res.CustomerName,
			res.SpecialRequests,
			res.Slot.Start,
			res.Slot.End(),
			res.PartySize,
			res.Status,
			res.HoldExpiresAt,
		).
		Suffix("RETURNING created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: SaveReservation - build insert query: %v", storage.ErrBuildQuery, err)
	}

	err = executor.QueryRowContext(ctx, query, args...).Scan(&res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		return translate("SaveReservation - execute insert", err)
	}

	return nil
}

// LoadReservations возвращает неотмененные бронирования ресторана, пересекающиеся с окном
// Внутри транзакции строки блокируются (FOR UPDATE)
func (r *Repository) LoadReservations(ctx context.Context, restaurantID string, window domain.TimeRange) ([]*domain.Reservation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(columns...).
		From(table).
		Where(squirrel.Eq{"restaurant_id": restaurantID}).
		Where(squirrel.NotEq{"status": domain.StatusCancelled}).
		// Пересечение полуинтервалов: начало брони строго раньше конца окна и конец строго позже начала
		Where(squirrel.Lt{"slot_start": window.End}).
		Where(squirrel.Gt{"slot_end": window.Start}).
		OrderBy("slot_start ASC", "id ASC")

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: LoadReservations - build select query: %v", storage.ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translate("LoadReservations - execute query", err)
	}
	defer rows.Close()

	return scanReservations(rows)
}

// GetReservation получает бронирование по ID
func (r *Repository) GetReservation(ctx context.Context, id string) (*domain.Reservation, error) {
	return r.getOne(ctx, "GetReservation", squirrel.Eq{"id": id})
}

// GetReservationByCode получает бронирование по коду подтверждения
func (r *Repository) GetReservationByCode(ctx context.Context, code string) (*domain.Reservation, error) {
	return r.getOne(ctx, "GetReservationByCode", squirrel.Eq{"confirmation_code": code})
}

func (r *Repository) getOne(ctx context.Context, op string, where squirrel.Eq) (*domain.Reservation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(columns...).
		From(table).
		Where(where)

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %s - build select query: %v", storage.ErrBuildQuery, op, err)
	}

	res, err := scanReservation(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, translate(op+" - scan reservation", err)
	}

	return res, nil
}

// UpdateReservationStatus меняет статус бронирования
// Для отмены записывает причину и время отмены, для подтверждения снимает срок холда
func (r *Repository) UpdateReservationStatus(ctx context.Context, id string, status domain.ReservationStatus, reason string) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	updateBuilder := psqlbuilder.Update(table).
		Set("status", status).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id})

	switch status {
	case domain.StatusCancelled:
		updateBuilder = updateBuilder.
			Set("cancel_reason", reason).
			Set("cancelled_at", squirrel.Expr("NOW()"))
	case domain.StatusConfirmed:
		updateBuilder = updateBuilder.Set("hold_expires_at", nil)
	}

	query, args, err := updateBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("%w: UpdateReservationStatus - build update query: %v", storage.ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return translate("UpdateReservationStatus - execute update", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: UpdateReservationStatus - get rows affected: %v", storage.ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		return storage.ErrNotFound
	}

	return nil
}

// ListExpiredHolds возвращает холды, срок которых истек к моменту now
func (r *Repository) ListExpiredHolds(ctx context.Context, now time.Time, limit int) ([]*domain.Reservation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(columns...).
		From(table).
		Where(squirrel.Eq{"status": domain.StatusPending}).
		Where(squirrel.LtOrEq{"hold_expires_at": now}).
		OrderBy("hold_expires_at ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListExpiredHolds - build select query: %v", storage.ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translate("ListExpiredHolds - execute query", err)
	}
	defer rows.Close()

	return scanReservations(rows)
}

// ListByContact возвращает бронирования гостя, последние по времени первыми
// Отмененные включаются только при includeCancelled
func (r *Repository) ListByContact(ctx context.Context, contact string, includeCancelled bool) ([]*domain.Reservation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(columns...).
		From(table).
		Where(squirrel.Eq{"contact": contact}).
		OrderBy("slot_start DESC", "id ASC")

	if !includeCancelled {
		selectBuilder = selectBuilder.Where(squirrel.NotEq{"status": domain.StatusCancelled})
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListByContact - build select query: %v", storage.ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translate("ListByContact - execute query", err)
	}
	defer rows.Close()

	return scanReservations(rows)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanReservation(row rowScanner) (*domain.Reservation, error) {
	var (
		res          domain.Reservation
		slotEnd      time.Time
		holdExpires  sql.NullTime
		cancelledAt  sql.NullTime
		cancelReason sql.NullString
	)

	err := row.Scan(
		&res.ID,
		&res.ConfirmationCode,
		&res.RestaurantID,
		&res.Contact,
		&res.CustomerName,
		&res.SpecialRequests,
		&res.Slot.Start,
		&slotEnd,
		&res.PartySize,
		&res.Status,
		&holdExpires,
		&cancelReason,
		&cancelledAt,
		&res.CreatedAt,
		&res.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	res.Slot.RestaurantID = res.RestaurantID
	res.Slot.Duration = slotEnd.Sub(res.Slot.Start)
	res.CancelReason = cancelReason.String
	if holdExpires.Valid {
		res.HoldExpiresAt = &holdExpires.Time
	}
	if cancelledAt.Valid {
		res.CancelledAt = &cancelledAt.Time
	}

	return &res, nil
}

// scanReservations сканирует результаты запроса в слайс бронирований
func scanReservations(rows *sql.Rows) ([]*domain.Reservation, error) {
	reservations := make([]*domain.Reservation, 0)

	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanReservations - scan row: %v", storage.ErrScanRow, err)
		}
		reservations = append(reservations, res)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanReservations - rows error: %v", storage.ErrScanRow, err)
	}

	return reservations, nil
}

// translate сохраняет цепочку ошибок, помечая конфликты и дубликаты
func translate(op string, err error) error {
	switch {
	case storage.IsConflict(err):
		return fmt.Errorf("%w: %s: %w", storage.ErrConflict, op, err)
	case storage.IsDuplicate(err):
		return fmt.Errorf("%w: %s: %w", storage.ErrDuplicate, op, err)
	default:
		return fmt.Errorf("%w: %s: %w", storage.ErrExecQuery, op, err)
	}
}
