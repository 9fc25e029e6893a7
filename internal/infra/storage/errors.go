package storage

import (
	"errors"

	"github.com/lib/pq"
)

var (
	// ErrNotFound возвращается, когда запись не найдена
	ErrNotFound = errors.New("storage: record not found")

	// ErrConflict конфликт сериализации или дедлок, операцию можно повторить
	ErrConflict = errors.New("storage: serialization conflict")

	// ErrDuplicate нарушение уникального ограничения
	ErrDuplicate = errors.New("storage: duplicate key")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("storage: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("storage: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("storage: failed to scan row")
)

// Коды ошибок PostgreSQL
const (
	pqSerializationFailure = "40001"
	pqDeadlockDetected     = "40P01"
	pqUniqueViolation      = "23505"
)

// IsConflict true для конфликтов, после которых транзакцию имеет смысл повторить
func IsConflict(err error) bool {
	if errors.Is(err, ErrConflict) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pqSerializationFailure || pqErr.Code == pqDeadlockDetected
	}
	return false
}

// IsDuplicate true для нарушения уникальности
func IsDuplicate(err error) bool {
	if errors.Is(err, ErrDuplicate) {
		return true
	}
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation
}
