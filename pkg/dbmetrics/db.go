package dbmetrics

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

// Recorder принимает метрики запросов и пула соединений
type Recorder interface {
	ObserveQuery(service, operation string, duration time.Duration, err error)
	SetPoolStats(service string, stats sql.DBStats)
}

// DB обертка над *sql.DB, которая пишет длительность каждого запроса
type DB struct {
	db       *sql.DB
	recorder Recorder
	service  string
}

const defaultPoolStatsInterval = 15 * time.Second

// Wrap оборачивает db и запускает сбор статистики пула с заданным интервалом
// Сбор останавливается при закрытии stopCh
func Wrap(db *sql.DB, recorder Recorder, service string, interval time.Duration, stopCh <-chan struct{}) *DB {
	wrapped := &DB{db: db, recorder: recorder, service: service}
	go wrapped.collectPoolStats(interval, stopCh)
	return wrapped
}

// WrapWithDefault как Wrap, но с интервалом сбора по умолчанию
func WrapWithDefault(db *sql.DB, recorder Recorder, service string, stopCh <-chan struct{}) *DB {
	return Wrap(db, recorder, service, defaultPoolStatsInterval, stopCh)
}

func (d *DB) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	start := time.Now()
	res, err := d.db.ExecContext(ctx, query, args...)
	d.recorder.ObserveQuery(d.service, operationOf(query), time.Since(start), err)
	return res, err
}

func (d *DB) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	start := time.Now()
	rows, err := d.db.QueryContext(ctx, query, args...)
	d.recorder.ObserveQuery(d.service, operationOf(query), time.Since(start), err)
	return rows, err
}

func (d *DB) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	start := time.Now()
	row := d.db.QueryRowContext(ctx, query, args...)
	d.recorder.ObserveQuery(d.service, operationOf(query), time.Since(start), row.Err())
	return row
}

// BeginTx открывает транзакцию; запросы внутри нее тоже измеряются
func (d *DB) BeginTx(ctx context.Context, opts *sql.TxOptions) (TxExecutor, error) {
	tx, err := d.db.BeginTx(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &Tx{tx: tx, recorder: d.recorder, service: d.service}, nil
}

func (d *DB) collectPoolStats(interval time.Duration, stopCh <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	d.recorder.SetPoolStats(d.service, d.db.Stats())
	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			d.recorder.SetPoolStats(d.service, d.db.Stats())
		}
	}
}

// Tx транзакция с метриками
type Tx struct {
	tx       *sql.Tx
	recorder Recorder
	service  string
}

func (t *Tx) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	start := time.Now()
	res, err := t.tx.ExecContext(ctx, query, args...)
	t.recorder.ObserveQuery(t.service, operationOf(query), time.Since(start), err)
	return res, err
}

func (t *Tx) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	start := time.Now()
	rows, err := t.tx.QueryContext(ctx, query, args...)
	t.recorder.ObserveQuery(t.service, operationOf(query), time.Since(start), err)
	return rows, err
}

func (t *Tx) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	start := time.Now()
	row := t.tx.QueryRowContext(ctx, query, args...)
	t.recorder.ObserveQuery(t.service, operationOf(query), time.Since(start), row.Err())
	return row
}

func (t *Tx) Commit() error {
	return t.tx.Commit()
}

func (t *Tx) Rollback() error {
	return t.tx.Rollback()
}

// operationOf первое слово запроса (select, insert, update, ...)
func operationOf(query string) string {
	q := strings.TrimSpace(query)
	if idx := strings.IndexAny(q, " \n\t"); idx > 0 {
		q = q[:idx]
	}
	return strings.ToLower(q)
}
