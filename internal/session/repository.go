package session

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"codeberg.org/mutker/hwtop/internal/errors"

	_ "github.com/mattn/go-sqlite3"
)

type Repository interface {
	Store(ctx context.Context, sample *Sample) error
	Summarize(ctx context.Context) (*Summary, error)
	Close() error
}

type sqliteRepository struct {
	db *sql.DB
	mu sync.Mutex
}

// NewRepository opens an in-memory database for the run. Nothing touches
// disk; the data lives exactly as long as the process.
func NewRepository() (Repository, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, errors.Wrap(ErrStorageInit, err)
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteRepository{db: db}, nil
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
        CREATE TABLE samples (
            tick INTEGER PRIMARY KEY,
            at INTEGER NOT NULL,
            cpu_util REAL,
            cpu_temp REAL,
            gpu_util REAL,
            gpu_temp REAL,
            gpu_power REAL,
            ram_percent REAL
        )
    `)
	if err != nil {
		return errors.Wrap(ErrStorageInit, err)
	}

	return nil
}

func (r *sqliteRepository) Store(ctx context.Context, sample *Sample) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx, `
        INSERT INTO samples (
            tick, at, cpu_util, cpu_temp, gpu_util, gpu_temp, gpu_power, ram_percent
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(tick) DO UPDATE SET
            at = excluded.at,
            cpu_util = excluded.cpu_util,
            cpu_temp = excluded.cpu_temp,
            gpu_util = excluded.gpu_util,
            gpu_temp = excluded.gpu_temp,
            gpu_power = excluded.gpu_power,
            ram_percent = excluded.ram_percent
    `,
		sample.Tick,
		sample.At.Unix(),
		nullable(sample.CPUUtil),
		nullable(sample.CPUTemp),
		nullable(sample.GPUUtil),
		nullable(sample.GPUTemp),
		nullable(sample.GPUPower),
		nullable(sample.RAMPercent),
	)
	if err != nil {
		return errors.Wrap(ErrStorageAccess, err)
	}

	return nil
}

func (r *sqliteRepository) Summarize(ctx context.Context) (*Summary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	row := r.db.QueryRowContext(ctx, `
        SELECT COUNT(*),
            COALESCE(MIN(at), 0), COALESCE(MAX(at), 0),
            COALESCE(AVG(cpu_util), 0), COALESCE(MAX(cpu_temp), 0),
            COALESCE(AVG(gpu_util), 0), COALESCE(MAX(gpu_temp), 0),
            COALESCE(AVG(gpu_power), 0), COALESCE(AVG(ram_percent), 0)
        FROM samples
    `)

	var s Summary
	var start, end int64
	if err := row.Scan(&s.Ticks, &start, &end,
		&s.AvgCPUUtil, &s.MaxCPUTemp,
		&s.AvgGPUUtil, &s.MaxGPUTemp,
		&s.AvgGPUPower, &s.AvgRAM); err != nil {
		return nil, errors.Wrap(ErrStorageAccess, err)
	}
	s.Start = time.Unix(start, 0)
	s.End = time.Unix(end, 0)

	return &s, nil
}

func (r *sqliteRepository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.db.Close(); err != nil {
		return errors.Wrap(ErrStorageClose, err)
	}

	return nil
}

func nullable(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}

	return sql.NullFloat64{Float64: *v, Valid: true}
}
