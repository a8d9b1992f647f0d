package postgres

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/doorline/wholesale-analytics/internal/config"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"golang.org/x/sync/semaphore"
)

// maxConcurrentQueries caps in-flight analytics queries. Snapshot scans are
// wide; letting every request hit the pool at once starves the short queries.
const maxConcurrentQueries = 10

type DB struct {
	*sqlx.DB
	sem *semaphore.Weighted
}

var (
	dbInstance *DB
	once       sync.Once
)

// NewDB creates a new database connection pool
func NewDB(cfg *config.DatabaseConfig) (*DB, error) {
	var err error
	once.Do(func() {
		connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

		var db *sqlx.DB
		db, err = sqlx.Connect("postgres", connStr)
		if err != nil {
			return
		}

		// Analytics queries are read-heavy; keep the pool modest.
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)

		dbInstance = Wrap(db)
	})

	return dbInstance, err
}

// Wrap gates an existing connection pool without going through the singleton.
// The CLI opens its own pool via the pgx driver and still needs the gate.
func Wrap(db *sqlx.DB) *DB {
	return &DB{
		DB:  db,
		sem: semaphore.NewWeighted(maxConcurrentQueries),
	}
}

// WithConn runs fn against the pool while holding a slot in the concurrency
// gate. Every repository query goes through here.
func (db *DB) WithConn(ctx context.Context, fn func(q *sqlx.DB) error) error {
	if err := db.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("could not acquire query slot: %w", err)
	}
	defer db.sem.Release(1)

	return fn(db.DB)
}
