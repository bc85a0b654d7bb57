package cache

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/foxxcyber/smart-pantry/internal/database"
	"github.com/foxxcyber/smart-pantry/internal/shopping"
)

// Drivers accepted by Open
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Store is a cache together with whatever must be closed when done
type Store struct {
	shopping.Cache
	closer io.Closer
	// DB is set for the postgres driver
	DB *database.DB
}

// Close releases the underlying storage
func (s *Store) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

type closeFunc func()

func (f closeFunc) Close() error {
	f()
	return nil
}

// Open creates the cache named by driver. path is the SQLite file and
// databaseURL the PostgreSQL connection string; each is only read by its
// own driver.
func Open(ctx context.Context, driver, path, databaseURL string, log *zap.Logger) (*Store, error) {
	switch driver {
	case "", DriverMemory:
		return &Store{Cache: NewMemory()}, nil
	case DriverSQLite:
		s, err := OpenSQLite(path)
		if err != nil {
			return nil, err
		}
		return &Store{Cache: s, closer: s}, nil
	case DriverPostgres:
		if databaseURL == "" {
			return nil, fmt.Errorf("cache driver %q requires DATABASE_URL", driver)
		}
		db, err := database.Connect(ctx, databaseURL, log)
		if err != nil {
			return nil, err
		}
		if err := database.RunMigrations(ctx, db, log); err != nil {
			db.Close()
			return nil, err
		}
		return &Store{Cache: db, closer: closeFunc(db.Close), DB: db}, nil
	default:
		return nil, fmt.Errorf("unknown cache driver %q", driver)
	}
}
