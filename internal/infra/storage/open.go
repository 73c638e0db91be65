package storage

import (
	"fmt"
	"log/slog"

	"supply_go/internal/domain"
)

// Open returns the repository for driver.
func Open(driver, path string) (domain.LedgerRepository, error) {
	var (
		repo domain.LedgerRepository
		err  error
	)
	switch driver {
	case "memory":
		repo = NewMemoryRepository()
	case "sqlite":
		repo, err = NewSQLiteRepository(path)
	case "badger":
		repo, err = NewBadgerRepository(path)
	case "leveldb":
		repo, err = NewLevelDBRepository(path)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
	if err != nil {
		return nil, err
	}

	slog.Info("✅ Storage opened", slog.String("driver", driver), slog.String("path", path))
	return repo, nil
}
