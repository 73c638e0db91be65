package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"supply_go/internal/domain"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// SQLiteRepository persists the ledger in SQLite through gorm.
type SQLiteRepository struct {
	db *gorm.DB
}

// NewSQLiteRepository opens (or creates) the database at path.
func NewSQLiteRepository(path string) (*SQLiteRepository, error) {
	// Ensure directory exists
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create DB directory: %w", err)
		}
	}

	// Connect to SQLite (Pure Go)
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return newSQLiteRepository(db)
}

func newSQLiteRepository(db *gorm.DB) (*SQLiteRepository, error) {
	// Auto Migration
	if err := db.AutoMigrate(&domain.LedgerRecord{}, &domain.AccountRecord{}, &domain.OrderRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &SQLiteRepository{db: db}, nil
}

// LoadLedger reads the header row and every account total.
func (s *SQLiteRepository) LoadLedger(ctx context.Context) (domain.LedgerSnapshot, uint64, error) {
	db := s.db.WithContext(ctx)

	var rec domain.LedgerRecord
	err := db.First(&rec, domain.LedgerRecordID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.LedgerSnapshot{}, 0, domain.ErrLedgerNotFound
	}
	if err != nil {
		return domain.LedgerSnapshot{}, 0, err
	}

	var accounts []domain.AccountRecord
	if err := db.Order("account asc").Find(&accounts).Error; err != nil {
		return domain.LedgerSnapshot{}, 0, err
	}
	return assemble(rec, accounts)
}

// SaveLedger applies a checkpoint in one transaction.
func (s *SQLiteRepository) SaveLedger(ctx context.Context, cp domain.Checkpoint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if cp.Cleared {
			if err := tx.Where("1 = 1").Delete(&domain.AccountRecord{}).Error; err != nil {
				return err
			}
		}

		header := headerRecord(cp)
		if err := tx.Save(&header).Error; err != nil {
			return err
		}

		for _, a := range cp.Ledger.Accounts {
			rec := domain.AccountRecord{Account: string(a.Account), Total: a.Total, UpdatedAt: header.UpdatedAt}
			if err := tx.Save(&rec).Error; err != nil {
				return err
			}
		}

		if len(cp.Entries) == 0 {
			return nil
		}
		orders := make([]domain.OrderRecord, 0, len(cp.Entries))
		for _, e := range cp.Entries {
			orders = append(orders, domain.OrderRecordOf(e))
		}
		// A retried checkpoint may carry entries that already landed.
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&orders).Error
	})
}

// Orders returns log entries after afterSeq. limit <= 0 means no limit.
func (s *SQLiteRepository) Orders(ctx context.Context, afterSeq uint64, limit int) ([]domain.OrderEntry, error) {
	q := s.db.WithContext(ctx).Where("seq > ?", afterSeq).Order("seq asc")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var recs []domain.OrderRecord
	if err := q.Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]domain.OrderEntry, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.ToEntry())
	}
	return out, nil
}

// Close releases the underlying connection pool.
func (s *SQLiteRepository) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
