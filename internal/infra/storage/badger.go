package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"supply_go/internal/domain"

	"github.com/dgraph-io/badger/v3"
)

// BadgerRepository persists the ledger in a Badger LSM store.
type BadgerRepository struct {
	db *badger.DB
}

// NewBadgerRepository opens (or creates) the store in dir.
func NewBadgerRepository(dir string) (*BadgerRepository, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil) // disable spam log
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}
	return &BadgerRepository{db: db}, nil
}

// LoadLedger reads the header and every account key.
func (b *BadgerRepository) LoadLedger(ctx context.Context) (domain.LedgerSnapshot, uint64, error) {
	if err := ctx.Err(); err != nil {
		return domain.LedgerSnapshot{}, 0, err
	}

	var rec domain.LedgerRecord
	var accounts []domain.AccountRecord
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(headerKey)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return domain.ErrLedgerNotFound
		}
		if err != nil {
			return err
		}
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		}); err != nil {
			return fmt.Errorf("decode ledger header: %w", err)
		}

		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(accountPrefix); it.ValidForPrefix(accountPrefix); it.Next() {
			var a domain.AccountRecord
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &a)
			}); err != nil {
				return fmt.Errorf("decode account %s: %w", it.Item().Key(), err)
			}
			accounts = append(accounts, a)
		}
		return nil
	})
	if err != nil {
		return domain.LedgerSnapshot{}, 0, err
	}
	return assemble(rec, accounts)
}

// SaveLedger applies a checkpoint in one read-write transaction.
func (b *BadgerRepository) SaveLedger(ctx context.Context, cp domain.Checkpoint) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return b.db.Update(func(txn *badger.Txn) error {
		if cp.Cleared {
			for _, k := range keysWithPrefix(txn, accountPrefix) {
				if err := txn.Delete(k); err != nil {
					return err
				}
			}
		}

		header := headerRecord(cp)
		if err := setJSON(txn, headerKey, header); err != nil {
			return err
		}
		for _, a := range cp.Ledger.Accounts {
			rec := domain.AccountRecord{Account: string(a.Account), Total: a.Total, UpdatedAt: header.UpdatedAt}
			if err := setJSON(txn, accountKey(a.Account), rec); err != nil {
				return err
			}
		}
		for _, e := range cp.Entries {
			if err := setJSON(txn, orderKey(e.Seq), domain.OrderRecordOf(e)); err != nil {
				return err
			}
		}
		return nil
	})
}

// Orders returns log entries after afterSeq. limit <= 0 means no limit.
func (b *BadgerRepository) Orders(ctx context.Context, afterSeq uint64, limit int) ([]domain.OrderEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []domain.OrderEntry
	err := b.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(orderKey(afterSeq + 1)); it.ValidForPrefix(orderPrefix); it.Next() {
			if limit > 0 && len(out) >= limit {
				break
			}
			var r domain.OrderRecord
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &r)
			}); err != nil {
				return err
			}
			out = append(out, r.ToEntry())
		}
		return nil
	})
	return out, err
}

// Close flushes and closes the store.
func (b *BadgerRepository) Close() error {
	return b.db.Close()
}

func setJSON(txn *badger.Txn, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return txn.Set(key, data)
}

func keysWithPrefix(txn *badger.Txn, prefix []byte) [][]byte {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	it := txn.NewIterator(opts)
	defer it.Close()

	var keys [][]byte
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		keys = append(keys, it.Item().KeyCopy(nil))
	}
	return keys
}
