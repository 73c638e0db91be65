package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"supply_go/internal/domain"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// LevelDBRepository persists the ledger in LevelDB.
// Checkpoints are written as one synced batch.
type LevelDBRepository struct {
	db *leveldb.DB
}

// NewLevelDBRepository opens (or creates) the database in dir.
func NewLevelDBRepository(dir string) (*LevelDBRepository, error) {
	db, err := leveldb.OpenFile(dir, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open leveldb: %w", err)
	}
	return &LevelDBRepository{db: db}, nil
}

func (l *LevelDBRepository) LoadLedger(ctx context.Context) (domain.LedgerSnapshot, uint64, error) {
	if err := ctx.Err(); err != nil {
		return domain.LedgerSnapshot{}, 0, err
	}

	snap, err := l.db.GetSnapshot()
	if err != nil {
		return domain.LedgerSnapshot{}, 0, err
	}
	defer snap.Release()

	data, err := snap.Get(headerKey, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return domain.LedgerSnapshot{}, 0, domain.ErrLedgerNotFound
	}
	if err != nil {
		return domain.LedgerSnapshot{}, 0, err
	}
	var rec domain.LedgerRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return domain.LedgerSnapshot{}, 0, fmt.Errorf("decode ledger header: %w", err)
	}

	var accounts []domain.AccountRecord
	iter := snap.NewIterator(util.BytesPrefix(accountPrefix), nil)
	for iter.Next() {
		var a domain.AccountRecord
		if err := json.Unmarshal(iter.Value(), &a); err != nil {
			iter.Release()
			return domain.LedgerSnapshot{}, 0, fmt.Errorf("decode account %s: %w", iter.Key(), err)
		}
		accounts = append(accounts, a)
	}
	iter.Release()
	if err := iter.Error(); err != nil {
		return domain.LedgerSnapshot{}, 0, err
	}
	return assemble(rec, accounts)
}

func (l *LevelDBRepository) SaveLedger(ctx context.Context, cp domain.Checkpoint) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	batch := new(leveldb.Batch)
	if cp.Cleared {
		iter := l.db.NewIterator(util.BytesPrefix(accountPrefix), nil)
		for iter.Next() {
			batch.Delete(append([]byte{}, iter.Key()...))
		}
		iter.Release()
		if err := iter.Error(); err != nil {
			return err
		}
	}

	header := headerRecord(cp)
	if err := putJSON(batch, headerKey, header); err != nil {
		return err
	}
	for _, a := range cp.Ledger.Accounts {
		rec := domain.AccountRecord{Account: string(a.Account), Total: a.Total, UpdatedAt: header.UpdatedAt}
		if err := putJSON(batch, accountKey(a.Account), rec); err != nil {
			return err
		}
	}
	for _, e := range cp.Entries {
		if err := putJSON(batch, orderKey(e.Seq), domain.OrderRecordOf(e)); err != nil {
			return err
		}
	}

	return l.db.Write(batch, &opt.WriteOptions{Sync: true})
}

func (l *LevelDBRepository) Orders(ctx context.Context, afterSeq uint64, limit int) ([]domain.OrderEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rng := util.BytesPrefix(orderPrefix)
	rng.Start = orderKey(afterSeq + 1)

	var out []domain.OrderEntry
	iter := l.db.NewIterator(rng, nil)
	defer iter.Release()
	for iter.Next() {
		if limit > 0 && len(out) >= limit {
			break
		}
		var r domain.OrderRecord
		if err := json.Unmarshal(iter.Value(), &r); err != nil {
			return nil, err
		}
		out = append(out, r.ToEntry())
	}
	return out, iter.Error()
}

func (l *LevelDBRepository) Close() error {
	return l.db.Close()
}

func putJSON(batch *leveldb.Batch, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	batch.Put(key, data)
	return nil
}
