package storage

import (
	"context"
	"sort"
	"sync"

	"supply_go/internal/domain"
)

// MemoryRepository keeps checkpoints in process memory. State is lost on exit.
type MemoryRepository struct {
	mu       sync.Mutex
	header   *domain.LedgerRecord
	accounts map[domain.AccountID]uint32
	orders   []domain.OrderEntry
}

// NewMemoryRepository returns an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{accounts: make(map[domain.AccountID]uint32)}
}

func (m *MemoryRepository) LoadLedger(ctx context.Context) (domain.LedgerSnapshot, uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.header == nil {
		return domain.LedgerSnapshot{}, 0, domain.ErrLedgerNotFound
	}
	accounts := make([]domain.AccountRecord, 0, len(m.accounts))
	for id, total := range m.accounts {
		accounts = append(accounts, domain.AccountRecord{Account: string(id), Total: total})
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].Account < accounts[j].Account })
	return assemble(*m.header, accounts)
}

func (m *MemoryRepository) SaveLedger(ctx context.Context, cp domain.Checkpoint) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if cp.Cleared {
		m.accounts = make(map[domain.AccountID]uint32)
	}
	header := headerRecord(cp)
	m.header = &header
	for _, a := range cp.Ledger.Accounts {
		m.accounts[a.Account] = a.Total
	}
	for _, e := range cp.Entries {
		if n := len(m.orders); n > 0 && m.orders[n-1].Seq >= e.Seq {
			continue
		}
		m.orders = append(m.orders, e)
	}
	return nil
}

func (m *MemoryRepository) Orders(ctx context.Context, afterSeq uint64, limit int) ([]domain.OrderEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := sort.Search(len(m.orders), func(i int) bool { return m.orders[i].Seq > afterSeq })
	out := append([]domain.OrderEntry(nil), m.orders[i:]...)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryRepository) Close() error { return nil }
