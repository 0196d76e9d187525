package projection

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Sokol111/ecommerce-product-sync/pkg/event"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// MemoryStore is a Store kept in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[int]Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[int]Record)}
}

func (s *MemoryStore) FindByID(_ context.Context, id int) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return Record{}, fmt.Errorf("%w: product %d", ErrNotFound, id)
	}
	return cloneRecord(rec), nil
}

func (s *MemoryStore) Insert(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[rec.ID]; ok {
		return fmt.Errorf("%w: product %d", ErrAlreadyExists, rec.ID)
	}
	s.records[rec.ID] = cloneRecord(rec)
	return nil
}

func (s *MemoryStore) Update(_ context.Context, rec Record, expected event.VersionToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.records[rec.ID]
	if !ok {
		return fmt.Errorf("%w: product %d", ErrNotFound, rec.ID)
	}
	if current.VersionToken.Compare(expected) != 0 {
		return fmt.Errorf("%w: product %d is at %s, expected %s", ErrConcurrencyConflict, rec.ID, current.VersionToken, expected)
	}
	s.records[rec.ID] = cloneRecord(rec)
	return nil
}

func (s *MemoryStore) FindAll(context.Context) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sorted(lo.Values(s.records)), nil
}

func (s *MemoryStore) FindByPrice(_ context.Context, price decimal.Decimal, op PriceOp) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matching := lo.Filter(lo.Values(s.records), func(r Record, _ int) bool {
		return op.Match(r.Price, price)
	})
	return s.sorted(matching), nil
}

func (s *MemoryStore) sorted(records []Record) []Record {
	out := lo.Map(records, func(r Record, _ int) Record { return cloneRecord(r) })
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func cloneRecord(r Record) Record {
	r.VersionToken = r.VersionToken.Clone()
	return r
}
