package mocks

import (
	"cmp"
	"context"
	"errors"
	"iter"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/AnnaArgentina/family-budget-bot/internal/domain"
	"github.com/AnnaArgentina/family-budget-bot/internal/usecase"
)

// Store is an in-memory ledger store. Writes made inside a transaction only
// become visible on Commit, the way the SQL backends behave.
type Store struct {
	mu          sync.Mutex
	entries     []domain.Entry
	rates       []domain.RateObservation
	settings    map[string]string
	nextEntryID int64
	nextRateID  int64

	// AppendEntryFunc, when set, runs before an entry is staged and can
	// fail the append.
	AppendEntryFunc func(entry *domain.Entry) error
	// CommitFunc, when set, runs before staged writes are published.
	CommitFunc func() error
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{settings: make(map[string]string)}
}

// Begin implements usecase.TransactionManager.
func (s *Store) Begin(context.Context) (usecase.Transaction, error) {
	return &storeTx{store: s}, nil
}

// Entries returns the store's entry repository.
func (s *Store) Entries() *EntryRepository { return &EntryRepository{store: s} }

// Rates returns the store's rate repository.
func (s *Store) Rates() *RateRepository { return &RateRepository{store: s} }

// Settings returns the store's settings repository.
func (s *Store) Settings() *SettingsRepository { return &SettingsRepository{store: s} }

// EntryCount returns the number of committed entries.
func (s *Store) EntryCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// RateCount returns the number of committed rate observations.
func (s *Store) RateCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rates)
}

// Seed commits entries directly, bypassing validation. IDs are assigned.
func (s *Store) Seed(entries ...domain.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		s.nextEntryID++
		e.ID = s.nextEntryID
		s.entries = append(s.entries, e)
	}
}

type storeTx struct {
	store   *Store
	entries []domain.Entry
	rates   []domain.RateObservation
	done    bool
}

func (t *storeTx) Commit(context.Context) error {
	if t.done {
		return errors.New("transaction already closed")
	}
	t.done = true

	if t.store.CommitFunc != nil {
		if err := t.store.CommitFunc(); err != nil {
			return err
		}
	}

	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	t.store.entries = append(t.store.entries, t.entries...)
	t.store.rates = append(t.store.rates, t.rates...)

	return nil
}

func (t *storeTx) Rollback(context.Context) error {
	t.done = true
	return nil
}

func asStoreTx(tx usecase.Transaction) (*storeTx, error) {
	st, ok := tx.(*storeTx)
	if !ok || st.done {
		return nil, domain.StorageError("begin", errors.New("no open transaction"))
	}
	return st, nil
}

// EntryRepository is an in-memory usecase.EntryRepository.
type EntryRepository struct {
	store *Store
}

func (r *EntryRepository) Append(_ context.Context, tx usecase.Transaction, entry *domain.Entry) error {
	st, err := asStoreTx(tx)
	if err != nil {
		return err
	}

	if r.store.AppendEntryFunc != nil {
		if err := r.store.AppendEntryFunc(entry); err != nil {
			return err
		}
	}

	r.store.mu.Lock()
	r.store.nextEntryID++
	entry.ID = r.store.nextEntryID
	r.store.mu.Unlock()

	st.entries = append(st.entries, *entry)

	return nil
}

func (r *EntryRepository) Query(_ context.Context, tx usecase.Transaction, filter domain.EntryFilter) iter.Seq2[*domain.Entry, error] {
	return func(yield func(*domain.Entry, error) bool) {
		r.store.mu.Lock()
		snapshot := slices.Clone(r.store.entries)
		r.store.mu.Unlock()

		if st, ok := tx.(*storeTx); ok {
			snapshot = append(snapshot, st.entries...)
		}

		for i := range snapshot {
			e := snapshot[i]
			if !filter.Matches(&e) {
				continue
			}
			if !yield(&e, nil) {
				return
			}
		}
	}
}

func (r *EntryRepository) LockAccount(context.Context, usecase.Transaction, string) error {
	return nil
}

// RateRepository is an in-memory usecase.RateRepository.
type RateRepository struct {
	store *Store
}

func (r *RateRepository) Append(_ context.Context, tx usecase.Transaction, obs *domain.RateObservation) error {
	st, err := asStoreTx(tx)
	if err != nil {
		return err
	}

	r.store.mu.Lock()
	r.store.nextRateID++
	obs.ID = r.store.nextRateID
	r.store.mu.Unlock()

	st.rates = append(st.rates, *obs)

	return nil
}

func (r *RateRepository) Latest(ctx context.Context, currency string) (*domain.RateObservation, error) {
	history, err := r.History(ctx, currency, 1)
	if err != nil {
		return nil, err
	}
	if len(history) == 0 {
		return nil, domain.NewRateNotFound(currency)
	}
	return history[0], nil
}

func (r *RateRepository) History(_ context.Context, currency string, limit int) ([]*domain.RateObservation, error) {
	r.store.mu.Lock()
	var matched []domain.RateObservation
	for _, obs := range r.store.rates {
		if obs.Currency == currency {
			matched = append(matched, obs)
		}
	}
	r.store.mu.Unlock()

	slices.SortFunc(matched, func(a, b domain.RateObservation) int {
		if c := b.ObservedAt.Compare(a.ObservedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})

	out := make([]*domain.RateObservation, 0, len(matched))
	for i := range matched {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, &matched[i])
	}
	return out, nil
}

// SettingsRepository is an in-memory usecase.SettingsRepository.
type SettingsRepository struct {
	store *Store
}

func (r *SettingsRepository) Get(_ context.Context, key string) (string, bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	v, ok := r.store.settings[key]
	return v, ok, nil
}

func (r *SettingsRepository) SetIfAbsent(_ context.Context, key, value string) (string, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if v, ok := r.store.settings[key]; ok {
		return v, nil
	}
	r.store.settings[key] = value
	return value, nil
}

// MockTransactionManager is a mock implementation of TransactionManager.
type MockTransactionManager struct {
	BeginFunc func(ctx context.Context) (usecase.Transaction, error)
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	return &MockTransaction{}, nil
}

// MockTransaction is a mock implementation of Transaction.
type MockTransaction struct {
	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error
}

func (m *MockTransaction) Commit(ctx context.Context) error {
	if m.CommitFunc != nil {
		return m.CommitFunc(ctx)
	}
	return nil
}

func (m *MockTransaction) Rollback(ctx context.Context) error {
	if m.RollbackFunc != nil {
		return m.RollbackFunc(ctx)
	}
	return nil
}

// MockIDGenerator is a mock implementation of IDGenerator.
type MockIDGenerator struct {
	GenerateFunc func() string
	counter      int
	mu           sync.Mutex
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return "mock-id-" + strconv.Itoa(m.counter)
}

// MockMetrics counts recorded business events.
type MockMetrics struct {
	mu        sync.Mutex
	Appended  map[domain.Kind]int
	Exchanges int
	RatesSet  map[string]int
	Missing   map[string]int
	Reconcile map[string]int
}

func NewMockMetrics() *MockMetrics {
	return &MockMetrics{
		Appended:  make(map[domain.Kind]int),
		RatesSet:  make(map[string]int),
		Missing:   make(map[string]int),
		Reconcile: make(map[string]int),
	}
}

func (m *MockMetrics) EntryAppended(kind domain.Kind) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Appended[kind]++
}

func (m *MockMetrics) ExchangeCompleted(string, string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Exchanges++
}

func (m *MockMetrics) RateSet(currency string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RatesSet[currency]++
}

func (m *MockMetrics) RateMissing(currency string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Missing[currency]++
}

func (m *MockMetrics) Reconciled(direction string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Reconcile[direction]++
}

// MockIdempotencyStore is a mock implementation of IdempotencyStore.
type MockIdempotencyStore struct {
	mu   sync.RWMutex
	data map[string][]byte

	CheckAndSetFunc func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	UpdateFunc      func(ctx context.Context, key string, response []byte, ttl time.Duration) error
}

func NewMockIdempotencyStore() *MockIdempotencyStore {
	return &MockIdempotencyStore{
		data: make(map[string][]byte),
	}
}

func (m *MockIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	if m.CheckAndSetFunc != nil {
		return m.CheckAndSetFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.data[key]; ok {
		return true, existing, nil
	}
	if response != nil {
		m.data[key] = response
	} else {
		m.data[key] = []byte("processing")
	}
	return false, nil, nil
}

func (m *MockIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = response
	return nil
}

func (m *MockIdempotencyStore) Release(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}
