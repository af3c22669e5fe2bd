// Package ledger owns the transaction collection and its derived running
// balance. It is the single writer for the transactions and payees store
// keys; every mutation re-reads the persisted state under the service lock
// before writing, so overlapping callers cannot clobber each other's writes.
package ledger

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"nestegg/internal/core"
	"nestegg/internal/log"
	"nestegg/internal/storage"
)

const (
	// Payee registry is a most-recently-used set, capped.
	maxPayees      = 50
	maxSuggestions = 6
)

type Service struct {
	mu     sync.Mutex
	store  *storage.KV
	logger *log.Logger

	// Running balance mirror. Warm after the first load; kept current
	// incrementally on add and by full re-reduction on remove.
	balance     core.Money
	balanceWarm bool
}

func New(store *storage.KV, logger *log.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger.WithComponent(log.ComponentLedger),
	}
}

// Load returns all transactions, newest-first by insertion. An absent key
// yields an empty collection; corrupt stored data is logged and treated as
// empty rather than surfaced as a hard failure.
func (s *Service) Load(ctx context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(ctx)
}

func (s *Service) loadLocked(ctx context.Context) ([]core.Transaction, error) {
	var txns []core.Transaction
	if _, err := s.store.Get(ctx, storage.KeyTransactions, &txns); err != nil {
		s.logger.ErrorContext(ctx, "Failed to load transactions, starting empty",
			log.FieldError, err, log.FieldOperation, log.OpRead)
		return nil, nil
	}
	return txns, nil
}

// Add validates and records a new transaction: assigns a time-based ID,
// prepends it to the collection, persists the whole array, and bumps the
// running balance incrementally. The payee is also recorded in the
// most-recently-used registry.
func (s *Service) Add(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	tx.Payee = strings.TrimSpace(tx.Payee)
	tx.Notes = strings.TrimSpace(tx.Notes)
	tx.Category = core.NormalizeCategory(string(tx.Category), tx.Type)
	if tx.Date.IsZero() {
		tx.Date = time.Now().UTC()
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, fmt.Errorf("validate transaction: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	txns, err := s.loadLocked(ctx)
	if err != nil {
		return core.Transaction{}, err
	}

	tx.ID = nextID(txns)
	updated := append([]core.Transaction{tx}, txns...)
	if err := s.store.Put(ctx, storage.KeyTransactions, updated); err != nil {
		return core.Transaction{}, fmt.Errorf("persist transactions: %w", err)
	}

	if s.balanceWarm {
		s.balance = s.balance.Add(tx.Signed())
	} else {
		s.balance = reduce(updated)
		s.balanceWarm = true
	}

	if err := s.recordPayeeLocked(ctx, tx.Payee); err != nil {
		// The transaction itself is saved; a stale suggestion list is
		// not worth failing the operation over.
		s.logger.WarnContext(ctx, "Failed to record payee",
			log.FieldError, err, log.FieldPayee, tx.Payee)
	}

	s.logger.InfoContext(ctx, "Transaction recorded",
		log.FieldTxnID, tx.ID,
		log.FieldPayee, tx.Payee,
		log.FieldCategory, string(tx.Category),
		log.FieldAmountCents, tx.Amount.Cents,
		"type", string(tx.Type))
	return tx, nil
}

// Remove deletes a transaction by ID, persists the reduced array, and
// recomputes the running balance by full re-reduction over the survivors
// to avoid incremental drift.
func (s *Service) Remove(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	txns, err := s.loadLocked(ctx)
	if err != nil {
		return err
	}

	kept := txns[:0:0]
	for _, tx := range txns {
		if tx.ID != id {
			kept = append(kept, tx)
		}
	}
	if len(kept) == len(txns) {
		return fmt.Errorf("transaction %d: %w", id, core.ErrNotFound)
	}

	if err := s.store.Put(ctx, storage.KeyTransactions, kept); err != nil {
		return fmt.Errorf("persist transactions: %w", err)
	}

	s.balance = reduce(kept)
	s.balanceWarm = true

	s.logger.InfoContext(ctx, "Transaction deleted",
		log.FieldTxnID, id, log.FieldCount, len(kept))
	return nil
}

// Balance is the single source of truth for total savings: the net sum of
// all surviving transactions.
func (s *Service) Balance(ctx context.Context) (core.Money, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.balanceWarm {
		return s.balance, nil
	}
	txns, err := s.loadLocked(ctx)
	if err != nil {
		return core.Money{}, err
	}
	s.balance = reduce(txns)
	s.balanceWarm = true
	return s.balance, nil
}

// Payees returns the most-recently-used payee list.
func (s *Service) Payees(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadPayeesLocked(ctx)
}

// SuggestPayees returns known payees that start with the query, excluding an
// exact match, capped for display.
func (s *Service) SuggestPayees(ctx context.Context, query string) ([]string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	payees, err := s.Payees(ctx)
	if err != nil {
		return nil, err
	}

	lower := strings.ToLower(query)
	var out []string
	for _, p := range payees {
		pl := strings.ToLower(p)
		if strings.HasPrefix(pl, lower) && pl != lower {
			out = append(out, p)
			if len(out) == maxSuggestions {
				break
			}
		}
	}
	return out, nil
}

func (s *Service) loadPayeesLocked(ctx context.Context) ([]string, error) {
	var payees []string
	if _, err := s.store.Get(ctx, storage.KeyPayees, &payees); err != nil {
		s.logger.ErrorContext(ctx, "Failed to load payees, starting empty",
			log.FieldError, err, log.FieldOperation, log.OpRead)
		return nil, nil
	}
	return payees, nil
}

func (s *Service) recordPayeeLocked(ctx context.Context, payee string) error {
	if payee == "" {
		return nil
	}
	payees, err := s.loadPayeesLocked(ctx)
	if err != nil {
		return err
	}

	next := make([]string, 0, len(payees)+1)
	next = append(next, payee)
	for _, p := range payees {
		if p == payee {
			continue
		}
		next = append(next, p)
	}
	if len(next) > maxPayees {
		next = next[:maxPayees]
	}
	return s.store.Put(ctx, storage.KeyPayees, next)
}

func reduce(txns []core.Transaction) core.Money {
	var total core.Money
	for _, tx := range txns {
		total = total.Add(tx.Signed())
	}
	return total
}

// nextID returns a millisecond-timestamp ID, bumped past any collision with
// an existing transaction (rapid consecutive adds land in the same
// millisecond).
func nextID(txns []core.Transaction) int64 {
	id := time.Now().UnixMilli()
	for hasID(txns, id) {
		id++
	}
	return id
}

func hasID(txns []core.Transaction, id int64) bool {
	for _, tx := range txns {
		if tx.ID == id {
			return true
		}
	}
	return false
}
