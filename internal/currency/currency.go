// Package currency holds the display currency selection and formats money
// values for presentation. The selection is cosmetic: changing it never
// converts or rescales stored amounts.
package currency

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"nestegg/internal/core"
	"nestegg/internal/log"
	"nestegg/internal/storage"
)

// Known returns the supported currencies in display order.
func Known() []core.Currency {
	return []core.Currency{
		{Code: "USD", Name: "US Dollar", Symbol: "$"},
		{Code: "EUR", Name: "Euro", Symbol: "€"},
		{Code: "GBP", Name: "British Pound", Symbol: "£"},
		{Code: "JPY", Name: "Japanese Yen", Symbol: "¥"},
		{Code: "CAD", Name: "Canadian Dollar", Symbol: "C$"},
		{Code: "AUD", Name: "Australian Dollar", Symbol: "A$"},
		{Code: "CHF", Name: "Swiss Franc", Symbol: "CHF"},
		{Code: "CNY", Name: "Chinese Yuan", Symbol: "¥"},
	}
}

// Lookup finds a supported currency by code.
func Lookup(code string) (core.Currency, bool) {
	for _, c := range Known() {
		if c.Code == code {
			return c, true
		}
	}
	return core.Currency{}, false
}

// Default is the currency used before any selection is persisted.
func Default() core.Currency {
	return Known()[0]
}

// Service owns the selectedCurrency store key.
type Service struct {
	mu     sync.Mutex
	store  *storage.KV
	logger *log.Logger
}

func New(store *storage.KV, logger *log.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger.WithComponent(log.ComponentCurrency),
	}
}

// Selected returns the persisted currency, or the default when nothing has
// been chosen yet or the stored value is unreadable.
func (s *Service) Selected(ctx context.Context) core.Currency {
	s.mu.Lock()
	defer s.mu.Unlock()

	var cur core.Currency
	found, err := s.store.Get(ctx, storage.KeySelectedCurrency, &cur)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to load selected currency, using default",
			log.FieldError, err, log.FieldOperation, log.OpRead)
		return Default()
	}
	if !found || cur.Code == "" {
		return Default()
	}
	// Stored selections from older versions may miss name or symbol.
	if known, ok := Lookup(cur.Code); ok {
		return known
	}
	return Default()
}

// Select persists the currency with the given code.
func (s *Service) Select(ctx context.Context, code string) (core.Currency, error) {
	cur, ok := Lookup(code)
	if !ok {
		return core.Currency{}, fmt.Errorf("currency %q: %w", code, core.ErrNotFound)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Put(ctx, storage.KeySelectedCurrency, cur); err != nil {
		return core.Currency{}, fmt.Errorf("persist selected currency: %w", err)
	}
	s.logger.InfoContext(ctx, "Currency selected", "code", cur.Code)
	return cur, nil
}

var printer = message.NewPrinter(language.AmericanEnglish)

// Format renders the absolute value with the currency symbol, two decimals,
// and thousands grouping: $1,234.56. Sign handling is the caller's concern.
func Format(cur core.Currency, m core.Money) string {
	cents := m.Cents
	if cents < 0 {
		cents = -cents
	}
	return cur.Symbol + printer.Sprintf("%.2f", float64(cents)/100)
}

// FormatSigned prefixes Format's output with an explicit + or - for nonzero
// values, for running balances and deltas.
func FormatSigned(cur core.Currency, m core.Money) string {
	switch {
	case m.Cents > 0:
		return "+" + Format(cur, m)
	case m.Cents < 0:
		return "-" + Format(cur, m)
	default:
		return Format(cur, m)
	}
}
