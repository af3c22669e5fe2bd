package currency

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"

	"nestegg/internal/core"
	"nestegg/internal/log"
	"nestegg/internal/storage"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	kv, err := storage.Open(filepath.Join(t.TempDir(), "currency.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { kv.Close() })
	return New(kv, log.New(log.Config{Level: slog.LevelError}))
}

func TestDefaultSelection(t *testing.T) {
	s := newTestService(t)

	cur := s.Selected(context.Background())
	if cur.Code != "USD" || cur.Symbol != "$" {
		t.Fatalf("expected USD default, got %+v", cur)
	}
}

func TestSelectPersists(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	cur, err := s.Select(ctx, "EUR")
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if cur.Symbol != "€" {
		t.Fatalf("expected euro symbol, got %q", cur.Symbol)
	}
	if got := s.Selected(ctx); got.Code != "EUR" {
		t.Fatalf("expected EUR selected, got %+v", got)
	}
}

func TestSelectUnknownCode(t *testing.T) {
	s := newTestService(t)

	if _, err := s.Select(context.Background(), "XYZ"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if got := s.Selected(context.Background()); got.Code != "USD" {
		t.Fatalf("expected selection unchanged, got %+v", got)
	}
}

func TestFormat(t *testing.T) {
	usd := core.Currency{Code: "USD", Symbol: "$"}
	eur := core.Currency{Code: "EUR", Symbol: "€"}

	cases := []struct {
		name  string
		cur   core.Currency
		cents int64
		want  string
	}{
		{"grouping", usd, 123456, "$1,234.56"},
		{"zero", usd, 0, "$0.00"},
		{"sub-dollar", usd, 7, "$0.07"},
		{"negative uses absolute value", usd, -123456, "$1,234.56"},
		{"large", usd, 100000000, "$1,000,000.00"},
		{"euro symbol", eur, 99999, "€999.99"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Format(tc.cur, core.Money{Cents: tc.cents})
			if got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestFormatSigned(t *testing.T) {
	usd := core.Currency{Code: "USD", Symbol: "$"}

	if got := FormatSigned(usd, core.Money{Cents: 5000}); got != "+$50.00" {
		t.Fatalf("expected +$50.00, got %q", got)
	}
	if got := FormatSigned(usd, core.Money{Cents: -5000}); got != "-$50.00" {
		t.Fatalf("expected -$50.00, got %q", got)
	}
	if got := FormatSigned(usd, core.Money{}); got != "$0.00" {
		t.Fatalf("expected $0.00, got %q", got)
	}
}

func TestKnownCatalog(t *testing.T) {
	known := Known()
	if len(known) != 8 {
		t.Fatalf("expected 8 currencies, got %d", len(known))
	}
	if _, ok := Lookup("GBP"); !ok {
		t.Fatal("expected GBP in catalog")
	}
	if _, ok := Lookup("usd"); ok {
		t.Fatal("expected lookup to be case sensitive")
	}
}
