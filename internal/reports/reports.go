// Package reports derives read-only aggregates from the transaction
// collection. Everything here is a pure function of its inputs; callers pass
// the reference time explicitly so results are reproducible in tests.
package reports

import (
	"sort"
	"time"

	"nestegg/internal/core"
)

// Window selects the date range a report covers.
type Window string

const (
	WindowAll      Window = "all"
	WindowLast30   Window = "last30"
	WindowThisYear Window = "thisYear"
)

// ValidWindow reports whether w is a known window tag.
func ValidWindow(w Window) bool {
	switch w {
	case WindowAll, WindowLast30, WindowThisYear:
		return true
	}
	return false
}

// ByType keeps only transactions of the given type.
func ByType(txns []core.Transaction, typ core.TxnType) []core.Transaction {
	var out []core.Transaction
	for _, tx := range txns {
		if tx.Type == typ {
			out = append(out, tx)
		}
	}
	return out
}

// ByWindow keeps transactions inside the window, measured against now.
// last30 keeps everything dated on or after now minus 30 days; thisYear
// keeps the calendar year of now. Neither imposes an upper bound, so
// future-dated entries stay in.
func ByWindow(txns []core.Transaction, w Window, now time.Time) []core.Transaction {
	switch w {
	case WindowLast30:
		cutoff := now.AddDate(0, 0, -30)
		return filter(txns, func(tx core.Transaction) bool {
			return !tx.Date.Before(cutoff)
		})
	case WindowThisYear:
		return filter(txns, func(tx core.Transaction) bool {
			return tx.Date.Year() == now.Year()
		})
	default:
		return txns
	}
}

func filter(txns []core.Transaction, keep func(core.Transaction) bool) []core.Transaction {
	var out []core.Transaction
	for _, tx := range txns {
		if keep(tx) {
			out = append(out, tx)
		}
	}
	return out
}

// CategoryShare is one slice of a category breakdown.
type CategoryShare struct {
	Category core.Category `json:"category"`
	Total    core.Money    `json:"total"`
	Percent  float64       `json:"percent"`
}

// CategoryBreakdown groups transactions by category and returns shares
// sorted by total, largest first. Transactions without a category fall into
// Other. Percentages are zero when the overall total is zero.
func CategoryBreakdown(txns []core.Transaction) []CategoryShare {
	totals := make(map[core.Category]int64)
	var overall int64
	for _, tx := range txns {
		cat := tx.Category
		if cat == "" {
			cat = core.CategoryOther
		}
		totals[cat] += tx.Amount.Cents
		overall += tx.Amount.Cents
	}

	out := make([]CategoryShare, 0, len(totals))
	for cat, total := range totals {
		share := CategoryShare{Category: cat, Total: core.Money{Cents: total}}
		if overall > 0 {
			share.Percent = float64(total) / float64(overall) * 100
		}
		out = append(out, share)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total.Cents != out[j].Total.Cents {
			return out[i].Total.Cents > out[j].Total.Cents
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// TopN truncates a breakdown to its n largest shares.
func TopN(shares []CategoryShare, n int) []CategoryShare {
	if len(shares) <= n {
		return shares
	}
	return shares[:n]
}

// MonthTotal is one month's aggregate in a yearly series.
type MonthTotal struct {
	Month time.Month `json:"month"`
	Total core.Money `json:"total"`
}

// MonthlySeries sums transaction amounts per calendar month of one year.
// The result always has twelve entries, January through December, with zero
// totals for empty months.
func MonthlySeries(txns []core.Transaction, year int) []MonthTotal {
	series := make([]MonthTotal, 12)
	for i := range series {
		series[i].Month = time.Month(i + 1)
	}
	for _, tx := range txns {
		if tx.Date.Year() != year {
			continue
		}
		series[tx.Date.Month()-1].Total.Cents += tx.Amount.Cents
	}
	return series
}

// Trailing returns the last n entries of a yearly series ending at
// currentMonth. When fewer than n months precede it, the window is
// left-padded with zero-total months wrapping into the notional previous
// year, so the result length is always n.
func Trailing(series []MonthTotal, currentMonth time.Month, n int) []MonthTotal {
	out := make([]MonthTotal, 0, n)
	for i := n - 1; i >= 0; i-- {
		idx := int(currentMonth) - 1 - i
		if idx < 0 {
			out = append(out, MonthTotal{Month: time.Month(idx + 13)})
			continue
		}
		out = append(out, series[idx])
	}
	return out
}

// MonthSum totals the amounts dated in one calendar month.
func MonthSum(txns []core.Transaction, year int, month time.Month) core.Money {
	var total core.Money
	for _, tx := range txns {
		if tx.Date.Year() == year && tx.Date.Month() == month {
			total = total.Add(tx.Amount)
		}
	}
	return total
}

// MonthOverMonthChange compares the calendar month of now against the month
// immediately before it, crossing the year boundary in January.
func MonthOverMonthChange(txns []core.Transaction, now time.Time) (current, previous core.Money, changePercent float64) {
	firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	prev := firstOfMonth.AddDate(0, -1, 0)

	current = MonthSum(txns, now.Year(), now.Month())
	previous = MonthSum(txns, prev.Year(), prev.Month())
	return current, previous, Change(current, previous)
}

// Change returns the percentage change from previous to current. A zero
// previous period yields zero rather than a division blowup, even when the
// current period has activity.
func Change(current, previous core.Money) float64 {
	if previous.Cents == 0 {
		return 0
	}
	return float64(current.Cents-previous.Cents) / float64(previous.Cents) * 100
}
