package core

import (
	"errors"
	"strings"
	"time"
)

const (
	// TypeAdd marks income and deposits; TypeSubtract marks expenses and
	// withdrawals. Direction is carried by the type, never by the sign of
	// the amount.
	TypeAdd      TxnType = "add"
	TypeSubtract TxnType = "subtract"
)

type (
	TxnType string

	Money struct {
		Cents int64 `json:"cents"`
	}

	// Transaction is a single ledger entry. Immutable once created;
	// the only lifecycle operation after creation is deletion by ID.
	Transaction struct {
		ID       int64     `json:"id"`
		Amount   Money     `json:"amount"`
		Type     TxnType   `json:"type"`
		Date     time.Time `json:"date"`
		Payee    string    `json:"payee"`
		Category Category  `json:"category"`
		Notes    string    `json:"notes,omitempty"`
	}

	// Goal is a savings target with its own funding pool, decoupled from
	// the transaction ledger.
	Goal struct {
		ID           string    `json:"id"`
		Title        string    `json:"title"`
		TargetAmount Money     `json:"targetAmount"`
		SavedAmount  Money     `json:"savedAmount"`
		Deadline     time.Time `json:"deadline"`
		CreatedAt    time.Time `json:"createdAt"`
		Icon         GoalIcon  `json:"icon"`
		Description  string    `json:"description,omitempty"`
	}

	// FundingEvent records one funding mutation applied to a goal.
	// Type is "add" for incremental funding and "set" for an absolute
	// overwrite of the saved amount.
	FundingEvent struct {
		ID     string    `json:"id"`
		GoalID string    `json:"goalId"`
		Amount Money     `json:"amount"`
		Date   time.Time `json:"date"`
		Type   string    `json:"type"`
	}

	// Currency is the process-wide display currency selection.
	Currency struct {
		Code   string `json:"code"`
		Name   string `json:"name"`
		Symbol string `json:"symbol"`
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidType   = errors.New("invalid transaction type")
	ErrEmptyPayee    = errors.New("empty payee")
	ErrEmptyTitle    = errors.New("empty title")
	ErrZeroDate      = errors.New("date cannot be zero")
	ErrZeroDeadline  = errors.New("deadline cannot be zero")
	ErrNotFound      = errors.New("not found")
	ErrOverTarget    = errors.New("amount exceeds goal target")
	ErrNegativeSaved = errors.New("saved amount cannot be negative")
)

func (t TxnType) Validate() error {
	switch t {
	case TypeAdd, TypeSubtract:
		return nil
	default:
		return ErrInvalidType
	}
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Add returns m + other.
func (m Money) Add(other Money) Money {
	return Money{Cents: m.Cents + other.Cents}
}

// Sub returns m − other. The result may be negative.
func (m Money) Sub(other Money) Money {
	return Money{Cents: m.Cents - other.Cents}
}

func (m Money) IsZero() bool {
	return m.Cents == 0
}

func (t Transaction) Validate() error {
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if err := t.Type.Validate(); err != nil {
		return err
	}
	if t.Date.IsZero() {
		return ErrZeroDate
	}
	if len(strings.TrimSpace(t.Payee)) == 0 {
		return ErrEmptyPayee
	}
	if len(t.Notes) > 500 {
		return errors.New("notes too long (max 500 characters)")
	}
	return nil
}

// Signed returns the amount with direction applied: positive for add,
// negative for subtract.
func (t Transaction) Signed() Money {
	if t.Type == TypeSubtract {
		return Money{Cents: -t.Amount.Cents}
	}
	return t.Amount
}

func (g Goal) Validate() error {
	if len(strings.TrimSpace(g.Title)) == 0 {
		return ErrEmptyTitle
	}
	if len(g.Title) > 100 {
		return errors.New("title too long (max 100 characters)")
	}
	if err := g.TargetAmount.Validate(); err != nil {
		return err
	}
	if g.SavedAmount.Cents < 0 {
		return ErrNegativeSaved
	}
	if g.Deadline.IsZero() {
		return ErrZeroDeadline
	}
	return nil
}
