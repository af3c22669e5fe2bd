// Package export assembles a full snapshot of persisted data for backup.
// The document reads straight from the store so it reflects exactly what is
// on disk, not any in-memory derivation.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"nestegg/internal/core"
	"nestegg/internal/currency"
	"nestegg/internal/log"
	"nestegg/internal/storage"
)

// AppVersion is stamped into every export document.
const AppVersion = "1.0.0"

// Document is the export envelope. Data mirrors the store keys one to one.
type Document struct {
	ExportDate time.Time `json:"exportDate"`
	AppVersion string    `json:"appVersion"`
	Data       Data      `json:"data"`
}

type Data struct {
	Transactions     []core.Transaction  `json:"transactions"`
	Goals            []core.Goal         `json:"goals"`
	GoalHistory      []core.FundingEvent `json:"goalHistory"`
	Payees           []string            `json:"payees"`
	SelectedCurrency core.Currency       `json:"selectedCurrency"`
}

type Service struct {
	store  *storage.KV
	logger *log.Logger
}

func New(store *storage.KV, logger *log.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger.WithComponent(log.ComponentExport),
	}
}

// Build collects all persisted collections into one document. Absent keys
// yield empty collections so the document shape is stable regardless of how
// much data exists.
func (s *Service) Build(ctx context.Context) (Document, error) {
	doc := Document{
		ExportDate: time.Now().UTC(),
		AppVersion: AppVersion,
		Data: Data{
			Transactions: []core.Transaction{},
			Goals:        []core.Goal{},
			GoalHistory:  []core.FundingEvent{},
			Payees:       []string{},
		},
	}

	if _, err := s.store.Get(ctx, storage.KeyTransactions, &doc.Data.Transactions); err != nil {
		return Document{}, fmt.Errorf("read transactions: %w", err)
	}
	if _, err := s.store.Get(ctx, storage.KeyGoals, &doc.Data.Goals); err != nil {
		return Document{}, fmt.Errorf("read goals: %w", err)
	}
	if _, err := s.store.Get(ctx, storage.KeyGoalHistory, &doc.Data.GoalHistory); err != nil {
		return Document{}, fmt.Errorf("read goal history: %w", err)
	}
	if _, err := s.store.Get(ctx, storage.KeyPayees, &doc.Data.Payees); err != nil {
		return Document{}, fmt.Errorf("read payees: %w", err)
	}

	var cur core.Currency
	found, err := s.store.Get(ctx, storage.KeySelectedCurrency, &cur)
	if err != nil {
		return Document{}, fmt.Errorf("read selected currency: %w", err)
	}
	if !found || cur.Code == "" {
		cur = currency.Default()
	}
	doc.Data.SelectedCurrency = cur

	// Get leaves the target untouched for absent keys, so re-normalize nils
	// that slipped in from stored "null" values.
	if doc.Data.Transactions == nil {
		doc.Data.Transactions = []core.Transaction{}
	}
	if doc.Data.Goals == nil {
		doc.Data.Goals = []core.Goal{}
	}
	if doc.Data.GoalHistory == nil {
		doc.Data.GoalHistory = []core.FundingEvent{}
	}
	if doc.Data.Payees == nil {
		doc.Data.Payees = []string{}
	}

	s.logger.InfoContext(ctx, "Export document built",
		log.FieldOperation, log.OpExport,
		"transactions", len(doc.Data.Transactions),
		"goals", len(doc.Data.Goals),
		"history_events", len(doc.Data.GoalHistory))
	return doc, nil
}

// Marshal renders the document as indented JSON for a human-readable backup
// file.
func Marshal(doc Document) ([]byte, error) {
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal export: %w", err)
	}
	return out, nil
}

// Filename builds the suggested download name, nestegg-export-2026-08-30.json.
func Filename(exportDate time.Time) string {
	return fmt.Sprintf("nestegg-export-%s.json", exportDate.Format("2006-01-02"))
}
