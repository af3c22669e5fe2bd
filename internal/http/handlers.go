package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"nestegg/internal/core"
	"nestegg/internal/currency"
	"nestegg/internal/export"
	"nestegg/internal/goals"
	"nestegg/internal/log"
	"nestegg/internal/reports"
)

type createTransactionRequest struct {
	Amount   string `json:"amount"`
	Type     string `json:"type"`
	Date     string `json:"date,omitempty"`
	Payee    string `json:"payee"`
	Category string `json:"category,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	txns, err := s.ledger.Load(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		if limit < len(txns) {
			txns = txns[:limit]
		}
	}
	if txns == nil {
		txns = []core.Transaction{}
	}
	writeJSON(w, http.StatusOK, txns)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid amount")
		return
	}

	tx := core.Transaction{
		Amount:   amount,
		Type:     core.TxnType(req.Type),
		Payee:    req.Payee,
		Category: core.Category(req.Category),
		Notes:    req.Notes,
	}
	if req.Date != "" {
		date, err := time.Parse(time.RFC3339, req.Date)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid date, expected RFC 3339")
			return
		}
		tx.Date = date
	}

	created, err := s.ledger.Add(r.Context(), tx)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	s.invalidateReports()
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid transaction id")
		return
	}
	if err := s.ledger.Remove(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	s.invalidateReports()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := s.ledger.Balance(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	cur := s.currency.Selected(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"balance":   balance,
		"currency":  cur.Code,
		"formatted": currency.FormatSigned(cur, balance),
	})
}

func (s *Server) handlePayees(w http.ResponseWriter, r *http.Request) {
	var (
		payees []string
		err    error
	)
	if q := r.URL.Query().Get("q"); q != "" {
		payees, err = s.ledger.SuggestPayees(r.Context(), q)
	} else {
		payees, err = s.ledger.Payees(r.Context())
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if payees == nil {
		payees = []string{}
	}
	writeJSON(w, http.StatusOK, payees)
}

type createGoalRequest struct {
	Title        string `json:"title"`
	TargetAmount string `json:"targetAmount"`
	Deadline     string `json:"deadline"`
	Icon         string `json:"icon,omitempty"`
	Description  string `json:"description,omitempty"`
}

type goalResponse struct {
	core.Goal
	Progress float64 `json:"progress"`
}

func toGoalResponse(g core.Goal) goalResponse {
	return goalResponse{Goal: g, Progress: goals.Progress(g)}
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	list, err := s.goals.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	out := make([]goalResponse, 0, len(list))
	for _, g := range list {
		out = append(out, toGoalResponse(g))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var req createGoalRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	target, err := parseAmount(req.TargetAmount)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid target amount")
		return
	}
	deadline, err := time.Parse(time.RFC3339, req.Deadline)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid deadline, expected RFC 3339")
		return
	}

	g, err := s.goals.Create(r.Context(), goals.CreateParams{
		Title:        req.Title,
		TargetAmount: target,
		Deadline:     deadline,
		Icon:         req.Icon,
		Description:  req.Description,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toGoalResponse(g))
}

func (s *Server) handleGetGoal(w http.ResponseWriter, r *http.Request) {
	g, err := s.goals.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toGoalResponse(g))
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	if err := s.goals.Remove(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type amountRequest struct {
	Amount string `json:"amount"`
}

func (s *Server) handleFundGoal(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid amount")
		return
	}

	g, err := s.goals.Fund(r.Context(), r.PathValue("id"), amount)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toGoalResponse(g))
}

func (s *Server) handleSetSaved(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	amount, err := parseAmountAllowZero(req.Amount)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid amount")
		return
	}

	g, err := s.goals.SetSaved(r.Context(), r.PathValue("id"), amount)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toGoalResponse(g))
}

func (s *Server) handleCompleteGoal(w http.ResponseWriter, r *http.Request) {
	if err := s.goals.Complete(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGoalHistory(w http.ResponseWriter, r *http.Request) {
	// 404 for unknown goals rather than an empty history
	if _, err := s.goals.Get(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	history, err := s.goals.History(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if history == nil {
		history = []core.FundingEvent{}
	}
	writeJSON(w, http.StatusOK, history)
}

func (s *Server) handleGoalPacing(w http.ResponseWriter, r *http.Request) {
	g, err := s.goals.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, goals.PacingFor(g, time.Now().UTC()))
}

func (s *Server) handleCategoryReport(w http.ResponseWriter, r *http.Request) {
	typ, err := reportType(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	window := reports.Window(r.URL.Query().Get("window"))
	if window == "" {
		window = reports.WindowAll
	}
	if !reports.ValidWindow(window) {
		writeError(w, http.StatusBadRequest, "unknown window")
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
	}

	key := fmt.Sprintf("categories:%s:%s:%d", typ, window, limit)
	if shares, ok := s.breakdownCache.Get(key); ok {
		writeJSON(w, http.StatusOK, shares)
		return
	}

	txns, err := s.ledger.Load(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	shares := reports.CategoryBreakdown(reports.ByWindow(reports.ByType(txns, typ), window, time.Now().UTC()))
	if limit > 0 {
		shares = reports.TopN(shares, limit)
	}
	if shares == nil {
		shares = []reports.CategoryShare{}
	}
	s.breakdownCache.Set(key, shares)
	writeJSON(w, http.StatusOK, shares)
}

func (s *Server) handleMonthlyReport(w http.ResponseWriter, r *http.Request) {
	typ, err := reportType(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	now := time.Now().UTC()
	year := now.Year()
	if v := r.URL.Query().Get("year"); v != "" {
		year, err = strconv.Atoi(v)
		if err != nil || year < 1970 {
			writeError(w, http.StatusBadRequest, "invalid year")
			return
		}
	}
	months := 0
	if v := r.URL.Query().Get("months"); v != "" {
		months, err = strconv.Atoi(v)
		if err != nil || months < 1 || months > 12 {
			writeError(w, http.StatusBadRequest, "invalid months")
			return
		}
	}

	key := fmt.Sprintf("monthly:%s:%d:%d", typ, year, months)
	if series, ok := s.monthlyCache.Get(key); ok {
		writeJSON(w, http.StatusOK, series)
		return
	}

	txns, err := s.ledger.Load(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	series := reports.MonthlySeries(reports.ByType(txns, typ), year)
	if months > 0 {
		series = reports.Trailing(series, now.Month(), months)
	}
	s.monthlyCache.Set(key, series)
	writeJSON(w, http.StatusOK, series)
}

// handleChangeReport compares the current calendar month against the month
// immediately before it, independent of the list windows.
func (s *Server) handleChangeReport(w http.ResponseWriter, r *http.Request) {
	typ, err := reportType(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	txns, err := s.ledger.Load(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	current, previous, change := reports.MonthOverMonthChange(reports.ByType(txns, typ), time.Now().UTC())
	writeJSON(w, http.StatusOK, map[string]any{
		"current":       current,
		"previous":      previous,
		"changePercent": change,
	})

	s.logger.DebugContext(r.Context(), "Change report computed",
		log.FieldOperation, log.OpRead,
		"current_cents", current.Cents,
		"previous_cents", previous.Cents)
}

func reportType(r *http.Request) (core.TxnType, error) {
	typ := core.TxnType(r.URL.Query().Get("type"))
	if typ == "" {
		typ = core.TypeSubtract
	}
	if err := typ.Validate(); err != nil {
		return "", fmt.Errorf("unknown transaction type")
	}
	return typ, nil
}

func (s *Server) handleListCurrencies(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, currency.Known())
}

func (s *Server) handleGetCurrency(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.currency.Selected(r.Context()))
}

type selectCurrencyRequest struct {
	Code string `json:"code"`
}

func (s *Server) handleSelectCurrency(w http.ResponseWriter, r *http.Request) {
	var req selectCurrencyRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	cur, err := s.currency.Select(r.Context(), strings.ToUpper(strings.TrimSpace(req.Code)))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cur)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	doc, err := s.export.Build(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	raw, err := export.Marshal(doc)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(doc.ExportDate)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}
