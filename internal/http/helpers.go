package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"nestegg/internal/core"
)

const maxBodyBytes = 64 << 10

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeServiceError maps domain sentinel errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidType),
		errors.Is(err, core.ErrEmptyPayee),
		errors.Is(err, core.ErrEmptyTitle),
		errors.Is(err, core.ErrZeroDate),
		errors.Is(err, core.ErrZeroDeadline),
		errors.Is(err, core.ErrOverTarget),
		errors.Is(err, core.ErrNegativeSaved):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

// parseAmount converts a user-entered decimal string into Money. Amounts
// arrive as strings to avoid client-side float rounding.
func parseAmount(raw string) (core.Money, error) {
	cents, err := core.ParseDecimalToCents(strings.TrimSpace(raw))
	if err != nil {
		return core.Money{}, err
	}
	return core.Money{Cents: cents}, nil
}

// parseAmountAllowZero is parseAmount but accepts an explicit zero, used for
// absolute saved-amount overwrites.
func parseAmountAllowZero(raw string) (core.Money, error) {
	raw = strings.TrimSpace(raw)
	if isZeroDecimal(raw) {
		return core.Money{}, nil
	}
	return parseAmount(raw)
}

func isZeroDecimal(s string) bool {
	s = strings.ReplaceAll(s, ",", ".")
	if s == "" || s == "." {
		return false
	}
	seps := 0
	for _, r := range s {
		switch {
		case r == '.':
			seps++
			if seps > 1 {
				return false
			}
		case r != '0':
			return false
		}
	}
	return true
}
