package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hisabpati/hisab/internal/books"
	"github.com/hisabpati/hisab/internal/model"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func mapError(err error) int {
	var verr *model.ValidationError
	switch {
	case errors.Is(err, books.ErrNotInitialized),
		errors.Is(err, model.ErrAccountNotFound),
		errors.Is(err, model.ErrSubLedgerNotFound),
		errors.Is(err, model.ErrTransactionNotFound):
		return http.StatusNotFound
	case errors.Is(err, errBadPeriod), errors.As(err, &verr):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
