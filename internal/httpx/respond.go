package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ariefcatur/go-pickup-inventory/internal/logging"
	"github.com/ariefcatur/go-pickup-inventory/internal/orders"
	"github.com/ariefcatur/go-pickup-inventory/internal/redisx"
)

type errorBody struct {
	Error     string            `json:"error"`
	Code      string            `json:"code"`
	ProductID string            `json:"product_id,omitempty"`
	Requested int               `json:"requested,omitempty"`
	Available *int              `json:"available,omitempty"`
	Shortages []orders.Shortage `json:"shortages,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid json", Code: "bad_request"})
		return false
	}
	return true
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: msg, Code: "bad_request"})
}

// writeError maps domain errors onto HTTP statuses.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ise *orders.InsufficientStockError
	switch {
	case errors.Is(err, orders.ErrCompensationFailed):
		// the rollback is incomplete, so the shortage is not the whole story
		logging.FromCtx(r.Context(), nil).ErrorContext(r.Context(), "rollback incomplete", "path", r.URL.Path, "err", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "commit failed and could not be fully rolled back", Code: "compensation_failed"})
	case errors.As(err, &ise):
		avail := ise.Available
		writeJSON(w, http.StatusConflict, errorBody{
			Error:     ise.Error(),
			Code:      "insufficient_stock",
			ProductID: ise.ProductID,
			Requested: ise.Requested,
			Available: &avail,
			Shortages: ise.Shortages,
		})
	case errors.Is(err, orders.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error(), Code: "not_found"})
	case errors.Is(err, orders.ErrDraftLocked),
		errors.Is(err, orders.ErrAlreadyTransferred),
		errors.Is(err, orders.ErrDuplicateCode),
		errors.Is(err, orders.ErrStatusContention),
		errors.Is(err, redisx.ErrInFlight):
		writeJSON(w, http.StatusConflict, errorBody{Error: err.Error(), Code: "conflict"})
	case errors.Is(err, orders.ErrInvalidQuantity),
		errors.Is(err, orders.ErrEmptyOrder),
		errors.Is(err, orders.ErrDuplicateLineItem),
		errors.Is(err, orders.ErrInvalidPrice),
		errors.Is(err, orders.ErrInvalidProduct),
		errors.Is(err, orders.ErrCustomerNameRequired),
		errors.Is(err, orders.ErrInvalidStatus):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: err.Error(), Code: "invalid"})
	default:
		logging.FromCtx(r.Context(), nil).ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "err", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error", Code: "internal"})
	}
}
