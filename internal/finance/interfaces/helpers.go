package interfaces

import (
	"encoding/json"
	"log"
	"net/http"

	financeErrors "github.com/finflow/finflow/internal/finance/errors"
	"github.com/shopspring/decimal"
)

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		log.Printf("JSON encoding error: %v", err)
		return
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]interface{}{
		"status":  "error",
		"message": message,
		"code":    status,
	})
}

func respondSuccess(w http.ResponseWriter, status int, data interface{}) {
	respondJSON(w, status, map[string]interface{}{
		"status": "success",
		"data":   data,
	})
}

// respondServiceError maps domain errors onto HTTP statuses.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case financeErrors.IsNotFoundError(err):
		respondError(w, http.StatusNotFound, err.Error())
	case financeErrors.IsValidationError(err), financeErrors.IsValidationErrors(err):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func userIDFromContext(r *http.Request) (string, bool) {
	userID, ok := r.Context().Value("userID").(string)
	return userID, ok && userID != ""
}

// apiAmount is the one place decimals become JSON numbers. Amounts are
// stored with two decimal places, so the float64 conversion is exact for
// any realistic magnitude.
func apiAmount(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

// parseAmount reads a JSON number (or numeric string) into a decimal.
func parseAmount(raw json.Number) (decimal.Decimal, error) {
	return decimal.NewFromString(raw.String())
}
