package interfaces

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/finflow/finflow/internal/finance/application"
)

type BudgetHandler struct {
	service *application.BudgetService
}

func NewBudgetHandler(service *application.BudgetService) *BudgetHandler {
	return &BudgetHandler{service: service}
}

type upsertBudgetRequest struct {
	Amount json.Number `json:"amount"`
}

type budgetResponse struct {
	ID             string     `json:"id"`
	Amount         float64    `json:"amount"`
	CurrentExpense float64    `json:"currentExpense"`
	PercentageUsed float64    `json:"percentageUsed"`
	LastAlertSent  *time.Time `json:"lastAlertSent,omitempty"`
}

func (h *BudgetHandler) HandleGetBudget(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	budget, expenses, err := h.service.GetBudgetWithUsage(userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, budgetResponse{
		ID:             budget.ID,
		Amount:         apiAmount(budget.Amount),
		CurrentExpense: apiAmount(expenses),
		PercentageUsed: apiAmount(budget.PercentageUsed(expenses).Round(1)),
		LastAlertSent:  budget.LastAlertSent,
	})
}

func (h *BudgetHandler) HandleUpsertBudget(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req upsertBudgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid amount")
		return
	}

	budget, err := h.service.UpsertBudget(userID, amount)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, budgetResponse{
		ID:            budget.ID,
		Amount:        apiAmount(budget.Amount),
		LastAlertSent: budget.LastAlertSent,
	})
}
