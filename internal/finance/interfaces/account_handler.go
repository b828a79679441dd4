package interfaces

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/finflow/finflow/internal/finance/application"
	"github.com/finflow/finflow/internal/finance/domain"
	"github.com/shopspring/decimal"
)

type AccountHandler struct {
	service *application.AccountService
}

func NewAccountHandler(service *application.AccountService) *AccountHandler {
	return &AccountHandler{service: service}
}

type createAccountRequest struct {
	Name      string      `json:"name"`
	Type      string      `json:"type"`
	Balance   json.Number `json:"balance"`
	IsDefault bool        `json:"isDefault"`
}

type accountResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Balance   float64   `json:"balance"`
	IsDefault bool      `json:"isDefault"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toAccountResponse(a domain.Account) accountResponse {
	return accountResponse{
		ID:        a.ID,
		Name:      a.Name,
		Type:      a.Type,
		Balance:   apiAmount(a.Balance),
		IsDefault: a.IsDefault,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func (h *AccountHandler) HandleCreateAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req createAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	balance := decimal.Zero
	if req.Balance != "" {
		parsed, err := parseAmount(req.Balance)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid balance")
			return
		}
		balance = parsed
	}

	account := domain.Account{
		UserID:    userID,
		Name:      req.Name,
		Type:      req.Type,
		Balance:   balance,
		IsDefault: req.IsDefault,
	}
	if err := h.service.CreateAccount(&account); err != nil {
		respondServiceError(w, err)
		return
	}
	respondSuccess(w, http.StatusCreated, toAccountResponse(account))
}

func (h *AccountHandler) HandleGetAccounts(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	accounts, err := h.service.GetUserAccounts(userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	responses := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		responses = append(responses, toAccountResponse(a))
	}
	respondSuccess(w, http.StatusOK, responses)
}

func (h *AccountHandler) HandleGetAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	account, err := h.service.GetAccount(userID, r.PathValue("accountID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, toAccountResponse(*account))
}

func (h *AccountHandler) HandleSetDefaultAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if err := h.service.SetDefaultAccount(userID, r.PathValue("accountID")); err != nil {
		respondServiceError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]string{"message": "Default account updated"})
}

func (h *AccountHandler) HandleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if err := h.service.DeleteAccount(userID, r.PathValue("accountID")); err != nil {
		respondServiceError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]string{"message": "Account deleted"})
}
