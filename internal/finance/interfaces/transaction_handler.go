package interfaces

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/finflow/finflow/internal/finance/application"
	"github.com/finflow/finflow/internal/finance/domain"
	"github.com/finflow/finflow/internal/ratelimit"
)

type TransactionHandler struct {
	service *application.TransactionService
	limiter *ratelimit.Limiter
}

func NewTransactionHandler(service *application.TransactionService, limiter *ratelimit.Limiter) *TransactionHandler {
	return &TransactionHandler{service: service, limiter: limiter}
}

type transactionRequest struct {
	AccountID         string      `json:"accountId"`
	Type              string      `json:"type"`
	Amount            json.Number `json:"amount"`
	Category          string      `json:"category"`
	Description       string      `json:"description"`
	Date              *time.Time  `json:"date,omitempty"`
	Status            string      `json:"status,omitempty"`
	IsRecurring       bool        `json:"isRecurring,omitempty"`
	RecurringInterval string      `json:"recurringInterval,omitempty"`
}

type transactionResponse struct {
	ID                string     `json:"id"`
	AccountID         string     `json:"accountId"`
	Type              string     `json:"type"`
	Amount            float64    `json:"amount"`
	Category          string     `json:"category"`
	Description       string     `json:"description"`
	Date              time.Time  `json:"date"`
	Status            string     `json:"status"`
	IsRecurring       bool       `json:"isRecurring"`
	RecurringInterval string     `json:"recurringInterval,omitempty"`
	NextRecurringDate *time.Time `json:"nextRecurringDate,omitempty"`
	LastProcessed     *time.Time `json:"lastProcessed,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

func toTransactionResponse(t domain.Transaction) transactionResponse {
	resp := transactionResponse{
		ID:                t.ID,
		AccountID:         t.AccountID,
		Type:              t.Type,
		Amount:            apiAmount(t.Amount),
		Category:          t.Category,
		Description:       t.Description,
		Date:              t.Date,
		Status:            t.Status,
		IsRecurring:       t.IsRecurring,
		NextRecurringDate: t.NextRecurringDate,
		LastProcessed:     t.LastProcessed,
		CreatedAt:         t.CreatedAt,
		UpdatedAt:         t.UpdatedAt,
	}
	if t.RecurringInterval != nil {
		resp.RecurringInterval = string(*t.RecurringInterval)
	}
	return resp
}

func (req *transactionRequest) toDomain(userID string) (domain.Transaction, error) {
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return domain.Transaction{}, errors.New("invalid amount")
	}

	transaction := domain.Transaction{
		UserID:      userID,
		AccountID:   req.AccountID,
		Type:        req.Type,
		Amount:      amount,
		Category:    req.Category,
		Description: req.Description,
		Status:      req.Status,
		IsRecurring: req.IsRecurring,
	}
	if req.Date != nil {
		transaction.Date = *req.Date
	}
	if req.RecurringInterval != "" {
		interval := domain.RecurringInterval(req.RecurringInterval)
		transaction.RecurringInterval = &interval
	}
	return transaction, nil
}

func (h *TransactionHandler) HandleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if h.limiter != nil {
		switch err := h.limiter.Check(userID); {
		case errors.Is(err, ratelimit.ErrBlocked):
			respondError(w, http.StatusForbidden, "Too many requests, you are temporarily blocked")
			return
		case errors.Is(err, ratelimit.ErrRateLimited):
			respondError(w, http.StatusTooManyRequests, "Too many requests")
			return
		}
	}

	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	transaction, err := req.toDomain(userID)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.service.CreateTransaction(&transaction); err != nil {
		respondServiceError(w, err)
		return
	}
	respondSuccess(w, http.StatusCreated, toTransactionResponse(transaction))
}

func (h *TransactionHandler) HandleGetTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	filter, err := parseTransactionFilter(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	transactions, err := h.service.GetUserTransactions(userID, filter)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	responses := make([]transactionResponse, 0, len(transactions))
	for _, t := range transactions {
		responses = append(responses, toTransactionResponse(t))
	}
	respondSuccess(w, http.StatusOK, responses)
}

func parseTransactionFilter(r *http.Request) (domain.TransactionFilter, error) {
	query := r.URL.Query()
	filter := domain.TransactionFilter{
		AccountID: query.Get("accountId"),
		Type:      query.Get("type"),
	}

	if raw := query.Get("startDate"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return filter, errors.New("startDate must be YYYY-MM-DD")
		}
		filter.StartDate = parsed
	}
	if raw := query.Get("endDate"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return filter, errors.New("endDate must be YYYY-MM-DD")
		}
		filter.EndDate = parsed
	}
	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return filter, errors.New("limit must be a non-negative integer")
		}
		filter.Limit = limit
	}
	if raw := query.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return filter, errors.New("page must be a positive integer")
		}
		filter.Page = page
	}
	return filter, nil
}

func (h *TransactionHandler) HandleGetTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	transaction, err := h.service.GetTransaction(userID, r.PathValue("transactionID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, toTransactionResponse(*transaction))
}

func (h *TransactionHandler) HandleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	transaction, err := req.toDomain(userID)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	transaction.ID = r.PathValue("transactionID")
	if transaction.Date.IsZero() {
		transaction.Date = time.Now()
	}

	if err := h.service.UpdateTransaction(transaction); err != nil {
		respondServiceError(w, err)
		return
	}

	updated, err := h.service.GetTransaction(userID, transaction.ID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, toTransactionResponse(*updated))
}

func (h *TransactionHandler) HandleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if err := h.service.DeleteTransaction(userID, r.PathValue("transactionID")); err != nil {
		respondServiceError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]string{"message": "Transaction deleted"})
}

type bulkDeleteRequest struct {
	TransactionIDs []string `json:"transactionIds"`
}

func (h *TransactionHandler) HandleBulkDeleteTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req bulkDeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	deleted, err := h.service.DeleteTransactionsBulk(userID, req.TransactionIDs)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]interface{}{"deleted": deleted})
}

type categorySummaryResponse struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
}

func (h *TransactionHandler) HandleGetTransactionSummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	query := r.URL.Query()
	startDate, err := time.Parse("2006-01-02", query.Get("startDate"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "startDate must be YYYY-MM-DD")
		return
	}
	endDate, err := time.Parse("2006-01-02", query.Get("endDate"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "endDate must be YYYY-MM-DD")
		return
	}
	transactionType := query.Get("type")
	if transactionType == "" {
		transactionType = domain.TransactionTypeExpense
	}

	summaries, err := h.service.GetTransactionSummaryByCategory(userID, startDate, endDate, transactionType)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	responses := make([]categorySummaryResponse, 0, len(summaries))
	for _, s := range summaries {
		responses = append(responses, categorySummaryResponse{Category: s.Category, Total: apiAmount(s.Total)})
	}
	respondSuccess(w, http.StatusOK, responses)
}
