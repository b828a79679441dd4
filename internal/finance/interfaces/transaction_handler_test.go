package interfaces

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/finflow/finflow/internal/clock"
	"github.com/finflow/finflow/internal/finance/application"
	"github.com/finflow/finflow/internal/finance/domain"
	"github.com/finflow/finflow/internal/finance/infrastructure"
	"github.com/finflow/finflow/internal/ratelimit"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTransactionHandlerFixture(t *testing.T, limiter *ratelimit.Limiter) (*TransactionHandler, *infrastructure.MockAccountRepository, *infrastructure.MockTransactionRepository) {
	t.Helper()
	accounts := infrastructure.NewMockAccountRepository()
	transactions := infrastructure.NewMockTransactionRepository(accounts)
	require.NoError(t, accounts.Save(domain.Account{
		ID:        "acc-1",
		UserID:    "user-1",
		Name:      "Checking",
		Type:      "checking",
		Balance:   decimal.Zero,
		IsDefault: true,
	}))
	service := application.NewTransactionService(transactions, accounts, clock.System)
	return NewTransactionHandler(service, limiter), accounts, transactions
}

func TestHandleCreateTransaction(t *testing.T) {
	handler, accounts, _ := newTransactionHandlerFixture(t, nil)

	body := []byte(`{"accountId":"acc-1","type":"expense","amount":42.50,"category":"groceries","description":"Weekly shop"}`)
	rec := httptest.NewRecorder()
	handler.HandleCreateTransaction(rec, authedRequest(t, http.MethodPost, "/api/protected/transactions", body))

	require.Equal(t, http.StatusCreated, rec.Code)
	env := decodeEnvelope(t, rec)
	var resp transactionResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.Equal(t, 42.5, resp.Amount)
	assert.Equal(t, "completed", resp.Status)

	account, err := accounts.FindByID("acc-1")
	require.NoError(t, err)
	assert.True(t, account.Balance.Equal(decimal.NewFromFloat(-42.50)))
}

func TestHandleCreateTransactionRecurring(t *testing.T) {
	handler, _, transactions := newTransactionHandlerFixture(t, nil)

	body := []byte(`{"accountId":"acc-1","type":"expense","amount":9.99,"category":"subscriptions","isRecurring":true,"recurringInterval":"MONTHLY"}`)
	rec := httptest.NewRecorder()
	handler.HandleCreateTransaction(rec, authedRequest(t, http.MethodPost, "/api/protected/transactions", body))

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, transactions.Transactions, 1)
	for _, saved := range transactions.Transactions {
		assert.True(t, saved.IsRecurring)
		require.NotNil(t, saved.NextRecurringDate)
	}
}

func TestHandleCreateTransactionInvalidAmount(t *testing.T) {
	handler, _, _ := newTransactionHandlerFixture(t, nil)

	body := []byte(`{"accountId":"acc-1","type":"expense","amount":"not-a-number"}`)
	rec := httptest.NewRecorder()
	handler.HandleCreateTransaction(rec, authedRequest(t, http.MethodPost, "/api/protected/transactions", body))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleCreateTransactionRateLimited(t *testing.T) {
	limiter := ratelimit.NewLimiter(ratelimit.Config{
		RequestsPerWindow: 1,
		Window:            time.Minute,
		BlockThreshold:    100,
		BlockDuration:     time.Minute,
		CleanupInterval:   time.Minute,
	})
	defer limiter.Close()
	handler, _, _ := newTransactionHandlerFixture(t, limiter)

	body := []byte(`{"accountId":"acc-1","type":"income","amount":1,"category":"misc"}`)

	rec := httptest.NewRecorder()
	handler.HandleCreateTransaction(rec, authedRequest(t, http.MethodPost, "/api/protected/transactions", body))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	handler.HandleCreateTransaction(rec, authedRequest(t, http.MethodPost, "/api/protected/transactions", body))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestHandleGetTransactionsFilters(t *testing.T) {
	handler, _, transactions := newTransactionHandlerFixture(t, nil)

	seed := []domain.Transaction{
		{ID: "tx-1", UserID: "user-1", AccountID: "acc-1", Type: "expense", Amount: decimal.NewFromInt(10), Date: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), Status: "completed"},
		{ID: "tx-2", UserID: "user-1", AccountID: "acc-1", Type: "income", Amount: decimal.NewFromInt(20), Date: time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC), Status: "completed"},
		{ID: "tx-3", UserID: "user-2", AccountID: "acc-2", Type: "expense", Amount: decimal.NewFromInt(30), Date: time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC), Status: "completed"},
	}
	for _, tx := range seed {
		require.NoError(t, transactions.SaveWithBalance(tx, decimal.Zero))
	}

	rec := httptest.NewRecorder()
	handler.HandleGetTransactions(rec, authedRequest(t, http.MethodGet, "/api/protected/transactions?type=expense", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp []transactionResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, "tx-1", resp[0].ID)
}

func TestHandleGetTransactionsBadDate(t *testing.T) {
	handler, _, _ := newTransactionHandlerFixture(t, nil)

	rec := httptest.NewRecorder()
	handler.HandleGetTransactions(rec, authedRequest(t, http.MethodGet, "/api/protected/transactions?startDate=yesterday", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleBulkDeleteTransactions(t *testing.T) {
	handler, accounts, _ := newTransactionHandlerFixture(t, nil)

	create := func(body string) string {
		rec := httptest.NewRecorder()
		handler.HandleCreateTransaction(rec, authedRequest(t, http.MethodPost, "/api/protected/transactions", []byte(body)))
		require.Equal(t, http.StatusCreated, rec.Code)
		var resp transactionResponse
		require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &resp))
		return resp.ID
	}
	first := create(`{"accountId":"acc-1","type":"expense","amount":25,"category":"misc"}`)
	second := create(`{"accountId":"acc-1","type":"income","amount":100,"category":"salary"}`)

	body, err := json.Marshal(map[string][]string{"transactionIds": {first, second}})
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	handler.HandleBulkDeleteTransactions(rec, authedRequest(t, http.MethodPost, "/api/protected/transactions/bulk-delete", body))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]int
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &resp))
	assert.Equal(t, 2, resp["deleted"])

	account, err := accounts.FindByID("acc-1")
	require.NoError(t, err)
	assert.True(t, account.Balance.IsZero())
}

func TestHandleGetTransactionSummary(t *testing.T) {
	handler, _, transactions := newTransactionHandlerFixture(t, nil)

	seed := []domain.Transaction{
		{ID: "tx-1", UserID: "user-1", AccountID: "acc-1", Type: "expense", Amount: decimal.NewFromInt(60), Category: "rent", Date: time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC), Status: "completed"},
		{ID: "tx-2", UserID: "user-1", AccountID: "acc-1", Type: "expense", Amount: decimal.NewFromInt(40), Category: "groceries", Date: time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC), Status: "completed"},
	}
	for _, tx := range seed {
		require.NoError(t, transactions.SaveWithBalance(tx, decimal.Zero))
	}

	rec := httptest.NewRecorder()
	handler.HandleGetTransactionSummary(rec, authedRequest(t, http.MethodGet, "/api/protected/transactions/summary?startDate=2024-05-01&endDate=2024-06-01", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp []categorySummaryResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &resp))
	require.Len(t, resp, 2)
	assert.Equal(t, "rent", resp[0].Category)
	assert.Equal(t, 60.0, resp[0].Total)
}
