package interfaces

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/finflow/finflow/internal/finance/application"
	"github.com/finflow/finflow/internal/finance/domain"
	"github.com/finflow/finflow/internal/finance/infrastructure"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func authedRequest(t *testing.T, method, target string, body []byte) *http.Request {
	t.Helper()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	return req.WithContext(context.WithValue(req.Context(), "userID", "user-1"))
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	return env
}

func newAccountHandlerFixture() (*AccountHandler, *infrastructure.MockAccountRepository) {
	accounts := infrastructure.NewMockAccountRepository()
	return NewAccountHandler(application.NewAccountService(accounts)), accounts
}

func TestHandleCreateAccount(t *testing.T) {
	handler, accounts := newAccountHandlerFixture()

	body := []byte(`{"name":"Checking","type":"checking","balance":150.75}`)
	rec := httptest.NewRecorder()
	handler.HandleCreateAccount(rec, authedRequest(t, http.MethodPost, "/api/protected/accounts", body))

	require.Equal(t, http.StatusCreated, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, "success", env.Status)

	var resp accountResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.Equal(t, "Checking", resp.Name)
	assert.Equal(t, 150.75, resp.Balance)
	assert.True(t, resp.IsDefault, "first account becomes the default")
	require.Len(t, accounts.Accounts, 1)
}

func TestHandleCreateAccountValidation(t *testing.T) {
	handler, _ := newAccountHandlerFixture()

	body := []byte(`{"name":"","type":"checking"}`)
	rec := httptest.NewRecorder()
	handler.HandleCreateAccount(rec, authedRequest(t, http.MethodPost, "/api/protected/accounts", body))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "error", decodeEnvelope(t, rec).Status)
}

func TestHandleCreateAccountUnauthorized(t *testing.T) {
	handler, _ := newAccountHandlerFixture()

	req := httptest.NewRequest(http.MethodPost, "/api/protected/accounts", bytes.NewReader([]byte(`{}`)))
	rec := httptest.NewRecorder()
	handler.HandleCreateAccount(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleGetAccountNotOwned(t *testing.T) {
	handler, accounts := newAccountHandlerFixture()
	require.NoError(t, accounts.Save(domain.Account{ID: "acc-9", UserID: "user-2", Name: "Other", Type: "checking", Balance: decimal.Zero}))

	req := authedRequest(t, http.MethodGet, "/api/protected/accounts/acc-9", nil)
	req.SetPathValue("accountID", "acc-9")
	rec := httptest.NewRecorder()
	handler.HandleGetAccount(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleSetDefaultAccount(t *testing.T) {
	handler, accounts := newAccountHandlerFixture()
	require.NoError(t, accounts.Save(domain.Account{ID: "acc-1", UserID: "user-1", Name: "A", Type: "checking", IsDefault: true}))
	require.NoError(t, accounts.Save(domain.Account{ID: "acc-2", UserID: "user-1", Name: "B", Type: "savings"}))

	req := authedRequest(t, http.MethodPut, "/api/protected/accounts/acc-2/default", nil)
	req.SetPathValue("accountID", "acc-2")
	rec := httptest.NewRecorder()
	handler.HandleSetDefaultAccount(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, accounts.Accounts["acc-2"].IsDefault)
	assert.False(t, accounts.Accounts["acc-1"].IsDefault)
}
