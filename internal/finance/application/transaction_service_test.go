package application

import (
	"testing"
	"time"

	"github.com/finflow/finflow/internal/clock"
	"github.com/finflow/finflow/internal/finance/domain"
	financeErrors "github.com/finflow/finflow/internal/finance/errors"
	"github.com/finflow/finflow/internal/finance/infrastructure"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixtureNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func newTransactionFixture(t *testing.T) (*TransactionService, *infrastructure.MockAccountRepository, *infrastructure.MockTransactionRepository) {
	t.Helper()
	accounts := infrastructure.NewMockAccountRepository()
	transactions := infrastructure.NewMockTransactionRepository(accounts)
	require.NoError(t, accounts.Save(domain.Account{
		ID:        "acc-1",
		UserID:    "user-1",
		Name:      "Checking",
		Balance:   decimal.Zero,
		IsDefault: true,
	}))
	return NewTransactionService(transactions, accounts, clock.Fixed(fixtureNow)), accounts, transactions
}

func accountBalance(t *testing.T, accounts *infrastructure.MockAccountRepository, accountID string) decimal.Decimal {
	t.Helper()
	account, err := accounts.FindByID(accountID)
	require.NoError(t, err)
	return account.Balance
}

func TestCreateTransactionAdjustsBalance(t *testing.T) {
	service, accounts, _ := newTransactionFixture(t)

	income := domain.Transaction{
		UserID:    "user-1",
		AccountID: "acc-1",
		Type:      domain.TransactionTypeIncome,
		Amount:    dec(t, "100.00"),
		Category:  "salary",
	}
	require.NoError(t, service.CreateTransaction(&income))
	assert.NotEmpty(t, income.ID)
	assert.True(t, accountBalance(t, accounts, "acc-1").Equal(dec(t, "100.00")))

	expense := domain.Transaction{
		UserID:    "user-1",
		AccountID: "acc-1",
		Type:      domain.TransactionTypeExpense,
		Amount:    dec(t, "30.00"),
		Category:  "groceries",
	}
	require.NoError(t, service.CreateTransaction(&expense))
	assert.True(t, accountBalance(t, accounts, "acc-1").Equal(dec(t, "70.00")))
}

func TestCreateTransactionDefaultsDateToClock(t *testing.T) {
	service, _, transactions := newTransactionFixture(t)

	tx := domain.Transaction{
		UserID:    "user-1",
		AccountID: "acc-1",
		Type:      domain.TransactionTypeIncome,
		Amount:    dec(t, "10"),
	}
	require.NoError(t, service.CreateTransaction(&tx))

	saved, err := transactions.FindByID(tx.ID)
	require.NoError(t, err)
	assert.Equal(t, fixtureNow, saved.Date)
}

func TestCreateTransactionRejectsForeignAccount(t *testing.T) {
	service, _, _ := newTransactionFixture(t)

	tx := domain.Transaction{
		UserID:    "user-2",
		AccountID: "acc-1",
		Type:      domain.TransactionTypeExpense,
		Amount:    dec(t, "10"),
	}
	err := service.CreateTransaction(&tx)
	assert.ErrorIs(t, err, financeErrors.ErrAccountNotFound)
}

func TestCreateRecurringTransactionComputesNextDate(t *testing.T) {
	service, _, transactions := newTransactionFixture(t)

	interval := domain.IntervalWeekly
	tx := domain.Transaction{
		UserID:            "user-1",
		AccountID:         "acc-1",
		Type:              domain.TransactionTypeExpense,
		Amount:            dec(t, "15"),
		Date:              time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
		IsRecurring:       true,
		RecurringInterval: &interval,
	}
	require.NoError(t, service.CreateTransaction(&tx))

	saved, err := transactions.FindByID(tx.ID)
	require.NoError(t, err)
	require.NotNil(t, saved.NextRecurringDate)
	assert.Equal(t, time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC), *saved.NextRecurringDate)
	assert.Nil(t, saved.LastProcessed)
}

func TestUpdateTransactionAppliesDelta(t *testing.T) {
	service, accounts, _ := newTransactionFixture(t)

	tx := domain.Transaction{
		UserID:    "user-1",
		AccountID: "acc-1",
		Type:      domain.TransactionTypeExpense,
		Amount:    dec(t, "40.00"),
		Category:  "dining",
	}
	require.NoError(t, service.CreateTransaction(&tx))
	require.True(t, accountBalance(t, accounts, "acc-1").Equal(dec(t, "-40.00")))

	updated := tx
	updated.Amount = dec(t, "55.00")
	require.NoError(t, service.UpdateTransaction(updated))
	assert.True(t, accountBalance(t, accounts, "acc-1").Equal(dec(t, "-55.00")))
}

func TestUpdateTransactionTypeFlipReversesSign(t *testing.T) {
	service, accounts, _ := newTransactionFixture(t)

	tx := domain.Transaction{
		UserID:    "user-1",
		AccountID: "acc-1",
		Type:      domain.TransactionTypeExpense,
		Amount:    dec(t, "20.00"),
	}
	require.NoError(t, service.CreateTransaction(&tx))

	updated := tx
	updated.Type = domain.TransactionTypeIncome
	require.NoError(t, service.UpdateTransaction(updated))
	assert.True(t, accountBalance(t, accounts, "acc-1").Equal(dec(t, "20.00")))
}

func TestUpdateTransactionCannotChangeAccount(t *testing.T) {
	service, accounts, _ := newTransactionFixture(t)
	require.NoError(t, accounts.Save(domain.Account{ID: "acc-2", UserID: "user-1", Name: "Savings"}))

	tx := domain.Transaction{
		UserID:    "user-1",
		AccountID: "acc-1",
		Type:      domain.TransactionTypeIncome,
		Amount:    dec(t, "10"),
	}
	require.NoError(t, service.CreateTransaction(&tx))

	moved := tx
	moved.AccountID = "acc-2"
	err := service.UpdateTransaction(moved)
	var validationErr *financeErrors.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestDeleteTransactionRestoresBalance(t *testing.T) {
	service, accounts, _ := newTransactionFixture(t)

	tx := domain.Transaction{
		UserID:    "user-1",
		AccountID: "acc-1",
		Type:      domain.TransactionTypeIncome,
		Amount:    dec(t, "100.00"),
	}
	require.NoError(t, service.CreateTransaction(&tx))
	require.True(t, accountBalance(t, accounts, "acc-1").Equal(dec(t, "100.00")))

	require.NoError(t, service.DeleteTransaction("user-1", tx.ID))
	assert.True(t, accountBalance(t, accounts, "acc-1").IsZero())
}

func TestDeleteTransactionsBulkRestoresBalances(t *testing.T) {
	service, accounts, _ := newTransactionFixture(t)
	require.NoError(t, accounts.Save(domain.Account{ID: "acc-2", UserID: "user-1", Name: "Savings"}))

	first := domain.Transaction{UserID: "user-1", AccountID: "acc-1", Type: domain.TransactionTypeExpense, Amount: dec(t, "25.00")}
	second := domain.Transaction{UserID: "user-1", AccountID: "acc-2", Type: domain.TransactionTypeIncome, Amount: dec(t, "200.00")}
	require.NoError(t, service.CreateTransaction(&first))
	require.NoError(t, service.CreateTransaction(&second))

	deleted, err := service.DeleteTransactionsBulk("user-1", []string{first.ID, second.ID, "missing"})
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)
	assert.True(t, accountBalance(t, accounts, "acc-1").IsZero())
	assert.True(t, accountBalance(t, accounts, "acc-2").IsZero())
}

func TestDeleteTransactionsBulkCountsDuplicateIDOnce(t *testing.T) {
	service, accounts, _ := newTransactionFixture(t)

	tx := domain.Transaction{
		UserID:    "user-1",
		AccountID: "acc-1",
		Type:      domain.TransactionTypeIncome,
		Amount:    dec(t, "100.00"),
	}
	require.NoError(t, service.CreateTransaction(&tx))
	require.True(t, accountBalance(t, accounts, "acc-1").Equal(dec(t, "100.00")))

	deleted, err := service.DeleteTransactionsBulk("user-1", []string{tx.ID, tx.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)
	assert.True(t, accountBalance(t, accounts, "acc-1").IsZero())
}

func TestDeleteTransactionsBulkEmptyInput(t *testing.T) {
	service, _, _ := newTransactionFixture(t)

	_, err := service.DeleteTransactionsBulk("user-1", nil)
	var validationErr *financeErrors.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestGetTransactionHidesOtherUsers(t *testing.T) {
	service, _, _ := newTransactionFixture(t)

	tx := domain.Transaction{
		UserID:    "user-1",
		AccountID: "acc-1",
		Type:      domain.TransactionTypeIncome,
		Amount:    dec(t, "10"),
	}
	require.NoError(t, service.CreateTransaction(&tx))

	_, err := service.GetTransaction("user-2", tx.ID)
	assert.ErrorIs(t, err, financeErrors.ErrTransactionNotFound)
}

func TestGetTransactionSummaryByCategory(t *testing.T) {
	service, _, _ := newTransactionFixture(t)

	for _, tx := range []domain.Transaction{
		{UserID: "user-1", AccountID: "acc-1", Type: domain.TransactionTypeExpense, Amount: dec(t, "60"), Category: "rent", Date: time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)},
		{UserID: "user-1", AccountID: "acc-1", Type: domain.TransactionTypeExpense, Amount: dec(t, "40"), Category: "groceries", Date: time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)},
		{UserID: "user-1", AccountID: "acc-1", Type: domain.TransactionTypeExpense, Amount: dec(t, "99"), Category: "rent", Date: time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)},
	} {
		tx := tx
		require.NoError(t, service.CreateTransaction(&tx))
	}

	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	summaries, err := service.GetTransactionSummaryByCategory("user-1", start, end, domain.TransactionTypeExpense)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "rent", summaries[0].Category)
	assert.True(t, summaries[0].Total.Equal(dec(t, "60")))
}
