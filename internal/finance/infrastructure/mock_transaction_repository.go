package infrastructure

import (
	"sort"
	"time"

	"github.com/finflow/finflow/internal/finance/domain"
	financeErrors "github.com/finflow/finflow/internal/finance/errors"
	"github.com/shopspring/decimal"
)

// MockTransactionRepository is an in-memory TransactionRepository. Balance
// effects are applied to the linked MockAccountRepository so service tests
// can assert the balance invariant end to end.
type MockTransactionRepository struct {
	Transactions map[string]domain.Transaction
	Accounts     *MockAccountRepository
}

func NewMockTransactionRepository(accounts *MockAccountRepository) *MockTransactionRepository {
	return &MockTransactionRepository{
		Transactions: make(map[string]domain.Transaction),
		Accounts:     accounts,
	}
}

func (m *MockTransactionRepository) SaveWithBalance(t domain.Transaction, delta decimal.Decimal) error {
	m.Transactions[t.ID] = t
	if m.Accounts != nil {
		m.Accounts.adjustBalance(t.AccountID, delta)
	}
	return nil
}

func (m *MockTransactionRepository) FindByID(transactionID string) (*domain.Transaction, error) {
	t, ok := m.Transactions[transactionID]
	if !ok {
		return nil, financeErrors.ErrTransactionNotFound
	}
	return &t, nil
}

func (m *MockTransactionRepository) FindByUser(userID string, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	var transactions []domain.Transaction
	for _, t := range m.Transactions {
		if t.UserID != userID {
			continue
		}
		if filter.AccountID != "" && t.AccountID != filter.AccountID {
			continue
		}
		if filter.Type != "" && t.Type != filter.Type {
			continue
		}
		if !filter.StartDate.IsZero() && t.Date.Before(filter.StartDate) {
			continue
		}
		if !filter.EndDate.IsZero() && !t.Date.Before(filter.EndDate) {
			continue
		}
		transactions = append(transactions, t)
	}
	sort.Slice(transactions, func(i, j int) bool {
		return transactions[i].Date.After(transactions[j].Date)
	})
	return transactions, nil
}

func (m *MockTransactionRepository) FindInDateRange(userID string, startDate, endDate time.Time) ([]domain.Transaction, error) {
	return m.FindByUser(userID, domain.TransactionFilter{StartDate: startDate, EndDate: endDate})
}

func (m *MockTransactionRepository) UpdateWithBalance(t domain.Transaction, delta decimal.Decimal) error {
	if _, ok := m.Transactions[t.ID]; !ok {
		return financeErrors.ErrTransactionNotFound
	}
	m.Transactions[t.ID] = t
	if m.Accounts != nil {
		m.Accounts.adjustBalance(t.AccountID, delta)
	}
	return nil
}

func (m *MockTransactionRepository) DeleteWithBalance(transactionID, accountID string, delta decimal.Decimal) error {
	if _, ok := m.Transactions[transactionID]; !ok {
		return financeErrors.ErrTransactionNotFound
	}
	delete(m.Transactions, transactionID)
	if m.Accounts != nil {
		m.Accounts.adjustBalance(accountID, delta)
	}
	return nil
}

func (m *MockTransactionRepository) DeleteBulkWithBalance(userID string, transactionIDs []string, deltas map[string]decimal.Decimal) (int, error) {
	deleted := 0
	for _, id := range transactionIDs {
		if t, ok := m.Transactions[id]; ok && t.UserID == userID {
			delete(m.Transactions, id)
			deleted++
		}
	}
	if m.Accounts != nil {
		for accountID, delta := range deltas {
			m.Accounts.adjustBalance(accountID, delta)
		}
	}
	return deleted, nil
}

func (m *MockTransactionRepository) FindDueRecurring(now time.Time) ([]domain.Transaction, error) {
	var due []domain.Transaction
	for _, t := range m.Transactions {
		if !t.IsRecurring || t.Status != domain.TransactionStatusCompleted {
			continue
		}
		if t.LastProcessed == nil || (t.NextRecurringDate != nil && !t.NextRecurringDate.After(now)) {
			due = append(due, t)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].ID < due[j].ID })
	return due, nil
}

func (m *MockTransactionRepository) ApplyRecurrence(instance domain.Transaction, templateID string, expectedLastProcessed *time.Time, lastProcessed, nextDue time.Time) (bool, error) {
	template, ok := m.Transactions[templateID]
	if !ok {
		return false, financeErrors.ErrTransactionNotFound
	}
	if !equalTimePtr(template.LastProcessed, expectedLastProcessed) {
		return false, nil
	}
	lp := lastProcessed
	nd := nextDue
	template.LastProcessed = &lp
	template.NextRecurringDate = &nd
	m.Transactions[templateID] = template

	m.Transactions[instance.ID] = instance
	if m.Accounts != nil {
		m.Accounts.adjustBalance(instance.AccountID, instance.SignedAmount())
	}
	return true, nil
}

func (m *MockTransactionRepository) SumExpensesInRange(accountID string, startDate, endDate time.Time) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, t := range m.Transactions {
		if t.AccountID != accountID || t.Type != domain.TransactionTypeExpense {
			continue
		}
		if t.Date.Before(startDate) || !t.Date.Before(endDate) {
			continue
		}
		total = total.Add(t.Amount)
	}
	return total, nil
}

func equalTimePtr(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
