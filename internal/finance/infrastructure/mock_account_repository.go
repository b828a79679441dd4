package infrastructure

import (
	"github.com/finflow/finflow/internal/finance/domain"
	financeErrors "github.com/finflow/finflow/internal/finance/errors"
	"github.com/shopspring/decimal"
)

// MockAccountRepository is an in-memory AccountRepository used by service tests.
type MockAccountRepository struct {
	Accounts map[string]domain.Account
}

func NewMockAccountRepository() *MockAccountRepository {
	return &MockAccountRepository{Accounts: make(map[string]domain.Account)}
}

func (m *MockAccountRepository) Save(account domain.Account) error {
	if account.IsDefault {
		for id, a := range m.Accounts {
			if a.UserID == account.UserID && a.IsDefault {
				a.IsDefault = false
				m.Accounts[id] = a
			}
		}
	}
	m.Accounts[account.ID] = account
	return nil
}

func (m *MockAccountRepository) FindByID(accountID string) (*domain.Account, error) {
	account, ok := m.Accounts[accountID]
	if !ok {
		return nil, financeErrors.ErrAccountNotFound
	}
	return &account, nil
}

func (m *MockAccountRepository) FindByUser(userID string) ([]domain.Account, error) {
	var accounts []domain.Account
	for _, a := range m.Accounts {
		if a.UserID == userID {
			accounts = append(accounts, a)
		}
	}
	return accounts, nil
}

func (m *MockAccountRepository) FindDefaultByUser(userID string) (*domain.Account, error) {
	for _, a := range m.Accounts {
		if a.UserID == userID && a.IsDefault {
			account := a
			return &account, nil
		}
	}
	return nil, financeErrors.ErrAccountNotFound
}

func (m *MockAccountRepository) SetDefault(userID, accountID string) error {
	target, ok := m.Accounts[accountID]
	if !ok || target.UserID != userID {
		return financeErrors.ErrAccountNotFound
	}
	for id, a := range m.Accounts {
		if a.UserID == userID {
			a.IsDefault = id == accountID
			m.Accounts[id] = a
		}
	}
	return nil
}

func (m *MockAccountRepository) Delete(accountID string) error {
	if _, ok := m.Accounts[accountID]; !ok {
		return financeErrors.ErrAccountNotFound
	}
	delete(m.Accounts, accountID)
	return nil
}

func (m *MockAccountRepository) adjustBalance(accountID string, delta decimal.Decimal) {
	if account, ok := m.Accounts[accountID]; ok {
		account.Balance = account.Balance.Add(delta)
		m.Accounts[accountID] = account
	}
}
