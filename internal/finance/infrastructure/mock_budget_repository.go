package infrastructure

import (
	"time"

	"github.com/finflow/finflow/internal/finance/domain"
	financeErrors "github.com/finflow/finflow/internal/finance/errors"
)

// MockBudgetRepository is an in-memory BudgetRepository used by service tests.
type MockBudgetRepository struct {
	Budgets map[string]domain.Budget
}

func NewMockBudgetRepository() *MockBudgetRepository {
	return &MockBudgetRepository{Budgets: make(map[string]domain.Budget)}
}

func (m *MockBudgetRepository) Upsert(budget domain.Budget) error {
	for id, b := range m.Budgets {
		if b.UserID == budget.UserID {
			b.Amount = budget.Amount
			m.Budgets[id] = b
			return nil
		}
	}
	m.Budgets[budget.ID] = budget
	return nil
}

func (m *MockBudgetRepository) FindByUser(userID string) (*domain.Budget, error) {
	for _, b := range m.Budgets {
		if b.UserID == userID {
			budget := b
			return &budget, nil
		}
	}
	return nil, financeErrors.ErrBudgetNotFound
}

func (m *MockBudgetRepository) All() ([]domain.Budget, error) {
	budgets := make([]domain.Budget, 0, len(m.Budgets))
	for _, b := range m.Budgets {
		budgets = append(budgets, b)
	}
	return budgets, nil
}

func (m *MockBudgetRepository) UpdateLastAlertSent(budgetID string, sentAt time.Time) error {
	budget, ok := m.Budgets[budgetID]
	if !ok {
		return financeErrors.ErrBudgetNotFound
	}
	t := sentAt
	budget.LastAlertSent = &t
	m.Budgets[budgetID] = budget
	return nil
}
