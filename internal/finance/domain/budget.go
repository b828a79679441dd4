package domain

import (
	"time"

	"github.com/finflow/finflow/internal/finance/errors"
	"github.com/shopspring/decimal"
)

// Budget is the single monthly spending ceiling a user can set.
type Budget struct {
	ID            string
	UserID        string // user UUID
	Amount        decimal.Decimal
	LastAlertSent *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type BudgetRepository interface {
	Upsert(budget Budget) error
	FindByUser(userID string) (*Budget, error)
	All() ([]Budget, error)
	UpdateLastAlertSent(budgetID string, sentAt time.Time) error
}

func (b *Budget) Validate() error {
	if !b.Amount.IsPositive() {
		return errors.NewValidationError("Budget amount must be greater than zero")
	}
	return nil
}

// PercentageUsed returns expenses/ceiling in percent. Zero ceiling yields zero.
func (b *Budget) PercentageUsed(expenses decimal.Decimal) decimal.Decimal {
	if b.Amount.IsZero() {
		return decimal.Zero
	}
	return expenses.Div(b.Amount).Mul(decimal.NewFromInt(100))
}
