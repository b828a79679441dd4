package domain

import (
	"time"

	"github.com/finflow/finflow/internal/finance/errors"
	"github.com/shopspring/decimal"
)

const (
	AccountTypeChecking = "checking"
	AccountTypeSavings  = "savings"
)

type Account struct {
	ID        string
	UserID    string // user UUID
	Name      string
	Type      string // "checking" or "savings"
	Balance   decimal.Decimal
	IsDefault bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type AccountRepository interface {
	Save(account Account) error
	FindByID(accountID string) (*Account, error)
	FindByUser(userID string) ([]Account, error)
	FindDefaultByUser(userID string) (*Account, error)
	SetDefault(userID, accountID string) error
	Delete(accountID string) error
}

func (a *Account) Validate() error {
	if a.Name == "" {
		return errors.NewValidationError("Account name must not be empty")
	}
	if len(a.Name) > 100 {
		return errors.NewValidationError("Account name must be of length less than 100")
	}
	if a.Type != AccountTypeChecking && a.Type != AccountTypeSavings {
		return errors.NewValidationError("Type must be 'checking' or 'savings'")
	}
	return nil
}
