package domain

import (
	"time"

	"github.com/finflow/finflow/internal/finance/errors"
	"github.com/shopspring/decimal"
)

const (
	TransactionTypeIncome  = "income"
	TransactionTypeExpense = "expense"

	TransactionStatusPending   = "pending"
	TransactionStatusCompleted = "completed"
)

type Transaction struct {
	ID                string
	UserID            string // user UUID
	AccountID         string
	Type              string // "income" or "expense"
	Amount            decimal.Decimal // always positive, sign derives from Type
	Category          string
	Description       string
	Date              time.Time
	Status            string // "pending" or "completed"
	IsRecurring       bool
	RecurringInterval *RecurringInterval
	NextRecurringDate *time.Time
	LastProcessed     *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type TransactionFilter struct {
	AccountID string
	Type      string
	StartDate time.Time
	EndDate   time.Time
	Limit     int
	Page      int
}

type TransactionRepository interface {
	// SaveWithBalance inserts the transaction and applies delta to the owning
	// account's balance inside a single database transaction.
	SaveWithBalance(transaction Transaction, delta decimal.Decimal) error
	FindByID(transactionID string) (*Transaction, error)
	FindByUser(userID string, filter TransactionFilter) ([]Transaction, error)
	FindInDateRange(userID string, startDate, endDate time.Time) ([]Transaction, error)
	UpdateWithBalance(transaction Transaction, delta decimal.Decimal) error
	DeleteWithBalance(transactionID, accountID string, delta decimal.Decimal) error
	// DeleteBulkWithBalance removes the given transactions and applies the
	// per-account balance deltas atomically. Returns the number of rows deleted.
	DeleteBulkWithBalance(userID string, transactionIDs []string, deltas map[string]decimal.Decimal) (int, error)
	FindDueRecurring(now time.Time) ([]Transaction, error)
	// ApplyRecurrence atomically inserts the generated instance, adjusts the
	// account balance and advances the template's recurrence bookkeeping.
	// The template row is updated only while last_processed still equals
	// expectedLastProcessed; returns false when another run got there first.
	ApplyRecurrence(instance Transaction, templateID string, expectedLastProcessed *time.Time, lastProcessed, nextDue time.Time) (bool, error)
	SumExpensesInRange(accountID string, startDate, endDate time.Time) (decimal.Decimal, error)
}

// SignedAmount returns the amount as it affects the account balance:
// positive for income, negative for expense.
func (t *Transaction) SignedAmount() decimal.Decimal {
	if t.Type == TransactionTypeExpense {
		return t.Amount.Neg()
	}
	return t.Amount
}

func (t *Transaction) Validate() error {
	if t.Type != TransactionTypeIncome && t.Type != TransactionTypeExpense {
		return errors.NewValidationError("Type must be 'income' or 'expense'")
	}
	if t.Amount.IsNegative() {
		return errors.NewValidationError("Amount must not be negative")
	}
	if t.AccountID == "" {
		return errors.NewValidationError("Account ID must be provided")
	}
	if len(t.Description) > 200 {
		return errors.NewValidationError("Description must be of length less than 200")
	}
	if t.Status != "" && t.Status != TransactionStatusPending && t.Status != TransactionStatusCompleted {
		return errors.NewValidationError("Status must be 'pending' or 'completed'")
	}
	if t.IsRecurring {
		if t.RecurringInterval == nil {
			return errors.NewValidationError("Recurring transactions require an interval")
		}
		if !t.RecurringInterval.Valid() {
			return errors.NewValidationError("Interval must be one of DAILY, WEEKLY, MONTHLY, YEARLY")
		}
	}
	return nil
}
