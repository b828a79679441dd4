package application

import (
	"time"

	"github.com/finflow/finflow/internal/clock"
	"github.com/finflow/finflow/internal/finance/domain"
	financeErrors "github.com/finflow/finflow/internal/finance/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionService owns the balance invariant: every create, update and
// delete passes the matching signed delta to the repository, which applies
// it to the owning account inside the same database transaction.
type TransactionService struct {
	repo        domain.TransactionRepository
	accountRepo domain.AccountRepository
	clock       clock.Clock
}

func NewTransactionService(repo domain.TransactionRepository, accountRepo domain.AccountRepository, clk clock.Clock) *TransactionService {
	return &TransactionService{repo: repo, accountRepo: accountRepo, clock: clk}
}

func (s *TransactionService) CreateTransaction(transaction *domain.Transaction) error {
	transaction.ID = uuid.NewString()
	transaction.Amount = transaction.Amount.Round(2)
	if transaction.Status == "" {
		transaction.Status = domain.TransactionStatusCompleted
	}
	if transaction.Date.IsZero() {
		transaction.Date = s.clock.Now()
	}
	if err := transaction.Validate(); err != nil {
		return err
	}
	if err := s.checkAccountOwnership(transaction.UserID, transaction.AccountID); err != nil {
		return err
	}

	if transaction.IsRecurring {
		next, err := domain.NextRecurringDate(transaction.Date, *transaction.RecurringInterval)
		if err != nil {
			return financeErrors.NewValidationError(err.Error())
		}
		transaction.NextRecurringDate = &next
	}

	return s.repo.SaveWithBalance(*transaction, transaction.SignedAmount())
}

func (s *TransactionService) GetTransaction(userID, transactionID string) (*domain.Transaction, error) {
	transaction, err := s.repo.FindByID(transactionID)
	if err != nil {
		return nil, err
	}
	if transaction.UserID != userID {
		return nil, financeErrors.ErrTransactionNotFound
	}
	return transaction, nil
}

func (s *TransactionService) GetUserTransactions(userID string, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	return s.repo.FindByUser(userID, filter)
}

func (s *TransactionService) UpdateTransaction(transaction domain.Transaction) error {
	existing, err := s.GetTransaction(transaction.UserID, transaction.ID)
	if err != nil {
		return err
	}
	if transaction.AccountID != existing.AccountID {
		return financeErrors.NewValidationError("Account cannot be changed on an existing transaction")
	}

	transaction.Amount = transaction.Amount.Round(2)
	if transaction.Status == "" {
		transaction.Status = existing.Status
	}
	if err := transaction.Validate(); err != nil {
		return err
	}

	// Recurrence bookkeeping survives the update unless recurrence was
	// switched off or its interval changed.
	transaction.LastProcessed = existing.LastProcessed
	transaction.NextRecurringDate = existing.NextRecurringDate
	if !transaction.IsRecurring {
		transaction.RecurringInterval = nil
		transaction.NextRecurringDate = nil
		transaction.LastProcessed = nil
	} else if existing.RecurringInterval == nil || *transaction.RecurringInterval != *existing.RecurringInterval {
		next, err := domain.NextRecurringDate(transaction.Date, *transaction.RecurringInterval)
		if err != nil {
			return financeErrors.NewValidationError(err.Error())
		}
		transaction.NextRecurringDate = &next
	}

	delta := transaction.SignedAmount().Sub(existing.SignedAmount())
	return s.repo.UpdateWithBalance(transaction, delta)
}

func (s *TransactionService) DeleteTransaction(userID, transactionID string) error {
	existing, err := s.GetTransaction(userID, transactionID)
	if err != nil {
		return err
	}
	return s.repo.DeleteWithBalance(transactionID, existing.AccountID, existing.SignedAmount().Neg())
}

// DeleteTransactionsBulk removes the given transactions and restores every
// affected account's balance in one atomic operation.
func (s *TransactionService) DeleteTransactionsBulk(userID string, transactionIDs []string) (int, error) {
	if len(transactionIDs) == 0 {
		return 0, financeErrors.NewValidationError("No transaction IDs provided")
	}

	deltas := make(map[string]decimal.Decimal)
	var owned []string
	seen := make(map[string]bool, len(transactionIDs))
	for _, id := range transactionIDs {
		// A repeated ID must count its delta once; the DELETE only removes
		// the row once.
		if seen[id] {
			continue
		}
		seen[id] = true
		existing, err := s.GetTransaction(userID, id)
		if err != nil {
			if financeErrors.IsNotFoundError(err) {
				continue
			}
			return 0, err
		}
		deltas[existing.AccountID] = deltas[existing.AccountID].Add(existing.SignedAmount().Neg())
		owned = append(owned, id)
	}
	if len(owned) == 0 {
		return 0, nil
	}
	return s.repo.DeleteBulkWithBalance(userID, owned, deltas)
}

func (s *TransactionService) GetTransactionSummaryByCategory(userID string, startDate, endDate time.Time, transactionType string) ([]domain.CategorySummary, error) {
	transactions, err := s.repo.FindInDateRange(userID, startDate, endDate)
	if err != nil {
		return nil, err
	}
	return domain.AggregateByCategory(transactions, transactionType), nil
}

func (s *TransactionService) checkAccountOwnership(userID, accountID string) error {
	account, err := s.accountRepo.FindByID(accountID)
	if err != nil {
		return err
	}
	if account.UserID != userID {
		return financeErrors.ErrAccountNotFound
	}
	return nil
}
