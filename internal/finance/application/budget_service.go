package application

import (
	"time"

	"github.com/finflow/finflow/internal/clock"
	emailService "github.com/finflow/finflow/internal/email"
	"github.com/finflow/finflow/internal/finance/domain"
	financeErrors "github.com/finflow/finflow/internal/finance/errors"
	"github.com/finflow/finflow/internal/user"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var alertThreshold = decimal.NewFromInt(80)

// UserDirectory is the slice of the user service the batch jobs need.
type UserDirectory interface {
	GetUserByID(userID string) (*user.User, error)
	ListUsers() ([]user.User, error)
}

type BudgetService struct {
	budgetRepo  domain.BudgetRepository
	accountRepo domain.AccountRepository
	txRepo      domain.TransactionRepository
	users       UserDirectory
	email       emailService.EmailSender
	clock       clock.Clock
	logger      zerolog.Logger
}

func NewBudgetService(
	budgetRepo domain.BudgetRepository,
	accountRepo domain.AccountRepository,
	txRepo domain.TransactionRepository,
	users UserDirectory,
	email emailService.EmailSender,
	clk clock.Clock,
	logger zerolog.Logger,
) *BudgetService {
	return &BudgetService{
		budgetRepo:  budgetRepo,
		accountRepo: accountRepo,
		txRepo:      txRepo,
		users:       users,
		email:       email,
		clock:       clk,
		logger:      logger,
	}
}

func (s *BudgetService) UpsertBudget(userID string, amount decimal.Decimal) (*domain.Budget, error) {
	budget := domain.Budget{
		ID:     uuid.NewString(),
		UserID: userID,
		Amount: amount.Round(2),
	}
	if err := budget.Validate(); err != nil {
		return nil, err
	}
	if err := s.budgetRepo.Upsert(budget); err != nil {
		return nil, err
	}
	return s.budgetRepo.FindByUser(userID)
}

// GetBudgetWithUsage returns the user's budget together with this month's
// expense total on the default account. No default account means zero usage.
func (s *BudgetService) GetBudgetWithUsage(userID string) (*domain.Budget, decimal.Decimal, error) {
	budget, err := s.budgetRepo.FindByUser(userID)
	if err != nil {
		return nil, decimal.Zero, err
	}

	account, err := s.accountRepo.FindDefaultByUser(userID)
	if err != nil {
		if financeErrors.IsNotFoundError(err) {
			return budget, decimal.Zero, nil
		}
		return nil, decimal.Zero, err
	}

	monthStart, monthEnd := monthBounds(s.clock.Now())
	expenses, err := s.txRepo.SumExpensesInRange(account.ID, monthStart, monthEnd)
	if err != nil {
		return nil, decimal.Zero, err
	}
	return budget, expenses, nil
}

// CheckBudgetAlerts recomputes current-month usage for every budget and
// sends an alert email where due. Per-budget failures are logged and
// skipped; only a failure to list budgets aborts the run so the scheduler
// sees it.
func (s *BudgetService) CheckBudgetAlerts() error {
	budgets, err := s.budgetRepo.All()
	if err != nil {
		return err
	}

	now := s.clock.Now()
	monthStart, monthEnd := monthBounds(now)

	for _, budget := range budgets {
		account, err := s.accountRepo.FindDefaultByUser(budget.UserID)
		if err != nil {
			if !financeErrors.IsNotFoundError(err) {
				s.logger.Error().Err(err).Str("user_id", budget.UserID).Msg("Failed to resolve default account")
			}
			continue
		}

		expenses, err := s.txRepo.SumExpensesInRange(account.ID, monthStart, monthEnd)
		if err != nil {
			s.logger.Error().Err(err).Str("account_id", account.ID).Msg("Failed to sum monthly expenses")
			continue
		}

		percentageUsed := budget.PercentageUsed(expenses)
		if !s.shouldAlert(budget, percentageUsed, now) {
			continue
		}

		owner, err := s.users.GetUserByID(budget.UserID)
		if err != nil {
			s.logger.Error().Err(err).Str("user_id", budget.UserID).Msg("Failed to load budget owner")
			continue
		}

		data := emailService.BudgetAlertData{
			UserName:       owner.Name,
			AccountName:    account.Name,
			BudgetAmount:   budget.Amount.StringFixed(2),
			TotalExpenses:  expenses.StringFixed(2),
			PercentageUsed: percentageUsed.StringFixed(1),
		}
		if err := s.email.SendEmail(owner.Email, data); err != nil {
			// Leave last_alert_sent untouched so the next run retries.
			s.logger.Error().Err(err).Str("user_id", budget.UserID).Msg("Failed to send budget alert")
			continue
		}

		if err := s.budgetRepo.UpdateLastAlertSent(budget.ID, now); err != nil {
			s.logger.Error().Err(err).Str("budget_id", budget.ID).Msg("Failed to record alert timestamp")
			continue
		}

		s.logger.Info().
			Str("user_id", budget.UserID).
			Str("percentage_used", percentageUsed.StringFixed(1)).
			Msg("Sent budget alert")
	}
	return nil
}

// shouldAlert fires at 80% usage for a never-alerted budget, and once per
// calendar month thereafter. The month-rollover branch intentionally fires
// regardless of percentage.
func (s *BudgetService) shouldAlert(budget domain.Budget, percentageUsed decimal.Decimal, now time.Time) bool {
	if budget.LastAlertSent == nil {
		return percentageUsed.GreaterThanOrEqual(alertThreshold)
	}
	return !sameMonth(*budget.LastAlertSent, now)
}

func sameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}

func monthBounds(now time.Time) (time.Time, time.Time) {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return start, start.AddDate(0, 1, 0)
}
