package application

import (
	"context"

	"github.com/finflow/finflow/internal/clock"
	"github.com/finflow/finflow/internal/finance/domain"
	financeErrors "github.com/finflow/finflow/internal/finance/errors"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RecurringPublisher hands one due recurring transaction to a worker.
type RecurringPublisher interface {
	PublishRecurringTransaction(ctx context.Context, transactionID, userID string) error
}

type ProcessStatus string

const (
	StatusProcessed ProcessStatus = "processed"
	StatusSkipped   ProcessStatus = "skipped"
)

type ProcessResult struct {
	Status ProcessStatus
	Reason string
}

func skipped(reason string) ProcessResult {
	return ProcessResult{Status: StatusSkipped, Reason: reason}
}

// RecurringService implements the recurrence engine: the daily scan that
// decides what is due, and the processor that applies one due transaction.
// When no publisher is configured the scan processes matches inline.
type RecurringService struct {
	repo      domain.TransactionRepository
	publisher RecurringPublisher
	clock     clock.Clock
	logger    zerolog.Logger
}

func NewRecurringService(repo domain.TransactionRepository, publisher RecurringPublisher, clk clock.Clock, logger zerolog.Logger) *RecurringService {
	return &RecurringService{
		repo:      repo,
		publisher: publisher,
		clock:     clk,
		logger:    logger,
	}
}

// ProcessRecurringTransaction applies one due recurring transaction: it
// inserts the generated instance, adjusts the account balance and advances
// the template's recurrence bookkeeping, all atomically. Anything that makes
// the transaction inapplicable reports a skip, not an error.
func (s *RecurringService) ProcessRecurringTransaction(ctx context.Context, transactionID, userID string) (ProcessResult, error) {
	template, err := s.repo.FindByID(transactionID)
	if err != nil {
		if financeErrors.IsNotFoundError(err) {
			return skipped("transaction not found"), nil
		}
		return ProcessResult{}, err
	}
	if template.UserID != userID {
		return skipped("transaction not found"), nil
	}
	if !template.IsRecurring || template.RecurringInterval == nil {
		return skipped("not a recurring transaction"), nil
	}

	now := s.clock.Now()
	if !template.IsDue(now) {
		return skipped("not due"), nil
	}

	nextDue, err := domain.NextRecurringDate(now, *template.RecurringInterval)
	if err != nil {
		return ProcessResult{}, err
	}

	instance := domain.Transaction{
		ID:          uuid.NewString(),
		UserID:      template.UserID,
		AccountID:   template.AccountID,
		Type:        template.Type,
		Amount:      template.Amount,
		Category:    template.Category,
		Description: template.Description + " (Recurring)",
		Date:        now,
		Status:      domain.TransactionStatusCompleted,
	}

	applied, err := s.repo.ApplyRecurrence(instance, template.ID, template.LastProcessed, now, nextDue)
	if err != nil {
		return ProcessResult{}, err
	}
	if !applied {
		// Another run advanced last_processed since we read the template.
		return skipped("already processed"), nil
	}

	s.logger.Info().
		Str("transaction_id", template.ID).
		Str("user_id", template.UserID).
		Str("amount", template.Amount.StringFixed(2)).
		Time("next_due", nextDue).
		Msg("Processed recurring transaction")
	return ProcessResult{Status: StatusProcessed}, nil
}

// TriggerDueTransactions scans for due recurring transactions and emits one
// unit of work per match. Returns the number of transactions triggered.
func (s *RecurringService) TriggerDueTransactions(ctx context.Context) (int, error) {
	now := s.clock.Now()
	due, err := s.repo.FindDueRecurring(now)
	if err != nil {
		return 0, err
	}

	s.logger.Info().
		Int("due", len(due)).
		Time("scan_time", now).
		Msg("Scanning recurring transactions")

	triggered := 0
	for _, t := range due {
		if s.publisher != nil {
			if err := s.publisher.PublishRecurringTransaction(ctx, t.ID, t.UserID); err != nil {
				s.logger.Error().Err(err).
					Str("transaction_id", t.ID).
					Msg("Failed to publish recurring transaction")
				continue
			}
		} else {
			result, err := s.ProcessRecurringTransaction(ctx, t.ID, t.UserID)
			if err != nil {
				s.logger.Error().Err(err).
					Str("transaction_id", t.ID).
					Msg("Failed to process recurring transaction")
				continue
			}
			if result.Status == StatusSkipped {
				s.logger.Info().
					Str("transaction_id", t.ID).
					Str("reason", result.Reason).
					Msg("Skipped recurring transaction")
				continue
			}
		}
		triggered++
	}
	return triggered, nil
}
