package application

import (
	"context"
	"fmt"
	"time"

	"github.com/finflow/finflow/internal/clock"
	emailService "github.com/finflow/finflow/internal/email"
	"github.com/finflow/finflow/internal/finance/domain"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// InsightsGenerator produces the natural-language commentary for a monthly
// report. Implementations must not fail; they fall back to generic insights.
type InsightsGenerator interface {
	GenerateMonthlyInsights(ctx context.Context, stats domain.MonthlyStats) []string
}

type ReportService struct {
	txRepo   domain.TransactionRepository
	users    UserDirectory
	insights InsightsGenerator
	email    emailService.EmailSender
	clock    clock.Clock
	logger   zerolog.Logger
}

func NewReportService(
	txRepo domain.TransactionRepository,
	users UserDirectory,
	insights InsightsGenerator,
	email emailService.EmailSender,
	clk clock.Clock,
	logger zerolog.Logger,
) *ReportService {
	return &ReportService{
		txRepo:   txRepo,
		users:    users,
		insights: insights,
		email:    email,
		clock:    clk,
		logger:   logger,
	}
}

// GenerateMonthlyReports emails every user a summary of the prior calendar
// month. Per-user failures are logged without aborting the batch.
func (s *ReportService) GenerateMonthlyReports(ctx context.Context) error {
	users, err := s.users.ListUsers()
	if err != nil {
		return err
	}

	now := s.clock.Now()
	currentMonthStart, _ := monthBounds(now)
	monthStart := currentMonthStart.AddDate(0, -1, 0)
	monthEnd := currentMonthStart

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, u := range users {
		u := u
		g.Go(func() error {
			if err := s.reportForUser(ctx, u.ID, u.Email, u.Name, monthStart, monthEnd); err != nil {
				s.logger.Error().Err(err).Str("user_id", u.ID).Msg("Failed to generate monthly report")
			}
			return nil
		})
	}
	g.Wait()

	s.logger.Info().
		Int("users", len(users)).
		Str("month", monthStart.Format("2006-01")).
		Msg("Monthly report run complete")
	return nil
}

func (s *ReportService) reportForUser(ctx context.Context, userID, email, name string, monthStart, monthEnd time.Time) error {
	transactions, err := s.txRepo.FindInDateRange(userID, monthStart, monthEnd)
	if err != nil {
		return fmt.Errorf("load transactions: %w", err)
	}

	stats := domain.MonthlyStatsFor(transactions, monthStart)
	insights := s.insights.GenerateMonthlyInsights(ctx, stats)

	data := emailService.MonthlyReportData{
		UserName:      name,
		Month:         monthStart.Format("January 2006"),
		TotalIncome:   stats.TotalIncome.StringFixed(2),
		TotalExpenses: stats.TotalExpenses.StringFixed(2),
		Net:           stats.TotalIncome.Sub(stats.TotalExpenses).StringFixed(2),
		Insights:      insights,
	}
	for _, summary := range domain.AggregateByCategory(transactions, domain.TransactionTypeExpense) {
		data.ByCategory = append(data.ByCategory, emailService.CategoryLine{
			Category: summary.Category,
			Total:    summary.Total.StringFixed(2),
		})
	}

	if err := s.email.SendEmail(email, data); err != nil {
		return fmt.Errorf("send report: %w", err)
	}
	return nil
}
