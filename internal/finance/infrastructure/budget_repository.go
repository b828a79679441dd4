package infrastructure

import (
	"database/sql"
	"errors"
	"time"

	"github.com/finflow/finflow/internal/finance/domain"
	financeErrors "github.com/finflow/finflow/internal/finance/errors"
)

type BudgetRepository struct {
	db *sql.DB
}

func NewBudgetRepository(db *sql.DB) *BudgetRepository {
	return &BudgetRepository{db: db}
}

const budgetColumns = `id, user_id, amount, last_alert_sent, created_at, updated_at`

func scanBudget(row interface{ Scan(...any) error }) (*domain.Budget, error) {
	var budget domain.Budget
	err := row.Scan(&budget.ID, &budget.UserID, &budget.Amount,
		&budget.LastAlertSent, &budget.CreatedAt, &budget.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &budget, nil
}

// Upsert creates or replaces the user's single budget ceiling. The alert
// timestamp survives amount changes.
func (r *BudgetRepository) Upsert(budget domain.Budget) error {
	_, err := r.db.Exec(
		`INSERT INTO budgets (id, user_id, amount)
         VALUES ($1, $2, $3)
         ON CONFLICT (user_id) DO UPDATE SET amount = EXCLUDED.amount, updated_at = NOW()`,
		budget.ID, budget.UserID, budget.Amount,
	)
	return err
}

func (r *BudgetRepository) FindByUser(userID string) (*domain.Budget, error) {
	row := r.db.QueryRow(`SELECT `+budgetColumns+` FROM budgets WHERE user_id = $1`, userID)
	budget, err := scanBudget(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, financeErrors.ErrBudgetNotFound
	}
	return budget, err
}

func (r *BudgetRepository) All() ([]domain.Budget, error) {
	rows, err := r.db.Query(`SELECT ` + budgetColumns + ` FROM budgets`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var budgets []domain.Budget
	for rows.Next() {
		budget, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		budgets = append(budgets, *budget)
	}
	return budgets, rows.Err()
}

func (r *BudgetRepository) UpdateLastAlertSent(budgetID string, sentAt time.Time) error {
	res, err := r.db.Exec(
		`UPDATE budgets SET last_alert_sent = $2, updated_at = NOW() WHERE id = $1`,
		budgetID, sentAt,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return financeErrors.ErrBudgetNotFound
	}
	return nil
}
