package infrastructure

import (
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/finflow/finflow/internal/finance/domain"
	financeErrors "github.com/finflow/finflow/internal/finance/errors"
	"github.com/shopspring/decimal"
)

type TransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

const transactionColumns = `id, user_id, account_id, type, amount, category, description, date,
    status, is_recurring, recurring_interval, next_recurring_date, last_processed, created_at, updated_at`

func scanTransaction(row interface{ Scan(...any) error }) (*domain.Transaction, error) {
	var t domain.Transaction
	var interval sql.NullString
	err := row.Scan(&t.ID, &t.UserID, &t.AccountID, &t.Type, &t.Amount, &t.Category,
		&t.Description, &t.Date, &t.Status, &t.IsRecurring, &interval,
		&t.NextRecurringDate, &t.LastProcessed, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if interval.Valid {
		i := domain.RecurringInterval(interval.String)
		t.RecurringInterval = &i
	}
	return &t, nil
}

func intervalValue(t domain.Transaction) any {
	if t.RecurringInterval == nil {
		return nil
	}
	return string(*t.RecurringInterval)
}

func insertTransaction(tx *sql.Tx, t domain.Transaction) error {
	_, err := tx.Exec(
		`INSERT INTO transactions
         (id, user_id, account_id, type, amount, category, description, date, status,
          is_recurring, recurring_interval, next_recurring_date, last_processed)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		t.ID, t.UserID, t.AccountID, t.Type, t.Amount, t.Category, t.Description, t.Date,
		t.Status, t.IsRecurring, intervalValue(t), t.NextRecurringDate, t.LastProcessed,
	)
	return err
}

func adjustBalance(tx *sql.Tx, accountID string, delta decimal.Decimal) error {
	if delta.IsZero() {
		return nil
	}
	_, err := tx.Exec(
		`UPDATE accounts SET balance = balance + $2, updated_at = NOW() WHERE id = $1`,
		accountID, delta,
	)
	return err
}

func (r *TransactionRepository) SaveWithBalance(t domain.Transaction, delta decimal.Decimal) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insertTransaction(tx, t); err != nil {
		return err
	}
	if err := adjustBalance(tx, t.AccountID, delta); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *TransactionRepository) FindByID(transactionID string) (*domain.Transaction, error) {
	row := r.db.QueryRow(`SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, transactionID)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, financeErrors.ErrTransactionNotFound
	}
	return t, err
}

func (r *TransactionRepository) FindByUser(userID string, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE user_id = $1`
	args := []any{userID}

	if filter.AccountID != "" {
		args = append(args, filter.AccountID)
		query += ` AND account_id = $2`
	}
	if filter.Type != "" {
		args = append(args, filter.Type)
		query += ` AND type = $` + strconv.Itoa(len(args))
	}
	if !filter.StartDate.IsZero() {
		args = append(args, filter.StartDate)
		query += ` AND date >= $` + strconv.Itoa(len(args))
	}
	if !filter.EndDate.IsZero() {
		args = append(args, filter.EndDate)
		query += ` AND date < $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY date DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
		if filter.Page > 1 {
			args = append(args, (filter.Page-1)*filter.Limit)
			query += ` OFFSET $` + strconv.Itoa(len(args))
		}
	}

	return r.queryTransactions(query, args...)
}

func (r *TransactionRepository) FindInDateRange(userID string, startDate, endDate time.Time) ([]domain.Transaction, error) {
	return r.queryTransactions(
		`SELECT `+transactionColumns+` FROM transactions
         WHERE user_id = $1 AND date >= $2 AND date < $3 ORDER BY date`,
		userID, startDate, endDate,
	)
}

func (r *TransactionRepository) queryTransactions(query string, args ...any) ([]domain.Transaction, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transactions []domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, *t)
	}
	return transactions, rows.Err()
}

func (r *TransactionRepository) UpdateWithBalance(t domain.Transaction, delta decimal.Decimal) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`UPDATE transactions
         SET type = $2, amount = $3, category = $4, description = $5, date = $6, status = $7,
             is_recurring = $8, recurring_interval = $9, next_recurring_date = $10,
             last_processed = $11, updated_at = NOW()
         WHERE id = $1`,
		t.ID, t.Type, t.Amount, t.Category, t.Description, t.Date, t.Status,
		t.IsRecurring, intervalValue(t), t.NextRecurringDate, t.LastProcessed,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return financeErrors.ErrTransactionNotFound
	}
	if err := adjustBalance(tx, t.AccountID, delta); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *TransactionRepository) DeleteWithBalance(transactionID, accountID string, delta decimal.Decimal) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`DELETE FROM transactions WHERE id = $1`, transactionID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return financeErrors.ErrTransactionNotFound
	}
	if err := adjustBalance(tx, accountID, delta); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *TransactionRepository) DeleteBulkWithBalance(userID string, transactionIDs []string, deltas map[string]decimal.Decimal) (int, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	deleted := 0
	for _, id := range transactionIDs {
		res, err := tx.Exec(`DELETE FROM transactions WHERE id = $1 AND user_id = $2`, id, userID)
		if err != nil {
			return 0, err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		deleted += int(affected)
	}
	for accountID, delta := range deltas {
		if err := adjustBalance(tx, accountID, delta); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return deleted, nil
}

func (r *TransactionRepository) FindDueRecurring(now time.Time) ([]domain.Transaction, error) {
	return r.queryTransactions(
		`SELECT `+transactionColumns+` FROM transactions
         WHERE is_recurring AND status = 'completed'
           AND (last_processed IS NULL OR next_recurring_date <= $1)`,
		now,
	)
}

func (r *TransactionRepository) ApplyRecurrence(instance domain.Transaction, templateID string, expectedLastProcessed *time.Time, lastProcessed, nextDue time.Time) (bool, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	// Conditional update first: it is the idempotency guard. A concurrent run
	// that already advanced last_processed makes this a zero-row update.
	res, err := tx.Exec(
		`UPDATE transactions
         SET last_processed = $2, next_recurring_date = $3, updated_at = NOW()
         WHERE id = $1 AND last_processed IS NOT DISTINCT FROM $4`,
		templateID, lastProcessed, nextDue, expectedLastProcessed,
	)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 0 {
		return false, nil
	}

	if err := insertTransaction(tx, instance); err != nil {
		return false, err
	}
	if err := adjustBalance(tx, instance.AccountID, instance.SignedAmount()); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

func (r *TransactionRepository) SumExpensesInRange(accountID string, startDate, endDate time.Time) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.QueryRow(
		`SELECT COALESCE(SUM(amount), 0) FROM transactions
         WHERE account_id = $1 AND type = 'expense' AND date >= $2 AND date < $3`,
		accountID, startDate, endDate,
	).Scan(&total)
	return total, err
}
