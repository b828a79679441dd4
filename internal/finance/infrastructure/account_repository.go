package infrastructure

import (
	"database/sql"
	"errors"

	"github.com/finflow/finflow/internal/finance/domain"
	financeErrors "github.com/finflow/finflow/internal/finance/errors"
)

type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

const accountColumns = `id, user_id, name, type, balance, is_default, created_at, updated_at`

func scanAccount(row interface{ Scan(...any) error }) (*domain.Account, error) {
	var account domain.Account
	err := row.Scan(&account.ID, &account.UserID, &account.Name, &account.Type,
		&account.Balance, &account.IsDefault, &account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *AccountRepository) Save(account domain.Account) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if account.IsDefault {
		if _, err := tx.Exec(
			`UPDATE accounts SET is_default = FALSE, updated_at = NOW() WHERE user_id = $1 AND is_default`,
			account.UserID,
		); err != nil {
			return err
		}
	}

	_, err = tx.Exec(
		`INSERT INTO accounts (id, user_id, name, type, balance, is_default)
         VALUES ($1, $2, $3, $4, $5, $6)`,
		account.ID, account.UserID, account.Name, account.Type, account.Balance, account.IsDefault,
	)
	if err != nil {
		return err
	}
	return tx.Commit()
}

func (r *AccountRepository) FindByID(accountID string) (*domain.Account, error) {
	row := r.db.QueryRow(`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, accountID)
	account, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, financeErrors.ErrAccountNotFound
	}
	return account, err
}

func (r *AccountRepository) FindByUser(userID string) ([]domain.Account, error) {
	rows, err := r.db.Query(
		`SELECT `+accountColumns+` FROM accounts WHERE user_id = $1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *account)
	}
	return accounts, rows.Err()
}

func (r *AccountRepository) FindDefaultByUser(userID string) (*domain.Account, error) {
	row := r.db.QueryRow(
		`SELECT `+accountColumns+` FROM accounts WHERE user_id = $1 AND is_default`, userID)
	account, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, financeErrors.ErrAccountNotFound
	}
	return account, err
}

// SetDefault makes accountID the user's only default account.
func (r *AccountRepository) SetDefault(userID, accountID string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`UPDATE accounts SET is_default = FALSE, updated_at = NOW() WHERE user_id = $1 AND is_default`,
		userID,
	); err != nil {
		return err
	}

	res, err := tx.Exec(
		`UPDATE accounts SET is_default = TRUE, updated_at = NOW() WHERE id = $1 AND user_id = $2`,
		accountID, userID,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return financeErrors.ErrAccountNotFound
	}
	return tx.Commit()
}

func (r *AccountRepository) Delete(accountID string) error {
	res, err := r.db.Exec(`DELETE FROM accounts WHERE id = $1`, accountID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return financeErrors.ErrAccountNotFound
	}
	return nil
}
