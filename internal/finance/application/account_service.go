package application

import (
	"github.com/finflow/finflow/internal/finance/domain"
	financeErrors "github.com/finflow/finflow/internal/finance/errors"
	"github.com/google/uuid"
)

type AccountService struct {
	repo domain.AccountRepository
}

func NewAccountService(repo domain.AccountRepository) *AccountService {
	return &AccountService{repo: repo}
}

func (s *AccountService) CreateAccount(account *domain.Account) error {
	account.ID = uuid.NewString()
	account.Balance = account.Balance.Round(2)
	if err := account.Validate(); err != nil {
		return err
	}
	// First account becomes the default automatically. Only a confirmed
	// "no default exists" may promote; lookup failures must not steal the
	// flag from the real default.
	if !account.IsDefault {
		if _, err := s.repo.FindDefaultByUser(account.UserID); err != nil {
			if !financeErrors.IsNotFoundError(err) {
				return err
			}
			account.IsDefault = true
		}
	}
	return s.repo.Save(*account)
}

func (s *AccountService) GetUserAccounts(userID string) ([]domain.Account, error) {
	return s.repo.FindByUser(userID)
}

func (s *AccountService) GetAccount(userID, accountID string) (*domain.Account, error) {
	account, err := s.repo.FindByID(accountID)
	if err != nil {
		return nil, err
	}
	if account.UserID != userID {
		// Do not reveal other users' account ids.
		return nil, financeErrors.ErrAccountNotFound
	}
	return account, nil
}

func (s *AccountService) SetDefaultAccount(userID, accountID string) error {
	if _, err := s.GetAccount(userID, accountID); err != nil {
		return err
	}
	return s.repo.SetDefault(userID, accountID)
}

func (s *AccountService) DeleteAccount(userID, accountID string) error {
	if _, err := s.GetAccount(userID, accountID); err != nil {
		return err
	}
	return s.repo.Delete(accountID)
}
