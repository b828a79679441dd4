package user

import (
	"errors"
	"fmt"
	"time"

	"github.com/badoux/checkmail"
)

const maxEmailLength = 254

var (
	ErrInvalidEmail  = fmt.Errorf("email address is not valid")
	ErrInternalError = errors.New("internal Server Error")
)

// User mirrors an identity held by the external auth provider. ExternalID is
// the provider's subject; everything the app owns hangs off the local ID.
type User struct {
	ID         string    `json:"id"`
	ExternalID string    `json:"-"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type Service interface {
	EnsureUser(externalID, email, name string) (*User, error)
	GetUserByID(userID string) (*User, error)
	ListUsers() ([]User, error)
}

type service struct {
	repo Repository
}

func NewUserService(repo Repository) Service {
	return &service{
		repo: repo,
	}
}

// EnsureUser returns the local user correlated to the provider subject,
// provisioning one on first sight.
func (s *service) EnsureUser(externalID, email, name string) (*User, error) {
	if externalID == "" {
		return nil, errors.New("missing external user id")
	}

	existingUser, err := s.repo.getUserByExternalID(externalID)
	if err == nil {
		return existingUser, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, ErrInternalError
	}

	if len(email) > maxEmailLength {
		return nil, ErrInvalidEmail
	}
	if err := checkmail.ValidateFormat(email); err != nil {
		return nil, ErrInvalidEmail
	}

	newUser := &User{
		ExternalID: externalID,
		Email:      email,
		Name:       name,
	}
	if err := s.repo.createUser(newUser); err != nil {
		return nil, ErrInternalError
	}
	return newUser, nil
}

func (s *service) GetUserByID(userID string) (*User, error) {
	return s.repo.getUserByID(userID)
}

func (s *service) ListUsers() ([]User, error) {
	return s.repo.listUsers()
}
