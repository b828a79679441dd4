package application

import (
	"context"
	"errors"
	"sync"

	emailService "github.com/finflow/finflow/internal/email"
	"github.com/finflow/finflow/internal/finance/domain"
	"github.com/finflow/finflow/internal/user"
)

type mockUserDirectory struct {
	Users map[string]user.User
}

func newMockUserDirectory(users ...user.User) *mockUserDirectory {
	m := &mockUserDirectory{Users: make(map[string]user.User)}
	for _, u := range users {
		m.Users[u.ID] = u
	}
	return m
}

func (m *mockUserDirectory) GetUserByID(userID string) (*user.User, error) {
	u, ok := m.Users[userID]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return &u, nil
}

func (m *mockUserDirectory) ListUsers() ([]user.User, error) {
	users := make([]user.User, 0, len(m.Users))
	for _, u := range m.Users {
		users = append(users, u)
	}
	return users, nil
}

type sentEmail struct {
	To   string
	Data emailService.EmailData
}

type mockEmailSender struct {
	mu      sync.Mutex
	Sent    []sentEmail
	Queued  []sentEmail
	FailFor map[string]bool
}

func newMockEmailSender() *mockEmailSender {
	return &mockEmailSender{FailFor: make(map[string]bool)}
}

func (m *mockEmailSender) QueueEmail(to string, data emailService.EmailData) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Queued = append(m.Queued, sentEmail{To: to, Data: data})
}

func (m *mockEmailSender) SendEmail(to string, data emailService.EmailData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailFor[to] {
		return errors.New("smtp unavailable")
	}
	m.Sent = append(m.Sent, sentEmail{To: to, Data: data})
	return nil
}

type publishedMessage struct {
	TransactionID string
	UserID        string
}

type mockPublisher struct {
	Published []publishedMessage
	Err       error
}

func (m *mockPublisher) PublishRecurringTransaction(ctx context.Context, transactionID, userID string) error {
	if m.Err != nil {
		return m.Err
	}
	m.Published = append(m.Published, publishedMessage{TransactionID: transactionID, UserID: userID})
	return nil
}

type mockInsightsGenerator struct {
	mu       sync.Mutex
	Insights []string
	Calls    []domain.MonthlyStats
}

func (m *mockInsightsGenerator) GenerateMonthlyInsights(ctx context.Context, stats domain.MonthlyStats) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, stats)
	if m.Insights == nil {
		return []string{"Keep tracking your spending."}
	}
	return m.Insights
}
