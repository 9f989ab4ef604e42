package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	domainerrors "agora/contexts/identity-access/account-service/domain/errors"
	"agora/contexts/identity-access/account-service/ports"

	"github.com/google/uuid"
)

// Store is the in-memory adapter for tests and broker-less wiring.
type Store struct {
	mu sync.RWMutex

	accounts map[string]ports.Account
	sessions map[string]ports.Session
}

func NewStore() *Store {
	return &Store{
		accounts: make(map[string]ports.Account),
		sessions: make(map[string]ports.Session),
	}
}

func (s *Store) CreateAccount(_ context.Context, account ports.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.accounts {
		if existing.Email == account.Email {
			return domainerrors.ErrEmailTaken
		}
	}
	s.accounts[account.UserID] = account
	return nil
}

func (s *Store) GetAccountByEmail(_ context.Context, email string) (ports.Account, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, account := range s.accounts {
		if account.Email == email {
			return account, true, nil
		}
	}
	return ports.Account{}, false, nil
}

func (s *Store) GetAccountByID(_ context.Context, userID string) (ports.Account, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[strings.TrimSpace(userID)]
	return account, ok, nil
}

func (s *Store) GetAccountByRefreshToken(_ context.Context, refreshToken string) (ports.Account, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return ports.Account{}, false, nil
	}
	for _, account := range s.accounts {
		if account.RefreshToken == refreshToken {
			return account, true, nil
		}
	}
	return ports.Account{}, false, nil
}

func (s *Store) SetRefreshToken(_ context.Context, userID string, refreshToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[strings.TrimSpace(userID)]
	if !ok {
		return domainerrors.ErrAccountNotFound
	}
	account.RefreshToken = strings.TrimSpace(refreshToken)
	s.accounts[account.UserID] = account
	return nil
}

func (s *Store) CountAccounts(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.accounts)), nil
}

func (s *Store) CreateSession(_ context.Context, session ports.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.Token] = session
	return nil
}

func (s *Store) GetSession(_ context.Context, token string, now time.Time) (ports.Session, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[strings.TrimSpace(token)]
	if !ok || session.ExpiresAt.Before(now) {
		return ports.Session{}, false, nil
	}
	return session, true, nil
}

func (s *Store) DeleteSessionsForUser(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	userID = strings.TrimSpace(userID)
	for token, session := range s.sessions {
		if session.UserID == userID {
			delete(s.sessions, token)
		}
	}
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

var _ ports.AccountRepository = (*Store)(nil)
var _ ports.SessionStore = (*Store)(nil)
var _ ports.Clock = (*Store)(nil)
var _ ports.IDGenerator = (*Store)(nil)
