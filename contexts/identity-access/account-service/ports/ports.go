package ports

import (
	"context"
	"time"
)

const (
	RoleAdmin = "admin"
	RoleVoter = "voter"
)

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// Account is a registered user. The voting core never sees this type; it
// receives only the resolved user id string.
type Account struct {
	UserID       string
	Email        string
	PasswordHash string
	Role         string
	RefreshToken string
	CreatedAt    time.Time
}

// Session maps an opaque bearer token to a user until it expires.
type Session struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
}

// TokenPair is what login/register/refresh hand back to the client.
type TokenPair struct {
	AuthToken    string
	RefreshToken string
	UserID       string
	ExpiresAt    time.Time
}

type AccountRepository interface {
	// CreateAccount fails with domain ErrEmailTaken when the normalized email
	// already exists.
	CreateAccount(ctx context.Context, account Account) error
	GetAccountByEmail(ctx context.Context, email string) (Account, bool, error)
	GetAccountByID(ctx context.Context, userID string) (Account, bool, error)
	GetAccountByRefreshToken(ctx context.Context, refreshToken string) (Account, bool, error)
	SetRefreshToken(ctx context.Context, userID string, refreshToken string) error
	CountAccounts(ctx context.Context) (int64, error)
}

type SessionStore interface {
	CreateSession(ctx context.Context, session Session) error
	// GetSession treats expired sessions as absent.
	GetSession(ctx context.Context, token string, now time.Time) (Session, bool, error)
	DeleteSessionsForUser(ctx context.Context, userID string) error
}
