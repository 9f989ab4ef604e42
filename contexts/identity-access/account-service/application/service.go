package application

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	domainerrors "agora/contexts/identity-access/account-service/domain/errors"
	"agora/contexts/identity-access/account-service/ports"

	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

// Service owns account registration, credential checks, and the opaque
// bearer/refresh token lifecycle. Tokens are random values held server-side;
// there is no signed-token protocol here.
type Service struct {
	Accounts   ports.AccountRepository
	Sessions   ports.SessionStore
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	SessionTTL time.Duration
	Logger     *slog.Logger
}

// Register creates an account and logs it in. The first account ever created
// gets the admin role so a fresh deployment can administer itself.
func (s Service) Register(ctx context.Context, email string, password string) (ports.TokenPair, error) {
	logger := s.logger()
	email = normalizeEmail(email)
	if email == "" || len(password) < minPasswordLength {
		return ports.TokenPair{}, domainerrors.ErrInvalidRequest
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return ports.TokenPair{}, domainerrors.ErrInvalidRequest
	}

	if _, found, err := s.Accounts.GetAccountByEmail(ctx, email); err != nil {
		return ports.TokenPair{}, err
	} else if found {
		return ports.TokenPair{}, domainerrors.ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return ports.TokenPair{}, err
	}
	userID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return ports.TokenPair{}, err
	}
	role := ports.RoleVoter
	if count, err := s.Accounts.CountAccounts(ctx); err != nil {
		return ports.TokenPair{}, err
	} else if count == 0 {
		role = ports.RoleAdmin
	}

	account := ports.Account{
		UserID:       userID,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    s.now(),
	}
	if err := s.Accounts.CreateAccount(ctx, account); err != nil {
		return ports.TokenPair{}, err
	}
	logger.Info("account registered",
		"event", "account_registered",
		"module", "identity-access/account-service",
		"layer", "application",
		"user_id", userID,
		"role", role,
	)
	return s.issueTokens(ctx, account)
}

func (s Service) Login(ctx context.Context, email string, password string) (ports.TokenPair, error) {
	logger := s.logger()
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return ports.TokenPair{}, domainerrors.ErrInvalidCredentials
	}
	account, found, err := s.Accounts.GetAccountByEmail(ctx, email)
	if err != nil {
		return ports.TokenPair{}, err
	}
	if !found {
		return ports.TokenPair{}, domainerrors.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		logger.Warn("login rejected",
			"event", "account_login_rejected",
			"module", "identity-access/account-service",
			"layer", "application",
			"user_id", account.UserID,
		)
		return ports.TokenPair{}, domainerrors.ErrInvalidCredentials
	}
	return s.issueTokens(ctx, account)
}

// Redeem rotates both tokens: the presented refresh token is consumed and a
// fresh pair is issued.
func (s Service) Redeem(ctx context.Context, refreshToken string) (ports.TokenPair, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return ports.TokenPair{}, domainerrors.ErrInvalidToken
	}
	account, found, err := s.Accounts.GetAccountByRefreshToken(ctx, refreshToken)
	if err != nil {
		return ports.TokenPair{}, err
	}
	if !found {
		return ports.TokenPair{}, domainerrors.ErrInvalidToken
	}
	return s.issueTokens(ctx, account)
}

func (s Service) Logout(ctx context.Context, userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domainerrors.ErrInvalidRequest
	}
	if err := s.Sessions.DeleteSessionsForUser(ctx, userID); err != nil {
		return err
	}
	if err := s.Accounts.SetRefreshToken(ctx, userID, ""); err != nil {
		return err
	}
	s.logger().Info("account logged out",
		"event", "account_logged_out",
		"module", "identity-access/account-service",
		"layer", "application",
		"user_id", userID,
	)
	return nil
}

// Resolve turns a bearer token into the account it belongs to. Expired or
// unknown tokens fail with ErrInvalidToken.
func (s Service) Resolve(ctx context.Context, authToken string) (ports.Account, error) {
	authToken = strings.TrimSpace(authToken)
	if authToken == "" {
		return ports.Account{}, domainerrors.ErrInvalidToken
	}
	session, found, err := s.Sessions.GetSession(ctx, authToken, s.now())
	if err != nil {
		return ports.Account{}, err
	}
	if !found {
		return ports.Account{}, domainerrors.ErrInvalidToken
	}
	account, found, err := s.Accounts.GetAccountByID(ctx, session.UserID)
	if err != nil {
		return ports.Account{}, err
	}
	if !found {
		return ports.Account{}, domainerrors.ErrInvalidToken
	}
	return account, nil
}

func (s Service) GetByID(ctx context.Context, userID string) (ports.Account, error) {
	account, found, err := s.Accounts.GetAccountByID(ctx, strings.TrimSpace(userID))
	if err != nil {
		return ports.Account{}, err
	}
	if !found {
		return ports.Account{}, domainerrors.ErrAccountNotFound
	}
	return account, nil
}

func (s Service) issueTokens(ctx context.Context, account ports.Account) (ports.TokenPair, error) {
	authToken, err := generateToken()
	if err != nil {
		return ports.TokenPair{}, err
	}
	refreshToken, err := s.IDGen.NewID(ctx)
	if err != nil {
		return ports.TokenPair{}, err
	}
	now := s.now()
	expiresAt := now.Add(s.sessionTTL())
	if err := s.Sessions.CreateSession(ctx, ports.Session{
		Token:     authToken,
		UserID:    account.UserID,
		ExpiresAt: expiresAt,
	}); err != nil {
		return ports.TokenPair{}, err
	}
	if err := s.Accounts.SetRefreshToken(ctx, account.UserID, refreshToken); err != nil {
		return ports.TokenPair{}, err
	}
	return ports.TokenPair{
		AuthToken:    authToken,
		RefreshToken: refreshToken,
		UserID:       account.UserID,
		ExpiresAt:    expiresAt,
	}, nil
}

func (s Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}

func (s Service) sessionTTL() time.Duration {
	if s.SessionTTL <= 0 {
		return 24 * time.Hour
	}
	return s.SessionTTL
}

func (s Service) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// generateToken returns 32 random bytes hex-encoded, the opaque bearer value.
func generateToken() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return hex.EncodeToString(raw), nil
}
