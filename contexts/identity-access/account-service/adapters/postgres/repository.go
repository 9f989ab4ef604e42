package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	domainerrors "agora/contexts/identity-access/account-service/domain/errors"
	"agora/contexts/identity-access/account-service/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) Migrate() error {
	return r.db.AutoMigrate(&accountModel{}, &sessionModel{})
}

func (r *Repository) CreateAccount(ctx context.Context, account ports.Account) error {
	row := accountModelFromEntity(account)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrEmailTaken
		}
		return r.logError("account_repo_create_failed", err, "user_id", account.UserID)
	}
	return nil
}

func (r *Repository) GetAccountByEmail(ctx context.Context, email string) (ports.Account, bool, error) {
	var row accountModel
	err := r.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.Account{}, false, nil
		}
		return ports.Account{}, false, r.logError("account_repo_get_by_email_failed", err)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) GetAccountByID(ctx context.Context, userID string) (ports.Account, bool, error) {
	var row accountModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(userID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.Account{}, false, nil
		}
		return ports.Account{}, false, r.logError("account_repo_get_by_id_failed", err, "user_id", strings.TrimSpace(userID))
	}
	return row.toEntity(), true, nil
}

func (r *Repository) GetAccountByRefreshToken(ctx context.Context, refreshToken string) (ports.Account, bool, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return ports.Account{}, false, nil
	}
	var row accountModel
	err := r.db.WithContext(ctx).
		Where("refresh_token = ?", refreshToken).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.Account{}, false, nil
		}
		return ports.Account{}, false, r.logError("account_repo_get_by_refresh_failed", err)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) SetRefreshToken(ctx context.Context, userID string, refreshToken string) error {
	update := r.db.WithContext(ctx).
		Model(&accountModel{}).
		Where("id = ?", strings.TrimSpace(userID)).
		Update("refresh_token", nullableString(refreshToken))
	if update.Error != nil {
		return r.logError("account_repo_set_refresh_failed", update.Error, "user_id", strings.TrimSpace(userID))
	}
	if update.RowsAffected == 0 {
		return domainerrors.ErrAccountNotFound
	}
	return nil
}

func (r *Repository) CountAccounts(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&accountModel{}).Count(&count).Error; err != nil {
		return 0, r.logError("account_repo_count_failed", err)
	}
	return count, nil
}

func (r *Repository) CreateSession(ctx context.Context, session ports.Session) error {
	row := sessionModel{
		Token:     session.Token,
		UserID:    session.UserID,
		ExpiresAt: session.ExpiresAt.UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return r.logError("account_repo_create_session_failed", err, "user_id", session.UserID)
	}
	return nil
}

func (r *Repository) GetSession(ctx context.Context, token string, now time.Time) (ports.Session, bool, error) {
	var row sessionModel
	err := r.db.WithContext(ctx).
		Where("token = ?", strings.TrimSpace(token)).
		Where("expires_at >= ?", now.UTC()).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.Session{}, false, nil
		}
		return ports.Session{}, false, r.logError("account_repo_get_session_failed", err)
	}
	return ports.Session{
		Token:     row.Token,
		UserID:    row.UserID,
		ExpiresAt: row.ExpiresAt.UTC(),
	}, true, nil
}

func (r *Repository) DeleteSessionsForUser(ctx context.Context, userID string) error {
	err := r.db.WithContext(ctx).
		Where("user_id = ?", strings.TrimSpace(userID)).
		Delete(&sessionModel{}).
		Error
	if err != nil {
		return r.logError("account_repo_delete_sessions_failed", err, "user_id", strings.TrimSpace(userID))
	}
	return nil
}

func (r *Repository) logError(event string, err error, args ...any) error {
	fields := append([]any{
		"event", event,
		"module", "identity-access/account-service",
		"layer", "adapter",
		"error", err.Error(),
	}, args...)
	r.logger.Error("account repository operation failed", fields...)
	return err
}

type accountModel struct {
	ID           string    `gorm:"column:id;primaryKey"`
	Email        string    `gorm:"column:email;uniqueIndex"`
	PasswordHash string    `gorm:"column:password_hash"`
	Role         string    `gorm:"column:role"`
	RefreshToken *string   `gorm:"column:refresh_token;index"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

func (accountModel) TableName() string {
	return "accounts"
}

type sessionModel struct {
	Token     string    `gorm:"column:token;primaryKey"`
	UserID    string    `gorm:"column:user_id;index"`
	ExpiresAt time.Time `gorm:"column:expires_at;index"`
}

func (sessionModel) TableName() string {
	return "sessions"
}

func accountModelFromEntity(account ports.Account) accountModel {
	return accountModel{
		ID:           account.UserID,
		Email:        account.Email,
		PasswordHash: account.PasswordHash,
		Role:         account.Role,
		RefreshToken: nullableString(account.RefreshToken),
		CreatedAt:    account.CreatedAt.UTC(),
	}
}

func (row accountModel) toEntity() ports.Account {
	account := ports.Account{
		UserID:       row.ID,
		Email:        row.Email,
		PasswordHash: row.PasswordHash,
		Role:         row.Role,
		CreatedAt:    row.CreatedAt.UTC(),
	}
	if row.RefreshToken != nil {
		account.RefreshToken = *row.RefreshToken
	}
	return account
}

func nullableString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// SystemClock implements ports.Clock using wall-clock UTC time.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// UUIDGenerator implements ports.IDGenerator using RFC 4122 UUID v4 values.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

var _ ports.AccountRepository = (*Repository)(nil)
var _ ports.SessionStore = (*Repository)(nil)
