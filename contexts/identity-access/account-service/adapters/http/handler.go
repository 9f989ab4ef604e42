package httpadapter

import (
	"context"
	"log/slog"

	"agora/contexts/identity-access/account-service/application"
	"agora/contexts/identity-access/account-service/ports"
	httptransport "agora/contexts/identity-access/account-service/transport/http"
)

type Handler struct {
	Accounts application.Service
	Logger   *slog.Logger
}

func (h Handler) RegisterHandler(
	ctx context.Context,
	req httptransport.RegisterRequest,
) (httptransport.TokenResponse, error) {
	pair, err := h.Accounts.Register(ctx, req.Email, req.Password)
	if err != nil {
		return httptransport.TokenResponse{}, err
	}
	return mapTokens(pair), nil
}

func (h Handler) LoginHandler(
	ctx context.Context,
	req httptransport.LoginRequest,
) (httptransport.TokenResponse, error) {
	pair, err := h.Accounts.Login(ctx, req.Email, req.Password)
	if err != nil {
		return httptransport.TokenResponse{}, err
	}
	return mapTokens(pair), nil
}

func (h Handler) RefreshHandler(
	ctx context.Context,
	req httptransport.RefreshRequest,
) (httptransport.TokenResponse, error) {
	pair, err := h.Accounts.Redeem(ctx, req.RefreshToken)
	if err != nil {
		return httptransport.TokenResponse{}, err
	}
	return mapTokens(pair), nil
}

func (h Handler) LogoutHandler(ctx context.Context, userID string) error {
	return h.Accounts.Logout(ctx, userID)
}

// ResolveHandler backs the platform auth middleware.
func (h Handler) ResolveHandler(ctx context.Context, authToken string) (ports.Account, error) {
	return h.Accounts.Resolve(ctx, authToken)
}

func (h Handler) GetUserHandler(ctx context.Context, userID string) (httptransport.UserResponse, error) {
	account, err := h.Accounts.GetByID(ctx, userID)
	if err != nil {
		return httptransport.UserResponse{}, err
	}
	return httptransport.UserResponse{
		ID:    account.UserID,
		Email: account.Email,
		Role:  account.Role,
	}, nil
}

func mapTokens(pair ports.TokenPair) httptransport.TokenResponse {
	return httptransport.TokenResponse{
		AuthToken:    pair.AuthToken,
		RefreshToken: pair.RefreshToken,
		UserID:       pair.UserID,
		ExpiresAt:    pair.ExpiresAt,
	}
}
