package accountservice

import (
	"log/slog"
	"time"

	httpadapter "agora/contexts/identity-access/account-service/adapters/http"
	"agora/contexts/identity-access/account-service/adapters/memory"
	"agora/contexts/identity-access/account-service/application"
	"agora/contexts/identity-access/account-service/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Store   *memory.Store
}

type Dependencies struct {
	Accounts   ports.AccountRepository
	Sessions   ports.SessionStore
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	SessionTTL time.Duration
	Logger     *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Accounts:   deps.Accounts,
		Sessions:   deps.Sessions,
		Clock:      deps.Clock,
		IDGen:      deps.IDGen,
		SessionTTL: deps.SessionTTL,
		Logger:     deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Accounts: service,
			Logger:   deps.Logger,
		},
	}
}

func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Accounts:   store,
		Sessions:   store,
		Clock:      store,
		IDGen:      store,
		SessionTTL: 24 * time.Hour,
		Logger:     logger,
	})
	module.Store = store
	return module
}
