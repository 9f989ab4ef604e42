package polllifecycle

import (
	"log/slog"

	httpadapter "agora/contexts/voting/poll-lifecycle/adapters/http"
	"agora/contexts/voting/poll-lifecycle/adapters/memory"
	"agora/contexts/voting/poll-lifecycle/application/commands"
	"agora/contexts/voting/poll-lifecycle/application/queries"
	"agora/contexts/voting/poll-lifecycle/domain/entities"
	"agora/contexts/voting/poll-lifecycle/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Store   *memory.Store
}

type Dependencies struct {
	Polls   ports.PollRepository
	Ballots ports.BallotRepository
	Clock   ports.Clock
	IDGen   ports.IDGenerator
	Logger  *slog.Logger
}

func NewModule(deps Dependencies) Module {
	pollUseCase := commands.PollUseCase{
		Polls:  deps.Polls,
		Clock:  deps.Clock,
		IDGen:  deps.IDGen,
		Logger: deps.Logger,
	}
	ballotUseCase := commands.BallotUseCase{
		Polls:   deps.Polls,
		Ballots: deps.Ballots,
		Clock:   deps.Clock,
		IDGen:   deps.IDGen,
		Logger:  deps.Logger,
	}
	pollQueries := queries.PollQueries{
		Polls: deps.Polls,
		Clock: deps.Clock,
	}
	return Module{
		Handler: httpadapter.Handler{
			Polls:   pollUseCase,
			Ballots: ballotUseCase,
			Queries: pollQueries,
			Logger:  deps.Logger,
		},
	}
}

func NewInMemoryModule(seed []entities.Poll, logger *slog.Logger) Module {
	store := memory.NewStore(seed)
	module := NewModule(Dependencies{
		Polls:   store,
		Ballots: store,
		Clock:   store,
		IDGen:   store,
		Logger:  logger,
	})
	module.Store = store
	return module
}
