package httpserver

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	accountservice "agora/contexts/identity-access/account-service"
	accountports "agora/contexts/identity-access/account-service/ports"
	polllifecycle "agora/contexts/voting/poll-lifecycle"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "agora/internal/platform/httpserver/docs"
)

type Server struct {
	mux      *http.ServeMux
	logger   *slog.Logger
	addr     string
	voting   polllifecycle.Module
	accounts accountservice.Module
}

func New(
	voting polllifecycle.Module,
	accounts accountservice.Module,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:      http.NewServeMux(),
		logger:   logger,
		addr:     addr,
		voting:   voting,
		accounts: accounts,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

// Handler exposes the routed mux for httptest-driven boundary tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	s.mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	s.mux.HandleFunc("POST /api/auth/refresh", s.handleRefresh)
	s.mux.HandleFunc("POST /api/auth/logout", s.handleLogout)
	s.mux.HandleFunc("GET /api/auth/me", s.handleCurrentUser)

	s.mux.HandleFunc("GET /api/votes/active", s.handleActivePolls)
	s.mux.HandleFunc("GET /api/votes/all", s.handleAllPolls)
	s.mux.HandleFunc("GET /api/votes/closed-polls", s.handleClosedPolls)
	s.mux.HandleFunc("GET /api/votes/mypolls", s.handleMyPolls)
	s.mux.HandleFunc("POST /api/votes/create", s.handleCreatePoll)
	s.mux.HandleFunc("PUT /api/votes/{poll_id}", s.handleUpdatePoll)
	s.mux.HandleFunc("POST /api/votes/submit-vote", s.handleSubmitVote)
	s.mux.HandleFunc("GET /api/votes/{poll_id}/results", s.handlePollResults)
	s.mux.HandleFunc("DELETE /api/votes/delete-all", s.handlePurgePolls)
}

// requireUser resolves the bearer token to an account or writes a 401.
func (s *Server) requireUser(w http.ResponseWriter, r *http.Request) (accountports.Account, bool) {
	token := bearerToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "missing_token", "Authorization bearer token is required")
		return accountports.Account{}, false
	}
	account, err := s.accounts.Handler.ResolveHandler(r.Context(), token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid_token", "token is invalid or expired")
		return accountports.Account{}, false
	}
	return account, true
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, errorBody{Code: code, Message: message})
}
