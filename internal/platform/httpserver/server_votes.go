package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	accountports "agora/contexts/identity-access/account-service/ports"
	votingerrors "agora/contexts/voting/poll-lifecycle/domain/errors"
	votingports "agora/contexts/voting/poll-lifecycle/ports"
	votinghttp "agora/contexts/voting/poll-lifecycle/transport/http"
)

func (s *Server) handleActivePolls(w http.ResponseWriter, r *http.Request) {
	account, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	resp, err := s.voting.Handler.ActivePollsHandler(r.Context(), account.UserID)
	if err != nil {
		writeVotingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleAllPolls is public, like the results endpoint: a full catalog of
// polls in every phase with no voter-specific projection.
func (s *Server) handleAllPolls(w http.ResponseWriter, r *http.Request) {
	resp, err := s.voting.Handler.AllPollsHandler(r.Context())
	if err != nil {
		writeVotingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleClosedPolls(w http.ResponseWriter, r *http.Request) {
	account, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	filter := votingports.ClosedPollFilter{
		QuestionSubstring: query.Get("questionText"),
	}
	if raw := query.Get("startDate"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_start_date", "startDate must be RFC3339")
			return
		}
		filter.EndedAfter = &from
	}
	if raw := query.Get("endDate"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_end_date", "endDate must be RFC3339")
			return
		}
		filter.EndedBefore = &to
	}

	resp, err := s.voting.Handler.ClosedPollsHandler(r.Context(), account.UserID, filter)
	if err != nil {
		writeVotingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMyPolls(w http.ResponseWriter, r *http.Request) {
	account, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	resp, err := s.voting.Handler.MyPollsHandler(r.Context(), account.UserID)
	if err != nil {
		writeVotingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreatePoll(w http.ResponseWriter, r *http.Request) {
	account, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	var req votinghttp.CreatePollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.voting.Handler.CreatePollHandler(r.Context(), account.UserID, req)
	if err != nil {
		writeVotingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleUpdatePoll(w http.ResponseWriter, r *http.Request) {
	account, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	var req votinghttp.UpdatePollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.voting.Handler.UpdatePollHandler(r.Context(), account.UserID, r.PathValue("poll_id"), req)
	if err != nil {
		writeVotingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSubmitVote(w http.ResponseWriter, r *http.Request) {
	account, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	var req votinghttp.SubmitVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.voting.Handler.SubmitVoteHandler(r.Context(), account.UserID, req)
	if err != nil {
		writeVotingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePollResults(w http.ResponseWriter, r *http.Request) {
	resp, err := s.voting.Handler.PollResultsHandler(r.Context(), r.PathValue("poll_id"))
	if err != nil {
		writeVotingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePurgePolls(w http.ResponseWriter, r *http.Request) {
	account, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	if account.Role != accountports.RoleAdmin {
		writeError(w, http.StatusForbidden, "admin_required", "bulk purge requires the admin role")
		return
	}
	if err := s.voting.Handler.PurgeAllHandler(r.Context()); err != nil {
		writeVotingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"purged": true})
}

// writeVotingDomainError keeps the boundary contract coarse: every domain
// failure is a client error with a reason code; anything unrecognized is a
// store-level failure and maps to 500.
func writeVotingDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, votingerrors.ErrPollNotFound):
		writeError(w, http.StatusNotFound, "poll_not_found", "poll not found")
	case errors.Is(err, votingerrors.ErrPollNotOwned):
		writeError(w, http.StatusBadRequest, "poll_not_editable", "poll could not be updated")
	case errors.Is(err, votingerrors.ErrPollNotEditable):
		writeError(w, http.StatusBadRequest, "poll_frozen", "only an end date extension is allowed")
	case errors.Is(err, votingerrors.ErrInvalidPollDefinition):
		writeError(w, http.StatusBadRequest, "invalid_poll", "poll definition is invalid")
	case errors.Is(err, votingerrors.ErrEmptyBallot),
		errors.Is(err, votingerrors.ErrVoterRequired),
		errors.Is(err, votingerrors.ErrOptionNotFound),
		errors.Is(err, votingerrors.ErrBallotCrossesPolls),
		errors.Is(err, votingerrors.ErrBallotQuota):
		writeError(w, http.StatusBadRequest, "invalid_ballot", "failed to submit vote: invalid option selection")
	case errors.Is(err, votingerrors.ErrDuplicateVote):
		writeError(w, http.StatusConflict, "already_voted", "failed to submit vote: already voted")
	case errors.Is(err, votingerrors.ErrPollNotOpen),
		errors.Is(err, votingerrors.ErrPollClosed):
		writeError(w, http.StatusConflict, "poll_not_open", "failed to submit vote: poll is not open")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected failure")
	}
}
