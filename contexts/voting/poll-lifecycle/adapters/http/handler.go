package httpadapter

import (
	"context"
	"log/slog"

	"agora/contexts/voting/poll-lifecycle/application/commands"
	"agora/contexts/voting/poll-lifecycle/application/queries"
	"agora/contexts/voting/poll-lifecycle/domain/entities"
	"agora/contexts/voting/poll-lifecycle/ports"
	httptransport "agora/contexts/voting/poll-lifecycle/transport/http"
)

// Handler maps transport DTOs onto use cases. HTTP mechanics (routing,
// status codes, auth) live in the platform server.
type Handler struct {
	Polls   commands.PollUseCase
	Ballots commands.BallotUseCase
	Queries queries.PollQueries
	Logger  *slog.Logger
}

func (h Handler) ActivePollsHandler(
	ctx context.Context,
	userID string,
) (httptransport.PollListResponse, error) {
	polls, voted, err := h.Queries.ListActiveWithVotedFlag(ctx, userID)
	if err != nil {
		return httptransport.PollListResponse{}, err
	}
	items := make([]httptransport.PollResponse, 0, len(polls))
	for _, poll := range polls {
		items = append(items, mapPoll(poll, voted[poll.PollID], false))
	}
	return httptransport.PollListResponse{Items: items}, nil
}

// AllPollsHandler lists every poll in any phase. The endpoint is public, so
// no voted flags and no per-option counts are projected.
func (h Handler) AllPollsHandler(ctx context.Context) (httptransport.PollListResponse, error) {
	polls, err := h.Queries.ListAll(ctx)
	if err != nil {
		return httptransport.PollListResponse{}, err
	}
	items := make([]httptransport.PollResponse, 0, len(polls))
	for _, poll := range polls {
		items = append(items, mapPoll(poll, false, false))
	}
	return httptransport.PollListResponse{Items: items}, nil
}

func (h Handler) ClosedPollsHandler(
	ctx context.Context,
	userID string,
	filter ports.ClosedPollFilter,
) (httptransport.PollListResponse, error) {
	polls, err := h.Queries.ListClosed(ctx, filter)
	if err != nil {
		return httptransport.PollListResponse{}, err
	}
	votedIDs, err := h.Queries.ListVotedPollIDs(ctx, userID)
	if err != nil {
		return httptransport.PollListResponse{}, err
	}
	voted := make(map[string]bool, len(votedIDs))
	for _, id := range votedIDs {
		voted[id] = true
	}
	items := make([]httptransport.PollResponse, 0, len(polls))
	for _, poll := range polls {
		items = append(items, mapPoll(poll, voted[poll.PollID], false))
	}
	return httptransport.PollListResponse{Items: items}, nil
}

func (h Handler) MyPollsHandler(
	ctx context.Context,
	userID string,
) (httptransport.PollListResponse, error) {
	polls, err := h.Queries.ListOwnedBy(ctx, userID)
	if err != nil {
		return httptransport.PollListResponse{}, err
	}
	items := make([]httptransport.PollResponse, 0, len(polls))
	for _, poll := range polls {
		// Owners see per-option counts on their own polls.
		items = append(items, mapPoll(poll, false, true))
	}
	return httptransport.PollListResponse{Items: items}, nil
}

func (h Handler) CreatePollHandler(
	ctx context.Context,
	userID string,
	req httptransport.CreatePollRequest,
) (httptransport.PollResponse, error) {
	poll, err := h.Polls.CreatePoll(ctx, commands.CreatePollCommand{
		Question:  req.Question,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		MinVotes:  req.MinVotes,
		MaxVotes:  req.MaxVotes,
		Options:   req.Options,
		CreatorID: userID,
	})
	if err != nil {
		return httptransport.PollResponse{}, err
	}
	return mapPoll(poll, false, false), nil
}

func (h Handler) UpdatePollHandler(
	ctx context.Context,
	userID string,
	pollID string,
	req httptransport.UpdatePollRequest,
) (httptransport.PollResponse, error) {
	err := h.Polls.UpdatePoll(ctx, commands.UpdatePollCommand{
		PollID:    pollID,
		Question:  req.Question,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		MinVotes:  req.MinVotes,
		MaxVotes:  req.MaxVotes,
		Options:   req.Options,
		UserID:    userID,
	})
	if err != nil {
		return httptransport.PollResponse{}, err
	}
	poll, _, err := h.Queries.GetByID(ctx, pollID)
	if err != nil {
		return httptransport.PollResponse{}, err
	}
	return mapPoll(poll, false, true), nil
}

func (h Handler) SubmitVoteHandler(
	ctx context.Context,
	userID string,
	req httptransport.SubmitVoteRequest,
) (httptransport.SubmitVoteResponse, error) {
	err := h.Ballots.SubmitVotes(ctx, commands.SubmitVotesCommand{
		PollOptionIDs: req.PollOptionIDs,
		VoterID:       userID,
	})
	if err != nil {
		return httptransport.SubmitVoteResponse{}, err
	}
	return httptransport.SubmitVoteResponse{Submitted: true}, nil
}

func (h Handler) PollResultsHandler(
	ctx context.Context,
	pollID string,
) (httptransport.PollResultsResponse, error) {
	results, err := h.Queries.Results(ctx, pollID)
	if err != nil {
		return httptransport.PollResultsResponse{}, err
	}
	resp := httptransport.PollResultsResponse{
		ID:       results.PollID,
		Question: results.Question,
		Options:  make([]httptransport.OptionTallyResponse, 0, len(results.Options)),
	}
	for _, tally := range results.Options {
		resp.Options = append(resp.Options, httptransport.OptionTallyResponse{
			ID:        tally.OptionID,
			Text:      tally.Text,
			VoteCount: tally.Count,
		})
	}
	return resp, nil
}

func (h Handler) PurgeAllHandler(ctx context.Context) error {
	return h.Polls.PurgeAll(ctx)
}

func mapPoll(poll entities.Poll, hasVoted bool, withCounts bool) httptransport.PollResponse {
	resp := httptransport.PollResponse{
		ID:        poll.PollID,
		Question:  poll.Question,
		StartDate: poll.StartDate,
		EndDate:   poll.EndDate,
		MinVotes:  poll.MinVotes,
		MaxVotes:  poll.MaxVotes,
		Options:   make([]httptransport.PollOptionResponse, 0, len(poll.Options)),
		HasVoted:  hasVoted,
	}
	for _, option := range poll.Options {
		item := httptransport.PollOptionResponse{
			ID:   option.OptionID,
			Text: option.Text,
		}
		if withCounts {
			count := len(option.Votes)
			item.VoteCount = &count
		}
		resp.Options = append(resp.Options, item)
	}
	return resp
}
