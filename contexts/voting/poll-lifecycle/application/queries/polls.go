package queries

import (
	"context"
	"strings"
	"time"

	"agora/contexts/voting/poll-lifecycle/domain/entities"
	domainerrors "agora/contexts/voting/poll-lifecycle/domain/errors"
	"agora/contexts/voting/poll-lifecycle/ports"
)

// PollQueries is the read side of the poll lifecycle: projections only,
// no mutation.
type PollQueries struct {
	Polls ports.PollRepository
	Clock ports.Clock
}

// OptionTally is one option's vote count in a results projection.
type OptionTally struct {
	OptionID string
	Text     string
	Count    int
}

// PollResults is the per-option tally for one poll.
type PollResults struct {
	PollID   string
	Question string
	Options  []OptionTally
}

func (uc PollQueries) ListActive(ctx context.Context) ([]entities.Poll, error) {
	return uc.Polls.ListActive(ctx, uc.now())
}

// ListAll returns every poll regardless of phase: scheduled, open, and
// closed together.
func (uc PollQueries) ListAll(ctx context.Context) ([]entities.Poll, error) {
	return uc.Polls.ListAll(ctx)
}

// ListActiveWithVotedFlag returns the active polls together with the set of
// poll ids the voter already holds a ballot in, so the boundary can project
// a has-voted flag per poll.
func (uc PollQueries) ListActiveWithVotedFlag(
	ctx context.Context,
	voterID string,
) ([]entities.Poll, map[string]bool, error) {
	polls, err := uc.Polls.ListActive(ctx, uc.now())
	if err != nil {
		return nil, nil, err
	}
	votedIDs, err := uc.Polls.ListVotedPollIDs(ctx, strings.TrimSpace(voterID))
	if err != nil {
		return nil, nil, err
	}
	voted := make(map[string]bool, len(votedIDs))
	for _, id := range votedIDs {
		voted[id] = true
	}
	return polls, voted, nil
}

func (uc PollQueries) ListVotedPollIDs(ctx context.Context, voterID string) ([]string, error) {
	return uc.Polls.ListVotedPollIDs(ctx, strings.TrimSpace(voterID))
}

func (uc PollQueries) ListClosed(
	ctx context.Context,
	filter ports.ClosedPollFilter,
) ([]entities.Poll, error) {
	filter.QuestionSubstring = strings.TrimSpace(filter.QuestionSubstring)
	return uc.Polls.ListClosed(ctx, filter, uc.now())
}

// GetByID never fails on a missing id; absence is the found flag.
func (uc PollQueries) GetByID(ctx context.Context, pollID string) (entities.Poll, bool, error) {
	return uc.Polls.GetPoll(ctx, strings.TrimSpace(pollID))
}

func (uc PollQueries) ListOwnedBy(ctx context.Context, userID string) ([]entities.Poll, error) {
	return uc.Polls.ListCreatedBy(ctx, strings.TrimSpace(userID))
}

// Results tallies per-option vote counts for one poll. Unlike GetByID the
// result endpoint has a concrete target, so a missing poll is an error here.
func (uc PollQueries) Results(ctx context.Context, pollID string) (PollResults, error) {
	poll, found, err := uc.Polls.GetPoll(ctx, strings.TrimSpace(pollID))
	if err != nil {
		return PollResults{}, err
	}
	if !found {
		return PollResults{}, domainerrors.ErrPollNotFound
	}
	results := PollResults{
		PollID:   poll.PollID,
		Question: poll.Question,
		Options:  make([]OptionTally, 0, len(poll.Options)),
	}
	for _, option := range poll.Options {
		results.Options = append(results.Options, OptionTally{
			OptionID: option.OptionID,
			Text:     option.Text,
			Count:    len(option.Votes),
		})
	}
	return results, nil
}

func (uc PollQueries) now() time.Time {
	if uc.Clock == nil {
		return time.Now().UTC()
	}
	return uc.Clock.Now().UTC()
}
