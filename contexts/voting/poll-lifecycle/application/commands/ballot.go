package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"agora/contexts/voting/poll-lifecycle/application"
	"agora/contexts/voting/poll-lifecycle/domain/entities"
	domainerrors "agora/contexts/voting/poll-lifecycle/domain/errors"
	"agora/contexts/voting/poll-lifecycle/ports"
)

// SubmitVotesCommand is one voter's ballot: the selected option ids of a
// single poll.
type SubmitVotesCommand struct {
	PollOptionIDs []string
	VoterID       string
}

// BallotUseCase validates and records ballots. Each validation step
// short-circuits; the step order is part of the contract.
type BallotUseCase struct {
	Polls   ports.PollRepository
	Ballots ports.BallotRepository
	Clock   ports.Clock
	IDGen   ports.IDGenerator
	Logger  *slog.Logger
}

// SubmitVotes runs the submission pipeline:
//
//  1. reject an empty selection,
//  2. resolve the poll from the first option and check the voting window,
//  3. require every option to belong to that poll,
//  4. reject voters that already hold a ballot on the poll,
//  5. enforce the min/max selection quota,
//  6. record the ballot and its votes as one atomic batch.
//
// The pre-check in step 4 gives the ordered failure taxonomy; the storage
// uniqueness constraint behind step 6 makes it hold under races.
func (uc BallotUseCase) SubmitVotes(ctx context.Context, cmd SubmitVotesCommand) error {
	logger := application.ResolveLogger(uc.Logger)
	voterID := strings.TrimSpace(cmd.VoterID)
	if voterID == "" {
		return domainerrors.ErrVoterRequired
	}
	selection := dedupe(cmd.PollOptionIDs)
	if len(selection) == 0 {
		return domainerrors.ErrEmptyBallot
	}

	poll, found, err := uc.Polls.GetPollByOption(ctx, selection[0])
	if err != nil {
		return err
	}
	if !found {
		return domainerrors.ErrOptionNotFound
	}

	now := uc.now()
	switch poll.Phase(now) {
	case entities.PhaseScheduled:
		return domainerrors.ErrPollNotOpen
	case entities.PhaseClosed:
		return domainerrors.ErrPollClosed
	}

	valid := poll.OptionIDSet()
	for _, optionID := range selection {
		if _, ok := valid[optionID]; !ok {
			logger.Warn("ballot rejected: option outside poll",
				"event", "ballot_cross_poll_rejected",
				"module", "voting/poll-lifecycle",
				"layer", "application",
				"poll_id", poll.PollID,
				"voter_id", voterID,
			)
			return domainerrors.ErrBallotCrossesPolls
		}
	}

	alreadyVoted, err := uc.Polls.HasVoted(ctx, poll.PollID, voterID)
	if err != nil {
		return err
	}
	if alreadyVoted {
		return domainerrors.ErrDuplicateVote
	}

	if len(selection) < poll.MinVotes || len(selection) > poll.MaxVotes {
		return domainerrors.ErrBallotQuota
	}

	ballotID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	ballot := entities.Ballot{
		BallotID: ballotID,
		PollID:   poll.PollID,
		VoterID:  voterID,
		CastAt:   now,
	}
	votes := make([]entities.Vote, 0, len(selection))
	for _, optionID := range selection {
		voteID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return err
		}
		votes = append(votes, entities.Vote{
			VoteID:       voteID,
			BallotID:     ballotID,
			PollOptionID: optionID,
			VoterID:      voterID,
			VotedAt:      now,
		})
	}

	if err := uc.Ballots.CastBallot(ctx, ballot, votes); err != nil {
		return err
	}
	logger.Info("ballot recorded",
		"event", "ballot_recorded",
		"module", "voting/poll-lifecycle",
		"layer", "application",
		"poll_id", poll.PollID,
		"voter_id", voterID,
		"selection_count", len(votes),
	)
	return nil
}

func (uc BallotUseCase) now() time.Time {
	if uc.Clock == nil {
		return time.Now().UTC()
	}
	return uc.Clock.Now().UTC()
}

// dedupe preserves first-seen order; a ballot is a set of options.
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
