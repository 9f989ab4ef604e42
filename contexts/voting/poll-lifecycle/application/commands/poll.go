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

// CreatePollCommand is the write-model input for poll creation.
type CreatePollCommand struct {
	Question  string
	StartDate time.Time
	EndDate   time.Time
	MinVotes  int
	MaxVotes  int
	Options   []string
	CreatorID string
}

// UpdatePollCommand carries the full requested state of a poll edit. Whether
// the edit is applied in full or narrowed to an end-date extension depends on
// the poll's phase and recorded votes.
type UpdatePollCommand struct {
	PollID    string
	Question  string
	StartDate time.Time
	EndDate   time.Time
	MinVotes  int
	MaxVotes  int
	Options   []string
	UserID    string
}

// PollUseCase owns poll mutation: create, the update state machine, and the
// bulk administrative purge.
type PollUseCase struct {
	Polls  ports.PollRepository
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Logger *slog.Logger
}

// CreatePoll validates the definition and persists the poll with its options
// as one unit. Validation is uniform with full updates: quota bounds and the
// option count are checked here, not at the API boundary.
func (uc PollUseCase) CreatePoll(ctx context.Context, cmd CreatePollCommand) (entities.Poll, error) {
	logger := application.ResolveLogger(uc.Logger)
	cmd.Question = strings.TrimSpace(cmd.Question)
	cmd.Options = trimOptions(cmd.Options)

	if strings.TrimSpace(cmd.CreatorID) == "" || cmd.Question == "" {
		return entities.Poll{}, domainerrors.ErrInvalidPollDefinition
	}
	if err := validateDefinition(cmd.StartDate, cmd.EndDate, cmd.MinVotes, cmd.MaxVotes, cmd.Options); err != nil {
		logger.Warn("poll create validation failed",
			"event", "poll_create_validation_failed",
			"module", "voting/poll-lifecycle",
			"layer", "application",
			"creator_id", strings.TrimSpace(cmd.CreatorID),
		)
		return entities.Poll{}, err
	}

	now := uc.now()
	pollID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Poll{}, err
	}
	poll := entities.Poll{
		PollID:          pollID,
		Question:        cmd.Question,
		StartDate:       cmd.StartDate.UTC(),
		EndDate:         cmd.EndDate.UTC(),
		CreatedByUserID: strings.TrimSpace(cmd.CreatorID),
		MinVotes:        cmd.MinVotes,
		MaxVotes:        cmd.MaxVotes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	for i, text := range cmd.Options {
		optionID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return entities.Poll{}, err
		}
		poll.Options = append(poll.Options, entities.PollOption{
			OptionID: optionID,
			PollID:   pollID,
			Text:     text,
			Position: i,
		})
	}

	if err := uc.Polls.CreatePoll(ctx, poll); err != nil {
		return entities.Poll{}, err
	}
	logger.Info("poll created",
		"event", "poll_created",
		"module", "voting/poll-lifecycle",
		"layer", "application",
		"poll_id", poll.PollID,
		"creator_id", poll.CreatedByUserID,
		"option_count", len(poll.Options),
	)
	return poll, nil
}

// UpdatePoll applies the edit state machine:
//
//	fully editable (not started, zero votes): revalidate and replace the
//	whole definition, option set included.
//	otherwise: only a strict lengthening of the end date is accepted; any
//	other field change fails.
func (uc PollUseCase) UpdatePoll(ctx context.Context, cmd UpdatePollCommand) error {
	logger := application.ResolveLogger(uc.Logger)
	cmd.Question = strings.TrimSpace(cmd.Question)
	cmd.Options = trimOptions(cmd.Options)

	poll, found, err := uc.Polls.GetPoll(ctx, strings.TrimSpace(cmd.PollID))
	if err != nil {
		return err
	}
	if !found || poll.CreatedByUserID != strings.TrimSpace(cmd.UserID) {
		// Missing and not-owned collapse into one signal on purpose.
		return domainerrors.ErrPollNotOwned
	}

	now := uc.now()
	fullyEditable := poll.StartDate.After(now) && !poll.HasVotes()

	if !fullyEditable {
		if !onlyEndDateExtended(poll, cmd) {
			logger.Warn("poll update rejected while frozen",
				"event", "poll_update_frozen_rejected",
				"module", "voting/poll-lifecycle",
				"layer", "application",
				"poll_id", poll.PollID,
				"phase", string(poll.Phase(now)),
				"has_votes", poll.HasVotes(),
			)
			return domainerrors.ErrPollNotEditable
		}
		if err := uc.Polls.ExtendEndDate(ctx, poll.PollID, cmd.EndDate.UTC()); err != nil {
			return err
		}
		logger.Info("poll end date extended",
			"event", "poll_end_date_extended",
			"module", "voting/poll-lifecycle",
			"layer", "application",
			"poll_id", poll.PollID,
			"end_date", cmd.EndDate.UTC(),
		)
		return nil
	}

	if err := validateDefinition(cmd.StartDate, cmd.EndDate, cmd.MinVotes, cmd.MaxVotes, cmd.Options); err != nil {
		return err
	}

	updated := entities.Poll{
		PollID:          poll.PollID,
		Question:        cmd.Question,
		StartDate:       cmd.StartDate.UTC(),
		EndDate:         cmd.EndDate.UTC(),
		CreatedByUserID: poll.CreatedByUserID,
		MinVotes:        cmd.MinVotes,
		MaxVotes:        cmd.MaxVotes,
		CreatedAt:       poll.CreatedAt,
		UpdatedAt:       now,
	}
	for i, text := range cmd.Options {
		optionID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return err
		}
		updated.Options = append(updated.Options, entities.PollOption{
			OptionID: optionID,
			PollID:   poll.PollID,
			Text:     text,
			Position: i,
		})
	}

	// Destructive replace: old option ids are not preserved. The repository
	// runs the delete+insert in one transaction.
	if err := uc.Polls.ReplacePoll(ctx, updated); err != nil {
		return err
	}
	logger.Info("poll updated",
		"event", "poll_updated",
		"module", "voting/poll-lifecycle",
		"layer", "application",
		"poll_id", poll.PollID,
		"option_count", len(updated.Options),
	)
	return nil
}

// PurgeAll removes every poll, option, ballot, and vote.
func (uc PollUseCase) PurgeAll(ctx context.Context) error {
	logger := application.ResolveLogger(uc.Logger)
	if err := uc.Polls.PurgeAll(ctx); err != nil {
		return err
	}
	logger.Info("polls purged",
		"event", "polls_purged",
		"module", "voting/poll-lifecycle",
		"layer", "application",
	)
	return nil
}

func (uc PollUseCase) now() time.Time {
	if uc.Clock == nil {
		return time.Now().UTC()
	}
	return uc.Clock.Now().UTC()
}

func validateDefinition(start, end time.Time, minVotes, maxVotes int, options []string) error {
	if len(options) < 2 {
		return domainerrors.ErrInvalidPollDefinition
	}
	if !start.Before(end) {
		return domainerrors.ErrInvalidPollDefinition
	}
	if minVotes < 1 || minVotes > maxVotes || maxVotes > len(options) {
		return domainerrors.ErrInvalidPollDefinition
	}
	return nil
}

// onlyEndDateExtended holds when the requested edit strictly lengthens the
// end date and leaves every other field untouched.
func onlyEndDateExtended(poll entities.Poll, cmd UpdatePollCommand) bool {
	if !cmd.EndDate.UTC().After(poll.EndDate) {
		return false
	}
	if cmd.Question != poll.Question ||
		!cmd.StartDate.UTC().Equal(poll.StartDate) ||
		cmd.MinVotes != poll.MinVotes ||
		cmd.MaxVotes != poll.MaxVotes {
		return false
	}
	if len(cmd.Options) != len(poll.Options) {
		return false
	}
	for i, option := range poll.Options {
		if cmd.Options[i] != option.Text {
			return false
		}
	}
	return true
}

func trimOptions(options []string) []string {
	trimmed := make([]string, 0, len(options))
	for _, option := range options {
		option = strings.TrimSpace(option)
		if option != "" {
			trimmed = append(trimmed, option)
		}
	}
	return trimmed
}
