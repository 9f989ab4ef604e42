package ports

import (
	"context"
	"time"

	"agora/contexts/voting/poll-lifecycle/domain/entities"
)

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// ClosedPollFilter narrows the closed-poll listing. Zero values mean
// "no constraint" for that field.
type ClosedPollFilter struct {
	QuestionSubstring string
	EndedAfter        *time.Time
	EndedBefore       *time.Time
}

// PollRepository is the relational-store port for poll state.
//
// Read methods returning a single poll use a found flag rather than an error
// for missing ids. ReplacePoll and CreatePoll must be atomic: the poll row
// and its option rows commit together or not at all.
type PollRepository interface {
	CreatePoll(ctx context.Context, poll entities.Poll) error
	// GetPoll loads a poll with its options and, transitively, each option's
	// votes, for editability checks and result tallying.
	GetPoll(ctx context.Context, pollID string) (entities.Poll, bool, error)
	// GetPollByOption resolves the owning poll of an option id, options loaded.
	GetPollByOption(ctx context.Context, optionID string) (entities.Poll, bool, error)
	ListActive(ctx context.Context, now time.Time) ([]entities.Poll, error)
	// ListAll returns every poll regardless of phase, options loaded.
	ListAll(ctx context.Context) ([]entities.Poll, error)
	ListClosed(ctx context.Context, filter ClosedPollFilter, now time.Time) ([]entities.Poll, error)
	ListCreatedBy(ctx context.Context, userID string) ([]entities.Poll, error)
	// ListVotedPollIDs returns the distinct poll ids the voter holds a ballot in.
	ListVotedPollIDs(ctx context.Context, voterID string) ([]string, error)
	HasVoted(ctx context.Context, pollID string, voterID string) (bool, error)
	// ReplacePoll overwrites the poll's mutable fields and wholesale-replaces
	// its option set. Destructive on option ids.
	ReplacePoll(ctx context.Context, poll entities.Poll) error
	ExtendEndDate(ctx context.Context, pollID string, endDate time.Time) error
	// PurgeAll is the bulk administrative purge: all votes, ballots, options
	// and polls are removed.
	PurgeAll(ctx context.Context) error
}

// BallotRepository records one voter's full ballot atomically.
// Implementations return domain ErrDuplicateVote when the (poll, voter)
// uniqueness constraint rejects the ballot, making the duplicate check hold
// even when two submissions race past the application-level pre-check.
type BallotRepository interface {
	CastBallot(ctx context.Context, ballot entities.Ballot, votes []entities.Vote) error
}
