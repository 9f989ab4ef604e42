package errors

import "errors"

var (
	ErrPollNotFound = errors.New("poll not found")

	// Update target missing or owned by someone else. Kept as one signal so
	// non-owners cannot probe which poll ids exist.
	ErrPollNotOwned = errors.New("poll not found or not owned by caller")

	ErrPollNotEditable       = errors.New("poll is frozen except for end date extension")
	ErrInvalidPollDefinition = errors.New("invalid poll definition")

	ErrEmptyBallot        = errors.New("ballot has no selections")
	ErrVoterRequired      = errors.New("voter identity required")
	ErrOptionNotFound     = errors.New("poll option not found")
	ErrBallotCrossesPolls = errors.New("ballot mixes options from different polls")
	ErrBallotQuota        = errors.New("selection count outside poll quota")
	ErrDuplicateVote      = errors.New("voter already has a ballot for this poll")
	ErrPollNotOpen        = errors.New("poll has not opened for voting")
	ErrPollClosed         = errors.New("poll voting window has closed")
)
