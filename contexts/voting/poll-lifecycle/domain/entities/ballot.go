package entities

import "time"

// Ballot is one voter's single submission against a poll. At most one ballot
// exists per (poll, voter); the storage layer enforces this with a unique
// constraint so the duplicate check holds under concurrent submissions.
type Ballot struct {
	BallotID string
	PollID   string
	VoterID  string
	CastAt   time.Time
}

// Vote records one selected option inside a ballot. Votes are immutable once
// created.
type Vote struct {
	VoteID       string
	BallotID     string
	PollOptionID string
	VoterID      string
	VotedAt      time.Time
}
