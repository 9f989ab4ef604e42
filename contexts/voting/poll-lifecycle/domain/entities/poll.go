package entities

import "time"

// PollPhase describes where a poll sits in its voting window.
type PollPhase string

const (
	PhaseScheduled PollPhase = "scheduled"
	PhaseOpen      PollPhase = "open"
	PhaseClosed    PollPhase = "closed"
)

// Poll is a question with a voting window, ballot quota bounds, and an
// ordered option set. Options are exclusively owned: deleting a poll deletes
// its options, and replacing the option set discards the old option ids.
type Poll struct {
	PollID          string
	Question        string
	StartDate       time.Time
	EndDate         time.Time
	CreatedByUserID string
	MinVotes        int
	MaxVotes        int
	Options         []PollOption
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// PollOption is one selectable answer together with the votes cast on it,
// when the read path loaded them.
type PollOption struct {
	OptionID string
	PollID   string
	Text     string
	Position int
	Votes    []Vote
}

func (p Poll) Phase(now time.Time) PollPhase {
	switch {
	case now.Before(p.StartDate):
		return PhaseScheduled
	case now.After(p.EndDate):
		return PhaseClosed
	default:
		return PhaseOpen
	}
}

// HasVotes reports whether any loaded option carries at least one vote.
func (p Poll) HasVotes() bool {
	for _, option := range p.Options {
		if len(option.Votes) > 0 {
			return true
		}
	}
	return false
}

// OptionIDSet returns the poll's valid option ids for ballot membership checks.
func (p Poll) OptionIDSet() map[string]struct{} {
	ids := make(map[string]struct{}, len(p.Options))
	for _, option := range p.Options {
		ids[option.OptionID] = struct{}{}
	}
	return ids
}
