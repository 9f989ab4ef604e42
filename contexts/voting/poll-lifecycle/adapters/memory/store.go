package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"agora/contexts/voting/poll-lifecycle/domain/entities"
	domainerrors "agora/contexts/voting/poll-lifecycle/domain/errors"
	"agora/contexts/voting/poll-lifecycle/ports"

	"github.com/google/uuid"
)

// Store is the in-memory adapter behind unit tests and broker-less wiring.
// The mutex serializes ballot casting, so the (poll, voter) uniqueness
// guarantee matches the postgres adapter's constraint behavior.
type Store struct {
	mu sync.RWMutex

	polls   map[string]entities.Poll
	ballots map[string]entities.Ballot
	votes   map[string]entities.Vote
}

func NewStore(seed []entities.Poll) *Store {
	polls := make(map[string]entities.Poll, len(seed))
	for _, poll := range seed {
		polls[poll.PollID] = clonePoll(poll)
	}
	return &Store{
		polls:   polls,
		ballots: make(map[string]entities.Ballot),
		votes:   make(map[string]entities.Vote),
	}
}

func (s *Store) CreatePoll(_ context.Context, poll entities.Poll) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.polls[poll.PollID] = clonePoll(poll)
	return nil
}

func (s *Store) GetPoll(_ context.Context, pollID string) (entities.Poll, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	poll, ok := s.polls[strings.TrimSpace(pollID)]
	if !ok {
		return entities.Poll{}, false, nil
	}
	return s.loadPollLocked(poll), true, nil
}

func (s *Store) GetPollByOption(_ context.Context, optionID string) (entities.Poll, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	optionID = strings.TrimSpace(optionID)
	for _, poll := range s.polls {
		for _, option := range poll.Options {
			if option.OptionID == optionID {
				return s.loadPollLocked(poll), true, nil
			}
		}
	}
	return entities.Poll{}, false, nil
}

func (s *Store) ListActive(_ context.Context, now time.Time) ([]entities.Poll, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var items []entities.Poll
	for _, poll := range s.polls {
		if !poll.StartDate.After(now) && !poll.EndDate.Before(now) {
			items = append(items, s.loadPollLocked(poll))
		}
	}
	sortPolls(items)
	return items, nil
}

func (s *Store) ListAll(_ context.Context) ([]entities.Poll, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Poll, 0, len(s.polls))
	for _, poll := range s.polls {
		items = append(items, s.loadPollLocked(poll))
	}
	sortPolls(items)
	return items, nil
}

func (s *Store) ListClosed(
	_ context.Context,
	filter ports.ClosedPollFilter,
	now time.Time,
) ([]entities.Poll, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	needle := strings.ToLower(strings.TrimSpace(filter.QuestionSubstring))
	var items []entities.Poll
	for _, poll := range s.polls {
		if !poll.EndDate.Before(now) {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(poll.Question), needle) {
			continue
		}
		if filter.EndedAfter != nil && poll.EndDate.Before(*filter.EndedAfter) {
			continue
		}
		if filter.EndedBefore != nil && poll.EndDate.After(*filter.EndedBefore) {
			continue
		}
		items = append(items, s.loadPollLocked(poll))
	}
	sortPolls(items)
	return items, nil
}

func (s *Store) ListCreatedBy(_ context.Context, userID string) ([]entities.Poll, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	userID = strings.TrimSpace(userID)
	var items []entities.Poll
	for _, poll := range s.polls {
		if poll.CreatedByUserID == userID {
			items = append(items, s.loadPollLocked(poll))
		}
	}
	sortPolls(items)
	return items, nil
}

func (s *Store) ListVotedPollIDs(_ context.Context, voterID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	voterID = strings.TrimSpace(voterID)
	seen := make(map[string]struct{})
	var ids []string
	for _, ballot := range s.ballots {
		if ballot.VoterID != voterID {
			continue
		}
		if _, ok := seen[ballot.PollID]; ok {
			continue
		}
		seen[ballot.PollID] = struct{}{}
		ids = append(ids, ballot.PollID)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *Store) HasVoted(_ context.Context, pollID string, voterID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hasBallotLocked(strings.TrimSpace(pollID), strings.TrimSpace(voterID)), nil
}

func (s *Store) ReplacePoll(_ context.Context, poll entities.Poll) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.polls[poll.PollID]
	if !ok {
		return domainerrors.ErrPollNotFound
	}
	// Replaced options take their votes with them, cascade style.
	for _, option := range current.Options {
		for voteID, vote := range s.votes {
			if vote.PollOptionID == option.OptionID {
				delete(s.votes, voteID)
			}
		}
	}
	s.polls[poll.PollID] = clonePoll(poll)
	return nil
}

func (s *Store) ExtendEndDate(_ context.Context, pollID string, endDate time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	poll, ok := s.polls[strings.TrimSpace(pollID)]
	if !ok {
		return domainerrors.ErrPollNotFound
	}
	poll.EndDate = endDate.UTC()
	s.polls[poll.PollID] = poll
	return nil
}

func (s *Store) PurgeAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.polls = make(map[string]entities.Poll)
	s.ballots = make(map[string]entities.Ballot)
	s.votes = make(map[string]entities.Vote)
	return nil
}

func (s *Store) CastBallot(
	_ context.Context,
	ballot entities.Ballot,
	votes []entities.Vote,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hasBallotLocked(ballot.PollID, ballot.VoterID) {
		return domainerrors.ErrDuplicateVote
	}
	s.ballots[ballot.BallotID] = ballot
	for _, vote := range votes {
		s.votes[vote.VoteID] = vote
	}
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func (s *Store) hasBallotLocked(pollID string, voterID string) bool {
	for _, ballot := range s.ballots {
		if ballot.PollID == pollID && ballot.VoterID == voterID {
			return true
		}
	}
	return false
}

// loadPollLocked projects a poll with its options' votes attached.
func (s *Store) loadPollLocked(poll entities.Poll) entities.Poll {
	out := clonePoll(poll)
	for i := range out.Options {
		for _, vote := range s.votes {
			if vote.PollOptionID == out.Options[i].OptionID {
				out.Options[i].Votes = append(out.Options[i].Votes, vote)
			}
		}
		sort.Slice(out.Options[i].Votes, func(a, b int) bool {
			return out.Options[i].Votes[a].VoteID < out.Options[i].Votes[b].VoteID
		})
	}
	return out
}

func clonePoll(poll entities.Poll) entities.Poll {
	out := poll
	out.Options = make([]entities.PollOption, len(poll.Options))
	for i, option := range poll.Options {
		cloned := option
		cloned.Votes = nil
		out.Options[i] = cloned
	}
	sort.Slice(out.Options, func(a, b int) bool {
		return out.Options[a].Position < out.Options[b].Position
	})
	return out
}

func sortPolls(items []entities.Poll) {
	sort.Slice(items, func(a, b int) bool {
		if items[a].CreatedAt.Equal(items[b].CreatedAt) {
			return items[a].PollID < items[b].PollID
		}
		return items[a].CreatedAt.Before(items[b].CreatedAt)
	})
}

var _ ports.PollRepository = (*Store)(nil)
var _ ports.BallotRepository = (*Store)(nil)
var _ ports.Clock = (*Store)(nil)
var _ ports.IDGenerator = (*Store)(nil)
