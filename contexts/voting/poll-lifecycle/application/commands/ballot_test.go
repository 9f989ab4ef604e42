package commands

import (
	"context"
	"errors"
	"testing"
	"time"

	"agora/contexts/voting/poll-lifecycle/adapters/memory"
	"agora/contexts/voting/poll-lifecycle/domain/entities"
	domainerrors "agora/contexts/voting/poll-lifecycle/domain/errors"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}

var testNow = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

func openPoll(id string, minVotes, maxVotes int, optionIDs ...string) entities.Poll {
	poll := entities.Poll{
		PollID:    id,
		Question:  "favorite color",
		StartDate: testNow.Add(-24 * time.Hour),
		EndDate:   testNow.Add(24 * time.Hour),
		MinVotes:  minVotes,
		MaxVotes:  maxVotes,
		CreatedAt: testNow.Add(-48 * time.Hour),
	}
	for i, optionID := range optionIDs {
		poll.Options = append(poll.Options, entities.PollOption{
			OptionID: optionID,
			PollID:   id,
			Text:     "option " + optionID,
			Position: i,
		})
	}
	return poll
}

func newBallotUseCase(seed ...entities.Poll) (BallotUseCase, *memory.Store) {
	store := memory.NewStore(seed)
	return BallotUseCase{
		Polls:   store,
		Ballots: store,
		Clock:   fixedClock{now: testNow},
		IDGen:   store,
	}, store
}

func TestSubmitVotesEmptySelection(t *testing.T) {
	uc, _ := newBallotUseCase(openPoll("poll_1", 1, 1, "opt_a", "opt_b"))

	err := uc.SubmitVotes(context.Background(), SubmitVotesCommand{VoterID: "voter_1"})
	if !errors.Is(err, domainerrors.ErrEmptyBallot) {
		t.Fatalf("expected ErrEmptyBallot, got %v", err)
	}

	err = uc.SubmitVotes(context.Background(), SubmitVotesCommand{
		PollOptionIDs: []string{"", "  "},
		VoterID:       "voter_1",
	})
	if !errors.Is(err, domainerrors.ErrEmptyBallot) {
		t.Fatalf("expected ErrEmptyBallot for blank ids, got %v", err)
	}
}

func TestSubmitVotesMissingVoter(t *testing.T) {
	uc, _ := newBallotUseCase(openPoll("poll_1", 1, 1, "opt_a", "opt_b"))

	err := uc.SubmitVotes(context.Background(), SubmitVotesCommand{
		PollOptionIDs: []string{"opt_a"},
	})
	if !errors.Is(err, domainerrors.ErrVoterRequired) {
		t.Fatalf("expected ErrVoterRequired, got %v", err)
	}
}

func TestSubmitVotesUnknownOption(t *testing.T) {
	uc, _ := newBallotUseCase(openPoll("poll_1", 1, 1, "opt_a", "opt_b"))

	err := uc.SubmitVotes(context.Background(), SubmitVotesCommand{
		PollOptionIDs: []string{"opt_ghost"},
		VoterID:       "voter_1",
	})
	if !errors.Is(err, domainerrors.ErrOptionNotFound) {
		t.Fatalf("expected ErrOptionNotFound, got %v", err)
	}
}

func TestSubmitVotesCrossPollSelection(t *testing.T) {
	uc, _ := newBallotUseCase(
		openPoll("poll_1", 1, 2, "opt_a", "opt_b"),
		openPoll("poll_2", 1, 2, "opt_x", "opt_y"),
	)

	err := uc.SubmitVotes(context.Background(), SubmitVotesCommand{
		PollOptionIDs: []string{"opt_a", "opt_x"},
		VoterID:       "voter_1",
	})
	if !errors.Is(err, domainerrors.ErrBallotCrossesPolls) {
		t.Fatalf("expected ErrBallotCrossesPolls, got %v", err)
	}
}

func TestSubmitVotesOutsideWindow(t *testing.T) {
	scheduled := openPoll("poll_sched", 1, 1, "opt_s1", "opt_s2")
	scheduled.StartDate = testNow.Add(time.Hour)
	closed := openPoll("poll_closed", 1, 1, "opt_c1", "opt_c2")
	closed.EndDate = testNow.Add(-time.Hour)
	uc, _ := newBallotUseCase(scheduled, closed)

	err := uc.SubmitVotes(context.Background(), SubmitVotesCommand{
		PollOptionIDs: []string{"opt_s1"},
		VoterID:       "voter_1",
	})
	if !errors.Is(err, domainerrors.ErrPollNotOpen) {
		t.Fatalf("expected ErrPollNotOpen before the window, got %v", err)
	}

	err = uc.SubmitVotes(context.Background(), SubmitVotesCommand{
		PollOptionIDs: []string{"opt_c1"},
		VoterID:       "voter_1",
	})
	if !errors.Is(err, domainerrors.ErrPollClosed) {
		t.Fatalf("expected ErrPollClosed after the window, got %v", err)
	}
}

func TestSubmitVotesQuotaBounds(t *testing.T) {
	uc, _ := newBallotUseCase(openPoll("poll_1", 2, 2, "opt_a", "opt_b", "opt_c"))

	err := uc.SubmitVotes(context.Background(), SubmitVotesCommand{
		PollOptionIDs: []string{"opt_a"},
		VoterID:       "voter_1",
	})
	if !errors.Is(err, domainerrors.ErrBallotQuota) {
		t.Fatalf("expected ErrBallotQuota for too few, got %v", err)
	}

	err = uc.SubmitVotes(context.Background(), SubmitVotesCommand{
		PollOptionIDs: []string{"opt_a", "opt_b", "opt_c"},
		VoterID:       "voter_1",
	})
	if !errors.Is(err, domainerrors.ErrBallotQuota) {
		t.Fatalf("expected ErrBallotQuota for too many, got %v", err)
	}
}

func TestSubmitVotesMembershipCheckedBeforeQuota(t *testing.T) {
	uc, _ := newBallotUseCase(openPoll("poll_1", 2, 2, "opt_a", "opt_b"))

	// One valid id plus one foreign id is a membership failure even though
	// the count also misses the quota once the bad id is discarded.
	err := uc.SubmitVotes(context.Background(), SubmitVotesCommand{
		PollOptionIDs: []string{"opt_a", "opt_ghost"},
		VoterID:       "voter_1",
	})
	if !errors.Is(err, domainerrors.ErrBallotCrossesPolls) {
		t.Fatalf("expected ErrBallotCrossesPolls, got %v", err)
	}
}

func TestSubmitVotesDuplicateVoter(t *testing.T) {
	uc, _ := newBallotUseCase(openPoll("poll_1", 1, 1, "opt_a", "opt_b"))

	err := uc.SubmitVotes(context.Background(), SubmitVotesCommand{
		PollOptionIDs: []string{"opt_a"},
		VoterID:       "voter_1",
	})
	if err != nil {
		t.Fatalf("first ballot failed: %v", err)
	}

	err = uc.SubmitVotes(context.Background(), SubmitVotesCommand{
		PollOptionIDs: []string{"opt_b"},
		VoterID:       "voter_1",
	})
	if !errors.Is(err, domainerrors.ErrDuplicateVote) {
		t.Fatalf("expected ErrDuplicateVote, got %v", err)
	}

	err = uc.SubmitVotes(context.Background(), SubmitVotesCommand{
		PollOptionIDs: []string{"opt_b"},
		VoterID:       "voter_2",
	})
	if err != nil {
		t.Fatalf("second voter should be unaffected: %v", err)
	}
}

func TestSubmitVotesRepeatedIDsCollapse(t *testing.T) {
	uc, store := newBallotUseCase(openPoll("poll_1", 1, 1, "opt_a", "opt_b"))

	err := uc.SubmitVotes(context.Background(), SubmitVotesCommand{
		PollOptionIDs: []string{"opt_a", "opt_a", " opt_a "},
		VoterID:       "voter_1",
	})
	if err != nil {
		t.Fatalf("deduplicated ballot failed: %v", err)
	}

	poll, found, err := store.GetPoll(context.Background(), "poll_1")
	if err != nil || !found {
		t.Fatalf("reload poll: found=%v err=%v", found, err)
	}
	for _, option := range poll.Options {
		if option.OptionID == "opt_a" && len(option.Votes) != 1 {
			t.Fatalf("expected a single vote on opt_a, got %d", len(option.Votes))
		}
	}
}

func TestSubmitVotesRecordsAllSelections(t *testing.T) {
	uc, store := newBallotUseCase(openPoll("poll_1", 2, 3, "opt_a", "opt_b", "opt_c"))

	err := uc.SubmitVotes(context.Background(), SubmitVotesCommand{
		PollOptionIDs: []string{"opt_a", "opt_c"},
		VoterID:       "voter_1",
	})
	if err != nil {
		t.Fatalf("ballot failed: %v", err)
	}

	poll, _, err := store.GetPoll(context.Background(), "poll_1")
	if err != nil {
		t.Fatalf("reload poll: %v", err)
	}
	counts := map[string]int{}
	for _, option := range poll.Options {
		counts[option.OptionID] = len(option.Votes)
	}
	if counts["opt_a"] != 1 || counts["opt_b"] != 0 || counts["opt_c"] != 1 {
		t.Fatalf("unexpected tallies %v", counts)
	}

	voted, err := store.HasVoted(context.Background(), "poll_1", "voter_1")
	if err != nil || !voted {
		t.Fatalf("expected recorded ballot, voted=%v err=%v", voted, err)
	}
}
