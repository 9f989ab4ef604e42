package postgresadapter

import (
	"time"

	"agora/contexts/voting/poll-lifecycle/domain/entities"
)

type pollModel struct {
	ID              string            `gorm:"column:id;primaryKey"`
	Question        string            `gorm:"column:question"`
	StartDate       time.Time         `gorm:"column:start_date;index"`
	EndDate         time.Time         `gorm:"column:end_date;index"`
	CreatedByUserID string            `gorm:"column:created_by_user_id;index"`
	MinVotes        int               `gorm:"column:min_votes"`
	MaxVotes        int               `gorm:"column:max_votes"`
	CreatedAt       time.Time         `gorm:"column:created_at"`
	UpdatedAt       time.Time         `gorm:"column:updated_at"`
	Options         []pollOptionModel `gorm:"foreignKey:PollID;constraint:OnDelete:CASCADE"`
}

func (pollModel) TableName() string {
	return "polls"
}

type pollOptionModel struct {
	ID         string      `gorm:"column:id;primaryKey"`
	PollID     string      `gorm:"column:poll_id;index"`
	OptionText string      `gorm:"column:option_text"`
	Position   int         `gorm:"column:position"`
	Votes      []voteModel `gorm:"foreignKey:PollOptionID;constraint:OnDelete:CASCADE"`
}

func (pollOptionModel) TableName() string {
	return "poll_options"
}

// ballotModel is the derived (poll, voter) row that turns duplicate-vote
// prevention into a store constraint rather than a read-then-write check.
type ballotModel struct {
	ID      string    `gorm:"column:id;primaryKey"`
	PollID  string    `gorm:"column:poll_id;uniqueIndex:idx_ballots_poll_voter"`
	VoterID string    `gorm:"column:voter_id;uniqueIndex:idx_ballots_poll_voter"`
	CastAt  time.Time `gorm:"column:cast_at"`
}

func (ballotModel) TableName() string {
	return "ballots"
}

type voteModel struct {
	ID           string    `gorm:"column:id;primaryKey"`
	BallotID     string    `gorm:"column:ballot_id;index"`
	PollOptionID string    `gorm:"column:poll_option_id;index"`
	VoterID      string    `gorm:"column:voter_id;index"`
	VotedAt      time.Time `gorm:"column:voted_at"`
}

func (voteModel) TableName() string {
	return "votes"
}

func pollModelFromEntity(poll entities.Poll) pollModel {
	row := pollModel{
		ID:              poll.PollID,
		Question:        poll.Question,
		StartDate:       poll.StartDate.UTC(),
		EndDate:         poll.EndDate.UTC(),
		CreatedByUserID: poll.CreatedByUserID,
		MinVotes:        poll.MinVotes,
		MaxVotes:        poll.MaxVotes,
		CreatedAt:       poll.CreatedAt.UTC(),
		UpdatedAt:       poll.UpdatedAt.UTC(),
	}
	for _, option := range poll.Options {
		row.Options = append(row.Options, pollOptionModel{
			ID:         option.OptionID,
			PollID:     poll.PollID,
			OptionText: option.Text,
			Position:   option.Position,
		})
	}
	return row
}

func (row pollModel) toEntity() entities.Poll {
	poll := entities.Poll{
		PollID:          row.ID,
		Question:        row.Question,
		StartDate:       row.StartDate.UTC(),
		EndDate:         row.EndDate.UTC(),
		CreatedByUserID: row.CreatedByUserID,
		MinVotes:        row.MinVotes,
		MaxVotes:        row.MaxVotes,
		CreatedAt:       row.CreatedAt.UTC(),
		UpdatedAt:       row.UpdatedAt.UTC(),
	}
	for _, option := range row.Options {
		poll.Options = append(poll.Options, option.toEntity())
	}
	return poll
}

func (row pollOptionModel) toEntity() entities.PollOption {
	option := entities.PollOption{
		OptionID: row.ID,
		PollID:   row.PollID,
		Text:     row.OptionText,
		Position: row.Position,
	}
	for _, vote := range row.Votes {
		option.Votes = append(option.Votes, vote.toEntity())
	}
	return option
}

func (row voteModel) toEntity() entities.Vote {
	return entities.Vote{
		VoteID:       row.ID,
		BallotID:     row.BallotID,
		PollOptionID: row.PollOptionID,
		VoterID:      row.VoterID,
		VotedAt:      row.VotedAt.UTC(),
	}
}
