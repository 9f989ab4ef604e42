package http

import "time"

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreatePollRequest struct {
	Question  string    `json:"question"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	MinVotes  int       `json:"min_votes"`
	MaxVotes  int       `json:"max_votes"`
	Options   []string  `json:"options"`
}

type UpdatePollRequest struct {
	Question  string    `json:"question"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	MinVotes  int       `json:"min_votes"`
	MaxVotes  int       `json:"max_votes"`
	Options   []string  `json:"options"`
}

type SubmitVoteRequest struct {
	PollOptionIDs []string `json:"poll_option_ids"`
}

type PollOptionResponse struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	VoteCount *int   `json:"vote_count,omitempty"`
}

type PollResponse struct {
	ID        string               `json:"id"`
	Question  string               `json:"question"`
	StartDate time.Time            `json:"start_date"`
	EndDate   time.Time            `json:"end_date"`
	MinVotes  int                  `json:"min_votes"`
	MaxVotes  int                  `json:"max_votes"`
	Options   []PollOptionResponse `json:"options"`
	HasVoted  bool                 `json:"has_voted"`
}

type PollListResponse struct {
	Items []PollResponse `json:"items"`
}

type OptionTallyResponse struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	VoteCount int    `json:"vote_count"`
}

type PollResultsResponse struct {
	ID       string                `json:"id"`
	Question string                `json:"question"`
	Options  []OptionTallyResponse `json:"options"`
}

type SubmitVoteResponse struct {
	Submitted bool `json:"submitted"`
}
