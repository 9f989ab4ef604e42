package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"agora/contexts/voting/poll-lifecycle/domain/entities"
	domainerrors "agora/contexts/voting/poll-lifecycle/domain/errors"
	"agora/contexts/voting/poll-lifecycle/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Migrate creates the poll lifecycle tables and their constraints, including
// the ballots (poll_id, voter_id) unique index.
func (r *Repository) Migrate() error {
	return r.db.AutoMigrate(
		&pollModel{},
		&pollOptionModel{},
		&ballotModel{},
		&voteModel{},
	)
}

func (r *Repository) CreatePoll(ctx context.Context, poll entities.Poll) error {
	row := pollModelFromEntity(poll)
	// gorm persists the association rows with the parent in one transaction.
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return r.logError("poll_repo_create_failed", err, "poll_id", poll.PollID)
	}
	return nil
}

func (r *Repository) GetPoll(ctx context.Context, pollID string) (entities.Poll, bool, error) {
	var row pollModel
	err := r.db.WithContext(ctx).
		Preload("Options", orderOptions).
		Preload("Options.Votes").
		Where("id = ?", strings.TrimSpace(pollID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Poll{}, false, nil
		}
		return entities.Poll{}, false, r.logError("poll_repo_get_failed", err, "poll_id", strings.TrimSpace(pollID))
	}
	return row.toEntity(), true, nil
}

func (r *Repository) GetPollByOption(ctx context.Context, optionID string) (entities.Poll, bool, error) {
	var option pollOptionModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(optionID)).
		First(&option).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Poll{}, false, nil
		}
		return entities.Poll{}, false, r.logError("poll_repo_get_by_option_failed", err,
			"option_id", strings.TrimSpace(optionID),
		)
	}
	return r.GetPoll(ctx, option.PollID)
}

func (r *Repository) ListActive(ctx context.Context, now time.Time) ([]entities.Poll, error) {
	var rows []pollModel
	err := r.db.WithContext(ctx).
		Preload("Options", orderOptions).
		Where("start_date <= ?", now.UTC()).
		Where("end_date >= ?", now.UTC()).
		Order("created_at ASC").
		Find(&rows).
		Error
	if err != nil {
		return nil, r.logError("poll_repo_list_active_failed", err)
	}
	return toEntities(rows), nil
}

func (r *Repository) ListAll(ctx context.Context) ([]entities.Poll, error) {
	var rows []pollModel
	err := r.db.WithContext(ctx).
		Preload("Options", orderOptions).
		Order("created_at ASC").
		Find(&rows).
		Error
	if err != nil {
		return nil, r.logError("poll_repo_list_all_failed", err)
	}
	return toEntities(rows), nil
}

func (r *Repository) ListClosed(
	ctx context.Context,
	filter ports.ClosedPollFilter,
	now time.Time,
) ([]entities.Poll, error) {
	tx := r.db.WithContext(ctx).
		Preload("Options", orderOptions).
		Where("end_date < ?", now.UTC())

	if needle := strings.TrimSpace(filter.QuestionSubstring); needle != "" {
		tx = tx.Where("question ILIKE ?", "%"+escapeLike(needle)+"%")
	}
	if filter.EndedAfter != nil {
		tx = tx.Where("end_date >= ?", filter.EndedAfter.UTC())
	}
	if filter.EndedBefore != nil {
		tx = tx.Where("end_date <= ?", filter.EndedBefore.UTC())
	}

	var rows []pollModel
	if err := tx.Order("end_date DESC").Find(&rows).Error; err != nil {
		return nil, r.logError("poll_repo_list_closed_failed", err)
	}
	return toEntities(rows), nil
}

func (r *Repository) ListCreatedBy(ctx context.Context, userID string) ([]entities.Poll, error) {
	var rows []pollModel
	err := r.db.WithContext(ctx).
		Preload("Options", orderOptions).
		Preload("Options.Votes").
		Where("created_by_user_id = ?", strings.TrimSpace(userID)).
		Order("created_at ASC").
		Find(&rows).
		Error
	if err != nil {
		return nil, r.logError("poll_repo_list_created_by_failed", err, "user_id", strings.TrimSpace(userID))
	}
	return toEntities(rows), nil
}

func (r *Repository) ListVotedPollIDs(ctx context.Context, voterID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&ballotModel{}).
		Distinct("poll_id").
		Where("voter_id = ?", strings.TrimSpace(voterID)).
		Pluck("poll_id", &ids).
		Error
	if err != nil {
		return nil, r.logError("poll_repo_list_voted_failed", err, "voter_id", strings.TrimSpace(voterID))
	}
	return ids, nil
}

func (r *Repository) HasVoted(ctx context.Context, pollID string, voterID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&ballotModel{}).
		Where("poll_id = ?", strings.TrimSpace(pollID)).
		Where("voter_id = ?", strings.TrimSpace(voterID)).
		Count(&count).
		Error
	if err != nil {
		return false, r.logError("poll_repo_has_voted_failed", err,
			"poll_id", strings.TrimSpace(pollID),
			"voter_id", strings.TrimSpace(voterID),
		)
	}
	return count > 0, nil
}

// ReplacePoll applies a full edit in one transaction: field update, option
// delete, option insert. The poll never commits with zero options.
func (r *Repository) ReplacePoll(ctx context.Context, poll entities.Poll) error {
	row := pollModelFromEntity(poll)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		update := tx.Model(&pollModel{}).
			Where("id = ?", row.ID).
			Updates(map[string]any{
				"question":   row.Question,
				"start_date": row.StartDate,
				"end_date":   row.EndDate,
				"min_votes":  row.MinVotes,
				"max_votes":  row.MaxVotes,
				"updated_at": row.UpdatedAt,
			})
		if update.Error != nil {
			return update.Error
		}
		if update.RowsAffected == 0 {
			return domainerrors.ErrPollNotFound
		}
		if err := tx.Where("poll_id = ?", row.ID).Delete(&pollOptionModel{}).Error; err != nil {
			return err
		}
		options := row.Options
		return tx.Create(&options).Error
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrPollNotFound) {
			return err
		}
		return r.logError("poll_repo_replace_failed", err, "poll_id", poll.PollID)
	}
	return nil
}

func (r *Repository) ExtendEndDate(ctx context.Context, pollID string, endDate time.Time) error {
	update := r.db.WithContext(ctx).
		Model(&pollModel{}).
		Where("id = ?", strings.TrimSpace(pollID)).
		Updates(map[string]any{
			"end_date":   endDate.UTC(),
			"updated_at": time.Now().UTC(),
		})
	if update.Error != nil {
		return r.logError("poll_repo_extend_failed", update.Error, "poll_id", strings.TrimSpace(pollID))
	}
	if update.RowsAffected == 0 {
		return domainerrors.ErrPollNotFound
	}
	return nil
}

func (r *Repository) PurgeAll(ctx context.Context) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{&voteModel{}, &ballotModel{}, &pollOptionModel{}, &pollModel{}} {
			if err := tx.Where("1 = 1").Delete(model).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return r.logError("poll_repo_purge_failed", err)
	}
	return nil
}

// CastBallot inserts the ballot row and its vote rows in one transaction.
// A concurrent duplicate loses on idx_ballots_poll_voter and surfaces as
// ErrDuplicateVote, keeping one-ballot-per-voter a hard guarantee.
func (r *Repository) CastBallot(
	ctx context.Context,
	ballot entities.Ballot,
	votes []entities.Vote,
) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ballotRow := ballotModel{
			ID:      ballot.BallotID,
			PollID:  ballot.PollID,
			VoterID: ballot.VoterID,
			CastAt:  ballot.CastAt.UTC(),
		}
		if err := tx.Create(&ballotRow).Error; err != nil {
			return err
		}
		voteRows := make([]voteModel, 0, len(votes))
		for _, vote := range votes {
			voteRows = append(voteRows, voteModel{
				ID:           vote.VoteID,
				BallotID:     vote.BallotID,
				PollOptionID: vote.PollOptionID,
				VoterID:      vote.VoterID,
				VotedAt:      vote.VotedAt.UTC(),
			})
		}
		return tx.Create(&voteRows).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrDuplicateVote
		}
		return r.logError("poll_repo_cast_ballot_failed", err,
			"poll_id", ballot.PollID,
			"voter_id", ballot.VoterID,
		)
	}
	return nil
}

func (r *Repository) logError(event string, err error, args ...any) error {
	fields := append([]any{
		"event", event,
		"module", "voting/poll-lifecycle",
		"layer", "adapter",
		"error", err.Error(),
	}, args...)
	r.logger.Error("poll repository operation failed", fields...)
	return err
}

func orderOptions(db *gorm.DB) *gorm.DB {
	return db.Order("poll_options.position ASC")
}

func toEntities(rows []pollModel) []entities.Poll {
	items := make([]entities.Poll, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items
}

// escapeLike neutralizes LIKE wildcards in user-supplied substrings.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	return strings.ReplaceAll(s, `_`, `\_`)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.PollRepository = (*Repository)(nil)
var _ ports.BallotRepository = (*Repository)(nil)
