package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/AdamBeresnev/bracketd/internal/bracket"
	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type MatchStore struct {
	db *sqlx.DB
}

const (
	upsertMatchQuery = `
		INSERT INTO matches (id, tournament_id, game_id, stage, round_index, round_name, match_order,
			participant_a_id, participant_b_id, status, winner_participant_id, is_bye,
			next_match_id, winner_slot_in_next, created_at, updated_at)
		VALUES (:id, :tournament_id, :game_id, :stage, :round_index, :round_name, :match_order,
			:participant_a_id, :participant_b_id, :status, :winner_participant_id, :is_bye,
			:next_match_id, :winner_slot_in_next, :created_at, :updated_at)
		ON CONFLICT (id) DO UPDATE SET
			tournament_id = excluded.tournament_id,
			game_id = excluded.game_id,
			stage = excluded.stage,
			round_index = excluded.round_index,
			round_name = excluded.round_name,
			match_order = excluded.match_order,
			participant_a_id = excluded.participant_a_id,
			participant_b_id = excluded.participant_b_id,
			status = excluded.status,
			winner_participant_id = excluded.winner_participant_id,
			is_bye = excluded.is_bye,
			next_match_id = excluded.next_match_id,
			winner_slot_in_next = excluded.winner_slot_in_next,
			updated_at = excluded.updated_at
	`
	completeMatchQuery = `
		UPDATE matches SET status = ?, winner_participant_id = ?, is_bye = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`
	cancelMatchQuery = `
		UPDATE matches SET status = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`
	getMatchQuery        = "SELECT * FROM matches WHERE id = ?"
	matchExistsQuery     = "SELECT COUNT(*) FROM matches WHERE id = ?"
	getFeedersQuery      = "SELECT * FROM matches WHERE next_match_id = ? ORDER BY match_order ASC"
	getStageMatchesQuery = `
		SELECT * FROM matches
		WHERE tournament_id = ? AND game_id = ? AND stage = ?
		ORDER BY round_index ASC, match_order ASC
	`
	getMatchesQuery = `
		SELECT * FROM matches
		WHERE tournament_id = ? AND game_id = ?
		ORDER BY stage ASC, round_index ASC, match_order ASC
	`
	maxStageQuery = "SELECT MAX(stage) FROM matches WHERE tournament_id = ? AND game_id = ?"
)

// Only these two columns may be patched by SetSlot.
var slotColumns = map[bracket.Slot]string{
	bracket.SlotA: "participant_a_id",
	bracket.SlotB: "participant_b_id",
}

func NewMatchStore(db *sqlx.DB) *MatchStore {
	return &MatchStore{db: db}
}

// UpsertMatches writes a generated bracket keyed by match id. Every record is stamped with the
// key, SCHEDULED and no winner, so writing the same ids again overwrites rather than duplicates.
// created_at survives an overwrite. All writes share tx: the caller commits the bracket as a unit.
func (s *MatchStore) UpsertMatches(ctx context.Context, tx *sqlx.Tx, key bracket.Key, matches []bracket.Match, now time.Time) error {
	if len(matches) == 0 {
		return nil
	}

	stmt, err := tx.PrepareNamedContext(ctx, upsertMatchQuery)
	if err != nil {
		return wrapErr(err, "failed to prepare match upsert")
	}
	defer stmt.Close()

	now = now.UTC()
	for _, m := range matches {
		m.TournamentID = key.TournamentID
		m.GameID = key.GameID
		m.Status = bracket.MatchScheduled
		m.WinnerParticipantID = nil
		m.IsBye = false
		m.CreatedAt = now
		m.UpdatedAt = now

		if _, err := stmt.ExecContext(ctx, m); err != nil {
			return wrapErr(err, "failed to upsert match %s", m.ID)
		}
	}
	return nil
}

// CompleteMatch flips a SCHEDULED match to COMPLETED. The status check is part of the write so
// only one of two racing submissions can land; the other gets ErrConflict.
func (s *MatchStore) CompleteMatch(ctx context.Context, tx *sqlx.Tx, id, winnerID uuid.UUID, isBye bool, now time.Time) error {
	res, err := tx.ExecContext(ctx, completeMatchQuery,
		bracket.MatchCompleted, winnerID, isBye, now.UTC(), id, bracket.MatchScheduled)
	if err != nil {
		return wrapErr(err, "failed to complete match %s", id)
	}
	return s.guardTransition(ctx, tx, res, id)
}

func (s *MatchStore) CancelMatch(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, now time.Time) error {
	res, err := tx.ExecContext(ctx, cancelMatchQuery, bracket.MatchCancelled, now.UTC(), id, bracket.MatchScheduled)
	if err != nil {
		return wrapErr(err, "failed to cancel match %s", id)
	}
	return s.guardTransition(ctx, tx, res, id)
}

func (s *MatchStore) guardTransition(ctx context.Context, tx *sqlx.Tx, res sql.Result, id uuid.UUID) error {
	err := checkAffectedRows(res, fmt.Errorf("%w: match %s is not scheduled", bracket.ErrConflict, id))
	if err == nil {
		return nil
	}

	var count int
	if qerr := tx.GetContext(ctx, &count, matchExistsQuery, id); qerr != nil {
		return wrapErr(qerr, "failed to look up match %s", id)
	}
	if count == 0 {
		return fmt.Errorf("%w: match %s", bracket.ErrNotFound, id)
	}
	return err
}

// SetSlot patches a single participant column of a SCHEDULED match and leaves the other slot
// alone, so the two feeders of one match never overwrite each other. A decided or cancelled
// match is never rewritten: that gets ErrConflict.
func (s *MatchStore) SetSlot(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, slot bracket.Slot, participantID uuid.UUID, now time.Time) error {
	column, ok := slotColumns[slot]
	if !ok {
		return fmt.Errorf("%w: invalid slot %q", bracket.ErrValidation, slot)
	}

	query, args, err := sq.Update("matches").
		Set(column, participantID.String()).
		Set("updated_at", now.UTC()).
		Where(sq.Eq{"id": id.String(), "status": bracket.MatchScheduled}).
		ToSql()
	if err != nil {
		return wrapErr(err, "failed to build slot update")
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return wrapErr(err, "failed to set slot %s of match %s", slot, id)
	}
	return s.guardTransition(ctx, tx, res, id)
}

// GetFeedersTx returns the matches whose winner moves into id.
func (s *MatchStore) GetFeedersTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) ([]bracket.Match, error) {
	var feeders []bracket.Match
	if err := tx.SelectContext(ctx, &feeders, getFeedersQuery, id); err != nil {
		return nil, wrapErr(err, "failed to get feeders of match %s", id)
	}
	return feeders, nil
}

func (s *MatchStore) DeleteMatches(ctx context.Context, tx *sqlx.Tx, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = id.String()
	}

	query, args, err := sq.Delete("matches").Where(sq.Eq{"id": keys}).ToSql()
	if err != nil {
		return wrapErr(err, "failed to build match delete")
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return wrapErr(err, "failed to delete %d matches", len(ids))
	}
	return nil
}

func (s *MatchStore) GetMatch(ctx context.Context, id uuid.UUID) (*bracket.Match, error) {
	return getMatch(ctx, s.db, id)
}

func (s *MatchStore) GetMatchTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*bracket.Match, error) {
	return getMatch(ctx, tx, id)
}

func getMatch(ctx context.Context, q sqlx.QueryerContext, id uuid.UUID) (*bracket.Match, error) {
	var match bracket.Match
	if err := sqlx.GetContext(ctx, q, &match, getMatchQuery, id); err != nil {
		return nil, wrapErr(err, "match %s", id)
	}
	return &match, nil
}

// GetStageMatches returns one bracket ordered by round and order. q is either the DB or a tx.
func (s *MatchStore) GetStageMatches(ctx context.Context, q sqlx.QueryerContext, key bracket.Key, stage int) ([]bracket.Match, error) {
	if q == nil {
		q = s.db
	}
	var matches []bracket.Match
	if err := sqlx.SelectContext(ctx, q, &matches, getStageMatchesQuery, key.TournamentID, key.GameID, stage); err != nil {
		return nil, wrapErr(err, "failed to get matches of %s stage %d", key, stage)
	}
	return matches, nil
}

// GetMatches returns the match history of every stage of key.
func (s *MatchStore) GetMatches(ctx context.Context, key bracket.Key) ([]bracket.Match, error) {
	var matches []bracket.Match
	if err := s.db.SelectContext(ctx, &matches, getMatchesQuery, key.TournamentID, key.GameID); err != nil {
		return nil, wrapErr(err, "failed to get matches of %s", key)
	}
	return matches, nil
}

// MaxStage reports the highest stage generated for key, false when there is none.
func (s *MatchStore) MaxStage(ctx context.Context, key bracket.Key) (int, bool, error) {
	var stage sql.NullInt64
	if err := s.db.GetContext(ctx, &stage, maxStageQuery, key.TournamentID, key.GameID); err != nil {
		return 0, false, wrapErr(err, "failed to get max stage of %s", key)
	}
	return int(stage.Int64), stage.Valid, nil
}
