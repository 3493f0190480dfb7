package store

import (
	"context"
	"time"

	"github.com/AdamBeresnev/bracketd/internal/bracket"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type ResultStore struct {
	db *sqlx.DB
}

type resultPoints struct {
	ResultID      uuid.UUID `db:"result_id"`
	ParticipantID uuid.UUID `db:"participant_id"`
	Points        int       `db:"points"`
}

// PointTotal is the sum of points a participant was awarded across a game's results.
type PointTotal struct {
	ParticipantID uuid.UUID `db:"participant_id"`
	Points        int       `db:"points"`
}

const (
	createResultQuery = `
		INSERT INTO match_results (id, match_id, winner_participant_id, loser_participant_id, score_details, submitted_by, created_at)
		VALUES (:id, :match_id, :winner_participant_id, :loser_participant_id, :score_details, :submitted_by, :created_at)
	`
	createResultPointsQuery = `
		INSERT INTO match_result_points (result_id, participant_id, points)
		VALUES (:result_id, :participant_id, :points)
	`
	getResultQuery       = "SELECT * FROM match_results WHERE match_id = ?"
	getResultPointsQuery = "SELECT * FROM match_result_points WHERE result_id = ?"
	pointTotalsQuery     = `
		SELECT p.participant_id AS participant_id, SUM(p.points) AS points
		FROM match_result_points p
		JOIN match_results r ON r.id = p.result_id
		JOIN matches m ON m.id = r.match_id
		WHERE m.tournament_id = ? AND m.game_id = ?
		GROUP BY p.participant_id
		ORDER BY points DESC, p.participant_id ASC
	`
)

func NewResultStore(db *sqlx.DB) *ResultStore {
	return &ResultStore{db: db}
}

// CreateResult stores the immutable result of a match with its point awards. A second result for
// the same match is rejected by the unique match_id and surfaces as ErrConflict.
func (s *ResultStore) CreateResult(ctx context.Context, tx *sqlx.Tx, result *bracket.MatchResult) error {
	if result.ID == uuid.Nil {
		result.ID = uuid.New()
	}
	if result.CreatedAt.IsZero() {
		result.CreatedAt = time.Now()
	}
	result.CreatedAt = result.CreatedAt.UTC()

	if _, err := tx.NamedExecContext(ctx, createResultQuery, result); err != nil {
		return wrapErr(err, "failed to create result for match %s", result.MatchID)
	}

	for participantID, points := range result.PointsAwarded {
		row := resultPoints{ResultID: result.ID, ParticipantID: participantID, Points: points}
		if _, err := tx.NamedExecContext(ctx, createResultPointsQuery, row); err != nil {
			return wrapErr(err, "failed to award points to %s", participantID)
		}
	}
	return nil
}

func (s *ResultStore) GetResult(ctx context.Context, matchID uuid.UUID) (*bracket.MatchResult, error) {
	var result bracket.MatchResult
	if err := s.db.GetContext(ctx, &result, getResultQuery, matchID); err != nil {
		return nil, wrapErr(err, "result of match %s", matchID)
	}

	var points []resultPoints
	if err := s.db.SelectContext(ctx, &points, getResultPointsQuery, result.ID); err != nil {
		return nil, wrapErr(err, "failed to get points of result %s", result.ID)
	}
	result.PointsAwarded = make(map[uuid.UUID]int, len(points))
	for _, p := range points {
		result.PointsAwarded[p.ParticipantID] = p.Points
	}
	return &result, nil
}

// PointTotals sums awarded points per participant over every stage of key, best first.
func (s *ResultStore) PointTotals(ctx context.Context, key bracket.Key) ([]PointTotal, error) {
	var totals []PointTotal
	if err := s.db.SelectContext(ctx, &totals, pointTotalsQuery, key.TournamentID, key.GameID); err != nil {
		return nil, wrapErr(err, "failed to sum points of %s", key)
	}
	return totals, nil
}
