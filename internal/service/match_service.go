package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/AdamBeresnev/bracketd/internal/bracket"
	"github.com/AdamBeresnev/bracketd/internal/middleware"
	"github.com/AdamBeresnev/bracketd/internal/store"
	"github.com/AdamBeresnev/bracketd/internal/utils"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type MatchService struct {
	db           *sqlx.DB
	matches      *store.MatchStore
	results      *store.ResultStore
	participants *store.ParticipantStore
	opts         Options
}

func NewMatchService(db *sqlx.DB, matches *store.MatchStore, results *store.ResultStore, participants *store.ParticipantStore, opts Options) *MatchService {
	return &MatchService{db: db, matches: matches, results: results, participants: participants, opts: opts.withDefaults()}
}

type ResultInput struct {
	WinnerParticipantID uuid.UUID
	ScoreDetails        string
	// Keyed by participant, only the two participants of the match may appear
	PointsAwarded map[uuid.UUID]int
	// Falls back to the submitter in the context
	SubmittedBy uuid.UUID
}

type MatchData struct {
	Match  *bracket.Match
	Result *bracket.MatchResult
	Names  bracket.Names
}

func (s *MatchService) GetMatchDetails(ctx context.Context, matchID uuid.UUID) (*MatchData, error) {
	match, err := s.matches.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}

	var result *bracket.MatchResult
	if match.Status == bracket.MatchCompleted && !match.IsBye {
		result, err = s.results.GetResult(ctx, matchID)
		if err != nil && !errors.Is(err, bracket.ErrNotFound) {
			return nil, err
		}
	}

	names, err := resolveNames(ctx, s.participants, bracket.ParticipantIDs([]bracket.Match{*match}))
	if err != nil {
		return nil, err
	}

	return &MatchData{Match: match, Result: result, Names: names}, nil
}

// RecordResult decides a match and moves the winner into its slot of the next match. The read,
// the guarded status flip, the result row and the slot patch share one transaction, so of two
// submissions racing for the same match exactly one lands and the other gets ErrConflict.
func (s *MatchService) RecordResult(ctx context.Context, matchID uuid.UUID, input ResultInput) (bracket.Advancement, error) {
	adv, err := s.recordResult(ctx, matchID, input)
	if err != nil {
		s.reject(err)
		return bracket.Advancement{}, err
	}

	if m := s.opts.Metrics; m != nil {
		m.ResultsRecorded.Inc()
	}
	args := []any{"match_id", matchID, "winner", adv.WinnerID}
	if adv.Next != nil {
		args = append(args, "next_match_id", adv.Next.MatchID, "slot", adv.Next.Slot)
	}
	if adv.Champion != nil {
		args = append(args, "champion", *adv.Champion)
	}
	s.opts.Logger.Info("result recorded", args...)
	return adv, nil
}

func (s *MatchService) recordResult(ctx context.Context, matchID uuid.UUID, input ResultInput) (bracket.Advancement, error) {
	submitter := input.SubmittedBy
	if submitter == uuid.Nil {
		userID, ok := middleware.GetUserIDFromContext(ctx)
		if !ok {
			return bracket.Advancement{}, fmt.Errorf("%w: result for match %s has no submitter", bracket.ErrValidation, matchID)
		}
		submitter = userID
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return bracket.Advancement{}, fmt.Errorf("%w: failed to begin transaction: %w", bracket.ErrStorage, err)
	}
	defer tx.Rollback()

	match, err := s.matches.GetMatchTx(ctx, tx, matchID)
	if err != nil {
		return bracket.Advancement{}, err
	}

	adv, err := bracket.RecordResult(*match, input.WinnerParticipantID)
	if err != nil {
		return bracket.Advancement{}, err
	}
	if adv.LoserID == nil {
		feeders, err := s.matches.GetFeedersTx(ctx, tx, matchID)
		if err != nil {
			return bracket.Advancement{}, err
		}
		if bracket.AwaitsOpponent(*match, adv.WinnerID, feeders) {
			return bracket.Advancement{}, fmt.Errorf("%w: match %s is still waiting for its other participant", bracket.ErrConflict, matchID)
		}
	}
	for participantID := range input.PointsAwarded {
		if _, ok := match.SlotOf(participantID); !ok {
			return bracket.Advancement{}, fmt.Errorf("%w: points awarded to %s who is not part of match %s", bracket.ErrValidation, participantID, matchID)
		}
	}

	now := s.opts.Now()
	if err := s.matches.CompleteMatch(ctx, tx, matchID, adv.WinnerID, false, now); err != nil {
		return bracket.Advancement{}, err
	}

	result := &bracket.MatchResult{
		MatchID:             matchID,
		WinnerParticipantID: adv.WinnerID,
		LoserParticipantID:  adv.LoserID,
		ScoreDetails:        utils.StringOrNil(input.ScoreDetails),
		SubmittedBy:         submitter,
		CreatedAt:           now,
		PointsAwarded:       input.PointsAwarded,
	}
	if err := s.results.CreateResult(ctx, tx, result); err != nil {
		return bracket.Advancement{}, err
	}

	if adv.Next != nil {
		if err := s.matches.SetSlot(ctx, tx, adv.Next.MatchID, adv.Next.Slot, adv.Next.ParticipantID, now); err != nil {
			return bracket.Advancement{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return bracket.Advancement{}, fmt.Errorf("%w: failed to commit result: %w", bracket.ErrStorage, err)
	}
	return adv, nil
}

func (s *MatchService) reject(err error) {
	reason := errorKind(err)
	if m := s.opts.Metrics; m != nil {
		m.ResultsRejected.WithLabelValues(reason).Inc()
	}
	s.opts.Logger.Warn("result rejected", "reason", reason, "error", err)
}

// CancelMatch withdraws a scheduled match. Nobody advances out of it.
func (s *MatchService) CancelMatch(ctx context.Context, matchID uuid.UUID) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to begin transaction: %w", bracket.ErrStorage, err)
	}
	defer tx.Rollback()

	if err := s.matches.CancelMatch(ctx, tx, matchID, s.opts.Now()); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit cancellation: %w", bracket.ErrStorage, err)
	}

	s.opts.Logger.Info("match cancelled", "match_id", matchID)
	return nil
}

type Standing struct {
	ParticipantID uuid.UUID `json:"participant_id"`
	Name          string    `json:"name"`
	Points        int       `json:"points"`
}

// Standings ranks participants of a game by the points awarded to them across all stages.
func (s *MatchService) Standings(ctx context.Context, key bracket.Key) ([]Standing, error) {
	totals, err := s.results.PointTotals(ctx, key)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, len(totals))
	for i, t := range totals {
		ids[i] = t.ParticipantID
	}
	names, err := resolveNames(ctx, s.participants, ids)
	if err != nil {
		return nil, err
	}

	standings := make([]Standing, len(totals))
	for i, t := range totals {
		id := t.ParticipantID
		standings[i] = Standing{ParticipantID: id, Name: names.Of(&id), Points: t.Points}
	}
	return standings, nil
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, bracket.ErrValidation):
		return "validation"
	case errors.Is(err, bracket.ErrConflict):
		return "conflict"
	case errors.Is(err, bracket.ErrNotFound):
		return "not_found"
	case errors.Is(err, bracket.ErrStorage):
		return "storage"
	}
	return "unknown"
}
