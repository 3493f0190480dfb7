package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/AdamBeresnev/bracketd/internal/bracket"
	"github.com/AdamBeresnev/bracketd/internal/metrics"
	"github.com/AdamBeresnev/bracketd/internal/store"
	"github.com/AdamBeresnev/bracketd/views"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type Options struct {
	AutoAdvanceByes bool
	Logger          *slog.Logger
	Metrics         *metrics.Metrics
	Now             func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

type BracketService struct {
	db           *sqlx.DB
	matches      *store.MatchStore
	participants *store.ParticipantStore
	opts         Options
}

func NewBracketService(db *sqlx.DB, matches *store.MatchStore, participants *store.ParticipantStore, opts Options) *BracketService {
	return &BracketService{db: db, matches: matches, participants: participants, opts: opts.withDefaults()}
}

// Eligibility is the field of a game: who can still be placed in a bracket and who is out.
type Eligibility struct {
	Active     []bracket.Participant
	Eliminated map[uuid.UUID]struct{}
	Teams      []bracket.Team
}

// EligibleParticipants folds the whole match history of key and returns whoever can still be
// placed in a new bracket.
func (s *BracketService) EligibleParticipants(ctx context.Context, key bracket.Key) (*Eligibility, error) {
	participants, err := s.participants.GetParticipants(ctx, key)
	if err != nil {
		return nil, err
	}
	teams, err := s.participants.GetTeams(ctx, bracket.TeamIDs(participants))
	if err != nil {
		return nil, err
	}
	history, err := s.matches.GetMatches(ctx, key)
	if err != nil {
		return nil, err
	}

	eliminated := bracket.ComputeEliminated(history, participants, teams)
	return &Eligibility{
		Active:     bracket.ActiveParticipants(participants, teams, eliminated),
		Eliminated: eliminated,
		Teams:      teams,
	}, nil
}

// GenerateStage builds the bracket of one stage from the eligible participants and writes it in a
// single transaction. Regenerating a stage reuses its match ids and drops whatever the new bracket
// no longer needs; a stage that already has a played result cannot be regenerated.
func (s *BracketService) GenerateStage(ctx context.Context, key bracket.Key, stage int) ([]bracket.Match, error) {
	if stage < 0 {
		return nil, fmt.Errorf("%w: stage must not be negative, got %d", bracket.ErrValidation, stage)
	}

	field, err := s.EligibleParticipants(ctx, key)
	if err != nil {
		return nil, err
	}
	if len(field.Active) == 0 {
		return nil, fmt.Errorf("%w: no eligible participants for %s", bracket.ErrValidation, key)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to begin transaction: %w", bracket.ErrStorage, err)
	}
	defer tx.Rollback()

	existing, err := s.matches.GetStageMatches(ctx, tx, key, stage)
	if err != nil {
		return nil, err
	}
	for _, m := range existing {
		if m.Status == bracket.MatchCompleted && !m.IsBye {
			return nil, fmt.Errorf("%w: stage %d of %s already has results", bracket.ErrConflict, stage, key)
		}
	}

	matches, err := bracket.Generate(field.Active, existing)
	if err != nil {
		return nil, err
	}
	key.Stamp(matches, stage)

	now := s.opts.Now()
	if err := s.matches.UpsertMatches(ctx, tx, key, matches, now); err != nil {
		return nil, err
	}
	if err := s.matches.DeleteMatches(ctx, tx, bracket.Leftover(existing, matches)); err != nil {
		return nil, err
	}

	byes := 0
	if s.opts.AutoAdvanceByes {
		matches, byes, err = s.settleByes(ctx, tx, matches, now)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: failed to commit bracket: %w", bracket.ErrStorage, err)
	}

	if m := s.opts.Metrics; m != nil {
		m.BracketsGenerated.Inc()
		m.ByesAdvanced.Add(float64(byes))
	}
	s.opts.Logger.Info("bracket generated",
		"key", key.String(),
		"stage", stage,
		"participants", len(field.Active),
		"matches", len(matches),
		"reused", len(existing)-len(bracket.Leftover(existing, matches)),
		"byes", byes,
	)
	return matches, nil
}

// settleByes writes what bracket.AdvanceByes decided through the same guarded updates a
// submitted result uses. Matches are visited in generation order so slots are filled before the
// match holding them is settled.
func (s *BracketService) settleByes(ctx context.Context, tx *sqlx.Tx, matches []bracket.Match, now time.Time) ([]bracket.Match, int, error) {
	settled := bracket.AdvanceByes(matches)

	byes := 0
	for _, m := range settled {
		switch m.Status {
		case bracket.MatchCompleted:
			if err := s.matches.CompleteMatch(ctx, tx, m.ID, *m.WinnerParticipantID, true, now); err != nil {
				return nil, 0, err
			}
			if m.NextMatchID != nil && m.WinnerSlotInNext != nil {
				if err := s.matches.SetSlot(ctx, tx, *m.NextMatchID, *m.WinnerSlotInNext, *m.WinnerParticipantID, now); err != nil {
					return nil, 0, err
				}
			}
			byes++
		case bracket.MatchCancelled:
			if err := s.matches.CancelMatch(ctx, tx, m.ID, now); err != nil {
				return nil, 0, err
			}
		}
	}
	return settled, byes, nil
}

// NextStage generates a new stage after the highest existing one, from whoever is still eligible.
func (s *BracketService) NextStage(ctx context.Context, key bracket.Key) (int, []bracket.Match, error) {
	last, ok, err := s.matches.MaxStage(ctx, key)
	if err != nil {
		return 0, nil, err
	}
	stage := 0
	if ok {
		stage = last + 1
	}

	matches, err := s.GenerateStage(ctx, key, stage)
	if err != nil {
		return 0, nil, err
	}
	return stage, matches, nil
}

// GetBracket resolves one stage into rounds with participant names.
func (s *BracketService) GetBracket(ctx context.Context, key bracket.Key, stage int) (*views.BracketData, error) {
	matches, err := s.matches.GetStageMatches(ctx, nil, key, stage)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: no bracket for stage %d of %s", bracket.ErrNotFound, stage, key)
	}

	names, err := s.resolveNames(ctx, bracket.ParticipantIDs(matches))
	if err != nil {
		return nil, err
	}

	data := views.PrepareBracketData(matches, names)
	data.Stage = stage
	return &data, nil
}

func (s *BracketService) resolveNames(ctx context.Context, participantIDs []uuid.UUID) (bracket.Names, error) {
	return resolveNames(ctx, s.participants, participantIDs)
}

func resolveNames(ctx context.Context, participants *store.ParticipantStore, participantIDs []uuid.UUID) (bracket.Names, error) {
	list, err := participants.GetParticipantsByIDs(ctx, participantIDs)
	if err != nil {
		return nil, err
	}
	teams, err := participants.GetTeams(ctx, bracket.TeamIDs(list))
	if err != nil {
		return nil, err
	}
	userList, err := participants.GetUsers(ctx, bracket.UserIDs(list, nil))
	if err != nil {
		return nil, err
	}
	return bracket.NewNames(list, userList, teams), nil
}
