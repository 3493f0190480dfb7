package bracket

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

type ParticipantType string

const (
	IndividualParticipant ParticipantType = "individual"
	TeamParticipant       ParticipantType = "team"
)

type Participant struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	TournamentID uuid.UUID       `db:"tournament_id" json:"tournament_id"`
	GameID       uuid.UUID       `db:"game_id" json:"game_id"`
	Type         ParticipantType `db:"participant_type" json:"participant_type"`

	// Exactly one of these is set, matching Type
	UserID *uuid.UUID `db:"user_id" json:"user_id"`
	TeamID *uuid.UUID `db:"team_id" json:"team_id"`

	// Lower is better, nil means unseeded
	Seed *int `db:"seed" json:"seed"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

func (p Participant) Validate() error {
	switch p.Type {
	case IndividualParticipant:
		if p.UserID == nil || p.TeamID != nil {
			return fmt.Errorf("%w: individual participant %s must reference exactly one user", ErrValidation, p.ID)
		}
	case TeamParticipant:
		if p.TeamID == nil || p.UserID != nil {
			return fmt.Errorf("%w: team participant %s must reference exactly one team", ErrValidation, p.ID)
		}
	default:
		return fmt.Errorf("%w: participant %s has unknown type %q", ErrValidation, p.ID, p.Type)
	}
	if p.Seed != nil && *p.Seed <= 0 {
		return fmt.Errorf("%w: participant %s has non-positive seed %d", ErrValidation, p.ID, *p.Seed)
	}
	return nil
}

// SortParticipants returns a copy ordered for slot placement: seeded first by seed, then
// everyone else by registration time. A zero CreatedAt sorts last and the id breaks any
// remaining tie so the order never depends on the input order.
func SortParticipants(participants []Participant) []Participant {
	sorted := make([]Participant, len(participants))
	copy(sorted, participants)
	sort.SliceStable(sorted, func(i, j int) bool {
		return participantLess(sorted[i], sorted[j])
	})
	return sorted
}

func participantLess(a, b Participant) bool {
	switch {
	case a.Seed != nil && b.Seed != nil:
		if *a.Seed != *b.Seed {
			return *a.Seed < *b.Seed
		}
	case a.Seed != nil:
		return true
	case b.Seed != nil:
		return false
	}

	if !a.CreatedAt.Equal(b.CreatedAt) {
		if a.CreatedAt.IsZero() {
			return false
		}
		if b.CreatedAt.IsZero() {
			return true
		}
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID.String() < b.ID.String()
}

type Team struct {
	ID        uuid.UUID   `db:"id" json:"id"`
	Name      string      `db:"name" json:"name"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
	MemberIDs []uuid.UUID `db:"-" json:"member_ids"`
}
