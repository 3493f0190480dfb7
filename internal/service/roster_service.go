package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/AdamBeresnev/bracketd/internal/bracket"
	"github.com/AdamBeresnev/bracketd/internal/store"
	users "github.com/AdamBeresnev/bracketd/internal/user"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// RosterService loads registration data exported from the tournament system. Users and teams
// are upserted by id; participants are always new rows.
type RosterService struct {
	db    *sqlx.DB
	store *store.ParticipantStore
	opts  Options
}

func NewRosterService(db *sqlx.DB, store *store.ParticipantStore, opts Options) *RosterService {
	return &RosterService{db: db, store: store, opts: opts.withDefaults()}
}

type Roster struct {
	Users        []RosterUser  `json:"users"`
	Teams        []RosterTeam  `json:"teams"`
	Participants []RosterEntry `json:"participants"`
}

type RosterUser struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"display_name"`
}

type RosterTeam struct {
	ID        uuid.UUID   `json:"id"`
	Name      string      `json:"name"`
	MemberIDs []uuid.UUID `json:"member_ids"`
}

// RosterEntry registers a user or a team for a game. A missing id gets a fresh one.
type RosterEntry struct {
	ID     uuid.UUID  `json:"id"`
	UserID *uuid.UUID `json:"user_id,omitempty"`
	TeamID *uuid.UUID `json:"team_id,omitempty"`
	Seed   *int       `json:"seed,omitempty"`
}

func (s *RosterService) Import(ctx context.Context, key bracket.Key, roster Roster) ([]bracket.Participant, error) {
	userList := make([]users.User, 0, len(roster.Users))
	for _, u := range roster.Users {
		name := strings.TrimSpace(u.DisplayName)
		if u.ID == uuid.Nil || name == "" {
			return nil, fmt.Errorf("%w: user needs an id and a display name", bracket.ErrValidation)
		}
		userList = append(userList, users.User{ID: u.ID, DisplayName: name})
	}

	teams := make([]bracket.Team, 0, len(roster.Teams))
	for _, t := range roster.Teams {
		name := strings.TrimSpace(t.Name)
		if t.ID == uuid.Nil || name == "" {
			return nil, fmt.Errorf("%w: team needs an id and a name", bracket.ErrValidation)
		}
		teams = append(teams, bracket.Team{ID: t.ID, Name: name, MemberIDs: t.MemberIDs})
	}

	now := s.opts.Now().UTC()
	participants := make([]bracket.Participant, 0, len(roster.Participants))
	for i, e := range roster.Participants {
		p := bracket.Participant{
			ID:           e.ID,
			TournamentID: key.TournamentID,
			GameID:       key.GameID,
			Type:         bracket.IndividualParticipant,
			UserID:       e.UserID,
			TeamID:       e.TeamID,
			Seed:         e.Seed,
			// roster order is registration order
			CreatedAt: now.Add(time.Duration(i) * time.Microsecond),
		}
		if e.UserID == nil {
			p.Type = bracket.TeamParticipant
		}
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("participant %d: %w", i, err)
		}
		participants = append(participants, p)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to begin transaction: %w", bracket.ErrStorage, err)
	}
	defer tx.Rollback()

	if err := s.store.CreateUsers(ctx, tx, userList); err != nil {
		return nil, err
	}
	if err := s.store.CreateTeams(ctx, tx, teams); err != nil {
		return nil, err
	}
	if err := s.store.CreateParticipants(ctx, tx, participants); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: failed to commit roster: %w", bracket.ErrStorage, err)
	}

	s.opts.Logger.Info("roster imported",
		"key", key.String(),
		"users", len(userList),
		"teams", len(teams),
		"participants", len(participants),
	)
	return participants, nil
}
