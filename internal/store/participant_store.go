package store

import (
	"context"
	"sort"
	"time"

	"github.com/AdamBeresnev/bracketd/internal/bracket"
	users "github.com/AdamBeresnev/bracketd/internal/user"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// ParticipantStore reads the registration data the bracket is built from. Writes only exist
// for roster imports; registration itself lives outside this service.
type ParticipantStore struct {
	db        *sqlx.DB
	chunkSize int
}

type teamMember struct {
	TeamID uuid.UUID `db:"team_id"`
	UserID uuid.UUID `db:"user_id"`
}

const (
	getParticipantsQuery = `
		SELECT * FROM participants
		WHERE tournament_id = ? AND game_id = ?
		ORDER BY created_at ASC, id ASC
	`
	createUserQuery = `
		INSERT INTO users (id, display_name, created_at) VALUES (:id, :display_name, :created_at)
		ON CONFLICT (id) DO UPDATE SET display_name = excluded.display_name
	`
	createTeamQuery = `
		INSERT INTO teams (id, name, created_at) VALUES (:id, :name, :created_at)
		ON CONFLICT (id) DO UPDATE SET name = excluded.name
	`
	clearTeamMembersQuery  = "DELETE FROM team_members WHERE team_id = ?"
	createTeamMemberQuery  = "INSERT INTO team_members (team_id, user_id) VALUES (:team_id, :user_id)"
	createParticipantQuery = `
		INSERT INTO participants (id, tournament_id, game_id, participant_type, user_id, team_id, seed, created_at)
		VALUES (:id, :tournament_id, :game_id, :participant_type, :user_id, :team_id, :seed, :created_at)
	`
)

func NewParticipantStore(db *sqlx.DB, chunkSize int) *ParticipantStore {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &ParticipantStore{db: db, chunkSize: chunkSize}
}

func (s *ParticipantStore) GetParticipants(ctx context.Context, key bracket.Key) ([]bracket.Participant, error) {
	var participants []bracket.Participant
	if err := s.db.SelectContext(ctx, &participants, getParticipantsQuery, key.TournamentID, key.GameID); err != nil {
		return nil, wrapErr(err, "failed to get participants of %s", key)
	}
	return participants, nil
}

func (s *ParticipantStore) GetParticipantsByIDs(ctx context.Context, ids []uuid.UUID) ([]bracket.Participant, error) {
	return fetchByIDs[bracket.Participant](ctx, s.db, "participants", "id", ids, s.chunkSize)
}

func (s *ParticipantStore) GetUsers(ctx context.Context, ids []uuid.UUID) ([]users.User, error) {
	return fetchByIDs[users.User](ctx, s.db, "users", "id", ids, s.chunkSize)
}

// GetTeams loads teams together with their member ids. Member lists are sorted for stable output.
func (s *ParticipantStore) GetTeams(ctx context.Context, ids []uuid.UUID) ([]bracket.Team, error) {
	teams, err := fetchByIDs[bracket.Team](ctx, s.db, "teams", "id", ids, s.chunkSize)
	if err != nil {
		return nil, err
	}
	if len(teams) == 0 {
		return teams, nil
	}

	members, err := fetchByIDs[teamMember](ctx, s.db, "team_members", "team_id", ids, s.chunkSize)
	if err != nil {
		return nil, err
	}
	byTeam := make(map[uuid.UUID][]uuid.UUID, len(teams))
	for _, m := range members {
		byTeam[m.TeamID] = append(byTeam[m.TeamID], m.UserID)
	}
	for i := range teams {
		memberIDs := byTeam[teams[i].ID]
		sort.Slice(memberIDs, func(a, b int) bool { return memberIDs[a].String() < memberIDs[b].String() })
		teams[i].MemberIDs = memberIDs
	}
	return teams, nil
}

func (s *ParticipantStore) CreateUsers(ctx context.Context, tx *sqlx.Tx, list []users.User) error {
	for _, u := range list {
		if u.CreatedAt.IsZero() {
			u.CreatedAt = time.Now().UTC()
		}
		if _, err := tx.NamedExecContext(ctx, createUserQuery, u); err != nil {
			return wrapErr(err, "failed to create user %s", u.ID)
		}
	}
	return nil
}

// CreateTeams upserts teams and replaces their member lists.
func (s *ParticipantStore) CreateTeams(ctx context.Context, tx *sqlx.Tx, teams []bracket.Team) error {
	for _, t := range teams {
		if t.CreatedAt.IsZero() {
			t.CreatedAt = time.Now().UTC()
		}
		if _, err := tx.NamedExecContext(ctx, createTeamQuery, t); err != nil {
			return wrapErr(err, "failed to create team %s", t.ID)
		}
		if _, err := tx.ExecContext(ctx, clearTeamMembersQuery, t.ID); err != nil {
			return wrapErr(err, "failed to clear members of team %s", t.ID)
		}
		for _, userID := range t.MemberIDs {
			if _, err := tx.NamedExecContext(ctx, createTeamMemberQuery, teamMember{TeamID: t.ID, UserID: userID}); err != nil {
				return wrapErr(err, "failed to add member %s to team %s", userID, t.ID)
			}
		}
	}
	return nil
}

func (s *ParticipantStore) CreateParticipants(ctx context.Context, tx *sqlx.Tx, participants []bracket.Participant) error {
	for _, p := range participants {
		if err := p.Validate(); err != nil {
			return err
		}
		if p.CreatedAt.IsZero() {
			p.CreatedAt = time.Now().UTC()
		}
		if _, err := tx.NamedExecContext(ctx, createParticipantQuery, p); err != nil {
			return wrapErr(err, "failed to create participant %s", p.ID)
		}
	}
	return nil
}
