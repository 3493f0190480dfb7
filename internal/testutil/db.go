// Package testutil sets up migrated in-memory databases and registration rows for tests.
package testutil

import (
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/AdamBeresnev/bracketd/internal/bracket"
	"github.com/AdamBeresnev/bracketd/internal/config"
	"github.com/AdamBeresnev/bracketd/internal/db"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

var (
	registered = time.Date(2025, 3, 1, 18, 0, 0, 0, time.UTC)
	clock      atomic.Int64
)

// MemoryDSN names a fresh shared-cache in-memory database. It lives as long as one connection to it is open.
func MemoryDSN() string {
	return fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
}

// NewDB creates an in-memory SQLite database private to the test and applies migrations.
// It holds a single connection, so a test must not use the DB handle while a tx is open.
func NewDB(t testing.TB) *sqlx.DB {
	t.Helper()
	return open(t, MemoryDSN(), 1)
}

// OpenDB connects to dsn with a single connection and applies migrations. Keeping the handle
// open keeps a MemoryDSN database alive for other connections to the same name.
func OpenDB(t testing.TB, dsn string) *sqlx.DB {
	t.Helper()
	return open(t, dsn, 1)
}

// NewFileDB creates a database file in a temporary directory opened with the server's
// connection options and an unbounded pool, so concurrent transactions really contend for the lock.
func NewFileDB(t testing.TB) *sqlx.DB {
	t.Helper()
	return open(t, filepath.Join(t.TempDir(), "bracketd.db")+"?"+config.DSNOptions, 0)
}

func open(t testing.TB, dsn string, maxConns int) *sqlx.DB {
	t.Helper()

	database, err := db.Open(dsn)
	require.NoError(t, err, "Failed to connect to DB")
	database.SetMaxOpenConns(maxConns)

	require.NoError(t, db.RunMigrations(database.DB), "Failed to apply migrations")

	t.Cleanup(func() { database.Close() })
	return database
}

// NextRegistration hands out strictly increasing registration times.
func NextRegistration() time.Time {
	return registered.Add(time.Duration(clock.Add(1)) * time.Second)
}

func AddUser(t testing.TB, database *sqlx.DB, name string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := database.Exec("INSERT INTO users (id, display_name, created_at) VALUES (?, ?, ?)", id, name, registered)
	require.NoError(t, err)
	return id
}

// AddPlayers registers one individual participant per name, in order.
func AddPlayers(t testing.TB, database *sqlx.DB, key bracket.Key, names ...string) []bracket.Participant {
	t.Helper()
	participants := make([]bracket.Participant, len(names))
	for i, name := range names {
		userID := AddUser(t, database, name)
		participants[i] = addParticipant(t, database, bracket.Participant{
			ID:           uuid.New(),
			TournamentID: key.TournamentID,
			GameID:       key.GameID,
			Type:         bracket.IndividualParticipant,
			UserID:       &userID,
		})
	}
	return participants
}

// AddTeam registers a team of new users as a participant.
func AddTeam(t testing.TB, database *sqlx.DB, key bracket.Key, name string, members ...string) (bracket.Participant, bracket.Team) {
	t.Helper()
	team := bracket.Team{ID: uuid.New(), Name: name, CreatedAt: registered}
	_, err := database.Exec("INSERT INTO teams (id, name, created_at) VALUES (?, ?, ?)", team.ID, name, registered)
	require.NoError(t, err)

	for _, member := range members {
		userID := AddUser(t, database, member)
		_, err := database.Exec("INSERT INTO team_members (team_id, user_id) VALUES (?, ?)", team.ID, userID)
		require.NoError(t, err)
		team.MemberIDs = append(team.MemberIDs, userID)
	}

	teamID := team.ID
	p := addParticipant(t, database, bracket.Participant{
		ID:           uuid.New(),
		TournamentID: key.TournamentID,
		GameID:       key.GameID,
		Type:         bracket.TeamParticipant,
		TeamID:       &teamID,
	})
	return p, team
}

func addParticipant(t testing.TB, database *sqlx.DB, p bracket.Participant) bracket.Participant {
	t.Helper()
	p.CreatedAt = NextRegistration()
	_, err := database.NamedExec(`
		INSERT INTO participants (id, tournament_id, game_id, participant_type, user_id, team_id, seed, created_at)
		VALUES (:id, :tournament_id, :game_id, :participant_type, :user_id, :team_id, :seed, :created_at)
	`, p)
	require.NoError(t, err)
	return p
}

func NewKey() bracket.Key {
	return bracket.Key{TournamentID: uuid.New(), GameID: uuid.New()}
}
