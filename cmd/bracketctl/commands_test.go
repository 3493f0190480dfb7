package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/AdamBeresnev/bracketd/internal/bracket"
	"github.com/AdamBeresnev/bracketd/internal/middleware"
	"github.com/AdamBeresnev/bracketd/internal/service"
	"github.com/AdamBeresnev/bracketd/internal/store"
	"github.com/AdamBeresnev/bracketd/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command once. Flags keep their values between runs, so callers pass
// every flag they depend on.
func execute(args ...string) (string, string, error) {
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestGenerateAndEliminated(t *testing.T) {
	ctx := context.Background()
	dsn := testutil.MemoryDSN()
	holder := testutil.OpenDB(t, dsn)
	key := testutil.NewKey()
	players := testutil.AddPlayers(t, holder, key, "Ann", "Bob", "Cid", "Dee")
	tid, gid := key.TournamentID.String(), key.GameID.String()

	out, _, err := execute("generate", tid, gid, "--stage=0", "--dsn", dsn)
	require.NoError(t, err)
	assert.Contains(t, out, "stage 0, 3 matches")
	assert.Regexp(t, `Semi Final\s+0\s+Ann\s+vs\s+Bob\s+SCHEDULED`, out)
	assert.Regexp(t, `Final\s+0\s+TBD\s+vs\s+TBD\s+SCHEDULED`, out)

	matchStore := store.NewMatchStore(holder)
	matches, err := matchStore.GetStageMatches(ctx, nil, key, 0)
	require.NoError(t, err)
	results := service.NewMatchService(holder, matchStore, store.NewResultStore(holder), store.NewParticipantStore(holder, 10), service.Options{})
	_, err = results.RecordResult(middleware.WithSubmitter(ctx, uuid.New()), matches[0].ID, service.ResultInput{WinnerParticipantID: players[0].ID})
	require.NoError(t, err)

	out, errOut, err := execute("eliminated", tid, gid, "--dsn", dsn)
	require.NoError(t, err)
	assert.Equal(t, players[1].UserID.String()+"\n", out)
	assert.Equal(t, "1 eliminated, 3 still active\n", errOut)

	_, _, err = execute("generate", tid, gid, "--stage=0", "--dsn", dsn)
	assert.ErrorIs(t, err, bracket.ErrConflict, "stage 0 has a result")

	out, _, err = execute("generate", tid, gid, "--stage=-1", "--dsn", dsn)
	require.NoError(t, err)
	assert.Contains(t, out, "stage 1, 3 matches")
	assert.Regexp(t, `Semi Final\s+0\s+Ann\s+vs\s+Cid\s+SCHEDULED`, out)
	assert.Regexp(t, `Semi Final\s+1\s+Dee\s+vs\s+TBD\s+COMPLETED`, out)
}

func TestImportCommand(t *testing.T) {
	dsn := testutil.MemoryDSN()
	holder := testutil.OpenDB(t, dsn)
	key := testutil.NewKey()

	ann, bob := uuid.New(), uuid.New()
	path := filepath.Join(t.TempDir(), "roster.json")
	roster := fmt.Sprintf(`{
		"users": [{"id": %q, "display_name": "Ann"}, {"id": %q, "display_name": "Bob"}],
		"participants": [{"user_id": %q}, {"user_id": %q, "seed": 2}]
	}`, ann, bob, ann, bob)
	require.NoError(t, os.WriteFile(path, []byte(roster), 0o600))

	_, _, err := execute("migrate", "--dsn", dsn)
	require.NoError(t, err)

	out, _, err := execute("import", key.TournamentID.String(), key.GameID.String(), path, "--dsn", dsn)
	require.NoError(t, err)
	assert.Contains(t, out, "imported 2 participants")
	assert.Regexp(t, `individual\s+2`, out)

	participants, err := store.NewParticipantStore(holder, 10).GetParticipants(context.Background(), key)
	require.NoError(t, err)
	assert.Len(t, participants, 2)
}

func TestCommandArguments(t *testing.T) {
	dsn := testutil.MemoryDSN()
	testutil.OpenDB(t, dsn)

	_, _, err := execute("eliminated", "nope", uuid.NewString(), "--dsn", dsn)
	assert.ErrorContains(t, err, "bad tournament id")

	_, _, err = execute("generate", uuid.NewString(), "--stage=0", "--dsn", dsn)
	assert.Error(t, err)

	_, _, err = execute("generate", uuid.NewString(), uuid.NewString(), "--stage=0", "--dsn", dsn)
	assert.ErrorIs(t, err, bracket.ErrValidation, "a game without participants")
}
