package service

import (
	"context"
	"testing"
	"time"

	"github.com/AdamBeresnev/bracketd/internal/bracket"
	"github.com/AdamBeresnev/bracketd/internal/metrics"
	"github.com/AdamBeresnev/bracketd/internal/middleware"
	"github.com/AdamBeresnev/bracketd/internal/store"
	"github.com/AdamBeresnev/bracketd/internal/testutil"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	db         *sqlx.DB
	key        bracket.Key
	matchStore *store.MatchStore
	results    *store.ResultStore
	brackets   *BracketService
	matches    *MatchService
	roster     *RosterService
	metrics    *metrics.Metrics
	ctx        context.Context
}

func newFixture(t *testing.T, autoByes bool) *fixture {
	t.Helper()
	return newFixtureOn(t, testutil.NewDB(t), autoByes)
}

func newFixtureOn(t *testing.T, db *sqlx.DB, autoByes bool) *fixture {
	t.Helper()

	matchStore := store.NewMatchStore(db)
	resultStore := store.NewResultStore(db)
	participantStore := store.NewParticipantStore(db, 2)
	m := metrics.New(prometheus.NewRegistry())
	opts := Options{
		AutoAdvanceByes: autoByes,
		Metrics:         m,
		Now:             func() time.Time { return time.Date(2025, 3, 2, 20, 0, 0, 0, time.UTC) },
	}

	return &fixture{
		db:         db,
		key:        testutil.NewKey(),
		matchStore: matchStore,
		results:    resultStore,
		brackets:   NewBracketService(db, matchStore, participantStore, opts),
		matches:    NewMatchService(db, matchStore, resultStore, participantStore, opts),
		roster:     NewRosterService(db, participantStore, opts),
		metrics:    m,
		ctx:        middleware.WithSubmitter(context.Background(), uuid.New()),
	}
}

func (f *fixture) stage(t *testing.T, stage int) []bracket.Match {
	t.Helper()
	matches, err := f.matchStore.GetStageMatches(f.ctx, nil, f.key, stage)
	require.NoError(t, err)
	return matches
}

func (f *fixture) match(t *testing.T, id uuid.UUID) *bracket.Match {
	t.Helper()
	m, err := f.matchStore.GetMatch(f.ctx, id)
	require.NoError(t, err)
	return m
}

func at(matches []bracket.Match, roundIndex, order int) bracket.Match {
	for _, m := range matches {
		if m.RoundIndex == roundIndex && m.MatchOrder == order {
			return m
		}
	}
	panic("no such match")
}

func win(winner uuid.UUID) ResultInput {
	return ResultInput{WinnerParticipantID: winner}
}
