package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/AdamBeresnev/bracketd/internal/bracket"
	"github.com/AdamBeresnev/bracketd/internal/config"
	"github.com/AdamBeresnev/bracketd/internal/metrics"
	"github.com/AdamBeresnev/bracketd/internal/middleware"
	"github.com/AdamBeresnev/bracketd/internal/testutil"
	"github.com/AdamBeresnev/bracketd/views"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	*httptest.Server
	db      *sqlx.DB
	key     bracket.Key
	referee uuid.UUID
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	database := testutil.NewDB(t)
	registry := prometheus.NewRegistry()
	cfg := &config.Config{AutoAdvanceByes: true, LookupChunkSize: 10}
	logger := slog.New(slog.DiscardHandler)

	srv := httptest.NewServer(newRouter(newApp(database, cfg, logger, metrics.New(registry)), registry))
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, db: database, key: testutil.NewKey(), referee: uuid.New()}
}

func (s *testServer) gamePath(suffix string) string {
	return fmt.Sprintf("%s/tournaments/%s/games/%s%s", s.URL, s.key.TournamentID, s.key.GameID, suffix)
}

func (s *testServer) do(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set(middleware.UserIDHeader, s.referee.String())
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestBracketLifecycle(t *testing.T) {
	s := newTestServer(t)
	players := testutil.AddPlayers(t, s.db, s.key, "Ann", "Bob", "Cid")

	resp := s.do(t, http.MethodPost, s.gamePath("/stages/next"), "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	generated := decode[stageResponse](t, resp)
	assert.Equal(t, 0, generated.Stage)
	require.Len(t, generated.Matches, 3)

	resp = s.do(t, http.MethodGet, s.gamePath("/stages/0/bracket"), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := decode[views.BracketData](t, resp)
	require.Len(t, data.Rounds, 2)
	first := data.Rounds[0].Matches[0]
	assert.Equal(t, "Ann", first.ParticipantAName)

	body := fmt.Sprintf(`{"winner_participant_id": %q, "score_details": "2-1", "points_awarded": {%q: 2}}`, players[1].ID, players[1].ID)
	resp = s.do(t, http.MethodPost, fmt.Sprintf("%s/matches/%s/result", s.URL, first.ID), body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	result := decode[resultResponse](t, resp)
	assert.Equal(t, players[1].ID, result.WinnerParticipantID)
	assert.Equal(t, players[0].ID, *result.LoserParticipantID)
	require.NotNil(t, result.SlotInNext)
	assert.Equal(t, bracket.SlotA, *result.SlotInNext)

	resp = s.do(t, http.MethodPost, fmt.Sprintf("%s/matches/%s/result", s.URL, first.ID), body)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = s.do(t, http.MethodGet, fmt.Sprintf("%s/matches/%s", s.URL, first.ID), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	details := decode[map[string]json.RawMessage](t, resp)
	assert.JSONEq(t, `"Ann"`, string(details["participant_a_name"]))

	resp = s.do(t, http.MethodGet, s.gamePath("/eligible"), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	eligible := decode[eligibleResponse](t, resp)
	assert.Equal(t, []uuid.UUID{*players[0].UserID}, eligible.Eliminated)
	assert.Len(t, eligible.Active, 2)

	resp = s.do(t, http.MethodGet, s.gamePath("/standings"), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	standings := decode[[]map[string]any](t, resp)
	require.Len(t, standings, 1)
	assert.Equal(t, "Bob", standings[0]["name"])

	resp = s.do(t, http.MethodGet, s.URL+"/metrics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	text, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(text), "bracketd_results_recorded_total 1")
	assert.Contains(t, string(text), `bracketd_results_rejected_total{reason="conflict"} 1`)
}

func TestErrorMapping(t *testing.T) {
	s := newTestServer(t)
	players := testutil.AddPlayers(t, s.db, s.key, "Ann", "Bob")

	resp := s.do(t, http.MethodPost, s.gamePath("/stages/0/bracket"), "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	final := decode[stageResponse](t, resp).Matches[0]

	testCases := []struct {
		name     string
		method   string
		url      string
		body     string
		expected int
	}{
		{"Bad tournament id", http.MethodGet, s.URL + "/tournaments/nope/games/" + s.key.GameID.String() + "/eligible", "", http.StatusBadRequest},
		{"Bad stage", http.MethodGet, s.gamePath("/stages/x/bracket"), "", http.StatusBadRequest},
		{"Missing stage", http.MethodGet, s.gamePath("/stages/4/bracket"), "", http.StatusNotFound},
		{"Unknown match", http.MethodPost, fmt.Sprintf("%s/matches/%s/result", s.URL, uuid.New()), fmt.Sprintf(`{"winner_participant_id": %q}`, players[0].ID), http.StatusNotFound},
		{"Malformed result", http.MethodPost, fmt.Sprintf("%s/matches/%s/result", s.URL, final.ID), "{", http.StatusBadRequest},
		{"Missing winner", http.MethodPost, fmt.Sprintf("%s/matches/%s/result", s.URL, final.ID), "{}", http.StatusBadRequest},
		{"Winner outside the match", http.MethodPost, fmt.Sprintf("%s/matches/%s/result", s.URL, final.ID), fmt.Sprintf(`{"winner_participant_id": %q}`, uuid.New()), http.StatusConflict},
		{"Points for an outsider", http.MethodPost, fmt.Sprintf("%s/matches/%s/result", s.URL, final.ID), fmt.Sprintf(`{"winner_participant_id": %q, "points_awarded": {%q: 1}}`, players[0].ID, uuid.New()), http.StatusBadRequest},
		{"Generate for empty game", http.MethodPost, fmt.Sprintf("%s/tournaments/%s/games/%s/stages/0/bracket", s.URL, uuid.New(), uuid.New()), "", http.StatusBadRequest},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resp := s.do(t, tc.method, tc.url, tc.body)
			assert.Equal(t, tc.expected, resp.StatusCode)
			assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
		})
	}

	t.Run("Cancel then submit", func(t *testing.T) {
		resp := s.do(t, http.MethodPost, fmt.Sprintf("%s/matches/%s/cancel", s.URL, final.ID), "")
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)

		resp = s.do(t, http.MethodPost, fmt.Sprintf("%s/matches/%s/result", s.URL, final.ID), fmt.Sprintf(`{"winner_participant_id": %q}`, players[0].ID))
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})
}

func TestWritesRequireSubmitter(t *testing.T) {
	s := newTestServer(t)

	req, err := http.NewRequest(http.MethodPost, s.gamePath("/stages/next"), nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestImportRoster(t *testing.T) {
	s := newTestServer(t)
	ann, bob := uuid.New(), uuid.New()
	body := fmt.Sprintf(`{
		"users": [{"id": %q, "display_name": "Ann"}, {"id": %q, "display_name": "Bob"}],
		"participants": [{"user_id": %q}, {"user_id": %q, "seed": 1}]
	}`, ann, bob, ann, bob)

	resp := s.do(t, http.MethodPost, s.gamePath("/participants"), body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	participants := decode[[]bracket.Participant](t, resp)
	require.Len(t, participants, 2)

	resp = s.do(t, http.MethodPost, s.gamePath("/stages/0/bracket"), "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	generated := decode[stageResponse](t, resp)
	require.Len(t, generated.Matches, 1)
	assert.Equal(t, participants[1].ID, *generated.Matches[0].ParticipantAID)
}
