package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/AdamBeresnev/bracketd/internal/bracket"
	"github.com/AdamBeresnev/bracketd/internal/config"
	"github.com/AdamBeresnev/bracketd/internal/httputil"
	"github.com/AdamBeresnev/bracketd/internal/metrics"
	"github.com/AdamBeresnev/bracketd/internal/middleware"
	"github.com/AdamBeresnev/bracketd/internal/service"
	"github.com/AdamBeresnev/bracketd/internal/store"
	"github.com/AdamBeresnev/bracketd/views"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type app struct {
	brackets *service.BracketService
	matches  *service.MatchService
	roster   *service.RosterService
}

func newApp(database *sqlx.DB, cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) *app {
	matchStore := store.NewMatchStore(database)
	resultStore := store.NewResultStore(database)
	participantStore := store.NewParticipantStore(database, cfg.LookupChunkSize)

	opts := service.Options{AutoAdvanceByes: cfg.AutoAdvanceByes, Logger: logger, Metrics: m}
	return &app{
		brackets: service.NewBracketService(database, matchStore, participantStore, opts),
		matches:  service.NewMatchService(database, matchStore, resultStore, participantStore, opts),
		roster:   service.NewRosterService(database, participantStore, opts),
	}
}

type resultRequest struct {
	WinnerParticipantID uuid.UUID         `json:"winner_participant_id"`
	ScoreDetails        string            `json:"score_details"`
	PointsAwarded       map[uuid.UUID]int `json:"points_awarded"`
}

type resultResponse struct {
	MatchID             uuid.UUID     `json:"match_id"`
	WinnerParticipantID uuid.UUID     `json:"winner_participant_id"`
	LoserParticipantID  *uuid.UUID    `json:"loser_participant_id,omitempty"`
	NextMatchID         *uuid.UUID    `json:"next_match_id,omitempty"`
	SlotInNext          *bracket.Slot `json:"slot_in_next,omitempty"`
	ChampionID          *uuid.UUID    `json:"champion_participant_id,omitempty"`
}

type stageResponse struct {
	Stage   int             `json:"stage"`
	Matches []bracket.Match `json:"matches"`
}

type eligibleResponse struct {
	Active     []bracket.Participant `json:"active"`
	Eliminated []uuid.UUID           `json:"eliminated_user_ids"`
}

func newRouter(app *app, registry *prometheus.Registry) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	r.Route("/tournaments/{tid}/games/{gid}", func(r chi.Router) {
		r.Get("/eligible", func(w http.ResponseWriter, r *http.Request) {
			key, ok := parseKey(w, r)
			if !ok {
				return
			}
			field, err := app.brackets.EligibleParticipants(r.Context(), key)
			if err != nil {
				httputil.Error(w, "Failed to get eligible participants", err)
				return
			}

			resp := eligibleResponse{Active: field.Active, Eliminated: make([]uuid.UUID, 0, len(field.Eliminated))}
			for userID := range field.Eliminated {
				resp.Eliminated = append(resp.Eliminated, userID)
			}
			views.Render(w, http.StatusOK, resp)
		})

		r.Get("/standings", func(w http.ResponseWriter, r *http.Request) {
			key, ok := parseKey(w, r)
			if !ok {
				return
			}
			standings, err := app.matches.Standings(r.Context(), key)
			if err != nil {
				httputil.Error(w, "Failed to get standings", err)
				return
			}
			views.Render(w, http.StatusOK, standings)
		})

		r.Get("/stages/{stage}/bracket", func(w http.ResponseWriter, r *http.Request) {
			key, ok := parseKey(w, r)
			if !ok {
				return
			}
			stage, ok := parseStage(w, r)
			if !ok {
				return
			}
			data, err := app.brackets.GetBracket(r.Context(), key, stage)
			if err != nil {
				httputil.Error(w, "Failed to get bracket", err)
				return
			}
			views.Render(w, http.StatusOK, data)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSubmitter)

			r.Post("/participants", func(w http.ResponseWriter, r *http.Request) {
				key, ok := parseKey(w, r)
				if !ok {
					return
				}
				var roster service.Roster
				if err := json.NewDecoder(r.Body).Decode(&roster); err != nil {
					httputil.BadRequest(w, "Invalid roster", err)
					return
				}
				participants, err := app.roster.Import(r.Context(), key, roster)
				if err != nil {
					httputil.Error(w, "Failed to import roster", err)
					return
				}
				views.Render(w, http.StatusCreated, participants)
			})

			r.Post("/stages/{stage}/bracket", func(w http.ResponseWriter, r *http.Request) {
				key, ok := parseKey(w, r)
				if !ok {
					return
				}
				stage, ok := parseStage(w, r)
				if !ok {
					return
				}
				matches, err := app.brackets.GenerateStage(r.Context(), key, stage)
				if err != nil {
					httputil.Error(w, "Failed to generate bracket", err)
					return
				}
				views.Render(w, http.StatusCreated, stageResponse{Stage: stage, Matches: matches})
			})

			r.Post("/stages/next", func(w http.ResponseWriter, r *http.Request) {
				key, ok := parseKey(w, r)
				if !ok {
					return
				}
				stage, matches, err := app.brackets.NextStage(r.Context(), key)
				if err != nil {
					httputil.Error(w, "Failed to generate next stage", err)
					return
				}
				views.Render(w, http.StatusCreated, stageResponse{Stage: stage, Matches: matches})
			})
		})
	})

	r.Route("/matches/{id}", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			matchID, ok := parseUUIDParam(w, r, "id")
			if !ok {
				return
			}
			data, err := app.matches.GetMatchDetails(r.Context(), matchID)
			if err != nil {
				httputil.Error(w, "Failed to get match", err)
				return
			}
			views.Render(w, http.StatusOK, map[string]any{
				"match":              data.Match,
				"result":             data.Result,
				"participant_a_name": data.Names.Of(data.Match.ParticipantAID),
				"participant_b_name": data.Names.Of(data.Match.ParticipantBID),
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSubmitter)

			r.Post("/result", func(w http.ResponseWriter, r *http.Request) {
				matchID, ok := parseUUIDParam(w, r, "id")
				if !ok {
					return
				}
				var req resultRequest
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
					httputil.BadRequest(w, "Invalid result", err)
					return
				}
				if req.WinnerParticipantID == uuid.Nil {
					httputil.BadRequest(w, "Missing winner_participant_id", nil)
					return
				}

				adv, err := app.matches.RecordResult(r.Context(), matchID, service.ResultInput{
					WinnerParticipantID: req.WinnerParticipantID,
					ScoreDetails:        req.ScoreDetails,
					PointsAwarded:       req.PointsAwarded,
				})
				if err != nil {
					httputil.Error(w, "Failed to record result", err)
					return
				}

				resp := resultResponse{
					MatchID:             matchID,
					WinnerParticipantID: adv.WinnerID,
					LoserParticipantID:  adv.LoserID,
					ChampionID:          adv.Champion,
				}
				if adv.Next != nil {
					resp.NextMatchID = &adv.Next.MatchID
					resp.SlotInNext = &adv.Next.Slot
				}
				views.Render(w, http.StatusOK, resp)
			})

			r.Post("/cancel", func(w http.ResponseWriter, r *http.Request) {
				matchID, ok := parseUUIDParam(w, r, "id")
				if !ok {
					return
				}
				if err := app.matches.CancelMatch(r.Context(), matchID); err != nil {
					httputil.Error(w, "Failed to cancel match", err)
					return
				}
				w.WriteHeader(http.StatusNoContent)
			})
		})
	})

	return r
}

func parseKey(w http.ResponseWriter, r *http.Request) (bracket.Key, bool) {
	tournamentID, ok := parseUUIDParam(w, r, "tid")
	if !ok {
		return bracket.Key{}, false
	}
	gameID, ok := parseUUIDParam(w, r, "gid")
	if !ok {
		return bracket.Key{}, false
	}
	return bracket.Key{TournamentID: tournamentID, GameID: gameID}, true
}

func parseUUIDParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		httputil.BadRequest(w, "Invalid "+name, err)
		return uuid.Nil, false
	}
	return id, true
}

func parseStage(w http.ResponseWriter, r *http.Request) (int, bool) {
	stage, err := strconv.Atoi(chi.URLParam(r, "stage"))
	if err != nil || stage < 0 {
		httputil.BadRequest(w, "Invalid stage", err)
		return 0, false
	}
	return stage, true
}
