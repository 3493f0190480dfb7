package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/AdamBeresnev/bracketd/internal/bracket"
	"github.com/AdamBeresnev/bracketd/internal/service"
	"github.com/AdamBeresnev/bracketd/internal/utils"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Args:  cobra.ExactArgs(0),
	Short: "Apply database migrations",
	RunE: func(cmd *cobra.Command, _args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()
		e.log.Info("migrations applied")
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <tournament-id> <game-id> <roster.json>",
	Args:  cobra.ExactArgs(3),
	Short: "Import users, teams and participants of a game",
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := parseKey(args[0], args[1])
		if err != nil {
			return err
		}
		data, err := os.ReadFile(args[2])
		if err != nil {
			return fmt.Errorf("read roster: %w", err)
		}
		var roster service.Roster
		if err := json.Unmarshal(data, &roster); err != nil {
			return fmt.Errorf("unmarshal roster: %w", err)
		}

		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		participants, err := e.roster.Import(cmd.Context(), key, roster)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		for _, p := range participants {
			// seed 0 is unseeded
			fmt.Fprintf(w, "%s\t%s\t%d\n", p.ID, p.Type, utils.OrZero(p.Seed))
		}
		fmt.Fprintf(w, "imported %d participants\n", len(participants))
		return w.Flush()
	},
}

var generateCmd = &cobra.Command{
	Use:   "generate <tournament-id> <game-id>",
	Args:  cobra.ExactArgs(2),
	Short: "Generate the bracket of a stage",
}

func init() {
	p := generateCmd.Flags()
	stage := p.IntP(
		"stage", "s", -1,
		"stage to (re)generate, defaults to the next one")

	generateCmd.RunE = func(cmd *cobra.Command, args []string) error {
		key, err := parseKey(args[0], args[1])
		if err != nil {
			return err
		}

		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		var matches []bracket.Match
		n := *stage
		if n < 0 {
			n, matches, err = e.brackets.NextStage(cmd.Context(), key)
		} else {
			matches, err = e.brackets.GenerateStage(cmd.Context(), key, n)
		}
		if err != nil {
			return err
		}

		data, err := e.brackets.GetBracket(cmd.Context(), key, n)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "stage %d, %d matches\n", n, len(matches))
		for _, round := range data.Rounds {
			for _, m := range round.Matches {
				fmt.Fprintf(w, "%s\t%d\t%s\tvs\t%s\t%s\n", round.RoundName, m.MatchOrder, m.ParticipantAName, m.ParticipantBName, m.Status)
			}
		}
		return w.Flush()
	}
}

var eliminatedCmd = &cobra.Command{
	Use:   "eliminated <tournament-id> <game-id>",
	Args:  cobra.ExactArgs(2),
	Short: "List eliminated users of a game",
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := parseKey(args[0], args[1])
		if err != nil {
			return err
		}

		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		field, err := e.brackets.EligibleParticipants(cmd.Context(), key)
		if err != nil {
			return err
		}
		ids := make([]string, 0, len(field.Eliminated))
		for id := range field.Eliminated {
			ids = append(ids, id.String())
		}
		sort.Strings(ids)
		for _, id := range ids {
			fmt.Fprintln(cmd.OutOrStdout(), id)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "%d eliminated, %d still active\n", len(ids), len(field.Active))
		return nil
	},
}

func parseKey(tournament, game string) (bracket.Key, error) {
	tournamentID, err := uuid.Parse(tournament)
	if err != nil {
		return bracket.Key{}, fmt.Errorf("bad tournament id: %w", err)
	}
	gameID, err := uuid.Parse(game)
	if err != nil {
		return bracket.Key{}, fmt.Errorf("bad game id: %w", err)
	}
	return bracket.Key{TournamentID: tournamentID, GameID: gameID}, nil
}
