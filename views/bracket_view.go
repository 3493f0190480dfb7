package views

import (
	"sort"

	"github.com/AdamBeresnev/bracketd/internal/bracket"
	"github.com/google/uuid"
)

type BracketData struct {
	Stage     int           `json:"stage"`
	Rounds    []RoundData   `json:"rounds"`
	Champion  *uuid.UUID    `json:"champion_participant_id,omitempty"`
	RoundNums []int         `json:"-"`
	Names     bracket.Names `json:"-"`
}

type RoundData struct {
	RoundIndex int         `json:"round_index"`
	RoundName  string      `json:"round_name"`
	Matches    []MatchData `json:"matches"`
}

type MatchData struct {
	ID                  uuid.UUID           `json:"id"`
	MatchOrder          int                 `json:"match_order"`
	Status              bracket.MatchStatus `json:"status"`
	ParticipantAID      *uuid.UUID          `json:"participant_a_id"`
	ParticipantAName    string              `json:"participant_a_name"`
	ParticipantBID      *uuid.UUID          `json:"participant_b_id"`
	ParticipantBName    string              `json:"participant_b_name"`
	WinnerParticipantID *uuid.UUID          `json:"winner_participant_id,omitempty"`
	IsBye               bool                `json:"is_bye"`
	NextMatchID         *uuid.UUID          `json:"next_match_id,omitempty"`
	WinnerSlotInNext    *bracket.Slot       `json:"winner_slot_in_next,omitempty"`
}

// PrepareBracketData groups one stage's matches by round with display names filled in. Empty
// slots read TBD, ids the name table does not know read Unknown.
func PrepareBracketData(matches []bracket.Match, names bracket.Names) BracketData {
	rounds := make(map[int][]bracket.Match)
	var roundNums []int

	for _, m := range matches {
		if _, exists := rounds[m.RoundIndex]; !exists {
			roundNums = append(roundNums, m.RoundIndex)
		}
		rounds[m.RoundIndex] = append(rounds[m.RoundIndex], m)
	}

	sort.Ints(roundNums)
	sortRounds(rounds, roundNums)

	data := BracketData{
		Rounds:    make([]RoundData, 0, len(roundNums)),
		RoundNums: roundNums,
		Names:     names,
	}
	for _, r := range roundNums {
		round := RoundData{RoundIndex: r, RoundName: rounds[r][0].RoundName}
		for _, m := range rounds[r] {
			round.Matches = append(round.Matches, MatchData{
				ID:                  m.ID,
				MatchOrder:          m.MatchOrder,
				Status:              m.Status,
				ParticipantAID:      m.ParticipantAID,
				ParticipantAName:    names.Of(m.ParticipantAID),
				ParticipantBID:      m.ParticipantBID,
				ParticipantBName:    names.Of(m.ParticipantBID),
				WinnerParticipantID: m.WinnerParticipantID,
				IsBye:               m.IsBye,
				NextMatchID:         m.NextMatchID,
				WinnerSlotInNext:    m.WinnerSlotInNext,
			})
		}
		data.Rounds = append(data.Rounds, round)
	}

	if champion, ok := bracket.Champion(matches); ok {
		data.Champion = &champion
	}
	return data
}

func sortRounds(rounds map[int][]bracket.Match, roundNums []int) {
	for _, r := range roundNums {
		sort.Slice(rounds[r], func(i, j int) bool {
			return rounds[r][i].MatchOrder < rounds[r][j].MatchOrder
		})
	}
}
