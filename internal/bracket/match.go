package bracket

import (
	"time"

	"github.com/google/uuid"
)

type MatchStatus string

const (
	MatchScheduled MatchStatus = "SCHEDULED"
	MatchCompleted MatchStatus = "COMPLETED"
	MatchCancelled MatchStatus = "CANCELLED"
)

type Slot string

const (
	SlotA Slot = "A"
	SlotB Slot = "B"
)

func (s Slot) Other() Slot {
	if s == SlotA {
		return SlotB
	}
	return SlotA
}

func (s Slot) Valid() bool {
	return s == SlotA || s == SlotB
}

type Match struct {
	ID           uuid.UUID `db:"id" json:"id"`
	TournamentID uuid.UUID `db:"tournament_id" json:"tournament_id"`
	GameID       uuid.UUID `db:"game_id" json:"game_id"`
	Stage        int       `db:"stage" json:"stage"`

	// Position in the bracket for reconstructing the view
	RoundIndex int    `db:"round_index" json:"round_index"`
	RoundName  string `db:"round_name" json:"round_name"`
	MatchOrder int    `db:"match_order" json:"match_order"`

	ParticipantAID *uuid.UUID `db:"participant_a_id" json:"participant_a_id"`
	ParticipantBID *uuid.UUID `db:"participant_b_id" json:"participant_b_id"`

	Status              MatchStatus `db:"status" json:"status"`
	WinnerParticipantID *uuid.UUID  `db:"winner_participant_id" json:"winner_participant_id"`
	IsBye               bool        `db:"is_bye" json:"is_bye"`

	// Advancement link, both set or both nil. Nil on the final.
	NextMatchID      *uuid.UUID `db:"next_match_id" json:"next_match_id"`
	WinnerSlotInNext *Slot      `db:"winner_slot_in_next" json:"winner_slot_in_next"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Participant returns a copy of the id held in slot, nil when the slot is empty.
func (m *Match) Participant(slot Slot) *uuid.UUID {
	var id *uuid.UUID
	if slot == SlotA {
		id = m.ParticipantAID
	} else {
		id = m.ParticipantBID
	}
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

func (m *Match) SetParticipant(slot Slot, id *uuid.UUID) {
	if slot == SlotA {
		m.ParticipantAID = id
	} else {
		m.ParticipantBID = id
	}
}

func (m *Match) SlotOf(participantID uuid.UUID) (Slot, bool) {
	switch {
	case m.ParticipantAID != nil && *m.ParticipantAID == participantID:
		return SlotA, true
	case m.ParticipantBID != nil && *m.ParticipantBID == participantID:
		return SlotB, true
	}
	return "", false
}

func (m *Match) IsFinal() bool {
	return m.NextMatchID == nil
}

// Loser is the participant that did not win a completed match. Nil for byes and unfinished matches.
func (m *Match) Loser() *uuid.UUID {
	if m.Status != MatchCompleted || m.WinnerParticipantID == nil {
		return nil
	}
	slot, ok := m.SlotOf(*m.WinnerParticipantID)
	if !ok {
		return nil
	}
	return m.Participant(slot.Other())
}

type MatchResult struct {
	ID                  uuid.UUID  `db:"id" json:"id"`
	MatchID             uuid.UUID  `db:"match_id" json:"match_id"`
	WinnerParticipantID uuid.UUID  `db:"winner_participant_id" json:"winner_participant_id"`
	LoserParticipantID  *uuid.UUID `db:"loser_participant_id" json:"loser_participant_id"`
	ScoreDetails        *string    `db:"score_details" json:"score_details"`
	SubmittedBy         uuid.UUID  `db:"submitted_by" json:"submitted_by"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`

	PointsAwarded map[uuid.UUID]int `db:"-" json:"points_awarded"`
}
