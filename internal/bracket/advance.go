package bracket

import (
	"fmt"

	"github.com/google/uuid"
)

// SlotUpdate is the partial patch a result makes to the downstream match.
type SlotUpdate struct {
	MatchID       uuid.UUID
	Slot          Slot
	ParticipantID uuid.UUID
}

func (u SlotUpdate) Apply(m *Match) {
	id := u.ParticipantID
	m.SetParticipant(u.Slot, &id)
}

type Advancement struct {
	Match    Match
	WinnerID uuid.UUID
	// Nil when the winner had no opponent
	LoserID *uuid.UUID
	// Nil on the final
	Next *SlotUpdate
	// Set once the final is decided
	Champion *uuid.UUID
}

// RecordResult decides a match. It never touches the downstream match itself, only describes
// which slot of it the winner moves into; that match stays SCHEDULED until its own result.
func RecordResult(m Match, winnerID uuid.UUID) (Advancement, error) {
	switch m.Status {
	case MatchCompleted:
		return Advancement{}, fmt.Errorf("%w: match %s is already completed", ErrConflict, m.ID)
	case MatchCancelled:
		return Advancement{}, fmt.Errorf("%w: match %s is cancelled", ErrConflict, m.ID)
	}

	slot, ok := m.SlotOf(winnerID)
	if !ok {
		return Advancement{}, fmt.Errorf("%w: winner %s is not part of match %s", ErrConflict, winnerID, m.ID)
	}

	winner := winnerID
	m.Status = MatchCompleted
	m.WinnerParticipantID = &winner

	adv := Advancement{
		Match:    m,
		WinnerID: winnerID,
		LoserID:  m.Participant(slot.Other()),
	}
	if m.NextMatchID != nil && m.WinnerSlotInNext != nil {
		adv.Next = &SlotUpdate{
			MatchID:       *m.NextMatchID,
			Slot:          *m.WinnerSlotInNext,
			ParticipantID: winnerID,
		}
	} else {
		adv.Champion = &winner
	}
	return adv, nil
}

// Champion returns the winner of the bracket's final once it is completed.
func Champion(matches []Match) (uuid.UUID, bool) {
	for i := range matches {
		m := &matches[i]
		if m.IsFinal() && m.Status == MatchCompleted && m.WinnerParticipantID != nil {
			return *m.WinnerParticipantID, true
		}
	}
	return uuid.Nil, false
}

// AwaitsOpponent reports whether the slot facing winnerID is empty while a SCHEDULED match still
// feeds it. Such a match cannot be decided yet: its opponent is simply not known.
func AwaitsOpponent(m Match, winnerID uuid.UUID, feeders []Match) bool {
	slot, ok := m.SlotOf(winnerID)
	if !ok {
		return false
	}
	other := slot.Other()
	if m.Participant(other) != nil {
		return false
	}
	for i := range feeders {
		f := &feeders[i]
		if f.NextMatchID == nil || *f.NextMatchID != m.ID || f.WinnerSlotInNext == nil {
			continue
		}
		if *f.WinnerSlotInNext == other && f.Status == MatchScheduled {
			return true
		}
	}
	return false
}
