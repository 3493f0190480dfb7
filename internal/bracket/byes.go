package bracket

import (
	"sort"

	"github.com/google/uuid"
)

// AdvanceByes settles every match that can never get two real opponents. A match with one
// participant and a dead other side is completed as a bye and its participant moves on; a match
// with two dead sides is cancelled. A side is dead when it is empty in round 0 or when the
// match feeding it was cancelled. Matches are visited round by round so one pass settles
// chains of byes. The input is not modified.
func AdvanceByes(matches []Match) []Match {
	out := make([]Match, len(matches))
	copy(out, matches)

	index := make(map[uuid.UUID]int, len(out))
	for i := range out {
		index[out[i].ID] = i
	}

	type feed struct {
		match uuid.UUID
		slot  Slot
	}
	feeders := make(map[feed]int)
	for i := range out {
		m := &out[i]
		if m.NextMatchID != nil && m.WinnerSlotInNext != nil {
			feeders[feed{*m.NextMatchID, *m.WinnerSlotInNext}] = i
		}
	}

	order := make([]int, len(out))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		a, b := &out[order[i]], &out[order[j]]
		if a.RoundIndex != b.RoundIndex {
			return a.RoundIndex < b.RoundIndex
		}
		return a.MatchOrder < b.MatchOrder
	})

	dead := func(m *Match, slot Slot) bool {
		if m.Participant(slot) != nil {
			return false
		}
		src, ok := feeders[feed{m.ID, slot}]
		if !ok {
			return true
		}
		return out[src].Status == MatchCancelled
	}

	for _, i := range order {
		m := &out[i]
		if m.Status != MatchScheduled {
			continue
		}

		deadA, deadB := dead(m, SlotA), dead(m, SlotB)
		switch {
		case deadA && deadB:
			m.Status = MatchCancelled
		case deadA || deadB:
			present := SlotA
			if deadA {
				present = SlotB
			}
			winner := m.Participant(present)
			if winner == nil {
				// the live side is still waiting on its feeder
				continue
			}
			m.Status = MatchCompleted
			m.WinnerParticipantID = winner
			m.IsBye = true
			if m.NextMatchID != nil && m.WinnerSlotInNext != nil {
				if j, ok := index[*m.NextMatchID]; ok {
					SlotUpdate{MatchID: out[j].ID, Slot: *m.WinnerSlotInNext, ParticipantID: *winner}.Apply(&out[j])
				}
			}
		}
	}
	return out
}
