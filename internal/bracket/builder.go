package bracket

import (
	"fmt"
	"math/bits"
	"sort"

	"github.com/google/uuid"
)

// BracketSize gets the nearest power of 2 while rounding up, so with input 5 it returns 8.
// Anything below 2 gets a bracket of 1.
func BracketSize(count int) int {
	size := 1
	for size < count {
		size <<= 1
	}
	return size
}

// TotalRounds is log2 of the bracket size, except that a bracket of 1 still has its final.
func TotalRounds(bracketSize int) int {
	rounds := bits.TrailingZeros(uint(bracketSize))
	if rounds == 0 {
		return 1
	}
	return rounds
}

// RoundName is counted from the final backwards.
func RoundName(roundIndex, totalRounds int) string {
	switch totalRounds - 1 - roundIndex {
	case 0:
		return "Final"
	case 1:
		return "Semi Final"
	case 2:
		return "Quarter Final"
	default:
		return fmt.Sprintf("Round %d", roundIndex+1)
	}
}

// Generate builds the full match tree for one single-elimination stage. Participants fill
// the slot sequence in seed order and round 0 match i pairs slots 2i and 2i+1, empty slots
// being byes. Ids of existing are reused in (round, order) sequence before new ones are minted,
// so regenerating a stage rewrites its old matches instead of duplicating them.
//
// The returned matches are SCHEDULED and carry no tournament, game or stage; the caller stamps those.
func Generate(participants []Participant, existing []Match) ([]Match, error) {
	if err := validateParticipants(participants); err != nil {
		return nil, err
	}

	sorted := SortParticipants(participants)
	bracketSize := BracketSize(len(sorted))
	totalRounds := TotalRounds(bracketSize)
	ids := newIDPool(existing)

	rounds := make([][]Match, totalRounds)
	matchesInRound := max(bracketSize/2, 1)
	for r := 0; r < totalRounds; r++ {
		rounds[r] = make([]Match, matchesInRound)
		for i := range rounds[r] {
			m := Match{
				ID:         ids.next(),
				RoundIndex: r,
				RoundName:  RoundName(r, totalRounds),
				MatchOrder: i,
				Status:     MatchScheduled,
			}
			if r == 0 {
				m.ParticipantAID = slotParticipant(sorted, 2*i)
				m.ParticipantBID = slotParticipant(sorted, 2*i+1)
			}
			rounds[r][i] = m
		}
		matchesInRound = max(matchesInRound/2, 1)
	}

	// The earlier round points at the later one
	for r := 0; r < totalRounds-1; r++ {
		for i := range rounds[r] {
			nextID := rounds[r+1][i/2].ID
			slot := SlotA
			if i%2 != 0 {
				slot = SlotB
			}
			rounds[r][i].NextMatchID = &nextID
			rounds[r][i].WinnerSlotInNext = &slot
		}
	}

	matches := make([]Match, 0, 2*bracketSize-1)
	for _, round := range rounds {
		matches = append(matches, round...)
	}
	return matches, nil
}

func validateParticipants(participants []Participant) error {
	seen := make(map[uuid.UUID]struct{}, len(participants))
	for _, p := range participants {
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("%w: duplicate participant %s", ErrValidation, p.ID)
		}
		seen[p.ID] = struct{}{}
		if err := p.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func slotParticipant(sorted []Participant, slot int) *uuid.UUID {
	if slot >= len(sorted) {
		return nil
	}
	id := sorted[slot].ID
	return &id
}

type idPool struct {
	ids []uuid.UUID
}

func newIDPool(existing []Match) *idPool {
	ordered := make([]Match, len(existing))
	copy(ordered, existing)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].RoundIndex != ordered[j].RoundIndex {
			return ordered[i].RoundIndex < ordered[j].RoundIndex
		}
		return ordered[i].MatchOrder < ordered[j].MatchOrder
	})

	pool := &idPool{ids: make([]uuid.UUID, 0, len(ordered))}
	for _, m := range ordered {
		pool.ids = append(pool.ids, m.ID)
	}
	return pool
}

func (p *idPool) next() uuid.UUID {
	if len(p.ids) == 0 {
		return uuid.New()
	}
	id := p.ids[0]
	p.ids = p.ids[1:]
	return id
}

// Leftover lists the ids of existing that a generation did not reuse.
func Leftover(existing, generated []Match) []uuid.UUID {
	used := make(map[uuid.UUID]struct{}, len(generated))
	for _, m := range generated {
		used[m.ID] = struct{}{}
	}
	var ids []uuid.UUID
	for _, m := range existing {
		if _, ok := used[m.ID]; !ok {
			ids = append(ids, m.ID)
		}
	}
	return ids
}
