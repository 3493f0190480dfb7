package bracket

import (
	"fmt"

	"github.com/google/uuid"
)

// Key scopes participants and brackets to one game of one tournament.
type Key struct {
	TournamentID uuid.UUID
	GameID       uuid.UUID
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s", k.TournamentID, k.GameID)
}

// Stamp sets the key and stage on every match.
func (k Key) Stamp(matches []Match, stage int) {
	for i := range matches {
		matches[i].TournamentID = k.TournamentID
		matches[i].GameID = k.GameID
		matches[i].Stage = stage
	}
}
