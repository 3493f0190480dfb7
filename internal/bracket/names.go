package bracket

import (
	users "github.com/AdamBeresnev/bracketd/internal/user"
	"github.com/google/uuid"
)

const (
	PendingName = "TBD"
	UnknownName = "Unknown"
)

// Names is a read-only participant id to display name table.
type Names map[uuid.UUID]string

func NewNames(participants []Participant, userList []users.User, teams []Team) Names {
	userNames := make(map[uuid.UUID]string, len(userList))
	for _, u := range userList {
		userNames[u.ID] = u.DisplayName
	}
	teamNames := make(map[uuid.UUID]string, len(teams))
	for _, t := range teams {
		teamNames[t.ID] = t.Name
	}

	names := make(Names, len(participants))
	for _, p := range participants {
		var name string
		var ok bool
		switch {
		case p.UserID != nil:
			name, ok = userNames[*p.UserID]
		case p.TeamID != nil:
			name, ok = teamNames[*p.TeamID]
		}
		if !ok || name == "" {
			name = UnknownName
		}
		names[p.ID] = name
	}
	return names
}

// Of resolves a slot, TBD when empty.
func (n Names) Of(id *uuid.UUID) string {
	if id == nil {
		return PendingName
	}
	if name, ok := n[*id]; ok {
		return name
	}
	return UnknownName
}

// ParticipantIDs lists the distinct participants sitting in any slot of matches.
func ParticipantIDs(matches []Match) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{})
	var ids []uuid.UUID
	for i := range matches {
		for _, id := range []*uuid.UUID{matches[i].ParticipantAID, matches[i].ParticipantBID} {
			if id == nil {
				continue
			}
			if _, ok := seen[*id]; ok {
				continue
			}
			seen[*id] = struct{}{}
			ids = append(ids, *id)
		}
	}
	return ids
}
