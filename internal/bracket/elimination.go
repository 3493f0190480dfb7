package bracket

import "github.com/google/uuid"

// ComputeEliminated folds the completed matches into the set of eliminated user ids. A losing
// team eliminates every one of its members. Losers missing from participants are skipped.
func ComputeEliminated(matches []Match, participants []Participant, teams []Team) map[uuid.UUID]struct{} {
	byID := make(map[uuid.UUID]Participant, len(participants))
	for _, p := range participants {
		byID[p.ID] = p
	}
	members := teamMembers(teams)

	eliminated := make(map[uuid.UUID]struct{})
	for i := range matches {
		loserID := matches[i].Loser()
		if loserID == nil {
			continue
		}
		loser, ok := byID[*loserID]
		if !ok {
			continue
		}
		switch {
		case loser.UserID != nil:
			eliminated[*loser.UserID] = struct{}{}
		case loser.TeamID != nil:
			for _, userID := range members[*loser.TeamID] {
				eliminated[userID] = struct{}{}
			}
		}
	}
	return eliminated
}

// ActiveParticipants drops individuals whose user is eliminated and teams with any eliminated member.
func ActiveParticipants(participants []Participant, teams []Team, eliminated map[uuid.UUID]struct{}) []Participant {
	members := teamMembers(teams)

	active := make([]Participant, 0, len(participants))
	for _, p := range participants {
		if isEliminated(p, members, eliminated) {
			continue
		}
		active = append(active, p)
	}
	return active
}

func isEliminated(p Participant, members map[uuid.UUID][]uuid.UUID, eliminated map[uuid.UUID]struct{}) bool {
	if p.UserID != nil {
		_, out := eliminated[*p.UserID]
		return out
	}
	if p.TeamID != nil {
		for _, userID := range members[*p.TeamID] {
			if _, out := eliminated[userID]; out {
				return true
			}
		}
	}
	return false
}

func teamMembers(teams []Team) map[uuid.UUID][]uuid.UUID {
	members := make(map[uuid.UUID][]uuid.UUID, len(teams))
	for _, t := range teams {
		members[t.ID] = t.MemberIDs
	}
	return members
}

// TeamIDs lists the distinct teams referenced by participants.
func TeamIDs(participants []Participant) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{})
	var ids []uuid.UUID
	for _, p := range participants {
		if p.TeamID == nil {
			continue
		}
		if _, ok := seen[*p.TeamID]; ok {
			continue
		}
		seen[*p.TeamID] = struct{}{}
		ids = append(ids, *p.TeamID)
	}
	return ids
}

// UserIDs lists the distinct users referenced by individual participants and by team members.
func UserIDs(participants []Participant, teams []Team) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{})
	var ids []uuid.UUID
	add := func(id uuid.UUID) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	for _, p := range participants {
		if p.UserID != nil {
			add(*p.UserID)
		}
	}
	for _, t := range teams {
		for _, id := range t.MemberIDs {
			add(id)
		}
	}
	return ids
}
