package bracket

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func team(name string, members ...uuid.UUID) (Team, Participant) {
	t := Team{ID: uuid.New(), Name: name, MemberIDs: members}
	teamID := t.ID
	return t, Participant{ID: uuid.New(), Type: TeamParticipant, TeamID: &teamID, CreatedAt: registered}
}

func TestComputeEliminatedTeamMembers(t *testing.T) {
	u1, u2, u3, u4 := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	red, redP := team("Red", u1, u2)
	blue, blueP := team("Blue", u3, u4)
	blueP.CreatedAt = registered.Add(1)

	participants := []Participant{redP, blueP}
	teams := []Team{red, blue}
	matches, err := Generate(participants, nil)
	require.NoError(t, err)

	adv, err := RecordResult(matches[0], blueP.ID)
	require.NoError(t, err)
	matches[0] = adv.Match

	eliminated := ComputeEliminated(matches, participants, teams)
	assert.Equal(t, map[uuid.UUID]struct{}{u1: {}, u2: {}}, eliminated)

	active := ActiveParticipants(participants, teams, eliminated)
	require.Len(t, active, 1)
	assert.Equal(t, blueP.ID, active[0].ID)
}

func TestComputeEliminatedIndividuals(t *testing.T) {
	participants := players(4)
	matches, err := Generate(participants, nil)
	require.NoError(t, err)

	adv, err := RecordResult(matches[0], *matches[0].ParticipantAID)
	require.NoError(t, err)
	matches[0] = adv.Match

	eliminated := ComputeEliminated(matches, participants, nil)
	assert.Equal(t, map[uuid.UUID]struct{}{*participants[1].UserID: {}}, eliminated)

	active := ActiveParticipants(participants, nil, eliminated)
	assert.Len(t, active, 3)
	for _, p := range active {
		assert.NotEqual(t, participants[1].ID, p.ID)
	}
}

func TestComputeEliminatedIgnoresByesAndPendingMatches(t *testing.T) {
	participants := players(3)
	matches, err := Generate(participants, nil)
	require.NoError(t, err)

	settled := AdvanceByes(matches)
	assert.Empty(t, ComputeEliminated(settled, participants, nil))
}

func TestComputeEliminatedSkipsUnknownLoser(t *testing.T) {
	participants := players(2)
	matches, err := Generate(participants, nil)
	require.NoError(t, err)

	adv, err := RecordResult(matches[0], *matches[0].ParticipantAID)
	require.NoError(t, err)

	eliminated := ComputeEliminated([]Match{adv.Match}, participants[:1], nil)
	assert.Empty(t, eliminated)
}

func TestActiveParticipantsDropsTeamWithEliminatedMember(t *testing.T) {
	solo := players(1)[0]
	shared := *solo.UserID
	red, redP := team("Red", shared, uuid.New())

	eliminated := map[uuid.UUID]struct{}{shared: {}}
	active := ActiveParticipants([]Participant{solo, redP}, []Team{red}, eliminated)
	assert.Empty(t, active)
}

func TestTeamAndUserIDs(t *testing.T) {
	u1 := uuid.New()
	red, redP := team("Red", u1, uuid.New())
	solo := players(1)[0]

	participants := []Participant{redP, solo, redP}
	assert.Equal(t, []uuid.UUID{red.ID}, TeamIDs(participants))

	ids := UserIDs(participants, []Team{red})
	assert.Equal(t, []uuid.UUID{*solo.UserID, u1, red.MemberIDs[1]}, ids)
}
