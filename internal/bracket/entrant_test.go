package bracket

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCondensedName(t *testing.T) {
	tagged, err := NewIndividualFromTag(1, "Xx_Slayer_xX", nil)
	require.NoError(t, err)
	assert.Equal(t, "Xx_Slayer_xX", tagged.CondensedName())

	full, err := NewIndividual(2, "Magnus", "Carlsen", nil)
	require.NoError(t, err)
	assert.Equal(t, "Carlsen M.", full.CondensedName())

	lastOnly, err := NewIndividual(3, "", "Carlsen", nil)
	require.NoError(t, err)
	assert.Equal(t, "Carlsen", lastOnly.CondensedName())
}

func TestIndividualValidation(t *testing.T) {
	_, err := NewIndividualFromTag(1, "   ", nil)
	assert.ErrorIs(t, err, ErrInvalidOperation)

	_, err = NewIndividual(1, "Magnus", "", nil)
	assert.ErrorIs(t, err, ErrInvalidOperation)
}

func TestTeamValidation(t *testing.T) {
	_, err := NewTeam(10, "No Members", nil, nil)
	assert.ErrorIs(t, err, ErrInvalidOperation)

	member, err := NewIndividual(1, "Jane", "Doe", nil)
	require.NoError(t, err)

	team, err := NewTeam(10, "The Does", []*IndividualEntrant{member}, nil)
	require.NoError(t, err)
	assert.Equal(t, "The Does", team.CondensedName())
	require.Len(t, team.Members(), 1)
	assert.Equal(t, 1, team.Members()[0].ID())
}

func TestTeamCondensedNameFallsBackToMembers(t *testing.T) {
	m1, err := NewIndividual(1, "Jane", "Doe", nil)
	require.NoError(t, err)
	m2, err := NewIndividualFromTag(2, "Ace", nil)
	require.NoError(t, err)

	team, err := NewTeam(10, "", []*IndividualEntrant{m1, m2}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Doe J., Ace", team.CondensedName())
}

func TestEntrantDataIsCopied(t *testing.T) {
	original := map[string]string{"country": "NO"}
	e, err := NewIndividualFromTag(1, "tag", original)
	require.NoError(t, err)

	original["country"] = "SE"
	v, ok := e.DataValue("country")
	require.True(t, ok)
	assert.Equal(t, "NO", v)

	e.Data()["country"] = "DK"
	v, _ = e.DataValue("country")
	assert.Equal(t, "NO", v)
}
