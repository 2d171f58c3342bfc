package bracket

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func finishedGame(t *testing.T, number int, e1, e2, winner Entrant) *Game {
	t.Helper()
	g, err := NewGame(nil, number, e1, e2, nil)
	require.NoError(t, err)
	require.NoError(t, g.SetWinner(winner))
	return g
}

func TestBestOfUndecided(t *testing.T) {
	e1, e2 := testEntrant(t, 1), testEntrant(t, 2)
	d := BestOfDecider{WinsRequired: 2}

	winner, err := d.DecideWinner(e1, e2, nil)
	require.NoError(t, err)
	assert.Nil(t, winner)

	games := []*Game{
		finishedGame(t, 1, e1, e2, e1),
		finishedGame(t, 2, e1, e2, e2),
	}
	winner, err = d.DecideWinner(e1, e2, games)
	require.NoError(t, err)
	assert.Nil(t, winner, "1-1 with two required wins is undecided")
}

func TestBestOfIgnoresUnfinishedGames(t *testing.T) {
	e1, e2 := testEntrant(t, 1), testEntrant(t, 2)
	d := BestOfDecider{WinsRequired: 1}

	inProgress, err := NewGame(nil, 1, e1, e2, nil)
	require.NoError(t, err)
	require.True(t, inProgress.TryStart())

	winner, err := d.DecideWinner(e1, e2, []*Game{inProgress})
	require.NoError(t, err)
	assert.Nil(t, winner)
}

func TestBestOfDecides(t *testing.T) {
	e1, e2 := testEntrant(t, 1), testEntrant(t, 2)
	d := BestOfDecider{WinsRequired: 2}

	games := []*Game{
		finishedGame(t, 1, e1, e2, e1),
		finishedGame(t, 2, e1, e2, e2),
		finishedGame(t, 3, e1, e2, e2),
	}
	winner, err := d.DecideWinner(e1, e2, games)
	require.NoError(t, err)
	require.NotNil(t, winner)
	assert.Equal(t, 2, winner.ID())
}

func TestBestOfBothReachedIsFatal(t *testing.T) {
	e1, e2 := testEntrant(t, 1), testEntrant(t, 2)
	d := BestOfDecider{WinsRequired: 1}

	games := []*Game{
		finishedGame(t, 1, e1, e2, e1),
		finishedGame(t, 2, e1, e2, e2),
	}
	_, err := d.DecideWinner(e1, e2, games)
	assert.ErrorIs(t, err, ErrInvariant)
}

func TestBestOfForeignWinnerIsFatal(t *testing.T) {
	e1, e2 := testEntrant(t, 1), testEntrant(t, 2)
	outsider := testEntrant(t, 3)
	d := BestOfDecider{WinsRequired: 2}

	games := []*Game{finishedGame(t, 1, e1, outsider, outsider)}
	_, err := d.DecideWinner(e1, e2, games)
	assert.ErrorIs(t, err, ErrInvariant)
}

func TestBestOfRequiresPositiveWins(t *testing.T) {
	e1, e2 := testEntrant(t, 1), testEntrant(t, 2)
	d := BestOfDecider{}

	_, err := d.DecideWinner(e1, e2, nil)
	assert.ErrorIs(t, err, ErrInvariant)
}
