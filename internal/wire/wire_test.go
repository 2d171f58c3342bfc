package wire

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vobludalib/tournament-server/internal/bracket"
	"github.com/Vobludalib/tournament-server/internal/utils"
)

// setupTournament builds a small unstarted bracket: two openers feeding a
// final, three individuals and one team of two.
func setupTournament(t *testing.T) *bracket.Tournament {
	t.Helper()
	tr := bracket.New()

	solo1, err := bracket.NewIndividualFromTag(1, "Ace", map[string]string{"seed": "1"})
	require.NoError(t, err)
	solo2, err := bracket.NewIndividual(2, "Magnus", "Carlsen", nil)
	require.NoError(t, err)
	solo3, err := bracket.NewIndividualFromTag(3, "Wildcard", nil)
	require.NoError(t, err)

	m1, err := bracket.NewIndividualFromTag(10, "TeamAce", nil)
	require.NoError(t, err)
	m2, err := bracket.NewIndividual(11, "Erika", "Mustermann", nil)
	require.NoError(t, err)
	team, err := bracket.NewTeam(4, "The Regulars", []*bracket.IndividualEntrant{m1, m2}, nil)
	require.NoError(t, err)

	for _, e := range []bracket.Entrant{solo1, solo2, solo3, team, m1, m2} {
		require.NoError(t, tr.AddEntrant(e))
	}

	final := bracket.NewSet(3)
	require.NoError(t, final.SetName("Grand Final"))
	require.NoError(t, final.SetDecider(bracket.BestOfDecider{WinsRequired: 3}))

	openerA := bracket.NewSet(1)
	require.NoError(t, openerA.SetEntrant1(solo1))
	require.NoError(t, openerA.SetEntrant2(solo2))
	require.NoError(t, openerA.SetDecider(bracket.BestOfDecider{WinsRequired: 2}))
	require.NoError(t, openerA.SetWinnerGoesTo(final))

	openerB := bracket.NewSet(2)
	require.NoError(t, openerB.SetEntrant1(solo3))
	require.NoError(t, openerB.SetEntrant2(team))
	require.NoError(t, openerB.SetDecider(bracket.BestOfDecider{WinsRequired: 2}))
	require.NoError(t, openerB.SetWinnerGoesTo(final))
	openerB.SetDataValue("stream", "channel-2")

	require.NoError(t, tr.AddSet(openerA))
	require.NoError(t, tr.AddSet(openerB))
	require.NoError(t, tr.AddSet(final))
	require.NoError(t, tr.SetDataValue("venue", "arena"))
	return tr
}

// playedTournament advances the setup bracket: opener A finished and
// propagated, opener B mid-game.
func playedTournament(t *testing.T) *bracket.Tournament {
	t.Helper()
	tr := setupTournament(t)

	a, ok := tr.Set(1)
	require.True(t, ok)
	b, ok := tr.Set(2)
	require.True(t, ok)
	require.True(t, a.TrySetupComplete())
	require.True(t, b.TrySetupComplete())
	require.NoError(t, tr.TryStart())

	require.True(t, a.TryStart())
	winner := a.Entrant1()
	for n := 1; n <= 2; n++ {
		g, err := a.PutGame(n, nil)
		require.NoError(t, err)
		require.NoError(t, g.SetWinner(winner))
	}
	changed, err := a.Evaluate()
	require.NoError(t, err)
	require.True(t, changed)
	changed, err = a.TryPropagate()
	require.NoError(t, err)
	require.True(t, changed)

	require.True(t, b.TryStart())
	g, err := b.PutGame(1, map[string]string{"map": "station"})
	require.NoError(t, err)
	require.True(t, g.TryStart())
	return tr
}

// roundTrip encodes, marshals, unmarshals and decodes the tournament, then
// compares the re-encoded document against the original encoding.
func roundTrip(t *testing.T, tr *bracket.Tournament) {
	t.Helper()
	before, err := Encode(tr.Snapshot())
	require.NoError(t, err)

	raw, err := json.Marshal(before)
	require.NoError(t, err)

	var doc TournamentDocument
	require.NoError(t, json.Unmarshal(raw, &doc))

	decoded, err := Decode(&doc)
	require.NoError(t, err)

	after, err := Encode(decoded.Snapshot())
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestRoundTripSetup(t *testing.T) {
	roundTrip(t, setupTournament(t))
}

func TestRoundTripInProgress(t *testing.T) {
	roundTrip(t, playedTournament(t))
}

func TestRoundTripFinished(t *testing.T) {
	tr := playedTournament(t)
	require.NoError(t, tr.TryFinish())
	roundTrip(t, tr)
}

func TestEncodeNestsTeamMembers(t *testing.T) {
	doc, err := Encode(setupTournament(t).Snapshot())
	require.NoError(t, err)

	ids := map[int]bool{}
	var team *EntrantDocument
	for i, ed := range doc.Entrants {
		ids[ed.ID] = true
		if ed.Type == KindTeam {
			team = &doc.Entrants[i]
		}
	}
	assert.False(t, ids[10], "team members do not repeat at top level")
	assert.False(t, ids[11])
	require.NotNil(t, team)
	require.Len(t, team.Members, 2)
	assert.Equal(t, 10, team.Members[0].ID)
}

func validDocument(t *testing.T) *TournamentDocument {
	t.Helper()
	doc, err := Encode(setupTournament(t).Snapshot())
	require.NoError(t, err)
	return doc
}

func TestDecodeRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(doc *TournamentDocument)
	}{
		{"duplicate entrant id", func(doc *TournamentDocument) {
			doc.Entrants = append(doc.Entrants, doc.Entrants[0])
		}},
		{"duplicate set id", func(doc *TournamentDocument) {
			doc.Sets = append(doc.Sets, doc.Sets[0])
		}},
		{"unknown entrant kind", func(doc *TournamentDocument) {
			doc.Entrants[0].Type = "Robot"
		}},
		{"team without members", func(doc *TournamentDocument) {
			for i := range doc.Entrants {
				if doc.Entrants[i].Type == KindTeam {
					doc.Entrants[i].Members = nil
				}
			}
		}},
		{"duplicate member id within a team", func(doc *TournamentDocument) {
			for i := range doc.Entrants {
				if doc.Entrants[i].Type == KindTeam {
					dup := doc.Entrants[i].Members[0]
					dup.Tag = "Impostor"
					doc.Entrants[i].Members[1] = dup
				}
			}
		}},
		{"team member id taken by another entrant", func(doc *TournamentDocument) {
			for i := range doc.Entrants {
				if doc.Entrants[i].Type == KindTeam {
					doc.Entrants[i].Members[1].ID = doc.Entrants[i].ID
				}
			}
		}},
		{"unknown entrant reference", func(doc *TournamentDocument) {
			doc.Sets[0].Entrant1ID = utils.Ptr(999)
		}},
		{"unknown set reference", func(doc *TournamentDocument) {
			doc.Sets[0].WinnerGoesToID = utils.Ptr(999)
		}},
		{"unknown set status", func(doc *TournamentDocument) {
			doc.Sets[0].Status = "paused"
		}},
		{"winner on unfinished set", func(doc *TournamentDocument) {
			doc.Sets[0].WinnerID = doc.Sets[0].Entrant1ID
		}},
		{"finished set without winner", func(doc *TournamentDocument) {
			doc.Sets[0].Status = string(bracket.SetFinished)
		}},
		{"decider without required wins", func(doc *TournamentDocument) {
			doc.Sets[0].Decider = &DeciderDocument{Type: DeciderBestOf}
		}},
		{"unknown decider type", func(doc *TournamentDocument) {
			doc.Sets[0].Decider = &DeciderDocument{Type: "CoinFlip"}
		}},
		{"games on a set that never started", func(doc *TournamentDocument) {
			doc.Sets[0].Games = []GameDocument{{
				Number: 1, Entrant1ID: 1, Entrant2ID: 2, Status: string(bracket.GameWaiting),
			}}
		}},
		{"unknown tournament status", func(doc *TournamentDocument) {
			doc.Status = "archived"
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doc := validDocument(t)
			tc.mutate(doc)
			_, err := Decode(doc)
			assert.ErrorIs(t, err, ErrDocument)
		})
	}
}

func TestDecodeRejectsNonContiguousGames(t *testing.T) {
	tr := playedTournament(t)
	doc, err := Encode(tr.Snapshot())
	require.NoError(t, err)

	for i := range doc.Sets {
		if doc.Sets[i].ID == 2 {
			doc.Sets[i].Games[0].Number = 5
		}
	}
	_, err = Decode(doc)
	assert.ErrorIs(t, err, ErrDocument)
}

func TestDecodeRejectsInvalidStructurePastSetup(t *testing.T) {
	doc := validDocument(t)
	// Point the final back at an opener: a cycle is fine to store during
	// setup but must refuse to load in progress.
	for i := range doc.Sets {
		if doc.Sets[i].ID == 3 {
			doc.Sets[i].WinnerGoesToID = utils.Ptr(1)
		}
	}
	doc.Status = string(bracket.TournamentInProgress)
	_, err := Decode(doc)
	assert.ErrorIs(t, err, ErrDocument)

	doc2 := validDocument(t)
	for i := range doc2.Sets {
		if doc2.Sets[i].ID == 3 {
			doc2.Sets[i].WinnerGoesToID = utils.Ptr(1)
		}
	}
	_, err = Decode(doc2)
	assert.NoError(t, err, "the same shape is allowed while still in setup")
}

func TestDecodeNilDocument(t *testing.T) {
	_, err := Decode(nil)
	assert.ErrorIs(t, err, ErrDocument)
}

func TestLoadFile(t *testing.T) {
	doc := validDocument(t)
	raw, err := json.Marshal(doc)
	require.NoError(t, err)

	dir := t.TempDir()
	path := filepath.Join(dir, "tournament.json")
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	tr, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, bracket.TournamentSetup, tr.Status())
	assert.Len(t, tr.Entrants(), 6)
	assert.Len(t, tr.Sets(), 3)

	_, err = LoadFile(filepath.Join(dir, "tournament.yaml"))
	assert.ErrorIs(t, err, ErrDocument)

	_, err = LoadFile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "garbage.json"), []byte("{"), 0o644))
	_, err = LoadFile(filepath.Join(dir, "garbage.json"))
	assert.ErrorIs(t, err, ErrDocument)
}
