package wire

import (
	"fmt"

	"github.com/Vobludalib/tournament-server/internal/bracket"
	"github.com/Vobludalib/tournament-server/internal/utils"
)

// Encode renders a tournament snapshot as a document. Individuals that are
// members of a team are emitted nested under the team only.
func Encode(snap bracket.TournamentSnapshot) (*TournamentDocument, error) {
	doc := &TournamentDocument{
		Sets:     []SetDocument{},
		Entrants: []EntrantDocument{},
		Data:     snap.Data,
		Status:   string(snap.Status),
	}

	memberIDs := map[int]bool{}
	for _, e := range snap.Entrants {
		if team, ok := e.(*bracket.TeamEntrant); ok {
			for _, m := range team.Members() {
				memberIDs[m.ID()] = true
			}
		}
	}
	for _, e := range snap.Entrants {
		if memberIDs[e.ID()] {
			continue
		}
		ed, err := EncodeEntrant(e)
		if err != nil {
			return nil, err
		}
		doc.Entrants = append(doc.Entrants, ed)
	}

	for _, ss := range snap.Sets {
		sd, err := encodeSet(ss)
		if err != nil {
			return nil, err
		}
		doc.Sets = append(doc.Sets, sd)
	}
	return doc, nil
}

// EncodeEntrant renders one entrant as its tagged document form.
func EncodeEntrant(e bracket.Entrant) (EntrantDocument, error) {
	switch entrant := e.(type) {
	case *bracket.IndividualEntrant:
		return EntrantDocument{
			Type:      KindIndividual,
			ID:        entrant.ID(),
			Tag:       entrant.Tag(),
			FirstName: entrant.FirstName(),
			LastName:  entrant.LastName(),
			Data:      entrant.Data(),
		}, nil
	case *bracket.TeamEntrant:
		doc := EntrantDocument{
			Type:     KindTeam,
			ID:       entrant.ID(),
			TeamName: entrant.Name(),
			Data:     entrant.Data(),
		}
		for _, m := range entrant.Members() {
			md, err := EncodeEntrant(m)
			if err != nil {
				return EntrantDocument{}, err
			}
			doc.Members = append(doc.Members, md)
		}
		return doc, nil
	}
	return EntrantDocument{}, fmt.Errorf("entrant %d has unknown kind %T: %w", e.ID(), e, ErrDocument)
}

func encodeSet(ss bracket.SetSnapshot) (SetDocument, error) {
	sd := SetDocument{
		ID:             ss.ID,
		Name:           utils.StringOrNil(ss.Name),
		Entrant1ID:     entrantID(ss.Entrant1),
		Entrant2ID:     entrantID(ss.Entrant2),
		Status:         string(ss.Status),
		WinnerID:       entrantID(ss.Winner),
		LoserID:        entrantID(ss.Loser),
		WinnerGoesToID: ss.WinnerGoesToID,
		LoserGoesToID:  ss.LoserGoesToID,
		Games:          []GameDocument{},
		Data:           ss.Data,
	}

	if ss.Decider != nil {
		switch d := ss.Decider.(type) {
		case bracket.BestOfDecider:
			sd.Decider = &DeciderDocument{Type: DeciderBestOf, AmountOfWinsRequired: d.WinsRequired}
		default:
			return SetDocument{}, fmt.Errorf("set %d has unknown decider %T: %w", ss.ID, ss.Decider, ErrDocument)
		}
	}

	for _, gs := range ss.Games {
		sd.Games = append(sd.Games, GameDocument{
			Number:     gs.Number,
			Entrant1ID: gs.Entrant1.ID(),
			Entrant2ID: gs.Entrant2.ID(),
			Status:     string(gs.Status),
			WinnerID:   entrantID(gs.Winner),
			Data:       gs.Data,
		})
	}
	return sd, nil
}

func entrantID(e bracket.Entrant) *int {
	if e == nil {
		return nil
	}
	return utils.Ptr(e.ID())
}
