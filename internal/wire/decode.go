package wire

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/Vobludalib/tournament-server/internal/bracket"
)

// Decode rebuilds a tournament from a document. Pass one constructs every
// entrant (entrants carry no forward references) and collects a links
// report per set, keyed by raw ids. Pass two creates one empty set shell
// per reported id, so every id resolves to a real object, and then fills
// each set's fields by id lookup. Any failure aborts the whole decode.
func Decode(doc *TournamentDocument) (*bracket.Tournament, error) {
	if doc == nil {
		return nil, fmt.Errorf("empty document: %w", ErrDocument)
	}

	// Pass one: entrants and the links report.
	entrants := map[int]bracket.Entrant{}
	resolve := func(id int) (bracket.Entrant, bool) {
		e, ok := entrants[id]
		return e, ok
	}
	for _, ed := range doc.Entrants {
		if _, ok := entrants[ed.ID]; ok {
			return nil, fmt.Errorf("entrant %d appears twice: %w", ed.ID, ErrDocument)
		}
		e, created, err := DecodeEntrant(ed, resolve)
		if err != nil {
			return nil, err
		}
		entrants[e.ID()] = e
		for _, m := range created {
			if _, ok := entrants[m.ID()]; ok {
				return nil, fmt.Errorf("entrant %d appears twice: %w", m.ID(), ErrDocument)
			}
			entrants[m.ID()] = m
		}
	}

	reports := map[int]SetDocument{}
	for _, sd := range doc.Sets {
		if _, ok := reports[sd.ID]; ok {
			return nil, fmt.Errorf("set %d appears twice: %w", sd.ID, ErrDocument)
		}
		reports[sd.ID] = sd
	}

	// Pass two: shells first, then field fill-in.
	shells := make(map[int]*bracket.Set, len(reports))
	for id := range reports {
		shells[id] = bracket.NewSet(id)
	}
	for _, sd := range doc.Sets {
		if err := fillSet(shells[sd.ID], sd, shells, entrants); err != nil {
			return nil, err
		}
	}

	t := bracket.New()
	entrantIDs := make([]int, 0, len(entrants))
	for id := range entrants {
		entrantIDs = append(entrantIDs, id)
	}
	sort.Ints(entrantIDs)
	for _, id := range entrantIDs {
		if err := t.AddEntrant(entrants[id]); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDocument, err)
		}
	}
	setIDs := make([]int, 0, len(shells))
	for id := range shells {
		setIDs = append(setIDs, id)
	}
	sort.Ints(setIDs)
	for _, id := range setIDs {
		if err := t.AddSet(shells[id]); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDocument, err)
		}
	}
	for k, v := range doc.Data {
		if err := t.SetDataValue(k, v); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDocument, err)
		}
	}
	if err := t.RestoreStatus(bracket.TournamentStatus(doc.Status)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDocument, err)
	}
	return t, nil
}

// DecodeEntrant builds one entrant from its tagged document form. Team
// members are resolved by id through the supplied lookup first, falling
// back to inline construction; newly constructed members are returned so
// the caller can register them.
func DecodeEntrant(doc EntrantDocument, resolve func(id int) (bracket.Entrant, bool)) (bracket.Entrant, []*bracket.IndividualEntrant, error) {
	switch doc.Type {
	case KindIndividual:
		e, err := decodeIndividual(doc)
		if err != nil {
			return nil, nil, err
		}
		return e, nil, nil
	case KindTeam:
		if len(doc.Members) == 0 {
			return nil, nil, fmt.Errorf("team %d has no members: %w", doc.ID, ErrDocument)
		}
		var members []*bracket.IndividualEntrant
		var created []*bracket.IndividualEntrant
		for _, md := range doc.Members {
			if existing, ok := resolve(md.ID); ok {
				individual, ok := existing.(*bracket.IndividualEntrant)
				if !ok {
					return nil, nil, fmt.Errorf("team %d member %d is not an individual: %w", doc.ID, md.ID, ErrDocument)
				}
				members = append(members, individual)
				continue
			}
			if md.Type != KindIndividual {
				return nil, nil, fmt.Errorf("team %d member %d has kind %q, want %q: %w", doc.ID, md.ID, md.Type, KindIndividual, ErrDocument)
			}
			individual, err := decodeIndividual(md)
			if err != nil {
				return nil, nil, err
			}
			members = append(members, individual)
			created = append(created, individual)
		}
		team, err := bracket.NewTeam(doc.ID, doc.TeamName, members, doc.Data)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %w", ErrDocument, err)
		}
		return team, created, nil
	}
	return nil, nil, fmt.Errorf("entrant %d has unknown kind %q: %w", doc.ID, doc.Type, ErrDocument)
}

func decodeIndividual(doc EntrantDocument) (*bracket.IndividualEntrant, error) {
	var e *bracket.IndividualEntrant
	var err error
	if doc.Tag != "" {
		e, err = bracket.NewIndividualFromTag(doc.ID, doc.Tag, doc.Data)
	} else {
		e, err = bracket.NewIndividual(doc.ID, doc.FirstName, doc.LastName, doc.Data)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDocument, err)
	}
	return e, nil
}

// DecodeDecider builds one winner decider from its tagged document form.
func DecodeDecider(doc DeciderDocument) (bracket.WinnerDecider, error) {
	switch doc.Type {
	case DeciderBestOf:
		if doc.AmountOfWinsRequired < 1 {
			return nil, fmt.Errorf("best-of decider needs at least one required win, got %d: %w", doc.AmountOfWinsRequired, ErrDocument)
		}
		return bracket.BestOfDecider{WinsRequired: doc.AmountOfWinsRequired}, nil
	}
	return nil, fmt.Errorf("unknown decider type %q: %w", doc.Type, ErrDocument)
}

func fillSet(s *bracket.Set, sd SetDocument, sets map[int]*bracket.Set, entrants map[int]bracket.Entrant) error {
	lookupEntrant := func(id *int, field string) (bracket.Entrant, error) {
		if id == nil {
			return nil, nil
		}
		e, ok := entrants[*id]
		if !ok {
			return nil, fmt.Errorf("set %d: %s references unknown entrant %d: %w", sd.ID, field, *id, ErrDocument)
		}
		return e, nil
	}
	lookupSet := func(id *int, field string) (*bracket.Set, error) {
		if id == nil {
			return nil, nil
		}
		target, ok := sets[*id]
		if !ok {
			return nil, fmt.Errorf("set %d: %s references unknown set %d: %w", sd.ID, field, *id, ErrDocument)
		}
		return target, nil
	}

	entrant1, err := lookupEntrant(sd.Entrant1ID, "entrant1")
	if err != nil {
		return err
	}
	entrant2, err := lookupEntrant(sd.Entrant2ID, "entrant2")
	if err != nil {
		return err
	}
	winner, err := lookupEntrant(sd.WinnerID, "winner")
	if err != nil {
		return err
	}
	loser, err := lookupEntrant(sd.LoserID, "loser")
	if err != nil {
		return err
	}
	winnerGoesTo, err := lookupSet(sd.WinnerGoesToID, "winnerGoesTo")
	if err != nil {
		return err
	}
	loserGoesTo, err := lookupSet(sd.LoserGoesToID, "loserGoesTo")
	if err != nil {
		return err
	}

	if sd.Name != nil {
		if err := s.SetName(*sd.Name); err != nil {
			return fmt.Errorf("%w: %w", ErrDocument, err)
		}
	}
	if entrant1 != nil {
		if err := s.SetEntrant1(entrant1); err != nil {
			return fmt.Errorf("%w: %w", ErrDocument, err)
		}
	}
	if entrant2 != nil {
		if err := s.SetEntrant2(entrant2); err != nil {
			return fmt.Errorf("%w: %w", ErrDocument, err)
		}
	}
	if sd.Decider != nil {
		decider, err := DecodeDecider(*sd.Decider)
		if err != nil {
			return fmt.Errorf("set %d: %w", sd.ID, err)
		}
		if err := s.SetDecider(decider); err != nil {
			return fmt.Errorf("%w: %w", ErrDocument, err)
		}
	}
	if winnerGoesTo != nil {
		if err := s.SetWinnerGoesTo(winnerGoesTo); err != nil {
			return fmt.Errorf("%w: %w", ErrDocument, err)
		}
	}
	if loserGoesTo != nil {
		if err := s.SetLoserGoesTo(loserGoesTo); err != nil {
			return fmt.Errorf("%w: %w", ErrDocument, err)
		}
	}
	for k, v := range sd.Data {
		s.SetDataValue(k, v)
	}

	games := make([]*bracket.Game, 0, len(sd.Games))
	for _, gd := range sd.Games {
		g, err := decodeGame(s, gd, entrants)
		if err != nil {
			return err
		}
		games = append(games, g)
	}

	if err := s.RestorePlay(bracket.SetStatus(sd.Status), winner, loser, games); err != nil {
		return fmt.Errorf("%w: %w", ErrDocument, err)
	}
	return nil
}

func decodeGame(s *bracket.Set, gd GameDocument, entrants map[int]bracket.Entrant) (*bracket.Game, error) {
	entrant1, ok := entrants[gd.Entrant1ID]
	if !ok {
		return nil, fmt.Errorf("set %d game %d: unknown entrant %d: %w", s.ID(), gd.Number, gd.Entrant1ID, ErrDocument)
	}
	entrant2, ok := entrants[gd.Entrant2ID]
	if !ok {
		return nil, fmt.Errorf("set %d game %d: unknown entrant %d: %w", s.ID(), gd.Number, gd.Entrant2ID, ErrDocument)
	}
	var winner bracket.Entrant
	if gd.WinnerID != nil {
		winner, ok = entrants[*gd.WinnerID]
		if !ok {
			return nil, fmt.Errorf("set %d game %d: unknown winner %d: %w", s.ID(), gd.Number, *gd.WinnerID, ErrDocument)
		}
	}
	g, err := bracket.RestoreGame(s, gd.Number, entrant1, entrant2, bracket.GameStatus(gd.Status), winner, gd.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDocument, err)
	}
	return g, nil
}

// LoadFile reads and decodes a .json tournament document from disk.
func LoadFile(path string) (*bracket.Tournament, error) {
	if filepath.Ext(path) != ".json" {
		return nil, fmt.Errorf("document path %q must have a .json extension: %w", path, ErrDocument)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}
	var doc TournamentDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDocument, err)
	}
	return Decode(&doc)
}
