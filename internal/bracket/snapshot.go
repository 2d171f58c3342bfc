package bracket

import "sort"

// Snapshot types carry a consistent point-in-time copy of the whole
// tournament, with references still intact as Entrant values but edges
// reduced to ids. The serialization layer consumes them so it never has to
// reason about locks.

type GameSnapshot struct {
	Number   int
	Entrant1 Entrant
	Entrant2 Entrant
	Status   GameStatus
	Winner   Entrant
	Data     map[string]string
}

type SetSnapshot struct {
	ID             int
	Name           string
	Entrant1       Entrant
	Entrant2       Entrant
	Status         SetStatus
	Winner         Entrant
	Loser          Entrant
	Decider        WinnerDecider
	WinnerGoesToID *int
	LoserGoesToID  *int
	Games          []GameSnapshot
	Data           map[string]string
}

type TournamentSnapshot struct {
	Sets     []SetSnapshot
	Entrants []Entrant
	Data     map[string]string
	Status   TournamentStatus
}

// Snapshot reads the full document state under read locks on all four
// tournament aspects, every set in ascending id order and every game in
// ascending order, so the copy is consistent across sets and games alike.
func (t *Tournament) Snapshot() TournamentSnapshot {
	tk := t.Acquire().ReadSets().ReadEntrants().ReadData().ReadStatus()
	defer tk.Release()

	sets := sortSets(t.sets)
	for _, s := range sets {
		tk.ReadSet(s)
	}
	for _, s := range sets {
		for _, g := range s.games {
			tk.LockGame(g)
		}
	}

	snap := TournamentSnapshot{
		Entrants: make([]Entrant, 0, len(t.entrants)),
		Data:     cloneBag(t.data),
		Status:   t.status,
	}
	for _, e := range t.entrants {
		snap.Entrants = append(snap.Entrants, e)
	}
	sort.Slice(snap.Entrants, func(i, j int) bool { return snap.Entrants[i].ID() < snap.Entrants[j].ID() })

	for _, s := range sets {
		ss := SetSnapshot{
			ID:       s.id,
			Name:     s.name,
			Entrant1: s.entrant1,
			Entrant2: s.entrant2,
			Status:   s.status,
			Winner:   s.winner,
			Loser:    s.loser,
			Decider:  s.decider,
			Data:     cloneBag(s.data),
		}
		if s.winnerGoesTo != nil {
			id := s.winnerGoesTo.id
			ss.WinnerGoesToID = &id
		}
		if s.loserGoesTo != nil {
			id := s.loserGoesTo.id
			ss.LoserGoesToID = &id
		}
		for _, g := range s.games {
			ss.Games = append(ss.Games, GameSnapshot{
				Number:   g.number,
				Entrant1: g.entrant1,
				Entrant2: g.entrant2,
				Status:   g.status,
				Winner:   g.winner,
				Data:     cloneBag(g.data),
			})
		}
		snap.Sets = append(snap.Sets, ss)
	}
	return snap
}
