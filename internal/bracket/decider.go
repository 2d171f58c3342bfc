package bracket

import "fmt"

// WinnerDecider converts a Set's game history into a decision between its
// two entrants.
type WinnerDecider interface {
	// DecideWinner returns the winning entrant once the games decide one,
	// nil while the set is still undecided, and an error wrapping
	// ErrInvariant when the history is not a legal history for the pair.
	DecideWinner(entrant1, entrant2 Entrant, games []*Game) (Entrant, error)
}

// BestOfDecider declares the first entrant to reach WinsRequired finished
// game wins the winner of the set ("first to N", i.e. best of 2N-1).
type BestOfDecider struct {
	WinsRequired int
}

func (d BestOfDecider) DecideWinner(entrant1, entrant2 Entrant, games []*Game) (Entrant, error) {
	if d.WinsRequired < 1 {
		return nil, fmt.Errorf("best-of decider requires at least one win, got %d: %w", d.WinsRequired, ErrInvariant)
	}

	var wins1, wins2 int
	for _, g := range games {
		if g.Status() != GameFinished {
			continue
		}
		winner := g.Winner()
		switch {
		case sameEntrant(winner, entrant1):
			wins1++
		case sameEntrant(winner, entrant2):
			wins2++
		default:
			return nil, fmt.Errorf("game %d winner is neither entrant of the set: %w", g.Number(), ErrInvariant)
		}
	}

	switch {
	case wins1 >= d.WinsRequired && wins2 >= d.WinsRequired:
		return nil, fmt.Errorf("both entrants reached %d wins: %w", d.WinsRequired, ErrInvariant)
	case wins1 >= d.WinsRequired:
		return entrant1, nil
	case wins2 >= d.WinsRequired:
		return entrant2, nil
	}
	return nil, nil
}
