package bracket

import (
	"fmt"
	"sync"
)

type GameStatus string

const (
	GameWaiting    GameStatus = "waiting"
	GameInProgress GameStatus = "in_progress"
	GameFinished   GameStatus = "finished"
)

func (s GameStatus) valid() bool {
	switch s {
	case GameWaiting, GameInProgress, GameFinished:
		return true
	}
	return false
}

// Game is one unit of play inside a Set. The parent set, number and the two
// entrants are fixed at creation; status, winner and the data bag are
// guarded by the game's own lock.
type Game struct {
	mu sync.Mutex

	parent   *Set
	number   int
	entrant1 Entrant
	entrant2 Entrant

	status GameStatus
	winner Entrant
	data   map[string]string
}

// NewGame builds a game in status waiting. The number must be positive;
// contiguity within the set is enforced by Set.PutGame.
func NewGame(parent *Set, number int, entrant1, entrant2 Entrant, data map[string]string) (*Game, error) {
	if number < 1 {
		return nil, fmt.Errorf("game number %d must be positive: %w", number, ErrInvalidOperation)
	}
	if entrant1 == nil || entrant2 == nil {
		return nil, fmt.Errorf("game %d: both entrants must be set: %w", number, ErrInvalidOperation)
	}
	return &Game{
		parent:   parent,
		number:   number,
		entrant1: entrant1,
		entrant2: entrant2,
		status:   GameWaiting,
		data:     cloneBag(data),
	}, nil
}

// RestoreGame rebuilds a game in an arbitrary reached state, for use when
// loading a persisted document. A finished game must carry a winner and a
// winner is only legal on a finished game.
func RestoreGame(parent *Set, number int, entrant1, entrant2 Entrant, status GameStatus, winner Entrant, data map[string]string) (*Game, error) {
	g, err := NewGame(parent, number, entrant1, entrant2, data)
	if err != nil {
		return nil, err
	}
	if !status.valid() {
		return nil, fmt.Errorf("game %d: unknown status %q: %w", number, status, ErrInvalidOperation)
	}
	if status == GameFinished && winner == nil {
		return nil, fmt.Errorf("game %d: finished game has no winner: %w", number, ErrInvalidOperation)
	}
	if status != GameFinished && winner != nil {
		return nil, fmt.Errorf("game %d: winner set on unfinished game: %w", number, ErrInvalidOperation)
	}
	if winner != nil && !sameEntrant(winner, entrant1) && !sameEntrant(winner, entrant2) {
		return nil, fmt.Errorf("game %d: winner %d is not part of this game: %w", number, winner.ID(), ErrInvalidOperation)
	}
	g.status = status
	g.winner = winner
	return g, nil
}

func (g *Game) Parent() *Set { return g.parent }
func (g *Game) Number() int  { return g.number }

func (g *Game) Entrants() (Entrant, Entrant) { return g.entrant1, g.entrant2 }

func (g *Game) Status() GameStatus {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.status
}

func (g *Game) Winner() Entrant {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.winner
}

// TryStart moves the game from waiting to in progress. It reports whether
// the transition happened.
func (g *Game) TryStart() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.status != GameWaiting {
		return false
	}
	g.status = GameInProgress
	return true
}

// TryRollbackToWaiting undoes an accidental start. Only an in-progress game
// may roll back; there is no path back from finished.
func (g *Game) TryRollbackToWaiting() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.status != GameInProgress {
		return false
	}
	g.status = GameWaiting
	return true
}

// SetWinner records the winner and forces the game to finished regardless
// of its prior status. This is the only transition into finished.
func (g *Game) SetWinner(winner Entrant) error {
	if winner == nil {
		return fmt.Errorf("game %d: winner must not be nil: %w", g.number, ErrInvalidOperation)
	}
	if !sameEntrant(winner, g.entrant1) && !sameEntrant(winner, g.entrant2) {
		return fmt.Errorf("game %d: entrant %d is not part of this game: %w", g.number, winner.ID(), ErrInvalidOperation)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.winner = winner
	g.status = GameFinished
	return nil
}

func (g *Game) Data() map[string]string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return cloneBag(g.data)
}

func (g *Game) DataValue(key string) (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	v, ok := g.data[key]
	return v, ok
}

func (g *Game) SetDataValue(key, value string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.data[key] = value
}

func (g *Game) DeleteDataValue(key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.data[key]; !ok {
		return fmt.Errorf("game %d: data key %q: %w", g.number, key, ErrNotFound)
	}
	delete(g.data, key)
	return nil
}
