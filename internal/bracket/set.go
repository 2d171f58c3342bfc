package bracket

import (
	"fmt"
	"sort"
	"sync"
)

type SetStatus string

const (
	SetIncompleteSetup SetStatus = "incomplete_setup"
	SetWaitingForStart SetStatus = "waiting_for_start"
	SetInProgress      SetStatus = "in_progress"
	SetFinished        SetStatus = "finished"
)

func (s SetStatus) valid() bool {
	switch s {
	case SetIncompleteSetup, SetWaitingForStart, SetInProgress, SetFinished:
		return true
	}
	return false
}

// Set is a single elimination node: two entrant slots, an ordered game
// list, a winner decider and the two outgoing edges routing the winner and
// loser onward. One reader-writer lock guards every mutable field.
//
// Name, the entrant slots, the decider and the edges are write-once: they
// can only change while the set is still in incomplete_setup. Status,
// winner, loser and the game list keep mutating as play proceeds.
type Set struct {
	mu sync.RWMutex

	id int

	name     string
	entrant1 Entrant
	entrant2 Entrant
	decider  WinnerDecider

	winnerGoesTo *Set
	loserGoesTo  *Set

	status SetStatus
	winner Entrant
	loser  Entrant
	games  []*Game
	data   map[string]string
}

func NewSet(id int) *Set {
	return &Set{
		id:     id,
		status: SetIncompleteSetup,
		data:   map[string]string{},
	}
}

func (s *Set) ID() int { return s.id }

func (s *Set) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

func (s *Set) Entrant1() Entrant {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entrant1
}

func (s *Set) Entrant2() Entrant {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entrant2
}

func (s *Set) Decider() WinnerDecider {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.decider
}

func (s *Set) WinnerGoesTo() *Set {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.winnerGoesTo
}

func (s *Set) LoserGoesTo() *Set {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loserGoesTo
}

func (s *Set) Status() SetStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *Set) Winner() Entrant {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.winner
}

func (s *Set) Loser() Entrant {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loser
}

// Games returns the game list ordered by number.
func (s *Set) Games() []*Game {
	s.mu.RLock()
	defer s.mu.RUnlock()
	copied := make([]*Game, len(s.games))
	copy(copied, s.games)
	return copied
}

// Game looks up a game by number.
func (s *Set) Game(number int) (*Game, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, g := range s.games {
		if g.Number() == number {
			return g, true
		}
	}
	return nil, false
}

func (s *Set) frozen() error {
	if s.status != SetIncompleteSetup {
		return fmt.Errorf("set %d: setup fields are frozen in status %q: %w", s.id, s.status, ErrInvalidOperation)
	}
	return nil
}

func (s *Set) SetName(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.frozen(); err != nil {
		return err
	}
	s.name = name
	return nil
}

func (s *Set) SetEntrant1(e Entrant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.frozen(); err != nil {
		return err
	}
	s.entrant1 = e
	return nil
}

func (s *Set) SetEntrant2(e Entrant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.frozen(); err != nil {
		return err
	}
	s.entrant2 = e
	return nil
}

func (s *Set) SetDecider(d WinnerDecider) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.frozen(); err != nil {
		return err
	}
	s.decider = d
	return nil
}

func (s *Set) SetWinnerGoesTo(target *Set) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.frozen(); err != nil {
		return err
	}
	s.winnerGoesTo = target
	return nil
}

func (s *Set) SetLoserGoesTo(target *Set) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.frozen(); err != nil {
		return err
	}
	s.loserGoesTo = target
	return nil
}

// TrySetupComplete moves the set to waiting_for_start once both entrant
// slots and the decider are populated. It reports whether the transition
// happened.
func (s *Set) TrySetupComplete() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != SetIncompleteSetup {
		return false
	}
	if s.entrant1 == nil || s.entrant2 == nil || s.decider == nil {
		return false
	}
	s.status = SetWaitingForStart
	return true
}

// TryStart moves the set from waiting_for_start to in_progress.
func (s *Set) TryStart() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != SetWaitingForStart {
		return false
	}
	s.status = SetInProgress
	return true
}

// PutGame adds or replaces a game while the set is in progress. A game with
// an existing number is replaced by a fresh waiting game; a new number must
// be exactly one past the highest existing number, and the first game of a
// set must be numbered 1.
func (s *Set) PutGame(number int, data map[string]string) (*Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != SetInProgress {
		return nil, fmt.Errorf("set %d: games can only change while in progress, status is %q: %w", s.id, s.status, ErrInvalidOperation)
	}

	g, err := NewGame(s, number, s.entrant1, s.entrant2, data)
	if err != nil {
		return nil, err
	}

	for i, existing := range s.games {
		if existing.Number() == number {
			s.games[i] = g
			return g, nil
		}
	}

	next := 1
	if n := len(s.games); n > 0 {
		next = s.games[n-1].Number() + 1
	}
	if number != next {
		return nil, fmt.Errorf("set %d: game number %d must be %d: %w", s.id, number, next, ErrInvalidOperation)
	}
	s.games = append(s.games, g)
	return g, nil
}

// Evaluate runs the decider over the current game list. On a decision it
// records winner and loser and moves the set to finished. It reports
// whether anything changed; a finished set evaluates to no change.
func (s *Set) Evaluate() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != SetInProgress {
		return false, nil
	}
	if s.entrant1 == nil || s.entrant2 == nil || s.decider == nil {
		return false, fmt.Errorf("set %d: in progress without entrants or decider: %w", s.id, ErrInvariant)
	}

	winner, err := s.decider.DecideWinner(s.entrant1, s.entrant2, s.games)
	if err != nil {
		return false, fmt.Errorf("set %d: %w", s.id, err)
	}
	if winner == nil {
		return false, nil
	}

	switch {
	case sameEntrant(winner, s.entrant1):
		s.winner, s.loser = s.entrant1, s.entrant2
	case sameEntrant(winner, s.entrant2):
		s.winner, s.loser = s.entrant2, s.entrant1
	default:
		return false, fmt.Errorf("set %d: decider returned entrant %d which is not in the set: %w", s.id, winner.ID(), ErrInvariant)
	}
	s.status = SetFinished
	return true, nil
}

// TryPropagate places the winner and loser into the first free entrant slot
// of the sets the outgoing edges point at. It is meaningful only once the
// set is finished with winner and loser recorded, and is idempotent: a
// target slot already holding the placed entrant is success, not failure.
// Both target slots occupied by other entrants is an invariant violation,
// since the validated bracket shape promised a free slot per edge.
//
// Target sets are locked in ascending id order; the source set's own fields
// are frozen once finished and are read without holding its lock across the
// target acquisition.
func (s *Set) TryPropagate() (bool, error) {
	s.mu.RLock()
	status, winner, loser := s.status, s.winner, s.loser
	winnerGoesTo, loserGoesTo := s.winnerGoesTo, s.loserGoesTo
	s.mu.RUnlock()

	if status != SetFinished || winner == nil || loser == nil {
		return false, nil
	}

	type placement struct {
		target  *Set
		entrant Entrant
	}
	var placements []placement
	if winnerGoesTo != nil {
		placements = append(placements, placement{winnerGoesTo, winner})
	}
	if loserGoesTo != nil {
		placements = append(placements, placement{loserGoesTo, loser})
	}
	if len(placements) == 0 {
		return false, nil
	}

	targets := make([]*Set, 0, 2)
	for _, p := range placements {
		if p.target == s {
			return false, fmt.Errorf("set %d: edge points back at itself: %w", s.id, ErrInvariant)
		}
		already := false
		for _, t := range targets {
			if t == p.target {
				already = true
			}
		}
		if !already {
			targets = append(targets, p.target)
		}
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i].id < targets[j].id })
	for _, t := range targets {
		t.mu.Lock()
	}
	defer func() {
		for i := len(targets) - 1; i >= 0; i-- {
			targets[i].mu.Unlock()
		}
	}()

	changed := false
	for _, p := range placements {
		placed, err := p.target.placeLocked(p.entrant)
		if err != nil {
			return changed, err
		}
		if placed {
			changed = true
		}
	}
	return changed, nil
}

// placeLocked fills the first free entrant slot with e. The caller holds
// the set's write lock.
func (s *Set) placeLocked(e Entrant) (bool, error) {
	switch {
	case sameEntrant(s.entrant1, e) || sameEntrant(s.entrant2, e):
		return false, nil
	case s.entrant1 == nil:
		s.entrant1 = e
		return true, nil
	case s.entrant2 == nil:
		s.entrant2 = e
		return true, nil
	}
	return false, fmt.Errorf("set %d: both slots already taken, cannot place entrant %d: %w", s.id, e.ID(), ErrInvariant)
}

// RestorePlay rebuilds the play state of a freshly constructed set when
// loading a persisted document. The setup fields must already be populated
// through the ordinary setters. A finished set must carry both entrants,
// winner and loser; an in-progress set must carry both entrants; games are
// only legal once the set has started and must be numbered contiguously
// from 1.
func (s *Set) RestorePlay(status SetStatus, winner, loser Entrant, games []*Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != SetIncompleteSetup {
		return fmt.Errorf("set %d: play state already restored: %w", s.id, ErrInvalidOperation)
	}
	if !status.valid() {
		return fmt.Errorf("set %d: unknown status %q: %w", s.id, status, ErrInvalidOperation)
	}

	switch status {
	case SetFinished:
		if s.entrant1 == nil || s.entrant2 == nil {
			return fmt.Errorf("set %d: finished set without both entrants: %w", s.id, ErrInvalidOperation)
		}
		if winner == nil || loser == nil {
			return fmt.Errorf("set %d: finished set without winner and loser: %w", s.id, ErrInvalidOperation)
		}
	case SetInProgress:
		if s.entrant1 == nil || s.entrant2 == nil {
			return fmt.Errorf("set %d: in-progress set without both entrants: %w", s.id, ErrInvalidOperation)
		}
	}
	if status != SetFinished && (winner != nil || loser != nil) {
		return fmt.Errorf("set %d: winner/loser on a set that is not finished: %w", s.id, ErrInvalidOperation)
	}
	if winner != nil {
		winnerIs1 := sameEntrant(winner, s.entrant1) && sameEntrant(loser, s.entrant2)
		winnerIs2 := sameEntrant(winner, s.entrant2) && sameEntrant(loser, s.entrant1)
		if !winnerIs1 && !winnerIs2 {
			return fmt.Errorf("set %d: winner and loser must be the set's two entrants: %w", s.id, ErrInvalidOperation)
		}
	}

	if len(games) > 0 && status != SetInProgress && status != SetFinished {
		return fmt.Errorf("set %d: games on a set that never started: %w", s.id, ErrInvalidOperation)
	}
	sorted := make([]*Game, len(games))
	copy(sorted, games)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Number() < sorted[j].Number() })
	for i, g := range sorted {
		if g.Number() != i+1 {
			return fmt.Errorf("set %d: game numbers must be contiguous from 1, got %d at position %d: %w", s.id, g.Number(), i+1, ErrInvalidOperation)
		}
	}

	s.status = status
	s.winner = winner
	s.loser = loser
	s.games = sorted
	return nil
}

func (s *Set) Data() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneBag(s.data)
}

func (s *Set) DataValue(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok
}

func (s *Set) SetDataValue(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
}

func (s *Set) DeleteDataValue(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[key]; !ok {
		return fmt.Errorf("set %d: data key %q: %w", s.id, key, ErrNotFound)
	}
	delete(s.data, key)
	return nil
}

// referencesEntrant reports whether the entrant appears anywhere in the
// set: a slot, the recorded winner or loser, or any game.
func (s *Set) referencesEntrant(id int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range []Entrant{s.entrant1, s.entrant2, s.winner, s.loser} {
		if e != nil && e.ID() == id {
			return true
		}
	}
	for _, g := range s.games {
		e1, e2 := g.Entrants()
		if e1.ID() == id || e2.ID() == id {
			return true
		}
	}
	return false
}
