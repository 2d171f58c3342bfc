package bracket

import (
	"fmt"
	"sort"
	"sync"
)

type TournamentStatus string

const (
	TournamentSetup      TournamentStatus = "setup"
	TournamentInProgress TournamentStatus = "in_progress"
	TournamentFinished   TournamentStatus = "finished"
)

func (s TournamentStatus) valid() bool {
	switch s {
	case TournamentSetup, TournamentInProgress, TournamentFinished:
		return true
	}
	return false
}

// Tournament is the aggregate root. Its four aspects (sets, entrants, the
// data bag and the status) are independently lockable so readers of one
// never contend with writers of another. Entrants are immutable once
// published into the map, so only the map itself needs the entrants lock.
type Tournament struct {
	setsMu sync.RWMutex
	sets   map[int]*Set

	entrantsMu sync.RWMutex
	entrants   map[int]Entrant

	dataMu sync.RWMutex
	data   map[string]string

	statusMu sync.RWMutex
	status   TournamentStatus
	restored bool
}

func New() *Tournament {
	return &Tournament{
		sets:     map[int]*Set{},
		entrants: map[int]Entrant{},
		data:     map[string]string{},
		status:   TournamentSetup,
	}
}

// AddEntrant registers an entrant. Membership only changes during setup and
// ids must be unique.
func (t *Tournament) AddEntrant(e Entrant) error {
	if e == nil {
		return fmt.Errorf("entrant must not be nil: %w", ErrInvalidOperation)
	}
	tk := t.Acquire().SkipSets().WriteEntrants().SkipData().ReadStatus()
	defer tk.Release()
	if t.status != TournamentSetup {
		return fmt.Errorf("entrants are frozen in status %q: %w", t.status, ErrInvalidOperation)
	}
	if _, ok := t.entrants[e.ID()]; ok {
		return fmt.Errorf("entrant %d: %w", e.ID(), ErrDuplicateID)
	}
	t.entrants[e.ID()] = e
	return nil
}

// RemoveEntrant unregisters an entrant during setup. Removal is refused
// while any set references the entrant.
func (t *Tournament) RemoveEntrant(id int) error {
	tk := t.Acquire().ReadSets().WriteEntrants().SkipData().ReadStatus()
	defer tk.Release()
	if t.status != TournamentSetup {
		return fmt.Errorf("entrants are frozen in status %q: %w", t.status, ErrInvalidOperation)
	}
	if _, ok := t.entrants[id]; !ok {
		return fmt.Errorf("entrant %d: %w", id, ErrNotFound)
	}
	for _, s := range sortSets(t.sets) {
		if s.referencesEntrant(id) {
			return fmt.Errorf("entrant %d is referenced by set %d: %w", id, s.id, ErrInvalidOperation)
		}
	}
	delete(t.entrants, id)
	return nil
}

func (t *Tournament) Entrant(id int) (Entrant, bool) {
	t.entrantsMu.RLock()
	defer t.entrantsMu.RUnlock()
	e, ok := t.entrants[id]
	return e, ok
}

// Entrants returns all entrants ordered by id.
func (t *Tournament) Entrants() []Entrant {
	t.entrantsMu.RLock()
	defer t.entrantsMu.RUnlock()
	out := make([]Entrant, 0, len(t.entrants))
	for _, e := range t.entrants {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// AddSet registers a set. Membership only changes during setup and ids must
// be unique.
func (t *Tournament) AddSet(s *Set) error {
	if s == nil {
		return fmt.Errorf("set must not be nil: %w", ErrInvalidOperation)
	}
	tk := t.Acquire().WriteSets().SkipEntrants().SkipData().ReadStatus()
	defer tk.Release()
	if t.status != TournamentSetup {
		return fmt.Errorf("sets are frozen in status %q: %w", t.status, ErrInvalidOperation)
	}
	if _, ok := t.sets[s.id]; ok {
		return fmt.Errorf("set %d: %w", s.id, ErrDuplicateID)
	}
	t.sets[s.id] = s
	return nil
}

// RemoveSet unregisters a set during setup. Removal is refused while
// another set's outgoing edge targets it.
func (t *Tournament) RemoveSet(id int) error {
	tk := t.Acquire().WriteSets().SkipEntrants().SkipData().ReadStatus()
	defer tk.Release()
	if t.status != TournamentSetup {
		return fmt.Errorf("sets are frozen in status %q: %w", t.status, ErrInvalidOperation)
	}
	target, ok := t.sets[id]
	if !ok {
		return fmt.Errorf("set %d: %w", id, ErrNotFound)
	}
	for _, s := range sortSets(t.sets) {
		if s == target {
			continue
		}
		if s.WinnerGoesTo() == target || s.LoserGoesTo() == target {
			return fmt.Errorf("set %d is the target of set %d: %w", id, s.id, ErrInvalidOperation)
		}
	}
	delete(t.sets, id)
	return nil
}

func (t *Tournament) Set(id int) (*Set, bool) {
	t.setsMu.RLock()
	defer t.setsMu.RUnlock()
	s, ok := t.sets[id]
	return s, ok
}

// Sets returns all sets ordered by id.
func (t *Tournament) Sets() []*Set {
	t.setsMu.RLock()
	defer t.setsMu.RUnlock()
	return sortSets(t.sets)
}

func sortSets(sets map[int]*Set) []*Set {
	out := make([]*Set, 0, len(sets))
	for _, s := range sets {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

func (t *Tournament) Status() TournamentStatus {
	t.statusMu.RLock()
	defer t.statusMu.RUnlock()
	return t.status
}

// TryStart moves the tournament from setup to in progress, gated on the
// structural validator. The status write lock and every set's read lock are
// held for the duration of the checks so the decision is made over a
// consistent snapshot; an error wrapping ErrValidation leaves the
// tournament in setup.
func (t *Tournament) TryStart() error {
	tk := t.Acquire().ReadSets().SkipEntrants().SkipData().WriteStatus()
	defer tk.Release()
	if t.status != TournamentSetup {
		return fmt.Errorf("tournament cannot start from status %q: %w", t.status, ErrInvalidOperation)
	}
	sets := sortSets(t.sets)
	for _, s := range sets {
		tk.ReadSet(s)
	}
	if err := validateStructure(sets); err != nil {
		return err
	}
	t.status = TournamentInProgress
	return nil
}

// TryFinish moves the tournament from in progress to finished.
func (t *Tournament) TryFinish() error {
	t.statusMu.Lock()
	defer t.statusMu.Unlock()
	if t.status != TournamentInProgress {
		return fmt.Errorf("tournament cannot finish from status %q: %w", t.status, ErrInvalidOperation)
	}
	t.status = TournamentFinished
	return nil
}

func (t *Tournament) Data() map[string]string {
	t.dataMu.RLock()
	defer t.dataMu.RUnlock()
	return cloneBag(t.data)
}

func (t *Tournament) DataValue(key string) (string, bool) {
	t.dataMu.RLock()
	defer t.dataMu.RUnlock()
	v, ok := t.data[key]
	return v, ok
}

// SetDataValue upserts a data bag entry. The bag is writable during setup
// and play, frozen once the tournament is finished.
func (t *Tournament) SetDataValue(key, value string) error {
	tk := t.Acquire().SkipSets().SkipEntrants().WriteData().ReadStatus()
	defer tk.Release()
	if t.status == TournamentFinished {
		return fmt.Errorf("data bag is frozen once finished: %w", ErrInvalidOperation)
	}
	t.data[key] = value
	return nil
}

func (t *Tournament) DeleteDataValue(key string) error {
	tk := t.Acquire().SkipSets().SkipEntrants().WriteData().ReadStatus()
	defer tk.Release()
	if t.status == TournamentFinished {
		return fmt.Errorf("data bag is frozen once finished: %w", ErrInvalidOperation)
	}
	if _, ok := t.data[key]; !ok {
		return fmt.Errorf("data key %q: %w", key, ErrNotFound)
	}
	delete(t.data, key)
	return nil
}

// RestoreStatus forces the tournament status when loading a persisted
// document. A document that is past setup must survive the structural
// validator, exactly as if TryStart had run. Restoration is one-shot per
// tournament, even when the restored status is setup itself.
func (t *Tournament) RestoreStatus(status TournamentStatus) error {
	if !status.valid() {
		return fmt.Errorf("unknown tournament status %q: %w", status, ErrInvalidOperation)
	}
	tk := t.Acquire().ReadSets().SkipEntrants().SkipData().WriteStatus()
	defer tk.Release()
	if t.restored || t.status != TournamentSetup {
		return fmt.Errorf("status already restored to %q: %w", t.status, ErrInvalidOperation)
	}
	if status != TournamentSetup {
		sets := sortSets(t.sets)
		for _, s := range sets {
			tk.ReadSet(s)
		}
		if err := validateStructure(sets); err != nil {
			return err
		}
	}
	t.status = status
	t.restored = true
	return nil
}
