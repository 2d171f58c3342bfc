package bracket

// Lock acquisition follows a single global order: Tournament sets,
// entrants, data, status, then individual set locks in ascending id order,
// then individual game locks. Release happens in exactly the reverse order.
//
// The staged types below only ever offer the next legal stage, so asking
// for tournament aspects out of order does not compile. The dynamic rules
// (ascending set ids, ascending (set id, game number) pairs, no set lock
// after a game lock) are checked at runtime and treated as programmer
// error.

// Ticket holds a sequence of acquired locks and releases them in reverse
// acquisition order.
type Ticket struct {
	unlocks []func()

	haveSet bool
	lastSet int

	haveGame    bool
	lastGameSet int
	lastGameNum int
}

func (tk *Ticket) push(unlock func()) {
	tk.unlocks = append(tk.unlocks, unlock)
}

// Release unwinds every lock held by the ticket. The ticket must not be
// used afterwards.
func (tk *Ticket) Release() {
	for i := len(tk.unlocks) - 1; i >= 0; i-- {
		tk.unlocks[i]()
	}
	tk.unlocks = nil
}

// ReadSet acquires a set's read lock. Set locks must be taken in ascending
// id order and before any game lock.
func (tk *Ticket) ReadSet(s *Set) {
	tk.checkSetOrder(s)
	s.mu.RLock()
	tk.push(s.mu.RUnlock)
}

// WriteSet acquires a set's write lock under the same ordering rules as
// ReadSet.
func (tk *Ticket) WriteSet(s *Set) {
	tk.checkSetOrder(s)
	s.mu.Lock()
	tk.push(s.mu.Unlock)
}

func (tk *Ticket) checkSetOrder(s *Set) {
	if tk.haveGame {
		panic("bracket: set lock requested after a game lock")
	}
	if tk.haveSet && s.id <= tk.lastSet {
		panic("bracket: set locks must be acquired in ascending id order")
	}
	tk.haveSet = true
	tk.lastSet = s.id
}

// LockGame acquires a game's lock. Game locks come last and must ascend by
// (owning set id, game number).
func (tk *Ticket) LockGame(g *Game) {
	setID := 0
	if g.parent != nil {
		setID = g.parent.id
	}
	if tk.haveGame {
		if setID < tk.lastGameSet || (setID == tk.lastGameSet && g.number <= tk.lastGameNum) {
			panic("bracket: game locks must be acquired in ascending order")
		}
	}
	tk.haveGame = true
	tk.lastGameSet = setID
	tk.lastGameNum = g.number
	g.mu.Lock()
	tk.push(g.mu.Unlock)
}

type SetsStage struct {
	t  *Tournament
	tk *Ticket
}

type EntrantsStage struct {
	t  *Tournament
	tk *Ticket
}

type DataStage struct {
	t  *Tournament
	tk *Ticket
}

type StatusStage struct {
	t  *Tournament
	tk *Ticket
}

// Acquire starts a staged lock acquisition on the tournament.
func (t *Tournament) Acquire() SetsStage {
	return SetsStage{t: t, tk: &Ticket{}}
}

func (st SetsStage) ReadSets() EntrantsStage {
	st.t.setsMu.RLock()
	st.tk.push(st.t.setsMu.RUnlock)
	return EntrantsStage{st.t, st.tk}
}

func (st SetsStage) WriteSets() EntrantsStage {
	st.t.setsMu.Lock()
	st.tk.push(st.t.setsMu.Unlock)
	return EntrantsStage{st.t, st.tk}
}

func (st SetsStage) SkipSets() EntrantsStage {
	return EntrantsStage{st.t, st.tk}
}

func (st EntrantsStage) ReadEntrants() DataStage {
	st.t.entrantsMu.RLock()
	st.tk.push(st.t.entrantsMu.RUnlock)
	return DataStage{st.t, st.tk}
}

func (st EntrantsStage) WriteEntrants() DataStage {
	st.t.entrantsMu.Lock()
	st.tk.push(st.t.entrantsMu.Unlock)
	return DataStage{st.t, st.tk}
}

func (st EntrantsStage) SkipEntrants() DataStage {
	return DataStage{st.t, st.tk}
}

func (st DataStage) ReadData() StatusStage {
	st.t.dataMu.RLock()
	st.tk.push(st.t.dataMu.RUnlock)
	return StatusStage{st.t, st.tk}
}

func (st DataStage) WriteData() StatusStage {
	st.t.dataMu.Lock()
	st.tk.push(st.t.dataMu.Unlock)
	return StatusStage{st.t, st.tk}
}

func (st DataStage) SkipData() StatusStage {
	return StatusStage{st.t, st.tk}
}

func (st StatusStage) ReadStatus() *Ticket {
	st.t.statusMu.RLock()
	st.tk.push(st.t.statusMu.RUnlock)
	return st.tk
}

func (st StatusStage) WriteStatus() *Ticket {
	st.t.statusMu.Lock()
	st.tk.push(st.t.statusMu.Unlock)
	return st.tk
}

func (st StatusStage) SkipStatus() *Ticket {
	return st.tk
}
