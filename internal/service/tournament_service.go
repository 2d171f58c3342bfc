package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/Vobludalib/tournament-server/internal/bracket"
	"github.com/Vobludalib/tournament-server/internal/wire"
)

// TournamentService orchestrates model operations for the HTTP layer: it
// resolves ids to model objects, owns the lock-acquisition sequences for
// multi-object operations and converts declined transitions into errors the
// handlers can map to responses.
//
// Lock acquisition inside the model is not cancellable; the context is
// checked once before an operation enters an acquisition sequence.
type TournamentService struct {
	mu         sync.RWMutex
	tournament *bracket.Tournament
}

func NewTournamentService(t *bracket.Tournament) *TournamentService {
	if t == nil {
		t = bracket.New()
	}
	return &TournamentService{tournament: t}
}

func (s *TournamentService) current() *bracket.Tournament {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tournament
}

// SetInput carries the setup-time fields of a new set. Referenced entrants
// and edge targets must already exist in the tournament.
type SetInput struct {
	ID             int                   `json:"id"`
	Name           *string               `json:"name,omitempty"`
	Entrant1ID     *int                  `json:"entrant1Id,omitempty"`
	Entrant2ID     *int                  `json:"entrant2Id,omitempty"`
	Decider        *wire.DeciderDocument `json:"decider,omitempty"`
	WinnerGoesToID *int                  `json:"winnerGoesToId,omitempty"`
	LoserGoesToID  *int                  `json:"loserGoesToId,omitempty"`
}

// Document renders the whole tournament as its wire document.
func (s *TournamentService) Document(ctx context.Context) (*wire.TournamentDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return wire.Encode(s.current().Snapshot())
}

// Replace swaps in a tournament decoded from the given document. The decode
// is all-or-nothing, so a bad document leaves the current tournament
// untouched.
func (s *TournamentService) Replace(ctx context.Context, doc *wire.TournamentDocument) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t, err := wire.Decode(doc)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.tournament = t
	s.mu.Unlock()
	return nil
}

func (s *TournamentService) Status(ctx context.Context) (bracket.TournamentStatus, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.current().Status(), nil
}

func (s *TournamentService) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.current().TryStart()
}

func (s *TournamentService) Finish(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.current().TryFinish()
}

func (s *TournamentService) Data(ctx context.Context) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.current().Data(), nil
}

func (s *TournamentService) DataValue(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	v, ok := s.current().DataValue(key)
	if !ok {
		return "", fmt.Errorf("data key %q: %w", key, bracket.ErrNotFound)
	}
	return v, nil
}

func (s *TournamentService) UpsertDataValue(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.current().SetDataValue(key, value)
}

func (s *TournamentService) DeleteDataValue(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.current().DeleteDataValue(key)
}

// Entrants renders every entrant, including team members, in id order.
func (s *TournamentService) Entrants(ctx context.Context) ([]wire.EntrantDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entrants := s.current().Entrants()
	docs := make([]wire.EntrantDocument, 0, len(entrants))
	for _, e := range entrants {
		doc, err := wire.EncodeEntrant(e)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (s *TournamentService) Entrant(ctx context.Context, id int) (*wire.EntrantDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e, ok := s.current().Entrant(id)
	if !ok {
		return nil, fmt.Errorf("entrant %d: %w", id, bracket.ErrNotFound)
	}
	doc, err := wire.EncodeEntrant(e)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// CreateEntrant builds an entrant from its document form and registers it.
// Team member ids are resolved against existing entrants first; members
// constructed inline are registered alongside the team.
func (s *TournamentService) CreateEntrant(ctx context.Context, doc wire.EntrantDocument) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t := s.current()
	e, created, err := wire.DecodeEntrant(doc, t.Entrant)
	if err != nil {
		return err
	}
	for _, m := range created {
		if err := t.AddEntrant(m); err != nil {
			return err
		}
	}
	return t.AddEntrant(e)
}

func (s *TournamentService) DeleteEntrant(ctx context.Context, id int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.current().RemoveEntrant(id)
}

// Sets renders every set in id order.
func (s *TournamentService) Sets(ctx context.Context) ([]wire.SetDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err := wire.Encode(s.current().Snapshot())
	if err != nil {
		return nil, err
	}
	return doc.Sets, nil
}

func (s *TournamentService) Set(ctx context.Context, id int) (*wire.SetDocument, error) {
	sets, err := s.Sets(ctx)
	if err != nil {
		return nil, err
	}
	for i := range sets {
		if sets[i].ID == id {
			return &sets[i], nil
		}
	}
	return nil, fmt.Errorf("set %d: %w", id, bracket.ErrNotFound)
}

// CreateSet builds a set from its setup fields and registers it. Edge
// targets must already be registered, so callers add sets leaf-last or load
// a full document instead.
func (s *TournamentService) CreateSet(ctx context.Context, input SetInput) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t := s.current()

	set := bracket.NewSet(input.ID)
	if input.Name != nil {
		if err := set.SetName(*input.Name); err != nil {
			return err
		}
	}
	if err := s.assignSlot(t, set.SetEntrant1, input.Entrant1ID); err != nil {
		return err
	}
	if err := s.assignSlot(t, set.SetEntrant2, input.Entrant2ID); err != nil {
		return err
	}
	if input.Decider != nil {
		decider, err := wire.DecodeDecider(*input.Decider)
		if err != nil {
			return err
		}
		if err := set.SetDecider(decider); err != nil {
			return err
		}
	}
	if err := s.assignEdge(t, set.SetWinnerGoesTo, input.WinnerGoesToID); err != nil {
		return err
	}
	if err := s.assignEdge(t, set.SetLoserGoesTo, input.LoserGoesToID); err != nil {
		return err
	}
	return t.AddSet(set)
}

func (s *TournamentService) assignSlot(t *bracket.Tournament, assign func(bracket.Entrant) error, id *int) error {
	if id == nil {
		return nil
	}
	e, ok := t.Entrant(*id)
	if !ok {
		return fmt.Errorf("entrant %d: %w", *id, bracket.ErrNotFound)
	}
	return assign(e)
}

func (s *TournamentService) assignEdge(t *bracket.Tournament, assign func(*bracket.Set) error, id *int) error {
	if id == nil {
		return nil
	}
	target, ok := t.Set(*id)
	if !ok {
		return fmt.Errorf("set %d: %w", *id, bracket.ErrNotFound)
	}
	return assign(target)
}

func (s *TournamentService) DeleteSet(ctx context.Context, id int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.current().RemoveSet(id)
}

func (s *TournamentService) resolveSet(id int) (*bracket.Set, error) {
	set, ok := s.current().Set(id)
	if !ok {
		return nil, fmt.Errorf("set %d: %w", id, bracket.ErrNotFound)
	}
	return set, nil
}

func (s *TournamentService) SetSetupComplete(ctx context.Context, id int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	set, err := s.resolveSet(id)
	if err != nil {
		return err
	}
	if !set.TrySetupComplete() {
		return fmt.Errorf("set %d cannot complete setup: %w", id, bracket.ErrInvalidOperation)
	}
	return nil
}

func (s *TournamentService) StartSet(ctx context.Context, id int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	set, err := s.resolveSet(id)
	if err != nil {
		return err
	}
	if !set.TryStart() {
		return fmt.Errorf("set %d cannot start: %w", id, bracket.ErrInvalidOperation)
	}
	return nil
}

// EvaluateSet runs the set's decider and reports whether the set finished.
func (s *TournamentService) EvaluateSet(ctx context.Context, id int) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	set, err := s.resolveSet(id)
	if err != nil {
		return false, err
	}
	return set.Evaluate()
}

// PropagateSet routes the set's winner and loser along its outgoing edges
// and reports whether any target slot changed.
func (s *TournamentService) PropagateSet(ctx context.Context, id int) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	set, err := s.resolveSet(id)
	if err != nil {
		return false, err
	}
	return set.TryPropagate()
}

// PutGame adds or replaces a game in a set.
func (s *TournamentService) PutGame(ctx context.Context, setID, number int, data map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	set, err := s.resolveSet(setID)
	if err != nil {
		return err
	}
	_, err = set.PutGame(number, data)
	return err
}

func (s *TournamentService) resolveGame(setID, number int) (*bracket.Game, error) {
	set, err := s.resolveSet(setID)
	if err != nil {
		return nil, err
	}
	g, ok := set.Game(number)
	if !ok {
		return nil, fmt.Errorf("set %d game %d: %w", setID, number, bracket.ErrNotFound)
	}
	return g, nil
}

func (s *TournamentService) StartGame(ctx context.Context, setID, number int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	g, err := s.resolveGame(setID, number)
	if err != nil {
		return err
	}
	if !g.TryStart() {
		return fmt.Errorf("set %d game %d cannot start: %w", setID, number, bracket.ErrInvalidOperation)
	}
	return nil
}

func (s *TournamentService) RollbackGame(ctx context.Context, setID, number int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	g, err := s.resolveGame(setID, number)
	if err != nil {
		return err
	}
	if !g.TryRollbackToWaiting() {
		return fmt.Errorf("set %d game %d cannot roll back: %w", setID, number, bracket.ErrInvalidOperation)
	}
	return nil
}

// SetGameWinner records a game winner, finishing the game.
func (s *TournamentService) SetGameWinner(ctx context.Context, setID, number, entrantID int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	g, err := s.resolveGame(setID, number)
	if err != nil {
		return err
	}
	winner, ok := s.current().Entrant(entrantID)
	if !ok {
		return fmt.Errorf("entrant %d: %w", entrantID, bracket.ErrNotFound)
	}
	return g.SetWinner(winner)
}
