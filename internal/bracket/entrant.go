package bracket

import (
	"fmt"
	"strings"
)

// Entrant is a tournament participant, either an individual or a team.
// Entrants are immutable once constructed and safe to read concurrently
// without locking. Identity is the integer id.
type Entrant interface {
	ID() int
	CondensedName() string
	Data() map[string]string
	DataValue(key string) (string, bool)
}

type IndividualEntrant struct {
	id    int
	tag   string
	first string
	last  string
	data  map[string]string
}

// NewIndividualFromTag builds an individual known only by a display tag.
func NewIndividualFromTag(id int, tag string, data map[string]string) (*IndividualEntrant, error) {
	if strings.TrimSpace(tag) == "" {
		return nil, fmt.Errorf("entrant %d: tag must not be empty: %w", id, ErrInvalidOperation)
	}
	return &IndividualEntrant{id: id, tag: tag, data: cloneBag(data)}, nil
}

// NewIndividual builds an individual from a (first, last) name pair. The
// last name is required, the first name may be empty.
func NewIndividual(id int, first, last string, data map[string]string) (*IndividualEntrant, error) {
	if strings.TrimSpace(last) == "" {
		return nil, fmt.Errorf("entrant %d: last name must not be empty: %w", id, ErrInvalidOperation)
	}
	return &IndividualEntrant{id: id, first: first, last: last, data: cloneBag(data)}, nil
}

func (e *IndividualEntrant) ID() int           { return e.id }
func (e *IndividualEntrant) Tag() string       { return e.tag }
func (e *IndividualEntrant) FirstName() string { return e.first }
func (e *IndividualEntrant) LastName() string  { return e.last }

// CondensedName is the tag when the entrant has one, otherwise "Last F."
// when a first name is present and "Last" when it is not.
func (e *IndividualEntrant) CondensedName() string {
	if e.tag != "" {
		return e.tag
	}
	if e.first == "" {
		return e.last
	}
	initial := []rune(e.first)[0]
	return fmt.Sprintf("%s %c.", e.last, initial)
}

func (e *IndividualEntrant) Data() map[string]string { return cloneBag(e.data) }

func (e *IndividualEntrant) DataValue(key string) (string, bool) {
	v, ok := e.data[key]
	return v, ok
}

type TeamEntrant struct {
	id      int
	name    string
	members []*IndividualEntrant
	data    map[string]string
}

// NewTeam builds a team from a non-empty ordered member list. The team name
// is optional.
func NewTeam(id int, name string, members []*IndividualEntrant, data map[string]string) (*TeamEntrant, error) {
	if len(members) == 0 {
		return nil, fmt.Errorf("entrant %d: team needs at least one member: %w", id, ErrInvalidOperation)
	}
	for _, m := range members {
		if m == nil {
			return nil, fmt.Errorf("entrant %d: team member must not be nil: %w", id, ErrInvalidOperation)
		}
	}
	copied := make([]*IndividualEntrant, len(members))
	copy(copied, members)
	return &TeamEntrant{id: id, name: name, members: copied, data: cloneBag(data)}, nil
}

func (e *TeamEntrant) ID() int      { return e.id }
func (e *TeamEntrant) Name() string { return e.name }

func (e *TeamEntrant) Members() []*IndividualEntrant {
	copied := make([]*IndividualEntrant, len(e.members))
	copy(copied, e.members)
	return copied
}

func (e *TeamEntrant) CondensedName() string {
	if e.name != "" {
		return e.name
	}
	names := make([]string, len(e.members))
	for i, m := range e.members {
		names[i] = m.CondensedName()
	}
	return strings.Join(names, ", ")
}

func (e *TeamEntrant) Data() map[string]string { return cloneBag(e.data) }

func (e *TeamEntrant) DataValue(key string) (string, bool) {
	v, ok := e.data[key]
	return v, ok
}

func cloneBag(data map[string]string) map[string]string {
	copied := make(map[string]string, len(data))
	for k, v := range data {
		copied[k] = v
	}
	return copied
}

// sameEntrant compares entrants by id, treating nil as matching nothing.
func sameEntrant(a, b Entrant) bool {
	return a != nil && b != nil && a.ID() == b.ID()
}
