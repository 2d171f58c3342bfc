// Package wire converts the in-memory tournament graph to and from a single
// JSON document. Sets legitimately reference other sets, so the document
// flattens every reference to its integer id and the decoder rebuilds the
// graph in two passes: first a links report keyed by raw ids, then one set
// shell per id, then field fill-in by id lookup.
package wire

import "errors"

// ErrDocument marks malformed input: a bad id, an unresolved reference, a
// missing required field or an illegal combination of fields. Decoding is
// all-or-nothing; no partial tournament is ever returned.
var ErrDocument = errors.New("malformed document")

// Entrant kind and decider type tags. The set of variants is closed:
// decoding dispatches on these by explicit switch.
const (
	KindIndividual = "Individual"
	KindTeam       = "Team"

	DeciderBestOf = "BestOfDecider"
)

type TournamentDocument struct {
	Sets     []SetDocument     `json:"sets"`
	Entrants []EntrantDocument `json:"entrants"`
	Data     map[string]string `json:"data"`
	Status   string            `json:"status"`
}

// EntrantDocument is the tagged union for both entrant kinds. Individuals
// that belong to a team are nested under the team's member list and not
// repeated at top level.
type EntrantDocument struct {
	Type      string            `json:"type"`
	ID        int               `json:"id"`
	Tag       string            `json:"tag,omitempty"`
	FirstName string            `json:"firstName,omitempty"`
	LastName  string            `json:"lastName,omitempty"`
	TeamName  string            `json:"teamName,omitempty"`
	Members   []EntrantDocument `json:"members,omitempty"`
	Data      map[string]string `json:"data,omitempty"`
}

// DeciderDocument is the tagged union for winner deciders, e.g.
// {"type":"BestOfDecider","amountOfWinsRequired":3}.
type DeciderDocument struct {
	Type                 string `json:"type"`
	AmountOfWinsRequired int    `json:"amountOfWinsRequired,omitempty"`
}

type GameDocument struct {
	Number     int               `json:"number"`
	Entrant1ID int               `json:"entrant1Id"`
	Entrant2ID int               `json:"entrant2Id"`
	Status     string            `json:"status"`
	WinnerID   *int              `json:"winnerId,omitempty"`
	Data       map[string]string `json:"data,omitempty"`
}

type SetDocument struct {
	ID             int               `json:"id"`
	Name           *string           `json:"name,omitempty"`
	Entrant1ID     *int              `json:"entrant1Id,omitempty"`
	Entrant2ID     *int              `json:"entrant2Id,omitempty"`
	Status         string            `json:"status"`
	WinnerID       *int              `json:"winnerId,omitempty"`
	LoserID        *int              `json:"loserId,omitempty"`
	Decider        *DeciderDocument  `json:"decider,omitempty"`
	WinnerGoesToID *int              `json:"winnerGoesToId,omitempty"`
	LoserGoesToID  *int              `json:"loserGoesToId,omitempty"`
	Games          []GameDocument    `json:"games"`
	Data           map[string]string `json:"data,omitempty"`
}
