package bracket

import "fmt"

// validateStructure proves the bracket graph is startable: every set ends
// up with exactly two entrants and the winner/loser edges form no directed
// cycle. It is pure over the given snapshot; the caller holds every set's
// read lock for the duration, so fields are read directly.
func validateStructure(sets []*Set) error {
	if err := checkEntrantCounts(sets); err != nil {
		return err
	}
	return checkAcyclic(sets)
}

// checkEntrantCounts tallies, per set, the entrants already assigned to its
// slots plus one for every incoming edge. An edge whose source is already
// finished and whose carried entrant already occupies a slot in the target
// has been delivered and is not counted again; a freshly set-up bracket has
// no such edges, so there the tally is the plain assigned+incoming count.
func checkEntrantCounts(sets []*Set) error {
	counts := make(map[int]int, len(sets))
	for _, s := range sets {
		counts[s.id] = 0
	}
	for _, s := range sets {
		if s.entrant1 != nil {
			counts[s.id]++
		}
		if s.entrant2 != nil {
			counts[s.id]++
		}
	}
	for _, s := range sets {
		countEdge(counts, s, s.winnerGoesTo, s.winner)
		countEdge(counts, s, s.loserGoesTo, s.loser)
	}
	if len(counts) != len(sets) {
		return fmt.Errorf("an edge targets a set outside the tournament: %w", ErrValidation)
	}
	for _, s := range sets {
		if counts[s.id] != 2 {
			return fmt.Errorf("set %d would receive %d entrants, want exactly 2: %w", s.id, counts[s.id], ErrValidation)
		}
	}
	return nil
}

func countEdge(counts map[int]int, source, target *Set, carried Entrant) {
	if target == nil {
		return
	}
	if source.status == SetFinished && carried != nil &&
		(sameEntrant(target.entrant1, carried) || sameEntrant(target.entrant2, carried)) {
		return // already delivered, counted as an assigned slot
	}
	counts[target.id]++
}

// checkAcyclic runs an iterative depth-first search over the edge graph
// with white/gray/black coloring. A back edge into the current path is a
// cycle. Every node is visited exactly once overall, so disconnected
// brackets in one tournament are each covered.
func checkAcyclic(sets []*Set) error {
	adjacency := make(map[int][]int, len(sets))
	for _, s := range sets {
		var out []int
		if s.winnerGoesTo != nil {
			out = append(out, s.winnerGoesTo.id)
		}
		if s.loserGoesTo != nil {
			out = append(out, s.loserGoesTo.id)
		}
		adjacency[s.id] = out
	}

	visited := make(map[int]bool, len(sets))
	currPath := make(map[int]bool, len(sets))

	type frame struct {
		id   int
		next int
	}

	for _, root := range sets {
		if visited[root.id] {
			continue
		}
		stack := []frame{{id: root.id}}
		visited[root.id] = true
		currPath[root.id] = true

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			edges := adjacency[top.id]
			if top.next >= len(edges) {
				currPath[top.id] = false
				stack = stack[:len(stack)-1]
				continue
			}
			neighbor := edges[top.next]
			top.next++
			if currPath[neighbor] {
				return fmt.Errorf("sets %d and %d are part of a cycle: %w", top.id, neighbor, ErrValidation)
			}
			if visited[neighbor] {
				continue
			}
			visited[neighbor] = true
			currPath[neighbor] = true
			stack = append(stack, frame{id: neighbor})
		}
	}
	return nil
}
