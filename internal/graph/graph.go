// Package graph resolves the dependency DAG between epics. The graph is
// derived from declared depends-on edges, validated for cycles before any
// scheduling decision, and never persisted on its own.
package graph

import (
	"sort"

	"github.com/specflow/specflow/internal/epic"
)

// Validate checks structural soundness of the declared dependencies:
// no duplicate IDs, no self-references, no references to unknown epics.
func Validate(units []*epic.Epic) error {
	byID := make(map[string]*epic.Epic, len(units))
	for _, u := range units {
		if _, dup := byID[u.ID]; dup {
			return &ValidationError{EpicID: u.ID, Reason: "duplicate epic id"}
		}
		byID[u.ID] = u
	}
	for _, u := range units {
		for _, dep := range u.DependsOn {
			if dep == u.ID {
				return &ValidationError{EpicID: u.ID, Reason: "depends on itself"}
			}
			if _, ok := byID[dep]; !ok {
				return &ValidationError{EpicID: u.ID, Reason: "depends on unknown epic " + dep}
			}
		}
	}
	return nil
}

// TopologicalOrder returns epic IDs so that every dependency appears
// before its dependents (Kahn's algorithm). Ties at equal depth are
// broken by CreatedAt ascending, then ID, so the order is deterministic
// for a fixed set of epics. Fails with *CycleError if the graph is
// cyclic; no partial order is returned.
func TopologicalOrder(units []*epic.Epic) ([]string, error) {
	if err := Validate(units); err != nil {
		return nil, err
	}

	// Arena: stable index per unit, adjacency over indices.
	index := make(map[string]int, len(units))
	for i, u := range units {
		index[u.ID] = i
	}

	dependents := make([][]int, len(units)) // edges dep -> dependent
	inDegree := make([]int, len(units))
	for i, u := range units {
		for _, dep := range u.DependsOn {
			j := index[dep]
			dependents[j] = append(dependents[j], i)
			inDegree[i]++
		}
	}

	frontier := make([]int, 0, len(units))
	for i, d := range inDegree {
		if d == 0 {
			frontier = append(frontier, i)
		}
	}

	order := make([]string, 0, len(units))
	for len(frontier) > 0 {
		// Pick the oldest ready unit; ID as the final tie-break keeps the
		// order total even for identical timestamps.
		sort.Slice(frontier, func(a, b int) bool {
			ua, ub := units[frontier[a]], units[frontier[b]]
			if !ua.CreatedAt.Equal(ub.CreatedAt) {
				return ua.CreatedAt.Before(ub.CreatedAt)
			}
			return ua.ID < ub.ID
		})
		next := frontier[0]
		frontier = frontier[1:]

		order = append(order, units[next].ID)
		for _, dependent := range dependents[next] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				frontier = append(frontier, dependent)
			}
		}
	}

	if len(order) < len(units) {
		return nil, &CycleError{Path: findCycle(units, index, inDegree)}
	}
	return order, nil
}

// findCycle extracts one concrete cycle from the nodes Kahn's algorithm
// could not remove.
func findCycle(units []*epic.Epic, index map[string]int, inDegree []int) []string {
	remaining := make(map[int]bool)
	start := -1
	for i, d := range inDegree {
		if d > 0 {
			remaining[i] = true
			if start == -1 {
				start = i
			}
		}
	}
	if start == -1 {
		return nil
	}

	// Walk dependencies inside the remaining set until a node repeats.
	visitedAt := make(map[int]int)
	var path []int
	cur := start
	for {
		if at, seen := visitedAt[cur]; seen {
			path = path[at:]
			break
		}
		visitedAt[cur] = len(path)
		path = append(path, cur)

		next := -1
		for _, dep := range units[cur].DependsOn {
			j := index[dep]
			if remaining[j] {
				next = j
				break
			}
		}
		if next == -1 {
			// Should not happen: every remaining node has a remaining dep.
			break
		}
		cur = next
	}

	ids := make([]string, len(path))
	for i, idx := range path {
		ids[i] = units[idx].ID
	}
	return ids
}

// Unsatisfied returns the dependency IDs of u that are not yet
// Integrated or Released, in declaration order.
func Unsatisfied(u *epic.Epic, byID map[string]*epic.Epic) []string {
	var unmet []string
	for _, dep := range u.DependsOn {
		d, ok := byID[dep]
		if !ok || (d.State != epic.StateIntegrated && d.State != epic.StateReleased) {
			unmet = append(unmet, dep)
		}
	}
	return unmet
}

// IsSatisfied reports whether every dependency of u is Integrated or Released.
func IsSatisfied(u *epic.Epic, byID map[string]*epic.Epic) bool {
	return len(Unsatisfied(u, byID)) == 0
}

// ByID builds the lookup map the satisfaction helpers take.
func ByID(units []*epic.Epic) map[string]*epic.Epic {
	byID := make(map[string]*epic.Epic, len(units))
	for _, u := range units {
		byID[u.ID] = u
	}
	return byID
}
