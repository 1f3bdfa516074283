package pipeline

import (
	"strings"

	"github.com/anthropics/dezzy/lir"
)

// topoSort orders lir types so that any user-defined type referenced by
// a field precedes the type doing the referencing, via Kahn's algorithm
// (spec §4.F). Iteration order follows the input slice rather than Go's
// randomized map order, so ties are broken deterministically across
// runs (the spec itself leaves the tie-break unspecified).
func topoSort(types []*lir.Type) ([]*lir.Type, error) {
	byName := make(map[string]*lir.Type, len(types))
	names := make([]string, 0, len(types))
	indegree := make(map[string]int, len(types))
	adj := make(map[string][]string, len(types))

	for _, t := range types {
		byName[t.Name] = t
		names = append(names, t.Name)
		indegree[t.Name] = 0
	}

	for _, t := range types {
		for _, f := range t.Fields {
			base := stripArraySuffix(f.TypeText)
			if base == t.Name {
				continue
			}
			if _, ok := byName[base]; ok {
				adj[base] = append(adj[base], t.Name)
				indegree[t.Name]++
			}
		}
	}

	queue := make([]string, 0, len(names))
	for _, n := range names {
		if indegree[n] == 0 {
			queue = append(queue, n)
		}
	}

	sortedNames := make([]string, 0, len(names))
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		sortedNames = append(sortedNames, n)
		for _, user := range adj[n] {
			indegree[user]--
			if indegree[user] == 0 {
				queue = append(queue, user)
			}
		}
	}

	if len(sortedNames) < len(names) {
		processed := make(map[string]bool, len(sortedNames))
		for _, n := range sortedNames {
			processed[n] = true
		}
		unprocessed := make([]string, 0, len(names)-len(sortedNames))
		for _, n := range names {
			if !processed[n] {
				unprocessed = append(unprocessed, n)
			}
		}
		return nil, &Error{Kind: CircularDependency, Nodes: unprocessed}
	}

	sorted := make([]*lir.Type, 0, len(sortedNames))
	for _, n := range sortedNames {
		sorted = append(sorted, byName[n])
	}
	return sorted, nil
}

// stripArraySuffix strips a trailing "[...]" from a LIR text type,
// leaving the element/base type name bare for dependency-graph lookup.
func stripArraySuffix(typeText string) string {
	if idx := strings.Index(typeText, "["); idx >= 0 {
		return typeText[:idx]
	}
	return typeText
}
