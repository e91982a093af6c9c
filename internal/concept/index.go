package concept

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// Index is an immutable in-memory view of the graph with precomputed
// DEPENDS_ON adjacency in both directions and a topological order.
type Index struct {
	concepts      []Concept
	byID          map[int64]Concept
	relationships []Relationship
	prereqs       map[int64][]int64 // source -> targets
	dependents    map[int64][]int64 // target -> sources
	roots         []Concept
	topoOrder     []Concept
	cyclic        []int64
}

// NewIndex builds the index. Edges touching unknown concepts are kept for
// Check but left out of the adjacency.
func NewIndex(concepts []Concept, rels []Relationship) *Index {
	idx := &Index{
		concepts:      slices.Clone(concepts),
		byID:          make(map[int64]Concept, len(concepts)),
		relationships: slices.Clone(rels),
		prereqs:       make(map[int64][]int64),
		dependents:    make(map[int64][]int64),
	}
	slices.SortFunc(idx.concepts, func(a, b Concept) int { return cmp.Compare(a.ID, b.ID) })
	for _, c := range idx.concepts {
		idx.byID[c.ID] = c
	}

	for _, r := range rels {
		if !r.Type.IsDependsOn() || r.SourceID == r.TargetID {
			continue
		}
		if _, ok := idx.byID[r.SourceID]; !ok {
			continue
		}
		if _, ok := idx.byID[r.TargetID]; !ok {
			continue
		}
		if !slices.Contains(idx.prereqs[r.SourceID], r.TargetID) {
			idx.prereqs[r.SourceID] = append(idx.prereqs[r.SourceID], r.TargetID)
			idx.dependents[r.TargetID] = append(idx.dependents[r.TargetID], r.SourceID)
		}
	}
	for _, ids := range idx.prereqs {
		slices.Sort(ids)
	}
	for _, ids := range idx.dependents {
		slices.Sort(ids)
	}

	for _, c := range idx.concepts {
		if len(idx.prereqs[c.ID]) == 0 {
			idx.roots = append(idx.roots, c)
		}
	}
	idx.topoOrder, idx.cyclic = idx.kahn()
	return idx
}

// kahn orders concepts so every prerequisite precedes its dependents.
// Concepts caught in a DEPENDS_ON cycle are returned separately.
func (idx *Index) kahn() (order []Concept, cyclic []int64) {
	remaining := make(map[int64]int, len(idx.concepts))
	var queue []int64
	for _, c := range idx.concepts {
		remaining[c.ID] = len(idx.prereqs[c.ID])
		if remaining[c.ID] == 0 {
			queue = append(queue, c.ID)
		}
	}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, idx.byID[id])
		for _, dep := range idx.dependents[id] {
			remaining[dep]--
			if remaining[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}

	for _, c := range idx.concepts {
		if remaining[c.ID] > 0 {
			cyclic = append(cyclic, c.ID)
		}
	}
	return order, cyclic
}

func (idx *Index) Concept(id int64) (Concept, bool) {
	c, ok := idx.byID[id]
	return c, ok
}

func (idx *Index) Concepts() []Concept { return slices.Clone(idx.concepts) }

// Prerequisites returns the direct DEPENDS_ON targets of id, by id.
func (idx *Index) Prerequisites(id int64) []Concept {
	return idx.resolve(idx.prereqs[id])
}

// Dependents returns the concepts that directly depend on id.
func (idx *Index) Dependents(id int64) []Concept {
	return idx.resolve(idx.dependents[id])
}

// Roots returns concepts without prerequisites.
func (idx *Index) Roots() []Concept { return slices.Clone(idx.roots) }

// TopologicalOrder returns every concept not on a cycle, prerequisites
// first.
func (idx *Index) TopologicalOrder() []Concept { return slices.Clone(idx.topoOrder) }

func (idx *Index) resolve(ids []int64) []Concept {
	out := make([]Concept, 0, len(ids))
	for _, id := range ids {
		out = append(out, idx.byID[id])
	}
	return out
}

// Check reports structural problems in the stored graph. None of them
// break one-hop traversal; they are diagnostics for whoever curates the
// graph.
func (idx *Index) Check() []string {
	var problems []string

	names := make(map[string][]int64)
	for _, c := range idx.concepts {
		key := strings.ToLower(strings.TrimSpace(c.Name))
		names[key] = append(names[key], c.ID)
	}
	for _, c := range idx.concepts {
		key := strings.ToLower(strings.TrimSpace(c.Name))
		if ids := names[key]; len(ids) > 1 && ids[0] == c.ID {
			problems = append(problems, fmt.Sprintf("duplicate concept name %q on ids %s", c.Name, joinIDs(ids)))
		}
	}

	for _, r := range idx.relationships {
		if r.SourceID == r.TargetID {
			problems = append(problems, fmt.Sprintf("relationship %d is a self-loop on concept %d", r.ID, r.SourceID))
		}
		for _, end := range []int64{r.SourceID, r.TargetID} {
			if _, ok := idx.byID[end]; !ok {
				problems = append(problems, fmt.Sprintf("relationship %d references nonexistent concept %d", r.ID, end))
			}
		}
	}

	if len(idx.cyclic) > 0 {
		problems = append(problems, fmt.Sprintf("DEPENDS_ON cycle involving concepts %s", joinIDs(idx.cyclic)))
	}
	if len(idx.concepts) > 0 && len(idx.roots) == 0 {
		problems = append(problems, "no root concepts (every concept has a prerequisite)")
	}
	return problems
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprint(id)
	}
	return strings.Join(parts, ", ")
}
