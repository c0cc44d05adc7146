package qcfg

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vk/hwtree/internal/errs"
)

// graph is the ordering DAG over component instances, identified by their
// structural pre-order index so the topological sort has a deterministic
// tie-break.
type graph struct {
	n      int
	succ   [][]int
	indeg  []int
	labels []string
}

func newGraph(labels []string) *graph {
	return &graph{
		n:      len(labels),
		succ:   make([][]int, len(labels)),
		indeg:  make([]int, len(labels)),
		labels: labels,
	}
}

// addEdge declares that `from` must contribute before `to`.
func (g *graph) addEdge(from, to int) {
	if from == to {
		return
	}
	for _, s := range g.succ[from] {
		if s == to {
			return
		}
	}
	g.succ[from] = append(g.succ[from], to)
	g.indeg[to]++
}

// order returns a topological ordering. Nodes with no pending constraints
// run in structural order, which makes the result deterministic. A cycle
// fails with OrderingCycleError naming the components involved.
func (g *graph) order() ([]int, error) {
	indeg := make([]int, g.n)
	copy(indeg, g.indeg)

	ready := make([]int, 0, g.n)
	for i := 0; i < g.n; i++ {
		if indeg[i] == 0 {
			ready = append(ready, i)
		}
	}

	out := make([]int, 0, g.n)
	for len(ready) > 0 {
		// Lowest structural index first.
		sort.Ints(ready)
		next := ready[0]
		ready = ready[1:]
		out = append(out, next)
		for _, s := range g.succ[next] {
			indeg[s]--
			if indeg[s] == 0 {
				ready = append(ready, s)
			}
		}
	}

	if len(out) < g.n {
		var stuck []string
		for i := 0; i < g.n; i++ {
			if indeg[i] > 0 {
				stuck = append(stuck, g.labels[i])
			}
		}
		return nil, &errs.OrderingCycleError{
			Detail: fmt.Sprintf("constraints are contradictory for %s", strings.Join(stuck, ", ")),
		}
	}
	return out, nil
}
