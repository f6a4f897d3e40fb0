package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/factoryplan/internal/ir"
)

// CycleWarning reports factories that supply each other in a loop.
//
// Cycles are warnings, not errors: the pipeline recomputes the whole set
// every pass and never iterates along edges, so loops are legal.
type CycleWarning struct {
	Path    []int  `json:"path"`    // factory ids: [1, 2, 1]
	Message string `json:"message"` // Human-readable description
	Level   string `json:"level"`   // "warning"
}

// importGraph maps supplier id to the ids of factories importing from it.
type importGraph map[int][]int

// AnalyzeCycles finds strongly connected components in the import graph
// using Tarjan's algorithm. Each SCC with more than one factory, or a
// factory importing from itself, is reported once.
//
// A plan without cycles returns an empty list.
func AnalyzeCycles(plan *ir.Plan) []CycleWarning {
	warnings := []CycleWarning{}
	if plan == nil || len(plan.Factories) == 0 {
		return warnings
	}

	graph := buildImportGraph(plan)
	names := make(map[int]string, len(plan.Factories))
	for _, f := range plan.Factories {
		names[f.ID] = f.Name
	}

	for _, scc := range tarjanSCC(graph) {
		if len(scc) > 1 || hasSelfLoop(scc[0], graph) {
			warnings = append(warnings, cycleSCCToWarning(scc, graph, names))
		}
	}

	sort.Slice(warnings, func(i, j int) bool {
		return warnings[i].Path[0] < warnings[j].Path[0]
	})
	return warnings
}

// buildImportGraph adds an edge supplier -> consumer for every import whose
// supplier exists. Edge lists are sorted so traversal is deterministic.
func buildImportGraph(plan *ir.Plan) importGraph {
	graph := make(importGraph, len(plan.Factories))
	for _, f := range plan.Factories {
		if graph[f.ID] == nil {
			graph[f.ID] = []int{}
		}
	}
	for _, consumer := range plan.Factories {
		for _, in := range consumer.Inputs {
			if _, ok := graph[in.FactoryID]; !ok {
				continue
			}
			graph[in.FactoryID] = appendUnique(graph[in.FactoryID], consumer.ID)
		}
	}
	for id := range graph {
		sort.Ints(graph[id])
	}
	return graph
}

func appendUnique(s []int, v int) []int {
	for _, x := range s {
		if x == v {
			return s
		}
	}
	return append(s, v)
}

// hasSelfLoop checks if a node has an edge to itself.
func hasSelfLoop(node int, graph importGraph) bool {
	for _, neighbor := range graph[node] {
		if neighbor == node {
			return true
		}
	}
	return false
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Nodes are visited in ascending id order.
func tarjanSCC(graph importGraph) [][]int {
	var (
		index   = 0
		stack   []int
		indices = make(map[int]int)
		lowlink = make(map[int]int)
		onStack = make(map[int]bool)
		sccs    [][]int
	)

	var strongConnect func(int)
	strongConnect = func(v int) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []int
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sort.Ints(scc)
			sccs = append(sccs, scc)
		}
	}

	nodes := make([]int, 0, len(graph))
	for node := range graph {
		nodes = append(nodes, node)
	}
	sort.Ints(nodes)
	for _, node := range nodes {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}

	return sccs
}

// cycleSCCToWarning converts an SCC to a CycleWarning with a traversal path
// starting and ending at the smallest id.
func cycleSCCToWarning(scc []int, graph importGraph, names map[int]string) CycleWarning {
	var path []int
	if len(scc) == 1 {
		path = []int{scc[0], scc[0]}
	} else {
		path = reconstructCyclePath(scc, graph)
	}

	labels := make([]string, len(path))
	for i, id := range path {
		labels[i] = fmt.Sprintf("%s(%d)", names[id], id)
	}
	return CycleWarning{
		Path:    path,
		Message: fmt.Sprintf("Circular supply detected: %s", strings.Join(labels, " → ")),
		Level:   "warning",
	}
}

// reconstructCyclePath follows edges inside the SCC from its first node
// until it returns to the start.
func reconstructCyclePath(scc []int, graph importGraph) []int {
	inSCC := make(map[int]bool, len(scc))
	for _, node := range scc {
		inSCC[node] = true
	}

	start := scc[0]
	current := start
	path := []int{current}
	visited := make(map[int]bool)

	for {
		visited[current] = true

		next, found := 0, false
		for _, neighbor := range graph[current] {
			if inSCC[neighbor] && (!visited[neighbor] || neighbor == start) {
				next, found = neighbor, true
				break
			}
		}
		if !found {
			break
		}

		path = append(path, next)
		if next == start {
			break
		}
		current = next
	}

	return path
}
