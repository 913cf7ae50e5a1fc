// # internal/engine/graph/detect.go
package graph

import "sort"

// components returns the strongly connected components of the import graph
// in completion order of Tarjan's algorithm, so every component comes after
// the components it imports from. Roots and edges are taken in discovery
// order, which makes the result deterministic. Iterative to survive deep
// import chains.
func (g *Graph) components() [][]string {
	type frame struct {
		id   string
		next int
	}

	index := make(map[string]int, len(g.Order))
	low := make(map[string]int, len(g.Order))
	onStack := make(map[string]bool, len(g.Order))
	var stack []string
	var out [][]string
	counter := 0

	visit := func(id string) {
		index[id] = counter
		low[id] = counter
		counter++
		stack = append(stack, id)
		onStack[id] = true
	}

	for _, root := range g.Order {
		if _, seen := index[root]; seen {
			continue
		}
		visit(root)
		call := []frame{{id: root}}

		for len(call) > 0 {
			top := &call[len(call)-1]
			deps := g.imports[top.id]
			if top.next < len(deps) {
				next := deps[top.next]
				top.next++
				if _, seen := index[next]; !seen {
					visit(next)
					call = append(call, frame{id: next})
				} else if onStack[next] && index[next] < low[top.id] {
					low[top.id] = index[next]
				}
				continue
			}

			id := top.id
			call = call[:len(call)-1]
			if len(call) > 0 {
				parent := call[len(call)-1].id
				if low[id] < low[parent] {
					low[parent] = low[id]
				}
			}
			if low[id] != index[id] {
				continue
			}

			var comp []string
			for {
				n := len(stack) - 1
				member := stack[n]
				stack = stack[:n]
				onStack[member] = false
				comp = append(comp, member)
				if member == id {
					break
				}
			}
			g.sortByDiscovery(comp)
			out = append(out, comp)
		}
	}
	return out
}

func (g *Graph) sortByDiscovery(ids []string) {
	sort.Slice(ids, func(i, j int) bool {
		return g.DiscoveryIndex(ids[i]) < g.DiscoveryIndex(ids[j])
	})
}

// EmissionOrder lists every module so that a module comes after the modules
// it imports. Modules that import each other are emitted in first-discovery
// order.
func (g *Graph) EmissionOrder() []string {
	out := make([]string, 0, len(g.Order))
	for _, comp := range g.components() {
		out = append(out, comp...)
	}
	return out
}

// Cycles reports import cycles: components with more than one module, or a
// module importing itself. Members are in discovery order; cycles are ordered
// by their first member.
func (g *Graph) Cycles() [][]string {
	var cycles [][]string
	for _, comp := range g.components() {
		if len(comp) > 1 || g.importsSelf(comp[0]) {
			cycles = append(cycles, comp)
		}
	}
	sort.Slice(cycles, func(i, j int) bool {
		return g.DiscoveryIndex(cycles[i][0]) < g.DiscoveryIndex(cycles[j][0])
	})
	return cycles
}

func (g *Graph) importsSelf(id string) bool {
	for _, dep := range g.imports[id] {
		if dep == id {
			return true
		}
	}
	return false
}

// ImportChain finds the shortest import path from one module to another,
// preferring dependencies in the order they were first imported.
func (g *Graph) ImportChain(from, to string) ([]string, bool) {
	if _, ok := g.Modules[from]; !ok {
		return nil, false
	}
	if _, ok := g.Modules[to]; !ok {
		return nil, false
	}
	if from == to {
		return []string{from}, true
	}

	queue := []string{from}
	visited := map[string]bool{from: true}
	prev := make(map[string]string)

	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]

		for _, next := range g.imports[curr] {
			if visited[next] {
				continue
			}
			visited[next] = true
			prev[next] = curr

			if next == to {
				path := []string{to}
				for node := to; node != from; {
					node = prev[node]
					path = append(path, node)
				}
				for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
					path[i], path[j] = path[j], path[i]
				}
				return path, true
			}
			queue = append(queue, next)
		}
	}
	return nil, false
}
