package output

import (
	"sort"

	"shaker/internal/engine/treeshake"
	"shaker/internal/shared/util"
)

// displayName shortens a module id to a path relative to base when possible.
func displayName(base, id string) string {
	return util.DisplayPath(base, id)
}

func cycleEdgeSet(cycles [][]string) map[string]map[string]bool {
	edges := make(map[string]map[string]bool)
	for _, cycle := range cycles {
		for i := 0; i < len(cycle); i++ {
			from := cycle[i]
			to := cycle[(i+1)%len(cycle)]
			if edges[from] == nil {
				edges[from] = make(map[string]bool)
			}
			edges[from][to] = true
		}
	}
	return edges
}

func cycleModuleSet(cycles [][]string) map[string]bool {
	out := make(map[string]bool)
	for _, cycle := range cycles {
		for _, id := range cycle {
			out[id] = true
		}
	}
	return out
}

// statementCounts maps module id to included and total statement counts.
func statementCounts(res *treeshake.Result) map[string][2]int {
	out := make(map[string][2]int)
	if res == nil {
		return out
	}
	for _, mr := range res.Order {
		out[mr.Module.ID] = [2]int{len(mr.Statements), len(mr.Module.Statements)}
	}
	return out
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
