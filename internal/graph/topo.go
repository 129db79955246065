package graph

import "sort"

// Order returns the jobs in dependency-respecting order: every job appears
// after all of its dependencies. Ties are broken by job ID so that two runs
// over the same graph produce identical execution logs. The resolver has
// already proven the graph acyclic, so every job is emitted.
func Order(jobs []*Job) []*Job {
	indeg := make(map[*Job]int, len(jobs))
	for _, j := range jobs {
		indeg[j] = len(j.Deps)
	}

	ready := make([]*Job, 0, len(jobs))
	for _, j := range jobs {
		if indeg[j] == 0 {
			ready = append(ready, j)
		}
	}

	out := make([]*Job, 0, len(jobs))
	for len(ready) > 0 {
		sort.Slice(ready, func(i, k int) bool { return ready[i].ID() < ready[k].ID() })
		next := ready[0]
		ready = ready[1:]
		out = append(out, next)

		for _, dep := range next.Dependents {
			indeg[dep]--
			if indeg[dep] == 0 {
				ready = append(ready, dep)
			}
		}
	}
	return out
}
