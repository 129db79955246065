package graph

import (
	"os"
	"time"
)

// Plan walks the jobs in dependency order and decides which must actually
// run. A job needs a build if any declared output is absent, if any output
// is strictly older than any input, or if any of its dependency jobs needs
// a build. The last clause is unconditional: an upstream rebuild forces
// every downstream job regardless of its own timestamps, which is why the
// walk must be bottom-up. Jobs that do not need a build are marked
// Satisfied. The ordered list returned by Order is the expected input.
func Plan(ordered []*Job) []*Job {
	rebuild := make(map[*Job]bool, len(ordered))
	var pending []*Job

	for _, job := range ordered {
		if needsBuild(job, rebuild) {
			rebuild[job] = true
			pending = append(pending, job)
			continue
		}
		job.SetState(Satisfied)
	}
	return pending
}

func needsBuild(job *Job, rebuild map[*Job]bool) bool {
	for _, dep := range job.Deps {
		if rebuild[dep] {
			return true
		}
	}

	var oldestOut time.Time
	for i, out := range job.Task.Outputs {
		info, err := os.Stat(out)
		if err != nil {
			return true
		}
		if i == 0 || info.ModTime().Before(oldestOut) {
			oldestOut = info.ModTime()
		}
	}

	for _, in := range job.Task.Inputs {
		info, err := os.Stat(in)
		if err != nil {
			// An absent input means its producer will run, which the
			// dependency check above already caught for job inputs; a
			// vanished leaf input forces a rebuild attempt.
			return true
		}
		if oldestOut.Before(info.ModTime()) {
			return true
		}
	}
	return false
}
