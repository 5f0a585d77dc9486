package jobshop

import "fmt"

// orderTasks returns the job's tasks in an order compatible with their
// declared dependencies. Among ready tasks the earliest declared wins, so a
// job without dependencies keeps its declaration order.
func orderTasks(job string, tasks []TaskSpec) ([]TaskSpec, error) {
	pos := make(map[string]int, len(tasks))
	for i, t := range tasks {
		if _, dup := pos[t.ID]; dup {
			return nil, fmt.Errorf("%w: task %q appears twice in job %q", ErrDuplicateID, t.ID, job)
		}
		pos[t.ID] = i
	}

	indeg := make([]int, len(tasks))
	next := make([][]int, len(tasks))
	for i, t := range tasks {
		for _, dep := range t.Dependencies {
			d, ok := pos[dep]
			if !ok {
				return nil, fmt.Errorf("%w: task %q depends on %q which is not part of job %q",
					ErrDependency, t.ID, dep, job)
			}
			if d == i {
				return nil, fmt.Errorf("%w: task %q depends on itself", ErrDependency, t.ID)
			}
			indeg[i]++
			next[d] = append(next[d], i)
		}
	}

	out := make([]TaskSpec, 0, len(tasks))
	done := make([]bool, len(tasks))
	for len(out) < len(tasks) {
		pick := -1
		for i := range tasks {
			if !done[i] && indeg[i] == 0 {
				pick = i
				break
			}
		}
		if pick < 0 {
			return nil, fmt.Errorf("%w: job %q has a dependency cycle", ErrDependency, job)
		}
		done[pick] = true
		out = append(out, tasks[pick])
		for _, n := range next[pick] {
			indeg[n]--
		}
	}
	return out, nil
}

// ValidateSequence checks that seq lists every task exactly once and that
// tasks of the same job appear in precedence order.
func ValidateSequence(inst *Instance, seq []int) error {
	n := inst.NumTasks()
	if len(seq) != n {
		return fmt.Errorf("sequence length must be %d (got %d)", n, len(seq))
	}
	seen := make([]bool, n)
	nextPos := make([]int, inst.NumJobs())
	for i, v := range seq {
		if v < 0 || v >= n {
			return fmt.Errorf("seq[%d]=%d out of range [0,%d)", i, v, n)
		}
		if seen[v] {
			return fmt.Errorf("duplicate task %d in sequence", v)
		}
		seen[v] = true
		t := inst.tasks[v]
		if t.position != nextPos[t.job] {
			return fmt.Errorf("seq[%d]: task %q placed before its predecessor", i, t.id)
		}
		nextPos[t.job]++
	}
	return nil
}
