package ga

import "jobShop/internal/opt"

// fitness: значение целевой функции и makespan для разрешения равенств.
type fitness struct {
	score    int
	makespan int
}

func (f fitness) better(o fitness) bool {
	return opt.Better(f.score, f.makespan, o.score, o.makespan)
}

func compareFitness(a, b fitness) int {
	switch {
	case a.better(b):
		return -1
	case b.better(a):
		return 1
	default:
		return 0
	}
}
