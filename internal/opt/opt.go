package opt

import (
	"context"
	"errors"
	"time"

	metrics "github.com/hashicorp/go-metrics"

	"jobShop/internal/jobshop"
	"jobShop/internal/scaffold"
)

// ErrConfig wraps every rejected solver configuration.
var ErrConfig = errors.New("invalid solver configuration")

type Optimizer interface {
	Solve(ctx context.Context, inst *jobshop.Instance) (Result, error)
	// SolveWith reuses a prepared scaffold, e.g. one carrying locked work.
	SolveWith(ctx context.Context, sc *scaffold.Scaffold) (Result, error)
}

type Result struct {
	Schedule    *jobshop.Schedule
	Makespan    int
	Score       int
	Objective   jobshop.Objective
	Evaluations int
	Iterations  int
	Duration    time.Duration
	// Stopped is set when cancellation or the time budget cut the search short.
	Stopped bool
	Meta    map[string]any
}

// Better orders candidate schedules: lower score first, makespan breaks ties.
func Better(score, makespan, bestScore, bestMakespan int) bool {
	if score != bestScore {
		return score < bestScore
	}
	return makespan < bestMakespan
}

// Deadline derives the search context for a time budget; 0 means none.
func Deadline(ctx context.Context, budget time.Duration) (context.Context, context.CancelFunc) {
	if budget <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, budget)
}

// Finish validates the schedule, fills the derived fields and reports the run.
func Finish(name string, sc *scaffold.Scaffold, res Result, start time.Time) (Result, error) {
	if err := sc.Finalize(res.Schedule); err != nil {
		return Result{}, err
	}
	if res.Objective == "" {
		res.Objective = jobshop.ObjectiveMakespan
	}
	res.Makespan = jobshop.Makespan(res.Schedule)
	res.Score = sc.Score(res.Objective, res.Schedule)
	res.Duration = time.Since(start)
	Observe(name, res)
	return res, nil
}

// Observe emits the run's figures through go-metrics.
func Observe(name string, res Result) {
	key := []string{"jobshop", "solver", name}
	metrics.AddSample(append(key, "duration_ms"), float32(res.Duration.Milliseconds()))
	metrics.IncrCounter(append(key, "evaluations"), float32(res.Evaluations))
	metrics.SetGauge(append(key, "makespan"), float32(res.Makespan))
	metrics.SetGauge(append(key, "score"), float32(res.Score))
	if res.Stopped {
		metrics.IncrCounter(append(key, "stopped"), 1)
	}
}
