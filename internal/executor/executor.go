// Package executor tracks the execution of a plan on the shop floor and
// re-plans the remaining work when reality drifts from it.
package executor

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-hclog"

	"jobShop/internal/jobshop"
	"jobShop/internal/opt"
	"jobShop/internal/scaffold"
)

// ErrTransition reports a status change that is not allowed from the task's
// current status.
var ErrTransition = errors.New("invalid status transition")

type Status int

const (
	Waiting Status = iota
	Ready
	InProgress
	Completed
	Failed
)

func (s Status) String() string {
	switch s {
	case Waiting:
		return "WAITING"
	case Ready:
		return "READY"
	case InProgress:
		return "IN_PROGRESS"
	case Completed:
		return "COMPLETED"
	case Failed:
		return "FAILED"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Executor is not safe for concurrent use.
type Executor struct {
	solver opt.Optimizer
	inst   *jobshop.Instance
	logger hclog.Logger

	plan   *jobshop.Schedule
	status []Status
	// actual start times of started tasks
	started []int
}

// New plans inst with solver and marks the first task of every job ready.
func New(ctx context.Context, solver opt.Optimizer, inst *jobshop.Instance, logger hclog.Logger) (*Executor, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	res, err := solver.Solve(ctx, inst)
	if err != nil {
		return nil, err
	}
	e := &Executor{
		solver:  solver,
		inst:    inst,
		logger:  logger.Named("executor"),
		plan:    res.Schedule,
		status:  make([]Status, inst.NumTasks()),
		started: make([]int, inst.NumTasks()),
	}
	e.refresh()
	return e, nil
}

// Plan returns the current plan. It is replaced, not mutated, by Replan.
func (e *Executor) Plan() *jobshop.Schedule { return e.plan }

func (e *Executor) Status(task int) Status { return e.status[task] }

// Done reports whether every task has completed.
func (e *Executor) Done() bool {
	for _, s := range e.status {
		if s != Completed {
			return false
		}
	}
	return true
}

// refresh promotes waiting tasks whose predecessor has completed.
func (e *Executor) refresh() {
	for t := range e.status {
		if e.status[t] != Waiting {
			continue
		}
		p, ok := e.inst.Predecessor(t)
		if !ok || e.status[p] == Completed {
			e.status[t] = Ready
		}
	}
}

// NextReady returns, per machine in index order, the first planned task that
// is ready. A machine with a task in progress offers nothing.
func (e *Executor) NextReady() []jobshop.Assignment {
	var out []jobshop.Assignment
	for m := range e.inst.NumMachines() {
		for a := range e.plan.Bookings(m) {
			st := e.status[a.Task]
			if st == InProgress {
				break
			}
			if st == Ready {
				out = append(out, a)
				break
			}
		}
	}
	return out
}

func (e *Executor) transition(task int, from []Status, to Status) error {
	if task < 0 || task >= len(e.status) {
		return fmt.Errorf("%w: index %d", jobshop.ErrUnknownTask, task)
	}
	cur := e.status[task]
	for _, f := range from {
		if cur == f {
			e.status[task] = to
			e.logger.Trace("status", "task", e.inst.Task(task).ID(), "from", cur, "to", to)
			return nil
		}
	}
	return fmt.Errorf("%w: task %q is %s, cannot become %s", ErrTransition, e.inst.Task(task).ID(), cur, to)
}

// Start marks a ready task as running since at.
func (e *Executor) Start(task, at int) error {
	if at < 0 {
		return fmt.Errorf("%w: negative start time %d", ErrTransition, at)
	}
	if err := e.transition(task, []Status{Ready}, InProgress); err != nil {
		return err
	}
	e.started[task] = at
	return nil
}

// Complete marks a running task as done and readies its successor.
func (e *Executor) Complete(task int) error {
	if err := e.transition(task, []Status{InProgress}, Completed); err != nil {
		return err
	}
	e.refresh()
	return nil
}

// Fail marks a ready or running task as failed. It is retried after the
// next Replan.
func (e *Executor) Fail(task int) error {
	return e.transition(task, []Status{Ready, InProgress}, Failed)
}

// Replan locks started work at its actual times on its planned machine and
// re-solves everything else from now on.
func (e *Executor) Replan(ctx context.Context, now int) error {
	var locked []jobshop.Assignment
	for t, st := range e.status {
		switch st {
		case InProgress, Completed:
			a, ok := e.plan.Lookup(t)
			if !ok {
				return fmt.Errorf("%w: started task %q is not planned", scaffold.ErrInternal, e.inst.Task(t).ID())
			}
			start := e.started[t]
			locked = append(locked, jobshop.Assignment{
				Task:    t,
				Machine: a.Machine,
				Start:   start,
				End:     start + e.inst.Task(t).Duration(),
			})
		case Failed:
			e.status[t] = Waiting
		}
	}

	sc, err := scaffold.New(e.inst, scaffold.WithStartTime(now), scaffold.WithLocked(locked...))
	if err != nil {
		return err
	}
	res, err := e.solver.SolveWith(ctx, sc)
	if err != nil {
		return err
	}
	e.plan = res.Schedule
	e.refresh()
	e.logger.Debug("replanned", "now", now, "locked", len(sc.LockedAssignments()), "pending", sc.Pending(), "makespan", res.Makespan)
	return nil
}
