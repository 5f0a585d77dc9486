// Package scaffold holds the per-instance precomputation and the insertion
// primitives every solver builds schedules with.
package scaffold

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"

	"jobShop/internal/jobshop"
)

var (
	// ErrInternal means a solver produced a schedule that fails validation.
	ErrInternal = errors.New("internal solver error")
	// ErrInsertion is returned for placements that break the construction
	// protocol: unsuitable machine, unplaced predecessor, double placement.
	ErrInsertion = errors.New("invalid insertion")
	ErrLocked    = errors.New("invalid locked assignment")
)

type options struct {
	startAt int
	locked  []jobshop.Assignment
}

type Option func(*options)

// WithStartTime forbids unlocked tasks from starting before t.
func WithStartTime(t int) Option {
	return func(o *options) { o.startAt = t }
}

// WithLocked fixes placements that every produced schedule must keep, for
// example work that has already started.
func WithLocked(as ...jobshop.Assignment) Option {
	return func(o *options) { o.locked = append(o.locked, as...) }
}

// Scaffold is immutable after New and safe for concurrent use; schedules
// passed to its methods are owned by the caller.
type Scaffold struct {
	inst *jobshop.Instance
	eval *jobshop.Evaluator

	startAt  int
	locked   []jobshop.Assignment
	isLocked []bool
	pending  int

	suitable [][]int
	jobTasks [][]int
	duration []int
	pred     []int
	release  []int
}

func New(inst *jobshop.Instance, opts ...Option) (*Scaffold, error) {
	if inst == nil {
		return nil, errors.New("instance is nil")
	}
	var o options
	for _, fn := range opts {
		fn(&o)
	}
	if o.startAt < 0 {
		return nil, fmt.Errorf("start time must be >= 0 (got %d)", o.startAt)
	}
	eval, err := jobshop.NewEvaluator(inst)
	if err != nil {
		return nil, err
	}

	n := inst.NumTasks()
	sc := &Scaffold{
		inst:     inst,
		eval:     eval,
		startAt:  o.startAt,
		isLocked: make([]bool, n),
		suitable: make([][]int, n),
		jobTasks: make([][]int, inst.NumJobs()),
		duration: make([]int, n),
		pred:     make([]int, n),
		release:  make([]int, n),
	}
	for _, t := range inst.Tasks() {
		i := t.Index()
		sc.suitable[i] = inst.SuitableMachines(i)
		sc.duration[i] = t.Duration()
		sc.release[i] = inst.Job(t.Job()).Release()
		sc.pred[i] = -1
		if p, ok := inst.Predecessor(i); ok {
			sc.pred[i] = p
		}
	}
	for _, j := range inst.Jobs() {
		sc.jobTasks[j.Index()] = j.Tasks()
	}

	if err := sc.lock(o.locked); err != nil {
		return nil, err
	}
	sc.pending = n - len(sc.locked)
	return sc, nil
}

// lock checks that locked placements are suitable, cover a prefix of each
// job and are feasible among themselves.
func (sc *Scaffold) lock(as []jobshop.Assignment) error {
	var mErr *multierror.Error
	s := jobshop.NewSchedule(sc.inst)
	for _, a := range as {
		if a.Task < 0 || a.Task >= len(sc.isLocked) {
			mErr = multierror.Append(mErr, fmt.Errorf("%w: %w: index %d", ErrLocked, jobshop.ErrUnknownTask, a.Task))
			continue
		}
		id := sc.inst.Task(a.Task).ID()
		if sc.isLocked[a.Task] {
			mErr = multierror.Append(mErr, fmt.Errorf("%w: task %q locked twice", ErrLocked, id))
			continue
		}
		if a.Machine < 0 || a.Machine >= sc.inst.NumMachines() || !sc.inst.Suitable(a.Task, a.Machine) {
			mErr = multierror.Append(mErr, fmt.Errorf("%w: task %q cannot run on machine %d", ErrLocked, id, a.Machine))
			continue
		}
		placed, _ := s.Assign(a.Task, a.Machine, a.Start)
		sc.isLocked[a.Task] = true
		sc.locked = append(sc.locked, placed)
	}

	for t, ok := range sc.isLocked {
		if p := sc.pred[t]; ok && p >= 0 && !sc.isLocked[p] {
			mErr = multierror.Append(mErr, fmt.Errorf("%w: task %q is locked but its predecessor %q is not",
				ErrLocked, sc.inst.Task(t).ID(), sc.inst.Task(p).ID()))
		}
	}

	for _, v := range jobshop.Validate(sc.inst, s) {
		if v.Kind == jobshop.UnassignedTask {
			continue
		}
		mErr = multierror.Append(mErr, fmt.Errorf("%w: %s", ErrLocked, v))
	}
	return mErr.ErrorOrNil()
}

func (sc *Scaffold) Instance() *jobshop.Instance { return sc.inst }
func (sc *Scaffold) StartTime() int              { return sc.startAt }

// Pending is the number of tasks a solver still has to place.
func (sc *Scaffold) Pending() int { return sc.pending }

func (sc *Scaffold) Locked(task int) bool { return sc.isLocked[task] }

// LockedAssignments returns the fixed placements in the order they were given.
func (sc *Scaffold) LockedAssignments() []jobshop.Assignment {
	return append([]jobshop.Assignment(nil), sc.locked...)
}

// Suitable returns the machines able to run task in ascending order.
// The slice is shared and must not be modified.
func (sc *Scaffold) Suitable(task int) []int { return sc.suitable[task] }

// JobTasks returns the job's tasks in precedence order. The slice is shared
// and must not be modified.
func (sc *Scaffold) JobTasks(job int) []int { return sc.jobTasks[job] }

func (sc *Scaffold) Duration(task int) int { return sc.duration[task] }
func (sc *Scaffold) Travel(a, b int) int   { return sc.inst.Travel(a, b) }

// Score evaluates s under obj; lower is better.
func (sc *Scaffold) Score(obj jobshop.Objective, s *jobshop.Schedule) int {
	return sc.eval.Score(obj, s)
}

// NewSchedule returns a schedule holding only the locked placements.
func (sc *Scaffold) NewSchedule() *jobshop.Schedule {
	s := jobshop.NewSchedule(sc.inst)
	for _, a := range sc.locked {
		_, _ = s.Assign(a.Task, a.Machine, a.Start)
	}
	return s
}

// Next returns the first unassigned task of job, or false when every task
// of the job is placed.
func (sc *Scaffold) Next(s *jobshop.Schedule, job int) (int, bool) {
	for _, t := range sc.jobTasks[job] {
		if !s.Assigned(t) {
			return t, true
		}
	}
	return 0, false
}

// ReadyTime is the earliest moment task may start on machine m given its
// predecessor in s: max(start time, job release, pred end + travel).
func (sc *Scaffold) ReadyTime(s *jobshop.Schedule, task, m int) (int, error) {
	ready := max(sc.startAt, sc.release[task])
	if p := sc.pred[task]; p >= 0 {
		a, ok := s.Lookup(p)
		if !ok {
			return 0, fmt.Errorf("%w: predecessor of task %q is not placed",
				ErrInsertion, sc.inst.Task(task).ID())
		}
		ready = max(ready, a.End+sc.inst.Travel(a.Machine, m))
	}
	return ready, nil
}

// EarliestStart returns the first start time >= ReadyTime at which task fits
// on m without overlapping a booking or sharing a start time with one.
func (sc *Scaffold) EarliestStart(s *jobshop.Schedule, task, m int) (int, error) {
	t, err := sc.ReadyTime(s, task, m)
	if err != nil {
		return 0, err
	}
	d := sc.duration[task]
	for b := range s.Bookings(m) {
		if t < b.Start && t+d <= b.Start {
			return t, nil
		}
		if b.End > t {
			t = b.End
		}
		if t == b.Start {
			t++
		}
	}
	return t, nil
}

// Insert places task on m at its earliest feasible start.
func (sc *Scaffold) Insert(s *jobshop.Schedule, task, m int) (jobshop.Assignment, error) {
	if s.Assigned(task) {
		return jobshop.Assignment{}, fmt.Errorf("%w: task %q is already placed",
			ErrInsertion, sc.inst.Task(task).ID())
	}
	if !sc.inst.Suitable(task, m) {
		return jobshop.Assignment{}, fmt.Errorf("%w: task %q cannot run on machine %q",
			ErrInsertion, sc.inst.Task(task).ID(), sc.inst.Machine(m).ID())
	}
	start, err := sc.EarliestStart(s, task, m)
	if err != nil {
		return jobshop.Assignment{}, err
	}
	return s.Assign(task, m, start)
}

// BestMachine picks the suitable machine with the earliest completion for
// task. Ties go to the lowest machine index.
func (sc *Scaffold) BestMachine(s *jobshop.Schedule, task int) (m, start int, err error) {
	m, best := -1, 0
	for _, cand := range sc.suitable[task] {
		st, err := sc.EarliestStart(s, task, cand)
		if err != nil {
			return 0, 0, err
		}
		if end := st + sc.duration[task]; m < 0 || end < best {
			m, start, best = cand, st, end
		}
	}
	return m, start, nil
}

// InsertBest places task on its BestMachine.
func (sc *Scaffold) InsertBest(s *jobshop.Schedule, task int) (jobshop.Assignment, error) {
	if s.Assigned(task) {
		return jobshop.Assignment{}, fmt.Errorf("%w: task %q is already placed",
			ErrInsertion, sc.inst.Task(task).ID())
	}
	m, start, err := sc.BestMachine(s, task)
	if err != nil {
		return jobshop.Assignment{}, err
	}
	return s.Assign(task, m, start)
}

// Decode builds a schedule by inserting the tasks of seq in order. mach
// holds a machine per task index; a nil vector, a negative entry or an
// unsuitable machine falls back to BestMachine. Locked tasks in seq are
// skipped. seq must list predecessors first.
func (sc *Scaffold) Decode(seq, mach []int) (*jobshop.Schedule, error) {
	s := sc.NewSchedule()
	for _, t := range seq {
		if t < 0 || t >= len(sc.duration) {
			return nil, fmt.Errorf("%w: %w: index %d", ErrInsertion, jobshop.ErrUnknownTask, t)
		}
		if sc.isLocked[t] {
			continue
		}
		var err error
		if m := machineFor(mach, t); m >= 0 && sc.inst.Suitable(t, m) {
			_, err = sc.Insert(s, t, m)
		} else {
			_, err = sc.InsertBest(s, t)
		}
		if err != nil {
			return nil, err
		}
	}
	if !s.Complete() {
		return nil, fmt.Errorf("%w: sequence placed %d of %d tasks", ErrInsertion, s.Len(), len(sc.duration))
	}
	return s, nil
}

func machineFor(mach []int, t int) int {
	if t < len(mach) {
		return mach[t]
	}
	return -1
}

// Finalize validates a solver's output. Any violation is a solver defect.
func (sc *Scaffold) Finalize(s *jobshop.Schedule) error {
	if s == nil || s.Instance() != sc.inst {
		return fmt.Errorf("%w: schedule does not belong to the instance", ErrInternal)
	}
	if vs := jobshop.Validate(sc.inst, s); len(vs) > 0 {
		return fmt.Errorf("%w: %w", ErrInternal, &jobshop.InfeasibleError{Violations: vs})
	}
	for _, a := range sc.locked {
		if got, _ := s.Lookup(a.Task); got != a {
			return fmt.Errorf("%w: locked task %q was moved", ErrInternal, sc.inst.Task(a.Task).ID())
		}
	}
	return nil
}
