package jobshop

import (
	"errors"
	"fmt"
	"slices"

	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/go-set/v3"
)

// MachineSpec, TaskSpec and JobSpec are the plain records a loader or
// generator hands over to NewInstance.
type MachineSpec struct {
	ID           string
	Name         string
	Capabilities []string
}

type TaskSpec struct {
	ID       string
	Name     string
	Duration int
	Requires []string
	// Priority: lower value is more urgent, 0 means default (1).
	Priority int
	// Dependencies lists ids of tasks of the same job that must precede this one.
	Dependencies []string
}

type JobSpec struct {
	ID       string
	Name     string
	Tasks    []TaskSpec
	Priority int
	DueDate  *int
	Release  int
}

// TravelTimes maps source machine id -> destination machine id -> time.
type TravelTimes map[string]map[string]int

// UniformTravel builds a total table with the same time between every pair
// of distinct machines.
func UniformTravel(ids []string, t int) TravelTimes {
	tt := make(TravelTimes, len(ids))
	for _, from := range ids {
		row := make(map[string]int, len(ids)-1)
		for _, to := range ids {
			if to != from {
				row[to] = t
			}
		}
		tt[from] = row
	}
	return tt
}

type Machine struct {
	index int
	id    string
	name  string
	caps  *set.Set[string]
}

func (m *Machine) Index() int   { return m.index }
func (m *Machine) ID() string   { return m.id }
func (m *Machine) Name() string { return m.name }

// Capabilities returns the offered tags in sorted order.
func (m *Machine) Capabilities() []string {
	out := m.caps.Slice()
	slices.Sort(out)
	return out
}

// Offers reports whether every required tag is offered by the machine.
func (m *Machine) Offers(required *set.Set[string]) bool {
	return m.caps.Subset(required)
}

type Task struct {
	index    int
	id       string
	name     string
	job      int
	position int
	duration int
	requires *set.Set[string]
	priority int
}

func (t *Task) Index() int    { return t.index }
func (t *Task) ID() string    { return t.id }
func (t *Task) Name() string  { return t.name }
func (t *Task) Job() int      { return t.job }
func (t *Task) Position() int { return t.position }
func (t *Task) Duration() int { return t.duration }
func (t *Task) Priority() int { return t.priority }

// Requires returns the required tags in sorted order.
func (t *Task) Requires() []string {
	out := t.requires.Slice()
	slices.Sort(out)
	return out
}

type Job struct {
	index    int
	id       string
	name     string
	tasks    []int
	priority int
	dueDate  int
	hasDue   bool
	release  int
}

func (j *Job) Index() int    { return j.index }
func (j *Job) ID() string    { return j.id }
func (j *Job) Name() string  { return j.name }
func (j *Job) Priority() int { return j.priority }
func (j *Job) Release() int  { return j.release }
func (j *Job) NumTasks() int { return len(j.tasks) }

// Tasks returns global task indices in precedence order.
func (j *Job) Tasks() []int { return slices.Clone(j.tasks) }

func (j *Job) DueDate() (int, bool) { return j.dueDate, j.hasDue }

// Instance is the read-only problem description. Task indices are dense and
// follow job order, so within a job a larger index always means a later task.
type Instance struct {
	jobs     []*Job
	machines []*Machine
	tasks    []*Task
	travel   [][]int
	suitable [][]int

	jobByID     map[string]int
	machineByID map[string]int
	taskByID    map[string]int
}

func NewInstance(jobs []JobSpec, machines []MachineSpec, travel TravelTimes) (*Instance, error) {
	var mErr *multierror.Error
	inst := &Instance{
		jobByID:     make(map[string]int, len(jobs)),
		machineByID: make(map[string]int, len(machines)),
		taskByID:    make(map[string]int),
	}

	if len(machines) == 0 {
		mErr = multierror.Append(mErr, errors.New("instance has no machines"))
	}
	if len(jobs) == 0 {
		mErr = multierror.Append(mErr, errors.New("instance has no jobs"))
	}

	for _, ms := range machines {
		if ms.ID == "" {
			mErr = multierror.Append(mErr, errors.New("machine id must not be empty"))
			continue
		}
		if _, ok := inst.machineByID[ms.ID]; ok {
			mErr = multierror.Append(mErr, fmt.Errorf("%w: machine %q", ErrDuplicateID, ms.ID))
			continue
		}
		m := &Machine{
			index: len(inst.machines),
			id:    ms.ID,
			name:  ms.Name,
			caps:  set.From(ms.Capabilities),
		}
		inst.machineByID[ms.ID] = m.index
		inst.machines = append(inst.machines, m)
	}

	if err := inst.buildTravel(travel); err != nil {
		mErr = multierror.Append(mErr, err)
	}

	for _, js := range jobs {
		if err := inst.addJob(js); err != nil {
			mErr = multierror.Append(mErr, err)
		}
	}

	inst.suitable = make([][]int, len(inst.tasks))
	for _, t := range inst.tasks {
		for _, m := range inst.machines {
			if m.Offers(t.requires) {
				inst.suitable[t.index] = append(inst.suitable[t.index], m.index)
			}
		}
		if len(inst.suitable[t.index]) == 0 {
			mErr = multierror.Append(mErr, fmt.Errorf("%w: task %q requires %v",
				ErrUnschedulableTask, t.id, t.Requires()))
		}
	}

	if err := mErr.ErrorOrNil(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInstance, err)
	}
	return inst, nil
}

func (inst *Instance) buildTravel(travel TravelTimes) error {
	var mErr *multierror.Error
	n := len(inst.machines)
	inst.travel = make([][]int, n)
	for i := range inst.travel {
		inst.travel[i] = make([]int, n)
	}

	for from, row := range travel {
		if _, ok := inst.machineByID[from]; !ok {
			mErr = multierror.Append(mErr, fmt.Errorf("%w: unknown source machine %q", ErrTravelTable, from))
			continue
		}
		for to := range row {
			if _, ok := inst.machineByID[to]; !ok {
				mErr = multierror.Append(mErr, fmt.Errorf("%w: unknown destination machine %q", ErrTravelTable, to))
			}
		}
	}

	for _, a := range inst.machines {
		row := travel[a.id]
		for _, b := range inst.machines {
			v, ok := row[b.id]
			if a.index == b.index {
				if ok && v != 0 {
					mErr = multierror.Append(mErr, fmt.Errorf("%w: travel %s->%s must be 0 (got %d)",
						ErrTravelTable, a.id, b.id, v))
				}
				continue
			}
			if !ok {
				mErr = multierror.Append(mErr, fmt.Errorf("%w: missing travel %s->%s", ErrTravelTable, a.id, b.id))
				continue
			}
			if v < 0 {
				mErr = multierror.Append(mErr, fmt.Errorf("%w: travel %s->%s must be >= 0 (got %d)",
					ErrTravelTable, a.id, b.id, v))
				continue
			}
			inst.travel[a.index][b.index] = v
		}
	}
	return mErr.ErrorOrNil()
}

func (inst *Instance) addJob(js JobSpec) error {
	var mErr *multierror.Error
	if js.ID == "" {
		return errors.New("job id must not be empty")
	}
	if _, ok := inst.jobByID[js.ID]; ok {
		return fmt.Errorf("%w: job %q", ErrDuplicateID, js.ID)
	}
	if len(js.Tasks) == 0 {
		mErr = multierror.Append(mErr, fmt.Errorf("job %q has no tasks", js.ID))
	}
	if js.Priority < 0 {
		mErr = multierror.Append(mErr, fmt.Errorf("job %q: priority must be >= 0 (got %d)", js.ID, js.Priority))
	}
	if js.Release < 0 {
		mErr = multierror.Append(mErr, fmt.Errorf("job %q: release must be >= 0 (got %d)", js.ID, js.Release))
	}
	if js.DueDate != nil && *js.DueDate < 0 {
		mErr = multierror.Append(mErr, fmt.Errorf("job %q: due date must be >= 0 (got %d)", js.ID, *js.DueDate))
	}

	for _, ts := range js.Tasks {
		switch {
		case ts.ID == "":
			mErr = multierror.Append(mErr, fmt.Errorf("job %q: task id must not be empty", js.ID))
		case ts.Duration < 0:
			mErr = multierror.Append(mErr, fmt.Errorf("task %q: duration must be >= 0 (got %d)", ts.ID, ts.Duration))
		case ts.Priority < 0:
			mErr = multierror.Append(mErr, fmt.Errorf("task %q: priority must be >= 0 (got %d)", ts.ID, ts.Priority))
		}
		if _, ok := inst.taskByID[ts.ID]; ok {
			mErr = multierror.Append(mErr, fmt.Errorf("%w: task %q", ErrDuplicateID, ts.ID))
		}
	}

	ordered, err := orderTasks(js.ID, js.Tasks)
	if err != nil {
		mErr = multierror.Append(mErr, err)
	}
	if err := mErr.ErrorOrNil(); err != nil {
		return err
	}

	j := &Job{
		index:    len(inst.jobs),
		id:       js.ID,
		name:     js.Name,
		priority: defaultPriority(js.Priority),
		release:  js.Release,
	}
	if js.DueDate != nil {
		j.dueDate, j.hasDue = *js.DueDate, true
	}
	for pos, ts := range ordered {
		t := &Task{
			index:    len(inst.tasks),
			id:       ts.ID,
			name:     ts.Name,
			job:      j.index,
			position: pos,
			duration: ts.Duration,
			requires: set.From(ts.Requires),
			priority: defaultPriority(ts.Priority),
		}
		inst.taskByID[t.id] = t.index
		inst.tasks = append(inst.tasks, t)
		j.tasks = append(j.tasks, t.index)
	}
	inst.jobByID[j.id] = j.index
	inst.jobs = append(inst.jobs, j)
	return nil
}

func defaultPriority(p int) int {
	if p == 0 {
		return 1
	}
	return p
}

func (inst *Instance) NumJobs() int     { return len(inst.jobs) }
func (inst *Instance) NumMachines() int { return len(inst.machines) }
func (inst *Instance) NumTasks() int    { return len(inst.tasks) }

func (inst *Instance) Job(i int) *Job         { return inst.jobs[i] }
func (inst *Instance) Machine(i int) *Machine { return inst.machines[i] }
func (inst *Instance) Task(i int) *Task       { return inst.tasks[i] }

func (inst *Instance) Jobs() []*Job         { return slices.Clone(inst.jobs) }
func (inst *Instance) Machines() []*Machine { return slices.Clone(inst.machines) }
func (inst *Instance) Tasks() []*Task       { return slices.Clone(inst.tasks) }

func (inst *Instance) JobByID(id string) (*Job, bool) {
	i, ok := inst.jobByID[id]
	if !ok {
		return nil, false
	}
	return inst.jobs[i], true
}

func (inst *Instance) MachineByID(id string) (*Machine, bool) {
	i, ok := inst.machineByID[id]
	if !ok {
		return nil, false
	}
	return inst.machines[i], true
}

func (inst *Instance) TaskByID(id string) (*Task, bool) {
	i, ok := inst.taskByID[id]
	if !ok {
		return nil, false
	}
	return inst.tasks[i], true
}

// Travel returns the time to move work from machine a to machine b.
func (inst *Instance) Travel(a, b int) int {
	return inst.travel[a][b]
}

// SuitableMachines returns machine indices whose capabilities cover the task.
func (inst *Instance) SuitableMachines(task int) []int {
	return slices.Clone(inst.suitable[task])
}

// Suitable reports whether machine m may process the task.
func (inst *Instance) Suitable(task, m int) bool {
	return slices.Contains(inst.suitable[task], m)
}

// Predecessor returns the task that must finish before task may start.
func (inst *Instance) Predecessor(task int) (int, bool) {
	t := inst.tasks[task]
	if t.position == 0 {
		return 0, false
	}
	return inst.jobs[t.job].tasks[t.position-1], true
}

// TotalWork is the sum of all task durations.
func (inst *Instance) TotalWork() int {
	total := 0
	for _, t := range inst.tasks {
		total += t.duration
	}
	return total
}
