package jobshop

import (
	"cmp"
	"fmt"
	"iter"
	"slices"
)

// Assignment places one task on a machine. End is always Start + duration.
type Assignment struct {
	Task    int
	Machine int
	Start   int
	End     int
}

// Entry is the read-only view handed to renderers and writers.
type Entry struct {
	TaskID    string
	TaskName  string
	JobID     string
	MachineID string
	Start     int
	End       int
}

// Schedule maps tasks to assignments. It references its Instance, which must
// outlive it. Mutations keep the per-machine booking lists sorted by start
// time; they do not enforce feasibility, see Validate.
type Schedule struct {
	inst     *Instance
	slots    []Assignment
	assigned []bool
	// per machine: task indices ordered by (start, task)
	machines [][]int
	count    int
}

func NewSchedule(inst *Instance) *Schedule {
	return &Schedule{
		inst:     inst,
		slots:    make([]Assignment, inst.NumTasks()),
		assigned: make([]bool, inst.NumTasks()),
		machines: make([][]int, inst.NumMachines()),
	}
}

func (s *Schedule) Instance() *Instance { return s.inst }

// Len returns the number of assigned tasks.
func (s *Schedule) Len() int { return s.count }

// Complete reports whether every task of the instance is assigned.
func (s *Schedule) Complete() bool { return s.count == len(s.slots) }

func (s *Schedule) Assigned(task int) bool {
	return task >= 0 && task < len(s.assigned) && s.assigned[task]
}

func (s *Schedule) Lookup(task int) (Assignment, bool) {
	if !s.Assigned(task) {
		return Assignment{}, false
	}
	return s.slots[task], true
}

// Assign places task on machine m starting at start. An already assigned
// task is moved.
func (s *Schedule) Assign(task, m, start int) (Assignment, error) {
	if task < 0 || task >= len(s.slots) {
		return Assignment{}, fmt.Errorf("%w: index %d", ErrUnknownTask, task)
	}
	if m < 0 || m >= len(s.machines) {
		return Assignment{}, fmt.Errorf("%w: index %d", ErrUnknownMachine, m)
	}
	if s.assigned[task] {
		s.unlink(task)
	} else {
		s.count++
	}
	a := Assignment{
		Task:    task,
		Machine: m,
		Start:   start,
		End:     start + s.inst.tasks[task].duration,
	}
	s.slots[task] = a
	s.assigned[task] = true
	s.link(task)
	return a, nil
}

// Move re-places an assigned task.
func (s *Schedule) Move(task, m, start int) (Assignment, error) {
	if !s.Assigned(task) {
		return Assignment{}, fmt.Errorf("%w: index %d", ErrNotAssigned, task)
	}
	return s.Assign(task, m, start)
}

// Remove drops the task's assignment. It returns false if the task was not
// assigned.
func (s *Schedule) Remove(task int) bool {
	if !s.Assigned(task) {
		return false
	}
	s.unlink(task)
	s.assigned[task] = false
	s.slots[task] = Assignment{}
	s.count--
	return true
}

// AssignByID is Assign addressed by task and machine ids.
func (s *Schedule) AssignByID(taskID, machineID string, start int) (Assignment, error) {
	t, ok := s.inst.TaskByID(taskID)
	if !ok {
		return Assignment{}, fmt.Errorf("%w: %q", ErrUnknownTask, taskID)
	}
	m, ok := s.inst.MachineByID(machineID)
	if !ok {
		return Assignment{}, fmt.Errorf("%w: %q", ErrUnknownMachine, machineID)
	}
	return s.Assign(t.index, m.index, start)
}

func (s *Schedule) bookingKey(a, b int) int {
	return cmp.Or(cmp.Compare(s.slots[a].Start, s.slots[b].Start), cmp.Compare(a, b))
}

func (s *Schedule) link(task int) {
	m := s.slots[task].Machine
	i, _ := slices.BinarySearchFunc(s.machines[m], task, s.bookingKey)
	s.machines[m] = slices.Insert(s.machines[m], i, task)
}

func (s *Schedule) unlink(task int) {
	m := s.slots[task].Machine
	i, found := slices.BinarySearchFunc(s.machines[m], task, s.bookingKey)
	if !found {
		panic(fmt.Sprintf("jobshop: booking list of machine %d lost task %d", m, task))
	}
	s.machines[m] = slices.Delete(s.machines[m], i, i+1)
}

// Bookings iterates the assignments on machine m in start-time order
// without copying. The schedule must not be mutated during iteration.
func (s *Schedule) Bookings(m int) iter.Seq[Assignment] {
	return func(yield func(Assignment) bool) {
		if m < 0 || m >= len(s.machines) {
			return
		}
		for _, t := range s.machines[m] {
			if !yield(s.slots[t]) {
				return
			}
		}
	}
}

// MachineTasks returns the assignments on machine m ordered by start time.
func (s *Schedule) MachineTasks(m int) []Assignment {
	return slices.Collect(s.Bookings(m))
}

// JobCompletion returns the end time of the job's last task. When that task
// is not assigned the latest end among assigned tasks is returned with ok=false.
func (s *Schedule) JobCompletion(job int) (int, bool) {
	j := s.inst.jobs[job]
	last := j.tasks[len(j.tasks)-1]
	if s.assigned[last] {
		return s.slots[last].End, true
	}
	end := 0
	for _, t := range j.tasks {
		if s.assigned[t] && s.slots[t].End > end {
			end = s.slots[t].End
		}
	}
	return end, false
}

// JobStart returns the start time of the job's first task, with the same
// fallback rule as JobCompletion.
func (s *Schedule) JobStart(job int) (int, bool) {
	j := s.inst.jobs[job]
	first := j.tasks[0]
	if s.assigned[first] {
		return s.slots[first].Start, true
	}
	start, found := 0, false
	for _, t := range j.tasks {
		if s.assigned[t] && (!found || s.slots[t].Start < start) {
			start, found = s.slots[t].Start, true
		}
	}
	return start, false
}

// Assignments returns all assignments ordered by task index.
func (s *Schedule) Assignments() []Assignment {
	out := make([]Assignment, 0, s.count)
	for t, ok := range s.assigned {
		if ok {
			out = append(out, s.slots[t])
		}
	}
	return out
}

func (s *Schedule) Clone() *Schedule {
	c := &Schedule{
		inst:     s.inst,
		slots:    slices.Clone(s.slots),
		assigned: slices.Clone(s.assigned),
		machines: make([][]int, len(s.machines)),
		count:    s.count,
	}
	for m, b := range s.machines {
		c.machines[m] = slices.Clone(b)
	}
	return c
}

// Entries enumerates (task, job, machine, start, end) ordered by machine and
// start time.
func (s *Schedule) Entries() []Entry {
	out := make([]Entry, 0, s.count)
	for m, booked := range s.machines {
		mach := s.inst.machines[m]
		for _, t := range booked {
			task := s.inst.tasks[t]
			a := s.slots[t]
			out = append(out, Entry{
				TaskID:    task.id,
				TaskName:  task.name,
				JobID:     s.inst.jobs[task.job].id,
				MachineID: mach.id,
				Start:     a.Start,
				End:       a.End,
			})
		}
	}
	return out
}
