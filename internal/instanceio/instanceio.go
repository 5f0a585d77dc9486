// Package instanceio reads and writes instances and schedules as YAML
// documents.
package instanceio

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"jobShop/internal/jobshop"
)

// ErrFormat reports a document that cannot be decoded.
var ErrFormat = errors.New("malformed document")

type machineDoc struct {
	ID           string   `yaml:"id"`
	Name         string   `yaml:"name,omitempty"`
	Capabilities []string `yaml:"capabilities,flow"`
}

type taskDoc struct {
	ID           string   `yaml:"id"`
	Name         string   `yaml:"name,omitempty"`
	Duration     int      `yaml:"duration"`
	Requires     []string `yaml:"requires,flow"`
	Priority     int      `yaml:"priority,omitempty"`
	Dependencies []string `yaml:"dependencies,omitempty,flow"`
}

type jobDoc struct {
	ID       string    `yaml:"id"`
	Name     string    `yaml:"name,omitempty"`
	Priority int       `yaml:"priority,omitempty"`
	Release  int       `yaml:"release,omitempty"`
	DueDate  *int      `yaml:"due_date,omitempty"`
	Tasks    []taskDoc `yaml:"tasks"`
}

// InstanceDoc is the on-disk instance layout.
type InstanceDoc struct {
	Machines []machineDoc `yaml:"machines"`
	Jobs     []jobDoc     `yaml:"jobs"`
	// Travel maps from -> to -> time for every ordered pair of distinct machines.
	Travel jobshop.TravelTimes `yaml:"travel,omitempty"`
}

type assignmentDoc struct {
	Task    string `yaml:"task"`
	Machine string `yaml:"machine"`
	Start   int    `yaml:"start"`
	End     int    `yaml:"end,omitempty"`
}

// ScheduleDoc is the on-disk schedule layout. End times are informative;
// they are recomputed from durations on load.
type ScheduleDoc struct {
	Makespan    int             `yaml:"makespan,omitempty"`
	Assignments []assignmentDoc `yaml:"assignments"`
}

func decode(r io.Reader, out any) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty document", ErrFormat)
		}
		return fmt.Errorf("%w: %w", ErrFormat, err)
	}
	return nil
}

func encode(w io.Writer, in any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(in); err != nil {
		return err
	}
	return enc.Close()
}

// Specs converts the document into the records NewInstance accepts.
func (d InstanceDoc) Specs() ([]jobshop.JobSpec, []jobshop.MachineSpec) {
	machines := make([]jobshop.MachineSpec, len(d.Machines))
	for i, m := range d.Machines {
		machines[i] = jobshop.MachineSpec{ID: m.ID, Name: m.Name, Capabilities: m.Capabilities}
	}
	jobs := make([]jobshop.JobSpec, len(d.Jobs))
	for i, j := range d.Jobs {
		tasks := make([]jobshop.TaskSpec, len(j.Tasks))
		for k, t := range j.Tasks {
			tasks[k] = jobshop.TaskSpec{
				ID:           t.ID,
				Name:         t.Name,
				Duration:     t.Duration,
				Requires:     t.Requires,
				Priority:     t.Priority,
				Dependencies: t.Dependencies,
			}
		}
		jobs[i] = jobshop.JobSpec{
			ID:       j.ID,
			Name:     j.Name,
			Tasks:    tasks,
			Priority: j.Priority,
			DueDate:  j.DueDate,
			Release:  j.Release,
		}
	}
	return jobs, machines
}

// LoadInstance decodes and builds an instance. Decoding problems wrap
// ErrFormat; model problems wrap jobshop.ErrInstance.
func LoadInstance(r io.Reader) (*jobshop.Instance, error) {
	var doc InstanceDoc
	if err := decode(r, &doc); err != nil {
		return nil, err
	}
	jobs, machines := doc.Specs()
	return jobshop.NewInstance(jobs, machines, doc.Travel)
}

// NewInstanceDoc renders inst. Tasks are written in precedence order, which
// makes explicit dependencies redundant.
func NewInstanceDoc(inst *jobshop.Instance) InstanceDoc {
	var doc InstanceDoc
	for _, m := range inst.Machines() {
		doc.Machines = append(doc.Machines, machineDoc{ID: m.ID(), Name: m.Name(), Capabilities: m.Capabilities()})
	}
	for _, j := range inst.Jobs() {
		jd := jobDoc{ID: j.ID(), Name: j.Name(), Priority: j.Priority(), Release: j.Release()}
		if due, ok := j.DueDate(); ok {
			jd.DueDate = &due
		}
		for _, t := range j.Tasks() {
			task := inst.Task(t)
			jd.Tasks = append(jd.Tasks, taskDoc{
				ID:       task.ID(),
				Name:     task.Name(),
				Duration: task.Duration(),
				Requires: task.Requires(),
				Priority: task.Priority(),
			})
		}
		doc.Jobs = append(doc.Jobs, jd)
	}
	n := inst.NumMachines()
	if n < 2 {
		return doc
	}
	doc.Travel = make(jobshop.TravelTimes, n)
	for a := range n {
		row := make(map[string]int, n-1)
		for b := range n {
			if a != b {
				row[inst.Machine(b).ID()] = inst.Travel(a, b)
			}
		}
		doc.Travel[inst.Machine(a).ID()] = row
	}
	return doc
}

func SaveInstance(w io.Writer, inst *jobshop.Instance) error {
	return encode(w, NewInstanceDoc(inst))
}

// LoadSchedule decodes a schedule for inst. Unknown ids wrap ErrFormat
// together with the jobshop lookup error.
func LoadSchedule(r io.Reader, inst *jobshop.Instance) (*jobshop.Schedule, error) {
	var doc ScheduleDoc
	if err := decode(r, &doc); err != nil {
		return nil, err
	}
	s := jobshop.NewSchedule(inst)
	for i, a := range doc.Assignments {
		if t, ok := inst.TaskByID(a.Task); ok && s.Assigned(t.Index()) {
			return nil, fmt.Errorf("%w: assignment %d: task %q assigned twice", ErrFormat, i, a.Task)
		}
		if _, err := s.AssignByID(a.Task, a.Machine, a.Start); err != nil {
			return nil, fmt.Errorf("%w: assignment %d: %w", ErrFormat, i, err)
		}
	}
	return s, nil
}

// NewScheduleDoc renders s ordered by machine and start time.
func NewScheduleDoc(s *jobshop.Schedule) ScheduleDoc {
	doc := ScheduleDoc{Makespan: jobshop.Makespan(s)}
	for _, e := range s.Entries() {
		doc.Assignments = append(doc.Assignments, assignmentDoc{
			Task:    e.TaskID,
			Machine: e.MachineID,
			Start:   e.Start,
			End:     e.End,
		})
	}
	return doc
}

func SaveSchedule(w io.Writer, s *jobshop.Schedule) error {
	return encode(w, NewScheduleDoc(s))
}
