package jobshop

import (
	"errors"
	"fmt"
)

// Objective selects the value solvers minimise.
type Objective string

const (
	ObjectiveMakespan       Objective = "makespan"
	ObjectiveTotalFlowTime  Objective = "total_flow_time"
	ObjectiveTotalTardiness Objective = "total_tardiness"
)

func ParseObjective(s string) (Objective, error) {
	switch o := Objective(s); o {
	case ObjectiveMakespan, ObjectiveTotalFlowTime, ObjectiveTotalTardiness:
		return o, nil
	case "":
		return ObjectiveMakespan, nil
	default:
		return "", fmt.Errorf("unknown objective %q", s)
	}
}

type JobMetrics struct {
	Job        string
	Completion int
	Lateness   int
	Tardiness  int
	FlowTime   int
	// Complete is false when the job's last task is not assigned yet.
	Complete bool
}

type Metrics struct {
	Makespan       int
	Start          int
	TotalFlowTime  int
	TotalTardiness int
	MaxTardiness   int
	TardyJobs      int
	Jobs           []JobMetrics
}

// Makespan is the latest end time over assigned tasks, 0 for an empty
// schedule. Unassigned tasks contribute nothing.
func Makespan(s *Schedule) int {
	ms := 0
	for t, ok := range s.assigned {
		if ok && s.slots[t].End > ms {
			ms = s.slots[t].End
		}
	}
	return ms
}

// StartTime is the earliest start over assigned tasks, 0 for an empty schedule.
func StartTime(s *Schedule) int {
	start, found := 0, false
	for t, ok := range s.assigned {
		if ok && (!found || s.slots[t].Start < start) {
			start, found = s.slots[t].Start, true
		}
	}
	return start
}

type Evaluator struct {
	inst *Instance
}

func NewEvaluator(inst *Instance) (*Evaluator, error) {
	if inst == nil {
		return nil, errors.New("instance is nil")
	}
	return &Evaluator{inst: inst}, nil
}

func (e *Evaluator) JobMetrics(s *Schedule, job int) JobMetrics {
	j := e.inst.jobs[job]
	completion, complete := s.JobCompletion(job)
	m := JobMetrics{
		Job:        j.id,
		Completion: completion,
		FlowTime:   completion - j.release,
		Complete:   complete,
	}
	if j.hasDue {
		m.Lateness = completion - j.dueDate
		m.Tardiness = max(0, m.Lateness)
	}
	return m
}

func (e *Evaluator) Summary(s *Schedule) Metrics {
	out := Metrics{
		Makespan: Makespan(s),
		Start:    StartTime(s),
		Jobs:     make([]JobMetrics, 0, len(e.inst.jobs)),
	}
	for _, j := range e.inst.jobs {
		jm := e.JobMetrics(s, j.index)
		out.Jobs = append(out.Jobs, jm)
		out.TotalFlowTime += jm.FlowTime
		out.TotalTardiness += jm.Tardiness
		out.MaxTardiness = max(out.MaxTardiness, jm.Tardiness)
		if jm.Tardiness > 0 {
			out.TardyJobs++
		}
	}
	return out
}

// Score returns the value of obj for s; lower is better.
func (e *Evaluator) Score(obj Objective, s *Schedule) int {
	switch obj {
	case ObjectiveTotalFlowTime, ObjectiveTotalTardiness:
		total := 0
		for _, j := range e.inst.jobs {
			jm := e.JobMetrics(s, j.index)
			if obj == ObjectiveTotalFlowTime {
				total += jm.FlowTime
			} else {
				total += jm.Tardiness
			}
		}
		return total
	default:
		return Makespan(s)
	}
}
