package jobshop

import (
	"fmt"
	"strings"
)

type ViolationKind int

const (
	UnassignedTask ViolationKind = iota + 1
	IncapableMachine
	MachineOverlap
	PrecedenceViolation
	NegativeTime
)

func (k ViolationKind) String() string {
	switch k {
	case UnassignedTask:
		return "UnassignedTask"
	case IncapableMachine:
		return "IncapableMachine"
	case MachineOverlap:
		return "MachineOverlap"
	case PrecedenceViolation:
		return "PrecedenceViolation"
	case NegativeTime:
		return "NegativeTime"
	default:
		return fmt.Sprintf("ViolationKind(%d)", int(k))
	}
}

// Violation is one feasibility defect. Other is set for pairwise findings:
// the second overlapping task, or the predecessor for precedence.
type Violation struct {
	Kind    ViolationKind
	Task    string
	Other   string
	Machine string
	Detail  string
}

func (v Violation) String() string {
	var b strings.Builder
	b.WriteString(v.Kind.String())
	b.WriteString(": task ")
	b.WriteString(v.Task)
	if v.Other != "" {
		b.WriteString(" / ")
		b.WriteString(v.Other)
	}
	if v.Machine != "" {
		b.WriteString(" on ")
		b.WriteString(v.Machine)
	}
	if v.Detail != "" {
		b.WriteString(" (")
		b.WriteString(v.Detail)
		b.WriteString(")")
	}
	return b.String()
}

// InfeasibleError carries the violations of a schedule that was expected to
// be feasible.
type InfeasibleError struct {
	Violations []Violation
}

func (e *InfeasibleError) Error() string {
	if len(e.Violations) == 1 {
		return "infeasible schedule: " + e.Violations[0].String()
	}
	return fmt.Sprintf("infeasible schedule: %d violations, first: %s", len(e.Violations), e.Violations[0])
}

// Validate checks s against the feasibility rules of inst and returns every
// violation found in a deterministic order: per-task findings in task order,
// overlaps per machine, then precedence per job. An empty result means the
// schedule is feasible. Validate does not modify its inputs.
func Validate(inst *Instance, s *Schedule) []Violation {
	if s.inst != inst {
		panic("jobshop: schedule was built against a different instance")
	}
	var out []Violation

	for _, t := range inst.tasks {
		a, ok := s.Lookup(t.index)
		if !ok {
			out = append(out, Violation{Kind: UnassignedTask, Task: t.id})
			continue
		}
		m := inst.machines[a.Machine]
		if a.Start < 0 {
			out = append(out, Violation{
				Kind:    NegativeTime,
				Task:    t.id,
				Machine: m.id,
				Detail:  fmt.Sprintf("start=%d end=%d", a.Start, a.End),
			})
		}
		if !m.Offers(t.requires) {
			out = append(out, Violation{
				Kind:    IncapableMachine,
				Task:    t.id,
				Machine: m.id,
				Detail:  fmt.Sprintf("requires %v, offers %v", t.Requires(), m.Capabilities()),
			})
		}
	}

	for m, booked := range s.machines {
		for i := 0; i < len(booked); i++ {
			a := s.slots[booked[i]]
			for k := i + 1; k < len(booked); k++ {
				b := s.slots[booked[k]]
				if b.Start >= a.End && b.Start != a.Start {
					break
				}
				out = append(out, Violation{
					Kind:    MachineOverlap,
					Task:    inst.tasks[a.Task].id,
					Other:   inst.tasks[b.Task].id,
					Machine: inst.machines[m].id,
					Detail:  fmt.Sprintf("[%d,%d) vs [%d,%d)", a.Start, a.End, b.Start, b.End),
				})
			}
		}
	}

	for _, j := range inst.jobs {
		for i := 1; i < len(j.tasks); i++ {
			prev, ok1 := s.Lookup(j.tasks[i-1])
			cur, ok2 := s.Lookup(j.tasks[i])
			if !ok1 || !ok2 {
				continue
			}
			ready := prev.End + inst.travel[prev.Machine][cur.Machine]
			if cur.Start < ready {
				out = append(out, Violation{
					Kind:    PrecedenceViolation,
					Task:    inst.tasks[cur.Task].id,
					Other:   inst.tasks[prev.Task].id,
					Machine: inst.machines[cur.Machine].id,
					Detail:  fmt.Sprintf("start %d before ready time %d", cur.Start, ready),
				})
			}
		}
	}
	return out
}

func Feasible(inst *Instance, s *Schedule) bool {
	return len(Validate(inst, s)) == 0
}
