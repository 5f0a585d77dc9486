// Package mock provides ready-made instances for tests.
package mock

import (
	"jobShop/internal/jobshop"
)

func must(inst *jobshop.Instance, err error) *jobshop.Instance {
	if err != nil {
		panic(err)
	}
	return inst
}

func intPtr(v int) *int { return &v }

// SerialPair: two single-task jobs (3 and 4) on the only capable machine.
func SerialPair() *jobshop.Instance {
	return must(jobshop.NewInstance(
		[]jobshop.JobSpec{
			{ID: "J1", Tasks: []jobshop.TaskSpec{{ID: "J1-T1", Duration: 3, Requires: []string{"cut"}}}},
			{ID: "J2", Tasks: []jobshop.TaskSpec{{ID: "J2-T1", Duration: 4, Requires: []string{"cut"}}}},
		},
		[]jobshop.MachineSpec{{ID: "M1", Capabilities: []string{"cut"}}},
		nil,
	))
}

// TravelChain: one job cut(5) -> weld(3) on two single-purpose machines
// with travel 2 between them.
func TravelChain() *jobshop.Instance {
	return must(jobshop.NewInstance(
		[]jobshop.JobSpec{{ID: "J1", Tasks: []jobshop.TaskSpec{
			{ID: "J1-T1", Duration: 5, Requires: []string{"cut"}},
			{ID: "J1-T2", Duration: 3, Requires: []string{"weld"}},
		}}},
		[]jobshop.MachineSpec{
			{ID: "M1", Capabilities: []string{"cut"}},
			{ID: "M2", Capabilities: []string{"weld"}},
		},
		jobshop.UniformTravel([]string{"M1", "M2"}, 2),
	))
}

// SharedMachine: tasks of 4 and 6 from two jobs that only M1 can run.
func SharedMachine() *jobshop.Instance {
	return must(jobshop.NewInstance(
		[]jobshop.JobSpec{
			{ID: "J1", Tasks: []jobshop.TaskSpec{{ID: "J1-T1", Duration: 4, Requires: []string{"paint"}}}},
			{ID: "J2", Tasks: []jobshop.TaskSpec{{ID: "J2-T1", Duration: 6, Requires: []string{"paint"}}}},
		},
		[]jobshop.MachineSpec{
			{ID: "M1", Capabilities: []string{"paint", "cut"}},
			{ID: "M2", Capabilities: []string{"cut"}},
		},
		jobshop.UniformTravel([]string{"M1", "M2"}, 1),
	))
}

// Workshop is a small flexible shop: five jobs over four machines with
// overlapping capabilities, asymmetric travel, releases and due dates.
func Workshop() *jobshop.Instance {
	machines := []jobshop.MachineSpec{
		{ID: "lathe-1", Name: "Lathe 1", Capabilities: []string{"turn", "drill"}},
		{ID: "lathe-2", Name: "Lathe 2", Capabilities: []string{"turn"}},
		{ID: "mill", Name: "Mill", Capabilities: []string{"mill", "drill"}},
		{ID: "paint", Name: "Paint booth", Capabilities: []string{"paint"}},
	}
	travel := jobshop.TravelTimes{
		"lathe-1": {"lathe-2": 1, "mill": 2, "paint": 4},
		"lathe-2": {"lathe-1": 1, "mill": 2, "paint": 3},
		"mill":    {"lathe-1": 2, "lathe-2": 3, "paint": 2},
		"paint":   {"lathe-1": 4, "lathe-2": 4, "mill": 2},
	}
	jobs := []jobshop.JobSpec{
		{ID: "shaft", DueDate: intPtr(20), Tasks: []jobshop.TaskSpec{
			{ID: "shaft-turn", Duration: 6, Requires: []string{"turn"}},
			{ID: "shaft-drill", Duration: 2, Requires: []string{"drill"}},
			{ID: "shaft-paint", Duration: 3, Requires: []string{"paint"}},
		}},
		{ID: "gear", Priority: 1, DueDate: intPtr(18), Tasks: []jobshop.TaskSpec{
			{ID: "gear-mill", Duration: 7, Requires: []string{"mill"}},
			{ID: "gear-drill", Duration: 3, Requires: []string{"drill"}},
		}},
		{ID: "flange", Release: 2, Tasks: []jobshop.TaskSpec{
			{ID: "flange-turn", Duration: 4, Requires: []string{"turn"}},
			{ID: "flange-mill", Duration: 3, Requires: []string{"mill"}},
			{ID: "flange-paint", Duration: 2, Requires: []string{"paint"}},
		}},
		{ID: "bolt", Priority: 2, Tasks: []jobshop.TaskSpec{
			{ID: "bolt-turn", Duration: 2, Requires: []string{"turn"}},
			{ID: "bolt-check", Duration: 0},
		}},
		{ID: "cover", DueDate: intPtr(25), Tasks: []jobshop.TaskSpec{
			{ID: "cover-paint", Duration: 4, Requires: []string{"paint"}, Dependencies: []string{"cover-drill"}},
			{ID: "cover-drill", Duration: 3, Requires: []string{"drill"}},
		}},
	}
	return must(jobshop.NewInstance(jobs, machines, travel))
}

// Instances lists every fixture by name.
func Instances() map[string]*jobshop.Instance {
	return map[string]*jobshop.Instance{
		"serial-pair":    SerialPair(),
		"travel-chain":   TravelChain(),
		"shared-machine": SharedMachine(),
		"workshop":       Workshop(),
	}
}
