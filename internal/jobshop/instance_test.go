package jobshop_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobShop/internal/jobshop"
)

func intPtr(v int) *int { return &v }

// twoMachineInstance: J1 = cut(5) -> weld(3), cut only on M1, weld only on M2,
// travel M1<->M2 = 2.
func twoMachineInstance(t *testing.T) *jobshop.Instance {
	t.Helper()
	inst, err := jobshop.NewInstance(
		[]jobshop.JobSpec{{
			ID: "J1", Name: "job 1",
			Tasks: []jobshop.TaskSpec{
				{ID: "T1", Duration: 5, Requires: []string{"cut"}},
				{ID: "T2", Duration: 3, Requires: []string{"weld"}},
			},
		}},
		[]jobshop.MachineSpec{
			{ID: "M1", Capabilities: []string{"cut"}},
			{ID: "M2", Capabilities: []string{"weld"}},
		},
		jobshop.TravelTimes{"M1": {"M2": 2}, "M2": {"M1": 2}},
	)
	require.NoError(t, err)
	return inst
}

// TestNewInstance_Lookups checks indices, back-references and suitability.
func TestNewInstance_Lookups(t *testing.T) {
	inst := twoMachineInstance(t)

	assert.Equal(t, 1, inst.NumJobs())
	assert.Equal(t, 2, inst.NumMachines())
	assert.Equal(t, 2, inst.NumTasks())

	t2, ok := inst.TaskByID("T2")
	require.True(t, ok)
	assert.Equal(t, 1, t2.Index())
	assert.Equal(t, 1, t2.Position())
	assert.Equal(t, 0, t2.Job())
	assert.Equal(t, []string{"weld"}, t2.Requires())
	assert.Equal(t, 1, t2.Priority())

	assert.Equal(t, []int{0}, inst.SuitableMachines(0))
	assert.Equal(t, []int{1}, inst.SuitableMachines(1))
	assert.True(t, inst.Suitable(1, 1))
	assert.False(t, inst.Suitable(1, 0))

	pred, ok := inst.Predecessor(1)
	assert.True(t, ok)
	assert.Equal(t, 0, pred)
	_, ok = inst.Predecessor(0)
	assert.False(t, ok)

	assert.Equal(t, 2, inst.Travel(0, 1))
	assert.Equal(t, 0, inst.Travel(1, 1))
	assert.Equal(t, 8, inst.TotalWork())
}

// TestNewInstance_UnschedulableTask: a capability nobody offers is an
// instance error before any solver runs.
func TestNewInstance_UnschedulableTask(t *testing.T) {
	_, err := jobshop.NewInstance(
		[]jobshop.JobSpec{{ID: "J1", Tasks: []jobshop.TaskSpec{{ID: "T1", Duration: 1, Requires: []string{"paint"}}}}},
		[]jobshop.MachineSpec{{ID: "M1", Capabilities: []string{"cut"}}},
		nil,
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, jobshop.ErrInstance)
	assert.ErrorIs(t, err, jobshop.ErrUnschedulableTask)
	assert.Contains(t, err.Error(), "T1")
}

// TestNewInstance_TravelTable covers non-total, negative and self entries.
func TestNewInstance_TravelTable(t *testing.T) {
	jobs := []jobshop.JobSpec{{ID: "J1", Tasks: []jobshop.TaskSpec{{ID: "T1", Duration: 1}}}}
	machines := []jobshop.MachineSpec{{ID: "M1"}, {ID: "M2"}}

	cases := map[string]jobshop.TravelTimes{
		"missing pair":   {"M1": {"M2": 1}},
		"negative":       {"M1": {"M2": 1}, "M2": {"M1": -1}},
		"self non-zero":  {"M1": {"M2": 1, "M1": 4}, "M2": {"M1": 1}},
		"unknown source": {"M1": {"M2": 1}, "M2": {"M1": 1}, "M9": {"M1": 1}},
		"unknown target": {"M1": {"M2": 1, "M9": 1}, "M2": {"M1": 1}},
	}
	for name, tt := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := jobshop.NewInstance(jobs, machines, tt)
			assert.ErrorIs(t, err, jobshop.ErrInstance)
			assert.ErrorIs(t, err, jobshop.ErrTravelTable)
		})
	}

	inst, err := jobshop.NewInstance(jobs, machines, jobshop.UniformTravel([]string{"M1", "M2"}, 3))
	require.NoError(t, err)
	assert.Equal(t, 3, inst.Travel(0, 1))
	assert.Equal(t, 3, inst.Travel(1, 0))
}

// TestNewInstance_Duplicates reports duplicated ids of every kind together.
func TestNewInstance_Duplicates(t *testing.T) {
	_, err := jobshop.NewInstance(
		[]jobshop.JobSpec{
			{ID: "J1", Tasks: []jobshop.TaskSpec{{ID: "T1", Duration: 1}}},
			{ID: "J1", Tasks: []jobshop.TaskSpec{{ID: "T2", Duration: 1}}},
			{ID: "J2", Tasks: []jobshop.TaskSpec{{ID: "T1", Duration: 1}}},
		},
		[]jobshop.MachineSpec{{ID: "M1"}, {ID: "M1"}},
		nil,
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, jobshop.ErrDuplicateID)
	assert.Contains(t, err.Error(), `machine "M1"`)
	assert.Contains(t, err.Error(), `job "J1"`)
	assert.Contains(t, err.Error(), `task "T1"`)
}

// TestNewInstance_FieldRanges rejects negative durations and empty jobs.
func TestNewInstance_FieldRanges(t *testing.T) {
	_, err := jobshop.NewInstance(
		[]jobshop.JobSpec{
			{ID: "J1", Tasks: []jobshop.TaskSpec{{ID: "T1", Duration: -1}}},
			{ID: "J2"},
			{ID: "J3", DueDate: intPtr(-5), Tasks: []jobshop.TaskSpec{{ID: "T3", Duration: 1}}},
		},
		[]jobshop.MachineSpec{{ID: "M1"}},
		nil,
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duration must be >= 0")
	assert.Contains(t, err.Error(), `job "J2" has no tasks`)
	assert.Contains(t, err.Error(), "due date must be >= 0")

	_, err = jobshop.NewInstance(nil, nil, nil)
	assert.ErrorIs(t, err, jobshop.ErrInstance)
}

// TestNewInstance_DependencyOrder sorts tasks by declared dependencies.
func TestNewInstance_DependencyOrder(t *testing.T) {
	inst, err := jobshop.NewInstance(
		[]jobshop.JobSpec{{
			ID: "J1",
			Tasks: []jobshop.TaskSpec{
				{ID: "paint", Duration: 1, Dependencies: []string{"weld"}},
				{ID: "cut", Duration: 1},
				{ID: "weld", Duration: 1, Dependencies: []string{"cut"}},
			},
		}},
		[]jobshop.MachineSpec{{ID: "M1"}},
		nil,
	)
	require.NoError(t, err)

	var order []string
	for _, ti := range inst.Job(0).Tasks() {
		order = append(order, inst.Task(ti).ID())
	}
	assert.Equal(t, []string{"cut", "weld", "paint"}, order)
}

// TestNewInstance_DependencyErrors covers cycles and foreign references.
func TestNewInstance_DependencyErrors(t *testing.T) {
	machines := []jobshop.MachineSpec{{ID: "M1"}}

	_, err := jobshop.NewInstance([]jobshop.JobSpec{{
		ID: "J1",
		Tasks: []jobshop.TaskSpec{
			{ID: "A", Duration: 1, Dependencies: []string{"B"}},
			{ID: "B", Duration: 1, Dependencies: []string{"A"}},
		},
	}}, machines, nil)
	assert.ErrorIs(t, err, jobshop.ErrDependency)
	assert.Contains(t, err.Error(), "cycle")

	_, err = jobshop.NewInstance([]jobshop.JobSpec{{
		ID:    "J1",
		Tasks: []jobshop.TaskSpec{{ID: "A", Duration: 1, Dependencies: []string{"Z"}}},
	}}, machines, nil)
	assert.ErrorIs(t, err, jobshop.ErrDependency)
}

// TestMachine_Offers checks subset matching of capability tags.
func TestMachine_Offers(t *testing.T) {
	inst, err := jobshop.NewInstance(
		[]jobshop.JobSpec{{ID: "J1", Tasks: []jobshop.TaskSpec{
			{ID: "T1", Duration: 1, Requires: []string{"cut", "drill"}},
			{ID: "T2", Duration: 1},
		}}},
		[]jobshop.MachineSpec{
			{ID: "M1", Capabilities: []string{"drill", "cut", "weld"}},
			{ID: "M2", Capabilities: []string{"cut"}},
		},
		jobshop.UniformTravel([]string{"M1", "M2"}, 0),
	)
	require.NoError(t, err)

	assert.Equal(t, []int{0}, inst.SuitableMachines(0))
	assert.Equal(t, []int{0, 1}, inst.SuitableMachines(1), "no requirements fit every machine")
	assert.Equal(t, []string{"cut", "drill", "weld"}, inst.Machine(0).Capabilities())
}

// TestValidateSequence accepts topological orders only.
func TestValidateSequence(t *testing.T) {
	inst := twoMachineInstance(t)

	assert.NoError(t, jobshop.ValidateSequence(inst, []int{0, 1}))
	assert.Error(t, jobshop.ValidateSequence(inst, []int{1, 0}))
	assert.Error(t, jobshop.ValidateSequence(inst, []int{0}))
	assert.Error(t, jobshop.ValidateSequence(inst, []int{0, 0}))
	assert.Error(t, jobshop.ValidateSequence(inst, []int{0, 7}))
}
