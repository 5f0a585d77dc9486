package jobshop_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobShop/internal/jobshop"
)

func TestParseObjective(t *testing.T) {
	for in, want := range map[string]jobshop.Objective{
		"":                jobshop.ObjectiveMakespan,
		"makespan":        jobshop.ObjectiveMakespan,
		"total_flow_time": jobshop.ObjectiveTotalFlowTime,
		"total_tardiness": jobshop.ObjectiveTotalTardiness,
	} {
		got, err := jobshop.ParseObjective(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := jobshop.ParseObjective("profit")
	assert.Error(t, err)
}

func TestMakespan_Empty(t *testing.T) {
	s := jobshop.NewSchedule(twoMachineInstance(t))
	assert.Equal(t, 0, jobshop.Makespan(s))
	assert.Equal(t, 0, jobshop.StartTime(s))
}

func TestEvaluator_Summary(t *testing.T) {
	inst, err := jobshop.NewInstance(
		[]jobshop.JobSpec{
			{ID: "J1", DueDate: intPtr(5), Tasks: []jobshop.TaskSpec{{ID: "A", Duration: 4}}},
			{ID: "J2", DueDate: intPtr(6), Release: 1, Tasks: []jobshop.TaskSpec{{ID: "B", Duration: 6}}},
			{ID: "J3", Tasks: []jobshop.TaskSpec{{ID: "C", Duration: 1}}},
		},
		[]jobshop.MachineSpec{{ID: "M1"}},
		nil,
	)
	require.NoError(t, err)

	s := jobshop.NewSchedule(inst)
	_, _ = s.Assign(0, 0, 0)  // A [0,4)  due 5
	_, _ = s.Assign(1, 0, 4)  // B [4,10) due 6
	_, _ = s.Assign(2, 0, 10) // C [10,11)

	ev, err := jobshop.NewEvaluator(inst)
	require.NoError(t, err)

	m := ev.Summary(s)
	assert.Equal(t, 11, m.Makespan)
	assert.Equal(t, 0, m.Start)
	assert.Equal(t, 4+9+11, m.TotalFlowTime)
	assert.Equal(t, 4, m.TotalTardiness)
	assert.Equal(t, 4, m.MaxTardiness)
	assert.Equal(t, 1, m.TardyJobs)
	require.Len(t, m.Jobs, 3)
	assert.Equal(t, -1, m.Jobs[0].Lateness)
	assert.Equal(t, 0, m.Jobs[0].Tardiness)
	assert.Equal(t, 4, m.Jobs[1].Lateness)
	assert.Equal(t, 0, m.Jobs[2].Lateness, "no due date means no lateness")

	assert.Equal(t, 11, ev.Score(jobshop.ObjectiveMakespan, s))
	assert.Equal(t, 24, ev.Score(jobshop.ObjectiveTotalFlowTime, s))
	assert.Equal(t, 4, ev.Score(jobshop.ObjectiveTotalTardiness, s))
}

func TestEvaluator_NilInstance(t *testing.T) {
	_, err := jobshop.NewEvaluator(nil)
	assert.Error(t, err)
}
