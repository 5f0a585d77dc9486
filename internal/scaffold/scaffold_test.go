package scaffold

import (
	"errors"
	"testing"

	"github.com/shoenig/test/must"

	"jobShop/internal/jobshop"
)

func mustInstance(t *testing.T, jobs []jobshop.JobSpec, machines []jobshop.MachineSpec, travel jobshop.TravelTimes) *jobshop.Instance {
	t.Helper()
	inst, err := jobshop.NewInstance(jobs, machines, travel)
	must.NoError(t, err)
	return inst
}

// travelInstance: J1 = T1(5, cut) -> T2(3, weld); M1 cuts, M2 welds, travel 2.
func travelInstance(t *testing.T) *jobshop.Instance {
	return mustInstance(t,
		[]jobshop.JobSpec{{ID: "J1", Tasks: []jobshop.TaskSpec{
			{ID: "T1", Duration: 5, Requires: []string{"cut"}},
			{ID: "T2", Duration: 3, Requires: []string{"weld"}},
		}}},
		[]jobshop.MachineSpec{
			{ID: "M1", Capabilities: []string{"cut"}},
			{ID: "M2", Capabilities: []string{"weld"}},
		},
		jobshop.UniformTravel([]string{"M1", "M2"}, 2),
	)
}

func TestReadyTime_IncludesTravel(t *testing.T) {
	sc, err := New(travelInstance(t))
	must.NoError(t, err)
	s := sc.NewSchedule()

	_, err = sc.ReadyTime(s, 1, 1)
	must.ErrorIs(t, err, ErrInsertion)

	_, err = sc.Insert(s, 0, 0)
	must.NoError(t, err)
	ready, err := sc.ReadyTime(s, 1, 1)
	must.NoError(t, err)
	must.Eq(t, 7, ready)

	a, err := sc.Insert(s, 1, 1)
	must.NoError(t, err)
	must.Eq(t, 7, a.Start)
	must.Eq(t, 10, a.End)
	must.NoError(t, sc.Finalize(s))
}

func TestEarliestStart_Gaps(t *testing.T) {
	inst := mustInstance(t,
		[]jobshop.JobSpec{
			{ID: "A", Tasks: []jobshop.TaskSpec{{ID: "a", Duration: 2}}},
			{ID: "B", Tasks: []jobshop.TaskSpec{{ID: "b", Duration: 3}}},
			{ID: "C", Tasks: []jobshop.TaskSpec{{ID: "c", Duration: 2}}},
			{ID: "D", Tasks: []jobshop.TaskSpec{{ID: "d", Duration: 4}}},
			{ID: "Z", Tasks: []jobshop.TaskSpec{{ID: "z", Duration: 0}}},
		},
		[]jobshop.MachineSpec{{ID: "M1"}},
		nil,
	)
	sc, err := New(inst)
	must.NoError(t, err)

	s := sc.NewSchedule()
	_, _ = s.Assign(0, 0, 2)  // a [2,4)
	_, _ = s.Assign(1, 0, 10) // b [10,13)

	// fits before a
	st, err := sc.EarliestStart(s, 2, 0)
	must.NoError(t, err)
	must.Eq(t, 0, st)

	// too long for [0,2), fits in [4,10)
	st, err = sc.EarliestStart(s, 3, 0)
	must.NoError(t, err)
	must.Eq(t, 4, st)

	// zero-length task goes first but never onto a booked start
	st, err = sc.EarliestStart(s, 4, 0)
	must.NoError(t, err)
	must.Eq(t, 0, st)
	_, _ = s.Assign(2, 0, 0) // c [0,2)
	st, err = sc.EarliestStart(s, 4, 0)
	must.NoError(t, err)
	must.Eq(t, 4, st)
}

func TestEarliestStart_ZeroDurationBooking(t *testing.T) {
	inst := mustInstance(t,
		[]jobshop.JobSpec{
			{ID: "Z", Tasks: []jobshop.TaskSpec{{ID: "z", Duration: 0}}},
			{ID: "Y", Tasks: []jobshop.TaskSpec{{ID: "y", Duration: 0}}},
			{ID: "A", Tasks: []jobshop.TaskSpec{{ID: "a", Duration: 5}}},
		},
		[]jobshop.MachineSpec{{ID: "M1"}},
		nil,
	)
	sc, err := New(inst)
	must.NoError(t, err)

	s := sc.NewSchedule()
	_, err = sc.Insert(s, 0, 0)
	must.NoError(t, err)
	a, err := sc.Insert(s, 1, 0)
	must.NoError(t, err)
	must.Eq(t, 1, a.Start)
	a, err = sc.Insert(s, 2, 0)
	must.NoError(t, err)
	must.Eq(t, 2, a.Start)
	must.True(t, jobshop.Feasible(inst, s))
}

func TestInsert_Errors(t *testing.T) {
	sc, err := New(travelInstance(t))
	must.NoError(t, err)
	s := sc.NewSchedule()

	_, err = sc.Insert(s, 0, 1)
	must.ErrorIs(t, err, ErrInsertion)

	_, err = sc.Insert(s, 1, 1)
	must.ErrorIs(t, err, ErrInsertion)

	_, err = sc.Insert(s, 0, 0)
	must.NoError(t, err)
	_, err = sc.Insert(s, 0, 0)
	must.ErrorIs(t, err, ErrInsertion)
}

func TestBestMachine_EarliestCompletion(t *testing.T) {
	inst := mustInstance(t,
		[]jobshop.JobSpec{
			{ID: "J1", Tasks: []jobshop.TaskSpec{{ID: "x", Duration: 4}}},
			{ID: "J2", Tasks: []jobshop.TaskSpec{{ID: "y", Duration: 4}}},
			{ID: "J3", Tasks: []jobshop.TaskSpec{{ID: "z", Duration: 4}}},
		},
		[]jobshop.MachineSpec{{ID: "M1"}, {ID: "M2"}},
		jobshop.UniformTravel([]string{"M1", "M2"}, 0),
	)
	sc, err := New(inst)
	must.NoError(t, err)
	s := sc.NewSchedule()

	// tie on an empty shop goes to the lowest index
	m, start, err := sc.BestMachine(s, 0)
	must.NoError(t, err)
	must.Eq(t, 0, m)
	must.Eq(t, 0, start)
	_, _ = s.Assign(0, 0, 0)

	m, _, err = sc.BestMachine(s, 1)
	must.NoError(t, err)
	must.Eq(t, 1, m)

	a, err := sc.InsertBest(s, 1)
	must.NoError(t, err)
	must.Eq(t, 1, a.Machine)
	a, err = sc.InsertBest(s, 2)
	must.NoError(t, err)
	must.Eq(t, 4, a.Start)
}

func TestDecode(t *testing.T) {
	inst := mustInstance(t,
		[]jobshop.JobSpec{
			{ID: "J1", Tasks: []jobshop.TaskSpec{{ID: "a", Duration: 3}}},
			{ID: "J2", Tasks: []jobshop.TaskSpec{{ID: "b", Duration: 4}}},
		},
		[]jobshop.MachineSpec{{ID: "M1"}},
		nil,
	)
	sc, err := New(inst)
	must.NoError(t, err)

	s, err := sc.Decode([]int{1, 0}, nil)
	must.NoError(t, err)
	must.NoError(t, sc.Finalize(s))
	must.Eq(t, 7, jobshop.Makespan(s))
	b, _ := s.Lookup(1)
	must.Eq(t, 0, b.Start)

	_, err = sc.Decode([]int{0}, nil)
	must.ErrorIs(t, err, ErrInsertion)

	_, err = sc.Decode([]int{0, 0}, nil)
	must.ErrorIs(t, err, ErrInsertion)
}

func TestDecode_NonTopologicalSequence(t *testing.T) {
	sc, err := New(travelInstance(t))
	must.NoError(t, err)
	_, err = sc.Decode([]int{1, 0}, []int{0, 1})
	must.ErrorIs(t, err, ErrInsertion)
}

func TestFinalize_RejectsInfeasible(t *testing.T) {
	inst := travelInstance(t)
	sc, err := New(inst)
	must.NoError(t, err)

	s := sc.NewSchedule()
	_, _ = s.Assign(0, 0, 0)
	_, _ = s.Assign(1, 1, 5)
	err = sc.Finalize(s)
	must.ErrorIs(t, err, ErrInternal)

	var inf *jobshop.InfeasibleError
	must.True(t, errors.As(err, &inf))
	must.Len(t, 1, inf.Violations)
	must.Eq(t, jobshop.PrecedenceViolation, inf.Violations[0].Kind)
}

func TestLocked(t *testing.T) {
	inst := travelInstance(t)

	sc, err := New(inst,
		WithStartTime(20),
		WithLocked(jobshop.Assignment{Task: 0, Machine: 0, Start: 1}),
	)
	must.NoError(t, err)
	must.Eq(t, 1, sc.Pending())
	must.True(t, sc.Locked(0))
	must.Eq(t, 20, sc.StartTime())
	must.Eq(t, []jobshop.Assignment{{Task: 0, Machine: 0, Start: 1, End: 6}}, sc.LockedAssignments())

	s, err := sc.Decode([]int{0, 1}, nil)
	must.NoError(t, err)
	must.NoError(t, sc.Finalize(s))
	a, _ := s.Lookup(0)
	must.Eq(t, 1, a.Start)
	b, _ := s.Lookup(1)
	must.Eq(t, 20, b.Start, must.Sprint("start time bounds unlocked work"))

	moved := s.Clone()
	_, _ = moved.Move(0, 0, 0)
	must.ErrorIs(t, sc.Finalize(moved), ErrInternal)
}

func TestLocked_Invalid(t *testing.T) {
	inst := travelInstance(t)

	cases := map[string][]jobshop.Assignment{
		"unsuitable":     {{Task: 0, Machine: 1, Start: 0}},
		"not a prefix":   {{Task: 1, Machine: 1, Start: 0}},
		"precedence":     {{Task: 0, Machine: 0, Start: 0}, {Task: 1, Machine: 1, Start: 6}},
		"locked twice":   {{Task: 0, Machine: 0, Start: 0}, {Task: 0, Machine: 0, Start: 9}},
		"unknown task":   {{Task: 7, Machine: 0, Start: 0}},
		"negative start": {{Task: 0, Machine: 0, Start: -1}},
	}
	for name, locked := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := New(inst, WithLocked(locked...))
			must.ErrorIs(t, err, ErrLocked)
		})
	}

	_, err := New(inst, WithStartTime(-1))
	must.Error(t, err)
}
