package encoding

import (
	"math/rand"
	"slices"
	"testing"

	"github.com/shoenig/test/must"

	"jobShop/internal/jobshop"
	"jobShop/internal/scaffold"
)

// shop: 3 jobs x 3 tasks, M1/M2 share "cut", M3 alone offers "weld".
func shop(t *testing.T, opts ...scaffold.Option) *Codec {
	t.Helper()
	var jobs []jobshop.JobSpec
	for _, j := range []string{"A", "B", "C"} {
		jobs = append(jobs, jobshop.JobSpec{ID: j, Tasks: []jobshop.TaskSpec{
			{ID: j + "1", Duration: 3, Requires: []string{"cut"}},
			{ID: j + "2", Duration: 2, Requires: []string{"weld"}},
			{ID: j + "3", Duration: 4, Requires: []string{"cut"}},
		}})
	}
	inst, err := jobshop.NewInstance(jobs,
		[]jobshop.MachineSpec{
			{ID: "M1", Capabilities: []string{"cut"}},
			{ID: "M2", Capabilities: []string{"cut"}},
			{ID: "M3", Capabilities: []string{"weld"}},
		},
		jobshop.UniformTravel([]string{"M1", "M2", "M3"}, 1),
	)
	must.NoError(t, err)
	sc, err := scaffold.New(inst, opts...)
	must.NoError(t, err)
	return NewCodec(sc)
}

func TestRandom_IsTopological(t *testing.T) {
	c := shop(t)
	rng := rand.New(rand.NewSource(3))
	inst := c.Scaffold().Instance()

	for range 50 {
		ch := c.New()
		c.Random(ch, rng)
		must.NoError(t, jobshop.ValidateSequence(inst, ch.Seq))
		for task, m := range ch.Mach {
			must.True(t, inst.Suitable(task, m))
		}
		s, err := c.Decode(ch)
		must.NoError(t, err)
		must.NoError(t, c.Scaffold().Finalize(s))
	}
}

func TestRepair(t *testing.T) {
	c := shop(t)
	// task indices: A=0..2, B=3..5, C=6..8
	seq := []int{2, 4, 0, 3, 1, 8, 5, 7, 6}
	c.Repair(seq)
	must.Eq(t, []int{0, 3, 1, 4, 2, 6, 5, 7, 8}, seq)
	must.NoError(t, jobshop.ValidateSequence(c.Scaffold().Instance(), seq))
}

func TestOrderCrossover_KeepsPermutation(t *testing.T) {
	c := shop(t)
	rng := rand.New(rand.NewSource(11))
	mark := make([]int, 9)
	stamp := 0

	p1, p2 := c.New(), c.New()
	c.Random(p1, rng)
	c.Random(p2, rng)
	c1, c2 := c.New(), c.New()

	for range 20 {
		c.OrderCrossover(p1.Seq, p2.Seq, c1.Seq, c2.Seq, rng, mark, &stamp)
		for _, child := range [][]int{c1.Seq, c2.Seq} {
			sorted := slices.Sorted(slices.Values(child))
			must.Eq(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8}, sorted)
			must.NoError(t, jobshop.ValidateSequence(c.Scaffold().Instance(), child))
		}
	}
}

func TestMutations(t *testing.T) {
	c := shop(t)
	rng := rand.New(rand.NewSource(5))
	inst := c.Scaffold().Instance()

	ch := c.New()
	c.Random(ch, rng)
	for range 30 {
		c.MutateSwap(ch.Seq, rng)
		must.NoError(t, jobshop.ValidateSequence(inst, ch.Seq))
		c.MutateInsert(ch.Seq, rng)
		must.NoError(t, jobshop.ValidateSequence(inst, ch.Seq))

		before := slices.Clone(ch.Mach)
		task := c.MutateMachine(ch.Mach, rng)
		must.NotEq(t, -1, task)
		must.NotEq(t, before[task], ch.Mach[task])
		must.True(t, inst.Suitable(task, ch.Mach[task]))
	}
}

func TestUniformMachineCrossover(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	p1 := []int{0, 0, 0, 0}
	p2 := []int{1, 1, 1, 1}
	c1, c2 := make([]int, 4), make([]int, 4)
	UniformMachineCrossover(p1, p2, c1, c2, rng)
	for i := range c1 {
		must.Eq(t, 1, c1[i]+c2[i])
	}
}

func TestFromSchedule(t *testing.T) {
	c := shop(t)
	rng := rand.New(rand.NewSource(8))
	ch := c.New()
	c.Random(ch, rng)
	s, err := c.Decode(ch)
	must.NoError(t, err)

	back := c.FromSchedule(s)
	must.NoError(t, jobshop.ValidateSequence(c.Scaffold().Instance(), back.Seq))
	for task := range back.Mach {
		a, _ := s.Lookup(task)
		must.Eq(t, a.Machine, back.Mach[task])
	}
	s2, err := c.Decode(back)
	must.NoError(t, err)
	must.NoError(t, c.Scaffold().Finalize(s2))
}

func TestCodec_SkipsLocked(t *testing.T) {
	c := shop(t, scaffold.WithLocked(jobshop.Assignment{Task: 0, Machine: 0, Start: 0}))
	must.Eq(t, 8, c.Len())

	rng := rand.New(rand.NewSource(2))
	ch := c.New()
	c.Random(ch, rng)
	must.SliceNotContains(t, ch.Seq, 0)
	s, err := c.Decode(ch)
	must.NoError(t, err)
	must.NoError(t, c.Scaffold().Finalize(s))
}

func TestKey(t *testing.T) {
	a := Chromosome{Seq: []int{1, 2}, Mach: []int{0, 300}}
	b := a.Clone()
	must.Eq(t, a.Key(), b.Key())
	b.Mach[1] = 301
	must.NotEq(t, a.Key(), b.Key())
}
