package ts

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shoenig/test/must"

	"jobShop/internal/dispatch"
	"jobShop/internal/jobshop"
	"jobShop/internal/mock"
	"jobShop/internal/opt"
	"jobShop/internal/scaffold"
)

func smallConfig() Config {
	cfg := DefaultConfig()
	cfg.Iterations = 60
	cfg.NeighborsPerIter = 12
	return cfg
}

func run(t *testing.T, cfg Config, seed int64, inst *jobshop.Instance) opt.Result {
	t.Helper()
	s, err := New(cfg, rand.New(rand.NewSource(seed)), nil)
	must.NoError(t, err)
	res, err := s.Solve(context.Background(), inst)
	must.NoError(t, err)
	return res
}

func TestSolve_Feasible(t *testing.T) {
	for name, inst := range mock.Instances() {
		for _, nb := range []Neighborhood{NeighborhoodInsert, NeighborhoodSwap} {
			cfg := smallConfig()
			cfg.Neighborhood = nb
			cfg.SeedWithDispatch = nb == NeighborhoodSwap
			res := run(t, cfg, 4, inst)
			must.SliceEmpty(t, jobshop.Validate(inst, res.Schedule), must.Sprintf("%s/%s", name, nb))
			must.False(t, res.Stopped)
		}
	}
}

func TestSolve_Scenarios(t *testing.T) {
	cfg := smallConfig()

	res := run(t, cfg, 8, mock.SerialPair())
	must.Eq(t, 7, res.Makespan)

	res = run(t, cfg, 8, mock.SharedMachine())
	must.Eq(t, 10, res.Makespan)
}

func TestSolve_NotWorseThanDispatchSeed(t *testing.T) {
	inst := mock.Workshop()
	d, err := dispatch.New(dispatch.DefaultConfig(), nil)
	must.NoError(t, err)
	seed, err := d.Solve(context.Background(), inst)
	must.NoError(t, err)

	res := run(t, smallConfig(), 5, inst)
	must.LessEq(t, seed.Score, res.Score)
}

func TestSolve_SeededReproducible(t *testing.T) {
	inst := mock.Workshop()
	cfg := smallConfig()
	cfg.SeedWithDispatch = false

	a := run(t, cfg, 31, inst)
	b := run(t, cfg, 31, inst)
	if diff := cmp.Diff(a.Schedule.Entries(), b.Schedule.Entries()); diff != "" {
		t.Fatalf("same seed produced different schedules (-a +b):\n%s", diff)
	}
}

func TestSolve_NothingToMove(t *testing.T) {
	inst := mock.SerialPair()
	sc, err := scaffold.New(inst, scaffold.WithLocked(jobshop.Assignment{Task: 0, Machine: 0, Start: 0, End: 3}))
	must.NoError(t, err)

	s, err := New(smallConfig(), rand.New(rand.NewSource(1)), nil)
	must.NoError(t, err)
	res, err := s.SolveWith(context.Background(), sc)
	must.NoError(t, err)
	must.Eq(t, 0, res.Iterations)
	must.Eq(t, 7, res.Makespan)
}

func TestSolve_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s, err := New(smallConfig(), rand.New(rand.NewSource(1)), nil)
	must.NoError(t, err)
	inst := mock.Workshop()
	res, err := s.Solve(ctx, inst)
	must.NoError(t, err)
	must.True(t, res.Stopped)
	must.SliceEmpty(t, jobshop.Validate(inst, res.Schedule))
}

func TestTabuList(t *testing.T) {
	tl := newTabuList(8)
	k := moveKey(3, 1, 4)
	must.False(t, tl.IsTabu(k, 0))

	tl.Add(k, 5)
	must.True(t, tl.IsTabu(k, 4))
	must.False(t, tl.IsTabu(k, 5))
	must.False(t, tl.IsTabu(moveKey(3, 4, 1), 0))

	// вытеснение из кольца
	for i := range 8 {
		tl.Add(machineKey(i, 1), 100)
	}
	must.False(t, tl.IsTabu(k, 0))
	must.True(t, tl.IsTabu(machineKey(0, 1), 50))
	must.NotEq(t, moveKey(0, 0, 1), machineKey(0, 1))
}

func TestMoveKey_Fields(t *testing.T) {
	must.NotEq(t, moveKey(1, 0, 2), moveKey(0, 1, 2))
	must.NotEq(t, moveKey(1, 0, 2), moveKey(0, 1<<keyBits, 2))

	top := moveKey(keyMask, keyMask, keyMask)
	must.Zero(t, top&(1<<63))
	must.NotEq(t, uint64(0), moveKey(0, 1<<keyBits, 0))
	must.NotEq(t, top, machineKey(keyMask, keyMask))
	must.NotEq(t, machineKey(1, 0), machineKey(0, 1<<keyBits))
}

func TestConfig_Validate(t *testing.T) {
	must.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.TabuTenure = 0
	cfg.MachineMoveRate = 2
	cfg.Neighborhood = "teleport"
	err := cfg.Validate()
	must.Error(t, err)
	must.True(t, errors.Is(err, opt.ErrConfig))
}
