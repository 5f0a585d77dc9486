package external

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/shoenig/test/must"

	"jobShop/internal/dispatch"
	"jobShop/internal/jobshop"
	"jobShop/internal/mock"
	"jobShop/internal/opt"
	"jobShop/internal/scaffold"
)

func fixed(ps ...Placement) Backend {
	return BackendFunc(func(context.Context, *scaffold.Scaffold) ([]Placement, error) {
		return ps, nil
	})
}

func solve(t *testing.T, b Backend, inst *jobshop.Instance) (opt.Result, error) {
	t.Helper()
	a, err := New(b, jobshop.ObjectiveMakespan, nil)
	must.NoError(t, err)
	return a.Solve(context.Background(), inst)
}

func TestAdapter_AcceptsFeasible(t *testing.T) {
	inst := mock.Workshop()
	backend := BackendFunc(func(_ context.Context, sc *scaffold.Scaffold) ([]Placement, error) {
		s, err := dispatch.Build(sc, dispatch.RuleMWKR)
		if err != nil {
			return nil, err
		}
		return Placements(s), nil
	})

	res, err := solve(t, backend, inst)
	must.NoError(t, err)
	must.SliceEmpty(t, jobshop.Validate(inst, res.Schedule))
	must.Eq(t, jobshop.Makespan(res.Schedule), res.Makespan)
}

func TestAdapter_RejectsOverlap(t *testing.T) {
	_, err := solve(t, fixed(
		Placement{TaskID: "J1-T1", MachineID: "M1", Start: 0},
		Placement{TaskID: "J2-T1", MachineID: "M1", Start: 2},
	), mock.SerialPair())
	must.ErrorIs(t, err, ErrBackend)

	var infeasible *jobshop.InfeasibleError
	must.True(t, errors.As(err, &infeasible))
	must.Eq(t, jobshop.MachineOverlap, infeasible.Violations[0].Kind)
}

func TestAdapter_RejectsIncomplete(t *testing.T) {
	_, err := solve(t, fixed(Placement{TaskID: "J1-T1", MachineID: "M1", Start: 0}), mock.SerialPair())
	must.ErrorIs(t, err, ErrBackend)
}

func TestAdapter_RejectsUnknownIDs(t *testing.T) {
	_, err := solve(t, fixed(Placement{TaskID: "ghost", MachineID: "M1"}), mock.SerialPair())
	must.ErrorIs(t, err, ErrBackend)
	must.ErrorIs(t, err, jobshop.ErrUnknownTask)

	_, err = solve(t, fixed(Placement{TaskID: "J1-T1", MachineID: "M9"}), mock.SerialPair())
	must.ErrorIs(t, err, jobshop.ErrUnknownMachine)
}

func TestAdapter_BackendError(t *testing.T) {
	boom := errors.New("license expired")
	_, err := solve(t, BackendFunc(func(context.Context, *scaffold.Scaffold) ([]Placement, error) {
		return nil, boom
	}), mock.SerialPair())
	must.ErrorIs(t, err, ErrBackend)
	must.ErrorIs(t, err, boom)
}

func TestAdapter_LockedWork(t *testing.T) {
	inst := mock.SerialPair()
	sc, err := scaffold.New(inst,
		scaffold.WithStartTime(3),
		scaffold.WithLocked(jobshop.Assignment{Task: 0, Machine: 0, Start: 0, End: 3}))
	must.NoError(t, err)

	a, err := New(fixed(Placement{TaskID: "J2-T1", MachineID: "M1", Start: 3}), "", nil)
	must.NoError(t, err)
	res, err := a.SolveWith(context.Background(), sc)
	must.NoError(t, err)
	must.Eq(t, 7, res.Makespan)

	// repeating the locked placement is fine, moving it is not
	_, err = Assemble(sc, []Placement{{TaskID: "J1-T1", MachineID: "M1", Start: 0}, {TaskID: "J2-T1", MachineID: "M1", Start: 3}})
	must.NoError(t, err)
	_, err = Assemble(sc, []Placement{{TaskID: "J1-T1", MachineID: "M1", Start: 1}})
	must.ErrorIs(t, err, ErrBackend)

	// nothing may start before the planning moment
	_, err = Assemble(sc, []Placement{{TaskID: "J2-T1", MachineID: "M1", Start: 2}})
	must.ErrorIs(t, err, ErrBackend)
}

func TestCommand(t *testing.T) {
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}
	dir := t.TempDir()
	out := filepath.Join(dir, "schedule.yaml")
	must.NoError(t, os.WriteFile(out, []byte(`
assignments:
  - {task: J2-T1, machine: M1, start: 0}
  - {task: J1-T1, machine: M1, start: 4}
`), 0o644))
	req := filepath.Join(dir, "request.yaml")

	inst := mock.SerialPair()
	res, err := solve(t, Command{Path: sh, Args: []string{"-c", "cat > " + req + "; cat " + out}}, inst)
	must.NoError(t, err)
	must.Eq(t, 7, res.Makespan)

	in, err := os.ReadFile(req)
	must.NoError(t, err)
	must.StrContains(t, string(in), "start_time: 0")
	must.StrContains(t, string(in), "J1-T1")

	_, err = solve(t, Command{Path: sh, Args: []string{"-c", "echo broken >&2; exit 3"}}, inst)
	must.ErrorIs(t, err, ErrBackend)
	must.StrContains(t, err.Error(), "broken")
}

func TestNew_Config(t *testing.T) {
	_, err := New(nil, jobshop.ObjectiveMakespan, nil)
	must.ErrorIs(t, err, opt.ErrConfig)

	_, err = New(fixed(), "fastest", nil)
	must.ErrorIs(t, err, opt.ErrConfig)
}
