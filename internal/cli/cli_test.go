package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shoenig/test/must"

	"jobShop/internal/instanceio"
	"jobShop/internal/jobshop"
	"jobShop/internal/mock"
	"jobShop/internal/opt"
)

// run выполняет команду и возвращает stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeInstance(t *testing.T, inst *jobshop.Instance) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "instance.yaml")
	var buf bytes.Buffer
	must.NoError(t, instanceio.SaveInstance(&buf, inst))
	must.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func TestSolve_PrintsTimeline(t *testing.T) {
	instPath := writeInstance(t, mock.TravelChain())

	out, err := run(t, "solve", "--instance", instPath, "--solver", "dispatch", "--set", "rule=spt")
	must.NoError(t, err)
	must.StrContains(t, out, "Machine")
	must.StrContains(t, out, "J1-T2")
	must.StrContains(t, out, "Makespan")
	must.StrContains(t, out, "= 10")
}

func TestSolve_ThenValidate(t *testing.T) {
	instPath := writeInstance(t, mock.Workshop())
	schedPath := filepath.Join(t.TempDir(), "schedule.yaml")

	_, err := run(t, "solve", "-i", instPath, "-s", "sa",
		"--set", "iterations=100", "--set", "random_seed=3", "--out", schedPath)
	must.NoError(t, err)

	out, err := run(t, "validate", "--instance", instPath, "--schedule", schedPath)
	must.NoError(t, err)
	must.StrContains(t, out, "допустимо")
}

func TestSolve_BadOptions(t *testing.T) {
	instPath := writeInstance(t, mock.SerialPair())

	_, err := run(t, "solve", "-i", instPath, "-s", "dispatch", "--set", "iterations=5")
	must.ErrorIs(t, err, opt.ErrConfig)

	_, err = run(t, "solve", "-i", instPath, "-s", "nope")
	must.ErrorIs(t, err, opt.ErrConfig)
}

func TestValidate_ReportsViolations(t *testing.T) {
	instPath := writeInstance(t, mock.TravelChain())
	schedPath := filepath.Join(t.TempDir(), "schedule.yaml")
	doc := "assignments:\n  - {task: J1-T1, machine: M1, start: 0}\n  - {task: J1-T2, machine: M2, start: 1}\n"
	must.NoError(t, os.WriteFile(schedPath, []byte(doc), 0o644))

	out, err := run(t, "validate", "-i", instPath, "--schedule", schedPath)
	var inf *jobshop.InfeasibleError
	must.True(t, errors.As(err, &inf))
	must.StrContains(t, out, "J1-T2")
}

func TestGenerate_LoadsBack(t *testing.T) {
	out, err := run(t, "generate", "--jobs", "3", "--machines", "2", "--seed", "9", "--due-slack", "1.5")
	must.NoError(t, err)

	inst, err := instanceio.LoadInstance(strings.NewReader(out))
	must.NoError(t, err)
	must.Eq(t, 3, inst.NumJobs())
	must.GreaterEq(t, 2, inst.NumMachines())

	again, err := run(t, "generate", "--jobs", "3", "--machines", "2", "--seed", "9", "--due-slack", "1.5")
	must.NoError(t, err)
	must.Eq(t, out, again)
}

func TestBench_WritesCSV(t *testing.T) {
	csvPath := filepath.Join(t.TempDir(), "out", "results.csv")

	out, err := run(t, "bench", "--pairs", "3x2", "--algos", "dispatch,sa", "--runs", "2",
		"--set", "iterations=50", "--out", csvPath)
	must.NoError(t, err)
	must.StrContains(t, out, "dispatch")
	must.StrContains(t, out, "Saved:")

	data, err := os.ReadFile(csvPath)
	must.NoError(t, err)
	must.Eq(t, 3, strings.Count(string(data), "\n"))
}

func TestBench_UnknownAlgorithm(t *testing.T) {
	_, err := run(t, "bench", "--pairs", "3x2", "--algos", "aco", "--runs", "1")
	must.Error(t, err)
}

func TestRoot_BadLogLevel(t *testing.T) {
	_, err := run(t, "--log-level", "loud", "generate")
	must.Error(t, err)
}
