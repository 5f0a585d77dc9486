package bench

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/hashicorp/go-hclog"

	"jobShop/internal/generator"
	"jobShop/internal/jobshop"
	"jobShop/internal/opt"
)

type Algorithm struct {
	Name    string
	Factory func(seed int64) (opt.Optimizer, error)
}

type Case struct {
	Name         string
	Generator    generator.Config
	InstanceSeed int64
}

type Record struct {
	Algo     string
	Case     string
	Jobs     int
	Machines int
	Tasks    int
	Runs     int
	Stopped  int

	TimeBestMs float64
	TimeMeanMs float64
	TimeStdMs  float64

	MakespanBest int
	MakespanMean float64
	MakespanStd  float64

	ScoreBest int
	ScoreMean float64
	ScoreStd  float64
}

type Runner struct {
	Runs          int
	BaseSeed      int64
	PerRunTimeout time.Duration // 0 = no timeout
	Logger        hclog.Logger
}

// Instance строит экземпляр задачи для случая c.
func (c Case) Instance() (*jobshop.Instance, error) {
	return generator.Random(c.Generator, rand.New(rand.NewSource(c.InstanceSeed)))
}

func (r Runner) RunCase(ctx context.Context, c Case, algo Algorithm) (Record, error) {
	logger := r.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	inst, err := c.Instance()
	if err != nil {
		return Record{}, fmt.Errorf("case %s: %w", c.Name, err)
	}

	makespans := make([]int, 0, r.Runs)
	scores := make([]int, 0, r.Runs)
	timesMs := make([]float64, 0, r.Runs)
	stopped := 0

	for i := 0; i < r.Runs; i++ {
		runSeed := r.BaseSeed + int64(i)

		op, err := algo.Factory(runSeed)
		if err != nil {
			return Record{}, fmt.Errorf("run %d: %w", i, err)
		}

		runCtx := ctx
		cancel := func() {}
		if r.PerRunTimeout > 0 {
			runCtx, cancel = context.WithTimeout(ctx, r.PerRunTimeout)
		}
		start := time.Now()
		res, err := op.Solve(runCtx, inst)
		dur := time.Since(start)
		cancel()

		if err != nil {
			return Record{}, fmt.Errorf("run %d: solve error: %w", i, err)
		}
		if vs := jobshop.Validate(inst, res.Schedule); len(vs) > 0 {
			return Record{}, fmt.Errorf("run %d: %w", i, &jobshop.InfeasibleError{Violations: vs})
		}
		if res.Stopped {
			stopped++
		}

		makespans = append(makespans, res.Makespan)
		scores = append(scores, res.Score)
		timesMs = append(timesMs, float64(dur.Microseconds())/1000.0)
		logger.Trace("run finished", "algo", algo.Name, "case", c.Name, "run", i, "makespan", res.Makespan)
	}

	msStats := CalcStats(makespans)
	scStats := CalcStats(scores)
	tStats := CalcStats(timesMs)

	return Record{
		Algo:     algo.Name,
		Case:     c.Name,
		Jobs:     inst.NumJobs(),
		Machines: inst.NumMachines(),
		Tasks:    inst.NumTasks(),
		Runs:     r.Runs,
		Stopped:  stopped,

		TimeBestMs: tStats.Best,
		TimeMeanMs: tStats.Mean,
		TimeStdMs:  tStats.Std,

		MakespanBest: msStats.Best,
		MakespanMean: msStats.Mean,
		MakespanStd:  msStats.Std,

		ScoreBest: scStats.Best,
		ScoreMean: scStats.Mean,
		ScoreStd:  scStats.Std,
	}, nil
}

func WriteCSV(path string, records []Record) error {
	if d := filepath.Dir(path); d != "." {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := EncodeCSV(f, records); err != nil {
		return err
	}
	return f.Close()
}

// EncodeCSV пишет записи с заголовком в w.
func EncodeCSV(out io.Writer, records []Record) error {
	w := csv.NewWriter(out)

	header := []string{
		"algo", "case", "jobs", "machines", "tasks", "runs", "stopped",
		"time_best_ms", "time_mean_ms", "time_std_ms",
		"makespan_best", "makespan_mean", "makespan_std",
		"score_best", "score_mean", "score_std",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, r := range records {
		row := []string{
			r.Algo,
			r.Case,
			strconv.Itoa(r.Jobs),
			strconv.Itoa(r.Machines),
			strconv.Itoa(r.Tasks),
			strconv.Itoa(r.Runs),
			strconv.Itoa(r.Stopped),

			strconv.FormatFloat(r.TimeBestMs, 'f', 3, 64),
			strconv.FormatFloat(r.TimeMeanMs, 'f', 3, 64),
			strconv.FormatFloat(r.TimeStdMs, 'f', 3, 64),

			strconv.Itoa(r.MakespanBest),
			strconv.FormatFloat(r.MakespanMean, 'f', 3, 64),
			strconv.FormatFloat(r.MakespanStd, 'f', 3, 64),

			strconv.Itoa(r.ScoreBest),
			strconv.FormatFloat(r.ScoreMean, 'f', 3, 64),
			strconv.FormatFloat(r.ScoreStd, 'f', 3, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}
