package cli

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"jobShop/internal/bench"
	"jobShop/internal/generator"
	"jobShop/internal/opt"
	"jobShop/internal/solvers"
)

func newBenchCmd(a *app) *cobra.Command {
	var (
		outPath      string
		pairs        string
		algos        string
		runs         int
		baseSeed     int64
		instanceSeed int64
		perRunTO     time.Duration
		optionsPath  string
		assignments  []string
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Сравнить алгоритмы на сгенерированных экземплярах",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cases, err := bench.ParseCases(pairs, generator.DefaultConfig(), instanceSeed)
			if err != nil {
				return err
			}
			opts, err := readOptions(optionsPath, assignments)
			if err != nil {
				return err
			}

			var selected []bench.Algorithm
			for _, name := range bench.SplitList(algos) {
				if !slices.Contains(solvers.Names(), name) {
					return fmt.Errorf("алгоритм %q не поддерживается; доступные: %v", name, solvers.Names())
				}
				algo := bench.Algorithm{Name: name, Factory: factory(a, name, opts)}
				// Проверяем параметры до запуска серии
				if _, err := algo.Factory(baseSeed); err != nil {
					return fmt.Errorf("алгоритм %s: %w", name, err)
				}
				selected = append(selected, algo)
			}

			runner := bench.Runner{
				Runs:          runs,
				BaseSeed:      baseSeed,
				PerRunTimeout: perRunTO,
				Logger:        a.logger,
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			out := cmd.OutOrStdout()
			rows := []string{"Algo|Case|Tasks|Runs|Makespan best|Makespan mean|Makespan std|Score best|Time mean ms|Stopped"}
			var records []bench.Record
			for _, c := range cases {
				for _, algo := range selected {
					a.logger.Info("running", "algo", algo.Name, "case", c.Name, "runs", runner.Runs)
					rec, err := runner.RunCase(ctx, c, algo)
					if err != nil {
						return fmt.Errorf("%s на %s: %w", algo.Name, c.Name, err)
					}
					records = append(records, rec)
					rows = append(rows, fmt.Sprintf("%s|%s|%d|%d|%d|%.2f|%.2f|%d|%.2f|%d",
						rec.Algo, rec.Case, rec.Tasks, rec.Runs,
						rec.MakespanBest, rec.MakespanMean, rec.MakespanStd,
						rec.ScoreBest, rec.TimeMeanMs, rec.Stopped))
				}
			}
			fmt.Fprintln(out, formatList(rows))

			if outPath == "" {
				return nil
			}
			if err := bench.WriteCSV(outPath, records); err != nil {
				return fmt.Errorf("ошибка при записи в CSV: %w", err)
			}
			fmt.Fprintln(out, "Saved:", outPath)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&outPath, "out", "o", "", "путь к выходному CSV-файлу; пусто — только таблица")
	f.StringVar(&pairs, "pairs", "10x4,20x6", "конфигурации: количество работ x количество станков (через запятую)")
	f.StringVar(&algos, "algos", "dispatch,ga,sa,ts", "список алгоритмов через запятую")
	f.IntVar(&runs, "runs", 5, "количество запусков каждого алгоритма (с разными сидами)")
	f.Int64Var(&baseSeed, "seed", 1000, "базовый сид для запусков алгоритмов")
	f.Int64Var(&instanceSeed, "instance-seed", 777, "базовый сид для генерации экземпляров")
	f.DurationVar(&perRunTO, "per-run-timeout", 0, "таймаут одного запуска; 0 — без ограничения")
	f.StringVar(&optionsPath, "options", "", "YAML-файл с параметрами алгоритмов")
	f.StringArrayVar(&assignments, "set", nil, "параметр алгоритмов key=value (можно повторять)")

	return cmd
}

// factory строит солвер name с сидом запуска; параметры, не относящиеся
// к алгоритму, отбрасываются, чтобы один набор --set подходил всем.
func factory(a *app, name string, opts solvers.Options) func(seed int64) (opt.Optimizer, error) {
	own := solvers.Filter(name, opts)
	return func(seed int64) (opt.Optimizer, error) {
		o := own.Merge(solvers.Options{"random_seed": seed})
		return solvers.New(name, o, a.logger)
	}
}
