package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"jobShop/internal/instanceio"
	"jobShop/internal/jobshop"
	"jobShop/internal/opt"
	"jobShop/internal/solvers"
)

func newSolveCmd(a *app) *cobra.Command {
	var (
		instancePath string
		solverName   string
		optionsPath  string
		assignments  []string
		outPath      string
		timeout      time.Duration
	)

	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Построить расписание для экземпляра задачи",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			inst, err := loadInstance(instancePath)
			if err != nil {
				return err
			}
			opts, err := readOptions(optionsPath, assignments)
			if err != nil {
				return err
			}
			solver, err := solvers.New(solverName, opts, a.logger)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			res, err := solver.Solve(ctx, inst)
			if err != nil {
				return err
			}
			a.logger.Info("solved", "solver", solverName, "makespan", res.Makespan, "duration", res.Duration)

			if outPath != "" {
				if err := writeFile(outPath, cmd.OutOrStdout(), func(w io.Writer) error {
					return instanceio.SaveSchedule(w, res.Schedule)
				}); err != nil {
					return err
				}
			}
			if outPath == "-" {
				return nil
			}
			return printResult(cmd.OutOrStdout(), inst, solverName, res)
		},
	}

	cmd.Flags().StringVarP(&instancePath, "instance", "i", "", "путь к YAML-описанию экземпляра")
	cmd.Flags().StringVarP(&solverName, "solver", "s", "ga", "алгоритм: dispatch, stochastic, ga, sa, ts, external")
	cmd.Flags().StringVar(&optionsPath, "options", "", "YAML-файл с параметрами алгоритма")
	cmd.Flags().StringArrayVar(&assignments, "set", nil, "параметр алгоритма key=value (можно повторять)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "куда сохранить расписание (\"-\" — stdout)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "ограничение времени поиска; 0 — без ограничения")
	_ = cmd.MarkFlagRequired("instance")

	return cmd
}

// readOptions объединяет параметры из файла и из флагов --set; флаги важнее.
func readOptions(path string, assignments []string) (solvers.Options, error) {
	opts := solvers.Options{}
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		if opts, err = solvers.LoadOptions(f); err != nil {
			return nil, err
		}
	}
	set, err := solvers.ParseAssignments(assignments)
	if err != nil {
		return nil, err
	}
	return opts.Merge(set), nil
}

// printResult выводит расписание по станкам и сводку метрик.
func printResult(w io.Writer, inst *jobshop.Instance, solverName string, res opt.Result) error {
	rows := []string{"Machine|Task|Job|Start|End"}
	for _, e := range res.Schedule.Entries() {
		rows = append(rows, fmt.Sprintf("%s|%s|%s|%d|%d", e.MachineID, e.TaskID, e.JobID, e.Start, e.End))
	}

	eval, err := jobshop.NewEvaluator(inst)
	if err != nil {
		return err
	}
	m := eval.Summary(res.Schedule)
	kv := []string{
		"Solver|" + solverName,
		"Objective|" + string(res.Objective),
		fmt.Sprintf("Score|%d", res.Score),
		fmt.Sprintf("Makespan|%d", m.Makespan),
		fmt.Sprintf("Total flow time|%d", m.TotalFlowTime),
		fmt.Sprintf("Total tardiness|%d", m.TotalTardiness),
		fmt.Sprintf("Tardy jobs|%d", m.TardyJobs),
		fmt.Sprintf("Evaluations|%d", res.Evaluations),
		fmt.Sprintf("Iterations|%d", res.Iterations),
		fmt.Sprintf("Duration|%s", res.Duration.Round(time.Microsecond)),
		fmt.Sprintf("Stopped|%t", res.Stopped),
	}

	_, err = fmt.Fprintf(w, "%s\n\n%s\n", formatList(rows), formatKV(kv))
	return err
}
