package cli

import (
	"io"
	"math/rand"

	"github.com/spf13/cobra"

	"jobShop/internal/generator"
	"jobShop/internal/instanceio"
)

func newGenerateCmd(a *app) *cobra.Command {
	cfg := generator.DefaultConfig()
	var (
		seed    int64
		outPath string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Сгенерировать случайный экземпляр задачи",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			inst, err := generator.Random(cfg, rand.New(rand.NewSource(seed)))
			if err != nil {
				return err
			}
			a.logger.Info("instance generated", "jobs", inst.NumJobs(), "machines", inst.NumMachines(), "tasks", inst.NumTasks())
			return writeFile(outPath, cmd.OutOrStdout(), func(w io.Writer) error {
				return instanceio.SaveInstance(w, inst)
			})
		},
	}

	f := cmd.Flags()
	f.IntVar(&cfg.Jobs, "jobs", cfg.Jobs, "количество работ")
	f.IntVar(&cfg.Machines, "machines", cfg.Machines, "минимальное количество станков")
	f.IntVar(&cfg.MinTasks, "min-tasks", cfg.MinTasks, "минимум задач в работе")
	f.IntVar(&cfg.MaxTasks, "max-tasks", cfg.MaxTasks, "максимум задач в работе")
	f.IntVar(&cfg.Capabilities, "capabilities", cfg.Capabilities, "количество различных возможностей")
	f.IntVar(&cfg.MinDuration, "min-duration", cfg.MinDuration, "минимальная длительность задачи")
	f.IntVar(&cfg.MaxDuration, "max-duration", cfg.MaxDuration, "максимальная длительность задачи")
	f.IntVar(&cfg.MaxTravel, "max-travel", cfg.MaxTravel, "максимальное время переезда между станками")
	f.Float64Var(&cfg.DueDateSlack, "due-slack", cfg.DueDateSlack, "запас срока относительно суммарной длительности; 0 — без сроков")
	f.IntVar(&cfg.MaxRelease, "max-release", cfg.MaxRelease, "максимальный момент появления работы; 0 — все доступны сразу")
	f.Int64Var(&seed, "seed", 1, "сид генератора")
	f.StringVarP(&outPath, "out", "o", "", "путь к выходному файлу (по умолчанию stdout)")

	return cmd
}
