package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"jobShop/internal/jobshop"
)

func newValidateCmd(a *app) *cobra.Command {
	var instancePath, schedulePath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Проверить допустимость расписания",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			inst, err := loadInstance(instancePath)
			if err != nil {
				return err
			}
			sched, err := loadSchedule(schedulePath, inst)
			if err != nil {
				return err
			}

			vs := jobshop.Validate(inst, sched)
			out := cmd.OutOrStdout()
			if len(vs) == 0 {
				fmt.Fprintf(out, "Расписание допустимо, makespan = %d\n", jobshop.Makespan(sched))
				return nil
			}

			rows := []string{"Kind|Task|Other|Machine|Detail"}
			for _, v := range vs {
				rows = append(rows, fmt.Sprintf("%s|%s|%s|%s|%s", v.Kind, v.Task, v.Other, v.Machine, v.Detail))
			}
			fmt.Fprintln(out, formatList(rows))
			a.logger.Debug("schedule rejected", "violations", len(vs))
			return &jobshop.InfeasibleError{Violations: vs}
		},
	}

	cmd.Flags().StringVarP(&instancePath, "instance", "i", "", "путь к YAML-описанию экземпляра")
	cmd.Flags().StringVar(&schedulePath, "schedule", "", "путь к YAML-файлу расписания")
	_ = cmd.MarkFlagRequired("instance")
	_ = cmd.MarkFlagRequired("schedule")

	return cmd
}
