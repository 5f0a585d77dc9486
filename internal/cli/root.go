// Package cli реализует команды утилиты jobshop.
package cli

import (
	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"jobShop/internal/logging"
)

// app — общее состояние команд, заполняется в PersistentPreRunE.
type app struct {
	logLevel string
	logJSON  bool

	logger hclog.Logger
}

// NewRootCmd создаёт корневую команду.
func NewRootCmd() *cobra.Command {
	a := &app{logger: hclog.NewNullLogger()}

	root := &cobra.Command{
		Use:   "jobshop",
		Short: "Планирование гибкого job-shop производства",
		Long:  "jobshop строит, проверяет и сравнивает расписания для гибкой задачи job-shop.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := logging.ParseLevel(a.logLevel)
			if err != nil {
				return err
			}
			a.logger = logging.NewLogger(level, a.logJSON, cmd.ErrOrStderr())
			return nil
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "warn", "уровень логирования (trace, debug, info, warn, error)")
	root.PersistentFlags().BoolVar(&a.logJSON, "log-json", false, "логи в формате JSON")

	root.AddCommand(
		newSolveCmd(a),
		newGenerateCmd(a),
		newValidateCmd(a),
		newBenchCmd(a),
	)

	return root
}
