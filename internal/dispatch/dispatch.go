// Package dispatch реализует детерминированный списочный алгоритм
// с правилами приоритета.
package dispatch

import (
	"context"
	"time"

	"github.com/hashicorp/go-hclog"

	"jobShop/internal/jobshop"
	"jobShop/internal/opt"
	"jobShop/internal/scaffold"
)

// Solver — диспетчеризация по правилу приоритета.
type Solver struct {
	Cfg    Config
	Logger hclog.Logger
}

// New возвращает новый солвер с валидацией конфигурации.
func New(cfg Config, logger hclog.Logger) (*Solver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Solver{Cfg: cfg, Logger: logger.Named("dispatch")}, nil
}

func (s *Solver) Solve(ctx context.Context, inst *jobshop.Instance) (opt.Result, error) {
	sc, err := scaffold.New(inst)
	if err != nil {
		return opt.Result{}, err
	}
	return s.SolveWith(ctx, sc)
}

// SolveWith строит одно расписание; отмена контекста не прерывает построение.
func (s *Solver) SolveWith(_ context.Context, sc *scaffold.Scaffold) (opt.Result, error) {
	start := time.Now()

	if err := s.Cfg.Validate(); err != nil {
		return opt.Result{}, err
	}

	sched, err := Build(sc, s.Cfg.Rule)
	if err != nil {
		return opt.Result{}, err
	}

	res, err := opt.Finish("dispatch", sc, opt.Result{
		Schedule:    sched,
		Objective:   s.Cfg.Objective,
		Evaluations: 1,
		Iterations:  1,
		Meta: map[string]any{
			"rule": string(s.Cfg.Rule),
		},
	}, start)
	if err != nil {
		return opt.Result{}, err
	}
	s.Logger.Debug("schedule built", "rule", s.Cfg.Rule, "makespan", res.Makespan, "tasks", sc.Pending())
	return res, nil
}
