// Package external подключает сторонний решатель: он получает каркас задачи
// и возвращает размещения, которые адаптер собирает и проверяет.
package external

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"

	"jobShop/internal/jobshop"
	"jobShop/internal/opt"
	"jobShop/internal/scaffold"
)

// ErrBackend: внешний решатель завершился с ошибкой или вернул недопустимое расписание.
var ErrBackend = errors.New("external solver failed")

// Placement: размещение одной задачи, адресованное идентификаторами.
type Placement struct {
	TaskID    string
	MachineID string
	Start     int
}

// Backend: сторонний решатель.
// Размещения зафиксированных задач можно не возвращать.
type Backend interface {
	Place(ctx context.Context, sc *scaffold.Scaffold) ([]Placement, error)
}

// BackendFunc позволяет использовать обычную функцию как Backend.
type BackendFunc func(ctx context.Context, sc *scaffold.Scaffold) ([]Placement, error)

func (f BackendFunc) Place(ctx context.Context, sc *scaffold.Scaffold) ([]Placement, error) {
	return f(ctx, sc)
}

// Adapter: реализация opt.Optimizer поверх Backend.
type Adapter struct {
	Backend   Backend
	Objective jobshop.Objective
	Logger    hclog.Logger
}

func New(backend Backend, obj jobshop.Objective, logger hclog.Logger) (*Adapter, error) {
	if backend == nil {
		return nil, fmt.Errorf("%w: внешний решатель не задан (nil)", opt.ErrConfig)
	}
	if _, err := jobshop.ParseObjective(string(obj)); err != nil {
		return nil, fmt.Errorf("%w: %w", opt.ErrConfig, err)
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Adapter{Backend: backend, Objective: obj, Logger: logger.Named("external")}, nil
}

func (a *Adapter) Solve(ctx context.Context, inst *jobshop.Instance) (opt.Result, error) {
	sc, err := scaffold.New(inst)
	if err != nil {
		return opt.Result{}, err
	}
	return a.SolveWith(ctx, sc)
}

// SolveWith вызывает внешний решатель и проверяет результат.
func (a *Adapter) SolveWith(ctx context.Context, sc *scaffold.Scaffold) (opt.Result, error) {
	start := time.Now()

	ps, err := a.Backend.Place(ctx, sc)
	if err != nil {
		return opt.Result{}, fmt.Errorf("%w: %w", ErrBackend, err)
	}

	sched, err := Assemble(sc, ps)
	if err != nil {
		return opt.Result{}, err
	}
	if vs := jobshop.Validate(sc.Instance(), sched); len(vs) > 0 {
		return opt.Result{}, fmt.Errorf("%w: %w", ErrBackend, &jobshop.InfeasibleError{Violations: vs})
	}
	a.Logger.Debug("placements accepted", "count", len(ps), "makespan", jobshop.Makespan(sched))

	return opt.Finish("external", sc, opt.Result{
		Schedule:    sched,
		Objective:   a.Objective,
		Evaluations: 1,
		Iterations:  1,
		Stopped:     ctx.Err() != nil,
	}, start)
}

// Assemble собирает расписание из зафиксированной работы каркаса и размещений.
// Повтор задачи и перенос зафиксированной задачи считаются ошибкой решателя.
func Assemble(sc *scaffold.Scaffold, ps []Placement) (*jobshop.Schedule, error) {
	inst := sc.Instance()
	sched := sc.NewSchedule()
	seen := make([]bool, inst.NumTasks())

	for i, p := range ps {
		t, ok := inst.TaskByID(p.TaskID)
		if !ok {
			return nil, fmt.Errorf("%w: размещение %d: %w: %q", ErrBackend, i, jobshop.ErrUnknownTask, p.TaskID)
		}
		m, ok := inst.MachineByID(p.MachineID)
		if !ok {
			return nil, fmt.Errorf("%w: размещение %d: %w: %q", ErrBackend, i, jobshop.ErrUnknownMachine, p.MachineID)
		}
		if seen[t.Index()] {
			return nil, fmt.Errorf("%w: задача %q размещена повторно", ErrBackend, p.TaskID)
		}
		seen[t.Index()] = true

		if sc.Locked(t.Index()) {
			if got, _ := sched.Lookup(t.Index()); got.Machine != m.Index() || got.Start != p.Start {
				return nil, fmt.Errorf("%w: зафиксированная задача %q перенесена", ErrBackend, p.TaskID)
			}
			continue
		}
		if p.Start < sc.StartTime() {
			return nil, fmt.Errorf("%w: задача %q начинается в %d, раньше момента планирования %d",
				ErrBackend, p.TaskID, p.Start, sc.StartTime())
		}
		if _, err := sched.Assign(t.Index(), m.Index(), p.Start); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBackend, err)
		}
	}
	return sched, nil
}
