package stochastic

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"

	"jobShop/internal/dispatch"
	"jobShop/internal/jobshop"
	"jobShop/internal/opt"
)

type Config struct {
	Trials  int
	Workers int

	Rule dispatch.Rule
	// Bias: степень жадности взвешенного выбора: 0 даёт равновероятный выбор,
	// чем больше, тем сильнее предпочтение лучшим по правилу кандидатам.
	Bias float64
	// RandomizeTasks: разыгрывать выбор среди всех допустимых задач,
	// а не только среди равных по правилу.
	RandomizeTasks bool

	Objective  jobshop.Objective
	TimeBudget time.Duration
}

func DefaultConfig() Config {
	return Config{
		Trials:         64,
		Workers:        4,
		Rule:           dispatch.RuleSPT,
		Bias:           2.0,
		RandomizeTasks: true,
		Objective:      jobshop.ObjectiveMakespan,
	}
}

func (c Config) Validate() error {
	var mErr *multierror.Error
	if c.Trials <= 0 {
		mErr = multierror.Append(mErr, fmt.Errorf(
			"количество испытаний должно быть > 0 (получено %d)",
			c.Trials,
		))
	}
	if c.Workers <= 0 {
		mErr = multierror.Append(mErr, fmt.Errorf(
			"количество обработчиков должно быть > 0 (получено %d)",
			c.Workers,
		))
	}
	if c.Bias < 0 {
		mErr = multierror.Append(mErr, fmt.Errorf(
			"bias должно быть >= 0 (получено %f)",
			c.Bias,
		))
	}
	if c.TimeBudget < 0 {
		mErr = multierror.Append(mErr, fmt.Errorf(
			"ограничение по времени должно быть >= 0 (получено %s)",
			c.TimeBudget,
		))
	}
	if _, err := dispatch.ParseRule(string(c.Rule)); err != nil || c.Rule == "" {
		mErr = multierror.Append(mErr, fmt.Errorf(
			"неизвестное правило диспетчеризации %q",
			c.Rule,
		))
	}
	if _, err := jobshop.ParseObjective(string(c.Objective)); err != nil {
		mErr = multierror.Append(mErr, err)
	}
	if err := mErr.ErrorOrNil(); err != nil {
		return fmt.Errorf("%w: %w", opt.ErrConfig, err)
	}
	return nil
}
