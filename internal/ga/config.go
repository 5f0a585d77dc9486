package ga

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"

	"jobShop/internal/jobshop"
	"jobShop/internal/opt"
)

type Config struct {
	Population     int
	Generations    int
	Elite          int
	TournamentSize int
	CrossoverRate  float64
	MutationRate   float64

	// StallGenerations: остановка после стольких поколений без улучшения; 0 означает не останавливаться.
	StallGenerations int
	// Workers: число параллельных декодирований внутри поколения.
	Workers int
	// SeedWithDispatch: добавить в начальную популяцию решения правил диспетчеризации.
	SeedWithDispatch bool
	// CacheSize: размер LRU-кэша приспособленности; 0 означает без кэша.
	CacheSize int

	Objective  jobshop.Objective
	TimeBudget time.Duration
}

func (c Config) Validate() error {
	var mErr *multierror.Error
	if c.Population <= 1 {
		mErr = multierror.Append(mErr, fmt.Errorf(
			"размер популяции должен быть > 1 (получено %d)",
			c.Population,
		))
	}
	if c.Generations <= 0 {
		mErr = multierror.Append(mErr, fmt.Errorf(
			"количество поколений должно быть > 0 (получено %d)",
			c.Generations,
		))
	}
	if c.Elite < 0 || (c.Population > 1 && c.Elite >= c.Population) {
		mErr = multierror.Append(mErr, fmt.Errorf(
			"число элитных особей должно быть в диапазоне [0, population) (получено %d)",
			c.Elite,
		))
	}
	if c.TournamentSize <= 0 || c.TournamentSize > c.Population {
		mErr = multierror.Append(mErr, fmt.Errorf(
			"размер турнира должен быть в диапазоне [1, population] (получено %d)",
			c.TournamentSize,
		))
	}
	if c.CrossoverRate < 0 || c.CrossoverRate > 1 {
		mErr = multierror.Append(mErr, fmt.Errorf(
			"вероятность кроссовера должна быть в диапазоне [0,1] (получено %f)",
			c.CrossoverRate,
		))
	}
	if c.MutationRate < 0 || c.MutationRate > 1 {
		mErr = multierror.Append(mErr, fmt.Errorf(
			"вероятность мутации должна быть в диапазоне [0,1] (получено %f)",
			c.MutationRate,
		))
	}
	if c.StallGenerations < 0 {
		mErr = multierror.Append(mErr, fmt.Errorf(
			"число поколений без улучшения должно быть >= 0 (получено %d)",
			c.StallGenerations,
		))
	}
	if c.Workers <= 0 {
		mErr = multierror.Append(mErr, fmt.Errorf(
			"количество обработчиков должно быть > 0 (получено %d)",
			c.Workers,
		))
	}
	if c.CacheSize < 0 {
		mErr = multierror.Append(mErr, fmt.Errorf(
			"размер кэша должен быть >= 0 (получено %d)",
			c.CacheSize,
		))
	}
	if c.TimeBudget < 0 {
		mErr = multierror.Append(mErr, fmt.Errorf(
			"ограничение по времени должно быть >= 0 (получено %s)",
			c.TimeBudget,
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

func DefaultConfig() Config {
	return Config{
		Population:       150,
		Generations:      400,
		Elite:            4,
		TournamentSize:   5,
		CrossoverRate:    0.90,
		MutationRate:     0.15,
		StallGenerations: 0,
		Workers:          4,
		SeedWithDispatch: true,
		CacheSize:        4096,
		Objective:        jobshop.ObjectiveMakespan,
	}
}
