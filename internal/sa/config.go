package sa

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"

	"jobShop/internal/jobshop"
	"jobShop/internal/opt"
)

// Тип окрестности
type Neighborhood string

const (
	NeighborhoodSwap    Neighborhood = "swap"
	NeighborhoodInsert  Neighborhood = "insert"
	NeighborhoodMachine Neighborhood = "machine"
	// NeighborhoodMixed — случайный выбор одной из трёх окрестностей на каждой итерации.
	NeighborhoodMixed Neighborhood = "mixed"
)

type Config struct {
	Iterations        int
	IterationsPerTask int

	InitialTemp float64
	FinalTemp   float64
	Alpha       float64

	Neighborhood Neighborhood

	SeedWithDispatch bool
	Objective        jobshop.Objective
	TimeBudget       time.Duration
}

func DefaultConfig() Config {
	return Config{
		Iterations:        0,
		IterationsPerTask: 500,

		InitialTemp: 200.0,
		FinalTemp:   0.5,
		Alpha:       0.995,

		Neighborhood: NeighborhoodMixed,

		SeedWithDispatch: true,
		Objective:        jobshop.ObjectiveMakespan,
	}
}

func (c Config) Validate() error {
	var mErr *multierror.Error
	if c.Iterations <= 0 && c.IterationsPerTask <= 0 {
		mErr = multierror.Append(mErr, fmt.Errorf(
			"должно быть задано Iterations > 0 или IterationsPerTask > 0",
		))
	}
	if c.InitialTemp <= 0 {
		mErr = multierror.Append(mErr, fmt.Errorf(
			"InitialTemp должно быть > 0 (получено %f)",
			c.InitialTemp,
		))
	}
	if c.FinalTemp <= 0 {
		mErr = multierror.Append(mErr, fmt.Errorf(
			"FinalTemp должно быть > 0 (получено %f)",
			c.FinalTemp,
		))
	}
	if c.FinalTemp >= c.InitialTemp {
		mErr = multierror.Append(mErr, fmt.Errorf(
			"FinalTemp должно быть < InitialTemp (получено %f >= %f)",
			c.FinalTemp,
			c.InitialTemp,
		))
	}
	if c.Alpha <= 0 || c.Alpha >= 1 {
		mErr = multierror.Append(mErr, fmt.Errorf(
			"alpha должно лежать в интервале (0,1) (получено %f)",
			c.Alpha,
		))
	}
	switch c.Neighborhood {
	case NeighborhoodSwap, NeighborhoodInsert, NeighborhoodMachine, NeighborhoodMixed:
		// ok
	default:
		mErr = multierror.Append(mErr, fmt.Errorf(
			"неизвестный тип окрестности %q",
			c.Neighborhood,
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
