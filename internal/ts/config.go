package ts

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"

	"jobShop/internal/jobshop"
	"jobShop/internal/opt"
)

// Neighborhood определяет тип окрестности по последовательности.
type Neighborhood string

const (
	NeighborhoodInsert Neighborhood = "insert"
	NeighborhoodSwap   Neighborhood = "swap"
)

type Config struct {
	Iterations        int
	IterationsPerTask int

	TabuTenure int

	TabuTenureRand int

	NeighborsPerIter int

	Neighborhood Neighborhood

	// MachineMoveRate: доля соседей, получаемых переназначением станка.
	MachineMoveRate float64

	SeedWithDispatch bool
	Objective        jobshop.Objective
	TimeBudget       time.Duration
}

func DefaultConfig() Config {
	return Config{
		Iterations:        0,
		IterationsPerTask: 100,

		TabuTenure:     7,
		TabuTenureRand: 3,

		NeighborsPerIter: 40,
		Neighborhood:     NeighborhoodInsert,
		MachineMoveRate:  0.3,

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
	if c.TabuTenure <= 0 {
		mErr = multierror.Append(mErr, fmt.Errorf(
			"TabuTenure должно быть > 0 (получено %d)",
			c.TabuTenure,
		))
	}
	if c.TabuTenureRand < 0 {
		mErr = multierror.Append(mErr, fmt.Errorf(
			"TabuTenureRand должно быть >= 0 (получено %d)",
			c.TabuTenureRand,
		))
	}
	if c.NeighborsPerIter <= 0 {
		mErr = multierror.Append(mErr, fmt.Errorf(
			"NeighborsPerIter должно быть > 0 (получено %d)",
			c.NeighborsPerIter,
		))
	}
	switch c.Neighborhood {
	case NeighborhoodInsert, NeighborhoodSwap:
		// ok
	default:
		mErr = multierror.Append(mErr, fmt.Errorf(
			"неизвестный тип окрестности %q",
			c.Neighborhood,
		))
	}
	if c.MachineMoveRate < 0 || c.MachineMoveRate > 1 {
		mErr = multierror.Append(mErr, fmt.Errorf(
			"MachineMoveRate должно лежать в [0,1] (получено %f)",
			c.MachineMoveRate,
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
