package dispatch

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"jobShop/internal/jobshop"
	"jobShop/internal/opt"
)

type Config struct {
	Rule      Rule
	Objective jobshop.Objective
}

func DefaultConfig() Config {
	return Config{
		Rule:      RuleSPT,
		Objective: jobshop.ObjectiveMakespan,
	}
}

func (c Config) Validate() error {
	var mErr *multierror.Error
	switch c.Rule {
	case RuleFIFO, RuleSPT, RuleLPT, RuleMWKR, RulePriority:
		// ok
	default:
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
