// Package solvers selects and configures a solver by name from a flat set
// of options, as read from an options file or command-line assignments.
package solvers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"maps"
	"math/rand"
	"slices"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-set/v3"
	"gopkg.in/yaml.v3"

	"jobShop/internal/dispatch"
	"jobShop/internal/external"
	"jobShop/internal/ga"
	"jobShop/internal/jobshop"
	"jobShop/internal/opt"
	"jobShop/internal/sa"
	"jobShop/internal/stochastic"
	"jobShop/internal/ts"
)

// Options maps option keys to YAML scalar values.
type Options map[string]any

// params is the strict decoding target; nil means not given.
type params struct {
	PopulationSize   *int      `yaml:"population_size"`
	Generations      *int      `yaml:"generations"`
	MutationRate     *float64  `yaml:"mutation_rate"`
	CrossoverRate    *float64  `yaml:"crossover_rate"`
	Elitism          *bool     `yaml:"elitism"`
	Elite            *int      `yaml:"elite"`
	TournamentSize   *int      `yaml:"tournament_size"`
	StallGenerations *int      `yaml:"stall_generations"`
	RandomSeed       *int64    `yaml:"random_seed"`
	TimeBudget       *string   `yaml:"time_budget"`
	Workers          *int      `yaml:"workers"`
	Objective        *string   `yaml:"objective"`
	Rule             *string   `yaml:"rule"`
	Trials           *int      `yaml:"trials"`
	Bias             *float64  `yaml:"bias"`
	RandomizeTasks   *bool     `yaml:"randomize_tasks"`
	SeedWithDispatch *bool     `yaml:"seed_with_dispatch"`
	Iterations       *int      `yaml:"iterations"`
	InitialTemp      *float64  `yaml:"initial_temp"`
	FinalTemp        *float64  `yaml:"final_temp"`
	Alpha            *float64  `yaml:"alpha"`
	Neighborhood     *string   `yaml:"neighborhood"`
	TabuTenure       *int      `yaml:"tabu_tenure"`
	Neighbors        *int      `yaml:"neighbors"`
	MachineMoveRate  *float64  `yaml:"machine_move_rate"`
	CacheSize        *int      `yaml:"cache_size"`
	Command          *[]string `yaml:"command"`
}

var common = []string{"objective", "random_seed", "time_budget"}

// keys lists the options each solver accepts on top of the common ones.
var keys = map[string][]string{
	"dispatch": {
		"rule",
	},
	"stochastic": {
		"trials", "workers", "rule", "bias", "randomize_tasks",
	},
	"ga": {
		"population_size", "generations", "mutation_rate", "crossover_rate", "elitism", "elite",
		"tournament_size", "stall_generations", "workers", "seed_with_dispatch", "cache_size",
	},
	"sa": {
		"iterations", "initial_temp", "final_temp", "alpha", "neighborhood", "seed_with_dispatch",
	},
	"ts": {
		"iterations", "tabu_tenure", "neighbors", "neighborhood", "machine_move_rate", "seed_with_dispatch",
	},
	"external": {
		"command",
	},
}

// Names returns the registered solver names in sorted order.
func Names() []string {
	return slices.Sorted(maps.Keys(keys))
}

// LoadOptions reads a YAML mapping of options.
func LoadOptions(r io.Reader) (Options, error) {
	var opts Options
	if err := yaml.NewDecoder(r).Decode(&opts); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: options: %w", opt.ErrConfig, err)
	}
	if opts == nil {
		opts = Options{}
	}
	return opts, nil
}

// ParseAssignments turns key=value pairs into options. Values are parsed as
// YAML scalars, so "0.3" is a float and "true" a bool.
func ParseAssignments(kvs []string) (Options, error) {
	opts := make(Options, len(kvs))
	for _, kv := range kvs {
		k, v, ok := strings.Cut(kv, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("%w: %q is not a key=value pair", opt.ErrConfig, kv)
		}
		var val any
		if err := yaml.Unmarshal([]byte(v), &val); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", opt.ErrConfig, k, err)
		}
		opts[k] = val
	}
	return opts, nil
}

// Merge returns a copy of o overlaid with over.
func (o Options) Merge(over Options) Options {
	out := maps.Clone(o)
	if out == nil {
		out = Options{}
	}
	maps.Copy(out, over)
	return out
}

// Filter drops the keys that belong only to solvers other than name, so a
// single option set can drive several solvers. Keys no solver knows are
// kept for New to reject.
func Filter(name string, o Options) Options {
	own := set.From(append(slices.Clone(common), keys[name]...))
	out := make(Options, len(o))
	for k, v := range o {
		if own.Contains(k) || !known(k) {
			out[k] = v
		}
	}
	return out
}

func known(k string) bool {
	for _, ks := range keys {
		if slices.Contains(ks, k) {
			return true
		}
	}
	return false
}

func (o Options) decode() (params, error) {
	var p params
	if len(o) == 0 {
		return p, nil
	}
	raw, err := yaml.Marshal(map[string]any(o))
	if err != nil {
		return p, fmt.Errorf("%w: %w", opt.ErrConfig, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return p, fmt.Errorf("%w: %w", opt.ErrConfig, err)
	}
	return p, nil
}

// New builds the named solver. Unknown keys, keys the solver does not use
// and out-of-range values are all rejected with opt.ErrConfig.
func New(name string, opts Options, logger hclog.Logger) (opt.Optimizer, error) {
	allowed, ok := keys[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown solver %q (available: %s)",
			opt.ErrConfig, name, strings.Join(Names(), ", "))
	}
	p, err := opts.decode()
	if err != nil {
		return nil, err
	}
	accepted := set.From(append(slices.Clone(common), allowed...))
	for _, k := range slices.Sorted(maps.Keys(opts)) {
		if !accepted.Contains(k) {
			return nil, fmt.Errorf("%w: option %q does not apply to solver %q", opt.ErrConfig, k, name)
		}
	}

	obj := jobshop.ObjectiveMakespan
	if p.Objective != nil {
		if obj, err = jobshop.ParseObjective(*p.Objective); err != nil {
			return nil, fmt.Errorf("%w: %w", opt.ErrConfig, err)
		}
	}
	var budget time.Duration
	if p.TimeBudget != nil {
		if budget, err = time.ParseDuration(*p.TimeBudget); err != nil {
			return nil, fmt.Errorf("%w: time_budget: %w", opt.ErrConfig, err)
		}
	}
	seed := time.Now().UnixNano()
	if p.RandomSeed != nil {
		seed = *p.RandomSeed
	}
	rng := rand.New(rand.NewSource(seed))
	logger = nonNil(logger).With("solver", name)

	switch name {
	case "dispatch":
		cfg := dispatch.DefaultConfig()
		cfg.Objective = obj
		setRule(&cfg.Rule, p.Rule)
		return optimizer(dispatch.New(cfg, logger))

	case "stochastic":
		cfg := stochastic.DefaultConfig()
		cfg.Objective, cfg.TimeBudget = obj, budget
		setRule(&cfg.Rule, p.Rule)
		assign(&cfg.Trials, p.Trials)
		assign(&cfg.Workers, p.Workers)
		assign(&cfg.Bias, p.Bias)
		assign(&cfg.RandomizeTasks, p.RandomizeTasks)
		return optimizer(stochastic.New(cfg, rng, logger))

	case "ga":
		cfg := ga.DefaultConfig()
		cfg.Objective, cfg.TimeBudget = obj, budget
		assign(&cfg.Population, p.PopulationSize)
		assign(&cfg.Generations, p.Generations)
		assign(&cfg.MutationRate, p.MutationRate)
		assign(&cfg.CrossoverRate, p.CrossoverRate)
		assign(&cfg.Elite, p.Elite)
		assign(&cfg.TournamentSize, p.TournamentSize)
		assign(&cfg.StallGenerations, p.StallGenerations)
		assign(&cfg.Workers, p.Workers)
		assign(&cfg.SeedWithDispatch, p.SeedWithDispatch)
		assign(&cfg.CacheSize, p.CacheSize)
		if p.Elitism != nil && !*p.Elitism {
			if p.Elite != nil && *p.Elite > 0 {
				return nil, fmt.Errorf("%w: elitism=false conflicts with elite=%d", opt.ErrConfig, *p.Elite)
			}
			cfg.Elite = 0
		}
		if p.Elitism != nil && *p.Elitism && cfg.Elite < 1 {
			return nil, fmt.Errorf("%w: elitism=true requires elite >= 1", opt.ErrConfig)
		}
		return optimizer(ga.New(cfg, rng, logger))

	case "sa":
		cfg := sa.DefaultConfig()
		cfg.Objective, cfg.TimeBudget = obj, budget
		assign(&cfg.Iterations, p.Iterations)
		assign(&cfg.InitialTemp, p.InitialTemp)
		assign(&cfg.FinalTemp, p.FinalTemp)
		assign(&cfg.Alpha, p.Alpha)
		assign(&cfg.SeedWithDispatch, p.SeedWithDispatch)
		if p.Neighborhood != nil {
			cfg.Neighborhood = sa.Neighborhood(*p.Neighborhood)
		}
		return optimizer(sa.New(cfg, rng, logger))

	case "ts":
		cfg := ts.DefaultConfig()
		cfg.Objective, cfg.TimeBudget = obj, budget
		assign(&cfg.Iterations, p.Iterations)
		assign(&cfg.TabuTenure, p.TabuTenure)
		assign(&cfg.NeighborsPerIter, p.Neighbors)
		assign(&cfg.MachineMoveRate, p.MachineMoveRate)
		assign(&cfg.SeedWithDispatch, p.SeedWithDispatch)
		if p.Neighborhood != nil {
			cfg.Neighborhood = ts.Neighborhood(*p.Neighborhood)
		}
		return optimizer(ts.New(cfg, rng, logger))

	case "external":
		if p.Command == nil || len(*p.Command) == 0 {
			return nil, fmt.Errorf("%w: external solver requires command", opt.ErrConfig)
		}
		argv := *p.Command
		return optimizer(external.New(external.Command{Path: argv[0], Args: argv[1:]}, obj, logger))
	}
	return nil, fmt.Errorf("%w: unknown solver %q", opt.ErrConfig, name)
}

func assign[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func setRule(dst *dispatch.Rule, v *string) {
	if v != nil {
		*dst = dispatch.Rule(*v)
	}
}

// optimizer keeps a failed constructor from yielding a non-nil interface
// around a nil solver.
func optimizer[T opt.Optimizer](s T, err error) (opt.Optimizer, error) {
	if err != nil {
		return nil, err
	}
	return s, nil
}

func nonNil(l hclog.Logger) hclog.Logger {
	if l == nil {
		return hclog.NewNullLogger()
	}
	return l
}
