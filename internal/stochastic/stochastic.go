// Package stochastic реализует многократную рандомизированную
// диспетчеризацию с выбором лучшего результата.
package stochastic

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"

	"jobShop/internal/dispatch"
	"jobShop/internal/jobshop"
	"jobShop/internal/opt"
	"jobShop/internal/scaffold"
)

// Solver: стохастический солвер: независимые испытания,
// каждое со своим генератором случайных чисел.
type Solver struct {
	Cfg    Config
	Rng    *rand.Rand
	Logger hclog.Logger
}

// New возвращает новый стохастический солвер с валидацией конфигурации.
func New(cfg Config, rng *rand.Rand, logger hclog.Logger) (*Solver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, errors.New("генератор случайных чисел не инициализирован (nil)")
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Solver{Cfg: cfg, Rng: rng, Logger: logger.Named("stochastic")}, nil
}

func (s *Solver) Solve(ctx context.Context, inst *jobshop.Instance) (opt.Result, error) {
	sc, err := scaffold.New(inst)
	if err != nil {
		return opt.Result{}, err
	}
	return s.SolveWith(ctx, sc)
}

type trialResult struct {
	sched    *jobshop.Schedule
	score    int
	makespan int
	done     bool
}

func (s *Solver) SolveWith(ctx context.Context, sc *scaffold.Scaffold) (opt.Result, error) {
	start := time.Now()

	if err := s.Cfg.Validate(); err != nil {
		return opt.Result{}, err
	}

	ctx, cancel := opt.Deadline(ctx, s.Cfg.TimeBudget)
	defer cancel()

	// Сиды испытаний берутся последовательно до запуска,
	// поэтому результат не зависит от числа обработчиков
	seeds := make([]int64, s.Cfg.Trials)
	for i := range seeds {
		seeds[i] = s.Rng.Int63()
	}

	results := make([]trialResult, s.Cfg.Trials)
	var g errgroup.Group
	g.SetLimit(s.Cfg.Workers)
	for i, seed := range seeds {
		g.Go(func() error {
			// Первое испытание выполняется всегда
			if i > 0 && ctx.Err() != nil {
				return nil
			}
			sched, err := s.trial(sc, rand.New(rand.NewSource(seed)))
			if err != nil {
				return fmt.Errorf("испытание %d: %w", i, err)
			}
			results[i] = trialResult{
				sched:    sched,
				score:    sc.Score(s.Cfg.Objective, sched),
				makespan: jobshop.Makespan(sched),
				done:     true,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return opt.Result{}, err
	}

	best, completed := -1, 0
	for i, r := range results {
		if !r.done {
			continue
		}
		completed++
		if best < 0 || opt.Better(r.score, r.makespan, results[best].score, results[best].makespan) {
			best = i
		}
	}

	stopped := completed < s.Cfg.Trials
	s.Logger.Debug("trials finished",
		"completed", completed, "trials", s.Cfg.Trials, "best_trial", best,
		"score", results[best].score, "stopped", stopped)

	return opt.Finish("stochastic", sc, opt.Result{
		Schedule:    results[best].sched,
		Objective:   s.Cfg.Objective,
		Evaluations: completed,
		Iterations:  completed,
		Stopped:     stopped,
		Meta: map[string]any{
			"trials":     s.Cfg.Trials,
			"best_trial": best,
			"rule":       string(s.Cfg.Rule),
			"bias":       s.Cfg.Bias,
		},
	}, start)
}

// trial строит одно расписание с собственным генератором.
func (s *Solver) trial(sc *scaffold.Scaffold, rng *rand.Rand) (*jobshop.Schedule, error) {
	sched := sc.NewSchedule()
	err := dispatch.Construct(sc, sched, s.chooser(rng), placer(sc, rng))
	if err != nil {
		return nil, err
	}
	return sched, nil
}

// chooser: взвешенный случайный выбор кандидата.
// Вес кандидата (1/(1+Δ))^Bias, где Δ есть отставание его ключа от лучшего.
func (s *Solver) chooser(rng *rand.Rand) dispatch.Chooser {
	rule := s.Cfg.Rule
	greedy := dispatch.Greedy(rule)
	weights := make([]float64, 0, 16)

	return func(cands []dispatch.Candidate) int {
		lead := cands[greedy(cands)]
		minKey := rule.Key(lead)

		weights = weights[:0]
		total := 0.0
		for _, c := range cands {
			w := 0.0
			switch {
			case s.Cfg.RandomizeTasks:
				w = math.Pow(1/float64(1+rule.Key(c)-minKey), s.Cfg.Bias)
			case rule.Compare(c, lead) == 0:
				w = 1
			}
			weights = append(weights, w)
			total += w
		}

		r := rng.Float64() * total
		for i, w := range weights {
			if r < w {
				return i
			}
			r -= w
		}
		// Погрешность округления: последний кандидат с ненулевым весом
		for i := len(weights) - 1; i >= 0; i-- {
			if weights[i] > 0 {
				return i
			}
		}
		return 0
	}
}

// placer выбирает станок с наименьшим временем завершения,
// равные варианты разыгрываются равновероятно.
func placer(sc *scaffold.Scaffold, rng *rand.Rand) dispatch.Placer {
	return func(sched *jobshop.Schedule, task int) (jobshop.Assignment, error) {
		best, bestStart, bestEnd, ties := -1, 0, 0, 0
		for _, m := range sc.Suitable(task) {
			st, err := sc.EarliestStart(sched, task, m)
			if err != nil {
				return jobshop.Assignment{}, err
			}
			end := st + sc.Duration(task)
			switch {
			case best < 0 || end < bestEnd:
				best, bestStart, bestEnd, ties = m, st, end, 1
			case end == bestEnd:
				ties++
				if rng.Intn(ties) == 0 {
					best, bestStart = m, st
				}
			}
		}
		return sched.Assign(task, best, bestStart)
	}
}
