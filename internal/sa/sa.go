package sa

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/hashicorp/go-hclog"

	"jobShop/internal/dispatch"
	"jobShop/internal/encoding"
	"jobShop/internal/jobshop"
	"jobShop/internal/opt"
	"jobShop/internal/scaffold"
)

// Solver - структура реализации алгоритма имитации отжига
type Solver struct {
	Cfg    Config
	Rng    *rand.Rand
	Logger hclog.Logger
}

// New возвращает новый SA-солвер с валидацией конфигурации, с использованием инициализированного генератора случайных чисел.
// Используется в фабриках.
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
	return &Solver{Cfg: cfg, Rng: rng, Logger: logger.Named("sa")}, nil
}

func (s *Solver) Solve(ctx context.Context, inst *jobshop.Instance) (opt.Result, error) {
	sc, err := scaffold.New(inst)
	if err != nil {
		return opt.Result{}, err
	}
	return s.SolveWith(ctx, sc)
}

// SolveWith — реализация эвристики.
func (s *Solver) SolveWith(ctx context.Context, sc *scaffold.Scaffold) (opt.Result, error) {
	start := time.Now()

	if err := s.Cfg.Validate(); err != nil {
		return opt.Result{}, err
	}
	ctx, cancel := opt.Deadline(ctx, s.Cfg.TimeBudget)
	defer cancel()

	codec := encoding.NewCodec(sc)
	cost := func(ch encoding.Chromosome) (int, int, error) {
		sched, err := codec.Decode(ch)
		if err != nil {
			return 0, 0, fmt.Errorf("%w: %w", scaffold.ErrInternal, err)
		}
		return sc.Score(s.Cfg.Objective, sched), jobshop.Makespan(sched), nil
	}

	maxIter := s.Cfg.Iterations
	if maxIter <= 0 {
		maxIter = s.Cfg.IterationsPerTask * max(1, codec.Len())
	}

	// Текущее и кандидатное решения
	curr := codec.New()
	cand := codec.New()

	// Инициализация текущего решения
	if s.Cfg.SeedWithDispatch {
		sched, err := dispatch.Build(sc, dispatch.RuleSPT)
		if err != nil {
			return opt.Result{}, err
		}
		curr.CopyFrom(codec.FromSchedule(sched))
	} else {
		codec.Random(curr, s.Rng)
	}

	currCost, currMs, err := cost(curr)
	if err != nil {
		return opt.Result{}, err
	}
	bestCost, bestMs := currCost, currMs
	best := curr.Clone()

	evals := 1
	T := s.Cfg.InitialTemp
	stopped := false

	iter := 0
	for ; iter < maxIter && T > s.Cfg.FinalTemp; iter++ {
		// Для поддержки отмены через context
		if ctx.Err() != nil {
			stopped = true
			break
		}

		cand.CopyFrom(curr)
		s.neighbor(codec, cand)

		candCost, candMs, err := cost(cand)
		if err != nil {
			return opt.Result{}, err
		}
		evals++

		delta := candCost - currCost
		accept := false
		if delta <= 0 {
			// Улучшающее решение принимаем всегда
			accept = true
		} else {
			// Критерий Метрополиса:
			// допускает принятие ухудшающих решений
			p := math.Exp(-float64(delta) / T)
			if s.Rng.Float64() < p {
				accept = true
			}
		}

		if accept {
			// Обмен ролей текущего и кандидатного решений
			curr, cand = cand, curr
			currCost, currMs = candCost, candMs

			// Обновление глобально лучшего решения
			if opt.Better(currCost, currMs, bestCost, bestMs) {
				bestCost, bestMs = currCost, currMs
				best.CopyFrom(curr)
			}
		}

		// Охлаждение температуры
		T *= s.Cfg.Alpha
	}

	sched, err := codec.Decode(best)
	if err != nil {
		return opt.Result{}, fmt.Errorf("%w: %w", scaffold.ErrInternal, err)
	}
	s.Logger.Debug("annealing finished", "iterations", iter, "score", bestCost, "temperature", T, "stopped", stopped)

	return opt.Finish("sa", sc, opt.Result{
		Schedule:    sched,
		Objective:   s.Cfg.Objective,
		Evaluations: evals,
		Iterations:  iter,
		Stopped:     stopped,
		Meta: map[string]any{
			"initial_temp": s.Cfg.InitialTemp,
			"final_temp":   s.Cfg.FinalTemp,
			"alpha":        s.Cfg.Alpha,
			"neighborhood": string(s.Cfg.Neighborhood),
			"T":            T,
		},
	}, start)
}

// neighbor формирует соседнее решение согласно выбранной окрестности.
func (s *Solver) neighbor(codec *encoding.Codec, ch encoding.Chromosome) {
	nb := s.Cfg.Neighborhood
	if nb == NeighborhoodMixed {
		nb = []Neighborhood{NeighborhoodSwap, NeighborhoodInsert, NeighborhoodMachine}[s.Rng.Intn(3)]
	}
	switch nb {
	case NeighborhoodInsert:
		// Окрестность на основе вставки задачи в другую позицию
		codec.MutateInsert(ch.Seq, s.Rng)
	case NeighborhoodMachine:
		// Перенос задачи на другой подходящий станок
		if codec.MutateMachine(ch.Mach, s.Rng) < 0 {
			codec.MutateSwap(ch.Seq, s.Rng)
		}
	default:
		// Окрестность на основе обмена двух задач
		codec.MutateSwap(ch.Seq, s.Rng)
	}
}
