package ga

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"slices"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-hclog"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"jobShop/internal/dispatch"
	"jobShop/internal/encoding"
	"jobShop/internal/jobshop"
	"jobShop/internal/opt"
	"jobShop/internal/scaffold"
)

// Solver — реализация генетического алгоритма для гибкой задачи job-shop.
type Solver struct {
	Cfg    Config
	Rng    *rand.Rand
	Logger hclog.Logger
}

// New возвращает новый GA-солвер с валидацией конфигурации, с использованием инициализированного генератора случайных чисел.
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
	return &Solver{Cfg: cfg, Rng: rng, Logger: logger.Named("ga")}, nil
}

func (s *Solver) Solve(ctx context.Context, inst *jobshop.Instance) (opt.Result, error) {
	sc, err := scaffold.New(inst)
	if err != nil {
		return opt.Result{}, err
	}
	return s.SolveWith(ctx, sc)
}

// SolveWith — основной цикл алгоритма.
func (s *Solver) SolveWith(ctx context.Context, sc *scaffold.Scaffold) (opt.Result, error) {
	start := time.Now()

	if err := s.Cfg.Validate(); err != nil {
		return opt.Result{}, err
	}
	ctx, cancel := opt.Deadline(ctx, s.Cfg.TimeBudget)
	defer cancel()

	codec := encoding.NewCodec(sc)
	ev, err := newEvaluator(sc, codec, s.Cfg)
	if err != nil {
		return opt.Result{}, err
	}
	popSize := s.Cfg.Population

	makePop := func() []encoding.Chromosome {
		pop := make([]encoding.Chromosome, popSize)
		for i := range pop {
			pop[i] = codec.New()
		}
		return pop
	}

	// Две популяции: текущая (A) и следующая (B)
	popA := makePop()
	popB := makePop()
	scoresA := make([]fitness, popSize)
	scoresB := make([]fitness, popSize)

	// Инициализация начальной популяции
	seeded := 0
	if s.Cfg.SeedWithDispatch {
		if seeded, err = seedDispatch(sc, codec, popA); err != nil {
			return opt.Result{}, err
		}
	}
	for i := seeded; i < popSize; i++ {
		codec.Random(popA[i], s.Rng)
	}
	if err := ev.evaluate(popA, scoresA); err != nil {
		return opt.Result{}, err
	}

	// Поиск лучшего решения в начальной популяции
	bestIdx := 0
	for i := 1; i < popSize; i++ {
		if scoresA[i].better(scoresA[bestIdx]) {
			bestIdx = i
		}
	}
	best := popA[bestIdx].Clone()
	bestFit := scoresA[bestIdx]

	// Массивы для кроссовера:
	// mark и stamp используются для отметки уже включённых задач
	mark := make([]int, sc.Instance().NumTasks())
	stamp := 0

	// Временный буфер для второго потомка,
	// если в популяции остаётся нечётное число мест
	scratchChild := codec.New()

	// Индексы для сортировки популяции по приспособленности
	idxs := make([]int, popSize)
	for i := range idxs {
		idxs[i] = i
	}

	gen, stall, stopped := 0, 0, false
	for ; gen < s.Cfg.Generations; gen++ {
		// Для поддержки отмены через context
		if ctx.Err() != nil {
			stopped = true
			break
		}

		// Сортировка индексов по возрастанию значения целевой функции
		slices.SortStableFunc(idxs, func(a, b int) int {
			return compareFitness(scoresA[a], scoresA[b])
		})

		write := 0

		// Элитизм (переносим лучших особей без изменений)
		for e := 0; e < s.Cfg.Elite; e++ {
			src := idxs[e]
			popB[write].CopyFrom(popA[src])
			scoresB[write] = scoresA[src]
			write++
		}
		firstChild := write

		// Генерация остальных особей нового поколения
		for write < popSize {
			// Турнирный отбор
			p1 := tournamentSelect(scoresA, s.Cfg.TournamentSize, s.Rng)
			p2 := secondParent(scoresA, s.Cfg.TournamentSize, p1, s.Rng)

			child1 := popB[write]
			hasSecond := write+1 < popSize
			child2 := scratchChild
			if hasSecond {
				child2 = popB[write+1]
			}

			s.breed(codec, popA[p1], popA[p2], child1, child2, mark, &stamp)

			write++
			if hasSecond {
				write++
			}
		}

		// Оценка потомков (параллельно, генератор не используется)
		if err := ev.evaluate(popB[firstChild:], scoresB[firstChild:]); err != nil {
			return opt.Result{}, err
		}

		improved := false
		for i := firstChild; i < popSize; i++ {
			if scoresB[i].better(bestFit) {
				bestFit = scoresB[i]
				best.CopyFrom(popB[i])
				improved = true
			}
		}

		// Смена поколений
		popA, popB = popB, popA
		scoresA, scoresB = scoresB, scoresA

		if improved {
			stall = 0
			s.Logger.Trace("improved", "generation", gen, "score", bestFit.score, "makespan", bestFit.makespan)
			continue
		}
		stall++
		if s.Cfg.StallGenerations > 0 && stall >= s.Cfg.StallGenerations {
			gen++
			break
		}
	}

	sched, err := codec.Decode(best)
	if err != nil {
		return opt.Result{}, fmt.Errorf("%w: %w", scaffold.ErrInternal, err)
	}

	s.Logger.Debug("search finished",
		"generations", gen, "score", bestFit.score, "makespan", bestFit.makespan,
		"decodes", ev.decodes.Load(), "cache_hits", ev.hits.Load(), "stopped", stopped)

	return opt.Finish("ga", sc, opt.Result{
		Schedule:    sched,
		Objective:   s.Cfg.Objective,
		Evaluations: int(ev.decodes.Load() + ev.hits.Load()),
		Iterations:  gen,
		Stopped:     stopped,
		Meta: map[string]any{
			"population":  s.Cfg.Population,
			"generations": s.Cfg.Generations,
			"elite":       s.Cfg.Elite,
			"decodes":     ev.decodes.Load(),
			"cache_hits":  ev.hits.Load(),
			"stall":       stall,
		},
	}, start)
}

// seedDispatch кладёт в начало популяции решения детерминированных правил.
func seedDispatch(sc *scaffold.Scaffold, codec *encoding.Codec, pop []encoding.Chromosome) (int, error) {
	n := 0
	for _, rule := range dispatch.Rules() {
		if n >= len(pop) {
			break
		}
		sched, err := dispatch.Build(sc, rule)
		if err != nil {
			return 0, err
		}
		pop[n].CopyFrom(codec.FromSchedule(sched))
		n++
	}
	return n, nil
}

// evaluator декодирует хромосомы параллельно и кэширует приспособленность.
type evaluator struct {
	sc      *scaffold.Scaffold
	codec   *encoding.Codec
	obj     jobshop.Objective
	workers int
	cache   *lru.Cache[string, fitness]

	decodes atomic.Int64
	hits    atomic.Int64
}

func newEvaluator(sc *scaffold.Scaffold, codec *encoding.Codec, cfg Config) (*evaluator, error) {
	ev := &evaluator{sc: sc, codec: codec, obj: cfg.Objective, workers: cfg.Workers}
	if cfg.CacheSize > 0 {
		cache, err := lru.New[string, fitness](cfg.CacheSize)
		if err != nil {
			return nil, err
		}
		ev.cache = cache
	}
	return ev, nil
}

func (e *evaluator) evaluate(pop []encoding.Chromosome, out []fitness) error {
	var g errgroup.Group
	g.SetLimit(e.workers)
	for i := range pop {
		g.Go(func() error {
			f, err := e.fitness(pop[i])
			out[i] = f
			return err
		})
	}
	return g.Wait()
}

func (e *evaluator) fitness(ch encoding.Chromosome) (fitness, error) {
	var key string
	if e.cache != nil {
		key = ch.Key()
		if f, ok := e.cache.Get(key); ok {
			e.hits.Add(1)
			return f, nil
		}
	}
	sched, err := e.codec.Decode(ch)
	if err != nil {
		return fitness{}, fmt.Errorf("%w: %w", scaffold.ErrInternal, err)
	}
	e.decodes.Add(1)
	f := fitness{score: e.sc.Score(e.obj, sched), makespan: jobshop.Makespan(sched)}
	if e.cache != nil {
		e.cache.Add(key, f)
	}
	return f, nil
}
