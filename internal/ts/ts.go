package ts

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/hashicorp/go-hclog"

	"jobShop/internal/dispatch"
	"jobShop/internal/encoding"
	"jobShop/internal/jobshop"
	"jobShop/internal/opt"
	"jobShop/internal/scaffold"
)

// Solver - структура реализации поиска с запретами.
type Solver struct {
	Cfg    Config
	Rng    *rand.Rand
	Logger hclog.Logger
}

// New возвращает новый TS-солвер с валидацией конфигурации, с использованием инициализированного генератора случайных чисел.
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
	return &Solver{Cfg: cfg, Rng: rng, Logger: logger.Named("ts")}, nil
}

func (s *Solver) Solve(ctx context.Context, inst *jobshop.Instance) (opt.Result, error) {
	sc, err := scaffold.New(inst)
	if err != nil {
		return opt.Result{}, err
	}
	return s.SolveWith(ctx, sc)
}

// move: ход окрестности.
// Для хода по последовательности task перемещается из позиции from в to,
// для хода по станку task переназначается со станка from на станок to.
type move struct {
	machine  bool
	task     int
	from, to int
}

func (m move) key() uint64 {
	if m.machine {
		return machineKey(m.task, m.to)
	}
	return moveKey(m.task, m.from, m.to)
}

// reverse: ключ обратного хода, который заносится в табу-список.
func (m move) reverse() uint64 {
	if m.machine {
		return machineKey(m.task, m.from)
	}
	return moveKey(m.task, m.to, m.from)
}

// SolveWith: основной цикл алгоритма
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

	n := codec.Len()

	maxIter := s.Cfg.Iterations
	if maxIter <= 0 {
		maxIter = s.Cfg.IterationsPerTask * max(1, n)
	}

	// Текущее и кандидатное решения
	curr := codec.New()
	cand := codec.New()
	// Лучший сосед текущей итерации
	next := codec.New()

	// Инициализация начального решения
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
	evals := 1

	// Глобально лучшее решение
	best := curr.Clone()
	bestCost, bestMs := currCost, currMs

	// Табу-список - кольцевой буфер с мапой
	// Ёмкость выбирается с запасом относительно длины табу
	tabu := newTabuList(max(32, (s.Cfg.TabuTenure+s.Cfg.TabuTenureRand)*4))

	iter, stopped := 0, false
	for ; iter < maxIter; iter++ {
		// Для поддержки отмены через context
		if ctx.Err() != nil {
			stopped = true
			break
		}

		// Лучший допустимый ход
		var chosen move
		found := false
		chosenCost, chosenMs := 0, 0

		// Запасной ход (лучший без учёта табу),
		// используется если все допустимые ходы табуированы
		var fallback move
		hasFallback := false
		fallbackCost, fallbackMs := 0, 0

		// Итерация по случайно сгенерированным соседям
		for k := 0; k < s.Cfg.NeighborsPerIter; k++ {
			cand.CopyFrom(curr)
			mv, ok := s.sample(codec, curr, cand)
			if !ok {
				continue
			}

			c, ms, err := cost(cand)
			if err != nil {
				return opt.Result{}, err
			}
			evals++

			// Обновление запасного хода
			if !hasFallback || opt.Better(c, ms, fallbackCost, fallbackMs) {
				fallback, fallbackCost, fallbackMs = mv, c, ms
				hasFallback = true
				if !found {
					next.CopyFrom(cand)
				}
			}

			isTabu := tabu.IsTabu(mv.key(), iter)
			aspiration := opt.Better(c, ms, bestCost, bestMs) // критерий аспирации

			// Табуированный ход пропускается,
			// если не выполняется критерий аспирации
			if isTabu && !aspiration {
				continue
			}

			if !found || opt.Better(c, ms, chosenCost, chosenMs) {
				chosen, chosenCost, chosenMs = mv, c, ms
				found = true
				next.CopyFrom(cand)
			}
		}

		// Выбор хода: сначала допустимый лучший, иначе запасной
		if !found {
			// Нет допустимых ходов, завершаем поиск
			if !hasFallback {
				break
			}
			chosen, chosenCost, chosenMs = fallback, fallbackCost, fallbackMs
		}

		// Применение выбранного хода
		curr, next = next, curr
		currCost, currMs = chosenCost, chosenMs

		// Добавление обратного хода в табу-список
		tenure := s.Cfg.TabuTenure
		if s.Cfg.TabuTenureRand > 0 {
			tenure += s.Rng.Intn(s.Cfg.TabuTenureRand + 1)
		}
		tabu.Add(chosen.reverse(), iter+tenure)

		// Обновление глобально лучшего решения
		if opt.Better(currCost, currMs, bestCost, bestMs) {
			bestCost, bestMs = currCost, currMs
			best.CopyFrom(curr)
		}
	}

	sched, err := codec.Decode(best)
	if err != nil {
		return opt.Result{}, fmt.Errorf("%w: %w", scaffold.ErrInternal, err)
	}
	s.Logger.Debug("search finished", "iterations", iter, "score", bestCost, "makespan", bestMs, "stopped", stopped)

	return opt.Finish("ts", sc, opt.Result{
		Schedule:    sched,
		Objective:   s.Cfg.Objective,
		Evaluations: evals,
		Iterations:  iter,
		Stopped:     stopped,
		Meta: map[string]any{
			"tabu_tenure":        s.Cfg.TabuTenure,
			"tabu_tenure_rand":   s.Cfg.TabuTenureRand,
			"neighbors_per_iter": s.Cfg.NeighborsPerIter,
			"neighborhood":       string(s.Cfg.Neighborhood),
		},
	}, start)
}

// sample применяет к ch (копии curr) случайный ход и возвращает его описание.
// false означает, что ход построить не удалось.
func (s *Solver) sample(codec *encoding.Codec, curr, ch encoding.Chromosome) (move, bool) {
	n := len(ch.Seq)
	if n < 2 || s.Rng.Float64() < s.Cfg.MachineMoveRate {
		t := codec.MutateMachine(ch.Mach, s.Rng)
		if t >= 0 {
			return move{machine: true, task: t, from: curr.Mach[t], to: ch.Mach[t]}, true
		}
		if n < 2 {
			return move{}, false
		}
	}

	from := s.Rng.Intn(n)
	to := s.Rng.Intn(n - 1)
	if to >= from {
		to++
	}
	task := ch.Seq[from]
	switch s.Cfg.Neighborhood {
	case NeighborhoodSwap:
		ch.Seq[from], ch.Seq[to] = ch.Seq[to], ch.Seq[from]
	default:
		encoding.Insert(ch.Seq, from, to)
	}
	codec.Repair(ch.Seq)
	return move{task: task, from: from, to: to}, true
}

// tabuList: структура табу-списка.
// Реализована как кольцевой буфер фиксированного размера
// с map для быстрой проверки табуированности.
type tabuList struct {
	m   map[uint64]int // ключ → итерация истечения табу
	key []uint64       // кольцевой буфер ключей
	exp []int          // соответствующие сроки истечения
	i   int            // текущая позиция в кольце
}

// newTabuList создаёт табу-список заданной ёмкости.
func newTabuList(capacity int) *tabuList {
	capacity = max(capacity, 8)
	return &tabuList{
		m:   make(map[uint64]int, capacity*2),
		key: make([]uint64, capacity),
		exp: make([]int, capacity),
	}
}

// IsTabu проверяет, является ли ход табуированным на текущей итерации.
func (t *tabuList) IsTabu(k uint64, iter int) bool {
	exp, ok := t.m[k]
	return ok && exp > iter
}

// Add добавляет новый табу-ход с указанием итерации истечения.
func (t *tabuList) Add(k uint64, expiry int) {
	// Удаление старого элемента из кольцевого буфера
	oldK := t.key[t.i]
	if oldK != 0 {
		if curExp, ok := t.m[oldK]; ok && curExp == t.exp[t.i] {
			delete(t.m, oldK)
		}
	}

	t.key[t.i] = k
	t.exp[t.i] = expiry
	t.m[k] = expiry

	t.i = (t.i + 1) % len(t.key)
}

// keyBits: ширина поля ключа. Ключи уникальны для индексов и позиций
// меньше 1<<keyBits; большие значения обрезаются по маске и могут
// совпасть, что лишь делает ход табу раньше времени.
const (
	keyBits = 20
	keyMask = 1<<keyBits - 1
)

// moveKey формирует ключ хода по последовательности; бит 62 отмечает
// такие ключи, поэтому ключ никогда не равен нулю.
func moveKey(task, from, to int) uint64 {
	return 1<<62 |
		uint64(task&keyMask)<<(2*keyBits) |
		uint64(from&keyMask)<<keyBits |
		uint64(to&keyMask)
}

// machineKey формирует ключ пары (задача, станок); старший бит отличает его от moveKey.
func machineKey(task, machine int) uint64 {
	return 1<<63 | uint64(task&keyMask)<<keyBits | uint64(machine&keyMask)
}
