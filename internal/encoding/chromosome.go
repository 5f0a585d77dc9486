// Package encoding is the solution representation shared by the
// metaheuristics: an operation sequence plus a machine choice per task.
package encoding

import (
	"encoding/binary"
	"math/rand"
	"slices"

	"jobShop/internal/jobshop"
	"jobShop/internal/scaffold"
)

// Chromosome: решение в виде пары векторов.
// Seq содержит незафиксированные задачи в порядке диспетчеризации,
// Mach[task] — выбранный станок для задачи с глобальным индексом task.
type Chromosome struct {
	Seq  []int
	Mach []int
}

func (c Chromosome) Clone() Chromosome {
	return Chromosome{Seq: slices.Clone(c.Seq), Mach: slices.Clone(c.Mach)}
}

// CopyFrom копирует src в уже выделенные срезы c.
func (c Chromosome) CopyFrom(src Chromosome) {
	copy(c.Seq, src.Seq)
	copy(c.Mach, src.Mach)
}

// Key: компактный ключ для кэша приспособленности.
func (c Chromosome) Key() string {
	buf := make([]byte, 0, 2*(len(c.Seq)+len(c.Mach)))
	for _, v := range c.Seq {
		buf = binary.AppendUvarint(buf, uint64(v))
	}
	for _, v := range c.Mach {
		buf = binary.AppendUvarint(buf, uint64(v))
	}
	return string(buf)
}

// Codec переводит хромосомы в расписания для конкретного каркаса.
type Codec struct {
	sc *scaffold.Scaffold

	jobOf   []int
	pending [][]int // по работам: незафиксированные задачи в порядке предшествования
	open    []int   // работы, у которых есть незафиксированные задачи
	movable []int   // задачи, у которых больше одного подходящего станка
	length  int
}

func NewCodec(sc *scaffold.Scaffold) *Codec {
	inst := sc.Instance()
	c := &Codec{
		sc:      sc,
		jobOf:   make([]int, inst.NumTasks()),
		pending: make([][]int, inst.NumJobs()),
	}
	for j := range c.pending {
		for _, t := range sc.JobTasks(j) {
			c.jobOf[t] = j
			if sc.Locked(t) {
				continue
			}
			c.pending[j] = append(c.pending[j], t)
			c.length++
			if len(sc.Suitable(t)) > 1 {
				c.movable = append(c.movable, t)
			}
		}
		if len(c.pending[j]) > 0 {
			c.open = append(c.open, j)
		}
	}
	return c
}

func (c *Codec) Scaffold() *scaffold.Scaffold { return c.sc }

// Len: длина вектора последовательности.
func (c *Codec) Len() int { return c.length }

// New выделяет хромосому нужного размера.
func (c *Codec) New() Chromosome {
	return Chromosome{
		Seq:  make([]int, c.length),
		Mach: make([]int, len(c.jobOf)),
	}
}

// Random заполняет ch случайной допустимой последовательностью
// и случайным выбором станков.
func (c *Codec) Random(ch Chromosome, rng *rand.Rand) {
	// Мешок индексов работ: каждая работа встречается столько раз,
	// сколько у неё незафиксированных задач
	w := 0
	for _, j := range c.open {
		for range c.pending[j] {
			ch.Seq[w] = j
			w++
		}
	}
	for i := len(ch.Seq) - 1; i > 0; i-- {
		k := rng.Intn(i + 1)
		ch.Seq[i], ch.Seq[k] = ch.Seq[k], ch.Seq[i]
	}
	c.decodeJobs(ch.Seq)

	for t := range ch.Mach {
		suit := c.sc.Suitable(t)
		ch.Mach[t] = suit[rng.Intn(len(suit))]
	}
}

// decodeJobs заменяет k-е вхождение работы j на её k-ю задачу.
func (c *Codec) decodeJobs(seq []int) {
	next := make([]int, len(c.pending))
	for i, j := range seq {
		seq[i] = c.pending[j][next[j]]
		next[j]++
	}
}

// Repair восстанавливает порядок предшествования: позиции, занятые задачами
// одной работы, заполняются её задачами по порядку.
func (c *Codec) Repair(seq []int) {
	for i, t := range seq {
		seq[i] = c.jobOf[t]
	}
	c.decodeJobs(seq)
}

// FromSchedule кодирует готовое расписание: задачи по времени старта,
// станки из назначений.
func (c *Codec) FromSchedule(s *jobshop.Schedule) Chromosome {
	ch := c.New()
	as := s.Assignments()
	slices.SortStableFunc(as, func(a, b jobshop.Assignment) int {
		return a.Start - b.Start
	})
	w := 0
	for _, a := range as {
		ch.Mach[a.Task] = a.Machine
		if !c.sc.Locked(a.Task) {
			ch.Seq[w] = a.Task
			w++
		}
	}
	for t := range ch.Mach {
		if !s.Assigned(t) {
			ch.Mach[t] = c.sc.Suitable(t)[0]
		}
	}
	c.Repair(ch.Seq[:w])
	return ch
}

// Decode строит расписание по хромосоме.
func (c *Codec) Decode(ch Chromosome) (*jobshop.Schedule, error) {
	return c.sc.Decode(ch.Seq, ch.Mach)
}
