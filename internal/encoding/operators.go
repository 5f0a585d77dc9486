package encoding

import "math/rand"

// OrderCrossover реализует оператор Order Crossover над последовательностями
// с последующим восстановлением порядка предшествования.
// mark должен иметь длину не меньше числа задач экземпляра.
func (c *Codec) OrderCrossover(
	p1, p2, c1, c2 []int,
	rng *rand.Rand,
	mark []int,
	stamp *int,
) {
	n := len(p1)
	if n < 2 {
		copy(c1, p1)
		copy(c2, p2)
		return
	}

	// Выбор случайного отрезка [a, b)
	a := rng.Intn(n)
	b := rng.Intn(n)
	if a > b {
		a, b = b, a
	}
	if a == b {
		// Что бы длина сегмента не была 0
		b = (a + 1) % n
		if a > b {
			a, b = b, a
		}
	}

	oxChild(p1, p2, c1, a, b, mark, stamp)
	oxChild(p2, p1, c2, a, b, mark, stamp)

	c.Repair(c1)
	c.Repair(c2)
}

// oxChild: сегмент [a, b) из первого родителя, остальные позиции
// заполняются генами второго родителя, начиная с b.
func oxChild(p1, p2, child []int, a, b int, mark []int, stamp *int) {
	n := len(p1)
	for i := range child {
		child[i] = -1
	}

	*stamp++
	curStamp := *stamp

	for i := a; i < b; i++ {
		gene := p1[i]
		child[i] = gene
		mark[gene] = curStamp
	}

	pos := b % n
	for i := 0; i < n; i++ {
		gene := p2[(b+i)%n]
		if mark[gene] == curStamp {
			continue
		}
		for child[pos] != -1 {
			pos = (pos + 1) % n
		}
		child[pos] = gene
		mark[gene] = curStamp
	}
}

// UniformMachineCrossover обменивает выбор станка для каждой задачи с вероятностью 1/2.
func UniformMachineCrossover(p1, p2, c1, c2 []int, rng *rand.Rand) {
	for t := range p1 {
		if rng.Intn(2) == 0 {
			c1[t], c2[t] = p1[t], p2[t]
		} else {
			c1[t], c2[t] = p2[t], p1[t]
		}
	}
}

// MutateSwap меняет местами две позиции последовательности.
func (c *Codec) MutateSwap(seq []int, rng *rand.Rand) {
	if len(seq) < 2 {
		return
	}
	i := rng.Intn(len(seq))
	j := rng.Intn(len(seq) - 1)
	if j >= i {
		j++
	}
	seq[i], seq[j] = seq[j], seq[i]
	c.Repair(seq)
}

// MutateInsert извлекает задачу из позиции i и вставляет её в позицию j.
func (c *Codec) MutateInsert(seq []int, rng *rand.Rand) {
	n := len(seq)
	if n < 2 {
		return
	}
	i := rng.Intn(n)
	j := rng.Intn(n - 1)
	if j >= i {
		j++
	}
	Insert(seq, i, j)
	c.Repair(seq)
}

// Insert перемещает элемент из позиции from в позицию to.
func Insert(p []int, from, to int) {
	if from == to {
		return
	}
	val := p[from]
	if from < to {
		// Сдвиг элементов влево
		copy(p[from:to], p[from+1:to+1])
		p[to] = val
		return
	}
	// Сдвиг элементов вправо
	copy(p[to+1:from+1], p[to:from])
	p[to] = val
}

// MutateMachine переназначает случайную задачу на другой подходящий станок.
// Возвращает индекс задачи или -1, если переназначать нечего.
func (c *Codec) MutateMachine(mach []int, rng *rand.Rand) int {
	if len(c.movable) == 0 {
		return -1
	}
	t := c.movable[rng.Intn(len(c.movable))]
	suit := c.sc.Suitable(t)
	k := rng.Intn(len(suit) - 1)
	if suit[k] == mach[t] {
		k = len(suit) - 1
	}
	mach[t] = suit[k]
	return t
}
