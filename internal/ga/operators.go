package ga

import (
	"math/rand"

	"jobShop/internal/encoding"
)

// tournamentSelect реализует турнирный отбор.
// возвращается индекс особи с наилучшим значением fitness (минимальное значение целевой функции).
func tournamentSelect(scores []fitness, tournamentSize int, rng *rand.Rand) int {
	best := rng.Intn(len(scores))
	for i := 1; i < tournamentSize; i++ {
		cand := rng.Intn(len(scores))
		if scores[cand].better(scores[best]) {
			best = cand
		}
	}
	return best
}

// maxParentRetries ограничивает число повторных турниров за второго родителя.
const maxParentRetries = 8

// secondParent выбирает второго родителя, отличного от p1. Если турниры
// раз за разом возвращают p1 (например, единственную лучшую особь),
// берётся случайная особь, отличная от p1.
func secondParent(scores []fitness, tournamentSize, p1 int, rng *rand.Rand) int {
	for range maxParentRetries {
		if p2 := tournamentSelect(scores, tournamentSize, rng); p2 != p1 {
			return p2
		}
	}
	p2 := rng.Intn(len(scores) - 1)
	if p2 >= p1 {
		p2++
	}
	return p2
}

// breed формирует двух потомков: кроссовер последовательностей (OX)
// и равномерный кроссовер выбора станков, затем мутации.
// Второй потомок может быть временным буфером, если место в популяции одно.
func (s *Solver) breed(
	codec *encoding.Codec,
	p1, p2, c1, c2 encoding.Chromosome,
	mark []int,
	stamp *int,
) {
	rng := s.Rng
	if rng.Float64() < s.Cfg.CrossoverRate {
		codec.OrderCrossover(p1.Seq, p2.Seq, c1.Seq, c2.Seq, rng, mark, stamp)
		encoding.UniformMachineCrossover(p1.Mach, p2.Mach, c1.Mach, c2.Mach, rng)
	} else {
		c1.CopyFrom(p1)
		c2.CopyFrom(p2)
	}
	s.mutate(codec, c1)
	s.mutate(codec, c2)
}

// mutate: мутация последовательности (swap или insert) и точечная
// мутация станка, каждая со своей вероятностью MutationRate.
func (s *Solver) mutate(codec *encoding.Codec, ch encoding.Chromosome) {
	rng := s.Rng
	if rng.Float64() < s.Cfg.MutationRate {
		if rng.Intn(2) == 0 {
			codec.MutateSwap(ch.Seq, rng)
		} else {
			codec.MutateInsert(ch.Seq, rng)
		}
	}
	if rng.Float64() < s.Cfg.MutationRate {
		codec.MutateMachine(ch.Mach, rng)
	}
}
