package dispatch

import (
	"cmp"
	"fmt"
)

// Rule: правило приоритета для выбора следующей задачи.
type Rule string

const (
	// RuleFIFO: раньше всех готовая задача (по окончанию предшественника).
	RuleFIFO Rule = "fifo"
	// RuleSPT: кратчайшая длительность.
	RuleSPT Rule = "spt"
	// RuleLPT: наибольшая длительность.
	RuleLPT Rule = "lpt"
	// RuleMWKR: наибольший остаток работы по заданию.
	RuleMWKR Rule = "mwkr"
	// RulePriority: приоритет задания, затем приоритет задачи (меньше значит важнее).
	RulePriority Rule = "priority"
)

// Rules перечисляет поддерживаемые правила.
func Rules() []Rule {
	return []Rule{RuleFIFO, RuleSPT, RuleLPT, RuleMWKR, RulePriority}
}

func ParseRule(s string) (Rule, error) {
	r := Rule(s)
	switch r {
	case RuleFIFO, RuleSPT, RuleLPT, RuleMWKR, RulePriority:
		return r, nil
	case "":
		return RuleSPT, nil
	default:
		return "", fmt.Errorf("неизвестное правило диспетчеризации %q", s)
	}
}

// Candidate: задача, допустимая к размещению на текущем шаге:
// очередная неразмещённая задача своего задания.
type Candidate struct {
	Task     int
	Job      int
	Position int

	// Ready: момент окончания предшественника (или выпуска задания) без учёта переезда.
	Ready    int
	Duration int
	// WorkLeft: суммарная длительность неразмещённых задач задания, включая эту.
	WorkLeft int

	JobPriority  int
	TaskPriority int
}

// Key: числовой ключ правила; чем меньше, тем предпочтительнее.
func (r Rule) Key(c Candidate) int {
	switch r {
	case RuleFIFO:
		return c.Ready
	case RuleLPT:
		return -c.Duration
	case RuleMWKR:
		return -c.WorkLeft
	case RulePriority:
		return c.JobPriority
	default:
		return c.Duration
	}
}

// Compare сравнивает кандидатов только по правилу, без учёта индексов.
func (r Rule) Compare(a, b Candidate) int {
	if r == RulePriority {
		return cmp.Or(
			cmp.Compare(a.JobPriority, b.JobPriority),
			cmp.Compare(a.TaskPriority, b.TaskPriority),
		)
	}
	return cmp.Compare(r.Key(a), r.Key(b))
}

// Chooser возвращает индекс выбранного кандидата.
// Кандидаты упорядочены по индексу задания.
type Chooser func(cands []Candidate) int

// Greedy выбирает лучшего по правилу кандидата; при равенстве побеждает
// меньший индекс задания, затем меньшая позиция задачи.
func Greedy(r Rule) Chooser {
	return func(cands []Candidate) int {
		best := 0
		for i := 1; i < len(cands); i++ {
			c := cmp.Or(
				r.Compare(cands[i], cands[best]),
				cmp.Compare(cands[i].Job, cands[best].Job),
				cmp.Compare(cands[i].Position, cands[best].Position),
			)
			if c < 0 {
				best = i
			}
		}
		return best
	}
}
