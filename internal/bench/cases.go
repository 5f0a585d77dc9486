package bench

import (
	"fmt"
	"strconv"
	"strings"

	"jobShop/internal/generator"
)

// ParseCases разбирает список конфигураций вида "10x4,20x8"
// (количество работ x количество станков). Остальные параметры берутся из base.
func ParseCases(s string, base generator.Config, baseInstanceSeed int64) ([]Case, error) {
	parts := SplitList(s)
	cases := make([]Case, 0, len(parts))

	for i, p := range parts {
		jm := strings.Split(p, "x")
		if len(jm) != 2 {
			return nil, fmt.Errorf("пара %q невалидной схемы, пример: 20x8", p)
		}
		jobs, err := atoiStrict(jm[0])
		if err != nil {
			return nil, fmt.Errorf("пара %q: ошибка парсинга количества работ: %w", p, err)
		}
		machines, err := atoiStrict(jm[1])
		if err != nil {
			return nil, fmt.Errorf("пара %q: ошибка парсинга количества станков: %w", p, err)
		}
		if jobs <= 0 || machines <= 0 {
			return nil, fmt.Errorf("пара %q: количество работ и станков должно быть > 0", p)
		}

		cfg := base
		cfg.Jobs = jobs
		cfg.Machines = machines
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("пара %q: %w", p, err)
		}

		seed := baseInstanceSeed + int64(i)*10_000 + int64(jobs)*100 + int64(machines)

		cases = append(cases, Case{
			Name:         p,
			Generator:    cfg,
			InstanceSeed: seed,
		})
	}

	return cases, nil
}

// SplitList делит строку по запятым, отбрасывая пустые элементы.
func SplitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func atoiStrict(s string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(s))
}
