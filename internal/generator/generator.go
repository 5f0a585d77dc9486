// Package generator строит случайные экземпляры задачи для тестов и бенчмарков.
package generator

import (
	"errors"
	"fmt"
	"math/rand"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/go-set/v3"

	"jobShop/internal/jobshop"
)

// ErrConfig: некорректные параметры генерации.
var ErrConfig = errors.New("invalid generator configuration")

type Config struct {
	Jobs            int
	MinTasks        int
	MaxTasks        int
	MinJobPriority  int
	MaxJobPriority  int
	MinTaskPriority int
	MaxTaskPriority int

	// MaxDependencies = 0: задачи работы выполняются строго по порядку объявления.
	MaxDependencies int

	MinTaskCaps  int
	MaxTaskCaps  int
	Capabilities int

	// Machines: минимальное число станков; может быть превышено ради покрытия требований.
	Machines          int
	MinCapsPerMachine int
	MaxCapsPerMachine int

	MinDuration int
	MaxDuration int
	MinTravel   int
	MaxTravel   int

	// DueDateSlack > 0 задаёт срок работы как slack × суммарная длительность её задач.
	DueDateSlack float64

	// MaxRelease > 0 задаёт случайный момент появления работы в [0, MaxRelease].
	MaxRelease int
}

func DefaultConfig() Config {
	return Config{
		Jobs:              10,
		MinTasks:          2,
		MaxTasks:          5,
		MinJobPriority:    1,
		MaxJobPriority:    5,
		MinTaskPriority:   1,
		MaxTaskPriority:   5,
		MaxDependencies:   2,
		MinTaskCaps:       1,
		MaxTaskCaps:       1,
		Capabilities:      5,
		Machines:          8,
		MinCapsPerMachine: 1,
		MaxCapsPerMachine: 3,

		MinDuration: 1,
		MaxDuration: 20,
		MinTravel:   1,
		MaxTravel:   5,
	}
}

func (c Config) Validate() error {
	var mErr *multierror.Error
	checkRange := func(name string, lo, hi, floor int) {
		if lo < floor || hi < lo {
			mErr = multierror.Append(mErr, fmt.Errorf(
				"%s: требуется %d <= min <= max (получено [%d, %d])", name, floor, lo, hi))
		}
	}
	if c.Jobs <= 0 {
		mErr = multierror.Append(mErr, fmt.Errorf("Jobs должно быть > 0 (получено %d)", c.Jobs))
	}
	checkRange("Tasks", c.MinTasks, c.MaxTasks, 1)
	checkRange("JobPriority", c.MinJobPriority, c.MaxJobPriority, 0)
	checkRange("TaskPriority", c.MinTaskPriority, c.MaxTaskPriority, 0)
	checkRange("TaskCaps", c.MinTaskCaps, c.MaxTaskCaps, 0)
	checkRange("CapsPerMachine", c.MinCapsPerMachine, c.MaxCapsPerMachine, 1)
	checkRange("Duration", c.MinDuration, c.MaxDuration, 0)
	checkRange("Travel", c.MinTravel, c.MaxTravel, 0)
	if c.Capabilities <= 0 {
		mErr = multierror.Append(mErr, fmt.Errorf("Capabilities должно быть > 0 (получено %d)", c.Capabilities))
	}
	if c.MaxTaskCaps > c.Capabilities || c.MaxCapsPerMachine > c.Capabilities {
		mErr = multierror.Append(mErr, fmt.Errorf(
			"число возможностей задачи и станка не может превышать Capabilities=%d", c.Capabilities))
	}
	if c.Machines < 0 {
		mErr = multierror.Append(mErr, fmt.Errorf("Machines должно быть >= 0 (получено %d)", c.Machines))
	}
	if c.MaxDependencies < 0 {
		mErr = multierror.Append(mErr, fmt.Errorf("MaxDependencies должно быть >= 0 (получено %d)", c.MaxDependencies))
	}
	if c.DueDateSlack < 0 {
		mErr = multierror.Append(mErr, fmt.Errorf("DueDateSlack должно быть >= 0 (получено %f)", c.DueDateSlack))
	}
	if c.MaxRelease < 0 {
		mErr = multierror.Append(mErr, fmt.Errorf("MaxRelease должно быть >= 0 (получено %d)", c.MaxRelease))
	}
	if err := mErr.ErrorOrNil(); err != nil {
		return fmt.Errorf("%w: %w", ErrConfig, err)
	}
	return nil
}

// between возвращает случайное целое из [lo, hi].
func between(rng *rand.Rand, lo, hi int) int {
	return lo + rng.Intn(hi-lo+1)
}

// sample выбирает k различных возможностей в порядке возрастания номера.
func sample(rng *rand.Rand, caps []string, k int) []string {
	idx := rng.Perm(len(caps))[:k]
	slices.Sort(idx)
	out := make([]string, k)
	for i, v := range idx {
		out[i] = caps[v]
	}
	return out
}

// Random строит экземпляр по конфигурации.
// Идентификаторы являются UUID, полученные из rng, поэтому результат полностью
// определяется сидом. Каждый набор требований задачи покрывается хотя бы одним станком.
func Random(cfg Config, rng *rand.Rand) (*jobshop.Instance, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, errors.New("генератор случайных чисел не инициализирован (nil)")
	}
	newID := func() (string, error) {
		id, err := uuid.NewRandomFromReader(rng)
		if err != nil {
			return "", err
		}
		return id.String(), nil
	}

	caps := make([]string, cfg.Capabilities)
	for i := range caps {
		caps[i] = fmt.Sprintf("capability_%d", i)
	}

	// 1. Работы и задачи; запоминаем различные наборы требований
	var combos [][]string
	seen := set.New[string](cfg.Jobs)

	jobs := make([]jobshop.JobSpec, cfg.Jobs)
	for i := range jobs {
		jobID, err := newID()
		if err != nil {
			return nil, err
		}
		n := between(rng, cfg.MinTasks, cfg.MaxTasks)
		tasks := make([]jobshop.TaskSpec, n)
		total := 0
		for k := range tasks {
			taskID, err := newID()
			if err != nil {
				return nil, err
			}
			req := sample(rng, caps, between(rng, cfg.MinTaskCaps, cfg.MaxTaskCaps))
			if key := strings.Join(req, ","); len(req) > 0 && seen.Insert(key) {
				combos = append(combos, req)
			}

			// Зависимости только от ранее объявленных задач той же работы
			var deps []string
			if k > 0 && cfg.MaxDependencies > 0 {
				for _, p := range rng.Perm(k)[:between(rng, 1, min(k, cfg.MaxDependencies))] {
					deps = append(deps, tasks[p].ID)
				}
			}

			tasks[k] = jobshop.TaskSpec{
				ID:           taskID,
				Name:         fmt.Sprintf("T_%d_%d", i, k),
				Duration:     between(rng, cfg.MinDuration, cfg.MaxDuration),
				Requires:     req,
				Priority:     between(rng, cfg.MinTaskPriority, cfg.MaxTaskPriority),
				Dependencies: deps,
			}
			total += tasks[k].Duration
		}
		jobs[i] = jobshop.JobSpec{
			ID:       jobID,
			Name:     fmt.Sprintf("J_%d", i),
			Tasks:    tasks,
			Priority: between(rng, cfg.MinJobPriority, cfg.MaxJobPriority),
		}
		if cfg.MaxRelease > 0 {
			jobs[i].Release = rng.Intn(cfg.MaxRelease + 1)
		}
		if cfg.DueDateSlack > 0 {
			due := jobs[i].Release + int(cfg.DueDateSlack*float64(total))
			jobs[i].DueDate = &due
		}
	}

	// 2. Станки: по одному на каждый набор требований, затем случайные
	var machines []jobshop.MachineSpec
	addMachine := func(offers []string) error {
		id, err := newID()
		if err != nil {
			return err
		}
		machines = append(machines, jobshop.MachineSpec{
			ID:           id,
			Name:         fmt.Sprintf("M_%d", len(machines)),
			Capabilities: offers,
		})
		return nil
	}
	for _, c := range combos {
		if err := addMachine(c); err != nil {
			return nil, err
		}
	}
	for len(machines) < max(cfg.Machines, 1) {
		offers := sample(rng, caps, between(rng, cfg.MinCapsPerMachine, cfg.MaxCapsPerMachine))
		if err := addMachine(offers); err != nil {
			return nil, err
		}
	}

	// 3. Полная таблица переездов
	travel := make(jobshop.TravelTimes, len(machines))
	for _, a := range machines {
		row := make(map[string]int, len(machines)-1)
		for _, b := range machines {
			if a.ID != b.ID {
				row[b.ID] = between(rng, cfg.MinTravel, cfg.MaxTravel)
			}
		}
		travel[a.ID] = row
	}

	return jobshop.NewInstance(jobs, machines, travel)
}
