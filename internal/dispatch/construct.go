package dispatch

import (
	"fmt"

	"jobShop/internal/jobshop"
	"jobShop/internal/scaffold"
)

// Placer размещает выбранную задачу в расписании.
type Placer func(s *jobshop.Schedule, task int) (jobshop.Assignment, error)

// Construct достраивает s списочной диспетчеризацией: на каждом шаге
// chooser выбирает одну из очередных задач заданий, place размещает её.
// nil place означает вставку на станок с наименьшим временем завершения.
func Construct(sc *scaffold.Scaffold, s *jobshop.Schedule, choose Chooser, place Placer) error {
	inst := sc.Instance()
	if place == nil {
		place = sc.InsertBest
	}

	// Остаток работы начиная с каждой задачи до конца её задания
	workFrom := make([]int, inst.NumTasks())
	for j := range inst.NumJobs() {
		tasks := sc.JobTasks(j)
		acc := 0
		for k := len(tasks) - 1; k >= 0; k-- {
			acc += sc.Duration(tasks[k])
			workFrom[tasks[k]] = acc
		}
	}

	cands := make([]Candidate, 0, inst.NumJobs())
	for !s.Complete() {
		cands = cands[:0]
		for j := range inst.NumJobs() {
			t, ok := sc.Next(s, j)
			if !ok {
				continue
			}
			task := inst.Task(t)
			job := inst.Job(j)
			ready := max(sc.StartTime(), job.Release())
			if p, ok := inst.Predecessor(t); ok {
				if a, ok := s.Lookup(p); ok {
					ready = max(ready, a.End)
				}
			}
			cands = append(cands, Candidate{
				Task:         t,
				Job:          j,
				Position:     task.Position(),
				Ready:        ready,
				Duration:     task.Duration(),
				WorkLeft:     workFrom[t],
				JobPriority:  job.Priority(),
				TaskPriority: task.Priority(),
			})
		}
		if len(cands) == 0 {
			return fmt.Errorf("%w: no eligible task with %d of %d placed",
				scaffold.ErrInternal, s.Len(), inst.NumTasks())
		}
		i := choose(cands)
		if _, err := place(s, cands[i].Task); err != nil {
			return err
		}
	}
	return nil
}

// Build строит расписание жадно по правилу r.
func Build(sc *scaffold.Scaffold, r Rule) (*jobshop.Schedule, error) {
	sched := sc.NewSchedule()
	if err := Construct(sc, sched, Greedy(r), nil); err != nil {
		return nil, err
	}
	return sched, nil
}
