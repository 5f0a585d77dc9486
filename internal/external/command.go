package external

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"gopkg.in/yaml.v3"

	"jobShop/internal/instanceio"
	"jobShop/internal/jobshop"
	"jobShop/internal/scaffold"
)

// Request: документ, который Command передаёт решателю на stdin.
type Request struct {
	StartTime int                    `yaml:"start_time"`
	Instance  instanceio.InstanceDoc `yaml:"instance"`
	Locked    instanceio.ScheduleDoc `yaml:"locked"`
}

// NewRequest описывает каркас: задачу, момент планирования и зафиксированную работу.
func NewRequest(sc *scaffold.Scaffold) Request {
	return Request{
		StartTime: sc.StartTime(),
		Instance:  instanceio.NewInstanceDoc(sc.Instance()),
		Locked:    instanceio.NewScheduleDoc(sc.NewSchedule()),
	}
}

// Command запускает внешнюю программу: запрос в YAML уходит на stdin,
// со stdout читается документ расписания в формате instanceio.
type Command struct {
	Path string
	Args []string
}

func (c Command) Place(ctx context.Context, sc *scaffold.Scaffold) ([]Placement, error) {
	in, err := yaml.Marshal(NewRequest(sc))
	if err != nil {
		return nil, err
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.Path, c.Args...)
	cmd.Stdin = bytes.NewReader(in)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s: %w: %s", c.Path, err, msg)
		}
		return nil, fmt.Errorf("%s: %w", c.Path, err)
	}

	sched, err := instanceio.LoadSchedule(&stdout, sc.Instance())
	if err != nil {
		return nil, err
	}
	return Placements(sched), nil
}

// Placements переводит расписание в список размещений.
func Placements(s *jobshop.Schedule) []Placement {
	es := s.Entries()
	out := make([]Placement, len(es))
	for i, e := range es {
		out[i] = Placement{TaskID: e.TaskID, MachineID: e.MachineID, Start: e.Start}
	}
	return out
}
