package cli

import (
	"io"
	"os"

	"github.com/ryanuber/columnize"

	"jobShop/internal/instanceio"
	"jobShop/internal/jobshop"
)

func loadInstance(path string) (*jobshop.Instance, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return instanceio.LoadInstance(f)
}

func loadSchedule(path string, inst *jobshop.Instance) (*jobshop.Schedule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return instanceio.LoadSchedule(f, inst)
}

// writeFile пишет через save в path или в stdout, если path пустой или "-".
func writeFile(path string, stdout io.Writer, save func(io.Writer) error) error {
	if path == "" || path == "-" {
		return save(stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := save(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// formatList выравнивает строки с разделителем "|" по столбцам.
func formatList(in []string) string {
	conf := columnize.DefaultConfig()
	conf.Empty = "<none>"
	return columnize.Format(in, conf)
}

// formatKV выравнивает пары "ключ|значение" в виде "ключ = значение".
func formatKV(in []string) string {
	conf := columnize.DefaultConfig()
	conf.Empty = "<none>"
	conf.Glue = " = "
	return columnize.Format(in, conf)
}
