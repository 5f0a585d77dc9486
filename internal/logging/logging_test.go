package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/shoenig/test/must"
)

func TestNewLogger_Text(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(hclog.Info, false, &buf)

	logger.Debug("hidden")
	logger.Named("ga").Info("search finished", "generations", 12)

	out := buf.String()
	must.StrNotContains(t, out, "hidden")
	must.StrContains(t, out, "jobshop.ga")
	must.StrContains(t, out, "generations=12")
}

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(hclog.Debug, true, &buf)
	logger.Debug("schedule built", "makespan", 7)

	var line map[string]any
	must.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	must.Eq(t, "schedule built", line["@message"])
	must.Eq(t, "debug", line["@level"])
	must.Eq[any](t, float64(7), line["makespan"])
}

func TestParseLevel(t *testing.T) {
	l, err := ParseLevel("TRACE")
	must.NoError(t, err)
	must.Eq(t, hclog.Trace, l)

	_, err = ParseLevel("loud")
	must.Error(t, err)
}
