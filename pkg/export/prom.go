// Package export renders registry state in the Prometheus text exposition format.
package export

import (
	"io"
	"sort"

	"github.com/go-go-golems/charactl/pkg/registry"
	"github.com/pkg/errors"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

const namespace = "charactl"

// ProcessFamilies builds one gauge family per process metric.
func ProcessFamilies(views []registry.ProcessView) []*dto.MetricFamily {
	up := family("process_up", "Whether the process is alive (1) or not (0).")
	cpu := family("process_cpu_percent", "CPU usage of the process in percent.")
	mem := family("process_memory_mb", "Resident memory of the process in MB.")
	for _, v := range views {
		labels := []*dto.LabelPair{label("name", v.Name), label("role", string(v.Role))}
		alive := 0.0
		if v.Alive {
			alive = 1
		}
		up.Metric = append(up.Metric, gauge(labels, alive))
		cpu.Metric = append(cpu.Metric, gauge(labels, v.CPU))
		mem.Metric = append(mem.Metric, gauge(labels, v.Mem))
	}
	return []*dto.MetricFamily{up, cpu, mem}
}

// PluginFamilies exports the numeric plugin state plus a count per state.
func PluginFamilies(groups []registry.PluginGroupView) []*dto.MetricFamily {
	state := family("plugin_state", "Plugin state: 0 not imported, 1 working, 2 partially working, 3 not working.")
	byState := map[string]int{}
	for _, g := range groups {
		for _, p := range g.Plugins {
			labels := []*dto.LabelPair{label("group", g.Name), label("name", p.Name), label("uuid", p.UUID)}
			state.Metric = append(state.Metric, gauge(labels, float64(p.State)))
			byState[p.State.String()]++
		}
	}

	count := family("plugins", "Number of plugins per state.")
	keys := make([]string, 0, len(byState))
	for k := range byState {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		count.Metric = append(count.Metric, gauge([]*dto.LabelPair{label("state", k)}, float64(byState[k])))
	}
	return []*dto.MetricFamily{state, count}
}

// Write emits families in text format, skipping empty ones.
func Write(w io.Writer, families ...*dto.MetricFamily) error {
	for _, f := range families {
		if len(f.Metric) == 0 {
			continue
		}
		if _, err := expfmt.MetricFamilyToText(w, f); err != nil {
			return errors.Wrapf(err, "write %s", f.GetName())
		}
	}
	return nil
}

func family(name, help string) *dto.MetricFamily {
	full := namespace + "_" + name
	return &dto.MetricFamily{
		Name: &full,
		Help: &help,
		Type: dto.MetricType_GAUGE.Enum(),
	}
}

func label(name, value string) *dto.LabelPair {
	return &dto.LabelPair{Name: &name, Value: &value}
}

func gauge(labels []*dto.LabelPair, v float64) *dto.Metric {
	return &dto.Metric{Label: labels, Gauge: &dto.Gauge{Value: &v}}
}
