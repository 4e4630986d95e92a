package observe

import (
	"fmt"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// metricPrefix selects the pipeline families from a gatherer.
const metricPrefix = "podcast_"

// Snapshot gathers the pipeline metric families from g and flattens them
// into "name{label=\"value\"}" keys. OTel scope labels are left out.
// Histograms contribute their _count and _sum series.
func Snapshot(g prometheus.Gatherer) (map[string]float64, error) {
	families, err := g.Gather()
	if err != nil {
		return nil, fmt.Errorf("failed to gather metrics: %w", err)
	}

	snap := make(map[string]float64)
	for _, mf := range families {
		name := mf.GetName()
		if !strings.HasPrefix(name, metricPrefix) {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := labelString(m.GetLabel())
			switch mf.GetType() {
			case dto.MetricType_COUNTER:
				snap[name+labels] += m.GetCounter().GetValue()
			case dto.MetricType_GAUGE:
				snap[name+labels] += m.GetGauge().GetValue()
			case dto.MetricType_HISTOGRAM:
				h := m.GetHistogram()
				snap[name+"_count"+labels] += float64(h.GetSampleCount())
				snap[name+"_sum"+labels] += h.GetSampleSum()
			}
		}
	}
	return snap, nil
}

func labelString(pairs []*dto.LabelPair) string {
	var parts []string
	for _, lp := range pairs {
		if strings.HasPrefix(lp.GetName(), "otel_") {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s=%q", lp.GetName(), lp.GetValue()))
	}
	if len(parts) == 0 {
		return ""
	}
	sort.Strings(parts)
	return "{" + strings.Join(parts, ",") + "}"
}

// LogSnapshot logs the current pipeline metrics at info level. Short runs
// finish before anything scrapes /metrics, so this is the record they leave.
func LogSnapshot(g prometheus.Gatherer) {
	snap, err := Snapshot(g)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to snapshot metrics")
		return
	}
	keys := make([]string, 0, len(snap))
	for k := range snap {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	dict := zerolog.Dict()
	for _, k := range keys {
		dict = dict.Float64(k, snap[k])
	}
	log.Info().Dict("metrics", dict).Msg("Final metrics")
}
