package metric

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hldb/welo-sub001/app"
)

func newVersionCollector() prometheus.Collector {
	return &versionCollector{prometheus.MustNewConstMetric(prometheus.NewDesc(
		"welo_versions",
		"Build information of the node.",
		nil, prometheus.Labels{
			"version":    app.GitSummary,
			"build_date": app.BuildDate,
		},
	), prometheus.GaugeValue, 1)}
}

type versionCollector struct {
	ver prometheus.Metric
}

func (v *versionCollector) Describe(descs chan<- *prometheus.Desc) {
	descs <- v.ver.Desc()
}

func (v *versionCollector) Collect(metrics chan<- prometheus.Metric) {
	metrics <- v.ver
}
