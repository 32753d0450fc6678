package web

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	gridSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "rrhh_grid_sessions",
		Help: "Session grids currently held in memory.",
	})

	gridLoadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rrhh_grid_load_duration_seconds",
			Help:    "Time to fetch and normalize the employee snapshot.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"result"},
	)

	exportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rrhh_exports_total",
			Help: "Exports served by mode and format.",
		},
		[]string{"mode", "format"},
	)

	exportRowsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rrhh_export_rows_total",
		Help: "Rows written across all exports.",
	})
)
