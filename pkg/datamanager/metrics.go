package datamanager

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/orneryd/edgescript/pkg/auth"
)

// metrics is the per-process Prometheus surface for every DM, labelled by
// auth kind. This is additive observability (spec §4.3 expansion): a
// counter increment never changes control flow. Counters are registered
// once and shared by every DM, including siblings produced by Divide, so
// the process exposes one running total rather than one series per
// session.
type metrics struct {
	getTotal      *prometheus.CounterVec
	appendTotal   *prometheus.CounterVec
	setTotal      *prometheus.CounterVec
	commitTotal   *prometheus.CounterVec
	storageErrors *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		getTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "edgescript_dm_get_total",
			Help: "Number of DM.Get calls, labelled by auth kind.",
		}, []string{"auth"}),
		appendTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "edgescript_dm_append_total",
			Help: "Number of DM.Append calls, labelled by auth kind.",
		}, []string{"auth"}),
		setTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "edgescript_dm_set_total",
			Help: "Number of DM.Set calls, labelled by auth kind.",
		}, []string{"auth"}),
		commitTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "edgescript_dm_commit_total",
			Help: "Number of DM.Commit calls, labelled by auth kind.",
		}, []string{"auth"}),
		storageErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "edgescript_dm_storage_errors_total",
			Help: "Number of storage errors surfaced by a DM, labelled by auth kind.",
		}, []string{"auth"}),
	}
	reg.MustRegister(m.getTotal, m.appendTotal, m.setTotal, m.commitTotal, m.storageErrors)
	return m
}

var (
	sharedMetricsOnce sync.Once
	sharedMetrics     *metrics
)

// defaultMetrics returns the process-wide metrics set, registering it
// against prometheus.DefaultRegisterer exactly once. New DMs default to
// this set; Divide always shares its parent's set rather than calling this
// again, so the registration only happens for the first DM of a process.
func defaultMetrics() *metrics {
	sharedMetricsOnce.Do(func() {
		sharedMetrics = newMetrics(prometheus.DefaultRegisterer)
	})
	return sharedMetrics
}

func authLabel(a auth.Auth) string {
	switch a.Kind() {
	case auth.Root:
		return "root"
	case auth.Writer:
		return "writer"
	case auth.Printer:
		return "printer"
	default:
		return "unknown"
	}
}
