// Package metrics exposes Prometheus collectors for composition and
// build-set runs. Collectors are registered on a caller-supplied
// registry so that independent runs and tests do not share state.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	ProbeResultFound    = "found"
	ProbeResultNotFound = "not_found"
	ProbeResultError    = "error"
)

type Collectors struct {
	BuildSetAccepted   prometheus.Counter
	BuildSetSkipped    prometheus.Counter
	BuildSetNonManaged prometheus.Counter
	BuildSetRemaining  prometheus.Counter
	RootFailures       prometheus.Counter
	VersionProbes      *prometheus.CounterVec
	OriginConflicts    prometheus.Counter
}

func NewCollectors(reg prometheus.Registerer) *Collectors {
	c := &Collectors{
		BuildSetAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bomkit_buildset_accepted_total",
			Help: "Artifacts accepted into the build set.",
		}),
		BuildSetSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bomkit_buildset_skipped_total",
			Help: "Artifacts skipped by the build-set policy.",
		}),
		BuildSetNonManaged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bomkit_buildset_non_managed_accepted_total",
			Help: "Accepted artifacts that are not managed by the target manifest.",
		}),
		BuildSetRemaining: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bomkit_buildset_remaining_total",
			Help: "Artifacts left outside the build set by the depth limit or policy.",
		}),
		RootFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bomkit_buildset_root_failures_total",
			Help: "Roots whose dependency tree could not be resolved.",
		}),
		VersionProbes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bomkit_compose_version_probes_total",
				Help: "Version substitution probes by outcome.",
			},
			[]string{"result"},
		),
		OriginConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bomkit_compose_origin_conflicts_total",
			Help: "Release origins contributed at more than one version.",
		}),
	}
	if reg != nil {
		reg.MustRegister(
			c.BuildSetAccepted,
			c.BuildSetSkipped,
			c.BuildSetNonManaged,
			c.BuildSetRemaining,
			c.RootFailures,
			c.VersionProbes,
			c.OriginConflicts,
		)
	}
	return c
}

// ObserveProbe counts one version probe. Safe on a nil receiver.
func (c *Collectors) ObserveProbe(result string) {
	if c == nil {
		return
	}
	c.VersionProbes.WithLabelValues(result).Inc()
}

func (c *Collectors) ObserveConflict() {
	if c == nil {
		return
	}
	c.OriginConflicts.Inc()
}

// ObserveBuildSet adds the counters of one finished build-set run.
func (c *Collectors) ObserveBuildSet(accepted, skipped, nonManaged, remaining, failures int) {
	if c == nil {
		return
	}
	c.BuildSetAccepted.Add(float64(accepted))
	c.BuildSetSkipped.Add(float64(skipped))
	c.BuildSetNonManaged.Add(float64(nonManaged))
	c.BuildSetRemaining.Add(float64(remaining))
	c.RootFailures.Add(float64(failures))
}
