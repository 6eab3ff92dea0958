package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector bundles the prometheus instruments for the optimization
// pipeline. A single instance is registered at startup and shared.
type Collector struct {
	JobsSubmitted   prometheus.Counter
	JobsCompleted   *prometheus.CounterVec
	Generations     prometheus.Counter
	ViolationsFound *prometheus.CounterVec
	JobDuration     prometheus.Histogram
}

// NewCollector builds and registers the collectors on the given registry.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		JobsSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "promptforge_jobs_submitted_total",
			Help: "Optimization jobs accepted at submission.",
		}),
		JobsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "promptforge_jobs_finished_total",
			Help: "Optimization jobs by terminal status.",
		}, []string{"status"}),
		Generations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "promptforge_generations_total",
			Help: "Search generations executed across all jobs.",
		}),
		ViolationsFound: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "promptforge_guardrail_violations_total",
			Help: "Guardrail violations by rule name.",
		}, []string{"rule"}),
		JobDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "promptforge_job_duration_seconds",
			Help:    "Wall-clock duration of optimization jobs.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(c.JobsSubmitted, c.JobsCompleted, c.Generations, c.ViolationsFound, c.JobDuration)
	return c
}
