package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/docmerge/internal/foundation/errors"
)

const namespace = "docmerge"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	reg            *prom.Registry
	syncDuration   *prom.HistogramVec
	syncRetries    *prom.CounterVec
	mappingResults *prom.CounterVec
	collisions     *prom.CounterVec
	stageDuration  *prom.HistogramVec
	buildOutcomes  *prom.CounterVec
	augmentResults *prom.CounterVec
	buildDuration  prom.Histogram
}

// NewPrometheusRecorder constructs and registers the docmerge metrics on reg
// (a fresh registry when nil).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{reg: reg}
	pr.syncDuration = prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "sync_duration_seconds",
		Help:      "Duration of external repository synchronization",
		Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600},
	}, []string{"repository", "result"})
	pr.syncRetries = prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "sync_retries_total",
		Help:      "Synchronization retries after transient failures",
	}, []string{"repository"})
	pr.mappingResults = prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "mapping_results_total",
		Help:      "Subtree mapping results by outcome",
	}, []string{"mapping", "result"})
	pr.collisions = prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "overlay_collisions_total",
		Help:      "Files overwritten by overlay mappings",
	}, []string{"mapping"})
	pr.stageDuration = prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "stage_duration_seconds",
		Help:      "Duration of individual build stages",
		Buckets:   prom.DefBuckets,
	}, []string{"stage"})
	pr.buildOutcomes = prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "build_outcomes_total",
		Help:      "Build outcomes by terminal strategy",
	}, []string{"strategy"})
	pr.augmentResults = prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "augment_results_total",
		Help:      "Generated-sources augmentation results",
	}, []string{"provider", "result"})
	pr.buildDuration = prom.NewHistogram(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "build_duration_seconds",
		Help:      "Total build duration",
		Buckets:   prom.DefBuckets,
	})
	reg.MustRegister(pr.syncDuration, pr.syncRetries, pr.mappingResults, pr.collisions,
		pr.stageDuration, pr.buildOutcomes, pr.augmentResults, pr.buildDuration)
	return pr
}

// Registry returns the registry the metrics are registered on.
func (p *PrometheusRecorder) Registry() *prom.Registry { return p.reg }

// WriteTextfile writes the registry in the node-exporter textfile format.
// The file is replaced atomically.
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	if err := prom.WriteToTextfile(path, p.reg); err != nil {
		return errors.FileSystemError("failed to write metrics textfile").
			WithCause(err).
			WithContext("path", path).
			Warning().
			Build()
	}
	return nil
}

func result(success bool) string {
	if success {
		return string(ResultSuccess)
	}
	return string(ResultFailed)
}

func (p *PrometheusRecorder) ObserveSyncDuration(repo string, d time.Duration, success bool) {
	if p == nil || p.syncDuration == nil {
		return
	}
	p.syncDuration.WithLabelValues(repo, result(success)).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncSyncRetry(repo string) {
	if p == nil || p.syncRetries == nil {
		return
	}
	p.syncRetries.WithLabelValues(repo).Inc()
}

func (p *PrometheusRecorder) IncMappingResult(mapping string, result ResultLabel) {
	if p == nil || p.mappingResults == nil {
		return
	}
	p.mappingResults.WithLabelValues(mapping, string(result)).Inc()
}

func (p *PrometheusRecorder) IncCollision(mapping string) {
	if p == nil || p.collisions == nil {
		return
	}
	p.collisions.WithLabelValues(mapping).Inc()
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil || p.stageDuration == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncBuildOutcome(strategy string) {
	if p == nil || p.buildOutcomes == nil {
		return
	}
	p.buildOutcomes.WithLabelValues(strategy).Inc()
}

func (p *PrometheusRecorder) IncAugmentResult(provider string, result ResultLabel) {
	if p == nil || p.augmentResults == nil {
		return
	}
	p.augmentResults.WithLabelValues(provider, string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil || p.buildDuration == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}
