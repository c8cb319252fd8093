// Package telemetry instruments the render pipeline with Prometheus
// metrics, adapted from the prior internal/api/observability.go. The
// renderer is a one-shot CLI, not a long-lived server, so there is no
// /metrics HTTP endpoint here — metrics are gathered and dumped as text
// to stderr once the render completes, via prometheus/common/expfmt,
// the same encoder promhttp.Handler uses internally.
package telemetry

import (
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"
)

var (
	stageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "render_stage_duration_seconds",
		Help:    "Time spent in each render pipeline stage",
		Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 30},
	}, []string{"stage"}) // bounded: "preload", "mix", "effect", "encode"

	decodeJobsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "render_decode_jobs_total",
		Help: "Total sound-bank decode jobs processed",
	})

	decodeJobsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "render_decode_jobs_failed_total",
		Help: "Sound-bank decode jobs that failed",
	})

	channelsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "render_mixer_channels_active",
		Help: "Mixer channels currently playing during the last Update",
	})

	outputBytes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "render_output_bytes",
		Help: "Size of the final encoded output",
	})
)

// RecordStage records how long a named pipeline stage took.
func RecordStage(stage string, d time.Duration) {
	stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RecordDecodeJob records one decode job's outcome.
func RecordDecodeJob(ok bool) {
	decodeJobsTotal.Inc()
	if !ok {
		decodeJobsFailed.Inc()
	}
}

// SetChannelsActive records the current audible channel count.
func SetChannelsActive(n int) {
	channelsActive.Set(float64(n))
}

// SetOutputBytes records the final encoded output size.
func SetOutputBytes(n int) {
	outputBytes.Set(float64(n))
}

// Dump writes every gathered metric family as Prometheus text exposition
// format to w, matching the wire format promhttp.Handler serves over
// /metrics — just written directly rather than served.
func Dump(w io.Writer) error {
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.FmtText)
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}
