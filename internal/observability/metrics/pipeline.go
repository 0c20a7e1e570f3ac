package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PipelineMetrics records question answering outcomes. It satisfies
// ports.PipelineObserver.
type PipelineMetrics struct {
	answersTotal    *prometheus.CounterVec
	contextChunks   prometheus.Histogram
	contextWords    prometheus.Histogram
	runDuration     prometheus.Histogram
	questionsPerRun prometheus.Histogram
}

func NewPipelineMetrics(service string, registerer prometheus.Registerer) *PipelineMetrics {
	labels := prometheus.Labels{"service": service}

	m := &PipelineMetrics{
		answersTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   namespace,
				Subsystem:   "rag",
				Name:        "answers_total",
				Help:        "Answers produced by outcome.",
				ConstLabels: labels,
			},
			[]string{"outcome"},
		),
		contextChunks: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   namespace,
			Subsystem:   "rag",
			Name:        "context_chunks",
			Help:        "Chunks included in the assembled context per question.",
			Buckets:     []float64{0, 1, 2, 3, 5, 8, 13, 21},
			ConstLabels: labels,
		}),
		contextWords: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   namespace,
			Subsystem:   "rag",
			Name:        "context_words",
			Help:        "Words in the assembled context per question.",
			Buckets:     []float64{0, 100, 250, 500, 1000, 1500, 2000, 4000},
			ConstLabels: labels,
		}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   namespace,
			Subsystem:   "rag",
			Name:        "run_duration_seconds",
			Help:        "Duration of a full document run in seconds.",
			Buckets:     []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			ConstLabels: labels,
		}),
		questionsPerRun: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   namespace,
			Subsystem:   "rag",
			Name:        "questions_per_run",
			Help:        "Questions answered per document run.",
			Buckets:     []float64{1, 2, 5, 10, 20, 50},
			ConstLabels: labels,
		}),
	}

	registerer.MustRegister(m.answersTotal, m.contextChunks, m.contextWords, m.runDuration, m.questionsPerRun)
	return m
}

func (m *PipelineMetrics) ObserveAnswer(outcome string) {
	if outcome == "" {
		outcome = "unknown"
	}
	m.answersTotal.WithLabelValues(outcome).Inc()
}

func (m *PipelineMetrics) ObserveContext(included, words int) {
	m.contextChunks.Observe(float64(included))
	m.contextWords.Observe(float64(words))
}

func (m *PipelineMetrics) ObserveRun(questions int, duration time.Duration) {
	m.questionsPerRun.Observe(float64(questions))
	m.runDuration.Observe(duration.Seconds())
}
