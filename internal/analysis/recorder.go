package analysis

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder 分析过程的埋点，服务端用 Prometheus，CLI 和测试用 NopRecorder
type Recorder interface {
	ObserveAnalysis(messages, score int, elapsed time.Duration)
	ObserveEnhancement(outcome string)
}

// 远程高光的结果分类，作为 outcome 标签
const (
	OutcomeRemote           = "remote"
	OutcomeNoRecords        = "no_records"
	OutcomeInvalidRequest   = "invalid_request"
	OutcomePermissionDenied = "permission_denied"
	OutcomeRateLimited      = "rate_limited"
	OutcomeTimeout          = "timeout"
	OutcomeUpstream         = "upstream"
)

type NopRecorder struct{}

func (NopRecorder) ObserveAnalysis(int, int, time.Duration) {}
func (NopRecorder) ObserveEnhancement(string)               {}

// PromRecorder 所有指标以 lovelens_ 为前缀
type PromRecorder struct {
	analyses     prometheus.Counter
	messages     prometheus.Counter
	scores       prometheus.Histogram
	duration     prometheus.Histogram
	enhancements *prometheus.CounterVec
}

// NewPromRecorder 在 reg 上注册指标，reg 为 nil 时用默认 registry
func NewPromRecorder(reg prometheus.Registerer) *PromRecorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &PromRecorder{
		analyses: f.NewCounter(prometheus.CounterOpts{
			Name: "lovelens_analyses_total",
			Help: "Total number of transcripts analyzed",
		}),
		messages: f.NewCounter(prometheus.CounterOpts{
			Name: "lovelens_messages_parsed_total",
			Help: "Total number of messages parsed from transcripts",
		}),
		scores: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "lovelens_score",
			Help:    "Distribution of relationship scores",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		}),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "lovelens_analysis_duration_seconds",
			Help:    "Duration of local analysis in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		enhancements: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lovelens_highlight_enhancements_total",
			Help: "Remote highlight requests by outcome",
		}, []string{"outcome"}),
	}
}

func (r *PromRecorder) ObserveAnalysis(messages, score int, elapsed time.Duration) {
	r.analyses.Inc()
	r.messages.Add(float64(messages))
	r.scores.Observe(float64(score))
	r.duration.Observe(elapsed.Seconds())
}

func (r *PromRecorder) ObserveEnhancement(outcome string) {
	r.enhancements.WithLabelValues(outcome).Inc()
}
