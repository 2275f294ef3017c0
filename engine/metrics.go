package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics 是引擎的 Prometheus 指标，注册在注入的 Registerer 上。
type metrics struct {
	trainDuration    prometheus.Histogram
	trainTotal       *prometheus.CounterVec
	generationBooks  prometheus.Gauge
	generationRating prometheus.Gauge
	generationUsers  prometheus.Gauge
	queries          *prometheus.CounterVec
	cacheLookups     *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)
	return &metrics{
		trainDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "bookrec_train_duration_seconds",
			Help:    "Duration of successful training runs in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 8), // 10ms .. ~164s
		}),
		trainTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bookrec_train_total",
			Help: "Total number of training runs by result",
		}, []string{"result"}), // "success", "failure"
		generationBooks: factory.NewGauge(prometheus.GaugeOpts{
			Name: "bookrec_generation_books",
			Help: "Catalog size of the live model generation",
		}),
		generationRating: factory.NewGauge(prometheus.GaugeOpts{
			Name: "bookrec_generation_ratings",
			Help: "Number of ratings the live model generation was trained on",
		}),
		generationUsers: factory.NewGauge(prometheus.GaugeOpts{
			Name: "bookrec_generation_users",
			Help: "Number of distinct users in the live model generation",
		}),
		queries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bookrec_queries_total",
			Help: "Total number of engine queries by kind and outcome",
		}, []string{"kind", "outcome"}),
		cacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bookrec_cache_lookups_total",
			Help: "Hybrid recommendation cache lookups by result",
		}, []string{"result"}), // "hit", "miss", "error"
	}
}

// observeQuery 按错误类型记录查询结果
func (m *metrics) observeQuery(kind string, err error) {
	m.queries.WithLabelValues(kind, outcome(err)).Inc()
}
