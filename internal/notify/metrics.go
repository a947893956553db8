package notify

import "github.com/prometheus/client_golang/prometheus"

// 投递结果标签
const (
	outcomeSent          = "sent"
	outcomeUnregistered  = "device_not_registered"
	outcomeRejected      = "rejected"
	outcomeGatewayFailed = "gateway_failed"
)

// Metrics 推送分发器的 Prometheus 指标
type Metrics struct {
	intents    *prometheus.CounterVec
	messages   *prometheus.CounterVec
	queueDepth prometheus.Gauge
	latency    prometheus.Histogram
}

// NewMetrics 创建并注册指标
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		intents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "facsub",
			Subsystem: "notify",
			Name:      "intents_total",
			Help:      "Notification intents by audience and enqueue result.",
		}, []string{"audience", "result"}),
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "facsub",
			Subsystem: "notify",
			Name:      "messages_total",
			Help:      "Push messages by delivery outcome.",
		}, []string{"outcome"}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "facsub",
			Subsystem: "notify",
			Name:      "queue_depth",
			Help:      "Notification intents waiting for a worker.",
		}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "facsub",
			Subsystem: "notify",
			Name:      "gateway_seconds",
			Help:      "Push gateway call latency.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.intents, m.messages, m.queueDepth, m.latency)
	return m
}
