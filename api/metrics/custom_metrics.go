package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	deploymentsAdmittedMetric   = "shapeblock_api_deployments_admitted"
	deploymentsRejectedMetric   = "shapeblock_api_deployments_rejected"
	callbacksMetric             = "shapeblock_api_deployment_callbacks"
	serviceCallbacksMetric      = "shapeblock_api_service_callbacks"
	subscribersMetric           = "shapeblock_api_fanout_subscribers"
	requestDurationMetric       = "shapeblock_api_request_duration_seconds"
	requestDurationBucketMetric = "shapeblock_api_request_duration_seconds_hist"

	typeLabel   = "type"
	statusLabel = "status"
	resultLabel = "result"
	pathLabel   = "path"
	methodLabel = "method"
)

var (
	nrDeploymentsAdmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: deploymentsAdmittedMetric,
			Help: "The total number of deployments admitted",
		}, []string{typeLabel})
	nrDeploymentsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: deploymentsRejectedMetric,
			Help: "The total number of deployments rejected because nothing changed",
		}, []string{typeLabel})
	nrCallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: callbacksMetric,
			Help: "The total number of deployment status callbacks",
		}, []string{statusLabel, resultLabel})
	nrServiceCallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: serviceCallbacksMetric,
			Help: "The total number of service status callbacks",
		}, []string{statusLabel, resultLabel})
	subscribers = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: subscribersMetric,
			Help: "Clients currently subscribed to status events",
		}, []string{"topic"})
	resTime = prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       requestDurationMetric,
			Help:       "Request duration seconds",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{pathLabel, methodLabel},
	)
	resTimeBucket = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    requestDurationBucketMetric,
			Help:    "Request duration seconds bucket",
			Buckets: DefaultBuckets(),
		},
		[]string{pathLabel, methodLabel},
	)
)

func init() {
	prometheus.MustRegister(resTime)
	prometheus.MustRegister(resTimeBucket)
}

func DefaultBuckets() []float64 {
	return []float64{0.03, 0.1, 0.3, 1, 2, 3, 5, 10}
}

// AddDeploymentAdmitted counts an admitted deployment of the given type
func AddDeploymentAdmitted(deploymentType string) {
	nrDeploymentsAdmitted.With(prometheus.Labels{typeLabel: deploymentType}).Inc()
}

// AddDeploymentRejected counts a deployment request rejected by admission
func AddDeploymentRejected(deploymentType string) {
	nrDeploymentsRejected.With(prometheus.Labels{typeLabel: deploymentType}).Inc()
}

// AddCallback counts a deployment callback and how it was handled
func AddCallback(status, result string) {
	nrCallbacks.With(prometheus.Labels{statusLabel: status, resultLabel: result}).Inc()
}

func AddServiceCallback(status, result string) {
	nrServiceCallbacks.With(prometheus.Labels{statusLabel: status, resultLabel: result}).Inc()
}

// SubscriberAdded and SubscriberRemoved track open event streams per topic kind
func SubscriberAdded(topic string) {
	subscribers.WithLabelValues(topic).Inc()
}

func SubscriberRemoved(topic string) {
	subscribers.WithLabelValues(topic).Dec()
}

// AddRequestDuration Add request duration for given endpoint
func AddRequestDuration(path, method string, duration time.Duration) {
	resTime.WithLabelValues(path, method).Observe(duration.Seconds())
	resTimeBucket.WithLabelValues(path, method).Observe(duration.Seconds())
}
