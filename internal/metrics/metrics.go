// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ハンドラーやワーカーから利用する。
type MetricsCollector interface {
	RecordBookCreated()
	RecordSectionCreated()
	RecordSectionsDeleted(count int)
	RecordCollaboratorAdded()
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(duration time.Duration)
	RecordSessionsPurged(count int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	booksCreated       prometheus.Counter
	sectionsCreated    prometheus.Counter
	sectionsDeleted    prometheus.Counter
	collaboratorsAdded prometheus.Counter
	httpStatus         *prometheus.CounterVec
	requestLatency     prometheus.Histogram
	sessionsPurged     prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		booksCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bookman_books_created_total",
			Help: "作成されたブックの合計数",
		}),
		sectionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bookman_sections_created_total",
			Help: "作成されたセクションの合計数",
		}),
		sectionsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bookman_sections_deleted_total",
			Help: "部分木削除で消されたセクションの合計数",
		}),
		collaboratorsAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bookman_collaborators_added_total",
			Help: "追加された共同編集者の合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bookman_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "bookman_request_latency_seconds",
			Help:    "APIリクエストのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		sessionsPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bookman_sessions_purged_total",
			Help: "クリーンアップで削除された期限切れセッションの合計数",
		}),
	}

	reg.MustRegister(
		c.booksCreated,
		c.sectionsCreated,
		c.sectionsDeleted,
		c.collaboratorsAdded,
		c.httpStatus,
		c.requestLatency,
		c.sessionsPurged,
	)

	return c
}

// RecordBookCreated はブック作成を記録する。
func (c *Collector) RecordBookCreated() {
	c.booksCreated.Inc()
}

// RecordSectionCreated はセクション作成を記録する。
func (c *Collector) RecordSectionCreated() {
	c.sectionsCreated.Inc()
}

// RecordSectionsDeleted は部分木削除で消されたセクション数を記録する。
func (c *Collector) RecordSectionsDeleted(count int) {
	c.sectionsDeleted.Add(float64(count))
}

// RecordCollaboratorAdded は共同編集者の追加を記録する。
func (c *Collector) RecordCollaboratorAdded() {
	c.collaboratorsAdded.Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はリクエストのレイテンシを記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// RecordSessionsPurged はクリーンアップで削除されたセッション数を記録する。
func (c *Collector) RecordSessionsPurged(count int) {
	c.sessionsPurged.Add(float64(count))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
