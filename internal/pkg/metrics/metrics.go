// internal/pkg/metrics/metrics.go
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// WorkflowTransitions 审批状态机的每一次尝试，result 取 ok / conflict / rejected
	WorkflowTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bazaar",
		Name:      "workflow_transitions_total",
		Help:      "Approval workflow transitions by entity, action and result.",
	}, []string{"entity", "action", "result"})

	// NotificationsDispatched 通知投递结果，失败不会回滚业务
	NotificationsDispatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bazaar",
		Name:      "notifications_dispatched_total",
		Help:      "Notifications handed to the broker or mail gateway by type and result.",
	}, []string{"type", "result"})

	// OrderEvents 下单、取消和状态推进，result 取 ok / conflict / rejected
	OrderEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bazaar",
		Name:      "order_events_total",
		Help:      "Order placements and status changes by action and result.",
	}, []string{"action", "result"})

	// ListingCacheLookups 公开商品列表缓存命中情况
	ListingCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bazaar",
		Name:      "listing_cache_lookups_total",
		Help:      "Public listing cache lookups by result.",
	}, []string{"result"})

	// PushConnections 当前 push-gateway 上的 websocket 连接数
	PushConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "bazaar",
		Name:      "push_connections",
		Help:      "Open websocket connections on this push gateway.",
	})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "bazaar",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route pattern, method and status.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method", "status"})
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// InstrumentHandler 按 ServeMux 匹配到的路由模式记录请求耗时
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		// r.Pattern 由 ServeMux 在匹配后填充，不能用原始 URL 作标签
		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		httpDuration.WithLabelValues(route, r.Method, strconv.Itoa(rec.status)).Observe(time.Since(start).Seconds())
	})
}
