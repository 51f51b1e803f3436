// Package metrics provides Prometheus collectors for the photo gallery read path.
//
// Usage:
//
//	// Record one list request
//	RecordList("shuffled", true, 12*time.Millisecond)
//
//	// Record clusters collapsed into representatives
//	RecordCollapsed("near_duplicate", 3)
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Order labels
const (
	OrderShuffled      = "shuffled"
	OrderChronological = "chronological"
)

var (
	// ListRequestsTotal counts gallery list requests by ordering and grouping.
	ListRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_list_requests_total",
			Help: "Total number of photo list requests",
		},
		[]string{"order", "grouped"},
	)

	// ListDuration tracks the latency of building one gallery page.
	ListDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gallery_list_duration_seconds",
			Help:    "Duration of photo list requests in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"order"},
	)

	// LocateRequestsTotal counts position lookups by outcome.
	LocateRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_locate_requests_total",
			Help: "Total number of photo position lookups",
		},
		[]string{"order", "result"}, // result: "found", "not_found", "error"
	)

	// ClustersCollapsedTotal counts clusters collapsed into a single representative.
	ClustersCollapsedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_clusters_collapsed_total",
			Help: "Total number of clusters collapsed while building gallery pages",
		},
		[]string{"cluster_type"},
	)
)

// OrderLabel returns the order label for a request.
func OrderLabel(shuffled bool) string {
	if shuffled {
		return OrderShuffled
	}
	return OrderChronological
}

// RecordList records one list request.
func RecordList(order string, grouped bool, duration time.Duration) {
	ListRequestsTotal.WithLabelValues(order, strconv.FormatBool(grouped)).Inc()
	ListDuration.WithLabelValues(order).Observe(duration.Seconds())
}

// RecordLocate records one position lookup.
func RecordLocate(order, result string) {
	LocateRequestsTotal.WithLabelValues(order, result).Inc()
}

// RecordCollapsed records clusters collapsed for one cluster type.
func RecordCollapsed(clusterType string, count int) {
	if count <= 0 {
		return
	}
	ClustersCollapsedTotal.WithLabelValues(clusterType).Add(float64(count))
}
