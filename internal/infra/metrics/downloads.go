package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		downloadsTotal,
		downloadBytes,
	)
}

var (
	downloadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "downloads_total",
			Help: "Asset downloads by source (drive/url) and outcome (ok/denied/fallback/error).",
		},
		[]string{"source", "outcome"},
	)

	downloadBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "download_bytes_total",
			Help: "Bytes streamed to buyers, by source.",
		},
		[]string{"source"},
	)
)

func IncDownload(source, outcome string) {
	downloadsTotal.WithLabelValues(norm(source), norm(outcome)).Inc()
}

func AddDownloadBytes(source string, n int64) {
	downloadBytes.WithLabelValues(norm(source)).Add(float64(n))
}
