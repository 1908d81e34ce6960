package parquet

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/parquet-engine/format"
)

// Metrics holds the prometheus collectors that readers and writers report to.
//
// A nil *Metrics is valid and discards all observations.
type Metrics struct {
	pagesWritten        *prometheus.CounterVec
	pageBytesWritten    *prometheus.CounterVec
	rowGroupsWritten    prometheus.Counter
	rowsWritten         prometheus.Counter
	dictionaryFallbacks prometheus.Counter

	pagesRead        *prometheus.CounterVec
	pageBytesRead    *prometheus.CounterVec
	rowGroupsRead    prometheus.Counter
	columnReadErrors prometheus.Counter
}

// NewMetrics creates the collectors of parquet readers and writers and
// registers them on r, which may be nil.
func NewMetrics(r prometheus.Registerer) *Metrics {
	pageType := []string{"type"}
	return &Metrics{
		pagesWritten: promauto.With(r).NewCounterVec(prometheus.CounterOpts{
			Name: "parquet_pages_written_total",
			Help: "number of pages written, by page type",
		}, pageType),
		pageBytesWritten: promauto.With(r).NewCounterVec(prometheus.CounterOpts{
			Name: "parquet_page_bytes_written_total",
			Help: "compressed bytes of pages written, headers included, by page type",
		}, pageType),
		rowGroupsWritten: promauto.With(r).NewCounter(prometheus.CounterOpts{
			Name: "parquet_row_groups_written_total",
			Help: "number of row groups written",
		}),
		rowsWritten: promauto.With(r).NewCounter(prometheus.CounterOpts{
			Name: "parquet_rows_written_total",
			Help: "number of rows written",
		}),
		dictionaryFallbacks: promauto.With(r).NewCounter(prometheus.CounterOpts{
			Name: "parquet_dictionary_fallbacks_total",
			Help: "number of column chunks which fell back from dictionary encoding",
		}),
		pagesRead: promauto.With(r).NewCounterVec(prometheus.CounterOpts{
			Name: "parquet_pages_read_total",
			Help: "number of pages read, by page type",
		}, pageType),
		pageBytesRead: promauto.With(r).NewCounterVec(prometheus.CounterOpts{
			Name: "parquet_page_bytes_read_total",
			Help: "compressed bytes of pages read, headers excluded, by page type",
		}, pageType),
		rowGroupsRead: promauto.With(r).NewCounter(prometheus.CounterOpts{
			Name: "parquet_row_groups_read_total",
			Help: "number of row groups opened for reading",
		}),
		columnReadErrors: promauto.With(r).NewCounter(prometheus.CounterOpts{
			Name: "parquet_column_read_errors_total",
			Help: "number of column chunks which failed to decode",
		}),
	}
}

func (m *Metrics) pageWritten(pageType format.PageType, size int64) {
	if m != nil {
		m.pagesWritten.WithLabelValues(pageType.String()).Inc()
		m.pageBytesWritten.WithLabelValues(pageType.String()).Add(float64(size))
	}
}

func (m *Metrics) rowGroupWritten(numRows int64) {
	if m != nil {
		m.rowGroupsWritten.Inc()
		m.rowsWritten.Add(float64(numRows))
	}
}

func (m *Metrics) dictionaryFallback() {
	if m != nil {
		m.dictionaryFallbacks.Inc()
	}
}

func (m *Metrics) pageRead(pageType format.PageType, size int64) {
	if m != nil {
		m.pagesRead.WithLabelValues(pageType.String()).Inc()
		m.pageBytesRead.WithLabelValues(pageType.String()).Add(float64(size))
	}
}

func (m *Metrics) rowGroupRead() {
	if m != nil {
		m.rowGroupsRead.Inc()
	}
}

func (m *Metrics) columnReadError() {
	if m != nil {
		m.columnReadErrors.Inc()
	}
}
