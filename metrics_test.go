package parquet_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/parquet-engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := parquet.NewMetrics(reg)

	schema := mustSchema(t, parquet.Group{
		parquet.NewField("id", parquet.Required(parquet.Leaf(parquet.Int64Type))),
		parquet.NewField("name", parquet.Optional(parquet.String())),
	})
	records := make([]map[string]interface{}, 10)
	for i := range records {
		records[i] = map[string]interface{}{"id": int64(i), "name": "n"}
	}

	data := writeBuffer(t, schema, records,
		parquet.WithMetrics(metrics),
		parquet.DictionaryFallbackThreshold(5),
	)
	f := openBuffer(t, data, parquet.WithMetrics(metrics))
	assert.Equal(t, records, readAll(t, f))

	// The id column falls back after 6 rows: one dictionary page, the
	// dictionary encoded page of the first rows, then a plain page. The name
	// column holds a single distinct value.
	expected := `
# HELP parquet_column_read_errors_total number of column chunks which failed to decode
# TYPE parquet_column_read_errors_total counter
parquet_column_read_errors_total 0
# HELP parquet_dictionary_fallbacks_total number of column chunks which fell back from dictionary encoding
# TYPE parquet_dictionary_fallbacks_total counter
parquet_dictionary_fallbacks_total 1
# HELP parquet_pages_read_total number of pages read, by page type
# TYPE parquet_pages_read_total counter
parquet_pages_read_total{type="DATA_PAGE"} 3
parquet_pages_read_total{type="DICTIONARY_PAGE"} 2
# HELP parquet_pages_written_total number of pages written, by page type
# TYPE parquet_pages_written_total counter
parquet_pages_written_total{type="DATA_PAGE"} 3
parquet_pages_written_total{type="DICTIONARY_PAGE"} 2
# HELP parquet_row_groups_read_total number of row groups opened for reading
# TYPE parquet_row_groups_read_total counter
parquet_row_groups_read_total 1
# HELP parquet_row_groups_written_total number of row groups written
# TYPE parquet_row_groups_written_total counter
parquet_row_groups_written_total 1
# HELP parquet_rows_written_total number of rows written
# TYPE parquet_rows_written_total counter
parquet_rows_written_total 10
`
	err := testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"parquet_column_read_errors_total",
		"parquet_dictionary_fallbacks_total",
		"parquet_pages_read_total",
		"parquet_pages_written_total",
		"parquet_row_groups_read_total",
		"parquet_row_groups_written_total",
		"parquet_rows_written_total",
	)
	require.NoError(t, err)

	written, err := testutil.GatherAndCount(reg, "parquet_page_bytes_written_total")
	require.NoError(t, err)
	assert.Equal(t, 2, written)
}

func TestMetricsColumnReadErrors(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := parquet.NewMetrics(reg)

	schema := mustSchema(t, parquet.Group{
		parquet.NewField("v", parquet.Encoded(parquet.Required(parquet.Leaf(parquet.Int64Type)), parquet.Plain)),
	})
	records := []map[string]interface{}{{"v": int64(1)}, {"v": int64(2)}}
	data := writeBuffer(t, schema, records, parquet.PageChecksums(true))

	chunk := openBuffer(t, data).Metadata().RowGroups()[0].Columns()[0]
	data[chunk.DataPageOffset()+chunk.TotalCompressedSize()-1] ^= 0xFF

	f := openBuffer(t, data, parquet.WithMetrics(metrics), parquet.VerifyChecksums(true))
	rg, err := f.RowGroup(0)
	require.NoError(t, err)
	_, err = rg.Column(0).ReadValues(make([]parquet.Value, 2))
	require.True(t, errors.Is(err, parquet.ErrCorruptedPage), err)

	expected := `
# HELP parquet_column_read_errors_total number of column chunks which failed to decode
# TYPE parquet_column_read_errors_total counter
parquet_column_read_errors_total 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "parquet_column_read_errors_total"))
}

func TestNilMetrics(t *testing.T) {
	schema := mustSchema(t, parquet.Group{
		parquet.NewField("v", parquet.Required(parquet.Leaf(parquet.Int32Type))),
	})
	data := writeBuffer(t, schema, []map[string]interface{}{{"v": int32(1)}}, parquet.WithMetrics(nil))
	f := openBuffer(t, data, parquet.WithMetrics(nil))
	assert.Equal(t, []map[string]interface{}{{"v": int32(1)}}, readAll(t, f))
}
