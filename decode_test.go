// Copyright The esrows Authors
// SPDX-License-Identifier: Apache-2.0

package esrows

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeAggregations(t *testing.T) {
	raw := []byte(`{
		"avg#avg_age": {"value": 33.5},
		"value_count#count": {"value": 5},
		"percentiles#latency": {"values": {"50.0": 12.3, "99.0": 88.1}},
		"stats#price_stats": {"count": 10, "min": 1.0, "max": 9.0, "avg": 5.0, "sum": 50.0, "min_as_string": "1.0"},
		"filter#filtered": {
			"doc_count": 4,
			"value_count#inner_count": {"value": 4}
		},
		"composite#group_by": {
			"after_key": {"city": "NYC"},
			"buckets": [
				{
					"key": {"city": "NYC", "dept": "eng"},
					"doc_count": 3,
					"value_count#count": {"value": 3}
				}
			]
		}
	}`)

	aggs, err := DecodeAggregations(raw)
	require.NoError(t, err)
	require.Len(t, aggs, 6)

	avg, ok := aggs[0].(SingleValue)
	require.True(t, ok)
	assert.Equal(t, "avg_age", avg.AggName)
	assert.Equal(t, 33.5, avg.Value)

	count, ok := aggs[1].(SingleValue)
	require.True(t, ok)
	assert.Equal(t, "count", count.AggName)
	assert.Equal(t, 5.0, count.Value)

	latency, ok := aggs[2].(Percentiles)
	require.True(t, ok)
	assert.Equal(t, "latency", latency.AggName)
	require.Len(t, latency.Entries, 2)
	assert.Equal(t, Percentile{Percent: "50.0", Value: 12.3}, latency.Entries[0])
	assert.Equal(t, Percentile{Percent: "99.0", Value: 88.1}, latency.Entries[1])

	stats, ok := aggs[3].(Stats)
	require.True(t, ok)
	assert.Equal(t, Stats{AggName: "price_stats", Min: 1, Max: 9, Avg: 5, Sum: 50, Count: 10}, stats)

	filtered, ok := aggs[4].(Filter)
	require.True(t, ok)
	assert.Equal(t, "filtered", filtered.AggName)
	require.Len(t, filtered.Children, 1)
	inner, ok := filtered.Children[0].(SingleValue)
	require.True(t, ok)
	assert.Equal(t, "inner_count", inner.AggName)

	composite, ok := aggs[5].(Composite)
	require.True(t, ok)
	assert.Equal(t, "group_by", composite.AggName)
	require.Len(t, composite.Buckets, 1)
	bucket := composite.Buckets[0]
	assert.Equal(t, []string{"city", "dept"}, bucket.Key.Keys())
	city, _ := bucket.Key.Get("city")
	assert.Equal(t, "NYC", city)
	require.Len(t, bucket.Aggregations, 1)
}

func TestDecodeAggregationsNullValues(t *testing.T) {
	raw := []byte(`{
		"avg#avg_age": {"value": null},
		"percentiles#latency": {"values": {"50.0": null}},
		"stats#s": {"count": 0, "min": null, "max": null, "avg": null, "sum": null}
	}`)

	aggs, err := DecodeAggregations(raw)
	require.NoError(t, err)
	require.Len(t, aggs, 3)

	avg := aggs[0].(SingleValue)
	assert.True(t, math.IsNaN(avg.Value))

	latency := aggs[1].(Percentiles)
	require.Len(t, latency.Entries, 1)
	assert.True(t, math.IsNaN(latency.Entries[0].Value))

	stats := aggs[2].(Stats)
	assert.True(t, math.IsNaN(stats.Min))
	assert.True(t, math.IsNaN(stats.Max))
	assert.True(t, math.IsNaN(stats.Avg))
	assert.True(t, math.IsNaN(stats.Sum))
	assert.Equal(t, int64(0), stats.Count)
}

func TestDecodeAggregationsUnknownType(t *testing.T) {
	raw := []byte(`{
		"sterms#by_city": {"buckets": [{"key": "NYC", "doc_count": 3}]},
		"value_count#count": {"value": 5}
	}`)

	aggs, err := DecodeAggregations(raw)
	require.NoError(t, err, "unknown types are kept for Flatten to report")
	require.Len(t, aggs, 2)

	unknown, ok := aggs[0].(Unknown)
	require.True(t, ok)
	assert.Equal(t, "by_city", unknown.AggName)
	assert.Equal(t, "sterms", unknown.Type)

	_, err = Flatten(aggs)
	var unsupportedErr *UnsupportedAggregationTypeError
	require.ErrorAs(t, err, &unsupportedErr)
	assert.Equal(t, "sterms", unsupportedErr.Type)
}

func TestDecodeAggregationsUntypedKeysAreSkipped(t *testing.T) {
	// Without typed_keys there is no way to classify a node; such fields are
	// treated as envelope noise, same as doc_count inside a filter.
	raw := []byte(`{
		"doc_count": 7,
		"value_count#count": {"value": 5}
	}`)

	aggs, err := DecodeAggregations(raw)
	require.NoError(t, err)
	require.Len(t, aggs, 1)
	assert.Equal(t, "count", aggs[0].Name())
}

func TestDecodeAggregationsMalformed(t *testing.T) {
	_, err := DecodeAggregations([]byte(`{"avg#a": {`))
	assert.Error(t, err)
}

func TestDecodeThenFlatten(t *testing.T) {
	raw := []byte(`{
		"composite#group_by": {
			"buckets": [
				{"key": {"city": "NYC"}, "doc_count": 3, "value_count#count": {"value": 3}},
				{"key": {"city": "LA"}, "doc_count": 7, "value_count#count": {"value": 7}}
			]
		}
	}`)

	aggs, err := DecodeAggregations(raw)
	require.NoError(t, err)

	rows, err := Flatten(aggs)
	require.NoError(t, err)
	assert.Equal(t, `[{"city":"NYC","count":3},{"city":"LA","count":7}]`, rowsJSON(t, rows))
}
