// Copyright The esrows Authors
// SPDX-License-Identifier: Apache-2.0

package esrows // import "github.com/esrows/esrows"

import (
	"fmt"
	"math"

	"github.com/Velocidex/ordereddict"
)

// Row is one flattened result row: field name → scalar or structured value.
// Keys iterate and marshal in insertion order.
type Row = *ordereddict.Dict

// UnsupportedAggregationTypeError is returned when an aggregation tree
// contains a variant this package does not recognize. The whole flattening
// fails; no partial rows are returned.
type UnsupportedAggregationTypeError struct {
	AggName string
	Type    string
}

func (e *UnsupportedAggregationTypeError) Error() string {
	return fmt.Sprintf("unsupported aggregation type %q for aggregation %q", e.Type, e.AggName)
}

// Flatten converts a sequence of sibling aggregation nodes into rows.
//
// If any sibling is a Composite, each composite expands to one row per
// bucket, concatenated in sibling order, and the contributions of
// non-composite siblings are discarded. A query with aggregations either
// groups or it does not; the mixed case has no symmetric resolution and
// bucketed rows win.
//
// Otherwise every sibling's contribution is merged into a single row, later
// siblings overriding earlier ones on key collision. An empty input yields
// an empty (nil) result.
func Flatten(aggs []Aggregation) ([]Row, error) {
	var rows []Row
	noBucket := ordereddict.NewDict()

	for _, agg := range aggs {
		composite, ok := agg.(Composite)
		if !ok {
			contribution, err := leafValues(agg)
			if err != nil {
				return nil, err
			}
			mergeInto(noBucket, contribution)
			continue
		}
		for _, bucket := range composite.Buckets {
			row, err := expandBucket(bucket)
			if err != nil {
				return nil, err
			}
			rows = append(rows, row)
		}
	}

	if hasComposite(aggs) {
		return rows, nil
	}
	if noBucket.Len() == 0 {
		return nil, nil
	}
	return []Row{noBucket}, nil
}

func hasComposite(aggs []Aggregation) bool {
	for _, agg := range aggs {
		if _, ok := agg.(Composite); ok {
			return true
		}
	}
	return false
}

// expandBucket builds the row for one composite bucket: group key entries
// first, then each child aggregation's contribution, with later writes
// overriding earlier ones on collision.
func expandBucket(bucket Bucket) (Row, error) {
	row := ordereddict.NewDict()
	if bucket.Key != nil {
		mergeInto(row, bucket.Key)
	}
	for _, agg := range bucket.Aggregations {
		contribution, err := leafValues(agg)
		if err != nil {
			return nil, err
		}
		mergeInto(row, contribution)
	}
	return row, nil
}

// leafValues dispatches one non-composite node to its extraction rule and
// returns its contribution as name → value pairs. Composite nodes never
// reach this point; Flatten routes them to expandBucket.
func leafValues(agg Aggregation) (*ordereddict.Dict, error) {
	result := ordereddict.NewDict()

	switch a := agg.(type) {
	case SingleValue:
		result.Set(a.AggName, normalize(a.Value))
	case Percentiles:
		values := ordereddict.NewDict()
		for _, entry := range a.Entries {
			values.Set(entry.Percent, normalize(entry.Value))
		}
		result.Set(a.AggName, values)
	case Stats:
		result.Set(a.AggName, ordereddict.NewDict().
			Set("min", normalize(a.Min)).
			Set("max", normalize(a.Max)).
			Set("avg", normalize(a.Avg)).
			Set("sum", normalize(a.Sum)).
			Set("count", a.Count))
	case Filter:
		// The wrapper is transparent: each child surfaces under its own
		// name, never under the filter's.
		for _, child := range a.Children {
			contribution, err := leafValues(child)
			if err != nil {
				return nil, err
			}
			mergeInto(result, contribution)
		}
	case Unknown:
		return nil, &UnsupportedAggregationTypeError{AggName: a.AggName, Type: a.Type}
	default:
		return nil, &UnsupportedAggregationTypeError{AggName: agg.Name(), Type: fmt.Sprintf("%T", agg)}
	}

	return result, nil
}

// normalize replaces NaN, the backend's encoding of "not computable", with
// nil. It is the only numeric transformation this package performs.
func normalize(v float64) interface{} {
	if math.IsNaN(v) {
		return nil
	}
	return v
}

// mergeInto copies src into dst, overriding dst's value on key collision.
// The override is silent: it is the documented merge policy, not an error.
func mergeInto(dst, src *ordereddict.Dict) {
	for _, key := range src.Keys() {
		value, _ := src.Get(key)
		dst.Set(key, value)
	}
}
