// Copyright The esrows Authors
// SPDX-License-Identifier: Apache-2.0

package esrows // import "github.com/esrows/esrows"

import (
	"math"
	"strings"

	"github.com/Velocidex/ordereddict"
	jsoniter "github.com/json-iterator/go"
)

// Aggregation type tags as they appear in typed_keys response keys. The
// single-value family covers every metric aggregation that reports one
// numeric "value" field.
var singleValueTypes = map[string]bool{
	"avg":                       true,
	"sum":                       true,
	"min":                       true,
	"max":                       true,
	"cardinality":               true,
	"value_count":               true,
	"weighted_avg":              true,
	"median_absolute_deviation": true,
	"rate":                      true,
}

var percentilesTypes = map[string]bool{
	"percentiles":         true,
	"tdigest_percentiles": true,
	"hdr_percentiles":     true,
}

// DecodeAggregations decodes the "aggregations" object of a search response
// issued with typed_keys, where every key has the form "type#name". Object
// order is preserved so that flattened output is deterministic. A key whose
// type tag is not recognized decodes to an Unknown node rather than failing,
// so that Flatten reports it through its single unsupported-type error path.
func DecodeAggregations(raw []byte) ([]Aggregation, error) {
	iter := jsoniter.ParseBytes(jsoniter.ConfigCompatibleWithStandardLibrary, raw)

	aggs := readAggregations(iter)
	if iter.Error != nil {
		return nil, iter.Error
	}
	return aggs, nil
}

// readAggregations reads one object of typed-key aggregations, skipping the
// non-aggregation fields (doc_count, key, after_key) that share the object
// in filter and composite payloads.
func readAggregations(iter *jsoniter.Iterator) []Aggregation {
	var aggs []Aggregation
	iter.ReadObjectCB(func(it *jsoniter.Iterator, field string) bool {
		typeTag, name, ok := strings.Cut(field, "#")
		if !ok {
			it.Skip()
			return true
		}
		aggs = append(aggs, readAggregation(it, typeTag, name))
		return it.Error == nil
	})
	return aggs
}

func readAggregation(iter *jsoniter.Iterator, typeTag, name string) Aggregation {
	switch {
	case singleValueTypes[typeTag]:
		return readSingleValue(iter, name)
	case percentilesTypes[typeTag]:
		return readPercentiles(iter, name)
	case typeTag == "stats":
		return readStats(iter, name)
	case typeTag == "filter":
		return Filter{AggName: name, Children: readAggregations(iter)}
	case typeTag == "composite":
		return readComposite(iter, name)
	default:
		iter.Skip()
		return Unknown{AggName: name, Type: typeTag}
	}
}

func readSingleValue(iter *jsoniter.Iterator, name string) Aggregation {
	agg := SingleValue{AggName: name, Value: math.NaN()}
	iter.ReadObjectCB(func(it *jsoniter.Iterator, field string) bool {
		if field == "value" {
			agg.Value = readNumber(it)
		} else {
			it.Skip()
		}
		return it.Error == nil
	})
	return agg
}

func readPercentiles(iter *jsoniter.Iterator, name string) Aggregation {
	agg := Percentiles{AggName: name}
	iter.ReadObjectCB(func(it *jsoniter.Iterator, field string) bool {
		if field == "values" {
			it.ReadObjectCB(func(it *jsoniter.Iterator, percent string) bool {
				agg.Entries = append(agg.Entries, Percentile{
					Percent: percent,
					Value:   readNumber(it),
				})
				return it.Error == nil
			})
		} else {
			it.Skip()
		}
		return it.Error == nil
	})
	return agg
}

func readStats(iter *jsoniter.Iterator, name string) Aggregation {
	agg := Stats{AggName: name}
	iter.ReadObjectCB(func(it *jsoniter.Iterator, field string) bool {
		switch field {
		case "min":
			agg.Min = readNumber(it)
		case "max":
			agg.Max = readNumber(it)
		case "avg":
			agg.Avg = readNumber(it)
		case "sum":
			agg.Sum = readNumber(it)
		case "count":
			agg.Count = it.ReadInt64()
		default:
			// min_as_string and friends carry no extra information.
			it.Skip()
		}
		return it.Error == nil
	})
	return agg
}

func readComposite(iter *jsoniter.Iterator, name string) Aggregation {
	agg := Composite{AggName: name}
	iter.ReadObjectCB(func(it *jsoniter.Iterator, field string) bool {
		if field != "buckets" {
			it.Skip()
			return true
		}
		it.ReadArrayCB(func(it *jsoniter.Iterator) bool {
			agg.Buckets = append(agg.Buckets, readBucket(it))
			return it.Error == nil
		})
		return it.Error == nil
	})
	return agg
}

// readBucket reads one composite bucket. The bucket object carries the group
// key under "key", a "doc_count", and the bucket's own typed sub-aggregations
// as its remaining fields.
func readBucket(iter *jsoniter.Iterator) Bucket {
	bucket := Bucket{Key: ordereddict.NewDict()}
	iter.ReadObjectCB(func(it *jsoniter.Iterator, field string) bool {
		switch {
		case field == "key":
			it.ReadObjectCB(func(it *jsoniter.Iterator, groupField string) bool {
				bucket.Key.Set(groupField, it.Read())
				return it.Error == nil
			})
		case field == "doc_count":
			it.Skip()
		default:
			typeTag, name, ok := strings.Cut(field, "#")
			if !ok {
				it.Skip()
				return true
			}
			bucket.Aggregations = append(bucket.Aggregations, readAggregation(it, typeTag, name))
		}
		return it.Error == nil
	})
	return bucket
}

// readNumber reads a float that the backend may render as JSON null when it
// could not be computed. Null maps to NaN; Flatten turns it back into null.
func readNumber(iter *jsoniter.Iterator) float64 {
	if iter.WhatIsNext() == jsoniter.NilValue {
		iter.ReadNil()
		return math.NaN()
	}
	return iter.ReadFloat64()
}
