// Copyright The esrows Authors
// SPDX-License-Identifier: Apache-2.0

// Package esrows flattens Elasticsearch aggregation responses into SQL-style
// rows: an ordered sequence of field→value mappings, one row per composite
// bucket, or a single merged row when no bucketed aggregation is present.
package esrows // import "github.com/esrows/esrows"

import "github.com/Velocidex/ordereddict"

// Aggregation is one node of an aggregation result tree. The set of
// implementations is closed: anything else the backend returns is carried as
// an Unknown node and fails flattening.
type Aggregation interface {
	// Name returns the aggregation's name, unique among siblings.
	Name() string

	isAggregation()
}

// SingleValue is a numeric metric aggregation with one result, such as avg,
// sum, min, max, cardinality or value_count. Value is NaN when the backend
// could not compute the metric (for example the average of zero documents).
type SingleValue struct {
	AggName string
	Value   float64
}

// Percentiles is a percentiles aggregation result. Entries preserve the
// order the backend returned them in.
type Percentiles struct {
	AggName string
	Entries []Percentile
}

// Percentile is a single percent-rank/value pair. Percent is kept as the
// backend's string label to avoid floating-point key collisions.
type Percentile struct {
	Percent string
	Value   float64
}

// Stats is a stats aggregation result. The numeric fields are NaN when the
// bucket matched no documents.
type Stats struct {
	AggName string
	Min     float64
	Max     float64
	Avg     float64
	Sum     float64
	Count   int64
}

// Filter is a filter aggregation. It is a pass-through wrapper: its children
// are surfaced under their own names and the wrapper's name never appears in
// the output.
type Filter struct {
	AggName  string
	Children []Aggregation
}

// Composite is a composite (grouping) aggregation. It is the only variant
// that produces multiple rows, one per bucket.
type Composite struct {
	AggName string
	Buckets []Bucket
}

// Bucket is one group of a composite aggregation: the group key values and
// the metrics computed within the group.
type Bucket struct {
	// Key maps each grouping field to its value for this bucket, in the
	// order the backend returned the fields.
	Key *ordereddict.Dict

	Aggregations []Aggregation
}

// Unknown is an aggregation variant this package does not support. Decoding
// keeps it so that Flatten can fail with the declared type in the error.
type Unknown struct {
	AggName string
	Type    string
}

func (a SingleValue) Name() string { return a.AggName }
func (a Percentiles) Name() string { return a.AggName }
func (a Stats) Name() string       { return a.AggName }
func (a Filter) Name() string      { return a.AggName }
func (a Composite) Name() string   { return a.AggName }
func (a Unknown) Name() string     { return a.AggName }

func (SingleValue) isAggregation() {}
func (Percentiles) isAggregation() {}
func (Stats) isAggregation()       {}
func (Filter) isAggregation()      {}
func (Composite) isAggregation()   {}
func (Unknown) isAggregation()     {}
