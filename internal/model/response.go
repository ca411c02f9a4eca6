// Copyright The esrows Authors
// SPDX-License-Identifier: Apache-2.0

// Package model holds the wire envelope of an Elasticsearch search response.
// Only the parts this library reads are modeled; the aggregations object is
// kept raw and decoded by the root package, which needs its key order.
package model // import "github.com/esrows/esrows/internal/model"

import "encoding/json"

// SearchResponse is the envelope of a _search response.
type SearchResponse struct {
	Took         int             `json:"took"`
	TimedOut     bool            `json:"timed_out"`
	Shards       ShardStats      `json:"_shards"`
	Hits         Hits            `json:"hits"`
	Aggregations json.RawMessage `json:"aggregations"`
}

// ShardStats reports how many shards served the search.
type ShardStats struct {
	Total      int `json:"total"`
	Successful int `json:"successful"`
	Skipped    int `json:"skipped"`
	Failed     int `json:"failed"`
}

// Hits carries the document hits of the response. Aggregation queries run
// with size=0, so only the total is of interest here.
type Hits struct {
	Total HitsTotal `json:"total"`
}

// HitsTotal is the hit count, exact or a lower bound depending on Relation.
type HitsTotal struct {
	Value    int64  `json:"value"`
	Relation string `json:"relation"`
}

// ClusterInfo is the subset of the root endpoint's response the client
// reads to learn the server version.
type ClusterInfo struct {
	ClusterName string `json:"cluster_name"`
	Version     struct {
		Number string `json:"number"`
	} `json:"version"`
}

// ErrorResponse is the envelope Elasticsearch returns for a failed request.
type ErrorResponse struct {
	Status int        `json:"status"`
	Error  ErrorCause `json:"error"`
}

// ErrorCause describes the failure reported by the backend.
type ErrorCause struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}
