// Copyright The esrows Authors
// SPDX-License-Identifier: Apache-2.0

package esrows // import "github.com/esrows/esrows"

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	elasticsearch7 "github.com/elastic/go-elasticsearch/v7"
	"github.com/elastic/go-elasticsearch/v7/esapi"
	"github.com/hashicorp/go-version"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/esrows/esrows/internal/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	errNoAggregations = errors.New("search response carries no aggregations section")

	es8 = func() *version.Version {
		v, _ := version.NewVersion("8.0")
		return v
	}()
)

// Client runs aggregation searches against an Elasticsearch cluster and
// returns the result as flattened rows. It is safe for concurrent use.
type Client struct {
	es     *elasticsearch7.Client
	logger *zap.Logger

	versionOnce sync.Once
	version     *version.Version
}

// NewClient builds a Client from cfg. A nil logger disables logging.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	headers := make(http.Header)
	// See https://www.elastic.co/guide/en/elasticsearch/reference/8.0/api-conventions.html#api-compatibility
	// the compatible-with=7 should signal to newer versions of Elasticsearch to use the v7.x API format.
	headers.Set("Accept", "application/vnd.elasticsearch+json; compatible-with=7")

	es, err := elasticsearch7.NewClient(elasticsearch7.Config{
		Transport: cfg.Transport,

		Addresses: cfg.Endpoints,
		Username:  cfg.Username,
		Password:  cfg.Password,
		Header:    headers,

		RetryOnStatus:        cfg.Retry.RetryOnStatus,
		DisableRetry:         !cfg.Retry.Enabled || cfg.Retry.MaxRetries <= 0,
		EnableRetryOnTimeout: cfg.Retry.Enabled,
		MaxRetries:           cfg.Retry.MaxRetries,
		RetryBackoff:         newBackoffFunc(cfg.Retry),

		Logger: (*clientLogger)(logger),
	})
	if err != nil {
		return nil, err
	}

	return &Client{es: es, logger: logger}, nil
}

func newBackoffFunc(cfg RetrySettings) func(int) time.Duration {
	if !cfg.Enabled {
		return nil
	}

	expBackoff := backoff.NewExponentialBackOff()
	if cfg.InitialInterval > 0 {
		expBackoff.InitialInterval = cfg.InitialInterval
	}
	if cfg.MaxInterval > 0 {
		expBackoff.MaxInterval = cfg.MaxInterval
	}
	expBackoff.Reset()

	return func(attempts int) time.Duration {
		if attempts == 1 {
			expBackoff.Reset()
		}

		return expBackoff.NextBackOff()
	}
}

// Search runs the aggregation query in body against index and flattens the
// aggregations of the response into rows. A response without an
// aggregations section is an error: hit parsing belongs to the rest of the
// query engine, not this client.
func (c *Client) Search(ctx context.Context, index string, body io.Reader) ([]Row, error) {
	c.probeVersion(ctx)

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(index),
		c.es.Search.WithBody(body),
		c.es.Search.WithTypedKeys(true),
	)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	if res.IsError() {
		return nil, searchError(res, raw)
	}

	var response model.SearchResponse
	if err := json.Unmarshal(raw, &response); err != nil {
		return nil, err
	}
	if response.Aggregations == nil {
		return nil, errNoAggregations
	}

	aggs, err := DecodeAggregations(response.Aggregations)
	if err != nil {
		return nil, err
	}
	return Flatten(aggs)
}

// probeVersion fetches the server version once, to log what the client is
// talking to. The search itself does not depend on the probe succeeding.
func (c *Client) probeVersion(ctx context.Context) {
	c.versionOnce.Do(func() {
		res, err := c.es.Info(c.es.Info.WithContext(ctx))
		if err != nil {
			c.logger.Debug("failed to fetch cluster info", zap.Error(err))
			return
		}
		defer res.Body.Close()

		var info model.ClusterInfo
		if err := json.NewDecoder(res.Body).Decode(&info); err != nil {
			c.logger.Debug("failed to decode cluster info", zap.Error(err))
			return
		}

		v, err := version.NewVersion(info.Version.Number)
		if err != nil {
			c.logger.Debug("failed to parse cluster version",
				zap.String("version", info.Version.Number), zap.Error(err))
			return
		}

		c.version = v
		if v.GreaterThanOrEqual(es8) {
			c.logger.Warn("cluster speaks the 8.x API; requests use the 7.x compatibility header",
				zap.String("version", info.Version.Number))
		}
	})
}

func searchError(res *esapi.Response, raw []byte) error {
	var errResponse model.ErrorResponse
	if err := json.Unmarshal(raw, &errResponse); err == nil && errResponse.Error.Type != "" {
		return fmt.Errorf("search failed: %s: %s (status %d)",
			errResponse.Error.Type, errResponse.Error.Reason, errResponse.Status)
	}
	return fmt.Errorf("search failed with status %s", res.Status())
}
