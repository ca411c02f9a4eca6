// Copyright The esrows Authors
// SPDX-License-Identifier: Apache-2.0

package esrows // import "github.com/esrows/esrows"

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// clientLogger implements the estransport.Logger interface that the
// Elasticsearch client requires for logging.
type clientLogger zap.Logger

// LogRoundTrip should not modify the request or response, except for
// consuming and closing the body. Implementations have to check for nil
// values in request and response.
func (cl *clientLogger) LogRoundTrip(req *http.Request, resp *http.Response, err error, _ time.Time, dur time.Duration) error {
	zl := (*zap.Logger)(cl)
	switch {
	case err == nil && resp != nil:
		zl.Debug("search request roundtrip completed",
			zap.String("path", req.URL.Path),
			zap.String("method", req.Method),
			zap.Duration("duration", dur),
			zap.String("status", resp.Status))

	case err != nil:
		zl.Error("search request failed", zap.NamedError("reason", err))
	}

	return nil
}

// RequestBodyEnabled makes the client pass a copy of request body to the logger.
func (*clientLogger) RequestBodyEnabled() bool { return false }

// ResponseBodyEnabled makes the client pass a copy of response body to the logger.
func (*clientLogger) ResponseBodyEnabled() bool { return false }
