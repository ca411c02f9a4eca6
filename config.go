// Copyright The esrows Authors
// SPDX-License-Identifier: Apache-2.0

package esrows // import "github.com/esrows/esrows"

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/multierr"
)

const (
	defaultMaxRetries      = 3
	defaultInitialInterval = 100 * time.Millisecond
	defaultMaxInterval     = time.Minute
)

var defaultRetryOnStatus = []int{429, 502, 503, 504}

// Config configures a Client.
type Config struct {
	// Endpoints lists the Elasticsearch node URLs.
	Endpoints []string

	// Username and Password configure basic authentication. Both must be
	// set, or neither.
	Username string
	Password string

	// Retry configures retries of failed search requests.
	Retry RetrySettings

	// Transport overrides the HTTP transport. Nil means a clone of
	// http.DefaultTransport.
	Transport http.RoundTripper
}

// RetrySettings holds the retry/backoff behavior of the client.
type RetrySettings struct {
	// Enabled turns retries on. Defaults to true in DefaultConfig.
	Enabled bool

	// MaxRetries is the number of retries after the initial attempt.
	MaxRetries int

	// RetryOnStatus lists the HTTP status codes that trigger a retry.
	RetryOnStatus []int

	// InitialInterval and MaxInterval bound the exponential backoff
	// between attempts.
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultConfig returns a Config with retries enabled and backoff defaults
// filled in. Endpoints must still be set by the caller.
func DefaultConfig() Config {
	return Config{
		Retry: RetrySettings{
			Enabled:         true,
			MaxRetries:      defaultMaxRetries,
			RetryOnStatus:   defaultRetryOnStatus,
			InitialInterval: defaultInitialInterval,
			MaxInterval:     defaultMaxInterval,
		},
	}
}

var (
	errConfigNoEndpoint    = errors.New("endpoints must not be empty")
	errConfigPartialAuth   = errors.New("username and password must be set together")
	errConfigNegativeRetry = errors.New("retry.max_retries must not be negative")
)

// Validate checks the configuration, reporting every problem found.
func (cfg Config) Validate() error {
	var err error

	if len(cfg.Endpoints) == 0 {
		err = multierr.Append(err, errConfigNoEndpoint)
	}
	for _, endpoint := range cfg.Endpoints {
		if _, urlErr := url.ParseRequestURI(endpoint); urlErr != nil {
			err = multierr.Append(err, urlErr)
		}
	}
	if (cfg.Username == "") != (cfg.Password == "") {
		err = multierr.Append(err, errConfigPartialAuth)
	}
	if cfg.Retry.MaxRetries < 0 {
		err = multierr.Append(err, errConfigNegativeRetry)
	}

	return err
}
