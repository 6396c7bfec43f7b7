// Copyright 2025 FieldScope, LLC
//
// Licensed under the Business Source License 1.1 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://mariadb.com/bsl11
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package heartland

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/fieldscopehq/heartland-harvester/internal/apierror"
	harvesterrors "github.com/fieldscopehq/heartland-harvester/internal/errors"
)

// RetryConfig configures the retry behavior for API calls
type RetryConfig struct {
	// MaxAttempts is the total number of attempts, including the first
	MaxAttempts int
	// InitialBackoff is the initial backoff duration
	InitialBackoff time.Duration
	// MaxBackoff is the maximum backoff duration
	MaxBackoff time.Duration
	// BackoffMultiplier is the multiplier for exponential backoff
	BackoffMultiplier float64
}

// DefaultRetryConfig returns the default retry configuration
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:       5,
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// RetryClient wraps a portal client with automatic retry logic for
// rate limits and transient network errors using exponential backoff.
// Authentication and validation errors are never retried.
type RetryClient struct {
	client    Client
	config    *RetryConfig
	inspector apierror.Inspector
}

// NewRetryClient creates a new RetryClient with the given configuration
func NewRetryClient(client Client, config *RetryConfig) Client {
	if config == nil {
		config = DefaultRetryConfig()
	}
	return &RetryClient{
		client:    client,
		config:    config,
		inspector: apierror.NewInspector(),
	}
}

// Login implements the Client interface with retry logic. Only transport
// failures are retried; a rejected credential fails immediately.
func (r *RetryClient) Login(ctx context.Context) error {
	var lastErr error

	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		err := r.client.Login(ctx)
		if err == nil {
			return nil
		}

		lastErr = err

		// Don't retry on non-retryable errors
		if !r.shouldRetry(err) {
			return err
		}

		// Don't retry if context is cancelled
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if waitErr := r.wait(ctx, err, attempt); waitErr != nil {
			return waitErr
		}
	}

	return fmt.Errorf("failed after %d attempts: %w", r.config.MaxAttempts, lastErr)
}

// FetchRecords implements the Client interface with retry logic
func (r *RetryClient) FetchRecords(ctx context.Context, opts FetchOptions) (*RecordPage, error) {
	var lastErr error

	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		page, err := r.client.FetchRecords(ctx, opts)
		if err == nil {
			return page, nil
		}

		lastErr = err

		// Don't retry on non-retryable errors
		if !r.shouldRetry(err) {
			return nil, err
		}

		// Don't retry if context is cancelled
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if waitErr := r.wait(ctx, err, attempt); waitErr != nil {
			return nil, waitErr
		}
	}

	return nil, fmt.Errorf("failed after %d attempts: %w", r.config.MaxAttempts, lastErr)
}

// GetPortalInfo implements the Client interface with retry logic
func (r *RetryClient) GetPortalInfo(ctx context.Context) (*PortalInfo, error) {
	var lastErr error

	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		info, err := r.client.GetPortalInfo(ctx)
		if err == nil {
			return info, nil
		}

		lastErr = err

		// Don't retry on non-retryable errors
		if !r.shouldRetry(err) {
			return nil, err
		}

		// Don't retry if context is cancelled
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if waitErr := r.wait(ctx, err, attempt); waitErr != nil {
			return nil, waitErr
		}
	}

	return nil, fmt.Errorf("failed after %d attempts: %w", r.config.MaxAttempts, lastErr)
}

// wait announces the retry on stderr and sleeps with context cancellation support
func (r *RetryClient) wait(ctx context.Context, err error, attempt int) error {
	// Last attempt gets no backoff; the loop exits with the final error
	if attempt >= r.config.MaxAttempts {
		return nil
	}

	backoff := r.calculateBackoff(attempt - 1)

	if r.isRateLimit(err) {
		fmt.Fprintf(os.Stderr, "\nRate limit hit. Waiting %v before retry (attempt %d/%d)...\n",
			backoff.Round(time.Millisecond), attempt, r.config.MaxAttempts)
	} else {
		fmt.Fprintf(os.Stderr, "\nNetwork error. Retrying in %v (attempt %d/%d)...\n",
			backoff.Round(time.Millisecond), attempt, r.config.MaxAttempts)
	}

	select {
	case <-time.After(backoff):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// shouldRetry determines if an error is retryable
func (r *RetryClient) shouldRetry(err error) bool {
	// Retry on rate limit errors
	if r.isRateLimit(err) {
		return true
	}

	// Retry on network and transient server errors
	if errors.Is(err, harvesterrors.ErrNetworkFailure) {
		return true
	}
	if r.inspector.IsNetworkError(err) || r.inspector.IsServerError(err) {
		return true
	}

	// Don't retry on other errors (auth, validation, etc.)
	return false
}

func (r *RetryClient) isRateLimit(err error) bool {
	return errors.Is(err, harvesterrors.ErrRateLimit) || r.inspector.IsRateLimitError(err)
}

// calculateBackoff calculates the backoff duration for the given attempt
func (r *RetryClient) calculateBackoff(attempt int) time.Duration {
	// Calculate exponential backoff
	backoff := float64(r.config.InitialBackoff) * math.Pow(r.config.BackoffMultiplier, float64(attempt))

	// Apply max backoff limit
	if backoff > float64(r.config.MaxBackoff) {
		backoff = float64(r.config.MaxBackoff)
	}

	// Add jitter (±10%) to prevent thundering herd
	jitter := backoff * 0.1 * (2*float64(time.Now().UnixNano()%100)/100 - 1)
	backoff += jitter

	return time.Duration(backoff)
}
