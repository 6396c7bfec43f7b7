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
	"testing"
	"time"
)

// flakyClient is a mock client that fails a fixed number of times
// before succeeding.
type flakyClient struct {
	attempts     int
	maxFailures  int
	failureError error
	successPage  *RecordPage
}

func (m *flakyClient) Login(ctx context.Context) error {
	m.attempts++
	if m.attempts <= m.maxFailures {
		return m.failureError
	}
	return nil
}

func (m *flakyClient) FetchRecords(ctx context.Context, opts FetchOptions) (*RecordPage, error) {
	m.attempts++
	if m.attempts <= m.maxFailures {
		return nil, m.failureError
	}
	return m.successPage, nil
}

func (m *flakyClient) GetPortalInfo(ctx context.Context) (*PortalInfo, error) {
	m.attempts++
	if m.attempts <= m.maxFailures {
		return nil, m.failureError
	}
	return &PortalInfo{TotalRecords: 100}, nil
}

func TestRetryClient_RateLimitRetry(t *testing.T) {
	tests := []struct {
		name             string
		maxFailures      int
		maxAttempts      int
		expectError      bool
		expectedAttempts int
	}{
		{
			name:             "succeeds after one retry",
			maxFailures:      1,
			maxAttempts:      4,
			expectError:      false,
			expectedAttempts: 2,
		},
		{
			name:             "succeeds on final attempt",
			maxFailures:      3,
			maxAttempts:      4,
			expectError:      false,
			expectedAttempts: 4,
		},
		{
			name:             "fails after max attempts exceeded",
			maxFailures:      6,
			maxAttempts:      4,
			expectError:      true,
			expectedAttempts: 4,
		},
		{
			name:             "succeeds immediately",
			maxFailures:      0,
			maxAttempts:      4,
			expectError:      false,
			expectedAttempts: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Create mock client that fails with rate limit error
			mockClient := &flakyClient{
				maxFailures:  tt.maxFailures,
				failureError: errors.New("API rate limit exceeded"),
				successPage:  &RecordPage{},
			}

			// Create retry client with fast backoff for testing
			config := &RetryConfig{
				MaxAttempts:       tt.maxAttempts,
				InitialBackoff:    time.Millisecond,
				MaxBackoff:        10 * time.Millisecond,
				BackoffMultiplier: 2.0,
			}
			retryClient := NewRetryClient(mockClient, config)

			// Execute request
			ctx := context.Background()
			_, err := retryClient.FetchRecords(ctx, FetchOptions{})

			// Verify error expectation
			if tt.expectError && err == nil {
				t.Error("expected error but got nil")
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}

			// Verify number of attempts
			if mockClient.attempts != tt.expectedAttempts {
				t.Errorf("expected %d attempts, got %d", tt.expectedAttempts, mockClient.attempts)
			}
		})
	}
}

func TestRetryClient_NetworkErrorRetry(t *testing.T) {
	// Create mock client that fails with network error
	mockClient := &flakyClient{
		maxFailures:  2,
		failureError: errors.New("dial tcp: connection refused"),
		successPage:  &RecordPage{},
	}

	// Create retry client with fast backoff for testing
	config := &RetryConfig{
		MaxAttempts:       4,
		InitialBackoff:    time.Millisecond,
		MaxBackoff:        10 * time.Millisecond,
		BackoffMultiplier: 2.0,
	}
	retryClient := NewRetryClient(mockClient, config)

	// Execute request
	ctx := context.Background()
	_, err := retryClient.FetchRecords(ctx, FetchOptions{})

	// Should succeed after retries
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	// Should have made 3 attempts (2 failures + 1 success)
	if mockClient.attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", mockClient.attempts)
	}
}

func TestRetryClient_LoginTransientFailure(t *testing.T) {
	mockClient := &flakyClient{
		maxFailures:  1,
		failureError: errors.New("503 Service Unavailable"),
	}

	config := &RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    time.Millisecond,
		MaxBackoff:        10 * time.Millisecond,
		BackoffMultiplier: 2.0,
	}
	retryClient := NewRetryClient(mockClient, config)

	if err := retryClient.Login(context.Background()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if mockClient.attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", mockClient.attempts)
	}
}

func TestRetryClient_NonRetryableError(t *testing.T) {
	nonRetryableErrors := []struct {
		name  string
		error string
	}{
		{"auth error", "401 unauthorized"},
		{"not found", "404 not found"},
		{"forbidden", "403 forbidden"},
	}

	for _, tt := range nonRetryableErrors {
		t.Run(tt.name, func(t *testing.T) {
			// Create mock client that fails with non-retryable error
			mockClient := &flakyClient{
				maxFailures:  10,
				failureError: errors.New(tt.error),
			}

			// Create retry client
			config := &RetryConfig{
				MaxAttempts:       4,
				InitialBackoff:    time.Millisecond,
				MaxBackoff:        10 * time.Millisecond,
				BackoffMultiplier: 2.0,
			}
			retryClient := NewRetryClient(mockClient, config)

			// Execute request
			ctx := context.Background()
			_, err := retryClient.GetPortalInfo(ctx)

			// Should fail immediately without retries
			if err == nil {
				t.Error("expected error but got nil")
			}

			// Should only make 1 attempt
			if mockClient.attempts != 1 {
				t.Errorf("expected 1 attempt, got %d", mockClient.attempts)
			}
		})
	}
}

func TestRetryClient_ContextCancellation(t *testing.T) {
	// Create mock client that always fails
	mockClient := &flakyClient{
		maxFailures:  10,
		failureError: errors.New("API rate limit exceeded"),
	}

	// Create retry client with longer backoff
	config := &RetryConfig{
		MaxAttempts:       4,
		InitialBackoff:    100 * time.Millisecond,
		MaxBackoff:        1 * time.Second,
		BackoffMultiplier: 2.0,
	}
	retryClient := NewRetryClient(mockClient, config)

	// Create context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	// Execute request
	start := time.Now()
	_, err := retryClient.FetchRecords(ctx, FetchOptions{})
	duration := time.Since(start)

	// Should fail with context error
	if err == nil || !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected context deadline exceeded error, got: %v", err)
	}

	// Should complete quickly due to context cancellation
	if duration > 200*time.Millisecond {
		t.Errorf("operation took too long: %v", duration)
	}

	// Should only make 1 or 2 attempts before context cancellation
	if mockClient.attempts > 2 {
		t.Errorf("too many attempts: %d", mockClient.attempts)
	}
}

func TestRetryClient_BackoffCalculation(t *testing.T) {
	config := &RetryConfig{
		MaxAttempts:       6,
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
	}
	client := &RetryClient{config: config}

	tests := []struct {
		attempt     int
		minExpected time.Duration
		maxExpected time.Duration
	}{
		{0, 900 * time.Millisecond, 1100 * time.Millisecond},    // 1s ± 10%
		{1, 1800 * time.Millisecond, 2200 * time.Millisecond},   // 2s ± 10%
		{2, 3600 * time.Millisecond, 4400 * time.Millisecond},   // 4s ± 10%
		{3, 7200 * time.Millisecond, 8800 * time.Millisecond},   // 8s ± 10%
		{4, 14400 * time.Millisecond, 17600 * time.Millisecond}, // 16s ± 10%
		{5, 27000 * time.Millisecond, 33000 * time.Millisecond}, // 30s (max) ± 10%
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			backoff := client.calculateBackoff(tt.attempt)
			if backoff < tt.minExpected || backoff > tt.maxExpected {
				t.Errorf("backoff for attempt %d = %v, want between %v and %v",
					tt.attempt, backoff, tt.minExpected, tt.maxExpected)
			}
		})
	}
}
