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
	"encoding/json"
	"fmt"
	"strconv"

	harvesterrors "github.com/fieldscopehq/heartland-harvester/internal/errors"
)

// MockClient is a mock implementation of the portal Client interface for testing.
// It serves pages out of an in-memory record slice, honoring page size and
// pagination tokens the way the real portal does.
type MockClient struct {
	// Records to serve
	Records []Record

	// Error to return
	Error error

	// Behavior flags
	ShouldFailAuth    bool
	ShouldFailNetwork bool

	// Track calls for verification
	LoginCalls int
	FetchCalls int
	LastOpts   FetchOptions
	loggedIn   bool
}

// NewMockClient creates a new mock client with default test data
func NewMockClient() *MockClient {
	return &MockClient{
		Records: generateTestRecords(3),
	}
}

// Login implements the Client interface
func (m *MockClient) Login(ctx context.Context) error {
	m.LoginCalls++

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if m.ShouldFailAuth {
		return fmt.Errorf("authentication failed: %w", harvesterrors.ErrAuthFailed)
	}
	if m.ShouldFailNetwork {
		return fmt.Errorf("network timeout: %w", harvesterrors.ErrNetworkFailure)
	}
	if m.Error != nil {
		return m.Error
	}

	m.loggedIn = true
	return nil
}

// FetchRecords implements the Client interface
func (m *MockClient) FetchRecords(ctx context.Context, opts FetchOptions) (*RecordPage, error) {
	// Track the call
	m.FetchCalls++
	m.LastOpts = opts

	// Check for context cancellation
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	// Simulate various error conditions
	if m.ShouldFailAuth {
		return nil, fmt.Errorf("authentication failed: %w", harvesterrors.ErrAuthFailed)
	}
	if m.ShouldFailNetwork {
		return nil, fmt.Errorf("network timeout: %w", harvesterrors.ErrNetworkFailure)
	}
	if m.Error != nil {
		return nil, m.Error
	}
	if !m.loggedIn {
		return nil, fmt.Errorf("no session: %w", harvesterrors.ErrAuthFailed)
	}

	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	offset := 0
	if opts.PageToken != "" {
		n, err := strconv.Atoi(opts.PageToken)
		if err != nil {
			return nil, fmt.Errorf("invalid page token %q", opts.PageToken)
		}
		offset = n
	}

	pool := m.filterBySources(opts.Sources)
	if offset > len(pool) {
		offset = len(pool)
	}

	end := offset + pageSize
	if end > len(pool) {
		end = len(pool)
	}

	page := &RecordPage{
		Records: pool[offset:end],
	}
	if end < len(pool) {
		page.NextPageToken = strconv.Itoa(end)
	}

	return page, nil
}

// GetPortalInfo implements the Client interface
func (m *MockClient) GetPortalInfo(ctx context.Context) (*PortalInfo, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if m.ShouldFailNetwork {
		return nil, fmt.Errorf("network timeout: %w", harvesterrors.ErrNetworkFailure)
	}
	if !m.loggedIn {
		return nil, fmt.Errorf("no session: %w", harvesterrors.ErrAuthFailed)
	}

	return &PortalInfo{TotalRecords: len(m.Records)}, nil
}

// filterBySources narrows the record pool to the requested source types.
func (m *MockClient) filterBySources(sources []string) []Record {
	if len(sources) == 0 {
		return m.Records
	}

	wanted := make(map[string]bool, len(sources))
	for _, s := range sources {
		wanted[s] = true
	}

	var out []Record
	for _, rec := range m.Records {
		if wanted[rec.StringField("source_type")] {
			out = append(out, rec)
		}
	}
	return out
}

// generateTestRecords creates sample evidence records for testing
func generateTestRecords(n int) []Record {
	sources := []string{SourceJobAds, SourcePress, SourcePDFs, SourceSubdomains}

	records := make([]Record, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, Record{
			"company_name":     mustRaw(fmt.Sprintf("Acme Staffing %d", i+1)),
			"source_type":      mustRaw(sources[i%len(sources)]),
			"evidence_url":     mustRaw(fmt.Sprintf("https://example.com/evidence/%d", i+1)),
			"evidence_snippet": mustRaw("uses Heartland Payroll for weekly runs"),
		})
	}
	return records
}

func mustRaw(s string) json.RawMessage {
	data, err := json.Marshal(s)
	if err != nil {
		panic(err)
	}
	return data
}

// MockClientOption allows configuring the mock client
type MockClientOption func(*MockClient)

// WithRecords sets specific records to serve
func WithRecords(records []Record) MockClientOption {
	return func(m *MockClient) {
		m.Records = records
	}
}

// WithError makes the client return a specific error
func WithError(err error) MockClientOption {
	return func(m *MockClient) {
		m.Error = err
	}
}

// WithAuthFailure makes the client simulate authentication failure
func WithAuthFailure() MockClientOption {
	return func(m *MockClient) {
		m.ShouldFailAuth = true
	}
}

// NewMockClientWithOptions creates a mock client with options
func NewMockClientWithOptions(opts ...MockClientOption) *MockClient {
	mock := NewMockClient()
	for _, opt := range opts {
		opt(mock)
	}
	return mock
}
