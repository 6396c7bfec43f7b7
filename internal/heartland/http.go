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
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/fieldscopehq/heartland-harvester/internal/apierror"
	harvesterrors "github.com/fieldscopehq/heartland-harvester/internal/errors"
	"github.com/fieldscopehq/heartland-harvester/pkg/version"
)

// HTTPClient implements the Client interface over the portal's JSON API.
// It performs a credential login to obtain a session token, then attaches
// that token to every subsequent request. Safety features include request
// timeouts, response size limiting, and tuned connection pooling.
type HTTPClient struct {
	baseURL   string
	username  string
	password  string
	http      *http.Client
	inspector apierror.Inspector
	token     string
}

// NewHTTPClient creates a new portal client for the given base URL and
// credentials. The client is configured with:
//   - Per-request timeout handling
//   - Response size limiting to prevent memory issues
//   - User-Agent header for API compliance
//   - Optimized connection pooling for API performance
//
// Login must be called before any fetch operation.
func NewHTTPClient(baseURL, username, password string, timeout time.Duration) *HTTPClient {
	// Create optimized transport with connection pooling
	transport := &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 10, // Increased from default 2
		MaxConnsPerHost:     10,
		IdleConnTimeout:     90 * time.Second,
		DisableCompression:  false,
		ForceAttemptHTTP2:   true,
	}

	c := &HTTPClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		username:  username,
		password:  password,
		inspector: apierror.NewErrorChainInspector(apierror.NewInspector()),
	}

	c.http = &http.Client{
		Timeout: timeout,
		Transport: &sessionTransport{
			token: func() string { return c.token },
			base:  transport,
		},
	}

	return c
}

// loginRequest is the credential payload for the session login endpoint.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginResponse carries the session token issued on successful login.
type loginResponse struct {
	Token string `json:"token"`
}

// recordsResponse is the wire shape of a records page.
type recordsResponse struct {
	Records       []Record `json:"records"`
	NextPageToken string   `json:"next_page_token"`
}

// portalInfoResponse is the wire shape of the portal info endpoint.
type portalInfoResponse struct {
	TotalRecords int `json:"total_records"`
}

// errorResponse is the portal's error body shape.
type errorResponse struct {
	Message string `json:"message"`
}

// Login authenticates against the portal and stores the session token.
// A 401 or 403 response is surfaced as an authentication error; transport
// failures are surfaced as network errors. No retry happens at this layer.
func (c *HTTPClient) Login(ctx context.Context) error {
	body, err := json.Marshal(loginRequest{Username: c.username, Password: c.password})
	if err != nil {
		return fmt.Errorf("failed to encode login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/auth/login", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return c.mapError(fmt.Errorf("login request failed: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return c.mapError(c.statusError(resp))
	}

	var login loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&login); err != nil {
		return fmt.Errorf("failed to decode login response: %w", err)
	}
	if login.Token == "" {
		return fmt.Errorf("portal returned an empty session token: %w", harvesterrors.ErrAuthFailed)
	}

	c.token = login.Token
	return nil
}

// FetchRecords fetches a page of records from the portal. It supports
// token-based pagination via opts.PageToken and configurable page sizes
// through opts.PageSize. The method returns a RecordPage containing the
// records and the pagination token needed to fetch the next page.
func (c *HTTPClient) FetchRecords(ctx context.Context, opts FetchOptions) (*RecordPage, error) {
	if c.token == "" {
		return nil, fmt.Errorf("fetch attempted without a session; call Login first: %w", harvesterrors.ErrAuthFailed)
	}

	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	q := url.Values{}
	q.Set("page_size", strconv.Itoa(pageSize))
	if opts.PageToken != "" {
		q.Set("page_token", opts.PageToken)
	}
	if len(opts.Sources) > 0 {
		q.Set("sources", strings.Join(opts.Sources, ","))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/records?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build records request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, c.mapError(fmt.Errorf("records request failed: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, c.mapError(c.statusError(resp))
	}

	var page recordsResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("failed to decode records response: %w", err)
	}

	return &RecordPage{
		Records:       page.Records,
		NextPageToken: page.NextPageToken,
	}, nil
}

// GetPortalInfo retrieves the total record count visible to the account.
// This is used to display progress information while fetching.
func (c *HTTPClient) GetPortalInfo(ctx context.Context) (*PortalInfo, error) {
	if c.token == "" {
		return nil, fmt.Errorf("fetch attempted without a session; call Login first: %w", harvesterrors.ErrAuthFailed)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/records/info", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build info request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, c.mapError(fmt.Errorf("info request failed: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, c.mapError(c.statusError(resp))
	}

	var info portalInfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode info response: %w", err)
	}

	return &PortalInfo{TotalRecords: info.TotalRecords}, nil
}

// apiStatusError is a non-2xx response from the portal. Classification
// happens on the status code, never on rendered text, so URLs or message
// bodies containing digit sequences cannot masquerade as another failure
// class. The Is* methods feed apierror.ErrorChainInspector.
type apiStatusError struct {
	code    int
	status  string
	message string
}

func (e *apiStatusError) Error() string {
	if e.message != "" {
		return fmt.Sprintf("portal API returned %s: %s", e.status, e.message)
	}
	return fmt.Sprintf("portal API returned %s", e.status)
}

func (e *apiStatusError) IsAuthError() bool {
	return e.code == http.StatusUnauthorized || e.code == http.StatusForbidden
}

func (e *apiStatusError) IsNotFoundError() bool {
	return e.code == http.StatusNotFound
}

func (e *apiStatusError) IsRateLimitError() bool {
	return e.code == http.StatusTooManyRequests
}

func (e *apiStatusError) IsNetworkError() bool {
	return false
}

func (e *apiStatusError) IsServerError() bool {
	return e.code >= 500
}

// statusError builds an error from a non-200 response, including the
// portal's message body when one is present. The status code rides along
// in the returned error so classification stays structural.
func (c *HTTPClient) statusError(resp *http.Response) error {
	var body errorResponse
	data, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err == nil && len(data) > 0 {
		_ = json.Unmarshal(data, &body)
	}

	return &apiStatusError{
		code:    resp.StatusCode,
		status:  resp.Status,
		message: body.Message,
	}
}

// mapError maps raw transport and status errors to our domain errors with
// actionable messages. The original error text is preserved so retry logic
// and users both see the underlying cause.
func (c *HTTPClient) mapError(err error) error {
	if err == nil {
		return nil
	}

	// Anything without a portal status response is a transport failure;
	// it never goes through the string matchers, whose patterns could
	// collide with digits in the request URL.
	var status *apiStatusError
	if !errors.As(err, &status) {
		return fmt.Errorf("network error connecting to the portal, check your connection and HEARTLAND_API_URL: %v: %w", err, harvesterrors.ErrNetworkFailure)
	}

	// Check rate limit first, as 403 responses can signal either auth or
	// rate limiting depending on the portal's message
	switch {
	case c.inspector.IsRateLimitError(err):
		return fmt.Errorf("portal rate limit exceeded, please wait before retrying: %v: %w", err, harvesterrors.ErrRateLimit)
	case c.inspector.IsAuthError(err):
		return fmt.Errorf("portal rejected the credentials, check HEARTLAND_USERNAME and HEARTLAND_PASSWORD: %v: %w", err, harvesterrors.ErrAuthFailed)
	case c.inspector.IsNotFoundError(err):
		return fmt.Errorf("portal endpoint not found, check HEARTLAND_API_URL: %v: %w", err, harvesterrors.ErrMissingConfig)
	case c.inspector.IsServerError(err):
		return fmt.Errorf("portal is temporarily unavailable: %v: %w", err, harvesterrors.ErrNetworkFailure)
	default:
		return fmt.Errorf("failed to fetch records: %w", err)
	}
}

// limitedReader wraps a ReadCloser with a size limit to prevent excessive memory usage.
type limitedReader struct {
	io.ReadCloser
	limit int64
	read  int64
}

// Read implements io.Reader with size limit enforcement.
func (lr *limitedReader) Read(p []byte) (n int, err error) {
	if lr.read >= lr.limit {
		return 0, fmt.Errorf("response size exceeded limit of %d bytes", lr.limit)
	}

	// Calculate how much we can read
	remaining := lr.limit - lr.read
	if int64(len(p)) > remaining {
		p = p[:remaining]
	}

	n, err = lr.ReadCloser.Read(p)
	lr.read += int64(n)

	return n, err
}

// sessionTransport adds the session token and safety limits to HTTP requests
type sessionTransport struct {
	token func() string
	base  http.RoundTripper
}

// RoundTrip implements http.RoundTripper
func (t *sessionTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Clone the request to avoid modifying the original
	req = req.Clone(req.Context())

	// Attach the session token once a login has succeeded
	if token := t.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	// Add user agent for identification
	req.Header.Set("User-Agent", fmt.Sprintf("heartland-harvester/%s", version.Version))

	// Execute the request
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	// Apply response size limit (10MB)
	if resp.Body != nil {
		resp.Body = &limitedReader{
			ReadCloser: resp.Body,
			limit:      10 * 1024 * 1024, // 10MB
		}
	}

	return resp, nil
}
