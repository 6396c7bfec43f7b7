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

// Package testutil provides common test helpers for heartland-harvester
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// Default test credentials accepted by the portal mock.
const (
	DefaultUsername = "analyst"
	DefaultPassword = "s3cret"
	DefaultToken    = "session-token-1"
)

// PortalServer simulates the Heartland portal API: a login endpoint that
// issues a session token, a paginated records endpoint, and an info
// endpoint. Every request is counted so tests can assert that configuration
// errors stop the run before any network activity.
type PortalServer struct {
	*httptest.Server

	records      []map[string]interface{}
	requestCount int32
	loginCount   int32
}

// NewPortalServer starts a portal mock serving the given records in order.
func NewPortalServer(t *testing.T, records []map[string]interface{}) *PortalServer {
	t.Helper()

	ps := &PortalServer{records: records}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/auth/login", ps.handleLogin)
	mux.HandleFunc("/api/v1/records", ps.handleRecords)
	mux.HandleFunc("/api/v1/records/info", ps.handleInfo)

	ps.Server = httptest.NewServer(mux)
	t.Cleanup(ps.Close)
	return ps
}

// RequestCount returns the total number of requests the portal has seen.
func (ps *PortalServer) RequestCount() int {
	return int(atomic.LoadInt32(&ps.requestCount))
}

// LoginCount returns the number of login attempts the portal has seen.
func (ps *PortalServer) LoginCount() int {
	return int(atomic.LoadInt32(&ps.loginCount))
}

func (ps *PortalServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&ps.requestCount, 1)
	atomic.AddInt32(&ps.loginCount, 1)

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var creds struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeError(w, http.StatusBadRequest, "malformed login request")
		return
	}
	if creds.Username != DefaultUsername || creds.Password != DefaultPassword {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"token": DefaultToken})
}

func (ps *PortalServer) handleRecords(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&ps.requestCount, 1)

	if !ps.authorized(w, r) {
		return
	}

	pageSize := 50
	if v := r.URL.Query().Get("page_size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid page_size")
			return
		}
		pageSize = n
	}

	offset := 0
	if v := r.URL.Query().Get("page_token"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid page_token")
			return
		}
		offset = n
	}

	pool := ps.records
	if v := r.URL.Query().Get("sources"); v != "" {
		wanted := make(map[string]bool)
		for _, s := range strings.Split(v, ",") {
			wanted[s] = true
		}
		filtered := make([]map[string]interface{}, 0, len(pool))
		for _, rec := range pool {
			if s, ok := rec["source_type"].(string); ok && wanted[s] {
				filtered = append(filtered, rec)
			}
		}
		pool = filtered
	}

	if offset > len(pool) {
		offset = len(pool)
	}
	end := offset + pageSize
	if end > len(pool) {
		end = len(pool)
	}

	resp := map[string]interface{}{"records": pool[offset:end]}
	if end < len(pool) {
		resp["next_page_token"] = strconv.Itoa(end)
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (ps *PortalServer) handleInfo(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&ps.requestCount, 1)

	if !ps.authorized(w, r) {
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]int{"total_records": len(ps.records)})
}

func (ps *PortalServer) authorized(w http.ResponseWriter, r *http.Request) bool {
	if r.Header.Get("Authorization") != "Bearer "+DefaultToken {
		writeError(w, http.StatusUnauthorized, "missing or invalid session token")
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": message})
}

// NewRateLimitServer creates a portal mock whose records endpoint returns
// 429 until successAfterCount requests have been made, then serves normally.
func NewRateLimitServer(t *testing.T, successAfterCount int, records []map[string]interface{}) *PortalServer {
	t.Helper()
	return newFlakyRecordsServer(t, successAfterCount, records, func(w http.ResponseWriter) {
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusTooManyRequests, "API rate limit exceeded")
	})
}

// NewTransientErrorServer creates a portal mock whose records endpoint
// fails with the given status failCount times, then serves normally.
func NewTransientErrorServer(t *testing.T, failCount, statusCode int, records []map[string]interface{}) *PortalServer {
	t.Helper()
	return newFlakyRecordsServer(t, failCount, records, func(w http.ResponseWriter) {
		writeError(w, statusCode, http.StatusText(statusCode))
	})
}

// NewErrorServer creates a portal mock whose records endpoint always fails
// with the given status. Login still succeeds, so the failure surfaces
// during the fetch.
func NewErrorServer(t *testing.T, statusCode int) *PortalServer {
	t.Helper()
	return newFlakyRecordsServer(t, int(^uint(0)>>1), nil, func(w http.ResponseWriter) {
		writeError(w, statusCode, http.StatusText(statusCode))
	})
}

// NewPageTwoFailureServer creates a portal mock that serves the first
// records page normally and fails every paginated follow-up with a 500.
// Useful for proving that a mid-run failure leaves no partial output.
func NewPageTwoFailureServer(t *testing.T, records []map[string]interface{}) *PortalServer {
	t.Helper()

	ps := &PortalServer{records: records}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/auth/login", ps.handleLogin)
	mux.HandleFunc("/api/v1/records/info", ps.handleInfo)
	mux.HandleFunc("/api/v1/records", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page_token") != "" {
			atomic.AddInt32(&ps.requestCount, 1)
			writeError(w, http.StatusInternalServerError, "portal exploded mid-run")
			return
		}
		ps.handleRecords(w, r)
	})

	ps.Server = httptest.NewServer(mux)
	t.Cleanup(ps.Close)
	return ps
}

// newFlakyRecordsServer builds a PortalServer whose records endpoint invokes
// fail for the first failCount requests to it.
func newFlakyRecordsServer(t *testing.T, failCount int, records []map[string]interface{}, fail func(http.ResponseWriter)) *PortalServer {
	t.Helper()

	ps := &PortalServer{records: records}
	var recordCalls int32

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/auth/login", ps.handleLogin)
	mux.HandleFunc("/api/v1/records/info", ps.handleInfo)
	mux.HandleFunc("/api/v1/records", func(w http.ResponseWriter, r *http.Request) {
		if int(atomic.AddInt32(&recordCalls, 1)) <= failCount {
			atomic.AddInt32(&ps.requestCount, 1)
			fail(w)
			return
		}
		ps.handleRecords(w, r)
	})

	ps.Server = httptest.NewServer(mux)
	t.Cleanup(ps.Close)
	return ps
}

// GenerateRecords creates n sample evidence records spread across the four
// portal source types.
func GenerateRecords(n int) []map[string]interface{} {
	sources := []string{"job-ad", "press", "pdf", "portal"}

	records := make([]map[string]interface{}, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, map[string]interface{}{
			"company_name":     fmt.Sprintf("Company %03d", i),
			"source_type":      sources[i%len(sources)],
			"evidence_url":     fmt.Sprintf("https://example.com/evidence/%d", i),
			"evidence_snippet": "uses Heartland Payroll for weekly runs",
			"collected_at":     time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i).Format(time.RFC3339),
		})
	}
	return records
}
