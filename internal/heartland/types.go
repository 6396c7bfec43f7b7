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

// Package heartland types for portal API requests and responses.
package heartland

import "encoding/json"

// Record is one opaque unit of evidence returned by the portal API.
// The schema is owned by the portal; records are carried as raw JSON
// values keyed by field name and serialized back out byte-for-byte.
type Record map[string]json.RawMessage

// StringField returns the record's value for key decoded as a JSON string.
// It returns "" when the key is absent or the value is not a string, which
// callers treat as "field not usable" rather than an error.
func (r Record) StringField(key string) string {
	raw, ok := r[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// Evidence source types known to the portal. The record schema is otherwise
// opaque, but source_type values are stable and drive the source filters.
const (
	SourceJobAds     = "job-ad"
	SourcePDFs       = "pdf"
	SourcePress      = "press"
	SourceSubdomains = "portal"
)

// RecordPage represents one page of records from the portal API.
// It includes the records for the current page and the pagination token
// needed to fetch the next page. This enables streaming without loading
// the whole result set into memory at once.
type RecordPage struct {
	Records       []Record
	NextPageToken string
}

// HasNextPage reports whether the portal indicated more records exist.
// An empty next page token signals exhaustion.
func (p *RecordPage) HasNextPage() bool {
	return p.NextPageToken != ""
}

// FetchOptions configures how records are fetched.
// It supports pagination through the PageToken field and allows
// customization of the page size for each request.
type FetchOptions struct {
	// PageSize controls how many records to fetch per page.
	// Defaults to 50 if not specified. Maximum is 100 per the portal's limits.
	PageSize int

	// PageToken is the opaque cursor for pagination.
	// Empty string fetches from the beginning.
	// Use RecordPage.NextPageToken from the previous response for the next page.
	PageToken string

	// Sources restricts the fetch to the named evidence source types.
	// Empty means all sources.
	Sources []string
}

// Default values for fetch operations
const (
	defaultPageSize = 50
	maxPageSize     = 100
)

// PortalInfo contains basic portal metadata.
// Used primarily to get the total record count for progress reporting
// on stderr while a fetch is running.
type PortalInfo struct {
	TotalRecords int
}
