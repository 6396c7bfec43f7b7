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

import "context"

// Client defines the interface for interacting with the Heartland portal API.
// This interface allows for easy mocking in tests.
type Client interface {
	// Login authenticates against the portal with the configured credentials
	// and stores the session token for subsequent requests. It must be called
	// before FetchRecords or GetPortalInfo.
	Login(ctx context.Context) error

	// FetchRecords retrieves a page of evidence records from the portal.
	// It supports token-based pagination through the opts.PageToken parameter
	// to fetch subsequent pages. The page size can be configured via
	// opts.PageSize, and opts.Sources restricts results to specific evidence
	// source types.
	FetchRecords(ctx context.Context, opts FetchOptions) (*RecordPage, error)

	// GetPortalInfo retrieves basic portal metadata including the total
	// record count visible to the account. Used for progress reporting.
	GetPortalInfo(ctx context.Context) (*PortalInfo, error)
}
