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

// Package heartland provides a client for the Heartland lead-intelligence
// portal API. It handles credential-based session login, token-paginated
// record retrieval, and error classification, and treats record payloads
// as opaque JSON passed through to output untouched.
//
// The package includes:
//   - A Client interface for login, record fetching, and portal metadata
//   - An HTTP implementation over the portal's JSON API
//   - A RetryClient decorator with exponential backoff for transient failures
//   - Mock client for testing
//
// Basic usage:
//
//	client := heartland.NewHTTPClient(apiURL, username, password, 20*time.Second)
//	if err := client.Login(ctx); err != nil {
//	    // Handle error
//	}
//	page, err := client.FetchRecords(ctx, heartland.FetchOptions{PageSize: 50})
//	if err != nil {
//	    // Handle error
//	}
//	for _, rec := range page.Records {
//	    // Process record
//	}
package heartland
