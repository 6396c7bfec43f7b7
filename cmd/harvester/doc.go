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

// Package main implements the heartland-harvester command-line interface.
// The tool signs in to the Heartland evidence portal, fetches company
// evidence records, and writes them as a single JSON array to a file or
// stdout.
//
// Credentials come from the environment (or a local .env file):
//
//	HEARTLAND_USERNAME  portal account name
//	HEARTLAND_PASSWORD  portal account password
//	HEARTLAND_API_URL   portal API base URL
//
// The CLI supports:
//   - Bounding the harvest with --limit (default 50 records)
//   - Restricting sources with --job-ads, --pdfs, --press, --subdomains
//   - Writing to a file with --output, atomically committed on success
//   - Validating credentials and connectivity with --dry-run
//
// Usage:
//
//	heartland-harvester [flags]
//
// Example:
//
//	export HEARTLAND_USERNAME=analyst
//	export HEARTLAND_PASSWORD=...
//	export HEARTLAND_API_URL=https://portal.example.com
//	heartland-harvester --limit 200 --output records.json
//
// Exit codes:
//   - 0: Success
//   - 1: General error
//   - 2: Configuration/authentication error
//   - 3: Network error
package main
