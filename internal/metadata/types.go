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

// Package metadata tracks per-run harvest statistics and renders the run
// summary. Everything lives in memory for the duration of one invocation;
// nothing is persisted, so repeated runs against the same portal state
// produce identical output artifacts.
package metadata

import "time"

// Summary describes one completed harvest run.
type Summary struct {
	// FetchID identifies the run, e.g. "full-1735689600".
	FetchID string

	// StartedAt and CompletedAt bracket the run in UTC.
	StartedAt   time.Time
	CompletedAt time.Time

	// Duration is CompletedAt minus StartedAt.
	Duration time.Duration

	// RecordsFetched counts records received from the portal before
	// filtering. RecordsWritten counts records that reached the output
	// after duplicate removal; DuplicatesDropped is the difference.
	RecordsFetched    int
	RecordsWritten    int
	DuplicatesDropped int

	// APICalls counts portal requests made, including the login.
	APICalls int

	// DryRun marks runs where output was counted but discarded.
	DryRun bool
}
