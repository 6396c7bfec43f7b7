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

package metadata

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Tracker accumulates statistics for a single harvest run.
type Tracker struct {
	mu        sync.Mutex
	fetchID   string
	startTime time.Time

	recordsFetched    int
	recordsWritten    int
	duplicatesDropped int
	apiCalls          int
	dryRun            bool
}

// NewTracker starts tracking a run. The fetch id is derived from the start
// time so concurrent runs on the same host remain distinguishable in logs.
func NewTracker() *Tracker {
	now := time.Now().UTC()
	return &Tracker{
		fetchID:   fmt.Sprintf("full-%d", now.Unix()),
		startTime: now,
	}
}

// FetchID returns the identifier assigned to this run.
func (t *Tracker) FetchID() string {
	return t.fetchID
}

// IncrementAPICall records one request made to the portal.
func (t *Tracker) IncrementAPICall() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.apiCalls++
}

// AddFetched records n records received from the portal.
func (t *Tracker) AddFetched(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.recordsFetched += n
}

// SetWritten records the final output and duplicate counts.
func (t *Tracker) SetWritten(written, dropped int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.recordsWritten = written
	t.duplicatesDropped = dropped
}

// SetDryRun marks the run as a dry run.
func (t *Tracker) SetDryRun(dryRun bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dryRun = dryRun
}

// GenerateSummary closes out the run and returns its summary.
func (t *Tracker) GenerateSummary() Summary {
	t.mu.Lock()
	defer t.mu.Unlock()

	completed := time.Now().UTC()
	return Summary{
		FetchID:           t.fetchID,
		StartedAt:         t.startTime,
		CompletedAt:       completed,
		Duration:          completed.Sub(t.startTime),
		RecordsFetched:    t.recordsFetched,
		RecordsWritten:    t.recordsWritten,
		DuplicatesDropped: t.duplicatesDropped,
		APICalls:          t.apiCalls,
		DryRun:            t.dryRun,
	}
}

// WriteSummary renders the run summary in the log format printed to stderr
// at the end of a harvest.
func WriteSummary(w io.Writer, s Summary) error {
	var mode string
	if s.DryRun {
		mode = " (dry run)"
	}
	_, err := fmt.Fprintf(w,
		"Run %s complete%s: %d records fetched, %d written, %d duplicates dropped, %d API calls in %s\n",
		s.FetchID, mode,
		s.RecordsFetched, s.RecordsWritten, s.DuplicatesDropped,
		s.APICalls, s.Duration.Round(time.Millisecond))
	return err
}
