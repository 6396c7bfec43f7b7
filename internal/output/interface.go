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

package output

// RecordWriter defines the interface for writing harvested record data.
// This abstraction lets the fetch loop stay ignorant of the destination:
// stdout, an atomically written file, or nowhere at all for dry runs.
type RecordWriter interface {
	// Write appends a single record to the output.
	Write(record interface{}) error

	// Close finalizes the output and releases any resources. For file
	// destinations this is the commit point; nothing is visible at the
	// target path until Close returns nil.
	Close() error

	// Abort discards any partial output and releases resources. Safe to
	// call after a failed Write; calling it after a successful Close is
	// a no-op.
	Abort() error

	// Count returns the number of records written so far.
	Count() int
}
