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

// Package output provides utilities for writing harvested records as a JSON
// array. Records are streamed into the array one at a time, so large result
// sets never accumulate in memory.
//
// Three writers are provided: a stream writer for stdout, a file writer that
// stages the array in a temporary file and atomically renames it into place
// on Close, and a discard writer for dry runs that counts records without
// persisting anything. A failed run never leaves a partial output file
// behind: the file writer commits only on a successful Close and removes its
// temporary file on Abort.
//
// Example usage:
//
//	// Write to a file
//	w, err := output.NewFileWriter("records.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, record := range records {
//	    if err := w.Write(record); err != nil {
//	        w.Abort()
//	        return err
//	    }
//	}
//
//	if err := w.Close(); err != nil {
//	    return err
//	}
//	fmt.Printf("Wrote %d records\n", w.Count())
package output
