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

// Package dedupe filters duplicate records out of a fetch stream.
//
// The portal surfaces the same company through several collection channels
// (job ads, PDF filings, press releases, subdomain scans), so a single
// harvest frequently sees one company more than once per channel. Records
// are considered duplicates when they share a normalized company name and a
// source type; the first occurrence wins and later ones are dropped.
package dedupe

import (
	"strings"
	"unicode"

	"github.com/fieldscopehq/heartland-harvester/internal/heartland"
)

// Filter tracks (company, source) pairs seen during a single harvest.
// It is not safe for concurrent use; the fetch loop is single-threaded.
type Filter struct {
	seen     map[string]struct{}
	admitted int
	dropped  int
}

// NewFilter returns an empty duplicate filter.
func NewFilter() *Filter {
	return &Filter{seen: make(map[string]struct{})}
}

// Admit reports whether the record should be kept. A record is dropped only
// when an earlier record carried the same normalized company name and the
// same source type. Records missing either field always pass: the harvester
// treats record contents as opaque and refuses to guess identity.
func (f *Filter) Admit(rec heartland.Record) bool {
	company := rec.StringField("company_name")
	source := rec.StringField("source_type")
	if company == "" || source == "" {
		f.admitted++
		return true
	}

	key := NormalizeName(company) + "\x00" + source
	if _, ok := f.seen[key]; ok {
		f.dropped++
		return false
	}
	f.seen[key] = struct{}{}
	f.admitted++
	return true
}

// Admitted returns the number of records that passed the filter.
func (f *Filter) Admitted() int {
	return f.admitted
}

// Dropped returns the number of duplicates removed.
func (f *Filter) Dropped() int {
	return f.dropped
}

// NormalizeName canonicalizes a company name for duplicate comparison:
// lowercase, with every run of whitespace or punctuation collapsed to a
// single space and leading/trailing separators trimmed. "Acme, Inc." and
// "acme inc" normalize to the same key.
func NormalizeName(name string) string {
	var b strings.Builder
	b.Grow(len(name))

	pendingSep := false
	for _, r := range strings.ToLower(name) {
		if unicode.IsSpace(r) || unicode.IsPunct(r) {
			pendingSep = true
			continue
		}
		if pendingSep && b.Len() > 0 {
			b.WriteByte(' ')
		}
		pendingSep = false
		b.WriteRune(r)
	}
	return b.String()
}
