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

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/fieldscopehq/heartland-harvester/internal/config"
	harvesterrors "github.com/fieldscopehq/heartland-harvester/internal/errors"
	"github.com/fieldscopehq/heartland-harvester/internal/heartland"
	"github.com/fieldscopehq/heartland-harvester/internal/metadata"
	"github.com/fieldscopehq/heartland-harvester/internal/output"
)

func testRecord(company, source string) heartland.Record {
	return heartland.Record{
		"company_name": json.RawMessage(fmt.Sprintf("%q", company)),
		"source_type":  json.RawMessage(fmt.Sprintf("%q", source)),
	}
}

func testRecords(n int) []heartland.Record {
	records := make([]heartland.Record, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, testRecord(fmt.Sprintf("Company %03d", i), heartland.SourceJobAds))
	}
	return records
}

func runHarvestRecords(t *testing.T, client heartland.Client, limit int, sources []string) ([]heartland.Record, error) {
	t.Helper()

	var buf bytes.Buffer
	writer := output.NewWriter(&buf)
	cfg := config.DefaultConfig()
	cfg.Defaults.PageSize = 10

	err := harvestRecords(context.Background(), client, writer, metadata.NewTracker(), cfg, limit, sources)
	if err != nil {
		return nil, err
	}
	if cerr := writer.Close(); cerr != nil {
		t.Fatalf("Close failed: %v", cerr)
	}

	var got []heartland.Record
	if uerr := json.Unmarshal(buf.Bytes(), &got); uerr != nil {
		t.Fatalf("output is not a JSON array: %v\n%s", uerr, buf.String())
	}
	return got, nil
}

func TestHarvestRespectsLimit(t *testing.T) {
	mock := heartland.NewMockClientWithOptions(heartland.WithRecords(testRecords(25)))

	got, err := runHarvestRecords(t, mock, 5, nil)
	if err != nil {
		t.Fatalf("harvest failed: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("wrote %d records, want 5", len(got))
	}
	for i, rec := range got {
		want := fmt.Sprintf("Company %03d", i)
		if rec.StringField("company_name") != want {
			t.Errorf("record %d = %q, want %q (portal order)", i, rec.StringField("company_name"), want)
		}
	}
}

func TestHarvestStopsAtExhaustion(t *testing.T) {
	mock := heartland.NewMockClientWithOptions(heartland.WithRecords(testRecords(3)))

	got, err := runHarvestRecords(t, mock, 100, nil)
	if err != nil {
		t.Fatalf("harvest should succeed when the portal has fewer records than the limit: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("wrote %d records, want all 3 available", len(got))
	}
}

func TestHarvestPaginatesAcrossPages(t *testing.T) {
	mock := heartland.NewMockClientWithOptions(heartland.WithRecords(testRecords(25)))

	got, err := runHarvestRecords(t, mock, 25, nil)
	if err != nil {
		t.Fatalf("harvest failed: %v", err)
	}
	if len(got) != 25 {
		t.Errorf("wrote %d records, want 25", len(got))
	}
	// Page size 10 over 25 records needs three fetches
	if mock.FetchCalls != 3 {
		t.Errorf("FetchCalls = %d, want 3", mock.FetchCalls)
	}
}

func TestHarvestDropsDuplicates(t *testing.T) {
	records := []heartland.Record{
		testRecord("Acme, Inc.", heartland.SourceJobAds),
		testRecord("acme inc", heartland.SourceJobAds),
		testRecord("Acme, Inc.", heartland.SourcePress),
	}
	mock := heartland.NewMockClientWithOptions(heartland.WithRecords(records))

	got, err := runHarvestRecords(t, mock, 50, nil)
	if err != nil {
		t.Fatalf("harvest failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("wrote %d records, want 2 after duplicate removal", len(got))
	}
	if got[0].StringField("company_name") != "Acme, Inc." || got[1].StringField("source_type") != heartland.SourcePress {
		t.Errorf("unexpected surviving records: %v", got)
	}
}

func TestHarvestForwardsSourceFilter(t *testing.T) {
	records := []heartland.Record{
		testRecord("Acme", heartland.SourceJobAds),
		testRecord("Blue Sky", heartland.SourcePress),
		testRecord("Canyon", heartland.SourcePDFs),
	}
	mock := heartland.NewMockClientWithOptions(heartland.WithRecords(records))

	got, err := runHarvestRecords(t, mock, 50, []string{heartland.SourcePress})
	if err != nil {
		t.Fatalf("harvest failed: %v", err)
	}
	if len(got) != 1 || got[0].StringField("company_name") != "Blue Sky" {
		t.Errorf("source filter not applied, got %v", got)
	}
}

func TestHarvestAuthFailureStopsBeforeFetch(t *testing.T) {
	mock := heartland.NewMockClientWithOptions(heartland.WithAuthFailure())

	_, err := runHarvestRecords(t, mock, 50, nil)
	if !errors.Is(err, harvesterrors.ErrAuthFailed) {
		t.Fatalf("err = %v, want ErrAuthFailed", err)
	}
	if mock.FetchCalls != 0 {
		t.Errorf("FetchCalls = %d, want 0 after login failure", mock.FetchCalls)
	}
}

func TestSelectedSources(t *testing.T) {
	tests := []struct {
		name string
		opts harvestOptions
		want []string
	}{
		{
			name: "no flags means all sources",
			opts: harvestOptions{},
			want: nil,
		},
		{
			name: "all flag wins",
			opts: harvestOptions{allSources: true, jobAds: true},
			want: nil,
		},
		{
			name: "single source",
			opts: harvestOptions{press: true},
			want: []string{heartland.SourcePress},
		},
		{
			name: "multiple sources",
			opts: harvestOptions{jobAds: true, pdfs: true, subdomains: true},
			want: []string{heartland.SourceJobAds, heartland.SourcePDFs, heartland.SourceSubdomains},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := selectedSources(&tt.opts)
			if len(got) != len(tt.want) {
				t.Fatalf("selectedSources() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("selectedSources()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestNewRecordWriterDryRunDiscards(t *testing.T) {
	w, err := newRecordWriter(&harvestOptions{dryRun: true, outputFile: "should-not-be-created.json"})
	if err != nil {
		t.Fatalf("newRecordWriter failed: %v", err)
	}
	if _, ok := w.(*output.Discard); !ok {
		t.Errorf("dry run writer is %T, want *output.Discard", w)
	}
}

func TestMapErrorToExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{
			name: "nil error",
			err:  nil,
			want: 0,
		},
		{
			name: "missing configuration",
			err:  fmt.Errorf("HEARTLAND_USERNAME not set: %w", harvesterrors.ErrMissingConfig),
			want: 2,
		},
		{
			name: "authentication failure",
			err:  fmt.Errorf("login rejected: %w", harvesterrors.ErrAuthFailed),
			want: 2,
		},
		{
			name: "rate limit",
			err:  harvesterrors.ErrRateLimit,
			want: 2,
		},
		{
			name: "network failure",
			err:  fmt.Errorf("dial tcp: %w", harvesterrors.ErrNetworkFailure),
			want: 3,
		},
		{
			name: "output failure",
			err:  fmt.Errorf("disk full: %w", harvesterrors.ErrOutputWrite),
			want: 1,
		},
		{
			name: "unknown error",
			err:  errors.New("something unexpected"),
			want: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mapErrorToExitCode(tt.err); got != tt.want {
				t.Errorf("mapErrorToExitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
