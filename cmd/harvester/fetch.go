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
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/fieldscopehq/heartland-harvester/internal/config"
	"github.com/fieldscopehq/heartland-harvester/internal/dedupe"
	harvesterrors "github.com/fieldscopehq/heartland-harvester/internal/errors"
	"github.com/fieldscopehq/heartland-harvester/internal/heartland"
	"github.com/fieldscopehq/heartland-harvester/internal/metadata"
	"github.com/fieldscopehq/heartland-harvester/internal/output"
	"github.com/fieldscopehq/heartland-harvester/pkg/version"
)

// harvestOptions collects every flag of the root command.
type harvestOptions struct {
	limit      int
	dryRun     bool
	outputFile string
	configFile string

	jobAds     bool
	pdfs       bool
	press      bool
	subdomains bool
	allSources bool
}

func newRootCommand() *cobra.Command {
	var opts harvestOptions

	cmd := &cobra.Command{
		Use:   "heartland-harvester",
		Short: "Harvest company evidence records from the Heartland portal",
		Long: `Heartland Harvester signs in to the Heartland evidence portal and fetches
company evidence records collected from job ads, PDF filings, press releases,
and subdomain scans. Records are streamed into a single JSON array written to
stdout or, with --output, atomically to a file.

Credentials are read from the environment:
  HEARTLAND_USERNAME, HEARTLAND_PASSWORD, HEARTLAND_API_URL
A .env file in the working directory is honored for local development.`,
		Version:       version.Version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true, // Don't show usage on error
		SilenceErrors: true, // We'll handle error printing ourselves
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHarvest(cmd.Context(), cmd, &opts)
		},
	}

	cmd.Flags().IntVar(&opts.limit, "limit", 0, "Maximum number of records to fetch (default from config, 50)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Validate credentials and fetch without writing any output")
	cmd.Flags().StringVar(&opts.outputFile, "output", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&opts.configFile, "config", "", "Config file path (default: .heartland-harvester.yaml)")

	cmd.Flags().BoolVar(&opts.jobAds, "job-ads", false, "Include records collected from job advertisements")
	cmd.Flags().BoolVar(&opts.pdfs, "pdfs", false, "Include records collected from PDF filings")
	cmd.Flags().BoolVar(&opts.press, "press", false, "Include records collected from press releases")
	cmd.Flags().BoolVar(&opts.subdomains, "subdomains", false, "Include records collected from subdomain scans")
	cmd.Flags().BoolVar(&opts.allSources, "all", false, "Include records from every source (default when no source flag is given)")

	return cmd
}

// runHarvest executes one harvest: resolve configuration, validate
// credentials, sign in, then page through records into the output writer.
// Credential validation happens before any network activity.
func runHarvest(ctx context.Context, cmd *cobra.Command, opts *harvestOptions) error {
	cfg, err := config.LoadConfig(opts.configFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %v: %w", err, harvesterrors.ErrMissingConfig)
	}

	limit := opts.limit
	if !cmd.Flags().Changed("limit") {
		limit = cfg.Defaults.Limit
	}
	if limit <= 0 {
		return fmt.Errorf("--limit must be a positive integer, got %d: %w", limit, harvesterrors.ErrMissingConfig)
	}

	creds, err := config.LoadCredentials()
	if err != nil {
		return err
	}

	tracker := metadata.NewTracker()
	tracker.SetDryRun(opts.dryRun)

	writer, err := newRecordWriter(opts)
	if err != nil {
		return err
	}

	retryConfig := heartland.DefaultRetryConfig()
	retryConfig.MaxAttempts = cfg.Retry.MaxAttempts
	client := heartland.NewRetryClient(
		heartland.NewHTTPClient(creds.APIURL, creds.Username, creds.Password, cfg.RequestTimeout()),
		retryConfig,
	)

	if err := harvestRecords(ctx, client, writer, tracker, cfg, limit, selectedSources(opts)); err != nil {
		_ = writer.Abort()
		return err
	}

	if err := writer.Close(); err != nil {
		return err
	}
	if !opts.dryRun && opts.outputFile != "" {
		fmt.Fprintf(os.Stderr, "Wrote %d records to %s\n", writer.Count(), opts.outputFile)
	}

	return metadata.WriteSummary(os.Stderr, tracker.GenerateSummary())
}

// newRecordWriter picks the output destination. A dry run always discards,
// even when --output is also given.
func newRecordWriter(opts *harvestOptions) (output.RecordWriter, error) {
	if opts.dryRun {
		return output.NewDiscardWriter(), nil
	}
	if opts.outputFile == "" {
		return output.NewWriter(os.Stdout), nil
	}
	return output.NewFileWriter(opts.outputFile)
}

// selectedSources translates the source flags into portal source types.
// No flag (or --all) means every source.
func selectedSources(opts *harvestOptions) []string {
	if opts.allSources {
		return nil
	}
	var sources []string
	if opts.jobAds {
		sources = append(sources, heartland.SourceJobAds)
	}
	if opts.pdfs {
		sources = append(sources, heartland.SourcePDFs)
	}
	if opts.press {
		sources = append(sources, heartland.SourcePress)
	}
	if opts.subdomains {
		sources = append(sources, heartland.SourceSubdomains)
	}
	return sources
}

// harvestRecords signs in and pages through the portal until the limit is
// reached or the portal reports exhaustion. Duplicates are filtered as the
// stream flows; the limit applies to records actually written.
func harvestRecords(ctx context.Context, client heartland.Client, writer output.RecordWriter, tracker *metadata.Tracker, cfg *config.Config, limit int, sources []string) error {
	fmt.Fprintf(os.Stderr, "Signing in to the Heartland portal...\n")
	if err := client.Login(ctx); err != nil {
		return err
	}
	tracker.IncrementAPICall()

	info, err := client.GetPortalInfo(ctx)
	if err != nil {
		return fmt.Errorf("failed to get portal info: %w", err)
	}
	tracker.IncrementAPICall()

	// Display target only; source filters may shrink the real total
	target := limit
	if info.TotalRecords < target {
		target = info.TotalRecords
	}

	filter := dedupe.NewFilter()
	startTime := time.Now()
	pageToken := ""
	written := 0

	for written < limit {
		pageSize := cfg.Defaults.PageSize
		if remaining := limit - written; remaining < pageSize {
			pageSize = remaining
		}

		page, err := client.FetchRecords(ctx, heartland.FetchOptions{
			PageSize:  pageSize,
			PageToken: pageToken,
			Sources:   sources,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "\r\033[K") // Clear progress line
			return err
		}
		tracker.IncrementAPICall()
		tracker.AddFetched(len(page.Records))

		for _, rec := range page.Records {
			if written >= limit {
				break
			}
			if !filter.Admit(rec) {
				continue
			}
			if err := writer.Write(rec); err != nil {
				fmt.Fprintf(os.Stderr, "\r\033[K")
				return fmt.Errorf("failed to write record: %w", err)
			}
			written++
			fmt.Fprintf(os.Stderr, "\rFetched %d / %d records", written, target)
		}

		if !page.HasNextPage() {
			break
		}
		pageToken = page.NextPageToken
	}

	fmt.Fprintf(os.Stderr, "\r\033[K") // Clear progress line
	tracker.SetWritten(written, filter.Dropped())

	elapsed := time.Since(startTime).Round(time.Millisecond)
	if written > 0 {
		fmt.Fprintf(os.Stderr, "Fetched %d records in %s\n", written, elapsed)
	} else {
		fmt.Fprintf(os.Stderr, "No records matched the requested sources\n")
	}
	return nil
}

// mapErrorToExitCode maps internal errors to appropriate exit codes
func mapErrorToExitCode(err error) int {
	if err == nil {
		return 0
	}

	if errors.Is(err, harvesterrors.ErrMissingConfig) ||
		errors.Is(err, harvesterrors.ErrAuthFailed) ||
		errors.Is(err, harvesterrors.ErrRateLimit) {
		return 2 // Configuration/authentication errors
	}

	if errors.Is(err, harvesterrors.ErrNetworkFailure) {
		return 3 // Network errors
	}

	return 1 // General error
}
