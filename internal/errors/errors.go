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

// Package errors defines sentinel errors for consistent error handling across the application.
// These errors map to specific exit codes in the CLI for proper scripting support.
package errors

import "errors"

// Sentinel errors for consistent error handling and exit code mapping
var (
	// ErrMissingConfig indicates required configuration (environment variables
	// or CLI input) is missing or invalid. Detected before any network call.
	// Maps to exit code 2.
	ErrMissingConfig = errors.New("missing or invalid configuration")

	// ErrAuthFailed indicates the Heartland portal rejected the credentials.
	// Maps to exit code 2.
	ErrAuthFailed = errors.New("portal authentication failed")

	// ErrNetworkFailure indicates a network connection problem.
	// Maps to exit code 3.
	ErrNetworkFailure = errors.New("network connection failed")

	// ErrRateLimit indicates the portal API rate limit has been exceeded.
	// Maps to exit code 2.
	ErrRateLimit = errors.New("portal rate limit exceeded")

	// ErrOutputWrite indicates the harvested records could not be written
	// to the requested destination.
	// Maps to exit code 1.
	ErrOutputWrite = errors.New("failed to write output")
)
