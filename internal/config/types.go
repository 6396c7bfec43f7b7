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

// Package config types define the configuration structures used throughout
// heartland-harvester. These types represent settings that can be loaded from
// YAML configuration files, environment variables, or command-line flags.
package config

import "time"

// Config represents the complete configuration for heartland-harvester.
// It consolidates settings from various sources and provides a unified
// interface for accessing configuration values throughout the application.
// Credentials are deliberately excluded: they are read from the environment
// only and never written to disk.
type Config struct {
	Defaults DefaultsConfig `yaml:"defaults"`
	Retry    RetryConfig    `yaml:"retry"`
}

// DefaultsConfig contains default settings that apply to all harvest
// operations unless overridden by command-line flags. These settings
// control the core behavior of the fetch process.
type DefaultsConfig struct {
	// PageSize is the number of records requested per API page.
	PageSize int `yaml:"page_size"`

	// Limit is the default record limit when --limit is not given.
	Limit int `yaml:"limit"`

	// RequestTimeoutSeconds bounds each individual HTTP request.
	RequestTimeoutSeconds int `yaml:"request_timeout_seconds"`
}

// RetryConfig controls retry behavior for transient portal API failures.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts per request, including
	// the first. Only rate-limit and network errors are retried.
	MaxAttempts int `yaml:"max_attempts"`
}

// maxPageSize is the largest page the portal API will serve.
const maxPageSize = 100

// DefaultConfig returns a Config with sensible defaults suitable for most
// use cases.
func DefaultConfig() *Config {
	return &Config{
		Defaults: DefaultsConfig{
			PageSize:              50,
			Limit:                 50,
			RequestTimeoutSeconds: 20,
		},
		Retry: RetryConfig{
			MaxAttempts: 5,
		},
	}
}

// RequestTimeout returns the per-request timeout as a time.Duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Defaults.RequestTimeoutSeconds) * time.Second
}
