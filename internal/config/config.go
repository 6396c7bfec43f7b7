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

// Package config provides configuration management for heartland-harvester
// with support for multiple configuration sources and a well-defined
// precedence order.
//
// Configuration sources (in precedence order, highest to lowest):
//  1. Command-line flags
//  2. Environment variables
//  3. Configuration file
//  4. Built-in defaults
//
// The package supports YAML configuration files and provides automatic
// discovery of configuration in standard locations. Portal credentials are
// handled separately (see LoadCredentials): they come exclusively from the
// environment and are never read from or written to configuration files.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	harvesterrors "github.com/fieldscopehq/heartland-harvester/internal/errors"
)

// LoadConfig loads configuration from multiple sources and applies them in
// the correct precedence order. If configPath is provided, it loads from
// that specific file. Otherwise, it searches standard locations:
//   - .heartland-harvester.yaml (current directory)
//   - .heartland-harvester.yml (current directory)
//   - ~/.heartland/config.yaml
//   - ~/.heartland/config.yml
//
// Environment variables are applied after loading the config file, allowing
// runtime overrides.
//
// Returns an error if the specified config file cannot be loaded, but will
// succeed with defaults if no config file is found in standard locations.
func LoadConfig(configPath string) (*Config, error) {
	// Start with defaults
	cfg := DefaultConfig()

	// Try to load config file if path is provided
	if configPath != "" {
		if err := loadConfigFile(configPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config file: %v: %w", err, harvesterrors.ErrMissingConfig)
		}
	} else {
		// Try default locations
		defaultPaths := []string{
			".heartland-harvester.yaml",
			".heartland-harvester.yml",
			filepath.Join(os.Getenv("HOME"), ".heartland", "config.yaml"),
			filepath.Join(os.Getenv("HOME"), ".heartland", "config.yml"),
		}

		for _, path := range defaultPaths {
			if _, err := os.Stat(path); err == nil {
				if err := loadConfigFile(path, cfg); err != nil {
					return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
				}
				break
			}
		}
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	return cfg, nil
}

// loadConfigFile reads and parses a YAML config file
func loadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(cfg *Config) {
	if pageSize := os.Getenv("HARVESTER_PAGE_SIZE"); pageSize != "" {
		if size, err := parsePositiveInt(pageSize); err == nil {
			cfg.Defaults.PageSize = size
		}
	}
	if timeout := os.Getenv("HARVESTER_REQUEST_TIMEOUT"); timeout != "" {
		if secs, err := parsePositiveInt(timeout); err == nil {
			cfg.Defaults.RequestTimeoutSeconds = secs
		}
	}
	if attempts := os.Getenv("HARVESTER_RETRY_ATTEMPTS"); attempts != "" {
		if n, err := parsePositiveInt(attempts); err == nil {
			cfg.Retry.MaxAttempts = n
		}
	}
}

// parsePositiveInt parses a string to a positive integer
func parsePositiveInt(s string) (int, error) {
	var i int
	_, err := fmt.Sscanf(s, "%d", &i)
	if err != nil {
		return 0, fmt.Errorf("failed to parse integer from '%s': %w", s, err)
	}
	if i <= 0 {
		return 0, fmt.Errorf("value must be positive, got: %d", i)
	}
	return i, nil
}

// Validate checks if the configuration contains valid values. It ensures
// page sizes are within the portal's limits and timeouts are sane. This
// should be called after loading configuration to catch invalid settings
// early, before any network activity.
func (c *Config) Validate() error {
	if c.Defaults.PageSize <= 0 {
		return fmt.Errorf("page size must be positive, got: %d", c.Defaults.PageSize)
	}
	if c.Defaults.PageSize > maxPageSize {
		return fmt.Errorf("page size %d exceeds portal API limit of %d", c.Defaults.PageSize, maxPageSize)
	}
	if c.Defaults.Limit <= 0 {
		return fmt.Errorf("default limit must be positive, got: %d", c.Defaults.Limit)
	}
	if c.Defaults.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("request timeout must be positive, got: %d", c.Defaults.RequestTimeoutSeconds)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry attempts must be at least 1, got: %d", c.Retry.MaxAttempts)
	}
	return nil
}

// trimValue normalizes an environment value before presence checks.
func trimValue(s string) string {
	return strings.TrimSpace(s)
}
