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

package config

import (
	"fmt"
	"os"
	"strings"

	harvesterrors "github.com/fieldscopehq/heartland-harvester/internal/errors"
)

// Environment variable names for portal credentials. All three are
// required for any harvest run.
const (
	EnvUsername = "HEARTLAND_USERNAME"
	EnvPassword = "HEARTLAND_PASSWORD"
	EnvAPIURL   = "HEARTLAND_API_URL"
)

// Credentials holds the portal account credentials and API base URL.
// Values are sourced from the environment at startup and held in memory
// only for the lifetime of a single invocation.
type Credentials struct {
	Username string
	Password string
	APIURL   string
}

// LoadCredentials reads portal credentials from the process environment.
// Every required variable must be present and non-empty; the returned
// error names all missing variables at once so the user can fix them in
// a single pass. The check happens before any network activity.
func LoadCredentials() (*Credentials, error) {
	creds := &Credentials{
		Username: trimValue(os.Getenv(EnvUsername)),
		Password: trimValue(os.Getenv(EnvPassword)),
		APIURL:   strings.TrimRight(trimValue(os.Getenv(EnvAPIURL)), "/"),
	}

	var missing []string
	if creds.Username == "" {
		missing = append(missing, EnvUsername)
	}
	if creds.Password == "" {
		missing = append(missing, EnvPassword)
	}
	if creds.APIURL == "" {
		missing = append(missing, EnvAPIURL)
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variable(s) not set: %s: %w",
			strings.Join(missing, ", "), harvesterrors.ErrMissingConfig)
	}

	return creds, nil
}
