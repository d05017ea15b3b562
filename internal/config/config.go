// Package config loads the botstack tool configuration.
//
// The configuration lives in a botstack.jsonc file (JSON with comments,
// parsed via github.com/tidwall/jsonc before encoding/json). It holds
// operator-side settings that do not belong in the stack descriptor
// itself: where the descriptor is, how to reach the Docker daemon and
// Prometheus, and how long post-deploy probes may take.
//
// Every field has a default, so a missing config file is not an error —
// DefaultConfig() is used as-is.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/tidwall/jsonc"

	"github.com/Roman-Andr/botstack/internal/model"
)

// DefaultFileName is the config file probed in the working directory when
// no --config flag is given.
const DefaultFileName = "botstack.jsonc"

// Config holds the tool-level settings for the botstack CLI.
type Config struct {
	// StackFile is the path to the stack descriptor YAML.
	StackFile string `json:"stackFile"`

	// DockerHost overrides Docker socket auto-detection when non-empty
	// (same syntax as the DOCKER_HOST environment variable).
	DockerHost string `json:"dockerHost,omitempty"`

	// PrometheusURL is the base URL of the deployed metrics database,
	// used by the verify command for query-back checks.
	PrometheusURL string `json:"prometheusUrl"`

	// ProbeTimeout bounds how long `up` and `verify` wait for published
	// ports to become reachable. Parsed from a Go duration string.
	ProbeTimeout Duration `json:"probeTimeout"`
}

// Duration wraps time.Duration with JSON string encoding ("30s", "2m").
type Duration time.Duration

// UnmarshalJSON parses a duration string or a bare nanosecond count.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}

	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("duration must be a string like \"30s\" or an integer")
	}
	*d = Duration(n)
	return nil
}

// MarshalJSON renders the duration as a Go duration string.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// DefaultConfig returns the settings used when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		StackFile:     "botstack.yml",
		PrometheusURL: "http://localhost:9090",
		ProbeTimeout:  Duration(30 * time.Second),
	}
}

// Load reads a config file (JSONC) and merges it over the defaults.
// An empty path probes DefaultFileName in the working directory; if that
// file does not exist either, the defaults are returned without error.
// An explicitly named file that is missing is an error.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultFileName
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return DefaultConfig(), nil
		}
		return nil, model.WrapCLIError(model.ExitGeneralError,
			fmt.Sprintf("failed to read config file %q", path), err)
	}

	cfg := DefaultConfig()
	// Strip JSONC comments and trailing commas before handing the bytes
	// to encoding/json.
	if err := json.Unmarshal(jsonc.ToJSON(raw), cfg); err != nil {
		return nil, model.WrapCLIError(model.ExitGeneralError,
			fmt.Sprintf("invalid config file %q", path), err)
	}

	if err := cfg.validate(); err != nil {
		return nil, model.WrapCLIError(model.ExitGeneralError,
			fmt.Sprintf("invalid config file %q", path), err)
	}
	return cfg, nil
}

// validate checks field-level constraints after merging over defaults.
func (c *Config) validate() error {
	if c.StackFile == "" {
		return fmt.Errorf("stackFile must not be empty")
	}
	if c.PrometheusURL == "" {
		return fmt.Errorf("prometheusUrl must not be empty")
	}
	if c.ProbeTimeout.Std() <= 0 {
		return fmt.Errorf("probeTimeout must be positive, got %s", c.ProbeTimeout.Std())
	}
	return nil
}
