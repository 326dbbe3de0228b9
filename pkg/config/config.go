// Package config provides the unified configuration system for ticketferry.
// An export job is described by a single JobConfig structure that names the
// source, its credentials, the output directory, and the request budget the
// source instance is allowed to spend.
package config

import (
	"fmt"
	"time"
)

// JobConfig describes one connector invocation: which source to talk to,
// how to authenticate, where canonical output goes, and how hard the
// rate-limited client may push the source API.
type JobConfig struct {
	// Source identifies the connector (zendesk, freshdesk, helpscout,
	// intercom, kayako)
	Source string `yaml:"source" json:"source" mapstructure:"source"`

	// OutputDir is the directory receiving the JSONL sinks and manifest
	OutputDir string `yaml:"output_dir" json:"output_dir" mapstructure:"output_dir"`

	// Credentials holds per-source secrets. The shape varies by source:
	// zendesk {subdomain,email,token}, freshdesk {domain,api_key},
	// helpscout {app_id,app_secret}, intercom {access_token},
	// kayako {domain,email,password}.
	Credentials map[string]string `yaml:"credentials" json:"credentials" mapstructure:"credentials"`

	// Resources optionally restricts which resource passes run; empty
	// means all of them in the fixed pass order.
	Resources []string `yaml:"resources" json:"resources" mapstructure:"resources"`

	// Request controls the rate-limited client
	Request RequestConfig `yaml:"request" json:"request" mapstructure:"request"`

	// PageSize overrides the per-source default page size when positive
	PageSize int `yaml:"page_size" json:"page_size" mapstructure:"page_size"`

	// LogLevel sets logging verbosity (debug, info, warn, error)
	LogLevel string `yaml:"log_level" json:"log_level" mapstructure:"log_level"`
}

// RequestConfig contains the retry and throttle settings of the request
// client. Zero values fall back to per-source defaults.
type RequestConfig struct {
	// MaxRetries bounds consecutive rate-limit retries per request
	MaxRetries int `yaml:"max_retries" json:"max_retries" mapstructure:"max_retries"`

	// DefaultRetryAfter is used when the Retry-After header is absent
	// or unparseable
	DefaultRetryAfter time.Duration `yaml:"default_retry_after" json:"default_retry_after" mapstructure:"default_retry_after"`

	// RetryAfterFloor clamps absurdly small Retry-After values
	RetryAfterFloor time.Duration `yaml:"retry_after_floor" json:"retry_after_floor" mapstructure:"retry_after_floor"`

	// PreRequestDelay sleeps before every request; models sources with
	// very low absolute quotas rather than a token bucket
	PreRequestDelay time.Duration `yaml:"pre_request_delay" json:"pre_request_delay" mapstructure:"pre_request_delay"`

	// RequestsPerSecond caps the sustained request rate (0 = unlimited)
	RequestsPerSecond float64 `yaml:"requests_per_second" json:"requests_per_second" mapstructure:"requests_per_second"`

	// Timeout bounds each individual HTTP request
	Timeout time.Duration `yaml:"timeout" json:"timeout" mapstructure:"timeout"`
}

// NewJobConfig returns a JobConfig with production defaults for the given
// source. Credentials must still be supplied by the caller.
func NewJobConfig(source string) *JobConfig {
	return &JobConfig{
		Source:      source,
		OutputDir:   "export",
		Credentials: make(map[string]string),
		LogLevel:    "info",
		Request: RequestConfig{
			MaxRetries:        5,
			DefaultRetryAfter: 5 * time.Second,
			RetryAfterFloor:   time.Second,
			Timeout:           30 * time.Second,
		},
	}
}

// Validate checks required fields and value ranges. Connectors call this
// before constructing clients so misconfiguration fails early.
func (c *JobConfig) Validate() error {
	if c.Source == "" {
		return fmt.Errorf("source is required")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output_dir is required")
	}
	if len(c.Credentials) == 0 {
		return fmt.Errorf("credentials are required")
	}
	if c.Request.MaxRetries < 0 {
		return fmt.Errorf("max_retries cannot be negative")
	}
	if c.Request.RequestsPerSecond < 0 {
		return fmt.Errorf("requests_per_second cannot be negative")
	}
	if c.PageSize < 0 {
		return fmt.Errorf("page_size cannot be negative")
	}
	return nil
}

// Credential returns a named credential, or an error naming the missing key.
func (c *JobConfig) Credential(key string) (string, error) {
	v, ok := c.Credentials[key]
	if !ok || v == "" {
		return "", fmt.Errorf("credential %q is required for source %s", key, c.Source)
	}
	return v, nil
}
