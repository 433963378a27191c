package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateMatching(); err != nil {
		return err
	}
	if err := c.validateMetadata(); err != nil {
		return err
	}
	if err := c.validatePatches(); err != nil {
		return err
	}
	if err := c.validateAudit(); err != nil {
		return err
	}
	if strings.ContainsAny(c.Export.ConstPath, "\"\r\n") {
		return errors.New("export.const_path must not contain quotes or line breaks")
	}
	return c.validateLogging()
}

func (c *Config) validateMatching() error {
	if c.Matching.Threshold <= 0 || c.Matching.Threshold > 1 {
		return errors.New("matching.threshold must be greater than 0 and at most 1")
	}
	if c.Matching.MinReferenceKeyLen < 1 {
		return errors.New("matching.min_reference_key_len must be >= 1")
	}
	return nil
}

func (c *Config) validateMetadata() error {
	if !c.Metadata.Enabled {
		return nil
	}
	if err := validateHTTPURL("metadata.feed_url", c.Metadata.FeedURL); err != nil {
		return err
	}
	return ensurePositiveMap(map[string]int{
		"metadata.request_timeout": c.Metadata.RequestTimeout,
	})
}

func (c *Config) validatePatches() error {
	if !c.Patches.Enabled {
		return nil
	}
	owner, name := c.RepositoryOwnerName()
	if owner == "" || name == "" || strings.Contains(name, "/") {
		return fmt.Errorf("patches.repository must be in owner/name form, got %q", c.Patches.Repository)
	}
	if err := validateHTTPURL("patches.api_url", c.Patches.APIURL); err != nil {
		return err
	}
	return ensurePositiveMap(map[string]int{
		"patches.listing_cache_size": c.Patches.ListingCacheSize,
		"patches.request_timeout":    c.Patches.RequestTimeout,
	})
}

func (c *Config) validateAudit() error {
	if c.Audit.Workers < 1 || c.Audit.Workers > maxAuditWorkers {
		return fmt.Errorf("audit.workers must be between 1 and %d", maxAuditWorkers)
	}
	if c.Audit.MinPrintableRatio <= 0 || c.Audit.MinPrintableRatio > 1 {
		return errors.New("audit.min_printable_ratio must be greater than 0 and at most 1")
	}
	if c.Audit.SampleWindow < 16 {
		return errors.New("audit.sample_window must be at least 16 bytes")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
}

func validateHTTPURL(key, value string) error {
	parsed, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s must be an http(s) url, got %q", key, value)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s must include a host, got %q", key, value)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
