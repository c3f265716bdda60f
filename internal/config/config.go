// Package config loads the optional YAML configuration of hangdiag.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/mabhi256/hangdiag/internal/splist"
)

var ErrInvalidConfig = errors.New("invalid config")

var colorPattern = regexp.MustCompile(`^(#[0-9A-Fa-f]{3,8}|[A-Za-z]+)$`)

type Config struct {
	Rule   splist.Rule  `yaml:"rule"`
	Report ReportConfig `yaml:"report"`
}

type ReportConfig struct {
	Title          string `yaml:"title"` // defaults to the dump short name
	HighlightColor string `yaml:"highlight_color"`
}

func Default() Config {
	return Config{
		Rule: splist.DefaultRule(),
		Report: ReportConfig{
			HighlightColor: "red",
		},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	required := []struct{ key, value string }{
		{"rule.signature_frame", c.Rule.SignatureFrame},
		{"rule.query_shape", c.Rule.QueryShape},
		{"rule.view_xml_field", c.Rule.ViewXMLField},
		{"rule.query_field", c.Rule.QueryField},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("%w: %s must not be empty", ErrInvalidConfig, r.key)
		}
	}
	if !colorPattern.MatchString(c.Report.HighlightColor) {
		return fmt.Errorf("%w: report.highlight_color must be a color name or #hex, got %q", ErrInvalidConfig, c.Report.HighlightColor)
	}
	if c.Rule.MaxViewFields < 0 {
		return fmt.Errorf("%w: rule.max_view_fields must be >= 0, got %d", ErrInvalidConfig, c.Rule.MaxViewFields)
	}
	return nil
}
