package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"

	"spritec/common"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	TemplateFieldName string

	SiteConfig struct {
		// SourceURL and URL are synonyms, SourceURL wins when both are set.
		SourceURL     string           `yaml:"source_url" validate:"omitempty,http_url"`
		URL           string           `yaml:"url" validate:"omitempty,http_url"`
		Directory     string           `yaml:"directory" sanitize:"path_clean" validate:"required"`
		Framework     common.Framework `yaml:"framework" validate:"required,oneof=react"`
		StableVersion string           `yaml:"stable_version"`
	}

	FetchConfig struct {
		Timeout   time.Duration `yaml:"timeout" validate:"gte=0"`
		UserAgent string        `yaml:"user_agent"`
		AuthToken SecretString  `yaml:"auth_token,omitempty"`
		Parallel  int           `yaml:"parallel" validate:"min=1,max=64"`
	}

	TranslateConfig struct {
		Banner string `yaml:"banner"`
	}

	ServeConfig struct {
		Listen string `yaml:"listen" validate:"required,hostname_port"`
	}

	Config struct {
		Version   int             `yaml:"version" validate:"eq=1"`
		Site      SiteConfig      `yaml:"site"`
		Fetch     FetchConfig     `yaml:"fetch"`
		Translate TranslateConfig `yaml:"translate"`
		Serve     ServeConfig     `yaml:"serve"`
		Logging   LoggingConfig   `yaml:"logging"`
		Reporting ReporterConfig  `yaml:"reporting"`
	}
)

// Source returns URL of the site entry document.
func (s *SiteConfig) Source() string {
	if s.SourceURL != "" {
		return s.SourceURL
	}
	return s.URL
}

const (
	// NOTE: must match yaml field name above, banner is a template expanded
	// during translation, not when configuration is loaded
	BannerFieldName TemplateFieldName = "banner"
)

var requiredOptions = append([]func(*gencfg.ProcessingOptions){},
	gencfg.WithDoNotExpandField(string(BannerFieldName)),
)

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// unknown fields are errors
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if !process {
		return cfg, nil
	}
	if err := gencfg.Sanitize(cfg); err != nil {
		return nil, err
	}
	if err := gencfg.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfiguration expands configuration template to get defaults, then
// overlays values from the file at path (when given) and validates the
// result.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	data, err := gencfg.Process(ConfigTmpl, append(requiredOptions, options...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}

	haveFile := len(path) > 0
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	if data, err = os.ReadFile(path); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if cfg, err = unmarshalConfig(data, cfg, true); err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare returns default configuration file contents.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl, requiredOptions...)
}

// Dump returns active configuration as YAML, secrets are masked.
func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %w", err)
	}
	return data, nil
}
