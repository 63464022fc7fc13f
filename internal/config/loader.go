package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Environment variables read by Load.
const (
	EnvPrefix = "TRIPLECROWN_"
	EnvConfig = "TRIPLECROWN_CONFIG"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. file (YAML) at path, or at TRIPLECROWN_CONFIG when path is empty
//  3. env (prefix TRIPLECROWN_, "__" separates nested keys)
func Load(ctx context.Context, path string) (*Config, error) {
	base := New(ctx)

	k := koanf.New(".")

	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrLoadConfig, path, err)
		}
	}

	// TRIPLECROWN_BLOCKING__LAST_WIDTH -> blocking.last_width
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, strings.ToLower(EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %v", ErrLoadConfig, err)
	}

	// Sources are replaced, not merged element-wise into the defaults.
	cfg := *base
	cfg.Sources = nil
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}
	if len(cfg.Sources) == 0 {
		cfg.Sources = base.Sources
	}
	cfg.applySourceDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applySourceDefaults fills the format and delimiter left empty in a source.
func (c *Config) applySourceDefaults() {
	for i := range c.Sources {
		s := &c.Sources[i]
		s.Kind = strings.ToLower(strings.TrimSpace(s.Kind))
		if s.Format == "" {
			if s.URL != "" || strings.EqualFold(filepath.Ext(s.CachePath), ".json") {
				s.Format = FormatResultSet
			} else {
				s.Format = FormatDelimited
			}
		}
		if s.Format == FormatDelimited && s.Delimiter == "" {
			if strings.EqualFold(filepath.Ext(s.Path), ".tsv") {
				s.Delimiter = "\t"
			} else {
				s.Delimiter = ","
			}
		}
	}
}
