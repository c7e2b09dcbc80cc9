// Package config loads an options.Options from a YAML file layered with
// IGNITEDB_-prefixed environment variable overrides, using koanf the same
// way the rest of the retrieved pack's services configure themselves.
package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/ignitedb/ignitedb/pkg/options"
)

const envPrefix = "IGNITEDB_"

// Load builds an options.Options by layering configPath's YAML contents
// (if configPath is non-empty) with any IGNITEDB_-prefixed environment
// variables, which take highest precedence, then filling anything left
// unset with the built-in defaults.
func Load(configPath string) (*options.Options, error) {
	k := koanf.New(".")

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: load file %q: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("config: load environment variables: %w", err)
	}

	resolved := options.NewDefaultOptions()
	if err := k.Unmarshal("", &resolved); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	applyDefaults(&resolved)
	return &resolved, nil
}

// applyDefaults fills any field left at its zero value after unmarshaling
// with the corresponding built-in default.
func applyDefaults(o *options.Options) {
	defaults := options.NewDefaultOptions()

	if o.DataDir == "" {
		o.DataDir = defaults.DataDir
	}
	if o.MaxSegmentBytes == 0 {
		o.MaxSegmentBytes = defaults.MaxSegmentBytes
	}
	if o.MaxReclaimableBytes == 0 {
		o.MaxReclaimableBytes = defaults.MaxReclaimableBytes
	}
	if o.CompactInterval == 0 {
		o.CompactInterval = defaults.CompactInterval
	}
}
