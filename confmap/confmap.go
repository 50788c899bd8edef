// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package confmap loads configuration from layered sources and decodes it
// into mapstructure tagged structs.
//
// Sources are merged in increasing priority: YAML file, environment
// variables, --set values, command line flags. Defaults are the values
// already present in the struct handed to Unmarshal.
package confmap // import "github.com/otel-log-samples/logpipeline/confmap"

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	kconfmap "github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
	"go.uber.org/multierr"
)

// KeyDelimiter separates the levels of a configuration key. Keys may
// contain dots, e.g. resource attribute names.
const KeyDelimiter = "::"

// EnvBinding maps one environment variable onto one configuration key.
type EnvBinding struct {
	Env string
	Key string
	// Convert turns the raw value into the configuration value. A nil value
	// leaves the key untouched. The raw string is used when Convert is nil.
	Convert func(raw string) (any, error)
}

// Options lists the sources to load.
type Options struct {
	// File is the path of a YAML file; ignored when empty.
	File string
	// Env is applied in order, so a later binding of the same key wins.
	Env []EnvBinding
	// Set holds key=value pairs, the key using KeyDelimiter.
	Set []string
	// Flags are read for the names listed in FlagKeys, each flag setting
	// every key it lists. Only flags set on the command line are applied.
	Flags    *pflag.FlagSet
	FlagKeys map[string][]string
}

// Conf is the merged configuration.
type Conf struct {
	k *koanf.Koanf
}

// New returns an empty Conf.
func New() *Conf {
	return &Conf{k: koanf.New(KeyDelimiter)}
}

// Load merges the sources of opts.
func Load(opts Options) (*Conf, error) {
	c := New()
	if opts.File != "" {
		if err := c.k.Load(file.Provider(opts.File), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load configuration file %q: %w", opts.File, err)
		}
	}
	if err := c.loadEnv(opts.Env); err != nil {
		return nil, err
	}
	if err := c.loadSet(opts.Set); err != nil {
		return nil, err
	}
	if err := c.loadFlags(opts.Flags, opts.FlagKeys); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Conf) loadEnv(bindings []EnvBinding) error {
	var errs error
	for _, b := range bindings {
		err := c.k.Load(env.ProviderWithValue(b.Env, KeyDelimiter, func(name, raw string) (string, any) {
			if name != b.Env {
				return "", nil
			}
			if b.Convert == nil {
				return b.Key, raw
			}
			v, err := b.Convert(raw)
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("invalid %s: %w", b.Env, err))
				return "", nil
			}
			if v == nil {
				return "", nil
			}
			return b.Key, v
		}), nil)
		errs = multierr.Append(errs, err)
	}
	if errs != nil {
		return fmt.Errorf("failed to load environment variables: %w", errs)
	}
	return nil
}

// loadFlags loads the flags once per key position, since the posflag
// provider maps a flag to a single key.
func (c *Conf) loadFlags(flags *pflag.FlagSet, flagKeys map[string][]string) error {
	if flags == nil {
		return nil
	}
	depth := 0
	for _, keys := range flagKeys {
		depth = max(depth, len(keys))
	}
	for i := range depth {
		if err := c.k.Load(posflag.ProviderWithFlag(flags, KeyDelimiter, c.k, func(f *pflag.Flag) (string, any) {
			keys := flagKeys[f.Name]
			if !f.Changed || i >= len(keys) {
				return "", nil
			}
			return keys[i], posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return fmt.Errorf("failed to load command line arguments: %w", err)
		}
	}
	return nil
}

func (c *Conf) loadSet(pairs []string) error {
	if len(pairs) == 0 {
		return nil
	}
	m := make(map[string]any, len(pairs))
	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return fmt.Errorf("invalid --set value %q, expected key=value", p)
		}
		m[strings.TrimSpace(key)] = value
	}
	if err := c.k.Load(kconfmap.Provider(m, KeyDelimiter), nil); err != nil {
		return fmt.Errorf("failed to load --set values: %w", err)
	}
	return nil
}

// IsSet reports whether key was given by any source.
func (c *Conf) IsSet(key string) bool {
	return c.k.Exists(key)
}

// Get returns the raw value of key.
func (c *Conf) Get(key string) any {
	return c.k.Get(key)
}

// ToStringMap returns the merged configuration as a nested map.
func (c *Conf) ToStringMap() map[string]any {
	return c.k.Raw()
}

var errNilResult = errors.New("nil unmarshal target")

// Unmarshal decodes the configuration into result, which must be a non-nil
// pointer. Fields of result that no source sets keep their value. Unknown
// keys are an error.
func (c *Conf) Unmarshal(result any) error {
	if result == nil {
		return errNilResult
	}
	return c.k.UnmarshalWithConf("", result, koanf.UnmarshalConf{
		Tag: "mapstructure",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           result,
			TagName:          "mapstructure",
			WeaklyTypedInput: true,
			ErrorUnused:      true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
				mapstructure.TextUnmarshallerHookFunc(),
			),
		},
	})
}
