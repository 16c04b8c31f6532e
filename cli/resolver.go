package cli

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"

	"github.com/ardnew/bindc/log"
)

// resolve is a [kong.ConfigurationLoader] reading YAML config files.
//
// Keys are flag names. Nested mappings join their keys with hyphens, and
// underscores may stand in for hyphens, so these are equivalent:
//
//	log-level: debug
//
//	log_level: debug
//
//	log:
//	  level: debug
//
// Sequences supply repeated flags such as --import. Command-line flags
// override config file values. A malformed file is ignored with a warning.
func resolve(r io.Reader) (kong.Resolver, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		log.Warn("ignoring malformed configuration", slog.Any("error", err))

		return config{}, nil
	}

	c := config{}
	c.flatten("", doc)

	return c, nil
}

// config implements [kong.Resolver] for YAML configs.
type config map[string]any

// flatten stores the leaves of m under their hyphen-joined key paths.
func (c config) flatten(prefix string, m map[string]any) {
	for k, v := range m {
		key := prefix + strings.ReplaceAll(k, "_", "-")

		if sub, ok := v.(map[string]any); ok {
			c.flatten(key+"-", sub)

			continue
		}

		c[key] = scalar(v)
	}
}

// scalar converts numbers to strings, which kong parses into the flag's
// type. Sequences are converted element-wise.
func scalar(v any) any {
	switch v := v.(type) {
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = scalar(e)
		}

		return out
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return fmt.Sprint(v)
	default:
		return v
	}
}

// Validate implements [kong.Resolver].
func (c config) Validate(*kong.Application) error {
	return nil
}

// Resolve implements [kong.Resolver].
func (c config) Resolve(
	_ *kong.Context,
	_ *kong.Path,
	flag *kong.Flag,
) (any, error) {
	if value, ok := c[flag.Name]; ok {
		return value, nil
	}

	// Not found - return nil to let kong use defaults
	return nil, nil
}
