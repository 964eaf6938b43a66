/*
Package config provides type-safe configuration extraction from map[string]any.

# Overview

config wraps a map[string]any and provides typed accessor methods that handle
missing keys and type mismatches gracefully by returning default values.
Queue tuning usually lives inside a larger application config file; this
package lets the queue read its keys without verbose type assertions and
nil checks.

# Basic Usage

Create a Config from any map and extract values with defaults:

	cfg := config.New(map[string]any{
	    "exclusive":      false,
	    "trim_threshold": 512,
	    "metrics":        true,
	})

	exclusive := cfg.Bool("exclusive", false)    // false
	threshold := cfg.Int("trim_threshold", 256)  // 512
	metrics := cfg.Bool("metrics", false)        // true
	missing := cfg.String("missing", "default")  // "default"

Pass the result to uniq.FromConfig to turn recognized keys into queue
options.

# Sections

Section extracts a nested map as its own Config, so queue tuning can sit
under one heading:

	cfg, _ := config.FromYAML([]byte(`
	queue:
	  trim_threshold: 512
	app:
	  poll_interval: 50ms
	`))

	queueCfg := cfg.Section("queue")
	threshold := queueCfg.Int("trim_threshold", 256) // 512

A missing or non-map key yields an empty Config, so chained lookups fall
through to their defaults.

# Type Coercion

Duration handles multiple input types:
  - string: parsed with time.ParseDuration ("50ms", "1h30m")
  - int/float64: interpreted as seconds
  - time.Duration: used directly

Int converts from int64 and from float64 when there is no fractional part.

All methods return the default value if:
  - The key is missing
  - The value cannot be converted to the requested type
  - The conversion would lose precision (e.g., float to int with fraction)

# File Loading

Load configuration from YAML or JSON files:

	cfg, err := config.FromFile("config.yaml")
	if err != nil {
	    log.Fatal(err)
	}

	// Or load from bytes
	cfg, err = config.FromYAML(yamlBytes)
	cfg, err = config.FromJSON(jsonBytes)

# Thread Safety

Config is safe for concurrent read access. The underlying map is not
modified after creation. However, if the original map is modified
externally, behavior is undefined.
*/
package config
