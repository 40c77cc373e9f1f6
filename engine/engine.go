// Copyright 2023 Gustavo C. Viegas. All rights reserved.

// Package engine implements retained-mode rendering on
// top of a driver.GPU.
//
// A Device owns every resource. Rendering is organized
// as a grid of Stages (frame phases, in order) and
// Materials (in order), where each populated cell holds
// the Pass that draws the Material's Instances during
// the Stage. Device.Frame walks the grid once, culling
// and batching instances and applying only the state
// changes needed between consecutive passes.
package engine

import (
	"fmt"
	"io"
	"time"

	"github.com/chewxy/math32"
	"github.com/pelletier/go-toml/v2"
)

const (
	dflPositionAttribute = "position"
	dflPackedName        = "_packed"
	dflCullEpsilon       = 1e-5
)

// Config is used to configure a Device.
type Config struct {
	// Name of the driver to load in Open.
	// Any registered driver whose name contains this
	// string (ignoring case) may be selected.
	//
	// Default is "" (any driver).
	Driver string `toml:"driver"`

	// Name of the mesh attribute from which bounds
	// are computed.
	//
	// Default is "position".
	PositionAttribute string `toml:"position_attribute"`

	// Name of the uniform array that holds packed
	// uniforms in pass sources.
	//
	// Default is "_packed".
	PackedName string `toml:"packed_name"`

	// Tolerance of frustum plane tests.
	// Zero selects the default. Any negative value
	// selects an exact test.
	//
	// Default is 1e-5.
	CullEpsilon float32 `toml:"cull_epsilon"`

	// Clock used for time-based live values.
	//
	// Default is time.Now.
	Clock func() time.Time `toml:"-"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		PositionAttribute: dflPositionAttribute,
		PackedName:        dflPackedName,
		CullEpsilon:       dflCullEpsilon,
		Clock:             time.Now,
	}
}

// LoadConfig decodes a TOML document into a Config.
// Fields missing from the document keep their default
// values. Unknown fields are an error.
func LoadConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	if err := toml.NewDecoder(r).DisallowUnknownFields().Decode(&cfg); err != nil {
		return DefaultConfig(), fmt.Errorf(cfgPrefix+"%w", err)
	}
	if err := cfg.validate(); err != nil {
		return DefaultConfig(), err
	}
	return cfg, nil
}

// validate checks cfg and fills in the defaults of
// zero-valued fields.
func (cfg *Config) validate() error {
	var reason string
	switch {
	case math32.IsNaN(cfg.CullEpsilon):
		reason = "cull epsilon is NaN"
	case !isIdent(cfg.PositionAttribute) && cfg.PositionAttribute != "":
		reason = "invalid position attribute name"
	case !isIdent(cfg.PackedName) && cfg.PackedName != "":
		reason = "invalid packed uniform name"
	default:
		goto validConfig
	}
	return newConfigError(cfgPrefix, reason)
validConfig:
	if cfg.PositionAttribute == "" {
		cfg.PositionAttribute = dflPositionAttribute
	}
	if cfg.PackedName == "" {
		cfg.PackedName = dflPackedName
	}
	if cfg.CullEpsilon == 0 {
		cfg.CullEpsilon = dflCullEpsilon
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return nil
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case i > 0 && c >= '0' && c <= '9':
		default:
			return false
		}
	}
	return true
}

// Error message prefixes.
const (
	cfgPrefix     = "config: "
	devPrefix     = "device: "
	meshPrefix    = "mesh: "
	texPrefix     = "texture: "
	depthPrefix   = "depth: "
	targetPrefix  = "target: "
	passPrefix    = "pass: "
	stagePrefix   = "stage: "
	matPrefix     = "material: "
	instPrefix    = "instance: "
	uniformPrefix = "uniform: "
)
