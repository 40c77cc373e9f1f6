// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package engine

import (
	"github.com/gviegas/retained/driver"
)

// Sampler describes how a Pass samples the texture bound
// to one of its sampler uniforms.
type Sampler struct {
	Min   driver.Filter
	Mag   driver.Filter
	WrapS driver.AddrMode
	WrapT driver.AddrMode
	// Values less than 2 disable anisotropic filtering.
	MaxAniso int
}

// DefaultSampler returns the default Sampler: trilinear
// filtering with repeating coordinates.
func DefaultSampler() Sampler {
	return Sampler{
		Min:   driver.FLinearMipLinear,
		Mag:   driver.FLinear,
		WrapS: driver.AWrap,
		WrapT: driver.AWrap,
	}
}

// validate checks that s's fields are in range.
func (s *Sampler) validate() error {
	var reason string
	switch {
	case s.Min < driver.FNearest || s.Min > driver.FLinearMipLinear:
		reason = "invalid min filter"
	case s.Mag != driver.FNearest && s.Mag != driver.FLinear:
		reason = "invalid mag filter"
	case s.WrapS < driver.AWrap || s.WrapS > driver.AClamp, s.WrapT < driver.AWrap || s.WrapT > driver.AClamp:
		reason = "invalid address mode"
	case s.MaxAniso < 0:
		reason = "negative max anisotropy"
	default:
		return nil
	}
	return newConfigError(passPrefix, reason)
}

// forLevels returns s with mip filters replaced by their
// non-mip counterparts when levels is 1.
func (s Sampler) forLevels(levels int) Sampler {
	if levels > 1 {
		return s
	}
	switch s.Min {
	case driver.FNearestMipNearest, driver.FNearestMipLinear:
		s.Min = driver.FNearest
	case driver.FLinearMipNearest, driver.FLinearMipLinear:
		s.Min = driver.FLinear
	}
	return s
}

// apply sets the parameters of the texture bound to
// target that differ from prev.
// A nil prev sets every parameter.
func (s *Sampler) apply(gpu driver.GPU, target driver.TexTarget, prev *Sampler) {
	all := prev == nil
	if all || s.Min != prev.Min {
		gpu.TexParameter(target, driver.TexMinFilter, int(s.Min))
	}
	if all || s.Mag != prev.Mag {
		gpu.TexParameter(target, driver.TexMagFilter, int(s.Mag))
	}
	if all || s.WrapS != prev.WrapS {
		gpu.TexParameter(target, driver.TexWrapS, int(s.WrapS))
	}
	if all || s.WrapT != prev.WrapT {
		gpu.TexParameter(target, driver.TexWrapT, int(s.WrapT))
	}
	if all || s.MaxAniso != prev.MaxAniso {
		gpu.TexParameter(target, driver.TexMaxAniso, max(s.MaxAniso, 1))
	}
}
