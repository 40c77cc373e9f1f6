// Copyright 2023 Gustavo C. Viegas. All rights reserved.

// Package ctxt provides the GPU driver used in the engine.
package ctxt

import (
	"errors"
	"strings"

	"github.com/gviegas/retained/driver"
)

// The driver opened by the last Load.
var drv driver.Driver

var errNoDriver = errors.New("ctxt: driver not found")

// Load attempts to load any driver whose name contains
// the name string. It is case insensitive.
// If name is the empty string, then all registered
// drivers are considered.
// On success, it replaces the current driver, closing
// the previous one if it differs from the new one.
func Load(name string) (driver.GPU, error) {
	drivers := driver.Drivers()
	err := errNoDriver
	name = strings.ToLower(name)
	for i := range drivers {
		if !strings.Contains(strings.ToLower(drivers[i].Name()), name) {
			continue
		}
		var gpu driver.GPU
		if gpu, err = drivers[i].Open(); err != nil {
			continue
		}
		if drv != nil && drv != drivers[i] {
			drv.Close()
		}
		drv = drivers[i]
		return gpu, nil
	}
	return nil, err
}

// Unload closes the current driver, if any.
func Unload() {
	if drv != nil {
		drv.Close()
	}
	drv = nil
}
