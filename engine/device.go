// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package engine

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gviegas/retained/driver"
	"github.com/gviegas/retained/engine/internal/ctxt"
)

// Device owns every resource, stage and material, and
// draws frames.
// A Device is not safe for concurrent use.
type Device struct {
	// Device-level uniforms. These have the lowest
	// precedence.
	Uniforms

	gpu   driver.GPU
	caps  driver.Caps
	cfg   Config
	owned bool
	lost  bool

	meshes   pool[*Mesh]
	textures pool[*Texture]
	depths   pool[*Depth]
	targets  pool[*Target]
	passes   pool[*Pass]

	stages    []*Stage
	materials []*Material

	listeners    []listener
	nextListener int

	started bool
	start   time.Time
	last    time.Time
	width   int
	height  int

	frame   frameState
	visible []*Instance
	stats   Stats
}

// New creates a Device that renders with gpu.
// If cfg is nil, DefaultConfig is used.
// If gpu implements driver.Notifier, the Device loses and
// restores itself as notified.
func New(gpu driver.GPU, cfg *Config) (*Device, error) {
	if gpu == nil {
		return nil, newConfigError(devPrefix, "nil GPU")
	}
	c := DefaultConfig()
	if cfg != nil {
		c = *cfg
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	d := &Device{gpu: gpu, cfg: c, caps: gpu.Caps()}
	d.width, d.height = gpu.DrawableSize()
	d.frame.reset()
	if n, ok := gpu.(driver.Notifier); ok {
		n.Notify(d.Lose, func() {
			if err := d.Restore(); err != nil {
				Logger().Warn("restore failed", slog.Any("err", err))
			}
		})
	}
	Logger().Debug("device created",
		slog.String("driver", gpu.Driver().Name()),
		slog.Int("width", d.width),
		slog.Int("height", d.height))
	return d, nil
}

// Open loads the driver named by cfg.Driver and creates
// a Device that renders with it.
// The driver is closed when the Device is closed.
func Open(cfg *Config) (*Device, error) {
	c := DefaultConfig()
	if cfg != nil {
		c = *cfg
	}
	gpu, err := ctxt.Load(c.Driver)
	if err != nil {
		return nil, err
	}
	d, err := New(gpu, &c)
	if err != nil {
		ctxt.Unload()
		return nil, err
	}
	d.owned = true
	return d, nil
}

// GPU returns the driver.GPU used by d.
func (d *Device) GPU() driver.GPU { return d.gpu }

// Caps returns the capabilities of d's GPU, as last
// probed.
func (d *Device) Caps() driver.Caps { return d.caps }

// Config returns the configuration of d.
func (d *Device) Config() Config { return d.cfg }

// Lost returns whether d is lost.
func (d *Device) Lost() bool { return d.lost }

// Stats returns the statistics of the last frame.
func (d *Device) Stats() Stats { return d.stats }

// OutputSize returns the size of the default framebuffer
// as of the last frame.
func (d *Device) OutputSize() (width, height int) { return d.width, d.height }

// Lose marks d as lost.
// GPU handles are dropped without any GPU calls, while
// CPU-side sources are kept. Until Restore succeeds,
// Frame does nothing, and only NewPass and
// Pass.Recompile fail with ErrLost; other resources are
// created on restore.
func (d *Device) Lose() {
	if d.lost {
		return
	}
	d.lost = true
	d.loseAll()
	Logger().Info("device lost")
	d.emit(EventLose)
}

func (d *Device) loseAll() {
	for x := range d.meshes.all() {
		x.lose()
	}
	for x := range d.textures.all() {
		x.lose()
	}
	for x := range d.depths.all() {
		x.lose()
	}
	for x := range d.targets.all() {
		x.lose()
	}
	for x := range d.passes.all() {
		x.lose()
	}
	d.frame.reset()
}

// releaseAll deletes the GPU objects that a failed
// Restore rebuilt, then drops every handle.
func (d *Device) releaseAll() {
	for x := range d.passes.all() {
		x.program.delete(d.gpu)
	}
	for x := range d.targets.all() {
		x.release()
	}
	for x := range d.depths.all() {
		x.release()
	}
	for x := range d.textures.all() {
		x.release()
	}
	for x := range d.meshes.all() {
		x.release()
	}
	d.loseAll()
}

// Restore rebuilds every resource of a lost device.
// Capabilities are probed again, and resources are
// rebuilt in the order Mesh, Texture, Depth, Target and
// Pass. Resources whose sources were flushed have
// undefined contents.
// If any resource fails to rebuild, d remains lost and
// the errors are returned.
func (d *Device) Restore() error {
	if !d.lost {
		return nil
	}
	d.caps = d.gpu.Caps()
	for x := range d.meshes.all() {
		x.restore()
	}
	for x := range d.textures.all() {
		x.restore()
	}
	for x := range d.depths.all() {
		x.restore()
	}
	var errs []error
	for x := range d.targets.all() {
		if err := x.restore(); err != nil {
			errs = append(errs, err)
		}
	}
	for x := range d.passes.all() {
		if err := x.restore(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		d.releaseAll()
		return err
	}
	d.lost = false
	d.frame.reset()
	Logger().Info("device restored",
		slog.Int("meshes", d.meshes.len()),
		slog.Int("textures", d.textures.len()),
		slog.Int("depths", d.depths.len()),
		slog.Int("targets", d.targets.len()),
		slog.Int("passes", d.passes.len()))
	d.emit(EventRestore)
	return nil
}

// Validate checks that every instance can be drawn by
// the passes of its material. It returns a *UsageError
// for each instance whose mesh has none of the vertex
// attributes that a pass uses.
func (d *Device) Validate() error {
	var errs []error
	for _, m := range d.materials {
		for stage, p := range m.passes {
			if p.dev == nil || len(p.attribs) == 0 {
				continue
			}
			for _, inst := range m.bin {
				if inst.mesh != nil && inst.mesh.dev != nil && !inst.mesh.matches(p.attribs) {
					errs = append(errs, newUsageError(instPrefix, "mesh matches no attribute of pass for '"+
						m.name+"' in stage '"+stage+"'"))
				}
			}
		}
	}
	return errors.Join(errs...)
}

// Meshes returns the number of live meshes.
func (d *Device) Meshes() int { return d.meshes.len() }

// Textures returns the number of live textures.
func (d *Device) Textures() int { return d.textures.len() }

// Depths returns the number of live depth buffers.
func (d *Device) Depths() int { return d.depths.len() }

// Targets returns the number of live targets.
func (d *Device) Targets() int { return d.targets.len() }

// Passes returns the number of live passes.
func (d *Device) Passes() int { return d.passes.len() }

// Close frees every material, stage and resource of d.
// If d was created by Open, the driver is closed too.
func (d *Device) Close() {
	for _, m := range append([]*Material(nil), d.materials...) {
		m.Free()
	}
	for _, s := range append([]*Stage(nil), d.stages...) {
		s.Free()
	}
	for x := range d.passes.all() {
		x.Free()
	}
	for x := range d.targets.all() {
		x.Free()
	}
	for x := range d.depths.all() {
		x.Free()
	}
	for x := range d.textures.all() {
		x.Free()
	}
	for x := range d.meshes.all() {
		x.Free()
	}
	if n, ok := d.gpu.(driver.Notifier); ok {
		n.Notify(nil, nil)
	}
	d.listeners = nil
	if d.owned {
		ctxt.Unload()
		d.owned = false
	}
}
