// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gpu

import (
	"cmp"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"cogentcore.org/render/base/errors"
)

// contexts is the registry of live contexts, one per device.
var contexts = struct {
	sync.Mutex
	m map[Device]*Context
}{m: map[Device]*Context{}}

// resource is implemented by everything the Context tracks.
type resource interface {
	Release()
}

// Stats are counts of live resources and work done by a [Context].
type Stats struct {
	Buffers       int
	Textures      int
	RenderTargets int
	Programs      int
	Fences        int

	// Draws is the total number of draw calls issued.
	Draws int

	// StateChanges is the number of render state, program, framebuffer
	// and viewport changes actually sent to the device.
	StateChanges int
}

// Live returns the total number of live resources.
func (st Stats) Live() int {
	return st.Buffers + st.Textures + st.RenderTargets + st.Programs + st.Fences
}

// Context is the single owner of a [Device]. It queries capabilities,
// tracks every resource created on the device, filters redundant state
// changes, and owns the [ProgramCache]. All resources must be created and
// used from the goroutine that owns the device.
type Context struct {
	// Config is the configuration the context was created with.
	Config Config

	device   Device
	caps     Capabilities
	programs *ProgramCache

	// live has every unreleased resource, in creation order by id.
	live   map[resource]uint64
	nextID uint64

	draws        int
	stateChanges int

	bound struct {
		framebuffer Handle
		program     Handle
		viewport    Viewport
		states      RenderStates
		statesSet   bool
	}

	lost     bool
	released bool
}

// NewContext returns the context for the device. There can be only one
// live context per device: [ErrContextExists] is returned otherwise.
// If cfg is nil, [Config.Defaults] are used.
func NewContext(dev Device, cfg *Config) (*Context, error) {
	if cfg == nil {
		cfg = NewConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	contexts.Lock()
	defer contexts.Unlock()
	if _, has := contexts.m[dev]; has {
		return nil, ErrContextExists
	}
	if err := dev.Status(); err != nil {
		return nil, err
	}
	c := &Context{Config: *cfg, device: dev, caps: dev.Capabilities(), live: map[resource]uint64{}}
	c.programs = NewProgramCache(c, cfg.ProgramCacheSize)
	if cfg.Debug {
		Debug = true
	}
	contexts.m[dev] = c
	if Debug {
		slog.Info("gpu: new context", "device", c.caps.Name, "maxTextureSize", c.caps.MaxTextureSize)
	}
	return c, nil
}

// Device returns the device of this context.
func (c *Context) Device() Device { return c.device }

// Capabilities returns the capabilities of the device.
func (c *Context) Capabilities() *Capabilities { return &c.caps }

// Programs returns the program cache.
func (c *Context) Programs() *ProgramCache { return c.programs }

// Err returns [ErrContextLost] if the device has been lost,
// and nil otherwise. Once lost, the context stays lost.
func (c *Context) Err() error {
	if c.released {
		return ErrReleased
	}
	if c.lost {
		return ErrContextLost
	}
	return c.check(c.device.Status())
}

// check records the loss of the device and returns err.
func (c *Context) check(err error) error {
	if err != nil && errors.Is(err, ErrContextLost) {
		if !c.lost {
			slog.Error("gpu: context lost", "device", c.caps.Name)
		}
		c.lost = true
	}
	return err
}

// usable returns an error if no new work can be done on the device.
func (c *Context) usable() error {
	if c.released {
		return ErrReleased
	}
	if c.lost {
		return ErrContextLost
	}
	return nil
}

func (c *Context) track(r resource) {
	c.nextID++
	c.live[r] = c.nextID
}

func (c *Context) untrack(r resource) {
	delete(c.live, r)
}

// Stats returns counts of live resources and work done.
func (c *Context) Stats() Stats {
	st := Stats{Draws: c.draws, StateChanges: c.stateChanges}
	for r := range c.live {
		switch r.(type) {
		case *Buffer:
			st.Buffers++
		case *Texture:
			st.Textures++
		case *RenderTarget:
			st.RenderTargets++
		case *Program:
			st.Programs++
		case *Fence:
			st.Fences++
		}
	}
	return st
}

// Release releases the context last of all: the program cache is released,
// then any resources still alive are released with a warning, and finally
// the device itself.
func (c *Context) Release() {
	if c.released {
		return
	}
	c.programs.Release()
	if n := len(c.live); n > 0 {
		slog.Warn("gpu: releasing context with live resources", "count", n)
		for _, r := range c.liveInReverse() {
			if p, ok := r.(*Program); ok {
				p.destroy()
				continue
			}
			r.Release()
		}
	}
	c.released = true
	contexts.Lock()
	delete(contexts.m, c.device)
	contexts.Unlock()
	c.device.Release()
}

// liveInReverse returns the live resources, most recently created first,
// so dependents are released before what they depend on.
func (c *Context) liveInReverse() []resource {
	rs := make([]resource, 0, len(c.live))
	for r := range c.live {
		rs = append(rs, r)
	}
	slices.SortFunc(rs, func(a, b resource) int {
		return cmp.Compare(c.live[b], c.live[a])
	})
	return rs
}

// bindFramebuffer binds fb and returns the previous binding.
func (c *Context) bindFramebuffer(fb Handle) Handle {
	prev := c.bound.framebuffer
	if prev != fb {
		c.device.BindFramebuffer(fb)
		c.bound.framebuffer = fb
		c.stateChanges++
	}
	return prev
}

func (c *Context) useProgram(prog Handle) {
	if c.bound.program != prog {
		c.device.UseProgram(prog)
		c.bound.program = prog
		c.stateChanges++
	}
}

func (c *Context) setViewport(vp Viewport) {
	if c.bound.viewport != vp {
		c.device.SetViewport(vp)
		c.bound.viewport = vp
		c.stateChanges++
	}
}

func (c *Context) setRenderStates(rs RenderStates) {
	if !c.bound.statesSet || c.bound.states != rs {
		c.device.SetRenderStates(rs)
		c.bound.states = rs
		c.bound.statesSet = true
		c.stateChanges++
	}
}

// clear clears the bound framebuffer. Clearing is affected by the write
// mask, so it is opened up for the buffers being cleared.
func (c *Context) clear(cs ClearState) {
	if cs.IsNone() {
		return
	}
	rs := c.bound.states
	if !c.bound.statesSet {
		rs = DefaultRenderStates()
	}
	if cs.ClearColor {
		rs.Write |= WriteColor
	}
	if cs.ClearDepth {
		rs.Write |= WriteDepth
	}
	c.setRenderStates(rs)
	c.device.Clear(cs)
}

// InsertFence inserts a fence after all the commands issued so far,
// which can be polled with [Fence.Ready].
func (c *Context) InsertFence() (*Fence, error) {
	if err := c.usable(); err != nil {
		return nil, err
	}
	h, err := c.device.InsertFence()
	if err != nil {
		return nil, c.check(err)
	}
	f := &Fence{ctx: c, handle: h}
	c.track(f)
	return f, nil
}

func (c *Context) String() string {
	return fmt.Sprintf("gpu.Context(%s)", c.caps.Name)
}

// Fence is a marker in the command stream that becomes signaled
// when the device has completed all the commands before it.
type Fence struct {
	ctx    *Context
	handle Handle
}

// Ready polls the fence without blocking.
func (f *Fence) Ready() (bool, error) {
	if f.handle == 0 {
		return false, ErrReleased
	}
	ok, err := f.ctx.device.FenceSignaled(f.handle)
	return ok, f.ctx.check(err)
}

// Release releases the fence.
func (f *Fence) Release() {
	if f.handle == 0 {
		return
	}
	f.ctx.device.DeleteFence(f.handle)
	f.handle = 0
	f.ctx.untrack(f)
}
