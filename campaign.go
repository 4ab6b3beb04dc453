package mist

import (
	"fmt"
	"log/slog"
	"math/bits"
	"sync/atomic"

	"github.com/LynnColeArt/mist/vec"
)

// Dim3 is the extent of a launch grid along three axes.
// This matches CUDA's dim3 and OpenCL's global work size.
type Dim3 struct {
	X, Y, Z int
}

// Grid1D returns a grid of x invocations.
func Grid1D(x int) Dim3 { return Dim3{X: x, Y: 1, Z: 1} }

// Grid2D returns an x by y grid.
func Grid2D(x, y int) Dim3 { return Dim3{X: x, Y: y, Z: 1} }

// Grid3D returns an x by y by z grid.
func Grid3D(x, y, z int) Dim3 { return Dim3{X: x, Y: y, Z: z} }

// Size returns the total number of invocations. It is only meaningful for
// a grid that passes Validate.
func (d Dim3) Size() uint64 {
	return uint64(d.X) * uint64(d.Y) * uint64(d.Z)
}

func (d Dim3) String() string {
	return fmt.Sprintf("[%d,%d,%d]", d.X, d.Y, d.Z)
}

// Validate reports a configuration error unless every axis is in
// [1, MaxAxisSize] and the volume fits in a uint64.
func (d Dim3) Validate() error {
	for _, axis := range [...]struct {
		name string
		size int
	}{{"x", d.X}, {"y", d.Y}, {"z", d.Z}} {
		if axis.size < 1 {
			return NewConfigurationError("BeginCampaign",
				fmt.Sprintf("%s size must be positive, got %d", axis.name, axis.size), d)
		}
		if uint64(axis.size) > MaxAxisSize {
			return NewConfigurationError("BeginCampaign",
				fmt.Sprintf("%s size %d exceeds %d", axis.name, axis.size, uint64(MaxAxisSize)), d)
		}
	}
	hi, xy := bits.Mul64(uint64(d.X), uint64(d.Y))
	if hi == 0 {
		hi, _ = bits.Mul64(xy, uint64(d.Z))
	}
	if hi != 0 {
		return NewConfigurationError("BeginCampaign", fmt.Sprintf("grid volume %s overflows", d), d)
	}
	return nil
}

// Campaign emulates the GPU's per-invocation global thread coordinate on
// the host. Each call to NextCoordinate takes the next id from a shared
// counter and decomposes it row-major into the campaign's grid.
//
// The zero Campaign is uninitialized: NextCoordinate fails with
// ErrInvalidState until Begin is called. A Campaign may be shared by any
// number of goroutines; only Begin must not race with NextCoordinate.
type Campaign struct {
	grid      atomic.Pointer[Dim3]
	issued    atomic.Uint64
	overflows atomic.Uint64

	strict bool
	log    *slog.Logger
}

// CampaignOption configures a Campaign.
type CampaignOption func(*Campaign)

// WithStrictOverflow makes NextCoordinate return a GridOverflow error
// together with the (0,0,0) coordinate once the grid volume is exhausted.
// Without it the overflow is only logged and counted.
func WithStrictOverflow() CampaignOption {
	return func(c *Campaign) {
		c.strict = true
	}
}

// WithCampaignLogger sends the campaign's diagnostics to l instead of the
// package logger.
func WithCampaignLogger(l *slog.Logger) CampaignOption {
	return func(c *Campaign) {
		c.log = l
	}
}

// NewCampaign returns an uninitialized campaign.
func NewCampaign(opts ...CampaignOption) *Campaign {
	c := &Campaign{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BeginCampaign returns a campaign over grid with its counter at zero.
//
// Example:
//
//	c, err := mist.BeginCampaign(mist.Grid1D(5))
//	if err != nil {
//	    return err
//	}
//	for i := 0; i < 5; i++ {
//	    kernel(c)
//	}
func BeginCampaign(grid Dim3, opts ...CampaignOption) (*Campaign, error) {
	c := NewCampaign(opts...)
	if err := c.Begin(grid); err != nil {
		return nil, err
	}
	return c, nil
}

// Begin stores grid and resets the invocation counter. If grid is invalid
// the campaign is left exactly as it was.
func (c *Campaign) Begin(grid Dim3) error {
	if err := grid.Validate(); err != nil {
		return err
	}
	c.issued.Store(0)
	c.overflows.Store(0)
	c.grid.Store(&grid)
	c.logger().Debug("mist: campaign begun", "grid", grid.String())
	return nil
}

// NextCoordinate claims the next invocation id and returns its coordinate.
//
// Ids past the grid volume decompose to a z outside the grid. Such a call
// returns (0,0,0), increments Overflows and logs a warning; with
// WithStrictOverflow it also returns a GridOverflow error.
//
// The package logger discards everything until SetLogger is called, so with
// default settings an overflow is visible only through Overflows. Check it
// after a launch, install a logger, or use WithStrictOverflow.
func (c *Campaign) NextCoordinate() (vec.UVec3, error) {
	g := c.grid.Load()
	if g == nil {
		return vec.UVec3{}, ErrInvalidState
	}

	id := c.issued.Add(1) - 1
	sx, sy, sz := uint64(g.X), uint64(g.Y), uint64(g.Z)
	x := id % sx
	y := (id / sx) % sy
	z := (id / sx) / sy

	if z >= sz {
		c.overflows.Add(1)
		c.logger().Warn("mist: global id overflow",
			"id", id,
			"coord", fmt.Sprintf("[%d,%d,%d]", x, y, z),
			"grid", g.String())
		if c.strict {
			return vec.UVec3{}, NewGridOverflowError("NextCoordinate",
				fmt.Sprintf("id %d over grid %s", id, g), id)
		}
		return vec.UVec3{}, nil
	}
	return vec.UVec3{X: uint32(x), Y: uint32(y), Z: uint32(z)}, nil
}

// GlobalID is the kernel-body form of NextCoordinate, standing in for the
// native GlobalId of the GPU backends. It panics if the campaign has not
// begun, and on overflow when the campaign is strict; Launch recovers the
// panic and reports it from Synchronize.
func (c *Campaign) GlobalID() vec.UVec3 {
	id, err := c.NextCoordinate()
	if err != nil {
		c.logger().Error("mist: GlobalID failed", "err", err)
		panic(err)
	}
	return id
}

// Grid returns the configured grid and whether the campaign has begun.
func (c *Campaign) Grid() (Dim3, bool) {
	g := c.grid.Load()
	if g == nil {
		return Dim3{}, false
	}
	return *g, true
}

// Active reports whether Begin has succeeded at least once.
func (c *Campaign) Active() bool {
	return c.grid.Load() != nil
}

// Issued returns how many ids have been handed out, overflowing ones
// included.
func (c *Campaign) Issued() uint64 {
	return c.issued.Load()
}

// Overflows returns how many calls fell outside the grid.
func (c *Campaign) Overflows() uint64 {
	return c.overflows.Load()
}

// Remaining returns how many in-grid ids are left.
func (c *Campaign) Remaining() uint64 {
	g := c.grid.Load()
	if g == nil {
		return 0
	}
	issued, size := c.issued.Load(), g.Size()
	if issued >= size {
		return 0
	}
	return size - issued
}

func (c *Campaign) logger() *slog.Logger {
	if c.log != nil {
		return c.log
	}
	return Logger()
}
