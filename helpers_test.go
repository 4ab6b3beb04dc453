package mist

import (
	"testing"

	"github.com/LynnColeArt/mist/vec"
)

// BeginCampaignOrFail begins a campaign and fails the test if unsuccessful
func BeginCampaignOrFail(t testing.TB, grid Dim3, opts ...CampaignOption) *Campaign {
	t.Helper()
	c, err := BeginCampaign(grid, opts...)
	if err != nil {
		t.Fatalf("BeginCampaign(%v) failed: %v", grid, err)
	}
	return c
}

// NextCoordinateOrFail takes the next coordinate and fails the test on error
func NextCoordinateOrFail(t testing.TB, c *Campaign) vec.UVec3 {
	t.Helper()
	coord, err := c.NextCoordinate()
	if err != nil {
		t.Fatalf("NextCoordinate failed: %v", err)
	}
	return coord
}

// LaunchOrFail launches a kernel and fails the test if unsuccessful
func LaunchOrFail(t testing.TB, ctx *Context, kernel KernelFunc, grid Dim3, args ...interface{}) *Campaign {
	t.Helper()
	c, err := ctx.Launch(kernel, grid, args...)
	if err != nil {
		t.Fatalf("Kernel launch failed: %v", err)
	}
	return c
}

// SynchronizeOrFail synchronizes and fails the test if unsuccessful
func SynchronizeOrFail(t testing.TB, ctx *Context) {
	t.Helper()
	if err := ctx.Synchronize(); err != nil {
		t.Fatalf("Synchronize failed: %v", err)
	}
}

// newTestContext creates a context destroyed when the test ends
func newTestContext(t testing.TB, opts ...ContextOption) *Context {
	t.Helper()
	ctx := NewContext(opts...)
	t.Cleanup(func() {
		ctx.Destroy()
	})
	return ctx
}
