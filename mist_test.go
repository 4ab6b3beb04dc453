package mist

import (
	"errors"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/LynnColeArt/mist/backend"
	"github.com/LynnColeArt/mist/vec"
)

// simpleAddVec2 is the host form of the simple_add_vec2 kernel.
var simpleAddVec2 = KernelFunc(func(c *Campaign, args ...interface{}) {
	ret := args[0].([]vec.Vec2)
	a := args[1].([]vec.Vec2)
	b := args[2].([]vec.Vec2)
	id := c.GlobalID()
	ret[id.X] = a[id.X].Add(b[id.X])
})

func TestLaunchVectorAdd(t *testing.T) {
	const N = 10000
	r := rand.New(rand.NewSource(42))

	a := make([]vec.Vec2, N)
	b := make([]vec.Vec2, N)
	ret := make([]vec.Vec2, N)
	for i := range a {
		a[i] = vec.MakeVec2(r.Float32(), r.Float32())
		b[i] = vec.MakeVec2(r.Float32(), r.Float32())
	}

	ctx := newTestContext(t)
	c := LaunchOrFail(t, ctx, simpleAddVec2, Grid1D(N), ret, a, b)
	SynchronizeOrFail(t, ctx)

	for i := range ret {
		if want := a[i].Add(b[i]); ret[i] != want {
			t.Fatalf("ret[%d] = %v, want %v", i, ret[i], want)
		}
	}
	if c.Issued() != N || c.Overflows() != 0 {
		t.Errorf("Issued() = %d, Overflows() = %d", c.Issued(), c.Overflows())
	}
}

// Every grid cell is visited exactly once whatever the worker count
func TestLaunchCoversGrid(t *testing.T) {
	grid := Grid3D(7, 5, 3)
	for _, workers := range []int{1, 2, 3, 16, 200} {
		ctx := newTestContext(t, WithWorkers(workers))

		var mu sync.Mutex
		visits := make(map[vec.UVec3]int)
		kernel := KernelFunc(func(c *Campaign, _ ...interface{}) {
			id := c.GlobalID()
			mu.Lock()
			visits[id]++
			mu.Unlock()
		})

		if _, err := ctx.Run(kernel, grid); err != nil {
			t.Fatalf("workers=%d: Run: %v", workers, err)
		}
		if uint64(len(visits)) != grid.Size() {
			t.Fatalf("workers=%d: %d cells visited, want %d", workers, len(visits), grid.Size())
		}
		for coord, n := range visits {
			if n != 1 {
				t.Errorf("workers=%d: %v visited %d times", workers, coord, n)
			}
			if int(coord.X) >= grid.X || int(coord.Y) >= grid.Y || int(coord.Z) >= grid.Z {
				t.Errorf("workers=%d: %v outside grid", workers, coord)
			}
		}
	}
}

// A single worker reproduces the sequential row-major order
func TestSingleWorkerOrder(t *testing.T) {
	ctx := newTestContext(t, WithWorkers(1))
	var order []vec.UVec3
	kernel := KernelFunc(func(c *Campaign, _ ...interface{}) {
		order = append(order, c.GlobalID())
	})
	if _, err := ctx.Run(kernel, Grid2D(3, 2)); err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []vec.UVec3{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}, {0, 1, 0}, {1, 1, 0}, {2, 1, 0}}
	if len(order) != len(want) {
		t.Fatalf("got %d invocations, want %d", len(order), len(want))
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("invocation %d = %v, want %v", i, order[i], want[i])
		}
	}
}

func TestLaunchInvalidGridFailsFast(t *testing.T) {
	ctx := newTestContext(t)
	var calls atomic.Int32
	kernel := KernelFunc(func(c *Campaign, _ ...interface{}) { calls.Add(1) })

	c, err := ctx.Launch(kernel, Dim3{X: 4})
	if !IsConfigurationError(err) {
		t.Fatalf("err = %v, want configuration error", err)
	}
	if c != nil {
		t.Error("expected nil campaign")
	}
	SynchronizeOrFail(t, ctx)
	if calls.Load() != 0 {
		t.Errorf("kernel ran %d times", calls.Load())
	}
}

func TestLaunchKernelPanic(t *testing.T) {
	ctx := newTestContext(t, WithWorkers(4))
	kernel := KernelFunc(func(c *Campaign, _ ...interface{}) {
		if id := c.GlobalID(); id.X == 13 {
			panic("boom")
		}
	})

	if _, err := ctx.Launch(kernel, Grid1D(64)); err != nil {
		t.Fatalf("Launch: %v", err)
	}
	err := ctx.Synchronize()
	if !IsExecutionError(err) {
		t.Fatalf("Synchronize err = %v, want execution error", err)
	}

	// The error is reported once.
	if err := ctx.Synchronize(); err != nil {
		t.Errorf("second Synchronize = %v", err)
	}
}

// A kernel that asks for its coordinate twice overruns the grid
func TestLaunchStrictOverflow(t *testing.T) {
	kernel := KernelFunc(func(c *Campaign, _ ...interface{}) {
		c.GlobalID()
		c.GlobalID()
	})

	lenient := newTestContext(t, WithWorkers(2))
	c, err := lenient.Run(kernel, Grid1D(8))
	if err != nil {
		t.Fatalf("lenient Run: %v", err)
	}
	if c.Overflows() != 8 {
		t.Errorf("Overflows() = %d, want 8", c.Overflows())
	}

	strict := newTestContext(t, WithWorkers(2), WithStrictLaunches())
	_, err = strict.Run(kernel, Grid1D(8))
	if !IsExecutionError(err) {
		t.Fatalf("strict Run err = %v, want execution error", err)
	}
	if !errors.Is(err, ErrGridOverflow) {
		t.Errorf("strict Run err = %v, want wrapped GridOverflow", err)
	}
}

func TestLaunchOnGPUBackendNotSupported(t *testing.T) {
	for _, b := range []backend.Backend{backend.CUDA(), backend.OpenCL(), backend.WGSL()} {
		ctx := newTestContext(t, WithBackend(b))
		_, err := ctx.Launch(simpleAddVec2, Grid1D(1))
		if !IsNotImplementedError(err) {
			t.Errorf("%s: err = %v, want not implemented", b.Name(), err)
		}
	}
}

func TestStreamsRunIndependently(t *testing.T) {
	ctx := newTestContext(t, WithWorkers(4))
	s1 := ctx.CreateStream()
	s2 := ctx.CreateStream()
	if s1.ID() == s2.ID() {
		t.Fatal("streams share an id")
	}

	var n1, n2 atomic.Int64
	k1 := KernelFunc(func(c *Campaign, _ ...interface{}) { c.GlobalID(); n1.Add(1) })
	k2 := KernelFunc(func(c *Campaign, _ ...interface{}) { c.GlobalID(); n2.Add(1) })

	for i := 0; i < 5; i++ {
		if _, err := ctx.LaunchStream(k1, Grid1D(100), s1); err != nil {
			t.Fatal(err)
		}
		if _, err := ctx.LaunchStream(k2, Grid2D(10, 3), s2); err != nil {
			t.Fatal(err)
		}
	}
	SynchronizeOrFail(t, ctx)

	if n1.Load() != 500 || n2.Load() != 150 {
		t.Errorf("invocations = %d, %d; want 500, 150", n1.Load(), n2.Load())
	}
}

func TestForEachAndMap(t *testing.T) {
	const N = 1000
	hits := make([]int32, N)
	if err := ForEach(N, func(i int) { atomic.AddInt32(&hits[i], 1) }); err != nil {
		t.Fatalf("ForEach: %v", err)
	}
	for i, h := range hits {
		if h != 1 {
			t.Fatalf("index %d visited %d times", i, h)
		}
	}

	if err := ForEach(0, func(int) { t.Error("called for empty range") }); err != nil {
		t.Errorf("ForEach(0): %v", err)
	}

	in := make([]float32, N)
	out := make([]float32, N)
	for i := range in {
		in[i] = float32(i)
	}
	if err := Map(in, out, func(x float32) float32 { return 2 * x }); err != nil {
		t.Fatalf("Map: %v", err)
	}
	for i := range out {
		if out[i] != 2*in[i] {
			t.Fatalf("out[%d] = %v", i, out[i])
		}
	}
	if err := Map(in, out[:10], func(x float32) float32 { return x }); !IsConfigurationError(err) {
		t.Errorf("Map with short output err = %v", err)
	}
}

func TestPackageLevelRun(t *testing.T) {
	var n atomic.Int64
	c, err := Run(KernelFunc(func(c *Campaign, _ ...interface{}) {
		c.GlobalID()
		n.Add(1)
	}), Grid3D(2, 2, 2))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if n.Load() != 8 || c.Remaining() != 0 {
		t.Errorf("invocations = %d, remaining = %d", n.Load(), c.Remaining())
	}
}

func TestContextDefaults(t *testing.T) {
	ctx := newTestContext(t)
	if ctx.Backend().Kind() != backend.KindHost {
		t.Errorf("Backend() = %s, want host", ctx.Backend().Name())
	}
	if ctx.Workers() != GetDevice().MaxThreads {
		t.Errorf("Workers() = %d, want %d", ctx.Workers(), GetDevice().MaxThreads)
	}
	if ctx.Device() == nil {
		t.Error("Device() = nil")
	}
}

func TestWorkerPool(t *testing.T) {
	pool := NewWorkerPool(3)
	var n atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		pool.Submit(func() {
			defer wg.Done()
			n.Add(1)
		})
	}
	wg.Wait()
	pool.Close()
	if n.Load() != 100 {
		t.Errorf("ran %d tasks, want 100", n.Load())
	}
}

func TestLaunchAfterDestroy(t *testing.T) {
	ctx := NewContext(WithWorkers(2))
	if err := ctx.Destroy(); err != nil {
		t.Fatalf("Destroy: %v", err)
	}

	var calls atomic.Int32
	kernel := KernelFunc(func(c *Campaign, _ ...interface{}) { calls.Add(1) })
	c, err := ctx.Launch(kernel, Grid1D(4))
	if !IsInvalidStateError(err) {
		t.Fatalf("Launch after Destroy err = %v, want invalid state", err)
	}
	if !errors.Is(err, ErrContextDestroyed) {
		t.Errorf("errors.Is(err, ErrContextDestroyed) = false")
	}
	if c != nil {
		t.Error("expected nil campaign")
	}
	if _, err := ctx.Run(kernel, Grid1D(4)); !IsInvalidStateError(err) {
		t.Errorf("Run after Destroy err = %v", err)
	}
	if err := ctx.ForEach(3, func(int) { calls.Add(1) }); !IsInvalidStateError(err) {
		t.Errorf("ForEach after Destroy err = %v", err)
	}
	if calls.Load() != 0 {
		t.Errorf("kernel ran %d times", calls.Load())
	}
	// A second Destroy is harmless.
	if err := ctx.Destroy(); err != nil {
		t.Errorf("second Destroy: %v", err)
	}
}
