package mist

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/LynnColeArt/mist/backend"
)

// Context represents an execution context for emulated launches.
// It owns the worker pool that runs kernel bodies and the streams that
// order launches. A Context should be destroyed when no longer needed.
type Context struct {
	device  *Device
	backend backend.Backend
	workers int
	strict  bool
	log     *slog.Logger

	pool *WorkerPool

	mu            sync.Mutex
	streams       map[int]*Stream
	streamID      int32
	defaultStream *Stream
	destroyed     bool
}

// Stream represents an ordered sequence of launches that execute
// asynchronously. Launches within a stream execute in order, but launches
// in different streams may execute concurrently.
type Stream struct {
	id    int
	tasks chan func() error
	done  chan struct{}
	wg    sync.WaitGroup

	mu  sync.Mutex
	err error
}

// Kernel represents a compute kernel. Execute is called once per
// invocation, concurrently from several goroutines, and learns which
// thread it is from the campaign.
type Kernel interface {
	Execute(c *Campaign, args ...interface{})
}

// KernelFunc is a function that can be launched as a kernel.
type KernelFunc func(c *Campaign, args ...interface{})

// Execute implements Kernel.
func (fn KernelFunc) Execute(c *Campaign, args ...interface{}) {
	fn(c, args...)
}

// ContextOption configures a Context during creation.
type ContextOption func(*Context)

// WithWorkers sets the number of worker goroutines. One worker reproduces
// a plain sequential loop over the grid.
func WithWorkers(n int) ContextOption {
	return func(ctx *Context) {
		ctx.workers = n
	}
}

// WithBackend overrides the build-time active backend.
func WithBackend(b backend.Backend) ContextOption {
	return func(ctx *Context) {
		ctx.backend = b
	}
}

// WithLogger sets the logger for the context and the campaigns it begins.
func WithLogger(l *slog.Logger) ContextOption {
	return func(ctx *Context) {
		ctx.log = l
	}
}

// WithStrictLaunches makes every campaign begun by the context strict; see
// WithStrictOverflow.
func WithStrictLaunches() ContextOption {
	return func(ctx *Context) {
		ctx.strict = true
	}
}

// Global runtime state
var (
	defaultDevice  *Device
	defaultContext *Context
	initOnce       sync.Once
)

func init() {
	initOnce.Do(func() {
		defaultDevice = newHostDevice()
		defaultContext = NewContext()
	})
}

// NewContext creates a context bound to the active backend.
func NewContext(opts ...ContextOption) *Context {
	ctx := &Context{
		device:  defaultDevice,
		backend: backend.Active(),
		streams: make(map[int]*Stream),
	}
	if ctx.device == nil {
		ctx.device = newHostDevice()
	}
	for _, opt := range opts {
		opt(ctx)
	}
	if ctx.workers <= 0 {
		ctx.workers = ctx.device.MaxThreads
	}
	ctx.pool = NewWorkerPool(ctx.workers)
	ctx.defaultStream = ctx.CreateStream()
	return ctx
}

// Launch runs a kernel over grid on the default stream.
//
// The campaign is begun before Launch returns, so an invalid grid fails
// immediately. Kernel failures are reported by Synchronize.
//
// Example:
//
//	c, err := mist.Launch(kernel, mist.Grid2D(width, height), img)
func Launch(kernel Kernel, grid Dim3, args ...interface{}) (*Campaign, error) {
	return defaultContext.Launch(kernel, grid, args...)
}

// LaunchFunc launches a kernel function on the default stream.
func LaunchFunc(fn KernelFunc, grid Dim3, args ...interface{}) (*Campaign, error) {
	return defaultContext.LaunchFunc(fn, grid, args...)
}

// Run launches a kernel and waits for it to finish.
func Run(kernel Kernel, grid Dim3, args ...interface{}) (*Campaign, error) {
	return defaultContext.Run(kernel, grid, args...)
}

// Synchronize waits for all launches on all streams of the default
// context and returns the first kernel error.
func Synchronize() error {
	return defaultContext.Synchronize()
}

// GetDevice returns the host device description.
func GetDevice() *Device {
	return defaultDevice
}

// SetDevice sets the active device. Only device 0 exists.
func SetDevice(id int) error {
	if id != 0 {
		return ErrInvalidDevice
	}
	return nil
}

// GetDeviceCount returns the number of emulated devices, always 1.
func GetDeviceCount() int {
	return 1
}

// Context methods

// Device returns the device the context runs on.
func (ctx *Context) Device() *Device {
	return ctx.device
}

// Backend returns the backend the context was created for.
func (ctx *Context) Backend() backend.Backend {
	return ctx.backend
}

// Workers returns the size of the context's worker pool.
func (ctx *Context) Workers() int {
	return ctx.workers
}

// CreateStream creates a new execution stream
func (ctx *Context) CreateStream() *Stream {
	id := int(atomic.AddInt32(&ctx.streamID, 1))
	stream := &Stream{
		id:    id,
		tasks: make(chan func() error, StreamQueueDepth),
		done:  make(chan struct{}),
	}

	go stream.worker()

	ctx.mu.Lock()
	ctx.streams[id] = stream
	ctx.mu.Unlock()
	return stream
}

// Launch runs a kernel on the default stream
func (ctx *Context) Launch(kernel Kernel, grid Dim3, args ...interface{}) (*Campaign, error) {
	return ctx.LaunchStream(kernel, grid, ctx.defaultStream, args...)
}

// LaunchFunc runs a kernel function on the default stream
func (ctx *Context) LaunchFunc(fn KernelFunc, grid Dim3, args ...interface{}) (*Campaign, error) {
	return ctx.LaunchStream(fn, grid, ctx.defaultStream, args...)
}

// LaunchStream runs a kernel on a specific stream
func (ctx *Context) LaunchStream(kernel Kernel, grid Dim3, stream *Stream, args ...interface{}) (*Campaign, error) {
	return ctx.launchInternal(kernel.Execute, grid, stream, args...)
}

// Run launches on the default stream and waits for that stream.
func (ctx *Context) Run(kernel Kernel, grid Dim3, args ...interface{}) (*Campaign, error) {
	c, err := ctx.Launch(kernel, grid, args...)
	if err != nil {
		return nil, err
	}
	return c, ctx.defaultStream.Synchronize()
}

// Synchronize waits for all streams to complete and returns the first
// kernel error any of them recorded.
func (ctx *Context) Synchronize() error {
	ctx.mu.Lock()
	streams := make([]*Stream, 0, len(ctx.streams))
	for _, s := range ctx.streams {
		streams = append(streams, s)
	}
	ctx.mu.Unlock()

	var first error
	for _, s := range streams {
		if err := s.Synchronize(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Destroy waits for outstanding work and stops the context's goroutines.
// The context must not be used afterwards.
func (ctx *Context) Destroy() error {
	err := ctx.Synchronize()

	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	if ctx.destroyed {
		return err
	}
	ctx.destroyed = true
	for _, s := range ctx.streams {
		close(s.tasks)
		<-s.done
	}
	ctx.pool.Close()
	return err
}

func (ctx *Context) logger() *slog.Logger {
	if ctx.log != nil {
		return ctx.log
	}
	return Logger()
}

// Stream methods

// ID returns the stream's identifier within its context.
func (s *Stream) ID() int {
	return s.id
}

// worker processes tasks for a stream
func (s *Stream) worker() {
	for task := range s.tasks {
		if err := task(); err != nil {
			s.mu.Lock()
			if s.err == nil {
				s.err = err
			}
			s.mu.Unlock()
		}
		s.wg.Done()
	}
	close(s.done)
}

// Synchronize waits for all tasks in the stream to complete and returns,
// then clears, the first error recorded since the last Synchronize.
func (s *Stream) Synchronize() error {
	s.wg.Wait()
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.err
	s.err = nil
	return err
}

// Submit adds a task to the stream
func (s *Stream) Submit(task func() error) {
	s.wg.Add(1)
	s.tasks <- task
}

func (s *Stream) String() string {
	return fmt.Sprintf("stream %d", s.id)
}
