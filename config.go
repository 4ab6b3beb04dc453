// Package mist configuration constants
package mist

import "math"

// Grid limits
const (
	// MaxAxisSize is the largest extent of one grid axis. Coordinates are
	// uint32, as on the GPU backends.
	MaxAxisSize = math.MaxUint32
)

// Dispatch parameters
const (
	// DefaultWorkersPerCore scales the worker pool to runtime.NumCPU.
	DefaultWorkersPerCore = 1

	// StreamQueueDepth is the number of launches a stream buffers before
	// Launch blocks.
	StreamQueueDepth = 1000

	// PoolQueueFactor sizes the worker pool task channel relative to the
	// worker count.
	PoolQueueFactor = 2
)
