// Copyright ©2024 The mist Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package mist lets one kernel source run under CUDA, OpenCL, WebGPU, or a
// host emulation used for debugging and portability testing.
//
// The backend package maps the kernel annotation vocabulary (RM_KERNEL,
// RM_GLOBAL, ...) onto each runtime's native syntax, selected at build time.
// This package provides the host side: a Campaign hands every invocation of
// a kernel body its global thread coordinate, the job the GPU runtime does
// in hardware, and a Context runs the invocations on a worker pool.
//
// Example usage:
//
//	ctx := mist.NewContext()
//	defer ctx.Destroy()
//
//	kernel := mist.KernelFunc(func(c *mist.Campaign, args ...interface{}) {
//	    id := c.GlobalID()
//	    out[id.X] = a[id.X].Add(b[id.X])
//	})
//
//	if _, err := ctx.Launch(kernel, mist.Grid1D(n)); err != nil {
//	    return err
//	}
//	if err := ctx.Synchronize(); err != nil {
//	    return err
//	}
//
// Kernels that use per-group shared memory (RM_LOCAL) cannot be emulated
// faithfully: invocations do not run in groups, so the host backend rejects
// that annotation.
package mist
