//go:build mist_opencl && !mist_cuda && !mist_wgsl

package backend

// Active returns the backend selected at build time.
func Active() Backend { return openclBackend }
