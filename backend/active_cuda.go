//go:build mist_cuda && !mist_opencl && !mist_wgsl

package backend

// Active returns the backend selected at build time.
func Active() Backend { return cudaBackend }
