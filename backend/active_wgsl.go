//go:build mist_wgsl && !mist_cuda && !mist_opencl

package backend

// Active returns the backend selected at build time.
func Active() Backend { return wgslBackend }
