package backend

import (
	"fmt"

	"github.com/gogpu/naga"
)

// wgsl is the WebGPU compute backend. Unlike CUDA and OpenCL, WGSL can be
// compiled in-process, so translated kernels are checked by lowering them
// to SPIR-V with naga.
type wgsl struct {
	table
}

// Compile translates src and compiles the result to SPIR-V.
func (w *wgsl) Compile(src string) ([]byte, error) {
	out, err := w.Translate(src)
	if err != nil {
		return nil, err
	}
	spirv, err := naga.Compile(out)
	if err != nil {
		return nil, fmt.Errorf("wgsl: failed to compile kernel: %w", err)
	}
	return spirv, nil
}

// SPIRVWords packs little-endian SPIR-V bytes into 32-bit words.
func SPIRVWords(b []byte) []uint32 {
	words := make([]uint32, len(b)/4)
	for i := range words {
		words[i] = uint32(b[i*4]) |
			uint32(b[i*4+1])<<8 |
			uint32(b[i*4+2])<<16 |
			uint32(b[i*4+3])<<24
	}
	return words
}

// SPIRVMagic is the first word of every SPIR-V module.
const SPIRVMagic = 0x07230203
