package mist

import (
	"runtime"
	"strings"

	"golang.org/x/sys/cpu"
)

// CPUFeatures tracks the instruction set extensions of the host device.
// Kernels do not depend on them; they are reported so a debugging run can
// be matched to the machine it ran on.
type CPUFeatures struct {
	HasSSE4    bool
	HasAVX     bool
	HasAVX2    bool
	HasAVX512F bool // Foundation
	HasFMA     bool
	HasASIMD   bool // arm64 Advanced SIMD
	HasSVE     bool
}

// Device represents the host device that runs emulated kernels.
type Device struct {
	ID         int         // Always 0: the host is the only emulated device
	Name       string      // Human-readable device name
	Arch       string      // GOARCH
	NumCores   int         // Number of CPU cores
	MaxThreads int         // Worker goroutines a default Context uses
	Features   CPUFeatures // Detected instruction set extensions
}

func detectCPUFeatures() CPUFeatures {
	return CPUFeatures{
		HasSSE4:    cpu.X86.HasSSE41 || cpu.X86.HasSSE42,
		HasAVX:     cpu.X86.HasAVX,
		HasAVX2:    cpu.X86.HasAVX2,
		HasAVX512F: cpu.X86.HasAVX512F,
		HasFMA:     cpu.X86.HasFMA,
		HasASIMD:   cpu.ARM64.HasASIMD,
		HasSVE:     cpu.ARM64.HasSVE,
	}
}

// List returns the names of the detected features.
func (f CPUFeatures) List() []string {
	features := []string{}

	if f.HasSSE4 {
		features = append(features, "SSE4")
	}
	if f.HasAVX {
		features = append(features, "AVX")
	}
	if f.HasAVX2 {
		features = append(features, "AVX2")
	}
	if f.HasAVX512F {
		features = append(features, "AVX512F")
	}
	if f.HasFMA {
		features = append(features, "FMA")
	}
	if f.HasASIMD {
		features = append(features, "ASIMD")
	}
	if f.HasSVE {
		features = append(features, "SVE")
	}
	return features
}

func (f CPUFeatures) String() string {
	list := f.List()
	if len(list) == 0 {
		return "scalar"
	}
	return strings.Join(list, " ")
}

func newHostDevice() *Device {
	cores := runtime.NumCPU()
	return &Device{
		ID:         0,
		Name:       "Host emulation (" + runtime.GOARCH + ")",
		Arch:       runtime.GOARCH,
		NumCores:   cores,
		MaxThreads: cores * DefaultWorkersPerCore,
		Features:   detectCPUFeatures(),
	}
}
