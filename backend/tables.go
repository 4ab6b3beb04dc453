package backend

// The qualifier tables below are positional, in Annotation order, and
// written with [...] so their length is the number of entries. Assigning
// one to a [numAnnotations]Qualifier field fails to compile unless every
// annotation has exactly one rule.

var cudaBackend = register(&table{
	name: "cuda",
	kind: KindCUDA,
	qualifiers: [...]Qualifier{
		q(`extern "C" __global__`), // Kernel
		q("__device__"),            // Device
		q("__host__"),              // Host
		q(""),                      // Global
		q("__shared__"),            // Local
		q("__constant__"),          // Constant
		q(""),                      // Private
	},
	prelude: cudaPrelude,
	cast:    cCast,
})

var openclBackend = register(&table{
	name: "opencl",
	kind: KindOpenCL,
	qualifiers: [...]Qualifier{
		q("__kernel"), // Kernel
		q(""),         // Device
		// OpenCL C has no host-callable functions.
		gap,             // Host
		q("__global"),   // Global
		q("__local"),    // Local
		q("__constant"), // Constant
		q("__private"),  // Private
	},
	prelude: openclPrelude,
	cast:    cCast,
})

var hostBackend = register(&table{
	name: "host",
	kind: KindHost,
	qualifiers: [...]Qualifier{
		q(""), // Kernel
		q(""), // Device
		q(""), // Host
		q(""), // Global
		// There is no per-group memory when invocations run one at a time.
		gap,        // Local
		q("const"), // Constant
		q(""),      // Private
	},
	cast: cppCast,
})

var wgslBackend = register(&wgsl{table{
	name: "wgsl",
	kind: KindWGSL,
	qualifiers: [...]Qualifier{
		q("@compute @workgroup_size(64, 1, 1)"), // Kernel
		q(""),                                   // Device
		gap,                                     // Host
		q("var<storage, read_write>"),           // Global
		q("var<workgroup>"),                     // Local
		q("var<uniform>"),                       // Constant
		q("var<private>"),                       // Private
	},
	prelude: wgslPrelude,
	cast:    ctorCast,
}})

// HostBackend returns the host emulation backend.
func HostBackend() Backend { return hostBackend }

// CUDA returns the CUDA backend.
func CUDA() Backend { return cudaBackend }

// OpenCL returns the OpenCL backend.
func OpenCL() Backend { return openclBackend }

// WGSL returns the WebGPU compute backend.
func WGSL() Backend { return wgslBackend }

const cudaPrelude = `typedef float2 vec2;
typedef float3 vec3;
typedef float4 vec4;
typedef uint2 uvec2;
typedef uint3 uvec3;
typedef uint4 uvec4;
typedef int2 ivec2;
typedef int3 ivec3;
typedef int4 ivec4;

__device__ static inline uvec3 GlobalId() {
  return make_uint3(blockDim.x * blockIdx.x + threadIdx.x,
                    blockDim.y * blockIdx.y + threadIdx.y,
                    blockDim.z * blockIdx.z + threadIdx.z);
}

__device__ static inline vec2 make_vec2(float a, float b) { return make_float2(a, b); }
__device__ static inline vec3 make_vec3(float a, float b, float c) { return make_float3(a, b, c); }
__device__ static inline vec4 make_vec4(float a, float b, float c, float d) { return make_float4(a, b, c, d); }
`

const openclPrelude = `typedef float2 vec2;
typedef float3 vec3;
typedef float4 vec4;
typedef uint2 uvec2;
typedef uint3 uvec3;
typedef uint4 uvec4;
typedef int2 ivec2;
typedef int3 ivec3;
typedef int4 ivec4;

static inline uvec3 GlobalId() {
  return (uvec3)(get_global_id(0), get_global_id(1), get_global_id(2));
}

static inline vec2 make_vec2(float a, float b) { return (vec2)(a, b); }
static inline vec3 make_vec3(float a, float b, float c) { return (vec3)(a, b, c); }
static inline vec4 make_vec4(float a, float b, float c, float d) { return (vec4)(a, b, c, d); }
`

// WGSL has no free function for the invocation id. The entry point takes it
// as a builtin parameter, and vecN<T> types are used directly.
const wgslPrelude = `// GlobalId: declare @builtin(global_invocation_id) id: vec3<u32> on the entry point.
// vec2/vec3/vec4 are vec2<f32>/vec3<f32>/vec4<f32>; uvecN and ivecN are vecN<u32> and vecN<i32>.
`
