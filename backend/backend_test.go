package backend

import (
	"errors"
	"strings"
	"testing"
)

const simpleAddKernel = `RM_KERNEL void simple_add_vec2(RM_GLOBAL vec2 *ret, RM_GLOBAL const vec2 *a, RM_GLOBAL const vec2 *b)
{
  ret[0] = a[0] + b[0];
  ret[1] = a[1] + b[1];
}
`

func TestActiveIsHostByDefault(t *testing.T) {
	// The test binary is built without backend tags.
	if got := Active().Kind(); got != KindHost {
		t.Errorf("Active().Kind() = %v, want %v", got, KindHost)
	}
}

func TestQualifierTablesAreTotal(t *testing.T) {
	for _, b := range All() {
		for _, a := range Annotations() {
			if _, err := b.Qualifier(a); err != nil {
				t.Errorf("%s: %s: %v", b.Name(), a, err)
			}
		}
		if _, err := b.Qualifier(numAnnotations); !errors.Is(err, ErrUnmappedAnnotation) {
			t.Errorf("%s: out-of-range annotation error = %v", b.Name(), err)
		}
	}
}

func TestCoreAnnotationsSupported(t *testing.T) {
	// Kernel entry, device function and global memory must work everywhere.
	core := []Annotation{Kernel, Device, Global}
	for _, b := range All() {
		for _, a := range core {
			qual, _ := b.Qualifier(a)
			if !qual.Supported {
				t.Errorf("%s does not support %s", b.Name(), a)
			}
		}
	}

	local, _ := HostBackend().Qualifier(Local)
	if local.Supported {
		t.Error("host backend must report shared memory as a capability gap")
	}
	for _, b := range []Backend{CUDA(), OpenCL(), WGSL()} {
		qual, _ := b.Qualifier(Local)
		if !qual.Supported {
			t.Errorf("%s should support shared memory", b.Name())
		}
	}
}

func TestTranslateSimpleAdd(t *testing.T) {
	tests := []struct {
		backend Backend
		want    []string
		absent  []string
	}{
		{
			backend: CUDA(),
			want: []string{
				`extern "C" __global__ void simple_add_vec2(vec2 *ret, const vec2 *a, const vec2 *b)`,
				"blockDim.x * blockIdx.x + threadIdx.x",
				"typedef int3 ivec3;",
			},
			absent: []string{"RM_"},
		},
		{
			backend: OpenCL(),
			want: []string{
				"__kernel void simple_add_vec2(__global vec2 *ret, __global const vec2 *a, __global const vec2 *b)",
				"get_global_id(0)",
				"typedef int3 ivec3;",
			},
			absent: []string{"RM_"},
		},
		{
			backend: HostBackend(),
			want:    []string{"void simple_add_vec2(vec2 *ret, const vec2 *a, const vec2 *b)"},
			absent:  []string{"RM_", "GlobalId"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.backend.Name(), func(t *testing.T) {
			out, err := tt.backend.Translate(simpleAddKernel)
			if err != nil {
				t.Fatalf("Translate: %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("output missing %q:\n%s", w, out)
				}
			}
			for _, a := range tt.absent {
				if strings.Contains(out, a) {
					t.Errorf("output still contains %q:\n%s", a, out)
				}
			}
		})
	}
}

func TestTranslateSharedMemoryOnHost(t *testing.T) {
	src := "RM_KERNEL void reduce(RM_GLOBAL float *out) {\n  RM_LOCAL float tile[64];\n}\n"

	_, err := HostBackend().Translate(src)
	if !errors.Is(err, ErrCapabilityGap) {
		t.Fatalf("err = %v, want ErrCapabilityGap", err)
	}
	var terr *Error
	if !errors.As(err, &terr) {
		t.Fatalf("err is %T, want *Error", err)
	}
	if terr.Line != 2 || terr.Token != "RM_LOCAL" || terr.Backend != "host" {
		t.Errorf("error = %+v", terr)
	}

	out, err := OpenCL().Translate(src)
	if err != nil {
		t.Fatalf("opencl Translate: %v", err)
	}
	if !strings.Contains(out, "__local float tile[64];") {
		t.Errorf("opencl output:\n%s", out)
	}
}

func TestTranslateUnmappedToken(t *testing.T) {
	src := "RM_KERNEL void k() {}\nRM_TEXTURE float t;\n"
	for _, b := range All() {
		_, err := b.Translate(src)
		if !errors.Is(err, ErrUnmappedAnnotation) {
			t.Errorf("%s: err = %v, want ErrUnmappedAnnotation", b.Name(), err)
			continue
		}
		if !strings.Contains(err.Error(), "line 2") {
			t.Errorf("%s: error %q lacks line number", b.Name(), err)
		}
	}
}

func TestTranslateSkipsCommentsAndStrings(t *testing.T) {
	src := `// RM_BOGUS in a comment
/* RM_LOCAL
   spans lines */
const char *s = "RM_LOCAL";
char c = 'R';
RM_DEVICE int f() { return 0; }
`
	out, err := HostBackend().Translate(src)
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if !strings.Contains(out, `"RM_LOCAL"`) || !strings.Contains(out, "// RM_BOGUS") {
		t.Errorf("comments or strings were rewritten:\n%s", out)
	}
	if !strings.Contains(out, "\nint f()") {
		t.Errorf("RM_DEVICE not removed:\n%s", out)
	}
}

func TestTranslateStaticCast(t *testing.T) {
	src := "float x = RM_STATIC_CAST(float, f(a, b));"
	tests := []struct {
		backend Backend
		want    string
	}{
		{CUDA(), "float x = (float)(f(a, b));"},
		{OpenCL(), "float x = (float)(f(a, b));"},
		{HostBackend(), "float x = static_cast<float>(f(a, b));"},
		{WGSL(), "float x = float(f(a, b));"},
	}
	for _, tt := range tests {
		out, err := tt.backend.Translate(src)
		if err != nil {
			t.Fatalf("%s: %v", tt.backend.Name(), err)
		}
		if !strings.HasSuffix(out, tt.want) {
			t.Errorf("%s: got %q, want suffix %q", tt.backend.Name(), out, tt.want)
		}
	}

	if _, err := HostBackend().Translate("RM_STATIC_CAST(float)"); err == nil {
		t.Error("expected error for single-argument cast")
	}
	if _, err := HostBackend().Translate("RM_STATIC_CAST(float, x"); err == nil {
		t.Error("expected error for unterminated cast")
	}
}

func TestLookup(t *testing.T) {
	for _, name := range []string{"cuda", "OpenCL", "host", "wgsl"} {
		b, err := Lookup(name)
		if err != nil {
			t.Errorf("Lookup(%q): %v", name, err)
			continue
		}
		if !strings.EqualFold(b.Name(), name) {
			t.Errorf("Lookup(%q).Name() = %q", name, b.Name())
		}
	}
	if _, err := Lookup("metal"); !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("Lookup(metal) err = %v", err)
	}
	if got := strings.Join(Names(), ","); got != "cuda,host,opencl,wgsl" {
		t.Errorf("Names() = %s", got)
	}
}

func TestAnnotationTokens(t *testing.T) {
	for _, a := range Annotations() {
		got, ok := ParseAnnotation(a.Token())
		if !ok || got != a {
			t.Errorf("ParseAnnotation(%q) = %v, %v", a.Token(), got, ok)
		}
	}
	if _, ok := ParseAnnotation("RM_NOPE"); ok {
		t.Error("ParseAnnotation accepted RM_NOPE")
	}
}
