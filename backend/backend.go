// Package backend maps the single-source kernel vocabulary onto the native
// syntax of each execution environment.
//
// Kernel source is written with a fixed set of annotation tokens:
//
//	RM_KERNEL   kernel entry point
//	RM_DEVICE   function that runs on the compute device
//	RM_HOST     function callable from the host
//	RM_GLOBAL   data in globally visible memory
//	RM_LOCAL    data in per-group shared memory
//	RM_CONST    data in constant memory
//	RM_PRIVATE  data private to one invocation
//
// Exactly one backend is active per build, chosen by build tag:
//
//	go build -tags mist_cuda     CUDA
//	go build -tags mist_opencl   OpenCL 1.2
//	go build -tags mist_wgsl     WebGPU compute (WGSL)
//	go build                     host emulation
//
// Combining more than one of these tags leaves Active undefined, so the
// build fails rather than picking one silently.
//
// Every backend carries a qualifier table with one entry per annotation.
// The tables are checked for totality at compile time, so adding an
// annotation without a rule for every backend breaks the build.
package backend

import (
	"fmt"
	"sort"
	"strings"
)

// Annotation is one of the symbolic markers kernel source uses in place of
// backend-specific qualifiers.
type Annotation int

const (
	Kernel Annotation = iota
	Device
	Host
	Global
	Local
	Constant
	Private

	numAnnotations
)

var annotationTokens = [...]string{
	"RM_KERNEL",
	"RM_DEVICE",
	"RM_HOST",
	"RM_GLOBAL",
	"RM_LOCAL",
	"RM_CONST",
	"RM_PRIVATE",
}

var _ = [1]struct{}{}[len(annotationTokens)-int(numAnnotations)]

// Annotations returns every annotation in declaration order.
func Annotations() []Annotation {
	out := make([]Annotation, numAnnotations)
	for i := range out {
		out[i] = Annotation(i)
	}
	return out
}

// Token returns the source spelling of a.
func (a Annotation) Token() string {
	if a < 0 || a >= numAnnotations {
		return fmt.Sprintf("RM_<%d>", int(a))
	}
	return annotationTokens[a]
}

func (a Annotation) String() string {
	switch a {
	case Kernel:
		return "kernel"
	case Device:
		return "device"
	case Host:
		return "host"
	case Global:
		return "global"
	case Local:
		return "local"
	case Constant:
		return "constant"
	case Private:
		return "private"
	default:
		return "unknown"
	}
}

// ParseAnnotation returns the annotation spelled by token.
func ParseAnnotation(token string) (Annotation, bool) {
	for i, t := range annotationTokens {
		if t == token {
			return Annotation(i), true
		}
	}
	return 0, false
}

// Kind identifies an execution environment.
type Kind int

const (
	KindHost Kind = iota
	KindCUDA
	KindOpenCL
	KindWGSL
)

func (k Kind) String() string {
	switch k {
	case KindHost:
		return "host"
	case KindCUDA:
		return "cuda"
	case KindOpenCL:
		return "opencl"
	case KindWGSL:
		return "wgsl"
	default:
		return "unknown"
	}
}

// Qualifier is the native spelling of one annotation. An unsupported
// qualifier marks a capability gap: kernels using it cannot run faithfully
// on that backend.
type Qualifier struct {
	Text      string
	Supported bool
}

func q(text string) Qualifier { return Qualifier{Text: text, Supported: true} }

// gap marks an annotation the backend cannot honour.
var gap = Qualifier{}

// Backend resolves annotations for one execution environment.
type Backend interface {
	Name() string
	Kind() Kind

	// Qualifier returns the native spelling for a.
	Qualifier(a Annotation) (Qualifier, error)

	// Prelude returns source defining GlobalId and the cast helper in the
	// backend's native syntax. It is prepended by Translate.
	Prelude() string

	// Translate rewrites annotation tokens in src to native syntax.
	Translate(src string) (string, error)
}

// Compiler is implemented by backends that can compile translated source
// in-process.
type Compiler interface {
	Compile(src string) ([]byte, error)
}

// table is the shared implementation behind every backend.
type table struct {
	name       string
	kind       Kind
	qualifiers [numAnnotations]Qualifier
	prelude    string
	cast       func(typ, expr string) string
}

func (t *table) Name() string    { return t.name }
func (t *table) Kind() Kind      { return t.kind }
func (t *table) Prelude() string { return t.prelude }

func (t *table) Qualifier(a Annotation) (Qualifier, error) {
	if a < 0 || a >= numAnnotations {
		return Qualifier{}, &Error{Backend: t.name, Token: a.Token(), Err: ErrUnmappedAnnotation}
	}
	return t.qualifiers[a], nil
}

func (t *table) Translate(src string) (string, error) {
	body, err := translate(t, src)
	if err != nil {
		return "", err
	}
	if t.prelude == "" {
		return body, nil
	}
	return t.prelude + "\n" + body, nil
}

var registry = map[string]Backend{}

func register(b Backend) Backend {
	registry[b.Name()] = b
	return b
}

// Lookup returns the backend registered under name, independent of which
// backend is active in this build.
func Lookup(name string) (Backend, error) {
	b, ok := registry[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q (have %s)", ErrUnknownBackend, name, strings.Join(Names(), ", "))
	}
	return b, nil
}

// Names lists registered backend names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// All returns every registered backend sorted by name.
func All() []Backend {
	out := make([]Backend, 0, len(registry))
	for _, n := range Names() {
		out = append(out, registry[n])
	}
	return out
}
