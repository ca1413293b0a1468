// Package shader maps kernel ids to compute shader sources.
//
// A Registry holds one Entry per concrete kernel id: either precompiled
// SPIR-V words or WGSL source compiled on demand through naga. Compiled
// WGSL is memoized in a bounded LRU, so repeated pipeline builds of the
// same kernel do not recompile. Registry implements
// [vkcompute.ShaderProvider], and [vkcompute.SignatureProvider] for
// entries that declare their signature up front.
//
// Kernel families with runtime variants register every concrete id the
// variant table can resolve to: base id plus variant offset.
package shader

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/gogpu/naga"
	"github.com/gogpu/vkcompute"
	lru "github.com/hashicorp/golang-lru/v2"
)

// ErrUnknownKernel is returned by Bytecode for ids never registered.
var ErrUnknownKernel = errors.New("shader: unknown kernel")

// defaultMemoSize bounds the compiled-WGSL memo.
const defaultMemoSize = 64

// Entry is one registered kernel source.
type Entry struct {
	// Name identifies the kernel in logs and tooling. Variants of one
	// family may share a name.
	Name string
	// WGSL is compute shader source compiled through naga on first use.
	// Ignored when SPIRV is set.
	WGSL string
	// SPIRV is precompiled bytecode, served as-is.
	SPIRV []uint32
	// Signature optionally declares the dispatch interface, skipping
	// bytecode reflection at pipeline build time.
	Signature *vkcompute.ShaderSignature
}

// Registry is a concurrency-safe kernel source table.
//
// Thread Safety: all methods are safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[vkcompute.KernelID]Entry
	memo    *lru.Cache[vkcompute.KernelID, []uint32]
}

var (
	_ vkcompute.ShaderProvider    = (*Registry)(nil)
	_ vkcompute.SignatureProvider = (*Registry)(nil)
)

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	// lru.New only fails for non-positive sizes.
	memo, _ := lru.New[vkcompute.KernelID, []uint32](defaultMemoSize)
	return &Registry{
		entries: make(map[vkcompute.KernelID]Entry),
		memo:    memo,
	}
}

// Register adds a kernel source. The id must be non-negative and not
// yet registered, and the entry must carry WGSL source or SPIR-V words.
func (r *Registry) Register(id vkcompute.KernelID, e Entry) error {
	if id < 0 {
		return fmt.Errorf("shader: negative kernel id %d", id)
	}
	if e.WGSL == "" && len(e.SPIRV) == 0 {
		return fmt.Errorf("shader: kernel %d (%s) has neither WGSL nor SPIR-V", id, e.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.entries[id]; ok {
		return fmt.Errorf("shader: kernel id %d already registered as %q", id, prev.Name)
	}
	r.entries[id] = e
	return nil
}

// MustRegister is Register that panics on error. Intended for kernel
// tables built at init time.
func (r *Registry) MustRegister(id vkcompute.KernelID, e Entry) {
	if err := r.Register(id, e); err != nil {
		panic(err)
	}
}

// Lookup returns the entry registered for id.
func (r *Registry) Lookup(id vkcompute.KernelID) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	return e, ok
}

// Count returns the number of registered kernels.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Names returns the distinct kernel names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	seen := make(map[string]bool, len(r.entries))
	for _, e := range r.entries {
		seen[e.Name] = true
	}
	r.mu.RUnlock()

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Bytecode implements [vkcompute.ShaderProvider]. Precompiled entries
// are served directly; WGSL entries compile through naga on first use
// and hit the memo afterwards. Callers must not mutate the returned
// words.
func (r *Registry) Bytecode(kernel vkcompute.KernelID) ([]uint32, error) {
	r.mu.RLock()
	e, ok := r.entries[kernel]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: id %d", ErrUnknownKernel, kernel)
	}
	if len(e.SPIRV) > 0 {
		return e.SPIRV, nil
	}

	if words, ok := r.memo.Get(kernel); ok {
		return words, nil
	}

	start := time.Now()
	spv, err := naga.Compile(e.WGSL)
	if err != nil {
		return nil, fmt.Errorf("shader: failed to compile kernel %d (%s): %w", kernel, e.Name, err)
	}
	words, err := spirvWords(spv)
	if err != nil {
		return nil, fmt.Errorf("shader: kernel %d (%s): %w", kernel, e.Name, err)
	}
	r.memo.Add(kernel, words)
	vkcompute.Logger().Debug("compiled WGSL kernel",
		"kernel", kernel,
		"name", e.Name,
		"words", len(words),
		"elapsed", time.Since(start))
	return words, nil
}

// Signature implements [vkcompute.SignatureProvider]. It reports the
// declared signature when the entry carries one; otherwise the pipeline
// cache falls back to bytecode reflection.
func (r *Registry) Signature(kernel vkcompute.KernelID) (vkcompute.ShaderSignature, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[kernel]
	if !ok || e.Signature == nil {
		return vkcompute.ShaderSignature{}, false
	}
	return *e.Signature, true
}

// spirvWords reinterprets compiled SPIR-V bytes as little-endian words.
func spirvWords(b []byte) ([]uint32, error) {
	if len(b) == 0 {
		return nil, errors.New("compiler produced no output")
	}
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("compiled SPIR-V is %d bytes, not word aligned", len(b))
	}
	words := make([]uint32, len(b)/4)
	for i := range words {
		words[i] = uint32(b[i*4]) | uint32(b[i*4+1])<<8 | uint32(b[i*4+2])<<16 | uint32(b[i*4+3])<<24
	}
	return words, nil
}
