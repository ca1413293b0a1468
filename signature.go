package vkcompute

// BindingType identifies the kind of resource a kernel binds in one
// descriptor slot.
type BindingType int

const (
	// BindingStorageBuffer is a read-write storage buffer.
	BindingStorageBuffer BindingType = iota + 1
	// BindingReadOnlyStorageBuffer is a storage buffer the kernel only reads.
	BindingReadOnlyStorageBuffer
	// BindingUniformBuffer is a uniform buffer.
	BindingUniformBuffer
	// BindingStorageImage is a read-write storage image.
	BindingStorageImage
	// BindingSampledImage is a sampled image.
	BindingSampledImage
	// BindingSampler is a sampler.
	BindingSampler
)

// String returns the binding type name.
func (b BindingType) String() string {
	switch b {
	case BindingStorageBuffer:
		return "storage-buffer"
	case BindingReadOnlyStorageBuffer:
		return "readonly-storage-buffer"
	case BindingUniformBuffer:
		return "uniform-buffer"
	case BindingStorageImage:
		return "storage-image"
	case BindingSampledImage:
		return "sampled-image"
	case BindingSampler:
		return "sampler"
	default:
		return "unknown"
	}
}

// ShaderSignature describes the dispatch interface of one compiled
// shader: what it binds, how many push-constant words it reads, and how
// many specialization constants it declares. Signatures are produced by
// reflection (spirv.Reflect) or registered alongside precompiled
// bytecode; once inside a cached bundle they are never mutated.
type ShaderSignature struct {
	// Bindings lists the resource kind at each descriptor slot, ordered
	// by binding index starting at 0.
	Bindings []BindingType

	// PushConstantCount is the number of 32-bit push-constant words the
	// shader declares.
	PushConstantCount int

	// SpecializationCount is the number of distinct specialization
	// constants the shader declares. GetOrCreate must receive exactly
	// this many SpecValues.
	SpecializationCount int
}

// BindingCount returns the number of descriptor slots.
func (s ShaderSignature) BindingCount() int { return len(s.Bindings) }

// clone returns a deep copy. Cached bundles keep their own copy so a
// caller mutating a resolved signature cannot corrupt the cache.
func (s ShaderSignature) clone() ShaderSignature {
	out := s
	if s.Bindings != nil {
		out.Bindings = append([]BindingType(nil), s.Bindings...)
	}
	return out
}
