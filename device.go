package vkcompute

// InvalidID is the zero value of every handle type. A successful create
// call never returns it.
const InvalidID = 0

// Handle identifiers minted by a Device. They are opaque and carry no
// meaning outside the device that produced them.
type (
	// ShaderModuleID identifies a compiled shader module.
	ShaderModuleID uint64
	// DescriptorSetLayoutID identifies a descriptor-set layout.
	DescriptorSetLayoutID uint64
	// PipelineLayoutID identifies a pipeline layout.
	PipelineLayoutID uint64
	// PipelineID identifies a compute pipeline.
	PipelineID uint64
	// DescriptorUpdateTemplateID identifies a descriptor-update template.
	DescriptorUpdateTemplateID uint64
)

// DeviceInfo reports the capabilities the variant selector and builder
// consult. The Supports* flags describe what the hardware can do; the
// matching OptionFlags describe what the caller wants. A variant is
// selected only when both agree.
type DeviceInfo struct {
	// Name identifies the device in logs and diagnostics.
	Name string

	// SupportsFP16Packed reports packed half-precision storage support.
	SupportsFP16Packed bool
	// SupportsFP16Storage reports half-precision buffer storage support.
	SupportsFP16Storage bool
	// SupportsFP16Arithmetic reports half-precision arithmetic support.
	SupportsFP16Arithmetic bool
	// SupportsInt8Storage reports int8 buffer storage support.
	SupportsInt8Storage bool
	// SupportsInt8Arithmetic reports int8 arithmetic support.
	SupportsInt8Arithmetic bool

	// SupportsDescriptorUpdateTemplate gates the optional final build
	// step; absence of support is not an error.
	SupportsDescriptorUpdateTemplate bool

	// BugBindingIDAlias marks a driver erratum that aliases layout
	// binding ids. When set, image-backed variants are never selected.
	BugBindingIDAlias bool
}

// Device creates and destroys the GPU resources a pipeline bundle is
// made of. backend/wgpu adapts a real hal device; NullDevice serves
// development and tests.
//
// Implementations must be safe for concurrent use: the cache builds
// unrelated pipelines concurrently. Destroy methods receive only handles
// previously returned by the matching create method.
type Device interface {
	// Info reports the device capabilities. The cache reads it once at
	// construction.
	Info() DeviceInfo

	// CreateShaderModule compiles SPIR-V words into a shader module
	// specialized to the given workgroup shape.
	CreateShaderModule(spirv []uint32, localX, localY, localZ uint32) (ShaderModuleID, error)
	// CreateDescriptorSetLayout creates a layout with one slot per
	// binding, in slot order.
	CreateDescriptorSetLayout(bindings []BindingType) (DescriptorSetLayoutID, error)
	// CreatePipelineLayout creates a pipeline layout over one descriptor
	// set and the given number of 32-bit push-constant words.
	CreatePipelineLayout(pushConstantCount int, set DescriptorSetLayoutID) (PipelineLayoutID, error)
	// CreatePipeline creates the compute pipeline, applying the
	// specialization values.
	CreatePipeline(module ShaderModuleID, layout PipelineLayoutID, specs []SpecValue) (PipelineID, error)
	// CreateDescriptorUpdateTemplate creates an update template for the
	// set layout. Called only when Info reports support.
	CreateDescriptorUpdateTemplate(bindings []BindingType, set DescriptorSetLayoutID, layout PipelineLayoutID) (DescriptorUpdateTemplateID, error)

	DestroyShaderModule(ShaderModuleID)
	DestroyDescriptorSetLayout(DescriptorSetLayoutID)
	DestroyPipelineLayout(PipelineLayoutID)
	DestroyPipeline(PipelineID)
	DestroyDescriptorUpdateTemplate(DescriptorUpdateTemplateID)
}
