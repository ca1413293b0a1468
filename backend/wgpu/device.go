// Package wgpu adapts a gogpu/wgpu HAL device to the vkcompute Device
// interface.
//
// The adapter tracks every created HAL resource in an id-keyed map, so
// the cache works with plain handles while the HAL objects stay owned
// here. The HAL carries no push constants, specialization constants, or
// descriptor update templates; the reported DeviceInfo reflects that,
// and kernels targeting this backend pass parameters through uniform
// buffers and bake constants into the WGSL.
package wgpu

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gogpu/vkcompute"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/types"
)

// computeEntryPoint is the entry point every compute module exposes.
const computeEntryPoint = "main"

// Capability-gap errors. The pipeline builder consults DeviceInfo and
// avoids these paths; they guard direct misuse.
var (
	// ErrPushConstants is returned when a pipeline layout asks for
	// push-constant words.
	ErrPushConstants = errors.New("wgpu: push constants are not supported")
	// ErrSpecialization is returned when a pipeline build carries
	// specialization values.
	ErrSpecialization = errors.New("wgpu: specialization constants are not supported")
	// ErrUpdateTemplates is returned by CreateDescriptorUpdateTemplate.
	ErrUpdateTemplates = errors.New("wgpu: descriptor update templates are not supported")
)

// Device implements vkcompute.Device on top of gogpu/wgpu/hal.
//
// Thread Safety: Device is safe for concurrent use. Resource maps are
// protected by a mutex; HAL create and destroy calls run outside it.
type Device struct {
	device hal.Device
	queue  hal.Queue
	limits types.Limits

	nextID atomic.Uint64

	mu               sync.RWMutex
	shaderModules    map[vkcompute.ShaderModuleID]hal.ShaderModule
	bindGroupLayouts map[vkcompute.DescriptorSetLayoutID]hal.BindGroupLayout
	pipelineLayouts  map[vkcompute.PipelineLayoutID]hal.PipelineLayout
	pipelines        map[vkcompute.PipelineID]hal.ComputePipeline
}

var _ vkcompute.Device = (*Device)(nil)

// NewDevice wraps a HAL device and queue. If limits is nil, default
// limits are used.
func NewDevice(device hal.Device, queue hal.Queue, limits *types.Limits) (*Device, error) {
	if device == nil {
		return nil, vkcompute.ErrNilDevice
	}

	var lim types.Limits
	if limits != nil {
		lim = *limits
	} else {
		lim = types.DefaultLimits()
	}

	d := &Device{
		device:           device,
		queue:            queue,
		limits:           lim,
		shaderModules:    make(map[vkcompute.ShaderModuleID]hal.ShaderModule),
		bindGroupLayouts: make(map[vkcompute.DescriptorSetLayoutID]hal.BindGroupLayout),
		pipelineLayouts:  make(map[vkcompute.PipelineLayoutID]hal.PipelineLayout),
		pipelines:        make(map[vkcompute.PipelineID]hal.ComputePipeline),
	}
	d.nextID.Store(1)
	return d, nil
}

// newID mints the next handle value.
func (d *Device) newID() uint64 {
	return d.nextID.Add(1) - 1
}

// Queue returns the HAL queue dispatches submit to.
func (d *Device) Queue() hal.Queue { return d.queue }

// Limits returns the wrapped device's limits.
func (d *Device) Limits() types.Limits { return d.limits }

// MaxWorkgroupSize returns the largest workgroup shape the device
// accepts.
func (d *Device) MaxWorkgroupSize() [3]uint32 {
	return [3]uint32{
		d.limits.MaxComputeWorkgroupSizeX,
		d.limits.MaxComputeWorkgroupSizeY,
		d.limits.MaxComputeWorkgroupSizeZ,
	}
}

// Info implements vkcompute.Device. Every optional capability reads
// false: WGSL kernels carry fp32 math, so variant selection stays on
// the base path, and builds never reach the template stage.
func (d *Device) Info() vkcompute.DeviceInfo {
	return vkcompute.DeviceInfo{Name: "wgpu-hal"}
}

// CreateShaderModule implements vkcompute.Device. The workgroup shape
// is fixed inside the WGSL source, so localX, localY, localZ only feed
// the debug label here.
func (d *Device) CreateShaderModule(spirv []uint32, localX, localY, localZ uint32) (vkcompute.ShaderModuleID, error) {
	if len(spirv) == 0 {
		return vkcompute.InvalidID, vkcompute.ErrEmptyBytecode
	}

	module, err := d.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  fmt.Sprintf("vkcompute-module-%dx%dx%d", localX, localY, localZ),
		Source: hal.ShaderSource{SPIRV: spirv},
	})
	if err != nil {
		return vkcompute.InvalidID, fmt.Errorf("wgpu: failed to create shader module: %w", err)
	}

	id := vkcompute.ShaderModuleID(d.newID())
	d.mu.Lock()
	d.shaderModules[id] = module
	d.mu.Unlock()
	return id, nil
}

// CreateDescriptorSetLayout implements vkcompute.Device. Binding slots
// follow the order of the signature's binding list.
func (d *Device) CreateDescriptorSetLayout(bindings []vkcompute.BindingType) (vkcompute.DescriptorSetLayoutID, error) {
	entries := make([]types.BindGroupLayoutEntry, len(bindings))
	for i, binding := range bindings {
		entry, err := bindGroupLayoutEntry(uint32(i), binding)
		if err != nil {
			return vkcompute.InvalidID, err
		}
		entries[i] = entry
	}

	layout, err := d.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   "vkcompute-set-layout",
		Entries: entries,
	})
	if err != nil {
		return vkcompute.InvalidID, fmt.Errorf("wgpu: failed to create bind group layout: %w", err)
	}

	id := vkcompute.DescriptorSetLayoutID(d.newID())
	d.mu.Lock()
	d.bindGroupLayouts[id] = layout
	d.mu.Unlock()
	return id, nil
}

// CreatePipelineLayout implements vkcompute.Device.
func (d *Device) CreatePipelineLayout(pushConstantCount int, set vkcompute.DescriptorSetLayoutID) (vkcompute.PipelineLayoutID, error) {
	if pushConstantCount > 0 {
		return vkcompute.InvalidID, fmt.Errorf("%w: shader declares %d words", ErrPushConstants, pushConstantCount)
	}

	d.mu.RLock()
	layout, ok := d.bindGroupLayouts[set]
	d.mu.RUnlock()
	if !ok {
		return vkcompute.InvalidID, fmt.Errorf("wgpu: descriptor set layout %d not found", set)
	}

	pipeLayout, err := d.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "vkcompute-pipeline-layout",
		BindGroupLayouts: []hal.BindGroupLayout{layout},
	})
	if err != nil {
		return vkcompute.InvalidID, fmt.Errorf("wgpu: failed to create pipeline layout: %w", err)
	}

	id := vkcompute.PipelineLayoutID(d.newID())
	d.mu.Lock()
	d.pipelineLayouts[id] = pipeLayout
	d.mu.Unlock()
	return id, nil
}

// CreatePipeline implements vkcompute.Device.
func (d *Device) CreatePipeline(module vkcompute.ShaderModuleID, layout vkcompute.PipelineLayoutID, specs []vkcompute.SpecValue) (vkcompute.PipelineID, error) {
	if len(specs) > 0 {
		return vkcompute.InvalidID, fmt.Errorf("%w: %d values supplied", ErrSpecialization, len(specs))
	}

	d.mu.RLock()
	halModule, moduleOK := d.shaderModules[module]
	halLayout, layoutOK := d.pipelineLayouts[layout]
	d.mu.RUnlock()
	if !moduleOK {
		return vkcompute.InvalidID, fmt.Errorf("wgpu: shader module %d not found", module)
	}
	if !layoutOK {
		return vkcompute.InvalidID, fmt.Errorf("wgpu: pipeline layout %d not found", layout)
	}

	pipeline, err := d.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label:  "vkcompute-pipeline",
		Layout: halLayout,
		Compute: hal.ComputeState{
			Module:     halModule,
			EntryPoint: computeEntryPoint,
		},
	})
	if err != nil {
		return vkcompute.InvalidID, fmt.Errorf("wgpu: failed to create compute pipeline: %w", err)
	}

	id := vkcompute.PipelineID(d.newID())
	d.mu.Lock()
	d.pipelines[id] = pipeline
	d.mu.Unlock()
	return id, nil
}

// CreateDescriptorUpdateTemplate implements vkcompute.Device. The HAL
// has no template concept; Info reports the capability off, so cached
// builds never call this.
func (d *Device) CreateDescriptorUpdateTemplate([]vkcompute.BindingType, vkcompute.DescriptorSetLayoutID, vkcompute.PipelineLayoutID) (vkcompute.DescriptorUpdateTemplateID, error) {
	return vkcompute.InvalidID, ErrUpdateTemplates
}

// DestroyShaderModule implements vkcompute.Device.
func (d *Device) DestroyShaderModule(id vkcompute.ShaderModuleID) {
	d.mu.Lock()
	module, ok := d.shaderModules[id]
	if ok {
		delete(d.shaderModules, id)
	}
	d.mu.Unlock()

	if ok {
		d.device.DestroyShaderModule(module)
	}
}

// DestroyDescriptorSetLayout implements vkcompute.Device.
func (d *Device) DestroyDescriptorSetLayout(id vkcompute.DescriptorSetLayoutID) {
	d.mu.Lock()
	layout, ok := d.bindGroupLayouts[id]
	if ok {
		delete(d.bindGroupLayouts, id)
	}
	d.mu.Unlock()

	if ok {
		d.device.DestroyBindGroupLayout(layout)
	}
}

// DestroyPipelineLayout implements vkcompute.Device.
func (d *Device) DestroyPipelineLayout(id vkcompute.PipelineLayoutID) {
	d.mu.Lock()
	layout, ok := d.pipelineLayouts[id]
	if ok {
		delete(d.pipelineLayouts, id)
	}
	d.mu.Unlock()

	if ok {
		d.device.DestroyPipelineLayout(layout)
	}
}

// DestroyPipeline implements vkcompute.Device.
func (d *Device) DestroyPipeline(id vkcompute.PipelineID) {
	d.mu.Lock()
	pipeline, ok := d.pipelines[id]
	if ok {
		delete(d.pipelines, id)
	}
	d.mu.Unlock()

	if ok {
		d.device.DestroyComputePipeline(pipeline)
	}
}

// DestroyDescriptorUpdateTemplate implements vkcompute.Device. Nothing
// to release: templates are never created on this backend.
func (d *Device) DestroyDescriptorUpdateTemplate(vkcompute.DescriptorUpdateTemplateID) {}

// bindGroupLayoutEntry converts one cache binding to a HAL layout
// entry. Storage images are RGBA8 2D read-write, the shape compute
// kernels in this module use.
func bindGroupLayoutEntry(slot uint32, binding vkcompute.BindingType) (types.BindGroupLayoutEntry, error) {
	entry := types.BindGroupLayoutEntry{
		Binding:    slot,
		Visibility: types.ShaderStageCompute,
	}

	switch binding {
	case vkcompute.BindingStorageBuffer:
		entry.Buffer = &types.BufferBindingLayout{Type: types.BufferBindingTypeStorage}
	case vkcompute.BindingReadOnlyStorageBuffer:
		entry.Buffer = &types.BufferBindingLayout{Type: types.BufferBindingTypeReadOnlyStorage}
	case vkcompute.BindingUniformBuffer:
		entry.Buffer = &types.BufferBindingLayout{Type: types.BufferBindingTypeUniform}
	case vkcompute.BindingStorageImage:
		entry.Storage = &types.StorageTextureBindingLayout{
			Access:        types.StorageTextureAccessReadWrite,
			Format:        types.TextureFormatRGBA8Unorm,
			ViewDimension: types.TextureViewDimension2D,
		}
	case vkcompute.BindingSampledImage:
		entry.Texture = &types.TextureBindingLayout{
			SampleType:    types.TextureSampleTypeFloat,
			ViewDimension: types.TextureViewDimension2D,
		}
	case vkcompute.BindingSampler:
		entry.Sampler = &types.SamplerBindingLayout{Type: types.SamplerBindingTypeFiltering}
	default:
		return entry, fmt.Errorf("wgpu: unsupported binding type %v at slot %d", binding, slot)
	}
	return entry, nil
}
