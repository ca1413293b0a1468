package vkcompute

import "sync/atomic"

// NullDevice implements Device without touching a GPU. Handles are
// monotonically increasing integers and create calls never fail on valid
// input, so the whole cache protocol is exercisable offline: demos, CLI
// dry runs, and tests.
//
// Thread Safety: NullDevice is safe for concurrent use.
type NullDevice struct {
	info   DeviceInfo
	nextID atomic.Uint64
	live   atomic.Int64
}

// NewNullDevice creates a NullDevice reporting the given capabilities.
// An empty Name defaults to "null".
func NewNullDevice(info DeviceInfo) *NullDevice {
	if info.Name == "" {
		info.Name = "null"
	}
	d := &NullDevice{info: info}
	d.nextID.Store(1)
	return d
}

// Live returns the number of handles created and not yet destroyed.
func (d *NullDevice) Live() int64 { return d.live.Load() }

// newID mints the next handle value.
func (d *NullDevice) newID() uint64 {
	d.live.Add(1)
	return d.nextID.Add(1) - 1
}

// Info implements Device.
func (d *NullDevice) Info() DeviceInfo { return d.info }

// CreateShaderModule implements Device.
func (d *NullDevice) CreateShaderModule(spirv []uint32, localX, localY, localZ uint32) (ShaderModuleID, error) {
	if len(spirv) == 0 {
		return InvalidID, ErrEmptyBytecode
	}
	return ShaderModuleID(d.newID()), nil
}

// CreateDescriptorSetLayout implements Device.
func (d *NullDevice) CreateDescriptorSetLayout(bindings []BindingType) (DescriptorSetLayoutID, error) {
	return DescriptorSetLayoutID(d.newID()), nil
}

// CreatePipelineLayout implements Device.
func (d *NullDevice) CreatePipelineLayout(pushConstantCount int, set DescriptorSetLayoutID) (PipelineLayoutID, error) {
	return PipelineLayoutID(d.newID()), nil
}

// CreatePipeline implements Device.
func (d *NullDevice) CreatePipeline(module ShaderModuleID, layout PipelineLayoutID, specs []SpecValue) (PipelineID, error) {
	return PipelineID(d.newID()), nil
}

// CreateDescriptorUpdateTemplate implements Device.
func (d *NullDevice) CreateDescriptorUpdateTemplate(bindings []BindingType, set DescriptorSetLayoutID, layout PipelineLayoutID) (DescriptorUpdateTemplateID, error) {
	return DescriptorUpdateTemplateID(d.newID()), nil
}

// DestroyShaderModule implements Device.
func (d *NullDevice) DestroyShaderModule(ShaderModuleID) { d.live.Add(-1) }

// DestroyDescriptorSetLayout implements Device.
func (d *NullDevice) DestroyDescriptorSetLayout(DescriptorSetLayoutID) { d.live.Add(-1) }

// DestroyPipelineLayout implements Device.
func (d *NullDevice) DestroyPipelineLayout(PipelineLayoutID) { d.live.Add(-1) }

// DestroyPipeline implements Device.
func (d *NullDevice) DestroyPipeline(PipelineID) { d.live.Add(-1) }

// DestroyDescriptorUpdateTemplate implements Device.
func (d *NullDevice) DestroyDescriptorUpdateTemplate(DescriptorUpdateTemplateID) { d.live.Add(-1) }
