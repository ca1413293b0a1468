package vkcompute

import "fmt"

// Pipeline is one fully built pipeline bundle: every device handle a
// dispatch needs, the signature the bundle was built against, and the
// workgroup shape baked into the shader module.
//
// Bundles returned by GetOrCreate are owned by the cache; do not destroy
// their handles. Bundles returned by GetOrCreateFromSPIRV are owned by
// the caller and released with [PipelineCache.Release].
type Pipeline struct {
	ShaderModule        ShaderModuleID
	DescriptorSetLayout DescriptorSetLayoutID
	PipelineLayout      PipelineLayoutID
	Pipeline            PipelineID
	// DescriptorUpdateTemplate is InvalidID when the device does not
	// support update templates.
	DescriptorUpdateTemplate DescriptorUpdateTemplateID

	// Signature is the dispatch interface the bundle was built against.
	Signature ShaderSignature
	// LocalX, LocalY, LocalZ is the workgroup shape.
	LocalX, LocalY, LocalZ uint32
}

// unwind collects destroy steps for resources created so far in a
// build. run executes the steps in reverse creation order; commit
// disarms it. Used with defer so every early return rolls back exactly
// the resources created before the failure.
type unwind struct {
	steps     []func()
	committed bool
}

func (u *unwind) add(fn func()) { u.steps = append(u.steps, fn) }

func (u *unwind) commit() { u.committed = true }

func (u *unwind) run() {
	if u.committed {
		return
	}
	for i := len(u.steps) - 1; i >= 0; i-- {
		u.steps[i]()
	}
}

// buildPipeline assembles the bundle stages that follow shader-module
// creation: descriptor-set layout, pipeline layout, pipeline, and, when
// the device supports it, a descriptor-update template. On failure every
// resource created by this call is destroyed in reverse creation order
// and the zero Pipeline is returned. The shader module passed in is the
// caller's to clean up.
func buildPipeline(dev Device, info DeviceInfo, module ShaderModuleID, sig ShaderSignature, specs []SpecValue, localX, localY, localZ uint32) (Pipeline, error) {
	if len(specs) != sig.SpecializationCount {
		return Pipeline{}, fmt.Errorf("%w: shader declares %d, got %d",
			ErrSpecializationMismatch, sig.SpecializationCount, len(specs))
	}

	var u unwind
	defer u.run()

	setLayout, err := dev.CreateDescriptorSetLayout(sig.Bindings)
	if err != nil {
		return Pipeline{}, fmt.Errorf("vkcompute: failed to create descriptor set layout: %w", err)
	}
	u.add(func() { dev.DestroyDescriptorSetLayout(setLayout) })

	pipeLayout, err := dev.CreatePipelineLayout(sig.PushConstantCount, setLayout)
	if err != nil {
		return Pipeline{}, fmt.Errorf("vkcompute: failed to create pipeline layout: %w", err)
	}
	u.add(func() { dev.DestroyPipelineLayout(pipeLayout) })

	pipeline, err := dev.CreatePipeline(module, pipeLayout, specs)
	if err != nil {
		return Pipeline{}, fmt.Errorf("vkcompute: failed to create pipeline: %w", err)
	}
	u.add(func() { dev.DestroyPipeline(pipeline) })

	var template DescriptorUpdateTemplateID
	if info.SupportsDescriptorUpdateTemplate {
		template, err = dev.CreateDescriptorUpdateTemplate(sig.Bindings, setLayout, pipeLayout)
		if err != nil {
			return Pipeline{}, fmt.Errorf("vkcompute: failed to create descriptor update template: %w", err)
		}
	}

	u.commit()
	return Pipeline{
		ShaderModule:             module,
		DescriptorSetLayout:      setLayout,
		PipelineLayout:           pipeLayout,
		Pipeline:                 pipeline,
		DescriptorUpdateTemplate: template,
		Signature:                sig.clone(),
		LocalX:                   localX,
		LocalY:                   localY,
		LocalZ:                   localZ,
	}, nil
}

// destroyBundle destroys a bundle's resources in fixed teardown order:
// update template, pipeline, pipeline layout, descriptor-set layout,
// shader module. Absent handles are skipped.
func destroyBundle(dev Device, p Pipeline) {
	if p.DescriptorUpdateTemplate != InvalidID {
		dev.DestroyDescriptorUpdateTemplate(p.DescriptorUpdateTemplate)
	}
	if p.Pipeline != InvalidID {
		dev.DestroyPipeline(p.Pipeline)
	}
	if p.PipelineLayout != InvalidID {
		dev.DestroyPipelineLayout(p.PipelineLayout)
	}
	if p.DescriptorSetLayout != InvalidID {
		dev.DestroyDescriptorSetLayout(p.DescriptorSetLayout)
	}
	if p.ShaderModule != InvalidID {
		dev.DestroyShaderModule(p.ShaderModule)
	}
}
