package vkcompute

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestBuildPipelineCreatesInOrder(t *testing.T) {
	dev := newMockDevice(fullCapsInfo())
	module, err := dev.CreateShaderModule(testWords(), 8, 8, 1)
	if err != nil {
		t.Fatalf("CreateShaderModule failed: %v", err)
	}

	p, err := buildPipeline(dev, dev.Info(), module, testSignature(), testSpecs(), 8, 8, 1)
	if err != nil {
		t.Fatalf("buildPipeline failed: %v", err)
	}

	wantOrder := []string{kindModule, kindSetLayout, kindPipeLayout, kindPipeline, kindTemplate}
	if got := dev.snapshotCreateOrder(); !reflect.DeepEqual(got, wantOrder) {
		t.Errorf("create order = %v, want %v", got, wantOrder)
	}
	if p.ShaderModule != module {
		t.Errorf("bundle module = %d, want %d", p.ShaderModule, module)
	}
	for _, h := range []uint64{
		uint64(p.DescriptorSetLayout),
		uint64(p.PipelineLayout),
		uint64(p.Pipeline),
		uint64(p.DescriptorUpdateTemplate),
	} {
		if h == InvalidID {
			t.Error("bundle contains an invalid handle after successful build")
		}
	}
	if p.LocalX != 8 || p.LocalY != 8 || p.LocalZ != 1 {
		t.Errorf("bundle local = %dx%dx%d, want 8x8x1", p.LocalX, p.LocalY, p.LocalZ)
	}
	if got := dev.destroyedTotal(); got != 0 {
		t.Errorf("successful build destroyed %d resources", got)
	}
}

func TestBuildPipelineTemplateSkippedWhenUnsupported(t *testing.T) {
	info := fullCapsInfo()
	info.SupportsDescriptorUpdateTemplate = false
	dev := newMockDevice(info)
	module, err := dev.CreateShaderModule(testWords(), 8, 8, 1)
	if err != nil {
		t.Fatalf("CreateShaderModule failed: %v", err)
	}

	p, err := buildPipeline(dev, dev.Info(), module, testSignature(), testSpecs(), 8, 8, 1)
	if err != nil {
		t.Fatalf("buildPipeline failed: %v", err)
	}
	if p.DescriptorUpdateTemplate != InvalidID {
		t.Errorf("template = %d, want InvalidID", p.DescriptorUpdateTemplate)
	}
	if got := dev.createdCount(kindTemplate); got != 0 {
		t.Errorf("template create calls = %d, want 0", got)
	}
}

func TestBuildPipelineSpecializationMismatch(t *testing.T) {
	dev := newMockDevice(fullCapsInfo())
	// Deliberately skip module creation: the mismatch must be detected
	// before any create call.
	_, err := buildPipeline(dev, dev.Info(), 1, testSignature(), []SpecValue{SpecInt32(1)}, 8, 8, 1)
	if !errors.Is(err, ErrSpecializationMismatch) {
		t.Fatalf("err = %v, want ErrSpecializationMismatch", err)
	}
	if got := dev.createdTotal(); got != 0 {
		t.Errorf("mismatch created %d resources, want 0", got)
	}
}

// Failing each stage in turn must destroy exactly the resources created
// before it, in reverse creation order.
func TestBuildPipelineRollback(t *testing.T) {
	tests := []struct {
		name           string
		arm            func(d *mockDevice)
		wantDestroyed  []string
		wantPhaseInMsg string
	}{
		{
			name:           "set layout fails",
			arm:            func(d *mockDevice) { d.failSetLayout = errors.New("boom") },
			wantDestroyed:  nil,
			wantPhaseInMsg: "descriptor set layout",
		},
		{
			name:           "pipeline layout fails",
			arm:            func(d *mockDevice) { d.failPipeLayout = errors.New("boom") },
			wantDestroyed:  []string{kindSetLayout},
			wantPhaseInMsg: "pipeline layout",
		},
		{
			name:           "pipeline fails",
			arm:            func(d *mockDevice) { d.failPipeline = errors.New("boom") },
			wantDestroyed:  []string{kindPipeLayout, kindSetLayout},
			wantPhaseInMsg: "create pipeline",
		},
		{
			name:           "template fails",
			arm:            func(d *mockDevice) { d.failTemplate = errors.New("boom") },
			wantDestroyed:  []string{kindPipeline, kindPipeLayout, kindSetLayout},
			wantPhaseInMsg: "descriptor update template",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := newMockDevice(fullCapsInfo())
			tt.arm(dev)

			module, err := dev.CreateShaderModule(testWords(), 8, 8, 1)
			if err != nil {
				t.Fatalf("CreateShaderModule failed: %v", err)
			}

			_, err = buildPipeline(dev, dev.Info(), module, testSignature(), testSpecs(), 8, 8, 1)
			if err == nil {
				t.Fatal("buildPipeline succeeded, want error")
			}
			if msg := err.Error(); !strings.Contains(msg, tt.wantPhaseInMsg) {
				t.Errorf("error %q does not name phase %q", msg, tt.wantPhaseInMsg)
			}

			if got := dev.snapshotDestroyOrder(); !reflect.DeepEqual(got, tt.wantDestroyed) {
				t.Errorf("destroy order = %v, want %v", got, tt.wantDestroyed)
			}
			if got := dev.badDestroyCount(); got != 0 {
				t.Errorf("bad destroys = %d, want 0", got)
			}
			// Only the module, which the caller owns, may remain live.
			if got := dev.liveCount(); got != 1 {
				t.Errorf("live resources after rollback = %d, want 1 (the module)", got)
			}
		})
	}
}

func TestDestroyBundleSkipsAbsentHandles(t *testing.T) {
	dev := newMockDevice(fullCapsInfo())
	module, _ := dev.CreateShaderModule(testWords(), 1, 1, 1)
	setLayout, _ := dev.CreateDescriptorSetLayout(nil)

	destroyBundle(dev, Pipeline{ShaderModule: module, DescriptorSetLayout: setLayout})

	if got := dev.liveCount(); got != 0 {
		t.Errorf("live resources = %d, want 0", got)
	}
	if got := dev.badDestroyCount(); got != 0 {
		t.Errorf("bad destroys = %d, want 0 (absent handles must be skipped)", got)
	}
	wantOrder := []string{kindSetLayout, kindModule}
	if got := dev.snapshotDestroyOrder(); !reflect.DeepEqual(got, wantOrder) {
		t.Errorf("destroy order = %v, want %v", got, wantOrder)
	}
}

func TestUnwindRunsInReverseOrder(t *testing.T) {
	var got []int
	var u unwind
	for i := range 3 {
		u.add(func() { got = append(got, i) })
	}
	u.run()
	if want := []int{2, 1, 0}; !reflect.DeepEqual(got, want) {
		t.Errorf("unwind order = %v, want %v", got, want)
	}
}

func TestUnwindCommitDisarms(t *testing.T) {
	ran := false
	var u unwind
	u.add(func() { ran = true })
	u.commit()
	u.run()
	if ran {
		t.Error("committed unwind still ran its steps")
	}
}
