package vkcompute

import (
	"errors"
	"sync"
	"testing"
)

func TestNullDeviceDefaults(t *testing.T) {
	dev := NewNullDevice(DeviceInfo{})
	if got := dev.Info().Name; got != "null" {
		t.Errorf("Info().Name = %q, want %q", got, "null")
	}

	named := NewNullDevice(DeviceInfo{Name: "gpu0"})
	if got := named.Info().Name; got != "gpu0" {
		t.Errorf("Info().Name = %q, want %q", got, "gpu0")
	}
}

func TestNullDeviceHandlesAreDistinct(t *testing.T) {
	dev := NewNullDevice(DeviceInfo{})

	module, err := dev.CreateShaderModule(testWords(), 8, 8, 1)
	if err != nil {
		t.Fatalf("CreateShaderModule failed: %v", err)
	}
	setLayout, err := dev.CreateDescriptorSetLayout(testSignature().Bindings)
	if err != nil {
		t.Fatalf("CreateDescriptorSetLayout failed: %v", err)
	}
	pipeLayout, err := dev.CreatePipelineLayout(5, setLayout)
	if err != nil {
		t.Fatalf("CreatePipelineLayout failed: %v", err)
	}
	pipeline, err := dev.CreatePipeline(module, pipeLayout, testSpecs())
	if err != nil {
		t.Fatalf("CreatePipeline failed: %v", err)
	}

	seen := map[uint64]bool{}
	for _, id := range []uint64{uint64(module), uint64(setLayout), uint64(pipeLayout), uint64(pipeline)} {
		if id == InvalidID {
			t.Error("create returned InvalidID")
		}
		if seen[id] {
			t.Errorf("handle %d minted twice", id)
		}
		seen[id] = true
	}
	if got := dev.Live(); got != 4 {
		t.Errorf("Live() = %d, want 4", got)
	}
}

func TestNullDeviceRejectsEmptyBytecode(t *testing.T) {
	dev := NewNullDevice(DeviceInfo{})
	if _, err := dev.CreateShaderModule(nil, 1, 1, 1); !errors.Is(err, ErrEmptyBytecode) {
		t.Errorf("err = %v, want ErrEmptyBytecode", err)
	}
	if got := dev.Live(); got != 0 {
		t.Errorf("Live() = %d after rejected create, want 0", got)
	}
}

func TestNullDeviceLiveTracking(t *testing.T) {
	dev := NewNullDevice(DeviceInfo{})

	module, _ := dev.CreateShaderModule(testWords(), 1, 1, 1)
	setLayout, _ := dev.CreateDescriptorSetLayout(nil)
	if got := dev.Live(); got != 2 {
		t.Fatalf("Live() = %d, want 2", got)
	}

	dev.DestroyShaderModule(module)
	dev.DestroyDescriptorSetLayout(setLayout)
	if got := dev.Live(); got != 0 {
		t.Errorf("Live() = %d after destroys, want 0", got)
	}
}

// The full cache protocol must run against a NullDevice end to end.
func TestNullDeviceDrivesCache(t *testing.T) {
	dev := NewNullDevice(DeviceInfo{
		SupportsFP16Storage:              true,
		SupportsDescriptorUpdateTemplate: true,
	})
	cache, err := New(dev, &mockProvider{words: testWords()}, fixedResolver(testSignature()))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	opts := OptionFlags{UseFP16Storage: true}
	p, err := cache.GetOrCreate(0, opts, 8, 8, 1, testSpecs())
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	if p.DescriptorUpdateTemplate == InvalidID {
		t.Error("expected an update template on a supporting device")
	}

	cache.Close()
	if got := dev.Live(); got != 0 {
		t.Errorf("Live() = %d after Close, want 0", got)
	}
}

func TestNullDeviceConcurrentMint(t *testing.T) {
	dev := NewNullDevice(DeviceInfo{})

	const goroutines = 50
	ids := make([]uint64, goroutines)
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func(i int) {
			defer wg.Done()
			id, err := dev.CreateShaderModule(testWords(), 1, 1, 1)
			if err != nil {
				t.Errorf("CreateShaderModule failed: %v", err)
				return
			}
			ids[i] = uint64(id)
		}(i)
	}
	wg.Wait()

	seen := map[uint64]bool{}
	for _, id := range ids {
		if seen[id] {
			t.Fatalf("handle %d minted twice under concurrency", id)
		}
		seen[id] = true
	}
	if got := dev.Live(); got != goroutines {
		t.Errorf("Live() = %d, want %d", got, goroutines)
	}
}
