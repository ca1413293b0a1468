package main

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/vkcompute"
	wgpubackend "github.com/gogpu/vkcompute/backend/wgpu"
	"github.com/gogpu/wgpu/hal/noop"
)

// fullCaps is the capability set the null backend reports: every
// optional feature on, no errata. It exercises the widest variant
// range a manifest can ask for.
func fullCaps() vkcompute.DeviceInfo {
	return vkcompute.DeviceInfo{
		Name:                             "null",
		SupportsFP16Packed:               true,
		SupportsFP16Storage:              true,
		SupportsFP16Arithmetic:           true,
		SupportsInt8Storage:              true,
		SupportsInt8Arithmetic:           true,
		SupportsDescriptorUpdateTemplate: true,
	}
}

// openDevice opens the named backend. On success the cleanup func is
// never nil and releases everything the open created.
func openDevice(backend string) (vkcompute.Device, func(), error) {
	switch backend {
	case "null":
		return vkcompute.NewNullDevice(fullCaps()), func() {}, nil

	case "noop":
		api := noop.API{}
		instance, err := api.CreateInstance(nil)
		if err != nil {
			return nil, nil, fmt.Errorf("create noop instance: %w", err)
		}
		adapters := instance.EnumerateAdapters(nil)
		if len(adapters) == 0 {
			instance.Destroy()
			return nil, nil, fmt.Errorf("no noop adapters available")
		}
		openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
		if err != nil {
			instance.Destroy()
			return nil, nil, fmt.Errorf("open noop device: %w", err)
		}
		dev, err := wgpubackend.NewDevice(openDev.Device, openDev.Queue, nil)
		if err != nil {
			openDev.Device.Destroy()
			instance.Destroy()
			return nil, nil, err
		}
		cleanup := func() {
			openDev.Device.Destroy()
			instance.Destroy()
		}
		return dev, cleanup, nil

	default:
		return nil, nil, fmt.Errorf("unknown backend %q (want null or noop)", backend)
	}
}
