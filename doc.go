// Package vkcompute caches compute pipelines for GPU inference kernels.
//
// # Overview
//
// Building a compute pipeline is expensive: SPIR-V must be fetched or
// compiled, its descriptor interface reflected, and a chain of device
// resources created (shader module, descriptor-set layout, pipeline
// layout, pipeline, optionally a descriptor-update template). vkcompute
// fingerprints each request into a compact digest and answers repeat
// requests with the already-built bundle.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/vkcompute"
//	    "github.com/gogpu/vkcompute/shader"
//	    "github.com/gogpu/vkcompute/spirv"
//	)
//
//	reg := shader.NewRegistry()
//	reg.MustRegister(kernelScale, shader.Entry{Name: "scale", WGSL: scaleWGSL})
//
//	dev := vkcompute.NewNullDevice(vkcompute.DeviceInfo{Name: "demo"})
//	cache, err := vkcompute.New(dev, reg, spirv.Reflect)
//	if err != nil {
//	    return err
//	}
//	defer cache.Close()
//
//	p, err := cache.GetOrCreate(kernelScale, vkcompute.OptionFlags{}, 64, 1, 1, nil)
//
// # Architecture
//
// The cache is assembled from small pieces, each independently testable:
//   - Digest: kernel id, packed option bits, workgroup shape, and two
//     independent hashes over the specialization payload
//   - Variant selection: a priority-ordered table granting fp16 and
//     image-storage requests only where the device reports support
//   - Builder: resource construction with reverse-order rollback, so a
//     failed build leaves nothing behind
//   - Store: digest-keyed bundle map, unbounded until Close
//   - Single-flight: concurrent misses on one digest share a single build
//
// # Thread Safety
//
// PipelineCache lookups, builds, and stats are safe for concurrent use.
// Close is shutdown-only: drain callers first.
//
// # Logging
//
// vkcompute is silent by default. Call SetLogger to enable structured
// logging through log/slog.
package vkcompute

// Version is the current version of the library.
const Version = "0.1.0"
