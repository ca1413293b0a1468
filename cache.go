package vkcompute

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

// ShaderProvider supplies SPIR-V bytecode for concrete kernel ids.
// shader.Registry is the standard implementation.
type ShaderProvider interface {
	// Bytecode returns the SPIR-V words for a concrete (variant-resolved)
	// kernel id. The cache treats the slice as read-only.
	Bytecode(kernel KernelID) ([]uint32, error)
}

// SignatureProvider is optionally implemented by shader providers that
// know a kernel's dispatch interface without parsing bytecode. When the
// provider answers true the cache skips SPIR-V reflection for that
// kernel.
type SignatureProvider interface {
	Signature(kernel KernelID) (ShaderSignature, bool)
}

// SignatureResolver reflects a shader's dispatch interface from its
// SPIR-V words. spirv.Reflect is the standard implementation.
type SignatureResolver func(spirv []uint32) (ShaderSignature, error)

// CacheStats is a point-in-time snapshot of the lookup counters.
type CacheStats struct {
	// Hits counts lookups answered with an existing bundle, including
	// callers coalesced onto another caller's in-flight build.
	Hits uint64
	// Misses counts builds performed. Failed lookups increment neither
	// counter.
	Misses uint64
}

// WarmupRequest names one configuration for Warmup to pre-build.
type WarmupRequest struct {
	Kernel  KernelID
	Options OptionFlags
	LocalX  uint32
	LocalY  uint32
	LocalZ  uint32
	Specs   []SpecValue
}

// PipelineCache builds compute pipelines on demand and answers repeat
// requests with the existing bundle. Entries accumulate until Close;
// there is no eviction.
//
// Thread Safety: GetOrCreate, GetOrCreateFromSPIRV, Release, Warmup, and
// the stats accessors are safe for concurrent use. Close is
// shutdown-only: drain callers before invoking it.
type PipelineCache struct {
	device   Device
	info     DeviceInfo
	provider ShaderProvider
	resolver SignatureResolver

	mu    sync.RWMutex
	store *pipelineStore

	// flight coalesces concurrent builds of one digest.
	flight singleflight.Group

	closed atomic.Bool
	hits   atomic.Uint64
	misses atomic.Uint64
}

// New creates a pipeline cache over device. provider supplies kernel
// bytecode for the cached path and may be nil when only
// GetOrCreateFromSPIRV is used. resolver must not be nil; pass
// spirv.Reflect unless signatures come from somewhere else.
func New(device Device, provider ShaderProvider, resolver SignatureResolver) (*PipelineCache, error) {
	if device == nil {
		return nil, ErrNilDevice
	}
	if resolver == nil {
		return nil, ErrNoSignatureResolver
	}
	info := device.Info()
	Logger().Debug("pipeline cache created", "device", info.Name)
	return &PipelineCache{
		device:   device,
		info:     info,
		provider: provider,
		resolver: resolver,
		store:    newPipelineStore(),
	}, nil
}

// GetOrCreate returns the pipeline for the given configuration, building
// it on first use. Concurrent callers with the same configuration share
// one build; unrelated configurations build independently.
//
// Parameters:
//   - kernel: base kernel id. The variant offset granted by the device
//     capabilities is added before bytecode lookup, so the provider must
//     register each rendition the options can resolve to.
//   - opts: requested execution strategy.
//   - localX, localY, localZ: workgroup shape baked into the module.
//   - specs: specialization values; the count must match the shader.
func (c *PipelineCache) GetOrCreate(kernel KernelID, opts OptionFlags, localX, localY, localZ uint32, specs []SpecValue) (Pipeline, error) {
	if c.closed.Load() {
		return Pipeline{}, ErrClosed
	}
	if c.provider == nil {
		return Pipeline{}, ErrNoShaderProvider
	}

	variant := SelectVariant(opts, c.info)
	concrete := kernel.Variant(variant)
	digest := MakeDigest(concrete, opts, specs, localX, localY, localZ)

	// Fast path under the shared read lock.
	c.mu.RLock()
	p, ok := c.store.find(digest)
	c.mu.RUnlock()
	if ok {
		c.hits.Add(1)
		return p, nil
	}

	ran := false
	v, err, _ := c.flight.Do(digest.flightKey(), func() (any, error) {
		ran = true
		built, err := c.buildAndInsert(digest, concrete, variant, specs, localX, localY, localZ)
		if err != nil {
			return nil, err
		}
		return built, nil
	})
	if err != nil {
		return Pipeline{}, err
	}
	if !ran {
		// Coalesced onto another caller's build of the same digest.
		c.hits.Add(1)
	}
	return v.(Pipeline), nil
}

// buildAndInsert runs inside the single-flight slot for digest: it
// re-checks the store, performs the full build, and inserts the result.
func (c *PipelineCache) buildAndInsert(digest Digest, concrete KernelID, variant Variant, specs []SpecValue, localX, localY, localZ uint32) (Pipeline, error) {
	// A flight that completed between the fast-path miss and Do may have
	// inserted the bundle already.
	c.mu.RLock()
	p, ok := c.store.find(digest)
	c.mu.RUnlock()
	if ok {
		c.hits.Add(1)
		return p, nil
	}

	start := time.Now()

	words, err := c.provider.Bytecode(concrete)
	if err != nil {
		return Pipeline{}, fmt.Errorf("vkcompute: failed to fetch bytecode for kernel %d: %w", concrete, err)
	}
	if len(words) == 0 {
		return Pipeline{}, fmt.Errorf("%w: kernel %d", ErrEmptyBytecode, concrete)
	}

	sig, err := c.resolveSignature(concrete, words)
	if err != nil {
		return Pipeline{}, fmt.Errorf("vkcompute: failed to resolve signature for kernel %d: %w", concrete, err)
	}

	p, err = c.buildBundle(words, sig, specs, localX, localY, localZ)
	if err != nil {
		Logger().Warn("pipeline build failed", "kernel", concrete, "variant", variant, "err", err)
		return Pipeline{}, err
	}

	c.mu.Lock()
	c.store.insert(digest, p)
	c.mu.Unlock()
	c.misses.Add(1)

	Logger().Debug("pipeline built",
		"kernel", concrete,
		"variant", variant,
		"digest", digest,
		"elapsed", time.Since(start))
	return p, nil
}

// resolveSignature prefers the provider's precomputed signature and
// falls back to reflection.
func (c *PipelineCache) resolveSignature(kernel KernelID, words []uint32) (ShaderSignature, error) {
	if sp, ok := c.provider.(SignatureProvider); ok {
		if sig, ok := sp.Signature(kernel); ok {
			return sig, nil
		}
	}
	return c.resolver(words)
}

// buildBundle creates the shader module and assembles the rest of the
// bundle, destroying the module again if a later stage fails. The
// specialization count is checked first so a misconfigured call creates
// nothing.
func (c *PipelineCache) buildBundle(words []uint32, sig ShaderSignature, specs []SpecValue, localX, localY, localZ uint32) (Pipeline, error) {
	if len(specs) != sig.SpecializationCount {
		return Pipeline{}, fmt.Errorf("%w: shader declares %d, got %d",
			ErrSpecializationMismatch, sig.SpecializationCount, len(specs))
	}

	module, err := c.device.CreateShaderModule(words, localX, localY, localZ)
	if err != nil {
		return Pipeline{}, fmt.Errorf("vkcompute: failed to create shader module: %w", err)
	}

	p, err := buildPipeline(c.device, c.info, module, sig, specs, localX, localY, localZ)
	if err != nil {
		c.device.DestroyShaderModule(module)
		return Pipeline{}, err
	}
	return p, nil
}

// GetOrCreateFromSPIRV builds a pipeline from raw SPIR-V, bypassing the
// store entirely: every call builds, nothing is cached, and no counters
// move. The returned bundle is owned by the caller; free it with
// Release.
func (c *PipelineCache) GetOrCreateFromSPIRV(spirv []uint32, specs []SpecValue, localX, localY, localZ uint32) (Pipeline, error) {
	if c.closed.Load() {
		return Pipeline{}, ErrClosed
	}
	if len(spirv) == 0 {
		return Pipeline{}, ErrEmptyBytecode
	}
	sig, err := c.resolver(spirv)
	if err != nil {
		return Pipeline{}, fmt.Errorf("vkcompute: failed to resolve signature: %w", err)
	}
	return c.buildBundle(spirv, sig, specs, localX, localY, localZ)
}

// Release destroys the resources of a bundle returned by
// GetOrCreateFromSPIRV. Never call it on a cached bundle: the cache owns
// those and destroys them in Close.
func (c *PipelineCache) Release(p Pipeline) {
	destroyBundle(c.device, p)
}

// Warmup pre-builds each requested configuration so dispatch-time
// lookups hit. The first failure aborts the run and is returned wrapped
// with the offending kernel id.
func (c *PipelineCache) Warmup(reqs []WarmupRequest) error {
	for _, r := range reqs {
		if _, err := c.GetOrCreate(r.Kernel, r.Options, r.LocalX, r.LocalY, r.LocalZ, r.Specs); err != nil {
			return fmt.Errorf("vkcompute: warmup kernel %d: %w", r.Kernel, err)
		}
	}
	return nil
}

// Close destroys every cached bundle and marks the cache closed; later
// lookups return ErrClosed. Close is idempotent. It must not run
// concurrently with lookups or builds.
func (c *PipelineCache) Close() {
	if c.closed.Swap(true) {
		return
	}
	c.mu.Lock()
	n := c.store.clear(c.device)
	c.mu.Unlock()
	Logger().Info("pipeline cache closed", "device", c.info.Name, "pipelines", n)
}

// Stats returns a snapshot of the lookup counters.
//
// The values are read atomically and may not be perfectly synchronized
// with each other.
func (c *PipelineCache) Stats() CacheStats {
	return CacheStats{Hits: c.hits.Load(), Misses: c.misses.Load()}
}

// HitRate returns the cache hit rate from 0.0 to 1.0.
//
// Returns 0.0 if no requests have been made.
func (c *PipelineCache) HitRate() float64 {
	s := c.Stats()
	total := s.Hits + s.Misses
	if total == 0 {
		return 0.0
	}
	return float64(s.Hits) / float64(total)
}

// Size returns the number of cached bundles.
func (c *PipelineCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.store.size()
}
