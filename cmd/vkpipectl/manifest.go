package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gogpu/vkcompute"
	"github.com/gogpu/vkcompute/shader"
	"gopkg.in/yaml.v3"
)

// ManifestKernel declares one registry entry. Exactly one of WGSL and
// File carries the source; File is resolved relative to the manifest.
type ManifestKernel struct {
	ID   int32  `yaml:"id"`
	Name string `yaml:"name"`
	WGSL string `yaml:"wgsl,omitempty"`
	File string `yaml:"file,omitempty"`
}

// ManifestOptions mirrors vkcompute.OptionFlags with yaml tags.
type ManifestOptions struct {
	ImageStorage   bool `yaml:"image_storage,omitempty"`
	FP16Packed     bool `yaml:"fp16_packed,omitempty"`
	FP16Storage    bool `yaml:"fp16_storage,omitempty"`
	FP16Arithmetic bool `yaml:"fp16_arithmetic,omitempty"`
	Int8Storage    bool `yaml:"int8_storage,omitempty"`
	Int8Arithmetic bool `yaml:"int8_arithmetic,omitempty"`
}

// ManifestRequest names one configuration to pre-build. Options select
// a variant against the device at warmup time, so the kernels section
// must declare every concrete id a request can resolve to.
type ManifestRequest struct {
	Kernel  int32           `yaml:"kernel"`
	Options ManifestOptions `yaml:"options,omitempty"`
	Local   []uint32        `yaml:"local,flow,omitempty"`
	Specs   []string        `yaml:"specs,omitempty"`
}

// Manifest is the file format vkpipectl warmup consumes.
type Manifest struct {
	Kernels  []ManifestKernel  `yaml:"kernels"`
	Requests []ManifestRequest `yaml:"requests"`
}

// LoadManifest reads and validates a manifest. File-backed kernel
// sources are read relative to the manifest's directory and inlined.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	for i := range m.Kernels {
		k := &m.Kernels[i]
		if k.WGSL != "" && k.File != "" {
			return nil, fmt.Errorf("kernel %d (%s): wgsl and file are mutually exclusive", k.ID, k.Name)
		}
		if k.File != "" {
			src, err := os.ReadFile(filepath.Join(dir, k.File))
			if err != nil {
				return nil, fmt.Errorf("kernel %d (%s): %w", k.ID, k.Name, err)
			}
			k.WGSL = string(src)
			k.File = ""
		}
		if k.WGSL == "" {
			return nil, fmt.Errorf("kernel %d (%s): no shader source", k.ID, k.Name)
		}
	}

	if len(m.Requests) == 0 {
		return nil, fmt.Errorf("manifest %s names no requests", path)
	}
	for i, r := range m.Requests {
		if len(r.Local) > 3 {
			return nil, fmt.Errorf("request %d: local has %d dimensions, want at most 3", i, len(r.Local))
		}
	}
	return &m, nil
}

// Registry builds a shader registry from the manifest's kernels.
func (m *Manifest) Registry() (*shader.Registry, error) {
	reg := shader.NewRegistry()
	for _, k := range m.Kernels {
		if err := reg.Register(vkcompute.KernelID(k.ID), shader.Entry{Name: k.Name, WGSL: k.WGSL}); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func (o ManifestOptions) flags() vkcompute.OptionFlags {
	return vkcompute.OptionFlags{
		UseImageStorage:   o.ImageStorage,
		UseFP16Packed:     o.FP16Packed,
		UseFP16Storage:    o.FP16Storage,
		UseFP16Arithmetic: o.FP16Arithmetic,
		UseInt8Storage:    o.Int8Storage,
		UseInt8Arithmetic: o.Int8Arithmetic,
	}
}

// warmupRequest converts one manifest request. Missing or zero local
// dimensions default to 1.
func (r ManifestRequest) warmupRequest() (vkcompute.WarmupRequest, error) {
	specs, err := parseSpecs(r.Specs)
	if err != nil {
		return vkcompute.WarmupRequest{}, err
	}

	local := [3]uint32{1, 1, 1}
	copy(local[:], r.Local)
	for i := range local {
		if local[i] == 0 {
			local[i] = 1
		}
	}

	return vkcompute.WarmupRequest{
		Kernel:  vkcompute.KernelID(r.Kernel),
		Options: r.Options.flags(),
		LocalX:  local[0],
		LocalY:  local[1],
		LocalZ:  local[2],
		Specs:   specs,
	}, nil
}
