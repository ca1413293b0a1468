package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeManifest(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pipelines.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadManifest(t *testing.T) {
	path := writeManifest(t, `
kernels:
  - id: 7
    name: axpy
    wgsl: |
      @compute @workgroup_size(64)
      fn main() {}
  - id: 8
    name: scale
    file: scale.wgsl
requests:
  - kernel: 7
    local: [64, 1, 1]
    specs: ["i32:1024"]
  - kernel: 8
    options:
      fp16_storage: true
`)
	dir := filepath.Dir(path)
	if err := os.WriteFile(filepath.Join(dir, "scale.wgsl"), []byte("fn main() {}"), 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest failed: %v", err)
	}
	if len(m.Kernels) != 2 || len(m.Requests) != 2 {
		t.Fatalf("loaded %d kernels, %d requests", len(m.Kernels), len(m.Requests))
	}
	if !strings.Contains(m.Kernels[0].WGSL, "workgroup_size(64)") {
		t.Errorf("inline wgsl lost: %q", m.Kernels[0].WGSL)
	}
	if m.Kernels[1].WGSL != "fn main() {}" || m.Kernels[1].File != "" {
		t.Errorf("file-backed kernel not inlined: %+v", m.Kernels[1])
	}
	if !m.Requests[1].Options.FP16Storage {
		t.Error("request options lost")
	}
}

func TestLoadManifestErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			"no source",
			"kernels:\n  - id: 1\n    name: a\nrequests:\n  - kernel: 1\n",
			"no shader source",
		},
		{
			"both sources",
			"kernels:\n  - id: 1\n    name: a\n    wgsl: x\n    file: a.wgsl\nrequests:\n  - kernel: 1\n",
			"mutually exclusive",
		},
		{
			"missing file",
			"kernels:\n  - id: 1\n    name: a\n    file: nope.wgsl\nrequests:\n  - kernel: 1\n",
			"nope.wgsl",
		},
		{
			"no requests",
			"kernels:\n  - id: 1\n    name: a\n    wgsl: x\n",
			"no requests",
		},
		{
			"too many local dims",
			"kernels:\n  - id: 1\n    name: a\n    wgsl: x\nrequests:\n  - kernel: 1\n    local: [1, 2, 3, 4]\n",
			"at most 3",
		},
		{
			"bad yaml",
			"kernels: [\n",
			"parse manifest",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadManifest(writeManifest(t, tt.body))
			if err == nil {
				t.Fatal("LoadManifest accepted a bad manifest")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestLoadManifestMissingPath(t *testing.T) {
	if _, err := LoadManifest(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("LoadManifest accepted a missing path")
	}
}

func TestManifestRegistry(t *testing.T) {
	m := &Manifest{
		Kernels: []ManifestKernel{
			{ID: 7, Name: "axpy", WGSL: "fn main() {}"},
			{ID: 8, Name: "scale", WGSL: "fn main() {}"},
		},
	}
	reg, err := m.Registry()
	if err != nil {
		t.Fatalf("Registry failed: %v", err)
	}
	if reg.Count() != 2 {
		t.Errorf("registry holds %d entries, want 2", reg.Count())
	}

	m.Kernels = append(m.Kernels, ManifestKernel{ID: 7, Name: "dup", WGSL: "fn main() {}"})
	if _, err := m.Registry(); err == nil {
		t.Error("Registry accepted a duplicate kernel id")
	}
}

func TestWarmupRequestDefaults(t *testing.T) {
	req, err := ManifestRequest{Kernel: 7, Local: []uint32{64}}.warmupRequest()
	if err != nil {
		t.Fatalf("warmupRequest failed: %v", err)
	}
	if req.LocalX != 64 || req.LocalY != 1 || req.LocalZ != 1 {
		t.Errorf("local = %dx%dx%d, want 64x1x1", req.LocalX, req.LocalY, req.LocalZ)
	}

	req, err = ManifestRequest{Kernel: 7, Local: []uint32{8, 0, 2}}.warmupRequest()
	if err != nil {
		t.Fatalf("warmupRequest failed: %v", err)
	}
	if req.LocalY != 1 {
		t.Errorf("zero local dimension not defaulted: %dx%dx%d", req.LocalX, req.LocalY, req.LocalZ)
	}
}

func TestWarmupRequestSpecsAndOptions(t *testing.T) {
	r := ManifestRequest{
		Kernel:  3,
		Options: ManifestOptions{ImageStorage: true, FP16Storage: true, FP16Arithmetic: true},
		Specs:   []string{"i32:64", "f32:0.5"},
	}
	req, err := r.warmupRequest()
	if err != nil {
		t.Fatalf("warmupRequest failed: %v", err)
	}
	if !req.Options.UseImageStorage || !req.Options.UseFP16Storage || !req.Options.UseFP16Arithmetic {
		t.Errorf("options lost: %+v", req.Options)
	}
	if req.Options.UseInt8Storage {
		t.Error("unset option leaked through")
	}
	if len(req.Specs) != 2 || req.Specs[0].Int32() != 64 {
		t.Errorf("specs lost: %v", req.Specs)
	}

	if _, err := (ManifestRequest{Kernel: 3, Specs: []string{"bogus"}}).warmupRequest(); err == nil {
		t.Error("warmupRequest accepted a bad spec literal")
	}
}
