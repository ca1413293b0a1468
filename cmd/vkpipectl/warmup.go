package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/gogpu/vkcompute"
	"github.com/gogpu/vkcompute/spirv"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/stat"
)

var (
	flagWarmupManifest string
	flagWarmupBackend  string
)

var warmupCmd = &cobra.Command{
	Use:   "warmup",
	Short: "Pre-build the pipelines a manifest names",
	Long: `warmup loads a kernel manifest, builds each requested configuration
through the cache, and reports per-build and aggregate timings. Run it
at deploy time to move shader compilation out of the first dispatch.`,
	RunE: runWarmup,
}

func init() {
	warmupCmd.Flags().StringVar(&flagWarmupManifest, "manifest", "pipelines.yaml", "Manifest file to load")
	warmupCmd.Flags().StringVar(&flagWarmupBackend, "backend", "null", "Device backend (null or noop)")
	rootCmd.AddCommand(warmupCmd)
}

func runWarmup(_ *cobra.Command, _ []string) error {
	m, err := LoadManifest(flagWarmupManifest)
	if err != nil {
		return err
	}
	reg, err := m.Registry()
	if err != nil {
		return err
	}

	dev, cleanup, err := openDevice(flagWarmupBackend)
	if err != nil {
		return err
	}
	defer cleanup()

	cache, err := vkcompute.New(dev, reg, spirv.Reflect)
	if err != nil {
		return err
	}
	defer cache.Close()

	info := dev.Info()
	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	millis := make([]float64, 0, len(m.Requests))
	for i, r := range m.Requests {
		req, err := r.warmupRequest()
		if err != nil {
			return fmt.Errorf("request %d: %w", i, err)
		}

		start := time.Now()
		if _, err := cache.GetOrCreate(req.Kernel, req.Options, req.LocalX, req.LocalY, req.LocalZ, req.Specs); err != nil {
			return fmt.Errorf("request %d (kernel %d): %w", i, req.Kernel, err)
		}
		ms := float64(time.Since(start).Microseconds()) / 1000

		millis = append(millis, ms)
		variant := vkcompute.SelectVariant(req.Options, info)
		fmt.Fprintf(w, "kernel %d\t%s\t%dx%dx%d\t%.3f ms\n",
			req.Kernel, variant, req.LocalX, req.LocalY, req.LocalZ, ms)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	sort.Float64s(millis)
	s := cache.Stats()
	fmt.Printf("\n%d pipelines in cache, %d built, %d reused\n", cache.Size(), s.Misses, s.Hits)
	fmt.Printf("build time: mean %.3f ms, p50 %.3f ms, p95 %.3f ms\n",
		stat.Mean(millis, nil),
		stat.Quantile(0.5, stat.Empirical, millis, nil),
		stat.Quantile(0.95, stat.Empirical, millis, nil))
	return nil
}
