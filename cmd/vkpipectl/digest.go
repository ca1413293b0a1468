package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gogpu/vkcompute"
	"github.com/spf13/cobra"
)

var (
	flagDigestBackend string
	flagDigestKernel  int32
	flagDigestLocalX  uint32
	flagDigestLocalY  uint32
	flagDigestLocalZ  uint32
	flagDigestImage   bool
	flagDigestFP16P   bool
	flagDigestFP16S   bool
	flagDigestFP16A   bool
	flagDigestInt8S   bool
	flagDigestInt8A   bool
	flagDigestSpecs   []string
)

var digestCmd = &cobra.Command{
	Use:   "digest",
	Short: "Compute the cache digest for a pipeline configuration",
	Long: `digest resolves the variant the options and device capabilities select,
then prints the digest that configuration is cached under. Digests are
stable across processes, so the output can key offline pipeline records.`,
	RunE: runDigest,
}

func init() {
	digestCmd.Flags().StringVar(&flagDigestBackend, "backend", "null", "Device backend supplying capabilities (null or noop)")
	digestCmd.Flags().Int32Var(&flagDigestKernel, "kernel", 0, "Base kernel id")
	digestCmd.Flags().Uint32Var(&flagDigestLocalX, "local-x", 1, "Workgroup size X")
	digestCmd.Flags().Uint32Var(&flagDigestLocalY, "local-y", 1, "Workgroup size Y")
	digestCmd.Flags().Uint32Var(&flagDigestLocalZ, "local-z", 1, "Workgroup size Z")
	digestCmd.Flags().BoolVar(&flagDigestImage, "image", false, "Request image-backed storage")
	digestCmd.Flags().BoolVar(&flagDigestFP16P, "fp16-packed", false, "Request packed half-precision storage")
	digestCmd.Flags().BoolVar(&flagDigestFP16S, "fp16-storage", false, "Request half-precision storage")
	digestCmd.Flags().BoolVar(&flagDigestFP16A, "fp16-arithmetic", false, "Request half-precision arithmetic")
	digestCmd.Flags().BoolVar(&flagDigestInt8S, "int8-storage", false, "Request int8 storage")
	digestCmd.Flags().BoolVar(&flagDigestInt8A, "int8-arithmetic", false, "Request int8 arithmetic")
	digestCmd.Flags().StringArrayVar(&flagDigestSpecs, "spec", nil, "Specialization value as type:value (i32:64, u32:7, f32:0.5); repeatable")
	rootCmd.AddCommand(digestCmd)
}

func runDigest(_ *cobra.Command, _ []string) error {
	dev, cleanup, err := openDevice(flagDigestBackend)
	if err != nil {
		return err
	}
	defer cleanup()

	specs, err := parseSpecs(flagDigestSpecs)
	if err != nil {
		return err
	}

	opts := digestOptions()
	variant := vkcompute.SelectVariant(opts, dev.Info())
	concrete := vkcompute.KernelID(flagDigestKernel).Variant(variant)
	d := vkcompute.MakeDigest(concrete, opts, specs, flagDigestLocalX, flagDigestLocalY, flagDigestLocalZ)

	fmt.Printf("Variant:  %s (+%d)\n", variant, int32(variant))
	fmt.Printf("Concrete: %d\n", concrete)
	fmt.Printf("Digest:   %s\n", d)
	return nil
}

func digestOptions() vkcompute.OptionFlags {
	return vkcompute.OptionFlags{
		UseImageStorage:   flagDigestImage,
		UseFP16Packed:     flagDigestFP16P,
		UseFP16Storage:    flagDigestFP16S,
		UseFP16Arithmetic: flagDigestFP16A,
		UseInt8Storage:    flagDigestInt8S,
		UseInt8Arithmetic: flagDigestInt8A,
	}
}

// parseSpec converts one type:value literal to a specialization value.
func parseSpec(s string) (vkcompute.SpecValue, error) {
	kind, value, found := strings.Cut(s, ":")
	if !found {
		return vkcompute.SpecValue{}, fmt.Errorf("spec %q: want type:value, e.g. i32:64", s)
	}
	switch kind {
	case "i32":
		v, err := strconv.ParseInt(value, 10, 32)
		if err != nil {
			return vkcompute.SpecValue{}, fmt.Errorf("spec %q: %w", s, err)
		}
		return vkcompute.SpecInt32(int32(v)), nil
	case "u32":
		v, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return vkcompute.SpecValue{}, fmt.Errorf("spec %q: %w", s, err)
		}
		return vkcompute.SpecUint32(uint32(v)), nil
	case "f32":
		v, err := strconv.ParseFloat(value, 32)
		if err != nil {
			return vkcompute.SpecValue{}, fmt.Errorf("spec %q: %w", s, err)
		}
		return vkcompute.SpecFloat32(float32(v)), nil
	default:
		return vkcompute.SpecValue{}, fmt.Errorf("spec %q: unknown type %q (want i32, u32 or f32)", s, kind)
	}
}

func parseSpecs(in []string) ([]vkcompute.SpecValue, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make([]vkcompute.SpecValue, len(in))
	for i, s := range in {
		v, err := parseSpec(s)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
