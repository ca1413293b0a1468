package vkcompute

// KernelID identifies a shader registry entry. A kernel's precision and
// layout renditions occupy consecutive ids after its base id; Variant
// derives the concrete id the registry serves bytecode for.
type KernelID int32

// Variant returns the concrete registry id for rendition v of kernel k.
func (k KernelID) Variant(v Variant) KernelID { return k + KernelID(v) }

// Variant names one precision/layout rendition of a kernel. The numeric
// value is the id offset from the kernel's base id; registries lay
// renditions out consecutively in this order.
type Variant int32

const (
	// VariantFP32 is the buffer-backed full-precision baseline.
	VariantFP32 Variant = 0
	// VariantFP16Packed stores packed half floats in buffers.
	VariantFP16Packed Variant = 1
	// VariantFP16PackedArith adds half arithmetic to the packed layout.
	VariantFP16PackedArith Variant = 2
	// VariantFP16Storage stores half floats in buffers.
	VariantFP16Storage Variant = 3
	// VariantFP16StorageArith adds half arithmetic to half storage.
	VariantFP16StorageArith Variant = 4
	// VariantImage is the image-backed full-precision baseline.
	VariantImage Variant = 5
	// VariantImageFP16Packed is the image-backed packed-half layout.
	VariantImageFP16Packed Variant = 6
	// VariantImageFP16PackedArith adds half arithmetic to the image
	// packed layout.
	VariantImageFP16PackedArith Variant = 7
	// VariantImageFP16Storage is the image-backed half-storage layout.
	VariantImageFP16Storage Variant = 8
	// VariantImageFP16StorageArith adds half arithmetic to image half
	// storage.
	VariantImageFP16StorageArith Variant = 9
)

// String returns a short variant name.
func (v Variant) String() string {
	switch v {
	case VariantFP32:
		return "fp32"
	case VariantFP16Packed:
		return "fp16p"
	case VariantFP16PackedArith:
		return "fp16pa"
	case VariantFP16Storage:
		return "fp16s"
	case VariantFP16StorageArith:
		return "fp16sa"
	case VariantImage:
		return "image"
	case VariantImageFP16Packed:
		return "image-fp16p"
	case VariantImageFP16PackedArith:
		return "image-fp16pa"
	case VariantImageFP16Storage:
		return "image-fp16s"
	case VariantImageFP16StorageArith:
		return "image-fp16sa"
	default:
		return "unknown"
	}
}

// Eligibility predicates shared by the rule table. A capability counts
// only when the caller requests it and the device supports it.

func fp16PackedEligible(o OptionFlags, info DeviceInfo) bool {
	return o.UseFP16Packed && info.SupportsFP16Packed
}

func fp16StorageEligible(o OptionFlags, info DeviceInfo) bool {
	return o.UseFP16Storage && info.SupportsFP16Storage
}

func fp16ArithEligible(o OptionFlags, info DeviceInfo) bool {
	return o.UseFP16Arithmetic && info.SupportsFP16Arithmetic
}

func imageEligible(o OptionFlags, info DeviceInfo) bool {
	return o.UseImageStorage && !info.BugBindingIDAlias
}

// variantRule pairs an eligibility predicate with the rendition it
// selects.
type variantRule struct {
	variant Variant
	matches func(o OptionFlags, info DeviceInfo) bool
}

// variantRules is evaluated top to bottom; the first match wins. The
// order encodes preference: image layouts over buffer layouts, fp16
// storage over fp16 packed, arithmetic-capable renditions over
// storage-only ones. The binding-id-alias erratum removes every image
// rule at once because imageEligible fails.
var variantRules = []variantRule{
	{VariantImageFP16StorageArith, func(o OptionFlags, i DeviceInfo) bool {
		return imageEligible(o, i) && fp16StorageEligible(o, i) && fp16ArithEligible(o, i)
	}},
	{VariantImageFP16PackedArith, func(o OptionFlags, i DeviceInfo) bool {
		return imageEligible(o, i) && fp16PackedEligible(o, i) && fp16ArithEligible(o, i)
	}},
	{VariantImageFP16Storage, func(o OptionFlags, i DeviceInfo) bool {
		return imageEligible(o, i) && fp16StorageEligible(o, i)
	}},
	{VariantImageFP16Packed, func(o OptionFlags, i DeviceInfo) bool {
		return imageEligible(o, i) && fp16PackedEligible(o, i)
	}},
	{VariantImage, imageEligible},
	{VariantFP16StorageArith, func(o OptionFlags, i DeviceInfo) bool {
		return fp16StorageEligible(o, i) && fp16ArithEligible(o, i)
	}},
	{VariantFP16PackedArith, func(o OptionFlags, i DeviceInfo) bool {
		return fp16PackedEligible(o, i) && fp16ArithEligible(o, i)
	}},
	{VariantFP16Storage, fp16StorageEligible},
	{VariantFP16Packed, fp16PackedEligible},
	{VariantFP32, func(OptionFlags, DeviceInfo) bool { return true }},
}

// SelectVariant picks the best rendition the options request and the
// device supports. The fp32 baseline matches unconditionally, so
// selection always succeeds.
func SelectVariant(opts OptionFlags, info DeviceInfo) Variant {
	for _, r := range variantRules {
		if r.matches(opts, info) {
			return r.variant
		}
	}
	return VariantFP32
}
