package vkcompute

// OptionFlags requests an execution strategy for a kernel. A flag is a
// request, not a guarantee: the variant selector grants it only when the
// device reports the matching capability (see SelectVariant).
//
// OptionFlags is caller-owned and read-only to the cache. It is packed
// into the digest at lookup time and never stored.
type OptionFlags struct {
	// UseImageStorage selects image-backed kernels over buffer-backed ones.
	UseImageStorage bool

	// UseFP16Packed enables packed half precision (fp16 pairs stored in
	// 32-bit words).
	UseFP16Packed bool

	// UseFP16Storage enables half-precision buffer storage.
	UseFP16Storage bool

	// UseFP16Arithmetic enables half-precision arithmetic inside kernels.
	UseFP16Arithmetic bool

	// UseInt8Storage enables int8 buffer storage.
	UseInt8Storage bool

	// UseInt8Arithmetic enables int8 arithmetic inside kernels.
	UseInt8Arithmetic bool
}

// packed returns the option bits at their frozen digest positions: bit 7
// image storage, bit 6 fp16 packed, bit 5 fp16 storage, bit 4 fp16
// arithmetic, bit 3 int8 storage, bit 2 int8 arithmetic. Bits 1 and 0
// are reserved. Digests may be compared across processes, so the
// positions never change.
func (o OptionFlags) packed() uint32 {
	var bits uint32
	if o.UseImageStorage {
		bits |= 1 << 7
	}
	if o.UseFP16Packed {
		bits |= 1 << 6
	}
	if o.UseFP16Storage {
		bits |= 1 << 5
	}
	if o.UseFP16Arithmetic {
		bits |= 1 << 4
	}
	if o.UseInt8Storage {
		bits |= 1 << 3
	}
	if o.UseInt8Arithmetic {
		bits |= 1 << 2
	}
	return bits
}
