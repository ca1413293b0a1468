package vkcompute

import (
	"encoding/binary"
	"fmt"
	"math/bits"
)

// Digest fingerprints one pipeline configuration: the concrete kernel
// id, the packed option bits, the workgroup shape, and two independent
// hashes over the specialization payload. Digest is comparable; equality
// is field-wise ==. A false match requires both hashes to collide with
// every other field equal, which the design accepts as fingerprint
// semantics.
type Digest struct {
	// Kernel is the concrete (variant-resolved) kernel id.
	Kernel KernelID
	// OptBits holds the packed option flags.
	OptBits uint32
	// LocalX, LocalY, LocalZ are the workgroup dimensions.
	LocalX, LocalY, LocalZ uint32
	// SpecMurmur is the murmur3 hash over the specialization words.
	SpecMurmur uint32
	// SpecFNV is the FNV-1a hash over the little-endian specialization
	// bytes.
	SpecFNV uint32
}

// MakeDigest fingerprints a pipeline configuration. The flag packing and
// both hash functions are frozen: digests computed by other processes or
// recorded offline compare equal for equal configurations.
func MakeDigest(kernel KernelID, opts OptionFlags, specs []SpecValue, localX, localY, localZ uint32) Digest {
	words := make([]uint32, len(specs))
	for i, s := range specs {
		words[i] = s.bits
	}
	return Digest{
		Kernel:     kernel,
		OptBits:    opts.packed(),
		LocalX:     localX,
		LocalY:     localY,
		LocalZ:     localZ,
		SpecMurmur: murmur3Words(words),
		SpecFNV:    fnvWords(words),
	}
}

// String formats the digest for logs and tooling.
func (d Digest) String() string {
	return fmt.Sprintf("kernel=%d opt=%#02x local=%dx%dx%d spec=%08x:%08x",
		d.Kernel, d.OptBits, d.LocalX, d.LocalY, d.LocalZ, d.SpecMurmur, d.SpecFNV)
}

// flightKey serializes the digest into a fixed-width string used to
// group concurrent builds. The layout mirrors the struct fields,
// little-endian, 28 bytes.
func (d Digest) flightKey() string {
	var b [28]byte
	binary.LittleEndian.PutUint32(b[0:], uint32(d.Kernel))
	binary.LittleEndian.PutUint32(b[4:], d.OptBits)
	binary.LittleEndian.PutUint32(b[8:], d.LocalX)
	binary.LittleEndian.PutUint32(b[12:], d.LocalY)
	binary.LittleEndian.PutUint32(b[16:], d.LocalZ)
	binary.LittleEndian.PutUint32(b[20:], d.SpecMurmur)
	binary.LittleEndian.PutUint32(b[24:], d.SpecFNV)
	return string(b[:])
}

// murmur3Words hashes word-aligned input with murmur3_x86_32, seed 0.
// The result matches the canonical byte-wise implementation for inputs
// that are a whole number of words.
func murmur3Words(words []uint32) uint32 {
	var h uint32
	for _, w := range words {
		k := w
		k *= 0xcc9e2d51
		k = bits.RotateLeft32(k, 15)
		k *= 0x1b873593
		h ^= k
		h = bits.RotateLeft32(h, 13)
		h = h*5 + 0xe6546b64
	}
	h ^= uint32(len(words)) * 4
	h ^= h >> 16
	h *= 0x85ebca6b
	h ^= h >> 13
	h *= 0xc2b2ae35
	h ^= h >> 16
	return h
}

// fnvWords hashes the little-endian serialization of words with
// FNV-1a 32. Equivalent to fnv1a32 over the 4*len(words) byte stream
// without materializing it.
func fnvWords(words []uint32) uint32 {
	h := uint32(0x811c9dc5)
	for _, w := range words {
		for shift := 0; shift < 32; shift += 8 {
			h ^= (w >> shift) & 0xff
			h *= 0x01000193
		}
	}
	return h
}

// fnv1a32 is byte-wise FNV-1a 32.
func fnv1a32(data []byte) uint32 {
	h := uint32(0x811c9dc5)
	for _, b := range data {
		h ^= uint32(b)
		h *= 0x01000193
	}
	return h
}
