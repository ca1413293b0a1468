package vkcompute

import "math"

// SpecValue is one 32-bit specialization constant. Integer and floating
// payloads share the same 4-byte representation: the digest and the
// device consume the raw bits, so the constructor only records how the
// caller wants to read the value back.
type SpecValue struct {
	bits uint32
}

// SpecInt32 returns a SpecValue carrying a signed 32-bit integer.
func SpecInt32(v int32) SpecValue { return SpecValue{bits: uint32(v)} }

// SpecUint32 returns a SpecValue carrying an unsigned 32-bit integer.
func SpecUint32(v uint32) SpecValue { return SpecValue{bits: v} }

// SpecFloat32 returns a SpecValue carrying a 32-bit float.
func SpecFloat32(v float32) SpecValue { return SpecValue{bits: math.Float32bits(v)} }

// Int32 reads the payload as a signed 32-bit integer.
func (s SpecValue) Int32() int32 { return int32(s.bits) }

// Uint32 reads the payload as an unsigned 32-bit integer.
func (s SpecValue) Uint32() uint32 { return s.bits }

// Float32 reads the payload as a 32-bit float.
func (s SpecValue) Float32() float32 { return math.Float32frombits(s.bits) }

// Bits returns the raw 4-byte payload.
func (s SpecValue) Bits() uint32 { return s.bits }
