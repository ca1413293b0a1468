package vkcompute

import "errors"

// Sentinel errors returned by cache operations. Wrapped values satisfy
// errors.Is against these.
var (
	// ErrNilDevice is returned by New when the device is nil.
	ErrNilDevice = errors.New("vkcompute: nil device")

	// ErrClosed is returned by lookups and builds after Close.
	ErrClosed = errors.New("vkcompute: cache closed")

	// ErrSpecializationMismatch is returned when the number of provided
	// specialization values differs from the count the shader declares.
	// The mismatch is detected before any device resource is created.
	ErrSpecializationMismatch = errors.New("vkcompute: specialization value count does not match shader")

	// ErrNoShaderProvider is returned by GetOrCreate when the cache was
	// constructed without a shader provider.
	ErrNoShaderProvider = errors.New("vkcompute: no shader provider")

	// ErrNoSignatureResolver is returned by New when the signature
	// resolver is nil.
	ErrNoSignatureResolver = errors.New("vkcompute: no signature resolver")

	// ErrEmptyBytecode is returned when a shader's SPIR-V word stream is
	// empty.
	ErrEmptyBytecode = errors.New("vkcompute: empty shader bytecode")
)
