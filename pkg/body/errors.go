package body

import "errors"

// Sentinel errors for block body encoding, decoding and root derivation.
var (
	// ErrContainerDecode indicates a malformed SSZ container (bad offsets,
	// oversized fields).
	ErrContainerDecode = errors.New("block body container decode error")

	// ErrContainerEncode indicates a body that does not fit the container limits.
	ErrContainerEncode = errors.New("block body container encode error")

	// ErrRootDerivation indicates a root could not be computed.
	ErrRootDerivation = errors.New("block body root derivation error")

	// ErrMissingHeader indicates a body validated without a header.
	ErrMissingHeader = errors.New("block body header missing")

	// ErrRootMismatch indicates a body that does not match its header.
	ErrRootMismatch = errors.New("block body root mismatch")
)
