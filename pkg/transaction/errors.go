package transaction

import "errors"

// Sentinel errors for transaction decoding and ingestion.
var (
	// ErrDecode indicates a malformed wire-format transaction.
	ErrDecode = errors.New("transaction decode error")

	// ErrUnrecognizedType indicates the type discriminant could not be read.
	ErrUnrecognizedType = errors.New("unrecognized transaction type")

	// ErrJSONIngest indicates a JSON-RPC transaction object could not be converted.
	ErrJSONIngest = errors.New("transaction json ingest error")

	// ErrInvalidAddressLength indicates a recipient that is neither empty nor 20 bytes.
	ErrInvalidAddressLength = errors.New("invalid address length")
)
