package execution

import "errors"

var (
	// ErrBlockNotFound indicates the execution client returned no block.
	ErrBlockNotFound = errors.New("block not found")

	// ErrUncleNotFound indicates an uncle listed by a block could not be fetched.
	ErrUncleNotFound = errors.New("uncle not found")

	// ErrInvalidBlock indicates a block response that could not be assembled
	// into a header and body.
	ErrInvalidBlock = errors.New("invalid block response")

	// ErrChainIDChanged indicates a node now reports a different chain id than
	// it did when it became ready.
	ErrChainIDChanged = errors.New("chain id changed")
)
