package body

import (
	"fmt"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/ethpandaops/execution-body/pkg/transaction"
)

// HeaderList is the ordered list of uncle headers of a block. It encodes as a
// single RLP list of headers.
type HeaderList []*types.Header

// Encode returns the RLP encoding of the list.
func (l HeaderList) Encode() ([]byte, error) {
	return rlp.EncodeToBytes(l)
}

// DecodeHeaderList decodes an RLP list of headers.
func DecodeHeaderList(b []byte) (HeaderList, error) {
	var list HeaderList

	if err := rlp.DecodeBytes(b, &list); err != nil {
		return nil, fmt.Errorf("%w: uncles: %w", transaction.ErrDecode, err)
	}

	return list, nil
}
