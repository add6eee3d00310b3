// Package body models the body of a post-London, pre-Shanghai execution block:
// its transactions and uncle headers, their SSZ container encoding and the
// roots committing to them.
package body

import (
	"fmt"

	"github.com/ethpandaops/execution-body/pkg/transaction"
)

// BlockBody holds the ordered transactions and uncle headers of a block.
// A body is immutable once constructed and safe for concurrent reads.
type BlockBody struct {
	Transactions []*transaction.Transaction
	Uncles       HeaderList
}

// New returns a body over the given transactions and uncles. Nil lists are
// stored as empty lists so that decoded and constructed bodies compare equal.
func New(txs []*transaction.Transaction, uncles HeaderList) *BlockBody {
	if txs == nil {
		txs = []*transaction.Transaction{}
	}

	if uncles == nil {
		uncles = HeaderList{}
	}

	return &BlockBody{
		Transactions: txs,
		Uncles:       uncles,
	}
}

// DecodeSSZ decodes a body from its SSZ container encoding. Container limits
// are checked before any transaction or header is decoded.
func DecodeSSZ(buf []byte) (*BlockBody, error) {
	var parts encodedParts

	if err := parts.UnmarshalSSZ(buf); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrContainerDecode, err)
	}

	txs := make([]*transaction.Transaction, 0, len(parts.EncodedTxs))

	for i, raw := range parts.EncodedTxs {
		tx, err := transaction.Decode(raw)
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i, err)
		}

		txs = append(txs, tx)
	}

	uncles, err := DecodeHeaderList(parts.RLPUncles)
	if err != nil {
		return nil, err
	}

	return New(txs, uncles), nil
}

func (b *BlockBody) encodedParts() (*encodedParts, error) {
	parts := &encodedParts{
		EncodedTxs: make([][]byte, 0, len(b.Transactions)),
	}

	for i, tx := range b.Transactions {
		enc, err := tx.Encode()
		if err != nil {
			return nil, fmt.Errorf("%w: transaction %d: %w", ErrContainerEncode, i, err)
		}

		parts.EncodedTxs = append(parts.EncodedTxs, enc)
	}

	uncles, err := b.Uncles.Encode()
	if err != nil {
		return nil, fmt.Errorf("%w: uncles: %w", ErrContainerEncode, err)
	}

	parts.RLPUncles = uncles

	return parts, nil
}

// MarshalSSZ returns the SSZ container encoding of the body.
func (b *BlockBody) MarshalSSZ() ([]byte, error) {
	return b.MarshalSSZTo(nil)
}

// MarshalSSZTo appends the SSZ container encoding of the body to dst.
func (b *BlockBody) MarshalSSZTo(dst []byte) ([]byte, error) {
	parts, err := b.encodedParts()
	if err != nil {
		return nil, err
	}

	out, err := parts.MarshalSSZTo(dst)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrContainerEncode, err)
	}

	return out, nil
}

// UnmarshalSSZ replaces b with the body decoded from buf.
func (b *BlockBody) UnmarshalSSZ(buf []byte) error {
	decoded, err := DecodeSSZ(buf)
	if err != nil {
		return err
	}

	*b = *decoded

	return nil
}

// SizeSSZ returns the length of the container encoding. Container limits are
// not checked, so an oversized body reports its full size. It returns 0 when a
// transaction or the uncles cannot be RLP encoded; callers that need the cause
// must use MarshalSSZ, which reports it.
func (b *BlockBody) SizeSSZ() int {
	parts, err := b.encodedParts()
	if err != nil {
		return 0
	}

	return parts.SizeSSZ()
}
