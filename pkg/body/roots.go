package body

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/ethpandaops/execution-body/pkg/trie"
)

// TransactionsRoot returns the root of the trie mapping the RLP encoded index
// of every transaction to its canonical encoding.
func (b *BlockBody) TransactionsRoot() (common.Hash, error) {
	t := trie.New()

	for i, tx := range b.Transactions {
		enc, err := tx.Encode()
		if err != nil {
			return common.Hash{}, fmt.Errorf("%w: transaction %d: %w", ErrRootDerivation, i, err)
		}

		if err := t.Insert(rlp.AppendUint64(nil, uint64(i)), enc); err != nil {
			return common.Hash{}, fmt.Errorf("%w: transaction %d: %w", ErrRootDerivation, i, err)
		}
	}

	return t.Hash(), nil
}

// UnclesRoot returns the Keccak256 of the RLP encoded uncle list.
func (b *BlockBody) UnclesRoot() (common.Hash, error) {
	enc, err := b.Uncles.Encode()
	if err != nil {
		return common.Hash{}, fmt.Errorf("%w: uncles: %w", ErrRootDerivation, err)
	}

	return crypto.Keccak256Hash(enc), nil
}

// Validate checks the body against the transactions and uncles roots of
// header.
func (b *BlockBody) Validate(header *types.Header) error {
	if b == nil {
		return fmt.Errorf("%w: nil body", ErrRootDerivation)
	}

	if header == nil {
		return ErrMissingHeader
	}

	txRoot, err := b.TransactionsRoot()
	if err != nil {
		return err
	}

	if txRoot != header.TxHash {
		return fmt.Errorf("%w: transactions root %s, header has %s", ErrRootMismatch, txRoot, header.TxHash)
	}

	unclesRoot, err := b.UnclesRoot()
	if err != nil {
		return err
	}

	if unclesRoot != header.UncleHash {
		return fmt.Errorf("%w: uncles root %s, header has %s", ErrRootMismatch, unclesRoot, header.UncleHash)
	}

	return nil
}
