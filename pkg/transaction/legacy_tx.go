package transaction

import "github.com/holiman/uint256"

// LegacyTx is a pre-EIP-2718 transaction. V carries the recovery id and, for
// EIP-155 transactions, the chain id.
type LegacyTx struct {
	Nonce    *uint256.Int
	GasPrice *uint256.Int
	Gas      *uint256.Int
	To       ToAddress
	Value    *uint256.Int
	Data     []byte
	V        uint64
	R        *uint256.Int
	S        *uint256.Int
}

func (tx *LegacyTx) txType() Type { return LegacyTxType }

func (tx *LegacyTx) nonce() *uint256.Int    { return tx.Nonce }
func (tx *LegacyTx) gas() *uint256.Int      { return tx.Gas }
func (tx *LegacyTx) to() ToAddress          { return tx.To }
func (tx *LegacyTx) value() *uint256.Int    { return tx.Value }
func (tx *LegacyTx) data() []byte           { return tx.Data }
func (tx *LegacyTx) accessList() AccessList { return nil }
func (tx *LegacyTx) chainID() *uint256.Int  { return nil }
