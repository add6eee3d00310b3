package transaction

import "github.com/holiman/uint256"

// AccessListTx is the EIP-2930 transaction payload.
type AccessListTx struct {
	ChainID    *uint256.Int
	Nonce      *uint256.Int
	GasPrice   *uint256.Int
	GasLimit   *uint256.Int
	To         ToAddress
	Value      *uint256.Int
	Data       []byte
	AccessList AccessList
	YParity    uint64
	R          *uint256.Int
	S          *uint256.Int
}

func (tx *AccessListTx) txType() Type { return AccessListTxType }

func (tx *AccessListTx) nonce() *uint256.Int    { return tx.Nonce }
func (tx *AccessListTx) gas() *uint256.Int      { return tx.GasLimit }
func (tx *AccessListTx) to() ToAddress          { return tx.To }
func (tx *AccessListTx) value() *uint256.Int    { return tx.Value }
func (tx *AccessListTx) data() []byte           { return tx.Data }
func (tx *AccessListTx) accessList() AccessList { return tx.AccessList }
func (tx *AccessListTx) chainID() *uint256.Int  { return tx.ChainID }
