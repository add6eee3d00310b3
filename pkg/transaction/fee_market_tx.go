package transaction

import "github.com/holiman/uint256"

// FeeMarketTx is the EIP-1559 transaction payload.
type FeeMarketTx struct {
	ChainID              *uint256.Int
	Nonce                *uint256.Int
	MaxPriorityFeePerGas *uint256.Int
	MaxFeePerGas         *uint256.Int
	GasLimit             *uint256.Int
	To                   ToAddress
	Value                *uint256.Int
	Data                 []byte
	AccessList           AccessList
	YParity              uint64
	R                    *uint256.Int
	S                    *uint256.Int
}

func (tx *FeeMarketTx) txType() Type { return FeeMarketTxType }

func (tx *FeeMarketTx) nonce() *uint256.Int    { return tx.Nonce }
func (tx *FeeMarketTx) gas() *uint256.Int      { return tx.GasLimit }
func (tx *FeeMarketTx) to() ToAddress          { return tx.To }
func (tx *FeeMarketTx) value() *uint256.Int    { return tx.Value }
func (tx *FeeMarketTx) data() []byte           { return tx.Data }
func (tx *FeeMarketTx) accessList() AccessList { return tx.AccessList }
func (tx *FeeMarketTx) chainID() *uint256.Int  { return tx.ChainID }
