// Package transaction implements the execution-layer transaction formats found
// in block bodies: the legacy format and the typed access list (0x01) and fee
// market (0x02) envelopes.
package transaction

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
)

// Type is the transaction type discriminant.
type Type uint8

// Transaction type constants matching the EIP-2718 type bytes.
const (
	LegacyTxType     Type = 0x00
	AccessListTxType Type = 0x01
	FeeMarketTxType  Type = 0x02
)

func (t Type) String() string {
	switch t {
	case LegacyTxType:
		return "legacy"
	case AccessListTxType:
		return "access_list"
	case FeeMarketTxType:
		return "fee_market"
	default:
		return fmt.Sprintf("unknown(%#x)", uint8(t))
	}
}

// TxData is the consensus payload of a transaction. It is implemented by
// *LegacyTx, *AccessListTx and *FeeMarketTx.
type TxData interface {
	txType() Type

	nonce() *uint256.Int
	gas() *uint256.Int
	to() ToAddress
	value() *uint256.Int
	data() []byte
	accessList() AccessList
	chainID() *uint256.Int
}

// Transaction is a decoded execution-layer transaction. Its payload is set at
// construction and never modified afterwards.
type Transaction struct {
	inner TxData
}

// NewTx wraps a transaction payload. Nil integers, data and access lists are
// replaced by their empty values so that a transaction equals its decoded
// encoding.
func NewTx(inner TxData) *Transaction {
	normalize(inner)

	return &Transaction{inner: inner}
}

func normalize(inner TxData) {
	switch tx := inner.(type) {
	case *LegacyTx:
		if tx == nil {
			return
		}

		nonNil(&tx.Nonce, &tx.GasPrice, &tx.Gas, &tx.Value, &tx.R, &tx.S)
		tx.Data = nonNilBytes(tx.Data)
	case *AccessListTx:
		if tx == nil {
			return
		}

		nonNil(&tx.ChainID, &tx.Nonce, &tx.GasPrice, &tx.GasLimit, &tx.Value, &tx.R, &tx.S)
		tx.Data = nonNilBytes(tx.Data)
		tx.AccessList = tx.AccessList.normalized()
	case *FeeMarketTx:
		if tx == nil {
			return
		}

		nonNil(&tx.ChainID, &tx.Nonce, &tx.MaxPriorityFeePerGas, &tx.MaxFeePerGas, &tx.GasLimit, &tx.Value, &tx.R, &tx.S)
		tx.Data = nonNilBytes(tx.Data)
		tx.AccessList = tx.AccessList.normalized()
	}
}

func nonNil(fields ...**uint256.Int) {
	for _, f := range fields {
		if *f == nil {
			*f = new(uint256.Int)
		}
	}
}

func nonNilBytes(b []byte) []byte {
	if b == nil {
		return []byte{}
	}

	return b
}

// Type returns the transaction type.
func (tx *Transaction) Type() Type {
	return tx.inner.txType()
}

// Inner returns the transaction payload. Callers must not modify it.
func (tx *Transaction) Inner() TxData {
	return tx.inner
}

// Nonce returns the sender account nonce.
func (tx *Transaction) Nonce() *uint256.Int { return tx.inner.nonce() }

// Gas returns the gas limit.
func (tx *Transaction) Gas() *uint256.Int { return tx.inner.gas() }

// To returns the recipient, which is empty for contract creations.
func (tx *Transaction) To() ToAddress { return tx.inner.to() }

// Value returns the amount of wei transferred.
func (tx *Transaction) Value() *uint256.Int { return tx.inner.value() }

// Data returns the input data.
func (tx *Transaction) Data() []byte { return tx.inner.data() }

// AccessList returns the access list, nil for legacy transactions.
func (tx *Transaction) AccessList() AccessList { return tx.inner.accessList() }

// ChainID returns the chain id, nil for legacy transactions.
func (tx *Transaction) ChainID() *uint256.Int { return tx.inner.chainID() }

// Decode decodes a transaction from its wire encoding. The first byte selects
// the typed envelope; any byte other than a known type is taken to be the start
// of a legacy RLP list.
func Decode(b []byte) (*Transaction, error) {
	if len(b) == 0 {
		return nil, fmt.Errorf("%w: %w: empty input", ErrDecode, ErrUnrecognizedType)
	}

	var (
		inner   TxData
		payload []byte
	)

	switch Type(b[0]) {
	case AccessListTxType:
		inner, payload = new(AccessListTx), b[1:]
	case FeeMarketTxType:
		inner, payload = new(FeeMarketTx), b[1:]
	default:
		inner, payload = new(LegacyTx), b
	}

	if err := rlp.DecodeBytes(payload, inner); err != nil {
		return nil, fmt.Errorf("%w: %s transaction: %w", ErrDecode, inner.txType(), err)
	}

	return &Transaction{inner: inner}, nil
}

// Encode returns the wire encoding of the transaction: the bare RLP list for
// legacy transactions, the type byte followed by the RLP list otherwise.
func (tx *Transaction) Encode() ([]byte, error) {
	var buf bytes.Buffer

	if err := tx.EncodeTo(&buf); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// EncodeTo writes the wire encoding of the transaction to buf.
func (tx *Transaction) EncodeTo(buf *bytes.Buffer) error {
	if tx.inner == nil {
		return fmt.Errorf("%w: empty transaction", ErrUnrecognizedType)
	}

	if t := tx.Type(); t != LegacyTxType {
		buf.WriteByte(byte(t))
	}

	return rlp.Encode(buf, tx.inner)
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (tx *Transaction) MarshalBinary() ([]byte, error) {
	return tx.Encode()
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (tx *Transaction) UnmarshalBinary(b []byte) error {
	decoded, err := Decode(b)
	if err != nil {
		return err
	}

	tx.inner = decoded.inner

	return nil
}

// Hash returns the Keccak256 hash of the wire encoding.
func (tx *Transaction) Hash() (common.Hash, error) {
	enc, err := tx.Encode()
	if err != nil {
		return common.Hash{}, err
	}

	return crypto.Keccak256Hash(enc), nil
}
