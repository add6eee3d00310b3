package transaction

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"github.com/valyala/fastjson"
)

// DefaultChainID is injected into transaction objects that carry no chainId.
// Block bodies are only ever ingested from mainnet nodes.
const DefaultChainID = "0x1"

var (
	errMissingField      = errors.New("missing field")
	errParityMismatch    = errors.New("v and yParity mismatch")
	errQuantityOverflow  = errors.New("quantity exceeds 256 bits")
	errInvalidStorageKey = errors.New("storage key must be 32 bytes")
)

// FromJSON converts a transaction object as returned by the execution JSON-RPC
// API (eth_getBlockByNumber with full transactions, eth_getTransactionByHash).
func FromJSON(input []byte) (*Transaction, error) {
	var p fastjson.Parser

	v, err := p.ParseBytes(input)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrJSONIngest, err)
	}

	return fromJSONValue(v)
}

// UnmarshalJSON implements json.Unmarshaler.
func (tx *Transaction) UnmarshalJSON(input []byte) error {
	decoded, err := FromJSON(input)
	if err != nil {
		return err
	}

	tx.inner = decoded.inner

	return nil
}

func fromJSONValue(v *fastjson.Value) (*Transaction, error) {
	obj, err := v.Object()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrJSONIngest, err)
	}

	typ, err := jsonTxType(obj)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrJSONIngest, err)
	}

	if v := obj.Get("chainId"); v == nil || v.Type() == fastjson.TypeNull {
		var arena fastjson.Arena

		obj.Set("chainId", arena.NewString(DefaultChainID))
	}

	f := &jsonFields{obj: obj}

	var inner TxData

	switch typ {
	case LegacyTxType:
		inner = &LegacyTx{
			Nonce:    f.quantity("nonce"),
			GasPrice: f.quantity("gasPrice"),
			Gas:      f.quantity("gas"),
			To:       f.to("to"),
			Value:    f.quantity("value"),
			Data:     f.bytes("input"),
			V:        f.uint64("v"),
			R:        f.quantity("r"),
			S:        f.quantity("s"),
		}
	case AccessListTxType:
		inner = &AccessListTx{
			ChainID:    f.quantity("chainId"),
			Nonce:      f.quantity("nonce"),
			GasPrice:   f.quantity("gasPrice"),
			GasLimit:   f.quantity("gas"),
			To:         f.to("to"),
			Value:      f.quantity("value"),
			Data:       f.bytes("input"),
			AccessList: f.accessList("accessList"),
			YParity:    f.yParity(),
			R:          f.quantity("r"),
			S:          f.quantity("s"),
		}
	case FeeMarketTxType:
		inner = &FeeMarketTx{
			ChainID:              f.quantity("chainId"),
			Nonce:                f.quantity("nonce"),
			MaxPriorityFeePerGas: f.quantity("maxPriorityFeePerGas"),
			MaxFeePerGas:         f.quantity("maxFeePerGas"),
			GasLimit:             f.quantity("gas"),
			To:                   f.to("to"),
			Value:                f.quantity("value"),
			Data:                 f.bytes("input"),
			AccessList:           f.accessList("accessList"),
			YParity:              f.yParity(),
			R:                    f.quantity("r"),
			S:                    f.quantity("s"),
		}
	}

	if f.err != nil {
		return nil, fmt.Errorf("%w: %s transaction: %w", ErrJSONIngest, typ, f.err)
	}

	return NewTx(inner), nil
}

func jsonTxType(obj *fastjson.Object) (Type, error) {
	v := obj.Get("type")
	if v == nil || v.Type() == fastjson.TypeNull {
		return 0, fmt.Errorf("%w: type", errMissingField)
	}

	s, err := v.StringBytes()
	if err != nil {
		return 0, fmt.Errorf("type: %w", err)
	}

	n, err := hexutil.DecodeUint64(string(s))
	if err != nil {
		return 0, fmt.Errorf("type: %w", err)
	}

	switch t := Type(n); t {
	case LegacyTxType, AccessListTxType, FeeMarketTxType:
		return t, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnrecognizedType, s)
	}
}

// jsonFields reads typed fields from a transaction object. The first error is
// kept and every later read becomes a no-op.
type jsonFields struct {
	obj *fastjson.Object
	err error
}

func (f *jsonFields) fail(key string, err error) {
	if f.err == nil {
		f.err = fmt.Errorf("%s: %w", key, err)
	}
}

func (f *jsonFields) has(key string) bool {
	v := f.obj.Get(key)

	return v != nil && v.Type() != fastjson.TypeNull
}

func (f *jsonFields) str(key string) (string, bool) {
	if f.err != nil {
		return "", false
	}

	v := f.obj.Get(key)
	if v == nil || v.Type() == fastjson.TypeNull {
		f.fail(key, errMissingField)

		return "", false
	}

	s, err := v.StringBytes()
	if err != nil {
		f.fail(key, err)

		return "", false
	}

	return string(s), true
}

func (f *jsonFields) quantity(key string) *uint256.Int {
	s, ok := f.str(key)
	if !ok {
		return nil
	}

	return f.parseQuantity(key, s)
}

func (f *jsonFields) parseQuantity(key, s string) *uint256.Int {
	b, err := hexutil.DecodeBig(s)
	if err != nil {
		f.fail(key, err)

		return nil
	}

	n, overflow := uint256.FromBig(b)
	if overflow {
		f.fail(key, errQuantityOverflow)

		return nil
	}

	return n
}

func (f *jsonFields) uint64(key string) uint64 {
	s, ok := f.str(key)
	if !ok {
		return 0
	}

	n, err := hexutil.DecodeUint64(s)
	if err != nil {
		f.fail(key, err)

		return 0
	}

	return n
}

func (f *jsonFields) bytes(key string) []byte {
	s, ok := f.str(key)
	if !ok {
		return nil
	}

	b, err := hexutil.Decode(s)
	if err != nil {
		f.fail(key, err)

		return nil
	}

	return b
}

// to reads an optional recipient; absent or null means contract creation.
func (f *jsonFields) to(key string) ToAddress {
	if f.err != nil || !f.has(key) {
		return EmptyToAddress()
	}

	s, ok := f.str(key)
	if !ok {
		return EmptyToAddress()
	}

	addr, err := parseToAddress(s)
	if err != nil {
		f.fail(key, err)
	}

	return addr
}

// yParity prefers yParity and falls back to v. When both are present they
// must agree.
func (f *jsonFields) yParity() uint64 {
	if !f.has("yParity") {
		return f.uint64("v")
	}

	parity := f.uint64("yParity")

	if f.err == nil && f.has("v") {
		if v := f.uint64("v"); f.err == nil && v != parity {
			f.fail("yParity", errParityMismatch)
		}
	}

	return parity
}

func (f *jsonFields) accessList(key string) AccessList {
	if f.err != nil {
		return nil
	}

	v := f.obj.Get(key)
	if v == nil || v.Type() == fastjson.TypeNull {
		f.fail(key, errMissingField)

		return nil
	}

	items, err := v.Array()
	if err != nil {
		f.fail(key, err)

		return nil
	}

	list := make(AccessList, 0, len(items))

	for i, item := range items {
		entry, err := item.Object()
		if err != nil {
			f.fail(fmt.Sprintf("%s[%d]", key, i), err)

			return nil
		}

		sub := &jsonFields{obj: entry}

		addr := sub.bytes("address")
		if sub.err == nil && len(addr) != common.AddressLength {
			sub.fail("address", ErrInvalidAddressLength)
		}

		keys := sub.storageKeys("storageKeys")

		if sub.err != nil {
			f.fail(fmt.Sprintf("%s[%d]", key, i), sub.err)

			return nil
		}

		list = append(list, AccessListItem{
			Address:     common.BytesToAddress(addr),
			StorageKeys: keys,
		})
	}

	return list
}

func (f *jsonFields) storageKeys(key string) []common.Hash {
	if f.err != nil {
		return nil
	}

	v := f.obj.Get(key)
	if v == nil || v.Type() == fastjson.TypeNull {
		f.fail(key, errMissingField)

		return nil
	}

	values, err := v.Array()
	if err != nil {
		f.fail(key, err)

		return nil
	}

	keys := make([]common.Hash, 0, len(values))

	for i, kv := range values {
		s, err := kv.StringBytes()
		if err != nil {
			f.fail(fmt.Sprintf("%s[%d]", key, i), err)

			return nil
		}

		b, err := hexutil.Decode(string(s))
		if err != nil {
			f.fail(fmt.Sprintf("%s[%d]", key, i), err)

			return nil
		}

		if len(b) != common.HashLength {
			f.fail(fmt.Sprintf("%s[%d]", key, i), errInvalidStorageKey)

			return nil
		}

		keys = append(keys, common.BytesToHash(b))
	}

	return keys
}

// txJSON is the JSON-RPC representation produced by MarshalJSON.
type txJSON struct {
	Type                 hexutil.Uint64   `json:"type"`
	ChainID              *hexutil.Big     `json:"chainId,omitempty"`
	Nonce                *hexutil.Big     `json:"nonce"`
	To                   *common.Address  `json:"to"`
	Gas                  *hexutil.Big     `json:"gas"`
	GasPrice             *hexutil.Big     `json:"gasPrice,omitempty"`
	MaxPriorityFeePerGas *hexutil.Big     `json:"maxPriorityFeePerGas,omitempty"`
	MaxFeePerGas         *hexutil.Big     `json:"maxFeePerGas,omitempty"`
	Value                *hexutil.Big     `json:"value"`
	Input                hexutil.Bytes    `json:"input"`
	AccessList           *[]accessTupleJS `json:"accessList,omitempty"`
	V                    hexutil.Uint64   `json:"v"`
	YParity              *hexutil.Uint64  `json:"yParity,omitempty"`
	R                    *hexutil.Big     `json:"r"`
	S                    *hexutil.Big     `json:"s"`
}

type accessTupleJS struct {
	Address     common.Address `json:"address"`
	StorageKeys []common.Hash  `json:"storageKeys"`
}

func bigOf(n *uint256.Int) *hexutil.Big {
	if n == nil {
		return (*hexutil.Big)(new(uint256.Int).ToBig())
	}

	return (*hexutil.Big)(n.ToBig())
}

func accessListJSON(al AccessList) *[]accessTupleJS {
	out := make([]accessTupleJS, 0, len(al))

	for _, item := range al {
		keys := item.StorageKeys
		if keys == nil {
			keys = []common.Hash{}
		}

		out = append(out, accessTupleJS{Address: item.Address, StorageKeys: keys})
	}

	return &out
}

// MarshalJSON renders the transaction in the JSON-RPC shape accepted by FromJSON.
func (tx *Transaction) MarshalJSON() ([]byte, error) {
	var enc txJSON

	switch itx := tx.inner.(type) {
	case *LegacyTx:
		enc.Type = hexutil.Uint64(LegacyTxType)
		enc.Nonce = bigOf(itx.Nonce)
		enc.GasPrice = bigOf(itx.GasPrice)
		enc.Gas = bigOf(itx.Gas)
		enc.Value = bigOf(itx.Value)
		enc.Input = itx.Data
		enc.V = hexutil.Uint64(itx.V)
		enc.R = bigOf(itx.R)
		enc.S = bigOf(itx.S)
	case *AccessListTx:
		enc.Type = hexutil.Uint64(AccessListTxType)
		enc.ChainID = bigOf(itx.ChainID)
		enc.Nonce = bigOf(itx.Nonce)
		enc.GasPrice = bigOf(itx.GasPrice)
		enc.Gas = bigOf(itx.GasLimit)
		enc.Value = bigOf(itx.Value)
		enc.Input = itx.Data
		enc.AccessList = accessListJSON(itx.AccessList)
		enc.V = hexutil.Uint64(itx.YParity)
		enc.YParity = (*hexutil.Uint64)(&itx.YParity)
		enc.R = bigOf(itx.R)
		enc.S = bigOf(itx.S)
	case *FeeMarketTx:
		enc.Type = hexutil.Uint64(FeeMarketTxType)
		enc.ChainID = bigOf(itx.ChainID)
		enc.Nonce = bigOf(itx.Nonce)
		enc.MaxPriorityFeePerGas = bigOf(itx.MaxPriorityFeePerGas)
		enc.MaxFeePerGas = bigOf(itx.MaxFeePerGas)
		enc.Gas = bigOf(itx.GasLimit)
		enc.Value = bigOf(itx.Value)
		enc.Input = itx.Data
		enc.AccessList = accessListJSON(itx.AccessList)
		enc.V = hexutil.Uint64(itx.YParity)
		enc.YParity = (*hexutil.Uint64)(&itx.YParity)
		enc.R = bigOf(itx.R)
		enc.S = bigOf(itx.S)
	default:
		return nil, fmt.Errorf("%w: empty transaction", ErrUnrecognizedType)
	}

	if addr, ok := tx.To().Address(); ok {
		enc.To = &addr
	}

	return json.Marshal(&enc)
}
