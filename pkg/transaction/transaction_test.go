package transaction

import (
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// loadWireFixtures returns the raw transactions of mainnet block 14764013 keyed
// by their position name (TX1..TX19).
func loadWireFixtures(t *testing.T) map[string][]byte {
	t.Helper()

	raw, err := os.ReadFile("testdata/block_14764013_txs.json")
	require.NoError(t, err)

	var encoded map[string]string
	require.NoError(t, json.Unmarshal(raw, &encoded))

	out := make(map[string][]byte, len(encoded))

	for name, h := range encoded {
		b, err := hexutil.Decode(h)
		require.NoError(t, err)

		out[name] = b
	}

	return out
}

func u256(v uint64) *uint256.Int {
	return uint256.NewInt(v)
}

func TestDecodeEncode_BlockFixtures(t *testing.T) {
	fixtures := loadWireFixtures(t)

	tests := []struct {
		name          string
		expectedType  Type
		expectedNonce uint64
		hasAccessList bool
	}{
		{name: "TX7", expectedType: LegacyTxType, expectedNonce: 132984},
		{name: "TX8", expectedType: LegacyTxType, expectedNonce: 19177},
		{name: "TX9", expectedType: LegacyTxType, expectedNonce: 19178},
		{name: "TX4", expectedType: FeeMarketTxType, expectedNonce: 455},
		{name: "TX5", expectedType: FeeMarketTxType, expectedNonce: 4414},
		{name: "TX17", expectedType: FeeMarketTxType, expectedNonce: 1544975},
		{name: "TX6", expectedType: FeeMarketTxType, expectedNonce: 41942, hasAccessList: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wire, ok := fixtures[tt.name]
			require.True(t, ok, "missing fixture")

			tx, err := Decode(wire)
			require.NoError(t, err)

			assert.Equal(t, tt.expectedType, tx.Type())
			assert.Equal(t, tt.expectedNonce, tx.Nonce().Uint64())
			assert.Equal(t, tt.hasAccessList, len(tx.AccessList()) > 0)

			encoded, err := tx.Encode()
			require.NoError(t, err)
			assert.Equal(t, hexutil.Encode(wire), hexutil.Encode(encoded))
		})
	}
}

func TestHash_MatchesGoEthereum(t *testing.T) {
	for name, wire := range loadWireFixtures(t) {
		t.Run(name, func(t *testing.T) {
			tx, err := Decode(wire)
			require.NoError(t, err)

			var reference types.Transaction
			require.NoError(t, reference.UnmarshalBinary(wire))

			hash, err := tx.Hash()
			require.NoError(t, err)
			assert.Equal(t, reference.Hash(), hash)
			assert.Equal(t, uint8(tx.Type()), reference.Type())
		})
	}
}

func TestDecode_EmptyInput(t *testing.T) {
	tx, err := Decode(nil)

	require.Error(t, err)
	assert.Nil(t, tx)
	assert.True(t, errors.Is(err, ErrDecode))
	assert.True(t, errors.Is(err, ErrUnrecognizedType))

	_, err = Decode([]byte{})
	assert.ErrorIs(t, err, ErrDecode)
}

func TestDecode_Malformed(t *testing.T) {
	valid := loadWireFixtures(t)["TX7"]

	legacy, err := rlp.EncodeToBytes([]any{uint64(1), uint64(2), uint64(3)})
	require.NoError(t, err)

	badAddress, err := rlp.EncodeToBytes([]any{
		uint64(1), uint64(2), uint64(3), []byte{0x01, 0x02}, uint64(0), []byte{}, uint64(27), uint64(1), uint64(1),
	})
	require.NoError(t, err)

	tooMany, err := rlp.EncodeToBytes([]any{
		uint64(1), uint64(2), uint64(3), []byte{}, uint64(0), []byte{}, uint64(27), uint64(1), uint64(1), uint64(9),
	})
	require.NoError(t, err)

	tests := []struct {
		name  string
		input []byte
	}{
		{name: "empty legacy list", input: []byte{0xc0}},
		{name: "legacy list too short", input: legacy},
		{name: "legacy list too long", input: tooMany},
		{name: "recipient of wrong length", input: badAddress},
		{name: "access list type without payload", input: []byte{0x01}},
		{name: "fee market type without payload", input: []byte{0x02}},
		{name: "fee market type with string payload", input: []byte{0x02, 0x80}},
		{name: "legacy with trailing bytes", input: append(append([]byte{}, valid...), 0x00)},
		{name: "fee market with trailing bytes", input: append(append([]byte{}, loadWireFixtures(t)["TX2"]...), 0xc0)},
		{name: "single zero byte", input: []byte{0x00}},
		{name: "truncated list", input: []byte{0xf8, 0x70, 0x01}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NotPanics(t, func() {
				tx, err := Decode(tt.input)
				assert.Nil(t, tx)
				assert.ErrorIs(t, err, ErrDecode)
			})
		})
	}
}

func generatedTransactions() map[string]*Transaction {
	recipient := common.HexToAddress("0xdac17f958d2ee523a2206206994597c13d831ec7")

	return map[string]*Transaction{
		"legacy transfer": NewTx(&LegacyTx{
			Nonce:    u256(7),
			GasPrice: u256(30_000_000_000),
			Gas:      u256(21000),
			To:       NewToAddress(recipient),
			Value:    uint256.MustFromHex("0xde0b6b3a7640000"),
			Data:     []byte{},
			V:        37,
			R:        uint256.MustFromHex("0xcf87b29833f82179a1d3bf30127d9512f392e9ac17375133e0a3ffff05995aa2"),
			S:        uint256.MustFromHex("0x55ee353df5d12f046a2d041b11dffa3d0a166253f5bf05c1264b99b32ed88fa"),
		}),
		"legacy contract creation": NewTx(&LegacyTx{
			Nonce:    u256(0),
			GasPrice: u256(1),
			Gas:      u256(1_000_000),
			To:       EmptyToAddress(),
			Value:    u256(0),
			Data:     []byte{0x60, 0x80, 0x60, 0x40, 0x52},
			V:        28,
			R:        u256(1),
			S:        u256(2),
		}),
		"access list with entries": NewTx(&AccessListTx{
			ChainID:  u256(1),
			Nonce:    u256(3),
			GasPrice: u256(20_000_000_000),
			GasLimit: u256(50_000),
			To:       NewToAddress(recipient),
			Value:    u256(0),
			Data:     []byte{0xa9, 0x05, 0x9c, 0xbb},
			AccessList: AccessList{
				{
					Address: recipient,
					StorageKeys: []common.Hash{
						common.HexToHash("0x02"),
						common.HexToHash("0x01"),
						common.HexToHash("0x02"),
					},
				},
				{Address: common.HexToAddress("0x01"), StorageKeys: []common.Hash{}},
				{Address: recipient, StorageKeys: []common.Hash{common.HexToHash("0xff")}},
			},
			YParity: 1,
			R:       u256(11),
			S:       u256(12),
		}),
		"access list empty": NewTx(&AccessListTx{
			ChainID:    u256(5),
			Nonce:      u256(0),
			GasPrice:   u256(1),
			GasLimit:   u256(21000),
			To:         EmptyToAddress(),
			Value:      u256(0),
			Data:       []byte{},
			AccessList: AccessList{},
			YParity:    0,
			R:          u256(0),
			S:          u256(0),
		}),
		"fee market": NewTx(&FeeMarketTx{
			ChainID:              u256(1),
			Nonce:                u256(1078),
			MaxPriorityFeePerGas: u256(2084681790),
			MaxFeePerGas:         u256(134105960422),
			GasLimit:             u256(27938),
			To:                   NewToAddress(common.HexToAddress("0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2")),
			Value:                uint256.MustFromHex("0xe92596fd6290000"),
			Data:                 []byte{0xd0, 0xe3, 0x0d, 0xb0},
			AccessList:           AccessList{},
			YParity:              0,
			R:                    u256(99),
			S:                    u256(100),
		}),
		"fee market max values": NewTx(&FeeMarketTx{
			ChainID:              uint256.MustFromHex("0xffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff"),
			Nonce:                u256(^uint64(0)),
			MaxPriorityFeePerGas: u256(0),
			MaxFeePerGas:         u256(0),
			GasLimit:             u256(0),
			To:                   EmptyToAddress(),
			Value:                u256(0),
			Data:                 make([]byte, 1024),
			AccessList: AccessList{
				{Address: common.Address{}, StorageKeys: []common.Hash{{}}},
			},
			YParity: 1,
			R:       u256(1),
			S:       u256(1),
		}),
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	for name, tx := range generatedTransactions() {
		t.Run(name, func(t *testing.T) {
			encoded, err := tx.Encode()
			require.NoError(t, err)
			require.NotEmpty(t, encoded)

			switch tx.Type() {
			case LegacyTxType:
				assert.GreaterOrEqual(t, encoded[0], byte(0xc0), "legacy must start with an RLP list prefix")
			default:
				assert.Equal(t, byte(tx.Type()), encoded[0])
			}

			decoded, err := Decode(encoded)
			require.NoError(t, err)
			assert.Equal(t, tx, decoded)

			var viaBinary Transaction
			require.NoError(t, viaBinary.UnmarshalBinary(encoded))
			assert.Equal(t, tx, &viaBinary)

			again, err := decoded.MarshalBinary()
			require.NoError(t, err)
			assert.Equal(t, encoded, again)
		})
	}
}

func TestEncodeDecode_RoundTripFromNilFields(t *testing.T) {
	recipient := NewToAddress(common.HexToAddress("0xdac17f958d2ee523a2206206994597c13d831ec7"))

	tests := map[string]*Transaction{
		"legacy": NewTx(&LegacyTx{To: recipient, V: 27}),
		"access list": NewTx(&AccessListTx{
			ChainID: u256(1),
			To:      recipient,
			YParity: 1,
		}),
		"access list with nil keys": NewTx(&AccessListTx{
			ChainID:    u256(1),
			To:         EmptyToAddress(),
			AccessList: AccessList{{Address: common.HexToAddress("0x01")}},
		}),
		"fee market": NewTx(&FeeMarketTx{To: EmptyToAddress()}),
	}

	for name, tx := range tests {
		t.Run(name, func(t *testing.T) {
			assert.NotNil(t, tx.Data())
			assert.NotNil(t, tx.Nonce())

			if tx.Type() != LegacyTxType {
				assert.NotNil(t, tx.AccessList())
				assert.NotNil(t, tx.ChainID())
			}

			encoded, err := tx.Encode()
			require.NoError(t, err)

			decoded, err := Decode(encoded)
			require.NoError(t, err)
			assert.Equal(t, tx, decoded)
		})
	}
}

func TestEncode_EmptyTransaction(t *testing.T) {
	_, err := (&Transaction{}).Encode()
	assert.ErrorIs(t, err, ErrUnrecognizedType)
}

func TestToAddress_RLP(t *testing.T) {
	empty, err := rlp.EncodeToBytes(EmptyToAddress())
	require.NoError(t, err)
	assert.Equal(t, []byte{0x80}, empty)

	addr := common.HexToAddress("0x4c875e8bd31969f4b753b3ab1611e29f270ba47e")

	exists, err := rlp.EncodeToBytes(NewToAddress(addr))
	require.NoError(t, err)
	assert.Equal(t, append([]byte{0x94}, addr.Bytes()...), exists)

	var decoded ToAddress
	require.NoError(t, rlp.DecodeBytes(exists, &decoded))

	got, ok := decoded.Address()
	assert.True(t, ok)
	assert.Equal(t, addr, got)

	require.NoError(t, rlp.DecodeBytes(empty, &decoded))
	assert.True(t, decoded.IsEmpty())

	err = rlp.DecodeBytes([]byte{0x82, 0x01, 0x02}, &decoded)
	assert.ErrorIs(t, err, ErrInvalidAddressLength)
}

func TestAccessList_RLPPreservesOrder(t *testing.T) {
	empty, err := rlp.EncodeToBytes(AccessList{})
	require.NoError(t, err)
	assert.Equal(t, []byte{0xc0}, empty)

	list := AccessList{
		{Address: common.HexToAddress("0x02"), StorageKeys: []common.Hash{common.HexToHash("0x02"), common.HexToHash("0x01")}},
		{Address: common.HexToAddress("0x01"), StorageKeys: []common.Hash{}},
		{Address: common.HexToAddress("0x02"), StorageKeys: []common.Hash{common.HexToHash("0x02")}},
	}

	encoded, err := rlp.EncodeToBytes(list)
	require.NoError(t, err)

	var decoded AccessList
	require.NoError(t, rlp.DecodeBytes(encoded, &decoded))
	assert.Equal(t, list, decoded)
	assert.Equal(t, 3, decoded.StorageKeys())
}

func TestType_String(t *testing.T) {
	assert.Equal(t, "legacy", LegacyTxType.String())
	assert.Equal(t, "access_list", AccessListTxType.String())
	assert.Equal(t, "fee_market", FeeMarketTxType.String())
	assert.Equal(t, "unknown(0x3)", Type(3).String())
}
