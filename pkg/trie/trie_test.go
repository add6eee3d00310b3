package trie

import (
	"bytes"
	"math/rand"
	"sort"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rlp"
	gethtrie "github.com/ethereum/go-ethereum/trie"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rawList feeds pre-encoded values to types.DeriveSha.
type rawList [][]byte

func (l rawList) Len() int { return len(l) }

func (l rawList) EncodeIndex(i int, w *bytes.Buffer) { w.Write(l[i]) }

func randomValues(rng *rand.Rand, n int) [][]byte {
	values := make([][]byte, n)

	for i := range values {
		// Mix values shorter than a hash (embedded nodes) with longer ones.
		v := make([]byte, 1+rng.Intn(120))
		rng.Read(v)
		values[i] = v
	}

	return values
}

func indexedRoot(t *testing.T, values [][]byte) common.Hash {
	t.Helper()

	tr := New()

	for i, v := range values {
		require.NoError(t, tr.Insert(rlp.AppendUint64(nil, uint64(i)), v))
	}

	return tr.Hash()
}

func TestHash_Empty(t *testing.T) {
	assert.Equal(t, types.EmptyRootHash, New().Hash())
	assert.Equal(t, common.HexToHash("0x56e81f171bcc55a6ff8345e692c0f86e5b48e01b996cadc001622fb5e363b421"), EmptyRoot)
}

func TestHash_KnownVector(t *testing.T) {
	tr := New()

	require.NoError(t, tr.Insert([]byte("doe"), []byte("reindeer")))
	require.NoError(t, tr.Insert([]byte("dog"), []byte("puppy")))
	require.NoError(t, tr.Insert([]byte("dogglesworth"), []byte("cat")))

	assert.Equal(t, common.HexToHash("0x8aad789dff2f538bca5d8ea56e8abe10f4c7ba3a5dea95fea4cd6e7c3a1168d3"), tr.Hash())
}

func TestHash_MatchesDeriveSha(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for _, n := range []int{1, 2, 3, 15, 16, 17, 127, 128, 129, 256, 1000} {
		values := randomValues(rng, n)

		expected := types.DeriveSha(rawList(values), gethtrie.NewStackTrie(nil))

		assert.Equal(t, expected, indexedRoot(t, values), "list of %d values", n)
	}
}

func TestHash_MatchesStackTrieForRandomKeys(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	keys := make([][]byte, 500)
	for i := range keys {
		keys[i] = make([]byte, 32)
		rng.Read(keys[i])
	}

	values := randomValues(rng, len(keys))

	tr := New()
	for i := range keys {
		require.NoError(t, tr.Insert(keys[i], values[i]))
	}

	order := make([]int, len(keys))
	for i := range order {
		order[i] = i
	}

	sort.Slice(order, func(a, b int) bool { return bytes.Compare(keys[order[a]], keys[order[b]]) < 0 })

	st := gethtrie.NewStackTrie(nil)
	for _, i := range order {
		require.NoError(t, st.Update(keys[i], values[i]))
	}

	assert.Equal(t, st.Hash(), tr.Hash())
}

func TestHash_InsertionOrderIndependent(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	values := randomValues(rng, 64)

	forward := New()
	backward := New()

	for i := range values {
		require.NoError(t, forward.Insert(rlp.AppendUint64(nil, uint64(i)), values[i]))
	}

	for i := len(values) - 1; i >= 0; i-- {
		require.NoError(t, backward.Insert(rlp.AppendUint64(nil, uint64(i)), values[i]))
	}

	assert.Equal(t, forward.Hash(), backward.Hash())
}

func TestHash_Deterministic(t *testing.T) {
	values := randomValues(rand.New(rand.NewSource(3)), 40)

	tr := New()
	for i, v := range values {
		require.NoError(t, tr.Insert(rlp.AppendUint64(nil, uint64(i)), v))
	}

	first := tr.Hash()
	assert.Equal(t, first, tr.Hash())
	assert.Equal(t, first, indexedRoot(t, values))
}

func TestHash_SensitiveToContent(t *testing.T) {
	values := randomValues(rand.New(rand.NewSource(5)), 20)
	base := indexedRoot(t, values)

	assert.NotEqual(t, base, indexedRoot(t, values[:19]), "truncation")

	swapped := append([][]byte{}, values...)
	swapped[0], swapped[1] = swapped[1], swapped[0]
	assert.NotEqual(t, base, indexedRoot(t, swapped), "reordering")

	mutated := append([][]byte{}, values...)
	mutated[7] = append([]byte{0xff}, mutated[7]...)
	assert.NotEqual(t, base, indexedRoot(t, mutated), "mutation")
}

func TestInsert_OverwriteAndGet(t *testing.T) {
	tr := New()

	require.NoError(t, tr.Insert([]byte("dog"), []byte("puppy")))
	require.NoError(t, tr.Insert([]byte("dogglesworth"), []byte("cat")))
	require.NoError(t, tr.Insert([]byte("do"), []byte("verb")))
	require.NoError(t, tr.Insert([]byte("dog"), []byte("hound")))

	v, ok := tr.Get([]byte("dog"))
	assert.True(t, ok)
	assert.Equal(t, []byte("hound"), v)

	v, ok = tr.Get([]byte("do"))
	assert.True(t, ok)
	assert.Equal(t, []byte("verb"), v)

	_, ok = tr.Get([]byte("d"))
	assert.False(t, ok)

	_, ok = tr.Get([]byte("doggle"))
	assert.False(t, ok)

	_, ok = tr.Get([]byte("cat"))
	assert.False(t, ok)

	other := New()
	require.NoError(t, other.Insert([]byte("do"), []byte("verb")))
	require.NoError(t, other.Insert([]byte("dogglesworth"), []byte("cat")))
	require.NoError(t, other.Insert([]byte("dog"), []byte("hound")))

	assert.Equal(t, other.Hash(), tr.Hash())
}

func TestInsert_EmptyValue(t *testing.T) {
	tr := New()

	err := tr.Insert([]byte{0x80}, nil)
	assert.ErrorIs(t, err, ErrEmptyValue)
	assert.Equal(t, EmptyRoot, tr.Hash())
	assert.Zero(t, tr.Len())
}

func TestHexToCompact(t *testing.T) {
	tests := []struct {
		nibbles []byte
		leaf    bool
		compact []byte
	}{
		{nibbles: []byte{}, leaf: false, compact: []byte{0x00}},
		{nibbles: []byte{}, leaf: true, compact: []byte{0x20}},
		{nibbles: []byte{1, 2, 3, 4, 5}, leaf: false, compact: []byte{0x11, 0x23, 0x45}},
		{nibbles: []byte{0, 1, 2, 3, 4, 5}, leaf: false, compact: []byte{0x00, 0x01, 0x23, 0x45}},
		{nibbles: []byte{15, 1, 12, 11, 8}, leaf: true, compact: []byte{0x3f, 0x1c, 0xb8}},
		{nibbles: []byte{0, 15, 1, 12, 11, 8}, leaf: true, compact: []byte{0x20, 0x0f, 0x1c, 0xb8}},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.compact, hexToCompact(tt.nibbles, tt.leaf))
	}
}

func TestKeybytesToHex(t *testing.T) {
	assert.Equal(t, []byte{}, keybytesToHex([]byte{}))
	assert.Equal(t, []byte{8, 0}, keybytesToHex([]byte{0x80}))
	assert.Equal(t, []byte{8, 1, 8, 0}, keybytesToHex([]byte{0x81, 0x80}))
}
