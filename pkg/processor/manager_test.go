package processor

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethpandaops/execution-body/internal/testutil"
	"github.com/ethpandaops/execution-body/pkg/body"
	"github.com/ethpandaops/execution-body/pkg/ethereum"
	"github.com/ethpandaops/execution-body/pkg/ethereum/execution"
	"github.com/ethpandaops/execution-body/pkg/store"
	"github.com/ethpandaops/execution-body/pkg/transaction"
)

// memorySource serves prebuilt blocks.
type memorySource struct {
	mu     sync.Mutex
	blocks map[uint64]*execution.Block
	calls  int
}

func (s *memorySource) BlockNumber(_ context.Context) (*uint64, error) {
	var head uint64

	for n := range s.blocks {
		head = max(head, n)
	}

	return &head, nil
}

func (s *memorySource) BlockByNumber(_ context.Context, number uint64) (*execution.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++

	b, ok := s.blocks[number]
	if !ok {
		return nil, execution.ErrBlockNotFound
	}

	return b, nil
}

func (s *memorySource) ChainID() int64 { return 1 }

// readyPool wraps a single embedded node that is always healthy.
type readyPool struct {
	node execution.Node
	err  error
}

func (p *readyPool) WaitForHealthyExecutionNode(_ context.Context) (execution.Node, error) {
	return p.node, p.err
}

func (p *readyPool) GetNetworkByChainID(chainID int64) (*ethereum.Network, error) {
	return ethereum.GetNetworkByChainID(chainID)
}

func newTestLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	return log
}

func testBlock(t *testing.T, number uint64, ntx int) *execution.Block {
	t.Helper()

	txs := make([]*transaction.Transaction, 0, ntx)
	for i := 0; i < ntx; i++ {
		txs = append(txs, transaction.NewTx(&transaction.LegacyTx{
			Nonce:    uint256.NewInt(uint64(i)),
			GasPrice: uint256.NewInt(1),
			Gas:      uint256.NewInt(21_000),
			To:       transaction.NewToAddress(common.BigToAddress(new(big.Int).SetUint64(number))),
			Value:    uint256.NewInt(number),
			Data:     []byte{},
			V:        27,
			R:        uint256.NewInt(1),
			S:        uint256.NewInt(2),
		}))
	}

	b := body.New(txs, nil)

	txRoot, err := b.TransactionsRoot()
	require.NoError(t, err)

	unclesRoot, err := b.UnclesRoot()
	require.NoError(t, err)

	header := &types.Header{
		Number:     new(big.Int).SetUint64(number),
		Difficulty: big.NewInt(1),
		TxHash:     txRoot,
		UncleHash:  unclesRoot,
		Extra:      []byte{},
	}

	return &execution.Block{Number: number, Hash: header.Hash(), Header: header, Body: b}
}

func newTestManager(t *testing.T, source *memorySource, concurrency int) (*Manager, *store.Store) {
	t.Helper()

	node := execution.NewEmbeddedNode(newTestLogger(), "memory", source)
	client, _ := testutil.NewMiniredisClient(t)
	st := store.New(newTestLogger(), client, "test", 0)

	return NewManager(newTestLogger(), &Config{Concurrency: concurrency}, &readyPool{node: node}, st), st
}

func TestConfig_Validate(t *testing.T) {
	assert.Error(t, (&Config{}).Validate())
	assert.NoError(t, (&Config{Concurrency: 1}).Validate())
}

func TestManager_ProcessRange(t *testing.T) {
	source := &memorySource{blocks: map[uint64]*execution.Block{}}
	for n := uint64(10); n <= 20; n++ {
		source.blocks[n] = testBlock(t, n, int(n%4))
	}

	m, st := newTestManager(t, source, 3)

	stats, err := m.ProcessRange(context.Background(), 10, 20)
	require.NoError(t, err)
	assert.Equal(t, uint64(11), stats.Blocks)
	assert.Equal(t, uint64(0), stats.Uncles)

	var expectedTxs uint64
	for n := uint64(10); n <= 20; n++ {
		expectedTxs += n % 4

		stored, err := st.Get(context.Background(), source.blocks[n].Hash)
		require.NoError(t, err)

		root, err := stored.TransactionsRoot()
		require.NoError(t, err)
		assert.Equal(t, source.blocks[n].Header.TxHash, root)
	}

	assert.Equal(t, expectedTxs, stats.Transactions)
}

func TestManager_SingleBlock(t *testing.T) {
	source := &memorySource{blocks: map[uint64]*execution.Block{5: testBlock(t, 5, 2)}}
	m, _ := newTestManager(t, source, 1)

	stats, err := m.ProcessRange(context.Background(), 5, 5)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), stats.Blocks)
	assert.Equal(t, 1, source.calls)
}

func TestManager_InvalidRange(t *testing.T) {
	m, _ := newTestManager(t, &memorySource{}, 1)

	_, err := m.ProcessRange(context.Background(), 5, 4)
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestManager_MissingBlock(t *testing.T) {
	source := &memorySource{blocks: map[uint64]*execution.Block{1: testBlock(t, 1, 1)}}
	m, _ := newTestManager(t, source, 1)

	_, err := m.ProcessRange(context.Background(), 1, 2)
	assert.ErrorIs(t, err, ethereum.ErrBlockNotFound)
}

func TestManager_RootMismatchNotStored(t *testing.T) {
	block := testBlock(t, 3, 2)
	block.Header.TxHash = types.EmptyRootHash

	source := &memorySource{blocks: map[uint64]*execution.Block{3: block}}
	m, st := newTestManager(t, source, 1)

	_, err := m.ProcessRange(context.Background(), 3, 3)
	assert.ErrorIs(t, err, ethereum.ErrRootMismatch)

	has, err := st.Has(context.Background(), block.Hash)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestManager_NoHealthyNode(t *testing.T) {
	m := NewManager(newTestLogger(), &Config{Concurrency: 1}, &readyPool{err: ethereum.ErrNoHealthyNode}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := m.ProcessRange(ctx, 1, 1)
	assert.True(t, errors.Is(err, ethereum.ErrNoHealthyNode))
}

func TestManager_IncompleteBlocksRejected(t *testing.T) {
	headerless := testBlock(t, 2, 1)
	headerless.Header = nil

	bodiless := testBlock(t, 3, 1)
	bodiless.Body = nil

	tests := []struct {
		name   string
		number uint64
		block  *execution.Block
	}{
		{name: "nil block", number: 1, block: nil},
		{name: "nil header", number: 2, block: headerless},
		{name: "nil body", number: 3, block: bodiless},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := &memorySource{blocks: map[uint64]*execution.Block{tt.number: tt.block}}
			m, _ := newTestManager(t, source, 2)

			stats, err := m.ProcessRange(context.Background(), tt.number, tt.number)
			assert.ErrorIs(t, err, execution.ErrInvalidBlock)
			require.NotNil(t, stats)
			assert.Zero(t, stats.Blocks)
		})
	}
}
