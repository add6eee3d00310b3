// Package processor fetches block bodies over a range of block numbers,
// verifies them against their headers and writes them to the content store.
package processor

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ethpandaops/execution-body/pkg/body"
	pcommon "github.com/ethpandaops/execution-body/pkg/common"
	"github.com/ethpandaops/execution-body/pkg/ethereum"
	"github.com/ethpandaops/execution-body/pkg/ethereum/execution"
)

// ErrInvalidRange indicates a range whose end precedes its start.
var ErrInvalidRange = errors.New("invalid block range")

// NodeProvider hands out healthy execution nodes.
type NodeProvider interface {
	WaitForHealthyExecutionNode(ctx context.Context) (execution.Node, error)
	GetNetworkByChainID(chainID int64) (*ethereum.Network, error)
}

// BodyStore persists verified bodies.
type BodyStore interface {
	Put(ctx context.Context, blockHash common.Hash, b *body.BlockBody) error
}

// Stats summarizes a processed range.
type Stats struct {
	Blocks       uint64
	Transactions uint64
	Uncles       uint64
}

// Manager processes block ranges.
type Manager struct {
	log    logrus.FieldLogger
	config *Config
	nodes  NodeProvider
	store  BodyStore
}

func NewManager(log logrus.FieldLogger, config *Config, nodes NodeProvider, store BodyStore) *Manager {
	return &Manager{
		log:    log.WithField("component", "processor"),
		config: config,
		nodes:  nodes,
		store:  store,
	}
}

// ProcessRange fetches, verifies and stores the bodies of blocks from..to
// inclusive. It stops at the first failing block.
func (m *Manager) ProcessRange(ctx context.Context, from, to uint64) (*Stats, error) {
	if to < from {
		return nil, fmt.Errorf("%w: %d..%d", ErrInvalidRange, from, to)
	}

	node, err := m.nodes.WaitForHealthyExecutionNode(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to wait for healthy execution node: %w", err)
	}

	network := m.networkName(node)

	log := m.log.WithFields(logrus.Fields{
		"node":    node.Name(),
		"network": network,
		"from":    from,
		"to":      to,
	})

	log.Info("Processing block range")

	var (
		stats Stats
		txs   atomic.Uint64
		unc   atomic.Uint64
		done  atomic.Uint64
		start = time.Now()
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.config.Concurrency)

	for number := from; ; number++ {
		if gctx.Err() != nil {
			break
		}

		g.Go(func() error {
			b, err := m.processBlock(gctx, node, network, number)
			if err != nil {
				return err
			}

			txs.Add(uint64(len(b.Transactions)))
			unc.Add(uint64(len(b.Uncles)))
			done.Add(1)

			return nil
		})

		if number == to || number == math.MaxUint64 {
			break
		}
	}

	err = g.Wait()

	stats.Blocks = done.Load()
	stats.Transactions = txs.Load()
	stats.Uncles = unc.Load()

	if err != nil {
		return &stats, err
	}

	log.WithFields(logrus.Fields{
		"blocks":       stats.Blocks,
		"transactions": stats.Transactions,
		"uncles":       stats.Uncles,
		"duration":     time.Since(start).Round(time.Millisecond),
	}).Info("Processed block range")

	return &stats, nil
}

func (m *Manager) networkName(node execution.Node) string {
	network, err := m.nodes.GetNetworkByChainID(node.ChainID())
	if err != nil {
		m.log.WithError(err).Warn("Unknown network, labelling by chain id")

		return strconv.FormatInt(node.ChainID(), 10)
	}

	return network.Name
}

func (m *Manager) processBlock(ctx context.Context, node execution.Node, network string, number uint64) (*body.BlockBody, error) {
	start := time.Now()

	block, err := node.BlockByNumber(ctx, number)
	if err != nil {
		return nil, fmt.Errorf("block %d: %w", number, err)
	}

	if block == nil || block.Header == nil || block.Body == nil {
		return nil, fmt.Errorf("block %d: %w", number, block.Verify())
	}

	if err := block.Verify(); err != nil {
		if errors.Is(err, ethereum.ErrRootMismatch) {
			pcommon.RootMismatchesTotal.WithLabelValues(node.Name()).Inc()
		}

		return nil, fmt.Errorf("block %d (%s): %w", number, block.Hash, err)
	}

	if err := m.store.Put(ctx, block.Hash, block.Body); err != nil {
		return nil, fmt.Errorf("block %d (%s): %w", number, block.Hash, err)
	}

	pcommon.BodiesStoredTotal.WithLabelValues(network).Inc()
	pcommon.BodyFetchDuration.WithLabelValues(network).Observe(time.Since(start).Seconds())

	m.log.WithFields(logrus.Fields{
		"number":       number,
		"hash":         block.Hash.Hex(),
		"transactions": len(block.Body.Transactions),
		"uncles":       len(block.Body.Uncles),
	}).Debug("Stored block body")

	return block.Body, nil
}
