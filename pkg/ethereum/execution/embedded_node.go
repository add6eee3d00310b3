package execution

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// DataSource is implemented by host applications that already hold block data
// (an archive, an execution client) and want to serve it without JSON-RPC.
//
// All methods must be safe for concurrent calls from multiple goroutines.
type DataSource interface {
	// BlockNumber returns the current block number.
	BlockNumber(ctx context.Context) (*uint64, error)

	// BlockByNumber returns the block at the given number.
	BlockByNumber(ctx context.Context, number uint64) (*Block, error)

	// ChainID returns the chain ID.
	ChainID() int64
}

// Compile-time check that EmbeddedNode implements Node interface.
var _ Node = (*EmbeddedNode)(nil)

// EmbeddedNode implements Node by delegating to a DataSource.
//
// Lifecycle:
//  1. Create with NewEmbeddedNode(log, name, dataSource)
//  2. Register OnReady callbacks (optional)
//  3. Pool calls Start() (no-op for embedded)
//  4. Host calls MarkReady() when DataSource is ready to serve data
//  5. Callbacks execute in registration order, node becomes healthy in pool
//  6. Host calls MarkHealthy() if the DataSource stops or resumes serving
//  7. Pool calls Stop() on shutdown (no-op for embedded)
type EmbeddedNode struct {
	log               logrus.FieldLogger
	name              string
	source            DataSource
	ready             bool
	onReadyCallbacks  []func(ctx context.Context) error
	onHealthCallbacks []func(ctx context.Context, healthy bool)
	mu                sync.RWMutex
}

// NewEmbeddedNode creates a new EmbeddedNode with the given DataSource. The
// node is not ready until MarkReady is called.
func NewEmbeddedNode(log logrus.FieldLogger, name string, source DataSource) *EmbeddedNode {
	return &EmbeddedNode{
		log:              log.WithFields(logrus.Fields{"type": "execution", "source": name, "mode": "embedded"}),
		name:             name,
		source:           source,
		onReadyCallbacks: make([]func(ctx context.Context) error, 0),
	}
}

// Start is a no-op. The host controls readiness via MarkReady().
func (n *EmbeddedNode) Start(_ context.Context) error {
	n.log.Info("EmbeddedNode started - waiting for host to call MarkReady()")

	return nil
}

// Stop is a no-op. The host manages the DataSource lifecycle.
func (n *EmbeddedNode) Stop(_ context.Context) error {
	n.log.Info("EmbeddedNode stopped")

	return nil
}

// MarkReady is called by the host application when the DataSource is ready.
// This triggers all registered OnReady callbacks.
func (n *EmbeddedNode) MarkReady(ctx context.Context) error {
	n.mu.Lock()
	n.ready = true
	callbacks := n.onReadyCallbacks
	n.mu.Unlock()

	n.log.WithField("callback_count", len(callbacks)).Info("EmbeddedNode marked as ready, executing callbacks")

	for _, cb := range callbacks {
		if err := cb(ctx); err != nil {
			n.log.WithError(err).Error("Failed to execute OnReady callback")

			return err
		}
	}

	return nil
}

// OnReady registers a callback to be called when the node becomes ready.
func (n *EmbeddedNode) OnReady(_ context.Context, callback func(ctx context.Context) error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.onReadyCallbacks = append(n.onReadyCallbacks, callback)
}

// OnHealthChange registers a callback run by MarkHealthy.
func (n *EmbeddedNode) OnHealthChange(_ context.Context, callback func(ctx context.Context, healthy bool)) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.onHealthCallbacks = append(n.onHealthCallbacks, callback)
}

// MarkHealthy is called by the host application when its DataSource stops or
// resumes serving data.
func (n *EmbeddedNode) MarkHealthy(ctx context.Context, healthy bool) {
	n.mu.RLock()
	callbacks := n.onHealthCallbacks
	n.mu.RUnlock()

	n.log.WithField("healthy", healthy).Info("EmbeddedNode health changed")

	for _, cb := range callbacks {
		cb(ctx, healthy)
	}
}

// IsReady returns true if the node has been marked as ready.
func (n *EmbeddedNode) IsReady() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()

	return n.ready
}

// BlockNumber delegates to the DataSource.
func (n *EmbeddedNode) BlockNumber(ctx context.Context) (*uint64, error) {
	return n.source.BlockNumber(ctx)
}

// BlockByNumber delegates to the DataSource.
func (n *EmbeddedNode) BlockByNumber(ctx context.Context, number uint64) (*Block, error) {
	return n.source.BlockByNumber(ctx, number)
}

// ChainID delegates to the DataSource.
func (n *EmbeddedNode) ChainID() int64 {
	return n.source.ChainID()
}

// Name returns the configured name for this node.
func (n *EmbeddedNode) Name() string {
	return n.name
}
