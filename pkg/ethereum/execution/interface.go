package execution

import (
	"context"
)

// Node defines the interface for execution data providers.
//
// Implementations include:
//   - RPCNode: connects to execution clients via JSON-RPC over HTTP
//   - EmbeddedNode: receives data directly from host application via DataSource
//
// All methods must be safe for concurrent use by multiple goroutines.
//
// Lifecycle:
//  1. Create node with appropriate constructor (NewRPCNode or NewEmbeddedNode)
//  2. Register OnReady callbacks before calling Start
//  3. Call Start to begin initialization
//  4. Node signals readiness by executing OnReady callbacks
//  5. Health changes after readiness are reported to OnHealthChange callbacks
//  6. Call Stop for graceful shutdown
type Node interface {
	// Start initializes the node and begins any background operations.
	Start(ctx context.Context) error

	// Stop gracefully shuts down the node and releases resources.
	Stop(ctx context.Context) error

	// OnReady registers a callback to be invoked when the node becomes ready.
	// Multiple callbacks can be registered and will execute in registration order.
	OnReady(ctx context.Context, callback func(ctx context.Context) error)

	// OnHealthChange registers a callback invoked when a ready node becomes
	// unhealthy or recovers.
	OnHealthChange(ctx context.Context, callback func(ctx context.Context, healthy bool))

	// BlockNumber returns the current block number from the execution client.
	BlockNumber(ctx context.Context) (*uint64, error)

	// BlockByNumber returns the header and body of the block at the given number.
	// The body is not checked against the header.
	BlockByNumber(ctx context.Context, number uint64) (*Block, error)

	// ChainID returns the chain ID reported by the execution client.
	ChainID() int64

	// Name returns the configured name for this node.
	Name() string
}
