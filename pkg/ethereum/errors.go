package ethereum

import (
	"errors"

	"github.com/ethpandaops/execution-body/pkg/body"
	"github.com/ethpandaops/execution-body/pkg/ethereum/execution"
)

// Sentinel errors for Ethereum client operations.
var (
	// ErrNoHealthyNode indicates no healthy execution node is available.
	ErrNoHealthyNode = errors.New("no healthy execution node available")

	// ErrNoNodesConfigured indicates the pool was created without nodes.
	ErrNoNodesConfigured = errors.New("no execution nodes configured")

	// ErrBlockNotFound indicates a block was not found on the execution client.
	ErrBlockNotFound = execution.ErrBlockNotFound

	// ErrRootMismatch indicates a fetched body does not match its header.
	ErrRootMismatch = body.ErrRootMismatch

	// ErrUnsupportedChainID indicates an unsupported chain ID was provided.
	ErrUnsupportedChainID = errors.New("unsupported chain ID")
)
