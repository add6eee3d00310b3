package execution

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ethpandaops/execution-body/pkg/body"
	pcommon "github.com/ethpandaops/execution-body/pkg/common"
)

const (
	statusError   = "error"
	statusSuccess = "success"

	// maxUncleFetches bounds concurrent uncle requests for one block.
	maxUncleFetches = 2
)

func (n *RPCNode) observe(method string, start time.Time, err error) {
	status := statusSuccess
	if err != nil {
		status = statusError
	}

	chainID := strconv.FormatInt(n.ChainID(), 10)

	pcommon.RPCCallDuration.WithLabelValues(chainID, n.config.Name, method, status).Observe(time.Since(start).Seconds())
	pcommon.RPCCallsTotal.WithLabelValues(chainID, n.config.Name, method, status).Inc()
}

// call runs one JSON-RPC call with a per-attempt timeout, retrying transport
// failures with exponential backoff. Errors returned by the server are not
// retried.
func (n *RPCNode) call(ctx context.Context, result any, method string, args ...any) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = n.config.RetryMaxElapsed

	attempt := 0

	operation := func() error {
		attempt++

		if attempt > 1 {
			pcommon.RetryCountTotal.WithLabelValues(n.config.Name, method).Inc()
		}

		callCtx, cancel := context.WithTimeout(ctx, n.config.Timeout)
		defer cancel()

		start := time.Now()
		err := n.rpcClient.CallContext(callCtx, result, method, args...)
		n.observe(method, start, err)

		if err == nil {
			return nil
		}

		var rpcErr rpc.Error
		if errors.As(err, &rpcErr) {
			return backoff.Permanent(err)
		}

		n.log.WithError(err).WithFields(logrus.Fields{
			"method":  method,
			"attempt": attempt,
		}).Debug("RPC call failed, will retry")

		return err
	}

	return backoff.Retry(operation, backoff.WithContext(b, ctx))
}

func (n *RPCNode) blockNumber(ctx context.Context) (*uint64, error) {
	var number hexutil.Uint64

	if err := n.call(ctx, &number, "eth_blockNumber"); err != nil {
		return nil, err
	}

	blockNumber := uint64(number)

	return &blockNumber, nil
}

func (n *RPCNode) blockByNumber(ctx context.Context, number uint64) (*Block, error) {
	var raw json.RawMessage

	if err := n.call(ctx, &raw, "eth_getBlockByNumber", hexutil.EncodeUint64(number), true); err != nil {
		return nil, fmt.Errorf("failed to fetch block %d: %w", number, err)
	}

	parsed, err := parseBlock(raw)
	if err != nil {
		return nil, fmt.Errorf("block %d: %w", number, err)
	}

	uncles, err := n.uncles(ctx, parsed)
	if err != nil {
		return nil, fmt.Errorf("block %d: %w", number, err)
	}

	return &Block{
		Number: parsed.header.Number.Uint64(),
		Hash:   parsed.hash,
		Header: parsed.header,
		Body:   body.New(parsed.txs, uncles),
	}, nil
}

// uncles fetches the full headers of the uncles listed by b, in order.
func (n *RPCNode) uncles(ctx context.Context, b *rpcBlock) (body.HeaderList, error) {
	uncles := make(body.HeaderList, len(b.uncleHashes))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxUncleFetches)

	for i, expected := range b.uncleHashes {
		g.Go(func() error {
			var uncle *types.Header

			if err := n.call(gctx, &uncle, "eth_getUncleByBlockHashAndIndex", b.hash, hexutil.Uint64(i)); err != nil {
				return fmt.Errorf("failed to fetch uncle %d: %w", i, err)
			}

			if uncle == nil {
				return fmt.Errorf("%w: index %d of %s", ErrUncleNotFound, i, b.hash)
			}

			if got := uncle.Hash(); got != expected {
				return fmt.Errorf("%w: uncle %d hashes to %s, block lists %s", ErrInvalidBlock, i, got, expected)
			}

			uncles[i] = uncle

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return uncles, nil
}
