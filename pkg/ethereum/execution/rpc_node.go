package execution

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"
)

// Compile-time check that RPCNode implements execution.Node interface.
var _ Node = (*RPCNode)(nil)

// headerTransport adds custom headers to requests and respects context cancellation.
type headerTransport struct {
	headers map[string]string
	base    http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	for key, value := range t.headers {
		req.Header.Set(key, value)
	}

	if req.Context().Err() != nil {
		return nil, req.Context().Err()
	}

	return t.base.RoundTrip(req)
}

// RPCNode implements Node using a JSON-RPC connection.
type RPCNode struct {
	config    *Config
	log       logrus.FieldLogger
	rpcClient *rpc.Client

	chainID int64
	healthy bool

	onReadyCallbacks  []func(ctx context.Context) error
	onHealthCallbacks []func(ctx context.Context, healthy bool)
	scheduler         *gocron.Scheduler

	// Goroutine management
	mu     sync.RWMutex
	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// NewRPCNode creates a new RPC-based execution node.
func NewRPCNode(log logrus.FieldLogger, conf *Config) *RPCNode {
	return &RPCNode{
		config: conf,
		log:    log.WithFields(logrus.Fields{"type": "execution", "source": conf.Name}),
	}
}

func (n *RPCNode) OnReady(_ context.Context, callback func(ctx context.Context) error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.onReadyCallbacks = append(n.onReadyCallbacks, callback)
}

// Start dials the endpoint and, in the background, waits for the client to
// report its chain ID before running the OnReady callbacks.
func (n *RPCNode) Start(ctx context.Context) error {
	n.log.Info("Starting execution node")

	nodeCtx, cancel := context.WithCancel(ctx)

	httpClient := &http.Client{
		Transport: &headerTransport{
			headers: n.config.NodeHeaders,
			base: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   30 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   10 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
				MaxIdleConns:          100,
				MaxIdleConnsPerHost:   10,
				IdleConnTimeout:       90 * time.Second,
			},
		},
	}

	rpcClient, err := rpc.DialOptions(nodeCtx, n.config.NodeAddress, rpc.WithHTTPClient(httpClient))
	if err != nil {
		cancel()

		return fmt.Errorf("failed to create RPC client for %s: %w", n.config.NodeAddress, err)
	}

	n.mu.Lock()
	n.cancel = cancel
	n.rpcClient = rpcClient
	n.mu.Unlock()

	n.wg.Add(1)

	go func() {
		defer n.wg.Done()

		if err := n.waitForChainID(nodeCtx); err != nil {
			if nodeCtx.Err() == nil {
				n.log.WithError(err).Error("Execution node never became ready")
			}

			return
		}

		n.mu.RLock()
		callbacks := n.onReadyCallbacks
		n.mu.RUnlock()

		for _, callback := range callbacks {
			callbackCtx, callbackCancel := context.WithTimeout(nodeCtx, 10*time.Second)

			if err := callback(callbackCtx); err != nil {
				n.log.WithError(err).Error("Failed to run on ready callback")
			}

			callbackCancel()
		}

		n.mu.Lock()
		n.healthy = true
		n.mu.Unlock()

		if err := n.startHealthChecks(nodeCtx); err != nil {
			n.log.WithError(err).Error("Failed to start health checks")
		}

		n.log.Info("Node initialization completed")
	}()

	return nil
}

func (n *RPCNode) waitForChainID(ctx context.Context) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = 2 * time.Minute

	operation := func() error {
		var chainID hexutil.Big

		callCtx, cancel := context.WithTimeout(ctx, n.config.Timeout)
		defer cancel()

		start := time.Now()
		err := n.rpcClient.CallContext(callCtx, &chainID, "eth_chainId")
		n.observe("eth_chainId", start, err)

		if err != nil {
			n.log.WithError(err).Warn("Failed to fetch chain id, will retry")

			return err
		}

		n.mu.Lock()
		n.chainID = chainID.ToInt().Int64()
		n.mu.Unlock()

		n.log.WithField("chain_id", n.ChainID()).Info("Execution node is ready")

		return nil
	}

	return backoff.Retry(operation, backoff.WithContext(b, ctx))
}

func (n *RPCNode) Stop(ctx context.Context) error {
	n.log.Info("Stopping execution node")

	n.mu.Lock()

	if n.cancel != nil {
		n.cancel()
	}

	n.mu.Unlock()

	done := make(chan struct{})

	go func() {
		n.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		n.log.Info("All node goroutines stopped gracefully")
	case <-ctx.Done():
		n.log.Warn("Timeout waiting for node goroutines to stop")
	}

	// Stopped outside the lock: a running health job takes it.
	n.mu.RLock()
	scheduler := n.scheduler
	n.mu.RUnlock()

	if scheduler != nil {
		scheduler.Stop()
	}

	n.mu.RLock()
	defer n.mu.RUnlock()

	if n.rpcClient != nil {
		n.rpcClient.Close()
	}

	return nil
}

// Name returns the configured name for this node.
func (n *RPCNode) Name() string {
	return n.config.Name
}

// ChainID returns the chain ID reported by the node, or 0 before it is ready.
func (n *RPCNode) ChainID() int64 {
	n.mu.RLock()
	defer n.mu.RUnlock()

	return n.chainID
}

// BlockNumber returns the current block number.
func (n *RPCNode) BlockNumber(ctx context.Context) (*uint64, error) {
	return n.blockNumber(ctx)
}

// BlockByNumber returns the block at the given number with its uncles.
func (n *RPCNode) BlockByNumber(ctx context.Context, number uint64) (*Block, error) {
	return n.blockByNumber(ctx, number)
}
