package execution

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"
)

const defaultHealthCheckInterval = 15 * time.Second

// OnHealthChange registers a callback run whenever a periodic health check
// flips the node between healthy and unhealthy. The node counts as healthy
// once ready.
func (n *RPCNode) OnHealthChange(_ context.Context, callback func(ctx context.Context, healthy bool)) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.onHealthCallbacks = append(n.onHealthCallbacks, callback)
}

// startHealthChecks polls eth_chainId on a schedule. A failed call or a
// changed chain id marks the node unhealthy until a later poll succeeds.
func (n *RPCNode) startHealthChecks(ctx context.Context) error {
	interval := n.config.HealthCheckInterval
	if interval <= 0 {
		interval = defaultHealthCheckInterval
	}

	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()

	if _, err := s.Every(interval).WaitForSchedule().Do(func() {
		if ctx.Err() != nil {
			return
		}

		checkCtx, cancel := context.WithTimeout(ctx, n.config.Timeout)
		defer cancel()

		err := n.checkHealth(checkCtx)
		if ctx.Err() != nil {
			return
		}

		if err != nil {
			n.log.WithError(err).Debug("Health check failed")
		}

		n.setHealthy(ctx, err == nil)
	}); err != nil {
		return fmt.Errorf("failed to schedule health check: %w", err)
	}

	s.StartAsync()

	n.mu.Lock()
	n.scheduler = s
	n.mu.Unlock()

	return nil
}

func (n *RPCNode) checkHealth(ctx context.Context) error {
	var chainID hexutil.Big

	start := time.Now()
	err := n.rpcClient.CallContext(ctx, &chainID, "eth_chainId")
	n.observe("eth_chainId", start, err)

	if err != nil {
		return err
	}

	if got, want := chainID.ToInt().Int64(), n.ChainID(); got != want {
		return fmt.Errorf("%w: node reports %d, expected %d", ErrChainIDChanged, got, want)
	}

	return nil
}

func (n *RPCNode) setHealthy(ctx context.Context, healthy bool) {
	n.mu.Lock()

	if n.healthy == healthy {
		n.mu.Unlock()

		return
	}

	n.healthy = healthy
	callbacks := n.onHealthCallbacks

	n.mu.Unlock()

	log := n.log.WithFields(logrus.Fields{"healthy": healthy, "chain_id": n.ChainID()})
	if healthy {
		log.Info("Execution node recovered")
	} else {
		log.Warn("Execution node became unhealthy")
	}

	for _, callback := range callbacks {
		callback(ctx, healthy)
	}
}
