package ethereum

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ethpandaops/execution-body/pkg/ethereum/execution"
)

type Pool struct {
	log            logrus.FieldLogger
	executionNodes []execution.Node
	metrics        *Metrics
	config         *Config

	mu sync.RWMutex

	healthyExecutionNodes map[execution.Node]bool

	// Goroutine management
	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// NewPool creates a pool of RPC nodes from config.
func NewPool(log logrus.FieldLogger, namespace string, config *Config) *Pool {
	nodes := make([]execution.Node, 0, len(config.Execution))

	for _, execCfg := range config.Execution {
		nodes = append(nodes, execution.NewRPCNode(log, execCfg))
	}

	return NewPoolWithNodes(log, namespace, nodes, config)
}

// NewPoolWithNodes creates a pool with pre-created Node implementations, e.g.
// an EmbeddedNode backed by a host DataSource.
//
//	node := execution.NewEmbeddedNode(log, "archive", source)
//	pool := ethereum.NewPoolWithNodes(log, "execution_body", []execution.Node{node}, nil)
//	pool.Start(ctx)
//	node.MarkReady(ctx)
func NewPoolWithNodes(log logrus.FieldLogger, namespace string, nodes []execution.Node, config *Config) *Pool {
	namespace = fmt.Sprintf("%s_ethereum", namespace)

	if config == nil {
		config = &Config{}
	}

	return &Pool{
		log:                   log.WithField("module", "ethereum/pool"),
		executionNodes:        nodes,
		healthyExecutionNodes: make(map[execution.Node]bool, len(nodes)),
		metrics:               GetMetricsInstance(namespace),
		config:                config,
	}
}

func (p *Pool) HasExecutionNodes() bool {
	return len(p.executionNodes) > 0
}

func (p *Pool) HasHealthyExecutionNodes() bool {
	return len(p.GetHealthyExecutionNodes()) > 0
}

func (p *Pool) GetHealthyExecutionNodes() []execution.Node {
	p.mu.RLock()
	defer p.mu.RUnlock()

	healthyNodes := make([]execution.Node, 0, len(p.healthyExecutionNodes))

	for node, healthy := range p.healthyExecutionNodes {
		if healthy {
			healthyNodes = append(healthyNodes, node)
		}
	}

	return healthyNodes
}

// GetHealthyExecutionNode returns a random healthy node, or nil.
func (p *Pool) GetHealthyExecutionNode() execution.Node {
	healthyNodes := p.GetHealthyExecutionNodes()
	if len(healthyNodes) == 0 {
		return nil
	}

	//nolint:gosec // doesn't matter
	return healthyNodes[rand.IntN(len(healthyNodes))]
}

// WaitForHealthyExecutionNode blocks until a node is healthy or ctx is done.
func (p *Pool) WaitForHealthyExecutionNode(ctx context.Context) (execution.Node, error) {
	if len(p.executionNodes) == 0 {
		return nil, ErrNoNodesConfigured
	}

	attemptCount := 0
	startTime := time.Now()

	p.log.WithField("total_nodes", len(p.executionNodes)).Info("Waiting for healthy execution node")

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		attemptCount++

		if node := p.GetHealthyExecutionNode(); node != nil {
			p.log.WithFields(logrus.Fields{
				"node":     node.Name(),
				"attempts": attemptCount,
				"duration": time.Since(startTime).Round(time.Millisecond),
			}).Info("Found healthy execution node")

			return node, nil
		}

		// Log every 100 attempts (every 10 seconds)
		if attemptCount%100 == 0 {
			p.log.WithFields(logrus.Fields{
				"total_nodes": len(p.executionNodes),
				"attempts":    attemptCount,
				"waiting_for": time.Since(startTime).Round(time.Second),
			}).Info("Waiting for healthy execution node...")
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %w", ErrNoHealthyNode, ctx.Err())
		case <-ticker.C:
		}
	}
}

// Start starts every node and marks each healthy once it reports ready.
func (p *Pool) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)

	p.mu.Lock()
	p.cancel = cancel
	p.mu.Unlock()

	p.UpdateNodeMetrics()

	for _, node := range p.executionNodes {
		node.OnReady(ctx, func(_ context.Context) error {
			p.mu.Lock()
			p.healthyExecutionNodes[node] = true
			p.mu.Unlock()

			p.UpdateNodeMetrics()

			return nil
		})

		node.OnHealthChange(ctx, func(_ context.Context, healthy bool) {
			p.mu.Lock()
			p.healthyExecutionNodes[node] = healthy
			p.mu.Unlock()

			p.UpdateNodeMetrics()
		})

		if err := node.Start(ctx); err != nil {
			p.log.WithError(err).WithField("node", node.Name()).Error("Failed to start execution node")
		}
	}

	p.wg.Add(1)

	go func() {
		defer p.wg.Done()

		ticker := time.NewTicker(1 * time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.UpdateNodeMetrics()

				p.log.WithFields(logrus.Fields{
					"healthy_execution_nodes": fmt.Sprintf("%d/%d", len(p.GetHealthyExecutionNodes()), len(p.executionNodes)),
				}).Info("Pool status")
			}
		}
	}()
}

func (p *Pool) UpdateNodeMetrics() {
	healthyExec := len(p.GetHealthyExecutionNodes())
	unhealthyExec := len(p.executionNodes) - healthyExec

	p.metrics.SetNodesTotal(float64(healthyExec), []string{"execution", "healthy"})
	p.metrics.SetNodesTotal(float64(unhealthyExec), []string{"execution", "unhealthy"})
}

// Stop gracefully shuts down the pool.
func (p *Pool) Stop(ctx context.Context) error {
	p.log.Info("Stopping pool")

	p.mu.Lock()

	if p.cancel != nil {
		p.cancel()
	}

	p.mu.Unlock()

	done := make(chan struct{})

	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.log.Info("All pool goroutines stopped gracefully")
	case <-ctx.Done():
		p.log.Warn("Timeout waiting for pool goroutines to stop")
	}

	for _, node := range p.executionNodes {
		if err := node.Stop(ctx); err != nil {
			p.log.WithError(err).Error("Failed to stop execution node")
		}
	}

	return nil
}

// GetNetworkByChainID returns the network information for the given chain ID.
// If overrideNetworkName is set in config, it returns that name instead of using networkMap.
func (p *Pool) GetNetworkByChainID(chainID int64) (*Network, error) {
	if p.config.OverrideNetworkName != nil && *p.config.OverrideNetworkName != "" {
		return &Network{
			ID:   chainID,
			Name: *p.config.OverrideNetworkName,
		}, nil
	}

	return GetNetworkByChainID(chainID)
}
