package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"usdcgateway/internal/attestation"
	"usdcgateway/internal/config"
	"usdcgateway/internal/service"
)

// Constants for worker configuration
const (
	DefaultPollInterval = 30 * time.Second
	MaxRetries          = 3
	BaseRetryDelay      = 5 * time.Second
	ClaimTimeout        = 2 * time.Minute
	MonitorTimeout      = 30 * time.Second
)

// Manager runs the claim automation: a monitor that pairs pending
// withdrawals with finalized attestations, and an executor that submits the
// claims.
type Manager struct {
	cfg       *config.Config
	transfers *service.TransferService
	attester  *attestation.Client
	logger    *zap.Logger

	monitor  *Monitor
	executor *Executor

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewManager creates a worker manager with all required dependencies
func NewManager(
	cfg *config.Config,
	transfers *service.TransferService,
	attester *attestation.Client,
	logger *zap.Logger,
) *Manager {
	ctx, cancel := context.WithCancel(context.Background())

	m := &Manager{
		cfg:       cfg,
		transfers: transfers,
		attester:  attester,
		logger:    logger.Named("worker"),
		ctx:       ctx,
		cancel:    cancel,
	}

	m.monitor = NewMonitor(m)
	m.executor = NewExecutor(m)

	return m
}

// Start starts all worker goroutines
func (m *Manager) Start() {
	m.logger.Info("Starting worker manager",
		zap.Duration("poll_interval", m.pollInterval()))

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.monitor.Run(m.ctx)
	}()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.executor.Run(m.ctx)
	}()

	m.logger.Info("Worker manager started")
}

// Shutdown gracefully stops all workers
func (m *Manager) Shutdown(timeout time.Duration) error {
	m.logger.Info("Shutting down worker manager")

	m.cancel()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.logger.Info("Workers stopped gracefully")
	case <-time.After(timeout):
		m.logger.Warn("Worker shutdown timed out")
	}

	return nil
}

func (m *Manager) pollInterval() time.Duration {
	if m.cfg.Attestation.PollInterval > 0 {
		return m.cfg.Attestation.PollInterval
	}
	return DefaultPollInterval
}
