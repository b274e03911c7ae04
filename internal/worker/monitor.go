package worker

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"usdcgateway/internal/attestation"
)

// claimTask is a finalized withdrawal paired with its attested message,
// ready for claim submission.
type claimTask struct {
	nonce       uint64
	message     []byte
	attestation []byte
	retryCount  int
}

// Monitor polls the journal for pending withdrawals and the attestation API
// for their burn attestations, handing ready pairs to the executor.
type Monitor struct {
	manager *Manager
	logger  *zap.Logger

	// Channel carrying claims ready for execution
	readyClaims chan claimTask
}

// NewMonitor creates a new withdrawal monitor
func NewMonitor(manager *Manager) *Monitor {
	return &Monitor{
		manager:     manager,
		logger:      manager.logger.Named("monitor"),
		readyClaims: make(chan claimTask, 100),
	}
}

// Run starts the monitor polling loop
func (m *Monitor) Run(ctx context.Context) {
	m.logger.Info("Monitor started",
		zap.Duration("poll_interval", m.manager.pollInterval()))

	ticker := time.NewTicker(m.manager.pollInterval())
	defer ticker.Stop()

	// Initial poll
	m.poll(ctx)

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("Monitor stopping")
			close(m.readyClaims)
			return
		case <-ticker.C:
			m.poll(ctx)
		}
	}
}

// poll executes one polling cycle
func (m *Monitor) poll(ctx context.Context) {
	pollCtx, cancel := context.WithTimeout(ctx, MonitorTimeout)
	defer cancel()

	withdrawals, err := m.manager.transfers.PendingWithdrawals(pollCtx)
	if err != nil {
		m.logger.Error("Failed to get pending withdrawals", zap.Error(err))
		return
	}

	if len(withdrawals) == 0 {
		return
	}

	m.logger.Debug("Checking pending withdrawals", zap.Int("count", len(withdrawals)))

	sourceDomain := m.manager.cfg.Attestation.SourceDomain

	for i := range withdrawals {
		w := &withdrawals[i]

		select {
		case <-pollCtx.Done():
			return
		default:
		}

		if w.RetryCount >= MaxRetries {
			// Left for manual intervention; the row keeps its last error.
			continue
		}

		nonce := uint64(w.Nonce)
		attested, err := m.manager.attester.Fetch(pollCtx, sourceDomain, nonce)
		if err != nil {
			if errors.Is(err, attestation.ErrNotReady) {
				m.logger.Debug("Attestation not ready",
					zap.Uint64("nonce", nonce))
			} else {
				m.logger.Error("Failed to fetch attestation",
					zap.Uint64("nonce", nonce),
					zap.Error(err))
			}
			continue
		}

		m.logger.Info("Attestation ready, queueing claim",
			zap.Uint64("nonce", nonce))

		task := claimTask{
			nonce:       nonce,
			message:     attested.Message,
			attestation: attested.Attestation,
			retryCount:  w.RetryCount,
		}

		select {
		case m.readyClaims <- task:
		case <-pollCtx.Done():
			return
		default:
			m.logger.Warn("Executor channel full, skipping claim",
				zap.Uint64("nonce", nonce))
		}
	}
}
