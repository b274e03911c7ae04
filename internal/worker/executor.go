package worker

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"usdcgateway/internal/ledger"
)

// Executor submits queued claims through the transfer service
type Executor struct {
	manager *Manager
	logger  *zap.Logger
}

// NewExecutor creates a new claim executor
func NewExecutor(manager *Manager) *Executor {
	return &Executor{
		manager: manager,
		logger:  manager.logger.Named("executor"),
	}
}

// Run starts the executor loop
func (e *Executor) Run(ctx context.Context) {
	e.logger.Info("Executor started")

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("Executor stopping")
			return
		case task, ok := <-e.manager.monitor.readyClaims:
			if !ok {
				e.logger.Info("Claim channel closed, executor stopping")
				return
			}
			e.handleClaim(ctx, task)
		}
	}
}

// handleClaim submits a single claim
func (e *Executor) handleClaim(ctx context.Context, task claimTask) {
	e.logger.Info("Submitting claim",
		zap.Uint64("nonce", task.nonce),
		zap.Int("retry_count", task.retryCount))

	claimCtx, cancel := context.WithTimeout(ctx, ClaimTimeout)
	defer cancel()

	err := e.manager.transfers.Claim(claimCtx, task.nonce, task.message, task.attestation)
	if err == nil {
		e.logger.Info("Claim completed", zap.Uint64("nonce", task.nonce))
		return
	}

	// A nonce claimed through the API between poll and execution shows up
	// here as a ledger precondition failure, not an operational error.
	if errors.Is(err, ledger.ErrNotPending) {
		e.logger.Debug("Claim already completed elsewhere",
			zap.Uint64("nonce", task.nonce))
		return
	}

	e.handleError(ctx, task, err)
}

// handleError records a claim failure with retry accounting
func (e *Executor) handleError(ctx context.Context, task claimTask, claimErr error) {
	e.logger.Error("Claim failed",
		zap.Uint64("nonce", task.nonce),
		zap.Int("retry_count", task.retryCount),
		zap.Error(claimErr))

	if err := e.manager.transfers.RecordClaimError(ctx, task.nonce, claimErr.Error()); err != nil {
		e.logger.Error("Failed to record claim error", zap.Error(err))
	}

	if task.retryCount+1 >= MaxRetries {
		e.logger.Error("Max retries exceeded, leaving claim for manual intervention",
			zap.Uint64("nonce", task.nonce))
		return
	}

	// Claim is retried on a later poll cycle; delay computed for logging only
	delay := BaseRetryDelay * time.Duration(1<<uint(task.retryCount+1))
	e.logger.Info("Claim scheduled for retry",
		zap.Uint64("nonce", task.nonce),
		zap.Duration("backoff_delay", delay),
		zap.Int("attempt", task.retryCount+1))
}
