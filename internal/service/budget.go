package service

import (
	"fmt"

	"go.uber.org/zap"

	"usdcgateway/internal/config"
)

// BudgetService resolves relay gas budgets for outbound finalize messages
type BudgetService struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewBudgetService creates a new budget service
func NewBudgetService(cfg *config.Config, logger *zap.Logger) *BudgetService {
	return &BudgetService{
		cfg:    cfg,
		logger: logger,
	}
}

// ResolveGasLimit maps a caller-requested gas limit onto the configured
// bounds. Zero selects the default; out-of-range requests are rejected rather
// than silently clamped so callers learn the bounds.
func (s *BudgetService) ResolveGasLimit(requested uint32) (uint32, error) {
	if requested == 0 {
		return s.cfg.Gateway.FinalizeGasLimit, nil
	}

	if requested < s.cfg.Gateway.MinGasLimit {
		return 0, fmt.Errorf("gas limit %d is below minimum %d", requested, s.cfg.Gateway.MinGasLimit)
	}
	if requested > s.cfg.Gateway.MaxGasLimit {
		return 0, fmt.Errorf("gas limit %d exceeds maximum %d", requested, s.cfg.Gateway.MaxGasLimit)
	}

	s.logger.Debug("Resolved relay gas limit",
		zap.Uint32("requested", requested))

	return requested, nil
}
