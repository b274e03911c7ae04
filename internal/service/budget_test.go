package service

import (
	"testing"

	"go.uber.org/zap"

	"usdcgateway/internal/config"
)

func newBudgetService() *BudgetService {
	cfg := &config.Config{}
	cfg.Gateway.FinalizeGasLimit = 200000
	cfg.Gateway.MinGasLimit = 100000
	cfg.Gateway.MaxGasLimit = 2000000
	return NewBudgetService(cfg, zap.NewNop())
}

func TestResolveGasLimitDefault(t *testing.T) {
	s := newBudgetService()

	got, err := s.ResolveGasLimit(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 200000 {
		t.Errorf("expected default 200000, got %d", got)
	}
}

func TestResolveGasLimitInRange(t *testing.T) {
	s := newBudgetService()

	for _, requested := range []uint32{100000, 500000, 2000000} {
		got, err := s.ResolveGasLimit(requested)
		if err != nil {
			t.Errorf("gas limit %d: unexpected error: %v", requested, err)
			continue
		}
		if got != requested {
			t.Errorf("gas limit %d: got %d", requested, got)
		}
	}
}

func TestResolveGasLimitOutOfRange(t *testing.T) {
	s := newBudgetService()

	if _, err := s.ResolveGasLimit(99999); err == nil {
		t.Error("expected error below minimum")
	}
	if _, err := s.ResolveGasLimit(2000001); err == nil {
		t.Error("expected error above maximum")
	}
}
