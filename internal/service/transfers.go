package service

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"usdcgateway/internal/database"
	"usdcgateway/internal/gateway"
	"usdcgateway/internal/ledger"
	"usdcgateway/internal/models"
)

// TransferService fronts the gateway orchestrator for the API and worker
// layers: it delegates the three transfer operations and answers status
// queries from the journal and the in-memory ledger.
type TransferService struct {
	orch   *gateway.Orchestrator
	db     *database.DB
	logger *zap.Logger
}

// NewTransferService creates a new transfer service
func NewTransferService(orch *gateway.Orchestrator, db *database.DB, logger *zap.Logger) *TransferService {
	return &TransferService{
		orch:   orch,
		db:     db,
		logger: logger,
	}
}

// RestoreLedger rebuilds the in-memory status ledger from journaled
// withdrawals. Called once at startup, before any inbound delivery.
func (s *TransferService) RestoreLedger(ctx context.Context) error {
	statuses, err := s.db.LoadLedgerStatuses(ctx)
	if err != nil {
		return fmt.Errorf("failed to load ledger statuses: %w", err)
	}

	if err := s.orch.Ledger().Restore(statuses); err != nil {
		return fmt.Errorf("failed to restore ledger: %w", err)
	}

	s.logger.Info("Ledger restored from journal",
		zap.Int("tracked_nonces", len(statuses)))

	return nil
}

// Deposit initiates an outbound transfer and returns its burn nonce
func (s *TransferService) Deposit(ctx context.Context, params gateway.DepositParams) (uint64, error) {
	return s.orch.Deposit(ctx, params)
}

// Claim completes a finalized inbound transfer with its attested message
func (s *TransferService) Claim(ctx context.Context, nonce uint64, message, attestation []byte) error {
	return s.orch.Claim(ctx, nonce, message, attestation)
}

// RelayAndClaim finalizes and claims an inbound transfer in one action
func (s *TransferService) RelayAndClaim(ctx context.Context, nonce uint64, message, attestation, relayCall []byte) error {
	return s.orch.RelayAndClaim(ctx, nonce, message, attestation, relayCall)
}

// TransferStatus returns the ledger status for a nonce
func (s *TransferService) TransferStatus(nonce uint64) ledger.Status {
	return s.orch.Ledger().StatusOf(nonce)
}

// GetWithdrawal retrieves a journaled withdrawal by nonce
func (s *TransferService) GetWithdrawal(ctx context.Context, nonce uint64) (*models.Withdrawal, error) {
	return s.db.GetWithdrawalByNonce(ctx, int64(nonce))
}

// GetDeposit retrieves a journaled deposit by nonce
func (s *TransferService) GetDeposit(ctx context.Context, nonce uint64) (*models.Deposit, error) {
	return s.db.GetDepositByNonce(ctx, int64(nonce))
}

// ListDeposits retrieves journaled deposits, newest first
func (s *TransferService) ListDeposits(ctx context.Context, limit, offset int) ([]models.Deposit, error) {
	return s.db.ListDeposits(ctx, limit, offset)
}

// PendingWithdrawals retrieves all journaled withdrawals awaiting a claim
func (s *TransferService) PendingWithdrawals(ctx context.Context) ([]models.Withdrawal, error) {
	return s.db.GetWithdrawalsByStatus(ctx, ledger.StatusPending.String())
}

// WithdrawalsByStatus retrieves journaled withdrawals in a given status
func (s *TransferService) WithdrawalsByStatus(ctx context.Context, status ledger.Status) ([]models.Withdrawal, error) {
	return s.db.GetWithdrawalsByStatus(ctx, status.String())
}

// RecordClaimError journals a failed claim attempt for a nonce
func (s *TransferService) RecordClaimError(ctx context.Context, nonce uint64, errorMsg string) error {
	return s.db.UpdateWithdrawalError(ctx, int64(nonce), errorMsg)
}

// SetMessengers rebinds the burn-and-mint messengers through the orchestrator
func (s *TransferService) SetMessengers(caller common.Address, messenger gateway.TokenMessenger, transmitter gateway.MessageTransmitter, messengerAddr, transmitterAddr common.Address) error {
	return s.orch.SetMessengers(caller, messenger, transmitter, messengerAddr, transmitterAddr)
}
