package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"usdcgateway/internal/database"
	"usdcgateway/internal/gateway"
	"usdcgateway/internal/models"
)

const journalTimeout = 10 * time.Second

// Journal persists orchestrator events to PostgreSQL. Persistence is
// best-effort: the in-memory ledger stays authoritative for transfer state,
// and a failed write only costs the row, not the transfer. Failures are
// logged with the nonce so rows can be backfilled.
type Journal struct {
	db     *database.DB
	logger *zap.Logger
}

// NewJournal creates a journal backed by the given database
func NewJournal(db *database.DB, logger *zap.Logger) *Journal {
	return &Journal{
		db:     db,
		logger: logger.Named("journal"),
	}
}

// DepositInitiated records an outbound transfer
func (j *Journal) DepositInitiated(e gateway.DepositInitiated) {
	ctx, cancel := context.WithTimeout(context.Background(), journalTimeout)
	defer cancel()

	deposit := &models.Deposit{
		Nonce:     int64(e.Nonce),
		L1Token:   e.L1Token.Hex(),
		L2Token:   e.L2Token.Hex(),
		Sender:    e.From.Hex(),
		Recipient: e.To.Hex(),
		Amount:    e.Amount.String(),
		ExtraData: e.ExtraData,
	}
	if err := j.db.CreateDeposit(ctx, deposit); err != nil {
		j.logger.Error("Failed to journal deposit",
			zap.Uint64("nonce", e.Nonce),
			zap.Error(err))
	}
}

// WithdrawalFinalized records an inbound transfer entering PENDING
func (j *Journal) WithdrawalFinalized(e gateway.WithdrawalFinalized) {
	ctx, cancel := context.WithTimeout(context.Background(), journalTimeout)
	defer cancel()

	withdrawal := &models.Withdrawal{
		Nonce:     int64(e.Nonce),
		Sender:    e.From.Hex(),
		Recipient: e.To.Hex(),
		Amount:    e.Amount.String(),
	}
	if err := j.db.CreateWithdrawal(ctx, withdrawal); err != nil {
		j.logger.Error("Failed to journal finalized withdrawal",
			zap.Uint64("nonce", e.Nonce),
			zap.Error(err))
	}
}

// WithdrawalClaimed advances the journaled withdrawal to DONE
func (j *Journal) WithdrawalClaimed(e gateway.WithdrawalClaimed) {
	ctx, cancel := context.WithTimeout(context.Background(), journalTimeout)
	defer cancel()

	if err := j.db.MarkWithdrawalDone(ctx, int64(e.Nonce)); err != nil {
		j.logger.Error("Failed to journal claimed withdrawal",
			zap.Uint64("nonce", e.Nonce),
			zap.Error(err))
	}
}
