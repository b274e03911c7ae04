package database

import (
	"context"
	"database/sql"
	"fmt"

	"usdcgateway/internal/ledger"
	"usdcgateway/internal/models"
)

// ==================== Deposit Queries ====================

// CreateDeposit records an outbound transfer after the burn succeeded
func (db *DB) CreateDeposit(ctx context.Context, deposit *models.Deposit) error {
	query := `
		INSERT INTO deposits (nonce, l1_token, l2_token, sender, recipient, amount, extra_data)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	return db.QueryRowContext(
		ctx, query,
		deposit.Nonce,
		deposit.L1Token,
		deposit.L2Token,
		deposit.Sender,
		deposit.Recipient,
		deposit.Amount,
		deposit.ExtraData,
	).Scan(&deposit.ID)
}

// GetDepositByNonce retrieves a deposit by its burn nonce
func (db *DB) GetDepositByNonce(ctx context.Context, nonce int64) (*models.Deposit, error) {
	var deposit models.Deposit
	query := `
		SELECT id, nonce, l1_token, l2_token, sender, recipient, amount, extra_data
		FROM deposits
		WHERE nonce = $1
	`
	err := db.GetContext(ctx, &deposit, query, nonce)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return &deposit, err
}

// ListDeposits retrieves deposits in reverse insertion order
func (db *DB) ListDeposits(ctx context.Context, limit, offset int) ([]models.Deposit, error) {
	var deposits []models.Deposit
	query := `
		SELECT id, nonce, l1_token, l2_token, sender, recipient, amount, extra_data
		FROM deposits
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	err := db.SelectContext(ctx, &deposits, query, limit, offset)
	return deposits, err
}

// ==================== Withdrawal Queries ====================

// CreateWithdrawal records an inbound transfer at PENDING. The unique index
// on nonce makes replays of the counterpart's notification fail here.
func (db *DB) CreateWithdrawal(ctx context.Context, withdrawal *models.Withdrawal) error {
	withdrawal.Status = ledger.StatusPending.String()
	query := `
		INSERT INTO withdrawals (nonce, status, sender, recipient, amount, retry_count)
		VALUES ($1, $2, $3, $4, $5, 0)
		RETURNING id
	`
	return db.QueryRowContext(
		ctx, query,
		withdrawal.Nonce,
		withdrawal.Status,
		withdrawal.Sender,
		withdrawal.Recipient,
		withdrawal.Amount,
	).Scan(&withdrawal.ID)
}

// GetWithdrawalByNonce retrieves a withdrawal by its burn nonce
func (db *DB) GetWithdrawalByNonce(ctx context.Context, nonce int64) (*models.Withdrawal, error) {
	var withdrawal models.Withdrawal
	query := `
		SELECT id, nonce, status, sender, recipient, amount, error_message, retry_count
		FROM withdrawals
		WHERE nonce = $1
	`
	err := db.GetContext(ctx, &withdrawal, query, nonce)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return &withdrawal, err
}

// GetWithdrawalsByStatus retrieves all withdrawals with a given status
func (db *DB) GetWithdrawalsByStatus(ctx context.Context, status string) ([]models.Withdrawal, error) {
	var withdrawals []models.Withdrawal
	query := `
		SELECT id, nonce, status, sender, recipient, amount, error_message, retry_count
		FROM withdrawals
		WHERE status = $1
		ORDER BY created_at ASC
	`
	err := db.SelectContext(ctx, &withdrawals, query, status)
	return withdrawals, err
}

// MarkWithdrawalDone advances a withdrawal from PENDING to DONE
func (db *DB) MarkWithdrawalDone(ctx context.Context, nonce int64) error {
	query := `
		UPDATE withdrawals
		SET status = $1, error_message = NULL, updated_at = NOW()
		WHERE nonce = $2 AND status = $3
	`
	result, err := db.ExecContext(ctx, query, ledger.StatusDone.String(), nonce, ledger.StatusPending.String())
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("withdrawal %d is not pending", nonce)
	}
	return nil
}

// UpdateWithdrawalError records a claim failure and increments retry count
func (db *DB) UpdateWithdrawalError(ctx context.Context, nonce int64, errorMsg string) error {
	query := `
		UPDATE withdrawals
		SET error_message = $1, retry_count = retry_count + 1, updated_at = NOW()
		WHERE nonce = $2
	`
	_, err := db.ExecContext(ctx, query, ToNullString(errorMsg), nonce)
	return err
}

// LoadLedgerStatuses reads every tracked withdrawal status for startup restore
func (db *DB) LoadLedgerStatuses(ctx context.Context) (map[uint64]ledger.Status, error) {
	rows := []struct {
		Nonce  int64  `db:"nonce"`
		Status string `db:"status"`
	}{}
	query := `SELECT nonce, status FROM withdrawals`
	if err := db.SelectContext(ctx, &rows, query); err != nil {
		return nil, err
	}

	statuses := make(map[uint64]ledger.Status, len(rows))
	for _, row := range rows {
		status, err := ledger.ParseStatus(row.Status)
		if err != nil {
			return nil, fmt.Errorf("withdrawal %d: %w", row.Nonce, err)
		}
		statuses[uint64(row.Nonce)] = status
	}
	return statuses, nil
}
