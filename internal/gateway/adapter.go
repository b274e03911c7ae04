package gateway

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"usdcgateway/internal/ledger"
)

// BurnMintAdapter wraps the external attested burn-and-mint system. Burns are
// initiated on the local chain; claims submit an attested message to complete
// the corresponding mint, gated by the ledger so a mint can happen at most
// once and only after the withdrawal notification arrived.
type BurnMintAdapter struct {
	ledger *ledger.Ledger
	logger *zap.Logger

	burnToken         common.Address
	destinationDomain uint32
	destinationCaller common.Address

	mu              sync.RWMutex
	messenger       TokenMessenger
	transmitter     MessageTransmitter
	messengerAddr   common.Address
	transmitterAddr common.Address
}

// NewBurnMintAdapter creates an adapter bound to the given ledger and
// burn-and-mint collaborators.
func NewBurnMintAdapter(
	led *ledger.Ledger,
	messenger TokenMessenger,
	transmitter MessageTransmitter,
	burnToken common.Address,
	destinationDomain uint32,
	destinationCaller common.Address,
	logger *zap.Logger,
) *BurnMintAdapter {
	return &BurnMintAdapter{
		ledger:            led,
		logger:            logger,
		burnToken:         burnToken,
		destinationDomain: destinationDomain,
		destinationCaller: destinationCaller,
		messenger:         messenger,
		transmitter:       transmitter,
	}
}

// InitiateBurn burns amount on the local chain and returns the transfer nonce
// assigned by the burn-and-mint system. A failed burn aborts with no local
// state change.
func (a *BurnMintAdapter) InitiateBurn(ctx context.Context, amount *big.Int, recipient common.Address) (uint64, error) {
	a.mu.RLock()
	messenger := a.messenger
	a.mu.RUnlock()

	nonce, err := messenger.DepositForBurn(ctx, amount, a.destinationDomain, recipient, a.burnToken, a.destinationCaller)
	if err != nil {
		return 0, fmt.Errorf("burn failed: %w", err)
	}

	a.logger.Info("Burn initiated",
		zap.Uint64("nonce", nonce),
		zap.String("amount", amount.String()),
		zap.String("recipient", recipient.Hex()),
		zap.Uint32("destination_domain", a.destinationDomain))

	return nonce, nil
}

// Claim submits an attested message to complete the mint for nonce. Requires
// ledger status Pending; on success the nonce transitions to Done. The
// transition happens only after the external submission succeeded, so a
// failed submission leaves the nonce claimable.
func (a *BurnMintAdapter) Claim(ctx context.Context, nonce uint64, message, attestation []byte) error {
	if st := a.ledger.StatusOf(nonce); st != ledger.StatusPending {
		return fmt.Errorf("claim nonce %d: status %s: %w", nonce, st, ledger.ErrNotPending)
	}

	a.mu.RLock()
	transmitter := a.transmitter
	a.mu.RUnlock()

	if err := transmitter.ReceiveMessage(ctx, message, attestation); err != nil {
		return fmt.Errorf("attested message submission failed: %w", err)
	}

	if err := a.ledger.SetDone(nonce); err != nil {
		// The mint went through but another claim won the transition. The
		// external system's own replay protection makes this unreachable
		// under serialized execution; surface it loudly regardless.
		return fmt.Errorf("claim nonce %d: mint submitted but ledger transition failed: %w", nonce, err)
	}

	a.logger.Info("Withdrawal claimed", zap.Uint64("nonce", nonce))
	return nil
}

// SetMessengers rebinds the burn-and-mint collaborators. Owner authorization
// happens in the orchestrator; this is pure configuration mutation.
func (a *BurnMintAdapter) SetMessengers(messenger TokenMessenger, transmitter MessageTransmitter, messengerAddr, transmitterAddr common.Address) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.messenger = messenger
	a.transmitter = transmitter
	a.messengerAddr = messengerAddr
	a.transmitterAddr = transmitterAddr
}

// MessengerAddresses returns the recorded burn messenger and transmitter
// addresses.
func (a *BurnMintAdapter) MessengerAddresses() (common.Address, common.Address) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.messengerAddr, a.transmitterAddr
}
