package gateway

import (
	"context"
	"fmt"
	"math/big"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"usdcgateway/internal/ledger"
)

// Orchestrator composes the status ledger, the burn-and-mint adapter and the
// domain message relay into the two user-facing flows: deposit (local chain
// to counterpart chain) and withdraw-finalize + claim (counterpart chain back
// to this one). The ledger is the only state shared across the lifecycle, and
// every mutation of it is a guarded single transition.
type Orchestrator struct {
	cfg     Config
	ledger  *ledger.Ledger
	adapter *BurnMintAdapter
	relay   *DomainMessageRelay
	token   Token
	sink    EventSink
	logger  *zap.Logger

	// entered blocks reentrant use of the externally-callable entry points.
	// Inbound finalize deliveries are a separate entry and stay reachable
	// while a relay-and-claim holds the flag.
	entered atomic.Bool
}

// Dependencies bundles the collaborators the orchestrator is constructed
// with.
type Dependencies struct {
	Ledger      *ledger.Ledger
	Token       Token
	Messenger   TokenMessenger
	Transmitter MessageTransmitter
	Domain      DomainMessenger
	Events      EventSink
	Logger      *zap.Logger
}

// New creates an orchestrator, wiring the adapter and relay modules and
// binding the inbound finalize handler.
func New(cfg Config, deps Dependencies) (*Orchestrator, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid gateway config: %w", err)
	}
	if deps.Token == nil || deps.Messenger == nil || deps.Transmitter == nil || deps.Domain == nil {
		return nil, fmt.Errorf("gateway collaborators are required")
	}

	led := deps.Ledger
	if led == nil {
		led = ledger.New()
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	sink := deps.Events
	if sink == nil {
		sink = nopSink{}
	}

	o := &Orchestrator{
		cfg:    cfg,
		ledger: led,
		token:  deps.Token,
		sink:   sink,
		logger: logger.Named("gateway"),
	}
	o.adapter = NewBurnMintAdapter(led, deps.Messenger, deps.Transmitter,
		cfg.L1Token, cfg.DestinationDomain, cfg.Counterpart, o.logger)
	o.relay = NewDomainMessageRelay(deps.Domain, cfg.Counterpart, o.logger)
	o.relay.Bind(o.deliver)

	return o, nil
}

// Relay exposes the relay module so wiring code can register its Deliver
// entry with the messenger implementation.
func (o *Orchestrator) Relay() *DomainMessageRelay {
	return o.relay
}

// Ledger exposes the status ledger for read-only status queries.
func (o *Orchestrator) Ledger() *ledger.Ledger {
	return o.ledger
}

// Config returns the fixed gateway configuration.
func (o *Orchestrator) Config() Config {
	return o.cfg
}

// DepositParams carries a deposit request.
type DepositParams struct {
	// Caller is the immediate caller. When it equals the configured router,
	// ExtraData is expected to re-encode (originalSender, originalPayload)
	// and is unwrapped exactly one level.
	Caller common.Address
	// L1Token and L2Token must match the gateway's fixed token pair.
	L1Token common.Address
	L2Token common.Address
	// To is the recipient on the destination chain.
	To common.Address
	// Amount in token base units.
	Amount *big.Int
	// ExtraData is an opaque auxiliary payload carried to the counterpart.
	ExtraData []byte
	// GasLimit is the relay gas budget; 0 selects the configured default.
	GasLimit uint32
	// Value is attached native value, forwarded to the messenger as the
	// relay fee.
	Value *big.Int
}

// Deposit pulls funds from the sender, burns them through the burn-and-mint
// system, and notifies the counterpart gateway. The sequence is guarded
// against reentrancy; any collaborator failure aborts the whole operation
// with no local state change.
func (o *Orchestrator) Deposit(ctx context.Context, p DepositParams) (uint64, error) {
	if !o.entered.CompareAndSwap(false, true) {
		return 0, ErrReentrantCall
	}
	defer o.entered.Store(false)

	if p.Amount == nil || p.Amount.Sign() <= 0 {
		return 0, ErrZeroAmount
	}
	if p.L1Token != o.cfg.L1Token || p.L2Token != o.cfg.L2Token {
		return 0, fmt.Errorf("deposit %s/%s: %w", p.L1Token.Hex(), p.L2Token.Hex(), ErrTokenMismatch)
	}

	// Resolve the true sender, unwrapping one level of router indirection.
	from := p.Caller
	extraData := p.ExtraData
	if o.cfg.Router != (common.Address{}) && p.Caller == o.cfg.Router {
		var err error
		from, extraData, err = DecodeRouted(p.ExtraData)
		if err != nil {
			return 0, fmt.Errorf("routed deposit: %w", err)
		}
	}

	if err := o.token.TransferFrom(ctx, from, o.cfg.Address, p.Amount); err != nil {
		return 0, fmt.Errorf("failed to pull deposit funds: %w", err)
	}

	nonce, err := o.adapter.InitiateBurn(ctx, p.Amount, p.To)
	if err != nil {
		return 0, err
	}

	payload, err := EncodeFinalizeWithdrawal(FinalizeWithdrawal{
		L1Token:   o.cfg.L1Token,
		L2Token:   o.cfg.L2Token,
		From:      from,
		To:        p.To,
		Amount:    p.Amount,
		Nonce:     nonce,
		ExtraData: extraData,
	})
	if err != nil {
		return 0, err
	}

	gasLimit := p.GasLimit
	if gasLimit == 0 {
		gasLimit = o.cfg.FinalizeGasLimit
	}
	if err := o.relay.Send(ctx, p.Value, payload, gasLimit); err != nil {
		return 0, err
	}

	o.logger.Info("Deposit initiated",
		zap.Uint64("nonce", nonce),
		zap.String("from", from.Hex()),
		zap.String("to", p.To.Hex()),
		zap.String("amount", p.Amount.String()))

	o.sink.DepositInitiated(DepositInitiated{
		L1Token:   o.cfg.L1Token,
		L2Token:   o.cfg.L2Token,
		From:      from,
		To:        p.To,
		Amount:    p.Amount,
		Nonce:     nonce,
		ExtraData: extraData,
	})

	return nonce, nil
}

// deliver is the inbound handler bound to the relay. It dispatches
// counterpart payloads by selector; only finalize-withdrawal is understood.
func (o *Orchestrator) deliver(ctx context.Context, value *big.Int, payload []byte) error {
	m, err := DecodeFinalizeWithdrawal(payload)
	if err != nil {
		return err
	}
	return o.finalizeWithdrawal(ctx, value, m)
}

// finalizeWithdrawal records the counterpart's withdrawal notification,
// authorizing a subsequent claim. It moves no tokens.
func (o *Orchestrator) finalizeWithdrawal(_ context.Context, value *big.Int, m FinalizeWithdrawal) error {
	if value != nil && value.Sign() != 0 {
		return fmt.Errorf("finalize withdrawal nonce %d: %w", m.Nonce, ErrValueNotAllowed)
	}
	if m.L1Token != o.cfg.L1Token || m.L2Token != o.cfg.L2Token {
		return fmt.Errorf("finalize withdrawal nonce %d: %w", m.Nonce, ErrTokenMismatch)
	}

	if err := o.ledger.SetPending(m.Nonce); err != nil {
		return err
	}

	o.logger.Info("Withdrawal finalized",
		zap.Uint64("nonce", m.Nonce),
		zap.String("from", m.From.Hex()),
		zap.String("to", m.To.Hex()),
		zap.String("amount", m.Amount.String()))

	o.sink.WithdrawalFinalized(WithdrawalFinalized{
		L1Token:   m.L1Token,
		L2Token:   m.L2Token,
		From:      m.From,
		To:        m.To,
		Amount:    m.Amount,
		Nonce:     m.Nonce,
		ExtraData: m.ExtraData,
	})

	return nil
}

// Claim submits the attested message for a finalized withdrawal, completing
// the mint on this chain.
func (o *Orchestrator) Claim(ctx context.Context, nonce uint64, message, attestation []byte) error {
	if !o.entered.CompareAndSwap(false, true) {
		return ErrReentrantCall
	}
	defer o.entered.Store(false)

	return o.claim(ctx, nonce, message, attestation)
}

func (o *Orchestrator) claim(ctx context.Context, nonce uint64, message, attestation []byte) error {
	if err := o.adapter.Claim(ctx, nonce, message, attestation); err != nil {
		return err
	}
	o.sink.WithdrawalClaimed(WithdrawalClaimed{Nonce: nonce})
	return nil
}

// RelayAndClaim completes both halves of a withdrawal in one action: it runs
// the caller-supplied relayed call through the messenger (expected to deliver
// the finalize notification for nonce) and then claims. The status is checked
// before and after the embedded call; the relayed call is accepted as the
// intended finalize message only because the nonce actually moved to Pending.
func (o *Orchestrator) RelayAndClaim(ctx context.Context, nonce uint64, message, attestation, relayCall []byte) error {
	if !o.entered.CompareAndSwap(false, true) {
		return ErrReentrantCall
	}
	defer o.entered.Store(false)

	if st := o.ledger.StatusOf(nonce); st != ledger.StatusNone {
		return fmt.Errorf("relay and claim nonce %d: status %s: %w", nonce, st, ledger.ErrAlreadySeen)
	}

	if err := o.relay.Relay(ctx, relayCall); err != nil {
		return fmt.Errorf("embedded relay failed: %w", err)
	}

	if st := o.ledger.StatusOf(nonce); st != ledger.StatusPending {
		return fmt.Errorf("relay and claim nonce %d: status %s after relay: %w", nonce, st, ErrRelayNoEffect)
	}

	return o.claim(ctx, nonce, message, attestation)
}

// SetMessengers rebinds the burn-and-mint system addresses. Owner-only; pure
// configuration mutation with no transfer-state interaction.
func (o *Orchestrator) SetMessengers(caller common.Address, messenger TokenMessenger, transmitter MessageTransmitter, messengerAddr, transmitterAddr common.Address) error {
	if caller != o.cfg.Owner {
		return fmt.Errorf("set messengers by %s: %w", caller.Hex(), ErrNotOwner)
	}
	if messenger == nil || transmitter == nil {
		return fmt.Errorf("set messengers: nil collaborator")
	}

	o.adapter.SetMessengers(messenger, transmitter, messengerAddr, transmitterAddr)

	o.logger.Info("Burn-and-mint messengers reconfigured",
		zap.String("token_messenger", messengerAddr.Hex()),
		zap.String("message_transmitter", transmitterAddr.Hex()))

	return nil
}
