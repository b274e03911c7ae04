package gateway

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Collaborator interfaces. The gateway core never talks to a chain directly;
// everything external goes through these, so the same orchestrator runs
// against deployed contracts (internal/blockchain/evm) or in-process fakes.

// TokenMessenger is the burn side of the attested burn-and-mint system.
// DepositForBurn irrevocably removes amount from the local supply and returns
// the transfer nonce that the eventual mint will be keyed by.
type TokenMessenger interface {
	DepositForBurn(ctx context.Context, amount *big.Int, destinationDomain uint32, mintRecipient common.Address, burnToken common.Address, destinationCaller common.Address) (uint64, error)
}

// MessageTransmitter is the mint side of the attested burn-and-mint system.
// ReceiveMessage verifies the attestation internally and performs the mint to
// whatever recipient the attested message encodes; the gateway trusts that
// verification and does not re-derive recipient or amount.
type MessageTransmitter interface {
	ReceiveMessage(ctx context.Context, message []byte, attestation []byte) error
}

// DomainMessenger is the generic cross-domain messenger carrying
// application-level payloads between the paired gateways, independent of the
// burn-and-mint system.
type DomainMessenger interface {
	// Send forwards a payload to the target on the other chain with a
	// caller-chosen gas budget, forwarding any attached value.
	Send(ctx context.Context, target common.Address, value *big.Int, payload []byte, gasLimit uint32) error
	// Relay executes a caller-supplied relayed-call envelope through the
	// messenger's own delivery and authentication mechanism.
	Relay(ctx context.Context, encodedCall []byte) error
}

// Token moves local funds into the gateway before they are burned.
type Token interface {
	TransferFrom(ctx context.Context, from, to common.Address, amount *big.Int) error
}

// Config is the fixed (post-construction) gateway configuration. Only the
// burn-and-mint messenger bindings are mutable afterwards, via the owner-only
// SetMessengers.
type Config struct {
	// Address identifies this gateway; pulled funds are held here until burned.
	Address common.Address
	// Counterpart is the paired gateway on the other chain. All inbound
	// relayed calls are authenticated against it.
	Counterpart common.Address
	// Owner may reconfigure the burn-and-mint messenger addresses.
	Owner common.Address
	// Router, when non-zero, is the optional indirection contract whose
	// deposits carry a re-encoded (originalSender, originalPayload) pair.
	Router common.Address

	// L1Token is the local token, L2Token its counterpart representation.
	L1Token common.Address
	L2Token common.Address

	// DestinationDomain is the burn-and-mint system's identifier for the
	// destination chain.
	DestinationDomain uint32
	// FinalizeGasLimit is the default gas budget for outbound finalize
	// messages when the depositor does not choose one.
	FinalizeGasLimit uint32
}

func (c Config) validate() error {
	if c.Address == (common.Address{}) {
		return fmt.Errorf("gateway address is required")
	}
	if c.Counterpart == (common.Address{}) {
		return fmt.Errorf("counterpart address is required")
	}
	if c.Owner == (common.Address{}) {
		return fmt.Errorf("owner address is required")
	}
	if c.L1Token == (common.Address{}) || c.L2Token == (common.Address{}) {
		return fmt.Errorf("token pair is required")
	}
	return nil
}

// Events emitted by the orchestrator. The service layer journals these; tests
// assert on them.

// DepositInitiated is emitted when a deposit has pulled funds, burned them,
// and sent the finalize message.
type DepositInitiated struct {
	L1Token   common.Address
	L2Token   common.Address
	From      common.Address
	To        common.Address
	Amount    *big.Int
	Nonce     uint64
	ExtraData []byte
}

// WithdrawalFinalized is emitted when the counterpart's withdrawal
// notification is delivered and the nonce enters Pending. No tokens move.
type WithdrawalFinalized struct {
	L1Token   common.Address
	L2Token   common.Address
	From      common.Address
	To        common.Address
	Amount    *big.Int
	Nonce     uint64
	ExtraData []byte
}

// WithdrawalClaimed is emitted when the attested mint for a nonce has been
// submitted and the nonce is Done.
type WithdrawalClaimed struct {
	Nonce uint64
}

// EventSink receives orchestrator events. Implementations must not call back
// into the orchestrator.
type EventSink interface {
	DepositInitiated(e DepositInitiated)
	WithdrawalFinalized(e WithdrawalFinalized)
	WithdrawalClaimed(e WithdrawalClaimed)
}

// nopSink discards events.
type nopSink struct{}

func (nopSink) DepositInitiated(DepositInitiated)       {}
func (nopSink) WithdrawalFinalized(WithdrawalFinalized) {}
func (nopSink) WithdrawalClaimed(WithdrawalClaimed)     {}

// Validation and authorization errors. State-precondition errors come from
// the ledger package (ledger.ErrAlreadySeen, ledger.ErrNotPending).
var (
	ErrZeroAmount      = fmt.Errorf("amount must be positive")
	ErrTokenMismatch   = fmt.Errorf("token pair does not match gateway configuration")
	ErrValueNotAllowed = fmt.Errorf("non-zero value not allowed")
	ErrNotOwner        = fmt.Errorf("caller is not the owner")
	ErrNotCounterpart  = fmt.Errorf("sender is not the counterpart gateway")
	ErrReentrantCall   = fmt.Errorf("reentrant call")
	ErrRelayNoEffect   = fmt.Errorf("relayed call did not finalize the withdrawal")
)
