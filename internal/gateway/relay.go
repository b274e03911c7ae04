package gateway

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// InboundHandler consumes a payload delivered on behalf of the verified
// counterpart gateway.
type InboundHandler func(ctx context.Context, value *big.Int, payload []byte) error

// DomainMessageRelay wraps the generic cross-domain messenger for one gateway
// pair: outbound sends always target the fixed counterpart, and inbound
// deliveries are accepted only when the messenger vouches that they originate
// from it. Proof verification belongs to the messenger and is not
// reimplemented here.
type DomainMessageRelay struct {
	messenger   DomainMessenger
	counterpart common.Address
	inbound     InboundHandler
	logger      *zap.Logger
}

// NewDomainMessageRelay creates a relay bound to the paired gateway address.
func NewDomainMessageRelay(messenger DomainMessenger, counterpart common.Address, logger *zap.Logger) *DomainMessageRelay {
	return &DomainMessageRelay{
		messenger:   messenger,
		counterpart: counterpart,
		logger:      logger,
	}
}

// Bind registers the handler invoked for authenticated inbound deliveries.
func (r *DomainMessageRelay) Bind(handler InboundHandler) {
	r.inbound = handler
}

// Send forwards an application payload to the counterpart with the given gas
// budget, forwarding any attached value as the relay fee.
func (r *DomainMessageRelay) Send(ctx context.Context, value *big.Int, payload []byte, gasLimit uint32) error {
	if err := r.messenger.Send(ctx, r.counterpart, value, payload, gasLimit); err != nil {
		return fmt.Errorf("domain messenger send failed: %w", err)
	}

	r.logger.Debug("Message sent to counterpart",
		zap.String("counterpart", r.counterpart.Hex()),
		zap.Int("payload_len", len(payload)),
		zap.Uint32("gas_limit", gasLimit))

	return nil
}

// Relay hands a pre-encoded relayed-call envelope to the messenger for
// execution.
func (r *DomainMessageRelay) Relay(ctx context.Context, encodedCall []byte) error {
	return r.messenger.Relay(ctx, encodedCall)
}

// Deliver is the entry point the messenger implementation invokes for relayed
// messages. Only the messenger holds a reference to it (handed out at wiring
// time), and it still rejects any sender other than the counterpart.
func (r *DomainMessageRelay) Deliver(ctx context.Context, sender common.Address, value *big.Int, payload []byte) error {
	if sender != r.counterpart {
		return fmt.Errorf("relayed message from %s: %w", sender.Hex(), ErrNotCounterpart)
	}
	if r.inbound == nil {
		return fmt.Errorf("relay has no inbound handler bound")
	}
	return r.inbound(ctx, value, payload)
}

// Counterpart returns the paired gateway address.
func (r *DomainMessageRelay) Counterpart() common.Address {
	return r.counterpart
}
