package gateway

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Deliverer is the inbound delivery entry a relay registers with the
// messenger at wiring time.
type Deliverer func(ctx context.Context, sender common.Address, value *big.Int, payload []byte) error

// SentMessage records one outbound send through the loopback messenger.
type SentMessage struct {
	Target   common.Address
	Value    *big.Int
	Payload  []byte
	GasLimit uint32
}

// LoopbackMessenger is an in-process DomainMessenger for tests and
// single-process deployments. Outbound sends are queued for an external
// relayer to pick up; Relay executes an encoded envelope against the handler
// registered for its target. The messenger is the trusted boundary here: the
// sender carried in the envelope plays the role of the proof-verified
// cross-domain sender.
type LoopbackMessenger struct {
	mu       sync.Mutex
	handlers map[common.Address]Deliverer
	sent     []SentMessage
}

// NewLoopbackMessenger creates an empty loopback messenger.
func NewLoopbackMessenger() *LoopbackMessenger {
	return &LoopbackMessenger{handlers: make(map[common.Address]Deliverer)}
}

// Register binds a delivery handler for a target address.
func (m *LoopbackMessenger) Register(target common.Address, deliver Deliverer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[target] = deliver
}

// Send queues an outbound message.
func (m *LoopbackMessenger) Send(_ context.Context, target common.Address, value *big.Int, payload []byte, gasLimit uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, SentMessage{
		Target:   target,
		Value:    value,
		Payload:  append([]byte{}, payload...),
		GasLimit: gasLimit,
	})
	return nil
}

// Relay decodes a relayed-call envelope and delivers it to the registered
// target handler. The handler lookup happens under the lock; the delivery
// itself does not, since handlers call back into gateway state.
func (m *LoopbackMessenger) Relay(ctx context.Context, encodedCall []byte) error {
	call, err := DecodeRelayedCall(encodedCall)
	if err != nil {
		return err
	}

	m.mu.Lock()
	handler, ok := m.handlers[call.Target]
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("no delivery handler registered for %s", call.Target.Hex())
	}

	return handler(ctx, call.Sender, call.Value, call.Data)
}

// Sent returns a copy of the outbound message queue.
func (m *LoopbackMessenger) Sent() []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SentMessage, len(m.sent))
	copy(out, m.sent)
	return out
}
