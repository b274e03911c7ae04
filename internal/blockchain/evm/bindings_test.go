package evm

import (
	"bytes"
	"context"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"usdcgateway/internal/gateway"
)

func TestContractABIsParse(t *testing.T) {
	for name, raw := range map[string]string{
		"token messenger":     TokenMessengerABI,
		"message transmitter": MessageTransmitterABI,
		"domain messenger":    DomainMessengerABI,
		"erc20":               ERC20ABI,
	} {
		if _, err := abi.JSON(strings.NewReader(raw)); err != nil {
			t.Errorf("%s ABI failed to parse: %v", name, err)
		}
	}
}

func TestAddressToBytes32(t *testing.T) {
	addr := common.HexToAddress("0x1234567890abcdef1234567890abcdef12345678")
	got := addressToBytes32(addr)

	if !bytes.Equal(got[:12], make([]byte, 12)) {
		t.Errorf("expected 12 zero bytes of padding, got %x", got[:12])
	}
	if !bytes.Equal(got[12:], addr.Bytes()) {
		t.Errorf("address bytes mismatch: %x", got[12:])
	}
}

func TestDepositForBurnEventID(t *testing.T) {
	parsed, err := abi.JSON(strings.NewReader(TokenMessengerABI))
	if err != nil {
		t.Fatal(err)
	}

	event, ok := parsed.Events["DepositForBurn"]
	if !ok {
		t.Fatal("DepositForBurn event missing from ABI")
	}
	if len(event.Inputs) != 8 {
		t.Errorf("expected 8 event inputs, got %d", len(event.Inputs))
	}
	if !event.Inputs[0].Indexed || event.Inputs[0].Name != "nonce" {
		t.Error("expected nonce to be the first indexed input")
	}
}

func TestDomainMessengerRelayRejectsMalformedEnvelope(t *testing.T) {
	binding, err := NewDomainMessengerBinding(nil,
		common.HexToAddress("0x7000000000000000000000000000000000000007"), zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}

	// No transaction is attempted for an undecodable envelope.
	if err := binding.Relay(context.Background(), []byte{0x01, 0x02, 0x03}); err == nil {
		t.Error("expected malformed envelope to be rejected")
	}
}

func TestDomainMessengerLocalDelivery(t *testing.T) {
	gatewayAddr := common.HexToAddress("0x1000000000000000000000000000000000000001")
	counterpart := common.HexToAddress("0x2000000000000000000000000000000000000002")

	binding, err := NewDomainMessengerBinding(nil,
		common.HexToAddress("0x7000000000000000000000000000000000000007"), zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}

	// An unbound binding drops executed envelopes silently.
	unbound := gateway.RelayedCall{Target: gatewayAddr, Sender: counterpart, Data: []byte{0x01}}
	if err := binding.deliverLocal(context.Background(), unbound); err != nil {
		t.Fatalf("unbound delivery: %v", err)
	}

	var delivered int
	var gotSender common.Address
	var gotPayload []byte
	binding.Bind(gatewayAddr, func(_ context.Context, sender common.Address, _ *big.Int, payload []byte) error {
		delivered++
		gotSender = sender
		gotPayload = payload
		return nil
	})

	envelope := gateway.RelayedCall{Target: gatewayAddr, Sender: counterpart, Data: []byte{0xaa, 0xbb}}
	if err := binding.deliverLocal(context.Background(), envelope); err != nil {
		t.Fatalf("delivery failed: %v", err)
	}
	if delivered != 1 {
		t.Fatalf("expected 1 delivery, got %d", delivered)
	}
	if gotSender != counterpart {
		t.Errorf("expected sender %s, got %s", counterpart.Hex(), gotSender.Hex())
	}
	if !bytes.Equal(gotPayload, []byte{0xaa, 0xbb}) {
		t.Errorf("payload mismatch: %x", gotPayload)
	}

	// Envelopes targeting other contracts stay on-chain only.
	other := gateway.RelayedCall{
		Target: common.HexToAddress("0x9000000000000000000000000000000000000009"),
		Sender: counterpart,
		Data:   []byte{0xcc},
	}
	if err := binding.deliverLocal(context.Background(), other); err != nil {
		t.Fatalf("foreign-target delivery: %v", err)
	}
	if delivered != 1 {
		t.Errorf("envelope for another target must not be dispatched locally, got %d deliveries", delivered)
	}
}
