package gateway

import (
	"bytes"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestFinalizeWithdrawalRoundTrip(t *testing.T) {
	in := FinalizeWithdrawal{
		L1Token:   common.HexToAddress("0x1111111111111111111111111111111111111111"),
		L2Token:   common.HexToAddress("0x2222222222222222222222222222222222222222"),
		From:      common.HexToAddress("0x3333333333333333333333333333333333333333"),
		To:        common.HexToAddress("0x4444444444444444444444444444444444444444"),
		Amount:    big.NewInt(1_000_000),
		Nonce:     42,
		ExtraData: []byte("aux"),
	}

	payload, err := EncodeFinalizeWithdrawal(in)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	out, err := DecodeFinalizeWithdrawal(payload)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if out.L1Token != in.L1Token || out.L2Token != in.L2Token {
		t.Errorf("token pair mismatch: got %s/%s", out.L1Token.Hex(), out.L2Token.Hex())
	}
	if out.From != in.From || out.To != in.To {
		t.Errorf("party mismatch: got %s -> %s", out.From.Hex(), out.To.Hex())
	}
	if out.Amount.Cmp(in.Amount) != 0 {
		t.Errorf("amount mismatch: got %s", out.Amount)
	}
	if out.Nonce != in.Nonce {
		t.Errorf("nonce mismatch: got %d", out.Nonce)
	}
	if !bytes.Equal(out.ExtraData, in.ExtraData) {
		t.Errorf("extra data mismatch: got %q", out.ExtraData)
	}
}

func TestDecodeFinalizeWithdrawalRejectsForeignPayload(t *testing.T) {
	relayed, err := EncodeRelayedCall(RelayedCall{
		Target: common.HexToAddress("0x01"),
		Sender: common.HexToAddress("0x02"),
		Value:  big.NewInt(0),
		Data:   []byte{0x01},
	})
	if err != nil {
		t.Fatal(err)
	}

	for _, payload := range [][]byte{nil, {0x01, 0x02}, relayed} {
		if _, err := DecodeFinalizeWithdrawal(payload); !errors.Is(err, ErrUnknownSelector) {
			t.Errorf("payload %x: expected ErrUnknownSelector, got %v", payload, err)
		}
	}
}

func TestRelayedCallRoundTrip(t *testing.T) {
	in := RelayedCall{
		Target: common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"),
		Sender: common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"),
		Value:  big.NewInt(5),
		Data:   []byte{0xde, 0xad},
	}

	encoded, err := EncodeRelayedCall(in)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	out, err := DecodeRelayedCall(encoded)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if out.Target != in.Target || out.Sender != in.Sender {
		t.Errorf("address mismatch: %s / %s", out.Target.Hex(), out.Sender.Hex())
	}
	if out.Value.Cmp(in.Value) != 0 {
		t.Errorf("value mismatch: %s", out.Value)
	}
	if !bytes.Equal(out.Data, in.Data) {
		t.Errorf("data mismatch: %x", out.Data)
	}
}

func TestRoutedRoundTrip(t *testing.T) {
	sender := common.HexToAddress("0xcccccccccccccccccccccccccccccccccccccccc")
	payload := []byte("original")

	encoded, err := EncodeRouted(sender, payload)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	gotSender, gotPayload, err := DecodeRouted(encoded)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if gotSender != sender {
		t.Errorf("sender mismatch: %s", gotSender.Hex())
	}
	if !bytes.Equal(gotPayload, payload) {
		t.Errorf("payload mismatch: %q", gotPayload)
	}

	if _, _, err := DecodeRouted([]byte{0x01}); err == nil {
		t.Error("expected error for malformed routed payload")
	}
}
