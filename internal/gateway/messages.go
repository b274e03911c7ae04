package gateway

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Payload codec for the application messages carried over the domain
// messenger. The envelope follows the cross-domain messenger call convention:
// a 4-byte keccak selector followed by ABI-encoded arguments.

var (
	typeAddress = mustType("address")
	typeUint256 = mustType("uint256")
	typeUint64  = mustType("uint64")
	typeBytes   = mustType("bytes")
)

func mustType(t string) abi.Type {
	ty, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(fmt.Sprintf("abi type %s: %v", t, err))
	}
	return ty
}

var (
	finalizeSelector = crypto.Keccak256([]byte("finalizeWithdrawal(address,address,address,address,uint256,uint64,bytes)"))[:4]
	relaySelector    = crypto.Keccak256([]byte("relayMessage(address,address,uint256,bytes)"))[:4]

	finalizeArgs = abi.Arguments{
		{Name: "l1Token", Type: typeAddress},
		{Name: "l2Token", Type: typeAddress},
		{Name: "from", Type: typeAddress},
		{Name: "to", Type: typeAddress},
		{Name: "amount", Type: typeUint256},
		{Name: "nonce", Type: typeUint64},
		{Name: "extraData", Type: typeBytes},
	}

	relayArgs = abi.Arguments{
		{Name: "target", Type: typeAddress},
		{Name: "sender", Type: typeAddress},
		{Name: "value", Type: typeUint256},
		{Name: "data", Type: typeBytes},
	}

	routedArgs = abi.Arguments{
		{Name: "originalSender", Type: typeAddress},
		{Name: "originalPayload", Type: typeBytes},
	}
)

// ErrUnknownSelector is returned when a payload does not carry the expected
// 4-byte function selector.
var ErrUnknownSelector = fmt.Errorf("unknown payload selector")

// FinalizeWithdrawal is the application-level withdrawal notification sent
// from the counterpart gateway. Nonce is the transfer identifier assigned by
// the burn-and-mint system at burn time; it is the sole correlation key
// between the two message systems.
type FinalizeWithdrawal struct {
	L1Token   common.Address
	L2Token   common.Address
	From      common.Address
	To        common.Address
	Amount    *big.Int
	Nonce     uint64
	ExtraData []byte
}

// EncodeFinalizeWithdrawal packs a withdrawal notification for transport over
// the domain messenger.
func EncodeFinalizeWithdrawal(m FinalizeWithdrawal) ([]byte, error) {
	if m.Amount == nil {
		return nil, fmt.Errorf("finalize withdrawal: nil amount")
	}
	extra := m.ExtraData
	if extra == nil {
		extra = []byte{}
	}
	packed, err := finalizeArgs.Pack(m.L1Token, m.L2Token, m.From, m.To, m.Amount, m.Nonce, extra)
	if err != nil {
		return nil, fmt.Errorf("failed to pack finalize withdrawal: %w", err)
	}
	return append(append([]byte{}, finalizeSelector...), packed...), nil
}

// DecodeFinalizeWithdrawal unpacks a withdrawal notification payload.
func DecodeFinalizeWithdrawal(payload []byte) (FinalizeWithdrawal, error) {
	if len(payload) < 4 || !bytes.Equal(payload[:4], finalizeSelector) {
		return FinalizeWithdrawal{}, fmt.Errorf("finalize withdrawal payload: %w", ErrUnknownSelector)
	}
	values, err := finalizeArgs.Unpack(payload[4:])
	if err != nil {
		return FinalizeWithdrawal{}, fmt.Errorf("failed to unpack finalize withdrawal: %w", err)
	}
	return FinalizeWithdrawal{
		L1Token:   values[0].(common.Address),
		L2Token:   values[1].(common.Address),
		From:      values[2].(common.Address),
		To:        values[3].(common.Address),
		Amount:    values[4].(*big.Int),
		Nonce:     values[5].(uint64),
		ExtraData: values[6].([]byte),
	}, nil
}

// RelayedCall is the envelope the generic messenger executes on behalf of a
// verified cross-domain sender.
type RelayedCall struct {
	Target common.Address
	Sender common.Address
	Value  *big.Int
	Data   []byte
}

// EncodeRelayedCall packs a relayed-call envelope.
func EncodeRelayedCall(c RelayedCall) ([]byte, error) {
	value := c.Value
	if value == nil {
		value = big.NewInt(0)
	}
	data := c.Data
	if data == nil {
		data = []byte{}
	}
	packed, err := relayArgs.Pack(c.Target, c.Sender, value, data)
	if err != nil {
		return nil, fmt.Errorf("failed to pack relayed call: %w", err)
	}
	return append(append([]byte{}, relaySelector...), packed...), nil
}

// DecodeRelayedCall unpacks a relayed-call envelope.
func DecodeRelayedCall(payload []byte) (RelayedCall, error) {
	if len(payload) < 4 || !bytes.Equal(payload[:4], relaySelector) {
		return RelayedCall{}, fmt.Errorf("relayed call payload: %w", ErrUnknownSelector)
	}
	values, err := relayArgs.Unpack(payload[4:])
	if err != nil {
		return RelayedCall{}, fmt.Errorf("failed to unpack relayed call: %w", err)
	}
	return RelayedCall{
		Target: values[0].(common.Address),
		Sender: values[1].(common.Address),
		Value:  values[2].(*big.Int),
		Data:   values[3].([]byte),
	}, nil
}

// EncodeRouted wraps a deposit payload with the original sender, the way the
// router indirection re-encodes user calls before forwarding them.
func EncodeRouted(originalSender common.Address, originalPayload []byte) ([]byte, error) {
	payload := originalPayload
	if payload == nil {
		payload = []byte{}
	}
	packed, err := routedArgs.Pack(originalSender, payload)
	if err != nil {
		return nil, fmt.Errorf("failed to pack routed payload: %w", err)
	}
	return packed, nil
}

// DecodeRouted unwraps exactly one level of router indirection.
func DecodeRouted(data []byte) (common.Address, []byte, error) {
	values, err := routedArgs.Unpack(data)
	if err != nil {
		return common.Address{}, nil, fmt.Errorf("failed to unpack routed payload: %w", err)
	}
	return values[0].(common.Address), values[1].([]byte), nil
}
