package evm

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"usdcgateway/internal/gateway"
)

const txTimeout = 2 * time.Minute

// TokenMessengerABI covers the burn entry point of the attested burn-and-mint
// system and the event carrying the burn nonce
const TokenMessengerABI = `[
	{
		"inputs": [
			{"internalType": "uint256", "name": "amount", "type": "uint256"},
			{"internalType": "uint32", "name": "destinationDomain", "type": "uint32"},
			{"internalType": "bytes32", "name": "mintRecipient", "type": "bytes32"},
			{"internalType": "address", "name": "burnToken", "type": "address"},
			{"internalType": "bytes32", "name": "destinationCaller", "type": "bytes32"}
		],
		"name": "depositForBurnWithCaller",
		"outputs": [{"internalType": "uint64", "name": "nonce", "type": "uint64"}],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"anonymous": false,
		"inputs": [
			{"indexed": true, "internalType": "uint64", "name": "nonce", "type": "uint64"},
			{"indexed": true, "internalType": "address", "name": "burnToken", "type": "address"},
			{"indexed": false, "internalType": "uint256", "name": "amount", "type": "uint256"},
			{"indexed": true, "internalType": "address", "name": "depositor", "type": "address"},
			{"indexed": false, "internalType": "bytes32", "name": "mintRecipient", "type": "bytes32"},
			{"indexed": false, "internalType": "uint32", "name": "destinationDomain", "type": "uint32"},
			{"indexed": false, "internalType": "bytes32", "name": "destinationTokenMessenger", "type": "bytes32"},
			{"indexed": false, "internalType": "bytes32", "name": "destinationCaller", "type": "bytes32"}
		],
		"name": "DepositForBurn",
		"type": "event"
	}
]`

// MessageTransmitterABI covers attested message submission
const MessageTransmitterABI = `[
	{
		"inputs": [
			{"internalType": "bytes", "name": "message", "type": "bytes"},
			{"internalType": "bytes", "name": "attestation", "type": "bytes"}
		],
		"name": "receiveMessage",
		"outputs": [{"internalType": "bool", "name": "success", "type": "bool"}],
		"stateMutability": "nonpayable",
		"type": "function"
	}
]`

// DomainMessengerABI covers the generic cross-domain messenger
const DomainMessengerABI = `[
	{
		"inputs": [
			{"internalType": "address", "name": "target", "type": "address"},
			{"internalType": "bytes", "name": "message", "type": "bytes"},
			{"internalType": "uint32", "name": "minGasLimit", "type": "uint32"}
		],
		"name": "sendMessage",
		"outputs": [],
		"stateMutability": "payable",
		"type": "function"
	}
]`

// ERC20ABI covers the transfer entry point the gateway needs
const ERC20ABI = `[
	{
		"inputs": [
			{"internalType": "address", "name": "from", "type": "address"},
			{"internalType": "address", "name": "to", "type": "address"},
			{"internalType": "uint256", "name": "amount", "type": "uint256"}
		],
		"name": "transferFrom",
		"outputs": [{"internalType": "bool", "name": "", "type": "bool"}],
		"stateMutability": "nonpayable",
		"type": "function"
	}
]`

// ==================== TokenMessenger ====================

// TokenMessengerBinding talks to the deployed burn contract
type TokenMessengerBinding struct {
	client  *Client
	address common.Address
	abi     abi.ABI
	logger  *zap.Logger
}

// NewTokenMessengerBinding creates a binding for the token messenger contract
func NewTokenMessengerBinding(client *Client, address common.Address, logger *zap.Logger) (*TokenMessengerBinding, error) {
	parsedABI, err := abi.JSON(strings.NewReader(TokenMessengerABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse token messenger ABI: %w", err)
	}

	return &TokenMessengerBinding{
		client:  client,
		address: address,
		abi:     parsedABI,
		logger:  logger,
	}, nil
}

// Address returns the bound contract address
func (b *TokenMessengerBinding) Address() common.Address {
	return b.address
}

// DepositForBurn burns amount and returns the transfer nonce parsed from the
// DepositForBurn event in the receipt
func (b *TokenMessengerBinding) DepositForBurn(
	ctx context.Context,
	amount *big.Int,
	destinationDomain uint32,
	mintRecipient common.Address,
	burnToken common.Address,
	destinationCaller common.Address,
) (uint64, error) {
	data, err := b.abi.Pack("depositForBurnWithCaller",
		amount,
		destinationDomain,
		addressToBytes32(mintRecipient),
		burnToken,
		addressToBytes32(destinationCaller),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to pack depositForBurnWithCaller: %w", err)
	}

	receipt, err := b.client.Execute(ctx, b.address, data, big.NewInt(0), txTimeout)
	if err != nil {
		return 0, fmt.Errorf("depositForBurn transaction failed: %w", err)
	}

	// The nonce is the first indexed topic of the DepositForBurn event
	eventID := b.abi.Events["DepositForBurn"].ID
	for _, log := range receipt.Logs {
		if log.Address != b.address || len(log.Topics) < 2 || log.Topics[0] != eventID {
			continue
		}
		nonce := new(big.Int).SetBytes(log.Topics[1].Bytes()).Uint64()

		b.logger.Info("Burn confirmed",
			zap.Uint64("nonce", nonce),
			zap.String("amount", amount.String()),
			zap.String("tx_hash", receipt.TxHash.Hex()))

		return nonce, nil
	}

	return 0, fmt.Errorf("DepositForBurn event not found in receipt %s", receipt.TxHash.Hex())
}

// ==================== MessageTransmitter ====================

// MessageTransmitterBinding talks to the deployed mint contract
type MessageTransmitterBinding struct {
	client  *Client
	address common.Address
	abi     abi.ABI
	logger  *zap.Logger
}

// NewMessageTransmitterBinding creates a binding for the message transmitter contract
func NewMessageTransmitterBinding(client *Client, address common.Address, logger *zap.Logger) (*MessageTransmitterBinding, error) {
	parsedABI, err := abi.JSON(strings.NewReader(MessageTransmitterABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse message transmitter ABI: %w", err)
	}

	return &MessageTransmitterBinding{
		client:  client,
		address: address,
		abi:     parsedABI,
		logger:  logger,
	}, nil
}

// Address returns the bound contract address
func (b *MessageTransmitterBinding) Address() common.Address {
	return b.address
}

// ReceiveMessage submits an attested message, completing the mint
func (b *MessageTransmitterBinding) ReceiveMessage(ctx context.Context, message []byte, attestation []byte) error {
	data, err := b.abi.Pack("receiveMessage", message, attestation)
	if err != nil {
		return fmt.Errorf("failed to pack receiveMessage: %w", err)
	}

	receipt, err := b.client.Execute(ctx, b.address, data, big.NewInt(0), txTimeout)
	if err != nil {
		return fmt.Errorf("receiveMessage transaction failed: %w", err)
	}

	b.logger.Info("Attested message submitted",
		zap.String("tx_hash", receipt.TxHash.Hex()),
		zap.Uint64("gas_used", receipt.GasUsed))

	return nil
}

// ==================== DomainMessenger ====================

// DomainMessengerBinding talks to the deployed cross-domain messenger. A
// local gateway can be bound to it; envelopes relayed through the messenger
// that target the bound gateway are dispatched to it in-process after the
// on-chain execution succeeds, keeping the status ledger in step with the
// chain.
type DomainMessengerBinding struct {
	client  *Client
	address common.Address
	abi     abi.ABI
	logger  *zap.Logger

	gatewayAddr common.Address
	deliver     gateway.Deliverer
}

// NewDomainMessengerBinding creates a binding for the domain messenger contract
func NewDomainMessengerBinding(client *Client, address common.Address, logger *zap.Logger) (*DomainMessengerBinding, error) {
	parsedABI, err := abi.JSON(strings.NewReader(DomainMessengerABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse domain messenger ABI: %w", err)
	}

	return &DomainMessengerBinding{
		client:  client,
		address: address,
		abi:     parsedABI,
		logger:  logger,
	}, nil
}

// Send forwards a payload to the target on the other chain
func (b *DomainMessengerBinding) Send(ctx context.Context, target common.Address, value *big.Int, payload []byte, gasLimit uint32) error {
	data, err := b.abi.Pack("sendMessage", target, payload, gasLimit)
	if err != nil {
		return fmt.Errorf("failed to pack sendMessage: %w", err)
	}

	if value == nil {
		value = big.NewInt(0)
	}

	receipt, err := b.client.Execute(ctx, b.address, data, value, txTimeout)
	if err != nil {
		return fmt.Errorf("sendMessage transaction failed: %w", err)
	}

	b.logger.Info("Cross-domain message sent",
		zap.String("target", target.Hex()),
		zap.Uint32("gas_limit", gasLimit),
		zap.String("tx_hash", receipt.TxHash.Hex()))

	return nil
}

// Bind registers the local gateway's inbound delivery entry.
func (b *DomainMessengerBinding) Bind(gatewayAddr common.Address, deliver gateway.Deliverer) {
	b.gatewayAddr = gatewayAddr
	b.deliver = deliver
}

// Relay executes a pre-encoded relayMessage envelope through the messenger.
// The envelope already carries the full calldata including selector; it is
// decoded up front, and malformed envelopes are rejected before any
// transaction is sent.
func (b *DomainMessengerBinding) Relay(ctx context.Context, encodedCall []byte) error {
	envelope, err := gateway.DecodeRelayedCall(encodedCall)
	if err != nil {
		return err
	}

	receipt, err := b.client.Execute(ctx, b.address, encodedCall, big.NewInt(0), txTimeout)
	if err != nil {
		return fmt.Errorf("relay transaction failed: %w", err)
	}

	b.logger.Info("Relayed call executed",
		zap.String("target", envelope.Target.Hex()),
		zap.String("tx_hash", receipt.TxHash.Hex()))

	return b.deliverLocal(ctx, envelope)
}

// deliverLocal dispatches an executed envelope to the bound gateway. The
// messenger contract has already verified and executed the message on-chain;
// the envelope sender therefore plays the role of the proof-verified
// cross-domain sender.
func (b *DomainMessengerBinding) deliverLocal(ctx context.Context, envelope gateway.RelayedCall) error {
	if b.deliver == nil || envelope.Target != b.gatewayAddr {
		return nil
	}
	return b.deliver(ctx, envelope.Sender, envelope.Value, envelope.Data)
}

// ==================== ERC20 ====================

// ERC20Binding talks to the deployed token contract
type ERC20Binding struct {
	client  *Client
	address common.Address
	abi     abi.ABI
	logger  *zap.Logger
}

// NewERC20Binding creates a binding for an ERC20 token contract
func NewERC20Binding(client *Client, address common.Address, logger *zap.Logger) (*ERC20Binding, error) {
	parsedABI, err := abi.JSON(strings.NewReader(ERC20ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ERC20 ABI: %w", err)
	}

	return &ERC20Binding{
		client:  client,
		address: address,
		abi:     parsedABI,
		logger:  logger,
	}, nil
}

// TransferFrom moves tokens from an approved holder
func (b *ERC20Binding) TransferFrom(ctx context.Context, from, to common.Address, amount *big.Int) error {
	data, err := b.abi.Pack("transferFrom", from, to, amount)
	if err != nil {
		return fmt.Errorf("failed to pack transferFrom: %w", err)
	}

	receipt, err := b.client.Execute(ctx, b.address, data, big.NewInt(0), txTimeout)
	if err != nil {
		return fmt.Errorf("transferFrom transaction failed: %w", err)
	}

	b.logger.Debug("Token transfer confirmed",
		zap.String("from", from.Hex()),
		zap.String("to", to.Hex()),
		zap.String("amount", amount.String()),
		zap.String("tx_hash", receipt.TxHash.Hex()))

	return nil
}

// addressToBytes32 left-pads an address into the 32-byte recipient form the
// burn-and-mint system expects
func addressToBytes32(addr common.Address) [32]byte {
	var out [32]byte
	copy(out[12:], addr.Bytes())
	return out
}
