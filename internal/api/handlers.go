package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"usdcgateway/internal/config"
	"usdcgateway/internal/gateway"
	"usdcgateway/internal/ledger"
	"usdcgateway/internal/service"
)

// RebindFunc constructs burn-and-mint messenger bindings for new addresses.
// Wiring code supplies it so the handler stays independent of the chain
// client.
type RebindFunc func(messengerAddr, transmitterAddr common.Address) (gateway.TokenMessenger, gateway.MessageTransmitter, error)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	transfers *service.TransferService
	budget    *service.BudgetService
	cfg       *config.Config
	rebind    RebindFunc
	logger    *zap.Logger
}

// NewHandler creates a new API handler
func NewHandler(
	transfers *service.TransferService,
	budget *service.BudgetService,
	cfg *config.Config,
	rebind RebindFunc,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		transfers: transfers,
		budget:    budget,
		cfg:       cfg,
		rebind:    rebind,
		logger:    logger,
	}
}

// ==================== Health Check ====================

// HandleHealth returns service health status
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:  "ok",
		Version: "1.0.0",
	}
	respondJSON(w, http.StatusOK, response)
}

// ==================== Deposits ====================

// HandleCreateDeposit handles POST /api/v1/deposits
// Initiates an outbound transfer and returns its burn nonce
func (h *Handler) HandleCreateDeposit(w http.ResponseWriter, r *http.Request) {
	var req CreateDepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("Failed to decode request", zap.Error(err))
		respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	// Validate request
	for field, value := range map[string]string{
		"sender":   req.Sender,
		"l1_token": req.L1Token,
		"l2_token": req.L2Token,
		"to":       req.To,
	} {
		if !common.IsHexAddress(value) {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid %s address", field), nil)
			return
		}
	}

	amount, ok := new(big.Int).SetString(req.Amount, 10)
	if !ok || amount.Sign() <= 0 {
		respondError(w, http.StatusBadRequest, "amount must be a positive integer", nil)
		return
	}

	var extraData []byte
	if req.ExtraData != "" {
		decoded, err := hexutil.Decode(req.ExtraData)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid extra_data: must be hex", err)
			return
		}
		extraData = decoded
	}

	gasLimit, err := h.budget.ResolveGasLimit(req.GasLimit)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid gas_limit", err)
		return
	}

	h.logger.Info("Initiating deposit",
		zap.String("sender", req.Sender),
		zap.String("to", req.To),
		zap.String("amount", amount.String()))

	nonce, err := h.transfers.Deposit(r.Context(), gateway.DepositParams{
		Caller:    common.HexToAddress(req.Sender),
		L1Token:   common.HexToAddress(req.L1Token),
		L2Token:   common.HexToAddress(req.L2Token),
		To:        common.HexToAddress(req.To),
		Amount:    amount,
		ExtraData: extraData,
		GasLimit:  gasLimit,
	})
	if err != nil {
		h.logger.Error("Deposit failed",
			zap.String("sender", req.Sender),
			zap.Error(err))
		respondTransferError(w, "Deposit failed", err)
		return
	}

	respondJSON(w, http.StatusCreated, CreateDepositResponse{Nonce: nonce})
}

// HandleListDeposits handles GET /api/v1/deposits
// Lists journaled deposits, newest first
func (h *Handler) HandleListDeposits(w http.ResponseWriter, r *http.Request) {
	limit := 50
	offset := 0

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 {
			limit = parsedLimit
		}
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if parsedOffset, err := strconv.Atoi(offsetStr); err == nil && parsedOffset >= 0 {
			offset = parsedOffset
		}
	}

	deposits, err := h.transfers.ListDeposits(r.Context(), limit, offset)
	if err != nil {
		h.logger.Error("Failed to list deposits", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to list deposits", err)
		return
	}

	summaries := make([]DepositSummary, 0, len(deposits))
	for _, d := range deposits {
		summaries = append(summaries, DepositSummary{
			Nonce:     uint64(d.Nonce),
			L1Token:   d.L1Token,
			L2Token:   d.L2Token,
			Sender:    d.Sender,
			Recipient: d.Recipient,
			Amount:    d.Amount,
		})
	}

	respondJSON(w, http.StatusOK, ListDepositsResponse{Deposits: summaries})
}

// HandleListWithdrawals handles GET /api/v1/withdrawals
// Lists journaled withdrawals in a status, PENDING by default
func (h *Handler) HandleListWithdrawals(w http.ResponseWriter, r *http.Request) {
	statusParam := r.URL.Query().Get("status")
	if statusParam == "" {
		statusParam = ledger.StatusPending.String()
	}
	status, err := ledger.ParseStatus(statusParam)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid status", err)
		return
	}

	withdrawals, err := h.transfers.WithdrawalsByStatus(r.Context(), status)
	if err != nil {
		h.logger.Error("Failed to list withdrawals", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to list withdrawals", err)
		return
	}

	summaries := make([]WithdrawalSummary, 0, len(withdrawals))
	for _, wd := range withdrawals {
		summaries = append(summaries, WithdrawalSummary{
			Nonce:      uint64(wd.Nonce),
			Status:     wd.Status,
			Sender:     wd.Sender,
			Recipient:  wd.Recipient,
			Amount:     wd.Amount,
			RetryCount: wd.RetryCount,
			Error:      wd.ErrorMessage,
		})
	}

	respondJSON(w, http.StatusOK, ListWithdrawalsResponse{Withdrawals: summaries})
}

// ==================== Transfer Status ====================

// HandleGetTransferStatus handles GET /api/v1/transfers/{nonce}
// Returns the ledger status for a nonce, with journal details when present
func (h *Handler) HandleGetTransferStatus(w http.ResponseWriter, r *http.Request) {
	nonce, ok := parseNonce(w, r)
	if !ok {
		return
	}

	response := TransferStatusResponse{
		Nonce:  nonce,
		Status: h.transfers.TransferStatus(nonce).String(),
	}

	withdrawal, err := h.transfers.GetWithdrawal(r.Context(), nonce)
	if err != nil {
		h.logger.Error("Failed to get withdrawal",
			zap.Uint64("nonce", nonce),
			zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to get transfer", err)
		return
	}
	if withdrawal != nil {
		response.Sender = &withdrawal.Sender
		response.Recipient = &withdrawal.Recipient
		response.Amount = &withdrawal.Amount
		response.RetryCount = &withdrawal.RetryCount
		response.Error = withdrawal.ErrorMessage
	}

	respondJSON(w, http.StatusOK, response)
}

// ==================== Claims ====================

// HandleClaim handles POST /api/v1/transfers/{nonce}/claim
// Submits the attested message for a finalized withdrawal
func (h *Handler) HandleClaim(w http.ResponseWriter, r *http.Request) {
	nonce, ok := parseNonce(w, r)
	if !ok {
		return
	}

	var req ClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	message, attestation, ok := decodeAttested(w, req.Message, req.Attestation)
	if !ok {
		return
	}

	if err := h.transfers.Claim(r.Context(), nonce, message, attestation); err != nil {
		h.logger.Error("Claim failed",
			zap.Uint64("nonce", nonce),
			zap.Error(err))
		respondTransferError(w, "Claim failed", err)
		return
	}

	respondJSON(w, http.StatusOK, ClaimResponse{
		Nonce:  nonce,
		Status: h.transfers.TransferStatus(nonce).String(),
	})
}

// HandleRelayClaim handles POST /api/v1/transfers/{nonce}/relay-claim
// Finalizes and claims a withdrawal in one action
func (h *Handler) HandleRelayClaim(w http.ResponseWriter, r *http.Request) {
	nonce, ok := parseNonce(w, r)
	if !ok {
		return
	}

	var req RelayClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	message, attestation, ok := decodeAttested(w, req.Message, req.Attestation)
	if !ok {
		return
	}

	relayCall, err := hexutil.Decode(req.RelayCall)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid relay_call: must be hex", err)
		return
	}

	if err := h.transfers.RelayAndClaim(r.Context(), nonce, message, attestation, relayCall); err != nil {
		h.logger.Error("Relay and claim failed",
			zap.Uint64("nonce", nonce),
			zap.Error(err))
		respondTransferError(w, "Relay and claim failed", err)
		return
	}

	respondJSON(w, http.StatusOK, ClaimResponse{
		Nonce:  nonce,
		Status: h.transfers.TransferStatus(nonce).String(),
	})
}

// ==================== Admin ====================

// HandleSetMessengers handles POST /api/v1/admin/messengers
// Rebinds the burn-and-mint messenger addresses. Requires the admin token.
func (h *Handler) HandleSetMessengers(w http.ResponseWriter, r *http.Request) {
	if h.cfg.Admin.Token == "" || r.Header.Get("X-Admin-Token") != h.cfg.Admin.Token {
		respondError(w, http.StatusForbidden, "Invalid admin token", nil)
		return
	}

	var req SetMessengersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if !common.IsHexAddress(req.TokenMessenger) || !common.IsHexAddress(req.MessageTransmitter) {
		respondError(w, http.StatusBadRequest, "Invalid messenger address", nil)
		return
	}

	messengerAddr := common.HexToAddress(req.TokenMessenger)
	transmitterAddr := common.HexToAddress(req.MessageTransmitter)

	messenger, transmitter, err := h.rebind(messengerAddr, transmitterAddr)
	if err != nil {
		h.logger.Error("Failed to bind messengers", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to bind messengers", err)
		return
	}

	owner := common.HexToAddress(h.cfg.Gateway.Owner)
	if err := h.transfers.SetMessengers(owner, messenger, transmitter, messengerAddr, transmitterAddr); err != nil {
		h.logger.Error("Failed to set messengers", zap.Error(err))
		respondTransferError(w, "Failed to set messengers", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ==================== Helper Functions ====================

// parseNonce extracts the nonce path variable
func parseNonce(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	vars := mux.Vars(r)
	nonce, err := strconv.ParseUint(vars["nonce"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid nonce", err)
		return 0, false
	}
	return nonce, true
}

// decodeAttested decodes the hex message/attestation pair
func decodeAttested(w http.ResponseWriter, messageHex, attestationHex string) ([]byte, []byte, bool) {
	message, err := hexutil.Decode(messageHex)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid message: must be hex", err)
		return nil, nil, false
	}
	attestation, err := hexutil.Decode(attestationHex)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid attestation: must be hex", err)
		return nil, nil, false
	}
	return message, attestation, true
}

// respondTransferError maps gateway errors onto HTTP status codes
func respondTransferError(w http.ResponseWriter, message string, err error) {
	switch {
	case errors.Is(err, gateway.ErrZeroAmount),
		errors.Is(err, gateway.ErrTokenMismatch),
		errors.Is(err, gateway.ErrValueNotAllowed):
		respondError(w, http.StatusBadRequest, message, err)
	case errors.Is(err, gateway.ErrNotOwner),
		errors.Is(err, gateway.ErrNotCounterpart):
		respondError(w, http.StatusForbidden, message, err)
	case errors.Is(err, ledger.ErrAlreadySeen),
		errors.Is(err, ledger.ErrNotPending),
		errors.Is(err, gateway.ErrRelayNoEffect),
		errors.Is(err, gateway.ErrReentrantCall):
		respondError(w, http.StatusConflict, message, err)
	default:
		respondError(w, http.StatusBadGateway, message, err)
	}
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log error but can't send response since headers already written
		fmt.Printf("Failed to encode JSON response: %v\n", err)
	}
}

// respondError sends an error response
func respondError(w http.ResponseWriter, statusCode int, message string, err error) {
	errorMsg := message
	if err != nil {
		errorMsg = fmt.Sprintf("%s: %v", message, err)
	}

	response := ErrorResponse{
		Error:   message,
		Message: errorMsg,
	}

	respondJSON(w, statusCode, response)
}
