package api

// ==================== Deposits ====================

// CreateDepositRequest represents a request to initiate an outbound transfer
type CreateDepositRequest struct {
	Sender    string `json:"sender"`
	L1Token   string `json:"l1_token"`
	L2Token   string `json:"l2_token"`
	To        string `json:"to"`
	Amount    string `json:"amount"`     // in token base units
	ExtraData string `json:"extra_data"` // hex-encoded, optional
	GasLimit  uint32 `json:"gas_limit"`  // 0 selects the configured default
}

// CreateDepositResponse returns the burn nonce of an initiated deposit
type CreateDepositResponse struct {
	Nonce uint64 `json:"nonce"`
}

// DepositSummary represents a journaled deposit
type DepositSummary struct {
	Nonce     uint64 `json:"nonce"`
	L1Token   string `json:"l1_token"`
	L2Token   string `json:"l2_token"`
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
	Amount    string `json:"amount"`
}

// ListDepositsResponse represents a page of journaled deposits
type ListDepositsResponse struct {
	Deposits []DepositSummary `json:"deposits"`
}

// ==================== Transfer Status ====================

// TransferStatusResponse represents the ledger status of a transfer nonce,
// with journal details when a withdrawal row exists
type TransferStatusResponse struct {
	Nonce      uint64  `json:"nonce"`
	Status     string  `json:"status"`
	Sender     *string `json:"sender,omitempty"`
	Recipient  *string `json:"recipient,omitempty"`
	Amount     *string `json:"amount,omitempty"`
	RetryCount *int    `json:"retry_count,omitempty"`
	Error      *string `json:"error,omitempty"`
}

// WithdrawalSummary represents a journaled withdrawal
type WithdrawalSummary struct {
	Nonce      uint64  `json:"nonce"`
	Status     string  `json:"status"`
	Sender     string  `json:"sender"`
	Recipient  string  `json:"recipient"`
	Amount     string  `json:"amount"`
	RetryCount int     `json:"retry_count"`
	Error      *string `json:"error,omitempty"`
}

// ListWithdrawalsResponse represents withdrawals in a given status
type ListWithdrawalsResponse struct {
	Withdrawals []WithdrawalSummary `json:"withdrawals"`
}

// ==================== Claims ====================

// ClaimRequest carries the attested message for a finalized withdrawal
type ClaimRequest struct {
	Message     string `json:"message"`     // hex-encoded
	Attestation string `json:"attestation"` // hex-encoded
}

// RelayClaimRequest additionally carries the relayed call expected to
// finalize the withdrawal
type RelayClaimRequest struct {
	Message     string `json:"message"`     // hex-encoded
	Attestation string `json:"attestation"` // hex-encoded
	RelayCall   string `json:"relay_call"`  // hex-encoded
}

// ClaimResponse acknowledges a completed claim
type ClaimResponse struct {
	Nonce  uint64 `json:"nonce"`
	Status string `json:"status"`
}

// ==================== Admin ====================

// SetMessengersRequest rebinds the burn-and-mint messenger addresses
type SetMessengersRequest struct {
	TokenMessenger     string `json:"token_messenger"`
	MessageTransmitter string `json:"message_transmitter"`
}

// ==================== Error Response ====================

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// ==================== Health Check ====================

// HealthResponse represents health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}
