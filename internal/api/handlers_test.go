package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"usdcgateway/internal/config"
	"usdcgateway/internal/gateway"
	"usdcgateway/internal/ledger"
	"usdcgateway/internal/service"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Gateway.FinalizeGasLimit = 200000
	cfg.Gateway.MinGasLimit = 100000
	cfg.Gateway.MaxGasLimit = 2000000
	cfg.Admin.Token = "secret"
	return cfg
}

func TestHandleHealth(t *testing.T) {
	logger := zap.NewNop()
	handler := NewHandler(nil, nil, nil, nil, logger)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	handler.HandleHealth(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	var response HealthResponse
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if response.Status != "ok" {
		t.Errorf("expected status 'ok', got '%s'", response.Status)
	}
}

func TestHandleCreateDeposit_Validation(t *testing.T) {
	logger := zap.NewNop()
	cfg := testConfig()
	budget := service.NewBudgetService(cfg, logger)
	handler := NewHandler(nil, budget, cfg, nil, logger)

	valid := CreateDepositRequest{
		Sender:  "0x3333333333333333333333333333333333333333",
		L1Token: "0x1111111111111111111111111111111111111111",
		L2Token: "0x2222222222222222222222222222222222222222",
		To:      "0x4444444444444444444444444444444444444444",
		Amount:  "1000000",
	}

	tests := []struct {
		name   string
		mutate func(r *CreateDepositRequest)
	}{
		{"invalid sender", func(r *CreateDepositRequest) { r.Sender = "not-an-address" }},
		{"invalid l1_token", func(r *CreateDepositRequest) { r.L1Token = "" }},
		{"invalid l2_token", func(r *CreateDepositRequest) { r.L2Token = "0x12" }},
		{"invalid recipient", func(r *CreateDepositRequest) { r.To = "" }},
		{"amount not a number", func(r *CreateDepositRequest) { r.Amount = "abc" }},
		{"amount zero", func(r *CreateDepositRequest) { r.Amount = "0" }},
		{"amount negative", func(r *CreateDepositRequest) { r.Amount = "-5" }},
		{"extra data not hex", func(r *CreateDepositRequest) { r.ExtraData = "zz" }},
		{"gas limit below minimum", func(r *CreateDepositRequest) { r.GasLimit = 1 }},
		{"gas limit above maximum", func(r *CreateDepositRequest) { r.GasLimit = 3000000 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := valid
			tt.mutate(&request)

			body, _ := json.Marshal(request)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/deposits", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			handler.HandleCreateDeposit(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
			}

			var errResp ErrorResponse
			if err := json.NewDecoder(w.Body).Decode(&errResp); err != nil {
				t.Fatalf("failed to decode error response: %v", err)
			}
			if errResp.Error == "" {
				t.Error("expected error message in response")
			}
		})
	}
}

func TestHandleCreateDeposit_InvalidJSON(t *testing.T) {
	logger := zap.NewNop()
	handler := NewHandler(nil, nil, nil, nil, logger)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/deposits", bytes.NewReader([]byte("invalid json")))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	handler.HandleCreateDeposit(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestHandleListWithdrawals_InvalidStatus(t *testing.T) {
	logger := zap.NewNop()
	handler := NewHandler(nil, nil, nil, nil, logger)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/withdrawals?status=BOGUS", nil)
	w := httptest.NewRecorder()

	handler.HandleListWithdrawals(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestHandleClaim_Validation(t *testing.T) {
	logger := zap.NewNop()
	handler := NewHandler(nil, nil, nil, nil, logger)
	router := SetupRouter(handler, logger)

	tests := []struct {
		name string
		path string
		body string
	}{
		{"invalid nonce", "/api/v1/transfers/abc/claim", `{"message":"0x01","attestation":"0x02"}`},
		{"message not hex", "/api/v1/transfers/7/claim", `{"message":"zz","attestation":"0x02"}`},
		{"attestation not hex", "/api/v1/transfers/7/claim", `{"message":"0x01","attestation":"zz"}`},
		{"invalid body", "/api/v1/transfers/7/claim", `nope`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tt.path, bytes.NewReader([]byte(tt.body)))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
			}
		})
	}
}

func TestHandleRelayClaim_InvalidRelayCall(t *testing.T) {
	logger := zap.NewNop()
	handler := NewHandler(nil, nil, nil, nil, logger)
	router := SetupRouter(handler, logger)

	body := `{"message":"0x01","attestation":"0x02","relay_call":"zz"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/transfers/7/relay-claim", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestHandleSetMessengers_Auth(t *testing.T) {
	logger := zap.NewNop()
	cfg := testConfig()
	handler := NewHandler(nil, nil, cfg, nil, logger)

	tests := []struct {
		name  string
		token string
	}{
		{"missing token", ""},
		{"wrong token", "wrong"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := `{"token_messenger":"0x1111111111111111111111111111111111111111","message_transmitter":"0x2222222222222222222222222222222222222222"}`
			req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/messengers", bytes.NewReader([]byte(body)))
			if tt.token != "" {
				req.Header.Set("X-Admin-Token", tt.token)
			}
			w := httptest.NewRecorder()

			handler.HandleSetMessengers(w, req)

			if w.Code != http.StatusForbidden {
				t.Errorf("expected status %d, got %d", http.StatusForbidden, w.Code)
			}
		})
	}
}

func TestHandleSetMessengers_UnconfiguredTokenRejectsAll(t *testing.T) {
	logger := zap.NewNop()
	cfg := testConfig()
	cfg.Admin.Token = ""
	handler := NewHandler(nil, nil, cfg, nil, logger)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/messengers", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("X-Admin-Token", "")
	w := httptest.NewRecorder()

	handler.HandleSetMessengers(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("expected status %d, got %d", http.StatusForbidden, w.Code)
	}
}

func TestRespondTransferError(t *testing.T) {
	tests := []struct {
		err            error
		expectedStatus int
	}{
		{gateway.ErrZeroAmount, http.StatusBadRequest},
		{gateway.ErrTokenMismatch, http.StatusBadRequest},
		{gateway.ErrValueNotAllowed, http.StatusBadRequest},
		{gateway.ErrNotOwner, http.StatusForbidden},
		{gateway.ErrNotCounterpart, http.StatusForbidden},
		{ledger.ErrAlreadySeen, http.StatusConflict},
		{ledger.ErrNotPending, http.StatusConflict},
		{gateway.ErrRelayNoEffect, http.StatusConflict},
		{gateway.ErrReentrantCall, http.StatusConflict},
		{fmt.Errorf("rpc unreachable"), http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			w := httptest.NewRecorder()
			respondTransferError(w, "operation failed", fmt.Errorf("wrapped: %w", tt.err))

			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}
		})
	}
}

func TestRespondJSON(t *testing.T) {
	w := httptest.NewRecorder()

	data := map[string]string{"key": "value"}
	respondJSON(w, http.StatusOK, data)

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected content-type 'application/json', got '%s'", ct)
	}

	var result map[string]string
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if result["key"] != "value" {
		t.Errorf("expected key 'value', got '%s'", result["key"])
	}
}

func TestRespondError(t *testing.T) {
	w := httptest.NewRecorder()
	respondError(w, http.StatusBadRequest, "Bad request", nil)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}

	var errResp ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&errResp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if errResp.Error != "Bad request" {
		t.Errorf("expected error 'Bad request', got '%s'", errResp.Error)
	}
}
