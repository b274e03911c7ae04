package attestation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"
)

// Message statuses reported by the attestation API
const (
	StatusComplete             = "complete"
	StatusPendingConfirmations = "pending_confirmations"
)

// ErrNotReady indicates the burn is known but its attestation has not
// finalized yet. Callers poll again later.
var ErrNotReady = fmt.Errorf("attestation not ready")

// Client fetches signed attestations for burn messages from the attestation
// API, keyed by source domain and burn nonce.
type Client struct {
	endpoint   string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new attestation API client
func NewClient(endpoint string, logger *zap.Logger) *Client {
	return &Client{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger.Named("attestation"),
	}
}

// messagesResponse is the /v2/messages response format
type messagesResponse struct {
	Messages []messageResponse `json:"messages"`
}

type messageResponse struct {
	Message     string `json:"message"`
	Attestation string `json:"attestation"`
	Status      string `json:"status"`
	EventNonce  string `json:"eventNonce"`
}

// Attested is a finalized attestation ready for submission
type Attested struct {
	Message     []byte
	Attestation []byte
}

// Fetch retrieves the attested message for a burn nonce in a source domain.
// Returns ErrNotReady while the attestation is still pending.
func (c *Client) Fetch(ctx context.Context, sourceDomain uint32, nonce uint64) (*Attested, error) {
	url := fmt.Sprintf("%s/v2/messages/%d?nonce=%d", c.endpoint, sourceDomain, nonce)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build attestation request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("attestation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("nonce %d: %w", nonce, ErrNotReady)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("attestation API returned %d: %s", resp.StatusCode, body)
	}

	var decoded messagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode attestation response: %w", err)
	}

	for _, msg := range decoded.Messages {
		eventNonce, err := strconv.ParseUint(msg.EventNonce, 10, 64)
		if err != nil || eventNonce != nonce {
			continue
		}

		if msg.Status != StatusComplete {
			c.logger.Debug("Attestation still pending",
				zap.Uint64("nonce", nonce),
				zap.String("status", msg.Status))
			return nil, fmt.Errorf("nonce %d status %s: %w", nonce, msg.Status, ErrNotReady)
		}

		message, err := hexutil.Decode(msg.Message)
		if err != nil {
			return nil, fmt.Errorf("invalid attested message for nonce %d: %w", nonce, err)
		}
		att, err := hexutil.Decode(msg.Attestation)
		if err != nil {
			return nil, fmt.Errorf("invalid attestation for nonce %d: %w", nonce, err)
		}

		return &Attested{Message: message, Attestation: att}, nil
	}

	return nil, fmt.Errorf("nonce %d: %w", nonce, ErrNotReady)
}
