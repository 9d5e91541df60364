package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client is the payment-gateway contract consumed by the payment coordinator.
type Client interface {
	Initialize(ctx context.Context, req InitializeRequest) (*InitializeResponse, error)
	Verify(ctx context.Context, reference string) (*VerifyResponse, error)
	VerifySignature(payload []byte, signature string) bool
}

type InitializeRequest struct {
	// Amount in the currency's minor unit, per the gateway wire format.
	Amount      int64             `json:"amount"`
	Email       string            `json:"email"`
	Reference   string            `json:"reference"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	CallbackURL string            `json:"callback_url,omitempty"`
}

type InitializeResponse struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type VerifyResponse struct {
	Status    string `json:"status"`
	Reference string `json:"reference"`
	Amount    int64  `json:"amount"`
}

type apiEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type paystackClient struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

// NewPaystackClient builds a gateway client with a bounded request timeout so
// a stalled gateway cannot hold a request handler open indefinitely.
func NewPaystackClient(baseURL, secretKey string) Client {
	return &paystackClient{
		baseURL:    baseURL,
		secretKey:  secretKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *paystackClient) Initialize(ctx context.Context, req InitializeRequest) (*InitializeResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	data, err := c.do(ctx, http.MethodPost, "/transaction/initialize", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var out InitializeResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode initialize response: %w", err)
	}
	return &out, nil
}

func (c *paystackClient) Verify(ctx context.Context, reference string) (*VerifyResponse, error) {
	data, err := c.do(ctx, http.MethodGet, "/transaction/verify/"+reference, nil)
	if err != nil {
		return nil, err
	}

	var out VerifyResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode verify response: %w", err)
	}
	return &out, nil
}

// VerifySignature recomputes the HMAC-SHA512 of the raw webhook payload with
// the shared secret and compares it to the supplied hex signature in constant
// time.
func (c *paystackClient) VerifySignature(payload []byte, signature string) bool {
	mac := hmac.New(sha512.New, []byte(c.secretKey))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

func (c *paystackClient) do(ctx context.Context, method, path string, body io.Reader) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("gateway returned %d: %s", resp.StatusCode, raw)
	}

	var envelope apiEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("decode gateway envelope: %w", err)
	}
	if !envelope.Status {
		return nil, fmt.Errorf("gateway error: %s", envelope.Message)
	}
	return envelope.Data, nil
}
