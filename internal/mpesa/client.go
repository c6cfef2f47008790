package mpesa

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/kitenge/shop-backend/internal"
	"github.com/kitenge/shop-backend/pkg/clock"
)

const (
	tokenPath   = "/oauth/v1/generate?grant_type=client_credentials"
	stkPushPath = "/mpesa/stkpush/v1/processrequest"

	// Daraja tokens live ~3600s; refresh a minute early so an in-flight push
	// never rides on a token that expires mid-request.
	tokenExpiryMargin = 60 * time.Second

	transactionType = "CustomerPayBillOnline"
)

// Client talks to the Daraja (M-Pesa) API: OAuth token exchange, request
// signing, and STK push submission. One Client is shared by all requests; the
// cached token is the only mutable state.
type Client struct {
	cfg        internal.MpesaConfig
	baseURL    string
	httpClient *http.Client
	clock      clock.Clock
	logger     *slog.Logger

	mu    sync.Mutex
	token cachedToken
}

type cachedToken struct {
	value     string
	expiresAt time.Time
}

func NewClient(cfg internal.MpesaConfig, clk clock.Clock, logger *slog.Logger) *Client {
	return NewClientWithBaseURL(cfg, cfg.BaseURL(), clk, logger)
}

// NewClientWithBaseURL builds a client against an explicit endpoint instead of
// the one implied by cfg.Environment.
func NewClientWithBaseURL(cfg internal.MpesaConfig, baseURL string, clk clock.Clock, logger *slog.Logger) *Client {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		cfg:        cfg,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		clock:      clk,
		logger:     logger,
	}
}

type tokenResponse struct {
	AccessToken string      `json:"access_token"`
	ExpiresIn   json.Number `json:"expires_in"`
}

// AccessToken returns the cached bearer token, performing a credential
// exchange when the cache is empty or expired. Concurrent callers serialize on
// the cache; a redundant refresh after a race would be harmless anyway.
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	if c.token.value != "" && now.Before(c.token.expiresAt) {
		return c.token.value, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+tokenPath, nil)
	if err != nil {
		return "", internal.NewInternalError("failed to build token request", err)
	}
	req.SetBasicAuth(c.cfg.ConsumerKey, c.cfg.ConsumerSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", internal.NewUpstreamAuthError(0, err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", internal.NewUpstreamAuthError(resp.StatusCode, "failed to read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", internal.NewUpstreamAuthError(resp.StatusCode, string(body))
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", internal.NewUpstreamAuthError(resp.StatusCode, fmt.Sprintf("non-JSON token response: %s", string(body)))
	}

	expiresIn, err := tr.ExpiresIn.Int64()
	if err != nil || expiresIn <= 0 {
		expiresIn = 3600
	}

	c.token = cachedToken{
		value:     tr.AccessToken,
		expiresAt: now.Add(time.Duration(expiresIn)*time.Second - tokenExpiryMargin),
	}

	c.logger.Debug("mpesa token refreshed", "expires_at", c.token.expiresAt)

	return c.token.value, nil
}

// Password derives the Daraja request password for the current instant:
// base64(shortcode + passkey + timestamp) with the timestamp in UTC
// YYYYMMDDHHmmss.
func (c *Client) Password() (password, timestamp string) {
	timestamp = c.clock.Now().UTC().Format("20060102150405")
	raw := c.cfg.ShortCode + c.cfg.Passkey + timestamp
	return base64.StdEncoding.EncodeToString([]byte(raw)), timestamp
}

// NormalizePhone maps local-format Kenyan numbers to the 254XXXXXXXXX form
// Daraja expects. Unrecognized shapes pass through as stripped digits; the
// carrier rejects truly invalid numbers, so checkout is never blocked here.
func (c *Client) NormalizePhone(input string) string {
	var b strings.Builder
	for _, r := range input {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	switch {
	case len(digits) == 10 && strings.HasPrefix(digits, "0"):
		return "254" + digits[1:]
	case len(digits) == 9 && (strings.HasPrefix(digits, "7") || strings.HasPrefix(digits, "1")):
		return "254" + digits
	case len(digits) == 12 && strings.HasPrefix(digits, "254"):
		return digits
	}
	return digits
}

// PushParams is the caller-facing input for one STK push. Phone must already
// be normalized.
type PushParams struct {
	Amount      int64
	Phone       string
	OrderNumber string
}

// STKPushRequest is the Daraja wire payload, field names exactly as the API
// requires them.
type STKPushRequest struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	TransactionType   string `json:"TransactionType"`
	Amount            int64  `json:"Amount"`
	PartyA            string `json:"PartyA"`
	PartyB            string `json:"PartyB"`
	PhoneNumber       string `json:"PhoneNumber"`
	CallBackURL       string `json:"CallBackURL"`
	AccountReference  string `json:"AccountReference"`
	TransactionDesc   string `json:"TransactionDesc"`
}

// STKPushResponse covers both the acceptance shape and Daraja's structured
// error bodies, which can arrive with any HTTP status.
type STKPushResponse struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`

	RequestID    string `json:"requestId,omitempty"`
	ErrorCode    string `json:"errorCode,omitempty"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}

// Accepted reports whether the carrier queued the push for delivery to the
// subscriber's handset.
func (r *STKPushResponse) Accepted() bool {
	return r.ResponseCode == "0"
}

// STKPush submits a push-payment request. The response body is parsed as JSON
// regardless of HTTP status; only transport failures and unparseable bodies
// are errors.
func (c *Client) STKPush(ctx context.Context, params PushParams) (*STKPushResponse, json.RawMessage, error) {
	token, err := c.AccessToken(ctx)
	if err != nil {
		return nil, nil, err
	}

	password, timestamp := c.Password()

	payload := STKPushRequest{
		BusinessShortCode: c.cfg.ShortCode,
		Password:          password,
		Timestamp:         timestamp,
		TransactionType:   transactionType,
		Amount:            params.Amount,
		PartyA:            params.Phone,
		PartyB:            c.cfg.ShortCode,
		PhoneNumber:       params.Phone,
		CallBackURL:       c.cfg.CallbackURL,
		AccountReference:  params.OrderNumber,
		TransactionDesc:   fmt.Sprintf("Order %s", params.OrderNumber),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, internal.NewInternalError("failed to marshal stk push payload", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+stkPushPath, bytes.NewBuffer(body))
	if err != nil {
		return nil, nil, internal.NewInternalError("failed to build stk push request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	c.logger.Info("submitting stk push",
		"order_number", params.OrderNumber,
		"amount", params.Amount,
		"phone", params.Phone)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, internal.NewUpstreamPaymentError("mpesa stk push request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, internal.NewUpstreamPaymentError("failed to read stk push response", err)
	}

	var pushResp STKPushResponse
	if err := json.Unmarshal(respBody, &pushResp); err != nil {
		return nil, nil, internal.NewUpstreamPaymentError(
			fmt.Sprintf("mpesa returned non-JSON response: status %d", resp.StatusCode), err)
	}

	c.logger.Info("stk push response",
		"order_number", params.OrderNumber,
		"status", resp.StatusCode,
		"response_code", pushResp.ResponseCode,
		"merchant_request_id", pushResp.MerchantRequestID,
		"checkout_request_id", pushResp.CheckoutRequestID)

	return &pushResp, respBody, nil
}
