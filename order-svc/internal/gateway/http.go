package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"lunchbox/order-svc/internal/domain"

	"github.com/sony/gobreaker/v2"
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type Config struct {
	BaseURL     string
	ClientID    string
	APIKey      string
	ChecksumKey string
	ReturnURL   string
	CancelURL   string
	Timeout     time.Duration
}

// StatusError is a non-2xx answer from the provider.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("provider responded %d: %s", e.StatusCode, e.Body)
}

// HTTPGateway talks to a bank-transfer QR provider over its JSON API. Calls go
// through a circuit breaker so a failing provider is not hammered by the poller.
type HTTPGateway struct {
	cfg     Config
	client  HTTPClient
	breaker *gobreaker.CircuitBreaker[[]byte]
}

func NewHTTPGateway(cfg Config, client HTTPClient) *HTTPGateway {
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "payment-provider",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			var statusErr *StatusError
			if errors.As(err, &statusErr) {
				return statusErr.StatusCode < 500
			}
			return err == nil
		},
	})
	return &HTTPGateway{cfg: cfg, client: client, breaker: breaker}
}

type createRequest struct {
	OrderCode   string `json:"orderCode"`
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
	ReturnURL   string `json:"returnUrl"`
	CancelURL   string `json:"cancelUrl"`
	ExpiredAt   int64  `json:"expiredAt"`
	Signature   string `json:"signature"`
}

type envelope struct {
	Code string          `json:"code"`
	Desc string          `json:"desc"`
	Data json.RawMessage `json:"data"`
}

type checkoutData struct {
	OrderCode     string `json:"orderCode"`
	CheckoutURL   string `json:"checkoutUrl"`
	QRCode        string `json:"qrCode"`
	Bin           string `json:"bin"`
	AccountNumber string `json:"accountNumber"`
	AccountName   string `json:"accountName"`
	ExpiredAt     int64  `json:"expiredAt"`
}

type statusData struct {
	OrderCode  string `json:"orderCode"`
	Status     string `json:"status"`
	Amount     int64  `json:"amount"`
	AmountPaid int64  `json:"amountPaid"`
}

// sign builds the checksum the provider expects: HMAC-SHA256 over the
// alphabetically ordered request fields.
func sign(key string, req createRequest) string {
	data := fmt.Sprintf("amount=%d&cancelUrl=%s&description=%s&orderCode=%s&returnUrl=%s",
		req.Amount, req.CancelURL, req.Description, req.OrderCode, req.ReturnURL)
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}

func (g *HTTPGateway) CreateCheckout(ctx context.Context, input domain.CheckoutInput) (domain.Checkout, error) {
	body := createRequest{
		OrderCode:   input.OrderCode,
		Amount:      input.Amount,
		Description: input.Description,
		ReturnURL:   g.cfg.ReturnURL,
		CancelURL:   g.cfg.CancelURL,
		ExpiredAt:   input.ExpiresAt.Unix(),
	}
	body.Signature = sign(g.cfg.ChecksumKey, body)

	payload, err := json.Marshal(body)
	if err != nil {
		return domain.Checkout{}, err
	}
	raw, err := g.call(ctx, http.MethodPost, "/v2/payment-requests", payload)
	if err != nil {
		return domain.Checkout{}, &domain.ProviderError{Op: "create checkout", Err: err}
	}

	var data checkoutData
	if err := json.Unmarshal(raw, &data); err != nil {
		return domain.Checkout{}, &domain.ProviderError{Op: "create checkout", Err: err}
	}
	checkout := domain.Checkout{
		OrderCode:   input.OrderCode,
		QRReference: data.QRCode,
		CheckoutURL: data.CheckoutURL,
		Account: domain.Account{
			BankBin:       data.Bin,
			AccountNumber: data.AccountNumber,
			AccountName:   data.AccountName,
		},
		ExpiresAt: input.ExpiresAt,
	}
	if data.ExpiredAt > 0 {
		checkout.ExpiresAt = time.Unix(data.ExpiredAt, 0)
	}
	return checkout, nil
}

func (g *HTTPGateway) GetStatus(ctx context.Context, orderCode string) (domain.PaymentStatus, error) {
	raw, err := g.call(ctx, http.MethodGet, "/v2/payment-requests/"+url.PathEscape(orderCode), nil)
	if err != nil {
		return domain.PaymentStatus{}, &domain.ProviderError{Op: "get status", Err: err}
	}
	var data statusData
	if err := json.Unmarshal(raw, &data); err != nil {
		return domain.PaymentStatus{}, &domain.ProviderError{Op: "get status", Err: err}
	}
	return domain.PaymentStatus{
		IsPaid:     data.Status == "PAID",
		AmountPaid: data.AmountPaid,
	}, nil
}

// call performs one request through the breaker and returns the envelope's data.
func (g *HTTPGateway) call(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	return g.breaker.Execute(func() ([]byte, error) {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, g.cfg.BaseURL+path, reader)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-client-id", g.cfg.ClientID)
		req.Header.Set("x-api-key", g.cfg.APIKey)

		resp, err := g.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(raw)}
		}

		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, fmt.Errorf("decode provider response: %w", err)
		}
		if env.Code != "00" {
			return nil, fmt.Errorf("provider error %s: %s", env.Code, env.Desc)
		}
		return env.Data, nil
	})
}
