package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"storefront-settlement/internal/settlement/domain"
	"storefront-settlement/pkg/metrics"
)

// Client talks to the payment gateway's order API. One outbound call
// per CreateIntent; the gateway keys the attempt on the idempotency
// header, so a client retry before any callback cannot open two
// gateway-side orders under the same key.
type Client struct {
	log       *slog.Logger
	httpc     *http.Client
	baseURL   string
	keyID     string
	keySecret string
	metrics   *metrics.Settlement
	tracer    trace.Tracer
}

func NewClient(log *slog.Logger, baseURL, keyID, keySecret string, m *metrics.Settlement) *Client {
	return &Client{
		log:       log,
		httpc:     &http.Client{Timeout: 10 * time.Second},
		baseURL:   baseURL,
		keyID:     keyID,
		keySecret: keySecret,
		metrics:   m,
		tracer:    otel.Tracer("gateway-client"),
	}
}

type createOrderReq struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

type createOrderResp struct {
	ID        string `json:"id"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	CreatedAt int64  `json:"created_at"`
}

// CreateIntent opens a gateway order for one checkout attempt. Amount
// is a positive integer in minor units; floats never cross this
// boundary.
func (c *Client) CreateIntent(ctx context.Context, amountMinor int64, currency string, idemKey uuid.UUID) (domain.PaymentIntent, error) {
	ctx, span := c.tracer.Start(ctx, "CreateIntent")
	defer span.End()

	if amountMinor <= 0 {
		return domain.PaymentIntent{}, &domain.GatewayError{
			Op:        "create-intent",
			Transient: false,
			Err:       fmt.Errorf("amount must be positive, got %d", amountMinor),
		}
	}

	body, err := json.Marshal(createOrderReq{
		Amount:   amountMinor,
		Currency: currency,
		Receipt:  idemKey.String(),
	})
	if err != nil {
		return domain.PaymentIntent{}, &domain.GatewayError{Op: "create-intent", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return domain.PaymentIntent{}, &domain.GatewayError{Op: "create-intent", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Idempotency-Key", idemKey.String())
	req.SetBasicAuth(c.keyID, c.keySecret)

	start := time.Now()
	resp, err := c.httpc.Do(req)
	if err != nil {
		// Network failure or timeout: retryable with a fresh key.
		c.observe("create-intent", "error", start)
		return domain.PaymentIntent{}, &domain.GatewayError{Op: "create-intent", Transient: true, Err: err}
	}
	defer resp.Body.Close()
	c.observe("create-intent", strconv.Itoa(resp.StatusCode), start)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		transient := resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
		c.log.Warn("gateway rejected intent",
			"status", resp.StatusCode, "transient", transient, "idempotency_key", idemKey)
		return domain.PaymentIntent{}, &domain.GatewayError{
			Op:        "create-intent",
			Status:    resp.StatusCode,
			Transient: transient,
		}
	}

	var out createOrderResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return domain.PaymentIntent{}, &domain.GatewayError{Op: "create-intent", Err: err}
	}

	c.log.Info("gateway intent created", "gateway_order_id", out.ID, "amount", out.Amount)
	return domain.PaymentIntent{
		GatewayOrderID: out.ID,
		Amount:         out.Amount,
		Currency:       out.Currency,
		CreatedAt:      time.Unix(out.CreatedAt, 0).UTC(),
	}, nil
}

func (c *Client) observe(op, status string, start time.Time) {
	if c.metrics == nil {
		return
	}
	c.metrics.GatewayLatencyMS.WithLabelValues(op, status).
		Observe(float64(time.Since(start).Milliseconds()))
}
