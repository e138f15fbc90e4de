package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"storefront-settlement/internal/settlement/application"
	"storefront-settlement/internal/settlement/domain"
)

type Handler struct {
	log    *slog.Logger
	orch   *application.Orchestrator
	pool   *pgxpool.Pool
	rdb    *redis.Client
	tracer trace.Tracer
}

func NewHandler(log *slog.Logger, orch *application.Orchestrator, pool *pgxpool.Pool, rdb *redis.Client) *Handler {
	return &Handler{
		log:    log,
		orch:   orch,
		pool:   pool,
		rdb:    rdb,
		tracer: otel.Tracer("settlement-http"),
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Post("/payment/create-order", h.createOrder)
	r.Post("/payment/verify", h.verify)
	r.Post("/payment/failure", h.failure)
	r.Get("/healthz", h.healthz)

	return r
}

type createOrderReq struct {
	Cart     domain.Cart `json:"cart"`
	Currency string      `json:"currency"`
	Discount int64       `json:"discount"`
}

type createOrderResp struct {
	Success        bool   `json:"success"`
	GatewayOrderID string `json:"gatewayOrderId"`
	Amount         int64  `json:"amount"`
	AmountDisplay  string `json:"amountDisplay"`
	Currency       string `json:"currency"`
}

type errorResp struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	Retryable bool   `json:"retryable,omitempty"`
	OrderID   string `json:"order_id,omitempty"`
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CreateOrder")
	defer span.End()

	var req createOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp{Error: "invalid body"})
		return
	}
	if req.Currency == "" {
		req.Currency = "INR"
	}

	intent, err := h.orch.Initiate(ctx, req.Cart, req.Currency, req.Discount)
	if err != nil {
		var gerr *domain.GatewayError
		if errors.As(err, &gerr) && gerr.Transient {
			writeJSON(w, http.StatusBadGateway, errorResp{
				Error:     "payment service temporarily unavailable, please retry",
				Retryable: true,
			})
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResp{Error: "could not start payment"})
		return
	}

	writeJSON(w, http.StatusOK, createOrderResp{
		Success:        true,
		GatewayOrderID: intent.GatewayOrderID,
		Amount:         intent.Amount,
		AmountDisplay:  domain.DisplayString(intent.Amount),
		Currency:       intent.Currency,
	})
}

type verifyReq struct {
	GatewayOrderID   string                      `json:"gatewayOrderId"`
	GatewayPaymentID string                      `json:"gatewayPaymentId"`
	Signature        string                      `json:"signature"`
	OrderData        application.CheckoutSession `json:"orderData"`
}

type verifyResp struct {
	Success     bool   `json:"success"`
	OrderID     string `json:"order_id"`
	OrderNumber string `json:"order_number"`
	Total       string `json:"total"`
}

func (h *Handler) verify(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "VerifyPayment")
	defer span.End()

	var req verifyReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp{Error: "invalid body"})
		return
	}

	cb := domain.PaymentCallback{
		GatewayOrderID:   req.GatewayOrderID,
		GatewayPaymentID: req.GatewayPaymentID,
		Signature:        req.Signature,
	}

	result, err := h.orch.Settle(ctx, req.OrderData, cb)
	switch result.State {
	case application.StateConfirmed:
		writeJSON(w, http.StatusOK, verifyResp{
			Success:     true,
			OrderID:     result.Order.ID.String(),
			OrderNumber: result.Order.OrderNumber,
			Total:       domain.DisplayString(result.Order.TotalAmount),
		})
	case application.StatePersistFailedAfterCapture:
		// Money has moved; the envelope carries the pending message,
		// never a payment-failed claim.
		writeJSON(w, http.StatusAccepted, errorResp{
			Error:   result.Message,
			OrderID: req.GatewayOrderID,
		})
	default:
		h.log.Warn("settlement rejected", "gateway_order_id", req.GatewayOrderID, "err", err)
		writeJSON(w, http.StatusPaymentRequired, errorResp{
			Error:   result.Message,
			OrderID: req.GatewayOrderID,
		})
	}
}

type failureReq struct {
	UserEmail    string          `json:"userEmail"`
	UserName     string          `json:"userName"`
	OrderData    json.RawMessage `json:"orderData"`
	ErrorMessage string          `json:"errorMessage"`
}

// failure is a best-effort notification trigger. It always answers
// success-shaped so a broken email path cannot cascade into UI errors.
func (h *Handler) failure(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ReportFailure")
	defer span.End()

	var req failureReq
	if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
		h.orch.ReportFailure(ctx, req.UserEmail, req.UserName, req.ErrorMessage)
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	if h.pool != nil {
		if err := h.pool.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "down", "postgres": err.Error()})
			return
		}
	}
	if h.rdb != nil {
		if err := h.rdb.Ping(r.Context()).Err(); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "down", "redis": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "up"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
