package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/lostmedia/payments/internal/app/service/callbacklog"
	"github.com/lostmedia/payments/internal/app/service/reconcile"
	models "github.com/lostmedia/payments/internal/models"
	"github.com/lostmedia/payments/internal/platform/plisio"
	cfgpkg "github.com/lostmedia/payments/pkg/config"
	"github.com/lostmedia/payments/pkg/logctx"
)

// Reconciler is the part of the reconcile engine the webhook needs.
type Reconciler interface {
	Reconcile(ctx context.Context, id reconcile.Identifier, gatewayStatus string, rawPayload []byte, paidAt *time.Time) (*reconcile.Result, error)
}

// CallbackSink persists webhook delivery audit entries.
type CallbackSink interface {
	Save(ctx context.Context, entry *models.PaymentCallbackLog)
}

// WebhookHandler receives gateway callbacks. Unlike the user endpoints it
// answers with plain HTTP status codes, because the gateway retries on
// anything but 2xx.
type WebhookHandler struct {
	engine Reconciler
	logs   CallbackSink
	secret string
	log    *zap.SugaredLogger
}

func NewWebhookHandler(engine *reconcile.Engine, logs *callbacklog.Service, cfg *cfgpkg.Config, log *zap.SugaredLogger) *WebhookHandler {
	return &WebhookHandler{engine: engine, logs: logs, secret: cfg.Plisio.APIKey, log: log}
}

// @Summary      Gateway payment callback
// @Tags         Payment
// @Accept       json
// @Success      200  "processed"
// @Failure      404  "unknown order"
// @Failure      422  "signature verification failed"
// @Router       /api/v1/payment/webhook [post]
func (h *WebhookHandler) Handle(c *gin.Context) {
	ctx := c.Request.Context()
	log := logctx.FromGin(c, h.log)

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.Status(http.StatusUnprocessableEntity)
		return
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		log.Warnw("webhook_malformed_payload", "error", err.Error())
		c.Status(http.StatusUnprocessableEntity)
		return
	}

	traceID := c.GetString("traceID")
	orderID := stringField(payload, "order_number")
	txnID := stringField(payload, "txn_id")

	h.logs.Save(ctx, &models.PaymentCallbackLog{
		TraceID:      traceID,
		OrderID:      orderID,
		GatewayTxnID: txnID,
		ReceivedAt:   time.Now(),
		Data:         datatypes.JSON(body),
		Status:       models.PaymentCallbackLogStatusReceived,
	})

	if !plisio.VerifyCallback(payload, h.secret) {
		log.Warnw("webhook_signature_invalid", "order_id", orderID, "txn_id", txnID)
		h.saveOutcome(ctx, traceID, orderID, txnID, body, nil, models.PaymentCallbackLogStatusHandleFailed)
		c.Status(http.StatusUnprocessableEntity)
		return
	}

	res, err := h.engine.Reconcile(ctx,
		reconcile.Identifier{GatewayTxnID: txnID, OrderID: orderID},
		stringField(payload, "status"), body, paidAtField(payload))
	if err != nil {
		if errors.Is(err, reconcile.ErrPaymentNotFound) {
			h.saveOutcome(ctx, traceID, orderID, txnID, body, nil, models.PaymentCallbackLogStatusHandleFailed)
			c.Status(http.StatusNotFound)
			return
		}
		log.Errorw("webhook_reconcile_failed", "order_id", orderID, "error", err.Error())
		h.saveOutcome(ctx, traceID, orderID, txnID, body, nil, models.PaymentCallbackLogStatusHandleFailed)
		c.Status(http.StatusInternalServerError)
		return
	}

	h.saveOutcome(ctx, traceID, orderID, txnID, body, res, models.PaymentCallbackLogStatusHandled)
	c.JSON(http.StatusOK, gin.H{
		"status":            string(res.Status),
		"effect_applied":    res.EffectApplied,
		"already_processed": res.AlreadyProcessed,
	})
}

func (h *WebhookHandler) saveOutcome(ctx context.Context, traceID, orderID, txnID string, body []byte, res *reconcile.Result, status models.PaymentCallbackLogStatus) {
	entry := &models.PaymentCallbackLog{
		TraceID:      traceID,
		OrderID:      orderID,
		GatewayTxnID: txnID,
		ReceivedAt:   time.Now(),
		Data:         datatypes.JSON(body),
		Status:       status,
	}
	if res != nil {
		if raw, err := json.Marshal(res); err == nil {
			j := datatypes.JSON(raw)
			entry.Result = &j
		}
	}
	h.logs.Save(ctx, entry)
}

func stringField(payload map[string]any, key string) string {
	switch v := payload[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

// paidAtField parses the gateway's paid-at epoch, sent either as a number or
// a numeric string.
func paidAtField(payload map[string]any) *time.Time {
	var epoch int64
	switch v := payload["paid_at"].(type) {
	case float64:
		epoch = int64(v)
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil
		}
		epoch = n
	default:
		return nil
	}
	if epoch <= 0 {
		return nil
	}
	t := time.Unix(epoch, 0)
	return &t
}

// RegisterWebhookRoutes exposes the callback endpoint under every alias the
// gateway can be configured with.
func RegisterWebhookRoutes(r gin.IRouter, h *WebhookHandler) {
	for _, path := range []string{"/webhook", "/callback", "/notify", "/success", "/fail"} {
		r.POST(path, h.Handle)
	}
}
