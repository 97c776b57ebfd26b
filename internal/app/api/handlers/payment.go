package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	mw "github.com/lostmedia/payments/internal/app/api/middleware"
	paysvc "github.com/lostmedia/payments/internal/app/service/payment"
	"github.com/lostmedia/payments/internal/app/service/reconcile"
	"github.com/lostmedia/payments/internal/platform/plisio"
	cfgpkg "github.com/lostmedia/payments/pkg/config"
	"github.com/lostmedia/payments/pkg/logctx"
	"github.com/lostmedia/payments/pkg/response"
	"github.com/lostmedia/payments/pkg/types"
	"go.uber.org/zap"
)

// PaymentHandler serves the user-facing purchase endpoints.
type PaymentHandler struct {
	svc *paysvc.Service
	log *zap.SugaredLogger
}

func NewPaymentHandler(svc *paysvc.Service, log *zap.SugaredLogger) *PaymentHandler {
	return &PaymentHandler{svc: svc, log: log}
}

type createRolePaymentRequest struct {
	Role     string `json:"role" binding:"required"`
	Currency string `json:"currency" binding:"required"`
}

type createStarPaymentRequest struct {
	Currency string `json:"currency" binding:"required"`
}

// @Summary      Purchasable role catalog
// @Tags         Payment
// @Produce      json
// @Success      200  {object}  response.APIResponse[[]config.RolePrice]
// @Router       /api/v1/payment/roles [get]
func (h *PaymentHandler) Roles(c *gin.Context) {
	c.JSON(http.StatusOK, response.OKT(h.svc.Roles()))
}

// @Summary      Supported crypto currencies
// @Tags         Payment
// @Produce      json
// @Success      200  {object}  response.APIResponse[any]
// @Router       /api/v1/payment/currencies [get]
func (h *PaymentHandler) Currencies(c *gin.Context) {
	data, err := h.svc.Currencies(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.OKT(data))
}

// @Summary      Create a role purchase payment
// @Tags         Payment
// @Accept       json
// @Produce      json
// @Param        request  body  createRolePaymentRequest  true  "purchase request"
// @Success      200  {object}  response.APIResponse[models.Payment]
// @Router       /api/v1/payment/create-payment [post]
func (h *PaymentHandler) CreateRolePayment(c *gin.Context) {
	var req createRolePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, response.ErrorT(response.APIResponseCodeBadRequest, gin.H{"error": err.Error()}))
		return
	}
	role, ok := types.ParseRole(req.Role)
	if !ok {
		c.JSON(http.StatusOK, response.ErrorT(response.APIResponseCodeBadRequest, gin.H{"error": "unknown role"}))
		return
	}

	p, err := h.svc.CreateRolePayment(c.Request.Context(), mw.UserID(c), role, req.Currency)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.OKT(p))
}

// @Summary      Create a star upgrade payment
// @Tags         Payment
// @Accept       json
// @Produce      json
// @Param        request  body  createStarPaymentRequest  true  "upgrade request"
// @Success      200  {object}  response.APIResponse[models.Payment]
// @Router       /api/v1/payment/create-star-payment [post]
func (h *PaymentHandler) CreateStarPayment(c *gin.Context) {
	var req createStarPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, response.ErrorT(response.APIResponseCodeBadRequest, gin.H{"error": err.Error()}))
		return
	}

	p, err := h.svc.CreateStarPayment(c.Request.Context(), mw.UserID(c), req.Currency)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.OKT(p))
}

// @Summary      Poll one payment's status against the gateway
// @Tags         Payment
// @Produce      json
// @Param        orderId  path  string  true  "order id"
// @Success      200  {object}  response.APIResponse[reconcile.Result]
// @Router       /api/v1/payment/payment/status/{orderId} [get]
func (h *PaymentHandler) Status(c *gin.Context) {
	res, err := h.svc.PollStatus(c.Request.Context(), mw.UserID(c), c.Param("orderId"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.OKT(res))
}

// @Summary      Most recent pending payment of the caller
// @Tags         Payment
// @Produce      json
// @Success      200  {object}  response.APIResponse[models.Payment]
// @Router       /api/v1/payment/pending-payment [get]
func (h *PaymentHandler) Pending(c *gin.Context) {
	p, err := h.svc.Pending(c.Request.Context(), mw.UserID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.OKT(p))
}

// @Summary      Payment history of a user
// @Tags         Payment
// @Produce      json
// @Param        userId  path  string  true  "user id"
// @Success      200  {object}  response.APIResponse[[]models.Payment]
// @Router       /api/v1/payment/user/{userId}/payments [get]
func (h *PaymentHandler) UserPayments(c *gin.Context) {
	userID := c.Param("userId")
	if userID != mw.UserID(c) {
		c.JSON(http.StatusOK, response.ErrorT(response.APIResponseCodeNotFound, gin.H{}))
		return
	}
	items, err := h.svc.ListByUser(c.Request.Context(), userID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.OKT(items))
}

// @Summary      Cancel a pending payment
// @Tags         Payment
// @Produce      json
// @Param        orderId  path  string  true  "order id"
// @Success      200  {object}  response.APIResponse[models.Payment]
// @Router       /api/v1/payment/cancel-payment/{orderId} [post]
func (h *PaymentHandler) Cancel(c *gin.Context) {
	p, err := h.svc.Cancel(c.Request.Context(), mw.UserID(c), c.Param("orderId"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.OKT(p))
}

func (h *PaymentHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, reconcile.ErrPaymentNotFound):
		c.JSON(http.StatusOK, response.ErrorT(response.APIResponseCodeNotFound, gin.H{}))
	case errors.Is(err, paysvc.ErrRoleNotPurchasable),
		errors.Is(err, paysvc.ErrUnsupportedCurrency),
		errors.Is(err, paysvc.ErrMaxStarReached),
		errors.Is(err, paysvc.ErrUserNotFound),
		errors.Is(err, plisio.ErrGatewayRejected):
		c.JSON(http.StatusOK, response.ErrorT(response.APIResponseCodeBadRequest, gin.H{"error": err.Error()}))
	default:
		logctx.FromGin(c, h.log).Errorw("payment_endpoint_failed", "path", c.FullPath(), "error", err.Error())
		c.JSON(http.StatusOK, response.ErrorT(response.APIResponseCodeError, gin.H{}))
	}
}

// RegisterPaymentRoutes wires the user-facing payment endpoints. The catalog
// and currency listing are public; everything else requires a valid token.
func RegisterPaymentRoutes(r gin.IRouter, h *PaymentHandler, cfg *cfgpkg.Config) {
	r.GET("/roles", h.Roles)
	r.GET("/currencies", h.Currencies)

	auth := r.Group("/")
	auth.Use(mw.AuthMiddleware(cfg.Auth.JWTSecret))
	auth.POST("/create-payment", h.CreateRolePayment)
	auth.POST("/create-star-payment", h.CreateStarPayment)
	auth.GET("/payment/status/:orderId", h.Status)
	auth.GET("/pending-payment", h.Pending)
	auth.GET("/user/:userId/payments", h.UserPayments)
	auth.POST("/cancel-payment/:orderId", h.Cancel)
}
