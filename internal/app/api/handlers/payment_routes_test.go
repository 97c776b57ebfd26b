package handlers

import (
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	cfgpkg "github.com/lostmedia/payments/pkg/config"
)

func TestRegisterPaymentRoutes_RegistersEndpoints(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	cfg := &cfgpkg.Config{}
	h := NewPaymentHandler(nil, zap.NewNop().Sugar())
	RegisterPaymentRoutes(r.Group("/api/v1/payment"), h, cfg)

	routes := r.Routes()
	contains := func(target string) bool {
		for _, rt := range routes {
			if rt.Method+" "+rt.Path == target {
				return true
			}
		}
		return false
	}

	require.True(t, contains("GET /api/v1/payment/roles"))
	require.True(t, contains("GET /api/v1/payment/currencies"))
	require.True(t, contains("POST /api/v1/payment/create-payment"))
	require.True(t, contains("POST /api/v1/payment/create-star-payment"))
	require.True(t, contains("GET /api/v1/payment/payment/status/:orderId"))
	require.True(t, contains("GET /api/v1/payment/pending-payment"))
	require.True(t, contains("GET /api/v1/payment/user/:userId/payments"))
	require.True(t, contains("POST /api/v1/payment/cancel-payment/:orderId"))
}
