package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"spinwheel/app/http/controllers/api/v1/admin"
	"spinwheel/app/http/controllers/api/v1/wheel"
	"spinwheel/app/http/middlewares"
	"spinwheel/app/services"
	"spinwheel/pkg/response"
)

// Per-IP rate limits
const (
	// GlobalRateLimit covers every /v1 route
	GlobalRateLimit = "30000-H"
	// SpinLimit bounds spin attempts
	SpinLimit = "120-M"
	// PurchaseLimit bounds purchase claims, each one hits the chain
	PurchaseLimit = "30-M"
	// QueryLimit bounds read endpoints
	QueryLimit = "300-M"
)

// RegisterAPIRoutes registers the wheel API on r.
func RegisterAPIRoutes(r *gin.Engine, svc *services.Container) {
	r.GET("/health", func(c *gin.Context) {
		response.Data(c, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1")
	v1.Use(
		middlewares.SecurityHeaders(),
		middlewares.LimitIP(GlobalRateLimit),
		middlewares.Cors(),
	)

	wheelRoutes := v1.Group("/wheel")
	{
		wc := wheel.NewWheelController(svc)
		pc := wheel.NewPurchaseController(svc)

		// POST /v1/wheel/connect
		wheelRoutes.POST("/connect", middlewares.LimitPerRoute(QueryLimit), wc.Connect)
		// GET /v1/wheel/users/:wallet
		wheelRoutes.GET("/users/:wallet", middlewares.LimitPerRoute(QueryLimit), wc.Status)
		// GET /v1/wheel/users/:wallet/prizes
		wheelRoutes.GET("/users/:wallet/prizes", middlewares.LimitPerRoute(QueryLimit), wc.Prizes)
		// POST /v1/wheel/spin
		wheelRoutes.POST("/spin", middlewares.LimitPerRoute(SpinLimit), wc.Spin)
		// GET /v1/wheel/prizes
		wheelRoutes.GET("/prizes", wc.PrizeTable)
		// GET /v1/wheel/packs
		wheelRoutes.GET("/packs", pc.Packs)
		// POST /v1/wheel/purchases, shared across instances
		wheelRoutes.POST("/purchases", middlewares.LimitShared(PurchaseLimit), pc.Store)
		// POST /v1/wheel/share-task
		wheelRoutes.POST("/share-task", middlewares.LimitPerRoute(SpinLimit), wc.ShareTask)
	}

	adminRoutes := v1.Group("/admin", middlewares.AdminToken())
	{
		rc := admin.NewReportController(svc)

		// GET /v1/admin/report
		adminRoutes.GET("/report", rc.Show)
		// GET /v1/admin/payouts/:wallet
		adminRoutes.GET("/payouts/:wallet", rc.Payouts)
	}
}

// NotFound answers unknown routes.
func NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, response.Response{
		Status:  response.Error,
		Message: "route not defined, check the url and the method",
	})
}
