package bootstrap

import (
	"github.com/gin-gonic/gin"

	"spinwheel/app/http/middlewares"
	"spinwheel/app/services"
	"spinwheel/routes"
)

// SetupRoute registers the global middlewares, the API and the 404 handler.
func SetupRoute(router *gin.Engine, svc *services.Container) {
	registerGlobalMiddleWare(router)

	routes.RegisterAPIRoutes(router, svc)

	router.NoRoute(routes.NotFound)
}

func registerGlobalMiddleWare(router *gin.Engine) {
	router.Use(
		middlewares.Logger(),
		middlewares.Recovery(),
	)
}
