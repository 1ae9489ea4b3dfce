// server/internal/api/routes/routes.go
package routes

import (
	"darkstore-dispatch-api-server/config"
	"darkstore-dispatch-api-server/internal/api/handlers"
	"darkstore-dispatch-api-server/internal/api/middleware"
	"darkstore-dispatch-api-server/internal/socket"
	"darkstore-dispatch-api-server/internal/store"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.mongodb.org/mongo-driver/mongo"
)

// SetupRouter wires handlers, middleware and routes.
func SetupRouter(
	cfg config.Config,
	db *mongo.Database,
	dispatcher handlers.DispatcherI,
	orders store.OrderStoreI,
	riders store.RiderStoreI,
	wsHub *socket.Hub,
) *gin.Engine {
	router := gin.Default()
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	if len(cfg.CORS.AllowOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.CORS.AllowOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	router.Use(cors.New(corsConfig))

	dispatchHandler := &handlers.DispatchHandler{Dispatcher: dispatcher}
	orderHandler := &handlers.OrderHandler{Orders: orders}
	riderHandler := &handlers.RiderHandler{Riders: riders}
	userHandler := &handlers.UserHandler{DB: db, Cfg: cfg}
	webSocketHandler := &handlers.WebSocketHandler{Hub: wsHub}

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apiV1 := router.Group("/api/v1")
	{
		apiV1.GET("/ws", webSocketHandler.ServeWs)

		auth := apiV1.Group("/auth")
		{
			auth.POST("/login", userHandler.Login)
		}

		secret := []byte(cfg.JWT.Secret)

		stores := apiV1.Group("/stores/:storeID")
		stores.Use(middleware.Authenticate(secret))
		{
			// Read-only queue and pool views, any authenticated role.
			stores.GET("/orders/ready", orderHandler.GetReadyOrders)
			stores.GET("/orders/:orderID", orderHandler.GetOrder)
			stores.GET("/riders/assignable", riderHandler.GetAssignableRiders)
			stores.GET("/riders/:riderID", riderHandler.GetRider)

			// Dispatch mutations need a dispatching role.
			dispatchRoutes := stores.Group("/dispatch")
			dispatchRoutes.Use(middleware.Authorize("superadmin", "admin", "dispatcher"))
			{
				dispatchRoutes.POST("/batch", dispatchHandler.DispatchBatch)
				dispatchRoutes.POST("/assign", dispatchHandler.AssignToRider)
			}
		}
	}

	return router
}
