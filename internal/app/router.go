// internal/app/router.go
package app

import (
	"net/http"

	adminHandler "carp-service/internal/handlers/admin"
	authHandler "carp-service/internal/handlers/auth"
	emissionHandler "carp-service/internal/handlers/emission"
	prefsHandler "carp-service/internal/handlers/preferences"
	tripHandler "carp-service/internal/handlers/trip"
	vehicleHandler "carp-service/internal/handlers/vehicle"
	wsHandler "carp-service/internal/handlers/websocket"
	"carp-service/internal/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handlers struct {
	AuthHandler     *authHandler.AuthHandler
	VehicleHandler  *vehicleHandler.VehicleHandler
	TripHandler     *tripHandler.TripHandler
	PrefsHandler    *prefsHandler.PreferencesHandler
	EmissionHandler *emissionHandler.EmissionHandler
	AdminHandler    *adminHandler.AdminHandler
	WSHandler       *wsHandler.WebSocketHandler
	AuthMiddleware  *middleware.AuthMiddleware
}

func SetupRouter(r *gin.Engine, logger *zap.Logger, h *Handlers) {
	api := r.Group("/api/v1")

	// ==================== Health Check ====================
	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": "1.0.0"})
	})

	// ==================== WebSocket ====================
	r.GET("/ws", h.WSHandler.HandleConnection)

	// ==================== Public Auth Routes ====================
	authPublic := api.Group("/auth")
	{
		authPublic.POST("/register", h.AuthHandler.Register)
		authPublic.POST("/login", h.AuthHandler.Login)
	}

	// ==================== Authenticated Auth Routes ====================
	authProtected := api.Group("/auth")
	authProtected.Use(h.AuthMiddleware.Auth())
	{
		authProtected.POST("/logout", h.AuthHandler.Logout)
		authProtected.GET("/me", h.AuthHandler.Me)
	}

	// ==================== Vehicles ====================
	vehicles := api.Group("/vehicles")
	vehicles.Use(h.AuthMiddleware.Auth())
	{
		vehicles.GET("", h.VehicleHandler.ListVehicles)
		vehicles.POST("", h.VehicleHandler.CreateVehicle)
		vehicles.GET("/:id", h.VehicleHandler.GetVehicle)
		vehicles.PUT("/:id", h.VehicleHandler.UpdateVehicle)
		vehicles.DELETE("/:id", h.VehicleHandler.DeleteVehicle)
		vehicles.PUT("/:id/default", h.VehicleHandler.SetDefaultVehicle)
	}

	// ==================== Trips ====================
	trips := api.Group("/trips")
	trips.Use(h.AuthMiddleware.Auth())
	{
		trips.GET("", h.TripHandler.ListTrips)
		trips.POST("", h.TripHandler.CreateTrip)
		trips.POST("/estimate", h.TripHandler.Estimate)
		trips.GET("/:id", h.TripHandler.GetTrip)
		trips.DELETE("/:id", h.TripHandler.DeleteTrip)
	}

	dashboard := api.Group("/dashboard")
	dashboard.Use(h.AuthMiddleware.Auth())
	{
		dashboard.GET("/stats", h.TripHandler.DashboardStats)
	}

	// ==================== Preferences ====================
	prefs := api.Group("/preferences")
	prefs.Use(h.AuthMiddleware.Auth())
	{
		prefs.GET("", h.PrefsHandler.GetPreferences)
		prefs.PUT("", h.PrefsHandler.UpdatePreferences)
	}

	// ==================== Emission Factors (read only) ====================
	factors := api.Group("/emission-factors")
	factors.Use(h.AuthMiddleware.Auth())
	{
		factors.GET("", h.EmissionHandler.ListFactors)
	}

	// ==================== Admin ====================
	admin := api.Group("/admin")
	admin.Use(h.AuthMiddleware.AdminOnly()...)
	{
		admin.GET("/stats", h.AdminHandler.Stats)

		admin.GET("/users", h.AdminHandler.ListUsers)
		admin.PUT("/users/:id", h.AdminHandler.UpdateUser)
		admin.DELETE("/users/:id", h.AdminHandler.DeleteUser)

		admin.GET("/emission-factors", h.AdminHandler.ListEmissionFactors)
		admin.POST("/emission-factors", h.AdminHandler.CreateEmissionFactor)
		admin.PUT("/emission-factors/:id", h.AdminHandler.UpdateEmissionFactor)
		admin.PUT("/emission-factors/:id/deactivate", h.AdminHandler.DeactivateEmissionFactor)

		admin.GET("/logs", h.AdminHandler.ListLogs)
		admin.GET("/ws/stats", h.WSHandler.GetStats)
	}

	logger.Info("routes registered", zap.Int("count", len(r.Routes())))
}
