// internal/handlers/vehicle/vehicle_handler.go
package vehicle

import (
	"net/http"
	"strconv"

	"carp-service/internal/domain/vehicle"
	"carp-service/internal/middleware"
	"carp-service/internal/pkg/response"
	vehicleUsecase "carp-service/internal/service/vehicle"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type VehicleHandler struct {
	vehicleService *vehicleUsecase.VehicleService
	logger         *zap.Logger
}

func NewVehicleHandler(vehicleService *vehicleUsecase.VehicleService, logger *zap.Logger) *VehicleHandler {
	return &VehicleHandler{
		vehicleService: vehicleService,
		logger:         logger,
	}
}

// CreateVehicle registers a vehicle for the caller
func (h *VehicleHandler) CreateVehicle(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	var req vehicle.CreateVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	v, err := h.vehicleService.CreateVehicle(c.Request.Context(), userID, &req)
	if err != nil {
		response.FromError(c, "failed to create vehicle", err)
		return
	}

	response.Success(c, http.StatusCreated, "vehicle created", v)
}

// GetVehicle retrieves one of the caller's vehicles
func (h *VehicleHandler) GetVehicle(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	vehicleID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ValidationError(c, "invalid vehicle ID", err)
		return
	}

	v, err := h.vehicleService.GetVehicle(c.Request.Context(), userID, vehicleID)
	if err != nil {
		response.FromError(c, "vehicle not found", err)
		return
	}

	response.Success(c, http.StatusOK, "vehicle retrieved", v)
}

// ListVehicles lists the caller's vehicles with filters
func (h *VehicleHandler) ListVehicles(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	var filters vehicle.VehicleListFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.ValidationError(c, "invalid query parameters", err)
		return
	}

	result, err := h.vehicleService.ListVehicles(c.Request.Context(), userID, &filters)
	if err != nil {
		response.FromError(c, "failed to list vehicles", err)
		return
	}

	response.Success(c, http.StatusOK, "vehicles retrieved", result)
}

// UpdateVehicle applies a partial update
func (h *VehicleHandler) UpdateVehicle(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	vehicleID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ValidationError(c, "invalid vehicle ID", err)
		return
	}

	var req vehicle.UpdateVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	v, err := h.vehicleService.UpdateVehicle(c.Request.Context(), userID, vehicleID, &req)
	if err != nil {
		response.FromError(c, "failed to update vehicle", err)
		return
	}

	response.Success(c, http.StatusOK, "vehicle updated", v)
}

// DeleteVehicle removes a vehicle; its trips keep their emissions
func (h *VehicleHandler) DeleteVehicle(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	vehicleID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ValidationError(c, "invalid vehicle ID", err)
		return
	}

	if err := h.vehicleService.DeleteVehicle(c.Request.Context(), userID, vehicleID); err != nil {
		response.FromError(c, "failed to delete vehicle", err)
		return
	}

	response.Success(c, http.StatusOK, "vehicle deleted", nil)
}

// SetDefaultVehicle makes the vehicle the caller's only default
func (h *VehicleHandler) SetDefaultVehicle(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	vehicleID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ValidationError(c, "invalid vehicle ID", err)
		return
	}

	v, err := h.vehicleService.SetDefaultVehicle(c.Request.Context(), userID, vehicleID)
	if err != nil {
		response.FromError(c, "failed to set default vehicle", err)
		return
	}

	response.Success(c, http.StatusOK, "default vehicle set", v)
}
