// internal/handlers/trip/trip_handler.go
package trip

import (
	"context"
	"net/http"
	"strconv"

	"carp-service/internal/domain/stats"
	"carp-service/internal/domain/trip"
	"carp-service/internal/middleware"
	"carp-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TripService is the part of the trip use case the handler drives.
type TripService interface {
	CreateTrip(ctx context.Context, userID int64, req *trip.CreateTripRequest) (*trip.Trip, error)
	GetTrip(ctx context.Context, userID, tripID int64) (*trip.Trip, error)
	ListTrips(ctx context.Context, userID int64, filters *trip.TripListFilters) (*trip.TripListResponse, error)
	DeleteTrip(ctx context.Context, userID, tripID int64) error
	Estimate(ctx context.Context, userID int64, req *trip.EstimateRequest) (*trip.EstimateResponse, error)
	DashboardStats(ctx context.Context, userID int64) (*stats.DashboardStats, error)
}

type TripHandler struct {
	tripService TripService
	logger      *zap.Logger
}

func NewTripHandler(tripService TripService, logger *zap.Logger) *TripHandler {
	return &TripHandler{
		tripService: tripService,
		logger:      logger,
	}
}

// ========== Trips ==========

// CreateTrip records a trip. A trip without a covering factor is still
// stored, with pending emissions.
func (h *TripHandler) CreateTrip(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	var req trip.CreateTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	t, err := h.tripService.CreateTrip(c.Request.Context(), userID, &req)
	if err != nil {
		response.FromError(c, "failed to create trip", err)
		return
	}

	message := "trip created"
	if t.EmissionStatus == trip.EmissionStatusPending {
		message = "trip created, emissions pending"
	}
	response.Success(c, http.StatusCreated, message, t)
}

func (h *TripHandler) GetTrip(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	tripID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ValidationError(c, "invalid trip ID", err)
		return
	}

	t, err := h.tripService.GetTrip(c.Request.Context(), userID, tripID)
	if err != nil {
		response.FromError(c, "trip not found", err)
		return
	}

	response.Success(c, http.StatusOK, "trip retrieved", t)
}

func (h *TripHandler) ListTrips(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	var filters trip.TripListFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.ValidationError(c, "invalid query parameters", err)
		return
	}

	result, err := h.tripService.ListTrips(c.Request.Context(), userID, &filters)
	if err != nil {
		response.FromError(c, "failed to list trips", err)
		return
	}

	response.Success(c, http.StatusOK, "trips retrieved", result)
}

func (h *TripHandler) DeleteTrip(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	tripID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ValidationError(c, "invalid trip ID", err)
		return
	}

	if err := h.tripService.DeleteTrip(c.Request.Context(), userID, tripID); err != nil {
		response.FromError(c, "failed to delete trip", err)
		return
	}

	response.Success(c, http.StatusOK, "trip deleted", nil)
}

// Estimate prices a route option without storing anything.
func (h *TripHandler) Estimate(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	var req trip.EstimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	result, err := h.tripService.Estimate(c.Request.Context(), userID, &req)
	if err != nil {
		response.FromError(c, "failed to estimate emissions", err)
		return
	}

	response.Success(c, http.StatusOK, "emissions estimated", result)
}

// ========== Dashboard ==========

func (h *TripHandler) DashboardStats(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	result, err := h.tripService.DashboardStats(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("failed to build dashboard stats", zap.Int64("user_id", userID), zap.Error(err))
		response.FromError(c, "failed to load dashboard stats", err)
		return
	}

	response.Success(c, http.StatusOK, "dashboard stats retrieved", result)
}
