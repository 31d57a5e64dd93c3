// internal/handlers/admin/admin_handler.go
package admin

import (
	"net/http"
	"strconv"

	"carp-service/internal/domain/audit"
	"carp-service/internal/domain/emission"
	"carp-service/internal/domain/user"
	"carp-service/internal/middleware"
	"carp-service/internal/pkg/response"
	adminUsecase "carp-service/internal/service/admin"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AdminHandler struct {
	adminService *adminUsecase.AdminService
	logger       *zap.Logger
}

func NewAdminHandler(adminService *adminUsecase.AdminService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
		logger:       logger,
	}
}

// actor identifies the admin for the audit log.
func actor(c *gin.Context) audit.Actor {
	return audit.Actor{
		AdminID:   middleware.MustGetUserID(c),
		IPAddress: c.ClientIP(),
		UserAgent: c.GetHeader("User-Agent"),
	}
}

// ========== Stats ==========

func (h *AdminHandler) Stats(c *gin.Context) {
	result, err := h.adminService.Stats(c.Request.Context())
	if err != nil {
		response.FromError(c, "failed to load stats", err)
		return
	}

	response.Success(c, http.StatusOK, "stats retrieved", result)
}

// ========== Users ==========

func (h *AdminHandler) ListUsers(c *gin.Context) {
	var filters user.UserListFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.ValidationError(c, "invalid query parameters", err)
		return
	}

	result, err := h.adminService.ListUsers(c.Request.Context(), &filters)
	if err != nil {
		response.FromError(c, "failed to list users", err)
		return
	}

	response.Success(c, http.StatusOK, "users retrieved", result)
}

func (h *AdminHandler) UpdateUser(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ValidationError(c, "invalid user ID", err)
		return
	}

	var req user.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	u, err := h.adminService.UpdateUser(c.Request.Context(), actor(c), userID, &req)
	if err != nil {
		h.logger.Warn("admin user update failed", zap.Int64("user_id", userID), zap.Error(err))
		response.FromError(c, "failed to update user", err)
		return
	}

	response.Success(c, http.StatusOK, "user updated", u)
}

func (h *AdminHandler) DeleteUser(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ValidationError(c, "invalid user ID", err)
		return
	}

	if err := h.adminService.DeleteUser(c.Request.Context(), actor(c), userID); err != nil {
		h.logger.Warn("admin user delete failed", zap.Int64("user_id", userID), zap.Error(err))
		response.FromError(c, "failed to delete user", err)
		return
	}

	response.Success(c, http.StatusOK, "user deleted", nil)
}

// ========== Emission Factors ==========

// ListEmissionFactors includes inactive factors unless filtered.
func (h *AdminHandler) ListEmissionFactors(c *gin.Context) {
	var filters emission.FactorListFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.ValidationError(c, "invalid query parameters", err)
		return
	}

	result, err := h.adminService.ListEmissionFactors(c.Request.Context(), &filters)
	if err != nil {
		response.FromError(c, "failed to list emission factors", err)
		return
	}

	response.Success(c, http.StatusOK, "emission factors retrieved", result)
}

func (h *AdminHandler) CreateEmissionFactor(c *gin.Context) {
	var req emission.CreateFactorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	f, err := h.adminService.CreateEmissionFactor(c.Request.Context(), actor(c), &req)
	if err != nil {
		response.FromError(c, "failed to create emission factor", err)
		return
	}

	response.Success(c, http.StatusCreated, "emission factor created", f)
}

func (h *AdminHandler) UpdateEmissionFactor(c *gin.Context) {
	factorID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ValidationError(c, "invalid emission factor ID", err)
		return
	}

	var req emission.UpdateFactorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	f, err := h.adminService.UpdateEmissionFactor(c.Request.Context(), actor(c), factorID, &req)
	if err != nil {
		response.FromError(c, "failed to update emission factor", err)
		return
	}

	response.Success(c, http.StatusOK, "emission factor updated", f)
}

// DeactivateEmissionFactor retires a factor; computed trips keep their values.
func (h *AdminHandler) DeactivateEmissionFactor(c *gin.Context) {
	factorID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ValidationError(c, "invalid emission factor ID", err)
		return
	}

	f, err := h.adminService.DeactivateEmissionFactor(c.Request.Context(), actor(c), factorID)
	if err != nil {
		response.FromError(c, "failed to deactivate emission factor", err)
		return
	}

	response.Success(c, http.StatusOK, "emission factor deactivated", f)
}

// ========== Logs ==========

func (h *AdminHandler) ListLogs(c *gin.Context) {
	var filters audit.LogListFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.ValidationError(c, "invalid query parameters", err)
		return
	}

	result, err := h.adminService.ListLogs(c.Request.Context(), &filters)
	if err != nil {
		response.FromError(c, "failed to list admin logs", err)
		return
	}

	response.Success(c, http.StatusOK, "admin logs retrieved", result)
}
