// internal/handlers/preferences/preferences_handler.go
package preferences

import (
	"net/http"

	"carp-service/internal/domain/preferences"
	"carp-service/internal/middleware"
	"carp-service/internal/pkg/response"
	prefsUsecase "carp-service/internal/service/preferences"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type PreferencesHandler struct {
	prefsService *prefsUsecase.PreferencesService
	logger       *zap.Logger
}

func NewPreferencesHandler(prefsService *prefsUsecase.PreferencesService, logger *zap.Logger) *PreferencesHandler {
	return &PreferencesHandler{
		prefsService: prefsService,
		logger:       logger,
	}
}

// GetPreferences returns the caller's preferences, creating defaults on first read
func (h *PreferencesHandler) GetPreferences(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	prefs, err := h.prefsService.GetPreferences(c.Request.Context(), userID)
	if err != nil {
		response.FromError(c, "failed to load preferences", err)
		return
	}

	response.Success(c, http.StatusOK, "preferences retrieved", prefs)
}

func (h *PreferencesHandler) UpdatePreferences(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	var req preferences.UpdatePreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	prefs, err := h.prefsService.UpdatePreferences(c.Request.Context(), userID, &req)
	if err != nil {
		response.FromError(c, "failed to update preferences", err)
		return
	}

	response.Success(c, http.StatusOK, "preferences updated", prefs)
}
