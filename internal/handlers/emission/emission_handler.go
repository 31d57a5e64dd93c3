// internal/handlers/emission/emission_handler.go
package emission

import (
	"net/http"

	"carp-service/internal/domain/emission"
	"carp-service/internal/pkg/response"
	emissionUsecase "carp-service/internal/service/emission"

	"github.com/gin-gonic/gin"
)

type EmissionHandler struct {
	catalog *emissionUsecase.Catalog
}

func NewEmissionHandler(catalog *emissionUsecase.Catalog) *EmissionHandler {
	return &EmissionHandler{catalog: catalog}
}

// ListFactors lists active emission factors for any signed-in user
func (h *EmissionHandler) ListFactors(c *gin.Context) {
	var filters emission.FactorListFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.ValidationError(c, "invalid query parameters", err)
		return
	}

	result, err := h.catalog.ListActive(c.Request.Context(), &filters)
	if err != nil {
		response.FromError(c, "failed to list emission factors", err)
		return
	}

	response.Success(c, http.StatusOK, "emission factors retrieved", result)
}
