package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/projects-crm/internal/dto"
	apierrors "github.com/yukikurage/projects-crm/internal/errors"
	"github.com/yukikurage/projects-crm/internal/services"
)

type BrandHandler struct {
	brands *services.BrandService
}

func NewBrandHandler(brands *services.BrandService) *BrandHandler {
	return &BrandHandler{brands: brands}
}

// ListBrands returns the agency CRM brand directory
func (h *BrandHandler) ListBrands(c *gin.Context) {
	brands, err := h.brands.ListBrands(c.Request.Context())
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	items := make([]dto.BrandDTO, len(brands))
	for i, brand := range brands {
		items[i] = dto.BrandDTO{ID: brand.ID, Name: brand.DisplayName()}
	}
	c.JSON(http.StatusOK, gin.H{"brands": items})
}
