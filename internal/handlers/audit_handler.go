package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/solvia/solicitudes-api/internal/models"
	"github.com/solvia/solicitudes-api/internal/services"
)

type AuditHandler struct {
	auditService *services.AuditService
}

func NewAuditHandler(auditService *services.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

// @Summary List Audit Entries
// @Description Get the paginated historial across all solicitudes (admin only)
// @Tags Audits
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param solicitud_id query int false "Filter by solicitud"
// @Param accion query string false "Filter by action"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /audits [get]
func (h *AuditHandler) Index(c *gin.Context) {
	query := &services.ListOptions{
		Page:        queryInt(c, "page"),
		PerPage:     queryInt(c, "per_page"),
		SolicitudID: queryUint(c, "solicitud_id"),
		Accion:      models.AuditAction(c.Query("accion")),
	}

	entries, total, err := h.auditService.List(c.Request.Context(), query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error interno"})
		return
	}

	responses := make([]models.HistorialResponse, 0, len(entries))
	for i := range entries {
		responses = append(responses, entries[i].ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"audits": responses,
		"pagination": gin.H{
			"page":        query.Page,
			"per_page":    query.PerPage,
			"total":       total,
			"total_pages": (total + int64(query.PerPage) - 1) / int64(query.PerPage),
		},
	})
}
