package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/solvia/solicitudes-api/internal/services"
	"github.com/solvia/solicitudes-api/pkg/logger"
)

// Handlers holds all handler instances
type Handlers struct {
	Health    *HealthHandler
	Auth      *AuthHandler
	User      *UserHandler
	Solicitud *SolicitudHandler
	Audit     *AuditHandler
}

// NewHandlers creates all handler instances
func NewHandlers(svcs *services.Services) *Handlers {
	return &Handlers{
		Health:    NewHealthHandler(),
		Auth:      NewAuthHandler(svcs.Auth),
		User:      NewUserHandler(svcs.User),
		Solicitud: NewSolicitudHandler(svcs.Solicitud, svcs.Export),
		Audit:     NewAuditHandler(svcs.Audit),
	}
}

// respondServiceError maps service errors onto HTTP status codes. The
// order matters: a validation failure must never shadow an authorization
// one, and conflicts are reported after both.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case services.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case services.IsConflict(err):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrNoDefaultEstado):
		// Operator misconfiguration, not a caller problem.
		logger.Error("Configuración inválida de estados", "error", err, "path", c.FullPath())
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		logger.Error("Error no manejado", "error", err, "path", c.FullPath())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error interno"})
	}
}
