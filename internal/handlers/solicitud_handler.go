package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/solvia/solicitudes-api/internal/middleware"
	"github.com/solvia/solicitudes-api/internal/models"
	"github.com/solvia/solicitudes-api/internal/repository"
	"github.com/solvia/solicitudes-api/internal/services"
)

type SolicitudHandler struct {
	solicitudService *services.SolicitudService
	exportService    *services.ExportService
}

func NewSolicitudHandler(solicitudService *services.SolicitudService, exportService *services.ExportService) *SolicitudHandler {
	return &SolicitudHandler{
		solicitudService: solicitudService,
		exportService:    exportService,
	}
}

func actorFrom(c *gin.Context) services.Actor {
	return services.Actor{
		ID:       middleware.GetUserID(c),
		Username: middleware.GetUsername(c),
		Rol:      middleware.GetUserRole(c),
	}
}

func metaFrom(c *gin.Context) services.Meta {
	return services.Meta{
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}

func queryUint(c *gin.Context, key string) uint {
	v, _ := strconv.ParseUint(c.Query(key), 10, 32)
	return uint(v)
}

func queryInt(c *gin.Context, key string) int {
	v, _ := strconv.Atoi(c.Query(key))
	return v
}

func paramUint(c *gin.Context, key string) uint {
	v, _ := strconv.ParseUint(c.Param(key), 10, 32)
	return uint(v)
}

func listFiltersFrom(c *gin.Context) services.ListFilters {
	return services.ListFilters{
		Tab:            c.Query("tab"),
		Cliente:        c.Query("cliente"),
		Asunto:         c.Query("asunto"),
		EstadoID:       queryUint(c, "estado_id"),
		AssignedUserID: queryUint(c, "assigned_user_id"),
		Page:           queryInt(c, "page"),
		PerPage:        queryInt(c, "per_page"),
	}
}

// @Summary List Solicitudes
// @Description Get the paginated, scoped solicitud listing for the current user
// @Tags Solicitudes
// @Produce json
// @Param tab query string false "Listing tab (all, mine, assigned)"
// @Param cliente query string false "Filter by client (partial match)"
// @Param asunto query string false "Filter by subject (partial match)"
// @Param estado_id query int false "Filter by estado"
// @Param assigned_user_id query int false "Filter by assigned analyst"
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /solicitudes [get]
func (h *SolicitudHandler) Index(c *gin.Context) {
	actor := actorFrom(c)
	filters := listFiltersFrom(c)

	result, err := h.solicitudService.List(c.Request.Context(), actor, filters)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	responses := make([]models.SolicitudResponse, 0, len(result.Rows))
	for i := range result.Rows {
		responses = append(responses, result.Rows[i].ToResponse())
	}

	var analistas []models.UserResponse
	for i := range result.Analistas {
		analistas = append(analistas, result.Analistas[i].ToResponse())
	}

	query := &repository.ListQuery{Page: filters.Page, PerPage: filters.PerPage}
	query.Normalize()

	c.JSON(http.StatusOK, gin.H{
		"solicitudes": responses,
		"tab":         result.Tab,
		"tabs":        result.Tabs,
		"estados":     result.Estados,
		"analistas":   analistas,
		"pagination": gin.H{
			"page":        query.Page,
			"per_page":    query.PerPage,
			"total":       result.Total,
			"total_pages": (result.Total + int64(query.PerPage) - 1) / int64(query.PerPage),
		},
	})
}

// @Summary Create Solicitud
// @Description Create a new solicitud in the default estado
// @Tags Solicitudes
// @Accept json
// @Produce json
// @Param request body services.CreatePayload true "Solicitud Data"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Security BearerAuth
// @Router /solicitudes [post]
func (h *SolicitudHandler) Create(c *gin.Context) {
	var payload services.CreatePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := h.solicitudService.Create(c.Request.Context(), actorFrom(c), payload, metaFrom(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": id, "message": "Solicitud creada"})
}

// @Summary Get Solicitud
// @Description Get a solicitud detail with historial and comentarios
// @Tags Solicitudes
// @Produce json
// @Param solicitud_id path int true "Solicitud ID"
// @Param hist_page query int false "Historial page" default(1)
// @Param hist_size query int false "Historial page size" default(10)
// @Param com_page query int false "Comentarios page" default(1)
// @Param com_size query int false "Comentarios page size" default(10)
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /solicitudes/{solicitud_id} [get]
func (h *SolicitudHandler) Show(c *gin.Context) {
	paging := repository.DetailPaging{
		HistPage: queryInt(c, "hist_page"),
		HistSize: queryInt(c, "hist_size"),
		ComPage:  queryInt(c, "com_page"),
		ComSize:  queryInt(c, "com_size"),
	}

	result, err := h.solicitudService.GetDetail(c.Request.Context(), actorFrom(c), paramUint(c, "solicitud_id"), paging)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	historial := make([]models.HistorialResponse, 0, len(result.Detail.Historial))
	for i := range result.Detail.Historial {
		historial = append(historial, result.Detail.Historial[i].ToResponse())
	}

	comentarios := make([]models.ComentarioResponse, 0, len(result.Detail.Comentarios))
	for i := range result.Detail.Comentarios {
		comentarios = append(comentarios, result.Detail.Comentarios[i].ToResponse())
	}

	var analistas []models.UserResponse
	for i := range result.Analistas {
		analistas = append(analistas, result.Analistas[i].ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"solicitud":        result.Detail.Solicitud.ToResponse(),
		"permissions":      result.Permissions,
		"historial":        historial,
		"historial_total":  result.Detail.HistTotal,
		"comentarios":      comentarios,
		"comentario_total": result.Detail.ComTotal,
		"estados":          result.Estados,
		"analistas":        analistas,
	})
}

// @Summary Update Solicitud
// @Description Edit the fields the current role may change
// @Tags Solicitudes
// @Accept json
// @Produce json
// @Param solicitud_id path int true "Solicitud ID"
// @Param request body services.UpdatePayload true "Solicitud Data"
// @Success 200 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /solicitudes/{solicitud_id} [put]
func (h *SolicitudHandler) Update(c *gin.Context) {
	var payload services.UpdatePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.solicitudService.Update(c.Request.Context(), actorFrom(c), paramUint(c, "solicitud_id"), payload, metaFrom(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Solicitud editada"})
}

type AssignRequest struct {
	AssignedUserID *uint `json:"assigned_user_id"`
}

// @Summary Assign Solicitud
// @Description Assign or unassign an analyst (null clears the assignment)
// @Tags Solicitudes
// @Accept json
// @Produce json
// @Param solicitud_id path int true "Solicitud ID"
// @Param request body AssignRequest true "Assignment"
// @Success 200 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /solicitudes/{solicitud_id}/assign [post]
func (h *SolicitudHandler) Assign(c *gin.Context) {
	var req AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.solicitudService.Assign(c.Request.Context(), actorFrom(c), paramUint(c, "solicitud_id"), req.AssignedUserID, metaFrom(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Asignación actualizada"})
}

type ChangeEstadoRequest struct {
	EstadoID      uint   `json:"estado_id" binding:"required"`
	Justificacion string `json:"justificacion"`
}

// @Summary Change Estado
// @Description Move the solicitud to another active estado with a mandatory justification
// @Tags Solicitudes
// @Accept json
// @Produce json
// @Param solicitud_id path int true "Solicitud ID"
// @Param request body ChangeEstadoRequest true "Status Change"
// @Success 200 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /solicitudes/{solicitud_id}/estado [post]
func (h *SolicitudHandler) ChangeEstado(c *gin.Context) {
	var req ChangeEstadoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.solicitudService.ChangeEstado(c.Request.Context(), actorFrom(c), paramUint(c, "solicitud_id"),
		req.EstadoID, req.Justificacion, metaFrom(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Estado actualizado"})
}

type ComentarioRequest struct {
	Comentario string `json:"comentario" binding:"required"`
}

// @Summary Add Comentario
// @Description Append a comment to a visible solicitud
// @Tags Solicitudes
// @Accept json
// @Produce json
// @Param solicitud_id path int true "Solicitud ID"
// @Param request body ComentarioRequest true "Comment"
// @Success 201 {object} map[string]string
// @Security BearerAuth
// @Router /solicitudes/{solicitud_id}/comentarios [post]
func (h *SolicitudHandler) CreateComentario(c *gin.Context) {
	var req ComentarioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "comentario es requerido"})
		return
	}

	err := h.solicitudService.AddComentario(c.Request.Context(), actorFrom(c), paramUint(c, "solicitud_id"),
		req.Comentario, metaFrom(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Comentario agregado"})
}

// @Summary Export Solicitudes CSV
// @Description Export the scoped, filtered listing as CSV
// @Tags Solicitudes
// @Produce text/csv
// @Success 200 {file} file
// @Security BearerAuth
// @Router /solicitudes/export.csv [get]
func (h *SolicitudHandler) ExportCSV(c *gin.Context) {
	rows, err := h.solicitudService.Export(c.Request.Context(), actorFrom(c), listFiltersFrom(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	data, filename, err := h.exportService.ExportCSV(rows)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error generando CSV"})
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "text/csv", data)
}

// @Summary Export Solicitudes XLSX
// @Description Export the scoped, filtered listing as an Excel workbook
// @Tags Solicitudes
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} file
// @Security BearerAuth
// @Router /solicitudes/export.xlsx [get]
func (h *SolicitudHandler) ExportXLSX(c *gin.Context) {
	rows, err := h.solicitudService.Export(c.Request.Context(), actorFrom(c), listFiltersFrom(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	data, filename, err := h.exportService.ExportXLSX(rows)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error generando XLSX"})
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// @Summary Export Solicitudes PDF
// @Description Export the scoped, filtered listing as a PDF table
// @Tags Solicitudes
// @Produce application/pdf
// @Success 200 {file} file
// @Security BearerAuth
// @Router /solicitudes/export.pdf [get]
func (h *SolicitudHandler) ExportPDF(c *gin.Context) {
	rows, err := h.solicitudService.Export(c.Request.Context(), actorFrom(c), listFiltersFrom(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	data, filename, err := h.exportService.ExportPDF(rows)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error generando PDF"})
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "application/pdf", data)
}
