package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/openlearn/openlearn-api/internal/dto"
	"github.com/openlearn/openlearn-api/internal/models"
	"github.com/openlearn/openlearn-api/internal/service"
	appErrors "github.com/openlearn/openlearn-api/pkg/errors"
	"github.com/openlearn/openlearn-api/pkg/response"
)

// BulkAssignmentHandler exposes bulk assignment endpoints and the audit trail.
type BulkAssignmentHandler struct {
	bulk  *service.BulkAssignmentService
	audit *service.AuditTrailService
}

// NewBulkAssignmentHandler constructs BulkAssignmentHandler.
func NewBulkAssignmentHandler(bulk *service.BulkAssignmentService, audit *service.AuditTrailService) *BulkAssignmentHandler {
	return &BulkAssignmentHandler{bulk: bulk, audit: audit}
}

// Preflight godoc
// @Summary Dry-run a bulk assignment
// @Description Validate scope and limits without mutating any state
// @Tags BulkAssignments
// @Accept json
// @Produce json
// @Param payload body dto.PreflightRequest true "Preflight payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /bulk-assignments/preflight [post]
func (h *BulkAssignmentHandler) Preflight(c *gin.Context) {
	var req dto.PreflightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid preflight payload"))
		return
	}
	result, err := h.bulk.PreflightCheck(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// AssignStudents godoc
// @Summary Assign one material to many students
// @Tags BulkAssignments
// @Accept json
// @Produce json
// @Param payload body dto.BulkAssignStudentsRequest true "Assignment payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /bulk-assignments/students [post]
func (h *BulkAssignmentHandler) AssignStudents(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.BulkAssignStudentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.bulk.BulkAssignStudents(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// AssignMaterials godoc
// @Summary Assign many materials to one student
// @Tags BulkAssignments
// @Accept json
// @Produce json
// @Param payload body dto.BulkAssignMaterialsRequest true "Assignment payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /bulk-assignments/materials [post]
func (h *BulkAssignmentHandler) AssignMaterials(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.BulkAssignMaterialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.bulk.BulkAssignMaterials(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// AssignClass godoc
// @Summary Assign materials to every active student of a class
// @Tags BulkAssignments
// @Accept json
// @Produce json
// @Param payload body dto.BulkAssignClassRequest true "Assignment payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /bulk-assignments/classes [post]
func (h *BulkAssignmentHandler) AssignClass(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.BulkAssignClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.bulk.BulkAssignClass(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Remove godoc
// @Summary Remove assignments by material and/or student axis
// @Tags BulkAssignments
// @Accept json
// @Produce json
// @Param payload body dto.BulkRemoveRequest true "Removal payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /bulk-assignments/remove [post]
func (h *BulkAssignmentHandler) Remove(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.BulkRemoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.bulk.BulkRemove(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// ListAudits godoc
// @Summary List bulk operation audit records
// @Tags BulkAssignments
// @Produce json
// @Param performedBy query string false "Filter by acting user"
// @Param operation query string false "Filter by operation type"
// @Param status query string false "Filter by status"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /bulk-assignments/audits [get]
func (h *BulkAssignmentHandler) ListAudits(c *gin.Context) {
	filter := auditFilterFromQuery(c)
	records, pagination, err := h.audit.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, pagination)
}

// GetAudit godoc
// @Summary Get one audit record
// @Tags BulkAssignments
// @Produce json
// @Param id path string true "Audit record ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /bulk-assignments/audits/{id} [get]
func (h *BulkAssignmentHandler) GetAudit(c *gin.Context) {
	record, err := h.audit.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// ExportAudits godoc
// @Summary Export the audit trail
// @Tags BulkAssignments
// @Produce octet-stream
// @Param format query string false "csv or pdf" default(csv)
// @Param performedBy query string false "Filter by acting user"
// @Param operation query string false "Filter by operation type"
// @Param status query string false "Filter by status"
// @Success 200 {file} binary
// @Router /bulk-assignments/audits/export [get]
func (h *BulkAssignmentHandler) ExportAudits(c *gin.Context) {
	filter := auditFilterFromQuery(c)

	var (
		raw      []byte
		filename string
		mimeType string
		err      error
	)
	switch c.DefaultQuery("format", "csv") {
	case "csv":
		raw, filename, err = h.audit.ExportCSV(c.Request.Context(), filter)
		mimeType = "text/csv"
	case "pdf":
		raw, filename, err = h.audit.ExportPDF(c.Request.Context(), filter)
		mimeType = "application/pdf"
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf"))
		return
	}
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, mimeType, raw)
}

func auditFilterFromQuery(c *gin.Context) models.BulkAuditFilter {
	var filter models.BulkAuditFilter
	filter.PerformedBy = c.Query("performedBy")
	filter.OperationType = models.BulkOperationType(c.Query("operation"))
	filter.Status = models.BulkOperationStatus(c.Query("status"))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	return filter
}
