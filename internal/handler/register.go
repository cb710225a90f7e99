package handler

import (
	"net/http"
	"strconv"

	"github.com/dzn7/meuburguer-sub000/internal/apierror"
	"github.com/dzn7/meuburguer-sub000/internal/dto"
	"github.com/dzn7/meuburguer-sub000/internal/infra"
	"github.com/dzn7/meuburguer-sub000/internal/repository"
	"github.com/dzn7/meuburguer-sub000/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type RegisterHandler struct {
	svc            service.RegisterService
	repo           repository.RegisterRepository
	pdfStoragePath string
}

func NewRegisterHandler(svc service.RegisterService, repo repository.RegisterRepository, pdfStoragePath string) *RegisterHandler {
	return &RegisterHandler{svc: svc, repo: repo, pdfStoragePath: pdfStoragePath}
}

// Open godoc
// @Summary Open a new register session
// @Tags register
// @Accept json
// @Produce json
// @Param body body dto.OpenRegisterRequest true "Opening data"
// @Success 201 {object} dto.RegisterReportResponse
// @Failure 409 {object} apierror.APIError
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/register/open [post]
func (h *RegisterHandler) Open(c *gin.Context) {
	var req dto.OpenRegisterRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Open(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Close godoc
// @Summary Close the open register session with a counted amount
// @Tags register
// @Accept json
// @Produce json
// @Param body body dto.CloseRegisterRequest true "Closing declaration"
// @Success 200 {object} dto.CloseRegisterResponse
// @Failure 409 {object} apierror.APIError
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/register/close [post]
func (h *RegisterHandler) Close(c *gin.Context) {
	var req dto.CloseRegisterRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Close(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RegisterMovement godoc
// @Summary Record a manual cash entry or exit
// @Tags register
// @Accept json
// @Produce json
// @Param body body dto.ManualMovementRequest true "Manual movement"
// @Success 204
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/register/movements [post]
func (h *RegisterHandler) RegisterMovement(c *gin.Context) {
	var req dto.ManualMovementRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.svc.RegisterMovement(c.Request.Context(), req); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteMovement godoc
// @Summary Delete a cash movement by id
// @Tags register
// @Produce json
// @Param id path string true "Movement ID"
// @Success 204
// @Failure 400 {object} apierror.APIError
// @Router /v1/register/movements/{id} [delete]
func (h *RegisterHandler) DeleteMovement(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid movement id"))
		return
	}
	if err := h.svc.DeleteMovement(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetActive godoc
// @Summary Get the currently open register session with live statistics
// @Tags register
// @Produce json
// @Success 200 {object} dto.RegisterReportResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/register/active [get]
func (h *RegisterHandler) GetActive(c *gin.Context) {
	resp, err := h.svc.GetActive(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if resp == nil {
		c.JSON(http.StatusNotFound, apierror.New("no open register session"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Report godoc
// @Summary Get the full report for a register session
// @Tags register
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} dto.RegisterReportResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/register/{id}/report [get]
func (h *RegisterHandler) Report(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid session id"))
		return
	}
	resp, err := h.svc.Report(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ReportPDF godoc
// @Summary Download the session report as PDF
// @Tags register
// @Produce application/pdf
// @Param id path string true "Session ID"
// @Success 200
// @Failure 404 {object} apierror.APIError
// @Router /v1/register/{id}/report.pdf [get]
func (h *RegisterHandler) ReportPDF(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid session id"))
		return
	}
	session, err := h.repo.FindSessionByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	stats := service.ComputeStatistics(session, session.Movements)
	path, err := infra.GenerateSessionReportPDF(session, session.Movements, stats, h.pdfStoragePath)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("PDF generation failed"))
		return
	}
	c.FileAttachment(path, "register_"+session.ID.String()+".pdf")
}

// History godoc
// @Summary List past register sessions, newest first
// @Tags register
// @Produce json
// @Param page query int false "Page (default 1)"
// @Param limit query int false "Page size (default 20, max 100)"
// @Success 200 {array} dto.SessionSummary
// @Router /v1/register/history [get]
func (h *RegisterHandler) History(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	summaries, total, err := h.svc.History(c.Request.Context(), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": summaries, "total": total, "page": page, "limit": limit})
}

// DeleteSession godoc
// @Summary Delete a closed register session and its movements
// @Tags register
// @Produce json
// @Param id path string true "Session ID"
// @Success 204
// @Failure 409 {object} apierror.APIError
// @Router /v1/register/{id} [delete]
func (h *RegisterHandler) DeleteSession(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid session id"))
		return
	}
	if err := h.svc.DeleteSession(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Sync godoc
// @Summary Force a sync of the open session against the order feed
// @Tags register
// @Produce json
// @Success 200 {object} dto.SyncSummaryResponse
// @Failure 502 {object} apierror.APIError
// @Router /v1/register/sync [post]
func (h *RegisterHandler) Sync(c *gin.Context) {
	res, err := h.svc.SyncOpenSession(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.SyncSummaryResponse{
		Created:       res.Created,
		AlreadySynced: res.AlreadySynced,
		Skipped:       res.Skipped,
		Removed:       res.Removed,
		Failed:        res.Failed,
	})
}
