package handler

import (
	"net/http"

	"github.com/dzn7/meuburguer-sub000/internal/apierror"
	"github.com/dzn7/meuburguer-sub000/internal/dto"
	"github.com/dzn7/meuburguer-sub000/internal/repository"

	"github.com/gin-gonic/gin"
)

type StaffHandler struct{ repo repository.StaffRepository }

func NewStaffHandler(repo repository.StaffRepository) *StaffHandler {
	return &StaffHandler{repo: repo}
}

// List godoc
// @Summary List active staff members
// @Tags staff
// @Produce json
// @Success 200 {array} dto.StaffResponse
// @Router /v1/staff [get]
func (h *StaffHandler) List(c *gin.Context) {
	members, err := h.repo.ListActive(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("failed to list staff"))
		return
	}
	resp := make([]dto.StaffResponse, 0, len(members))
	for _, m := range members {
		resp = append(resp, dto.StaffResponse{ID: m.ID.String(), Name: m.Name})
	}
	c.JSON(http.StatusOK, resp)
}
