package handler

import (
	"net/http"

	"github.com/dzn7/meuburguer-sub000/internal/apierror"
	"github.com/dzn7/meuburguer-sub000/internal/dto"
	"github.com/dzn7/meuburguer-sub000/internal/repository"

	"github.com/gin-gonic/gin"
)

type CategoryHandler struct{ repo repository.CategoryRepository }

func NewCategoryHandler(repo repository.CategoryRepository) *CategoryHandler {
	return &CategoryHandler{repo: repo}
}

// List godoc
// @Summary List active movement categories
// @Tags categories
// @Produce json
// @Success 200 {array} dto.CategoryResponse
// @Router /v1/categories [get]
func (h *CategoryHandler) List(c *gin.Context) {
	cats, err := h.repo.ListActive(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("failed to list categories"))
		return
	}
	resp := make([]dto.CategoryResponse, 0, len(cats))
	for _, cat := range cats {
		resp = append(resp, dto.CategoryResponse{
			ID:        cat.ID.String(),
			Name:      cat.Name,
			Kind:      cat.Kind,
			Color:     cat.Color,
			Icon:      cat.Icon,
			SortOrder: cat.SortOrder,
		})
	}
	c.JSON(http.StatusOK, resp)
}
