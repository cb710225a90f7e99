package handler

import (
	"errors"
	"net/http"
	"reflect"

	"github.com/dzn7/meuburguer-sub000/internal/apierror"
	"github.com/dzn7/meuburguer-sub000/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails —
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid JSON: "+err.Error()))
		return false
	}
	if err := validate.Struct(req); err != nil {
		fields := make(map[string]string)
		for _, fe := range err.(validator.ValidationErrors) {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// respondError maps service-layer error types to HTTP status codes:
//
//	ConflictError    → 409 (lifecycle precondition violated)
//	ValidationError  → 422 (input rejected, nothing written)
//	record not found → 404
//	StoreError       → 502 (persistence/remote call failed)
//	anything else    → 500
func respondError(c *gin.Context, err error) {
	switch {
	case service.IsConflict(err):
		c.JSON(http.StatusConflict, apierror.New(err.Error()))
	case service.IsValidation(err):
		c.JSON(http.StatusUnprocessableEntity, apierror.New(err.Error()))
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, apierror.New("not found"))
	default:
		var se *service.StoreError
		if errors.As(err, &se) {
			c.JSON(http.StatusBadGateway, apierror.New("storage temporarily unavailable"))
			return
		}
		c.JSON(http.StatusInternalServerError, apierror.New("internal server error"))
	}
}
