package handler

import (
	"errors"
	"reflect"

	"github.com/jmoris/STPark-sub000/internal/apierror"
	"github.com/jmoris/STPark-sub000/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// decimal.Decimal validates as float64 so numeric tags (gt, min) work.
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	return v
}

// bindAndValidate decodes the JSON body and runs struct validation. On
// failure it attaches the error and reports false; the caller just returns.
func bindAndValidate(c *gin.Context, out interface{}) bool {
	if err := c.ShouldBindJSON(out); err != nil {
		_ = c.Error(apierror.New(apierror.CodeValidation, "malformed request body"))
		return false
	}
	if err := validate.Struct(out); err != nil {
		fields := make(map[string]string)
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				fields[fe.Field()] = fe.Tag()
			}
		}
		_ = c.Error(apierror.NewValidation(fields))
		return false
	}
	return true
}

// pathUUID parses a :param as UUID or attaches a validation error.
func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		_ = c.Error(apierror.New(apierror.CodeValidation, "invalid "+name))
		return uuid.Nil, false
	}
	return id, true
}

// callerOperator resolves the authenticated operator's id from JWT claims.
func callerOperator(c *gin.Context) (uuid.UUID, bool) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		_ = c.Error(apierror.New(apierror.CodeValidation, "missing operator identity"))
		return uuid.Nil, false
	}
	id, err := uuid.Parse(claims.OperatorID)
	if err != nil {
		_ = c.Error(apierror.New(apierror.CodeValidation, "invalid operator identity"))
		return uuid.Nil, false
	}
	return id, true
}
