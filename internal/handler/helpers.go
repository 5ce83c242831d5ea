package handler

import (
	"errors"
	"net/http"
	"reflect"

	"cajapos/internal/apierror"
	"cajapos/internal/middleware"
	"cajapos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
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
// Returns false after writing the error response; the caller must return.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("JSON invalido: "+err.Error()))
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

// respondError maps service errors to HTTP statuses. Storage failures never
// leak their cause to the client.
func respondError(c *gin.Context, err error) {
	var se *service.AlmacenamientoError
	switch {
	case errors.Is(err, service.ErrCajaYaAbierta),
		errors.Is(err, service.ErrCajaNoAbierta):
		c.JSON(http.StatusConflict, apierror.New(err.Error()))
	case errors.Is(err, service.ErrSesionNoEncontrada):
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
	case errors.As(err, &se):
		log.Error().
			Err(err).
			Str("request_id", c.GetString(middleware.RequestIDKey)).
			Str("op", se.Op).
			Msg("storage failure")
		if se.Reintentable() {
			c.Header("Retry-After", "1")
			c.JSON(http.StatusServiceUnavailable, apierror.NewReintentable("Servicio no disponible, reintente"))
			return
		}
		c.JSON(http.StatusServiceUnavailable, apierror.New("Servicio no disponible"))
	default:
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
	}
}

// paramUUID parses a path parameter, writing a 400 when it is malformed.
func paramUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return uuid.Nil, false
	}
	return id, true
}

// operador extracts the authenticated operator, writing a 401 when absent.
func operador(c *gin.Context) (uuid.UUID, bool) {
	id, ok := middleware.OperadorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, apierror.New("ID de usuario inválido"))
		return uuid.Nil, false
	}
	return id, true
}
