package handler

import (
	"net/http"

	"cajapos/internal/dto"
	"cajapos/internal/service"

	"github.com/gin-gonic/gin"
)

type SecuenciasHandler struct{ svc service.SecuenciaService }

func NewSecuenciasHandler(svc service.SecuenciaService) *SecuenciasHandler {
	return &SecuenciasHandler{svc: svc}
}

// Siguiente godoc
// @Summary Emite el siguiente valor de una secuencia
// @Tags secuencias
// @Produce json
// @Security BearerAuth
// @Param nombre path string true "Nombre de la secuencia"
// @Success 200 {object} dto.SecuenciaResponse
// @Failure 503 {object} apierror.APIError
// @Router /v1/secuencias/{nombre}/siguiente [post]
func (h *SecuenciasHandler) Siguiente(c *gin.Context) {
	nombre := c.Param("nombre")
	n, err := h.svc.Siguiente(c.Request.Context(), nombre)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.SecuenciaResponse{Nombre: nombre, Valor: n})
}

// Consultar godoc
// @Summary Valor actual de una secuencia, sin incrementarla
// @Tags secuencias
// @Produce json
// @Security BearerAuth
// @Param nombre path string true "Nombre de la secuencia"
// @Success 200 {object} dto.SecuenciaResponse
// @Router /v1/secuencias/{nombre} [get]
func (h *SecuenciasHandler) Consultar(c *gin.Context) {
	nombre := c.Param("nombre")
	n, err := h.svc.Consultar(c.Request.Context(), nombre)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.SecuenciaResponse{Nombre: nombre, Valor: n})
}
