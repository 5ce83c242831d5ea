package handler

import (
	"errors"
	"net/http"
	"strconv"

	"cajapos/internal/apierror"
	"cajapos/internal/dto"
	"cajapos/internal/service"

	"github.com/gin-gonic/gin"
)

type CajaHandler struct {
	svc          service.CajaService
	conciliacion service.ConciliacionService
}

func NewCajaHandler(svc service.CajaService, conciliacion service.ConciliacionService) *CajaHandler {
	return &CajaHandler{svc: svc, conciliacion: conciliacion}
}

// Abrir godoc
// @Summary Abre una nueva sesion de caja
// @Tags caja
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.AbrirCajaRequest true "Datos de apertura"
// @Success 201 {object} dto.AperturaResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/caja/abrir [post]
func (h *CajaHandler) Abrir(c *gin.Context) {
	var req dto.AbrirCajaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	usuarioID, ok := operador(c)
	if !ok {
		return
	}
	resp, err := h.svc.Abrir(c.Request.Context(), usuarioID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Asegurar godoc
// @Summary Devuelve la sesion abierta, abriendo una automaticamente si no existe
// @Tags caja
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]string
// @Failure 503 {object} apierror.APIError
// @Router /v1/caja/asegurar [post]
func (h *CajaHandler) Asegurar(c *gin.Context) {
	usuarioID, ok := operador(c)
	if !ok {
		return
	}
	id, err := h.svc.AsegurarSesionAbierta(c.Request.Context(), usuarioID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sesion_caja_id": id.String()})
}

// Recomendacion godoc
// @Summary Monto de apertura recomendado segun el cierre anterior
// @Tags caja
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.RecomendacionApertura
// @Router /v1/caja/recomendacion [get]
func (h *CajaHandler) Recomendacion(c *gin.Context) {
	resp, err := h.svc.RecomendarApertura(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Cerrar godoc
// @Summary Realiza el arqueo y cierra la sesion
// @Tags caja
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CerrarCajaRequest true "Monto declarado"
// @Success 200 {object} dto.CierreResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/caja/cerrar [post]
func (h *CajaHandler) Cerrar(c *gin.Context) {
	var req dto.CerrarCajaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	usuarioID, ok := operador(c)
	if !ok {
		return
	}
	resp, err := h.svc.Cerrar(c.Request.Context(), usuarioID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RegistrarMovimiento godoc
// @Summary Registra un movimiento de caja (venta, ingreso o egreso)
// @Tags caja
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.MovimientoRequest true "Movimiento"
// @Success 201 {object} map[string]string
// @Failure 409 {object} apierror.APIError
// @Router /v1/caja/movimiento [post]
func (h *CajaHandler) RegistrarMovimiento(c *gin.Context) {
	var req dto.MovimientoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	usuarioID, ok := operador(c)
	if !ok {
		return
	}
	id, err := h.svc.RegistrarMovimiento(c.Request.Context(), usuarioID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"movimiento_id": id.String()})
}

// RegistrarVenta godoc
// @Summary Registra el cobro de una venta, abriendo caja si hace falta
// @Tags caja
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.VentaRequest true "Venta"
// @Success 201 {object} dto.VentaResponse
// @Router /v1/caja/venta [post]
func (h *CajaHandler) RegistrarVenta(c *gin.Context) {
	var req dto.VentaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	usuarioID, ok := operador(c)
	if !ok {
		return
	}
	resp, err := h.svc.RegistrarVenta(c.Request.Context(), usuarioID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ListarMovimientos godoc
// @Summary Lista los movimientos de una sesion en orden cronologico
// @Tags caja
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de sesion"
// @Success 200 {array} dto.MovimientoResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/caja/{id}/movimientos [get]
func (h *CajaHandler) ListarMovimientos(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ListarMovimientos(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ObtenerReporte godoc
// @Summary Obtiene el reporte de una sesion de caja
// @Tags caja
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de sesion"
// @Success 200 {object} dto.ReporteCajaResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/caja/{id}/reporte [get]
func (h *CajaHandler) ObtenerReporte(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ObtenerReporte(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetActiva returns the currently open cash session.
func (h *CajaHandler) GetActiva(c *gin.Context) {
	resp, err := h.svc.GetActiva(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if resp == nil {
		c.JSON(http.StatusNotFound, apierror.New("Sin sesión activa"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Historial returns a paginated list of cash sessions, newest first.
func (h *CajaHandler) Historial(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	resp, total, err := h.svc.Historial(c.Request.Context(), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp, "total": total, "page": page, "limit": limit})
}

// Eliminar godoc
// @Summary Reset administrativo: elimina la sesion y todos sus movimientos
// @Tags caja
// @Security BearerAuth
// @Param id path string true "ID de sesion"
// @Success 204
// @Failure 404 {object} apierror.APIError
// @Router /v1/caja/{id} [delete]
func (h *CajaHandler) Eliminar(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Eliminar(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ── Conciliacion ─────────────────────────────────────────────────────────────

// Recalcular godoc
// @Summary Recalcula los totales de la sesion desde el libro de movimientos
// @Tags conciliacion
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de sesion"
// @Success 200 {object} dto.TotalesResponse
// @Router /v1/caja/{id}/recalculo [get]
func (h *CajaHandler) Recalcular(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.conciliacion.Recalcular(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Deriva godoc
// @Summary Compara los agregados almacenados con el recalculo
// @Tags conciliacion
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de sesion"
// @Success 200 {object} dto.DerivaResponse
// @Router /v1/caja/{id}/deriva [get]
func (h *CajaHandler) Deriva(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.conciliacion.DetectarDeriva(c.Request.Context(), id)
	var derr *service.DerivaError
	if err != nil && !errors.As(err, &derr) {
		respondError(c, err)
		return
	}
	// Drift is advisory: the body carries consistente=false.
	c.JSON(http.StatusOK, resp)
}

// Reparar godoc
// @Summary Sobrescribe los agregados con el recalculo del libro
// @Tags conciliacion
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de sesion"
// @Success 200 {object} dto.TotalesResponse
// @Router /v1/caja/{id}/reparar [post]
func (h *CajaHandler) Reparar(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.conciliacion.Reparar(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
