package dto

import "github.com/shopspring/decimal"

const (
	EventoSesionAbierta        = "sesion_abierta"
	EventoSesionCerrada        = "sesion_cerrada"
	EventoSesionEliminada      = "sesion_eliminada"
	EventoMovimientoRegistrado = "movimiento_registrado"
	EventoDerivaDetectada      = "deriva_detectada"
	EventoAgregadosReparados   = "agregados_reparados"
)

// EventoCaja is the notification pushed to reporting consumers after a ledger
// mutation has committed.
type EventoCaja struct {
	Tipo         string           `json:"tipo"`
	SesionCajaID string           `json:"sesion_caja_id"`
	MovimientoID *string          `json:"movimiento_id,omitempty"`
	Monto        *decimal.Decimal `json:"monto,omitempty"`
	Detalle      string           `json:"detalle,omitempty"`
	OcurridoEn   string           `json:"ocurrido_en"` // RFC 3339
}
