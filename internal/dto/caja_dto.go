package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type AbrirCajaRequest struct {
	MontoInicial  decimal.Decimal `json:"monto_inicial"  validate:"min=0,lte=9999999999.99"`
	Observaciones string          `json:"observaciones"`
}

type CerrarCajaRequest struct {
	SesionCajaID   string          `json:"sesion_caja_id"  validate:"required,uuid"`
	MontoDeclarado decimal.Decimal `json:"monto_declarado" validate:"min=0,lte=9999999999.99"`
	Observaciones  *string         `json:"observaciones"`
}

type MovimientoRequest struct {
	SesionCajaID string          `json:"sesion_caja_id" validate:"required,uuid"`
	Tipo         string          `json:"tipo"           validate:"required,oneof=venta ingreso egreso"`
	MetodoPago   string          `json:"metodo_pago"    validate:"required,oneof=efectivo debito credito transferencia"`
	Monto        decimal.Decimal `json:"monto"          validate:"min=0,lte=9999999999.99"`
	Descripcion  string          `json:"descripcion"    validate:"required,min=3"`
	ReferenciaID *string         `json:"referencia_id"  validate:"omitempty,uuid"`
}

// VentaRequest is what the sale-processing flow reports once a sale is
// complete. ComprobanteRef is opaque to the ledger.
type VentaRequest struct {
	MetodoPago     string          `json:"metodo_pago"     validate:"required,oneof=efectivo debito credito transferencia"`
	Monto          decimal.Decimal `json:"monto"           validate:"min=0,lte=9999999999.99"`
	ReferenciaID   *string         `json:"referencia_id"   validate:"omitempty,uuid"`
	ComprobanteRef string          `json:"comprobante_ref"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type DesvioResponse struct {
	Monto         decimal.Decimal `json:"monto"`
	Porcentaje    decimal.Decimal `json:"porcentaje"`
	Clasificacion string          `json:"clasificacion"` // normal | advertencia | critico
}

type MontosPorMetodo struct {
	Efectivo      decimal.Decimal `json:"efectivo"`
	Debito        decimal.Decimal `json:"debito"`
	Credito       decimal.Decimal `json:"credito"`
	Transferencia decimal.Decimal `json:"transferencia"`
	Total         decimal.Decimal `json:"total"`
}

type RecomendacionApertura struct {
	Monto        decimal.Decimal `json:"monto"`
	SinHistorial bool            `json:"sin_historial"`
	// SesionAnteriorID is the closed session the recommendation comes from.
	SesionAnteriorID *string `json:"sesion_anterior_id"`
}

type AperturaResponse struct {
	Sesion        ReporteCajaResponse   `json:"sesion"`
	Recomendacion RecomendacionApertura `json:"recomendacion"`
	// Diferencia is monto_inicial minus the recommended amount.
	Diferencia decimal.Decimal `json:"diferencia"`
}

type TotalesResponse struct {
	SesionCajaID     string          `json:"sesion_caja_id"`
	MontoInicial     decimal.Decimal `json:"monto_inicial"`
	IngresosEfectivo decimal.Decimal `json:"ingresos_efectivo"`
	EgresosEfectivo  decimal.Decimal `json:"egresos_efectivo"`
	VentasEfectivo   decimal.Decimal `json:"ventas_efectivo"`
	CantidadVentas   int64           `json:"cantidad_ventas"`
	EfectivoTeorico  decimal.Decimal `json:"efectivo_teorico"`
}

// DiferenciasAgregados holds stored minus recomputed, per aggregate.
type DiferenciasAgregados struct {
	IngresosEfectivo decimal.Decimal `json:"ingresos_efectivo"`
	EgresosEfectivo  decimal.Decimal `json:"egresos_efectivo"`
	VentasEfectivo   decimal.Decimal `json:"ventas_efectivo"`
	CantidadVentas   int64           `json:"cantidad_ventas"`
}

func (d DiferenciasAgregados) Vacia() bool {
	return d.IngresosEfectivo.IsZero() && d.EgresosEfectivo.IsZero() &&
		d.VentasEfectivo.IsZero() && d.CantidadVentas == 0
}

type DerivaResponse struct {
	SesionCajaID      string               `json:"sesion_caja_id"`
	EfectivoAlmacen   decimal.Decimal      `json:"efectivo_almacenado"`
	EfectivoRecalculo decimal.Decimal      `json:"efectivo_recalculado"`
	Deriva            decimal.Decimal      `json:"deriva"`
	Diferencias       DiferenciasAgregados `json:"diferencias"`
	Consistente       bool                 `json:"consistente"`
}

type CierreResponse struct {
	SesionCajaID    string          `json:"sesion_caja_id"`
	EfectivoTeorico decimal.Decimal `json:"efectivo_teorico"`
	MontoDeclarado  decimal.Decimal `json:"monto_declarado"`
	Desvio          DesvioResponse  `json:"desvio"`
	// Deriva is the theoretical cash difference between stored aggregates and
	// the ledger. Diferencias is set when any aggregate disagreed.
	Deriva      decimal.Decimal       `json:"deriva"`
	Diferencias *DiferenciasAgregados `json:"diferencias,omitempty"`
	Estado      string                `json:"estado"`
	ClosedAt    string                `json:"closed_at"`
}

type MovimientoResponse struct {
	ID           string          `json:"id"`
	SesionCajaID string          `json:"sesion_caja_id"`
	Tipo         string          `json:"tipo"`
	MetodoPago   string          `json:"metodo_pago"`
	Monto        decimal.Decimal `json:"monto"`
	Descripcion  string          `json:"descripcion"`
	ReferenciaID *string         `json:"referencia_id"`
	UsuarioID    string          `json:"usuario_id"`
	CreatedAt    string          `json:"created_at"`
}

type VentaResponse struct {
	IDVenta      string `json:"id_venta"`
	Numero       int64  `json:"numero"`
	SesionCajaID string `json:"sesion_caja_id"`
	MovimientoID string `json:"movimiento_id"`
}

type ReporteCajaResponse struct {
	SesionCajaID       string           `json:"sesion_caja_id"`
	UsuarioID          string           `json:"usuario_id"`
	MontoInicial       decimal.Decimal  `json:"monto_inicial"`
	SaldoArrastrado    *decimal.Decimal `json:"saldo_arrastrado"`
	EfectivoTeorico    decimal.Decimal  `json:"efectivo_teorico"`
	CantidadVentas     int64            `json:"cantidad_ventas"`
	MontoEsperado      MontosPorMetodo  `json:"monto_esperado"`
	MontoDeclarado     *decimal.Decimal `json:"monto_declarado"`
	Desvio             *DesvioResponse  `json:"desvio"`
	AperturaAutomatica bool             `json:"apertura_automatica"`
	Estado             string           `json:"estado"`
	Observaciones      *string          `json:"observaciones"`
	OpenedAt           string           `json:"opened_at"`
	ClosedAt           *string          `json:"closed_at"`
}

type SecuenciaResponse struct {
	Nombre string `json:"nombre"`
	Valor  int64  `json:"valor"`
}
