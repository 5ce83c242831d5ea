package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	EstadoAbierta = "abierta"
	EstadoCerrada = "cerrada"
)

// Tipos de movimiento. The stored Monto is always a non-negative magnitude;
// the direction is given by the tipo.
const (
	TipoVenta   = "venta"
	TipoIngreso = "ingreso"
	TipoEgreso  = "egreso"
)

// MontoMaximo is the largest value a decimal(12,2) amount column holds.
var MontoMaximo = decimal.RequireFromString("9999999999.99")

// Metodos de pago. Only efectivo moves the physical drawer.
const (
	MetodoEfectivo      = "efectivo"
	MetodoDebito        = "debito"
	MetodoCredito       = "credito"
	MetodoTransferencia = "transferencia"
)

// SesionCaja represents the lifecycle of a cash register session (a shift).
// Estado: "abierta" | "cerrada". At most one row may be "abierta"; the
// partial unique index uq_sesiones_caja_abierta enforces it.
type SesionCaja struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey"`
	UsuarioID    uuid.UUID       `gorm:"type:uuid;not null"`
	MontoInicial decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	// SaldoArrastrado is the declared closing amount of the previous closed
	// session at the time this one was opened. Nil when there was no history.
	SaldoArrastrado *decimal.Decimal `gorm:"type:decimal(12,2)"`

	// Running aggregates, cash channel only.
	IngresosEfectivo decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	EgresosEfectivo  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	VentasEfectivo   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	CantidadVentas   int64           `gorm:"not null;default:0"`

	// Close snapshot. MontoEsperado is recomputed from movimientos at close.
	MontoEsperado       *decimal.Decimal `gorm:"type:decimal(12,2)"`
	MontoDeclarado      *decimal.Decimal `gorm:"type:decimal(12,2)"`
	Desvio              *decimal.Decimal `gorm:"type:decimal(12,2)"`
	DesvioPct           *decimal.Decimal `gorm:"type:decimal(7,2)"`
	ClasificacionDesvio *string          `gorm:"type:varchar(20)"`

	AperturaAutomatica bool   `gorm:"not null;default:false"`
	Estado             string `gorm:"type:varchar(20);not null;default:'abierta'"`
	Observaciones      *string
	OpenedAt           time.Time
	ClosedAt           *time.Time

	Movimientos []MovimientoCaja `gorm:"foreignKey:SesionCajaID"`
}

func (SesionCaja) TableName() string { return "sesiones_caja" }

func (s *SesionCaja) BeforeCreate(_ *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.OpenedAt.IsZero() {
		s.OpenedAt = time.Now().UTC()
	}
	return nil
}

// EfectivoTeorico derives the theoretical cash in the drawer from the stored
// aggregates. It is a cache of what the ledger says, never a source of truth.
func (s SesionCaja) EfectivoTeorico() decimal.Decimal {
	return s.MontoInicial.Add(s.IngresosEfectivo).Add(s.VentasEfectivo).Sub(s.EgresosEfectivo)
}

func (s SesionCaja) Abierta() bool { return s.Estado == EstadoAbierta }

// MovimientoCaja is an immutable event in the cash register ledger.
// Movements are NEVER modified or deleted except by an administrative reset of
// the whole session.
type MovimientoCaja struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey"`
	SesionCajaID uuid.UUID       `gorm:"type:uuid;index;not null"`
	Tipo         string          `gorm:"type:varchar(20);not null"`
	MetodoPago   string          `gorm:"type:varchar(20);not null"`
	Monto        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Descripcion  string          `gorm:"not null"`
	// ReferenciaID links to the originating sale, when there is one.
	ReferenciaID *uuid.UUID `gorm:"type:uuid"`
	UsuarioID    uuid.UUID  `gorm:"type:uuid;not null"`
	CreatedAt    time.Time
}

func (MovimientoCaja) TableName() string { return "movimientos_caja" }

func (m *MovimientoCaja) BeforeCreate(_ *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// EsEfectivo reports whether the movement affects the physical drawer.
func (m MovimientoCaja) EsEfectivo() bool { return m.MetodoPago == MetodoEfectivo }
