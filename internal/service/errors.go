package service

import (
	"errors"
	"fmt"

	"cajapos/internal/dto"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Logical errors: the request conflicts with ledger state. Retrying the same
// call will not help.
var (
	ErrCajaYaAbierta      = errors.New("ya existe una caja abierta")
	ErrCajaNoAbierta      = errors.New("no hay sesión de caja abierta")
	ErrSesionNoEncontrada = errors.New("sesión de caja no encontrada")
	ErrMontoInvalido      = errors.New("el monto debe ser mayor o igual a cero")
	ErrMontoExcedido      = errors.New("el monto excede el máximo admitido")
	ErrTipoInvalido       = errors.New("tipo de movimiento inválido")
	ErrMetodoInvalido     = errors.New("método de pago inválido")
)

// ErrSecuenciaInicializacion means the counter storage is unavailable.
// Sequence issuance cannot proceed without it.
var ErrSecuenciaInicializacion = errors.New("secuencia no disponible")

// ErrAlmacenamiento is the sentinel matched by every AlmacenamientoError.
var ErrAlmacenamiento = errors.New("almacenamiento no disponible")

// AlmacenamientoError wraps a failure of the underlying store. The operation
// was rolled back in full.
type AlmacenamientoError struct {
	Op  string
	Err error
}

func (e *AlmacenamientoError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Op, ErrAlmacenamiento, e.Err)
}

func (e *AlmacenamientoError) Unwrap() []error { return []error{ErrAlmacenamiento, e.Err} }

// Reintentable reports whether the caller may retry. Sequence issuance is
// excluded: a failed call may still have consumed a value.
func (e *AlmacenamientoError) Reintentable() bool { return e.Op != opSecuencia }

// DerivaError is advisory: the stored aggregates of a session disagree with
// the sum of its movements. It never blocks a close.
type DerivaError struct {
	SesionCajaID uuid.UUID
	Almacenado   decimal.Decimal
	Recalculado  decimal.Decimal
	Diferencias  dto.DiferenciasAgregados
}

func (e *DerivaError) Monto() decimal.Decimal { return e.Almacenado.Sub(e.Recalculado) }

func (e *DerivaError) Error() string {
	d := e.Diferencias
	return fmt.Sprintf("deriva detectada en sesión %s: almacenado=%s recalculado=%s "+
		"(ingresos %s, egresos %s, ventas %s, cantidad_ventas %+d)",
		e.SesionCajaID, e.Almacenado.StringFixed(2), e.Recalculado.StringFixed(2),
		d.IngresosEfectivo.StringFixed(2), d.EgresosEfectivo.StringFixed(2),
		d.VentasEfectivo.StringFixed(2), d.CantidadVentas)
}

const opSecuencia = "secuencia.siguiente"

func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *AlmacenamientoError
	if errors.As(err, &se) {
		return err
	}
	return &AlmacenamientoError{Op: op, Err: err}
}

// wrapErr passes logical errors through unchanged and classifies anything
// else as a storage failure.
func wrapErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrCajaYaAbierta),
		errors.Is(err, ErrCajaNoAbierta),
		errors.Is(err, ErrSesionNoEncontrada),
		errors.Is(err, ErrMontoInvalido),
		errors.Is(err, ErrMontoExcedido),
		errors.Is(err, ErrTipoInvalido),
		errors.Is(err, ErrMetodoInvalido):
		return err
	}
	return storageErr(op, err)
}
