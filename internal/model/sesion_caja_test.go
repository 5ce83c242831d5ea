package model

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSesionCaja_EfectivoTeorico(t *testing.T) {
	id := uuid.New()
	// Map elements are not addressable; the read-only methods must still work.
	sesiones := map[uuid.UUID]SesionCaja{
		id: {
			MontoInicial:     decimal.NewFromInt(1000),
			VentasEfectivo:   decimal.NewFromInt(500),
			IngresosEfectivo: decimal.NewFromInt(75),
			EgresosEfectivo:  decimal.NewFromInt(200),
			Estado:           EstadoAbierta,
		},
	}

	assert.True(t, decimal.NewFromInt(1375).Equal(sesiones[id].EfectivoTeorico()))
	assert.True(t, sesiones[id].Abierta())
}

func TestMovimientoCaja_EsEfectivo(t *testing.T) {
	movs := []MovimientoCaja{{MetodoPago: MetodoEfectivo}, {MetodoPago: MetodoDebito}}
	assert.True(t, movs[0].EsEfectivo())
	assert.False(t, MovimientoCaja{MetodoPago: MetodoCredito}.EsEfectivo())
}

func TestMontoMaximo_CabeEnColumna(t *testing.T) {
	assert.Equal(t, "9999999999.99", MontoMaximo.StringFixed(2))
}
