package service

import (
	"testing"

	"cajapos/internal/dto"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestClasificarDesvio(t *testing.T) {
	cases := map[string]string{
		"0":     "normal",
		"1":     "normal",
		"-1":    "normal",
		"1.01":  "advertencia",
		"-4.99": "advertencia",
		"5":     "advertencia",
		"5.01":  "critico",
		"-12":   "critico",
	}
	for pct, want := range cases {
		assert.Equal(t, want, clasificarDesvio(decimal.RequireFromString(pct)), "pct=%s", pct)
	}
}

func TestNotaContinuidad(t *testing.T) {
	sinHistorial := &dto.RecomendacionApertura{SinHistorial: true}
	assert.Equal(t,
		"Continuidad: sin historial, declarado 1000.00, diferencia +1000.00",
		notaContinuidad(sinHistorial, decimal.NewFromInt(1000)))

	rec := &dto.RecomendacionApertura{Monto: decimal.NewFromInt(5000)}
	assert.Equal(t,
		"Continuidad: recomendado 5000.00, declarado 5000.00, diferencia 0.00",
		notaContinuidad(rec, decimal.NewFromInt(5000)))
	assert.Equal(t,
		"Continuidad: recomendado 5000.00, declarado 5150.50, diferencia +150.50",
		notaContinuidad(rec, decimal.RequireFromString("5150.50")))
}

func TestWrapErr(t *testing.T) {
	assert.Nil(t, wrapErr("op", nil))
	assert.Same(t, ErrCajaNoAbierta, wrapErr("op", ErrCajaNoAbierta))
	assert.Same(t, ErrMontoExcedido, wrapErr("caja.movimiento", ErrMontoExcedido))

	err := wrapErr("caja.cerrar", assert.AnError)
	var se *AlmacenamientoError
	assert.ErrorAs(t, err, &se)
	assert.Equal(t, "caja.cerrar", se.Op)
	assert.ErrorIs(t, err, assert.AnError)

	// Already classified errors keep their original operation.
	assert.Same(t, err, wrapErr("otra.op", err))
}

func TestPorcentajeDesvio(t *testing.T) {
	cases := []struct {
		desvio, teorico, want string
	}{
		{"-50", "1300", "-3.85"},
		{"20", "0", "0"},
		{"4999", "1", "99999.99"},
		{"999.99", "1", "99999"},
		{"-5000", "0.01", "-99999.99"},
	}
	for _, tc := range cases {
		got := porcentajeDesvio(decimal.RequireFromString(tc.desvio), decimal.RequireFromString(tc.teorico))
		assert.True(t, decimal.RequireFromString(tc.want).Equal(got), "%s/%s: got %s", tc.desvio, tc.teorico, got)
	}
}

func TestDiferencias(t *testing.T) {
	almacenado := Totales{VentasEfectivo: decimal.NewFromInt(400), IngresosEfectivo: decimal.NewFromInt(100), CantidadVentas: 6}
	recalculado := Totales{VentasEfectivo: decimal.NewFromInt(500), CantidadVentas: 1}

	d := diferencias(almacenado, recalculado)
	assert.False(t, d.Vacia())
	assert.True(t, decimal.NewFromInt(-100).Equal(d.VentasEfectivo))
	assert.True(t, decimal.NewFromInt(100).Equal(d.IngresosEfectivo))
	assert.Equal(t, int64(5), d.CantidadVentas)

	assert.True(t, diferencias(recalculado, recalculado).Vacia())
}
