package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, 25, cfg.DBMaxOpenConns)
	assert.Equal(t, 5*time.Minute, cfg.AuditoriaIntervalo)
	assert.True(t, cfg.MontoAutomatico().IsZero())
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("APP_ENV", "production")
	t.Setenv("DATABASE_URL", "sqlite:///tmp/caja.db")
	t.Setenv("CAJA_MONTO_APERTURA_AUTOMATICA", "1500.50")
	t.Setenv("AUDITORIA_INTERVALO", "30s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, "sqlite:///tmp/caja.db", cfg.DatabaseURL)
	assert.Equal(t, 30*time.Second, cfg.AuditoriaIntervalo)
	assert.True(t, decimal.RequireFromString("1500.50").Equal(cfg.MontoAutomatico()))
}

func TestMontoAutomatico_Invalido(t *testing.T) {
	for _, raw := range []string{"", "abc", "-10"} {
		cfg := &Config{MontoAperturaAutomatica: raw}
		assert.True(t, cfg.MontoAutomatico().IsZero(), raw)
	}
}
