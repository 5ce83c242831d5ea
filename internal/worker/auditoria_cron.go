package worker

// auditoria_cron.go
// Background goroutine that periodically checks the open session for drift
// between its stored aggregates and its movement ledger. It only reports;
// repair stays an explicit operation.

import (
	"context"
	"errors"
	"time"

	"cajapos/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const defaultAuditoriaIntervalo = 5 * time.Minute

// AuditoriaCronConfig holds all dependencies for the audit goroutine.
type AuditoriaCronConfig struct {
	Caja         service.CajaService
	Conciliacion service.ConciliacionService
	Intervalo    time.Duration
}

// StartAuditoriaCron ticks every cfg.Intervalo until ctx is cancelled.
func StartAuditoriaCron(ctx context.Context, cfg AuditoriaCronConfig) {
	if cfg.Intervalo <= 0 {
		cfg.Intervalo = defaultAuditoriaIntervalo
	}
	go func() {
		ticker := time.NewTicker(cfg.Intervalo)
		defer ticker.Stop()

		log.Info().Dur("intervalo", cfg.Intervalo).Msg("auditoria_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("auditoria_cron: shutting down")
				return
			case <-ticker.C:
				auditarSesionActiva(ctx, cfg)
			}
		}
	}()
}

// auditarSesionActiva returns true when drift was found.
func auditarSesionActiva(ctx context.Context, cfg AuditoriaCronConfig) bool {
	activa, err := cfg.Caja.GetActiva(ctx)
	if err != nil {
		log.Error().Err(err).Msg("auditoria_cron: failed to load open session")
		return false
	}
	if activa == nil {
		return false
	}
	id, err := uuid.Parse(activa.SesionCajaID)
	if err != nil {
		log.Error().Err(err).Str("sesion_id", activa.SesionCajaID).Msg("auditoria_cron: invalid session id")
		return false
	}

	_, err = cfg.Conciliacion.DetectarDeriva(ctx, id)
	var derr *service.DerivaError
	switch {
	case err == nil:
		log.Debug().Str("sesion_id", id.String()).Msg("auditoria_cron: sin deriva")
		return false
	case errors.As(err, &derr):
		// Already logged and pushed to the audit list by the service.
		return true
	default:
		log.Error().Err(err).Str("sesion_id", id.String()).Msg("auditoria_cron: deriva check failed")
		return false
	}
}
