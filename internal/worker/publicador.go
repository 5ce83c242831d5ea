package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"cajapos/internal/dto"
	"cajapos/internal/infra"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueEventos = "eventos:caja"

	publishTimeout = 2 * time.Second
)

// Lista is the subset of *redis.Client the publisher needs.
type Lista interface {
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	LLen(ctx context.Context, key string) *redis.IntCmd
	LRange(ctx context.Context, key string, start, stop int64) *redis.StringSliceCmd
	LRem(ctx context.Context, key string, count int64, value interface{}) *redis.IntCmd
}

// Job is the envelope pushed to Redis lists; consumers switch on Type.
type Job struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Publicador pushes committed ledger events to a Redis list for reporting
// consumers. It implements service.Notificador.
type Publicador struct {
	rdb Lista
	cb  *infra.CircuitBreaker
}

func NewPublicador(rdb Lista, cb *infra.CircuitBreaker) *Publicador {
	if cb == nil {
		cb = infra.NewCircuitBreaker(infra.DefaultCBConfig())
	}
	return &Publicador{rdb: rdb, cb: cb}
}

// Publicar never fails the caller: the mutation is already committed and the
// database remains authoritative. Failures are logged. Drift events also feed
// the audit list and repairs clear it, both through the same breaker; an open
// circuit skips them along with the event.
func (p *Publicador) Publicar(ctx context.Context, ev dto.EventoCaja) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	err := p.enqueue(ctx, QueueEventos, ev.Tipo, ev)
	var abierto *infra.CircuitOpenError
	if errors.As(err, &abierto) {
		log.Warn().
			Str("tipo", ev.Tipo).
			Str("sesion_id", ev.SesionCajaID).
			Time("reintento_en", abierto.ReintentoEn).
			Msg("publicador: circuito abierto, evento descartado")
		return
	}
	if err != nil {
		log.Error().
			Err(err).
			Str("tipo", ev.Tipo).
			Str("sesion_id", ev.SesionCajaID).
			Str("cb_state", p.cb.State().String()).
			Msg("publicador: evento no publicado")
	}

	var audit error
	switch ev.Tipo {
	case dto.EventoDerivaDetectada:
		audit = p.cb.Execute(func() error { return RegistrarDeriva(ctx, p.rdb, ev) })
	case dto.EventoAgregadosReparados:
		audit = p.cb.Execute(func() error {
			_, err := ResolverDerivas(ctx, p.rdb, ev.SesionCajaID)
			return err
		})
	}
	if audit != nil {
		log.Error().
			Err(audit).
			Str("tipo", ev.Tipo).
			Str("sesion_id", ev.SesionCajaID).
			Msg("publicador: auditoria de deriva no actualizada")
	}
}

// CBState exposes the breaker for the health endpoint.
func (p *Publicador) CBState() infra.CBState { return p.cb.State() }

func (p *Publicador) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	encoded, err := json.Marshal(Job{Type: jobType, Payload: data})
	if err != nil {
		return err
	}
	return p.cb.Execute(func() error {
		return p.rdb.LPush(ctx, queue, encoded).Err()
	})
}
