package worker

// auditoria.go: drift audit log.
// Every drift between stored aggregates and the movement ledger is pushed to
// auditoria:deriva for manual review. A repair of the session removes its
// entries (ResolverDerivas); the list length is reported by /health.

import (
	"context"
	"encoding/json"
	"time"

	"cajapos/internal/dto"

	"github.com/rs/zerolog/log"
)

const QueueAuditoriaDeriva = "auditoria:deriva"

// EntradaDeriva is one audit record.
type EntradaDeriva struct {
	SesionCajaID string `json:"sesion_caja_id"`
	Deriva       string `json:"deriva"`
	Detalle      string `json:"detalle"`
	DetectadaEn  string `json:"detectada_en"` // ISO 8601
}

// RegistrarDeriva pushes a drift event to the audit list.
func RegistrarDeriva(ctx context.Context, rdb Lista, ev dto.EventoCaja) error {
	entry := EntradaDeriva{
		SesionCajaID: ev.SesionCajaID,
		Detalle:      ev.Detalle,
		DetectadaEn:  time.Now().UTC().Format(time.RFC3339),
	}
	if ev.Monto != nil {
		entry.Deriva = ev.Monto.StringFixed(2)
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	if err := rdb.LPush(ctx, QueueAuditoriaDeriva, data).Err(); err != nil {
		return err
	}
	log.Warn().
		Str("sesion_id", entry.SesionCajaID).
		Str("deriva", entry.Deriva).
		Msg("auditoria: deriva registrada")
	return nil
}

// ResolverDerivas removes every audit entry of a session and returns how many
// were removed. Entries that do not decode are left for manual review.
func ResolverDerivas(ctx context.Context, rdb Lista, sesionID string) (int64, error) {
	raw, err := rdb.LRange(ctx, QueueAuditoriaDeriva, 0, -1).Result()
	if err != nil {
		return 0, err
	}
	var removidas int64
	for _, r := range raw {
		var entry EntradaDeriva
		if json.Unmarshal([]byte(r), &entry) != nil || entry.SesionCajaID != sesionID {
			continue
		}
		n, err := rdb.LRem(ctx, QueueAuditoriaDeriva, 0, r).Result()
		if err != nil {
			return removidas, err
		}
		removidas += n
	}
	if removidas > 0 {
		log.Info().
			Str("sesion_id", sesionID).
			Int64("entradas", removidas).
			Msg("auditoria: derivas resueltas")
	}
	return removidas, nil
}

// DerivasPendientes returns the number of audit entries awaiting review.
func DerivasPendientes(ctx context.Context, rdb Lista) (int64, error) {
	return rdb.LLen(ctx, QueueAuditoriaDeriva).Result()
}
