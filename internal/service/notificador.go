package service

import (
	"context"

	"cajapos/internal/dto"
)

// Notificador receives ledger events once the mutation that produced them has
// committed. Implementations must not block the caller for long and must not
// report failures back: the database is the source of truth.
type Notificador interface {
	Publicar(ctx context.Context, evento dto.EventoCaja)
}

type NopNotificador struct{}

func (NopNotificador) Publicar(context.Context, dto.EventoCaja) {}
