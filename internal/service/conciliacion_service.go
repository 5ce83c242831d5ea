package service

import (
	"context"
	"errors"
	"time"

	"cajapos/internal/dto"
	"cajapos/internal/model"
	"cajapos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Totales are the cash-channel aggregates of a session.
type Totales struct {
	MontoInicial     decimal.Decimal
	IngresosEfectivo decimal.Decimal
	EgresosEfectivo  decimal.Decimal
	VentasEfectivo   decimal.Decimal
	CantidadVentas   int64
}

func (t Totales) EfectivoTeorico() decimal.Decimal {
	return t.MontoInicial.Add(t.IngresosEfectivo).Add(t.VentasEfectivo).Sub(t.EgresosEfectivo)
}

// aplicar folds one movement into the aggregates. Non-cash movements are
// ledger-only and leave the drawer untouched.
func (t *Totales) aplicar(m *model.MovimientoCaja) {
	if !m.EsEfectivo() {
		return
	}
	monto := m.Monto.Abs()
	switch m.Tipo {
	case model.TipoVenta:
		t.VentasEfectivo = t.VentasEfectivo.Add(monto)
		t.CantidadVentas++
	case model.TipoIngreso:
		t.IngresosEfectivo = t.IngresosEfectivo.Add(monto)
	case model.TipoEgreso:
		t.EgresosEfectivo = t.EgresosEfectivo.Add(monto)
	}
}

// excedeMaximo reports whether any amount would overflow its column.
func (t Totales) excedeMaximo() bool {
	for _, v := range []decimal.Decimal{t.IngresosEfectivo, t.EgresosEfectivo, t.VentasEfectivo} {
		if v.GreaterThan(model.MontoMaximo) {
			return true
		}
	}
	return false
}

func totalesAlmacenados(s *model.SesionCaja) Totales {
	return Totales{
		MontoInicial:     s.MontoInicial,
		IngresosEfectivo: s.IngresosEfectivo,
		EgresosEfectivo:  s.EgresosEfectivo,
		VentasEfectivo:   s.VentasEfectivo,
		CantidadVentas:   s.CantidadVentas,
	}
}

func (t Totales) copiarEn(s *model.SesionCaja) {
	s.IngresosEfectivo = t.IngresosEfectivo
	s.EgresosEfectivo = t.EgresosEfectivo
	s.VentasEfectivo = t.VentasEfectivo
	s.CantidadVentas = t.CantidadVentas
}

// diferencias returns almacenado minus recalculado for every aggregate.
func diferencias(almacenado, recalculado Totales) dto.DiferenciasAgregados {
	return dto.DiferenciasAgregados{
		IngresosEfectivo: almacenado.IngresosEfectivo.Sub(recalculado.IngresosEfectivo),
		EgresosEfectivo:  almacenado.EgresosEfectivo.Sub(recalculado.EgresosEfectivo),
		VentasEfectivo:   almacenado.VentasEfectivo.Sub(recalculado.VentasEfectivo),
		CantidadVentas:   almacenado.CantidadVentas - recalculado.CantidadVentas,
	}
}

// RecalcularTotales rebuilds the aggregates of sesion from its movements
// alone. The stored aggregates on sesion are ignored.
func RecalcularTotales(sesion *model.SesionCaja, movimientos []model.MovimientoCaja) Totales {
	t := Totales{MontoInicial: sesion.MontoInicial}
	for i := range movimientos {
		if movimientos[i].SesionCajaID != sesion.ID {
			continue
		}
		t.aplicar(&movimientos[i])
	}
	return t
}

// ConciliarCierre returns declarado − teorico: positive is a surplus in the
// drawer, negative a shortage.
func ConciliarCierre(teorico, declarado decimal.Decimal) decimal.Decimal {
	return declarado.Sub(teorico)
}

// ── ConciliacionService ──────────────────────────────────────────────────────

type ConciliacionService interface {
	Recalcular(ctx context.Context, sesionID uuid.UUID) (*dto.TotalesResponse, error)
	// DetectarDeriva compares every stored aggregate with the ledger. Any
	// difference is returned in the response and as a *DerivaError, even when
	// the theoretical cash still matches.
	DetectarDeriva(ctx context.Context, sesionID uuid.UUID) (*dto.DerivaResponse, error)
	// Reparar overwrites the stored aggregates with the recomputed ones.
	Reparar(ctx context.Context, sesionID uuid.UUID) (*dto.TotalesResponse, error)
}

type conciliacionService struct {
	repo  repository.CajaRepository
	notif Notificador
}

func NewConciliacionService(repo repository.CajaRepository, notif Notificador) ConciliacionService {
	if notif == nil {
		notif = NopNotificador{}
	}
	return &conciliacionService{repo: repo, notif: notif}
}

func (s *conciliacionService) Recalcular(ctx context.Context, sesionID uuid.UUID) (*dto.TotalesResponse, error) {
	sesion, movs, err := s.cargar(ctx, sesionID)
	if err != nil {
		return nil, err
	}
	t := RecalcularTotales(sesion, movs)
	return totalesResponse(sesionID, t), nil
}

func (s *conciliacionService) DetectarDeriva(ctx context.Context, sesionID uuid.UUID) (*dto.DerivaResponse, error) {
	sesion, movs, err := s.cargar(ctx, sesionID)
	if err != nil {
		return nil, err
	}
	almacenados := totalesAlmacenados(sesion)
	recalculados := RecalcularTotales(sesion, movs)
	difs := diferencias(almacenados, recalculados)
	almacenado, recalculado := almacenados.EfectivoTeorico(), recalculados.EfectivoTeorico()

	resp := &dto.DerivaResponse{
		SesionCajaID:      sesionID.String(),
		EfectivoAlmacen:   almacenado,
		EfectivoRecalculo: recalculado,
		Deriva:            almacenado.Sub(recalculado),
		Diferencias:       difs,
		Consistente:       difs.Vacia(),
	}
	if resp.Consistente {
		return resp, nil
	}

	derr := &DerivaError{SesionCajaID: sesionID, Almacenado: almacenado, Recalculado: recalculado, Diferencias: difs}
	log.Warn().
		Str("sesion_id", sesionID.String()).
		Str("deriva", resp.Deriva.StringFixed(2)).
		Int64("cantidad_ventas", difs.CantidadVentas).
		Msg("conciliacion: agregados difieren del libro de movimientos")
	monto := resp.Deriva
	s.notif.Publicar(ctx, dto.EventoCaja{
		Tipo:         dto.EventoDerivaDetectada,
		SesionCajaID: sesionID.String(),
		Monto:        &monto,
		Detalle:      derr.Error(),
		OcurridoEn:   time.Now().UTC().Format(time.RFC3339),
	})
	return resp, derr
}

func (s *conciliacionService) Reparar(ctx context.Context, sesionID uuid.UUID) (*dto.TotalesResponse, error) {
	var t, antes Totales
	err := s.repo.Transaction(ctx, func(tx repository.CajaRepository) error {
		sesion, err := tx.LockSesion(ctx, sesionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSesionNoEncontrada
			}
			return err
		}
		movs, err := tx.ListMovimientos(ctx, sesionID)
		if err != nil {
			return err
		}
		antes = totalesAlmacenados(sesion)
		t = RecalcularTotales(sesion, movs)
		t.copiarEn(sesion)
		return tx.UpdateAgregados(ctx, sesion)
	})
	if err != nil {
		return nil, wrapErr("conciliacion.reparar", err)
	}

	if !diferencias(antes, t).Vacia() {
		corregido := antes.EfectivoTeorico().Sub(t.EfectivoTeorico())
		log.Info().
			Str("sesion_id", sesionID.String()).
			Str("corregido", corregido.StringFixed(2)).
			Msg("conciliacion: agregados reparados")
		s.notif.Publicar(ctx, dto.EventoCaja{
			Tipo:         dto.EventoAgregadosReparados,
			SesionCajaID: sesionID.String(),
			Monto:        &corregido,
			OcurridoEn:   time.Now().UTC().Format(time.RFC3339),
		})
	}
	return totalesResponse(sesionID, t), nil
}

func (s *conciliacionService) cargar(ctx context.Context, sesionID uuid.UUID) (*model.SesionCaja, []model.MovimientoCaja, error) {
	sesion, err := s.repo.FindSesionByID(ctx, sesionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrSesionNoEncontrada
		}
		return nil, nil, storageErr("conciliacion.cargar", err)
	}
	movs, err := s.repo.ListMovimientos(ctx, sesionID)
	if err != nil {
		return nil, nil, storageErr("conciliacion.cargar", err)
	}
	return sesion, movs, nil
}

func totalesResponse(id uuid.UUID, t Totales) *dto.TotalesResponse {
	return &dto.TotalesResponse{
		SesionCajaID:     id.String(),
		MontoInicial:     t.MontoInicial,
		IngresosEfectivo: t.IngresosEfectivo,
		EgresosEfectivo:  t.EgresosEfectivo,
		VentasEfectivo:   t.VentasEfectivo,
		CantidadVentas:   t.CantidadVentas,
		EfectivoTeorico:  t.EfectivoTeorico(),
	}
}
