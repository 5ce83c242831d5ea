package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cajapos/internal/dto"
	"cajapos/internal/model"
	"cajapos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const maxIntentosApertura = 3

type CajaService interface {
	// AsegurarSesionAbierta returns the open session, auto-opening one when
	// there is none. Concurrent callers all get the same session.
	AsegurarSesionAbierta(ctx context.Context, usuarioID uuid.UUID) (uuid.UUID, error)
	Abrir(ctx context.Context, usuarioID uuid.UUID, req dto.AbrirCajaRequest) (*dto.AperturaResponse, error)
	RecomendarApertura(ctx context.Context) (*dto.RecomendacionApertura, error)
	Cerrar(ctx context.Context, usuarioID uuid.UUID, req dto.CerrarCajaRequest) (*dto.CierreResponse, error)
	RegistrarMovimiento(ctx context.Context, usuarioID uuid.UUID, req dto.MovimientoRequest) (uuid.UUID, error)
	RegistrarVenta(ctx context.Context, usuarioID uuid.UUID, req dto.VentaRequest) (*dto.VentaResponse, error)
	ListarMovimientos(ctx context.Context, sesionID uuid.UUID) ([]dto.MovimientoResponse, error)
	ObtenerReporte(ctx context.Context, sesionID uuid.UUID) (*dto.ReporteCajaResponse, error)
	GetActiva(ctx context.Context) (*dto.ReporteCajaResponse, error)
	Historial(ctx context.Context, page, limit int) ([]dto.ReporteCajaResponse, int64, error)
	// Eliminar is the administrative reset: the session and all its movements
	// are removed together.
	Eliminar(ctx context.Context, sesionID uuid.UUID) error
}

type cajaService struct {
	repo            repository.CajaRepository
	secuencias      SecuenciaService
	notif           Notificador
	montoAutomatico decimal.Decimal
}

// NewCajaService wires the shift lifecycle. montoAutomatico is the opening
// amount used when a session is auto-opened by a cash event.
func NewCajaService(repo repository.CajaRepository, secuencias SecuenciaService, notif Notificador, montoAutomatico decimal.Decimal) CajaService {
	if notif == nil {
		notif = NopNotificador{}
	}
	return &cajaService{
		repo:            repo,
		secuencias:      secuencias,
		notif:           notif,
		montoAutomatico: montoAutomatico,
	}
}

// ── AsegurarSesionAbierta ────────────────────────────────────────────────────

func (s *cajaService) AsegurarSesionAbierta(ctx context.Context, usuarioID uuid.UUID) (uuid.UUID, error) {
	for intento := 0; intento < maxIntentosApertura; intento++ {
		sesion, err := s.repo.FindSesionAbierta(ctx)
		if err == nil {
			return sesion.ID, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, storageErr("caja.asegurar", err)
		}

		rec, err := s.recomendacion(ctx)
		if err != nil {
			return uuid.Nil, err
		}
		nota := "Apertura automática. " + notaContinuidad(rec, s.montoAutomatico)
		nueva := &model.SesionCaja{
			UsuarioID:          usuarioID,
			MontoInicial:       s.montoAutomatico,
			SaldoArrastrado:    saldoArrastrado(rec),
			AperturaAutomatica: true,
			Estado:             model.EstadoAbierta,
			Observaciones:      &nota,
		}
		err = s.repo.CreateSesion(ctx, nueva)
		if err == nil {
			log.Info().
				Str("sesion_id", nueva.ID.String()).
				Str("usuario_id", usuarioID.String()).
				Msg("caja: sesión abierta automáticamente")
			s.publicar(ctx, dto.EventoSesionAbierta, nueva.ID, nil, &nueva.MontoInicial, "apertura automática")
			return nueva.ID, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return uuid.Nil, storageErr("caja.asegurar", err)
		}
		// Lost the race against another opener: the next pass reads the winner.
	}
	return uuid.Nil, storageErr("caja.asegurar", fmt.Errorf("sin sesión abierta tras %d intentos", maxIntentosApertura))
}

// ── Abrir ─────────────────────────────────────────────────────────────────────

func (s *cajaService) Abrir(ctx context.Context, usuarioID uuid.UUID, req dto.AbrirCajaRequest) (*dto.AperturaResponse, error) {
	if err := validarMonto(req.MontoInicial); err != nil {
		return nil, err
	}
	if _, err := s.repo.FindSesionAbierta(ctx); err == nil {
		return nil, ErrCajaYaAbierta
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storageErr("caja.abrir", err)
	}

	rec, err := s.recomendacion(ctx)
	if err != nil {
		return nil, err
	}

	nota := notaContinuidad(rec, req.MontoInicial)
	if obs := strings.TrimSpace(req.Observaciones); obs != "" {
		nota = obs + "\n" + nota
	}
	sesion := &model.SesionCaja{
		UsuarioID:       usuarioID,
		MontoInicial:    req.MontoInicial,
		SaldoArrastrado: saldoArrastrado(rec),
		Estado:          model.EstadoAbierta,
		Observaciones:   &nota,
	}
	if err := s.repo.CreateSesion(ctx, sesion); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrCajaYaAbierta
		}
		return nil, storageErr("caja.abrir", err)
	}

	diferencia := req.MontoInicial.Sub(rec.Monto)
	log.Info().
		Str("sesion_id", sesion.ID.String()).
		Str("usuario_id", usuarioID.String()).
		Str("monto_inicial", req.MontoInicial.StringFixed(2)).
		Str("diferencia", diferencia.StringFixed(2)).
		Bool("sin_historial", rec.SinHistorial).
		Msg("caja: sesión abierta")
	s.publicar(ctx, dto.EventoSesionAbierta, sesion.ID, nil, &sesion.MontoInicial, "")

	return &dto.AperturaResponse{
		Sesion:        buildReporte(sesion, nil),
		Recomendacion: *rec,
		Diferencia:    diferencia,
	}, nil
}

// ── RecomendarApertura ───────────────────────────────────────────────────────

func (s *cajaService) RecomendarApertura(ctx context.Context) (*dto.RecomendacionApertura, error) {
	return s.recomendacion(ctx)
}

// recomendacion uses the declared (physically counted) closing amount of the
// last closed session, not its theoretical cash.
func (s *cajaService) recomendacion(ctx context.Context) (*dto.RecomendacionApertura, error) {
	anterior, err := s.repo.FindUltimaSesionCerrada(ctx)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &dto.RecomendacionApertura{Monto: decimal.Zero, SinHistorial: true}, nil
	}
	if err != nil {
		return nil, storageErr("caja.recomendacion", err)
	}
	rec := &dto.RecomendacionApertura{Monto: decimal.Zero}
	if anterior.MontoDeclarado != nil {
		rec.Monto = *anterior.MontoDeclarado
	}
	id := anterior.ID.String()
	rec.SesionAnteriorID = &id
	return rec, nil
}

// ── Cerrar ────────────────────────────────────────────────────────────────────
// Expected cash is recomputed from the ledger inside the closing transaction,
// after the row lock, so no movement can slip in between.

func (s *cajaService) Cerrar(ctx context.Context, usuarioID uuid.UUID, req dto.CerrarCajaRequest) (*dto.CierreResponse, error) {
	sesionID, err := uuid.Parse(req.SesionCajaID)
	if err != nil {
		return nil, fmt.Errorf("sesion_caja_id inválido: %w", err)
	}
	if err := validarMonto(req.MontoDeclarado); err != nil {
		return nil, err
	}

	var (
		resp   *dto.CierreResponse
		deriva decimal.Decimal
		difs   dto.DiferenciasAgregados
	)
	err = s.repo.Transaction(ctx, func(tx repository.CajaRepository) error {
		sesion, err := tx.LockSesion(ctx, sesionID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCajaNoAbierta
		}
		if err != nil {
			return err
		}
		if !sesion.Abierta() {
			return ErrCajaNoAbierta
		}

		movs, err := tx.ListMovimientos(ctx, sesionID)
		if err != nil {
			return err
		}
		recalculados := RecalcularTotales(sesion, movs)
		difs = diferencias(totalesAlmacenados(sesion), recalculados)
		teorico := recalculados.EfectivoTeorico()
		deriva = sesion.EfectivoTeorico().Sub(teorico)
		desvio := ConciliarCierre(teorico, req.MontoDeclarado)

		desvioPct := porcentajeDesvio(desvio, teorico)
		clasificacion := clasificarDesvio(desvioPct)

		closedAt := time.Now().UTC()
		declarado := req.MontoDeclarado
		sesion.MontoEsperado = &teorico
		sesion.MontoDeclarado = &declarado
		sesion.Desvio = &desvio
		sesion.DesvioPct = &desvioPct
		sesion.ClasificacionDesvio = &clasificacion
		sesion.Estado = model.EstadoCerrada
		sesion.ClosedAt = &closedAt
		if req.Observaciones != nil && strings.TrimSpace(*req.Observaciones) != "" {
			sesion.Observaciones = appendNota(sesion.Observaciones, "Cierre: "+strings.TrimSpace(*req.Observaciones))
		}
		if err := tx.UpdateSesion(ctx, sesion); err != nil {
			return err
		}

		resp = &dto.CierreResponse{
			SesionCajaID:    sesionID.String(),
			EfectivoTeorico: teorico,
			MontoDeclarado:  declarado,
			Desvio: dto.DesvioResponse{
				Monto:         desvio,
				Porcentaje:    desvioPct,
				Clasificacion: clasificacion,
			},
			Deriva:   deriva,
			Estado:   model.EstadoCerrada,
			ClosedAt: closedAt.Format(time.RFC3339),
		}
		if !difs.Vacia() {
			resp.Diferencias = &difs
		}
		return nil
	})
	if err != nil {
		return nil, wrapErr("caja.cerrar", err)
	}

	nivel := zerolog.InfoLevel
	if !difs.Vacia() {
		nivel = zerolog.WarnLevel
	}
	log.WithLevel(nivel).
		Str("sesion_id", sesionID.String()).
		Str("usuario_id", usuarioID.String()).
		Str("efectivo_teorico", resp.EfectivoTeorico.StringFixed(2)).
		Str("desvio", resp.Desvio.Monto.StringFixed(2)).
		Str("clasificacion", resp.Desvio.Clasificacion).
		Str("deriva", deriva.StringFixed(2)).
		Msg("caja: sesión cerrada")

	s.publicar(ctx, dto.EventoSesionCerrada, sesionID, nil, &resp.Desvio.Monto, resp.Desvio.Clasificacion)
	if !difs.Vacia() {
		s.publicar(ctx, dto.EventoDerivaDetectada, sesionID, nil, &deriva, "detectada al cierre")
	}
	return resp, nil
}

// ── RegistrarMovimiento ───────────────────────────────────────────────────────
// The movement insert and the aggregate update commit together or not at all.

func (s *cajaService) RegistrarMovimiento(ctx context.Context, usuarioID uuid.UUID, req dto.MovimientoRequest) (uuid.UUID, error) {
	sesionID, err := uuid.Parse(req.SesionCajaID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("sesion_caja_id inválido: %w", err)
	}
	if err := validarMovimiento(req.Tipo, req.MetodoPago, req.Monto); err != nil {
		return uuid.Nil, err
	}
	var refID *uuid.UUID
	if req.ReferenciaID != nil && *req.ReferenciaID != "" {
		id, err := uuid.Parse(*req.ReferenciaID)
		if err != nil {
			return uuid.Nil, fmt.Errorf("referencia_id inválido: %w", err)
		}
		refID = &id
	}

	mov := &model.MovimientoCaja{
		SesionCajaID: sesionID,
		Tipo:         req.Tipo,
		MetodoPago:   req.MetodoPago,
		Monto:        req.Monto,
		Descripcion:  req.Descripcion,
		ReferenciaID: refID,
		UsuarioID:    usuarioID,
	}
	err = s.repo.Transaction(ctx, func(tx repository.CajaRepository) error {
		sesion, err := tx.LockSesion(ctx, sesionID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCajaNoAbierta
		}
		if err != nil {
			return err
		}
		if !sesion.Abierta() {
			return ErrCajaNoAbierta
		}

		t := totalesAlmacenados(sesion)
		t.aplicar(mov)
		if t.excedeMaximo() {
			return ErrMontoExcedido
		}
		if err := tx.CreateMovimiento(ctx, mov); err != nil {
			return err
		}
		if !mov.EsEfectivo() {
			return nil
		}
		t.copiarEn(sesion)
		return tx.UpdateAgregados(ctx, sesion)
	})
	if err != nil {
		return uuid.Nil, wrapErr("caja.movimiento", err)
	}

	log.Info().
		Str("sesion_id", sesionID.String()).
		Str("movimiento_id", mov.ID.String()).
		Str("tipo", mov.Tipo).
		Str("metodo_pago", mov.MetodoPago).
		Str("monto", mov.Monto.StringFixed(2)).
		Msg("caja: movimiento registrado")
	s.publicar(ctx, dto.EventoMovimientoRegistrado, sesionID, &mov.ID, &mov.Monto, mov.Tipo+"/"+mov.MetodoPago)
	return mov.ID, nil
}

// ── RegistrarVenta ────────────────────────────────────────────────────────────
// Entry point for the sale flow: ensure a session, take a sale number, append.

func (s *cajaService) RegistrarVenta(ctx context.Context, usuarioID uuid.UUID, req dto.VentaRequest) (*dto.VentaResponse, error) {
	if err := validarMovimiento(model.TipoVenta, req.MetodoPago, req.Monto); err != nil {
		return nil, err
	}
	numero, err := s.secuencias.Siguiente(ctx, SecuenciaVentas)
	if err != nil {
		return nil, err
	}
	idVenta := FormatearIDVenta(numero)
	descripcion := "Venta " + idVenta
	if ref := strings.TrimSpace(req.ComprobanteRef); ref != "" {
		descripcion += " | comprobante " + ref
	}

	var lastErr error
	for intento := 0; intento < 2; intento++ {
		sesionID, err := s.AsegurarSesionAbierta(ctx, usuarioID)
		if err != nil {
			return nil, err
		}
		movID, err := s.RegistrarMovimiento(ctx, usuarioID, dto.MovimientoRequest{
			SesionCajaID: sesionID.String(),
			Tipo:         model.TipoVenta,
			MetodoPago:   req.MetodoPago,
			Monto:        req.Monto,
			Descripcion:  descripcion,
			ReferenciaID: req.ReferenciaID,
		})
		if err == nil {
			return &dto.VentaResponse{
				IDVenta:      idVenta,
				Numero:       numero,
				SesionCajaID: sesionID.String(),
				MovimientoID: movID.String(),
			}, nil
		}
		// The session may have been closed between ensure and append.
		if !errors.Is(err, ErrCajaNoAbierta) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

// ── Consultas ────────────────────────────────────────────────────────────────

func (s *cajaService) ListarMovimientos(ctx context.Context, sesionID uuid.UUID) ([]dto.MovimientoResponse, error) {
	if _, err := s.repo.FindSesionByID(ctx, sesionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSesionNoEncontrada
		}
		return nil, storageErr("caja.listar_movimientos", err)
	}
	movs, err := s.repo.ListMovimientos(ctx, sesionID)
	if err != nil {
		return nil, storageErr("caja.listar_movimientos", err)
	}
	out := make([]dto.MovimientoResponse, 0, len(movs))
	for i := range movs {
		out = append(out, movimientoResponse(&movs[i]))
	}
	return out, nil
}

func (s *cajaService) ObtenerReporte(ctx context.Context, sesionID uuid.UUID) (*dto.ReporteCajaResponse, error) {
	sesion, err := s.repo.FindSesionByID(ctx, sesionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSesionNoEncontrada
		}
		return nil, storageErr("caja.reporte", err)
	}
	movs, err := s.repo.ListMovimientos(ctx, sesionID)
	if err != nil {
		return nil, storageErr("caja.reporte", err)
	}
	r := buildReporte(sesion, movs)
	return &r, nil
}

// GetActiva returns nil, nil when no session is open.
func (s *cajaService) GetActiva(ctx context.Context) (*dto.ReporteCajaResponse, error) {
	sesion, err := s.repo.FindSesionAbierta(ctx)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("caja.activa", err)
	}
	return s.ObtenerReporte(ctx, sesion.ID)
}

func (s *cajaService) Historial(ctx context.Context, page, limit int) ([]dto.ReporteCajaResponse, int64, error) {
	sesiones, total, err := s.repo.ListSesiones(ctx, page, limit)
	if err != nil {
		return nil, 0, storageErr("caja.historial", err)
	}
	out := make([]dto.ReporteCajaResponse, 0, len(sesiones))
	for i := range sesiones {
		out = append(out, buildReporte(&sesiones[i], nil))
	}
	return out, total, nil
}

// ── Eliminar ─────────────────────────────────────────────────────────────────

func (s *cajaService) Eliminar(ctx context.Context, sesionID uuid.UUID) error {
	err := s.repo.Transaction(ctx, func(tx repository.CajaRepository) error {
		if _, err := tx.LockSesion(ctx, sesionID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSesionNoEncontrada
			}
			return err
		}
		return tx.DeleteSesion(ctx, sesionID)
	})
	if err != nil {
		return wrapErr("caja.eliminar", err)
	}
	log.Warn().Str("sesion_id", sesionID.String()).Msg("caja: sesión eliminada con sus movimientos")
	s.publicar(ctx, dto.EventoSesionEliminada, sesionID, nil, nil, "")
	return nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func validarMovimiento(tipo, metodo string, monto decimal.Decimal) error {
	switch tipo {
	case model.TipoVenta, model.TipoIngreso, model.TipoEgreso:
	default:
		return ErrTipoInvalido
	}
	switch metodo {
	case model.MetodoEfectivo, model.MetodoDebito, model.MetodoCredito, model.MetodoTransferencia:
	default:
		return ErrMetodoInvalido
	}
	return validarMonto(monto)
}

func validarMonto(monto decimal.Decimal) error {
	switch {
	case monto.IsNegative():
		return ErrMontoInvalido
	case monto.GreaterThan(model.MontoMaximo):
		return ErrMontoExcedido
	}
	return nil
}

// desvioPctMaximo is the largest magnitude the decimal(7,2) desvio_pct column
// holds. Larger percentages are stored saturated.
var desvioPctMaximo = decimal.RequireFromString("99999.99")

// porcentajeDesvio returns desvio as a percentage of teorico, 0 when teorico
// is 0, saturated at ±desvioPctMaximo.
func porcentajeDesvio(desvio, teorico decimal.Decimal) decimal.Decimal {
	if teorico.IsZero() {
		return decimal.Zero
	}
	pct := desvio.Div(teorico).Mul(decimal.NewFromInt(100)).Round(2)
	switch {
	case pct.GreaterThan(desvioPctMaximo):
		return desvioPctMaximo
	case pct.LessThan(desvioPctMaximo.Neg()):
		return desvioPctMaximo.Neg()
	}
	return pct
}

// clasificarDesvio returns "normal" | "advertencia" | "critico"
// normal: |desvio| <= 1%, advertencia: <= 5%, critico: > 5%
func clasificarDesvio(pct decimal.Decimal) string {
	abs := pct.Abs()
	switch {
	case abs.LessThanOrEqual(decimal.NewFromInt(1)):
		return "normal"
	case abs.LessThanOrEqual(decimal.NewFromInt(5)):
		return "advertencia"
	default:
		return "critico"
	}
}

func saldoArrastrado(rec *dto.RecomendacionApertura) *decimal.Decimal {
	if rec.SinHistorial {
		return nil
	}
	m := rec.Monto
	return &m
}

// notaContinuidad records the signed gap between what was declared at open
// and what the previous close left in the drawer.
func notaContinuidad(rec *dto.RecomendacionApertura, declarado decimal.Decimal) string {
	if rec.SinHistorial {
		return fmt.Sprintf("Continuidad: sin historial, declarado %s, diferencia %s",
			declarado.StringFixed(2), firmado(declarado))
	}
	return fmt.Sprintf("Continuidad: recomendado %s, declarado %s, diferencia %s",
		rec.Monto.StringFixed(2), declarado.StringFixed(2), firmado(declarado.Sub(rec.Monto)))
}

func firmado(d decimal.Decimal) string {
	if d.IsPositive() {
		return "+" + d.StringFixed(2)
	}
	return d.StringFixed(2)
}

func appendNota(obs *string, nota string) *string {
	if obs == nil || *obs == "" {
		return &nota
	}
	out := *obs + "\n" + nota
	return &out
}

func (s *cajaService) publicar(ctx context.Context, tipo string, sesionID uuid.UUID, movID *uuid.UUID, monto *decimal.Decimal, detalle string) {
	ev := dto.EventoCaja{
		Tipo:         tipo,
		SesionCajaID: sesionID.String(),
		Monto:        monto,
		Detalle:      detalle,
		OcurridoEn:   time.Now().UTC().Format(time.RFC3339),
	}
	if movID != nil {
		id := movID.String()
		ev.MovimientoID = &id
	}
	s.notif.Publicar(ctx, ev)
}

func movimientoResponse(m *model.MovimientoCaja) dto.MovimientoResponse {
	r := dto.MovimientoResponse{
		ID:           m.ID.String(),
		SesionCajaID: m.SesionCajaID.String(),
		Tipo:         m.Tipo,
		MetodoPago:   m.MetodoPago,
		Monto:        m.Monto,
		Descripcion:  m.Descripcion,
		UsuarioID:    m.UsuarioID.String(),
		CreatedAt:    m.CreatedAt.UTC().Format(time.RFC3339),
	}
	if m.ReferenciaID != nil {
		ref := m.ReferenciaID.String()
		r.ReferenciaID = &ref
	}
	return r
}

// buildReporte renders a session. With movs == nil only the cash totals are
// filled; the per-method breakdown needs the ledger.
func buildReporte(sesion *model.SesionCaja, movs []model.MovimientoCaja) dto.ReporteCajaResponse {
	esperado := dto.MontosPorMetodo{Efectivo: sesion.EfectivoTeorico()}
	if movs != nil {
		esperado.Efectivo = RecalcularTotales(sesion, movs).EfectivoTeorico()
		for i := range movs {
			m := &movs[i]
			monto := m.Monto.Abs()
			if m.Tipo == model.TipoEgreso {
				monto = monto.Neg()
			}
			switch m.MetodoPago {
			case model.MetodoDebito:
				esperado.Debito = esperado.Debito.Add(monto)
			case model.MetodoCredito:
				esperado.Credito = esperado.Credito.Add(monto)
			case model.MetodoTransferencia:
				esperado.Transferencia = esperado.Transferencia.Add(monto)
			}
		}
	}
	esperado.Total = esperado.Efectivo.Add(esperado.Debito).Add(esperado.Credito).Add(esperado.Transferencia)

	r := dto.ReporteCajaResponse{
		SesionCajaID:       sesion.ID.String(),
		UsuarioID:          sesion.UsuarioID.String(),
		MontoInicial:       sesion.MontoInicial,
		SaldoArrastrado:    sesion.SaldoArrastrado,
		EfectivoTeorico:    sesion.EfectivoTeorico(),
		CantidadVentas:     sesion.CantidadVentas,
		MontoEsperado:      esperado,
		MontoDeclarado:     sesion.MontoDeclarado,
		AperturaAutomatica: sesion.AperturaAutomatica,
		Estado:             sesion.Estado,
		Observaciones:      sesion.Observaciones,
		OpenedAt:           sesion.OpenedAt.UTC().Format(time.RFC3339),
	}
	if sesion.Desvio != nil && sesion.DesvioPct != nil && sesion.ClasificacionDesvio != nil {
		r.Desvio = &dto.DesvioResponse{
			Monto:         *sesion.Desvio,
			Porcentaje:    *sesion.DesvioPct,
			Clasificacion: *sesion.ClasificacionDesvio,
		}
	}
	if sesion.ClosedAt != nil {
		t := sesion.ClosedAt.UTC().Format(time.RFC3339)
		r.ClosedAt = &t
	}
	return r
}
