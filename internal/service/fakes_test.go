package service_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"cajapos/internal/dto"
	"cajapos/internal/model"
	"cajapos/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ── In-memory CajaRepository ─────────────────────────────────────────────────
// Sessions are stored by value so callers never alias repository state, the
// way rows behave in a real database. Transactions are serialized and roll
// back to a snapshot when fn returns an error.

type memCajaRepo struct {
	txMu sync.Mutex

	mu          sync.Mutex
	sesiones    map[uuid.UUID]model.SesionCaja
	movimientos []model.MovimientoCaja

	// Failure injection.
	errCreateMovimiento error
	errUpdateAgregados  error
	errFind             error
}

func newMemCajaRepo() *memCajaRepo {
	return &memCajaRepo{sesiones: make(map[uuid.UUID]model.SesionCaja)}
}

func (r *memCajaRepo) Transaction(_ context.Context, fn func(tx repository.CajaRepository) error) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()

	r.mu.Lock()
	sesiones := make(map[uuid.UUID]model.SesionCaja, len(r.sesiones))
	for k, v := range r.sesiones {
		sesiones[k] = v
	}
	movs := append([]model.MovimientoCaja(nil), r.movimientos...)
	r.mu.Unlock()

	if err := fn(r); err != nil {
		r.mu.Lock()
		r.sesiones = sesiones
		r.movimientos = movs
		r.mu.Unlock()
		return err
	}
	return nil
}

func (r *memCajaRepo) CreateSesion(_ context.Context, s *model.SesionCaja) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.Estado == model.EstadoAbierta {
		for _, existing := range r.sesiones {
			if existing.Estado == model.EstadoAbierta {
				return gorm.ErrDuplicatedKey
			}
		}
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.OpenedAt.IsZero() {
		s.OpenedAt = time.Now().UTC()
	}
	r.sesiones[s.ID] = *s
	return nil
}

func (r *memCajaRepo) FindSesionAbierta(_ context.Context) (*model.SesionCaja, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.errFind != nil {
		return nil, r.errFind
	}
	for _, s := range r.sesiones {
		if s.Estado == model.EstadoAbierta {
			return &s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memCajaRepo) FindSesionByID(_ context.Context, id uuid.UUID) (*model.SesionCaja, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.errFind != nil {
		return nil, r.errFind
	}
	s, ok := r.sesiones[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &s, nil
}

func (r *memCajaRepo) LockSesion(ctx context.Context, id uuid.UUID) (*model.SesionCaja, error) {
	return r.FindSesionByID(ctx, id)
}

func (r *memCajaRepo) FindUltimaSesionCerrada(_ context.Context) (*model.SesionCaja, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var last *model.SesionCaja
	for _, s := range r.sesiones {
		if s.Estado != model.EstadoCerrada || s.ClosedAt == nil {
			continue
		}
		if last == nil || s.ClosedAt.After(*last.ClosedAt) {
			s := s
			last = &s
		}
	}
	if last == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return last, nil
}

func (r *memCajaRepo) UpdateSesion(_ context.Context, s *model.SesionCaja) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sesiones[s.ID] = *s
	return nil
}

func (r *memCajaRepo) UpdateAgregados(_ context.Context, s *model.SesionCaja) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.errUpdateAgregados != nil {
		return r.errUpdateAgregados
	}
	stored, ok := r.sesiones[s.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.IngresosEfectivo = s.IngresosEfectivo
	stored.EgresosEfectivo = s.EgresosEfectivo
	stored.VentasEfectivo = s.VentasEfectivo
	stored.CantidadVentas = s.CantidadVentas
	r.sesiones[s.ID] = stored
	return nil
}

func (r *memCajaRepo) ListSesiones(_ context.Context, page, limit int) ([]model.SesionCaja, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]model.SesionCaja, 0, len(r.sesiones))
	for _, s := range r.sesiones {
		all = append(all, s)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].OpenedAt.After(all[j].OpenedAt) })
	total := int64(len(all))
	start := (page - 1) * limit
	if start >= len(all) {
		return nil, total, nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (r *memCajaRepo) DeleteSesion(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sesiones[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.sesiones, id)
	kept := r.movimientos[:0]
	for _, m := range r.movimientos {
		if m.SesionCajaID != id {
			kept = append(kept, m)
		}
	}
	r.movimientos = kept
	return nil
}

func (r *memCajaRepo) CreateMovimiento(_ context.Context, m *model.MovimientoCaja) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.errCreateMovimiento != nil {
		return r.errCreateMovimiento
	}
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.CreatedAt = time.Now().UTC()
	r.movimientos = append(r.movimientos, *m)
	return nil
}

func (r *memCajaRepo) ListMovimientos(_ context.Context, sesionID uuid.UUID) ([]model.MovimientoCaja, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.MovimientoCaja
	for _, m := range r.movimientos {
		if m.SesionCajaID == sesionID {
			out = append(out, m)
		}
	}
	return out, nil
}

// corromperAgregados bumps the stored cash sales without a matching movement.
func (r *memCajaRepo) corromperAgregados(id uuid.UUID, extra decimal.Decimal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.sesiones[id]
	s.VentasEfectivo = s.VentasEfectivo.Add(extra)
	r.sesiones[id] = s
}

// editarAgregados mutates the stored row directly, bypassing the ledger.
func (r *memCajaRepo) editarAgregados(id uuid.UUID, fn func(*model.SesionCaja)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.sesiones[id]
	fn(&s)
	r.sesiones[id] = s
}

func (r *memCajaRepo) sesion(id uuid.UUID) model.SesionCaja {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sesiones[id]
}

func (r *memCajaRepo) abiertas() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.sesiones {
		if s.Estado == model.EstadoAbierta {
			n++
		}
	}
	return n
}

func (r *memCajaRepo) totalMovimientos() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.movimientos)
}

var _ repository.CajaRepository = (*memCajaRepo)(nil)

// ── In-memory SecuenciaRepository ────────────────────────────────────────────

type memSecuenciaRepo struct {
	mu      sync.Mutex
	valores map[string]int64
	err     error
}

func newMemSecuenciaRepo() *memSecuenciaRepo {
	return &memSecuenciaRepo{valores: make(map[string]int64)}
}

func (r *memSecuenciaRepo) Next(_ context.Context, nombre string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return 0, r.err
	}
	r.valores[nombre]++
	return r.valores[nombre], nil
}

func (r *memSecuenciaRepo) Current(_ context.Context, nombre string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.valores[nombre], nil
}

var _ repository.SecuenciaRepository = (*memSecuenciaRepo)(nil)

// ── Recording Notificador ────────────────────────────────────────────────────

type eventosRecorder struct {
	mu      sync.Mutex
	eventos []dto.EventoCaja
}

func (n *eventosRecorder) Publicar(_ context.Context, ev dto.EventoCaja) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.eventos = append(n.eventos, ev)
}

func (n *eventosRecorder) tipos() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.eventos))
	for _, ev := range n.eventos {
		out = append(out, ev.Tipo)
	}
	return out
}
