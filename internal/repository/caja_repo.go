package repository

import (
	"context"

	"cajapos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CajaRepository persists cash sessions and their movement ledger.
// Movements have no Update method: the ledger is append-only.
type CajaRepository interface {
	// Transaction runs fn inside a single database transaction. The repository
	// passed to fn is bound to that transaction; returning an error rolls back.
	Transaction(ctx context.Context, fn func(tx CajaRepository) error) error

	CreateSesion(ctx context.Context, s *model.SesionCaja) error
	FindSesionAbierta(ctx context.Context) (*model.SesionCaja, error)
	FindSesionByID(ctx context.Context, id uuid.UUID) (*model.SesionCaja, error)
	// LockSesion reads the session with a row lock held until the transaction ends.
	LockSesion(ctx context.Context, id uuid.UUID) (*model.SesionCaja, error)
	FindUltimaSesionCerrada(ctx context.Context) (*model.SesionCaja, error)
	UpdateSesion(ctx context.Context, s *model.SesionCaja) error
	UpdateAgregados(ctx context.Context, s *model.SesionCaja) error
	ListSesiones(ctx context.Context, page, limit int) ([]model.SesionCaja, int64, error)
	DeleteSesion(ctx context.Context, id uuid.UUID) error

	CreateMovimiento(ctx context.Context, m *model.MovimientoCaja) error
	ListMovimientos(ctx context.Context, sesionCajaID uuid.UUID) ([]model.MovimientoCaja, error)
}

type cajaRepo struct{ db *gorm.DB }

func NewCajaRepository(db *gorm.DB) CajaRepository { return &cajaRepo{db: db} }

func (r *cajaRepo) Transaction(ctx context.Context, fn func(tx CajaRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&cajaRepo{db: tx})
	})
}

// CreateSesion returns gorm.ErrDuplicatedKey when another session is already
// open (requires TranslateError on the gorm config).
func (r *cajaRepo) CreateSesion(ctx context.Context, s *model.SesionCaja) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(s).Error
}

func (r *cajaRepo) FindSesionAbierta(ctx context.Context) (*model.SesionCaja, error) {
	var s model.SesionCaja
	err := r.db.WithContext(ctx).Where("estado = ?", model.EstadoAbierta).First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *cajaRepo) FindSesionByID(ctx context.Context, id uuid.UUID) (*model.SesionCaja, error) {
	var s model.SesionCaja
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *cajaRepo) LockSesion(ctx context.Context, id uuid.UUID) (*model.SesionCaja, error) {
	var s model.SesionCaja
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *cajaRepo) FindUltimaSesionCerrada(ctx context.Context) (*model.SesionCaja, error) {
	var s model.SesionCaja
	err := r.db.WithContext(ctx).
		Where("estado = ?", model.EstadoCerrada).
		Order("closed_at DESC").
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *cajaRepo) UpdateSesion(ctx context.Context, s *model.SesionCaja) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(s).Error
}

func (r *cajaRepo) UpdateAgregados(ctx context.Context, s *model.SesionCaja) error {
	return r.db.WithContext(ctx).Model(&model.SesionCaja{}).
		Where("id = ?", s.ID).
		Updates(map[string]interface{}{
			"ingresos_efectivo": s.IngresosEfectivo,
			"egresos_efectivo":  s.EgresosEfectivo,
			"ventas_efectivo":   s.VentasEfectivo,
			"cantidad_ventas":   s.CantidadVentas,
		}).Error
}

func (r *cajaRepo) ListSesiones(ctx context.Context, page, limit int) ([]model.SesionCaja, int64, error) {
	var sesiones []model.SesionCaja
	var total int64

	q := r.db.WithContext(ctx).Model(&model.SesionCaja{})
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("opened_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&sesiones).Error
	return sesiones, total, err
}

// DeleteSesion removes the session and every movement it owns. Callers run it
// inside Transaction so both deletes commit together.
func (r *cajaRepo) DeleteSesion(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).Where("sesion_caja_id = ?", id).Delete(&model.MovimientoCaja{}).Error; err != nil {
		return err
	}
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.SesionCaja{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *cajaRepo) CreateMovimiento(ctx context.Context, m *model.MovimientoCaja) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *cajaRepo) ListMovimientos(ctx context.Context, sesionCajaID uuid.UUID) ([]model.MovimientoCaja, error) {
	var movs []model.MovimientoCaja
	err := r.db.WithContext(ctx).
		Where("sesion_caja_id = ?", sesionCajaID).
		Order("created_at ASC, id ASC").
		Find(&movs).Error
	return movs, err
}
