package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cajapos/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrInicializacionSecuencia is wrapped when the counter row cannot be created.
var ErrInicializacionSecuencia = errors.New("no se pudo inicializar la secuencia")

type SecuenciaRepository interface {
	// Next increments the named counter and returns the new value. The row is
	// created with value 0 on first use.
	Next(ctx context.Context, nombre string) (int64, error)
	// Current returns the last issued value, 0 if the counter does not exist.
	Current(ctx context.Context, nombre string) (int64, error)
}

type secuenciaRepo struct{ db *gorm.DB }

func NewSecuenciaRepository(db *gorm.DB) SecuenciaRepository { return &secuenciaRepo{db: db} }

func (r *secuenciaRepo) Next(ctx context.Context, nombre string) (int64, error) {
	var valor int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ins := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&model.Secuencia{Nombre: nombre})
		if ins.Error != nil {
			return fmt.Errorf("%w %q: %v", ErrInicializacionSecuencia, nombre, ins.Error)
		}

		// The UPDATE takes the row lock; concurrent callers on the same name
		// queue behind it until this transaction commits.
		res := tx.Model(&model.Secuencia{}).
			Where("nombre = ?", nombre).
			Updates(map[string]interface{}{
				"valor":      gorm.Expr("valor + 1"),
				"updated_at": time.Now().UTC(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return fmt.Errorf("%w %q: fila ausente", ErrInicializacionSecuencia, nombre)
		}
		return tx.Model(&model.Secuencia{}).
			Select("valor").
			Where("nombre = ?", nombre).
			Scan(&valor).Error
	})
	return valor, err
}

func (r *secuenciaRepo) Current(ctx context.Context, nombre string) (int64, error) {
	var s model.Secuencia
	err := r.db.WithContext(ctx).Where("nombre = ?", nombre).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return s.Valor, nil
}
