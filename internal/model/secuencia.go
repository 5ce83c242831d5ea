package model

import "time"

// Secuencia stores the last issued value of a named monotonic counter.
type Secuencia struct {
	Nombre    string `gorm:"primaryKey;size:64"`
	Valor     int64  `gorm:"not null;default:0"`
	UpdatedAt time.Time
}

func (Secuencia) TableName() string { return "secuencias" }
