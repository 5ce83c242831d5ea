package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"cajapos/internal/repository"
)

const (
	SecuenciaVentas = "ventas"

	prefijoVenta = "V-"
	anchoVenta   = 3
)

type SecuenciaService interface {
	// Siguiente returns the next value of the named counter. A failed call may
	// still have consumed a value; callers must tolerate gaps.
	Siguiente(ctx context.Context, nombre string) (int64, error)
	// Consultar returns the current value without incrementing it.
	Consultar(ctx context.Context, nombre string) (int64, error)
}

type secuenciaService struct {
	repo repository.SecuenciaRepository
}

func NewSecuenciaService(repo repository.SecuenciaRepository) SecuenciaService {
	return &secuenciaService{repo: repo}
}

func (s *secuenciaService) Siguiente(ctx context.Context, nombre string) (int64, error) {
	if strings.TrimSpace(nombre) == "" {
		return 0, errors.New("nombre de secuencia vacío")
	}
	n, err := s.repo.Next(ctx, nombre)
	if err != nil {
		if errors.Is(err, repository.ErrInicializacionSecuencia) {
			err = fmt.Errorf("%w: %w", ErrSecuenciaInicializacion, err)
		}
		return 0, storageErr(opSecuencia, err)
	}
	return n, nil
}

func (s *secuenciaService) Consultar(ctx context.Context, nombre string) (int64, error) {
	n, err := s.repo.Current(ctx, nombre)
	if err != nil {
		return 0, storageErr("secuencia.consultar", err)
	}
	return n, nil
}

// FormatearIDVenta renders a sale number as "V-" plus at least three digits.
func FormatearIDVenta(n int64) string {
	return fmt.Sprintf("%s%0*d", prefijoVenta, anchoVenta, n)
}

// ParsearIDVenta is the strict inverse of FormatearIDVenta over issued
// numbers. It rejects V-000, since sequences start at 1, and any input
// FormatearIDVenta could not have produced.
func ParsearIDVenta(s string) (int64, bool) {
	digits, ok := strings.CutPrefix(s, prefijoVenta)
	if !ok || len(digits) < anchoVenta {
		return 0, false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	// Wider than the pad width means no leading zero was added.
	if len(digits) > anchoVenta && digits[0] == '0' {
		return 0, false
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}
