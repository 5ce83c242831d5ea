package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"cajapos/internal/dto"
	"cajapos/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

type cajaStub struct {
	service.CajaService
	activa *dto.ReporteCajaResponse
	err    error
}

func (s *cajaStub) GetActiva(context.Context) (*dto.ReporteCajaResponse, error) {
	return s.activa, s.err
}

type conciliacionStub struct {
	service.ConciliacionService
	err      error
	llamadas atomic.Int32
}

func (s *conciliacionStub) DetectarDeriva(_ context.Context, id uuid.UUID) (*dto.DerivaResponse, error) {
	s.llamadas.Add(1)
	return &dto.DerivaResponse{SesionCajaID: id.String(), Consistente: s.err == nil}, s.err
}

func TestAuditarSesionActiva(t *testing.T) {
	activa := &dto.ReporteCajaResponse{SesionCajaID: uuid.NewString()}
	deriva := &service.DerivaError{
		SesionCajaID: uuid.New(),
		Almacenado:   decimal.NewFromInt(1340),
		Recalculado:  decimal.NewFromInt(1300),
	}

	cases := []struct {
		name         string
		caja         *cajaStub
		conciliacion *conciliacionStub
		want         bool
		llamadas     int32
	}{
		{"sin sesion abierta", &cajaStub{}, &conciliacionStub{}, false, 0},
		{"error leyendo sesion", &cajaStub{err: errors.New("db down")}, &conciliacionStub{}, false, 0},
		{"id invalido", &cajaStub{activa: &dto.ReporteCajaResponse{SesionCajaID: "x"}}, &conciliacionStub{}, false, 0},
		{"consistente", &cajaStub{activa: activa}, &conciliacionStub{}, false, 1},
		{"con deriva", &cajaStub{activa: activa}, &conciliacionStub{err: deriva}, true, 1},
		{"fallo de conciliacion", &cajaStub{activa: activa}, &conciliacionStub{err: errors.New("timeout")}, false, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := auditarSesionActiva(context.Background(), AuditoriaCronConfig{
				Caja:         tc.caja,
				Conciliacion: tc.conciliacion,
			})
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.llamadas, tc.conciliacion.llamadas.Load())
		})
	}
}

func TestStartAuditoriaCron(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	conc := &conciliacionStub{}
	StartAuditoriaCron(ctx, AuditoriaCronConfig{
		Caja:         &cajaStub{activa: &dto.ReporteCajaResponse{SesionCajaID: uuid.NewString()}},
		Conciliacion: conc,
		Intervalo:    5 * time.Millisecond,
	})

	assert.Eventually(t, func() bool { return conc.llamadas.Load() >= 2 }, time.Second, 5*time.Millisecond)

	cancel()
	time.Sleep(20 * time.Millisecond)
	despues := conc.llamadas.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, despues, conc.llamadas.Load())
}
