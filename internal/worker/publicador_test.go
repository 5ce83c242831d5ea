package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"cajapos/internal/dto"
	"cajapos/internal/infra"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLista keeps Redis lists in memory and counts LPush calls. When err is
// set every call fails.
type fakeLista struct {
	mu     sync.Mutex
	listas map[string][][]byte
	err    error
	pushes int
}

func newFakeLista() *fakeLista { return &fakeLista{listas: make(map[string][][]byte)} }

func (f *fakeLista) LPush(_ context.Context, key string, values ...interface{}) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushes++
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	for _, v := range values {
		switch b := v.(type) {
		case []byte:
			f.listas[key] = append([][]byte{b}, f.listas[key]...)
		case string:
			f.listas[key] = append([][]byte{[]byte(b)}, f.listas[key]...)
		}
	}
	return redis.NewIntResult(int64(len(f.listas[key])), nil)
}

func (f *fakeLista) LLen(_ context.Context, key string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	return redis.NewIntResult(int64(len(f.listas[key])), nil)
}

func (f *fakeLista) LRange(_ context.Context, key string, _, _ int64) *redis.StringSliceCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return redis.NewStringSliceResult(nil, f.err)
	}
	out := make([]string, 0, len(f.listas[key]))
	for _, b := range f.listas[key] {
		out = append(out, string(b))
	}
	return redis.NewStringSliceResult(out, nil)
}

// LRem with count 0 removes every element equal to value.
func (f *fakeLista) LRem(_ context.Context, key string, _ int64, value interface{}) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	want, _ := value.(string)
	var (
		kept    [][]byte
		removed int64
	)
	for _, b := range f.listas[key] {
		if string(b) == want {
			removed++
			continue
		}
		kept = append(kept, b)
	}
	f.listas[key] = kept
	return redis.NewIntResult(removed, nil)
}

func (f *fakeLista) items(key string) [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.listas[key]...)
}

func TestPublicador_EncolaEvento(t *testing.T) {
	rdb := newFakeLista()
	pub := NewPublicador(rdb, nil)
	monto := decimal.NewFromInt(500)

	pub.Publicar(context.Background(), dto.EventoCaja{
		Tipo:         dto.EventoMovimientoRegistrado,
		SesionCajaID: "s-1",
		Monto:        &monto,
		Detalle:      "venta/efectivo",
	})

	items := rdb.items(QueueEventos)
	require.Len(t, items, 1)

	var job Job
	require.NoError(t, json.Unmarshal(items[0], &job))
	assert.Equal(t, dto.EventoMovimientoRegistrado, job.Type)

	var ev dto.EventoCaja
	require.NoError(t, json.Unmarshal(job.Payload, &ev))
	assert.Equal(t, "s-1", ev.SesionCajaID)
	require.NotNil(t, ev.Monto)
	assert.True(t, monto.Equal(*ev.Monto))

	assert.Empty(t, rdb.items(QueueAuditoriaDeriva))
}

func TestPublicador_DerivaVaAAuditoria(t *testing.T) {
	rdb := newFakeLista()
	pub := NewPublicador(rdb, nil)
	deriva := decimal.NewFromInt(40)

	pub.Publicar(context.Background(), dto.EventoCaja{
		Tipo:         dto.EventoDerivaDetectada,
		SesionCajaID: "s-2",
		Monto:        &deriva,
		Detalle:      "detectada al cierre",
	})

	assert.Len(t, rdb.items(QueueEventos), 1)
	items := rdb.items(QueueAuditoriaDeriva)
	require.Len(t, items, 1)

	var entrada EntradaDeriva
	require.NoError(t, json.Unmarshal(items[0], &entrada))
	assert.Equal(t, "s-2", entrada.SesionCajaID)
	assert.Equal(t, "40.00", entrada.Deriva)
	assert.NotEmpty(t, entrada.DetectadaEn)

	n, err := DerivasPendientes(context.Background(), rdb)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestPublicador_RedisCaidoAbreCircuito(t *testing.T) {
	rdb := newFakeLista()
	rdb.err = errors.New("dial tcp: connection refused")
	cb := infra.NewCircuitBreaker(infra.CircuitBreakerConfig{FailureThreshold: 3})
	pub := NewPublicador(rdb, cb)

	for i := 0; i < 10; i++ {
		pub.Publicar(context.Background(), dto.EventoCaja{Tipo: dto.EventoSesionAbierta, SesionCajaID: "s-3"})
	}

	assert.Equal(t, infra.CBOpen, pub.CBState())
	// Once open, events fail fast without reaching Redis.
	assert.Equal(t, 3, rdb.pushes)
}

func TestPublicador_IgnoraCancelacionDelLlamador(t *testing.T) {
	rdb := newFakeLista()
	pub := NewPublicador(rdb, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pub.Publicar(ctx, dto.EventoCaja{Tipo: dto.EventoSesionCerrada, SesionCajaID: "s-4"})

	assert.Len(t, rdb.items(QueueEventos), 1)
}

func TestPublicador_ReparacionResuelveDerivas(t *testing.T) {
	rdb := newFakeLista()
	pub := NewPublicador(rdb, nil)
	ctx := context.Background()
	deriva := decimal.NewFromInt(25)

	pub.Publicar(ctx, dto.EventoCaja{Tipo: dto.EventoDerivaDetectada, SesionCajaID: "s-5", Monto: &deriva})
	pub.Publicar(ctx, dto.EventoCaja{Tipo: dto.EventoDerivaDetectada, SesionCajaID: "s-5", Monto: &deriva})
	pub.Publicar(ctx, dto.EventoCaja{Tipo: dto.EventoDerivaDetectada, SesionCajaID: "s-6", Monto: &deriva})
	require.Len(t, rdb.items(QueueAuditoriaDeriva), 3)

	pub.Publicar(ctx, dto.EventoCaja{Tipo: dto.EventoAgregadosReparados, SesionCajaID: "s-5", Monto: &deriva})

	items := rdb.items(QueueAuditoriaDeriva)
	require.Len(t, items, 1)
	var entrada EntradaDeriva
	require.NoError(t, json.Unmarshal(items[0], &entrada))
	assert.Equal(t, "s-6", entrada.SesionCajaID)
}

func TestResolverDerivas_IgnoraEntradasIlegibles(t *testing.T) {
	rdb := newFakeLista()
	ctx := context.Background()
	require.NoError(t, rdb.LPush(ctx, QueueAuditoriaDeriva, "no-json").Err())
	require.NoError(t, RegistrarDeriva(ctx, rdb, dto.EventoCaja{SesionCajaID: "s-7"}))

	n, err := ResolverDerivas(ctx, rdb, "s-7")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Len(t, rdb.items(QueueAuditoriaDeriva), 1)
}

func TestPublicador_CircuitoAbiertoOmiteAuditoria(t *testing.T) {
	rdb := newFakeLista()
	rdb.err = errors.New("dial tcp: connection refused")
	cb := infra.NewCircuitBreaker(infra.CircuitBreakerConfig{FailureThreshold: 1})
	pub := NewPublicador(rdb, cb)
	deriva := decimal.NewFromInt(10)

	// The event push fails and opens the circuit; the audit push is rejected
	// by the breaker without reaching Redis.
	pub.Publicar(context.Background(), dto.EventoCaja{Tipo: dto.EventoDerivaDetectada, SesionCajaID: "s-8", Monto: &deriva})
	assert.Equal(t, 1, rdb.pushes)

	pub.Publicar(context.Background(), dto.EventoCaja{Tipo: dto.EventoDerivaDetectada, SesionCajaID: "s-8", Monto: &deriva})
	assert.Equal(t, 1, rdb.pushes)
	assert.Equal(t, infra.CBOpen, pub.CBState())
}
