// cmd/conciliar/main.go: checks and repairs the aggregates of cash sessions.
// Uso:
//
//	go run ./cmd/conciliar -sesion <uuid>            # report drift
//	go run ./cmd/conciliar -sesion <uuid> -reparar   # overwrite aggregates
//	go run ./cmd/conciliar -activa                   # check the open session
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"cajapos/internal/config"
	"cajapos/internal/infra"
	"cajapos/internal/repository"
	"cajapos/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	sesionFlag := flag.String("sesion", "", "ID de la sesión de caja")
	activa := flag.Bool("activa", false, "usar la sesión abierta")
	reparar := flag.Bool("reparar", false, "sobrescribir agregados con el recálculo")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	db, err := infra.NewDatabase(cfg.DatabaseURL, infra.DBOptions{MaxOpenConns: 2, MaxIdleConns: 1})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	repo := repository.NewCajaRepository(db)
	cajaSvc := service.NewCajaService(repo, service.NewSecuenciaService(repository.NewSecuenciaRepository(db)), nil, cfg.MontoAutomatico())
	conciliacion := service.NewConciliacionService(repo, nil)

	id, err := resolverSesion(ctx, cajaSvc, *sesionFlag, *activa)
	if err != nil {
		log.Fatal().Err(err).Msg("sesión no válida")
	}

	resp, err := conciliacion.DetectarDeriva(ctx, id)
	var derr *service.DerivaError
	if err != nil && !errors.As(err, &derr) {
		log.Fatal().Err(err).Msg("no se pudo recalcular")
	}
	fmt.Printf("sesión %s: almacenado=%s recalculado=%s deriva=%s\n",
		id, resp.EfectivoAlmacen.StringFixed(2), resp.EfectivoRecalculo.StringFixed(2), resp.Deriva.StringFixed(2))

	if resp.Consistente {
		fmt.Println("sin deriva")
		return
	}
	d := resp.Diferencias
	fmt.Printf("diferencias: ingresos=%s egresos=%s ventas=%s cantidad_ventas=%+d\n",
		d.IngresosEfectivo.StringFixed(2), d.EgresosEfectivo.StringFixed(2), d.VentasEfectivo.StringFixed(2), d.CantidadVentas)
	if !*reparar {
		fmt.Println("deriva detectada; ejecute con -reparar para corregir")
		os.Exit(2)
	}
	tot, err := conciliacion.Reparar(ctx, id)
	if err != nil {
		log.Fatal().Err(err).Msg("reparación fallida")
	}
	fmt.Printf("reparada: efectivo teórico=%s\n", tot.EfectivoTeorico.StringFixed(2))
}

func resolverSesion(ctx context.Context, caja service.CajaService, raw string, activa bool) (uuid.UUID, error) {
	if activa {
		r, err := caja.GetActiva(ctx)
		if err != nil {
			return uuid.Nil, err
		}
		if r == nil {
			return uuid.Nil, service.ErrCajaNoAbierta
		}
		return uuid.Parse(r.SesionCajaID)
	}
	if raw == "" {
		return uuid.Nil, errors.New("indique -sesion o -activa")
	}
	return uuid.Parse(raw)
}
