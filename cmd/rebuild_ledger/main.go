// rebuild_ledger reconstruye los kardex materializados de uno o varios tenants
// reproduciendo sus entradas y salidas en orden.
//
// Uso: go run ./cmd/rebuild_ledger <tenant_id> [tenant_id...]
// Lee la conexión de DATABASE_URL / DB_* igual que el API.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jhoicas/inventario-mrp/internal/application/ledger"
	"github.com/jhoicas/inventario-mrp/internal/infrastructure/postgres"
	"github.com/jhoicas/inventario-mrp/pkg/config"
	"github.com/jhoicas/inventario-mrp/pkg/logger"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "uso: rebuild_ledger <tenant_id> [tenant_id...]")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Service: "rebuild_ledger"})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()
	if err := postgres.Migrate(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("migración")
	}

	ledgerCfg := ledger.DefaultConfig()
	ledgerCfg.CriticalRatio = cfg.Ledger.CriticalRatio
	uc := ledger.NewUseCase(
		postgres.NewTxRunner(pool),
		postgres.NewLedgerRepository(pool),
		postgres.NewPostingRepository(pool),
		ledgerCfg,
		log.Component("ledger"),
	)

	failed := 0
	for _, tenantID := range os.Args[1:] {
		start := time.Now()
		n, err := uc.Rebuild(ctx, tenantID)
		if err != nil {
			failed++
			log.Error().Err(err).Str("tenant_id", tenantID).Msg("reconstrucción fallida")
			continue
		}
		log.Info().Str("tenant_id", tenantID).Int("ledgers", n).Dur("took", time.Since(start)).Msg("kardex reconstruidos")
	}
	if failed > 0 {
		os.Exit(1)
	}
}
