//go:build integration

package postgres_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/jhoicas/inventario-mrp/internal/application/catalog"
	"github.com/jhoicas/inventario-mrp/internal/application/ledger"
	"github.com/jhoicas/inventario-mrp/internal/application/mrp"
	"github.com/jhoicas/inventario-mrp/internal/application/procurement"
	"github.com/jhoicas/inventario-mrp/internal/domain"
	"github.com/jhoicas/inventario-mrp/internal/domain/entity"
	"github.com/jhoicas/inventario-mrp/internal/infrastructure/postgres"
	"github.com/jhoicas/inventario-mrp/pkg/config"
)

// Ejecutar con: go test -tags integration ./internal/infrastructure/postgres/...

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func setupPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		tcPostgres.WithDatabase("mrp_test"),
		tcPostgres.WithUsername("mrp"),
		tcPostgres.WithPassword("mrp"),
		tcPostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	dsn, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := postgres.NewPool(ctx, config.DBConfig{DatabaseURL: dsn, MaxConns: 30})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, postgres.Migrate(ctx, pool))
	require.NoError(t, postgres.Migrate(ctx, pool), "la migración es idempotente")
	return pool
}

func newLedgerUC(pool *pgxpool.Pool) *ledger.UseCase {
	cfg := ledger.DefaultConfig()
	cfg.MaxRetries = 10
	cfg.RetryBackoff = 5 * time.Millisecond
	return ledger.NewUseCase(postgres.NewTxRunner(pool), postgres.NewLedgerRepository(pool), postgres.NewPostingRepository(pool), cfg, zerolog.Nop())
}

func TestLedger_ConcurrenciaPrimeraEntrada(t *testing.T) {
	pool := setupPool(t)
	ctx := context.Background()
	uc := newLedgerUC(pool)

	const n = 100
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := uc.PostEntry(ctx, ledger.EntryInput{TenantID: "t1", Material: "X", Warehouse: "W1", Unit: "kg", Quantity: d("1")})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	list, err := uc.ListStatus(ctx, "t1", "", "")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].TotalEntered.Equal(d("100")), "total %s", list[0].TotalEntered)
	assert.Equal(t, int64(n), list[0].Version)
}

func TestLedger_SalidasYReconstruccion(t *testing.T) {
	pool := setupPool(t)
	ctx := context.Background()
	uc := newLedgerUC(pool)

	crit := d("30")
	_, err := uc.PostEntry(ctx, ledger.EntryInput{TenantID: "t1", Material: "X", Warehouse: "W1", Unit: "kg", Quantity: d("100"), CriticalLevel: &crit})
	require.NoError(t, err)
	l, err := uc.PostOutput(ctx, ledger.OutputInput{TenantID: "t1", Material: "X", Warehouse: "W1", Quantity: d("60")})
	require.NoError(t, err)
	assert.Equal(t, entity.LedgerStatusOrange, l.Status)

	_, err = uc.PostOutput(ctx, ledger.OutputInput{TenantID: "t1", Material: "X", Warehouse: "W1", Quantity: d("41")})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	_, err = uc.PostOutput(ctx, ledger.OutputInput{TenantID: "t1", Material: "X", Warehouse: "W9", Quantity: d("1")})
	assert.ErrorIs(t, err, domain.ErrAggregateNotFound)

	n, err := uc.Rebuild(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	list, err := uc.ListStatus(ctx, "t1", "W1", "X")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].CurrentQuantity.Equal(d("40")))
	assert.True(t, list[0].CriticalLevel.Equal(d("30")))

	hist, err := uc.ListPostings(ctx, entity.LedgerKey{TenantID: "t1", Material: "X", Warehouse: "W1"}, 10, 0)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, entity.PostingOutput, hist[0].Kind)
	assert.False(t, hist[0].CriticalLevel.Valid)
	assert.True(t, hist[1].CriticalLevel.Valid)
}

func TestMRPYAbastecimiento(t *testing.T) {
	pool := setupPool(t)
	ctx := context.Background()

	_, err := pool.Exec(ctx, `INSERT INTO sales_orders (id, tenant_id) VALUES ('SO-1', 't1')`)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `INSERT INTO sales_order_lines (order_id, line_no, product, quantity) VALUES ('SO-1', 1, 'Product A', 5)`)
	require.NoError(t, err)

	cat := catalog.NewUseCase(postgres.NewBOMRepository(pool), zerolog.Nop())
	_, err = cat.SaveBOM(ctx, &entity.BOM{TenantID: "t1", Product: "Product A", Lines: []entity.BOMLine{
		{Material: "Material X", QuantityPerUnit: d("2"), Unit: "kg", Kind: entity.ComponentRaw, UnitCost: decimal.NewNullDecimal(d("3"))},
		{Material: "Material Y", QuantityPerUnit: d("1"), Unit: "kg", Kind: entity.ComponentRaw},
	}})
	require.NoError(t, err)

	led := newLedgerUC(pool)
	for m, q := range map[string]string{"Material X": "3", "Material Y": "10"} {
		_, err := led.PostEntry(ctx, ledger.EntryInput{TenantID: "t1", Material: m, Warehouse: "W1", Unit: "kg", Quantity: d(q)})
		require.NoError(t, err)
	}

	run := mrp.NewUseCase(postgres.NewOrderRepository(pool), postgres.NewBOMRepository(pool), postgres.NewLedgerRepository(pool), zerolog.Nop())
	rep, err := run.Run(ctx, "t1", nil)
	require.NoError(t, err)
	require.Len(t, rep.Rows, 1)
	assert.True(t, rep.Rows[0].Deficit.Equal(d("7")))

	proc := procurement.NewUseCase(postgres.NewProcurementRepository(pool), postgres.NewNumberer(pool), procurement.DefaultConfig(), zerolog.Nop())
	res, err := proc.CreatePurchaseOrders(ctx, procurement.PurchaseOrderInput{
		TenantID:  "t1",
		Rows:      rep.Rows,
		Suppliers: procurement.SupplierInput{DefaultSupplier: "S1"},
	})
	require.NoError(t, err)
	require.Len(t, res.DocumentIDs, 1)

	po, err := postgres.NewProcurementRepository(pool).GetPurchaseOrder(ctx, "t1", res.DocumentIDs[0])
	require.NoError(t, err)
	assert.Equal(t, "PO-000001", po.Number)
	assert.True(t, po.Total.Equal(d("21")))

	require.NoError(t, proc.UpdateStatus(ctx, "t1", entity.DocumentPurchaseOrder, po.ID, entity.StatusIssued))
	gr, err := proc.CreateGoodsReceipt(ctx, "t1", po.ID)
	require.NoError(t, err)
	require.NoError(t, proc.UpdateStatus(ctx, "t1", entity.DocumentGoodsReceipt, gr, entity.StatusAccepted))
}

func TestAbastecimiento_LineasSinRedondeoYPorTenant(t *testing.T) {
	ctx := context.Background()
	pool := setupPool(t)

	repo := postgres.NewProcurementRepository(pool)
	proc := procurement.NewUseCase(repo, postgres.NewNumberer(pool), procurement.DefaultConfig(), zerolog.Nop())
	res, err := proc.CreatePurchaseOrders(ctx, procurement.PurchaseOrderInput{
		TenantID: "t1",
		Rows: []entity.ShortageRow{{
			Material: "M1", Unit: "kg", Kind: entity.ComponentRaw,
			Required: d("0.12345678"), Available: decimal.Zero, Deficit: d("0.12345678"),
		}},
		Suppliers: procurement.SupplierInput{DefaultSupplier: "S1"},
		Prices:    map[string]decimal.Decimal{"M1": d("1.1")},
	})
	require.NoError(t, err)
	require.Len(t, res.DocumentIDs, 1)

	po, err := repo.GetPurchaseOrder(ctx, "t1", res.DocumentIDs[0])
	require.NoError(t, err)
	require.Len(t, po.Lines, 1)
	assert.True(t, po.Lines[0].Quantity.Equal(d("0.12345678")), "cantidad guardada: %s", po.Lines[0].Quantity)
	assert.True(t, po.Lines[0].Amount.Equal(d("0.135802458")))
	assert.True(t, po.Total.Equal(d("0.135802458")))

	_, err = repo.GetPurchaseOrder(ctx, "t2", res.DocumentIDs[0])
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLedger_ReconstruccionConOtroRatio(t *testing.T) {
	ctx := context.Background()
	pool := setupPool(t)

	uc := newLedgerUC(pool)
	_, err := uc.PostEntry(ctx, ledger.EntryInput{TenantID: "t1", Material: "X", Warehouse: "W1", Unit: "kg", Quantity: d("100")})
	require.NoError(t, err)

	cfg := ledger.DefaultConfig()
	cfg.CriticalRatio = d("0.5")
	other := ledger.NewUseCase(postgres.NewTxRunner(pool), postgres.NewLedgerRepository(pool), postgres.NewPostingRepository(pool), cfg, zerolog.Nop())
	_, err = other.Rebuild(ctx, "t1")
	require.NoError(t, err)

	list, err := other.ListStatus(ctx, "t1", "", "")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].CriticalLevel.Equal(d("20")))
}
