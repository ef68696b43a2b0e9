package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-mrp/internal/domain"
	"github.com/jhoicas/inventario-mrp/internal/domain/entity"
	"github.com/jhoicas/inventario-mrp/internal/domain/repository"
	"github.com/jhoicas/inventario-mrp/internal/infrastructure/memory"
)

var key = entity.LedgerKey{TenantID: "t1", Material: "X", Warehouse: "W1"}

func newLedger(qty int64) *entity.StockLedger {
	q := decimal.NewFromInt(qty)
	return &entity.StockLedger{LedgerKey: key, Unit: "kg", TotalEntered: q, CurrentQuantity: q, Version: 1}
}

func TestRun_ConfirmaSoloSiNoHayError(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	boom := errors.New("boom")
	err := store.Run(ctx, func(l repository.StockLedgerRepository, p repository.StockPostingRepository) error {
		_, err := l.GetForUpdate(ctx, key)
		require.NoError(t, err)
		require.NoError(t, l.Insert(ctx, newLedger(10)))
		require.NoError(t, p.Append(ctx, &entity.StockPosting{ID: "p1", TenantID: "t1", Material: "X", Warehouse: "W1"}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	list, err := memory.NewLedgerRepository(store).List(ctx, repository.LedgerFilter{TenantID: "t1"})
	require.NoError(t, err)
	assert.Empty(t, list, "rollback descarta el kardex")

	posts, err := memory.NewPostingRepository(store).ListByTenant(ctx, "t1")
	require.NoError(t, err)
	assert.Empty(t, posts, "rollback descarta el posteo")
}

func TestRun_AsignaSeqCreciente(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	for i := 0; i < 3; i++ {
		err := store.Run(ctx, func(l repository.StockLedgerRepository, p repository.StockPostingRepository) error {
			return p.Append(ctx, &entity.StockPosting{ID: "p", TenantID: "t1", Material: "X", Warehouse: "W1"})
		})
		require.NoError(t, err)
	}

	posts, err := memory.NewPostingRepository(store).ListByTenant(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.Equal(t, []int64{1, 2, 3}, []int64{posts[0].Seq, posts[1].Seq, posts[2].Seq})

	hist, err := memory.NewPostingRepository(store).ListByKey(ctx, key, 2, 0)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, int64(3), hist[0].Seq, "más reciente primero")
}

func TestInsert_DuplicadoEsConflicto(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	run := func() error {
		return store.Run(ctx, func(l repository.StockLedgerRepository, _ repository.StockPostingRepository) error {
			if _, err := l.GetForUpdate(ctx, key); err != nil {
				return err
			}
			return l.Insert(ctx, newLedger(1))
		})
	}
	require.NoError(t, run())
	assert.ErrorIs(t, run(), repository.ErrTxConflict)
}

func TestLedgerRepository_EscrituraFueraDeTx(t *testing.T) {
	repo := memory.NewLedgerRepository(memory.NewStore())
	_, err := repo.GetForUpdate(context.Background(), key)
	assert.Error(t, err)
	assert.Error(t, repo.Insert(context.Background(), newLedger(1)))
}

func TestProcurementRepository_UpdateStatusCompareAndSet(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewProcurementRepository(memory.NewStore())
	po := &entity.PurchaseOrder{DocumentHeader: entity.DocumentHeader{ID: "po1", TenantID: "t1", Status: entity.StatusPending}}
	require.NoError(t, repo.CreatePurchaseOrder(ctx, po))

	require.NoError(t, repo.UpdateStatus(ctx, "t1", entity.DocumentPurchaseOrder, "po1", entity.StatusPending, entity.StatusIssued))
	err := repo.UpdateStatus(ctx, "t1", entity.DocumentPurchaseOrder, "po1", entity.StatusPending, entity.StatusIssued)
	assert.ErrorIs(t, err, repository.ErrTxConflict)

	_, err = repo.GetStatus(ctx, "otro", entity.DocumentPurchaseOrder, "po1")
	assert.ErrorIs(t, err, domain.ErrNotFound, "aislamiento por tenant")

	got, err := repo.GetPurchaseOrder(ctx, "t1", "po1")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusIssued, got.Status)
}

func TestNumberer_ConsecutivoPorTenantYTipo(t *testing.T) {
	ctx := context.Background()
	n := memory.NewNumberer(memory.NewStore())

	a, _ := n.Next(ctx, "t1", entity.DocumentPurchaseOrder)
	b, _ := n.Next(ctx, "t1", entity.DocumentPurchaseOrder)
	c, _ := n.Next(ctx, "t2", entity.DocumentPurchaseOrder)
	r, _ := n.Next(ctx, "t1", entity.DocumentRequisition)

	assert.Equal(t, "PO-000001", a)
	assert.Equal(t, "PO-000002", b)
	assert.Equal(t, "PO-000001", c)
	assert.Equal(t, "REQ-000001", r)
}
