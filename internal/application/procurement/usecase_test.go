package procurement_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-mrp/internal/application/procurement"
	"github.com/jhoicas/inventario-mrp/internal/domain"
	"github.com/jhoicas/inventario-mrp/internal/domain/entity"
	"github.com/jhoicas/inventario-mrp/internal/infrastructure/memory"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func row(material, deficit string) entity.ShortageRow {
	return entity.ShortageRow{
		Material: material, Unit: "kg", Kind: entity.ComponentRaw,
		Required: d(deficit), Available: decimal.Zero, Deficit: d(deficit),
		Product: "Product A", OrderID: "SO-1",
	}
}

func days(n int) *int { return &n }

// failingRepo falla la creación de órdenes para los proveedores indicados y guarda
// la última RFQ creada.
type failingRepo struct {
	*memory.ProcurementRepository
	failFor map[string]bool
	lastRFQ *entity.RFQ
}

func (r *failingRepo) CreateRFQ(ctx context.Context, doc *entity.RFQ) error {
	r.lastRFQ = doc
	return r.ProcurementRepository.CreateRFQ(ctx, doc)
}

func (r *failingRepo) CreatePurchaseOrder(ctx context.Context, doc *entity.PurchaseOrder) error {
	if r.failFor[doc.Supplier] {
		return errors.New("db caída")
	}
	return r.ProcurementRepository.CreatePurchaseOrder(ctx, doc)
}

type fixture struct {
	repo *memory.ProcurementRepository
	docs *failingRepo
	uc   *procurement.UseCase
}

func setup(failFor ...string) fixture {
	store := memory.NewStore()
	repo := memory.NewProcurementRepository(store)
	fr := &failingRepo{ProcurementRepository: repo, failFor: map[string]bool{}}
	for _, s := range failFor {
		fr.failFor[s] = true
	}
	uc := procurement.NewUseCase(fr, memory.NewNumberer(store), procurement.DefaultConfig(), zerolog.Nop())
	return fixture{repo: repo, docs: fr, uc: uc}
}

func TestCreateRequisition(t *testing.T) {
	ctx := context.Background()
	f := setup()

	id, err := f.uc.CreateRequisition(ctx, "t1", []entity.ShortageRow{row("M1", "7"), row("M2", "3")})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	st, err := f.repo.GetStatus(ctx, "t1", entity.DocumentRequisition, id)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusDraft, st)

	_, err = f.uc.CreateRequisition(ctx, "t1", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.uc.CreateRequisition(ctx, "", []entity.ShortageRow{row("M1", "1")})
	assert.ErrorIs(t, err, domain.ErrMissingTenant)
}

func TestCreateRFQ_UnionOrdenadaDeProveedores(t *testing.T) {
	ctx := context.Background()
	f := setup()

	rows := []entity.ShortageRow{row("M1", "1"), row("M2", "1"), row("M3", "1")}
	id, err := f.uc.CreateRFQ(ctx, "t1", rows, procurement.SupplierInput{
		Assignment:      map[string]string{"M1": "S2", "M2": "S1"},
		DefaultSupplier: "S3",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"S1", "S2", "S3"}, f.docs.lastRFQ.Suppliers)

	st, err := f.repo.GetStatus(ctx, "t1", entity.DocumentRFQ, id)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusOpen, st)

	_, err = f.uc.CreateRFQ(ctx, "t1", rows, procurement.SupplierInput{}, days(5))
	assert.ErrorIs(t, err, domain.ErrNoSupplierSpecified)
}

func TestCreateRFQ_Vencimiento(t *testing.T) {
	ctx := context.Background()
	f := setup()
	rows := []entity.ShortageRow{row("M1", "1")}
	sup := procurement.SupplierInput{DefaultSupplier: "S1"}

	_, err := f.uc.CreateRFQ(ctx, "t1", rows, sup, nil)
	require.NoError(t, err)
	rfq := f.docs.lastRFQ
	assert.Equal(t, rfq.Date.AddDate(0, 0, 7), rfq.DueDate, "sin plazo se usa el configurado")

	_, err = f.uc.CreateRFQ(ctx, "t1", rows, sup, days(0))
	require.NoError(t, err)
	rfq = f.docs.lastRFQ
	assert.Equal(t, rfq.Date, rfq.DueDate, "plazo cero vence hoy")

	_, err = f.uc.CreateRFQ(ctx, "t1", rows, sup, days(10))
	require.NoError(t, err)
	rfq = f.docs.lastRFQ
	assert.Equal(t, rfq.Date.AddDate(0, 0, 10), rfq.DueDate)

	_, err = f.uc.CreateRFQ(ctx, "t1", rows, sup, days(-1))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCreatePurchaseOrders_UnaPorProveedor(t *testing.T) {
	ctx := context.Background()
	f := setup()

	res, err := f.uc.CreatePurchaseOrders(ctx, procurement.PurchaseOrderInput{
		TenantID:  "t1",
		Rows:      []entity.ShortageRow{row("M1", "7"), row("M2", "3")},
		Suppliers: procurement.SupplierInput{Assignment: map[string]string{"M1": "S1", "M2": "S2"}},
		Prices:    map[string]decimal.Decimal{"M1": d("2")},
	})
	require.NoError(t, err)
	require.Len(t, res.DocumentIDs, 2)
	assert.Empty(t, res.UnassignedMaterials)

	po1, err := f.repo.GetPurchaseOrder(ctx, "t1", res.DocumentIDs[0])
	require.NoError(t, err)
	assert.Equal(t, "S1", po1.Supplier)
	require.Len(t, po1.Lines, 1)
	assert.Equal(t, "M1", po1.Lines[0].Material)
	assert.True(t, po1.Total.Equal(d("14")))
	assert.Equal(t, entity.StatusPending, po1.Status)

	po2, err := f.repo.GetPurchaseOrder(ctx, "t1", res.DocumentIDs[1])
	require.NoError(t, err)
	assert.Equal(t, "S2", po2.Supplier)
	require.Len(t, po2.Lines, 1)
	assert.Equal(t, "M2", po2.Lines[0].Material)
	assert.True(t, po2.Total.IsZero(), "sin precio ni costo")
	assert.NotEqual(t, po1.Number, po2.Number)
}

func TestCreatePurchaseOrders_AgrupaYUsaDefault(t *testing.T) {
	ctx := context.Background()
	f := setup()

	res, err := f.uc.CreatePurchaseOrders(ctx, procurement.PurchaseOrderInput{
		TenantID: "t1",
		Rows:     []entity.ShortageRow{row("M1", "1"), row("M2", "1"), row("M3", "1")},
		Suppliers: procurement.SupplierInput{
			Assignment:      map[string]string{"M1": "S1"},
			DefaultSupplier: "S1",
		},
	})
	require.NoError(t, err)
	require.Len(t, res.DocumentIDs, 1)
	po, err := f.repo.GetPurchaseOrder(ctx, "t1", res.DocumentIDs[0])
	require.NoError(t, err)
	assert.Len(t, po.Lines, 3)
}

func TestCreatePurchaseOrders_SinProveedor(t *testing.T) {
	ctx := context.Background()
	f := setup()

	_, err := f.uc.CreatePurchaseOrders(ctx, procurement.PurchaseOrderInput{
		TenantID: "t1",
		Rows:     []entity.ShortageRow{row("M1", "1")},
	})
	assert.ErrorIs(t, err, domain.ErrNoSupplierSpecified)

	res, err := f.uc.CreatePurchaseOrders(ctx, procurement.PurchaseOrderInput{
		TenantID:  "t1",
		Rows:      []entity.ShortageRow{row("M1", "1"), row("M9", "1")},
		Suppliers: procurement.SupplierInput{Assignment: map[string]string{"M1": "S1"}},
	})
	require.NoError(t, err)
	assert.Len(t, res.DocumentIDs, 1)
	assert.Equal(t, []string{"M9"}, res.UnassignedMaterials)
}

func TestCreatePurchaseOrders_FalloParcial(t *testing.T) {
	ctx := context.Background()
	f := setup("S2")

	res, err := f.uc.CreatePurchaseOrders(ctx, procurement.PurchaseOrderInput{
		TenantID:  "t1",
		Rows:      []entity.ShortageRow{row("M1", "1"), row("M2", "1"), row("M3", "1")},
		Suppliers: procurement.SupplierInput{Assignment: map[string]string{"M1": "S1", "M2": "S2", "M3": "S3"}},
	})
	require.Error(t, err)

	var pb *domain.PartialBatchError
	require.True(t, errors.As(err, &pb))
	assert.Len(t, pb.Created, 2)
	assert.Contains(t, pb.Failed, "S2")
	assert.NotErrorIs(t, err, domain.ErrBatchFailed, "parcial no es fallo total")

	require.NotNil(t, res)
	assert.Equal(t, pb.Created, res.DocumentIDs)
	for _, id := range res.DocumentIDs {
		_, err := f.repo.GetPurchaseOrder(ctx, "t1", id)
		assert.NoError(t, err, "las creadas persisten")
	}
}

func TestCreatePurchaseOrders_FalloTotal(t *testing.T) {
	ctx := context.Background()
	f := setup("S1", "S2")

	_, err := f.uc.CreatePurchaseOrders(ctx, procurement.PurchaseOrderInput{
		TenantID:  "t1",
		Rows:      []entity.ShortageRow{row("M1", "1"), row("M2", "1")},
		Suppliers: procurement.SupplierInput{Assignment: map[string]string{"M1": "S1", "M2": "S2"}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrBatchFailed)

	var pb *domain.PartialBatchError
	require.True(t, errors.As(err, &pb))
	assert.Empty(t, pb.Created)
	assert.Len(t, pb.Failed, 2)
}

func TestUpdateStatus_CicloDeOrdenDeCompra(t *testing.T) {
	ctx := context.Background()
	f := setup()
	res, err := f.uc.CreatePurchaseOrders(ctx, procurement.PurchaseOrderInput{
		TenantID:  "t1",
		Rows:      []entity.ShortageRow{row("M1", "1")},
		Suppliers: procurement.SupplierInput{DefaultSupplier: "S1"},
	})
	require.NoError(t, err)
	id := res.DocumentIDs[0]

	err = f.uc.UpdateStatus(ctx, "t1", entity.DocumentPurchaseOrder, id, entity.StatusReceived)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition, "no se puede saltar issued")

	for _, to := range []entity.DocumentStatus{entity.StatusIssued, entity.StatusReceived, entity.StatusBilled, entity.StatusClosed} {
		require.NoError(t, f.uc.UpdateStatus(ctx, "t1", entity.DocumentPurchaseOrder, id, to))
	}

	err = f.uc.UpdateStatus(ctx, "t1", entity.DocumentPurchaseOrder, id, entity.StatusPending)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	err = f.uc.UpdateStatus(ctx, "t2", entity.DocumentPurchaseOrder, id, entity.StatusIssued)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateStatus_RequisicionYRFQ(t *testing.T) {
	ctx := context.Background()
	f := setup()

	req, err := f.uc.CreateRequisition(ctx, "t1", []entity.ShortageRow{row("M1", "1")})
	require.NoError(t, err)
	require.NoError(t, f.uc.UpdateStatus(ctx, "t1", entity.DocumentRequisition, req, entity.StatusApproved))
	err = f.uc.UpdateStatus(ctx, "t1", entity.DocumentRequisition, req, entity.StatusRejected)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition, "approved es terminal")

	rfq, err := f.uc.CreateRFQ(ctx, "t1", []entity.ShortageRow{row("M1", "1")}, procurement.SupplierInput{DefaultSupplier: "S1"}, days(3))
	require.NoError(t, err)
	err = f.uc.UpdateStatus(ctx, "t1", entity.DocumentRFQ, rfq, entity.StatusClosed)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	err = f.uc.UpdateStatus(ctx, "t1", "factura", rfq, entity.StatusClosed)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCreateGoodsReceipt(t *testing.T) {
	ctx := context.Background()
	f := setup()
	res, err := f.uc.CreatePurchaseOrders(ctx, procurement.PurchaseOrderInput{
		TenantID:  "t1",
		Rows:      []entity.ShortageRow{row("M1", "1")},
		Suppliers: procurement.SupplierInput{DefaultSupplier: "S1"},
	})
	require.NoError(t, err)
	po := res.DocumentIDs[0]

	_, err = f.uc.CreateGoodsReceipt(ctx, "t1", po)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition, "la orden aún no se emite")

	require.NoError(t, f.uc.UpdateStatus(ctx, "t1", entity.DocumentPurchaseOrder, po, entity.StatusIssued))
	gr, err := f.uc.CreateGoodsReceipt(ctx, "t1", po)
	require.NoError(t, err)

	require.NoError(t, f.uc.UpdateStatus(ctx, "t1", entity.DocumentGoodsReceipt, gr, entity.StatusAccepted))

	_, err = f.uc.CreateGoodsReceipt(ctx, "t1", "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreatePurchaseOrders_ContextoCancelado(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()
	f := setup()

	_, err := f.uc.CreatePurchaseOrders(ctx, procurement.PurchaseOrderInput{
		TenantID:  "t1",
		Rows:      []entity.ShortageRow{row("M1", "1")},
		Suppliers: procurement.SupplierInput{DefaultSupplier: "S1"},
	})
	assert.ErrorIs(t, err, domain.ErrBatchFailed)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
