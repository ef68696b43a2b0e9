package catalog_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-mrp/internal/application/catalog"
	"github.com/jhoicas/inventario-mrp/internal/domain"
	"github.com/jhoicas/inventario-mrp/internal/domain/entity"
	"github.com/jhoicas/inventario-mrp/internal/infrastructure/memory"
)

func bom(tenant, product, version string) *entity.BOM {
	return &entity.BOM{
		TenantID: tenant,
		Product:  product,
		Version:  version,
		Lines: []entity.BOMLine{
			{Material: "Harina", QuantityPerUnit: decimal.NewFromInt(2), Unit: "kg", Kind: entity.ComponentRaw},
		},
	}
}

func TestSaveBOM_CreaYReemplaza(t *testing.T) {
	ctx := context.Background()
	uc := catalog.NewUseCase(memory.NewBOMRepository(memory.NewStore()), zerolog.Nop())

	first, err := uc.SaveBOM(ctx, bom("t1", "Pan", "v1"))
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)

	again := bom("t1", "Pan", "v1")
	again.Lines[0].QuantityPerUnit = decimal.NewFromInt(3)
	second, err := uc.SaveBOM(ctx, again)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "misma clave conserva el ID")

	got, err := uc.GetBOM(ctx, "t1", "Pan", "v1")
	require.NoError(t, err)
	assert.True(t, got.Lines[0].QuantityPerUnit.Equal(decimal.NewFromInt(3)))

	list, err := uc.ListBOMs(ctx, "t1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestSaveBOM_Validacion(t *testing.T) {
	ctx := context.Background()
	uc := catalog.NewUseCase(memory.NewBOMRepository(memory.NewStore()), zerolog.Nop())

	b := bom("t1", "Pan", "")
	b.Lines[0].Kind = "otro"
	_, err := uc.SaveBOM(ctx, b)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.SaveBOM(ctx, bom("", "Pan", ""))
	assert.ErrorIs(t, err, domain.ErrMissingTenant)

	_, err = uc.SaveBOM(ctx, bom("t1", "", ""))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSaveBOM_MaximoSeisDecimales(t *testing.T) {
	ctx := context.Background()
	uc := catalog.NewUseCase(memory.NewBOMRepository(memory.NewStore()), zerolog.Nop())

	b := bom("t1", "Pan", "")
	b.Lines[0].QuantityPerUnit = decimal.RequireFromString("0.0000001")
	_, err := uc.SaveBOM(ctx, b)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	b = bom("t1", "Pan", "")
	b.Lines[0].UnitCost = decimal.NewNullDecimal(decimal.RequireFromString("1.2345678"))
	_, err = uc.SaveBOM(ctx, b)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	b = bom("t1", "Pan", "")
	b.Lines[0].QuantityPerUnit = decimal.RequireFromString("0.000001")
	_, err = uc.SaveBOM(ctx, b)
	assert.NoError(t, err)
}

func TestSaveBOM_SoloSKU(t *testing.T) {
	ctx := context.Background()
	uc := catalog.NewUseCase(memory.NewBOMRepository(memory.NewStore()), zerolog.Nop())
	b := bom("t1", "", "")
	b.SKU = "SKU-9"
	saved, err := uc.SaveBOM(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, "SKU-9", saved.Product)
}

func TestGetBOM_NoExiste(t *testing.T) {
	uc := catalog.NewUseCase(memory.NewBOMRepository(memory.NewStore()), zerolog.Nop())
	_, err := uc.GetBOM(context.Background(), "t1", "Nada", "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
