package ledger_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-mrp/internal/domain"
	"github.com/jhoicas/inventario-mrp/internal/domain/entity"
	"github.com/jhoicas/inventario-mrp/internal/domain/ledger"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func entry(seq int64, material, qty string) entity.StockPosting {
	return entity.StockPosting{
		ID: "e", Seq: seq, TenantID: "t1", Kind: entity.PostingEntry,
		Material: material, Warehouse: "W1", Quantity: d(qty), Unit: "kg",
		CreatedAt: time.Date(2026, 1, 1, 0, 0, int(seq), 0, time.UTC),
	}
}

func output(seq int64, material, qty string) entity.StockPosting {
	p := entry(seq, material, qty)
	p.ID = "o"
	p.Kind = entity.PostingOutput
	return p
}

func assertInvariant(t *testing.T, l *entity.StockLedger) {
	t.Helper()
	assert.True(t, l.CurrentQuantity.Equal(l.TotalEntered.Sub(l.TotalIssued)),
		"current %s != entered %s - issued %s", l.CurrentQuantity, l.TotalEntered, l.TotalIssued)
}

func TestDeriveStatus_Umbrales(t *testing.T) {
	cases := []struct {
		current, critical string
		want              entity.LedgerStatus
	}{
		{"0", "0", entity.LedgerStatusRed},
		{"-1", "0", entity.LedgerStatusRed},
		{"10", "10", entity.LedgerStatusRed},
		{"9", "10", entity.LedgerStatusRed},
		{"10.01", "10", entity.LedgerStatusOrange},
		{"15", "10", entity.LedgerStatusOrange},
		{"15.01", "10", entity.LedgerStatusGreen},
		{"1", "0", entity.LedgerStatusGreen},
	}
	for _, c := range cases {
		got := ledger.DeriveStatus(d(c.current), d(c.critical))
		assert.Equal(t, c.want, got, "current=%s critical=%s", c.current, c.critical)
	}
}

func TestApplyEntry_PrimeraEntradaCreaAgregado(t *testing.T) {
	l, err := ledger.ApplyEntry(nil, entry(1, "X", "100"), ledger.DefaultCriticalRatio)
	require.NoError(t, err)

	assert.True(t, l.TotalEntered.Equal(d("100")))
	assert.True(t, l.TotalIssued.IsZero())
	assert.True(t, l.CriticalLevel.Equal(d("20")), "fallback de 20%% de la cantidad")
	assert.Equal(t, entity.LedgerStatusGreen, l.Status)
	assert.Equal(t, "kg", l.Unit)
	assertInvariant(t, l)
}

func TestApplyEntry_OverrideCritico(t *testing.T) {
	p := entry(1, "X", "100")
	p.CriticalLevel = decimal.NewNullDecimal(d("80"))
	l, err := ledger.ApplyEntry(nil, p, ledger.DefaultCriticalRatio)
	require.NoError(t, err)
	assert.True(t, l.CriticalLevel.Equal(d("80")))
	assert.Equal(t, entity.LedgerStatusOrange, l.Status)

	// override cero no resetea
	p2 := entry(2, "X", "5")
	p2.CriticalLevel = decimal.NewNullDecimal(decimal.Zero)
	l2, err := ledger.ApplyEntry(l, p2, ledger.DefaultCriticalRatio)
	require.NoError(t, err)
	assert.True(t, l2.CriticalLevel.Equal(d("80")), "un override no positivo se ignora")

	// sin override conserva el valor
	l3, err := ledger.ApplyEntry(l2, entry(3, "X", "5"), ledger.DefaultCriticalRatio)
	require.NoError(t, err)
	assert.True(t, l3.CriticalLevel.Equal(d("80")))
	assert.True(t, l3.TotalEntered.Equal(d("110")))
	assert.Equal(t, int64(3), l3.Version)
	assertInvariant(t, l3)
}

func TestApplyEntry_NivelRegistradoAlCrear(t *testing.T) {
	// el nivel registrado manda sobre el ratio al crear, también si es cero
	p := entry(1, "X", "100")
	p.CriticalLevel = decimal.NewNullDecimal(decimal.Zero)
	l, err := ledger.ApplyEntry(nil, p, d("0.5"))
	require.NoError(t, err)
	assert.True(t, l.CriticalLevel.IsZero())
	assert.Equal(t, entity.LedgerStatusGreen, l.Status)

	p.CriticalLevel = decimal.NewNullDecimal(d("20"))
	l, err = ledger.ApplyEntry(nil, p, d("0.5"))
	require.NoError(t, err)
	assert.True(t, l.CriticalLevel.Equal(d("20")))
}

func TestApplyEntry_UnidadDistinta(t *testing.T) {
	l, err := ledger.ApplyEntry(nil, entry(1, "X", "10"), ledger.DefaultCriticalRatio)
	require.NoError(t, err)

	p := entry(2, "X", "1")
	p.Unit = "lb"
	_, err = ledger.ApplyEntry(l, p, ledger.DefaultCriticalRatio)
	assert.ErrorIs(t, err, domain.ErrUnitMismatch)
}

func TestApplyOutput_SinAgregado(t *testing.T) {
	_, err := ledger.ApplyOutput(nil, output(1, "X", "1"))
	require.Error(t, err)

	var nf *domain.AggregateNotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "X", nf.Material)
	assert.Equal(t, "W1", nf.Warehouse)
	assert.ErrorIs(t, err, domain.ErrAggregateNotFound)
	assert.NotErrorIs(t, err, domain.ErrInsufficientStock, "son errores distintos")
}

func TestApplyOutput_StockInsuficienteNoModifica(t *testing.T) {
	l, err := ledger.ApplyEntry(nil, entry(1, "X", "10"), ledger.DefaultCriticalRatio)
	require.NoError(t, err)
	before := *l

	_, err = ledger.ApplyOutput(l, output(2, "X", "10.5"))
	require.Error(t, err)

	var ins *domain.InsufficientStockError
	require.True(t, errors.As(err, &ins))
	assert.True(t, ins.Available.Equal(d("10")))
	assert.True(t, ins.Requested.Equal(d("10.5")))
	assert.Equal(t, before, *l, "el agregado queda intacto")
}

func TestApplyOutput_DescuentaYRecalculaEstado(t *testing.T) {
	l, err := ledger.ApplyEntry(nil, entry(1, "X", "100"), ledger.DefaultCriticalRatio)
	require.NoError(t, err)

	l, err = ledger.ApplyOutput(l, output(2, "X", "75"))
	require.NoError(t, err)
	assert.True(t, l.CurrentQuantity.Equal(d("25")))
	assert.Equal(t, entity.LedgerStatusOrange, l.Status, "25 <= 20*1.5")

	l, err = ledger.ApplyOutput(l, output(3, "X", "25"))
	require.NoError(t, err)
	assert.True(t, l.CurrentQuantity.IsZero())
	assert.Equal(t, entity.LedgerStatusRed, l.Status)
	assertInvariant(t, l)
}

func TestReplay_ReproduceAgregados(t *testing.T) {
	postings := []entity.StockPosting{
		entry(1, "X", "50"),
		output(2, "X", "20"),
		entry(3, "Y", "10"),
		entry(4, "X", "5"),
		output(5, "Y", "10"),
	}

	var incremental = map[entity.LedgerKey]*entity.StockLedger{}
	for _, p := range postings {
		next, err := ledger.Apply(incremental[p.Key()], p, ledger.DefaultCriticalRatio)
		require.NoError(t, err)
		incremental[p.Key()] = next
	}

	// desordenados a propósito: Replay ordena por Seq
	shuffled := []entity.StockPosting{postings[4], postings[0], postings[3], postings[2], postings[1]}
	rebuilt, err := ledger.Replay(shuffled, ledger.DefaultCriticalRatio)
	require.NoError(t, err)
	require.Len(t, rebuilt, 2)

	for _, l := range rebuilt {
		assert.Equal(t, *incremental[l.LedgerKey], *l, "kardex %s", l.LedgerKey)
		assertInvariant(t, l)
	}

	again, err := ledger.Replay(postings, ledger.DefaultCriticalRatio)
	require.NoError(t, err)
	assert.Equal(t, rebuilt, again)
}

func TestReplay_PropagaErrorDePosteoInvalido(t *testing.T) {
	_, err := ledger.Replay([]entity.StockPosting{output(1, "X", "1")}, ledger.DefaultCriticalRatio)
	assert.ErrorIs(t, err, domain.ErrAggregateNotFound)
}

func TestSortByWarehouseMaterial(t *testing.T) {
	list := []*entity.StockLedger{
		{LedgerKey: entity.LedgerKey{Warehouse: "B", Material: "a"}},
		{LedgerKey: entity.LedgerKey{Warehouse: "A", Material: "z"}},
		{LedgerKey: entity.LedgerKey{Warehouse: "A", Material: "b"}},
		{LedgerKey: entity.LedgerKey{Warehouse: "", Material: "q"}},
	}
	ledger.SortByWarehouseMaterial(list)

	got := make([]string, 0, len(list))
	for _, l := range list {
		got = append(got, l.Warehouse+"/"+l.Material)
	}
	assert.Equal(t, []string{"/q", "A/b", "A/z", "B/a"}, got)
}
