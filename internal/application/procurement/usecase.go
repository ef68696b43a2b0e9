// Package procurement convierte filas de faltantes en documentos de abastecimiento:
// requisiciones, solicitudes de cotización y órdenes de compra por proveedor.
package procurement

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/inventario-mrp/internal/domain"
	"github.com/jhoicas/inventario-mrp/internal/domain/entity"
	"github.com/jhoicas/inventario-mrp/internal/domain/repository"
)

// Config parámetros de abastecimiento.
type Config struct {
	// RFQDueDays plazo por defecto de las solicitudes de cotización.
	RFQDueDays int
	// Parallelism máximo de órdenes de compra creándose a la vez.
	Parallelism int
}

func DefaultConfig() Config {
	return Config{RFQDueDays: 7, Parallelism: 4}
}

// UseCase generador de documentos de abastecimiento.
type UseCase struct {
	docs    repository.ProcurementRepository
	numbers repository.DocumentNumberer
	cfg     Config
	log     zerolog.Logger
	now     func() time.Time
}

func NewUseCase(docs repository.ProcurementRepository, numbers repository.DocumentNumberer, cfg Config, log zerolog.Logger) *UseCase {
	if cfg.RFQDueDays <= 0 {
		cfg.RFQDueDays = 7
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = 1
	}
	return &UseCase{
		docs:    docs,
		numbers: numbers,
		cfg:     cfg,
		log:     log.With().Str("component", "procurement").Logger(),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// SupplierInput asignación de proveedores para RFQ y órdenes de compra.
type SupplierInput struct {
	// Assignment material -> proveedor.
	Assignment map[string]string
	// DefaultSupplier se usa para materiales sin asignación.
	DefaultSupplier string
}

func (s SupplierInput) resolve(material string) string {
	if sup := strings.TrimSpace(s.Assignment[material]); sup != "" {
		return sup
	}
	return strings.TrimSpace(s.DefaultSupplier)
}

// BatchResult resultado de CreatePurchaseOrders.
type BatchResult struct {
	// DocumentIDs órdenes creadas, en orden de proveedor.
	DocumentIDs []string
	// UnassignedMaterials materiales que quedaron fuera por no tener proveedor.
	UnassignedMaterials []string
}

// CreateRequisition crea una requisición en borrador con una línea por fila.
func (uc *UseCase) CreateRequisition(ctx context.Context, tenantID string, rows []entity.ShortageRow) (string, error) {
	if err := validateRows(tenantID, rows); err != nil {
		return "", err
	}
	header, err := uc.newHeader(ctx, tenantID, entity.DocumentRequisition, entity.StatusDraft)
	if err != nil {
		return "", err
	}
	doc := &entity.Requisition{DocumentHeader: header, Lines: toLines(rows, nil)}
	if err := uc.docs.CreateRequisition(ctx, doc); err != nil {
		return "", fmt.Errorf("crear requisición: %w", err)
	}
	uc.log.Info().Str("tenant_id", tenantID).Str("document_id", doc.ID).Str("number", doc.Number).
		Int("lines", len(doc.Lines)).Msg("requisición creada")
	return doc.ID, nil
}

// CreateRFQ crea una única solicitud de cotización dirigida a la unión ordenada de los
// proveedores resueltos. Vence dueInDays días después de la fecha del documento; nil usa
// el plazo configurado y cero vence el mismo día.
func (uc *UseCase) CreateRFQ(ctx context.Context, tenantID string, rows []entity.ShortageRow, suppliers SupplierInput, dueInDays *int) (string, error) {
	if err := validateRows(tenantID, rows); err != nil {
		return "", err
	}
	days := uc.cfg.RFQDueDays
	if dueInDays != nil {
		if *dueInDays < 0 {
			return "", domain.Invalid("due_in_days", "no puede ser negativo")
		}
		days = *dueInDays
	}
	set := make(map[string]struct{})
	for _, r := range rows {
		if sup := suppliers.resolve(r.Material); sup != "" {
			set[sup] = struct{}{}
		}
	}
	if len(set) == 0 {
		return "", domain.ErrNoSupplierSpecified
	}
	list := make([]string, 0, len(set))
	for s := range set {
		list = append(list, s)
	}
	sort.Strings(list)

	header, err := uc.newHeader(ctx, tenantID, entity.DocumentRFQ, entity.StatusOpen)
	if err != nil {
		return "", err
	}
	doc := &entity.RFQ{
		DocumentHeader: header,
		Suppliers:      list,
		DueDate:        header.Date.AddDate(0, 0, days),
		Lines:          toLines(rows, nil),
	}
	if err := uc.docs.CreateRFQ(ctx, doc); err != nil {
		return "", fmt.Errorf("crear rfq: %w", err)
	}
	uc.log.Info().Str("tenant_id", tenantID).Str("document_id", doc.ID).Strs("suppliers", list).Msg("rfq creada")
	return doc.ID, nil
}

// PurchaseOrderInput entrada de CreatePurchaseOrders.
type PurchaseOrderInput struct {
	TenantID  string
	Rows      []entity.ShortageRow
	Suppliers SupplierInput
	// Prices precio unitario por material; sin precio se usa el costo de la BOM o cero.
	Prices map[string]decimal.Decimal
}

type supplierGroup struct {
	supplier string
	rows     []entity.ShortageRow
}

// CreatePurchaseOrders agrupa las filas por proveedor y crea una orden pendiente por grupo.
// Cada orden se persiste de forma independiente: si alguna falla se devuelve el resultado
// parcial junto con *domain.PartialBatchError; si fallan todas el error envuelve además
// domain.ErrBatchFailed.
func (uc *UseCase) CreatePurchaseOrders(ctx context.Context, in PurchaseOrderInput) (*BatchResult, error) {
	if err := validateRows(in.TenantID, in.Rows); err != nil {
		return nil, err
	}

	bySupplier := make(map[string]*supplierGroup)
	unassignedSet := make(map[string]struct{})
	for _, r := range in.Rows {
		sup := in.Suppliers.resolve(r.Material)
		if sup == "" {
			unassignedSet[r.Material] = struct{}{}
			continue
		}
		g, ok := bySupplier[sup]
		if !ok {
			g = &supplierGroup{supplier: sup}
			bySupplier[sup] = g
		}
		g.rows = append(g.rows, r)
	}
	unassigned := make([]string, 0, len(unassignedSet))
	for m := range unassignedSet {
		unassigned = append(unassigned, m)
	}
	sort.Strings(unassigned)

	if len(bySupplier) == 0 {
		return nil, domain.ErrNoSupplierSpecified
	}
	groups := make([]*supplierGroup, 0, len(bySupplier))
	for _, g := range bySupplier {
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].supplier < groups[j].supplier })

	if len(unassigned) > 0 {
		uc.log.Warn().Str("tenant_id", in.TenantID).Strs("materials", unassigned).Msg("materiales sin proveedor omitidos")
	}

	ids := make([]string, len(groups))
	var mu sync.Mutex
	failed := make(map[string]error)

	var g errgroup.Group
	g.SetLimit(uc.cfg.Parallelism)
	for i, grp := range groups {
		i, grp := i, grp
		g.Go(func() error {
			id, err := uc.createPurchaseOrder(ctx, in.TenantID, grp, in.Prices)
			if err != nil {
				uc.log.Error().Err(err).Str("tenant_id", in.TenantID).Str("supplier", grp.supplier).Msg("falló orden de compra")
				mu.Lock()
				failed[grp.supplier] = err
				mu.Unlock()
				return nil
			}
			ids[i] = id
			return nil
		})
	}
	_ = g.Wait()

	result := &BatchResult{UnassignedMaterials: unassigned, DocumentIDs: make([]string, 0, len(groups))}
	for _, id := range ids {
		if id != "" {
			result.DocumentIDs = append(result.DocumentIDs, id)
		}
	}
	if len(failed) > 0 {
		return result, &domain.PartialBatchError{Created: result.DocumentIDs, Failed: failed}
	}
	return result, nil
}

func (uc *UseCase) createPurchaseOrder(ctx context.Context, tenantID string, grp *supplierGroup, prices map[string]decimal.Decimal) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	header, err := uc.newHeader(ctx, tenantID, entity.DocumentPurchaseOrder, entity.StatusPending)
	if err != nil {
		return "", err
	}
	po := &entity.PurchaseOrder{
		DocumentHeader: header,
		Supplier:       grp.supplier,
		Lines:          toLines(grp.rows, prices),
	}
	po.RecomputeTotal()
	if err := uc.docs.CreatePurchaseOrder(ctx, po); err != nil {
		return "", fmt.Errorf("crear orden de compra %s: %w", grp.supplier, err)
	}
	uc.log.Info().Str("tenant_id", tenantID).Str("document_id", po.ID).Str("number", po.Number).
		Str("supplier", grp.supplier).Str("total", po.Total.String()).Msg("orden de compra creada")
	return po.ID, nil
}

// UpdateStatus mueve un documento a otro estado si la transición es válida para su tipo.
// Los RFQ no tienen transiciones.
func (uc *UseCase) UpdateStatus(ctx context.Context, tenantID string, kind entity.DocumentKind, id string, to entity.DocumentStatus) error {
	if strings.TrimSpace(tenantID) == "" {
		return domain.ErrMissingTenant
	}
	switch kind {
	case entity.DocumentRequisition, entity.DocumentRFQ, entity.DocumentPurchaseOrder, entity.DocumentGoodsReceipt:
	default:
		return domain.Invalid("kind", fmt.Sprintf("tipo de documento desconocido %q", kind))
	}

	const attempts = 3
	for attempt := 1; attempt <= attempts; attempt++ {
		from, err := uc.docs.GetStatus(ctx, tenantID, kind, id)
		if err != nil {
			return err
		}
		if !entity.CanTransition(kind, from, to) {
			return fmt.Errorf("%w: %s de %s a %s", domain.ErrInvalidTransition, kind, from, to)
		}
		err = uc.docs.UpdateStatus(ctx, tenantID, kind, id, from, to)
		if err == nil {
			uc.log.Info().Str("tenant_id", tenantID).Str("document_id", id).Str("kind", string(kind)).
				Str("from", string(from)).Str("to", string(to)).Msg("estado actualizado")
			return nil
		}
		if !errors.Is(err, repository.ErrTxConflict) {
			return err
		}
	}
	return fmt.Errorf("%w: estado de %s %s", domain.ErrConcurrencyConflict, kind, id)
}

// CreateGoodsReceipt registra una recepción pendiente contra una orden de compra emitida.
func (uc *UseCase) CreateGoodsReceipt(ctx context.Context, tenantID, purchaseOrderID string) (string, error) {
	if strings.TrimSpace(tenantID) == "" {
		return "", domain.ErrMissingTenant
	}
	po, err := uc.docs.GetPurchaseOrder(ctx, tenantID, purchaseOrderID)
	if err != nil {
		return "", err
	}
	if po.Status != entity.StatusIssued && po.Status != entity.StatusReceived {
		return "", fmt.Errorf("%w: la orden %s está en %s", domain.ErrInvalidTransition, po.Number, po.Status)
	}
	header, err := uc.newHeader(ctx, tenantID, entity.DocumentGoodsReceipt, entity.StatusPending)
	if err != nil {
		return "", err
	}
	gr := &entity.GoodsReceipt{DocumentHeader: header, PurchaseOrderID: po.ID}
	if err := uc.docs.CreateGoodsReceipt(ctx, gr); err != nil {
		return "", fmt.Errorf("crear recepción: %w", err)
	}
	uc.log.Info().Str("tenant_id", tenantID).Str("document_id", gr.ID).Str("purchase_order_id", po.ID).Msg("recepción creada")
	return gr.ID, nil
}

func (uc *UseCase) newHeader(ctx context.Context, tenantID string, kind entity.DocumentKind, status entity.DocumentStatus) (entity.DocumentHeader, error) {
	number, err := uc.numbers.Next(ctx, tenantID, kind)
	if err != nil {
		return entity.DocumentHeader{}, fmt.Errorf("numerar %s: %w", kind, err)
	}
	now := uc.now()
	return entity.DocumentHeader{
		ID:        uuid.New().String(),
		TenantID:  tenantID,
		Number:    number,
		Date:      now,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func validateRows(tenantID string, rows []entity.ShortageRow) error {
	if strings.TrimSpace(tenantID) == "" {
		return domain.ErrMissingTenant
	}
	if len(rows) == 0 {
		return domain.Invalid("rows", "no hay faltantes")
	}
	for i, r := range rows {
		if strings.TrimSpace(r.Material) == "" {
			return domain.Invalid("rows", fmt.Sprintf("fila %d sin material", i+1))
		}
		if !r.Deficit.IsPositive() {
			return domain.Invalid("rows", fmt.Sprintf("fila %d con déficit no positivo", i+1))
		}
	}
	return nil
}

// toLines copia cada fila a una línea de documento; la cantidad es el déficit.
func toLines(rows []entity.ShortageRow, prices map[string]decimal.Decimal) []entity.DocumentLine {
	lines := make([]entity.DocumentLine, 0, len(rows))
	for _, r := range rows {
		price := decimal.Zero
		if p, ok := prices[r.Material]; ok {
			price = p
		} else if r.UnitCost.Valid {
			price = r.UnitCost.Decimal
		}
		lines = append(lines, entity.DocumentLine{
			Material:  r.Material,
			Unit:      r.Unit,
			Quantity:  r.Deficit,
			UnitPrice: price,
			Amount:    r.Deficit.Mul(price),
			Product:   r.Product,
			OrderID:   r.OrderID,
		})
	}
	return lines
}
