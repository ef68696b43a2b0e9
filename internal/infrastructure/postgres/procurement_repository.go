package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/inventario-mrp/internal/domain"
	"github.com/jhoicas/inventario-mrp/internal/domain/entity"
	"github.com/jhoicas/inventario-mrp/internal/domain/repository"
)

var (
	_ repository.ProcurementRepository = (*ProcurementRepo)(nil)
	_ repository.DocumentNumberer      = (*Numberer)(nil)
)

// documentTables tabla de cabeceras por tipo de documento.
var documentTables = map[entity.DocumentKind]string{
	entity.DocumentRequisition:   "requisitions",
	entity.DocumentRFQ:           "rfqs",
	entity.DocumentPurchaseOrder: "purchase_orders",
	entity.DocumentGoodsReceipt:  "goods_receipts",
}

// ProcurementRepo documentos de abastecimiento. Cada Create corre en su propia transacción.
type ProcurementRepo struct {
	db DB
}

func NewProcurementRepository(db DB) *ProcurementRepo {
	return &ProcurementRepo{db: db}
}

func queueLines(batch *pgx.Batch, tenantID, docID string, kind entity.DocumentKind, lines []entity.DocumentLine) {
	for i, l := range lines {
		batch.Queue(`
			INSERT INTO procurement_lines (document_id, tenant_id, document_kind, line_no, material, unit, quantity, unit_price, amount, product, order_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			docID, tenantID, string(kind), i+1, l.Material, l.Unit, l.Quantity, l.UnitPrice, l.Amount, l.Product, l.OrderID,
		)
	}
}

func (r *ProcurementRepo) createWithLines(ctx context.Context, kind entity.DocumentKind, insert func(tx pgx.Tx) error, h entity.DocumentHeader, lines []entity.DocumentLine) error {
	return withTx(ctx, r.db, func(tx pgx.Tx) error {
		if err := insert(tx); err != nil {
			return fmt.Errorf("insert %s: %w", kind, err)
		}
		if len(lines) == 0 {
			return nil
		}
		batch := &pgx.Batch{}
		queueLines(batch, h.TenantID, h.ID, kind, lines)
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert %s lines: %w", kind, err)
		}
		return nil
	})
}

func (r *ProcurementRepo) CreateRequisition(ctx context.Context, doc *entity.Requisition) error {
	return r.createWithLines(ctx, entity.DocumentRequisition, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO requisitions (id, tenant_id, number, date, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			doc.ID, doc.TenantID, doc.Number, doc.Date, string(doc.Status), doc.CreatedAt, doc.UpdatedAt)
		return err
	}, doc.DocumentHeader, doc.Lines)
}

func (r *ProcurementRepo) CreateRFQ(ctx context.Context, doc *entity.RFQ) error {
	return r.createWithLines(ctx, entity.DocumentRFQ, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO rfqs (id, tenant_id, number, date, status, suppliers, due_date, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			doc.ID, doc.TenantID, doc.Number, doc.Date, string(doc.Status), doc.Suppliers, doc.DueDate, doc.CreatedAt, doc.UpdatedAt)
		return err
	}, doc.DocumentHeader, doc.Lines)
}

func (r *ProcurementRepo) CreatePurchaseOrder(ctx context.Context, doc *entity.PurchaseOrder) error {
	return r.createWithLines(ctx, entity.DocumentPurchaseOrder, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO purchase_orders (id, tenant_id, number, date, status, supplier, total, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			doc.ID, doc.TenantID, doc.Number, doc.Date, string(doc.Status), doc.Supplier, doc.Total, doc.CreatedAt, doc.UpdatedAt)
		return err
	}, doc.DocumentHeader, doc.Lines)
}

func (r *ProcurementRepo) CreateGoodsReceipt(ctx context.Context, doc *entity.GoodsReceipt) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO goods_receipts (id, tenant_id, number, purchase_order_id, date, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		doc.ID, doc.TenantID, doc.Number, doc.PurchaseOrderID, doc.Date, string(doc.Status), doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert goods receipt: %w", err)
	}
	return nil
}

func (r *ProcurementRepo) GetPurchaseOrder(ctx context.Context, tenantID, id string) (*entity.PurchaseOrder, error) {
	var po entity.PurchaseOrder
	var status string
	err := r.db.QueryRow(ctx, `
		SELECT id, tenant_id, number, date, status, supplier, total, created_at, updated_at
		FROM purchase_orders WHERE tenant_id = $1 AND id::text = $2`, tenantID, id,
	).Scan(&po.ID, &po.TenantID, &po.Number, &po.Date, &status, &po.Supplier, &po.Total, &po.CreatedAt, &po.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get purchase order: %w", err)
	}
	po.Status = entity.DocumentStatus(status)

	rows, err := r.db.Query(ctx, `
		SELECT material, unit, quantity, unit_price, amount, product, order_id
		FROM procurement_lines WHERE tenant_id = $1 AND document_id = $2 ORDER BY line_no`, tenantID, po.ID)
	if err != nil {
		return nil, fmt.Errorf("list purchase order lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var l entity.DocumentLine
		if err := rows.Scan(&l.Material, &l.Unit, &l.Quantity, &l.UnitPrice, &l.Amount, &l.Product, &l.OrderID); err != nil {
			return nil, fmt.Errorf("scan purchase order line: %w", err)
		}
		po.Lines = append(po.Lines, l)
	}
	return &po, rows.Err()
}

func (r *ProcurementRepo) GetStatus(ctx context.Context, tenantID string, kind entity.DocumentKind, id string) (entity.DocumentStatus, error) {
	table, ok := documentTables[kind]
	if !ok {
		return "", domain.Invalid("kind", fmt.Sprintf("tipo de documento desconocido %q", kind))
	}
	var status string
	err := r.db.QueryRow(ctx, `SELECT status FROM `+table+` WHERE tenant_id = $1 AND id::text = $2`, tenantID, id).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("get %s status: %w", kind, err)
	}
	return entity.DocumentStatus(status), nil
}

// UpdateStatus compare-and-set sobre la columna status.
func (r *ProcurementRepo) UpdateStatus(ctx context.Context, tenantID string, kind entity.DocumentKind, id string, from, to entity.DocumentStatus) error {
	table, ok := documentTables[kind]
	if !ok {
		return domain.Invalid("kind", fmt.Sprintf("tipo de documento desconocido %q", kind))
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE `+table+` SET status = $4, updated_at = now()
		WHERE tenant_id = $1 AND id::text = $2 AND status = $3`,
		tenantID, id, string(from), string(to))
	if err != nil {
		return fmt.Errorf("update %s status: %w", kind, err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetStatus(ctx, tenantID, kind, id); err != nil {
			return err
		}
		return fmt.Errorf("%w: %s %s ya no está en %s", repository.ErrTxConflict, kind, id, from)
	}
	return nil
}

// Numberer consecutivos en document_counters (upsert atómico).
type Numberer struct {
	q Querier
}

func NewNumberer(q Querier) *Numberer {
	return &Numberer{q: q}
}

func (n *Numberer) Next(ctx context.Context, tenantID string, kind entity.DocumentKind) (string, error) {
	var value int64
	err := n.q.QueryRow(ctx, `
		INSERT INTO document_counters (tenant_id, kind, last_value)
		VALUES ($1, $2, 1)
		ON CONFLICT (tenant_id, kind)
		DO UPDATE SET last_value = document_counters.last_value + 1
		RETURNING last_value`, tenantID, string(kind)).Scan(&value)
	if err != nil {
		return "", fmt.Errorf("next document number: %w", err)
	}
	return kind.Number(value), nil
}
