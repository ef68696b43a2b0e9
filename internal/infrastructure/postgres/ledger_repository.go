package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/inventario-mrp/internal/domain/entity"
	"github.com/jhoicas/inventario-mrp/internal/domain/repository"
)

var _ repository.StockLedgerRepository = (*LedgerRepo)(nil)

// Espacios de nombres de advisory locks (primer argumento de pg_advisory_xact_lock).
const (
	lockSpaceTenant = 7101
	lockSpaceKey    = 7102
)

const ledgerColumns = `tenant_id, material, warehouse, unit, total_entered, total_issued,
	current_quantity, critical_level, status, version, created_at, updated_at`

// LedgerRepo kardex materializado sobre PostgreSQL (usable con pool o tx).
type LedgerRepo struct {
	q Querier
}

// NewLedgerRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLedgerRepository(q Querier) *LedgerRepo {
	return &LedgerRepo{q: q}
}

func scanLedger(row pgx.Row) (*entity.StockLedger, error) {
	var l entity.StockLedger
	var status string
	err := row.Scan(
		&l.TenantID, &l.Material, &l.Warehouse, &l.Unit, &l.TotalEntered, &l.TotalIssued,
		&l.CurrentQuantity, &l.CriticalLevel, &status, &l.Version, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	l.Status = entity.LedgerStatus(status)
	return &l, nil
}

// GetForUpdate toma el lock compartido del tenant y el exclusivo de la clave (advisory,
// nivel transacción) y luego bloquea la fila con SELECT FOR UPDATE. El advisory lock cubre
// la primera entrada, cuando todavía no hay fila que bloquear.
func (r *LedgerRepo) GetForUpdate(ctx context.Context, key entity.LedgerKey) (*entity.StockLedger, error) {
	if _, err := r.q.Exec(ctx, `SELECT pg_advisory_xact_lock_shared($1, hashtext($2))`, lockSpaceTenant, key.TenantID); err != nil {
		return nil, fmt.Errorf("lock tenant: %w", err)
	}
	if _, err := r.q.Exec(ctx, `SELECT pg_advisory_xact_lock($1, hashtext($2))`, lockSpaceKey, key.String()); err != nil {
		return nil, fmt.Errorf("lock ledger key: %w", err)
	}
	query := `SELECT ` + ledgerColumns + `
		FROM stock_ledger
		WHERE tenant_id = $1 AND material = $2 AND warehouse = $3
		FOR UPDATE`
	l, err := scanLedger(r.q.QueryRow(ctx, query, key.TenantID, key.Material, key.Warehouse))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get ledger for update: %w", err)
	}
	return l, nil
}

// Insert crea el agregado. Una violación de unicidad se reporta como conflicto reintentable.
func (r *LedgerRepo) Insert(ctx context.Context, l *entity.StockLedger) error {
	query := `
		INSERT INTO stock_ledger (` + ledgerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(ctx, query,
		l.TenantID, l.Material, l.Warehouse, l.Unit, l.TotalEntered, l.TotalIssued,
		l.CurrentQuantity, l.CriticalLevel, string(l.Status), l.Version, l.CreatedAt, l.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: kardex %s ya existe", repository.ErrTxConflict, l.LedgerKey)
		}
		return fmt.Errorf("insert ledger: %w", err)
	}
	return nil
}

// Update escribe el agregado si la versión guardada es la anterior a l.Version.
func (r *LedgerRepo) Update(ctx context.Context, l *entity.StockLedger) error {
	query := `
		UPDATE stock_ledger SET
			unit = $4, total_entered = $5, total_issued = $6, current_quantity = $7,
			critical_level = $8, status = $9, version = $10, updated_at = $11
		WHERE tenant_id = $1 AND material = $2 AND warehouse = $3 AND version = $10 - 1`
	tag, err := r.q.Exec(ctx, query,
		l.TenantID, l.Material, l.Warehouse, l.Unit, l.TotalEntered, l.TotalIssued,
		l.CurrentQuantity, l.CriticalLevel, string(l.Status), l.Version, l.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update ledger: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: kardex %s cambió de versión", repository.ErrTxConflict, l.LedgerKey)
	}
	return nil
}

// List agregados del tenant ordenados por (bodega, material); filtros opcionales.
func (r *LedgerRepo) List(ctx context.Context, f repository.LedgerFilter) ([]*entity.StockLedger, error) {
	query := `SELECT ` + ledgerColumns + `
		FROM stock_ledger
		WHERE tenant_id = $1
		  AND ($2 = '' OR warehouse = $2)
		  AND ($3 = '' OR material = $3)
		ORDER BY warehouse, material`
	rows, err := r.q.Query(ctx, query, f.TenantID, f.Warehouse, f.Material)
	if err != nil {
		return nil, fmt.Errorf("list ledgers: %w", err)
	}
	defer rows.Close()

	list := make([]*entity.StockLedger, 0)
	for rows.Next() {
		l, err := scanLedger(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ledger: %w", err)
		}
		list = append(list, l)
	}
	return list, rows.Err()
}

// LockTenant lock exclusivo del tenant hasta el fin de la transacción.
func (r *LedgerRepo) LockTenant(ctx context.Context, tenantID string) error {
	if _, err := r.q.Exec(ctx, `SELECT pg_advisory_xact_lock($1, hashtext($2))`, lockSpaceTenant, tenantID); err != nil {
		return fmt.Errorf("lock tenant: %w", err)
	}
	return nil
}

// ReplaceAll borra los agregados del tenant e inserta los reconstruidos en un batch.
func (r *LedgerRepo) ReplaceAll(ctx context.Context, tenantID string, ledgers []*entity.StockLedger) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM stock_ledger WHERE tenant_id = $1`, tenantID); err != nil {
		return fmt.Errorf("delete ledgers: %w", err)
	}
	if len(ledgers) == 0 {
		return nil
	}
	query := `
		INSERT INTO stock_ledger (` + ledgerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	batch := &pgx.Batch{}
	for _, l := range ledgers {
		if l.TenantID != tenantID {
			return fmt.Errorf("replace ledgers: kardex %s no pertenece al tenant %s", l.LedgerKey, tenantID)
		}
		batch.Queue(query,
			l.TenantID, l.Material, l.Warehouse, l.Unit, l.TotalEntered, l.TotalIssued,
			l.CurrentQuantity, l.CriticalLevel, string(l.Status), l.Version, l.CreatedAt, l.UpdatedAt,
		)
	}
	if err := r.q.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert rebuilt ledgers: %w", err)
	}
	return nil
}
