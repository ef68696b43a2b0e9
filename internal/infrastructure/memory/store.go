// Package memory implementa los repositorios en memoria. Sirve para desarrollo local
// (STORAGE_DRIVER=memory) y para los tests de los casos de uso; respeta el mismo
// contrato de bloqueo que el adaptador postgres.
package memory

import (
	"context"
	"errors"
	"sync"

	applicationledger "github.com/jhoicas/inventario-mrp/internal/application/ledger"
	"github.com/jhoicas/inventario-mrp/internal/domain/entity"
	"github.com/jhoicas/inventario-mrp/internal/domain/repository"
)

var _ applicationledger.TxRunner = (*Store)(nil)

// errNoTx escritura del kardex fuera de Run.
var errNoTx = errors.New("memory: escritura fuera de transacción")

type bomKey struct {
	tenantID string
	product  string
	version  string
}

type docKey struct {
	kind entity.DocumentKind
	id   string
}

// Store estado compartido de todos los repositorios en memoria.
type Store struct {
	mu sync.RWMutex

	ledgers  map[entity.LedgerKey]*entity.StockLedger
	postings []entity.StockPosting
	seq      int64

	boms   map[bomKey]*entity.BOM
	orders map[string][]entity.OrderLine

	requisitions   map[string]*entity.Requisition
	rfqs           map[string]*entity.RFQ
	purchaseOrders map[string]*entity.PurchaseOrder
	receipts       map[string]*entity.GoodsReceipt
	statuses       map[docKey]docStatus
	counters       map[string]int64

	keys    keyLocker
	tenants tenantLocker
}

type docStatus struct {
	tenantID string
	status   entity.DocumentStatus
}

// NewStore crea un store vacío.
func NewStore() *Store {
	return &Store{
		ledgers:        make(map[entity.LedgerKey]*entity.StockLedger),
		boms:           make(map[bomKey]*entity.BOM),
		orders:         make(map[string][]entity.OrderLine),
		requisitions:   make(map[string]*entity.Requisition),
		rfqs:           make(map[string]*entity.RFQ),
		purchaseOrders: make(map[string]*entity.PurchaseOrder),
		receipts:       make(map[string]*entity.GoodsReceipt),
		statuses:       make(map[docKey]docStatus),
		counters:       make(map[string]int64),
	}
}

// Run ejecuta fn con repositorios atados a una transacción en memoria. Las escrituras
// quedan en staging y se publican juntas solo si fn no devuelve error.
func (s *Store) Run(ctx context.Context, fn func(
	ledgers repository.StockLedgerRepository,
	postings repository.StockPostingRepository,
) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tx := newTx(s)
	defer tx.release()

	if err := fn(&LedgerRepository{store: s, tx: tx}, &PostingRepository{store: s, tx: tx}); err != nil {
		return err
	}
	tx.commit()
	return nil
}

// tx transacción en memoria: bloqueos tomados y escrituras pendientes.
type tx struct {
	store *Store

	unlocks   []func()
	shared    map[string]bool
	exclusive map[string]bool
	locked    map[entity.LedgerKey]bool

	staged   map[entity.LedgerKey]*entity.StockLedger
	inserted map[entity.LedgerKey]bool
	replaced map[string][]*entity.StockLedger
	postings []*entity.StockPosting
}

func newTx(s *Store) *tx {
	return &tx{
		store:     s,
		shared:    make(map[string]bool),
		exclusive: make(map[string]bool),
		locked:    make(map[entity.LedgerKey]bool),
		staged:    make(map[entity.LedgerKey]*entity.StockLedger),
		inserted:  make(map[entity.LedgerKey]bool),
		replaced:  make(map[string][]*entity.StockLedger),
	}
}

// lockKey toma el bloqueo compartido del tenant y el exclusivo de la clave, una sola vez por tx.
func (t *tx) lockKey(key entity.LedgerKey) {
	if !t.shared[key.TenantID] && !t.exclusive[key.TenantID] {
		t.unlocks = append(t.unlocks, t.store.tenants.rlock(key.TenantID))
		t.shared[key.TenantID] = true
	}
	if !t.locked[key] {
		t.unlocks = append(t.unlocks, t.store.keys.lock(key.String()))
		t.locked[key] = true
	}
}

func (t *tx) lockTenant(tenantID string) error {
	if t.exclusive[tenantID] {
		return nil
	}
	if t.shared[tenantID] {
		return errors.New("memory: no se puede escalar el bloqueo del tenant dentro de la misma transacción")
	}
	t.unlocks = append(t.unlocks, t.store.tenants.lock(tenantID))
	t.exclusive[tenantID] = true
	return nil
}

func (t *tx) commit() {
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for tenantID, list := range t.replaced {
		for k := range s.ledgers {
			if k.TenantID == tenantID {
				delete(s.ledgers, k)
			}
		}
		for _, l := range list {
			s.ledgers[l.LedgerKey] = l.Clone()
		}
	}
	for k, l := range t.staged {
		s.ledgers[k] = l.Clone()
	}
	for _, p := range t.postings {
		s.seq++
		p.Seq = s.seq
		s.postings = append(s.postings, *p)
	}
}

// release libera los bloqueos en orden inverso.
func (t *tx) release() {
	for i := len(t.unlocks) - 1; i >= 0; i-- {
		t.unlocks[i]()
	}
	t.unlocks = nil
}
