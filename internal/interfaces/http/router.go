package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-mrp/internal/application/catalog"
	"github.com/jhoicas/inventario-mrp/internal/application/ledger"
	"github.com/jhoicas/inventario-mrp/internal/application/mrp"
	"github.com/jhoicas/inventario-mrp/internal/application/procurement"
)

// Roles reconocidos en el claim role del token.
const (
	RoleAdmin     = "admin"
	RoleBodeguero = "bodeguero"
	RoleCompras   = "compras"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Ledger      *ledger.UseCase
	Catalog     *catalog.UseCase
	MRP         *mrp.UseCase
	Procurement *procurement.UseCase
	JWTSecret   string
	// RateLimit se aplica a MRP y compras; nil = sin límite.
	RateLimit fiber.Handler
}

// Router registra las rutas de la API. Todas requieren Bearer Token.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	limited := func(h ...fiber.Handler) []fiber.Handler {
		if deps.RateLimit == nil {
			return h
		}
		return append([]fiber.Handler{deps.RateLimit}, h...)
	}

	// Kardex
	ledgerHandler := NewLedgerHandler(deps.Ledger)
	ledgerGroup := api.Group("/ledger")
	ledgerGroup.Post("/entries", RequireRole(RoleAdmin, RoleBodeguero), ledgerHandler.PostEntry)
	ledgerGroup.Post("/outputs", RequireRole(RoleAdmin, RoleBodeguero), ledgerHandler.PostOutput)
	ledgerGroup.Get("/status", ledgerHandler.ListStatus)
	ledgerGroup.Get("/postings", ledgerHandler.ListPostings)
	ledgerGroup.Post("/rebuild", RequireRole(RoleAdmin), ledgerHandler.Rebuild)

	// Recetas
	catalogHandler := NewCatalogHandler(deps.Catalog)
	boms := api.Group("/catalog/boms")
	boms.Post("/", RequireRole(RoleAdmin), catalogHandler.SaveBOM)
	boms.Get("/", catalogHandler.ListBOMs)
	boms.Get("/:product", catalogHandler.GetBOM)

	// MRP
	mrpHandler := NewMRPHandler(deps.MRP)
	api.Post("/mrp/run", limited(mrpHandler.Run)...)

	// Compras
	procHandler := NewProcurementHandler(deps.Procurement)
	proc := api.Group("/procurement", limited(RequireRole(RoleAdmin, RoleCompras))...)
	proc.Post("/requisitions", procHandler.CreateRequisition)
	proc.Post("/rfqs", procHandler.CreateRFQ)
	proc.Post("/purchase-orders", procHandler.CreatePurchaseOrders)
	proc.Post("/goods-receipts", procHandler.CreateGoodsReceipt)
	proc.Patch("/:kind/:id/status", procHandler.UpdateStatus)
}
