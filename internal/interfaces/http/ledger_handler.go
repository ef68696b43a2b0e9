package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-mrp/internal/application/dto"
	"github.com/jhoicas/inventario-mrp/internal/application/ledger"
	"github.com/jhoicas/inventario-mrp/internal/domain/entity"
)

// LedgerHandler maneja entradas, salidas y consultas del kardex (protegido).
type LedgerHandler struct {
	uc *ledger.UseCase
}

// NewLedgerHandler construye el handler.
func NewLedgerHandler(uc *ledger.UseCase) *LedgerHandler {
	return &LedgerHandler{uc: uc}
}

func dateOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

// PostEntry godoc
// @Summary      Registrar entrada de stock
// @Tags         ledger
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.PostEntryRequest  true  "material, warehouse, unit, quantity, critical_level opcional"
// @Success      201   {object}  dto.LedgerResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/ledger/entries [post]
func (h *LedgerHandler) PostEntry(c *fiber.Ctx) error {
	tenantID := GetCompanyID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	var in dto.PostEntryRequest
	if !bindAndValidate(c, &in) {
		return nil
	}
	l, err := h.uc.PostEntry(c.UserContext(), ledger.EntryInput{
		TenantID:      tenantID,
		Material:      in.Material,
		Warehouse:     in.Warehouse,
		Unit:          in.Unit,
		Quantity:      in.Quantity,
		EmployeeID:    GetUserID(c),
		Date:          dateOrZero(in.Date),
		CriticalLevel: in.CriticalLevel,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToLedgerResponse(l))
}

// PostOutput godoc
// @Summary      Registrar salida de stock
// @Tags         ledger
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.PostOutputRequest  true  "material, warehouse, quantity"
// @Success      201   {object}  dto.LedgerResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/ledger/outputs [post]
func (h *LedgerHandler) PostOutput(c *fiber.Ctx) error {
	tenantID := GetCompanyID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	var in dto.PostOutputRequest
	if !bindAndValidate(c, &in) {
		return nil
	}
	l, err := h.uc.PostOutput(c.UserContext(), ledger.OutputInput{
		TenantID:   tenantID,
		Material:   in.Material,
		Warehouse:  in.Warehouse,
		Unit:       in.Unit,
		Quantity:   in.Quantity,
		EmployeeID: GetUserID(c),
		Date:       dateOrZero(in.Date),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToLedgerResponse(l))
}

// ListStatus godoc
// @Summary      Estado del kardex
// @Description  Lista los kardex del tenant ordenados por bodega y material, con semáforo.
// @Tags         ledger
// @Security     Bearer
// @Produce      json
// @Param        warehouse  query  string  false  "Filtrar por bodega"
// @Param        material   query  string  false  "Filtrar por material"
// @Success      200  {object}  dto.LedgerListResponse
// @Router       /api/ledger/status [get]
func (h *LedgerHandler) ListStatus(c *fiber.Ctx) error {
	tenantID := GetCompanyID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	list, err := h.uc.ListStatus(c.UserContext(), tenantID, c.Query("warehouse"), c.Query("material"))
	if err != nil {
		return writeError(c, err)
	}
	items := make([]dto.LedgerResponse, 0, len(list))
	for _, l := range list {
		items = append(items, dto.ToLedgerResponse(l))
	}
	return c.JSON(dto.LedgerListResponse{Items: items, Total: len(items)})
}

// ListPostings godoc
// @Summary      Histórico de movimientos de un kardex
// @Tags         ledger
// @Security     Bearer
// @Produce      json
// @Param        material   query  string  true   "Material"
// @Param        warehouse  query  string  false  "Bodega"
// @Param        limit      query  int     false  "Límite (máximo 500)"  default(50)
// @Param        offset     query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.PostingListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/ledger/postings [get]
func (h *LedgerHandler) ListPostings(c *fiber.Ctx) error {
	tenantID := GetCompanyID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	var page dto.PageRequest
	if !bindQueryAndValidate(c, &page) {
		return nil
	}
	page.Normalize()
	key := entity.LedgerKey{TenantID: tenantID, Material: c.Query("material"), Warehouse: c.Query("warehouse")}
	list, err := h.uc.ListPostings(c.UserContext(), key, page.Limit, page.Offset)
	if err != nil {
		return writeError(c, err)
	}
	items := make([]dto.PostingResponse, 0, len(list))
	for _, p := range list {
		items = append(items, dto.ToPostingResponse(p))
	}
	return c.JSON(dto.PostingListResponse{Items: items, Page: page.Page()})
}

// Rebuild godoc
// @Summary      Reconstruir kardex desde los movimientos
// @Tags         ledger
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.RebuildResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/ledger/rebuild [post]
func (h *LedgerHandler) Rebuild(c *fiber.Ctx) error {
	tenantID := GetCompanyID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	n, err := h.uc.Rebuild(c.UserContext(), tenantID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.RebuildResponse{Ledgers: n})
}
