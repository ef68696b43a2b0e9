package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-mrp/internal/application/dto"
	"github.com/jhoicas/inventario-mrp/internal/application/procurement"
	"github.com/jhoicas/inventario-mrp/internal/domain"
	"github.com/jhoicas/inventario-mrp/internal/domain/entity"
)

// ProcurementHandler documentos de abastecimiento generados desde el MRP.
type ProcurementHandler struct {
	uc *procurement.UseCase
}

func NewProcurementHandler(uc *procurement.UseCase) *ProcurementHandler {
	return &ProcurementHandler{uc: uc}
}

// kinds segmento de URL -> tipo de documento.
var kinds = map[string]entity.DocumentKind{
	"requisitions":    entity.DocumentRequisition,
	"rfqs":            entity.DocumentRFQ,
	"purchase-orders": entity.DocumentPurchaseOrder,
	"goods-receipts":  entity.DocumentGoodsReceipt,
}

func toSupplierInput(in dto.SuppliersRequest) procurement.SupplierInput {
	return procurement.SupplierInput{Assignment: in.Assignment, DefaultSupplier: in.DefaultSupplier}
}

// CreateRequisition godoc
// @Summary      Crear requisición desde faltantes
// @Tags         procurement
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateRequisitionRequest  true  "rows"
// @Success      201   {object}  dto.DocumentCreatedResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/procurement/requisitions [post]
func (h *ProcurementHandler) CreateRequisition(c *fiber.Ctx) error {
	tenantID := GetCompanyID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	var in dto.CreateRequisitionRequest
	if !bindAndValidate(c, &in) {
		return nil
	}
	id, err := h.uc.CreateRequisition(c.UserContext(), tenantID, dto.ToShortageRows(in.Rows))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.DocumentCreatedResponse{ID: id})
}

// CreateRFQ godoc
// @Summary      Crear solicitud de cotización
// @Tags         procurement
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateRFQRequest  true  "rows, suppliers, due_in_days"
// @Success      201   {object}  dto.DocumentCreatedResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/procurement/rfqs [post]
func (h *ProcurementHandler) CreateRFQ(c *fiber.Ctx) error {
	tenantID := GetCompanyID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	var in dto.CreateRFQRequest
	if !bindAndValidate(c, &in) {
		return nil
	}
	id, err := h.uc.CreateRFQ(c.UserContext(), tenantID, dto.ToShortageRows(in.Rows), toSupplierInput(in.Suppliers), in.DueInDays)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.DocumentCreatedResponse{ID: id})
}

// CreatePurchaseOrders godoc
// @Summary      Crear órdenes de compra (una por proveedor)
// @Description  Responde 207 si alguna orden falló; el cuerpo lista las creadas y las fallidas.
// @Tags         procurement
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreatePurchaseOrdersRequest  true  "rows, suppliers, prices"
// @Success      201   {object}  dto.PurchaseOrderBatchResponse
// @Success      207   {object}  dto.PurchaseOrderBatchResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/procurement/purchase-orders [post]
func (h *ProcurementHandler) CreatePurchaseOrders(c *fiber.Ctx) error {
	tenantID := GetCompanyID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	var in dto.CreatePurchaseOrdersRequest
	if !bindAndValidate(c, &in) {
		return nil
	}
	res, err := h.uc.CreatePurchaseOrders(c.UserContext(), procurement.PurchaseOrderInput{
		TenantID:  tenantID,
		Rows:      dto.ToShortageRows(in.Rows),
		Suppliers: toSupplierInput(in.Suppliers),
		Prices:    in.Prices,
	})

	var partial *domain.PartialBatchError
	if errors.As(err, &partial) && len(partial.Created) > 0 {
		out := dto.PurchaseOrderBatchResponse{
			DocumentIDs:         res.DocumentIDs,
			UnassignedMaterials: res.UnassignedMaterials,
			Failed:              make(map[string]string, len(partial.Failed)),
		}
		for sup, ferr := range partial.Failed {
			out.Failed[sup] = ferr.Error()
		}
		return c.Status(fiber.StatusMultiStatus).JSON(out)
	}
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.PurchaseOrderBatchResponse{
		DocumentIDs:         res.DocumentIDs,
		UnassignedMaterials: res.UnassignedMaterials,
	})
}

// CreateGoodsReceipt godoc
// @Summary      Registrar recepción contra una orden de compra
// @Tags         procurement
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateGoodsReceiptRequest  true  "purchase_order_id"
// @Success      201   {object}  dto.DocumentCreatedResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/procurement/goods-receipts [post]
func (h *ProcurementHandler) CreateGoodsReceipt(c *fiber.Ctx) error {
	tenantID := GetCompanyID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	var in dto.CreateGoodsReceiptRequest
	if !bindAndValidate(c, &in) {
		return nil
	}
	id, err := h.uc.CreateGoodsReceipt(c.UserContext(), tenantID, in.PurchaseOrderID)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.DocumentCreatedResponse{ID: id})
}

// UpdateStatus godoc
// @Summary      Cambiar estado de un documento
// @Tags         procurement
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        kind  path  string                    true  "requisitions | rfqs | purchase-orders | goods-receipts"
// @Param        id    path  string                    true  "ID del documento"
// @Param        body  body  dto.UpdateStatusRequest   true  "status"
// @Success      204
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/procurement/{kind}/{id}/status [patch]
func (h *ProcurementHandler) UpdateStatus(c *fiber.Ctx) error {
	tenantID := GetCompanyID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	kind, ok := kinds[c.Params("kind")]
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "tipo de documento desconocido"})
	}
	var in dto.UpdateStatusRequest
	if !bindAndValidate(c, &in) {
		return nil
	}
	if err := h.uc.UpdateStatus(c.UserContext(), tenantID, kind, c.Params("id"), entity.DocumentStatus(in.Status)); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
