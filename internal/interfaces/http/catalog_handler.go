package http

import (
	"net/url"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-mrp/internal/application/catalog"
	"github.com/jhoicas/inventario-mrp/internal/application/dto"
)

// CatalogHandler recetas (BOM) del tenant.
type CatalogHandler struct {
	uc *catalog.UseCase
}

func NewCatalogHandler(uc *catalog.UseCase) *CatalogHandler {
	return &CatalogHandler{uc: uc}
}

// SaveBOM godoc
// @Summary      Crear o reemplazar receta
// @Tags         catalog
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.SaveBOMRequest  true  "product o sku, version, lines"
// @Success      201   {object}  dto.BOMResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/catalog/boms [post]
func (h *CatalogHandler) SaveBOM(c *fiber.Ctx) error {
	tenantID := GetCompanyID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	var in dto.SaveBOMRequest
	if !bindAndValidate(c, &in) {
		return nil
	}
	bom, err := h.uc.SaveBOM(c.UserContext(), in.ToEntity(tenantID))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToBOMResponse(bom))
}

// ListBOMs godoc
// @Summary      Listar recetas
// @Tags         catalog
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.BOMResponse
// @Router       /api/catalog/boms [get]
func (h *CatalogHandler) ListBOMs(c *fiber.Ctx) error {
	tenantID := GetCompanyID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	list, err := h.uc.ListBOMs(c.UserContext(), tenantID)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.BOMResponse, 0, len(list))
	for _, b := range list {
		out = append(out, dto.ToBOMResponse(b))
	}
	return c.JSON(out)
}

// GetBOM godoc
// @Summary      Obtener receta de un producto
// @Tags         catalog
// @Security     Bearer
// @Produce      json
// @Param        product  path   string  true   "Producto"
// @Param        version  query  string  false  "Versión"
// @Success      200  {object}  dto.BOMResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/catalog/boms/{product} [get]
func (h *CatalogHandler) GetBOM(c *fiber.Ctx) error {
	tenantID := GetCompanyID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	product, err := url.PathUnescape(c.Params("product"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_PARAM", Message: "producto inválido"})
	}
	bom, err := h.uc.GetBOM(c.UserContext(), tenantID, product, c.Query("version"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ToBOMResponse(bom))
}
