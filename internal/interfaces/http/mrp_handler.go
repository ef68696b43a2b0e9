package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-mrp/internal/application/dto"
	"github.com/jhoicas/inventario-mrp/internal/application/mrp"
)

// MRPHandler corridas de MRP.
type MRPHandler struct {
	uc *mrp.UseCase
}

func NewMRPHandler(uc *mrp.UseCase) *MRPHandler {
	return &MRPHandler{uc: uc}
}

// Run godoc
// @Summary      Calcular faltantes de materiales
// @Description  Explota las órdenes abiertas (o las enviadas en el body) contra las recetas
//
//	y el stock actual. Devuelve las filas con déficit ordenadas de mayor a menor.
//
// @Tags         mrp
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RunMRPRequest  false  "orders opcional"
// @Success      200   {object}  dto.MRPResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/mrp/run [post]
func (h *MRPHandler) Run(c *fiber.Ctx) error {
	tenantID := GetCompanyID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	var in dto.RunMRPRequest
	if len(c.Body()) > 0 && !bindAndValidate(c, &in) {
		return nil
	}
	rep, err := h.uc.Run(c.UserContext(), tenantID, in.OrderLines())
	if err != nil {
		return writeError(c, err)
	}
	out := dto.MRPResponse{
		GeneratedAt:    rep.GeneratedAt,
		Rows:           make([]dto.ShortageRowDTO, 0, len(rep.Rows)),
		SkippedLines:   rep.SkippedLines,
		ExplodedLines:  rep.ExplodedLines,
		EstimatedTotal: rep.EstimatedTotal,
	}
	for _, r := range rep.Rows {
		out.Rows = append(out.Rows, dto.ToShortageRowDTO(r))
	}
	return c.JSON(out)
}
