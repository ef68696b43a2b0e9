package http

import (
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/jhoicas/inventario-mrp/internal/application/dto"
)

// RateLimit limita las peticiones por tenant (o por IP si aún no hay tenant en el contexto).
// rate usa el formato de limiter: "60-M", "1000-H".
func RateLimit(rate string, log zerolog.Logger) (fiber.Handler, error) {
	r, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, fmt.Errorf("rate limit %q: %w", rate, err)
	}
	instance := limiter.New(memory.NewStore(), r)

	return func(c *fiber.Ctx) error {
		key := GetCompanyID(c)
		if key == "" {
			key = c.IP()
		}
		lc, err := instance.Get(c.UserContext(), key)
		if err != nil {
			// si el store falla se deja pasar la petición
			log.Warn().Err(err).Str("key", key).Msg("rate limit no disponible")
			return c.Next()
		}
		c.Set("X-RateLimit-Limit", strconv.FormatInt(lc.Limit, 10))
		c.Set("X-RateLimit-Remaining", strconv.FormatInt(lc.Remaining, 10))
		c.Set("X-RateLimit-Reset", strconv.FormatInt(lc.Reset, 10))
		if lc.Reached {
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.ErrorResponse{Code: "RATE_LIMITED", Message: "demasiadas peticiones, intente más tarde"})
		}
		return c.Next()
	}, nil
}
