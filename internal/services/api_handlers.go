package services

import (
	"context"
	"time"

	"photoedit/types"

	"github.com/gofiber/fiber/v2"
)

const backendProbeTimeout = 2 * time.Second

func (a *Api) Health() fiber.Handler {
	return func(ctx *fiber.Ctx) error {

		backendStatus := "ok"
		probeCtx, cancel := context.WithTimeout(ctx.UserContext(), backendProbeTimeout)
		defer cancel()
		if _, err := a.backend.Health(probeCtx); err != nil {
			HttpLogger("health", ctx).Debug("backend probe failed", "err", err)
			backendStatus = "unreachable"
		}

		return ctx.Status(fiber.StatusOK).JSON(types.HealthResponse{
			Status:        fiber.StatusOK,
			TimeStamp:     time.Now().Unix(),
			Backend:       a.backend.BaseURL(),
			BackendStatus: backendStatus,
		})
	}
}
