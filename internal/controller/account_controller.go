package controller

import (
	"errors"

	"mpersona-be/internal/dto"
	"mpersona-be/internal/pkg/serverutils"
	"mpersona-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// ProviderStatus reports which provider selectors are activated.
type ProviderStatus interface {
	Status() map[string]bool
}

type AccountController interface {
	RegisterRoutes(api fiber.Router, jwtMiddleware fiber.Handler)
	GetProviders(ctx *fiber.Ctx) error
	GetUsage(ctx *fiber.Ctx) error
}

type accountController struct {
	accountService  service.IAccountService
	providers       ProviderStatus
	defaultProvider string
}

func NewAccountController(accountService service.IAccountService, providers ProviderStatus, defaultProvider string) AccountController {
	return &accountController{
		accountService:  accountService,
		providers:       providers,
		defaultProvider: defaultProvider,
	}
}

func (c *accountController) RegisterRoutes(api fiber.Router, jwtMiddleware fiber.Handler) {
	// Public endpoints
	api.Get("/providers", c.GetProviders)

	// Authenticated endpoints
	api.Get("/usage", jwtMiddleware, c.GetUsage)
}

// GetProviders returns the activation state of every provider selector
// @Tags Providers
// @Produce json
// @Success 200 {object} dto.ProvidersResponse
// @Router /api/providers [get]
func (c *accountController) GetProviders(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Providers retrieved", dto.ProvidersResponse{
		Providers: c.providers.Status(),
		Default:   c.defaultProvider,
	}))
}

// GetUsage returns the character counters of the authenticated account
// @Tags Account
// @Security BearerAuth
// @Produce json
// @Success 200 {object} dto.UsageResponse
// @Router /api/usage [get]
func (c *accountController) GetUsage(ctx *fiber.Ctx) error {
	accountId, ok := ctx.Locals(serverutils.AccountIDKey).(uuid.UUID)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(401, "Unauthorized"))
	}

	res, err := c.accountService.GetUsage(ctx.UserContext(), accountId)
	if errors.Is(err, service.ErrAccountNotFound) {
		return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, "Account not found"))
	}
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, "Could not load usage"))
	}

	return ctx.JSON(serverutils.SuccessResponse("Usage retrieved", res))
}
