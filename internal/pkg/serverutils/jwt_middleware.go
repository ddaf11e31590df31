package serverutils

import (
	"github.com/gofiber/fiber/v2"
)

const AccountIDKey = "account_id"

// JwtMiddleware rejects requests without a valid bearer token and stores
// the account id under AccountIDKey.
func JwtMiddleware(secret string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		tokenStr := BearerToken(ctx.Get("Authorization"))
		if tokenStr == "" {
			return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Missing token"})
		}

		accountID, err := ParseAccountToken(tokenStr, secret)
		if err != nil {
			return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid token"})
		}

		ctx.Locals(AccountIDKey, accountID)
		return ctx.Next()
	}
}
