package fiber

import (
	"github.com/gofiber/fiber/v3"

	"github.com/adionit7/devstarter/core"
)

const accountLocal = "account"

// requireAuth validates the bearer token, resolves the live account and
// stores it in the context for downstream handlers. Every failure mode
// collapses to a bare 401; no token internals reach the client.
func requireAuth(handler core.Handler) fiber.Handler {
	return func(c fiber.Ctx) error {
		account, err := handler.Authenticate(c.Context(), c.Get(fiber.HeaderAuthorization))
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": core.ErrUnauthenticated.Error(),
			})
		}

		c.Locals(accountLocal, account)
		return c.Next()
	}
}

// currentAccount retrieves the account stored by requireAuth.
func currentAccount(c fiber.Ctx) *core.Account {
	account, _ := c.Locals(accountLocal).(*core.Account)
	return account
}
