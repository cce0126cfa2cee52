package fiber

import (
	"github.com/gofiber/fiber/v3"

	"github.com/adionit7/devstarter/core"
)

// Adapter mounts the core operations onto a Fiber app. It is thin glue:
// request shape validation, header plumbing and status mapping only.
type Adapter struct {
	app *fiber.App
}

var _ core.HTTPAdapter = (*Adapter)(nil)

func New(app *fiber.App) *Adapter {
	return &Adapter{app: app}
}

func (a *Adapter) RegisterRoutes(handler core.Handler, basePath string) error {
	api := a.app.Group(basePath)

	api.Get("/health", handleHealth)

	auth := api.Group("/auth")
	auth.Post("/register", handleRegister(handler))
	auth.Post("/login", handleLogin(handler))
	auth.Get("/me", requireAuth(handler), handleMe)

	ai := api.Group("/ai")
	ai.Post("/review", requireAuth(handler), handleReview(handler))

	payments := api.Group("/payments")
	payments.Post("/checkout", requireAuth(handler), handleCheckout(handler))
	payments.Get("/subscription", requireAuth(handler), handleSubscription(handler))
	// The webhook is public; the event signature is its authentication.
	payments.Post("/webhook", handleWebhook(handler))

	return nil
}
