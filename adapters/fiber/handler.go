package fiber

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v3"

	"github.com/adionit7/devstarter/core"
)

func handleHealth(c fiber.Ctx) error {
	// Public health check. No auth. No DB hit.
	return c.JSON(fiber.Map{
		"status":  "healthy",
		"service": "devstarter",
	})
}

func handleRegister(handler core.Handler) fiber.Handler {
	return func(c fiber.Ctx) error {
		var input core.RegisterInput
		if err := c.Bind().Body(&input); err != nil {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid request body",
			})
		}

		result, err := handler.Register(c.Context(), input)
		if err != nil {
			return handleCoreError(c, err)
		}

		return c.Status(http.StatusCreated).JSON(result)
	}
}

func handleLogin(handler core.Handler) fiber.Handler {
	return func(c fiber.Ctx) error {
		var input core.LoginInput
		if err := c.Bind().Body(&input); err != nil {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid request body",
			})
		}

		result, err := handler.Login(c.Context(), input)
		if err != nil {
			return handleCoreError(c, err)
		}

		return c.Status(http.StatusOK).JSON(result)
	}
}

func handleMe(c fiber.Ctx) error {
	return c.JSON(currentAccount(c).Public())
}

func handleReview(handler core.Handler) fiber.Handler {
	return func(c fiber.Ctx) error {
		var input core.ReviewInput
		if err := c.Bind().Body(&input); err != nil {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid request body",
			})
		}

		result, err := handler.Review(c.Context(), input)
		if err != nil {
			return handleCoreError(c, err)
		}

		return c.JSON(result)
	}
}

type checkoutRequest struct {
	Plan string `json:"plan"`
}

func handleCheckout(handler core.Handler) fiber.Handler {
	return func(c fiber.Ctx) error {
		var input checkoutRequest
		if err := c.Bind().Body(&input); err != nil {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid request body",
			})
		}

		url, err := handler.StartCheckout(c.Context(), currentAccount(c), core.Plan(input.Plan))
		if err != nil {
			return handleCoreError(c, err)
		}

		return c.JSON(fiber.Map{"checkout_url": url})
	}
}

func handleSubscription(handler core.Handler) fiber.Handler {
	return func(c fiber.Ctx) error {
		return c.JSON(handler.Subscription(currentAccount(c)))
	}
}

// handleWebhook hands the exact raw request bytes to the processor; the
// signature was computed over them and any re-serialization would break
// verification.
func handleWebhook(handler core.Handler) fiber.Handler {
	return func(c fiber.Ctx) error {
		_, err := handler.HandleWebhook(c.Context(), c.Body(), c.Get("Stripe-Signature"))
		if err != nil {
			return handleCoreError(c, err)
		}

		return c.JSON(fiber.Map{"received": true})
	}
}

// handleCoreError maps core errors to structured HTTP responses without
// leaking internal detail.
func handleCoreError(c fiber.Ctx, err error) error {
	status := mapErrorToStatus(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal server error"
	}
	if errors.Is(err, core.ErrUnauthenticated) {
		message = core.ErrUnauthenticated.Error()
	}
	return c.Status(status).JSON(fiber.Map{
		"error": message,
	})
}

func mapErrorToStatus(err error) int {
	switch {
	case errors.Is(err, core.ErrInvalidCredentials),
		errors.Is(err, core.ErrUnauthenticated):
		return http.StatusUnauthorized

	case errors.Is(err, core.ErrAccountDisabled):
		return http.StatusForbidden

	case errors.Is(err, core.ErrDuplicateEmail):
		return http.StatusConflict

	case errors.Is(err, core.ErrAccountNotFound):
		return http.StatusNotFound

	case errors.Is(err, core.ErrInvalidSignature),
		errors.Is(err, core.ErrInvalidPlan),
		errors.Is(err, core.ErrEmailRequired),
		errors.Is(err, core.ErrInvalidEmail),
		errors.Is(err, core.ErrNameRequired),
		errors.Is(err, core.ErrPasswordRequired),
		errors.Is(err, core.ErrPasswordTooShort),
		errors.Is(err, core.ErrPasswordTooLong):
		return http.StatusBadRequest

	case errors.Is(err, core.ErrProviderUnavailable):
		return http.StatusBadGateway

	default:
		return http.StatusInternalServerError
	}
}
