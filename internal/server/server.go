// Package server assembles the fiber application: middleware, error handling,
// the health check and every API route.
package server

import (
	"sort"
	"time"

	"storefront/internal/handlers"
	"storefront/internal/middleware"
	"storefront/internal/services"
	"storefront/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

// RequestIDHeader carries the correlation id of every request and response.
const RequestIDHeader = "X-Correlation-Id"

// Services are the application services the routes delegate to.
type Services struct {
	Auth     *services.AuthService
	Products *services.ProductService
	Carts    *services.CartService
	Orders   *services.OrderService
	Tokens   middleware.TokenVerifier
}

// HealthCheck reports whether a dependency is usable.
type HealthCheck func() error

// Options tune the application.
type Options struct {
	CORSAllowOrigins string
	// HealthChecks are run by GET /health, keyed by dependency name.
	HealthChecks map[string]HealthCheck
	// DisableAccessLog silences the request logger, e.g. in tests.
	DisableAccessLog bool
}

// New builds the fiber app.
func New(svc Services, v *validation.Validator, opts Options) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "storefront",
		ErrorHandler: handlers.ErrorHandler,
	})

	app.Use(requestid.New(requestid.Config{Header: RequestIDHeader}))
	app.Use(recover.New())
	if !opts.DisableAccessLog {
		app.Use(logger.New(logger.Config{
			Format: "${time} [${locals:requestid}] ${status} - ${latency} ${method} ${path}\n",
		}))
	}
	allowOrigins := opts.CORSAllowOrigins
	if allowOrigins == "" {
		allowOrigins = "*"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: allowOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, " + RequestIDHeader,
	}))

	app.Get("/health", healthHandler(opts.HealthChecks))

	gate := middleware.NewAuthGate(svc.Tokens)
	api := app.Group("/api")
	handlers.NewAuthHandler(svc.Auth, v).RegisterRoutes(api)
	handlers.NewProductHandler(svc.Products).RegisterRoutes(api)
	handlers.NewCartHandler(svc.Carts, gate).RegisterRoutes(api)
	handlers.NewOrderHandler(svc.Orders, gate, v).RegisterRoutes(api)

	return app
}

func healthHandler(checks map[string]HealthCheck) fiber.Handler {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(c *fiber.Ctx) error {
		status := "healthy"
		code := fiber.StatusOK
		results := make(fiber.Map, len(names))
		for _, name := range names {
			if err := checks[name](); err != nil {
				results[name] = err.Error()
				status = "unhealthy"
				code = fiber.StatusServiceUnavailable
				continue
			}
			results[name] = "up"
		}
		return c.Status(code).JSON(fiber.Map{
			"status": status,
			"time":   time.Now().Format(time.RFC3339),
			"checks": results,
		})
	}
}
