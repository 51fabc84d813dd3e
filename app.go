package main

import (
	"context"
	"log"

	"storefront/internal/config"
	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/server"
	"storefront/internal/services"
	"storefront/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Repositories groups the data access layer handed to the services.
type Repositories struct {
	Users    repositories.UserRepository
	Products repositories.ProductRepository
	Carts    repositories.CartRepository
	Orders   repositories.OrderRepository
}

// NewGORMRepositories builds the repositories over an open database.
func NewGORMRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Users:    repositories.NewGORMUserRepository(db),
		Products: repositories.NewGORMProductRepository(db),
		Carts:    repositories.NewGORMCartRepository(db),
		Orders:   repositories.NewGORMOrderRepository(db),
	}
}

// NewMemoryRepositories builds process-local repositories for DB_DRIVER=memory.
func NewMemoryRepositories() Repositories {
	products := repositories.NewMemoryProductRepository()
	carts := repositories.NewMemoryCartRepository(products)
	return Repositories{
		Users:    repositories.NewMemoryUserRepository(),
		Products: products,
		Carts:    carts,
		Orders:   repositories.NewMemoryOrderRepository(carts),
	}
}

// App is the assembled application.
type App struct {
	Fiber    *fiber.App
	Products *services.ProductService
}

// NewApp wires services and routes. publisher may be nil.
func NewApp(cfg *config.Config, repos Repositories, publisher services.OrderEventPublisher, opts server.Options) *App {
	v := validation.New()
	tokens := services.NewTokenService(cfg.JWTSecret)

	products := services.NewProductService(repos.Products, v)
	svc := server.Services{
		Auth:     services.NewAuthService(repos.Users, tokens, v),
		Products: products,
		Carts:    services.NewCartService(repos.Carts, repos.Products, v, cfg.CartMergeByVariant),
		Orders:   services.NewOrderService(repos.Orders, publisher),
		Tokens:   tokens,
	}

	if opts.CORSAllowOrigins == "" {
		opts.CORSAllowOrigins = cfg.CORSAllowOrigins
	}
	return &App{
		Fiber:    server.New(svc, v, opts),
		Products: products,
	}
}

// seedProducts fills an empty catalogue with a few sample products.
func seedProducts(ctx context.Context, products *services.ProductService) {
	page, err := products.List(ctx, 1, 1, "")
	if err != nil {
		log.Printf("Skipping product seed: %v", err)
		return
	}
	if page.Total > 0 {
		return
	}

	samples := []models.Product{
		{Title: "Classic Tee", Description: "Cotton crew neck t-shirt", Price: decimal.RequireFromString("19.99"), Stock: 50,
			Category: "Men", Sizes: []string{"S", "M", "L", "XL"}, Colors: []string{"White", "Black"}},
		{Title: "Summer Dress", Description: "Light linen dress", Price: decimal.RequireFromString("49.50"), Stock: 20,
			Category: "Women", Sizes: []string{"XS", "S", "M"}, Colors: []string{"Blue"}},
		{Title: "Kids Hoodie", Description: "Fleece hoodie", Price: decimal.RequireFromString("29.00"), Stock: 30,
			Category: "Kids", Sizes: []string{"4Y", "6Y", "8Y"}},
	}
	for i := range samples {
		if err := products.Create(ctx, &samples[i]); err != nil {
			log.Printf("Error seeding product %s: %v", samples[i].Title, err)
			continue
		}
		log.Printf("Seeded product: %s (ID: %s)", samples[i].Title, samples[i].ID)
	}
}
