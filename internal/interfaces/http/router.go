package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/jhoicas/stock-api/internal/application/auth"
	"github.com/jhoicas/stock-api/internal/application/dto"
	"github.com/jhoicas/stock-api/internal/application/stock"
	"github.com/jhoicas/stock-api/internal/application/usecase"
	"github.com/jhoicas/stock-api/internal/domain/entity"
)

// defaultLoginAttemptsPerMinute intentos de login por IP y minuto.
const defaultLoginAttemptsPerMinute = 20

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC      *auth.AuthUseCase
	UserUC      *usecase.UserUseCase
	ProductUC   *usecase.ProductUseCase
	Ledger      *stock.LedgerUseCase
	Reporting   *stock.ReportingUseCase
	JWTSecret   string
	ServiceName string
	DB          Pinger // nil = health sin chequeo de base de datos
	// LoginAttemptsPerMinute 0 = defaultLoginAttemptsPerMinute.
	LoginAttemptsPerMinute int
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", NewHealthHandler(deps.ServiceName, deps.DB).Check)

	api := app.Group("/api")
	requireAuth := AuthMiddleware(deps.JWTSecret, deps.AuthUC)

	// Auth
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/login", loginLimiter(deps.LoginAttemptsPerMinute), authHandler.Login)
	authGroup.Post("/forgot-password", authHandler.ForgotPassword)
	authGroup.Post("/reset-password", authHandler.ResetPassword)
	authGroup.Post("/logout", requireAuth, authHandler.Logout)

	// Users: el registro es público, el resto requiere token.
	users := api.Group("/users")
	userHandler := NewUserHandler(deps.UserUC)
	users.Post("/", userHandler.Create)
	users.Get("/", requireAuth, userHandler.List)
	users.Patch("/password", requireAuth, userHandler.UpdatePassword)
	users.Patch("/role/:id", requireAuth, RequireRole(entity.RoleAdmin), userHandler.UpdateRole)
	users.Get("/:id", requireAuth, userHandler.GetByID)
	users.Put("/:id", requireAuth, userHandler.Update)
	users.Delete("/:id", requireAuth, userHandler.Delete)

	// Products (protegido)
	products := api.Group("/products", requireAuth)
	productHandler := NewProductHandler(deps.ProductUC)
	products.Post("/", productHandler.Create)
	products.Get("/", productHandler.List)
	products.Get("/count", productHandler.Count)
	products.Get("/period", productHandler.FindByPeriod)
	products.Get("/category/:category", productHandler.FindByCategory)
	products.Get("/:id", productHandler.GetByID)
	products.Put("/:id", productHandler.Update)
	products.Delete("/:id", productHandler.Delete)

	// Stock (protegido; el ajuste absoluto solo ADMIN)
	stockGroup := api.Group("/stock", requireAuth)
	stockHandler := NewStockHandler(deps.Ledger, deps.Reporting)
	stockGroup.Post("/add/:productId", stockHandler.Add)
	stockGroup.Post("/remove/:productId", stockHandler.Remove)
	stockGroup.Post("/adjust/:productId", RequireRole(entity.RoleAdmin), stockHandler.Adjust)
	stockGroup.Get("/low", stockHandler.LowStock)
	stockGroup.Get("/movements", stockHandler.AllMovements)
	stockGroup.Get("/movements/:productId", stockHandler.MovementsByProduct)
	stockGroup.Get("/summary", stockHandler.Summary)
	stockGroup.Get("/verify/:productId", stockHandler.Verify)
}

func loginLimiter(perMinute int) fiber.Handler {
	if perMinute <= 0 {
		perMinute = defaultLoginAttemptsPerMinute
	}
	return limiter.New(limiter.Config{
		Max:        perMinute,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.ErrorResponse{Code: "TOO_MANY_REQUESTS", Message: "demasiados intentos de login, intente en un minuto"})
		},
	})
}
