package routes

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"

	"github.com/example/vurel/internal/handlers"
	"github.com/example/vurel/internal/middleware"
	"github.com/example/vurel/internal/services"
)

// Services bundles the dependencies the HTTP layer calls into.
type Services struct {
	Auth      *services.AuthService
	Catalog   *services.CatalogService
	Coupons   *services.CouponService
	Orders    *services.OrderService
	Payments  *services.PaymentService
	Dashboard *services.DashboardService
	Customers *services.CustomerService
	Ping      func(ctx context.Context) error
}

// Options tunes HTTP middleware.
type Options struct {
	CORSOrigins  string
	OTPRateLimit int
}

// New creates the fiber app with the shared middleware stack.
func New(lg *zap.Logger, opts Options) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Vurel API",
		ErrorHandler: middleware.ErrorHandler(lg),
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: opts.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(middleware.RequestLogger(lg))

	return app
}

// Register wires up all HTTP routes.
func Register(app *fiber.App, svc Services, opts Options) {
	authHandler := handlers.NewAuthHandler(svc.Auth)
	profileHandler := handlers.NewProfileHandler(svc.Auth)
	productHandler := handlers.NewProductHandler(svc.Catalog)
	orderHandler := handlers.NewOrderHandler(svc.Orders)
	paymentHandler := handlers.NewPaymentHandler(svc.Payments)
	couponHandler := handlers.NewCouponHandler(svc.Coupons)
	adminHandler := handlers.NewAdminHandler(svc.Dashboard, svc.Orders, svc.Customers)
	healthHandler := handlers.NewHealthHandler(svc.Ping)

	requireAuth := middleware.RequireAuth(svc.Auth)
	otpLimit := middleware.OTPLimiter(opts.OTPRateLimit)

	api := app.Group("/api")
	api.Get("/health", healthHandler.Health)

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Get("/me", requireAuth, authHandler.Me)
	auth.Post("/send-otp", otpLimit, authHandler.SendOTP)
	auth.Post("/verify-otp", authHandler.VerifyOTP)
	auth.Post("/register-with-otp", otpLimit, authHandler.RegisterWithOTP)
	auth.Post("/forgot-password", otpLimit, authHandler.ForgotPassword)
	auth.Post("/reset-password", authHandler.ResetPassword)

	// Catalog
	productHandler.RegisterPublicRoutes(api.Group("/products"))

	// Checkout
	api.Post("/orders", orderHandler.CreateOrder)
	api.Post("/coupons/validate", couponHandler.Validate)
	api.Post("/payment/create-order", paymentHandler.CreateOrder)
	api.Post("/payment/verify", paymentHandler.Verify)

	// Customer routes
	user := api.Group("/user")
	user.Get("/profile", requireAuth, profileHandler.GetProfile)
	user.Put("/profile", requireAuth, profileHandler.UpdateProfile)
	user.Get("/orders", requireAuth, orderHandler.ListOrders)
	user.Get("/orders/:id", middleware.OptionalAuth(svc.Auth), orderHandler.GetOrder)

	// Admin routes
	admin := api.Group("/admin", requireAuth, middleware.RequireAdmin())
	admin.Get("/dashboard", adminHandler.DashboardStats)
	admin.Get("/transactions", adminHandler.Transactions)
	admin.Get("/orders", adminHandler.ListOrders)
	admin.Put("/orders/:id", adminHandler.UpdateOrderStatus)

	admin.Get("/customers", adminHandler.ListCustomers)
	admin.Get("/customers/:id", adminHandler.GetCustomer)
	admin.Get("/customers/:id/orders", adminHandler.CustomerOrders)
	admin.Get("/customers/:id/addresses", adminHandler.CustomerAddresses)

	productHandler.RegisterAdminRoutes(admin.Group("/products"))

	admin.Get("/coupons", couponHandler.ListCoupons)
	admin.Post("/coupons", couponHandler.CreateCoupon)
	admin.Put("/coupons/:id", couponHandler.UpdateCoupon)
	admin.Delete("/coupons/:id", couponHandler.DeleteCoupon)
}
