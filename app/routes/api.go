// Package routes wires controllers onto the router.
package routes

import (
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/herbveda/storefront/app/controllers"
	"github.com/herbveda/storefront/app/repositories"
	"github.com/herbveda/storefront/app/services"
	"github.com/herbveda/storefront/config"
	"github.com/herbveda/storefront/pkg/metrics"
	"github.com/herbveda/storefront/pkg/middleware"
	"github.com/herbveda/storefront/pkg/response"
	"github.com/herbveda/storefront/pkg/router"
)

// RegisterAPI mounts every endpoint. Repositories and services are built
// here, once, from the live database handle.
func RegisterAPI(r *router.Router, db *mongo.Database) {
	users := repositories.NewUserRepository(db)
	otps := repositories.NewOtpRepository(db)
	orders := repositories.NewOrderRepository(db)

	authController := controllers.NewAuthController(services.NewAuthService(users))
	otpController := controllers.NewOtpController(services.NewOtpService(users, otps))
	orderController := controllers.NewOrderController(services.NewOrderService(users, orders))
	contactController := controllers.NewContactController(services.NewContactService())

	r.Get("/", "health", func(w http.ResponseWriter, _ *http.Request) {
		response.Success(w, map[string]any{"ok": true, "name": "Herb & Veda Ayurvedic Company API"})
	})
	r.Get("/metrics", "metrics", metrics.Handler())

	api := r.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/login", "auth.login", authController.Login)
	auth.Post("/register", "auth.register", authController.Register)
	auth.Post("/password/forgot", "auth.password.forgot", authController.ForgotPassword)
	auth.Post("/password/reset", "auth.password.reset", authController.ResetPassword)

	authed := auth.Group("", middleware.Auth)
	authed.Get("/me", "auth.me", func(w http.ResponseWriter, r *http.Request) {
		claims := middleware.UserFromCtx(r.Context())
		response.Success(w, map[string]any{"user": map[string]any{
			"id":    claims.Subject,
			"email": claims.Email,
			"name":  claims.Name,
		}})
	})
	authed.Put("/profile", "auth.profile", authController.UpdateProfile)

	// Code-request endpoints send email; rate-limit them per IP.
	limit := middleware.RateLimit(config.OtpRequestRate(), time.Minute)
	otp := api.Group("/otp")
	otp.Post("/login/request", "otp.login.request", otpController.RequestLogin, limit)
	otp.Post("/login/verify", "otp.login.verify", otpController.VerifyLogin)
	otp.Post("/register/request", "otp.register.request", otpController.RequestRegister, limit)
	otp.Post("/register", "otp.register.request.alias", otpController.RequestRegister, limit)
	otp.Post("/register/verify", "otp.register.verify", otpController.VerifyRegister)

	ordersGroup := api.Group("/orders", middleware.Auth)
	ordersGroup.Post("/", "orders.create", orderController.Create)
	ordersGroup.Get("/", "orders.list", orderController.List)
	ordersGroup.Get("/summary/by-product", "orders.summary", orderController.Summary)
	ordersGroup.Get("/{orderId}", "orders.get", orderController.Get)
	ordersGroup.Patch("/{orderId}/status", "orders.status", orderController.UpdateStatus)

	contact := api.Group("/contact", middleware.Auth)
	contact.Post("/", "contact.send", contactController.Send)
}
