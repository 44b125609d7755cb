package router

import (
	"net"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	redisstorage "github.com/gofiber/storage/redis"

	"github.com/dollarchain/creditrail/app/controllers"
	"github.com/dollarchain/creditrail/internal/pkg/cache"
	"github.com/dollarchain/creditrail/internal/pkg/env"
	"github.com/dollarchain/creditrail/internal/pkg/middleware"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	// The webhook route stays outside the limiter. Provider redelivery
	// bursts must never be throttled into missed notifications.
	app.Post("/webhooks/payment", controllers.HandlePaymentWebhook)

	rate := limiter.New(limiter.Config{
		Max:        60,
		Expiration: 1 * time.Minute,
		Storage:    newLimiterStorage(),
	})

	credits := app.Group("/credits", rate)
	credits.Get("/", controllers.HandleGetCredits)
	credits.Post("/use", controllers.HandleUseCredits)

	payments := app.Group("/payments", rate)
	payments.Post("/checkout", controllers.HandleCheckout)
	payments.Post("/mobile-charge", controllers.HandleMobileCharge)
	payments.Post("/verify", controllers.HandleVerifyPayment)

	admin := app.Group("/admin", middleware.MasterKeyMiddleware())
	admin.Post("/credits/add", controllers.HandleAdminAddCredits)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}

// newLimiterStorage backs the rate limiter with Redis so counters
// survive restarts and are shared across instances. Uses database 1,
// the balance cache uses database 0.
func newLimiterStorage() *redisstorage.Storage {
	host := env.GetEnv("CACHE_HOST", "localhost")
	port := 6379
	password := env.GetEnv("CACHE_PASSWORD", "")
	if client := cache.GetClient(); client != nil {
		addr := client.Options().Addr
		if h, p, err := net.SplitHostPort(addr); err == nil {
			host = h
			if v, err := strconv.Atoi(p); err == nil {
				port = v
			}
		}
		if p := client.Options().Password; p != "" {
			password = p
		}
	}

	return redisstorage.New(redisstorage.Config{
		Host:     host,
		Port:     port,
		Password: password,
		Database: 1,
		Reset:    false,
	})
}
