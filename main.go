package main

import (
	"fmt"
	"log"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/dollarchain/creditrail/internal/pkg/cache"
	"github.com/dollarchain/creditrail/internal/pkg/database"
	"github.com/dollarchain/creditrail/internal/pkg/env"
	"github.com/dollarchain/creditrail/internal/pkg/paystack"
	"github.com/dollarchain/creditrail/internal/pkg/reconcile"
	"github.com/dollarchain/creditrail/internal/pkg/router"
)

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()

	app := fiber.New(fiber.Config{
		BodyLimit: 1 << 20, // webhook and API payloads are small JSON bodies
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// fiber metrics
	app.Get("/metrics", basicauth.New(basicauth.Config{
		Users: map[string]string{
			"admin": env.GetEnv("METRICS_PASSWORD", "test"),
		},
	}), monitor.New())

	// SWAGGER / OPENAPI
	openAPICfg := swagger.Config{
		BasePath: "/docs/api/",
		FilePath: "./public/docs/v1/openapi.yml",
		Path:     "v1",
	}
	app.Use(swagger.New(openAPICfg))

	// ROUTER
	router.InstallRouter(app)

	// retry drainer and recovery sweep
	startReconcileWorker()

	return app
}

func startReconcileWorker() {
	secret := env.GetEnv("PAYSTACK_WEBHOOK_SECRET", "")
	if secret == "" {
		secret = env.GetEnv("PAYSTACK_SECRET_KEY", "")
	}

	svc := reconcile.NewServiceFromDB(database.GetDB(), paystack.NewClientFromEnv(), secret)
	reconcile.NewDrainer(svc).Start()
}
