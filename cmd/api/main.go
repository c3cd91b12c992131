package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"scannimart/internal/handler"
	"scannimart/internal/middleware"
	"scannimart/internal/model"
	"scannimart/internal/repository"
	"scannimart/internal/service"
	"scannimart/internal/ws"
	"scannimart/pkg/config"
	"scannimart/pkg/database"
	"scannimart/pkg/jwt"
	"scannimart/pkg/logger"
	"scannimart/pkg/metrics"
	redisclient "scannimart/pkg/redis"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// 1. Load Env
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger.New(logger.Options{ServiceName: "scannimart"}).Error(context.Background(), "load config", err)
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		ServiceName: cfg.App.Name,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if envErr != nil {
		log.Warn(ctx, ".env file not found, relying on system env")
	}

	// 2. Setup Database
	db, err := database.Connect(cfg.DB, !cfg.App.IsProd())
	if err != nil {
		log.Error(ctx, "connect database", err)
		os.Exit(1)
	}
	// AutoMigrate is fine for this schema; move to a migration tool once it stops being additive.
	if err := db.AutoMigrate(model.All()...); err != nil {
		log.Error(ctx, "migrate schema", err)
		os.Exit(1)
	}

	// 3. Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// 4. WebSocket hub, fanned out through redis when configured
	hub := ws.NewHub(log)
	go hub.Run(ctx)

	var publisher service.Publisher = hub
	var sessions service.SessionStore
	if cfg.Redis.Enabled() {
		rdb, err := redisclient.New(ctx, cfg.Redis)
		if err != nil {
			log.Error(ctx, "connect redis", err)
			os.Exit(1)
		}
		defer rdb.Close()

		relay := ws.NewRedisRelay(rdb, cfg.Redis.Channel, hub, log)
		go relay.Run(ctx)
		publisher = relay
		sessions = service.NewRedisSessionStore(rdb, cfg.Gate.SessionTTL)
		log.Info(ctx, "redis enabled for gate sessions and events")
	} else {
		sessions = service.NewMemorySessionStore(cfg.Gate.SessionTTL)
	}

	// 5. Optional AI model
	var genModel service.ContentGenerator
	if cfg.AI.Enabled() {
		client, gm, err := service.NewGeminiModel(ctx, cfg.AI.APIKey, cfg.AI.Model)
		if err != nil {
			log.Error(ctx, "init gemini client", err)
			os.Exit(1)
		}
		defer client.Close()
		genModel = gm
	} else {
		log.Warn(ctx, "SCANNIMART_GEMINI_API_KEY not set, AI features disabled")
	}

	// 6. Dependency Injection (Wiring Layers)
	productRepo := repository.NewProductRepo(db)
	orderRepo := repository.NewOrderRepo(db)
	saleRepo := repository.NewSaleRepo(db)
	offerRepo := repository.NewOfferRepo(db)
	userRepo := repository.NewUserRepo(db)
	privilegeRepo := repository.NewPrivilegeRepo(db)
	roleRepo := repository.NewRoleRepo(db)

	signer := jwt.NewSigner(cfg.JWT.Secret, cfg.JWT.Issuer, time.Duration(cfg.JWT.ExpirationHours)*time.Hour)
	risk := service.NewRiskClassifier(service.RiskPolicy{
		HighAmount:      cfg.Gate.HighRisk(),
		MediumAmount:    cfg.Gate.MediumRisk(),
		MediumItemCount: cfg.Gate.MediumRiskItemCount,
		AuditSampleRate: cfg.Gate.AuditSampleRate,
	})
	tolerance := service.WeightTolerance{Rate: cfg.Gate.WeightToleranceRate, Absolute: cfg.Gate.WeightToleranceAbs}

	resolver := service.NewIdentifierResolver(orderRepo)
	verification := service.NewVerificationService(resolver, orderRepo, risk, publisher, m, log)
	aiService := service.NewAIService(genModel, productRepo, saleRepo, m, log)
	gateService := service.NewGateService(verification, sessions, aiService, tolerance, m, log)
	checkoutService := service.NewCheckoutService(db, productRepo, orderRepo, saleRepo, publisher, m, log)
	orderService := service.NewOrderService(resolver, orderRepo)
	invService := service.NewInventoryService(productRepo, offerRepo, db, publisher, log)
	dashService := service.NewDashboardService(saleRepo)
	authService := service.NewAuthService(userRepo, signer, log)
	userService := service.NewUserService(userRepo, privilegeRepo, roleRepo, log)

	// 7. Seed roles, privileges and the admin account
	if err := userService.EnsureDefaults(ctx, cfg.App.AdminUsername, cfg.App.AdminPassword); err != nil {
		log.Error(ctx, "seed defaults", err)
	}

	invHandler := handler.NewInventoryHandler(invService)
	orderHandler := handler.NewOrderHandler(checkoutService, orderService)
	gateHandler := handler.NewGateHandler(gateService)
	aiHandler := handler.NewAIHandler(aiService)
	dashHandler := handler.NewDashboardHandler(dashService)
	authHandler := handler.NewAuthHandler(authService, userService)
	userHandler := handler.NewUserHandler(userService)
	roleHandler := handler.NewRoleHandler(userService)
	wsHandler := handler.NewWSHandler(hub, orderService)

	// 8. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName:   cfg.App.Name,
		BodyLimit: 10 << 20,
	})

	// Middleware
	app.Use(requestid.New())
	app.Use(middleware.RequestContext(log))
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{AllowOrigins: cfg.App.CORSOrigins}))

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// 9. Routes
	api := app.Group("/api/v1")

	// ============ PUBLIC ROUTES ============
	// Shopper flow: scan, cart, pay, show pass
	api.Get("/products", invHandler.GetProducts)
	api.Get("/products/barcode/:barcode", invHandler.ScanBarcode)
	api.Get("/offers", invHandler.GetOffers)
	api.Post("/checkout", orderHandler.Checkout)
	api.Get("/orders/:identifier/pass", orderHandler.GetPass)

	auth := api.Group("/auth")
	auth.Post("/login", authHandler.Login)

	// ============ PROTECTED ROUTES ============
	protected := api.Group("", middleware.RequireAuth(authService))

	protected.Get("/auth/me", authHandler.Me)
	protected.Post("/auth/change-password", authHandler.ChangePassword)

	// Exit gate
	gate := protected.Group("/gate", middleware.RequirePrivilege(model.PrivOrderVerify))
	gate.Post("/verify", gateHandler.Submit)
	gate.Get("/sessions/:id", gateHandler.GetSession)
	gate.Post("/sessions/:id/scan", gateHandler.ScanItem)
	gate.Post("/sessions/:id/quick-verify", gateHandler.QuickVerify)
	gate.Post("/sessions/:id/weight", gateHandler.RecordWeight)
	gate.Post("/sessions/:id/confirm-payment", gateHandler.ConfirmPayment)
	gate.Post("/sessions/:id/reconcile", middleware.RequirePrivilege(model.PrivAIReconcile), gateHandler.Reconcile)
	gate.Post("/sessions/:id/complete", gateHandler.Complete)
	gate.Delete("/sessions/:id", gateHandler.Reset)

	// Orders
	protected.Get("/orders", middleware.RequirePrivilege(model.PrivOrderView), orderHandler.GetRecent)

	// Catalog admin
	protected.Post("/products", middleware.RequirePrivilege(model.PrivProductCreate), invHandler.CreateProduct)
	protected.Put("/products/:id", middleware.RequirePrivilege(model.PrivProductUpdate), invHandler.UpdateProduct)
	protected.Patch("/products/:id/stock", middleware.RequirePrivilege(model.PrivProductUpdate), invHandler.SetStock)
	protected.Post("/offers", middleware.RequirePrivilege(model.PrivOfferManage), invHandler.CreateOffer)
	protected.Delete("/offers/:id", middleware.RequirePrivilege(model.PrivOfferManage), invHandler.DeleteOffer)

	// Analytics and assistant
	protected.Get("/dashboard/overview", middleware.RequireAnyPrivilege(model.PrivDashboardView, model.PrivSalesView), dashHandler.GetOverview)
	protected.Get("/sales", middleware.RequirePrivilege(model.PrivSalesView), dashHandler.GetRecentSales)
	protected.Post("/ai/chat", middleware.RequirePrivilege(model.PrivAIChat), aiHandler.Chat)

	// Staff
	protected.Get("/users", middleware.RequirePrivilege(model.PrivUserView), userHandler.GetUsers)
	protected.Get("/users/:id", middleware.RequirePrivilege(model.PrivUserView), userHandler.GetUser)
	protected.Post("/users", middleware.RequirePrivilege(model.PrivUserCreate), userHandler.CreateUser)
	protected.Put("/users/:id", middleware.RequirePrivilege(model.PrivUserCreate), userHandler.UpdateUser)
	protected.Delete("/users/:id", middleware.RequirePrivilege(model.PrivUserCreate), userHandler.DeleteUser)
	protected.Get("/roles", roleHandler.GetRoles)

	// WebSocket Routes
	app.Use("/ws", wsHandler.Upgrade)
	app.Get("/ws/inventory", wsHandler.Inventory())
	app.Get("/ws/orders/:identifier", wsHandler.ResolveOrder, wsHandler.OrderStatus())

	// 10. Graceful Shutdown
	go func() {
		if err := app.Listen(":" + cfg.App.Port); err != nil {
			log.Error(ctx, "http server stopped", err)
			cancel()
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-ctx.Done():
	}

	log.Info(ctx, "shutting down server")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error(ctx, "server forced to shutdown", err)
	}
	cancel()

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info(ctx, "server exited")
}
