package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"scannimart/internal/model"
	"scannimart/internal/repository"
	"scannimart/internal/service"
	"scannimart/pkg/config"
	"scannimart/pkg/database"
	"scannimart/pkg/logger"

	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

func main() {
	ctx := context.Background()
	// bootstrap logger early (then re-init after config load)
	log := logger.New(logger.Options{ServiceName: "seed"})

	_ = godotenv.Load()

	cmd := flag.String("cmd", "all", "seed command: catalog|password|all")
	username := flag.String("username", "", "account to reset (defaults to the configured admin)")
	password := flag.String("password", "", "new password (defaults to the configured admin password)")
	flag.Parse()

	cfg, err := config.Load()
	requireResource(ctx, log, "config", err)

	log = logger.New(logger.Options{
		ServiceName: "seed",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
	})
	ctx = log.WithField(ctx, "cmd", *cmd)

	db, err := database.Connect(cfg.DB, false)
	requireResource(ctx, log, "database", err)
	requireResource(ctx, log, "migrate", db.AutoMigrate(model.All()...))

	if *username == "" {
		*username = cfg.App.AdminUsername
	}
	if *password == "" {
		*password = cfg.App.AdminPassword
	}

	userService := service.NewUserService(repository.NewUserRepo(db), repository.NewPrivilegeRepo(db), repository.NewRoleRepo(db), log)

	switch *cmd {
	case "catalog":
		seedCatalog(ctx, log, db)
	case "password":
		resetPassword(ctx, log, userService, *username, *password)
	case "all":
		requireResource(ctx, log, "roles and admin", userService.EnsureDefaults(ctx, cfg.App.AdminUsername, cfg.App.AdminPassword))
		seedCatalog(ctx, log, db)
		resetPassword(ctx, log, userService, *username, *password)
	default:
		fmt.Fprintf(os.Stderr, "unknown -cmd %q\n", *cmd)
		os.Exit(2)
	}
}

func seedCatalog(ctx context.Context, log *logger.Logger, db *gorm.DB) {
	products := demoCatalog()
	err := resetCatalog(ctx, db, repository.NewProductRepo(db), products)
	requireResource(ctx, log, "catalog", err)
	log.Info(log.WithField(ctx, "products", len(products)), "catalog reset")
}

func resetPassword(ctx context.Context, log *logger.Logger, users service.UserService, username, password string) {
	requireResource(ctx, log, "password reset", users.ResetPassword(ctx, username, password))
	log.Info(log.WithField(ctx, "username", username), "password reset")
}

func requireResource(ctx context.Context, log *logger.Logger, name string, err error) {
	if err != nil {
		log.Error(log.WithField(ctx, "resource", name), "seed failed", err)
		os.Exit(1)
	}
}
