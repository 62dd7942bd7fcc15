package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/Daunny/CRM-AUGU-sub000/internal/config"
	"github.com/Daunny/CRM-AUGU-sub000/internal/database"
	crmHttp "github.com/Daunny/CRM-AUGU-sub000/internal/http"
	proposalHandler "github.com/Daunny/CRM-AUGU-sub000/internal/http/proposal"
	templateHandler "github.com/Daunny/CRM-AUGU-sub000/internal/http/template"
	"github.com/Daunny/CRM-AUGU-sub000/internal/importer"
	"github.com/Daunny/CRM-AUGU-sub000/internal/proposal"
	proposalStore "github.com/Daunny/CRM-AUGU-sub000/internal/proposal/store"
	"github.com/Daunny/CRM-AUGU-sub000/internal/template"
	templateStore "github.com/Daunny/CRM-AUGU-sub000/internal/template/store"
	"github.com/Daunny/CRM-AUGU-sub000/internal/user"
	userStore "github.com/Daunny/CRM-AUGU-sub000/internal/user/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if cfg.Auth.JWTSecret == "" {
		slog.Error("AUTH_JWT_SECRET is required to serve the API")
		os.Exit(1)
	}

	policy, err := cfg.ApprovalPolicy()
	if err != nil {
		slog.Error("failed to load approval policy", "error", err)
		os.Exit(1)
	}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	var (
		userService     = user.NewService(userStore.New(db))
		templateService = template.NewService(templateStore.New(db))
		importService   = importer.NewService(cfg.Currency.Decimals)
		proposalService = proposal.NewService(proposalStore.New(db), userService, policy,
			proposal.WithTemplates(templateService))
	)

	var (
		proposalH = proposalHandler.NewHandler(proposalService, importService)
		templateH = templateHandler.NewHandler(templateService)
	)

	router := crmHttp.New(crmHttp.Options{
		JWTSecret:      []byte(cfg.Auth.JWTSecret),
		AllowedOrigins: cfg.Server.CORSOrigins,
	}, proposalH, templateH)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	slog.Info("starting server", "app", cfg.App.Name, "addr", srv.Addr, "approval_levels", len(policy.Tiers))

	if err := srv.ListenAndServe(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
