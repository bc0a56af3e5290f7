package app

import (
	"log/slog"

	httpapp "sitecontent/internal/app/http"
	"sitecontent/internal/config"
	"sitecontent/internal/repository"
	"sitecontent/internal/services/auth"
	content "sitecontent/internal/services/content_service"
	routes "sitecontent/internal/services/route_service"
	httprouters "sitecontent/internal/transport/http"
)

type App struct {
	HTTPServer *httpapp.Server
}

func New(log *slog.Logger, cfg *config.Config) *App {
	repo, err := repository.NewRepository(cfg.Content.BaseDir)
	if err != nil {
		panic(err)
	}

	routeService, err := routes.Load(log, cfg.LocalesPath)
	if err != nil {
		panic(err)
	}

	contentService := content.NewContentService(log, repo.Documents)

	authService := auth.New(
		log,
		auth.Admin{User: cfg.Auth.AdminUser, PasswordHash: []byte(cfg.Auth.AdminPasswordHash)},
		[]byte(cfg.Auth.TokenSecret),
		cfg.Auth.TokenTTL,
		auth.NewLoginLimiter(cfg.Auth.LoginAttempts, cfg.Auth.LoginWindow),
	)

	routers := httprouters.NewRouter(log, contentService, routeService, authService)

	server := httpapp.New(log, httpapp.Options{
		Host:          cfg.HTTP.Host,
		Port:          cfg.HTTP.Port,
		Timeout:       cfg.HTTP.Timeout,
		IdleTimeout:   cfg.HTTP.IdleTimeout,
		SessionSecret: cfg.Auth.SessionSecret,
		CookieSecure:  cfg.Auth.CookieSecure,
		SessionTTL:    cfg.Auth.TokenTTL,
	}, routers)
	server.BuildRouters()

	log.Info("content store ready", slog.String("base_dir", repo.BaseDir()))

	return &App{
		HTTPServer: server,
	}
}
