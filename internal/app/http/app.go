package httpapp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"sitecontent/internal/lib/validation"
	appmiddleware "sitecontent/internal/middleware"
	httprouters "sitecontent/internal/transport/http"
	"sitecontent/internal/transport/http/dto/response"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

type Options struct {
	Host          string
	Port          string
	Timeout       time.Duration
	IdleTimeout   time.Duration
	SessionSecret string
	CookieSecure  bool
	SessionTTL    time.Duration
}

type Server struct {
	log     *slog.Logger
	e       *echo.Echo
	routers *httprouters.Routers
	host    string
	port    string
}

func New(log *slog.Logger, opts Options, routers *httprouters.Routers) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Validator = &CustomValidator{validator: validation.New()}

	e.Server.ReadTimeout = opts.Timeout
	e.Server.WriteTimeout = opts.Timeout
	e.Server.IdleTimeout = opts.IdleTimeout

	store := sessions.NewCookieStore([]byte(opts.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(opts.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   opts.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
	e.Use(session.Middleware(store))

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("1M"))
	e.Use(appmiddleware.PrometheusMetrics)

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogRemoteIP:  true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Info("request",
				slog.String("method", v.Method),
				slog.String("URI", v.URI),
				slog.Int("status", v.Status),
				slog.String("remote ip", v.RemoteIP),
				slog.Duration("latency", v.Latency),
				slog.String("request_id", v.RequestID),
			)

			return nil
		},
	}))

	return &Server{
		log:     log,
		e:       e,
		routers: routers,
		host:    opts.Host,
		port:    opts.Port,
	}
}

func (s *Server) MustRun() {
	const op = "http.Server.MustRun"

	s.log.Info(op, slog.String("Start", "server"), slog.String("addr", s.addr()))

	if err := s.Start(); err != nil {
		panic(err)
	}
}

func (s *Server) Start() error {
	const op = "http.Server.Start"

	if err := s.e.Start(s.addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("%s server stopped: %w", op, err)
	}

	return nil
}

func (s *Server) Stop() error {
	const op = "http.Server.Stop"

	optCtx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	s.log.Info("stopping", slog.String("op", op))

	if err := s.e.Shutdown(optCtx); err != nil {
		return fmt.Errorf("%s could not shutdown server gracefuly: %w", op, err)
	}

	return nil
}

// Handler отдаёт echo как http.Handler, для тестов.
func (s *Server) Handler() http.Handler {
	return s.e
}

func (s *Server) addr() string {
	return net.JoinHostPort(s.host, s.port)
}

// identifyMiddleware помечает запрос как административный, если в сессии
// есть администратор или передан действующий bearer-токен.
func (s *Server) identifyMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if sess, err := session.Get(httprouters.SessionName, c); err == nil {
			if user, ok := sess.Values[httprouters.AdminKey].(string); ok && user != "" {
				c.Set(httprouters.AdminKey, true)
				return next(c)
			}
		}

		header := c.Request().Header.Get(echo.HeaderAuthorization)
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			if _, err := s.routers.AuthService.ParseToken(strings.TrimSpace(token)); err == nil {
				c.Set(httprouters.AdminKey, true)
			} else {
				s.log.Debug("rejected bearer token", slog.String("error", err.Error()))
			}
		}

		return next(c)
	}
}

func (s *Server) adminOnlyMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !httprouters.IsAdmin(c) {
			return c.JSON(http.StatusUnauthorized, response.ErrAuthenticationRequired)
		}

		return next(c)
	}
}

func (s *Server) BuildRouters() {
	s.e.GET("/health", s.routers.Health)
	s.e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := s.e.Group("/api/v1", s.identifyMiddleware)
	{
		api.POST("/login", s.routers.Login)
		api.POST("/logout", s.routers.Logout)

		api.GET("/collections", s.routers.Collections)

		collections := api.Group("/collections/:collection")
		{
			collections.GET("/documents", s.routers.ListDocuments)
			collections.GET("/documents/:key", s.routers.GetDocument)
			collections.GET("/search", s.routers.SearchDocuments)
		}

		admin := api.Group("/admin/collections/:collection", s.adminOnlyMiddleware)
		{
			admin.GET("/documents", s.routers.ListAllDocuments)
			admin.POST("/documents", s.routers.CreateDocument)
			admin.PUT("/documents/:key", s.routers.UpdateDocument)
			admin.DELETE("/documents/:key", s.routers.DeleteDocument)
		}

		routes := api.Group("/routes")
		{
			routes.GET("/translate", s.routers.TranslateRoute)
			routes.GET("/canonical", s.routers.CanonicalRoute)
			routes.GET("/languages", s.routers.Languages)
		}
	}
}
