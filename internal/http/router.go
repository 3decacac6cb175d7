package http

import (
	"log/slog"
	"time"

	"github.com/geocoder89/accounthub/internal/http/handlers"
	"github.com/geocoder89/accounthub/internal/http/middlewares"
	"github.com/geocoder89/accounthub/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const maxBodyBytes = 1 << 20

// Accounts is everything the HTTP layer calls on the account service.
type Accounts interface {
	handlers.Registrar
	handlers.AccountService
}

// Tokens issues and verifies access tokens; auth.Manager satisfies it.
type Tokens interface {
	handlers.TokenIssuer
	middlewares.TokenVerifier
}

type RouterDeps struct {
	Log         *slog.Logger
	Env         string
	ServiceName string

	Accounts Accounts
	Gate     handlers.Authenticator
	Tokens   Tokens

	Prom     *observability.Prom
	Gatherer prometheus.Gatherer
	Checks   []handlers.ReadinessCheck

	LoginRatePerMinute int
	CORSOrigins        []string
}

func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Env != "dev" && deps.Env != "test" {
		gin.SetMode(gin.ReleaseMode)
	}

	log := deps.Log
	if log == nil {
		log = slog.Default()
	}

	r := gin.New()

	r.Use(gin.Recovery())
	if deps.ServiceName != "" {
		r.Use(otelgin.Middleware(deps.ServiceName))
	}
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.SecurityHeaders(deps.Env == "prod"))
	r.Use(middlewares.CORSMiddleware(deps.CORSOrigins))

	health := handlers.NewHealthHandler(deps.Checks...)
	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)

	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	authHandler := handlers.NewAuthHandler(deps.Accounts, deps.Gate, deps.Tokens, deps.Prom, log)
	accountsHandler := handlers.NewAccountsHandler(deps.Accounts, log)
	authMW := middlewares.NewAuthMiddleware(deps.Tokens)
	loginLimiter := middlewares.NewRateLimiter(deps.LoginRatePerMinute, time.Minute)

	api := r.Group("/api")
	api.Use(middlewares.MaxBodyBytes(maxBodyBytes), middlewares.RequireJSON())

	authGroup := api.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", loginLimiter.Middleware(middlewares.KeyByIP), authHandler.Login)
	authGroup.GET("/me", authMW.RequireAuth(), authHandler.Me)

	users := api.Group("/users")
	users.GET("", accountsHandler.List)
	users.GET("/stats", accountsHandler.Stats)
	users.GET("/:id", accountsHandler.Get)
	users.PUT("/:id", accountsHandler.Update)
	users.DELETE("/:id", accountsHandler.Delete)
	users.PATCH("/:id/role", accountsHandler.SetRole)
	users.PATCH("/:id/status", accountsHandler.SetStatus)
	users.PUT("/:id/secret", accountsHandler.ChangeSecret)

	return r
}
