// Package server assembles the gin engine: middleware, sessions, templates and routes.
package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yukikurage/taskhub/internal/config"
	"github.com/yukikurage/taskhub/internal/constants"
	apierrors "github.com/yukikurage/taskhub/internal/errors"
	"github.com/yukikurage/taskhub/internal/handlers"
	"github.com/yukikurage/taskhub/internal/logger"
	"github.com/yukikurage/taskhub/internal/middleware"
	"github.com/yukikurage/taskhub/internal/services"
	"github.com/yukikurage/taskhub/internal/web"
	"gorm.io/gorm"
)

// Deps are the collaborators the routes are wired to.
type Deps struct {
	Config       *config.Config
	DB           *gorm.DB
	SessionStore sessions.Store
	RateLimiter  *middleware.RateLimiter

	Auth     *services.AuthService
	Projects *services.ProjectService
	Tasks    *services.TaskService
	Timers   *services.TimerService
}

// NewSessionStore keeps sessions in Redis when it is configured, in signed cookies otherwise.
func NewSessionStore(cfg *config.Config) (sessions.Store, error) {
	var store sessions.Store
	if addr := cfg.RedisAddr(); addr != "" {
		rs, err := redisStore.NewStore(
			10,    // Redis pool size
			"tcp", // network type
			addr,
			cfg.Redis.Password,
			[]byte(cfg.Server.SessionSecret),
		)
		if err != nil {
			return nil, err
		}
		store = rs
		logger.Info("using redis session store", "addr", addr)
	} else {
		store = cookie.NewStore([]byte(cfg.Server.SessionSecret))
		logger.Info("using cookie session store")
	}

	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
	return store, nil
}

// New builds the engine with every route.
func New(deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(), middleware.Metrics())

	if origins := deps.Config.Server.AllowedOrigins; len(origins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     origins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.SetHTMLTemplate(web.MustTemplates())
	r.Use(sessions.Sessions(constants.SessionCookieName, deps.SessionStore))
	r.NoRoute(func(c *gin.Context) { apierrors.NotFound(c, "") })

	healthHandler := handlers.NewHealthHandler(deps.DB)
	authHandler := handlers.NewAuthHandler(deps.Auth)
	projectHandler := handlers.NewProjectHandler(deps.Projects)
	taskHandler := handlers.NewTaskHandler(deps.Tasks, deps.Timers)
	timerHandler := handlers.NewTimerHandler(deps.Timers)

	requireAuth := middleware.RequireAuth(deps.Auth)
	requireID := middleware.RequireEntityID()

	// Ops endpoints
	r.GET("/health", healthHandler.Health)
	r.GET("/readyz", healthHandler.Ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Auth routes (public)
	accounts := r.Group("/accounts")
	{
		limit := deps.Config.RateLimit
		accounts.GET("/login/", authHandler.LoginPage)
		accounts.POST("/login/", deps.RateLimiter.Limit(limit.LoginAttempts, limit.LoginWindow), authHandler.Login)
		accounts.GET("/logout/", authHandler.Logout)
		accounts.POST("/logout/", authHandler.Logout)
		accounts.GET("/register/", authHandler.RegisterPage)
		accounts.POST("/register/", authHandler.Register)
		accounts.POST("/delete/", requireAuth, authHandler.DeleteAccount)
	}

	// Everything else needs a logged-in user
	app := r.Group("/", requireAuth)
	app.GET("/", taskHandler.Dashboard)

	projects := app.Group("/projects")
	{
		projects.GET("/", projectHandler.ListProjects)
		projects.GET("/create/", projectHandler.CreatePage)
		projects.POST("/create/", projectHandler.CreateProject)

		project := projects.Group("/:id", requireID)
		project.GET("/", projectHandler.Overview)
		project.GET("/edit/", projectHandler.EditPage)
		project.POST("/edit/", projectHandler.UpdateProject)
		project.GET("/delete/", projectHandler.DeletePage)
		project.POST("/delete/", projectHandler.DeleteProject)
		project.POST("/invite/", projectHandler.Invite)
		project.GET("/tasks/create/", taskHandler.CreatePage)
		project.POST("/tasks/create/", taskHandler.CreateTask)
		project.POST("/tasks/generate/", taskHandler.GenerateTasks)
	}

	tasks := app.Group("/tasks/:id", requireID)
	{
		tasks.GET("/", taskHandler.Detail)
		tasks.POST("/", taskHandler.AddComment)
		tasks.GET("/edit/", taskHandler.EditPage)
		tasks.POST("/edit/", taskHandler.UpdateTask)
		tasks.GET("/delete/", taskHandler.DeletePage)
		tasks.POST("/delete/", taskHandler.DeleteTask)
		tasks.POST("/start/", timerHandler.StartTimer)
		tasks.POST("/stop/", timerHandler.StopTimer)
	}

	return r
}
