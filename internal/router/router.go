package router

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/unrolled/secure"
	"go.uber.org/zap"

	"github.com/patmartin03-stack/shadowai-experiment/internal/config"
	"github.com/patmartin03-stack/shadowai-experiment/internal/handlers"
	"github.com/patmartin03-stack/shadowai-experiment/internal/services"
	"github.com/patmartin03-stack/shadowai-experiment/internal/store"
)

func keyFunc(c *gin.Context) string {
	return c.ClientIP()
}

func errorHandler(c *gin.Context, info ratelimit.Info) {
	c.JSON(http.StatusTooManyRequests, gin.H{"ok": false, "error": "Too many requests. Try again later."})
}

func Setup(log *zap.Logger, gateway *services.Gateway, st store.Store, assist *services.Assist) *gin.Engine {
	// Set up a new Gin router, add recovery middleware and request logging.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestID())
	router.Use(RequestLogger(log))

	// The experiment frontend may be hosted on a separate origin.
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:    []string{"Content-Type", "X-Request-ID"},
		MaxAge:          12 * time.Hour,
	}))

	secureMiddleware := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
	})
	router.Use(func(c *gin.Context) {
		err := secureMiddleware.Process(c.Writer, c.Request)
		if err != nil {
			c.Abort()
			return
		}
	})

	// Handlers and routes
	eventsHandler := handlers.NewEventsHandler(log, gateway)
	finalizeHandler := handlers.NewFinalizeHandler(log, gateway, st)
	assistHandler := handlers.NewAssistHandler(log, assist)
	healthHandler := handlers.NewHealthHandler(st, gateway, assist)

	rateLimitStore := ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
		Rate:  time.Minute,
		Limit: 20,
	})
	limiter := ratelimit.RateLimiter(rateLimitStore, &ratelimit.Options{
		ErrorHandler: errorHandler,
		KeyFunc:      keyFunc,
	})

	router.POST("/log", eventsHandler.Log)
	router.POST("/save", eventsHandler.Log) // legacy alias used by older frontend builds
	router.POST("/log-batch", eventsHandler.LogBatch)
	router.POST("/flush-events", eventsHandler.Flush)
	router.POST("/finalize", finalizeHandler.Finalize)
	router.POST("/ai-suggest", limiter, assistHandler.Suggest)
	router.POST("/assist", limiter, assistHandler.Suggest)
	router.GET("/health", healthHandler.Health)

	// Everything else is the static experiment frontend.
	router.NoRoute(staticServer(config.Conf.Server.StaticDir))

	return router
}

// staticServer serves files from the public directory, index.html at the
// root, refusing any path that escapes it.
func staticServer(dir string) gin.HandlerFunc {
	if dir == "" {
		dir = "public"
	}
	absDir, _ := filepath.Abs(dir)

	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "not found"})
			return
		}

		reqPath := c.Request.URL.Path
		if reqPath == "/" {
			reqPath = "/index.html"
		}

		clean := filepath.Clean("/" + reqPath)
		full := filepath.Join(absDir, filepath.FromSlash(clean))
		if full != absDir && !strings.HasPrefix(full, absDir+string(os.PathSeparator)) {
			c.String(http.StatusNotFound, "file not found")
			return
		}

		info, err := os.Stat(full)
		if err != nil || info.IsDir() {
			c.String(http.StatusNotFound, "file not found: %s", strings.TrimPrefix(clean, "/"))
			return
		}
		c.File(full)
	}
}
