package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/pprof"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/haojie06/visualgen-http/internal/config"
	"github.com/haojie06/visualgen-http/internal/logger"
	"github.com/haojie06/visualgen-http/internal/server/handler"
	"github.com/haojie06/visualgen-http/internal/utils"
)

const shutdownTimeout = 5 * time.Second

// Start serves until ctx is done, then shuts down gracefully.
func Start(ctx context.Context, cfg config.ServerConfig, h *handler.Handler) error {
	srv := &http.Server{
		Addr:    cfg.Host + ":" + cfg.Port,
		Handler: InitRouter(cfg, h),
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("service is shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// AuthGateMiddleware lets a request through with a matching API-KEY header or
// a non-empty auth cookie. Page requests are redirected to sign in, API
// requests get a 401 carrying the redirect.
func AuthGateMiddleware(apiKey, signInPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey != "" && c.GetHeader("API-KEY") == apiKey {
			c.Next()
			return
		}
		if token, err := c.Cookie(handler.AuthCookieName); err == nil && token != "" {
			c.Next()
			return
		}
		if strings.Contains(c.GetHeader("Accept"), "text/html") {
			c.Redirect(http.StatusFound, signInPath)
			c.Abort()
			return
		}
		utils.GinUnauthorized(c, signInPath, "not signed in")
	}
}

func InitRouter(cfg config.ServerConfig, h *handler.Handler) *gin.Engine {
	router := gin.New()
	router.Use(ginzap.RecoveryWithZap(logger.ZapLogger, true))
	router.Use(ginzap.Ginzap(logger.ZapLogger, time.RFC3339Nano, true))
	router.Use(cors.Default())
	pprof.Register(router)

	router.GET("/healthz", h.Health)
	router.POST("/auth/session", h.SignIn)

	apiGroup := router.Group("", AuthGateMiddleware(cfg.ApiKey, cfg.SignInPath))
	apiGroup.GET("/auth/session", h.CurrentUser)
	apiGroup.DELETE("/auth/session", h.SignOut)
	apiGroup.GET("/preferences/theme", h.GetTheme)
	apiGroup.PUT("/preferences/theme", h.SetTheme)

	apiGroup.GET("/brands", h.ListBrands)
	apiGroup.POST("/brands", h.CreateBrand)
	apiGroup.GET("/brands/:id", h.GetBrand)
	apiGroup.PUT("/brands/:id", h.UpdateBrand)
	apiGroup.DELETE("/brands/:id", h.DeleteBrand)
	apiGroup.GET("/brands/:id/collections", h.ListCollections)
	apiGroup.POST("/brands/:id/collections", h.CreateCollection)
	apiGroup.GET("/brands/:id/products", h.ListProducts)
	apiGroup.POST("/brands/:id/products", h.CreateProduct)

	apiGroup.GET("/collections/:id", h.GetCollection)
	apiGroup.PUT("/collections/:id", h.UpdateCollection)
	apiGroup.DELETE("/collections/:id", h.DeleteCollection)
	apiGroup.POST("/collections/:id/analyze", h.AnalyzeCollection)

	apiGroup.GET("/products/:id", h.GetProduct)
	apiGroup.PUT("/products/:id", h.UpdateProduct)
	apiGroup.DELETE("/products/:id", h.DeleteProduct)
	apiGroup.POST("/products/:id/analyze", h.AnalyzeProduct)

	apiGroup.GET("/generations", h.ListGenerations)

	apiGroup.GET("/session", h.GetSession)
	apiGroup.GET("/session/events", h.SessionEvents)
	apiGroup.POST("/session/merge", h.Merge)
	apiGroup.PUT("/session/prompts/:shotType", h.EditPrompt)
	apiGroup.POST("/session/generate", h.Generate)
	apiGroup.POST("/session/regenerate", h.Regenerate)
	apiGroup.DELETE("/session/alert", h.DismissAlert)

	apiGroup.GET("/library", h.ListLibrary)
	apiGroup.POST("/library/:id", h.SaveToLibrary)
	apiGroup.DELETE("/library/:id", h.DeleteFromLibrary)
	apiGroup.POST("/library/:id/regenerate", h.RegenerateFromLibrary)
	return router
}
