// Package api serves the recipe library over HTTP.
package api

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jmylchreest/itscooked/internal/auth"
	"github.com/jmylchreest/itscooked/internal/logger"
)

// userIDKey holds the authenticated user id in the gin context.
const userIDKey = "userID"

// requestIDHeader is echoed back, or generated when absent.
const requestIDHeader = "X-Request-ID"

// TokenVerifier resolves a bearer token to a user id.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

var _ TokenVerifier = (*auth.Verifier)(nil)

// NewServer creates a gin engine with all routes configured.
func NewServer(handler *Handler, verifier TokenVerifier) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(requestLogger())
	r.Use(gin.Recovery())

	setupRoutes(r, handler, verifier)

	return r
}

func setupRoutes(r *gin.Engine, handler *Handler, verifier TokenVerifier) {
	r.GET("/health", handler.HealthCheck)
	r.GET("/version", handler.Version)

	api := r.Group("/api")
	api.Use(authMiddleware(verifier))
	{
		api.POST("/recipes", handler.CreateRecipe)
		api.GET("/recipes", handler.ListRecipes)
		api.GET("/recipes/:id", handler.GetRecipe)
		api.PUT("/recipes/:id", handler.UpdateRecipe)
		api.DELETE("/recipes/:id", handler.DeleteRecipe)
		api.POST("/recipes/:id/reimport", handler.ReimportRecipe)
		api.GET("/recipes/:id/grocery", handler.GetGroceryList)
	}

	r.NoRoute(func(c *gin.Context) {
		abortWithError(c, notFound())
	})
}

// requestLogger attaches a request-scoped logger to the request context and
// logs each completed request.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)

		ctx := logger.NewContext(c.Request.Context(), logger.With("request_id", requestID))
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		// Handlers may have replaced the context logger.
		log := logger.FromContext(c.Request.Context())
		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "errors", c.Errors.String())
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			log.Error("request", attrs...)
		case status >= 400:
			log.Warn("request", attrs...)
		default:
			log.Info("request", attrs...)
		}
	}
}

// authMiddleware requires a valid bearer token and stores its subject.
func authMiddleware(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := auth.BearerToken(c.GetHeader("Authorization"))

		userID, err := verifier.Verify(token)
		if err != nil {
			message := "Unauthorized."
			switch {
			case errors.Is(err, auth.ErrTokenMissing):
				message = "Provide a token in the Authorization: Bearer <token> header."
			case errors.Is(err, auth.ErrTokenExpired):
				message = "Token has expired."
			}
			logger.DebugContext(c.Request.Context(), "authentication failed", "error", err)
			abortWithError(c, unauthorized(message))
			return
		}

		c.Set(userIDKey, userID)
		ctx := c.Request.Context()
		c.Request = c.Request.WithContext(logger.NewContext(ctx, logger.FromContext(ctx).With("user_id", userID)))

		c.Next()
	}
}
