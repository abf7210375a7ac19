package middleware

import (
	"net/http"

	"github.com/Uthmaanravat/UROps-sub001/internal/config"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// CORS builds the cross-origin policy. A "*" origin, or no origins at all
// in development, reflects any origin; with no origins outside development
// every cross-origin request is refused.
func CORS(cfg *config.CORSConfig, environment string, logger *zap.Logger) func(http.Handler) http.Handler {
	options := cors.Options{
		AllowedMethods:   cfg.AllowedMethods,
		AllowedHeaders:   cfg.AllowedHeaders,
		ExposedHeaders:   append([]string{RequestIDHeader}, cfg.ExposedHeaders...),
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
	}

	anyOrigin := func(r *http.Request, origin string) bool { return origin != "" }
	devLike := environment == "development" || environment == "local" || environment == ""

	switch {
	case containsWildcard(cfg.AllowedOrigins):
		if !devLike {
			logger.Warn("CORS allows every origin outside development",
				zap.String("environment", environment))
		}
		options.AllowOriginFunc = anyOrigin
	case len(cfg.AllowedOrigins) > 0:
		options.AllowedOrigins = cfg.AllowedOrigins
		logger.Info("CORS configured with explicit origins", zap.Strings("origins", cfg.AllowedOrigins))
	case devLike:
		options.AllowOriginFunc = anyOrigin
		logger.Info("CORS allows every origin in development")
	default:
		// an empty AllowedOrigins would mean "*" to the cors package
		options.AllowOriginFunc = func(r *http.Request, origin string) bool { return false }
		logger.Warn("CORS has no allowed origins, cross-origin requests are refused",
			zap.String("environment", environment))
	}

	return cors.Handler(options)
}

func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
