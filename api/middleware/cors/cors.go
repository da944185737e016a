package cors

import (
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var defaultOrigins = []string{
	"http://localhost:3000",
	"http://localhost:3001",
	"http://127.0.0.1:3000",
	"http://localhost:8000",
}

// CreateMiddleware allows the console served from origins, or from the local
// development origins when none are given.
func CreateMiddleware(origins []string) *cors.Cors {
	if len(origins) == 0 {
		origins = defaultOrigins
	}

	corsOptions := cors.Options{
		AllowedOrigins:   origins,
		AllowCredentials: true,
		MaxAge:           600,
		AllowedHeaders:   []string{"Accept", "Content-Type", "Content-Length", "Accept-Encoding", "X-CSRF-Token", "Authorization"},
		AllowedMethods:   []string{"GET", "PUT", "POST", "OPTIONS", "DELETE", "PATCH"},
	}

	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		// debugging mode
		corsOptions.Debug = true
		corsLogger := log.Logger.With().Str("pkg", "cors-middleware").Logger()
		corsOptions.Logger = &corsLogger
		corsOptions.AllowedHeaders = append(corsOptions.AllowedHeaders, "X-Requested-With")
	}

	return cors.New(corsOptions)
}
