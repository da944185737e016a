package router

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/shapeblock/shapeblock-api/api/metrics"
	"github.com/shapeblock/shapeblock-api/api/middleware/auth"
	"github.com/shapeblock/shapeblock-api/api/middleware/cors"
	"github.com/shapeblock/shapeblock-api/api/middleware/logger"
	"github.com/shapeblock/shapeblock-api/api/middleware/recovery"
	"github.com/shapeblock/shapeblock-api/api/utils/token"
	"github.com/shapeblock/shapeblock-api/models"
	"github.com/urfave/negroni/v3"
)

const (
	apiVersionRoute = "/api/v1"
)

// NewAPIHandler Constructor function
func NewAPIHandler(validator token.ValidatorInterface, corsOrigins []string, controllers ...models.Controller) http.Handler {
	serveMux := http.NewServeMux()
	serveMux.Handle("/health/", createHealthHandler())
	serveMux.Handle("/api/", createApiRouter(controllers))

	n := negroni.New(
		recovery.NewMiddleware(),
		cors.CreateMiddleware(corsOrigins),
		logger.NewZerologRequestIdMiddleware(),
		logger.NewZerologRequestDetailsMiddleware(),
		auth.NewAuthenticationMiddleware(validator),
		auth.NewZerologAuthenticationDetailsMiddleware(),
		logger.NewZerologResponseLoggerMiddleware(),
	)
	n.UseHandler(serveMux)

	return n
}

func createApiRouter(controllers []models.Controller) *mux.Router {
	router := mux.NewRouter().StrictSlash(true)
	for _, controller := range controllers {
		for _, route := range controller.GetRoutes() {
			path := apiVersionRoute + route.Path

			n := negroni.New()
			if !route.AllowUnauthenticatedUsers {
				n.Use(auth.NewAuthorizeRequiredMiddleware())
			}
			n.UseHandler(withRequestDuration(path, route.Method, route.HandlerFunc))
			router.Handle(path, n).Methods(route.Method)
		}
	}
	return router
}

func withRequestDuration(path, method string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		defer func() {
			metrics.AddRequestDuration(path, method, time.Since(start))
		}()
		next(w, r)
	}
}

func createHealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}
