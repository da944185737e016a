// Shapeblock Api Server.
// This is the control plane API of the Shapeblock platform.
// Schemes: http, https
// BasePath: /api/v1
// Version: 1.0.0
//
// Consumes:
// - application/json
//
// Produces:
// - application/json
//
// SecurityDefinitions:
//   bearer:
//     type: apiKey
//     name: Authorization
//     in: header
//
// Security:
// - bearer:
//
// swagger:meta
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shapeblock/shapeblock-api/api/apps"
	"github.com/shapeblock/shapeblock-api/api/deployments"
	"github.com/shapeblock/shapeblock-api/api/fanout"
	"github.com/shapeblock/shapeblock-api/api/git"
	"github.com/shapeblock/shapeblock-api/api/orchestrator"
	"github.com/shapeblock/shapeblock-api/api/projects"
	"github.com/shapeblock/shapeblock-api/api/router"
	"github.com/shapeblock/shapeblock-api/api/services"
	"github.com/shapeblock/shapeblock-api/api/services/connection"
	"github.com/shapeblock/shapeblock-api/api/stacks"
	"github.com/shapeblock/shapeblock-api/api/utils/token"
	"github.com/shapeblock/shapeblock-api/api/webhooks"
	"github.com/shapeblock/shapeblock-api/internal/config"
	"github.com/shapeblock/shapeblock-api/internal/db"
	"github.com/shapeblock/shapeblock-api/internal/db/memory"
	"github.com/shapeblock/shapeblock-api/internal/db/postgres"
	"github.com/shapeblock/shapeblock-api/models"
	"golang.org/x/sync/errgroup"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/clientcmd"

	// Force loading of needed authentication library
	_ "k8s.io/client-go/plugin/pkg/client/auth"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.MustParse()
	initLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := openDatabase(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer func() {
		if err := database.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close database")
		}
	}()

	validator, err := initValidator(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create token validator")
	}

	policy, err := deployments.ParseFailurePolicy(cfg.FailureAppStatus)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid failure policy")
	}

	controllers, broker, err := initControllers(cfg, database, policy)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize controllers")
	}
	defer broker.Close()

	apiServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router.NewAPIHandler(validator, cfg.CorsOrigins, controllers...),
		ReadHeaderTimeout: 10 * time.Second,
	}
	metricsServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.MetricsPort),
		Handler:           router.NewMetricsHandler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return serve(apiServer, "api") })
	g.Go(func() error { return serve(metricsServer, "metrics") })
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return errors.Join(apiServer.Shutdown(shutdownCtx), metricsServer.Shutdown(shutdownCtx))
	})

	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
	log.Info().Msg("server stopped")
}

func serve(server *http.Server, name string) error {
	log.Info().Str("addr", server.Addr).Msgf("%s is serving", name)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("%s server: %w", name, err)
	}
	return nil
}

func initLogger(cfg config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.DurationFieldUnit = time.Millisecond

	var logger zerolog.Logger
	if cfg.LogPrettyPrint {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})
	} else {
		logger = zerolog.New(os.Stderr)
	}
	log.Logger = logger.With().Timestamp().Logger()
	zerolog.DefaultContextLogger = &log.Logger
}

func openDatabase(ctx context.Context, cfg config.Config) (db.Database, error) {
	if cfg.DatabaseURL == "" {
		log.Warn().Msg("DATABASE_URL is not set, records are kept in memory")
		return memory.New(), nil
	}
	return postgres.New(ctx, cfg.DatabaseURL, postgres.WithMigration(cfg.Migrate))
}

func initValidator(cfg config.Config) (token.ValidatorInterface, error) {
	var validators []token.ValidatorInterface
	if cfg.Oidc.Issuer != "" {
		issuer, err := url.Parse(cfg.Oidc.Issuer)
		if err != nil {
			return nil, fmt.Errorf("invalid OIDC issuer: %w", err)
		}
		v, err := token.NewValidator(*issuer, cfg.Oidc.Audience)
		if err != nil {
			return nil, err
		}
		validators = append(validators, v)
	}
	if cfg.JWTSecret != "" {
		v, err := token.NewSecretValidator([]byte(cfg.JWTSecret), cfg.JWTIssuer, cfg.JWTAudience)
		if err != nil {
			return nil, err
		}
		validators = append(validators, v)
	}
	if cfg.UseUncheckedTokens {
		log.Warn().Msg("accepting unchecked tokens, do not use in production")
		validators = append(validators, token.NewUncheckedValidator())
	}
	if len(validators) == 0 {
		return nil, errors.New("no token validator configured, set OIDC_ISSUER or JWT_SECRET")
	}
	return token.NewChainedValidator(validators...), nil
}

func initControllers(cfg config.Config, database db.Database, policy deployments.FailurePolicy) ([]models.Controller, *fanout.Broker, error) {
	kubeConfig, err := clientcmd.BuildConfigFromFlags("", cfg.KubeConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load kube config: %w", err)
	}
	dynamicClient, err := dynamic.NewForConfig(kubeConfig)
	if err != nil {
		return nil, nil, err
	}
	kubeClient, err := kubernetes.NewForConfig(kubeConfig)
	if err != nil {
		return nil, nil, err
	}

	credentials := connection.DefaultCredentials()
	credentials.Password = cfg.ServicePassword
	table := stacks.Default()

	client := orchestrator.NewClient(dynamicClient, kubeClient, &orchestrator.Builder{
		ClusterDomain:           cfg.ClusterDomain,
		ChartVersion:            cfg.ChartVersion,
		Stacks:                  table,
		Credentials:             credentials,
		HelmRepository:          cfg.HelmRepository,
		HelmRepositoryNamespace: cfg.HelmRepositoryNamespace,
	}, cfg.OrchestratorTimeout)

	resolver := git.NewResolver(git.Config{
		GitHubAPIURL: cfg.GitHubAPIURL,
		GitHubToken:  cfg.GitHubToken,
		GitLabAPIURL: cfg.GitLabAPIURL,
		GitLabToken:  cfg.GitLabToken,
		Timeout:      cfg.GitTimeout,
	})

	broker := fanout.NewBroker(cfg.FanoutPublishTimeout, cfg.FanoutBuffer)
	deploymentHandler := deployments.Init(database, resolver, client, broker, credentials, policy)

	return []models.Controller{
		projects.NewProjectController(projects.Init(database, client)),
		apps.NewAppController(apps.Init(database, client, client, deploymentHandler, table, cfg.ClusterDomain)),
		deployments.NewDeploymentController(deploymentHandler),
		services.NewServiceController(services.Init(database, client, deploymentHandler)),
		webhooks.NewWebhookController(webhooks.Init(database, deploymentHandler, cfg.WebhookSecret)),
		fanout.NewStreamController(broker, database),
	}, broker, nil
}
