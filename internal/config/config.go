package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Port           int    `envconfig:"PORT" default:"3002" desc:"Port where API will be served"`
	MetricsPort    int    `envconfig:"METRICS_PORT" default:"9090"  desc:"Port where Metrics will be served"`
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`
	LogPrettyPrint bool   `envconfig:"LOG_PRETTY" default:"false"`

	DatabaseURL string `envconfig:"DATABASE_URL" desc:"Postgres connection string, records are kept in memory when empty"`
	Migrate     bool   `envconfig:"MIGRATE" default:"true" desc:"Apply database migrations on start"`

	KubeConfig              string        `envconfig:"KUBECONFIG" desc:"Path to a kubeconfig, in cluster config is used when empty"`
	ClusterDomain           string        `envconfig:"CLUSTER_DOMAIN" required:"true" desc:"Domain apps are exposed under"`
	ChartVersion            string        `envconfig:"CHART_VERSION" default:"0.1.0" desc:"Version of the app chart the operator installs"`
	HelmRepository          string        `envconfig:"HELM_REPOSITORY" default:"bitnami"`
	HelmRepositoryNamespace string        `envconfig:"HELM_REPOSITORY_NAMESPACE" default:"flux-system"`
	OrchestratorTimeout     time.Duration `envconfig:"ORCHESTRATOR_TIMEOUT" default:"10s"`

	Oidc               Oidc   `envconfig:"OIDC"`
	JWTSecret          string `envconfig:"JWT_SECRET" desc:"HS256 secret, used when no OIDC issuer is set"`
	JWTIssuer          string `envconfig:"JWT_ISSUER"`
	JWTAudience        string `envconfig:"JWT_AUDIENCE" default:"shapeblock"`
	UseUncheckedTokens bool   `envconfig:"USE_UNCHECKED_TOKENS" default:"false" desc:"Accept tokens without verifying them, development only"`

	GitHubAPIURL string        `envconfig:"GITHUB_API_URL" default:"https://api.github.com"`
	GitHubToken  string        `envconfig:"GITHUB_TOKEN"`
	GitLabAPIURL string        `envconfig:"GITLAB_API_URL" default:"https://gitlab.com/api/v4"`
	GitLabToken  string        `envconfig:"GITLAB_TOKEN"`
	GitTimeout   time.Duration `envconfig:"GIT_TIMEOUT" default:"10s"`

	FailureAppStatus string `envconfig:"FAILURE_APP_STATUS" default:"created" desc:"App status after a failed deployment, created or previous"`
	WebhookSecret    string `envconfig:"WEBHOOK_SECRET" desc:"Secret of the signature on push webhooks, unchecked when empty"`
	ServicePassword  string `envconfig:"SERVICE_PASSWORD" default:"shapeblock"`

	CorsOrigins []string `envconfig:"CORS_ORIGINS"`

	FanoutPublishTimeout time.Duration `envconfig:"FANOUT_PUBLISH_TIMEOUT" default:"100ms"`
	FanoutBuffer         int           `envconfig:"FANOUT_BUFFER" default:"32"`
}

type Oidc struct {
	Issuer   string `envconfig:"ISSUER"`
	Audience string `envconfig:"AUDIENCE"`
}

func MustParse() Config {
	var s Config
	err := envconfig.Process("", &s)
	if err != nil {
		_ = envconfig.Usage("", &s)
		log.Fatal().Msg(err.Error())
	}

	return s
}
