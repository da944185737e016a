package deployments

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/shapeblock/shapeblock-api/api/services/connection"
	"github.com/shapeblock/shapeblock-api/internal/configdiff"
	"github.com/shapeblock/shapeblock-api/internal/db"
)

// Keys of the configuration snapshot stored with each deployment.
const (
	ParamEnvVars       = "env_vars"
	ParamSecrets       = "secrets"
	ParamBuildVars     = "build_vars"
	ParamVolumes       = "volumes"
	ParamInitProcesses = "init_processes"
	ParamWorkers       = "workers"
	ParamCustomDomains = "custom_domains"
	ParamReplicas      = "replicas"
	ParamLivenessProbe = "has_liveness_probe"
	ParamStackVersion  = "stack_version"
)

// ConditionsNotMet is the reason of every rejected deployment.
const ConditionsNotMet = "deployment conditions not met"

// Decision is the outcome of admission. When Admit is false, Reason tells why.
type Decision struct {
	Admit  bool
	Sha    string
	Params db.Params
	Reason string
}

// Decide admits a deployment of sha with params unless the latest deployment
// of the app already deployed the same commit with the same configuration
// and did not fail. The first deployment of an app is always admitted.
func Decide(last *db.Deployment, sha string, params db.Params) Decision {
	admit := Decision{Admit: true, Sha: sha, Params: params}
	switch {
	case last == nil:
		return admit
	case last.Status == db.DeploymentFailed:
		return admit
	case !configdiff.Equal(last.Params, params):
		return admit
	case last.Ref != sha:
		return admit
	}
	return Decision{Reason: ConditionsNotMet}
}

// BuildParams captures the configuration of app that a deployment ships.
// Env vars include those derived from attached services. Secret values are
// kept as digests.
func BuildParams(app db.App, credentials connection.Credentials) (db.Params, error) {
	env, err := credentials.Environment(app)
	if err != nil {
		return nil, err
	}

	secrets := map[string]any{}
	for _, secret := range app.Config.Secrets {
		secrets[secret.Key] = Digest(secret.Value)
	}

	volumes := make([]any, 0, len(app.Config.Volumes))
	for _, v := range app.Config.Volumes {
		volumes = append(volumes, map[string]any{"name": v.Name, "mount_path": v.MountPath, "size": v.Size})
	}

	domains := make([]any, 0, len(app.Config.CustomDomains))
	for _, domain := range app.Config.CustomDomains {
		domains = append(domains, domain)
	}

	return db.Params{
		ParamEnvVars:       flatten(env),
		ParamSecrets:       secrets,
		ParamBuildVars:     flatten(app.Config.BuildVars),
		ParamVolumes:       volumes,
		ParamInitProcesses: processes(app.Config.InitProcesses),
		ParamWorkers:       processes(app.Config.Workers),
		ParamCustomDomains: domains,
		ParamReplicas:      app.Replicas,
		ParamLivenessProbe: app.HasLivenessProbe,
		ParamStackVersion:  app.StackVersion,
	}, nil
}

// Digest returns the hex encoded SHA-256 of a secret value.
func Digest(value string) string {
	sum := sha256.Sum256([]byte(value))
	return "sha256:" + hex.EncodeToString(sum[:])
}

// flatten turns variables into a key to value map, a later key wins.
func flatten(vars []db.KeyValue) map[string]any {
	result := make(map[string]any, len(vars))
	for _, kv := range vars {
		result[kv.Key] = kv.Value
	}
	return result
}

func processes(list []db.Process) []any {
	result := make([]any, 0, len(list))
	for _, p := range list {
		result = append(result, map[string]any{"key": p.Key, "memory": p.Memory, "cpu": p.CPU})
	}
	return result
}
