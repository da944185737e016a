package deployments

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/shapeblock/shapeblock-api/internal/db"
)

// Redeploy requests a config deployment of app after its configuration
// changed. Apps never deployed are left alone and a rejection is not an error.
func Redeploy(ctx context.Context, deployer Deployer, app db.App, user string) error {
	if app.Status == db.AppCreated || app.Status == db.AppDeleted {
		return nil
	}
	_, err := deployer.CreateDeployment(ctx, app.ID, user, Request{Type: db.DeploymentConfig})
	if IsRejected(err) {
		log.Ctx(ctx).Debug().Str("app_id", app.ID).Msg("configuration unchanged, no redeploy")
		return nil
	}
	return err
}
