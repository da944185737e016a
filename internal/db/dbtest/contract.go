// Package dbtest provides contract tests for db.Database implementations.
package dbtest

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shapeblock/shapeblock-api/internal/configdiff"
	"github.com/shapeblock/shapeblock-api/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory creates an empty database for each test.
type Factory func(t *testing.T) db.Database

// Owner owns the records created by the helpers.
const Owner = "user-1"

// Run exercises the db.Database contract.
func Run(t *testing.T, factory Factory) {
	t.Run("Projects", func(t *testing.T) { runProjects(t, factory) })
	t.Run("Apps", func(t *testing.T) { runApps(t, factory) })
	t.Run("Deployments", func(t *testing.T) { runDeployments(t, factory) })
	t.Run("Services", func(t *testing.T) { runServices(t, factory) })
}

// NewProject stores a project named name.
func NewProject(t *testing.T, d db.Database, name string) db.Project {
	t.Helper()
	project, err := d.Projects().Create(context.Background(), db.Project{
		ID: uuid.NewString(), Name: name, DisplayName: name, Owner: Owner,
	})
	require.NoError(t, err)
	return project
}

// NewApp stores an app named name in project.
func NewApp(t *testing.T, d db.Database, project db.Project, name string) db.App {
	t.Helper()
	app, err := d.Apps().Create(context.Background(), db.App{
		ID:               uuid.NewString(),
		ProjectID:        project.ID,
		Owner:            Owner,
		Name:             name,
		Repo:             "https://github.com/acme/" + name,
		Ref:              "main",
		Stack:            "node",
		Status:           db.AppCreated,
		Replicas:         1,
		HasLivenessProbe: true,
		WebhookID:        uuid.NewString(),
		Config: db.AppConfig{
			EnvVars: []db.KeyValue{{Key: "ENV", Value: "x"}},
			Volumes: []db.Volume{{Name: "data", MountPath: "/data", Size: 2}},
		},
	})
	require.NoError(t, err)
	return app
}

// NewDeployment admits a running code deployment of app at sha.
func NewDeployment(t *testing.T, d db.Database, app db.App, sha string) db.Deployment {
	t.Helper()
	deployment, _, err := d.Deployments().Admit(context.Background(), app.ID, func(a *db.App, _ *db.Deployment) (db.Deployment, error) {
		created := newDeployment(sha)
		created.AppID = a.ID
		created.PreviousAppStatus = a.Status
		a.Status = db.AppBuilding
		return created, nil
	})
	require.NoError(t, err)
	return deployment
}

func newDeployment(sha string) db.Deployment {
	return db.Deployment{
		ID:     uuid.NewString(),
		Owner:  Owner,
		Status: db.DeploymentRunning,
		Type:   db.DeploymentCode,
		Ref:    sha,
		Params: db.Params{
			"env_vars": map[string]any{"ENV": "x"},
			"volumes":  []any{map[string]any{"name": "data", "mount_path": "/data", "size": 2}},
		},
	}
}

func runProjects(t *testing.T, factory Factory) {
	t.Run("CreateGetList", func(t *testing.T) {
		d := factory(t)
		ctx := context.Background()
		b := NewProject(t, d, "beta")
		a := NewProject(t, d, "alpha")

		got, err := d.Projects().Get(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, "beta", got.Name)
		assert.False(t, got.CreatedAt.IsZero())

		list, err := d.Projects().List(ctx, Owner)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, a.ID, list[0].ID)

		others, err := d.Projects().List(ctx, "someone-else")
		require.NoError(t, err)
		assert.Empty(t, others)
	})

	t.Run("DuplicateName", func(t *testing.T) {
		d := factory(t)
		NewProject(t, d, "alpha")
		_, err := d.Projects().Create(context.Background(), db.Project{ID: uuid.NewString(), Name: "alpha", Owner: Owner})
		assert.ErrorIs(t, err, db.ErrConflict)
	})

	t.Run("GetMissing", func(t *testing.T) {
		d := factory(t)
		_, err := d.Projects().Get(context.Background(), uuid.NewString())
		assert.ErrorIs(t, err, db.ErrMissing)
	})

	t.Run("Update", func(t *testing.T) {
		d := factory(t)
		p := NewProject(t, d, "alpha")
		updated, err := d.Projects().Update(context.Background(), p.ID, func(p *db.Project) error {
			p.Description = "the first"
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, "the first", updated.Description)
		assert.Equal(t, "alpha", updated.Name)
	})

	t.Run("DeleteWithAppsIsConflict", func(t *testing.T) {
		d := factory(t)
		ctx := context.Background()
		p := NewProject(t, d, "alpha")
		app := NewApp(t, d, p, "web")

		assert.ErrorIs(t, d.Projects().Delete(ctx, p.ID), db.ErrConflict)
		require.NoError(t, d.Apps().Delete(ctx, app.ID))
		require.NoError(t, d.Projects().Delete(ctx, p.ID))
		_, err := d.Projects().Get(ctx, p.ID)
		assert.ErrorIs(t, err, db.ErrMissing)
	})
}

func runApps(t *testing.T, factory Factory) {
	t.Run("CreateAndGet", func(t *testing.T) {
		d := factory(t)
		ctx := context.Background()
		app := NewApp(t, d, NewProject(t, d, "alpha"), "web")

		got, err := d.Apps().Get(ctx, app.ID)
		require.NoError(t, err)
		assert.Equal(t, "web", got.Name)
		assert.Equal(t, db.AppCreated, got.Status)
		assert.Equal(t, []db.KeyValue{{Key: "ENV", Value: "x"}}, got.Config.EnvVars)
		assert.Equal(t, []db.Volume{{Name: "data", MountPath: "/data", Size: 2}}, got.Config.Volumes)
		assert.Empty(t, got.Services)

		byHook, err := d.Apps().GetByWebhook(ctx, app.WebhookID)
		require.NoError(t, err)
		assert.Equal(t, app.ID, byHook.ID)
	})

	t.Run("UnknownProject", func(t *testing.T) {
		d := factory(t)
		_, err := d.Apps().Create(context.Background(), db.App{ID: uuid.NewString(), ProjectID: uuid.NewString(), Name: "web", Owner: Owner, Status: db.AppCreated})
		assert.ErrorIs(t, err, db.ErrMissing)
	})

	t.Run("DuplicateNameInProject", func(t *testing.T) {
		d := factory(t)
		p := NewProject(t, d, "alpha")
		NewApp(t, d, p, "web")
		_, err := d.Apps().Create(context.Background(), db.App{ID: uuid.NewString(), ProjectID: p.ID, Name: "web", Owner: Owner, Status: db.AppCreated})
		assert.ErrorIs(t, err, db.ErrConflict)
	})

	t.Run("Update", func(t *testing.T) {
		d := factory(t)
		ctx := context.Background()
		app := NewApp(t, d, NewProject(t, d, "alpha"), "web")

		updated, err := d.Apps().Update(ctx, app.ID, func(a *db.App) error {
			a.Replicas = 3
			a.Config.Secrets = []db.KeyValue{{Key: "TOKEN", Value: "s3cr3t"}}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, updated.Replicas)

		got, err := d.Apps().Get(ctx, app.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, got.Replicas)
		assert.Equal(t, []db.KeyValue{{Key: "TOKEN", Value: "s3cr3t"}}, got.Config.Secrets)
	})

	t.Run("UpdateAbortedByTask", func(t *testing.T) {
		d := factory(t)
		ctx := context.Background()
		app := NewApp(t, d, NewProject(t, d, "alpha"), "web")
		boom := errors.New("boom")

		_, err := d.Apps().Update(ctx, app.ID, func(a *db.App) error {
			a.Replicas = 5
			return boom
		})
		assert.ErrorIs(t, err, boom)

		got, err := d.Apps().Get(ctx, app.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, got.Replicas)
	})

	t.Run("DeleteRemovesDeployments", func(t *testing.T) {
		d := factory(t)
		ctx := context.Background()
		app := NewApp(t, d, NewProject(t, d, "alpha"), "web")
		deployment, _, err := d.Deployments().Admit(ctx, app.ID, func(*db.App, *db.Deployment) (db.Deployment, error) {
			return newDeployment("abc"), nil
		})
		require.NoError(t, err)

		require.NoError(t, d.Apps().Delete(ctx, app.ID))
		_, err = d.Deployments().Get(ctx, deployment.ID)
		assert.ErrorIs(t, err, db.ErrMissing)
		assert.ErrorIs(t, d.Apps().Delete(ctx, app.ID), db.ErrMissing)
	})
}

func runDeployments(t *testing.T, factory Factory) {
	t.Run("AdmitFirst", func(t *testing.T) {
		d := factory(t)
		ctx := context.Background()
		app := NewApp(t, d, NewProject(t, d, "alpha"), "web")

		var seen *db.Deployment
		deployment, updatedApp, err := d.Deployments().Admit(ctx, app.ID, func(a *db.App, last *db.Deployment) (db.Deployment, error) {
			seen = last
			a.Status = db.AppBuilding
			return newDeployment("abc"), nil
		})
		require.NoError(t, err)
		assert.Nil(t, seen)
		assert.Equal(t, app.ID, deployment.AppID)
		assert.Equal(t, db.DeploymentRunning, deployment.Status)
		assert.Equal(t, db.AppBuilding, updatedApp.Status)

		got, err := d.Deployments().Get(ctx, deployment.ID)
		require.NoError(t, err)
		assert.Equal(t, "abc", got.Ref)
		assert.True(t, configdiff.Equal(newDeployment("abc").Params, got.Params))
	})

	t.Run("AdmitSeesLatest", func(t *testing.T) {
		d := factory(t)
		ctx := context.Background()
		app := NewApp(t, d, NewProject(t, d, "alpha"), "web")
		for _, sha := range []string{"first", "second"} {
			_, _, err := d.Deployments().Admit(ctx, app.ID, func(*db.App, *db.Deployment) (db.Deployment, error) {
				return newDeployment(sha), nil
			})
			require.NoError(t, err)
		}

		var seen *db.Deployment
		_, _, err := d.Deployments().Admit(ctx, app.ID, func(_ *db.App, last *db.Deployment) (db.Deployment, error) {
			seen = last
			return db.Deployment{}, errors.New("rejected")
		})
		assert.EqualError(t, err, "rejected")
		require.NotNil(t, seen)
		assert.Equal(t, "second", seen.Ref)

		list, err := d.Deployments().List(ctx, app.ID)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "second", list[0].Ref)
		assert.Equal(t, "first", list[1].Ref)
	})

	t.Run("AdmitRejectedStoresNothing", func(t *testing.T) {
		d := factory(t)
		ctx := context.Background()
		app := NewApp(t, d, NewProject(t, d, "alpha"), "web")

		_, _, err := d.Deployments().Admit(ctx, app.ID, func(a *db.App, _ *db.Deployment) (db.Deployment, error) {
			a.Status = db.AppBuilding
			return db.Deployment{}, errors.New("rejected")
		})
		require.Error(t, err)

		list, err := d.Deployments().List(ctx, app.ID)
		require.NoError(t, err)
		assert.Empty(t, list)
		got, err := d.Apps().Get(ctx, app.ID)
		require.NoError(t, err)
		assert.Equal(t, db.AppCreated, got.Status)
	})

	t.Run("AdmitUnknownApp", func(t *testing.T) {
		d := factory(t)
		_, _, err := d.Deployments().Admit(context.Background(), uuid.NewString(), func(*db.App, *db.Deployment) (db.Deployment, error) {
			return newDeployment("abc"), nil
		})
		assert.ErrorIs(t, err, db.ErrMissing)
	})

	t.Run("ConcurrentAdmissionsAreSerialized", func(t *testing.T) {
		d := factory(t)
		ctx := context.Background()
		app := NewApp(t, d, NewProject(t, d, "alpha"), "web")

		const attempts = 8
		var wg sync.WaitGroup
		errs := make(chan error, attempts)
		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _, err := d.Deployments().Admit(ctx, app.ID, func(_ *db.App, last *db.Deployment) (db.Deployment, error) {
					if last != nil {
						return db.Deployment{}, errors.New("rejected")
					}
					return newDeployment("abc"), nil
				})
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)

		admitted := 0
		for err := range errs {
			if err == nil {
				admitted++
			}
		}
		assert.Equal(t, 1, admitted)
		list, err := d.Deployments().List(ctx, app.ID)
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})

	t.Run("Transition", func(t *testing.T) {
		d := factory(t)
		ctx := context.Background()
		app := NewApp(t, d, NewProject(t, d, "alpha"), "web")
		deployment, _, err := d.Deployments().Admit(ctx, app.ID, func(*db.App, *db.Deployment) (db.Deployment, error) {
			return newDeployment("abc"), nil
		})
		require.NoError(t, err)

		updated, updatedApp, err := d.Deployments().Transition(ctx, deployment.ID, func(dep *db.Deployment, a *db.App) error {
			dep.Log += "build ok"
			dep.Status = db.DeploymentSuccess
			dep.Pod = "web-123"
			a.Status = db.AppReady
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, db.DeploymentSuccess, updated.Status)
		assert.Equal(t, db.AppReady, updatedApp.Status)

		got, err := d.Deployments().Get(ctx, deployment.ID)
		require.NoError(t, err)
		assert.Equal(t, "build ok", got.Log)
		assert.Equal(t, "web-123", got.Pod)
		gotApp, err := d.Apps().Get(ctx, app.ID)
		require.NoError(t, err)
		assert.Equal(t, db.AppReady, gotApp.Status)
	})

	t.Run("TransitionAbortedByTask", func(t *testing.T) {
		d := factory(t)
		ctx := context.Background()
		app := NewApp(t, d, NewProject(t, d, "alpha"), "web")
		deployment, _, err := d.Deployments().Admit(ctx, app.ID, func(*db.App, *db.Deployment) (db.Deployment, error) {
			return newDeployment("abc"), nil
		})
		require.NoError(t, err)
		stale := errors.New("stale")

		_, _, err = d.Deployments().Transition(ctx, deployment.ID, func(dep *db.Deployment, a *db.App) error {
			dep.Log = "ignored"
			return stale
		})
		assert.ErrorIs(t, err, stale)

		got, err := d.Deployments().Get(ctx, deployment.ID)
		require.NoError(t, err)
		assert.Empty(t, got.Log)
	})

	t.Run("ConcurrentTransitionsAreSerialized", func(t *testing.T) {
		d := factory(t)
		ctx := context.Background()
		app := NewApp(t, d, NewProject(t, d, "alpha"), "web")
		deployment, _, err := d.Deployments().Admit(ctx, app.ID, func(*db.App, *db.Deployment) (db.Deployment, error) {
			return newDeployment("abc"), nil
		})
		require.NoError(t, err)

		const writers = 8
		var wg sync.WaitGroup
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _, err := d.Deployments().Transition(ctx, deployment.ID, func(dep *db.Deployment, _ *db.App) error {
					dep.Log += "x"
					return nil
				})
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		got, err := d.Deployments().Get(ctx, deployment.ID)
		require.NoError(t, err)
		assert.Len(t, got.Log, writers)
	})

	t.Run("TransitionMissing", func(t *testing.T) {
		d := factory(t)
		_, _, err := d.Deployments().Transition(context.Background(), uuid.NewString(), func(*db.Deployment, *db.App) error {
			return nil
		})
		assert.ErrorIs(t, err, db.ErrMissing)
	})
}

func runServices(t *testing.T, factory Factory) {
	newService := func(t *testing.T, d db.Database, project db.Project, name string) db.Service {
		service, err := d.Services().Create(context.Background(), db.Service{
			ID: uuid.NewString(), ProjectID: project.ID, Owner: Owner, Name: name,
			Type: db.ServicePostgres, Status: db.ServiceStarting,
		})
		require.NoError(t, err)
		return service
	}

	t.Run("CreateGetUpdate", func(t *testing.T) {
		d := factory(t)
		ctx := context.Background()
		service := newService(t, d, NewProject(t, d, "alpha"), "pg")

		got, err := d.Services().Get(ctx, service.ID)
		require.NoError(t, err)
		assert.Equal(t, db.ServicePostgres, got.Type)
		assert.Equal(t, db.ServiceStarting, got.Status)

		updated, err := d.Services().Update(ctx, service.ID, func(s *db.Service) error {
			s.Status = db.ServiceReady
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, db.ServiceReady, updated.Status)

		list, err := d.Services().List(ctx, Owner)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, db.ServiceReady, list[0].Status)
	})

	t.Run("AttachDetach", func(t *testing.T) {
		d := factory(t)
		ctx := context.Background()
		p := NewProject(t, d, "alpha")
		service := newService(t, d, p, "pg")
		app := NewApp(t, d, p, "web")

		require.NoError(t, d.Services().Attach(ctx, db.Attachment{ServiceID: service.ID, AppID: app.ID, ExposedAs: db.ExposedAsURL}))
		assert.ErrorIs(t, d.Services().Attach(ctx, db.Attachment{ServiceID: service.ID, AppID: app.ID, ExposedAs: db.ExposedAsURL}), db.ErrConflict)

		got, err := d.Apps().Get(ctx, app.ID)
		require.NoError(t, err)
		require.Len(t, got.Services, 1)
		assert.Equal(t, "pg", got.Services[0].Service.Name)
		assert.Equal(t, db.ExposedAsURL, got.Services[0].ExposedAs)

		attachments, err := d.Services().Attachments(ctx, service.ID)
		require.NoError(t, err)
		assert.Equal(t, []db.Attachment{{ServiceID: service.ID, AppID: app.ID, ExposedAs: db.ExposedAsURL}}, attachments)

		assert.ErrorIs(t, d.Services().Delete(ctx, service.ID), db.ErrConflict)

		require.NoError(t, d.Services().Detach(ctx, service.ID, app.ID))
		assert.ErrorIs(t, d.Services().Detach(ctx, service.ID, app.ID), db.ErrMissing)
		require.NoError(t, d.Services().Delete(ctx, service.ID))
	})
}
