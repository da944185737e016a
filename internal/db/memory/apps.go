package memory

import (
	"context"
	"sort"

	"github.com/shapeblock/shapeblock-api/internal/db"
)

type apps struct {
	store *store
}

func (a *apps) Create(_ context.Context, app db.App) (db.App, error) {
	s := a.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[app.ProjectID]; !ok {
		return db.App{}, db.Missing{Table: "projects", Identity: app.ProjectID}
	}
	for _, existing := range s.apps {
		if existing.ProjectID == app.ProjectID && existing.Name == app.Name {
			return db.App{}, db.Conflict{Table: "apps", Reason: "name " + app.Name + " is taken"}
		}
	}
	now := s.now()
	app.CreatedAt, app.UpdatedAt = now, now
	app.Config = cloneConfig(app.Config)
	app.Services = nil
	s.apps[app.ID] = app
	return s.load(app), nil
}

func (a *apps) Get(_ context.Context, id string) (db.App, error) {
	s := a.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	app, ok := s.apps[id]
	if !ok {
		return db.App{}, db.Missing{Table: "apps", Identity: id}
	}
	return s.load(app), nil
}

func (a *apps) GetByWebhook(_ context.Context, webhookID string) (db.App, error) {
	s := a.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, app := range s.apps {
		if webhookID != "" && app.WebhookID == webhookID {
			return s.load(app), nil
		}
	}
	return db.App{}, db.Missing{Table: "apps", Identity: "webhook " + webhookID}
}

func (a *apps) List(_ context.Context, owner string) ([]db.App, error) {
	s := a.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []db.App{}
	for _, app := range s.apps {
		if app.Owner == owner {
			result = append(result, s.load(app))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (a *apps) Update(ctx context.Context, id string, task func(*db.App) error) (db.App, error) {
	s := a.store
	defer s.lock("apps", id)()

	app, err := a.Get(ctx, id)
	if err != nil {
		return db.App{}, err
	}
	if err := task(&app); err != nil {
		return db.App{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveApp(id, app)
	return s.load(s.apps[id]), nil
}

func (a *apps) Delete(_ context.Context, id string) error {
	s := a.store
	defer s.lock("apps", id)()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.apps[id]; !ok {
		return db.Missing{Table: "apps", Identity: id}
	}
	for _, deploymentID := range s.history[id] {
		delete(s.deployments, deploymentID)
	}
	delete(s.history, id)
	for key, attachment := range s.attachments {
		if attachment.AppID == id {
			delete(s.attachments, key)
		}
	}
	delete(s.apps, id)
	return nil
}

// saveApp stores the mutable fields of app. Caller holds s.mu.
func (s *store) saveApp(id string, app db.App) {
	stored := s.apps[id]
	app.ID = id
	app.ProjectID = stored.ProjectID
	app.Owner = stored.Owner
	app.CreatedAt = stored.CreatedAt
	app.UpdatedAt = s.now()
	app.Config = cloneConfig(app.Config)
	app.Services = nil
	s.apps[id] = app
}

// load returns a copy of app with its attached services. Caller holds s.mu.
func (s *store) load(app db.App) db.App {
	app.Config = cloneConfig(app.Config)
	app.Services = []db.AttachedService{}
	for _, attachment := range s.attachments {
		if attachment.AppID != app.ID {
			continue
		}
		service, ok := s.services[attachment.ServiceID]
		if !ok {
			continue
		}
		app.Services = append(app.Services, db.AttachedService{Service: service, ExposedAs: attachment.ExposedAs})
	}
	sort.Slice(app.Services, func(i, j int) bool { return app.Services[i].Service.Name < app.Services[j].Service.Name })
	return app
}
