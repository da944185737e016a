package memory

import (
	"context"

	"github.com/shapeblock/shapeblock-api/internal/db"
)

type deployments struct {
	store *store
}

func (d *deployments) Admit(_ context.Context, appID string, decide db.AdmitFunc) (db.Deployment, db.App, error) {
	s := d.store
	defer s.lock("apps", appID)()

	s.mu.RLock()
	stored, ok := s.apps[appID]
	var app db.App
	var last *db.Deployment
	if ok {
		app = s.load(stored)
		if ids := s.history[appID]; len(ids) > 0 {
			latest := s.read(ids[len(ids)-1])
			last = &latest
		}
	}
	s.mu.RUnlock()
	if !ok {
		return db.Deployment{}, db.App{}, db.Missing{Table: "apps", Identity: appID}
	}

	deployment, err := decide(&app, last)
	if err != nil {
		return db.Deployment{}, db.App{}, err
	}
	params, err := encodeParams(deployment.Params)
	if err != nil {
		return db.Deployment{}, db.App{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	deployment.AppID = appID
	deployment.CreatedAt, deployment.UpdatedAt = now, now
	s.deployments[deployment.ID] = storedDeployment{Deployment: deployment, params: params}
	s.history[appID] = append(s.history[appID], deployment.ID)
	s.saveApp(appID, app)

	return s.read(deployment.ID), s.load(s.apps[appID]), nil
}

func (d *deployments) Transition(_ context.Context, id string, task db.TransitionFunc) (db.Deployment, db.App, error) {
	s := d.store
	defer s.lock("deployments", id)()

	s.mu.RLock()
	stored, ok := s.deployments[id]
	s.mu.RUnlock()
	if !ok {
		return db.Deployment{}, db.App{}, db.Missing{Table: "deployments", Identity: id}
	}
	appID := stored.AppID
	defer s.lock("apps", appID)()

	// the app may have been deleted while the app lock was awaited
	s.mu.RLock()
	_, ok = s.deployments[id]
	storedApp, appOK := s.apps[appID]
	var deployment db.Deployment
	var app db.App
	if ok && appOK {
		deployment = s.read(id)
		app = s.load(storedApp)
	}
	s.mu.RUnlock()
	if !ok || !appOK {
		return db.Deployment{}, db.App{}, db.Missing{Table: "deployments", Identity: id}
	}

	if err := task(&deployment, &app); err != nil {
		return db.Deployment{}, db.App{}, err
	}
	params, err := encodeParams(deployment.Params)
	if err != nil {
		return db.Deployment{}, db.App{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	deployment.ID = id
	deployment.AppID = appID
	deployment.CreatedAt = stored.CreatedAt
	deployment.UpdatedAt = s.now()
	s.deployments[id] = storedDeployment{Deployment: deployment, params: params}
	s.saveApp(appID, app)

	return s.read(id), s.load(s.apps[appID]), nil
}

func (d *deployments) Get(_ context.Context, id string) (db.Deployment, error) {
	s := d.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.deployments[id]; !ok {
		return db.Deployment{}, db.Missing{Table: "deployments", Identity: id}
	}
	return s.read(id), nil
}

func (d *deployments) List(_ context.Context, appID string) ([]db.Deployment, error) {
	s := d.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.history[appID]
	result := make([]db.Deployment, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		result = append(result, s.read(ids[i]))
	}
	return result, nil
}

// read returns a copy of a stored deployment. Caller holds s.mu.
func (s *store) read(id string) db.Deployment {
	stored := s.deployments[id]
	deployment := stored.Deployment
	deployment.Params = decodeParams(stored.params)
	return deployment
}
