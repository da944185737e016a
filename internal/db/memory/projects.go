package memory

import (
	"context"
	"sort"

	"github.com/shapeblock/shapeblock-api/internal/db"
)

type projects struct {
	store *store
}

func (p *projects) Create(_ context.Context, project db.Project) (db.Project, error) {
	s := p.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.projects {
		if existing.Name == project.Name {
			return db.Project{}, db.Conflict{Table: "projects", Reason: "name " + project.Name + " is taken"}
		}
	}
	project.CreatedAt = s.now()
	s.projects[project.ID] = project
	return project, nil
}

func (p *projects) Get(_ context.Context, id string) (db.Project, error) {
	s := p.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	project, ok := s.projects[id]
	if !ok {
		return db.Project{}, db.Missing{Table: "projects", Identity: id}
	}
	return project, nil
}

func (p *projects) List(_ context.Context, owner string) ([]db.Project, error) {
	s := p.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []db.Project{}
	for _, project := range s.projects {
		if project.Owner == owner {
			result = append(result, project)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (p *projects) Update(ctx context.Context, id string, task func(*db.Project) error) (db.Project, error) {
	s := p.store
	defer s.lock("projects", id)()

	project, err := p.Get(ctx, id)
	if err != nil {
		return db.Project{}, err
	}
	if err := task(&project); err != nil {
		return db.Project{}, err
	}
	project.ID = id

	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects[id] = project
	return project, nil
}

func (p *projects) Delete(_ context.Context, id string) error {
	s := p.store
	defer s.lock("projects", id)()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[id]; !ok {
		return db.Missing{Table: "projects", Identity: id}
	}
	for _, app := range s.apps {
		if app.ProjectID == id {
			return db.Conflict{Table: "projects", Reason: "project has apps"}
		}
	}
	for _, service := range s.services {
		if service.ProjectID == id {
			return db.Conflict{Table: "projects", Reason: "project has services"}
		}
	}
	delete(s.projects, id)
	return nil
}
