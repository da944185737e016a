package memory

import (
	"context"
	"sort"

	"github.com/shapeblock/shapeblock-api/internal/db"
)

type services struct {
	store *store
}

func (v *services) Create(_ context.Context, service db.Service) (db.Service, error) {
	s := v.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[service.ProjectID]; !ok {
		return db.Service{}, db.Missing{Table: "projects", Identity: service.ProjectID}
	}
	for _, existing := range s.services {
		if existing.ProjectID == service.ProjectID && existing.Name == service.Name {
			return db.Service{}, db.Conflict{Table: "services", Reason: "name " + service.Name + " is taken"}
		}
	}
	service.CreatedAt = s.now()
	s.services[service.ID] = service
	return service, nil
}

func (v *services) Get(_ context.Context, id string) (db.Service, error) {
	s := v.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	service, ok := s.services[id]
	if !ok {
		return db.Service{}, db.Missing{Table: "services", Identity: id}
	}
	return service, nil
}

func (v *services) List(_ context.Context, owner string) ([]db.Service, error) {
	s := v.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []db.Service{}
	for _, service := range s.services {
		if service.Owner == owner {
			result = append(result, service)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (v *services) Update(ctx context.Context, id string, task func(*db.Service) error) (db.Service, error) {
	s := v.store
	defer s.lock("services", id)()

	service, err := v.Get(ctx, id)
	if err != nil {
		return db.Service{}, err
	}
	if err := task(&service); err != nil {
		return db.Service{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	stored := s.services[id]
	service.ID = id
	service.ProjectID = stored.ProjectID
	service.Owner = stored.Owner
	service.CreatedAt = stored.CreatedAt
	s.services[id] = service
	return service, nil
}

func (v *services) Delete(_ context.Context, id string) error {
	s := v.store
	defer s.lock("services", id)()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.services[id]; !ok {
		return db.Missing{Table: "services", Identity: id}
	}
	for _, attachment := range s.attachments {
		if attachment.ServiceID == id {
			return db.Conflict{Table: "services", Reason: "service is attached to an app"}
		}
	}
	delete(s.services, id)
	return nil
}

func (v *services) Attach(_ context.Context, attachment db.Attachment) error {
	s := v.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.services[attachment.ServiceID]; !ok {
		return db.Missing{Table: "services", Identity: attachment.ServiceID}
	}
	if _, ok := s.apps[attachment.AppID]; !ok {
		return db.Missing{Table: "apps", Identity: attachment.AppID}
	}
	key := attachmentKey(attachment.ServiceID, attachment.AppID)
	if _, ok := s.attachments[key]; ok {
		return db.Conflict{Table: "attachments", Reason: "service is already attached"}
	}
	s.attachments[key] = attachment
	return nil
}

func (v *services) Detach(_ context.Context, serviceID, appID string) error {
	s := v.store
	s.mu.Lock()
	defer s.mu.Unlock()

	key := attachmentKey(serviceID, appID)
	if _, ok := s.attachments[key]; !ok {
		return db.Missing{Table: "attachments", Identity: key}
	}
	delete(s.attachments, key)
	return nil
}

func (v *services) Attachments(_ context.Context, serviceID string) ([]db.Attachment, error) {
	s := v.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []db.Attachment{}
	for _, attachment := range s.attachments {
		if attachment.ServiceID == serviceID {
			result = append(result, attachment)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].AppID < result[j].AppID })
	return result, nil
}
