// Package memory keeps the control plane records in process memory.
//
// It serves local development and tests. Row locks are emulated with named
// mutexes so that callbacks see the same serialization as with postgres.
package memory

import (
	"encoding/json"
	"slices"
	"sync"
	"time"

	"github.com/moby/locker"
	"github.com/shapeblock/shapeblock-api/internal/db"
)

type store struct {
	locks *locker.Locker

	mu          sync.RWMutex
	projects    map[string]db.Project
	apps        map[string]db.App
	deployments map[string]storedDeployment
	history     map[string][]string // app id -> deployment ids, oldest first
	services    map[string]db.Service
	attachments map[string]db.Attachment // serviceID/appID

	now func() time.Time
}

// storedDeployment keeps params encoded so that reads behave like a jsonb column.
type storedDeployment struct {
	db.Deployment
	params []byte
}

type database struct {
	store *store
}

var _ db.Database = &database{}

type Option func(*store)

// WithClock replaces the clock stamping records.
func WithClock(now func() time.Time) Option {
	return func(s *store) {
		s.now = now
	}
}

// New returns an empty in-memory database.
func New(options ...Option) db.Database {
	s := &store{
		locks:       locker.New(),
		projects:    map[string]db.Project{},
		apps:        map[string]db.App{},
		deployments: map[string]storedDeployment{},
		history:     map[string][]string{},
		services:    map[string]db.Service{},
		attachments: map[string]db.Attachment{},
		now:         time.Now,
	}
	for _, option := range options {
		option(s)
	}
	return &database{store: s}
}

func (d *database) Projects() db.ProjectInterface {
	return &projects{store: d.store}
}

func (d *database) Apps() db.AppInterface {
	return &apps{store: d.store}
}

func (d *database) Deployments() db.DeploymentInterface {
	return &deployments{store: d.store}
}

func (d *database) Services() db.ServiceInterface {
	return &services{store: d.store}
}

func (d *database) Close() error {
	return nil
}

func (s *store) lock(table, id string) func() {
	key := table + ":" + id
	s.locks.Lock(key)
	return func() {
		_ = s.locks.Unlock(key)
	}
}

func attachmentKey(serviceID, appID string) string {
	return serviceID + "/" + appID
}

func cloneConfig(c db.AppConfig) db.AppConfig {
	return db.AppConfig{
		EnvVars:       slices.Clone(c.EnvVars),
		BuildVars:     slices.Clone(c.BuildVars),
		Secrets:       slices.Clone(c.Secrets),
		Volumes:       slices.Clone(c.Volumes),
		InitProcesses: slices.Clone(c.InitProcesses),
		Workers:       slices.Clone(c.Workers),
		CustomDomains: slices.Clone(c.CustomDomains),
	}
}

func encodeParams(p db.Params) ([]byte, error) {
	if p == nil {
		return nil, nil
	}
	return json.Marshal(p)
}

func decodeParams(raw []byte) db.Params {
	if raw == nil {
		return nil
	}
	var p db.Params
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil
	}
	return p
}
