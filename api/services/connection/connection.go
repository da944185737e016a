// Package connection describes how managed services are provisioned and
// how apps attached to them reach them.
package connection

import (
	"fmt"
	"sort"

	"github.com/shapeblock/shapeblock-api/internal/db"
)

type family int

const (
	database family = iota
	cache
)

// Template holds what differs between service types.
type Template struct {
	Type db.ServiceType
	// Chart is the helm chart provisioning the service.
	Chart string
	// StatefulSetSuffix is appended to the service name to get the host.
	StatefulSetSuffix string
	// Scheme of the connection url.
	Scheme string
	family family
}

var templates = map[db.ServiceType]Template{
	db.ServiceMySQL:    {Type: db.ServiceMySQL, Chart: "mysql", StatefulSetSuffix: "-mysql", Scheme: "mysql", family: database},
	db.ServicePostgres: {Type: db.ServicePostgres, Chart: "postgresql", StatefulSetSuffix: "-postgresql", Scheme: "postgres", family: database},
	db.ServiceMongoDB:  {Type: db.ServiceMongoDB, Chart: "mongodb", StatefulSetSuffix: "-mongodb", Scheme: "mongodb", family: database},
	db.ServiceRedis:    {Type: db.ServiceRedis, Chart: "redis", StatefulSetSuffix: "-redis-master", Scheme: "redis", family: cache},
}

// Types lists the supported service types.
func Types() []db.ServiceType {
	types := make([]db.ServiceType, 0, len(templates))
	for t := range templates {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// Parse validates a service type name.
func Parse(name string) (db.ServiceType, error) {
	t := db.ServiceType(name)
	if _, ok := templates[t]; !ok {
		return "", fmt.Errorf("unknown service type %s, supported types are %v", name, Types())
	}
	return t, nil
}

// Lookup returns the template of t.
func Lookup(t db.ServiceType) (Template, error) {
	template, ok := templates[t]
	if !ok {
		return Template{}, fmt.Errorf("unknown service type %s", t)
	}
	return template, nil
}

// ParseExposedAs validates an exposure mode. Empty means separate variables.
func ParseExposedAs(name string) (db.ExposedAs, error) {
	switch db.ExposedAs(name) {
	case "", db.ExposedAsSeparateVariables:
		return db.ExposedAsSeparateVariables, nil
	case db.ExposedAsURL:
		return db.ExposedAsURL, nil
	}
	return "", fmt.Errorf("unknown exposed_as %s, use %s or %s", name, db.ExposedAsSeparateVariables, db.ExposedAsURL)
}

// StatefulSet is the name of the stateful set running the service.
func (t Template) StatefulSet(serviceName string) string {
	return serviceName + t.StatefulSetSuffix
}

// Credentials used by every provisioned service.
type Credentials struct {
	User     string
	Password string
	Database string
}

func DefaultCredentials() Credentials {
	return Credentials{User: "shapeblock", Password: "shapeblock", Database: "shapeblock"}
}

// EnvVars returns the variables an app attached to service receives.
func (c Credentials) EnvVars(service db.Service, exposedAs db.ExposedAs) ([]db.KeyValue, error) {
	t, err := Lookup(service.Type)
	if err != nil {
		return nil, err
	}
	host := t.StatefulSet(service.Name)

	switch t.family {
	case database:
		if exposedAs == db.ExposedAsURL {
			return []db.KeyValue{
				{Key: "DATABASE_URL", Value: fmt.Sprintf("%s://%s:%s@%s/%s", t.Scheme, c.User, c.Password, host, c.Database)},
			}, nil
		}
		return []db.KeyValue{
			{Key: "DB_HOST", Value: host},
			{Key: "DB_NAME", Value: c.Database},
			{Key: "DB_USER", Value: c.User},
			{Key: "DB_PASSWORD", Value: c.Password},
		}, nil
	case cache:
		if exposedAs == db.ExposedAsURL {
			return []db.KeyValue{
				{Key: "REDIS_URL", Value: fmt.Sprintf("%s://:%s@%s", t.Scheme, c.Password, host)},
			}, nil
		}
		return []db.KeyValue{
			{Key: "REDIS_HOST", Value: host},
			{Key: "REDIS_PASSWORD", Value: c.Password},
		}, nil
	}
	return nil, fmt.Errorf("service type %s has no connection template", service.Type)
}

// HelmValues returns the chart values provisioning a service of type t
// with c.
func (c Credentials) HelmValues(t db.ServiceType) (map[string]interface{}, error) {
	switch t {
	case db.ServicePostgres:
		return map[string]interface{}{
			"auth": map[string]interface{}{
				"username":         c.User,
				"password":         c.Password,
				"database":         c.Database,
				"postgresPassword": c.Password,
			},
		}, nil
	case db.ServiceMySQL:
		return map[string]interface{}{
			"auth": map[string]interface{}{
				"username":     c.User,
				"password":     c.Password,
				"database":     c.Database,
				"rootPassword": c.Password,
			},
		}, nil
	case db.ServiceMongoDB:
		return map[string]interface{}{
			"auth": map[string]interface{}{
				"usernames":    []interface{}{c.User},
				"passwords":    []interface{}{c.Password},
				"databases":    []interface{}{c.Database},
				"rootPassword": c.Password,
			},
		}, nil
	case db.ServiceRedis:
		return map[string]interface{}{
			"architecture": "standalone",
			"auth": map[string]interface{}{
				"password": c.Password,
			},
		}, nil
	}
	return nil, fmt.Errorf("service type %s has no chart values", t)
}

// Environment returns the env vars of app: those derived from its attached
// services followed by its own. A variable set on the app wins over a derived
// one with the same key.
func (c Credentials) Environment(app db.App) ([]db.KeyValue, error) {
	own := map[string]bool{}
	for _, env := range app.Config.EnvVars {
		own[env.Key] = true
	}

	result := []db.KeyValue{}
	for _, attached := range app.Services {
		derived, err := c.EnvVars(attached.Service, attached.ExposedAs)
		if err != nil {
			return nil, err
		}
		for _, env := range derived {
			if !own[env.Key] {
				result = append(result, env)
			}
		}
	}
	return append(result, app.Config.EnvVars...), nil
}
