package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/shapeblock/shapeblock-api/internal/db"
)

type apps struct {
	pool *pgxpool.Pool
}

const appColumns = `"id", "project_id", "owner", "name", "repo", "ref", "sub_path", "stack", "stack_version",
	"status", "replicas", "has_liveness_probe", "autodeploy", "webhook_id", "config", "created_at", "updated_at"`

func scanApp(row interface{ Scan(...interface{}) error }) (db.App, error) {
	var a db.App
	var status string
	var config []byte
	err := row.Scan(
		&a.ID, &a.ProjectID, &a.Owner, &a.Name, &a.Repo, &a.Ref, &a.SubPath, &a.Stack, &a.StackVersion,
		&status, &a.Replicas, &a.HasLivenessProbe, &a.Autodeploy, &a.WebhookID, &config, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return db.App{}, err
	}
	a.Status = db.AppStatus(status)
	if err := json.Unmarshal(config, &a.Config); err != nil {
		return db.App{}, fmt.Errorf("app %s has broken config: %w", a.ID, err)
	}
	return a, nil
}

// getApp reads an app with its attached services. With lock the app row is
// locked until q, a transaction, ends.
func getApp(ctx context.Context, q querier, id string, lock bool) (db.App, error) {
	query := `select ` + appColumns + ` from "apps" where "id" = $1`
	if lock {
		query += ` for update`
	}
	app, err := scanApp(q.QueryRow(ctx, query, id))
	if err != nil {
		return db.App{}, asMissing(err, "apps", id)
	}
	if err := loadServices(ctx, q, &app); err != nil {
		return db.App{}, err
	}
	return app, nil
}

func loadServices(ctx context.Context, q querier, app *db.App) error {
	rows, err := q.Query(
		ctx,
		`select s."id", s."project_id", s."owner", s."name", s."type", s."status", s."created_at", a."exposed_as"
		from "attachments" as a
		inner join "services" as s on s."id" = a."service_id"
		where a."app_id" = $1
		order by s."name"`,
		app.ID,
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	app.Services = []db.AttachedService{}
	for rows.Next() {
		var attached db.AttachedService
		var typ, status, exposedAs string
		s := &attached.Service
		if err := rows.Scan(&s.ID, &s.ProjectID, &s.Owner, &s.Name, &typ, &status, &s.CreatedAt, &exposedAs); err != nil {
			return err
		}
		s.Type = db.ServiceType(typ)
		s.Status = db.ServiceStatus(status)
		attached.ExposedAs = db.ExposedAs(exposedAs)
		app.Services = append(app.Services, attached)
	}
	return rows.Err()
}

// saveApp writes the mutable fields of app.
func saveApp(ctx context.Context, q querier, app db.App) error {
	config, err := json.Marshal(app.Config)
	if err != nil {
		return err
	}
	_, err = q.Exec(
		ctx,
		`update "apps" set
			"name" = $2, "repo" = $3, "ref" = $4, "sub_path" = $5, "stack" = $6, "stack_version" = $7,
			"status" = $8, "replicas" = $9, "has_liveness_probe" = $10, "autodeploy" = $11,
			"webhook_id" = $12, "config" = $13, "updated_at" = now()
		where "id" = $1`,
		app.ID, app.Name, app.Repo, app.Ref, app.SubPath, app.Stack, app.StackVersion,
		string(app.Status), app.Replicas, app.HasLivenessProbe, app.Autodeploy,
		app.WebhookID, config,
	)
	return err
}

func (m *apps) Create(ctx context.Context, app db.App) (db.App, error) {
	config, err := json.Marshal(app.Config)
	if err != nil {
		return db.App{}, err
	}
	created, err := scanApp(m.pool.QueryRow(
		ctx,
		`insert into "apps" (
			"id", "project_id", "owner", "name", "repo", "ref", "sub_path", "stack", "stack_version",
			"status", "replicas", "has_liveness_probe", "autodeploy", "webhook_id", "config"
		) values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		returning `+appColumns,
		app.ID, app.ProjectID, app.Owner, app.Name, app.Repo, app.Ref, app.SubPath, app.Stack, app.StackVersion,
		string(app.Status), app.Replicas, app.HasLivenessProbe, app.Autodeploy, app.WebhookID, config,
	))
	if err != nil {
		return db.App{}, asInsertError(err, "apps", "projects", app.ProjectID)
	}
	created.Services = []db.AttachedService{}
	return created, nil
}

func (m *apps) Get(ctx context.Context, id string) (db.App, error) {
	return getApp(ctx, m.pool, id, false)
}

func (m *apps) GetByWebhook(ctx context.Context, webhookID string) (db.App, error) {
	var id string
	err := m.pool.QueryRow(
		ctx, `select "id" from "apps" where "webhook_id" = $1 and "webhook_id" <> ''`, webhookID,
	).Scan(&id)
	if err != nil {
		return db.App{}, asMissing(err, "apps", "webhook "+webhookID)
	}
	return m.Get(ctx, id)
}

func (m *apps) List(ctx context.Context, owner string) ([]db.App, error) {
	rows, err := m.pool.Query(
		ctx, `select `+appColumns+` from "apps" where "owner" = $1 order by "name"`, owner,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []db.App{}
	for rows.Next() {
		a, err := scanApp(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	for i := range result {
		if err := loadServices(ctx, m.pool, &result[i]); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (m *apps) Update(ctx context.Context, id string, task func(*db.App) error) (db.App, error) {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return db.App{}, err
	}
	defer tx.Rollback(ctx)

	app, err := getApp(ctx, tx, id, true)
	if err != nil {
		return db.App{}, err
	}
	if err := task(&app); err != nil {
		return db.App{}, err
	}
	app.ID = id
	if err := saveApp(ctx, tx, app); err != nil {
		return db.App{}, err
	}
	updated, err := getApp(ctx, tx, id, false)
	if err != nil {
		return db.App{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return db.App{}, err
	}
	return updated, nil
}

func (m *apps) Delete(ctx context.Context, id string) error {
	tag, err := m.pool.Exec(ctx, `delete from "apps" where "id" = $1`, id)
	if err != nil {
		return asMissing(err, "apps", id)
	}
	if tag.RowsAffected() == 0 {
		return db.Missing{Table: "apps", Identity: id}
	}
	return nil
}
