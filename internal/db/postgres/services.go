package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/shapeblock/shapeblock-api/internal/db"
)

type services struct {
	pool *pgxpool.Pool
}

const serviceColumns = `"id", "project_id", "owner", "name", "type", "status", "created_at"`

func scanService(row interface{ Scan(...interface{}) error }) (db.Service, error) {
	var s db.Service
	var typ, status string
	if err := row.Scan(&s.ID, &s.ProjectID, &s.Owner, &s.Name, &typ, &status, &s.CreatedAt); err != nil {
		return db.Service{}, err
	}
	s.Type = db.ServiceType(typ)
	s.Status = db.ServiceStatus(status)
	return s, nil
}

func (m *services) Create(ctx context.Context, service db.Service) (db.Service, error) {
	created, err := scanService(m.pool.QueryRow(
		ctx,
		`insert into "services" ("id", "project_id", "owner", "name", "type", "status")
		values ($1, $2, $3, $4, $5, $6)
		returning `+serviceColumns,
		service.ID, service.ProjectID, service.Owner, service.Name, string(service.Type), string(service.Status),
	))
	if err != nil {
		return db.Service{}, asInsertError(err, "services", "projects", service.ProjectID)
	}
	return created, nil
}

func (m *services) Get(ctx context.Context, id string) (db.Service, error) {
	s, err := scanService(m.pool.QueryRow(
		ctx, `select `+serviceColumns+` from "services" where "id" = $1`, id,
	))
	if err != nil {
		return db.Service{}, asMissing(err, "services", id)
	}
	return s, nil
}

func (m *services) List(ctx context.Context, owner string) ([]db.Service, error) {
	rows, err := m.pool.Query(
		ctx, `select `+serviceColumns+` from "services" where "owner" = $1 order by "name"`, owner,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []db.Service{}
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

func (m *services) Update(ctx context.Context, id string, task func(*db.Service) error) (db.Service, error) {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return db.Service{}, err
	}
	defer tx.Rollback(ctx)

	s, err := scanService(tx.QueryRow(
		ctx, `select `+serviceColumns+` from "services" where "id" = $1 for update`, id,
	))
	if err != nil {
		return db.Service{}, asMissing(err, "services", id)
	}
	if err := task(&s); err != nil {
		return db.Service{}, err
	}

	updated, err := scanService(tx.QueryRow(
		ctx,
		`update "services" set "name" = $2, "status" = $3 where "id" = $1 returning `+serviceColumns,
		id, s.Name, string(s.Status),
	))
	if err != nil {
		return db.Service{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return db.Service{}, err
	}
	return updated, nil
}

func (m *services) Delete(ctx context.Context, id string) error {
	tag, err := m.pool.Exec(ctx, `delete from "services" where "id" = $1`, id)
	if err != nil {
		return asMissing(asDeleteError(err, "services", "service is attached to an app"), "services", id)
	}
	if tag.RowsAffected() == 0 {
		return db.Missing{Table: "services", Identity: id}
	}
	return nil
}

func (m *services) Attach(ctx context.Context, attachment db.Attachment) error {
	_, err := m.pool.Exec(
		ctx,
		`insert into "attachments" ("service_id", "app_id", "exposed_as") values ($1, $2, $3)`,
		attachment.ServiceID, attachment.AppID, string(attachment.ExposedAs),
	)
	if err != nil {
		return asInsertError(err, "attachments", "services or apps", attachment.ServiceID+"/"+attachment.AppID)
	}
	return nil
}

func (m *services) Detach(ctx context.Context, serviceID, appID string) error {
	tag, err := m.pool.Exec(
		ctx, `delete from "attachments" where "service_id" = $1 and "app_id" = $2`, serviceID, appID,
	)
	if err != nil {
		return asMissing(err, "attachments", serviceID+"/"+appID)
	}
	if tag.RowsAffected() == 0 {
		return db.Missing{Table: "attachments", Identity: serviceID + "/" + appID}
	}
	return nil
}

func (m *services) Attachments(ctx context.Context, serviceID string) ([]db.Attachment, error) {
	rows, err := m.pool.Query(
		ctx,
		`select "service_id", "app_id", "exposed_as" from "attachments" where "service_id" = $1 order by "app_id"`,
		serviceID,
	)
	if err != nil {
		return nil, asMissing(err, "services", serviceID)
	}
	defer rows.Close()

	result := []db.Attachment{}
	for rows.Next() {
		var a db.Attachment
		var exposedAs string
		if err := rows.Scan(&a.ServiceID, &a.AppID, &exposedAs); err != nil {
			return nil, err
		}
		a.ExposedAs = db.ExposedAs(exposedAs)
		result = append(result, a)
	}
	return result, rows.Err()
}
