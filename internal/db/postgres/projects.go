package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/shapeblock/shapeblock-api/internal/db"
)

type projects struct {
	pool *pgxpool.Pool
}

const projectColumns = `"id", "name", "display_name", "description", "owner", "created_at"`

func scanProject(row interface{ Scan(...interface{}) error }) (db.Project, error) {
	var p db.Project
	err := row.Scan(&p.ID, &p.Name, &p.DisplayName, &p.Description, &p.Owner, &p.CreatedAt)
	return p, err
}

func (m *projects) Create(ctx context.Context, project db.Project) (db.Project, error) {
	created, err := scanProject(m.pool.QueryRow(
		ctx,
		`insert into "projects" ("id", "name", "display_name", "description", "owner")
		values ($1, $2, $3, $4, $5)
		returning `+projectColumns,
		project.ID, project.Name, project.DisplayName, project.Description, project.Owner,
	))
	if err != nil {
		return db.Project{}, asInsertError(err, "projects", "projects", project.ID)
	}
	return created, nil
}

func (m *projects) Get(ctx context.Context, id string) (db.Project, error) {
	p, err := scanProject(m.pool.QueryRow(
		ctx, `select `+projectColumns+` from "projects" where "id" = $1`, id,
	))
	if err != nil {
		return db.Project{}, asMissing(err, "projects", id)
	}
	return p, nil
}

func (m *projects) List(ctx context.Context, owner string) ([]db.Project, error) {
	rows, err := m.pool.Query(
		ctx, `select `+projectColumns+` from "projects" where "owner" = $1 order by "name"`, owner,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []db.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func (m *projects) Update(ctx context.Context, id string, task func(*db.Project) error) (db.Project, error) {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return db.Project{}, err
	}
	defer tx.Rollback(ctx)

	p, err := scanProject(tx.QueryRow(
		ctx, `select `+projectColumns+` from "projects" where "id" = $1 for update`, id,
	))
	if err != nil {
		return db.Project{}, asMissing(err, "projects", id)
	}
	if err := task(&p); err != nil {
		return db.Project{}, err
	}

	if _, err := tx.Exec(
		ctx,
		`update "projects" set "display_name" = $2, "description" = $3 where "id" = $1`,
		id, p.DisplayName, p.Description,
	); err != nil {
		return db.Project{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return db.Project{}, err
	}
	p.ID = id
	return p, nil
}

func (m *projects) Delete(ctx context.Context, id string) error {
	tag, err := m.pool.Exec(ctx, `delete from "projects" where "id" = $1`, id)
	if err != nil {
		return asMissing(asDeleteError(err, "projects", "project has apps or services"), "projects", id)
	}
	if tag.RowsAffected() == 0 {
		return db.Missing{Table: "projects", Identity: id}
	}
	return nil
}
