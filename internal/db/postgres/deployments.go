package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/shapeblock/shapeblock-api/internal/db"
)

type deployments struct {
	pool *pgxpool.Pool
}

const deploymentColumns = `"id", "app_id", "owner", "status", "type", "ref", "log", "params", "pod",
	"previous_app_status", "created_at", "updated_at"`

func scanDeployment(row interface{ Scan(...interface{}) error }) (db.Deployment, error) {
	var d db.Deployment
	var status, typ, previous string
	var params []byte
	err := row.Scan(
		&d.ID, &d.AppID, &d.Owner, &status, &typ, &d.Ref, &d.Log, &params, &d.Pod,
		&previous, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return db.Deployment{}, err
	}
	d.Status = db.DeploymentStatus(status)
	d.Type = db.DeploymentType(typ)
	d.PreviousAppStatus = db.AppStatus(previous)
	if len(params) > 0 {
		if err := json.Unmarshal(params, &d.Params); err != nil {
			return db.Deployment{}, fmt.Errorf("deployment %s has broken params: %w", d.ID, err)
		}
	}
	return d, nil
}

func encodeParams(p db.Params) ([]byte, error) {
	if p == nil {
		return nil, nil
	}
	return json.Marshal(p)
}

func (m *deployments) Admit(ctx context.Context, appID string, decide db.AdmitFunc) (db.Deployment, db.App, error) {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return db.Deployment{}, db.App{}, err
	}
	defer tx.Rollback(ctx)

	app, err := getApp(ctx, tx, appID, true)
	if err != nil {
		return db.Deployment{}, db.App{}, err
	}

	var last *db.Deployment
	latest, err := scanDeployment(tx.QueryRow(
		ctx,
		`select `+deploymentColumns+` from "deployments"
		where "app_id" = $1 order by "seq" desc limit 1`,
		appID,
	))
	switch {
	case errors.Is(err, pgx.ErrNoRows):
	case err != nil:
		return db.Deployment{}, db.App{}, err
	default:
		last = &latest
	}

	deployment, err := decide(&app, last)
	if err != nil {
		return db.Deployment{}, db.App{}, err
	}
	params, err := encodeParams(deployment.Params)
	if err != nil {
		return db.Deployment{}, db.App{}, err
	}

	created, err := scanDeployment(tx.QueryRow(
		ctx,
		`insert into "deployments" (
			"id", "app_id", "owner", "status", "type", "ref", "log", "params", "pod", "previous_app_status"
		) values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		returning `+deploymentColumns,
		deployment.ID, appID, deployment.Owner, string(deployment.Status), string(deployment.Type),
		deployment.Ref, deployment.Log, params, deployment.Pod, string(deployment.PreviousAppStatus),
	))
	if err != nil {
		return db.Deployment{}, db.App{}, asInsertError(err, "deployments", "apps", appID)
	}

	app.ID = appID
	if err := saveApp(ctx, tx, app); err != nil {
		return db.Deployment{}, db.App{}, err
	}
	updated, err := getApp(ctx, tx, appID, false)
	if err != nil {
		return db.Deployment{}, db.App{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return db.Deployment{}, db.App{}, err
	}
	return created, updated, nil
}

func (m *deployments) Transition(ctx context.Context, id string, task db.TransitionFunc) (db.Deployment, db.App, error) {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return db.Deployment{}, db.App{}, err
	}
	defer tx.Rollback(ctx)

	deployment, err := scanDeployment(tx.QueryRow(
		ctx, `select `+deploymentColumns+` from "deployments" where "id" = $1 for update`, id,
	))
	if err != nil {
		return db.Deployment{}, db.App{}, asMissing(err, "deployments", id)
	}
	appID := deployment.AppID
	app, err := getApp(ctx, tx, appID, true)
	if err != nil {
		return db.Deployment{}, db.App{}, err
	}

	if err := task(&deployment, &app); err != nil {
		return db.Deployment{}, db.App{}, err
	}
	params, err := encodeParams(deployment.Params)
	if err != nil {
		return db.Deployment{}, db.App{}, err
	}

	updated, err := scanDeployment(tx.QueryRow(
		ctx,
		`update "deployments" set
			"status" = $2, "ref" = $3, "log" = $4, "params" = $5, "pod" = $6, "updated_at" = now()
		where "id" = $1
		returning `+deploymentColumns,
		id, string(deployment.Status), deployment.Ref, deployment.Log, params, deployment.Pod,
	))
	if err != nil {
		return db.Deployment{}, db.App{}, err
	}

	app.ID = appID
	if err := saveApp(ctx, tx, app); err != nil {
		return db.Deployment{}, db.App{}, err
	}
	updatedApp, err := getApp(ctx, tx, appID, false)
	if err != nil {
		return db.Deployment{}, db.App{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return db.Deployment{}, db.App{}, err
	}
	return updated, updatedApp, nil
}

func (m *deployments) Get(ctx context.Context, id string) (db.Deployment, error) {
	d, err := scanDeployment(m.pool.QueryRow(
		ctx, `select `+deploymentColumns+` from "deployments" where "id" = $1`, id,
	))
	if err != nil {
		return db.Deployment{}, asMissing(err, "deployments", id)
	}
	return d, nil
}

func (m *deployments) List(ctx context.Context, appID string) ([]db.Deployment, error) {
	rows, err := m.pool.Query(
		ctx,
		`select `+deploymentColumns+` from "deployments" where "app_id" = $1 order by "seq" desc`,
		appID,
	)
	if err != nil {
		return nil, asMissing(err, "apps", appID)
	}
	defer rows.Close()

	result := []db.Deployment{}
	for rows.Next() {
		d, err := scanDeployment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	return result, rows.Err()
}
