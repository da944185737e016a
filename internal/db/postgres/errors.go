package postgres

import (
	"errors"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v4"
	"github.com/shapeblock/shapeblock-api/internal/db"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// asMissing turns "no rows" and malformed ids into db.Missing.
func asMissing(err error, table, identity string) error {
	if errors.Is(err, pgx.ErrNoRows) || pgCode(err) == pgerrcode.InvalidTextRepresentation {
		return db.Missing{Table: table, Identity: identity}
	}
	return err
}

// asInsertError maps constraint violations raised by an insert.
func asInsertError(err error, table, reference, identity string) error {
	switch pgCode(err) {
	case pgerrcode.UniqueViolation:
		return db.Conflict{Table: table, Reason: "record already exists"}
	case pgerrcode.ForeignKeyViolation, pgerrcode.InvalidTextRepresentation:
		return db.Missing{Table: reference, Identity: identity}
	}
	return err
}

// asDeleteError maps a foreign key violation raised by a delete.
func asDeleteError(err error, table, reason string) error {
	if pgCode(err) == pgerrcode.ForeignKeyViolation {
		return db.Conflict{Table: table, Reason: reason}
	}
	return err
}
