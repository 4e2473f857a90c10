package repository

import (
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"

	"taskmanager/internal/common"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// translatePgError classifies the store faults callers can act on; everything else is
// wrapped with op and surfaces as an internal error.
func translatePgError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case common.PgUniqueViolation:
			return fmt.Errorf("%s: duplicate value: %w", op, common.ErrConflict)
		case common.PgForeignKeyViolation:
			return fmt.Errorf("%s: referenced row does not exist: %w", op, common.ErrNotFound)
		case common.PgInvalidTextRepr:
			// Malformed ids can never match a row.
			return fmt.Errorf("%s: %w", op, common.ErrNotFound)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
