package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/AdamBeresnev/bracketd/internal/bracket"
	"github.com/mattn/go-sqlite3"
)

// wrapErr maps driver errors onto the bracket error kinds. Nothing is retried here.
func wrapErr(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	msg := fmt.Sprintf(format, args...)

	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", bracket.ErrNotFound, msg)
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return fmt.Errorf("%w: %s: %w", bracket.ErrConflict, msg, err)
		case sqlite3.ErrConstraintForeignKey:
			return fmt.Errorf("%w: %s: %w", bracket.ErrNotFound, msg, err)
		}
	}
	if errors.Is(err, bracket.ErrNotFound) || errors.Is(err, bracket.ErrConflict) || errors.Is(err, bracket.ErrStorage) {
		return fmt.Errorf("%s: %w", msg, err)
	}
	return fmt.Errorf("%w: %s: %w", bracket.ErrStorage, msg, err)
}

func checkAffectedRows(result sql.Result, notFound error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: failed to check affected rows: %w", bracket.ErrStorage, err)
	}
	if rowsAffected == 0 {
		return notFound
	}
	return nil
}
