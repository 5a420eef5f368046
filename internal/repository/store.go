package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned when a row does not exist.
	ErrNotFound = pgx.ErrNoRows
	// ErrDuplicateOfflineID is returned when an offline_id is already stored.
	ErrDuplicateOfflineID = errors.New("offline_id already exists")
	// ErrDuplicateEmail is returned when an email is already registered.
	ErrDuplicateEmail = errors.New("email already registered")
)

// DBTX is satisfied by *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repositories groups the repositories bound to one connection or transaction.
type Repositories interface {
	Complaints() ComplaintRepository
	Updates() ComplaintUpdateRepository
	Users() UserRepository
	Notifications() NotificationRepository
	Attachments() AttachmentRepository
}

// Store exposes repositories and runs units of work atomically.
type Store interface {
	Repositories
	// WithinTx runs fn in a transaction; any error from fn rolls everything back.
	WithinTx(ctx context.Context, fn func(tx Repositories) error) error
}

const (
	pgUniqueViolation   = "23505"
	pgInvalidTextRepr   = "22P02"
	offlineIDConstraint = "complaints_offline_id_key"
	emailConstraint     = "users_email_key"
)

// normalizeErr maps driver errors onto the repository's sentinel errors.
func normalizeErr(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			switch pgErr.ConstraintName {
			case offlineIDConstraint:
				return ErrDuplicateOfflineID
			case emailConstraint:
				return ErrDuplicateEmail
			}
		case pgInvalidTextRepr:
			// malformed UUIDs cannot match any row
			return ErrNotFound
		}
	}
	return err
}
