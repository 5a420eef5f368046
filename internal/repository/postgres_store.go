package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type pgRepositories struct {
	complaints    ComplaintRepository
	updates       ComplaintUpdateRepository
	users         UserRepository
	notifications NotificationRepository
	attachments   AttachmentRepository
}

func newPgRepositories(db DBTX) *pgRepositories {
	return &pgRepositories{
		complaints:    NewComplaintRepository(db),
		updates:       NewComplaintUpdateRepository(db),
		users:         NewUserRepository(db),
		notifications: NewNotificationRepository(db),
		attachments:   NewAttachmentRepository(db),
	}
}

func (r *pgRepositories) Complaints() ComplaintRepository { return r.complaints }
func (r *pgRepositories) Updates() ComplaintUpdateRepository { return r.updates }
func (r *pgRepositories) Users() UserRepository { return r.users }
func (r *pgRepositories) Notifications() NotificationRepository { return r.notifications }
func (r *pgRepositories) Attachments() AttachmentRepository { return r.attachments }

// PostgresStore implements Store on a pgx pool.
type PostgresStore struct {
	*pgRepositories
	pool *pgxpool.Pool
}

// NewPostgresStore wires every repository against pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pgRepositories: newPgRepositories(pool), pool: pool}
}

// WithinTx runs fn inside a read-committed transaction. Row locks taken through the
// ForUpdate lookups are released on commit or rollback.
func (s *PostgresStore) WithinTx(ctx context.Context, fn func(tx Repositories) error) (err error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(context.Background())
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(context.Background()); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				err = errors.Join(err, rbErr)
			}
		}
	}()

	if err = fn(newPgRepositories(tx)); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
