package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/oladanielT/support-system/internal/domain"
)

// ComplaintFilter captures scope and search parameters.
type ComplaintFilter struct {
	SubmittedBy *string
	AssignedTo  *string
	Statuses    []domain.ComplaintStatus
	Priorities  []domain.ComplaintPriority
	Categories  []domain.ComplaintCategory
	SearchTerm  *string
	Limit       int
	Offset      int
}

// ComplaintRepository encapsulates complaint persistence.
type ComplaintRepository interface {
	Create(ctx context.Context, complaint *domain.Complaint) error
	Update(ctx context.Context, complaint *domain.Complaint) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Complaint, error)
	// GetByIDForUpdate locks the row until the surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id string) (*domain.Complaint, error)
	ExistsByOfflineID(ctx context.Context, offlineID string) (bool, error)
	CountOpenBySubmitter(ctx context.Context, userID string) (int, error)
	List(ctx context.Context, filter ComplaintFilter) ([]domain.Complaint, error)
	// ListAll ignores Limit/Offset.
	ListAll(ctx context.Context, filter ComplaintFilter) ([]domain.Complaint, error)
	Count(ctx context.Context, filter ComplaintFilter) (int, error)
}

type complaintRepository struct {
	db DBTX
}

// NewComplaintRepository instantiates repository.
func NewComplaintRepository(db DBTX) ComplaintRepository {
	return &complaintRepository{db: db}
}

const complaintColumns = `
        c.id, c.offline_id, c.title, c.description, c.category, c.priority, c.status,
        c.location, c.contact_info, c.resolution_notes, c.admin_notes, c.is_synced,
        c.submitted_by, c.assigned_to, c.created_at, c.updated_at, c.assigned_at, c.resolved_at,
        s.first_name, s.last_name, s.email, s.role,
        a.first_name, a.last_name, a.email, a.role`

const complaintFrom = `
        FROM complaints c
        JOIN users s ON s.id = c.submitted_by
        LEFT JOIN users a ON a.id = c.assigned_to`

func (r *complaintRepository) Create(ctx context.Context, complaint *domain.Complaint) error {
	const query = `
        INSERT INTO complaints (id, offline_id, title, description, category, priority, status,
            location, contact_info, resolution_notes, admin_notes, is_synced, submitted_by, assigned_to,
            created_at, updated_at, assigned_at, resolved_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)`
	_, err := r.db.Exec(ctx, query,
		complaint.ID,
		complaint.OfflineID,
		complaint.Title,
		complaint.Description,
		complaint.Category,
		complaint.Priority,
		complaint.Status,
		complaint.Location,
		complaint.ContactInfo,
		complaint.ResolutionNotes,
		complaint.AdminNotes,
		complaint.IsSynced,
		complaint.SubmittedByID,
		complaint.AssignedToID,
		complaint.CreatedAt,
		complaint.UpdatedAt,
		complaint.AssignedAt,
		complaint.ResolvedAt,
	)
	return normalizeErr(err)
}

func (r *complaintRepository) Update(ctx context.Context, complaint *domain.Complaint) error {
	const query = `
        UPDATE complaints SET title=$1, description=$2, category=$3, priority=$4, status=$5,
            location=$6, contact_info=$7, resolution_notes=$8, admin_notes=$9, assigned_to=$10,
            updated_at=$11, assigned_at=$12, resolved_at=$13
        WHERE id=$14`
	cmd, err := r.db.Exec(ctx, query,
		complaint.Title,
		complaint.Description,
		complaint.Category,
		complaint.Priority,
		complaint.Status,
		complaint.Location,
		complaint.ContactInfo,
		complaint.ResolutionNotes,
		complaint.AdminNotes,
		complaint.AssignedToID,
		complaint.UpdatedAt,
		complaint.AssignedAt,
		complaint.ResolvedAt,
		complaint.ID,
	)
	if err != nil {
		return normalizeErr(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *complaintRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM complaints WHERE id=$1`, id)
	if err != nil {
		return normalizeErr(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *complaintRepository) GetByID(ctx context.Context, id string) (*domain.Complaint, error) {
	query := `SELECT` + complaintColumns + complaintFrom + ` WHERE c.id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *complaintRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Complaint, error) {
	query := `SELECT` + complaintColumns + complaintFrom + ` WHERE c.id=$1 FOR UPDATE OF c`
	return r.fetchSingle(ctx, query, id)
}

func (r *complaintRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Complaint, error) {
	complaint, err := scanComplaint(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		return nil, normalizeErr(err)
	}
	return complaint, nil
}

func (r *complaintRepository) ExistsByOfflineID(ctx context.Context, offlineID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM complaints WHERE offline_id=$1)`, offlineID).Scan(&exists)
	return exists, normalizeErr(err)
}

func (r *complaintRepository) CountOpenBySubmitter(ctx context.Context, userID string) (int, error) {
	return r.Count(ctx, ComplaintFilter{SubmittedBy: &userID, Statuses: domain.OpenStatuses})
}

func (r *complaintRepository) List(ctx context.Context, filter ComplaintFilter) ([]domain.Complaint, error) {
	where, args := buildComplaintWhere(filter)
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	query := fmt.Sprintf(`SELECT %s %s WHERE %s ORDER BY c.created_at DESC LIMIT %d OFFSET %d`,
		complaintColumns, complaintFrom, where, limit, offset)
	return r.query(ctx, query, args...)
}

func (r *complaintRepository) ListAll(ctx context.Context, filter ComplaintFilter) ([]domain.Complaint, error) {
	where, args := buildComplaintWhere(filter)
	query := fmt.Sprintf(`SELECT %s %s WHERE %s ORDER BY c.created_at DESC`, complaintColumns, complaintFrom, where)
	return r.query(ctx, query, args...)
}

func (r *complaintRepository) Count(ctx context.Context, filter ComplaintFilter) (int, error) {
	where, args := buildComplaintWhere(filter)
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM complaints c WHERE `+where, args...).Scan(&count)
	return count, normalizeErr(err)
}

func (r *complaintRepository) query(ctx context.Context, query string, args ...any) ([]domain.Complaint, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, normalizeErr(err)
	}
	defer rows.Close()

	var result []domain.Complaint
	for rows.Next() {
		complaint, err := scanComplaint(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *complaint)
	}
	return result, rows.Err()
}

func buildComplaintWhere(filter ComplaintFilter) (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.SubmittedBy != nil {
		args = append(args, *filter.SubmittedBy)
		clauses = append(clauses, fmt.Sprintf("c.submitted_by=$%d", len(args)))
	}
	if filter.AssignedTo != nil {
		args = append(args, *filter.AssignedTo)
		clauses = append(clauses, fmt.Sprintf("c.assigned_to=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("c.status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			args = append(args, pr)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("c.priority IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Categories) > 0 {
		placeholders := make([]string, len(filter.Categories))
		for i, cat := range filter.Categories {
			args = append(args, cat)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("c.category IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(c.title) LIKE %s OR LOWER(c.description) LIKE %s OR LOWER(c.location) LIKE %s)",
			placeholder, placeholder, placeholder))
	}
	return strings.Join(clauses, " AND "), args
}

func scanComplaint(row pgx.Row) (*domain.Complaint, error) {
	var complaint domain.Complaint
	var subFirst, subLast, subEmail, subRole string
	var asgFirst, asgLast, asgEmail, asgRole *string
	if err := row.Scan(
		&complaint.ID,
		&complaint.OfflineID,
		&complaint.Title,
		&complaint.Description,
		&complaint.Category,
		&complaint.Priority,
		&complaint.Status,
		&complaint.Location,
		&complaint.ContactInfo,
		&complaint.ResolutionNotes,
		&complaint.AdminNotes,
		&complaint.IsSynced,
		&complaint.SubmittedByID,
		&complaint.AssignedToID,
		&complaint.CreatedAt,
		&complaint.UpdatedAt,
		&complaint.AssignedAt,
		&complaint.ResolvedAt,
		&subFirst, &subLast, &subEmail, &subRole,
		&asgFirst, &asgLast, &asgEmail, &asgRole,
	); err != nil {
		return nil, err
	}
	submitter := domain.User{ID: complaint.SubmittedByID, FirstName: subFirst, LastName: subLast, Email: subEmail, Role: domain.Role(subRole)}
	complaint.SubmittedBy = submitter.Summary()
	if complaint.AssignedToID != nil && asgEmail != nil {
		assignee := domain.User{ID: *complaint.AssignedToID, Email: *asgEmail, Role: domain.Role(deref(asgRole))}
		assignee.FirstName = deref(asgFirst)
		assignee.LastName = deref(asgLast)
		complaint.AssignedTo = assignee.Summary()
	}
	return &complaint, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
