package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/scolaris/scolaris-api/internal/models"
)

// InscriptionRepository handles persistence of inscriptions.
type InscriptionRepository struct {
	db *sqlx.DB
}

// NewInscriptionRepository constructs the repository.
func NewInscriptionRepository(db *sqlx.DB) *InscriptionRepository {
	return &InscriptionRepository{db: db}
}

// List returns inscriptions filtered by the provided criteria.
func (r *InscriptionRepository) List(ctx context.Context, filter models.InscriptionFilter) ([]models.InscriptionDetail, int, error) {
	base := `FROM inscriptions i
LEFT JOIN students st ON st.user_id = i.student_user_id
LEFT JOIN class_sessions cs ON cs.id = i.class_session_id
LEFT JOIN classes c ON c.id = cs.class_id
LEFT JOIN sessions s ON s.id = cs.session_id`
	var conditions []string
	var args []interface{}

	if filter.StudentUserID != "" {
		conditions = append(conditions, fmt.Sprintf("i.student_user_id = $%d", len(args)+1))
		args = append(args, filter.StudentUserID)
	}
	if filter.ClassSessionID != "" {
		conditions = append(conditions, fmt.Sprintf("i.class_session_id = $%d", len(args)+1))
		args = append(args, filter.ClassSessionID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("i.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Reinscription != nil {
		conditions = append(conditions, fmt.Sprintf("i.reinscription = $%d", len(args)+1))
		args = append(args, *filter.Reinscription)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"created_at":   "i.created_at",
		"student_name": "st.full_name",
		"class_name":   "c.name",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "i.created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT i.id, i.student_user_id, i.class_session_id, i.status, i.reinscription, i.created_at, i.updated_at,
COALESCE(st.full_name, '') AS student_name, COALESCE(c.name, '') AS class_name, COALESCE(s.name, '') AS session_name
%s%s ORDER BY %s %s LIMIT %d OFFSET %d`, base, clause, orderBy, order, size, offset)

	var inscriptions []models.InscriptionDetail
	if err := r.db.SelectContext(ctx, &inscriptions, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list inscriptions: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s%s", base, clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count inscriptions: %w", err)
	}

	return inscriptions, total, nil
}

// FindByID loads an inscription by identifier.
func (r *InscriptionRepository) FindByID(ctx context.Context, id string) (*models.Inscription, error) {
	const query = `SELECT id, student_user_id, class_session_id, status, reinscription, created_at, updated_at FROM inscriptions WHERE id = $1`
	var ins models.Inscription
	if err := r.db.GetContext(ctx, &ins, query, id); err != nil {
		return nil, err
	}
	return &ins, nil
}

// FindDetailByID loads an inscription with student and class session info.
func (r *InscriptionRepository) FindDetailByID(ctx context.Context, id string) (*models.InscriptionDetail, error) {
	const query = `SELECT i.id, i.student_user_id, i.class_session_id, i.status, i.reinscription, i.created_at, i.updated_at,
COALESCE(st.full_name, '') AS student_name, COALESCE(c.name, '') AS class_name, COALESCE(s.name, '') AS session_name
FROM inscriptions i
LEFT JOIN students st ON st.user_id = i.student_user_id
LEFT JOIN class_sessions cs ON cs.id = i.class_session_id
LEFT JOIN classes c ON c.id = cs.class_id
LEFT JOIN sessions s ON s.id = cs.session_id
WHERE i.id = $1`
	var detail models.InscriptionDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ListByClassSession returns the roster of a class session. The capacity
// check runs over this authoritative snapshot right before the write.
func (r *InscriptionRepository) ListByClassSession(ctx context.Context, classSessionID string) ([]models.Inscription, error) {
	const query = `SELECT id, student_user_id, class_session_id, status, reinscription, created_at, updated_at FROM inscriptions WHERE class_session_id = $1`
	var inscriptions []models.Inscription
	if err := r.db.SelectContext(ctx, &inscriptions, query, classSessionID); err != nil {
		return nil, fmt.Errorf("list inscriptions by class session: %w", err)
	}
	return inscriptions, nil
}

// ListByStudentUser returns every inscription of a student across all
// sessions, the input of reinscription detection.
func (r *InscriptionRepository) ListByStudentUser(ctx context.Context, studentUserID string) ([]models.Inscription, error) {
	const query = `SELECT id, student_user_id, class_session_id, status, reinscription, created_at, updated_at FROM inscriptions WHERE student_user_id = $1`
	var inscriptions []models.Inscription
	if err := r.db.SelectContext(ctx, &inscriptions, query, studentUserID); err != nil {
		return nil, fmt.Errorf("list inscriptions by student: %w", err)
	}
	return inscriptions, nil
}

// Create inserts a new inscription record.
func (r *InscriptionRepository) Create(ctx context.Context, ins *models.Inscription) error {
	if ins.ID == "" {
		ins.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if ins.CreatedAt.IsZero() {
		ins.CreatedAt = now
	}
	ins.UpdatedAt = now

	const query = `INSERT INTO inscriptions (id, student_user_id, class_session_id, status, reinscription, created_at, updated_at) VALUES (:id, :student_user_id, :class_session_id, :status, :reinscription, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, ins); err != nil {
		return fmt.Errorf("create inscription: %w", err)
	}
	return nil
}

// Update modifies an existing inscription.
func (r *InscriptionRepository) Update(ctx context.Context, ins *models.Inscription) error {
	ins.UpdatedAt = time.Now().UTC()
	const query = `UPDATE inscriptions SET student_user_id = :student_user_id, class_session_id = :class_session_id, status = :status, reinscription = :reinscription, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, ins); err != nil {
		return fmt.Errorf("update inscription: %w", err)
	}
	return nil
}

// UpdateStatus changes only the status of an inscription.
func (r *InscriptionRepository) UpdateStatus(ctx context.Context, id string, status models.InscriptionStatus) error {
	const query = `UPDATE inscriptions SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update inscription status: %w", err)
	}
	return nil
}

// Delete removes an inscription permanently.
func (r *InscriptionRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM inscriptions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete inscription: %w", err)
	}
	return nil
}
