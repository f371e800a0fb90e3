package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/scolaris/scolaris-api/internal/models"
)

// ClassSessionRepository handles persistence for class sessions.
type ClassSessionRepository struct {
	db *sqlx.DB
}

// NewClassSessionRepository constructs the repository.
func NewClassSessionRepository(db *sqlx.DB) *ClassSessionRepository {
	return &ClassSessionRepository{db: db}
}

// List returns class sessions with class/session names and confirmed counts.
func (r *ClassSessionRepository) List(ctx context.Context, filter models.ClassSessionFilter) ([]models.ClassSessionDetail, int, error) {
	base := `FROM class_sessions cs
LEFT JOIN classes c ON c.id = cs.class_id
LEFT JOIN sessions s ON s.id = cs.session_id`
	var conditions []string
	var args []interface{}

	if filter.ClassID != "" {
		conditions = append(conditions, fmt.Sprintf("cs.class_id = $%d", len(args)+1))
		args = append(args, filter.ClassID)
	}
	if filter.SessionID != "" {
		conditions = append(conditions, fmt.Sprintf("cs.session_id = $%d", len(args)+1))
		args = append(args, filter.SessionID)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"class_name":   "c.name",
		"session_name": "s.name",
		"capacite":     "cs.capacite",
		"created_at":   "cs.created_at",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "c.name"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
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

	query := fmt.Sprintf(`SELECT cs.id, cs.class_id, cs.session_id, cs.capacite, cs.created_at, cs.updated_at,
c.name AS class_name, s.name AS session_name,
(SELECT COUNT(*) FROM inscriptions i WHERE i.class_session_id = cs.id AND i.status = 'CONFIRMED') AS confirmed_count
%s%s ORDER BY %s %s LIMIT %d OFFSET %d`, base, clause, orderBy, order, size, offset)

	var details []models.ClassSessionDetail
	if err := r.db.SelectContext(ctx, &details, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list class sessions: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s%s", base, clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count class sessions: %w", err)
	}

	return details, total, nil
}

// FindByID loads a class session by identifier.
func (r *ClassSessionRepository) FindByID(ctx context.Context, id string) (*models.ClassSession, error) {
	const query = `SELECT id, class_id, session_id, capacite, created_at, updated_at FROM class_sessions WHERE id = $1`
	var cs models.ClassSession
	if err := r.db.GetContext(ctx, &cs, query, id); err != nil {
		return nil, err
	}
	return &cs, nil
}

// ExistsByClassAndSession checks whether the (class, session) pair is taken.
func (r *ClassSessionRepository) ExistsByClassAndSession(ctx context.Context, classID, sessionID string) (bool, error) {
	const query = `SELECT 1 FROM class_sessions WHERE class_id = $1 AND session_id = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, classID, sessionID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check class session uniqueness: %w", err)
	}
	return true, nil
}

// Create inserts a new class session record.
func (r *ClassSessionRepository) Create(ctx context.Context, cs *models.ClassSession) error {
	if cs.ID == "" {
		cs.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if cs.CreatedAt.IsZero() {
		cs.CreatedAt = now
	}
	cs.UpdatedAt = now

	const query = `INSERT INTO class_sessions (id, class_id, session_id, capacite, created_at, updated_at) VALUES (:id, :class_id, :session_id, :capacite, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, cs); err != nil {
		return fmt.Errorf("create class session: %w", err)
	}
	return nil
}

// UpdateCapacity changes the seat capacity, the only mutable attribute.
func (r *ClassSessionRepository) UpdateCapacity(ctx context.Context, id string, capacite int) error {
	const query = `UPDATE class_sessions SET capacite = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, capacite, time.Now().UTC()); err != nil {
		return fmt.Errorf("update class session capacity: %w", err)
	}
	return nil
}

// CountConfirmed returns the number of confirmed inscriptions for the class
// session.
func (r *ClassSessionRepository) CountConfirmed(ctx context.Context, id string) (int, error) {
	const query = `SELECT COUNT(*) FROM inscriptions WHERE class_session_id = $1 AND status = 'CONFIRMED'`
	var count int
	if err := r.db.GetContext(ctx, &count, query, id); err != nil {
		return 0, fmt.Errorf("count confirmed inscriptions: %w", err)
	}
	return count, nil
}

// Delete removes a class session permanently.
func (r *ClassSessionRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM class_sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete class session: %w", err)
	}
	return nil
}
