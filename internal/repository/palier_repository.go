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

// PalierRepository handles persistence for paliers.
type PalierRepository struct {
	db *sqlx.DB
}

// NewPalierRepository instantiates a palier repository.
func NewPalierRepository(db *sqlx.DB) *PalierRepository {
	return &PalierRepository{db: db}
}

// List returns paliers matching provided filters.
func (r *PalierRepository) List(ctx context.Context, filter models.PalierFilter) ([]models.PalierDetail, int, error) {
	base := `FROM paliers p LEFT JOIN sessions s ON s.id = p.session_id`
	var conditions []string
	var args []interface{}

	if filter.SessionID != "" {
		conditions = append(conditions, fmt.Sprintf("p.session_id = $%d", len(args)+1))
		args = append(args, filter.SessionID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("p.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"name":       "p.name",
		"start_date": "p.start_date",
		"end_date":   "p.end_date",
		"created_at": "p.created_at",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "p.start_date"
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

	query := fmt.Sprintf(`SELECT p.id, p.name, p.session_id, p.start_date, p.end_date, p.status, p.created_at, p.updated_at, s.name AS session_name %s%s ORDER BY %s %s LIMIT %d OFFSET %d`, base, clause, orderBy, order, size, offset)

	var paliers []models.PalierDetail
	if err := r.db.SelectContext(ctx, &paliers, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list paliers: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s%s", base, clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count paliers: %w", err)
	}

	return paliers, total, nil
}

// FindByID loads a palier by identifier.
func (r *PalierRepository) FindByID(ctx context.Context, id string) (*models.Palier, error) {
	const query = `SELECT id, name, session_id, start_date, end_date, status, created_at, updated_at FROM paliers WHERE id = $1`
	var palier models.Palier
	if err := r.db.GetContext(ctx, &palier, query, id); err != nil {
		return nil, err
	}
	return &palier, nil
}

// ListBySession returns every palier of a session, ordered by start date.
// This is the sibling set the period validator runs against.
func (r *PalierRepository) ListBySession(ctx context.Context, sessionID string) ([]models.Palier, error) {
	const query = `SELECT id, name, session_id, start_date, end_date, status, created_at, updated_at FROM paliers WHERE session_id = $1 ORDER BY start_date ASC`
	var paliers []models.Palier
	if err := r.db.SelectContext(ctx, &paliers, query, sessionID); err != nil {
		return nil, fmt.Errorf("list paliers by session: %w", err)
	}
	return paliers, nil
}

// Create inserts a new palier record.
func (r *PalierRepository) Create(ctx context.Context, palier *models.Palier) error {
	if palier.ID == "" {
		palier.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if palier.CreatedAt.IsZero() {
		palier.CreatedAt = now
	}
	palier.UpdatedAt = now

	const query = `INSERT INTO paliers (id, name, session_id, start_date, end_date, status, created_at, updated_at) VALUES (:id, :name, :session_id, :start_date, :end_date, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, palier); err != nil {
		return fmt.Errorf("create palier: %w", err)
	}
	return nil
}

// Update modifies an existing palier.
func (r *PalierRepository) Update(ctx context.Context, palier *models.Palier) error {
	palier.UpdatedAt = time.Now().UTC()
	const query = `UPDATE paliers SET name = :name, session_id = :session_id, start_date = :start_date, end_date = :end_date, status = :status, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, palier); err != nil {
		return fmt.Errorf("update palier: %w", err)
	}
	return nil
}

// Delete removes a palier permanently.
func (r *PalierRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM paliers WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete palier: %w", err)
	}
	return nil
}
