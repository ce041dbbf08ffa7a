package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/draftwise/wp-publisher/internal/models"
)

const siteColumns = "id, user_id, name, url, username, application_password, enabled, created_at, updated_at"

// SiteRepository provides CRUD operations on site credential records.
type SiteRepository struct {
	db *sqlx.DB
}

// NewSiteRepository creates a new repository instance.
func NewSiteRepository(db *sqlx.DB) *SiteRepository {
	return &SiteRepository{db: db}
}

// Ping verifies the database connection.
func (r *SiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Create inserts a new site.
func (r *SiteRepository) Create(ctx context.Context, req *models.SiteCreateRequest) (*models.Site, error) {
	site := &models.Site{
		ID:                  uuid.New(),
		UserID:              req.UserID,
		Name:                req.Name,
		URL:                 req.URL,
		Username:            req.Username,
		ApplicationPassword: req.ApplicationPassword,
		Enabled:             true,
		CreatedAt:           time.Now(),
		UpdatedAt:           time.Now(),
	}
	if req.Enabled != nil {
		site.Enabled = *req.Enabled
	}

	query := `
		INSERT INTO sites (id, user_id, name, url, username, application_password, enabled, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + siteColumns

	err := r.db.QueryRowxContext(
		ctx, query,
		site.ID, site.UserID, site.Name, site.URL, site.Username,
		site.ApplicationPassword, site.Enabled, site.CreatedAt, site.UpdatedAt,
	).StructScan(site)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" { // unique_violation
			return nil, models.ErrAlreadyExists
		}
		return nil, fmt.Errorf("create site: %w", err)
	}

	return site, nil
}

// GetByID retrieves a site by id.
func (r *SiteRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Site, error) {
	site := &models.Site{}
	query := `SELECT ` + siteColumns + ` FROM sites WHERE id = $1`

	err := r.db.GetContext(ctx, site, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("get site: %w", err)
	}

	return site, nil
}

// List retrieves sites, optionally scoped to a user and to enabled sites.
func (r *SiteRepository) List(ctx context.Context, userID string, enabledOnly bool) ([]models.Site, error) {
	sites := []models.Site{}
	query := `SELECT ` + siteColumns + ` FROM sites`

	var conditions []string
	var args []interface{}
	if userID != "" {
		args = append(args, userID)
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if enabledOnly {
		conditions = append(conditions, "enabled = true")
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"

	if err := r.db.SelectContext(ctx, &sites, query, args...); err != nil {
		return nil, fmt.Errorf("list sites: %w", err)
	}

	return sites, nil
}

// Update applies partial changes to a site.
func (r *SiteRepository) Update(ctx context.Context, id uuid.UUID, req *models.SiteUpdateRequest) (*models.Site, error) {
	site, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		site.Name = *req.Name
	}
	if req.URL != nil {
		site.URL = *req.URL
	}
	if req.Username != nil {
		site.Username = *req.Username
	}
	if req.ApplicationPassword != nil {
		site.ApplicationPassword = *req.ApplicationPassword
	}
	if req.Enabled != nil {
		site.Enabled = *req.Enabled
	}
	site.UpdatedAt = time.Now()

	query := `
		UPDATE sites
		SET name = $2, url = $3, username = $4, application_password = $5, enabled = $6, updated_at = $7
		WHERE id = $1
		RETURNING ` + siteColumns

	err = r.db.QueryRowxContext(
		ctx, query,
		site.ID, site.Name, site.URL, site.Username,
		site.ApplicationPassword, site.Enabled, site.UpdatedAt,
	).StructScan(site)
	if err != nil {
		return nil, fmt.Errorf("update site: %w", err)
	}

	return site, nil
}

// Delete removes a site.
func (r *SiteRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sites WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete site: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete site rows affected: %w", err)
	}
	if rows == 0 {
		return models.ErrNotFound
	}

	return nil
}
