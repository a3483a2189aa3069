package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/nutrino/carbonfootprint/backend/analytics-service/internal/models"
)

// GetOrganization fetches one organization by id. Returns (nil, nil)
// when no such organization exists so callers can distinguish absence
// from infrastructure failure.
func (db *Database) GetOrganization(ctx context.Context, orgID int64) (*models.Organization, error) {
	query := `
        SELECT id, COALESCE(name,''), COALESCE(plan,'free'), created_at, updated_at
        FROM organizations
        WHERE id = $1
    `
	var org models.Organization
	err := db.Pool.QueryRow(ctx, query, orgID).Scan(
		&org.ID,
		&org.Name,
		&org.Plan,
		&org.CreatedAt,
		&org.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch organization %d: %w", orgID, err)
	}
	return &org, nil
}

// ListUsers returns all users belonging to an organization
func (db *Database) ListUsers(ctx context.Context, orgID int64) ([]models.User, error) {
	query := `
        SELECT id, org_id, email, role, is_active, created_at
        FROM users
        WHERE org_id = $1
        ORDER BY id
    `
	rows, err := db.Pool.Query(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.OrgID, &u.Email, &u.Role, &u.IsActive, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// ListFacilities returns all facilities belonging to an organization
func (db *Database) ListFacilities(ctx context.Context, orgID int64) ([]models.Facility, error) {
	query := `
        SELECT id, org_id, name, country, grid_region, created_at
        FROM facilities
        WHERE org_id = $1
        ORDER BY id
    `
	rows, err := db.Pool.Query(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to query facilities: %w", err)
	}
	defer rows.Close()

	facilities := make([]models.Facility, 0)
	for rows.Next() {
		var f models.Facility
		if err := rows.Scan(&f.ID, &f.OrgID, &f.Name, &f.Country, &f.GridRegion, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan facility: %w", err)
		}
		facilities = append(facilities, f)
	}
	return facilities, rows.Err()
}

// FacilitiesCount returns the number of facilities for an organization
func (db *Database) FacilitiesCount(ctx context.Context, orgID int64) (int, error) {
	var count int
	err := db.Pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM facilities WHERE org_id = $1", orgID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count facilities: %w", err)
	}
	return count, nil
}
