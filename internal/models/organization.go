package models

import "time"

// PlanTier represents subscription plans (mirrors DB enum plan_tier)
type PlanTier string

const (
	PlanFree       PlanTier = "free"
	PlanStarter    PlanTier = "starter"
	PlanEnterprise PlanTier = "enterprise"
)

// Organization is the root entity; every other row hangs off org_id
// Backed by table `organizations`
type Organization struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Plan      PlanTier  `json:"plan" db:"plan"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// User represents a member of an organization
// Backed by table `users`
type User struct {
	ID        int64     `json:"id" db:"id"`
	OrgID     int64     `json:"org_id" db:"org_id"`
	Email     string    `json:"email" db:"email"`
	Role      string    `json:"role" db:"role"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Facility is a physical site producing activity data
// Backed by table `facilities`
type Facility struct {
	ID         int64     `json:"id" db:"id"`
	OrgID      int64     `json:"org_id" db:"org_id"`
	Name       string    `json:"name" db:"name"`
	Country    *string   `json:"country,omitempty" db:"country"`
	GridRegion *string   `json:"grid_region,omitempty" db:"grid_region"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
