package models

import "time"

// Scope classifies an emission source (mirrors DB enum emission_scope):
// "1" direct, "2" purchased energy, "3" value chain.
type Scope string

const (
	Scope1 Scope = "1"
	Scope2 Scope = "2"
	Scope3 Scope = "3"
)

// ActivityEvent is one row of the append-only activity ledger.
// Events are immutable once ingested.
// Backed by table `activity_events`
type ActivityEvent struct {
	ID           int64     `json:"id" db:"id"`
	OrgID        int64     `json:"org_id" db:"org_id"`
	FacilityID   *int64    `json:"facility_id,omitempty" db:"facility_id"`
	SourceID     *string   `json:"source_id,omitempty" db:"source_id"`
	OccurredAt   time.Time `json:"occurred_at" db:"occurred_at"`
	Category     string    `json:"category" db:"category"`
	Subcategory  *string   `json:"subcategory,omitempty" db:"subcategory"`
	Unit         string    `json:"unit" db:"unit"`
	ValueNumeric float64   `json:"value_numeric" db:"value_numeric"`
	Currency     *string   `json:"currency,omitempty" db:"currency"`
	SpendValue   *float64  `json:"spend_value,omitempty" db:"spend_value"`
	ScopeHint    *string   `json:"scope_hint,omitempty" db:"scope_hint"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// EmissionFactor is a versioned conversion factor with a half-open
// validity interval [valid_from, valid_to).
// Backed by table `emission_factors`
type EmissionFactor struct {
	ID          int64      `json:"id" db:"id"`
	Namespace   string     `json:"namespace" db:"namespace"`
	Category    string     `json:"category" db:"category"`
	UnitIn      string     `json:"unit_in" db:"unit_in"`
	UnitOut     string     `json:"unit_out" db:"unit_out"`
	FactorValue float64    `json:"factor_value" db:"factor_value"`
	GWPHorizon  int        `json:"gwp_horizon" db:"gwp_horizon"`
	Geography   *string    `json:"geography,omitempty" db:"geography"`
	Vendor      *string    `json:"vendor,omitempty" db:"vendor"`
	Method      *string    `json:"method,omitempty" db:"method"`
	ValidFrom   *time.Time `json:"valid_from,omitempty" db:"valid_from"`
	ValidTo     *time.Time `json:"valid_to,omitempty" db:"valid_to"`
	Version     int        `json:"version" db:"version"`
}

// Emission is the computed result of applying one factor to one event.
// co2e_kg is always >= 0; a missing value is treated as zero by every
// aggregate query.
// Backed by table `emissions`
type Emission struct {
	ID             int64     `json:"id" db:"id"`
	OrgID          int64     `json:"org_id" db:"org_id"`
	EventID        int64     `json:"event_id" db:"event_id"`
	FactorID       *int64    `json:"factor_id,omitempty" db:"factor_id"`
	Scope          Scope     `json:"scope" db:"scope"`
	CO2eKg         float64   `json:"co2e_kg" db:"co2e_kg"`
	CalcVersion    *string   `json:"calc_version,omitempty" db:"calc_version"`
	UncertaintyPct *float64  `json:"uncertainty_pct,omitempty" db:"uncertainty_pct"`
	ProvenanceJSON *string   `json:"provenance_json,omitempty" db:"provenance_json"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}
