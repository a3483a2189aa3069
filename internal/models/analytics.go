package models

import "time"

// KPIs is the scope-partitioned CO2e total for one organization.
// TotalCO2eKg always equals the three scope subtotals added together.
type KPIs struct {
	TotalCO2eKg float64 `json:"total_co2e_kg"`
	Scope1Kg    float64 `json:"scope1_kg"`
	Scope2Kg    float64 `json:"scope2_kg"`
	Scope3Kg    float64 `json:"scope3_kg"`
}

// TrendPoint is one time bucket of a trend series. Period is the
// bucket start formatted as an ISO calendar date (month buckets are
// normalized to the first of the month).
type TrendPoint struct {
	Period string  `json:"period"`
	CO2eKg float64 `json:"co2e_kg"`
}

// CategoryTotal is one entry of a top-categories ranking.
type CategoryTotal struct {
	Category string  `json:"category"`
	CO2eKg   float64 `json:"co2e_kg"`
}

// OrgSummary is the lifetime picture of one organization: all-time
// totals, facility count, the most recent emission-linked event
// timestamp (nil when the org has no emissions), and the top-5
// category ranking.
type OrgSummary struct {
	OrgID int64 `json:"id"`
	KPIs
	FacilitiesCount int             `json:"facilities_count"`
	LastEventAt     *time.Time      `json:"last_event_at"`
	TopCategories   []CategoryTotal `json:"top_categories"`
}

// SnapshotSummary is the aggregate block embedded in a snapshot.
type SnapshotSummary struct {
	KPIs
	UsersCount      int        `json:"users_count"`
	FacilitiesCount int        `json:"facilities_count"`
	EventsCount     int        `json:"events_count"`
	EmissionsCount  int        `json:"emissions_count"`
	LastEventAt     *time.Time `json:"last_event_at"`
}

// OrgSnapshot is the full entity graph for one organization. It is the
// payload handed to the narrative-generation backend and is also
// served as-is from the snapshot endpoint.
type OrgSnapshot struct {
	OrgID           int64            `json:"id"`
	Organization    Organization     `json:"organization"`
	Users           []User           `json:"users"`
	Facilities      []Facility       `json:"facilities"`
	ActivityEvents  []ActivityEvent  `json:"activity_events"`
	Emissions       []Emission       `json:"emissions"`
	EmissionFactors []EmissionFactor `json:"emission_factors"`
	Summary         SnapshotSummary  `json:"summary"`
}
