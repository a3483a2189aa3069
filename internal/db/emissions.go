package db

import (
	"context"
	"fmt"
	"time"

	"github.com/nutrino/carbonfootprint/backend/analytics-service/internal/analytics"
	"github.com/nutrino/carbonfootprint/backend/analytics-service/internal/models"
)

// ScopeTotals sums CO2e for one organization, partitioned by scope.
// A nil window means all-time; otherwise only emissions whose parent
// event occurred inside [From, To) contribute. NULL sums coalesce to
// zero so organizations without data report zeros rather than errors.
func (db *Database) ScopeTotals(ctx context.Context, orgID int64, window *analytics.Window) (models.KPIs, error) {
	var (
		kpis models.KPIs
		err  error
	)

	if window != nil {
		query := `
            SELECT
              COALESCE(SUM(e.co2e_kg), 0),
              COALESCE(SUM(CASE WHEN e.scope = '1' THEN e.co2e_kg ELSE 0 END), 0),
              COALESCE(SUM(CASE WHEN e.scope = '2' THEN e.co2e_kg ELSE 0 END), 0),
              COALESCE(SUM(CASE WHEN e.scope = '3' THEN e.co2e_kg ELSE 0 END), 0)
            FROM emissions e
            JOIN activity_events ae ON ae.id = e.event_id
            WHERE e.org_id = $1
              AND ae.occurred_at >= $2
              AND ae.occurred_at < $3
        `
		err = db.Pool.QueryRow(ctx, query, orgID, window.From, window.To).Scan(
			&kpis.TotalCO2eKg, &kpis.Scope1Kg, &kpis.Scope2Kg, &kpis.Scope3Kg,
		)
	} else {
		query := `
            SELECT
              COALESCE(SUM(co2e_kg), 0),
              COALESCE(SUM(CASE WHEN scope = '1' THEN co2e_kg ELSE 0 END), 0),
              COALESCE(SUM(CASE WHEN scope = '2' THEN co2e_kg ELSE 0 END), 0),
              COALESCE(SUM(CASE WHEN scope = '3' THEN co2e_kg ELSE 0 END), 0)
            FROM emissions
            WHERE org_id = $1
        `
		err = db.Pool.QueryRow(ctx, query, orgID).Scan(
			&kpis.TotalCO2eKg, &kpis.Scope1Kg, &kpis.Scope2Kg, &kpis.Scope3Kg,
		)
	}
	if err != nil {
		return models.KPIs{}, fmt.Errorf("failed to compute scope totals: %w", err)
	}
	return kpis, nil
}

// Trend groups windowed CO2e sums by the event timestamp truncated to
// the grain, ascending by period. Periods with no emissions produce no
// row; the series is sparse by design.
func (db *Database) Trend(ctx context.Context, orgID int64, window analytics.Window, grain analytics.Grain) ([]models.TrendPoint, error) {
	query := `
        SELECT date_trunc($4, ae.occurred_at) AS period,
               COALESCE(SUM(e.co2e_kg), 0)
        FROM emissions e
        JOIN activity_events ae ON ae.id = e.event_id
        WHERE e.org_id = $1
          AND ae.occurred_at >= $2
          AND ae.occurred_at < $3
        GROUP BY period
        ORDER BY period
    `
	rows, err := db.Pool.Query(ctx, query, orgID, window.From, window.To, string(grain))
	if err != nil {
		return nil, fmt.Errorf("failed to query trend: %w", err)
	}
	defer rows.Close()

	points := make([]models.TrendPoint, 0)
	for rows.Next() {
		var (
			period time.Time
			co2e   float64
		)
		if err := rows.Scan(&period, &co2e); err != nil {
			return nil, fmt.Errorf("failed to scan trend point: %w", err)
		}
		// date_trunc already normalizes month buckets to the 1st
		points = append(points, models.TrendPoint{
			Period: period.Format("2006-01-02"),
			CO2eKg: co2e,
		})
	}
	return points, rows.Err()
}

// TopCategories ranks an organization's all-time CO2e sums by event
// category, descending, limited to the top N. Equal sums are ordered
// by category name so the ranking is reproducible.
func (db *Database) TopCategories(ctx context.Context, orgID int64, limit int) ([]models.CategoryTotal, error) {
	query := `
        SELECT ae.category,
               COALESCE(SUM(e.co2e_kg), 0) AS total
        FROM emissions e
        JOIN activity_events ae ON ae.id = e.event_id
        WHERE e.org_id = $1
        GROUP BY ae.category
        ORDER BY total DESC, ae.category ASC
        LIMIT $2
    `
	rows, err := db.Pool.Query(ctx, query, orgID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top categories: %w", err)
	}
	defer rows.Close()

	categories := make([]models.CategoryTotal, 0, limit)
	for rows.Next() {
		var ct models.CategoryTotal
		if err := rows.Scan(&ct.Category, &ct.CO2eKg); err != nil {
			return nil, fmt.Errorf("failed to scan category total: %w", err)
		}
		categories = append(categories, ct)
	}
	return categories, rows.Err()
}

// LastEventAt returns the most recent occurrence timestamp among
// events that have an emission, or nil when the organization has none.
func (db *Database) LastEventAt(ctx context.Context, orgID int64) (*time.Time, error) {
	query := `
        SELECT MAX(ae.occurred_at)
        FROM emissions e
        JOIN activity_events ae ON ae.id = e.event_id
        WHERE e.org_id = $1
    `
	var last *time.Time
	if err := db.Pool.QueryRow(ctx, query, orgID).Scan(&last); err != nil {
		return nil, fmt.Errorf("failed to query last event time: %w", err)
	}
	return last, nil
}

// ListActivityEvents returns all events for an organization, most recent first
func (db *Database) ListActivityEvents(ctx context.Context, orgID int64) ([]models.ActivityEvent, error) {
	query := `
        SELECT id, org_id, facility_id, source_id, occurred_at, category, subcategory,
               unit, COALESCE(value_numeric, 0), currency, spend_value, scope_hint, created_at
        FROM activity_events
        WHERE org_id = $1
        ORDER BY occurred_at DESC
    `
	rows, err := db.Pool.Query(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity events: %w", err)
	}
	defer rows.Close()

	events := make([]models.ActivityEvent, 0)
	for rows.Next() {
		var ev models.ActivityEvent
		if err := rows.Scan(
			&ev.ID,
			&ev.OrgID,
			&ev.FacilityID,
			&ev.SourceID,
			&ev.OccurredAt,
			&ev.Category,
			&ev.Subcategory,
			&ev.Unit,
			&ev.ValueNumeric,
			&ev.Currency,
			&ev.SpendValue,
			&ev.ScopeHint,
			&ev.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan activity event: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// ListEmissions returns all emissions for an organization, most recently created first
func (db *Database) ListEmissions(ctx context.Context, orgID int64) ([]models.Emission, error) {
	query := `
        SELECT id, org_id, event_id, factor_id, scope, COALESCE(co2e_kg, 0),
               calc_version, uncertainty_pct, provenance_json, created_at
        FROM emissions
        WHERE org_id = $1
        ORDER BY created_at DESC
    `
	rows, err := db.Pool.Query(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to query emissions: %w", err)
	}
	defer rows.Close()

	emissions := make([]models.Emission, 0)
	for rows.Next() {
		var em models.Emission
		if err := rows.Scan(
			&em.ID,
			&em.OrgID,
			&em.EventID,
			&em.FactorID,
			&em.Scope,
			&em.CO2eKg,
			&em.CalcVersion,
			&em.UncertaintyPct,
			&em.ProvenanceJSON,
			&em.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan emission: %w", err)
		}
		emissions = append(emissions, em)
	}
	return emissions, rows.Err()
}

// ListEmissionFactors returns the factors with the given ids. An empty
// id list short-circuits without touching the store.
func (db *Database) ListEmissionFactors(ctx context.Context, factorIDs []int64) ([]models.EmissionFactor, error) {
	if len(factorIDs) == 0 {
		return []models.EmissionFactor{}, nil
	}

	query := `
        SELECT id, namespace, category, unit_in, unit_out, COALESCE(factor_value, 0),
               COALESCE(gwp_horizon, 100), geography, vendor, method,
               valid_from, valid_to, COALESCE(version, 1)
        FROM emission_factors
        WHERE id = ANY($1)
        ORDER BY id
    `
	rows, err := db.Pool.Query(ctx, query, factorIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query emission factors: %w", err)
	}
	defer rows.Close()

	factors := make([]models.EmissionFactor, 0, len(factorIDs))
	for rows.Next() {
		var f models.EmissionFactor
		if err := rows.Scan(
			&f.ID,
			&f.Namespace,
			&f.Category,
			&f.UnitIn,
			&f.UnitOut,
			&f.FactorValue,
			&f.GWPHorizon,
			&f.Geography,
			&f.Vendor,
			&f.Method,
			&f.ValidFrom,
			&f.ValidTo,
			&f.Version,
		); err != nil {
			return nil, fmt.Errorf("failed to scan emission factor: %w", err)
		}
		factors = append(factors, f)
	}
	return factors, rows.Err()
}
