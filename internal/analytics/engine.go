package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/nutrino/carbonfootprint/backend/analytics-service/internal/models"
)

// Grain is the time-bucketing granularity for a trend query.
type Grain string

const (
	GrainDay   Grain = "day"
	GrainMonth Grain = "month"
)

// ParseGrain validates a grain string; an empty string defaults to day.
func ParseGrain(s string) (Grain, error) {
	switch s {
	case "", string(GrainDay):
		return GrainDay, nil
	case string(GrainMonth):
		return GrainMonth, nil
	default:
		return "", fmt.Errorf("grain must be %q or %q, got %q", GrainDay, GrainMonth, s)
	}
}

// TopCategoriesLimit is how many categories the summary ranking keeps.
const TopCategoriesLimit = 5

// Store is the read-only query surface the engine needs from the
// relational store. Implemented by *db.Database; tests provide stubs.
// Aggregates (sums, grouping, truncation, ranking) execute store-side;
// a nil window means all-time.
type Store interface {
	GetOrganization(ctx context.Context, orgID int64) (*models.Organization, error)
	ScopeTotals(ctx context.Context, orgID int64, window *Window) (models.KPIs, error)
	Trend(ctx context.Context, orgID int64, window Window, grain Grain) ([]models.TrendPoint, error)
	TopCategories(ctx context.Context, orgID int64, limit int) ([]models.CategoryTotal, error)
	FacilitiesCount(ctx context.Context, orgID int64) (int, error)
	LastEventAt(ctx context.Context, orgID int64) (*time.Time, error)
	ListUsers(ctx context.Context, orgID int64) ([]models.User, error)
	ListFacilities(ctx context.Context, orgID int64) ([]models.Facility, error)
	ListActivityEvents(ctx context.Context, orgID int64) ([]models.ActivityEvent, error)
	ListEmissions(ctx context.Context, orgID int64) ([]models.Emission, error)
	ListEmissionFactors(ctx context.Context, factorIDs []int64) ([]models.EmissionFactor, error)
}

// Engine computes emission aggregates for one organization at a time.
// It holds no state of its own; every call recomputes from the store.
type Engine struct {
	store Store
}

// NewEngine creates an analytics engine over the given store.
func NewEngine(store Store) *Engine {
	return &Engine{store: store}
}

// KPIs returns the scope-partitioned CO2e totals for events inside the
// window. The window must already be validated via ParseWindow.
func (e *Engine) KPIs(ctx context.Context, orgID int64, window Window) (models.KPIs, error) {
	return e.store.ScopeTotals(ctx, orgID, &window)
}

// Trend returns the windowed CO2e series bucketed by grain, ascending
// by period. Buckets with no emissions are omitted; callers needing a
// dense series must zero-fill against their own reporting calendar.
func (e *Engine) Trend(ctx context.Context, orgID int64, window Window, grain Grain) ([]models.TrendPoint, error) {
	return e.store.Trend(ctx, orgID, window, grain)
}

// Summary returns the all-time lifetime picture for an organization.
// It fails with NotFoundError before issuing any aggregate query when
// the organization does not exist.
func (e *Engine) Summary(ctx context.Context, orgID int64) (*models.OrgSummary, error) {
	org, err := e.store.GetOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, &NotFoundError{OrgID: orgID}
	}

	totals, err := e.store.ScopeTotals(ctx, orgID, nil)
	if err != nil {
		return nil, err
	}
	facilities, err := e.store.FacilitiesCount(ctx, orgID)
	if err != nil {
		return nil, err
	}
	lastEvent, err := e.store.LastEventAt(ctx, orgID)
	if err != nil {
		return nil, err
	}
	top, err := e.store.TopCategories(ctx, orgID, TopCategoriesLimit)
	if err != nil {
		return nil, err
	}

	return &models.OrgSummary{
		OrgID:           orgID,
		KPIs:            totals,
		FacilitiesCount: facilities,
		LastEventAt:     lastEvent,
		TopCategories:   top,
	}, nil
}

// Snapshot assembles the full entity graph for an organization plus an
// embedded all-time summary block. The result is the payload handed to
// the narrative-generation backend.
func (e *Engine) Snapshot(ctx context.Context, orgID int64) (*models.OrgSnapshot, error) {
	org, err := e.store.GetOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, &NotFoundError{OrgID: orgID}
	}

	users, err := e.store.ListUsers(ctx, orgID)
	if err != nil {
		return nil, err
	}
	facilities, err := e.store.ListFacilities(ctx, orgID)
	if err != nil {
		return nil, err
	}
	events, err := e.store.ListActivityEvents(ctx, orgID)
	if err != nil {
		return nil, err
	}
	emissions, err := e.store.ListEmissions(ctx, orgID)
	if err != nil {
		return nil, err
	}

	factors, err := e.store.ListEmissionFactors(ctx, distinctFactorIDs(emissions))
	if err != nil {
		return nil, err
	}

	totals, err := e.store.ScopeTotals(ctx, orgID, nil)
	if err != nil {
		return nil, err
	}
	lastEvent, err := e.store.LastEventAt(ctx, orgID)
	if err != nil {
		return nil, err
	}

	return &models.OrgSnapshot{
		OrgID:           orgID,
		Organization:    *org,
		Users:           users,
		Facilities:      facilities,
		ActivityEvents:  events,
		Emissions:       emissions,
		EmissionFactors: factors,
		Summary: models.SnapshotSummary{
			KPIs:            totals,
			UsersCount:      len(users),
			FacilitiesCount: len(facilities),
			EventsCount:     len(events),
			EmissionsCount:  len(emissions),
			LastEventAt:     lastEvent,
		},
	}, nil
}

// distinctFactorIDs collects the factor ids referenced by a set of
// emissions, deduplicated, in first-seen order.
func distinctFactorIDs(emissions []models.Emission) []int64 {
	seen := make(map[int64]struct{}, len(emissions))
	ids := make([]int64, 0, len(emissions))
	for _, em := range emissions {
		if em.FactorID == nil {
			continue
		}
		if _, ok := seen[*em.FactorID]; ok {
			continue
		}
		seen[*em.FactorID] = struct{}{}
		ids = append(ids, *em.FactorID)
	}
	return ids
}
