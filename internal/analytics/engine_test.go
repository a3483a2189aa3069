package analytics

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/nutrino/carbonfootprint/backend/analytics-service/internal/models"
)

// stubRecord is one emission joined with its parent event, the shape
// every aggregate operates over.
type stubRecord struct {
	scope      models.Scope
	co2eKg     float64
	occurredAt time.Time
	category   string
}

// stubStore computes the same aggregates the SQL layer pushes to
// Postgres, in memory, so engine policy (half-open windows, grain
// truncation, ranking order) is exercised without a database.
type stubStore struct {
	org        *models.Organization
	records    []stubRecord
	facilities []models.Facility
	users      []models.User
	events     []models.ActivityEvent
	emissions  []models.Emission
	factors    []models.EmissionFactor

	aggregateCalls int
}

func (s *stubStore) GetOrganization(_ context.Context, orgID int64) (*models.Organization, error) {
	if s.org != nil && s.org.ID == orgID {
		return s.org, nil
	}
	return nil, nil
}

func (s *stubStore) inWindow(r stubRecord, window *Window) bool {
	if window == nil {
		return true
	}
	return !r.occurredAt.Before(window.From) && r.occurredAt.Before(window.To)
}

func (s *stubStore) ScopeTotals(_ context.Context, _ int64, window *Window) (models.KPIs, error) {
	s.aggregateCalls++
	var kpis models.KPIs
	for _, r := range s.records {
		if !s.inWindow(r, window) {
			continue
		}
		kpis.TotalCO2eKg += r.co2eKg
		switch r.scope {
		case models.Scope1:
			kpis.Scope1Kg += r.co2eKg
		case models.Scope2:
			kpis.Scope2Kg += r.co2eKg
		case models.Scope3:
			kpis.Scope3Kg += r.co2eKg
		}
	}
	return kpis, nil
}

func (s *stubStore) Trend(_ context.Context, _ int64, window Window, grain Grain) ([]models.TrendPoint, error) {
	s.aggregateCalls++
	sums := make(map[string]float64)
	for _, r := range s.records {
		if !s.inWindow(r, &window) {
			continue
		}
		t := r.occurredAt.UTC()
		var period time.Time
		if grain == GrainMonth {
			period = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
		} else {
			period = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		}
		sums[period.Format("2006-01-02")] += r.co2eKg
	}
	periods := make([]string, 0, len(sums))
	for p := range sums {
		periods = append(periods, p)
	}
	sort.Strings(periods)
	points := make([]models.TrendPoint, 0, len(periods))
	for _, p := range periods {
		points = append(points, models.TrendPoint{Period: p, CO2eKg: sums[p]})
	}
	return points, nil
}

func (s *stubStore) TopCategories(_ context.Context, _ int64, limit int) ([]models.CategoryTotal, error) {
	s.aggregateCalls++
	sums := make(map[string]float64)
	for _, r := range s.records {
		sums[r.category] += r.co2eKg
	}
	totals := make([]models.CategoryTotal, 0, len(sums))
	for cat, kg := range sums {
		totals = append(totals, models.CategoryTotal{Category: cat, CO2eKg: kg})
	}
	sort.Slice(totals, func(i, j int) bool {
		if totals[i].CO2eKg != totals[j].CO2eKg {
			return totals[i].CO2eKg > totals[j].CO2eKg
		}
		return totals[i].Category < totals[j].Category
	})
	if len(totals) > limit {
		totals = totals[:limit]
	}
	return totals, nil
}

func (s *stubStore) FacilitiesCount(_ context.Context, _ int64) (int, error) {
	s.aggregateCalls++
	return len(s.facilities), nil
}

func (s *stubStore) LastEventAt(_ context.Context, _ int64) (*time.Time, error) {
	s.aggregateCalls++
	var last *time.Time
	for _, r := range s.records {
		t := r.occurredAt
		if last == nil || t.After(*last) {
			last = &t
		}
	}
	return last, nil
}

func (s *stubStore) ListUsers(_ context.Context, _ int64) ([]models.User, error) {
	return s.users, nil
}

func (s *stubStore) ListFacilities(_ context.Context, _ int64) ([]models.Facility, error) {
	return s.facilities, nil
}

func (s *stubStore) ListActivityEvents(_ context.Context, _ int64) ([]models.ActivityEvent, error) {
	return s.events, nil
}

func (s *stubStore) ListEmissions(_ context.Context, _ int64) ([]models.Emission, error) {
	return s.emissions, nil
}

func (s *stubStore) ListEmissionFactors(_ context.Context, factorIDs []int64) ([]models.EmissionFactor, error) {
	out := make([]models.EmissionFactor, 0, len(factorIDs))
	for _, id := range factorIDs {
		for _, f := range s.factors {
			if f.ID == id {
				out = append(out, f)
			}
		}
	}
	return out, nil
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// januaryLedger is the reference dataset: two January emissions and
// one on the February boundary that half-open windows must exclude.
func januaryLedger() *stubStore {
	return &stubStore{
		org: &models.Organization{ID: 1, Name: "Acme", Plan: models.PlanStarter},
		records: []stubRecord{
			{scope: models.Scope1, co2eKg: 100, occurredAt: date(2024, time.January, 5), category: "electricity"},
			{scope: models.Scope2, co2eKg: 50, occurredAt: date(2024, time.January, 20), category: "transport"},
			{scope: models.Scope1, co2eKg: 25, occurredAt: date(2024, time.February, 1), category: "electricity"},
		},
	}
}

func januaryWindow(t *testing.T) Window {
	t.Helper()
	w, err := ParseWindow("2024-01-01", "2024-02-01")
	if err != nil {
		t.Fatalf("ParseWindow: %v", err)
	}
	return w
}

func TestKPIsExcludesUpperBound(t *testing.T) {
	store := januaryLedger()
	engine := NewEngine(store)

	kpis, err := engine.KPIs(context.Background(), 1, januaryWindow(t))
	if err != nil {
		t.Fatalf("KPIs: %v", err)
	}

	if kpis.TotalCO2eKg != 150 {
		t.Errorf("total = %v, want 150", kpis.TotalCO2eKg)
	}
	if kpis.Scope1Kg != 100 || kpis.Scope2Kg != 50 || kpis.Scope3Kg != 0 {
		t.Errorf("scopes = %v/%v/%v, want 100/50/0", kpis.Scope1Kg, kpis.Scope2Kg, kpis.Scope3Kg)
	}
	if got := kpis.Scope1Kg + kpis.Scope2Kg + kpis.Scope3Kg; got != kpis.TotalCO2eKg {
		t.Errorf("scope sum %v != total %v", got, kpis.TotalCO2eKg)
	}
}

func TestKPIsIdempotent(t *testing.T) {
	engine := NewEngine(januaryLedger())
	window := januaryWindow(t)

	first, err := engine.KPIs(context.Background(), 1, window)
	if err != nil {
		t.Fatalf("KPIs: %v", err)
	}
	second, err := engine.KPIs(context.Background(), 1, window)
	if err != nil {
		t.Fatalf("KPIs (repeat): %v", err)
	}
	if first != second {
		t.Errorf("repeated call differs: %+v vs %+v", first, second)
	}
}

func TestTrendMonthGrain(t *testing.T) {
	engine := NewEngine(januaryLedger())

	points, err := engine.Trend(context.Background(), 1, januaryWindow(t), GrainMonth)
	if err != nil {
		t.Fatalf("Trend: %v", err)
	}

	if len(points) != 1 {
		t.Fatalf("got %d buckets, want 1 (February event excluded)", len(points))
	}
	if points[0].Period != "2024-01-01" || points[0].CO2eKg != 150 {
		t.Errorf("bucket = %+v, want {2024-01-01 150}", points[0])
	}
}

func TestTrendDayGrainAscending(t *testing.T) {
	engine := NewEngine(januaryLedger())

	points, err := engine.Trend(context.Background(), 1, januaryWindow(t), GrainDay)
	if err != nil {
		t.Fatalf("Trend: %v", err)
	}

	if len(points) != 2 {
		t.Fatalf("got %d buckets, want 2", len(points))
	}
	if points[0].Period != "2024-01-05" || points[1].Period != "2024-01-20" {
		t.Errorf("periods = %s, %s; want ascending 2024-01-05, 2024-01-20", points[0].Period, points[1].Period)
	}
}

func TestTrendSumMatchesKPITotal(t *testing.T) {
	engine := NewEngine(januaryLedger())
	window := januaryWindow(t)

	kpis, err := engine.KPIs(context.Background(), 1, window)
	if err != nil {
		t.Fatalf("KPIs: %v", err)
	}

	for _, grain := range []Grain{GrainDay, GrainMonth} {
		points, err := engine.Trend(context.Background(), 1, window, grain)
		if err != nil {
			t.Fatalf("Trend(%s): %v", grain, err)
		}
		var sum float64
		for _, p := range points {
			sum += p.CO2eKg
		}
		if sum != kpis.TotalCO2eKg {
			t.Errorf("grain %s: bucket sum %v != kpi total %v", grain, sum, kpis.TotalCO2eKg)
		}
	}
}

func TestSummary(t *testing.T) {
	store := januaryLedger()
	store.facilities = []models.Facility{
		{ID: 1, OrgID: 1, Name: "Plant A"},
		{ID: 2, OrgID: 1, Name: "Plant B"},
	}
	engine := NewEngine(store)

	summary, err := engine.Summary(context.Background(), 1)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}

	// Summary totals are all-time: the February event counts here.
	if summary.TotalCO2eKg != 175 {
		t.Errorf("total = %v, want 175", summary.TotalCO2eKg)
	}
	if summary.FacilitiesCount != 2 {
		t.Errorf("facilities = %d, want 2", summary.FacilitiesCount)
	}
	if summary.LastEventAt == nil || !summary.LastEventAt.Equal(date(2024, time.February, 1)) {
		t.Errorf("last_event_at = %v, want 2024-02-01", summary.LastEventAt)
	}

	if len(summary.TopCategories) > TopCategoriesLimit {
		t.Fatalf("top categories length %d exceeds %d", len(summary.TopCategories), TopCategoriesLimit)
	}
	for i := 1; i < len(summary.TopCategories); i++ {
		if summary.TopCategories[i].CO2eKg > summary.TopCategories[i-1].CO2eKg {
			t.Errorf("top categories not descending at %d: %+v", i, summary.TopCategories)
		}
	}
	if summary.TopCategories[0].Category != "electricity" || summary.TopCategories[0].CO2eKg != 125 {
		t.Errorf("top category = %+v, want {electricity 125}", summary.TopCategories[0])
	}
}

func TestSummaryNoEmissions(t *testing.T) {
	store := &stubStore{org: &models.Organization{ID: 7, Name: "Empty Co"}}
	engine := NewEngine(store)

	summary, err := engine.Summary(context.Background(), 7)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if summary.TotalCO2eKg != 0 || summary.LastEventAt != nil {
		t.Errorf("empty org summary = %+v, want zero totals and nil last event", summary)
	}
}

func TestSummaryUnknownOrgShortCircuits(t *testing.T) {
	store := januaryLedger()
	engine := NewEngine(store)

	_, err := engine.Summary(context.Background(), 999)
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("err = %v, want NotFoundError", err)
	}
	if notFound.OrgID != 999 {
		t.Errorf("NotFoundError org = %d, want 999", notFound.OrgID)
	}
	if store.aggregateCalls != 0 {
		t.Errorf("aggregate queries ran %d times before existence check", store.aggregateCalls)
	}
}

func TestSnapshot(t *testing.T) {
	factor1, factor2 := int64(11), int64(12)
	store := januaryLedger()
	store.users = []models.User{{ID: 1, OrgID: 1, Email: "a@acme.test", Role: "analyst", IsActive: true}}
	store.facilities = []models.Facility{{ID: 1, OrgID: 1, Name: "Plant A"}}
	store.events = []models.ActivityEvent{
		{ID: 3, OrgID: 1, OccurredAt: date(2024, time.February, 1), Category: "electricity"},
		{ID: 2, OrgID: 1, OccurredAt: date(2024, time.January, 20), Category: "transport"},
		{ID: 1, OrgID: 1, OccurredAt: date(2024, time.January, 5), Category: "electricity"},
	}
	store.emissions = []models.Emission{
		{ID: 3, OrgID: 1, EventID: 3, Scope: models.Scope1, CO2eKg: 25, FactorID: &factor1},
		{ID: 2, OrgID: 1, EventID: 2, Scope: models.Scope2, CO2eKg: 50, FactorID: &factor2},
		{ID: 1, OrgID: 1, EventID: 1, Scope: models.Scope1, CO2eKg: 100, FactorID: &factor1},
	}
	store.factors = []models.EmissionFactor{
		{ID: factor1, Namespace: "grid", Category: "electricity"},
		{ID: factor2, Namespace: "fuel", Category: "transport"},
		{ID: 99, Namespace: "unused", Category: "waste"},
	}
	engine := NewEngine(store)

	snapshot, err := engine.Snapshot(context.Background(), 1)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	if snapshot.Organization.Name != "Acme" {
		t.Errorf("organization = %+v", snapshot.Organization)
	}
	if len(snapshot.EmissionFactors) != 2 {
		t.Fatalf("factors = %d, want 2 (deduplicated, unused excluded)", len(snapshot.EmissionFactors))
	}
	if snapshot.Summary.UsersCount != 1 || snapshot.Summary.FacilitiesCount != 1 ||
		snapshot.Summary.EventsCount != 3 || snapshot.Summary.EmissionsCount != 3 {
		t.Errorf("summary counts = %+v", snapshot.Summary)
	}
	if snapshot.Summary.TotalCO2eKg != 175 {
		t.Errorf("summary total = %v, want 175", snapshot.Summary.TotalCO2eKg)
	}
	if snapshot.Summary.LastEventAt == nil || !snapshot.Summary.LastEventAt.Equal(date(2024, time.February, 1)) {
		t.Errorf("summary last_event_at = %v", snapshot.Summary.LastEventAt)
	}
}

func TestSnapshotUnknownOrg(t *testing.T) {
	engine := NewEngine(januaryLedger())

	_, err := engine.Snapshot(context.Background(), 404)
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("err = %v, want NotFoundError", err)
	}
}

func TestParseGrain(t *testing.T) {
	if g, err := ParseGrain(""); err != nil || g != GrainDay {
		t.Errorf("ParseGrain(\"\") = %v, %v; want day", g, err)
	}
	if g, err := ParseGrain("month"); err != nil || g != GrainMonth {
		t.Errorf("ParseGrain(month) = %v, %v", g, err)
	}
	if _, err := ParseGrain("week"); err == nil {
		t.Error("ParseGrain(week) should fail")
	}
}
