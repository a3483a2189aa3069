package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nutrino/carbonfootprint/backend/analytics-service/internal/analytics"
	"github.com/nutrino/carbonfootprint/backend/analytics-service/internal/db"
	"github.com/nutrino/carbonfootprint/backend/analytics-service/internal/narrative"
)

// Handler holds the database connection, the analytics engine, and
// the injected narrative generator, and provides HTTP handlers
type Handler struct {
	db       *db.Database
	engine   *analytics.Engine
	narrator narrative.Generator
}

// NewHandler creates a new handler instance. narrator may be nil when
// no narrative backend is configured; the suggestion endpoint then
// reports 503 instead of failing requests elsewhere.
func NewHandler(database *db.Database, narrator narrative.Generator) *Handler {
	var engine *analytics.Engine
	if database != nil {
		engine = analytics.NewEngine(database)
	}
	return &Handler{db: database, engine: engine, narrator: narrator}
}

// Health handles GET /health and /ready
func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if h.db == nil || h.db.Health(ctx) != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  "Database connection failed",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"service":   "analytics-service",
	})
}

// GetKPIs handles GET /analytics/kpis?from=...&to=...
// Totals are scoped to the authenticated caller's organization.
func (h *Handler) GetKPIs(c *gin.Context) {
	orgID, ok := OrgIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Token has no organization"})
		return
	}

	window, err := analytics.ParseWindow(c.Query("from"), c.Query("to"))
	if err != nil {
		respondDomainError(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	kpis, err := h.engine.KPIs(ctx, orgID, window)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, kpis)
}

// GetTrend handles GET /analytics/trend?grain=day|month&from=...&to=...
func (h *Handler) GetTrend(c *gin.Context) {
	orgID, ok := OrgIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Token has no organization"})
		return
	}

	grain, err := analytics.ParseGrain(c.Query("grain"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	window, err := analytics.ParseWindow(c.Query("from"), c.Query("to"))
	if err != nil {
		respondDomainError(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	points, err := h.engine.Trend(ctx, orgID, window, grain)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, points)
}

// GetSummary handles GET /analytics/summary?id=...
func (h *Handler) GetSummary(c *gin.Context) {
	orgID, ok := orgIDParam(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	summary, err := h.engine.Summary(ctx, orgID)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GetSnapshot handles GET /analytics/snapshot?id=...
// Returns the full entity graph plus the embedded summary block.
func (h *Handler) GetSnapshot(c *gin.Context) {
	orgID, ok := orgIDParam(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	snapshot, err := h.engine.Snapshot(ctx, orgID)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// GetSuggestion handles GET /analytics/suggestion?id=...
// Assembles a snapshot and hands it to the narrative backend.
func (h *Handler) GetSuggestion(c *gin.Context) {
	orgID, ok := orgIDParam(c)
	if !ok {
		return
	}
	if h.narrator == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Narrative generation not configured"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 90*time.Second)
	defer cancel()

	snapshot, err := h.engine.Snapshot(ctx, orgID)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	message, err := h.narrator.Generate(ctx, snapshot)
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Narrative generation failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": message})
}

// orgIDParam parses the required ?id= query parameter. Writes the
// error response itself when the parameter is missing or malformed.
func orgIDParam(c *gin.Context) (int64, bool) {
	idStr := c.Query("id")
	if idStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Organization ID is required"})
		return 0, false
	}
	orgID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid organization ID"})
		return 0, false
	}
	return orgID, true
}

// respondDomainError maps the analytics error taxonomy onto HTTP
// statuses: malformed input and bad ranges are the caller's fault,
// unknown organizations are 404, anything else is opaque.
func respondDomainError(c *gin.Context, err error) {
	var parseErr *analytics.ParseError
	var rangeErr *analytics.InvalidRangeError
	var notFoundErr *analytics.NotFoundError

	switch {
	case errors.As(err, &parseErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": parseErr.Error()})
	case errors.As(err, &rangeErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "to must be after from"})
	case errors.As(err, &notFoundErr):
		c.JSON(http.StatusNotFound, gin.H{"error": notFoundErr.Error()})
	default:
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute analytics"})
	}
}
