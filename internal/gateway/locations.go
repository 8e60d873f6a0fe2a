package gateway

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"tangled.org/lewlew.social/lewctl/internal/models"
)

// GrowthPeriod selects the time window of the location growth series.
type GrowthPeriod string

const (
	GrowthPeriod7d  GrowthPeriod = "7d"
	GrowthPeriod30d GrowthPeriod = "30d"
	GrowthPeriod90d GrowthPeriod = "90d"
)

// Valid reports whether the period is one the API accepts.
func (p GrowthPeriod) Valid() bool {
	switch p {
	case GrowthPeriod7d, GrowthPeriod30d, GrowthPeriod90d:
		return true
	}
	return false
}

// LocationAnalytics fetches the headline location analytics facet.
func (c *Client) LocationAnalytics(ctx context.Context) (*models.LocationAnalytics, error) {
	var analytics models.LocationAnalytics
	err := c.do(ctx, call{
		method:   http.MethodGet,
		path:     "/admin/analytics/locations",
		authed:   true,
		endpoint: "locations.analytics",
		fallback: "Failed to fetch location analytics",
	}, &analytics)
	if err != nil {
		return nil, err
	}
	return &analytics, nil
}

// TopLocations fetches the N most active locations.
func (c *Client) TopLocations(ctx context.Context, limit int) ([]models.LocationStats, error) {
	var top []models.LocationStats
	err := c.do(ctx, call{
		method:   http.MethodGet,
		path:     "/admin/analytics/locations/top",
		query:    url.Values{"limit": []string{strconv.Itoa(limit)}},
		authed:   true,
		endpoint: "locations.top",
		fallback: "Failed to fetch top locations",
	}, &top)
	if err != nil {
		return nil, err
	}
	return top, nil
}

// LocationGrowth fetches the time-bucketed growth series for the period.
func (c *Client) LocationGrowth(ctx context.Context, period GrowthPeriod) ([]models.GrowthPoint, error) {
	if period == "" {
		period = GrowthPeriod30d
	}
	if !period.Valid() {
		return nil, NewValidationError("growth period must be one of 7d, 30d, 90d")
	}

	var points []models.GrowthPoint
	err := c.do(ctx, call{
		method:   http.MethodGet,
		path:     "/admin/analytics/locations/growth",
		query:    url.Values{"period": []string{string(period)}},
		authed:   true,
		endpoint: "locations.growth",
		fallback: "Failed to fetch location growth data",
	}, &points)
	if err != nil {
		return nil, err
	}
	return points, nil
}

// GeographicDistribution fetches the per-region post distribution.
func (c *Client) GeographicDistribution(ctx context.Context) ([]models.RegionShare, error) {
	var shares []models.RegionShare
	err := c.do(ctx, call{
		method:   http.MethodGet,
		path:     "/admin/analytics/locations/distribution",
		authed:   true,
		endpoint: "locations.distribution",
		fallback: "Failed to fetch geographic distribution",
	}, &shares)
	if err != nil {
		return nil, err
	}
	return shares, nil
}
