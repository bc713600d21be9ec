package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kosarica/price-aggregator/internal/adapters/config"
	"github.com/kosarica/price-aggregator/internal/aggregator"
	"github.com/kosarica/price-aggregator/internal/analytics"
	"github.com/kosarica/price-aggregator/internal/availability"
	"github.com/kosarica/price-aggregator/internal/location"
	"github.com/kosarica/price-aggregator/internal/normalize"
	"github.com/kosarica/price-aggregator/internal/pkg/cuid2"
	"github.com/kosarica/price-aggregator/internal/types"
)

var (
	locationSuggestions = []string{
		"Enable location services in your browser",
		"Enter your city and pincode manually",
		"Try searching with a major city near you",
	}
	emptyResultSuggestions = []string{
		"Try a different search term",
		"Check if the item is available in your area",
		"Try searching in a nearby major city",
		"Verify your location is correct",
	}
)

// SearchRequest is the query string of GET /search.
type SearchRequest struct {
	Query    string `form:"q" json:"q" jsonschema:"required"`
	Category string `form:"category" json:"category" jsonschema:"required,enum=groceries,enum=food,enum=medicines"`
	Location string `form:"location" json:"location" jsonschema:"required,description=City (pincode)"`
	Pincode  string `form:"pincode" json:"pincode,omitempty" jsonschema:"description=Used when location carries no pincode"`
}

// SearchMetadata describes how a result set was produced.
type SearchMetadata struct {
	Query        string                       `json:"query"`
	Category     string                       `json:"category"`
	Location     string                       `json:"location"`
	ServedCity   string                       `json:"servedCity"`
	TotalResults int                          `json:"totalResults"`
	SearchTime   string                       `json:"searchTime"`
	Timestamp    time.Time                    `json:"timestamp"`
	Platforms    []string                     `json:"platforms"`
	DataSource   types.DataSource             `json:"dataSource"`
	PriceRange   *normalize.PriceRange        `json:"priceRange"`
	Suggestions  []string                     `json:"suggestions,omitempty"`
	Outcomes     []aggregator.PlatformOutcome `json:"outcomes,omitempty"`
}

// SearchResponse is the body of a successful GET /search.
type SearchResponse struct {
	Results  []types.PriceRecord `json:"results"`
	Metadata SearchMetadata      `json:"metadata"`
}

// Search handles GET /search.
func (a *API) Search(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, ErrorResponse{Error: "Invalid query", Message: err.Error()})
		return
	}
	req.Query = strings.TrimSpace(req.Query)
	req.Category = strings.ToLower(strings.TrimSpace(req.Category))

	if req.Query == "" || req.Category == "" {
		badRequest(c, ErrorResponse{
			Error:   "Missing query or category",
			Message: "Please provide both search query and category",
		})
		return
	}
	if !config.IsValidCategory(req.Category) {
		valid := config.ValidCategories()
		badRequest(c, ErrorResponse{
			Error:           "Invalid category",
			Message:         "Category must be one of: " + strings.Join(valid, ", "),
			ValidCategories: valid,
		})
		return
	}

	loc := location.Parse(req.Location)
	if loc.Pincode == "" {
		loc.Pincode = strings.TrimSpace(req.Pincode)
	}
	if err := location.Check(loc); err != nil {
		resp := ErrorResponse{
			Error:       "Invalid location",
			Message:     "Please provide a valid location to search for prices",
			Suggestions: locationSuggestions,
		}
		var locErr location.ErrInvalidLocation
		if errors.As(err, &locErr) {
			resp.Field = locErr.Field
		}
		badRequest(c, resp)
		return
	}

	ctx := c.Request.Context()
	if a.opts.SearchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.opts.SearchTimeout)
		defer cancel()
	}

	start := time.Now()
	res, err := a.aggregator.Aggregate(ctx, req.Query, req.Category, loc)
	elapsed := time.Since(start)
	if err != nil {
		switch {
		case errors.Is(err, aggregator.ErrUnsupportedCategory):
			badRequest(c, ErrorResponse{Error: "Invalid category", Message: err.Error(), ValidCategories: config.ValidCategories()})
		case errors.Is(err, aggregator.ErrEmptyItem):
			badRequest(c, ErrorResponse{Error: "Missing query or category", Message: err.Error()})
		default:
			a.logger.Error().Err(err).Str("query", req.Query).Str("location", loc.Formatted()).Msg("Search failed")
			failure(c, err)
		}
		return
	}

	resp := SearchResponse{
		Results: res.Records,
		Metadata: SearchMetadata{
			Query:        req.Query,
			Category:     req.Category,
			Location:     loc.Formatted(),
			ServedCity:   res.City,
			TotalResults: len(res.Records),
			SearchTime:   fmt.Sprintf("%dms", elapsed.Milliseconds()),
			Timestamp:    time.Now().UTC(),
			Platforms:    normalize.Platforms(res.Records),
			DataSource:   res.Source,
			PriceRange:   normalize.Summarize(res.Records),
			Outcomes:     res.Outcomes,
		},
	}
	if len(res.Records) == 0 {
		resp.Metadata.Suggestions = emptyResultSuggestions
	}

	a.recordSearch(userID(c), req, loc, res)
	c.JSON(http.StatusOK, resp)
}

func (a *API) recordSearch(uid string, req SearchRequest, loc location.Location, res *aggregator.Result) {
	if uid == "" || a.recorder == nil {
		return
	}
	now := time.Now().UTC()
	h := analytics.SearchHistory{
		ID:          cuid2.New(cuid2.PrefixSearch),
		UserID:      uid,
		Query:       req.Query,
		Category:    req.Category,
		Location:    loc.Formatted(),
		ResultCount: len(res.Records),
		DataSource:  string(res.Source),
		CreatedAt:   now,
	}
	var cmp *analytics.PriceComparison
	if len(res.Records) > 0 {
		cmp = &analytics.PriceComparison{
			ID:        cuid2.New(cuid2.PrefixComparison),
			UserID:    uid,
			Query:     req.Query,
			Category:  req.Category,
			Location:  loc.Formatted(),
			Results:   res.Records,
			CreatedAt: now,
		}
		if i := normalize.Cheapest(res.Records); i >= 0 {
			cmp.Cheapest = res.Records[i].Platform
		}
	}
	a.recorder.RecordSearch(h, cmp)
}

// LocationSummary echoes the validated location.
type LocationSummary struct {
	City      string `json:"city"`
	Pincode   string `json:"pincode"`
	Formatted string `json:"formatted"`
}

// PlatformAvailability lists the platforms serving a location.
type PlatformAvailability struct {
	Total      int                       `json:"total"`
	ByCategory map[string][]string       `json:"byCategory"`
	All        []string                  `json:"all"`
	Matches    []availability.MatchResult `json:"matches"`
}

// LocationPlatformsResponse is the body of GET /location-platforms.
type LocationPlatformsResponse struct {
	Location             LocationSummary      `json:"location"`
	PlatformAvailability PlatformAvailability `json:"platformAvailability"`
	Metadata             struct {
		Timestamp     time.Time `json:"timestamp"`
		LocationValid bool      `json:"locationValid"`
	} `json:"metadata"`
}

// LocationPlatforms handles GET /location-platforms.
func (a *API) LocationPlatforms(c *gin.Context) {
	city := strings.TrimSpace(c.Query("city"))
	pincode := strings.TrimSpace(c.Query("pincode"))
	if city == "" || pincode == "" {
		badRequest(c, ErrorResponse{
			Error:   "Missing city or pincode",
			Message: "Please provide both city and pincode parameters",
		})
		return
	}

	loc := location.Location{City: city, Pincode: pincode}
	if err := location.Check(loc); err != nil {
		resp := ErrorResponse{
			Error:   "Invalid location format",
			Message: "Please provide a valid city and pincode",
		}
		var locErr location.ErrInvalidLocation
		if errors.As(err, &locErr) {
			resp.Field = locErr.Field
		}
		badRequest(c, resp)
		return
	}

	all := a.platforms.SupportedPlatforms(loc)
	var resp LocationPlatformsResponse
	resp.Location = LocationSummary{City: city, Pincode: pincode, Formatted: loc.Formatted()}
	resp.PlatformAvailability = PlatformAvailability{
		Total:      len(all),
		ByCategory: a.platforms.ByCategory(loc),
		All:        all,
		Matches:    a.platforms.Matches(loc),
	}
	resp.Metadata.Timestamp = time.Now().UTC()
	resp.Metadata.LocationValid = true
	c.JSON(http.StatusOK, resp)
}
