// Package handlers exposes the aggregator, the cart optimizer and user state
// over HTTP.
package handlers

import (
	"context"
	"errors"
	"net"
	"net/http"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/kosarica/price-aggregator/internal/adapters/config"
	"github.com/kosarica/price-aggregator/internal/aggregator"
	"github.com/kosarica/price-aggregator/internal/analytics"
	"github.com/kosarica/price-aggregator/internal/availability"
	"github.com/kosarica/price-aggregator/internal/location"
	"github.com/kosarica/price-aggregator/internal/optimizer"
)

// UserIDHeader identifies the caller for analytics and persisted state.
const UserIDHeader = "X-User-Id"

// RetryAfterSeconds is suggested to clients after a failed search.
const RetryAfterSeconds = 30

// Error categories returned in failed search responses.
const (
	ErrorCategoryTimeout  = "timeout"
	ErrorCategoryNetwork  = "network"
	ErrorCategoryInternal = "internal"
)

// Aggregator runs price searches.
type Aggregator interface {
	Aggregate(ctx context.Context, item, category string, loc location.Location) (*aggregator.Result, error)
	Breakers() []aggregator.BreakerSnapshot
	ResetBreaker(id config.PlatformID) bool
}

// PlatformDirectory answers which platforms serve a location.
type PlatformDirectory interface {
	SupportedPlatforms(loc location.Location) []string
	ByCategory(loc location.Location) map[string][]string
	Matches(loc location.Location) []availability.MatchResult
}

// Options tunes request handling.
type Options struct {
	// SearchTimeout bounds one /search request. Zero leaves it to the aggregator.
	SearchTimeout time.Duration
	// CartConcurrency bounds parallel searches when a cart is priced live.
	CartConcurrency int
	Version         string
}

// API holds the dependencies of every route.
type API struct {
	aggregator Aggregator
	platforms  PlatformDirectory
	optimizer  *optimizer.Service
	store      analytics.Store
	recorder   *analytics.AsyncRecorder
	opts       Options
	started    time.Time
	logger     zerolog.Logger
}

// NewAPI wires the handlers. A nil store disables persistence and a nil
// recorder disables search analytics.
func NewAPI(agg Aggregator, platforms PlatformDirectory, opt *optimizer.Service, store analytics.Store, recorder *analytics.AsyncRecorder, opts Options) *API {
	if store == nil {
		store = analytics.NopStore{}
	}
	if opt == nil {
		opt = optimizer.NewService(nil)
	}
	if opts.CartConcurrency <= 0 {
		opts.CartConcurrency = 4
	}
	return &API{
		aggregator: agg,
		platforms:  platforms,
		optimizer:  opt,
		store:      store,
		recorder:   recorder,
		opts:       opts,
		started:    time.Now(),
		logger:     log.With().Str("component", "handlers").Logger(),
	}
}

// Register mounts the public routes on r and the operator routes on internal.
func (a *API) Register(r gin.IRoutes, internal gin.IRoutes) {
	r.GET("/health", a.Health)
	r.GET("/search", a.Search)
	r.GET("/location-platforms", a.LocationPlatforms)
	r.GET("/location", a.GetLocation)
	r.PUT("/location", a.SaveLocation)
	r.POST("/cart/optimize", a.OptimizeCart)
	r.POST("/cart/plan", a.PlanCart)
	r.POST("/cart/apply", a.ApplyCart)
	r.GET("/cart", a.GetCart)

	if internal != nil {
		internal.GET("/adapters", a.ListAdapters)
		internal.POST("/adapters/:platform/reset", a.ResetAdapter)
	}
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error           string   `json:"error"`
	Message         string   `json:"message"`
	ErrorCategory   string   `json:"errorCategory,omitempty"`
	RetryAfter      int      `json:"retryAfter,omitempty"`
	ValidCategories []string `json:"validCategories,omitempty"`
	Suggestions     []string `json:"suggestions,omitempty"`
	Field           string   `json:"field,omitempty"`
}

func badRequest(c *gin.Context, resp ErrorResponse) {
	c.JSON(http.StatusBadRequest, resp)
}

// classifyError maps a failed search to a status code and an error category.
func classifyError(err error) (int, string) {
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusRequestTimeout, ErrorCategoryTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return http.StatusRequestTimeout, ErrorCategoryTimeout
		}
		return http.StatusServiceUnavailable, ErrorCategoryNetwork
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) || errors.Is(err, context.Canceled) {
		return http.StatusServiceUnavailable, ErrorCategoryNetwork
	}
	return http.StatusInternalServerError, ErrorCategoryInternal
}

func failure(c *gin.Context, err error) {
	status, category := classifyError(err)
	msg := "Search failed"
	switch category {
	case ErrorCategoryTimeout:
		msg = "Search timed out. Please try again."
	case ErrorCategoryNetwork:
		msg = "Network error. Please check your connection."
	}
	c.Header("Retry-After", "30")
	c.JSON(status, ErrorResponse{
		Error:         msg,
		Message:       "Unable to fetch prices at the moment. Please try again later.",
		ErrorCategory: category,
		RetryAfter:    RetryAfterSeconds,
	})
}

func userID(c *gin.Context) string {
	return c.GetHeader(UserIDHeader)
}
