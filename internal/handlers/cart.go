package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/kosarica/price-aggregator/internal/adapters/config"
	"github.com/kosarica/price-aggregator/internal/analytics"
	"github.com/kosarica/price-aggregator/internal/location"
	"github.com/kosarica/price-aggregator/internal/optimizer"
	"github.com/kosarica/price-aggregator/internal/types"
)

// OptimizeCartRequest prices a cart across platforms. When Prices is empty
// every item is searched live at Location within Category.
type OptimizeCartRequest struct {
	Items    []optimizer.CartItem `json:"items" jsonschema:"required,minItems=1"`
	Prices   []types.PriceRecord  `json:"prices,omitempty"`
	Category string               `json:"category,omitempty" jsonschema:"enum=groceries,enum=food,enum=medicines"`
	Location *location.Location   `json:"location,omitempty"`
}

// OptimizeCartResponse wraps the optimizer result with the prices it used.
type OptimizeCartResponse struct {
	optimizer.Result
	PricesUsed int `json:"pricesUsed"`
}

// PlanCartRequest carries per-item platform offers. When Items is empty the
// caller's stored cart is planned.
type PlanCartRequest struct {
	Items []optimizer.PersistedCartItem `json:"items"`
}

// ApplyCartRequest persists a cart and the optimization the user accepted.
type ApplyCartRequest struct {
	UserID       string                        `json:"userId,omitempty"`
	Items        []optimizer.PersistedCartItem `json:"items,omitempty"`
	Optimization map[string]any                `json:"optimization" jsonschema:"required"`
}

// ApplyCartResponse acknowledges a persisted cart.
type ApplyCartResponse struct {
	Success     bool      `json:"success"`
	UserID      string    `json:"userId"`
	OptimizedAt time.Time `json:"optimizedAt"`
}

func invalidCart(c *gin.Context, err error) bool {
	var reqErr optimizer.ErrInvalidRequest
	if errors.As(err, &reqErr) {
		badRequest(c, ErrorResponse{Error: "Invalid cart", Message: reqErr.Error(), Field: reqErr.Field})
		return true
	}
	return false
}

// OptimizeCart handles POST /cart/optimize.
func (a *API) OptimizeCart(c *gin.Context) {
	var req OptimizeCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, ErrorResponse{Error: "Invalid request body", Message: err.Error()})
		return
	}

	prices := req.Prices
	if len(prices) == 0 {
		if req.Location == nil || req.Category == "" {
			badRequest(c, ErrorResponse{
				Error:   "Missing prices",
				Message: "Provide prices, or a category and location to search them",
			})
			return
		}
		if !config.IsValidCategory(req.Category) {
			badRequest(c, ErrorResponse{Error: "Invalid category", ValidCategories: config.ValidCategories(),
				Message: "Category must be one of: " + strings.Join(config.ValidCategories(), ", ")})
			return
		}
		if err := location.Check(*req.Location); err != nil {
			badRequest(c, ErrorResponse{Error: "Invalid location", Message: err.Error(), Suggestions: locationSuggestions})
			return
		}
		var err error
		prices, err = a.priceCart(c.Request.Context(), req.Items, req.Category, *req.Location)
		if err != nil {
			failure(c, err)
			return
		}
	}

	res, err := a.optimizer.Optimize(c.Request.Context(), req.Items, prices)
	if err != nil {
		if invalidCart(c, err) {
			return
		}
		failure(c, err)
		return
	}
	c.JSON(http.StatusOK, OptimizeCartResponse{Result: *res, PricesUsed: len(prices)})
}

// priceCart searches every distinct cart item concurrently and returns the
// records in cart order.
func (a *API) priceCart(ctx context.Context, items []optimizer.CartItem, category string, loc location.Location) ([]types.PriceRecord, error) {
	if a.opts.SearchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.opts.SearchTimeout)
		defer cancel()
	}

	results := make([][]types.PriceRecord, len(items))
	seen := make(map[string]bool, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.opts.CartConcurrency)
	for i, item := range items {
		key := strings.ToLower(strings.TrimSpace(item.Name))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		g.Go(func() error {
			res, err := a.aggregator.Aggregate(gctx, item.Name, category, loc)
			if err != nil {
				return err
			}
			results[i] = res.Records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []types.PriceRecord
	for _, r := range results {
		out = append(out, r...)
	}
	return out, nil
}

// PlanCart handles POST /cart/plan.
func (a *API) PlanCart(c *gin.Context) {
	var req PlanCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, ErrorResponse{Error: "Invalid request body", Message: err.Error()})
		return
	}

	items := req.Items
	if len(items) == 0 {
		cart, err := a.store.GetCart(c.Request.Context(), userID(c))
		switch {
		case errors.Is(err, analytics.ErrNotFound):
			badRequest(c, ErrorResponse{Error: "Empty cart", Message: "No items given and no stored cart found"})
			return
		case err != nil:
			a.logger.Error().Err(err).Msg("Failed to load cart")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to load cart", Message: err.Error()})
			return
		}
		items = cart.Items
	}

	res, err := a.optimizer.Plan(c.Request.Context(), items)
	if err != nil {
		if invalidCart(c, err) {
			return
		}
		failure(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ApplyCart handles POST /cart/apply.
func (a *API) ApplyCart(c *gin.Context) {
	var req ApplyCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, ErrorResponse{Error: "Invalid request body", Message: err.Error()})
		return
	}
	if req.Optimization == nil {
		badRequest(c, ErrorResponse{Error: "Missing optimization", Message: "optimization is required", Field: "optimization"})
		return
	}
	uid := req.UserID
	if uid == "" {
		uid = userID(c)
	}
	uid = analytics.UserKey(uid)

	ctx := c.Request.Context()
	if req.Items != nil {
		if err := a.store.SaveCart(ctx, uid, req.Items); err != nil {
			a.logger.Error().Err(err).Str("user_id", uid).Msg("Failed to save cart")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to save cart", Message: err.Error()})
			return
		}
	}
	if err := a.store.ApplyOptimization(ctx, uid, req.Optimization); err != nil {
		a.logger.Error().Err(err).Str("user_id", uid).Msg("Failed to apply optimization")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to apply optimization", Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, ApplyCartResponse{Success: true, UserID: uid, OptimizedAt: time.Now().UTC()})
}

// GetCart handles GET /cart.
func (a *API) GetCart(c *gin.Context) {
	cart, err := a.store.GetCart(c.Request.Context(), userID(c))
	if errors.Is(err, analytics.ErrNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Cart not found", Message: "No cart stored for this user"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to load cart", Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, cart)
}

// SaveLocation handles PUT /location.
func (a *API) SaveLocation(c *gin.Context) {
	var loc location.Location
	if err := c.ShouldBindJSON(&loc); err != nil {
		badRequest(c, ErrorResponse{Error: "Invalid request body", Message: err.Error()})
		return
	}
	loc.City = strings.TrimSpace(loc.City)
	loc.Pincode = strings.TrimSpace(loc.Pincode)
	if err := location.Check(loc); err != nil {
		resp := ErrorResponse{Error: "Invalid location", Message: err.Error(), Suggestions: locationSuggestions}
		var locErr location.ErrInvalidLocation
		if errors.As(err, &locErr) {
			resp.Field = locErr.Field
		}
		badRequest(c, resp)
		return
	}

	uid := analytics.UserKey(userID(c))
	if err := a.store.SaveLocation(c.Request.Context(), uid, loc); err != nil {
		a.logger.Error().Err(err).Str("user_id", uid).Msg("Failed to save location")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to save location", Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"location": LocationSummary{City: loc.City, Pincode: loc.Pincode, Formatted: loc.Formatted()},
	})
}

// GetLocation handles GET /location.
func (a *API) GetLocation(c *gin.Context) {
	saved, err := a.store.GetLocation(c.Request.Context(), userID(c))
	if errors.Is(err, analytics.ErrNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Location not set", Message: "No location stored for this user"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to load location", Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, saved)
}
