package handlers

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/invopop/jsonschema"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/kosarica/price-aggregator/internal/analytics"
	"github.com/kosarica/price-aggregator/internal/location"
	"github.com/kosarica/price-aggregator/internal/optimizer"
	"github.com/kosarica/price-aggregator/internal/types"
)

// OpenAPIPath serves the generated API document.
const OpenAPIPath = "/openapi.json"

// SchemaTypes lists the request and response bodies published as schemas.
func SchemaTypes() map[string]any {
	return map[string]any{
		"PriceRecord":               types.PriceRecord{},
		"SearchRequest":             SearchRequest{},
		"SearchResponse":            SearchResponse{},
		"LocationPlatformsResponse": LocationPlatformsResponse{},
		"Location":                  location.Location{},
		"OptimizeCartRequest":       OptimizeCartRequest{},
		"OptimizeResult":            optimizer.Result{},
		"PlanCartRequest":           PlanCartRequest{},
		"PlanResult":                optimizer.PlanResult{},
		"ApplyCartRequest":          ApplyCartRequest{},
		"ApplyCartResponse":         ApplyCartResponse{},
		"Cart":                      analytics.Cart{},
		"UserLocation":              analytics.UserLocation{},
		"HealthResponse":            HealthResponse{},
		"AdaptersResponse":          AdaptersResponse{},
		"ErrorResponse":             ErrorResponse{},
	}
}

// Reflect builds a self-contained JSON Schema for v.
func Reflect(v any) *jsonschema.Schema {
	r := &jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
		Anonymous:      true,
	}
	s := r.Reflect(v)
	s.Version = ""
	return s
}

func ref(name string) map[string]any {
	return map[string]any{"$ref": "#/components/schemas/" + name}
}

func jsonBody(name string) map[string]any {
	return map[string]any{"content": map[string]any{"application/json": map[string]any{"schema": ref(name)}}}
}

func responses(ok string, codes ...int) map[string]any {
	out := map[string]any{"200": map[string]any{"description": "OK", "content": jsonBody(ok)["content"]}}
	for _, code := range codes {
		out[strconv.Itoa(code)] = map[string]any{"description": http.StatusText(code), "content": jsonBody("ErrorResponse")["content"]}
	}
	return out
}

func queryParam(name string, required bool, desc string) map[string]any {
	return map[string]any{
		"name": name, "in": "query", "required": required, "description": desc,
		"schema": map[string]any{"type": "string"},
	}
}

var userHeader = map[string]any{
	"name": UserIDHeader, "in": "header", "required": false,
	"schema": map[string]any{"type": "string"},
}

// OpenAPIDocument assembles the OpenAPI 3 description of the public routes.
func OpenAPIDocument(version string) map[string]any {
	schemas := make(map[string]any)
	for name, v := range SchemaTypes() {
		schemas[name] = Reflect(v)
	}
	if version == "" {
		version = "dev"
	}

	return map[string]any{
		"openapi": "3.0.3",
		"info": map[string]any{
			"title":       "Price Aggregator API",
			"version":     version,
			"description": "Location-aware price comparison across quick-commerce, food delivery and pharmacy platforms.",
		},
		"paths": map[string]any{
			"/search": map[string]any{"get": map[string]any{
				"summary": "Search an item across the platforms serving a location",
				"parameters": []any{
					queryParam("q", true, "Item to search"),
					queryParam("category", true, "groceries, food or medicines"),
					queryParam("location", true, "City (pincode)"),
					queryParam("pincode", false, "Pincode when location has none"),
					userHeader,
				},
				"responses": responses("SearchResponse", 400, 408, 500, 503),
			}},
			"/location-platforms": map[string]any{"get": map[string]any{
				"summary":    "List platforms available at a location",
				"parameters": []any{queryParam("city", true, ""), queryParam("pincode", true, "")},
				"responses":  responses("LocationPlatformsResponse", 400),
			}},
			"/location": map[string]any{
				"get": map[string]any{
					"summary":    "Stored location of the caller",
					"parameters": []any{userHeader},
					"responses":  responses("UserLocation", 404),
				},
				"put": map[string]any{
					"summary":     "Store the caller's location",
					"parameters":  []any{userHeader},
					"requestBody": jsonBody("Location"),
					"responses":   responses("Location", 400, 500),
				},
			},
			"/cart": map[string]any{"get": map[string]any{
				"summary":    "Stored cart of the caller",
				"parameters": []any{userHeader},
				"responses":  responses("Cart", 404),
			}},
			"/cart/optimize": map[string]any{"post": map[string]any{
				"summary":     "Split a cart across platforms against the whole-cart baseline",
				"requestBody": jsonBody("OptimizeCartRequest"),
				"responses":   responses("OptimizeResult", 400, 408, 500),
			}},
			"/cart/plan": map[string]any{"post": map[string]any{
				"summary":     "Plan a cart from per-item offers against the first-available baseline",
				"parameters":  []any{userHeader},
				"requestBody": jsonBody("PlanCartRequest"),
				"responses":   responses("PlanResult", 400),
			}},
			"/cart/apply": map[string]any{"post": map[string]any{
				"summary":     "Persist a cart and the optimization applied to it",
				"parameters":  []any{userHeader},
				"requestBody": jsonBody("ApplyCartRequest"),
				"responses":   responses("ApplyCartResponse", 400, 500),
			}},
			"/health": map[string]any{"get": map[string]any{
				"summary":   "Liveness and store status",
				"responses": responses("HealthResponse"),
			}},
		},
		"components": map[string]any{"schemas": schemas},
	}
}

// RegisterDocs serves the OpenAPI document and a swagger UI reading it.
func (a *API) RegisterDocs(r gin.IRoutes) {
	var (
		once sync.Once
		doc  map[string]any
	)
	r.GET(OpenAPIPath, func(c *gin.Context) {
		once.Do(func() { doc = OpenAPIDocument(a.opts.Version) })
		c.JSON(http.StatusOK, doc)
	})
	r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL(OpenAPIPath)))
}
