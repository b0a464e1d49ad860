package handlers

import (
	"html/template"
	"net/http"
	"sort"
	"strings"
	"time"

	"gymdash/internal/observability"

	"github.com/gin-gonic/gin"
)

// RouteInfo represents information about a single route
type RouteInfo struct {
	Method      string `json:"method"`
	Path        string `json:"path"`
	Access      string `json:"access"`
	HandlerName string `json:"handler_name"`
}

// RouteListingHandler lists the registered routes. Mounted only in debug mode.
type RouteListingHandler struct {
	serviceName string
	routes      []RouteInfo
}

// NewRouteListingHandler creates a new route listing handler
func NewRouteListingHandler(serviceName string) *RouteListingHandler {
	return &RouteListingHandler{
		serviceName: serviceName,
		routes:      []RouteInfo{},
	}
}

// routeAccess names who may call a path.
func routeAccess(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/admin/"):
		return "staff"
	case strings.HasPrefix(path, "/v1/feature-requests"):
		return "tenant"
	default:
		return "public"
	}
}

// CollectRoutes extracts all routes from a Gin engine
func (h *RouteListingHandler) CollectRoutes(engine *gin.Engine) {
	h.routes = []RouteInfo{}

	for _, route := range engine.Routes() {
		// Skip internal Gin routes
		if strings.HasPrefix(route.Path, "/debug/") {
			continue
		}
		h.routes = append(h.routes, RouteInfo{
			Method:      route.Method,
			Path:        route.Path,
			Access:      routeAccess(route.Path),
			HandlerName: route.Handler,
		})
	}

	sort.Slice(h.routes, func(i, j int) bool {
		if h.routes[i].Path != h.routes[j].Path {
			return h.routes[i].Path < h.routes[j].Path
		}
		return h.routes[i].Method < h.routes[j].Method
	})
}

var routeListingTemplate = template.Must(template.New("routes").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<title>{{.Service}} - Available Routes</title>
<style>
body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif; padding: 20px; }
table { border-collapse: collapse; width: 100%; }
th, td { padding: 8px; text-align: left; border-bottom: 1px solid #dee2e6; }
.path { font-family: Menlo, monospace; }
.access-staff { color: #721c24; }
.access-tenant { color: #004085; }
</style>
</head>
<body>
<h1>{{.Service}} - Available Routes</h1>
<p>Generated {{.Generated}} | {{len .Routes}} routes | <a href="/?json=true">JSON</a></p>
<table>
<thead><tr><th>Method</th><th>Path</th><th>Access</th><th>Handler</th></tr></thead>
<tbody>
{{range .Routes}}<tr><td>{{.Method}}</td><td class="path">{{.Path}}</td><td class="access-{{.Access}}">{{.Access}}</td><td>{{.HandlerName}}</td></tr>
{{end}}</tbody>
</table>
</body>
</html>
`))

// GetRouteListingPage shows all available routes as HTML
func (h *RouteListingHandler) GetRouteListingPage(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "get_route_listing_page")
	defer observability.FinishSpan(span, nil)

	var page strings.Builder
	err := routeListingTemplate.Execute(&page, map[string]interface{}{
		"Service":   h.serviceName,
		"Generated": time.Now().Format("2006-01-02 15:04:05"),
		"Routes":    h.routes,
	})
	if err != nil {
		HandleAppError(c, err)
		return
	}

	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page.String()))
}

// GetRouteListingJSON returns the route listing as JSON
func (h *RouteListingHandler) GetRouteListingJSON(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "get_route_listing_json")
	defer observability.FinishSpan(span, nil)
	c.JSON(http.StatusOK, h.routes)
}
