package offline

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/pkg/errors"
)

// IntegrationType selects how a route's function result becomes the HTTP
// response: proxy passes the structured result through verbatim, custom
// evaluates the route's response templates against it.
type IntegrationType string

const (
	IntegrationProxy  IntegrationType = "proxy"
	IntegrationCustom IntegrationType = "custom"
)

// ResponseTemplates configures response shaping for custom integrations.
type ResponseTemplates struct {
	// Headers maps header names to template strings.
	Headers map[string]string
	// Body is the body template. Empty means render the raw result
	// (or the error message on failure).
	Body string
}

// Route binds one (method, path) to a function handler. A route is immutable
// after registration.
type Route struct {
	Method      string
	Path        string
	Integration IntegrationType
	Private     bool

	// StatusCode is the success status for custom integrations.
	// Zero means 200.
	StatusCode int

	// Templates is consulted only for custom integrations.
	Templates *ResponseTemplates

	// StageVariables overrides the gateway-wide stage variables for
	// this route when non-nil.
	StageVariables map[string]string

	Handler lambda.Handler
}

func (route *Route) validate() error {
	if route == nil {
		return errors.New("nil route")
	}
	if route.Path == "" {
		return errors.New("route has no path")
	}
	if route.Handler == nil {
		return errors.Errorf("route %s %s has no handler", route.Method, route.Path)
	}
	switch route.Integration {
	case IntegrationProxy, IntegrationCustom:
	case "":
		route.Integration = IntegrationProxy
	default:
		return errors.Errorf("route %s %s: unknown integration type %q", route.Method, route.Path, route.Integration)
	}
	if route.Method == "" {
		route.Method = http.MethodGet
	}
	route.Method = strings.ToUpper(route.Method)
	route.Path = normalizePath(route.Path)
	return nil
}

func (route *Route) successStatus() int {
	if route.StatusCode != 0 {
		return route.StatusCode
	}
	return http.StatusOK
}

func normalizePath(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	return path
}

// HandlerFunc adapts any function signature accepted by aws-lambda-go into a
// route handler.
func HandlerFunc(fn interface{}) lambda.Handler {
	return lambda.NewHandler(fn)
}

// DuplicateRouteError is returned when a route is registered for a
// (method, path) pair that already has a binding.
type DuplicateRouteError struct {
	Method string
	Path   string
}

func (e *DuplicateRouteError) Error() string {
	return fmt.Sprintf("route already registered: %s %s", e.Method, e.Path)
}

// ErrRouteNotFound is reported by Resolve for unmatched (method, path) pairs.
var ErrRouteNotFound = errors.New("route not found")

type routeKey struct {
	method string
	path   string
}

type registry struct {
	routes map[routeKey]*Route
}

func newRegistry() *registry {
	return &registry{routes: make(map[routeKey]*Route)}
}

func (reg *registry) register(route *Route) error {
	key := routeKey{method: route.Method, path: route.Path}
	if _, ok := reg.routes[key]; ok {
		return &DuplicateRouteError{Method: route.Method, Path: route.Path}
	}
	reg.routes[key] = route
	return nil
}

func (reg *registry) resolve(method, path string) (*Route, bool) {
	route, ok := reg.routes[routeKey{
		method: strings.ToUpper(method),
		path:   normalizePath(path),
	}]
	return route, ok
}
