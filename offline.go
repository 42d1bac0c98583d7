// Package offline emulates the API Gateway integration layer for serverless
// functions. It accepts HTTP requests, resolves the registered function for
// the request's method and path, enforces per-route API key authorization,
// builds the gateway-shaped invocation event, invokes the function, and
// translates the result or error into the HTTP response the remote gateway
// would produce.
package offline

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// DefaultStage is used when no deployment stage is configured.
const DefaultStage = "dev"

type Gateway struct {
	r         *mux.Router
	reg       *registry
	keys      *KeyStore
	stage     string
	stageVars map[string]string
	logger    *logrus.Logger
}

type Options struct {
	Routes         []*Route
	APIKeys        []string
	Stage          string
	StageVariables map[string]string
	Logger         *logrus.Logger
}

func New(optFns ...func(*Options) error) (*Gateway, error) {
	opts := Options{
		Stage: DefaultStage,
	}
	for _, optFn := range optFns {
		if err := optFn(&opts); err != nil {
			return nil, err
		}
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	gw := &Gateway{
		r:         mux.NewRouter(),
		reg:       newRegistry(),
		keys:      NewKeyStore(opts.APIKeys...),
		stage:     opts.Stage,
		stageVars: opts.StageVariables,
		logger:    opts.Logger,
	}
	for _, route := range opts.Routes {
		if err := gw.register(route); err != nil {
			return nil, err
		}
	}
	gw.r.NotFoundHandler = http.HandlerFunc(gw.serveNotFound)
	gw.r.MethodNotAllowedHandler = http.HandlerFunc(gw.serveNotFound)
	return gw, nil
}

func (gw *Gateway) register(route *Route) error {
	if err := route.validate(); err != nil {
		return err
	}
	if err := gw.reg.register(route); err != nil {
		return err
	}
	gw.r.Handle(route.Path, gw.handlerFor(route)).Methods(route.Method)
	return nil
}

// Resolve returns the binding registered for (method, path).
// It reports ErrRouteNotFound when no route matches.
func (gw *Gateway) Resolve(method, path string) (*Route, error) {
	route, ok := gw.reg.resolve(method, path)
	if !ok {
		return nil, ErrRouteNotFound
	}
	return route, nil
}

func (gw *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	gw.r.ServeHTTP(w, r)
}

// Process runs one parsed request through the pipeline and returns the
// response for the transport layer to serialize. ServeHTTP is a thin wrapper
// over the same pipeline.
func (gw *Gateway) Process(r *http.Request) *Response {
	route, err := gw.Resolve(r.Method, r.URL.Path)
	if err != nil {
		return notFoundResponse()
	}
	return gw.process(route, r)
}

func (gw *Gateway) handlerFor(route *Route) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gw.process(route, r).write(w)
	})
}

func (gw *Gateway) serveNotFound(w http.ResponseWriter, r *http.Request) {
	gw.logger.WithFields(logrus.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
	}).Info("route not found")
	notFoundResponse().write(w)
}

// process runs one request through the pipeline:
// gate -> event build -> invoke -> response build.
// Route resolution already happened in the router.
func (gw *Gateway) process(route *Route, r *http.Request) *Response {
	if !gw.authorize(route, r.Header) {
		gw.logger.WithFields(logrus.Fields{
			"method": route.Method,
			"path":   route.Path,
		}).Info("request forbidden")
		return forbiddenResponse()
	}

	payload, err := gw.buildEvent(route, r)
	if err != nil {
		return gw.buildResponse(route, nil, err)
	}

	output, invokeErr := gw.invoke(r.Context(), route, payload)
	return gw.buildResponse(route, output, invokeErr)
}

func (gw *Gateway) stageVariablesFor(route *Route) map[string]string {
	if route.StageVariables != nil {
		return route.StageVariables
	}
	return gw.stageVars
}

// -------------- Options ----------------

func WithRoute(route *Route) func(*Options) error {
	return func(opts *Options) error {
		opts.Routes = append(opts.Routes, route)
		return nil
	}
}

func WithRoutes(routes ...*Route) func(*Options) error {
	return func(opts *Options) error {
		opts.Routes = append(opts.Routes, routes...)
		return nil
	}
}

func WithAPIKeys(keys ...string) func(*Options) error {
	return func(opts *Options) error {
		opts.APIKeys = append(opts.APIKeys, keys...)
		return nil
	}
}

func WithStage(stage string) func(*Options) error {
	return func(opts *Options) error {
		opts.Stage = stage
		return nil
	}
}

func WithStageVariables(vars map[string]string) func(*Options) error {
	return func(opts *Options) error {
		opts.StageVariables = vars
		return nil
	}
}

func WithLogger(logger *logrus.Logger) func(*Options) error {
	return func(opts *Options) error {
		opts.Logger = logger
		return nil
	}
}
