package offline

import (
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"
)

type yamlConfig struct {
	Service        string            `yaml:"service"`
	Stage          string            `yaml:"stage"`
	APIKeys        []string          `yaml:"apiKeys"`
	StageVariables map[string]string `yaml:"stageVariables"`
	Routes         []yamlRoute       `yaml:"routes"`
}

type yamlRoute struct {
	Method         string            `yaml:"method"`
	Path           string            `yaml:"path"`
	Integration    string            `yaml:"integration"`
	Private        bool              `yaml:"private"`
	Handler        string            `yaml:"handler"`
	Function       string            `yaml:"function"`
	StatusCode     int               `yaml:"statusCode"`
	StageVariables map[string]string `yaml:"stageVariables"`
	Response       struct {
		Headers map[string]string `yaml:"headers"`
		Body    string            `yaml:"body"`
	} `yaml:"response"`
}

func parseIntegration(s string) (IntegrationType, error) {
	switch s {
	case "", "proxy", "lambda-proxy":
		return IntegrationProxy, nil
	case "custom", "lambda":
		return IntegrationCustom, nil
	default:
		return "", errors.Errorf("unknown integration type %q", s)
	}
}

// HandlerResolver maps a configured handler or function name to its handler.
// WithConfig consults it once per route at load time.
type HandlerResolver func(name string) (lambda.Handler, error)

// HandlerMap resolves handler names against a fixed map. Values may be
// lambda.Handler implementations or any function signature accepted by
// aws-lambda-go.
func HandlerMap(handlers map[string]interface{}) HandlerResolver {
	return func(name string) (lambda.Handler, error) {
		fn, ok := handlers[name]
		if !ok {
			return nil, errors.Errorf("no handler registered for %q", name)
		}
		if h, ok := fn.(lambda.Handler); ok {
			return h, nil
		}
		return lambda.NewHandler(fn), nil
	}
}

// WithConfig parses YAML configuration bytes and applies the declared stage,
// API keys, stage variables, and routes. Route handler names are bound
// through the resolver.
func WithConfig(b []byte, resolve HandlerResolver) func(*Options) error {
	return func(opts *Options) error {
		var cfg yamlConfig
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return errors.Wrap(err, "parse config")
		}

		if cfg.Stage != "" {
			opts.Stage = cfg.Stage
		}
		opts.APIKeys = append(opts.APIKeys, cfg.APIKeys...)
		if cfg.StageVariables != nil {
			opts.StageVariables = cfg.StageVariables
		}

		for _, rc := range cfg.Routes {
			integration, err := parseIntegration(rc.Integration)
			if err != nil {
				return errors.Wrapf(err, "route %s %s", rc.Method, rc.Path)
			}
			name := rc.Handler
			if name == "" {
				name = rc.Function
			}
			handler, err := resolve(name)
			if err != nil {
				return errors.Wrapf(err, "route %s %s", rc.Method, rc.Path)
			}
			route := &Route{
				Method:         rc.Method,
				Path:           rc.Path,
				Integration:    integration,
				Private:        rc.Private,
				StatusCode:     rc.StatusCode,
				StageVariables: rc.StageVariables,
				Handler:        handler,
			}
			if len(rc.Response.Headers) > 0 || rc.Response.Body != "" {
				route.Templates = &ResponseTemplates{
					Headers: rc.Response.Headers,
					Body:    rc.Response.Body,
				}
			}
			opts.Routes = append(opts.Routes, route)
		}
		return nil
	}
}

// WithConfigFile loads YAML configuration from a file.
func WithConfigFile(path string, resolve HandlerResolver) func(*Options) error {
	return func(opts *Options) error {
		b, err := os.ReadFile(path)
		if err != nil {
			return errors.Wrapf(err, "read config %s", path)
		}
		return WithConfig(b, resolve)(opts)
	}
}
