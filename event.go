package offline

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/Songmu/flextime"
	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// buildEvent constructs the invocation payload for the route's integration
// type. Construction is pure: inputs are the request and the route's static
// configuration.
func (gw *Gateway) buildEvent(route *Route, r *http.Request) ([]byte, error) {
	var body []byte
	if r.Body != nil {
		defer r.Body.Close()
		var err error
		body, err = io.ReadAll(r.Body)
		if err != nil {
			return nil, errors.Wrap(err, "read request body")
		}
	}

	if route.Integration == IntegrationProxy {
		return gw.buildProxyEvent(route, r, body)
	}
	return gw.buildCustomEvent(route, body)
}

// buildProxyEvent maps the HTTP request losslessly onto the gateway's proxy
// event shape.
func (gw *Gateway) buildProxyEvent(route *Route, r *http.Request, body []byte) ([]byte, error) {
	headers := make(map[string]string, len(r.Header))
	multiHeaders := make(map[string][]string, len(r.Header))
	for name, values := range r.Header {
		if len(values) == 0 {
			continue
		}
		headers[name] = values[0]
		multiHeaders[name] = values
	}

	query := r.URL.Query()
	queryParams := make(map[string]string, len(query))
	multiQueryParams := make(map[string][]string, len(query))
	for name, values := range query {
		if len(values) == 0 {
			continue
		}
		queryParams[name] = values[0]
		multiQueryParams[name] = values
	}

	uuidObj, err := uuid.NewRandom()
	if err != nil {
		return nil, errors.Wrap(err, "generate request id")
	}
	now := flextime.Now()

	event := events.APIGatewayProxyRequest{
		Resource:                        route.Path,
		Path:                            r.URL.Path,
		HTTPMethod:                      r.Method,
		Headers:                         headers,
		MultiValueHeaders:               multiHeaders,
		QueryStringParameters:           queryParams,
		MultiValueQueryStringParameters: multiQueryParams,
		StageVariables:                  gw.stageVariablesFor(route),
		Body:                            string(body),
		RequestContext: events.APIGatewayProxyRequestContext{
			Stage:            gw.stage,
			RequestID:        uuidObj.String(),
			ResourcePath:     route.Path,
			HTTPMethod:       r.Method,
			RequestTime:      now.Format("02/Jan/2006:15:04:05 -0700"),
			RequestTimeEpoch: now.UnixMilli(),
			Identity: events.APIGatewayRequestIdentity{
				SourceIP:  r.RemoteAddr,
				UserAgent: r.UserAgent(),
			},
		},
	}
	return json.Marshal(event)
}

// buildCustomEvent passes the parsed request body through, merging the
// configured stage variables in verbatim under a stageVariables key.
func (gw *Gateway) buildCustomEvent(route *Route, body []byte) ([]byte, error) {
	doc := bytes.TrimSpace(body)
	switch {
	case len(doc) == 0:
		doc = []byte("{}")
	case !gjson.ValidBytes(doc):
		var err error
		doc, err = json.Marshal(string(body))
		if err != nil {
			return nil, errors.Wrap(err, "encode request body")
		}
	}

	stageVars := gw.stageVariablesFor(route)
	if len(stageVars) > 0 && gjson.ParseBytes(doc).IsObject() {
		var err error
		doc, err = sjson.SetBytes(doc, "stageVariables", stageVars)
		if err != nil {
			return nil, errors.Wrap(err, "inject stage variables")
		}
	}
	return doc, nil
}
