package offline

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/aws/aws-lambda-go/events"
)

const defaultContentType = "application/json"

// Response is the terminal output of one request's processing, ready for the
// transport layer to serialize.
type Response struct {
	// StatusCode is always the numeric status.
	StatusCode int
	// Status is the display form of the status code. Custom integrations
	// carry their status as a string on the wire contract; the builder
	// produces it here.
	Status  string
	Headers http.Header
	Body    string
}

func (resp *Response) write(w http.ResponseWriter) {
	for name, values := range resp.Headers {
		for _, value := range values {
			w.Header().Add(name, value)
		}
	}
	w.WriteHeader(resp.StatusCode)
	io.WriteString(w, resp.Body)
}

func newResponse(code int) *Response {
	return &Response{
		StatusCode: code,
		Status:     strconv.Itoa(code),
		Headers:    make(http.Header),
	}
}

// forbiddenResponse is the fixed wire shape for rejected private routes.
// Missing and invalid keys produce the identical bytes.
func forbiddenResponse() *Response {
	resp := newResponse(http.StatusForbidden)
	resp.Headers.Set("x-amzn-errortype", "ForbiddenException")
	resp.Headers.Set("Content-Type", defaultContentType)
	resp.Body = `{"message":"Forbidden"}`
	return resp
}

func notFoundResponse() *Response {
	resp := newResponse(http.StatusNotFound)
	resp.Headers.Set("Content-Type", defaultContentType)
	resp.Body = `{"message":"Not Found"}`
	return resp
}

func internalErrorResponse(code int) *Response {
	resp := newResponse(code)
	resp.Headers.Set("Content-Type", defaultContentType)
	resp.Body = `{"message": "Internal server error"}`
	return resp
}

// buildResponse assembles the final status, headers, and body from the
// invocation outcome according to the route's integration contract.
func (gw *Gateway) buildResponse(route *Route, output []byte, invokeErr error) *Response {
	if route.Integration == IntegrationProxy {
		return gw.buildProxyResponse(route, output, invokeErr)
	}
	return gw.buildCustomResponse(route, output, invokeErr)
}

// buildProxyResponse takes status, headers, and body directly from the
// structured result. Failures are not message-parsed; they surface as a
// fixed 502-class condition.
func (gw *Gateway) buildProxyResponse(route *Route, output []byte, invokeErr error) *Response {
	if invokeErr != nil {
		gw.logger.WithError(invokeErr).Error("proxy handler failed")
		return internalErrorResponse(http.StatusBadGateway)
	}

	var result events.APIGatewayProxyResponse
	if err := json.Unmarshal(output, &result); err != nil || result.StatusCode == 0 {
		gw.logger.WithField("path", route.Path).Error("proxy handler returned a malformed response")
		return internalErrorResponse(http.StatusBadGateway)
	}

	resp := newResponse(result.StatusCode)
	for name, value := range result.Headers {
		resp.Headers.Set(name, value)
	}
	for name, values := range result.MultiValueHeaders {
		for _, value := range values {
			resp.Headers.Add(name, value)
		}
	}
	if resp.Headers.Get("Content-Type") == "" {
		resp.Headers.Set("Content-Type", defaultContentType)
	}
	resp.Body = result.Body
	return resp
}

// buildCustomResponse derives the status and renders the route's response
// templates against the invocation outcome.
func (gw *Gateway) buildCustomResponse(route *Route, output []byte, invokeErr error) *Response {
	code := route.successStatus()
	tctx := templateContext{
		result:    output,
		stageVars: gw.stageVariablesFor(route),
	}
	bodyTemplate := "$input"
	if invokeErr != nil {
		code, tctx.errorMessage = extractStatus(invokeErr.Error())
		tctx.result = nil
		bodyTemplate = "$errorMessage"
	}

	resp := newResponse(code)
	if route.Templates != nil {
		for name, template := range route.Templates.Headers {
			resp.Headers.Set(name, render(template, tctx))
		}
		if route.Templates.Body != "" {
			bodyTemplate = route.Templates.Body
		}
	}
	if resp.Headers.Get("Content-Type") == "" {
		resp.Headers.Set("Content-Type", defaultContentType)
	}
	resp.Body = render(bodyTemplate, tctx)
	return resp
}
