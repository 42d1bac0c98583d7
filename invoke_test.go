package offline_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/aws/aws-lambda-go/lambdacontext"
	offline "github.com/dimo92/serverless-offline"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestCallbackHandlerSuccess(t *testing.T) {
	gw := newGateway(t, offline.WithRoute(&offline.Route{
		Method:      http.MethodGet,
		Path:        "/cb",
		Integration: offline.IntegrationCustom,
		Handler: offline.CallbackHandler(func(event json.RawMessage, lctx *lambdacontext.LambdaContext, done offline.CompletionFunc) {
			require.NotNil(t, lctx)
			require.NotEmpty(t, lctx.AwsRequestID)
			done(nil, "Hello World")
		}),
	}))

	resp := gw.Process(httptest.NewRequest(http.MethodGet, "/cb", nil))
	require.Equal(t, "200", resp.Status)
	require.Equal(t, "Hello World", resp.Body)
}

func TestCallbackHandlerAsyncResolution(t *testing.T) {
	gw := newGateway(t, offline.WithRoute(&offline.Route{
		Method:      http.MethodGet,
		Path:        "/cb",
		Integration: offline.IntegrationCustom,
		Handler: offline.CallbackHandler(func(event json.RawMessage, lctx *lambdacontext.LambdaContext, done offline.CompletionFunc) {
			go done(nil, map[string]string{"greeting": "hi"})
		}),
		Templates: &offline.ResponseTemplates{Body: "$input.greeting"},
	}))

	resp := gw.Process(httptest.NewRequest(http.MethodGet, "/cb", nil))
	require.Equal(t, "200", resp.Status)
	require.Equal(t, "hi", resp.Body)
}

func TestCallbackHandlerFirstResolutionWins(t *testing.T) {
	var calls int32
	gw := newGateway(t, offline.WithRoute(&offline.Route{
		Method:      http.MethodGet,
		Path:        "/cb",
		Integration: offline.IntegrationCustom,
		Handler: offline.CallbackHandler(func(event json.RawMessage, lctx *lambdacontext.LambdaContext, done offline.CompletionFunc) {
			atomic.AddInt32(&calls, 1)
			done(errors.New("[404] first"), nil)
			done(nil, "second never counts")
			done(errors.New("[500] neither does third"), nil)
		}),
	}))

	req := httptest.NewRequest(http.MethodGet, "/cb", nil)
	resp := gw.Process(req)
	require.Equal(t, "404", resp.Status)
	require.Equal(t, "first", resp.Body)

	// repeated completions never corrupt later invocations
	resp = gw.Process(httptest.NewRequest(http.MethodGet, "/cb", nil))
	require.Equal(t, "404", resp.Status)
	require.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestCallbackHandlerErrorStatusExtraction(t *testing.T) {
	gw := newGateway(t, offline.WithRoute(&offline.Route{
		Method:      http.MethodGet,
		Path:        "/cb",
		Integration: offline.IntegrationCustom,
		Handler: offline.CallbackHandler(func(event json.RawMessage, lctx *lambdacontext.LambdaContext, done offline.CompletionFunc) {
			done(errors.New("plain failure"), nil)
		}),
	}))

	resp := gw.Process(httptest.NewRequest(http.MethodGet, "/cb", nil))
	require.Equal(t, "500", resp.Status)
	require.Equal(t, "plain failure", resp.Body)
}

func TestCustomEventCarriesBodyAndStageVariables(t *testing.T) {
	var captured json.RawMessage
	gw := newGateway(t,
		offline.WithStageVariables(map[string]string{"env": "dev"}),
		offline.WithRoute(&offline.Route{
			Method:      http.MethodPost,
			Path:        "/cb",
			Integration: offline.IntegrationCustom,
			Handler: offline.CallbackHandler(func(event json.RawMessage, lctx *lambdacontext.LambdaContext, done offline.CompletionFunc) {
				captured = event
				done(nil, "ok")
			}),
		}),
	)

	req := httptest.NewRequest(http.MethodPost, "/cb", strings.NewReader(`{"name":"world"}`))
	resp := gw.Process(req)
	require.Equal(t, "200", resp.Status)
	require.JSONEq(t, `{"name":"world","stageVariables":{"env":"dev"}}`, string(captured))
}
