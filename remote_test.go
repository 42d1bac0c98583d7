package offline_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aws/aws-lambda-go/lambda/messages"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	lambdasdk "github.com/aws/aws-sdk-go-v2/service/lambda"
	offline "github.com/dimo92/serverless-offline"
	"github.com/stretchr/testify/require"
)

// stub of the Lambda Invoke API: greeter echoes a greeting, broken reports a
// function error through the X-Amz-Function-Error contract.
func newInvokeAPIStub(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		if !strings.HasSuffix(r.URL.Path, "/invocations") {
			http.NotFound(w, r)
			return
		}
		payload, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		switch {
		case strings.Contains(r.URL.Path, "/functions/greeter/"):
			var event map[string]interface{}
			require.NoError(t, json.Unmarshal(payload, &event))
			out, _ := json.Marshal("Hello " + event["name"].(string))
			w.WriteHeader(http.StatusOK)
			w.Write(out)
		case strings.Contains(r.URL.Path, "/functions/broken/"):
			w.Header().Set("X-Amz-Function-Error", "Unhandled")
			out, _ := json.Marshal(messages.InvokeResponse_Error{
				Message: "[403] remote says no",
				Type:    "errorString",
			})
			w.WriteHeader(http.StatusOK)
			w.Write(out)
		default:
			http.NotFound(w, r)
		}
	}))
}

func newLambdaClient(server *httptest.Server) *lambdasdk.Client {
	return lambdasdk.New(lambdasdk.Options{
		Region:      "us-east-1",
		Credentials: credentials.NewStaticCredentialsProvider("ACCESS_KEY_ID", "SECRET_KEY", "TOKEN"),
		EndpointResolver: lambdasdk.EndpointResolverFunc(func(region string, options lambdasdk.EndpointResolverOptions) (aws.Endpoint, error) {
			return aws.Endpoint{
				URL:               server.URL,
				PartitionID:       "aws",
				SigningRegion:     "us-east-1",
				HostnameImmutable: true,
			}, nil
		}),
	})
}

func TestRemoteHandler(t *testing.T) {
	api := newInvokeAPIStub(t)
	defer api.Close()
	client := newLambdaClient(api)

	gw := newGateway(t, offline.WithRoute(&offline.Route{
		Method:      http.MethodPost,
		Path:        "/greet",
		Integration: offline.IntegrationCustom,
		Handler:     offline.RemoteHandler(client, "greeter"),
	}))

	req := httptest.NewRequest(http.MethodPost, "/greet", strings.NewReader(`{"name":"world"}`))
	resp := gw.Process(req)
	require.Equal(t, "200", resp.Status)
	require.Equal(t, "Hello world", resp.Body)
}

func TestRemoteHandlerFunctionError(t *testing.T) {
	api := newInvokeAPIStub(t)
	defer api.Close()
	client := newLambdaClient(api)

	gw := newGateway(t, offline.WithRoute(&offline.Route{
		Method:      http.MethodGet,
		Path:        "/broken",
		Integration: offline.IntegrationCustom,
		Handler:     offline.RemoteHandler(client, "broken"),
	}))

	// the remote error message flows through bracket status extraction
	resp := gw.Process(httptest.NewRequest(http.MethodGet, "/broken", nil))
	require.Equal(t, "403", resp.Status)
	require.Equal(t, "remote says no", resp.Body)
}
