package offline

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-lambda-go/lambda/messages"
	"github.com/aws/aws-sdk-go-v2/aws"
	lambdasdk "github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/pkg/errors"
)

// RemoteHandler binds a route to a function served by a Lambda Invoke API
// endpoint, so already-deployed (or separately stubbed) functions can back
// local routes. A function error reported by the endpoint is surfaced as a
// plain error carrying the remote error message, which keeps bracket-prefix
// status extraction working across the wire.
func RemoteHandler(client *lambdasdk.Client, functionName string) lambda.Handler {
	return &remoteHandler{client: client, functionName: functionName}
}

type remoteHandler struct {
	client       *lambdasdk.Client
	functionName string
}

func (h *remoteHandler) Invoke(ctx context.Context, payload []byte) ([]byte, error) {
	output, err := h.client.Invoke(ctx, &lambdasdk.InvokeInput{
		FunctionName: aws.String(h.functionName),
		Payload:      payload,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "invoke %s", h.functionName)
	}
	if output.FunctionError == nil {
		return output.Payload, nil
	}

	var ive messages.InvokeResponse_Error
	if err := json.Unmarshal(output.Payload, &ive); err != nil || ive.Message == "" {
		return nil, errors.Errorf("function %s failed: %s", h.functionName, aws.ToString(output.FunctionError))
	}
	return nil, errors.New(ive.Message)
}
