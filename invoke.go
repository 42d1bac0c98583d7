package offline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/Songmu/flextime"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/aws/aws-sdk-go/aws/arn"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// invoke calls the route's handler exactly once with the built event. A
// handler failure is returned as-is; status derivation happens in the
// response builder. There are no retries.
func (gw *Gateway) invoke(ctx context.Context, route *Route, payload []byte) ([]byte, error) {
	uuidObj, _ := uuid.NewRandom()
	reqID := uuidObj.String()
	functionARN := arn.ARN{
		Partition: "aws",
		AccountID: "123456789012",
		Service:   "lambda",
		Region:    os.Getenv("AWS_DEFAULT_REGION"),
		Resource:  fmt.Sprintf("function:%s%s", gw.stage, route.Path),
	}
	if functionARN.Region == "" {
		functionARN.Region = "us-east-1"
	}

	lctx := lambdacontext.NewContext(ctx, &lambdacontext.LambdaContext{
		AwsRequestID:       reqID,
		InvokedFunctionArn: functionARN.String(),
	})

	fields := logrus.Fields{
		"requestId": reqID,
		"method":    route.Method,
		"path":      route.Path,
	}
	start := flextime.Now()
	gw.logger.WithFields(fields).Info("START invocation")
	output, err := route.Handler.Invoke(lctx, payload)
	fields["durationMs"] = float64(flextime.Now().Sub(start).Microseconds()) / 1000.0
	if err != nil {
		gw.logger.WithFields(fields).WithError(err).Info("END invocation (error)")
		return nil, err
	}
	gw.logger.WithFields(fields).Info("END invocation")
	return output, nil
}

// CompletionFunc resolves a callback-style handler with either an error or a
// success value. Only the first call counts; later calls are ignored.
type CompletionFunc func(err error, result interface{})

// CallbackFunc is a handler that reports completion through a callback
// rather than a return value. The callback may be called from another
// goroutine after the function body returns.
type CallbackFunc func(event json.RawMessage, lctx *lambdacontext.LambdaContext, done CompletionFunc)

// CallbackHandler adapts a callback-style function to the handler
// capability. First resolution wins: the adapter, not caller discipline,
// guarantees the invocation observes at most one outcome.
func CallbackHandler(fn CallbackFunc) lambda.Handler {
	return &callbackHandler{fn: fn}
}

type callbackHandler struct {
	fn CallbackFunc
}

type resolution struct {
	err    error
	result interface{}
}

func (h *callbackHandler) Invoke(ctx context.Context, payload []byte) ([]byte, error) {
	resolved := make(chan resolution, 1)
	var once sync.Once
	done := func(err error, result interface{}) {
		once.Do(func() {
			resolved <- resolution{err: err, result: result}
		})
	}

	lctx, _ := lambdacontext.FromContext(ctx)
	h.fn(payload, lctx, done)

	// A handler that never resolves leaves the request pending;
	// cancellation is the transport layer's concern.
	res := <-resolved
	if res.err != nil {
		return nil, res.err
	}
	return json.Marshal(res.result)
}
