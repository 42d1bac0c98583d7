package main

import (
	"flag"
	"net/http"

	offline "github.com/dimo92/serverless-offline"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	lambdasdk "github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

func main() {
	var (
		configPath = flag.String("config", "offline.yaml", "route configuration file")
		addr       = flag.String("addr", ":3000", "listen address")
		endpoint   = flag.String("endpoint", "", "Lambda Invoke API endpoint backing the configured functions")
		region     = flag.String("region", "us-east-1", "region reported to the Lambda endpoint")
	)
	flag.Parse()

	logger := logrus.New()

	gw, err := offline.New(
		offline.WithConfigFile(*configPath, buildResolver(*endpoint, *region)),
		offline.WithLogger(logger),
	)
	if err != nil {
		logger.WithError(err).Fatal("build gateway")
	}

	logger.WithField("addr", *addr).Info("serverless-offline listening")
	if err := http.ListenAndServe(*addr, gw); err != nil {
		logger.WithError(err).Fatal("serve")
	}
}

// buildResolver binds configured function names to a Lambda Invoke API
// endpoint. Without an endpoint there is nothing to bind handlers to, since
// local handlers are registered programmatically through the library API.
func buildResolver(endpoint, region string) offline.HandlerResolver {
	if endpoint == "" {
		return func(name string) (lambda.Handler, error) {
			return nil, errors.Errorf("handler %q: no -endpoint configured for remote functions", name)
		}
	}
	client := lambdasdk.New(lambdasdk.Options{
		Region:      region,
		Credentials: credentials.NewStaticCredentialsProvider("offline", "offline", ""),
		EndpointResolver: lambdasdk.EndpointResolverFunc(func(region string, options lambdasdk.EndpointResolverOptions) (aws.Endpoint, error) {
			return aws.Endpoint{
				URL:               endpoint,
				PartitionID:       "aws",
				SigningRegion:     region,
				HostnameImmutable: true,
			}, nil
		}),
	})
	return func(name string) (lambda.Handler, error) {
		return offline.RemoteHandler(client, name), nil
	}
}
