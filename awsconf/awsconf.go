// Package awsconf loads the AWS SDK configuration shared by the DynamoDB
// store and the SQS queue.
package awsconf

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

const devRegion = "us-east-1"

// Load returns the default SDK config. In dev mode the local emulators accept
// any credentials, so static dummy ones and a fixed region are used.
func Load(ctx context.Context, devMode bool) (aws.Config, error) {
	if !devMode {
		return config.LoadDefaultConfig(ctx)
	}
	return config.LoadDefaultConfig(ctx,
		config.WithRegion(devRegion),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("dummy", "dummy", "")),
	)
}

// Endpoint returns endpoint as an SDK override, or nil to keep the default
// resolver.
func Endpoint(endpoint string) *string {
	if endpoint == "" {
		return nil
	}
	return aws.String(endpoint)
}
