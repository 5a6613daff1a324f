package sqsmq

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/bishal292/whiteboard/awsconf"
	"github.com/sirupsen/logrus"
)

func newSQSClient(ctx context.Context, devMode bool, sqsEndpoint string) (*sqs.Client, error) {
	cfg, err := awsconf.Load(ctx, devMode)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return sqs.NewFromConfig(cfg, func(o *sqs.Options) {
		o.BaseEndpoint = awsconf.Endpoint(sqsEndpoint)
	}), nil
}

// resolveQueueURL looks the queue up by name. Against a local emulator a
// missing queue is created.
func resolveQueueURL(ctx context.Context, client *sqs.Client, queueName string, devMode bool) (string, error) {
	out, err := client.GetQueueUrl(ctx, &sqs.GetQueueUrlInput{QueueName: aws.String(queueName)})
	if err == nil {
		return aws.ToString(out.QueueUrl), nil
	}

	var missing *types.QueueDoesNotExist
	if !errors.As(err, &missing) {
		return "", fmt.Errorf("get queue url %s: %w", queueName, err)
	}
	if !devMode {
		return "", fmt.Errorf("queue %s not found in SQS", queueName)
	}

	logrus.WithField("queue", queueName).Info("Creating SQS queue")
	created, err := client.CreateQueue(ctx, &sqs.CreateQueueInput{QueueName: aws.String(queueName)})
	if err != nil {
		return "", fmt.Errorf("create queue %s: %w", queueName, err)
	}
	return aws.ToString(created.QueueUrl), nil
}
