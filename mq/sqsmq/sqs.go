package sqsmq

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/bishal292/whiteboard/mq"
)

const (
	// SQS caps a single receive at 10 messages
	maxReceiveBatch = 10
	longPollSeconds = 20
)

type SQSMessageQueue struct {
	client   *sqs.Client
	queueURL string
}

func NewSQSMessageQueue(ctx context.Context, devMode bool, sqsEndpoint string, queueName string) (*SQSMessageQueue, error) {
	client, err := newSQSClient(ctx, devMode, sqsEndpoint)
	if err != nil {
		return nil, err
	}

	queueURL, err := resolveQueueURL(ctx, client, queueName, devMode)
	if err != nil {
		return nil, err
	}
	return &SQSMessageQueue{client: client, queueURL: queueURL}, nil
}

func (q *SQSMessageQueue) Send(ctx context.Context, body string) error {
	_, err := q.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(q.queueURL),
		MessageBody: aws.String(body),
	})
	return err
}

// Receive long-polls for up to maxMessages messages, hidden from other
// receivers for visibilityTimeout seconds.
func (q *SQSMessageQueue) Receive(ctx context.Context, maxMessages int32, visibilityTimeout int32) ([]mq.Message, error) {
	if maxMessages <= 0 || maxMessages > maxReceiveBatch {
		maxMessages = maxReceiveBatch
	}

	resp, err := q.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(q.queueURL),
		MaxNumberOfMessages: maxMessages,
		WaitTimeSeconds:     longPollSeconds,
		VisibilityTimeout:   visibilityTimeout,
	})
	if err != nil {
		return nil, err
	}

	messages := make([]mq.Message, len(resp.Messages))
	for i, m := range resp.Messages {
		messages[i] = mq.Message{
			Id:            aws.ToString(m.MessageId),
			ReceiptHandle: aws.ToString(m.ReceiptHandle),
			Body:          aws.ToString(m.Body),
		}
	}
	return messages, nil
}

func (q *SQSMessageQueue) Delete(ctx context.Context, msg mq.Message) error {
	_, err := q.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(q.queueURL),
		ReceiptHandle: aws.String(msg.ReceiptHandle),
	})
	return err
}
