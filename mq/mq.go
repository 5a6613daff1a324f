package mq

import "context"

type MessageQueue interface {
	Send(ctx context.Context, body string) error
	Receive(ctx context.Context, maxMessages int32, visibilityTimeout int32) ([]Message, error)
	Delete(ctx context.Context, msg Message) error
}

// Message is a received queue message. ReceiptHandle is required to delete it.
type Message struct {
	Id            string
	ReceiptHandle string
	Body          string
}
