// Package queue_publisher provides functions to publish domain events to RabbitMQ.
// Errors are logged and returned to allow callers to ignore failures without
// interrupting the main request flow.
package queue_publisher

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	q "github.com/iliyamo/tour-checkout/internal/queue"
)

// NewOrderCapturedPublisher returns a publish function bound to the
// given broker URL. Events are published to the "order.captured" queue
// as persistent messages. An empty URL means no broker is deployed; the
// returned function then skips publishing and reports success, so a
// capture is never delayed by dialing an address nobody configured.
func NewOrderCapturedPublisher(url string) func(ctx context.Context, event q.OrderCapturedEvent) error {
	return func(ctx context.Context, event q.OrderCapturedEvent) error {
		if url == "" {
			return nil
		}
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Printf("rabbitmq: dial failed: %v", err)
			return err
		}
		defer func() { _ = conn.Close() }()

		ch, err := conn.Channel()
		if err != nil {
			log.Printf("rabbitmq: channel open failed: %v", err)
			return err
		}
		defer func() { _ = ch.Close() }()

		// Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
		if _, err := ch.QueueDeclare(
			"order.captured", // name
			true,             // durable
			false,            // autoDelete
			false,            // exclusive
			false,            // noWait
			nil,              // args
		); err != nil {
			log.Printf("rabbitmq: queue declare failed: %v", err)
			return err
		}

		body, err := json.Marshal(event)
		if err != nil {
			log.Printf("rabbitmq: marshal event failed: %v", err)
			return err
		}

		pub := amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent, // store on disk
			Timestamp:    time.Now().UTC(),
			Body:         body,
		}

		if err := ch.PublishWithContext(ctx,
			"",               // default exchange
			"order.captured", // routing key = queue name
			false,            // mandatory
			false,            // immediate
			pub,
		); err != nil {
			log.Printf("rabbitmq: publish failed: %v", err)
			return err
		}

		return nil
	}
}
