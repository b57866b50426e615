package notify

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// QueueName is the durable queue reservation notifications are
// published to.  The background consumer in internal/queue drains it.
const QueueName = "reservation.notifications"

// AMQPNotifier publishes notifications to RabbitMQ.  The function
// attempts to be robust and to never panic; any error is logged and
// returned so the caller can choose to ignore it.  Messages are
// marked as persistent.
type AMQPNotifier struct {
	url string
}

// NewAMQPNotifier builds a notifier for the given broker URL.
func NewAMQPNotifier(url string) *AMQPNotifier {
	return &AMQPNotifier{url: url}
}

// Notify opens a connection, declares the queue (idempotent) and
// publishes the notification as JSON.  A short-lived connection per
// message keeps the publisher stateless, matching the rest of the
// request path.
func (p *AMQPNotifier) Notify(ctx context.Context, n Notification) error {
	conn, err := amqp.Dial(p.url)
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

	// Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(
		QueueName, // name
		true,      // durable
		false,     // autoDelete
		false,     // exclusive
		false,     // noWait
		nil,       // args
	); err != nil {
		log.Printf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	body, err := json.Marshal(n)
	if err != nil {
		log.Printf("rabbitmq: marshal notification failed: %v", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx,
		"",        // default exchange
		QueueName, // routing key = queue name
		false,     // mandatory
		false,     // immediate
		pub,
	); err != nil {
		log.Printf("rabbitmq: publish failed: %v", err)
		return err
	}
	return nil
}
