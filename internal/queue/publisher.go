package queue

import (
	"context"
	"encoding/json"
	"os"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// BrokerURL reads RABBITMQ_URL, then AMQP_URL.  Empty means publishing is
// switched off.
func BrokerURL() string {
	if url := os.Getenv("RABBITMQ_URL"); url != "" {
		return url
	}
	return os.Getenv("AMQP_URL")
}

// Publisher sends enquiry events to the broker.  Each publish dials its own
// connection, so a broker outage never wedges a request; callers treat
// errors as best effort.
type Publisher struct {
	url string
}

// NewPublisher returns nil when url is empty; a nil Publisher drops events.
func NewPublisher(url string) *Publisher {
	if url == "" {
		return nil
	}
	return &Publisher{url: url}
}

// PublishEnquiryEvent marshals ev and publishes it persistently on
// enquiry.events via the default exchange.
func (p *Publisher) PublishEnquiryEvent(ctx context.Context, ev EnquiryEvent) error {
	if p == nil {
		return nil
	}
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(EnquiryEventsQueue, true, false, false, false, nil); err != nil {
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return ch.PublishWithContext(ctx, "", EnquiryEventsQueue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         ev.Kind,
		Body:         body,
	})
}
