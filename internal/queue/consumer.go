package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AuditLog appends one line per enquiry event to a file.
type AuditLog struct {
	Path string
}

// StartEnquiryConsumer consumes enquiry.events until ctx is cancelled,
// reconnecting with exponential backoff (capped at 30s).  A message that
// cannot be handled is rejected without requeue so it cannot loop.
func StartEnquiryConsumer(ctx context.Context, url string, sink *AuditLog) error {
	if url == "" {
		return errors.New("enquiry-consumer: broker url is empty")
	}
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Printf("enquiry-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = consumeLoop(ctx, conn, sink)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Printf("enquiry-consumer: consume loop ended: %v; reconnecting", err)
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, sink *AuditLog) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Printf("enquiry-consumer: set QoS failed: %v", err)
	}
	if _, err := ch.QueueDeclare(EnquiryEventsQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(EnquiryEventsQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := sink.Handle(d.Body); err != nil {
				log.Printf("enquiry-consumer: handle message failed: %v", err)
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// Handle decodes one event and appends it to the log file.
func (a *AuditLog) Handle(body []byte) error {
	var ev EnquiryEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Kind == "" || ev.EnquiryID == 0 {
		return errors.New("event missing kind or enquiry id")
	}
	if err := os.MkdirAll(filepath.Dir(a.Path), 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(a.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(FormatEvent(ev)); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// FormatEvent renders ev as a single newline-terminated line.
func FormatEvent(ev EnquiryEvent) string {
	line := fmt.Sprintf("[%s] %s | enquiry_id=%d | business_id=%d | order=%q | status=%q | actor=%q (%s, id=%d)",
		ev.OccurredAt, ev.Kind, ev.EnquiryID, ev.BusinessID, ev.OrderNumber, ev.Status,
		ev.ActorUsername, ev.ActorRole, ev.ActorID)
	if ev.Attachments > 0 {
		line += fmt.Sprintf(" | attachments=%d", ev.Attachments)
	}
	return line + "\n"
}
