package main // enquiry-audit appends every enquiry event from the broker to a log file

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/iliyamo/returns-desk/internal/queue"
)

func main() {
	_ = godotenv.Load()

	url := queue.BrokerURL()
	if url == "" {
		log.Fatal("RABBITMQ_URL or AMQP_URL must be set")
	}
	path := os.Getenv("ENQUIRY_AUDIT_LOG")
	if path == "" {
		path = "logs/enquiry.log"
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("consuming %s into %s", queue.EnquiryEventsQueue, path)
	if err := queue.StartEnquiryConsumer(ctx, url, &queue.AuditLog{Path: path}); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal(err)
	}
}
