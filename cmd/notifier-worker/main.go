package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/robertarktes/clinic-front-desk/internal/adapters/rabbit"
	"github.com/robertarktes/clinic-front-desk/internal/config"
	"github.com/robertarktes/clinic-front-desk/internal/observability"
)

// The notifier consumes queue lifecycle events and would hand them to a
// delivery channel (SMS gateway, display board). Here delivery is a
// structured log line; the gateway integration lives outside this repo.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	shutdownOtel, err := observability.SetupOTel(context.Background(), cfg)
	if err != nil {
		log.Fatalf("failed to setup otel: %v", err)
	}
	defer shutdownOtel()

	logger := observability.NewLogger()

	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("failed to connect to rabbitmq: %v", err)
	}
	defer conn.Close()

	consumer, err := rabbit.NewConsumer(conn, "clinic.notifier", "ticket.*", "queue.*")
	if err != nil {
		log.Fatalf("failed to create consumer: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deliveries, err := consumer.Consume(ctx)
	if err != nil {
		log.Fatalf("failed to consume: %v", err)
	}

	go func() {
		for d := range deliveries {
			var payload map[string]interface{}
			if err := json.Unmarshal(d.Body, &payload); err != nil {
				logger.WithError(err).Error("failed to decode event")
				d.Nack(false, false)
				continue
			}
			logger.WithField("routing_key", d.RoutingKey).
				WithField("message_id", d.MessageId).
				WithField("payload", payload).
				Info("notification dispatched")
			d.Ack(false)
		}
	}()

	logger.Info("Notifier worker started")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("Shutdown notifier worker")
}
