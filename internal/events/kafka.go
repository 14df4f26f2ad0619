// Package events publishes order status changes to downstream consumers.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/IBM/sarama"
	"github.com/metinatakli/storefront-payments/internal/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultTopic = "orders.status-changed"

	eventTypeStatusChanged = "order.status_changed"
)

// KafkaPublisher hands events to an asynchronous producer. Broker
// acknowledgements are collected in the background, so publishing never
// waits on the broker inside a request.
type KafkaPublisher struct {
	producer sarama.AsyncProducer
	topic    string
	logger   *slog.Logger
	wg       sync.WaitGroup
}

// NewProducerConfig returns the producer settings every publisher uses.
func NewProducerConfig() *sarama.Config {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.Return.Errors = true
	config.Producer.Retry.Max = 3
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Compression = sarama.CompressionSnappy

	return config
}

func NewKafkaPublisher(brokers []string, topic string, logger *slog.Logger) (*KafkaPublisher, error) {
	producer, err := sarama.NewAsyncProducer(brokers, NewProducerConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	logger.Info("kafka publisher initialized", "brokers", brokers, "topic", topic)

	return NewKafkaPublisherWithProducer(producer, topic, logger), nil
}

func NewKafkaPublisherWithProducer(producer sarama.AsyncProducer, topic string, logger *slog.Logger) *KafkaPublisher {
	if topic == "" {
		topic = DefaultTopic
	}

	p := &KafkaPublisher{
		producer: producer,
		topic:    topic,
		logger:   logger,
	}

	p.wg.Add(2)
	go p.drainSuccesses()
	go p.drainErrors()

	return p
}

// PublishStatusChanged queues the event keyed by order id, so every change of
// one order lands on the same partition in order. Delivery failures are
// logged once the broker reports them.
func (p *KafkaPublisher) PublishStatusChanged(ctx context.Context, event domain.OrderStatusChanged) error {
	ctx, span := otel.Tracer("kafka-publisher").Start(ctx, "kafka.publish.order_status_changed",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination", p.topic),
			attribute.String("order.id", event.OrderID),
			attribute.String("order.status", event.To.String()),
		),
	)
	defer span.End()

	body, err := json.Marshal(event)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to marshal event")
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)

	headers := []sarama.RecordHeader{
		{Key: []byte("event_type"), Value: []byte(eventTypeStatusChanged)},
	}
	for key, value := range carrier {
		headers = append(headers, sarama.RecordHeader{Key: []byte(key), Value: []byte(value)})
	}

	msg := &sarama.ProducerMessage{
		Topic:    p.topic,
		Key:      sarama.StringEncoder(event.OrderID),
		Value:    sarama.ByteEncoder(body),
		Headers:  headers,
		Metadata: event,
	}

	select {
	case p.producer.Input() <- msg:
		return nil
	case <-ctx.Done():
		span.RecordError(ctx.Err())
		span.SetStatus(codes.Error, "failed to queue message")
		return fmt.Errorf("failed to queue message for kafka: %w", ctx.Err())
	}
}

func (p *KafkaPublisher) drainSuccesses() {
	defer p.wg.Done()

	for msg := range p.producer.Successes() {
		event, _ := msg.Metadata.(domain.OrderStatusChanged)
		p.logger.Debug("order status change published",
			"order_id", event.OrderID,
			"to", event.To,
			"partition", msg.Partition,
			"offset", msg.Offset)
	}
}

func (p *KafkaPublisher) drainErrors() {
	defer p.wg.Done()

	for perr := range p.producer.Errors() {
		var event domain.OrderStatusChanged
		if perr.Msg != nil {
			event, _ = perr.Msg.Metadata.(domain.OrderStatusChanged)
		}

		p.logger.Warn("failed to publish order status change",
			"order_id", event.OrderID,
			"to", event.To,
			"error", perr.Err)
	}
}

// Close flushes queued events and waits until the broker has answered for
// every one of them.
func (p *KafkaPublisher) Close() {
	p.producer.AsyncClose()
	p.wg.Wait()
}
