package events

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

func TestNewMessage(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	msg, err := newMessage(ctx, map[string]int{"items_imported": 3})
	if err != nil {
		t.Fatalf("newMessage: %v", err)
	}
	if msg.ContentType != "application/json" || msg.DeliveryMode != amqp.Persistent || msg.MessageId == "" {
		t.Errorf("message = %+v", msg)
	}

	var body map[string]int
	if err := json.Unmarshal(msg.Body, &body); err != nil || body["items_imported"] != 3 {
		t.Errorf("body = %s (%v)", msg.Body, err)
	}

	got := trace.SpanContextFromContext(
		otel.GetTextMapPropagator().Extract(context.Background(), HeaderCarrier(msg.Headers)),
	)
	if got.TraceID() != traceID {
		t.Errorf("propagated trace id = %s, want %s", got.TraceID(), traceID)
	}
}

func TestNewMessage_Unmarshalable(t *testing.T) {
	if _, err := newMessage(context.Background(), make(chan int)); err == nil {
		t.Error("expected marshal error")
	}
}

func TestHeaderCarrier(t *testing.T) {
	c := HeaderCarrier(amqp.Table{"n": int32(1)})
	c.Set("traceparent", "x")

	if c.Get("traceparent") != "x" {
		t.Errorf("Get = %q", c.Get("traceparent"))
	}
	if c.Get("n") != "" {
		t.Error("non-string header should read as empty")
	}
	if len(c.Keys()) != 2 {
		t.Errorf("Keys = %v", c.Keys())
	}
}

// TestPublishConsume runs against a live broker when STORAGE_TEST_AMQP_URL
// is set.
func TestPublishConsume(t *testing.T) {
	url := os.Getenv("STORAGE_TEST_AMQP_URL")
	if url == "" {
		t.Skip("STORAGE_TEST_AMQP_URL not set")
	}
	const exchange = "storagetracker.test"

	cons, err := NewConsumer(url, exchange, "", []string{"import.*"})
	if err != nil {
		t.Fatalf("NewConsumer: %v", err)
	}
	defer cons.Close()

	pub, err := NewPublisher(url, exchange)
	if err != nil {
		t.Fatalf("NewPublisher: %v", err)
	}
	defer pub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pub.PublishJSON(ctx, "import.completed", map[string]string{"user_id": "u1"}); err != nil {
		t.Fatalf("PublishJSON: %v", err)
	}

	var got Delivery
	errDone := cons.Consume(ctx, func(d Delivery) error {
		got = d
		_ = d.Ack()
		cancel()
		return nil
	})
	if got.Key != "import.completed" {
		t.Fatalf("delivery = %+v, consume err = %v", got, errDone)
	}
}
