// Package messaging puts a small publish/consume API in front of the
// configured event broker so module code never imports a broker SDK
// directly. NSQ, NATS, Kafka and Google Pub/Sub are supported; the
// driver is chosen once at startup via Open.
package messaging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"github.com/shandysiswandi/verimail/internal/pkg/stacktrace"
)

// Driver names accepted by Open.
const (
	DriverNSQ          = "nsq"
	DriverNATS         = "nats"
	DriverKafka        = "kafka"
	DriverGooglePubSub = "google-pubsub"
)

var (
	// ErrUnknownDriver indicates a driver name Open does not recognize.
	ErrUnknownDriver = errors.New("messaging: unknown driver")

	errEmptyTopic  = errors.New("messaging: topic is required")
	errNilHandler  = errors.New("messaging: handler is required")
	errBrokerClose = errors.New("messaging: broker is closed")
)

// Broker publishes envelopes to topics and runs consumers against them.
type Broker interface {
	io.Closer

	// Publish sends one envelope to a topic. It returns once the broker
	// has accepted the message.
	Publish(ctx context.Context, topic string, env Envelope) error

	// Consume blocks, delivering messages from the topic to the handler
	// until ctx is canceled or the broker shuts down.
	Consume(ctx context.Context, topic string, h Handler, opts ...ConsumeOption) error
}

// Envelope is an outgoing message.
type Envelope struct {
	// Body is the payload, typically JSON.
	Body []byte

	// Key is the partitioning key for brokers that order by key.
	Key []byte

	// Headers travel with the message where the broker supports them;
	// Pub/Sub maps them to string attributes, NSQ drops them.
	Headers []Header
}

// Header is one message header.
type Header struct {
	Key   string
	Value []byte
}

// Delivery is a received message. Ack and Nack are idempotent; whichever
// is called first wins.
type Delivery interface {
	Body() []byte
	Headers() []Header

	// ID is the broker-assigned message identity, empty when the broker
	// has none.
	ID() string
	// Source is the topic or subject the message arrived on.
	Source() string
	Timestamp() time.Time

	Ack(ctx context.Context) error
	Nack(ctx context.Context) error
}

// Handler processes one delivery. With WithAutoAck the broker wrapper
// acks on a nil return and nacks otherwise, unless the handler already
// responded itself.
type Handler func(ctx context.Context, d Delivery) error

// DriverConfig carries the per-broker settings; only the block matching
// the selected driver is read.
type DriverConfig struct {
	NSQ    NSQConfig
	NATS   NATSConfig
	Kafka  KafkaConfig
	PubSub PubSubConfig
}

// Open builds the Broker named by driver.
func Open(ctx context.Context, driver string, cfg DriverConfig) (Broker, error) {
	switch strings.TrimSpace(driver) {
	case DriverNSQ:
		return NewNSQ(cfg.NSQ)
	case DriverNATS:
		return NewNATS(cfg.NATS)
	case DriverKafka:
		return NewKafka(cfg.Kafka)
	case DriverGooglePubSub:
		return NewPubSub(ctx, cfg.PubSub)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}

type consumeSettings struct {
	workers     int
	maxInFlight int
	autoAck     bool

	channel      string // NSQ
	queueGroup   string // NATS
	group        string // Kafka
	subscription string // Pub/Sub
}

// ConsumeOption tunes a single Consume call.
type ConsumeOption func(*consumeSettings)

func applyConsumeOptions(opts []ConsumeOption) consumeSettings {
	cs := consumeSettings{workers: 1}
	for _, opt := range opts {
		if opt != nil {
			opt(&cs)
		}
	}
	if cs.workers < 1 {
		cs.workers = 1
	}
	return cs
}

// WithConcurrency sets how many handler goroutines run in parallel.
func WithConcurrency(n int) ConsumeOption {
	return func(cs *consumeSettings) { cs.workers = n }
}

// WithMaxInFlight caps the number of unacknowledged deliveries.
func WithMaxInFlight(n int) ConsumeOption {
	return func(cs *consumeSettings) { cs.maxInFlight = n }
}

// WithAutoAck makes the wrapper ack or nack based on the handler result.
func WithAutoAck(on bool) ConsumeOption {
	return func(cs *consumeSettings) { cs.autoAck = on }
}

// WithChannel names the NSQ channel.
func WithChannel(name string) ConsumeOption {
	return func(cs *consumeSettings) { cs.channel = name }
}

// WithQueueGroup names the NATS queue group.
func WithQueueGroup(name string) ConsumeOption {
	return func(cs *consumeSettings) { cs.queueGroup = name }
}

// WithGroup names the Kafka consumer group.
func WithGroup(name string) ConsumeOption {
	return func(cs *consumeSettings) { cs.group = name }
}

// WithSubscription names the Pub/Sub subscription.
func WithSubscription(name string) ConsumeOption {
	return func(cs *consumeSettings) { cs.subscription = name }
}

// runHandler shields the consume loop from handler panics. A panic is
// logged with its in-module frames and surfaced as an error so auto-ack
// treats it as a failure.
func runHandler(ctx context.Context, broker string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			stack := debug.Stack()
			frames := stacktrace.InternalPaths(stack)
			if len(frames) == 0 {
				slog.ErrorContext(ctx, "panic in message handler",
					"broker", broker, "panic", r, "stack", string(stack))
			} else {
				slog.ErrorContext(ctx, "panic in message handler",
					"broker", broker, "panic", r, "stack", frames)
			}
			err = fmt.Errorf("messaging: %s handler panicked: %v", broker, r)
		}
	}()

	return fn()
}
