package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"google.golang.org/api/option"
)

var errPubSubNoProject = errors.New("messaging: pubsub project id is not configured")

// PubSubConfig configures the Google Pub/Sub broker. When Client is set
// it is used as-is and ProjectID is ignored.
type PubSubConfig struct {
	ProjectID string

	Client        *pubsub.Client
	ClientOptions []option.ClientOption
}

// PubSub is the Broker implementation on top of Google Pub/Sub.
// Publishers are created per topic on first publish and reused.
type PubSub struct {
	client *pubsub.Client

	mu         sync.Mutex
	publishers map[string]*pubsub.Publisher
	closed     bool
}

func NewPubSub(ctx context.Context, cfg PubSubConfig) (*PubSub, error) {
	client := cfg.Client
	if client == nil {
		if cfg.ProjectID == "" {
			return nil, errPubSubNoProject
		}

		c, err := pubsub.NewClient(ctx, cfg.ProjectID, cfg.ClientOptions...)
		if err != nil {
			return nil, fmt.Errorf("messaging: pubsub client: %w", err)
		}
		client = c
	}

	return &PubSub{client: client, publishers: map[string]*pubsub.Publisher{}}, nil
}

// Publish sends the envelope to a topic. Headers become string
// attributes; Pub/Sub has no binary headers.
func (b *PubSub) Publish(ctx context.Context, topic string, env Envelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if topic == "" {
		return errEmptyTopic
	}

	pub, err := b.publisher(topic)
	if err != nil {
		return err
	}

	var attrs map[string]string
	if len(env.Headers) > 0 {
		attrs = make(map[string]string, len(env.Headers))
		for _, h := range env.Headers {
			if h.Key != "" {
				attrs[h.Key] = string(h.Value)
			}
		}
	}

	res := pub.Publish(ctx, &pubsub.Message{Data: env.Body, Attributes: attrs})
	if _, err := res.Get(ctx); err != nil {
		return fmt.Errorf("messaging: pubsub publish: %w", err)
	}
	return nil
}

// Consume receives from the subscription named by WithSubscription,
// falling back to the topic argument as the subscription ID.
func (b *PubSub) Consume(ctx context.Context, topic string, h Handler, opts ...ConsumeOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if topic == "" {
		return errEmptyTopic
	}
	if h == nil {
		return errNilHandler
	}
	if err := b.open(); err != nil {
		return err
	}

	cs := applyConsumeOptions(opts)
	subscription := cs.subscription
	if subscription == "" {
		subscription = topic
	}

	sub := b.client.Subscriber(subscription)
	if cs.workers > 0 {
		sub.ReceiveSettings.NumGoroutines = cs.workers
	}
	if cs.maxInFlight > 0 {
		sub.ReceiveSettings.MaxOutstandingMessages = cs.maxInFlight
	}

	return sub.Receive(ctx, func(ctx context.Context, m *pubsub.Message) {
		d := &pubsubDelivery{topic: topic, msg: m}
		herr := runHandler(ctx, "pubsub", func() error { return h(ctx, d) })
		if d.done.Load() || !cs.autoAck {
			return
		}
		if herr != nil {
			d.Nack(ctx) //nolint:errcheck // nack never fails here
		} else {
			d.Ack(ctx) //nolint:errcheck // ack never fails here
		}
	})
}

// Close stops publishers and the client.
func (b *PubSub) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	pubs := make([]*pubsub.Publisher, 0, len(b.publishers))
	for _, p := range b.publishers {
		pubs = append(pubs, p)
	}
	b.publishers = nil
	b.mu.Unlock()

	for _, p := range pubs {
		p.Stop()
	}
	return b.client.Close()
}

func (b *PubSub) publisher(topic string) (*pubsub.Publisher, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, errBrokerClose
	}
	if p, ok := b.publishers[topic]; ok {
		return p, nil
	}
	p := b.client.Publisher(topic)
	b.publishers[topic] = p
	return p, nil
}

func (b *PubSub) open() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return errBrokerClose
	}
	return nil
}

type pubsubDelivery struct {
	topic string
	msg   *pubsub.Message
	done  atomic.Bool
}

func (d *pubsubDelivery) Body() []byte { return d.msg.Data }

func (d *pubsubDelivery) Headers() []Header {
	if len(d.msg.Attributes) == 0 {
		return nil
	}
	out := make([]Header, 0, len(d.msg.Attributes))
	for k, v := range d.msg.Attributes {
		out = append(out, Header{Key: k, Value: []byte(v)})
	}
	return out
}

func (d *pubsubDelivery) ID() string           { return d.msg.ID }
func (d *pubsubDelivery) Source() string       { return d.topic }
func (d *pubsubDelivery) Timestamp() time.Time { return d.msg.PublishTime }

func (d *pubsubDelivery) Ack(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !d.done.Swap(true) {
		d.msg.Ack()
	}
	return nil
}

func (d *pubsubDelivery) Nack(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !d.done.Swap(true) {
		d.msg.Nack()
	}
	return nil
}
